package service

import (
	"context"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

type DashboardService interface {
	Snapshots(ctx context.Context) ([]model.DashboardSnapshot, error)
	Charts() dto.DashboardCharts
}

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	limit         int64
}

func NewDashboardService(dashboardRepo repository.DashboardRepository, cfg *config.Config) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		limit:         cfg.Collections.DashboardPageLimit,
	}
}

func (s *dashboardService) Snapshots(ctx context.Context) ([]model.DashboardSnapshot, error) {
	return s.dashboardRepo.Latest(ctx, s.limit)
}

// Charts returns the dashboard's presentational chart content. The series are fixed sample
// values and do not reflect the stored snapshots.
func (s *dashboardService) Charts() dto.DashboardCharts {
	return sampleCharts()
}

func sampleCharts() dto.DashboardCharts {
	timestamps := []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04", "2023-01-05"}
	noFill := false

	return dto.DashboardCharts{
		Bar: dto.ChartData{
			Labels: timestamps,
			Datasets: []dto.ChartDataset{
				{
					Label:           "Total Threats",
					Data:            []int{10, 20, 30, 40, 50},
					BackgroundColor: "rgba(54, 162, 235, 0.6)",
					BorderColor:     "rgba(54, 162, 235, 1)",
					BorderWidth:     1,
				},
			},
		},
		Line: dto.ChartData{
			Labels: timestamps,
			Datasets: []dto.ChartDataset{
				{Label: "High Severity Threats", Data: []int{5, 10, 15, 20, 25}, Fill: &noFill, BorderColor: "rgba(255, 99, 132, 1)", Tension: 0.1},
				{Label: "Medium Severity Threats", Data: []int{3, 6, 9, 12, 15}, Fill: &noFill, BorderColor: "rgba(255, 206, 86, 1)", Tension: 0.1},
				{Label: "Low Severity Threats", Data: []int{2, 4, 6, 8, 10}, Fill: &noFill, BorderColor: "rgba(75, 192, 192, 1)", Tension: 0.1},
			},
		},
		Pie: dto.ChartData{
			Labels: []string{"High Severity", "Medium Severity", "Low Severity"},
			Datasets: []dto.ChartDataset{
				{
					Data:                 []int{75, 45, 30},
					BackgroundColor:      []string{"#FF6384", "#FFCE56", "#36A2EB"},
					HoverBackgroundColor: []string{"#FF6384", "#FFCE56", "#36A2EB"},
				},
			},
		},
		Activity: []dto.ActivityRow{
			{Timestamp: "2023-01-01 10:00", Activity: "Login attempt from IP 192.168.1.1"},
			{Timestamp: "2023-01-01 10:05", Activity: "File uploaded to server"},
			{Timestamp: "2023-01-01 10:10", Activity: "User created: john_doe"},
			{Timestamp: "2023-01-01 10:15", Activity: "Password changed for user admin"},
			{Timestamp: "2023-01-01 10:20", Activity: "Failed login attempt from IP 192.168.1.2"},
		},
	}
}
