package controller

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/logtable"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/service"
)

type fakeCollectionQueryService struct {
	docs  map[string][]bson.M
	err   error
	calls []string
}

func (f *fakeCollectionQueryService) Query(ctx context.Context, collection string) ([]bson.M, error) {
	f.calls = append(f.calls, collection)
	if f.err != nil {
		return nil, f.err
	}
	docs, ok := f.docs[collection]
	if !ok {
		return nil, service.ErrUnknownCollection
	}
	return docs, nil
}

type fakeLogQueryService struct {
	requests []dto.LogSearchRequest
	err      error
}

func (f *fakeLogQueryService) SearchLogs(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.LogSearchResponse{Logs: []model.LogEntry{{Activity: "Login"}}, TotalCount: 1, Page: req.Page, Size: req.Size}, nil
}

type fakeLogTableService struct {
	logs []model.LogEntry
	err  error
}

func (f *fakeLogTableService) Recent(ctx context.Context) ([]model.LogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.logs, nil
}

func (f *fakeLogTableService) View(logs []model.LogEntry, term string, page int) logtable.View {
	return logtable.Build(logs, term, page)
}

type fakeDashboardService struct {
	snapshots []model.DashboardSnapshot
	err       error
}

func (f *fakeDashboardService) Snapshots(ctx context.Context) ([]model.DashboardSnapshot, error) {
	return f.snapshots, f.err
}

func (f *fakeDashboardService) Charts() dto.DashboardCharts {
	return dto.DashboardCharts{
		Bar:      dto.ChartData{Labels: []string{"2023-01-01"}, Datasets: []dto.ChartDataset{{Label: "Total Threats", Data: []int{10}}}},
		Activity: []dto.ActivityRow{{Timestamp: "2023-01-01 10:00", Activity: "File uploaded to server"}},
	}
}

type fakeDocumentRepository struct {
	pingErr error
}

func (f *fakeDocumentRepository) Find(ctx context.Context, query dto.CollectionQuery) ([]bson.M, error) {
	return nil, nil
}

func (f *fakeDocumentRepository) Insert(ctx context.Context, collection string, docs []any) error {
	return nil
}

func (f *fakeDocumentRepository) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	return 0, nil
}

func (f *fakeDocumentRepository) Ping(ctx context.Context) error {
	return f.pingErr
}
