package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/metrics"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

const (
	statusResolved = "resolved"
	snapshotLayout = "2006-01-02 15:04"
)

// SnapshotService derives a dashboard snapshot from the threats, alerts and reports collections
// and stores it in the dashboard collection.
type SnapshotService interface {
	TakeSnapshot(ctx context.Context) (*model.DashboardSnapshot, error)
}

type snapshotService struct {
	docRepo       repository.DocumentRepository
	dashboardRepo repository.DashboardRepository
	now           func() time.Time
	runLock       sync.Mutex
}

func NewSnapshotService(docRepo repository.DocumentRepository, dashboardRepo repository.DashboardRepository) SnapshotService {
	return &snapshotService{
		docRepo:       docRepo,
		dashboardRepo: dashboardRepo,
		now:           time.Now,
	}
}

func (s *snapshotService) TakeSnapshot(ctx context.Context) (*model.DashboardSnapshot, error) {
	if !s.runLock.TryLock() {
		log.Warn().Msg("Snapshot already in progress, skipping run.")
		return nil, nil
	}
	defer s.runLock.Unlock()

	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		metrics.SnapshotRuns.WithLabelValues("failed").Inc()
		return nil, err
	}
	if err := s.dashboardRepo.Save(ctx, *snapshot); err != nil {
		metrics.SnapshotRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to save dashboard snapshot: %w", err)
	}

	metrics.SnapshotRuns.WithLabelValues("saved").Inc()
	log.Info().
		Str("timestamp", snapshot.Timestamp).
		Int64("total_threats", snapshot.TotalThreats).
		Int64("unresolved_alerts", snapshot.UnresolvedAlerts).
		Int64("active_incidents", snapshot.ActiveIncidents).
		Msg("Dashboard snapshot saved")
	return snapshot, nil
}

func (s *snapshotService) buildSnapshot(ctx context.Context) (*model.DashboardSnapshot, error) {
	snapshot := &model.DashboardSnapshot{
		Timestamp: s.now().UTC().Format(snapshotLayout),
	}

	counts := []struct {
		collection string
		filter     bson.M
		target     *int64
	}{
		{config.CollectionThreats, nil, &snapshot.TotalThreats},
		{config.CollectionThreats, bson.M{"severity": "high"}, &snapshot.HighSeverityThreats},
		{config.CollectionThreats, bson.M{"severity": "medium"}, &snapshot.MediumSeverityThreats},
		{config.CollectionThreats, bson.M{"severity": "low"}, &snapshot.LowSeverityThreats},
		{config.CollectionAlerts, bson.M{"status": statusResolved}, &snapshot.ResolvedAlerts},
		{config.CollectionAlerts, bson.M{"status": bson.M{"$ne": statusResolved}}, &snapshot.UnresolvedAlerts},
		{config.CollectionReports, bson.M{"status": statusResolved}, &snapshot.ResolvedIncidents},
		{config.CollectionReports, bson.M{"status": bson.M{"$ne": statusResolved}}, &snapshot.ActiveIncidents},
	}
	for _, c := range counts {
		n, err := s.docRepo.Count(ctx, c.collection, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to build snapshot: %w", err)
		}
		*c.target = n
	}

	// Uptime, performance and vulnerability figures are not derivable from the collections;
	// they carry over from the most recent snapshot.
	previous, err := s.dashboardRepo.Latest(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	if len(previous) > 0 {
		snapshot.SystemUptime = previous[0].SystemUptime
		snapshot.PerformanceScore = previous[0].PerformanceScore
		snapshot.Vulnerabilities = previous[0].Vulnerabilities
	}
	return snapshot, nil
}
