package service

import (
	"context"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/logtable"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

// LogTableService supplies the logs page: it fetches the recent log list once per request and
// hands it to the logtable functions.
type LogTableService interface {
	Recent(ctx context.Context) ([]model.LogEntry, error)
	View(logs []model.LogEntry, term string, page int) logtable.View
}

type logTableService struct {
	logRepo repository.LogRepository
	limit   int64
}

func NewLogTableService(logRepo repository.LogRepository, cfg *config.Config) LogTableService {
	return &logTableService{
		logRepo: logRepo,
		limit:   cfg.Collections.LogsPageLimit,
	}
}

func (s *logTableService) Recent(ctx context.Context) ([]model.LogEntry, error) {
	return s.logRepo.Recent(ctx, s.limit)
}

func (s *logTableService) View(logs []model.LogEntry, term string, page int) logtable.View {
	return logtable.Build(logs, term, page)
}
