package repository

import (
	"context"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/model"
)

// LogRepository reads the logs collection as typed entries.
type LogRepository interface {
	Recent(ctx context.Context, limit int64) ([]model.LogEntry, error)
}

// LogSearchRepository runs full-text searches over the indexed copy of the logs.
type LogSearchRepository interface {
	Search(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error)
}
