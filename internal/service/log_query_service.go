package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/repository"
)

const (
	defaultSearchSize = 50
	maxSearchSize     = 1000
)

// LogQueryService runs server-side full-text searches over the indexed activity logs.
type LogQueryService interface {
	SearchLogs(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error)
}

type logQueryService struct {
	searchRepo repository.LogSearchRepository
}

func NewLogQueryService(searchRepo repository.LogSearchRepository) LogQueryService {
	return &logQueryService{
		searchRepo: searchRepo,
	}
}

func (s *logQueryService) SearchLogs(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > maxSearchSize {
		req.Size = defaultSearchSize
	}

	log.Info().
		Str("query", req.Query).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("Searching logs")

	return s.searchRepo.Search(ctx, req)
}
