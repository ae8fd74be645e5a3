package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/repository"
)

var ErrUnknownCollection = errors.New("unknown collection")

// CollectionQueryService backs the raw data endpoints: one collection, sorted by the configured
// field in descending order, optionally limited.
type CollectionQueryService interface {
	Query(ctx context.Context, collection string) ([]bson.M, error)
}

type collectionQueryService struct {
	docRepo   repository.DocumentRepository
	sortField string
	limits    map[string]int64
}

func NewCollectionQueryService(docRepo repository.DocumentRepository, cfg *config.Config) CollectionQueryService {
	return &collectionQueryService{
		docRepo:   docRepo,
		sortField: cfg.Collections.SortField,
		limits:    cfg.Collections.ApiLimits,
	}
}

func (s *collectionQueryService) Query(ctx context.Context, collection string) ([]bson.M, error) {
	limit, ok := s.limits[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}

	query := dto.CollectionQuery{
		Collection: collection,
		SortField:  s.sortField,
		Limit:      limit,
	}
	log.Debug().
		Str("collection", query.Collection).
		Str("sort", query.SortField).
		Int64("limit", query.Limit).
		Msg("Querying collection")

	return s.docRepo.Find(ctx, query)
}
