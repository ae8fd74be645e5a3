package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/metrics"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

type mongoLogRepository struct {
	collection *mongo.Collection
	sortField  string
}

func NewLogRepository(db *mongo.Database, cfg *config.Config) repository.LogRepository {
	return &mongoLogRepository{
		collection: db.Collection(config.CollectionLogs),
		sortField:  cfg.Collections.SortField,
	}
}

func (r *mongoLogRepository) Recent(ctx context.Context, limit int64) (logs []model.LogEntry, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("find", config.CollectionLogs, start, err) }()

	query := dto.CollectionQuery{Collection: config.CollectionLogs, SortField: r.sortField, Limit: limit}
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions(query))
	if err != nil {
		return nil, fmt.Errorf("find logs: %w", err)
	}
	logs = []model.LogEntry{}
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return logs, nil
}
