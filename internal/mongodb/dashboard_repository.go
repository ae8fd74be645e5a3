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

type mongoDashboardRepository struct {
	collection *mongo.Collection
	sortField  string
}

func NewDashboardRepository(db *mongo.Database, cfg *config.Config) repository.DashboardRepository {
	return &mongoDashboardRepository{
		collection: db.Collection(config.CollectionDashboard),
		sortField:  cfg.Collections.DashboardSortField,
	}
}

func (r *mongoDashboardRepository) Latest(ctx context.Context, limit int64) (snapshots []model.DashboardSnapshot, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("find", config.CollectionDashboard, start, err) }()

	query := dto.CollectionQuery{Collection: config.CollectionDashboard, SortField: r.sortField, Limit: limit}
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions(query))
	if err != nil {
		return nil, fmt.Errorf("find dashboard snapshots: %w", err)
	}
	snapshots = []model.DashboardSnapshot{}
	if err = cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("decode dashboard snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *mongoDashboardRepository) Save(ctx context.Context, snapshot model.DashboardSnapshot) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("insert", config.CollectionDashboard, start, err) }()

	if _, err = r.collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("insert dashboard snapshot: %w", err)
	}
	return nil
}
