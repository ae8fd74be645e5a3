package repository

import (
	"context"

	"vulnerability-dashboard/internal/model"
)

type DashboardRepository interface {
	Latest(ctx context.Context, limit int64) ([]model.DashboardSnapshot, error)
	Save(ctx context.Context, snapshot model.DashboardSnapshot) error
}
