package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/internal/dto"
)

// DocumentRepository is raw, untyped access to the document database.
type DocumentRepository interface {
	Find(ctx context.Context, query dto.CollectionQuery) ([]bson.M, error)
	Insert(ctx context.Context, collection string, docs []any) error
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	Ping(ctx context.Context) error
}
