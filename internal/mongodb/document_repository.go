package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/metrics"
	"vulnerability-dashboard/internal/repository"
)

const duplicateKeyCode = 11000

type mongoDocumentRepository struct {
	db *mongo.Database
}

func NewDocumentRepository(db *mongo.Database) repository.DocumentRepository {
	return &mongoDocumentRepository{db: db}
}

func (r *mongoDocumentRepository) Find(ctx context.Context, query dto.CollectionQuery) (docs []bson.M, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("find", query.Collection, start, err) }()

	cursor, err := r.db.Collection(query.Collection).Find(ctx, bson.M{}, findOptions(query))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", query.Collection, err)
	}
	docs = []bson.M{}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s documents: %w", query.Collection, err)
	}

	log.Debug().
		Str("collection", query.Collection).
		Str("sort", query.SortField).
		Int64("limit", query.Limit).
		Int("returned", len(docs)).
		Msg("Collection query successful")
	return docs, nil
}

func (r *mongoDocumentRepository) Insert(ctx context.Context, collection string, docs []any) (err error) {
	if len(docs) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.ObserveQuery("insert", collection, start, err) }()

	_, err = r.db.Collection(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		if !onlyDuplicateKeys(err) {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
		log.Info().Str("collection", collection).Msg("Some documents already stored, skipped duplicates")
		err = nil
	}
	log.Debug().Str("collection", collection).Int("documents", len(docs)).Msg("Inserted documents")
	return nil
}

// onlyDuplicateKeys reports whether every failure of an unordered insert was a duplicate _id,
// which means those documents were stored by an earlier attempt.
func onlyDuplicateKeys(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}

func (r *mongoDocumentRepository) Count(ctx context.Context, collection string, filter bson.M) (n int64, err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery("count", collection, start, err) }()

	if filter == nil {
		filter = bson.M{}
	}
	n, err = r.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", collection, err)
	}
	return n, nil
}

func (r *mongoDocumentRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

// findOptions builds sort({field: -1}) and, when positive, limit(n).
func findOptions(query dto.CollectionQuery) *options.FindOptions {
	opts := options.Find()
	if query.SortField != "" {
		opts.SetSort(bson.D{{Key: query.SortField, Value: -1}})
	}
	if query.Limit > 0 {
		opts.SetLimit(query.Limit)
	}
	return opts
}
