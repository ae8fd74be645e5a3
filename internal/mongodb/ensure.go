package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vulnerability-dashboard/config"
)

// EnsureCollections creates any missing dashboard collection and a descending index on the
// field each one is sorted by.
func EnsureCollections(ctx context.Context, db *mongo.Database, cfg *config.Config) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range missingCollections(existing, config.Collections) {
		log.Info().Str("collection", name).Msg("Collection does not exist, creating it")
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}

	for _, name := range config.Collections {
		field := sortFieldFor(cfg, name)
		indexName := field + "_desc"
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: -1}},
			Options: options.Index().SetName(indexName),
		})
		if err != nil {
			// An index with the same name but different keys is left to the operator.
			log.Warn().Err(err).Str("collection", name).Str("index", indexName).Msg("Failed to ensure sort index")
		}
	}

	log.Info().Str("database", db.Name()).Msg("Dashboard collections are ensured")
	return nil
}

func missingCollections(existing, wanted []string) []string {
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}
	var missing []string
	for _, name := range wanted {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func sortFieldFor(cfg *config.Config, collection string) string {
	if collection == config.CollectionDashboard {
		return cfg.Collections.DashboardSortField
	}
	return cfg.Collections.SortField
}
