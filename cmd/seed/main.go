package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/logging"
	"vulnerability-dashboard/internal/mongodb"
	"vulnerability-dashboard/internal/seed"
)

// Loads "collection,document" rows from a CSV file into MongoDB.
//
//	go run ./cmd/seed --file seed.csv --batch-size 500
func main() {
	pflag.String("file", "seed.csv", "CSV file of collection,document rows")
	pflag.Int("batch-size", 500, "documents per insert")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind flags")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}
	defer closer.Close()

	path := viper.GetString("file")
	file, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Error opening CSV file")
	}
	defer file.Close()

	client, err := mongodb.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db, err := mongodb.NewDatabase(client, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}

	importer := seed.NewImporter(mongodb.NewDocumentRepository(db), viper.GetInt("batch-size"))
	result, err := importer.Import(context.Background(), file)
	if err != nil {
		log.Error().Err(err).Msg("Import aborted")
		return
	}

	event := log.Info().Int("skipped", result.Skipped)
	for collection, n := range result.Inserted {
		event = event.Int(collection, n)
	}
	event.Msg("Import finished")
}
