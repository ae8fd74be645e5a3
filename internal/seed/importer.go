// Package seed loads documents into the dashboard collections from a CSV file whose rows are
// "collection,document" with the document in MongoDB extended JSON.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

// Result counts what an import did.
type Result struct {
	Inserted map[string]int
	Skipped  int
}

type Importer struct {
	docRepo   repository.DocumentRepository
	batchSize int
	allowed   map[string]bool
}

func NewImporter(docRepo repository.DocumentRepository, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = 500
	}
	allowed := make(map[string]bool, len(config.Collections))
	for _, name := range config.Collections {
		allowed[name] = true
	}
	return &Importer{docRepo: docRepo, batchSize: batchSize, allowed: allowed}
}

// Import reads every row and inserts documents per collection in batches. Malformed rows,
// unknown collections and documents whose known fields have the wrong type are skipped and
// logged. A failed insert aborts the import.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.LazyQuotes = true

	result := &Result{Inserted: make(map[string]int)}
	pending := make(map[string][]any)

	flush := func(collection string) error {
		docs := pending[collection]
		if len(docs) == 0 {
			return nil
		}
		if err := i.docRepo.Insert(ctx, collection, docs); err != nil {
			return fmt.Errorf("insert into %s: %w", collection, err)
		}
		result.Inserted[collection] += len(docs)
		pending[collection] = nil
		return nil
	}

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn().Err(err).Int("row", line).Msg("Error reading CSV row")
			result.Skipped++
			continue
		}

		collection := record[0]
		if line == 1 && collection == "collection" {
			continue
		}
		if !i.allowed[collection] {
			log.Warn().Int("row", line).Str("collection", collection).Msg("Skipping row for unknown collection")
			result.Skipped++
			continue
		}

		var doc bson.M
		if err := bson.UnmarshalExtJSON([]byte(record[1]), false, &doc); err != nil {
			log.Warn().Err(err).Int("row", line).Msg("Skipping row with invalid document")
			result.Skipped++
			continue
		}
		if err := checkShape(collection, doc); err != nil {
			log.Warn().Err(err).Int("row", line).Str("collection", collection).Msg("Skipping row with mistyped fields")
			result.Skipped++
			continue
		}

		pending[collection] = append(pending[collection], doc)
		if len(pending[collection]) >= i.batchSize {
			if err := flush(collection); err != nil {
				return result, err
			}
		}
	}

	for _, collection := range config.Collections {
		if err := flush(collection); err != nil {
			return result, err
		}
	}
	return result, nil
}

// checkShape decodes doc into the typed model of its collection so rows the pages could not
// read back are rejected up front. Unlisted fields are ignored.
func checkShape(collection string, doc bson.M) error {
	var target any
	switch collection {
	case config.CollectionAlerts:
		target = &model.Alert{}
	case config.CollectionReports:
		target = &model.Report{}
	case config.CollectionThreats:
		target = &model.Threat{}
	case config.CollectionLogs:
		target = &model.LogEntry{}
	case config.CollectionDashboard:
		target = &model.DashboardSnapshot{}
	default:
		return nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, target)
}
