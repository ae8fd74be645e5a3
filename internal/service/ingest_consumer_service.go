package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/elasticsearch"
	"vulnerability-dashboard/internal/kafka"
	"vulnerability-dashboard/internal/metrics"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

type IngestConsumerService interface {
	Run(ctx context.Context, wg *sync.WaitGroup)
}

type ingestConsumerService struct {
	consumer    kafka.EventConsumer
	docRepo     repository.DocumentRepository
	logStore    elasticsearch.LogStore
	allowed     map[string]bool
	batchSize   int           // How many Kafka messages to process at once
	maxWaitTime time.Duration // Max time to wait for batchSize messages
	pending     *ingestBatch  // Fetched but not yet committed
}

type ingestRecord struct {
	event model.IngestEvent
	id    primitive.ObjectID
}

type ingestBatch struct {
	records  []ingestRecord
	messages []kafkaGo.Message
}

func NewIngestConsumerService(
	consumer kafka.EventConsumer,
	docRepo repository.DocumentRepository,
	logStore elasticsearch.LogStore,
	cfg *config.Config,
) IngestConsumerService {
	allowed := make(map[string]bool, len(config.Collections))
	for _, name := range config.Collections {
		allowed[name] = true
	}
	batchSize := cfg.Ingest.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxWaitTime := cfg.Ingest.MaxBatchWait
	if maxWaitTime <= 0 {
		maxWaitTime = 5 * time.Second
	}

	return &ingestConsumerService{
		consumer:    consumer,
		docRepo:     docRepo,
		logStore:    logStore,
		allowed:     allowed,
		batchSize:   batchSize,
		maxWaitTime: maxWaitTime,
	}
}

func (s *ingestConsumerService) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log.Info().Msg("Starting Ingest Consumer Service loop...")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Ingest Consumer Service loop stopping due to context cancellation.")
			return
		default:
		}

		err := s.processBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("Context cancelled during batch processing.")
				return
			}
			log.Error().Err(err).Msg("Error processing consumer batch")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// processBatch stores and commits one batch. A batch that fails to store or commit is kept
// and retried on the next call before anything new is fetched, because committing a later
// offset would implicitly commit the failed messages too.
func (s *ingestConsumerService) processBatch(ctx context.Context) error {
	if s.pending == nil {
		batch, err := s.fetchBatch(ctx)
		if err != nil {
			return err
		}
		if len(batch.messages) == 0 {
			log.Debug().Msg("No messages in batch to process.")
			return nil
		}
		s.pending = batch
	} else {
		log.Info().Int("batch_size", len(s.pending.messages)).Msg("Retrying uncommitted batch.")
	}

	if err := s.store(ctx, s.pending.records); err != nil {
		log.Warn().Msg("Skipping Kafka commit due to storage errors.")
		return err
	}

	if err := s.consumer.CommitMessages(ctx, s.pending.messages...); err != nil {
		return fmt.Errorf("failed committing kafka messages: %w", err)
	}
	log.Info().Int("batch_size", len(s.pending.messages)).Msg("Successfully processed and committed batch.")
	s.pending = nil
	return nil
}

func (s *ingestConsumerService) fetchBatch(ctx context.Context) (*ingestBatch, error) {
	batch := &ingestBatch{
		records:  make([]ingestRecord, 0, s.batchSize),
		messages: make([]kafkaGo.Message, 0, s.batchSize),
	}
	batchStartTime := time.Now()

	for len(batch.messages) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := s.maxWaitTime - time.Since(batchStartTime)
		if remaining <= 0 {
			break
		}
		fetchCtx, cancel := context.WithTimeout(ctx, remaining)
		event, msg, err := s.consumer.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				log.Debug().Int("batch_size", len(batch.messages)).Msg("Max wait time reached for batch, processing partial batch.")
				break
			}
			if msg.Topic != "" {
				// Undecodable message: keep it so the commit moves past it.
				log.Warn().Int64("offset", msg.Offset).Msg("Adding message with unmarshal error to batch for commit tracking.")
				metrics.IngestDocuments.WithLabelValues("unknown", "invalid").Inc()
				batch.messages = append(batch.messages, msg)
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if len(batch.messages) > 0 {
				// Store what was fetched; the reader has already moved past it.
				log.Warn().Err(err).Msg("Fetch failed mid-batch, processing partial batch.")
				break
			}
			return nil, fmt.Errorf("failed to fetch kafka message: %w", err)
		}

		batch.records = append(batch.records, ingestRecord{event: *event, id: documentID(msg)})
		batch.messages = append(batch.messages, msg)
	}
	return batch, nil
}

// store inserts the records grouped by collection and mirrors logs into the search index.
// Documents carry ids derived from their Kafka position, so storing a batch again after a
// partial failure does not duplicate the collections that were already written.
func (s *ingestConsumerService) store(ctx context.Context, records []ingestRecord) error {
	grouped := make(map[string][]any)
	var order []string
	var logs []model.LogEntry

	for _, record := range records {
		event := record.event
		if !s.allowed[event.Collection] {
			log.Warn().Str("collection", event.Collection).Msg("Dropping ingest event for unknown collection")
			metrics.IngestDocuments.WithLabelValues("unknown", "dropped").Inc()
			continue
		}
		if len(event.Document) == 0 {
			metrics.IngestDocuments.WithLabelValues(event.Collection, "invalid").Inc()
			continue
		}
		doc := make(map[string]any, len(event.Document)+1)
		for k, v := range event.Document {
			doc[k] = v
		}
		if _, ok := doc["_id"]; !ok {
			doc["_id"] = record.id
		}
		if event.Collection == config.CollectionLogs {
			logs = append(logs, model.LogEntryFromDocument(doc))
		}
		if _, ok := grouped[event.Collection]; !ok {
			order = append(order, event.Collection)
		}
		grouped[event.Collection] = append(grouped[event.Collection], doc)
	}

	for _, collection := range order {
		docs := grouped[collection]
		if err := s.docRepo.Insert(ctx, collection, docs); err != nil {
			metrics.IngestDocuments.WithLabelValues(collection, "failed").Add(float64(len(docs)))
			return fmt.Errorf("failed storing %s documents: %w", collection, err)
		}
		metrics.IngestDocuments.WithLabelValues(collection, "stored").Add(float64(len(docs)))
	}

	if len(logs) > 0 && s.logStore != nil {
		if err := s.logStore.StoreLogs(ctx, logs); err != nil {
			// Mongo is the source of truth; the batch is still committed.
			log.Error().Err(err).Int("count", len(logs)).Msg("Failed to mirror logs to Elasticsearch")
		}
	}
	return nil
}

// documentID derives a stable ObjectID from the message's topic, partition and offset.
func documentID(msg kafkaGo.Message) primitive.ObjectID {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)))
	var id primitive.ObjectID
	copy(id[:], sum[:len(id)])
	return id
}
