package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/model"
)

type EventProducer interface {
	Produce(ctx context.Context, events []model.IngestEvent) error
	Close() error
}

type kafkaEventProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaEventProducer(lc fx.Lifecycle, cfg *config.Config) (EventProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.IngestTopic == "" {
		log.Error().Msg("Kafka brokers or ingest topic is not configured.")
		return nil, errors.New("kafka configuration missing")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.IngestTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    cfg.Ingest.BatchSize,
		BatchTimeout: cfg.Ingest.MaxBatchWait,
	}
	p := &kafkaEventProducer{
		writer: writer,
		topic:  cfg.Kafka.IngestTopic,
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Kafka producer")
			return p.Close()
		},
	})
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.IngestTopic).Msg("Kafka producer initialized")
	return p, nil
}

func (p *kafkaEventProducer) Produce(ctx context.Context, events []model.IngestEvent) error {
	messages, err := encodeEvents(events)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid messages to produce.")
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return err
	}

	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced messages to Kafka")
	return nil
}

func (p *kafkaEventProducer) Close() error {
	return p.writer.Close()
}

// encodeEvents marshals events into messages keyed by source IP when the document has one, so
// one host's activity stays ordered within a partition.
func encodeEvents(events []model.IngestEvent) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("collection", event.Collection).Msg("Failed to marshal ingest event for Kafka")
			return nil, err
		}
		var key []byte
		if ip, ok := event.Document["source_ip"].(string); ok {
			key = []byte(ip)
		}
		messages = append(messages, kafka.Message{Key: key, Value: value})
	}
	return messages, nil
}
