package service

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/model"
)

func newTestConsumerService(consumer *fakeEventConsumer, repo *fakeDocumentRepository, store *fakeLogStore, batchSize int) *ingestConsumerService {
	cfg := &config.Config{}
	cfg.Ingest.BatchSize = batchSize
	cfg.Ingest.MaxBatchWait = 50 * time.Millisecond
	return NewIngestConsumerService(consumer, repo, store, cfg).(*ingestConsumerService)
}

func message(offset int64) kafkaGo.Message {
	return kafkaGo.Message{Topic: "security_documents", Offset: offset}
}

func event(collection string, doc map[string]any) *model.IngestEvent {
	return &model.IngestEvent{Collection: collection, Document: doc}
}

func TestProcessBatch_StoresGroupedAndCommits(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionLogs, map[string]any{"timestamp": "2023-01-01 10:00", "source_ip": "10.0.0.1", "activity": "Login"}), msg: message(1)},
		{event: event(config.CollectionAlerts, map[string]any{"severity": "high"}), msg: message(2)},
		{event: event("unknown", map[string]any{"x": 1}), msg: message(3)},
	}}
	repo := &fakeDocumentRepository{}
	store := &fakeLogStore{}
	svc := newTestConsumerService(consumer, repo, store, 3)

	require.NoError(t, svc.processBatch(context.Background()))

	assert.Len(t, repo.inserted[config.CollectionLogs], 1)
	assert.Len(t, repo.inserted[config.CollectionAlerts], 1)
	assert.NotContains(t, repo.inserted, "unknown")
	assert.Len(t, consumer.committed, 3)

	require.Len(t, store.stored, 1)
	assert.Equal(t, "Login", store.stored[0].Activity)
	doc := repo.inserted[config.CollectionLogs][0].(map[string]any)
	assert.Equal(t, store.stored[0].ID, doc["_id"].(primitive.ObjectID).Hex(), "mongo and search copies share the id")
	assert.Equal(t, documentID(message(1)), doc["_id"])
}

func TestProcessBatch_StorageFailureSkipsCommit(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionThreats, map[string]any{"name": "worm"}), msg: message(1)},
	}}
	repo := &fakeDocumentRepository{insertErr: errors.New("mongo down")}
	svc := newTestConsumerService(consumer, repo, &fakeLogStore{}, 1)

	assert.Error(t, svc.processBatch(context.Background()))
	assert.Empty(t, consumer.committed)
}

func TestProcessBatch_SearchMirrorFailureStillCommits(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionLogs, map[string]any{"activity": "Login"}), msg: message(1)},
	}}
	svc := newTestConsumerService(consumer, &fakeDocumentRepository{}, &fakeLogStore{err: errors.New("es down")}, 1)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Len(t, consumer.committed, 1)
}

func TestProcessBatch_UndecodableMessageIsCommitted(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{msg: message(7), err: errors.New("invalid character")},
	}}
	repo := &fakeDocumentRepository{}
	svc := newTestConsumerService(consumer, repo, &fakeLogStore{}, 5)

	require.NoError(t, svc.processBatch(context.Background()))
	require.Len(t, consumer.committed, 1)
	assert.Equal(t, int64(7), consumer.committed[0].Offset)
	assert.Empty(t, repo.inserted)
}

func TestProcessBatch_EmptyWaitReturnsNil(t *testing.T) {
	consumer := &fakeEventConsumer{}
	svc := newTestConsumerService(consumer, &fakeDocumentRepository{}, &fakeLogStore{}, 5)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Empty(t, consumer.committed)
}

func TestProcessBatch_FetchFailure(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{{err: errors.New("connection refused")}}}
	svc := newTestConsumerService(consumer, &fakeDocumentRepository{}, &fakeLogStore{}, 5)

	assert.Error(t, svc.processBatch(context.Background()))
}

func TestProcessBatch_FailedBatchIsRetriedBeforeFetchingMore(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionThreats, map[string]any{"name": "worm"}), msg: message(1)},
		{event: event(config.CollectionAlerts, map[string]any{"severity": "high"}), msg: message(2)},
	}}
	repo := &fakeDocumentRepository{failures: map[string]int{config.CollectionThreats: 1}}
	svc := newTestConsumerService(consumer, repo, &fakeLogStore{}, 1)

	assert.Error(t, svc.processBatch(context.Background()))
	assert.Empty(t, consumer.committed)
	assert.Len(t, consumer.queue, 1, "nothing new is fetched while a batch is pending")

	require.NoError(t, svc.processBatch(context.Background()))
	require.NoError(t, svc.processBatch(context.Background()))

	assert.Len(t, repo.inserted[config.CollectionThreats], 1)
	assert.Len(t, repo.inserted[config.CollectionAlerts], 1)
	require.Len(t, consumer.committed, 2)
	assert.Equal(t, int64(1), consumer.committed[0].Offset)
	assert.Equal(t, int64(2), consumer.committed[1].Offset)
}

func TestProcessBatch_RetryAfterPartialInsertDoesNotDuplicate(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionLogs, map[string]any{"activity": "Login"}), msg: message(1)},
		{event: event(config.CollectionLogs, map[string]any{"activity": "Logout"}), msg: message(2)},
		{event: event(config.CollectionAlerts, map[string]any{"severity": "low"}), msg: message(3)},
	}}
	repo := &fakeDocumentRepository{failures: map[string]int{config.CollectionAlerts: 1}}
	svc := newTestConsumerService(consumer, repo, &fakeLogStore{}, 3)

	assert.Error(t, svc.processBatch(context.Background()))
	assert.Len(t, repo.inserted[config.CollectionLogs], 2)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Len(t, repo.inserted[config.CollectionLogs], 2)
	assert.Len(t, repo.inserted[config.CollectionAlerts], 1)
	assert.Len(t, consumer.committed, 3)
}

func TestProcessBatch_KeepsProvidedID(t *testing.T) {
	consumer := &fakeEventConsumer{queue: []fetchResult{
		{event: event(config.CollectionAlerts, map[string]any{"_id": "alert-1"}), msg: message(4)},
	}}
	repo := &fakeDocumentRepository{}
	svc := newTestConsumerService(consumer, repo, &fakeLogStore{}, 1)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Equal(t, "alert-1", repo.inserted[config.CollectionAlerts][0].(map[string]any)["_id"])
}

func TestDocumentID_StablePerPosition(t *testing.T) {
	assert.Equal(t, documentID(message(9)), documentID(message(9)))
	assert.NotEqual(t, documentID(message(9)), documentID(message(10)))

	other := message(9)
	other.Partition = 1
	assert.NotEqual(t, documentID(message(9)), documentID(other))
}
