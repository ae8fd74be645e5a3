package service

import (
	"context"
	"errors"
	"sync"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/filestate"
	"vulnerability-dashboard/internal/model"
)

type fakeDocumentRepository struct {
	mu        sync.Mutex
	docs      []bson.M
	findErr   error
	insertErr error
	countErr  error
	counts    map[string]int64
	queries   []dto.CollectionQuery
	inserted  map[string][]any
	countArgs []bson.M
	// failures makes the next n inserts into a collection fail.
	failures map[string]int
}

func (f *fakeDocumentRepository) Find(ctx context.Context, query dto.CollectionQuery) ([]bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.docs, nil
}

func (f *fakeDocumentRepository) Insert(ctx context.Context, collection string, docs []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.failures[collection] > 0 {
		f.failures[collection]--
		return errors.New("transient insert failure")
	}
	if f.inserted == nil {
		f.inserted = make(map[string][]any)
	}
	// Documents whose _id is already stored are skipped, like a unique index would.
	for _, doc := range docs {
		if m, ok := doc.(map[string]any); ok && m["_id"] != nil && f.hasID(collection, m["_id"]) {
			continue
		}
		f.inserted[collection] = append(f.inserted[collection], doc)
	}
	return nil
}

func (f *fakeDocumentRepository) hasID(collection string, id any) bool {
	for _, doc := range f.inserted[collection] {
		if m, ok := doc.(map[string]any); ok && m["_id"] == id {
			return true
		}
	}
	return false
}

// Count answers with counts keyed by "<collection>" or "<collection>:<status|severity>".
func (f *fakeDocumentRepository) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countArgs = append(f.countArgs, filter)
	if f.countErr != nil {
		return 0, f.countErr
	}
	key := collection
	for _, field := range []string{"severity", "status"} {
		switch v := filter[field].(type) {
		case string:
			key += ":" + v
		case bson.M:
			key += ":!" + v["$ne"].(string)
		}
	}
	return f.counts[key], nil
}

func (f *fakeDocumentRepository) Ping(ctx context.Context) error {
	return nil
}

type fakeDashboardRepository struct {
	latest  []model.DashboardSnapshot
	saved   []model.DashboardSnapshot
	saveErr error
	limits  []int64
}

func (f *fakeDashboardRepository) Latest(ctx context.Context, limit int64) ([]model.DashboardSnapshot, error) {
	f.limits = append(f.limits, limit)
	return f.latest, nil
}

func (f *fakeDashboardRepository) Save(ctx context.Context, snapshot model.DashboardSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, snapshot)
	return nil
}

type fakeLogRepository struct {
	logs   []model.LogEntry
	limits []int64
}

func (f *fakeLogRepository) Recent(ctx context.Context, limit int64) ([]model.LogEntry, error) {
	f.limits = append(f.limits, limit)
	return f.logs, nil
}

type fakeLogSearchRepository struct {
	requests []dto.LogSearchRequest
}

func (f *fakeLogSearchRepository) Search(ctx context.Context, req dto.LogSearchRequest) (*dto.LogSearchResponse, error) {
	f.requests = append(f.requests, req)
	return &dto.LogSearchResponse{Logs: []model.LogEntry{}, Page: req.Page, Size: req.Size}, nil
}

type fakeEventProducer struct {
	batches [][]model.IngestEvent
	err     error
}

func (f *fakeEventProducer) Produce(ctx context.Context, events []model.IngestEvent) error {
	if f.err != nil {
		return f.err
	}
	batch := make([]model.IngestEvent, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeEventProducer) Close() error { return nil }

func (f *fakeEventProducer) events() []model.IngestEvent {
	var all []model.IngestEvent
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

type fetchResult struct {
	event *model.IngestEvent
	msg   kafkaGo.Message
	err   error
}

// fakeEventConsumer replays queued results, then blocks until the fetch context ends.
type fakeEventConsumer struct {
	queue     []fetchResult
	committed []kafkaGo.Message
	commitErr error
}

func (f *fakeEventConsumer) FetchMessage(ctx context.Context) (*model.IngestEvent, kafkaGo.Message, error) {
	if len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		return next.event, next.msg, next.err
	}
	<-ctx.Done()
	return nil, kafkaGo.Message{}, ctx.Err()
}

func (f *fakeEventConsumer) CommitMessages(ctx context.Context, msgs ...kafkaGo.Message) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeEventConsumer) Close() error { return nil }

type fakeLogStore struct {
	stored []model.LogEntry
	err    error
}

func (f *fakeLogStore) StoreLogs(ctx context.Context, logs []model.LogEntry) error {
	f.stored = append(f.stored, logs...)
	return f.err
}

func (f *fakeLogStore) Close(ctx context.Context) error { return nil }

type memoryStateManager struct {
	offsets filestate.Offsets
}

func (m *memoryStateManager) Load() (filestate.Offsets, error) {
	out := make(filestate.Offsets, len(m.offsets))
	for k, v := range m.offsets {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStateManager) Save(offsets filestate.Offsets) error {
	m.offsets = offsets
	return nil
}

func (m *memoryStateManager) Path() string { return "memory" }
