package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vulnerability-dashboard/internal/model"
)

func TestLogEntry_UnmarshalBSON_StringFields(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{"_id": id, "timestamp": "2023-01-01 10:00", "source_ip": "10.0.0.1", "activity": "Login"})
	require.NoError(t, err)

	var entry model.LogEntry
	require.NoError(t, bson.Unmarshal(raw, &entry))
	assert.Equal(t, model.LogEntry{ID: id.Hex(), Timestamp: "2023-01-01 10:00", SourceIP: "10.0.0.1", Activity: "Login"}, entry)
}

func TestLogEntry_UnmarshalBSON_DateTimestampAndStringID(t *testing.T) {
	when := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":       "log-42",
		"timestamp": primitive.NewDateTimeFromTime(when),
		"source_ip": "10.0.0.1",
		"activity":  "Login",
	})
	require.NoError(t, err)

	var entry model.LogEntry
	require.NoError(t, bson.Unmarshal(raw, &entry))
	assert.Equal(t, "log-42", entry.ID)
	assert.Equal(t, "2023-01-01T00:00:00.000Z", entry.Timestamp)
	assert.Equal(t, "Login", entry.Activity)
}

func TestLogEntry_UnmarshalBSON_Slice(t *testing.T) {
	docs := []bson.M{
		{"timestamp": "2023-01-01 10:00", "activity": "Login"},
		{"timestamp": primitive.NewDateTimeFromTime(time.Date(2023, 1, 2, 8, 30, 0, 0, time.UTC)), "activity": int32(7)},
	}
	entries := make([]model.LogEntry, 0, len(docs))
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		require.NoError(t, err)
		var entry model.LogEntry
		require.NoError(t, bson.Unmarshal(raw, &entry))
		entries = append(entries, entry)
	}

	assert.Equal(t, "2023-01-01 10:00", entries[0].Timestamp)
	assert.Equal(t, "2023-01-02T08:30:00.000Z", entries[1].Timestamp)
	assert.Equal(t, "7", entries[1].Activity)
	assert.Empty(t, entries[0].ID)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", model.Stringify(nil))
	assert.Equal(t, "3.5", model.Stringify(3.5))
	assert.Equal(t, "true", model.Stringify(true))
	assert.Equal(t, "2023-01-01T12:00:00.000Z",
		model.Stringify(time.Date(2023, 1, 1, 14, 0, 0, 0, time.FixedZone("EET", 2*3600))))
}
