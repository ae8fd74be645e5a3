package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// isoLayout matches the millisecond UTC form browsers produce for dates.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// LogEntry is one network activity record of the logs collection.
type LogEntry struct {
	ID        string `bson:"_id,omitempty" json:"_id"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
	SourceIP  string `bson:"source_ip" json:"source_ip"`
	Activity  string `bson:"activity" json:"activity"`
}

// UnmarshalBSON reads a log from any document shape. Externally inserted logs may carry dates,
// numbers or non-ObjectID ids, and a single such document must not fail a whole page query.
func (e *LogEntry) UnmarshalBSON(data []byte) error {
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	*e = LogEntryFromDocument(doc)
	return nil
}

// LogEntryFromDocument converts a raw document field by field, rendering every value as text.
func LogEntryFromDocument(doc map[string]any) LogEntry {
	return LogEntry{
		ID:        Stringify(doc["_id"]),
		Timestamp: Stringify(doc["timestamp"]),
		SourceIP:  Stringify(doc["source_ip"]),
		Activity:  Stringify(doc["activity"]),
	}
}

// Stringify renders a decoded BSON value the way it reads once serialised to JSON text:
// ObjectIDs as hex and dates as ISO 8601 in UTC with milliseconds.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(isoLayout)
	case time.Time:
		return val.UTC().Format(isoLayout)
	default:
		return fmt.Sprint(val)
	}
}
