package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert, Report and Threat describe the usual shape of their collections. The raw data
// endpoints return documents untyped, so fields not listed here still reach the client.

type Alert struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Timestamp string             `bson:"timestamp" json:"timestamp"`
	Severity  string             `bson:"severity" json:"severity"`
	Source    string             `bson:"source" json:"source"`
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"`
}

type Report struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Timestamp string             `bson:"timestamp" json:"timestamp"`
	Title     string             `bson:"title" json:"title"`
	Summary   string             `bson:"summary" json:"summary"`
	Status    string             `bson:"status" json:"status"`
}

type Threat struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Timestamp   string             `bson:"timestamp" json:"timestamp"`
	Name        string             `bson:"name" json:"name"`
	Severity    string             `bson:"severity" json:"severity"`
	SourceIP    string             `bson:"source_ip" json:"source_ip"`
	Description string             `bson:"description" json:"description"`
}

// IngestEvent is the Kafka message body carrying one document destined for a collection.
type IngestEvent struct {
	Collection string         `json:"collection"`
	Document   map[string]any `json:"document"`
	ReceivedAt time.Time      `json:"received_at"`
}
