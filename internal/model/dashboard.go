package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// DashboardSnapshot is a point-in-time security summary stored in the dashboard collection.
type DashboardSnapshot struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Timestamp             string             `bson:"timestamp" json:"timestamp"`
	TotalThreats          int64              `bson:"total_threats" json:"total_threats"`
	HighSeverityThreats   int64              `bson:"high_severity_threats" json:"high_severity_threats"`
	MediumSeverityThreats int64              `bson:"medium_severity_threats" json:"medium_severity_threats"`
	LowSeverityThreats    int64              `bson:"low_severity_threats" json:"low_severity_threats"`
	ActiveIncidents       int64              `bson:"active_incidents" json:"active_incidents"`
	ResolvedIncidents     int64              `bson:"resolved_incidents" json:"resolved_incidents"`
	UnresolvedAlerts      int64              `bson:"unresolved_alerts" json:"unresolved_alerts"`
	ResolvedAlerts        int64              `bson:"resolved_alerts" json:"resolved_alerts"`
	SystemUptime          float64            `bson:"system_uptime" json:"system_uptime"`
	PerformanceScore      float64            `bson:"performance_score" json:"performance_score"`
	Vulnerabilities       int64              `bson:"vulnerabilities" json:"vulnerabilities"`
}
