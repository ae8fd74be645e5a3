package dto

import (
	"time"

	"vulnerability-dashboard/internal/model"
)

// LogSearchRequest is a full-text search over the indexed logs. Nil bounds leave the time
// range open.
type LogSearchRequest struct {
	Query     string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	Size      int
}

type LogSearchResponse struct {
	Logs       []model.LogEntry `json:"logs"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
}
