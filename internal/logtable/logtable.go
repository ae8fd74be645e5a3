// Package logtable implements search, pagination and export over an already fetched list of
// activity logs.
package logtable

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vulnerability-dashboard/internal/model"
)

// PageSize is the number of rows shown per page of the log table.
const PageSize = 10

var csvHeader = []string{"Timestamp", "Source IP", "Activity"}

// View is one rendered page of the filtered log table.
type View struct {
	Term       string           `json:"term"`
	Items      []model.LogEntry `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Matched    int              `json:"matched"`
	Total      int              `json:"total"`
	HasPrev    bool             `json:"hasPrev"`
	HasNext    bool             `json:"hasNext"`
}

// Matches reports whether a log matches the search term. Timestamp and source IP are matched
// case-sensitively, activity case-insensitively.
func Matches(entry model.LogEntry, term string) bool {
	return strings.Contains(entry.Timestamp, term) ||
		strings.Contains(entry.SourceIP, term) ||
		strings.Contains(strings.ToLower(entry.Activity), strings.ToLower(term))
}

// Filter returns the logs matching term, preserving order. An empty term matches every log.
func Filter(logs []model.LogEntry, term string) []model.LogEntry {
	filtered := make([]model.LogEntry, 0, len(logs))
	for _, entry := range logs {
		if Matches(entry, term) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// TotalPages is ceil(n / size).
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage keeps page within [1, totalPages]. With no pages at all it stays at 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns items [(page-1)*size, page*size) of logs after clamping page.
func Paginate(logs []model.LogEntry, page, size int) ([]model.LogEntry, int) {
	if size <= 0 {
		size = PageSize
	}
	page = ClampPage(page, TotalPages(len(logs), size))
	start := (page - 1) * size
	if start >= len(logs) {
		return []model.LogEntry{}, page
	}
	end := start + size
	if end > len(logs) {
		end = len(logs)
	}
	return logs[start:end], page
}

// Build filters logs by term and cuts out the requested page.
func Build(logs []model.LogEntry, term string, page int) View {
	filtered := Filter(logs, term)
	items, page := Paginate(filtered, page, PageSize)
	totalPages := TotalPages(len(filtered), PageSize)
	return View{
		Term:       term,
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Matched:    len(filtered),
		Total:      len(logs),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// ExportCSV writes the header and one comma-joined row per log. Fields are written as is,
// embedded commas and quotes are not escaped.
func ExportCSV(w io.Writer, logs []model.LogEntry) error {
	rows := make([]string, 0, len(logs)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, entry := range logs {
		rows = append(rows, strings.Join([]string{entry.Timestamp, entry.SourceIP, entry.Activity}, ","))
	}
	if _, err := io.WriteString(w, strings.Join(rows, "\n")); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	return nil
}

// ExportJSON writes logs as a pretty-printed JSON array.
func ExportJSON(w io.Writer, logs []model.LogEntry) error {
	if logs == nil {
		logs = []model.LogEntry{}
	}
	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}
