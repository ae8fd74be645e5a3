package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/web"
)

var pagePropsPattern = regexp.MustCompile(`(?s)<script id="page-props" type="application/json">(.*?)</script>`)

func pageProps(t *testing.T, body string, v any) {
	t.Helper()
	m := pagePropsPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "page props script not found")
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(m[1])), v))
}

func sampleLogs(n int) []model.LogEntry {
	logs := make([]model.LogEntry, n)
	for i := range logs {
		logs[i] = model.LogEntry{
			Timestamp: fmt.Sprintf("2023-01-01 10:%02d", i),
			SourceIP:  fmt.Sprintf("10.0.0.%d", i+1),
			Activity:  fmt.Sprintf("Event %d", i),
		}
	}
	return logs
}

func newPageRouter(t *testing.T, logs *fakeLogTableService, dashboard *fakeDashboardService, collections *fakeCollectionQueryService) *gin.Engine {
	t.Helper()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	router := gin.New()
	RegisterPageRoutes(router, NewPageController(logs, dashboard, collections, renderer))
	return router
}

func defaultPageRouter(t *testing.T, logs []model.LogEntry) *gin.Engine {
	return newPageRouter(t,
		&fakeLogTableService{logs: logs},
		&fakeDashboardService{snapshots: []model.DashboardSnapshot{{Timestamp: "2023-01-05 09:30", TotalThreats: 12}}},
		&fakeCollectionQueryService{docs: map[string][]bson.M{"threats": {{"name": "worm"}}}},
	)
}

func TestIndexRedirectsToDashboard(t *testing.T) {
	w := perform(defaultPageRouter(t, nil), http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboardPage(t *testing.T) {
	w := perform(defaultPageRouter(t, nil), http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `<canvas id="bar-chart">`)
	assert.Contains(t, body, "File uploaded to server")

	var props struct {
		Dashboards []model.DashboardSnapshot `json:"dashboards"`
	}
	pageProps(t, body, &props)
	require.Len(t, props.Dashboards, 1)
	assert.Equal(t, int64(12), props.Dashboards[0].TotalThreats)
}

func TestDashboardPage_QueryFailureRendersEmpty(t *testing.T) {
	router := newPageRouter(t, &fakeLogTableService{}, &fakeDashboardService{err: errors.New("down")}, &fakeCollectionQueryService{})

	w := perform(router, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var props map[string]json.RawMessage
	pageProps(t, w.Body.String(), &props)
	assert.JSONEq(t, `[]`, string(props["dashboards"]))
}

func TestLogsPage(t *testing.T) {
	router := defaultPageRouter(t, sampleLogs(20))

	w := perform(router, http.MethodGet, "/logs?page=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Page 2 of 2")
	assert.Contains(t, body, "Event 15")
	assert.NotContains(t, body, "Event 5<")

	var props struct {
		Logs []model.LogEntry `json:"logs"`
	}
	pageProps(t, body, &props)
	assert.Len(t, props.Logs, 20, "props carry the full fetched list")
}

func TestLogsPage_Search(t *testing.T) {
	router := defaultPageRouter(t, []model.LogEntry{
		{Timestamp: "2023-01-01", SourceIP: "10.0.0.1", Activity: "Login"},
		{Timestamp: "2023-01-02", SourceIP: "10.0.0.2", Activity: "Logout"},
	})

	w := perform(router, http.MethodGet, "/logs?q=LOGIN")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Page 1 of 1")
	assert.Contains(t, body, "10.0.0.1")
	assert.NotContains(t, body, "10.0.0.2</td>")
}

var searchFormPattern = regexp.MustCompile(`(?s)<form method="get" action="/logs".*?</form>`)

func TestLogsPage_NewSearchStartsAtFirstPage(t *testing.T) {
	// All 25 logs match "Event"; 11 match "Event 1" (Event 1 and Event 10..19).
	router := defaultPageRouter(t, sampleLogs(25))

	w := perform(router, http.MethodGet, "/logs?q=Event&page=2")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Page 2 of 3")

	form := searchFormPattern.FindString(body)
	require.NotEmpty(t, form, "search form not found")
	assert.Contains(t, form, `name="q"`)
	assert.NotContains(t, form, `name="page"`, "submitting a new term must not carry the current page")

	// Submitting the form sends only q, so a new term lands on the first page.
	w = perform(router, http.MethodGet, "/logs?q=Event+1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 1 of 2")
}

func TestLogsPage_QueryFailureRendersEmpty(t *testing.T) {
	router := newPageRouter(t, &fakeLogTableService{err: errors.New("down")}, &fakeDashboardService{}, &fakeCollectionQueryService{})

	w := perform(router, http.MethodGet, "/logs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 1 of 0")

	var props map[string]json.RawMessage
	pageProps(t, w.Body.String(), &props)
	assert.JSONEq(t, `[]`, string(props["logs"]))
}

func TestExportLogsCSV(t *testing.T) {
	router := defaultPageRouter(t, []model.LogEntry{
		{Timestamp: "2023-01-01", SourceIP: "10.0.0.1", Activity: "Login"},
		{Timestamp: "2023-01-02", SourceIP: "10.0.0.2", Activity: "Logout"},
	})

	w := perform(router, http.MethodGet, "/logs/export.csv?q=Login")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="logs.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Timestamp,Source IP,Activity\n2023-01-01,10.0.0.1,Login\n2023-01-02,10.0.0.2,Logout", w.Body.String())
}

func TestExportLogsJSON(t *testing.T) {
	logs := sampleLogs(3)
	router := defaultPageRouter(t, logs)

	w := perform(router, http.MethodGet, "/logs/export.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="logs.json"`, w.Header().Get("Content-Disposition"))

	var exported []model.LogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exported))
	assert.Equal(t, logs, exported)
}

func TestCollectionPage(t *testing.T) {
	router := defaultPageRouter(t, nil)

	w := perform(router, http.MethodGet, "/threats")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "worm")
	assert.Contains(t, body, `aria-current="page">Threats</a>`)

	w = perform(router, http.MethodGet, "/alerts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No documents found.")
}
