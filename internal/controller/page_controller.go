package controller

import (
	"bytes"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/logtable"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/service"
	"vulnerability-dashboard/internal/web"
)

// PageController serves the server-rendered pages. A failed query renders the page with empty
// data rather than an error page.
type PageController struct {
	logTableService  service.LogTableService
	dashboardService service.DashboardService
	queryService     service.CollectionQueryService
	renderer         *web.Renderer
}

func NewPageController(
	logTableService service.LogTableService,
	dashboardService service.DashboardService,
	queryService service.CollectionQueryService,
	renderer *web.Renderer,
) *PageController {
	return &PageController{
		logTableService:  logTableService,
		dashboardService: dashboardService,
		queryService:     queryService,
		renderer:         renderer,
	}
}

func RegisterPageRoutes(router *gin.Engine, controller *PageController) {
	router.GET("/", controller.Index)
	router.GET("/dashboard", controller.Dashboard)
	router.GET("/logs", controller.Logs)
	router.GET("/logs/export.csv", controller.ExportLogsCSV)
	router.GET("/logs/export.json", controller.ExportLogsJSON)
	for _, collection := range []string{config.CollectionAlerts, config.CollectionReports, config.CollectionThreats} {
		router.GET("/"+collection, controller.CollectionPage(collection))
	}
}

type dashboardPageData struct {
	Snapshots  []model.DashboardSnapshot
	Charts     dto.DashboardCharts
	ChartsJSON template.JS
}

type logsPageData struct {
	View logtable.View
}

type collectionPageData struct {
	Collection string
	Table      web.Table
}

func (c *PageController) Index(ctx *gin.Context) {
	ctx.Redirect(http.StatusFound, "/dashboard")
}

func (c *PageController) Dashboard(ctx *gin.Context) {
	snapshots, err := c.dashboardService.Snapshots(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error loading dashboard snapshots")
	}
	if snapshots == nil {
		snapshots = []model.DashboardSnapshot{}
	}

	charts := c.dashboardService.Charts()
	chartsJSON, err := web.MarshalProps(charts)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	c.render(ctx, web.Page{
		Template: web.PageDashboard,
		Title:    "Dashboard",
		Props:    gin.H{"dashboards": snapshots},
		Data: dashboardPageData{
			Snapshots:  snapshots,
			Charts:     charts,
			ChartsJSON: chartsJSON,
		},
	})
}

// Logs renders the log table for ?q=term&page=n. The search form submits only q, so a new
// term always starts on the first page.
func (c *PageController) Logs(ctx *gin.Context) {
	logs := c.recentLogs(ctx)
	term := ctx.Query("q")
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	c.render(ctx, web.Page{
		Template: web.PageLogs,
		Title:    "Logs",
		Props:    gin.H{"logs": logs},
		Data:     logsPageData{View: c.logTableService.View(logs, term, page)},
	})
}

// ExportLogsCSV downloads the full unfiltered log list of the logs page.
func (c *PageController) ExportLogsCSV(ctx *gin.Context) {
	c.export(ctx, "logs.csv", "text/csv; charset=utf-8", logtable.ExportCSV)
}

// ExportLogsJSON downloads the full unfiltered log list of the logs page.
func (c *PageController) ExportLogsJSON(ctx *gin.Context) {
	c.export(ctx, "logs.json", "application/json; charset=utf-8", logtable.ExportJSON)
}

func (c *PageController) CollectionPage(collection string) gin.HandlerFunc {
	title := strings.ToUpper(collection[:1]) + collection[1:]
	return func(ctx *gin.Context) {
		docs, err := c.queryService.Query(ctx.Request.Context(), collection)
		if err != nil {
			log.Error().Err(err).Str("collection", collection).Msg("Error loading collection page")
		}
		if docs == nil {
			docs = []bson.M{}
		}

		c.render(ctx, web.Page{
			Template: web.PageCollection,
			Title:    title,
			Props:    gin.H{collection: docs},
			Data: collectionPageData{
				Collection: collection,
				Table:      web.DocumentTable(docs),
			},
		})
	}
}

func (c *PageController) recentLogs(ctx *gin.Context) []model.LogEntry {
	logs, err := c.logTableService.Recent(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error loading logs")
	}
	if logs == nil {
		logs = []model.LogEntry{}
	}
	return logs
}

func (c *PageController) export(ctx *gin.Context, filename, contentType string, write func(w io.Writer, logs []model.LogEntry) error) {
	logs := c.recentLogs(ctx)

	var buf bytes.Buffer
	if err := write(&buf, logs); err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Error exporting logs")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to export logs", nil))
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, contentType, buf.Bytes())
}

func (c *PageController) render(ctx *gin.Context, page web.Page) {
	page.Path = ctx.Request.URL.Path

	var buf bytes.Buffer
	if err := c.renderer.Render(&buf, page); err != nil {
		c.renderError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (c *PageController) renderError(ctx *gin.Context, err error) {
	log.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("Error rendering page")
	ctx.String(http.StatusInternalServerError, "Internal Server Error")
}
