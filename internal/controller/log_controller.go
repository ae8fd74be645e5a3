package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/internal/dto"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/service"
	"vulnerability-dashboard/internal/util"
)

type LogController struct {
	logQueryService service.LogQueryService
}

func NewLogController(logQueryService service.LogQueryService) *LogController {
	return &LogController{
		logQueryService: logQueryService,
	}
}

func RegisterLogRoutes(router *gin.Engine, controller *LogController) {
	v1 := router.Group("/api/v1/logs")
	{
		v1.GET("/search", controller.SearchLogs)
	}
}

// SearchLogs godoc
// @Summary      Full-text search over activity logs
// @Description  Searches the indexed activity logs by timestamp, source IP and activity text, newest first. Supports an optional time range and pagination.
// @Tags         logs
// @Produce      json
// @Param        query      query     string  false  "Query string, e.g. Login AND 192.168.*"
// @Param        startTime  query     string  false  "Start time (ISO 8601, epoch ms or YYYY-MM-DD HH:MM)"
// @Param        endTime    query     string  false  "End time (ISO 8601, epoch ms or YYYY-MM-DD HH:MM)"
// @Param        page       query     int     false  "Page number (default: 1)" minimum(1)
// @Param        size       query     int     false  "Number of logs per page (default: 50, max: 1000)" minimum(1) maximum(1000)
// @Success      200        {object}  dto.LogSearchResponse "Successfully retrieved logs"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Router       /api/v1/logs/search [get]
func (c *LogController) SearchLogs(ctx *gin.Context) {
	startTime, errStart := optionalTime(ctx.Query("startTime"))
	endTime, errEnd := optionalTime(ctx.Query("endTime"))
	if errStart != nil || errEnd != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid startTime or endTime format. Use ISO 8601, epoch milliseconds or YYYY-MM-DD HH:MM.", nil))
		return
	}
	if startTime != nil && endTime != nil && endTime.Before(*startTime) {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("endTime must not be before startTime", nil))
		return
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("size", "50"))
	if err != nil {
		size = 0
	}

	searchReq := dto.LogSearchRequest{
		Query:     ctx.Query("query"),
		StartTime: startTime,
		EndTime:   endTime,
		Page:      page,
		Size:      size,
	}

	result, err := c.logQueryService.SearchLogs(ctx.Request.Context(), searchReq)
	if err != nil {
		log.Error().Err(err).Msg("Error searching logs")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to search logs", nil))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := util.ParseTimeFlexible(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
