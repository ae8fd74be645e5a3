package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/repository"
)

type HealthController struct {
	docRepo repository.DocumentRepository
}

func NewHealthController(docRepo repository.DocumentRepository) *HealthController {
	return &HealthController{
		docRepo: docRepo,
	}
}

func RegisterHealthRoutes(router *gin.Engine, controller *HealthController) {
	router.GET("/health", controller.Health)
}

// Health godoc
// @Summary      Health check
// @Description  Reports whether the document database answers a ping.
// @Tags         health
// @Produce      json
// @Success      200  {object}  model.Response
// @Failure      503  {object}  model.Response
// @Router       /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.docRepo.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, model.NewResponse("unavailable", nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("ok", nil))
}
