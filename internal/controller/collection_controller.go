package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/service"
)

type CollectionController struct {
	queryService service.CollectionQueryService
}

func NewCollectionController(queryService service.CollectionQueryService) *CollectionController {
	return &CollectionController{
		queryService: queryService,
	}
}

func RegisterCollectionRoutes(router *gin.Engine, controller *CollectionController) {
	api := router.Group("/api")
	{
		api.GET("/:collection", controller.GetCollection)
	}
}

// GetCollection godoc
// @Summary      List the documents of a collection
// @Description  Returns the raw documents of one collection sorted by the configured sort field, newest first. threats and logs are limited to the 10 most recent documents, alerts and reports are unlimited. Query parameters are ignored.
// @Tags         collections
// @Produce      json
// @Param        collection  path      string  true  "Collection name" Enums(alerts, logs, reports, threats)
// @Success      200         {array}   object  "Raw documents"
// @Failure      404         {object}  model.Response "Unknown collection"
// @Failure      500         {object}  model.Response "Database query failed"
// @Router       /api/{collection} [get]
func (c *CollectionController) GetCollection(ctx *gin.Context) {
	collection := ctx.Param("collection")

	docs, err := c.queryService.Query(ctx.Request.Context(), collection)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCollection) {
			ctx.JSON(http.StatusNotFound, model.NewResponse("Unknown collection: "+collection, nil))
			return
		}
		log.Error().Err(err).Str("collection", collection).Msg("Error querying collection")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to query "+collection, nil))
		return
	}

	if docs == nil {
		docs = []bson.M{}
	}
	ctx.JSON(http.StatusOK, docs)
}
