package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"vulnerability-dashboard/config"
	_ "vulnerability-dashboard/docs"
	"vulnerability-dashboard/internal/controller"
	"vulnerability-dashboard/internal/elasticsearch"
	"vulnerability-dashboard/internal/filestate"
	"vulnerability-dashboard/internal/kafka"
	"vulnerability-dashboard/internal/logging"
	"vulnerability-dashboard/internal/middleware"
	"vulnerability-dashboard/internal/mongodb"
	"vulnerability-dashboard/internal/parser"
	"vulnerability-dashboard/internal/scheduler"
	"vulnerability-dashboard/internal/service"
	"vulnerability-dashboard/internal/web"
)

// @title           Vulnerability Dashboard API
// @version         1.0
// @description     Raw collection queries and log search behind the vulnerability dashboard.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         collections
// @tag.description  Raw documents of the dashboard collections

// @tag.name         logs
// @tag.description  Activity log search

// @tag.name         health
// @tag.description  API health check operations

func main() {
	var wg sync.WaitGroup

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}
	defer logCloser.Close()

	options := []fx.Option{
		fx.Supply(cfg),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			web.NewRenderer,
			mongodb.NewClient,
			mongodb.NewDatabase,
			mongodb.NewDocumentRepository,
			mongodb.NewLogRepository,
			mongodb.NewDashboardRepository,
			elasticsearch.NewElasticsearchLogRepository,
		),
		// Services and controllers
		fx.Provide(
			service.NewCollectionQueryService,
			service.NewLogQueryService,
			service.NewLogTableService,
			service.NewDashboardService,
			controller.NewCollectionController,
			controller.NewLogController,
			controller.NewPageController,
			controller.NewHealthController,
		),
		fx.Invoke(RegisterRoutes),
	}

	if cfg.Ingest.Enabled {
		options = append(options,
			fx.Provide(
				NewFileStateManager,
				parser.NewActivityLineParser,
				kafka.NewKafkaEventProducer,
				kafka.NewKafkaEventConsumer,
				elasticsearch.NewElasticLogStore,
				service.NewActivityIngestService,
				service.NewIngestConsumerService,
			),
			fx.Invoke(func(lc fx.Lifecycle, consumerService service.IngestConsumerService) {
				startIngestConsumer(lc, &wg, consumerService)
			}),
		)
	} else {
		log.Info().Msg("Ingest pipeline disabled")
	}
	if cfg.Snapshot.Enabled {
		options = append(options, fx.Provide(service.NewSnapshotService))
	}
	options = append(options, fx.Invoke(RegisterScheduler))

	app := fx.New(options...)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute) // Mongo connect retries for up to 90s
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	// Initiate shutdown
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}

	log.Info().Msg("Waiting for background goroutines to finish...")
	wg.Wait()
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Metrics())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RegisterRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	collectionController *controller.CollectionController,
	logController *controller.LogController,
	pageController *controller.PageController,
	healthController *controller.HealthController,
) {
	controller.RegisterCollectionRoutes(router, collectionController)
	controller.RegisterLogRoutes(router, logController)
	controller.RegisterPageRoutes(router, pageController)
	controller.RegisterHealthRoutes(router, healthController)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// --- Factory Functions ---

func NewFileStateManager(cfg *config.Config) filestate.Manager {
	return filestate.NewManager(cfg.FileState.FilePath)
}

// --- Invoker Functions ---

type schedulerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Ingest    service.ActivityIngestService `optional:"true"`
	Snapshot  service.SnapshotService       `optional:"true"`
}

func RegisterScheduler(p schedulerParams) error {
	var jobs []scheduler.Job
	if p.Ingest != nil {
		jobs = append(jobs, scheduler.Job{
			Name:     "activity-ingest",
			Schedule: p.Config.Ingest.Schedule,
			Run:      p.Ingest.IngestFiles,
		})
	}
	if p.Snapshot != nil {
		jobs = append(jobs, scheduler.Job{
			Name:     "dashboard-snapshot",
			Schedule: p.Config.Snapshot.Schedule,
			Run: func(ctx context.Context) error {
				_, err := p.Snapshot.TakeSnapshot(ctx)
				return err
			},
		})
	}
	if len(jobs) == 0 {
		log.Info().Msg("No scheduled jobs enabled")
		return nil
	}
	_, err := scheduler.NewScheduler(p.Lifecycle, jobs...)
	return err
}

// startIngestConsumer starts the IngestConsumerService in a goroutine managed by fx lifecycle
func startIngestConsumer(lc fx.Lifecycle, wg *sync.WaitGroup, consumerService service.IngestConsumerService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("Starting Ingest Consumer goroutine")
			wg.Add(1)
			go consumerService.Run(ctx, wg)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info().Msg("Signaling Ingest Consumer goroutine to stop...")
			cancel()
			return nil
		},
	})
}
