package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/roster-api/api/swagger"
	"github.com/noah-isme/roster-api/internal/handler"
	"github.com/noah-isme/roster-api/internal/middleware"
	"github.com/noah-isme/roster-api/internal/roster"
	"github.com/noah-isme/roster-api/internal/service"
	"github.com/noah-isme/roster-api/internal/store"
	"github.com/noah-isme/roster-api/internal/view"
	"github.com/noah-isme/roster-api/pkg/cache"
	"github.com/noah-isme/roster-api/pkg/config"
	"github.com/noah-isme/roster-api/pkg/database"
	"github.com/noah-isme/roster-api/pkg/export"
	"github.com/noah-isme/roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/roster-api/pkg/middleware/requestid"
)

// @title Roster API
// @version 0.1.0
// @description Per-teacher student roster with live sync, fee tracking and exports
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	bus := store.NewChangeBus(redisClient)
	rosterStore := store.NewPostgresStore(db, bus, cfg.Roster, logr)

	registry := roster.NewRegistry(rosterStore, logr)
	defer registry.Close()

	validate := validator.New()
	projector := view.NewProjector(cfg.Roster.CollationLocale)

	metricsSvc := service.NewMetricsService(registry.Sessions)
	rosterSvc := service.NewRosterService(registry, projector, validate, logr)
	dashboardSvc := service.NewDashboardService(registry)
	reminderSvc := service.NewReminderService(registry, cfg.Reminder, logr)
	exportSvc := service.NewExportService(registry, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	studentHandler := handler.NewStudentHandler(rosterSvc, reminderSvc, metricsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	sessionHandler := handler.NewSessionHandler(rosterSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/export", exportHandler.Download)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)
		api.POST("/students/:id/reminder", studentHandler.Remind)

		api.GET("/dashboard", dashboardHandler.Summary)
		api.GET("/courses", dashboardHandler.Courses)

		api.DELETE("/session", sessionHandler.SignOut)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
