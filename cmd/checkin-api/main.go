package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gracepoint-labs/checkin-api/api/swagger"
	"github.com/gracepoint-labs/checkin-api/internal/handler"
	"github.com/gracepoint-labs/checkin-api/internal/middleware"
	"github.com/gracepoint-labs/checkin-api/internal/repository"
	"github.com/gracepoint-labs/checkin-api/internal/service"
	"github.com/gracepoint-labs/checkin-api/pkg/cache"
	"github.com/gracepoint-labs/checkin-api/pkg/config"
	"github.com/gracepoint-labs/checkin-api/pkg/database"
	"github.com/gracepoint-labs/checkin-api/pkg/export"
	"github.com/gracepoint-labs/checkin-api/pkg/logger"
	corsmiddleware "github.com/gracepoint-labs/checkin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gracepoint-labs/checkin-api/pkg/middleware/requestid"
)

// @title Check-In API
// @version 0.1.0
// @description Kiosk check-in opportunity resolution service
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr, metrics)
	referenceRepo := repository.NewReferenceRepository(db, cacheRepo, cfg.CheckIn.ReferenceCacheTTL, logr)
	personRepo := repository.NewPersonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	dataViewRepo := repository.NewDataViewRepository(db)

	opportunitySvc := service.NewOpportunityService(referenceRepo, attendanceRepo, metrics, logr, time.Now)
	attendeeSvc := service.NewAttendeeService(attendanceRepo, personRepo, referenceRepo, logr)
	selectionSvc := service.NewSelectionService(logr)
	searchSvc := service.NewSearchService(personRepo, logr)
	checkInSvc := service.NewCheckInService(cfg.CheckIn, referenceRepo, personRepo, searchSvc, opportunitySvc, attendeeSvc, selectionSvc, dataViewRepo, metrics, validate, logr)
	labelSvc := service.NewLabelService(checkInSvc, export.NewLabelExporter(), export.NewCSVExporter(), cfg.Labels, logr)
	deviceAuthSvc := service.NewDeviceAuthService(referenceRepo, validate, logr, service.DeviceAuthConfig{
		TokenSecret: cfg.Auth.Secret,
		TokenExpiry: cfg.Auth.Expiration,
		Issuer:      cfg.Auth.Issuer,
	})

	authHandler := handler.NewAuthHandler(deviceAuthSvc)
	checkInHandler := handler.NewCheckInHandler(checkInSvc, labelSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/kiosk/login", authHandler.Login)

	checkin := api.Group("/checkin")
	checkin.Use(middleware.DeviceJWT(deviceAuthSvc))
	checkin.POST("/search", checkInHandler.Search)
	checkin.POST("/family", checkInHandler.FamilyCheckIn)
	checkin.POST("/person", checkInHandler.PersonCheckIn)
	checkin.GET("/current", checkInHandler.Current)
	checkin.POST("/labels", checkInHandler.Labels)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
