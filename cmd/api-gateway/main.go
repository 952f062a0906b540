package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studyplanhq/studyplan-api/api/swagger"
	"github.com/studyplanhq/studyplan-api/internal/handler"
	"github.com/studyplanhq/studyplan-api/internal/middleware"
	"github.com/studyplanhq/studyplan-api/internal/models"
	"github.com/studyplanhq/studyplan-api/internal/repository"
	"github.com/studyplanhq/studyplan-api/internal/service"
	"github.com/studyplanhq/studyplan-api/pkg/cache"
	"github.com/studyplanhq/studyplan-api/pkg/config"
	"github.com/studyplanhq/studyplan-api/pkg/database"
	"github.com/studyplanhq/studyplan-api/pkg/logger"
	corsmiddleware "github.com/studyplanhq/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyplanhq/studyplan-api/pkg/middleware/requestid"
)

// @title StudyPlan API
// @version 1.0.0
// @description Study plan generation service for exam preparation platforms
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	planRepo := repository.NewStudyPlanRepository(db)
	completionRepo := repository.NewCompletedLessonRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.StudyPlans.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studyplan-api",
	})
	planSvc := service.NewStudyPlanService(
		catalogRepo, planRepo, completionRepo,
		cacheSvc, db, metricsSvc, validate, logr,
		cfg.StudyPlans.CacheTTL, cfg.StudyPlans.MaxLessons,
	)

	authHandler := handler.NewAuthHandler(authSvc)
	planHandler := handler.NewStudyPlanHandler(planSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	if cfg.StudyPlans.Enabled {
		plans := authed.Group("/study-plans")
		plans.POST("/generate", planHandler.Generate)
		plans.GET("", planHandler.List)
		plans.GET("/:id", planHandler.Get)
		plans.DELETE("/:id", planHandler.Delete)
		plans.PATCH("/:id/items/:itemId", planHandler.CompleteItem)
		plans.GET("/:id/export", planHandler.Export)
	} else {
		logr.Warn("study plan endpoints disabled by configuration")
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.GET("/status", metricsHandler.Status)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
