package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-ga-api/api/swagger"
	"github.com/noah-isme/timetable-ga-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-ga-api/internal/middleware"
	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/repository"
	"github.com/noah-isme/timetable-ga-api/internal/service"
	"github.com/noah-isme/timetable-ga-api/pkg/cache"
	"github.com/noah-isme/timetable-ga-api/pkg/config"
	"github.com/noah-isme/timetable-ga-api/pkg/database"
	"github.com/noah-isme/timetable-ga-api/pkg/jobs"
	"github.com/noah-isme/timetable-ga-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-ga-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-ga-api/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

type timetableRepository interface {
	Create(ctx context.Context, record *models.TimetableRecord) error
	FindByID(ctx context.Context, id string) (*models.TimetableRecord, error)
	List(ctx context.Context, filter repository.TimetableFilter) ([]models.TimetableRecord, int, error)
	SaveProblem(ctx context.Context, problem *models.ProblemData) error
	LatestProblem(ctx context.Context) (*models.ProblemData, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

// @title Timetable GA API
// @version 1.0.0
// @description Genetic-algorithm timetable generation for faculties, classrooms and batches.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{}

	var store timetableRepository
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect database", "error", err)
		}
		defer db.Close() //nolint:errcheck
		if cfg.Database.AutoMigrate {
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				logr.Sugar().Fatalw("failed to migrate database", "error", err)
			}
			logr.Sugar().Infow("database migrated", "applied", applied)
		}
		store = repository.NewTimetableRepository(db, metricsSvc)
	} else {
		logr.Sugar().Warnw("database disabled, timetables are kept in memory")
		store = repository.NewMemoryTimetableRepository()
	}
	checks["database"] = store

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer client.Close() //nolint:errcheck
			redisRepo := repository.NewCacheRepository(client, cfg.Redis.KeyPrefix)
			cacheRepo = redisRepo
			checks["cache"] = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Redis.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	timetableSvc := service.NewTimetableService(store, cacheSvc, metricsSvc, validate, logr, service.TimetableServiceConfig{
		Defaults: models.GenerationParams{
			PopulationSize: cfg.Scheduler.PopulationSize,
			Generations:    cfg.Scheduler.Generations,
			MutationRate:   cfg.Scheduler.MutationRate,
			CrossoverRate:  cfg.Scheduler.CrossoverRate,
			ElitismCount:   cfg.Scheduler.ElitismCount,
			TournamentSize: cfg.Scheduler.TournamentSize,
		},
		MaxPopulationSize: cfg.Scheduler.MaxPopulationSize,
		MaxGenerations:    cfg.Scheduler.MaxGenerations,
		Timeout:           cfg.Scheduler.Timeout,
		CacheTTL:          cfg.Redis.CacheTTL,
	})

	var jobSvc *service.GenerationJobService
	queue := jobs.NewQueue("timetable-generation", func(ctx context.Context, job jobs.Job) error {
		return jobSvc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.Retries,
		Logger:     logr,
		OnFailure: func(job jobs.Job, err error) {
			jobSvc.MarkFailed(job, err)
		},
	})
	jobSvc = service.NewGenerationJobService(timetableSvc, queue, metricsSvc, logr, service.GenerationJobConfig{ResultTTL: cfg.Jobs.ResultTTL})
	queue.Start(ctx)
	defer queue.Stop()

	timetableHandler := handler.NewTimetableHandler(timetableSvc, jobSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	timetable := api.Group("/timetable")
	{
		timetable.POST("/generate", timetableHandler.Generate)
		timetable.POST("/jobs", internalmiddleware.OptionalJWT(tokenSvc), timetableHandler.SubmitJob)
		timetable.GET("/jobs/:id", timetableHandler.JobStatus)
		timetable.GET("/timetables", timetableHandler.List)
		timetable.GET("/timetables/:id", timetableHandler.Get)
		timetable.GET("/timetables/:id/export", timetableHandler.Export)
		timetable.GET("/timetables/batch/:batchId", timetableHandler.ByBatch)
		timetable.GET("/timetables/faculty/:facultyId", timetableHandler.ByFaculty)
		timetable.GET("/data", timetableHandler.Data)
		timetable.DELETE("/data",
			internalmiddleware.JWT(tokenSvc),
			internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
			timetableHandler.Reset,
		)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
