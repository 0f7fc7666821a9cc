package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"udec/workout-tracker/internal/api"
	"udec/workout-tracker/internal/config"
	"udec/workout-tracker/internal/logging"
	"udec/workout-tracker/internal/repository/mongo"
	redisrepo "udec/workout-tracker/internal/repository/redis"
	"udec/workout-tracker/internal/service"
	"udec/workout-tracker/internal/storage"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		// Logger is not up yet.
		panic("could not load config: " + err.Error())
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.Info().Str("address", cfg.Server.Address).Msg("starting workout tracker server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	// The workout index is created synchronously: the single-active-workout
	// invariant depends on it, so the server must not take traffic before
	// the index exists.
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancelIndex()
	if err := mongo.EnsureWorkoutIndexes(indexCtx, appDB.Collection("workouts")); err != nil {
		logger.Fatal().Err(err).Msg("could not create workout indexes")
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			logger.Error().Err(err).Msg("user index creation failed")
		}
		if err := mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises")); err != nil {
			logger.Error().Err(err).Msg("exercise index creation failed")
		}
		if err := mongo.EnsureTemplateIndexes(ctx, appDB.Collection("workout_templates")); err != nil {
			logger.Error().Err(err).Msg("template index creation failed")
		}
	}()

	// --- Catalog Cache (optional) ---
	var catalogCache service.CatalogCache
	if cfg.Redis.Enabled {
		redisClient, err := redisrepo.Connect(context.Background(), redisrepo.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("could not connect to Redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close Redis client")
			}
		}()
		catalogCache = redisrepo.NewCatalogCache(redisClient)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("catalog cache enabled")
	}

	// --- File Storage (optional) ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(cfg.S3, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize S3 storage")
		}
		logger.Info().Str("bucket", cfg.S3.BucketName).Msg("file storage enabled")
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	catalogService := service.NewCatalogService(exerciseRepo, catalogCache, fileStorage, logger)
	templateService := service.NewTemplateService(templateRepo, exerciseRepo)
	adminService := service.NewAdminService(userRepo)
	sessionService := service.NewSessionService(workoutRepo, exerciseRepo, templateRepo)

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, authService, catalogService, templateService, adminService, sessionService)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen and serve failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
