package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/ldm616/justus-sub000/internal/config"
	"github.com/ldm616/justus-sub000/internal/handler"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/ldm616/justus-sub000/internal/service"
	"github.com/ldm616/justus-sub000/migrations"
	"github.com/ldm616/justus-sub000/pkg/database"
	"github.com/ldm616/justus-sub000/pkg/derivative"
	"github.com/ldm616/justus-sub000/pkg/jwt"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/ldm616/justus-sub000/pkg/realtime"
	"github.com/ldm616/justus-sub000/pkg/storage"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

const shutdownTimeout = 15 * time.Second

// changeBus is what the services publish to and the SSE endpoint reads from.
type changeBus interface {
	realtime.Publisher
	realtime.Subscriber
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewDatabase(cfg.DatabaseURL, logger.Log, database.DefaultPool)
	if err != nil {
		logger.Log.Fatalw("Failed to connect to database", "err", err)
	}
	defer database.Close(db)

	applied, err := database.NewMigrator(db, migrations.FS, logger.Log).Run(ctx)
	if err != nil {
		logger.Log.Fatalw("Failed to migrate database", "err", err)
	}
	if len(applied) > 0 {
		logger.Log.Infow("Migrations applied", "files", applied)
	}

	// Repositories
	scope := repository.NewScope(db, database.AppRole)
	photoRepo := repository.NewPhotoRepository(scope)
	familyRepo := repository.NewFamilyRepository(scope)
	commentRepo := repository.NewCommentRepository(scope)
	tagRepo := repository.NewTagRepository(scope)
	profileRepo := repository.NewProfileRepository(scope)

	// Storage
	var store storage.ObjectStore
	switch cfg.StorageDriver {
	case config.StorageDriverLocal:
		store, err = storage.NewLocalStorage(cfg.LocalStorageDir, cfg.LocalStorageURL)
	default:
		store, err = storage.NewR2Storage(ctx, cfg.R2)
	}
	if err != nil {
		logger.Log.Fatalw("Failed to initialize storage", "driver", cfg.StorageDriver, "err", err)
	}

	cleaner := service.NewCleaner(store, cfg.Cleanup.Workers, cfg.Cleanup.QueueSize, cfg.Cleanup.Timeout)
	cleaner.Start()

	// Change notifications
	var bus changeBus = realtime.Nop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Warnw("Redis unreachable, change notifications may be lost", "addr", cfg.Redis.Addr, "err", err)
		}
		bus = realtime.NewRedisBus(rdb, logger.Log)
	} else {
		logger.Log.Infow("REDIS_ADDR not set, change notifications disabled")
	}

	defaultLoc, _ := time.LoadLocation(cfg.DefaultTimezone)

	// Services
	decodeSlots := semaphore.NewWeighted(int64(cfg.Upload.DecodeConcurrency))
	photoService := service.NewPhotoService(
		photoRepo,
		familyRepo,
		derivative.NewGenerator(),
		store,
		cleaner,
		bus,
		service.PhotoOptions{
			DecodeSlots:       decodeSlots,
			DefaultLocation:   defaultLoc,
		},
	)
	commentService := service.NewCommentService(commentRepo, photoRepo, familyRepo, bus)
	tagService := service.NewTagService(tagRepo, photoRepo, familyRepo, bus)
	familyService := service.NewFamilyService(familyRepo, familyRepo, bus)
	profileService := service.NewProfileService(profileRepo, derivative.NewGenerator(derivative.SquareSpec), store, decodeSlots)

	validator := utils.NewValidator()
	maxBytes := int64(cfg.Upload.MaxBytes)

	// Handlers
	handlers := handler.Handlers{
		Photos:   handler.NewPhotoHandler(photoService, validator, maxBytes, cfg.Upload.Timeout),
		Comments: handler.NewCommentHandler(commentService, validator),
		Tags:     handler.NewTagHandler(tagService, validator),
		Families: handler.NewFamilyHandler(familyService, validator),
		Profiles: handler.NewProfileHandler(profileService, maxBytes),
		Changes:  handler.NewChangesHandler(familyService, bus, 0),
	}

	verifier := jwt.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	app := newApp(cfg)
	if local, ok := store.(*storage.LocalStorage); ok {
		app.Static("/objects", local.Dir())
	}
	handler.RegisterRoutes(app.Group("/api"), middleware.AuthMiddleware(verifier), handlers)

	go func() {
		logger.Log.Infow("Server starting", "port", cfg.Port, "storage", cfg.StorageDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.Errorw("Server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Infow("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP shutdown failed", "err", err)
	}
	if err := cleaner.Stop(shutdownCtx); err != nil {
		logger.Log.Warnw("Cleanup queue not drained", "err", err)
	}
}
