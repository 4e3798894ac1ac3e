package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/contracts"
	"contract-backend/internal/entities"
	"contract-backend/internal/pipeline"
	"contract-backend/internal/services/health"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/server"
	"contract-backend/internal/shared/storage/db"
	"contract-backend/internal/shared/storage/object"
	localstore "contract-backend/internal/shared/storage/object/local"
	miniostore "contract-backend/internal/shared/storage/object/minio"
	s3store "contract-backend/internal/shared/storage/object/s3"
	"contract-backend/internal/shared/telemetry"
	"contract-backend/internal/workerpool"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Repo      contracts.Repo
	Pool      *workerpool.Pool
	Runner    *pipeline.Runner
	Scheduler *pipeline.Scheduler
	Service   *contracts.Service
	Handler   *contracts.Handler
	Health    *health.Service
}

type buildOptions struct {
	recognizer entities.Recognizer
	store      object.ObjectStore
}

// Option overrides a dependency Build would otherwise construct.
type Option func(*buildOptions)

// WithRecognizer replaces the prose recognizer. Tests use entities.Static.
func WithRecognizer(r entities.Recognizer) Option {
	return func(o *buildOptions) { o.recognizer = r }
}

// WithStore replaces the configured object store.
func WithStore(s object.ObjectStore) Option {
	return func(o *buildOptions) { o.store = s }
}

// Build prepares shared dependencies and the router. The worker pool is
// running when Build returns; call Shutdown to drain it.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := bo.store
	if store == nil {
		store, err = buildStore(ctx, cfg)
		if err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	recognizer := bo.recognizer
	if recognizer == nil {
		recognizer = entities.NewProseRecognizer()
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	if sqlDB != nil {
		app.Repo = &contracts.PGRepo{DB: sqlDB}
	} else {
		app.Repo = contracts.NewMemoryRepo()
	}

	var poolOpts []workerpool.Option
	if cfg.WorkerConcurrency > 0 {
		poolOpts = append(poolOpts, workerpool.WithWorkers(cfg.WorkerConcurrency))
	}
	if cfg.WorkerQueueSize > 0 {
		poolOpts = append(poolOpts, workerpool.WithQueueSize(cfg.WorkerQueueSize))
	}
	if cfg.RunTimeout > 0 {
		poolOpts = append(poolOpts, workerpool.WithRunTimeout(cfg.RunTimeout))
	}
	app.Pool = workerpool.New(poolOpts...)

	app.Runner = &pipeline.Runner{
		Repo: app.Repo,
		Processor: &pipeline.Processor{
			Files:         store,
			Recognizer:    recognizer,
			MinTextLength: cfg.MinTextLength,
		},
	}
	app.Scheduler = &pipeline.Scheduler{Pool: app.Pool, Runner: app.Runner}

	var maxUpload int64
	if cfg.MaxUploadMB > 0 {
		maxUpload = cfg.MaxUploadBytes()
	}
	app.Service = &contracts.Service{
		Repo:           app.Repo,
		Store:          store,
		Scheduler:      app.Scheduler,
		MaxUploadBytes: maxUpload,
	}
	app.Handler = contracts.NewHandler(app.Service)
	app.Health = health.NewService(sqlDB, app.Pool)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		ContractHandler: app.Handler,
		Health:          app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
		"workers":      cfg.WorkerConcurrency,
	})
	return app, nil
}

// Shutdown drains the worker pool, then closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain worker pool: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.ServerOptions(cfg.WorkerConcurrency)))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			closeDB(sqlDB)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
