package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/shelfsnap/internal/application"
	appscans "github.com/bryanwahyu/shelfsnap/internal/application/scans"
	"github.com/bryanwahyu/shelfsnap/internal/config"
	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
	"github.com/bryanwahyu/shelfsnap/internal/infra/db/memory"
	"github.com/bryanwahyu/shelfsnap/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/shelfsnap/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/shelfsnap/internal/infra/db/postgres"
	"github.com/bryanwahyu/shelfsnap/internal/infra/events"
	"github.com/bryanwahyu/shelfsnap/internal/infra/executor/ffmpeg"
	"github.com/bryanwahyu/shelfsnap/internal/infra/httpserver"
	"github.com/bryanwahyu/shelfsnap/internal/infra/storage"
	"github.com/bryanwahyu/shelfsnap/internal/infra/tracing"
	"github.com/bryanwahyu/shelfsnap/internal/logger"
	"github.com/bryanwahyu/shelfsnap/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	readiness := map[string]middleware.HealthChecker{}

	// tracing (opsional)
	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(sctx); err != nil {
				log.Warn("tracer shutdown error", zap.Error(err))
			}
		}()
		log.Info("tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	// init storage
	store, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	readiness["storage"] = store
	log.Info("storage ready", zap.String("backend", cfg.Storage.Backend))

	// init repo
	repo, db, err := newRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if db != nil {
		defer db.Close()
		readiness["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	log.Info("scan history ready", zap.String("driver", cfg.Database.Driver))

	// init service
	svc := &appscans.Service{
		Store:     store,
		Extractor: ffmpeg.NewExtractor(cfg.FFmpeg.Binary, cfg.FFmpeg.Timeout, log),
		Repo:      repo,
		Clock:     application.SystemClock{},
		Logger:    log,
		FPS:       cfg.FFmpeg.FPS,
	}

	// event publisher (opsional)
	if cfg.Events.AMQPURL != "" {
		pub, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return fmt.Errorf("events init: %w", err)
		}
		defer pub.Close()
		svc.Events = pub
		log.Info("publishing scan events", zap.String("exchange", cfg.Events.Exchange))
	}

	if !svc.ToolAvailable(ctx) {
		log.Warn("ffmpeg not found, completions will report zero frames", zap.String("binary", cfg.FFmpeg.Binary))
	}

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		APIKeys:          cfg.Auth.APIKeys,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateCapacity:     cfg.RateLimit.Capacity,
		RateRefill:       cfg.RateLimit.RefillRate,
		Readiness:        readiness,
		Logger:           log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx2)
}

type checkedStore interface {
	domain.VideoStore
	middleware.HealthChecker
}

func newStore(ctx context.Context, cfg *config.Config) (checkedStore, error) {
	if cfg.Storage.Backend == "minio" {
		m := cfg.Storage.Minio
		return storage.NewMinio(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL, cfg.Storage.TmpDir)
	}
	return storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.TmpDir)
}

// newRepository returns the scan history repo, plus the pool when one was opened.
func newRepository(ctx context.Context, cfg *config.Config) (domain.Repository, *sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
	case "postgres":
		db, err = pgp.Connect(ctx, cfg.PostgresDSN())
	default:
		return memory.NewScanRepository(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.Migrate {
		if err := migrations.Up(ctx, db, cfg.Database.Driver); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	if cfg.Database.Driver == "mysql" {
		return mysqlp.NewScanRepository(db), db, nil
	}
	return pgp.NewScanRepository(db), db, nil
}
