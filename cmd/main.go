package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/adapters/http/api"
	"github.com/brian-reel/airtable-heroku/internal/adapters/repository"
	service "github.com/brian-reel/airtable-heroku/internal/app"
	"github.com/brian-reel/airtable-heroku/internal/config"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 5 * time.Minute // POST /run waits for the pass
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 2
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 2
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	queries, err := sourceQueries(cfg.EnabledJobs())
	if err != nil {
		log.Error(ctx, "invalid job roster", logger.Error(err))
		return 2
	}
	db, err := repository.Open(ctx, cfg.Source.Driver, cfg.Source.DSN, cfg.Source.MaxOpenConns)
	if err != nil {
		log.Error(ctx, "cannot reach the system of record", logger.Error(err))
		return 1
	}
	defer db.Close()

	jobs, err := buildJobs(cfg, repository.NewSQLStore(db, queries...), log)
	if err != nil {
		log.Error(ctx, "invalid job roster", logger.Error(err))
		return 2
	}

	svc := service.New(
		service.WithJobs(jobs...),
		service.WithReportDir(cfg.ReportDir),
		service.WithWriteDelay(cfg.Ledger.WriteDelay),
		service.WithLogger(log.Named("sync")),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return 2
	}
	defer svc.Stop()

	var srv *http.Server
	if cfg.Addr != "" {
		mux := http.NewServeMux()
		api.NewServer(svc).Register(mux)
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
		defer shutdown(log, srv)
	}

	if cfg.Interval <= 0 {
		_, err := svc.RunAll(ctx)
		if errors.Is(err, service.ErrLoadFailure) {
			log.Error(ctx, "one or more passes failed to load", logger.Error(err))
			return 1
		}
		if err != nil {
			log.Error(ctx, "round finished with errors", logger.Error(err))
			return 1
		}
		return 0
	}

	log.Info(ctx, "scheduling sync rounds", logger.Duration("interval", cfg.Interval))
	if err := svc.Schedule(ctx, cfg.Interval); err != nil {
		log.Error(ctx, "scheduler stopped", logger.Error(err))
		return 1
	}
	log.Info(ctx, "shutting down")
	return 0
}

func shutdown(log logger.Logger, srv *http.Server) {
	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
}
