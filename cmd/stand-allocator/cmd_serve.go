package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sllynn/airport-stand-allocation/httpapp"
	"github.com/sllynn/airport-stand-allocation/internal/application/service"
	"github.com/sllynn/airport-stand-allocation/internal/config"
	"github.com/sllynn/airport-stand-allocation/internal/domain/ports"
	pgrepo "github.com/sllynn/airport-stand-allocation/internal/infrastructures/db/postgres/repo"
	cacheredis "github.com/sllynn/airport-stand-allocation/internal/infrastructures/db/redis"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/metrics"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/solver/sat"
	"github.com/sllynn/airport-stand-allocation/internal/infrastructures/tracing"
	httpapi "github.com/sllynn/airport-stand-allocation/internal/transport/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the allocation HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return err
	}
	log := setupLogger(cfg.Log.Level)
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Jaeger != "" {
		tp, err := tracing.InitTracer("stand-allocator", cfg.Env, cfg.Jaeger)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	var (
		snapshots ports.SnapshotRepository
		results   ports.ResultRepository
		cache     ports.ResultCache
	)

	if cfg.DB.Enabled() {
		repo, err := pgrepo.New(ctx, cfg.DB.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer repo.Close()
		snapshots, results = repo, repo
	} else {
		log.Warn("postgres is not configured, snapshot storage and run history are disabled")
	}

	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis client", zap.Error(err))
			}
		}()
		cache = cacheredis.NewResultCache(redisClient)
	}

	m := metrics.New()
	allocationService := service.NewAllocationService(
		log,
		sat.NewFactory(cfg.Solver.PollInterval),
		snapshots,
		results,
		cache,
		m,
		cfg.Solver.TimeLimit,
		cfg.SolutionCacheTTL,
	)

	app := httpapp.New(log, httpapp.Options{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Middlewares:  []func(http.Handler) http.Handler{m.Middleware},
		Metrics:      m.Handler(),
	}, func(r chi.Router) {
		httpapi.Register(r, log, allocationService, cfg.HTTP.MaxBodyBytes)
	})

	log.Info("stand-allocator starting",
		zap.String("env", cfg.Env),
		zap.String("http_addr", cfg.HTTP.Address()),
		zap.Duration("solver_time_limit", cfg.Solver.TimeLimit),
		zap.Bool("postgres", cfg.DB.Enabled()),
		zap.Bool("redis", cfg.Redis.Enabled()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		app.Stop(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
			return err
		}
	}

	return nil
}
