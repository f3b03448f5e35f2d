package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/leaselens/leaselens/internal/application/pipeline"
	"github.com/leaselens/leaselens/internal/config"
	"github.com/leaselens/leaselens/internal/infrastructure/cache"
	"github.com/leaselens/leaselens/internal/infrastructure/store"
	httpapi "github.com/leaselens/leaselens/internal/interfaces/http"
	"github.com/leaselens/leaselens/internal/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Host the scoring API",
		Long: `Starts the JSON analysis API: POST /analyze for batch scoring,
GET /ws/analyze for streaming results, GET /history/{propertyID} for
persisted snapshots, GET /metrics for Prometheus scraping.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	promRegistry := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promRegistry)

	engine := pipeline.New(cfg.Engine, reg)

	opts := httpapi.Options{
		Engine:   engine,
		Metrics:  reg,
		Gatherer: promRegistry,
	}

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
		if err := client.Ping(cmd.Context()).Err(); err != nil {
			log.Warn().Str("addr", cfg.Cache.Addr).Err(err).Msg("Redis unreachable, caching disabled")
		} else {
			opts.Cache = cache.New(client, cfg.Cache.TTL, reg)
			log.Info().Str("addr", cfg.Cache.Addr).Msg("Result cache enabled")
		}
	}

	if cfg.Storage.Enabled {
		st, err := store.Open(cfg.Storage.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("Postgres unreachable, persistence disabled")
		} else {
			opts.Store = st
			defer st.Close()
			log.Info().Msg("Result store enabled")
		}
	}

	server := httpapi.NewServer(cfg.HTTP, opts)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
