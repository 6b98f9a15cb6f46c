// Command perlin-search serves boolean queries over a previously built
// index directory, with optional Redis result caching and Prometheus
// metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/CurrySoftware/perlin/boolean"
	"github.com/CurrySoftware/perlin/internal/querycache"
	"github.com/CurrySoftware/perlin/internal/searchapi"
	"github.com/CurrySoftware/perlin/pkg/config"
	"github.com/CurrySoftware/perlin/pkg/logger"
	"github.com/CurrySoftware/perlin/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index_dir", cfg.Index.Dir)

	ix, err := boolean.Load[string](cfg.Index.Dir, boolean.StringCodec{})
	if err != nil {
		slog.Error("failed to load index", "error", err, "index_dir", cfg.Index.Dir)
		os.Exit(1)
	}
	defer ix.Close()
	slog.Info("index loaded",
		"documents", ix.DocumentCount(),
		"terms", ix.TermCount(),
	)

	var cache *querycache.Cache
	if cfg.Redis.Enabled {
		cache, err = querycache.New(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer cache.Close()
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			shutdownMetrics(sctx)
		}()
	}

	mux := http.NewServeMux()
	searchapi.New(ix, cache, m).Register(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	if cache != nil {
		hits, misses := cache.Stats()
		slog.Info("cache statistics", "hits", hits, "misses", misses)
	}
	slog.Info("search service stopped")
}
