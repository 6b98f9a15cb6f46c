// Command perlin-index builds a persistent boolean index from a document
// source (file, PostgreSQL, or Kafka) selected in the configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CurrySoftware/perlin/analyzer"
	"github.com/CurrySoftware/perlin/boolean"
	"github.com/CurrySoftware/perlin/internal/docsource"
	"github.com/CurrySoftware/perlin/pkg/config"
	"github.com/CurrySoftware/perlin/pkg/logger"
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
	slog.Info("starting index build",
		"source", cfg.Source.Kind,
		"index_dir", cfg.Index.Dir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, cleanup, err := openSource(cfg)
	if err != nil {
		slog.Error("failed to open document source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	analyze := analyzer.Basic
	if cfg.Index.StopWords {
		analyze = analyzer.WithStopWords
	}

	docCount := 0
	tokenized := func(yield func([]boolean.Token[string]) bool) {
		for body := range source.Documents(ctx) {
			docCount++
			if !yield(analyze(body)) {
				return
			}
		}
	}

	start := time.Now()
	ix, err := boolean.NewBuilder[string](boolean.StringCodec{}).
		Persist(cfg.Index.Dir).
		PageSize(cfg.Index.PageSize).
		CreateTokens(iter.Seq[[]boolean.Token[string]](tokenized))
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	defer ix.Close()
	if err := source.Err(); err != nil {
		// The stream broke mid-build: discard the partial index.
		slog.Error("document source failed during build", "error", err)
		ix.Close()
		os.RemoveAll(cfg.Index.Dir)
		os.Exit(1)
	}

	slog.Info("index build complete",
		"documents", docCount,
		"terms", ix.TermCount(),
		"duration", time.Since(start),
		"index_dir", cfg.Index.Dir,
	)
}

// openSource wires the configured document source.
func openSource(cfg *config.Config) (docsource.Source, func(), error) {
	switch cfg.Source.Kind {
	case "file":
		return docsource.NewFile(cfg.Source.Path), func() {}, nil
	case "postgres":
		src, err := docsource.NewPostgres(cfg.Postgres, cfg.Source.Query)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case "kafka":
		src := docsource.NewKafka(cfg.Kafka, cfg.Source.MaxDocuments, cfg.Source.IdleTimeout)
		return src, func() { src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
