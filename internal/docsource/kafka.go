package docsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/CurrySoftware/perlin/pkg/config"
	"github.com/segmentio/kafka-go"
)

// DocumentEvent is the JSON payload published per document on the ingest
// topic.
type DocumentEvent struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Kafka consumes document events from an ingest topic and feeds them to
// the builder as a snapshot: consumption ends after maxDocs messages, on
// idle timeout, or when the context is cancelled. Messages are committed
// as they are handed over, so a later build resumes where this one
// stopped.
type Kafka struct {
	reader  *kafka.Reader
	maxDocs int
	idle    time.Duration
	logger  *slog.Logger
	err     error
}

// NewKafka creates a Kafka source for the configured topic.
func NewKafka(cfg config.KafkaConfig, maxDocs int, idle time.Duration) *Kafka {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1e3,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	if idle <= 0 {
		idle = 10 * time.Second
	}
	return &Kafka{
		reader:  r,
		maxDocs: maxDocs,
		idle:    idle,
		logger:  slog.Default().With("component", "kafka-source", "topic", cfg.Topic),
	}
}

func (k *Kafka) Documents(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		consumed := 0
		for k.maxDocs == 0 || consumed < k.maxDocs {
			fetchCtx, cancel := context.WithTimeout(ctx, k.idle)
			msg, err := k.reader.FetchMessage(fetchCtx)
			cancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					k.logger.Info("topic idle, ending document stream", "documents", consumed)
					return
				}
				if ctx.Err() != nil {
					return
				}
				k.err = fmt.Errorf("fetching message: %w", err)
				return
			}
			var event DocumentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				k.logger.Error("skipping undecodable document event",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				k.commit(ctx, msg)
				continue
			}
			body := event.Body
			if event.Title != "" {
				body = event.Title + " " + event.Body
			}
			consumed++
			if !yield(body) {
				return
			}
			k.commit(ctx, msg)
		}
		k.logger.Info("document limit reached", "documents", consumed)
	}
}

func (k *Kafka) commit(ctx context.Context, msg kafka.Message) {
	if err := k.reader.CommitMessages(ctx, msg); err != nil {
		k.logger.Error("failed to commit message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

func (k *Kafka) Err() error { return k.err }

// Close closes the underlying Kafka reader.
func (k *Kafka) Close() error { return k.reader.Close() }
