package docsource

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/CurrySoftware/perlin/pkg/config"
	_ "github.com/lib/pq"
)

// Postgres streams document bodies out of a PostgreSQL query. The query
// must return (id, body) rows ordered by id so document ids stay stable
// across rebuilds.
type Postgres struct {
	db     *sql.DB
	query  string
	logger *slog.Logger
	err    error
}

// NewPostgres opens the connection pool and verifies it with a ping.
func NewPostgres(cfg config.PostgresConfig, query string) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{
		db:     db,
		query:  query,
		logger: slog.Default().With("component", "postgres-source"),
	}, nil
}

func (p *Postgres) Documents(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		rows, err := p.db.QueryContext(ctx, p.query)
		if err != nil {
			p.err = fmt.Errorf("querying documents: %w", err)
			return
		}
		defer rows.Close()
		count := 0
		for rows.Next() {
			var id, body string
			if err := rows.Scan(&id, &body); err != nil {
				p.err = fmt.Errorf("scanning document row: %w", err)
				return
			}
			count++
			if !yield(body) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			p.err = fmt.Errorf("iterating document rows: %w", err)
			return
		}
		p.logger.Info("document stream complete", "documents", count)
	}
}

func (p *Postgres) Err() error { return p.err }

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
