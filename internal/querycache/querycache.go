// Package querycache caches executed query results in Redis, keyed by a
// normalised fingerprint of the query string. Concurrent identical
// queries collapse onto one execution via singleflight. The cache is a
// pure accelerator: every failure path falls through to local execution.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/CurrySoftware/perlin/pkg/config"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "perlin:query:"

// Result is the cached shape of one executed query.
type Result struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	DocIDs    []uint64 `json:"doc_ids"`
}

// Cache is a Redis-backed query-result cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New connects to Redis and verifies the connection.
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &Cache{
		client: client,
		ttl:    cfg.CacheTTL,
		logger: slog.Default().With("component", "query-cache"),
	}, nil
}

// Get returns the cached result for the query, if present.
func (c *Cache) Get(ctx context.Context, query string) (*Result, bool) {
	key := c.buildKey(query)
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

// Set stores the result under the query's fingerprint with the
// configured TTL.
func (c *Cache) Set(ctx context.Context, query string, result *Result) {
	key := c.buildKey(query)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs computeFn exactly once
// for concurrent callers asking the same query. The boolean reports
// whether the result came from the cache.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	query string,
	computeFn func() (*Result, error),
) (*Result, bool, error) {
	if result, ok := c.Get(ctx, query); ok {
		return result, true, nil
	}
	key := c.buildKey(query)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, query); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Result), false, nil
}

// Stats reports hit and miss counts since startup.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) buildKey(query string) string {
	hash := sha256.Sum256([]byte(NormalizeQuery(query)))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// NormalizeQuery canonicalises a query string so that queries differing
// only in term order or case share a cache slot. The connective and the
// exclusion set are part of the fingerprint.
func NormalizeQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	excludes := make([]string, 0)
	connective := "AND"
	excludeNext := false
	inPhrase := false
	var phrase []string
	for _, w := range words {
		if inPhrase {
			done := strings.HasSuffix(w, `"`)
			phrase = append(phrase, strings.Trim(w, `"`))
			if done {
				if excludeNext {
					excludes = append(excludes, strings.Join(phrase, " "))
					excludeNext = false
				} else {
					terms = append(terms, strings.Join(phrase, " "))
				}
				phrase, inPhrase = nil, false
			}
			continue
		}
		switch strings.ToUpper(w) {
		case "AND":
			connective = "AND"
			continue
		case "OR":
			connective = "OR"
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		if strings.HasPrefix(w, `"`) && !strings.HasSuffix(strings.TrimPrefix(w, `"`), `"`) {
			inPhrase = true
			phrase = append(phrase, strings.Trim(w, `"`))
			continue
		}
		w = strings.Trim(w, `"`)
		if excludeNext {
			excludes = append(excludes, w)
			excludeNext = false
		} else {
			terms = append(terms, w)
		}
	}
	if len(phrase) > 0 {
		if excludeNext {
			excludes = append(excludes, strings.Join(phrase, " "))
		} else {
			terms = append(terms, strings.Join(phrase, " "))
		}
	}
	// Phrases keep their order internally; top-level operands are
	// order-insensitive under AND/OR.
	sort.Strings(terms)
	sort.Strings(excludes)
	parts := []string{connective, strings.Join(terms, ",")}
	if len(excludes) > 0 {
		parts = append(parts, "NOT:"+strings.Join(excludes, ","))
	}
	return strings.Join(parts, "|")
}
