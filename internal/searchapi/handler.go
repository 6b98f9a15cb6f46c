// Package searchapi implements the HTTP surface of perlin-search: query
// execution over a loaded index with optional Redis caching and
// Prometheus instrumentation.
package searchapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/CurrySoftware/perlin/boolean"
	"github.com/CurrySoftware/perlin/internal/querycache"
	"github.com/CurrySoftware/perlin/internal/queryparse"
	"github.com/CurrySoftware/perlin/pkg/metrics"
)

// Handler serves /search and /healthz over one immutable index.
type Handler struct {
	index   *boolean.Index[string]
	cache   *querycache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds a Handler. cache and m may be nil; the handler then runs
// uncached and unmetered.
func New(index *boolean.Index[string], cache *querycache.Cache, m *metrics.Metrics) *Handler {
	return &Handler{
		index:   index,
		cache:   cache,
		metrics: m,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// Register installs the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /healthz", h.Health)
}

type searchResponse struct {
	Query     string   `json:"query"`
	TotalHits int      `json:"total_hits"`
	DocIDs    []uint64 `json:"doc_ids"`
	Cached    bool     `json:"cached"`
	TookMs    float64  `json:"took_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Search executes the q parameter against the index.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	start := time.Now()

	compute := func() (*querycache.Result, error) {
		q, err := queryparse.Parse(raw)
		if err != nil {
			return nil, err
		}
		cursor, err := h.index.ExecuteQuery(q)
		if err != nil {
			return nil, err
		}
		docs, err := boolean.CollectAll(cursor)
		if err != nil {
			return nil, err
		}
		ids := make([]uint64, len(docs))
		for i, d := range docs {
			ids[i] = uint64(d)
		}
		return &querycache.Result{Query: raw, TotalHits: len(ids), DocIDs: ids}, nil
	}

	var (
		result *querycache.Result
		cached bool
		err    error
	)
	if h.cache != nil {
		result, cached, err = h.cache.GetOrCompute(r.Context(), raw, compute)
	} else {
		result, err = compute()
	}
	took := time.Since(start)

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, queryparse.ErrEmptyQuery) || errors.Is(err, boolean.ErrMalformedQuery) {
			status = http.StatusBadRequest
		}
		h.observe("error", cached, took, 0)
		h.logger.Error("query failed", "query", raw, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	outcome := "hit"
	if result.TotalHits == 0 {
		outcome = "zero_result"
	}
	h.observe(outcome, cached, took, result.TotalHits)
	h.logger.Debug("query executed",
		"query", raw,
		"hits", result.TotalHits,
		"cached", cached,
		"took", took,
	)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:     result.Query,
		TotalHits: result.TotalHits,
		DocIDs:    result.DocIDs,
		Cached:    cached,
		TookMs:    float64(took.Microseconds()) / 1000,
	})
}

// Health reports liveness plus basic index stats.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "up",
		"documents": h.index.DocumentCount(),
		"terms":     h.index.TermCount(),
	})
}

func (h *Handler) observe(outcome string, cached bool, took time.Duration, hits int) {
	if h.metrics == nil {
		return
	}
	h.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	cacheStatus := "miss"
	if cached {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.QueryLatency.WithLabelValues(cacheStatus).Observe(took.Seconds())
	if outcome != "error" {
		h.metrics.QueryResultsCount.Observe(float64(hits))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
