// Package http exposes the ledger and its derived metrics as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vinimacar/EcoFin/internal/cache"
	"github.com/vinimacar/EcoFin/internal/categories"
	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/ledger"
	"github.com/vinimacar/EcoFin/internal/log"
)

// Config tunes the server beyond its dependencies.
type Config struct {
	Addr            string
	MonthlyLimit    core.Money
	MetricsCacheTTL time.Duration
	CacheSize       int
}

type Server struct {
	http.Server
	store       *ledger.Store
	registry    *categories.Registry
	limit       core.Money
	logger      *log.Logger
	rateLimiter *rateLimiter

	// Derived-metrics responses keyed by query shape. A ledger mutation
	// invalidates everything at once via the store subscription.
	summaryCache *cache.LRUCache[core.MetricsSnapshot]
	dailyCache   *cache.LRUCache[[]core.DailyPoint]
	monthlyCache *cache.LRUCache[[]core.MonthlyPoint]

	subscription *ledger.Subscription
	manager      *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(cfg Config, store *ledger.Store, registry *categories.Registry, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	if cfg.CacheSize < 1 {
		cfg.CacheSize = 128
	}
	if cfg.MetricsCacheTTL <= 0 {
		cfg.MetricsCacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		store:        store,
		registry:     registry,
		limit:        cfg.MonthlyLimit,
		logger:       logger.WithComponent(log.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[core.MetricsSnapshot](cfg.CacheSize, cfg.MetricsCacheTTL),
		dailyCache:   cache.NewLRUCache[[]core.DailyPoint](cfg.CacheSize, cfg.MetricsCacheTTL),
		monthlyCache: cache.NewLRUCache[[]core.MonthlyPoint](cfg.CacheSize, cfg.MetricsCacheTTL),
		manager:      cache.NewManager(logger),
	}

	s.manager.Register(s.summaryCache)
	s.manager.Register(s.dailyCache)
	s.manager.Register(s.monthlyCache)
	s.manager.StartCleanup(10 * time.Minute)

	// Any mutation makes every cached aggregate stale.
	s.subscription = store.Subscribe(func([]core.Transaction) {
		s.summaryCache.Clear()
		s.dailyCache.Clear()
		s.monthlyCache.Clear()
	})

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/v1/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/v1/transactions", s.withMiddleware(s.handleClearTransactions))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/v1/breakdown", s.withMiddleware(s.handleBreakdown))
	mux.HandleFunc("GET /api/v1/series/daily", s.withMiddleware(s.handleDailySeries))
	mux.HandleFunc("GET /api/v1/series/monthly", s.withMiddleware(s.handleMonthlySeries))
	mux.HandleFunc("GET /api/v1/budget/status", s.withMiddleware(s.handleBudgetStatus))

	mux.HandleFunc("GET /api/v1/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", s.withMiddleware(s.handleAddCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{type}/{key}", s.withMiddleware(s.handleRemoveCategory))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.subscription != nil {
			s.subscription.Cancel()
		}
		s.manager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Only mutations are rate limited; reads are cheap and cached.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
