// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"pet/internal/analytics"
	"pet/internal/cache"
	"pet/internal/core"
	applog "pet/internal/log"
	"pet/internal/metrics"
	"pet/internal/middleware/ratelimit"
	"pet/internal/middleware/security"
	"pet/internal/middleware/trace"
	"pet/internal/services"
	"pet/internal/sheets"
)

const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
	// DefaultWriteLimit is the per-client budget for mutating requests.
	DefaultWriteLimit = 120

	readyTimeout = 2 * time.Second
)

type Server struct {
	http.Server
	svc      *services.ExpenseService
	sheet    sheets.LedgerReader
	logger   *applog.Logger
	requests *applog.StructuredLogger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIPResolver
	now      func() time.Time

	dashboards *cache.LRUCache[analytics.DashboardSummary]
	reports    *cache.LRUCache[analytics.ReportResult]
	categories *cache.LRUCache[[]core.CategoryAmount]

	shutdownOnce sync.Once
}

type options struct {
	logger         *applog.Logger
	metrics        *metrics.Metrics
	sheet          sheets.LedgerReader
	cacheSize      int
	cacheTTL       time.Duration
	writeLimit     int
	trustedProxies []string
	now            func() time.Time
}

type Option func(*options)

func WithLogger(l *applog.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithSheet enables POST /api/import/sheet.
func WithSheet(r sheets.LedgerReader) Option { return func(o *options) { o.sheet = r } }

func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithWriteLimit sets how many mutating requests a client may make per minute.
func WithWriteLimit(perMinute int) Option { return func(o *options) { o.writeLimit = perMinute } }

func WithTrustedProxies(cidrs ...string) Option {
	return func(o *options) { o.trustedProxies = append(o.trustedProxies, cidrs...) }
}

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// NewServer wires routes and middleware around svc. The returned server is
// not listening yet.
func NewServer(addr string, svc *services.ExpenseService, opts ...Option) (*Server, error) {
	o := options{
		cacheSize:  DefaultCacheSize,
		cacheTTL:   DefaultCacheTTL,
		writeLimit: DefaultWriteLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.New(applog.Config{Output: io.Discard})
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}
	resolver, err := security.NewClientIPResolver(o.trustedProxies...)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		svc:        svc,
		sheet:      o.sheet,
		logger:     logger,
		requests:   applog.NewStructuredLogger(logger),
		metrics:    o.metrics,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.writeLimit}),
		clientIP:   resolver,
		now:        o.now,
		dashboards: cache.NewLRUCacheWithClock[analytics.DashboardSummary](o.cacheSize, o.cacheTTL, o.now),
		reports:    cache.NewLRUCacheWithClock[analytics.ReportResult](o.cacheSize, o.cacheTTL, o.now),
		categories: cache.NewLRUCacheWithClock[[]core.CategoryAmount](o.cacheSize, o.cacheTTL, o.now),
	}

	o.metrics.WatchRateLimiter("writes", s.limiter)

	tracer := trace.NewMiddleware(logger, resolver.ExtractClientIP, o.metrics)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(s.routes())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.ledgerChanged()
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/budget/progress", s.handleBudgetProgress)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.Handle("POST /api/expenses", s.limited(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.Handle("PUT /api/expenses/{id}", s.limited(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.limited(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.Handle("PUT /api/budget", s.limited(s.handleSetBudget))

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/backup", s.handleBackup)
	mux.Handle("POST /api/import", s.limited(s.handleImport))
	mux.Handle("POST /api/import/sheet", s.limited(s.handleImportSheet))
	mux.Handle("POST /api/restore", s.limited(s.handleRestore))
	mux.Handle("POST /api/sample", s.limited(s.handleSample))
	mux.Handle("DELETE /api/data", s.limited(s.handleClear))
	return mux
}

// limited applies the per-client write limit.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return s.limiter.Middleware(s.clientIP.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
	})(h)
}

// Caches exposes the view caches so a cache.Manager can prune them.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.dashboards, s.reports, s.categories}
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ledgerChanged refreshes the ledger size gauge. Cached views need no
// invalidation since their keys carry the ledger version.
func (s *Server) ledgerChanged() {
	s.metrics.SetLedgerSize(len(s.svc.List()))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  "storage unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"version": s.svc.Version(),
	})
}
