package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spese/internal/cache"
	"spese/internal/core"
	"spese/internal/ledger"
	"spese/internal/log"
	"spese/internal/middleware/ratelimit"
	"spese/internal/middleware/security"
	"spese/internal/middleware/trace"
)

// LedgerStore is the part of *ledger.Store the HTTP API needs.
type LedgerStore interface {
	IsReady() bool
	Now() time.Time
	Snapshot() (core.Ledger, uint64, error)
	Add(ctx context.Context, d core.Draft) (ledger.Change, error)
	Remove(ctx context.Context, id string) (ledger.Change, error)
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger            *log.Logger
	RateLimit         ratelimit.Config
	ReadHeaderTimeout time.Duration
	CacheTTL          time.Duration
}

type Server struct {
	http.Server
	store   LedgerStore
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	// derived data keyed by ledger revision, so mutations never serve stale entries
	summaryCache *cache.LRUCache[core.Summary]
	exportCache  *cache.LRUCache[[]byte]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store LedgerStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.RateLimit.RequestsPerMinute == 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		store:        store,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		tracer:       trace.NewMiddleware(logger, extractClientIP),
		summaryCache: cache.NewLRUCache[core.Summary](100, opts.CacheTTL),
		exportCache:  cache.NewLRUCache[[]byte](8, opts.CacheTTL),
		caches:       cache.NewManager(logger.WithComponent(log.ComponentHTTP)),
	}
	s.caches.Register(s.summaryCache)
	s.caches.Register(s.exportCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleRemoveTransaction)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/export", s.handleExport)
	mux.Handle("/api/", security.NoStoreMiddleware(api))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(extractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Addr = addr
	s.Handler = handler
	s.ReadHeaderTimeout = opts.ReadHeaderTimeout
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		s.caches.Stop()
		s.limiter.Stop()

		traffic := s.tracer.GetMetrics()
		limits := s.limiter.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server stopped",
			"requests", traffic.TotalRequests,
			"avg_response_us", traffic.AverageResponseTime,
			"rate_limited", limits.TotalHits,
			log.FieldOperation, log.OpShutdown)
	})
	return shutdownErr
}
