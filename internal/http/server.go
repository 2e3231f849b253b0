// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/events"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/store"
)

var insightCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "saldo_insight_cache_requests_total",
	Help: "Insight cache lookups by result.",
}, []string{"result"})

type cacheMetrics struct{}

func (cacheMetrics) Hit()  { insightCacheTotal.WithLabelValues("hit").Inc() }
func (cacheMetrics) Miss() { insightCacheTotal.WithLabelValues("miss").Inc() }

// Ledger is what the API needs from the service layer.
type Ledger interface {
	store.Store
	Ready(ctx context.Context) error
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	// Registry resolves category labels; core.DefaultRegistry when nil.
	Registry *core.Registry
	// Bus must be the bus the ledger announces mutations on; cached insights
	// are purged from it.
	Bus    *events.Bus
	Logger *log.Logger
}

type Server struct {
	http.Server
	ledger   Ledger
	registry *core.Registry
	logger   *log.Logger
	started  time.Time
	now      func() time.Time

	insights    *cache.LRUCache[[]byte]
	caches      *cache.Manager
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	unsubscribe []func()
	generation  atomic.Uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger Ledger) *Server {
	if cfg.Registry == nil {
		cfg.Registry = core.DefaultRegistry
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		ledger:   ledger,
		registry: cfg.Registry,
		logger:   cfg.Logger.WithComponent(log.ComponentHTTP),
		started:  time.Now(),
		now:      time.Now,
		insights: cache.NewLRUCache[[]byte](cfg.CacheSize, cfg.CacheTTL).Observe(cacheMetrics{}),
		caches:   cache.NewManager(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	s.caches.Register(s.insights)
	s.caches.StartCleanup(10 * time.Minute)

	purge := func(ctx context.Context, ev events.Event) {
		s.generation.Add(1)
		s.insights.Purge()
		s.logger.DebugContext(ctx, "Insight cache purged", "topic", ev.Topic, "action", ev.Action)
	}
	s.unsubscribe = append(s.unsubscribe,
		cfg.Bus.Subscribe(events.TransactionsChanged, purge),
		cfg.Bus.Subscribe(events.AccountsChanged, purge),
	)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(cfg.Logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	}))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	// summary is registered before {id} so it is never taken for an id
	api.HandleFunc("/accounts/summary", s.handleAccountsSummary).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)

	insights := api.PathPrefix("/insights").Subrouter()
	insights.HandleFunc("/days", s.cachedInsight(s.insightDays)).Methods(http.MethodGet)
	insights.HandleFunc("/months", s.cachedInsight(s.insightMonths)).Methods(http.MethodGet)
	insights.HandleFunc("/summary", s.cachedInsight(s.insightSummary)).Methods(http.MethodGet)
	insights.HandleFunc("/categories", s.cachedInsight(s.insightCategories)).Methods(http.MethodGet)
	insights.HandleFunc("/calendar", s.cachedInsight(s.insightCalendar)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Shutdown stops background work and drains the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		for _, unsub := range s.unsubscribe {
			unsub()
		}
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
