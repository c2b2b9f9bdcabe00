package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tripledger/internal/aggregate"
	"tripledger/internal/cache"
	"tripledger/internal/core"
	applog "tripledger/internal/log"
	"tripledger/internal/middleware/ratelimit"
	"tripledger/internal/middleware/security"
	"tripledger/internal/middleware/trace"
	"tripledger/internal/services"
	"tripledger/internal/storage"
)

// LedgerViews is the read and edit surface of the ledger snapshot.
type LedgerViews interface {
	Views() aggregate.Views
	Status() services.Status
	Refresh(ctx context.Context, reason string) (services.Status, error)
	EditTripField(ctx context.Context, key core.TripKey, field core.TripField, value string) (core.Trip, error)
	OnChange(fn func(services.Status))
}

// TransferWorkflow drives allowance transfers.
type TransferWorkflow interface {
	Pending() (services.TransferProposal, bool)
	Propose(source, target core.TripKey) (services.TransferProposal, error)
	Preview(ctx context.Context) (services.TransferProposal, error)
	Commit(ctx context.Context, ids []core.EntryID) (services.TransferResult, error)
	Cancel() error
}

// TransferHistory lists journaled transfer attempts.
type TransferHistory interface {
	ListTransfers(ctx context.Context, limit int) ([]storage.TransferRecord, error)
}

var (
	_ LedgerViews      = (*services.LedgerService)(nil)
	_ TransferWorkflow = (*services.TransferCoordinator)(nil)
	_ TransferHistory  = (*storage.SQLiteRepository)(nil)
)

// Option configures optional server collaborators.
type Option func(*Server)

// WithHistory exposes the transfer journal.
func WithHistory(h TransferHistory) Option {
	return func(s *Server) { s.history = h }
}

// WithRateLimit caps mutating requests per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

// WithTripCache sizes the filtered trip listing cache.
func WithTripCache(size int, ttl time.Duration) Option {
	return func(s *Server) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithLogger sets the logger request-scoped loggers derive from.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type Server struct {
	http.Server
	ledger    LedgerViews
	transfers TransferWorkflow
	history   TransferHistory

	logger    *applog.Logger
	rateLimit int
	cacheSize int
	cacheTTL  time.Duration

	tripCache        *cache.TripListCache
	cacheManager     *cache.Manager
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger LedgerViews, transfers TransferWorkflow, opts ...Option) *Server {
	s := &Server{
		ledger:    ledger,
		transfers: transfers,
		rateLimit: ratelimit.DefaultConfig().RequestsPerMinute,
		cacheSize: 128,
		cacheTTL:  time.Minute,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: slog.Default().Handler()})
	}

	s.tripCache = cache.NewTripListCache(s.cacheSize, s.cacheTTL)
	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.tripCache)
	s.cacheManager.StartCleanup(5 * time.Minute)
	ledger.OnChange(func(services.Status) { s.tripCache.Invalidate() })

	s.securityDetector = security.NewDetector()
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimit})
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/trips", s.handleTrips)
	mux.HandleFunc("GET /api/trips/{plate}/{date}", s.handleTrip)
	mux.HandleFunc("POST /api/trips/field", s.handleEditField)
	mux.HandleFunc("GET /api/summary/revenue", s.handleRevenue)
	mux.HandleFunc("GET /api/drivers", s.handleDrivers)
	mux.HandleFunc("GET /api/fuel-inconsistencies", s.handleFuelInconsistencies)
	mux.HandleFunc("GET /api/excluded", s.handleExcluded)

	mux.HandleFunc("GET /api/transfers/pending", s.handlePendingTransfer)
	mux.HandleFunc("POST /api/transfers", s.handleProposeTransfer)
	mux.HandleFunc("POST /api/transfers/commit", s.handleCommitTransfer)
	mux.HandleFunc("POST /api/transfers/cancel", s.handleCancelTransfer)
	mux.HandleFunc("GET /api/transfers/history", s.handleTransferHistory)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	}, http.MethodPost)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = recoverMiddleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// events returns a structured logger carrying the request's ID.
func events(r *http.Request) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(r.Context()))
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
					applog.FieldPath, r.URL.Path,
					"panic", rec)
				InternalServerError("internal error").Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
