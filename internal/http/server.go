// Package http serves the dashboards as a JSON API with CSV and XLSX
// downloads.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shopledger/internal/core"
	"shopledger/internal/loader"
	applog "shopledger/internal/log"
	"shopledger/internal/middleware/ratelimit"
	"shopledger/internal/middleware/security"
	"shopledger/internal/middleware/trace"
	"shopledger/internal/report"
)

// DataSource is what the handlers read. *loader.Loader implements it.
type DataSource interface {
	ShopBalances(ctx context.Context) ([]core.Row, error)
	Ledger(ctx context.Context, shop string) (report.Ledger, error)
	TransactionsForDate(ctx context.Context, date string) (loader.TransactionSet, error)
}

var _ DataSource = (*loader.Loader)(nil)

// Options configure a Server.
type Options struct {
	Addr           string
	PageSize       int
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *applog.Logger
	// Status adds entries to GET /api/status, e.g. cache and refresh state.
	Status func() map[string]any
}

// Server is the HTTP front end.
type Server struct {
	http.Server
	data     DataSource
	logger   *applog.Logger
	pageSize int
	status   func() map[string]any

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// New configures routes and middleware, returning a ready-to-run server.
func New(data DataSource, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = report.DefaultPageSize
	}
	s := &Server{
		data:     data,
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		pageSize: opts.PageSize,
		status:   opts.Status,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
		detector: security.NewDetector(),
		tracer:   trace.NewMiddleware(),
	}
	s.limiter.Start()

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.Logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *applog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(s.trustedRealIP)
	r.Use(s.tracer.Handler)
	r.Use(applog.Middleware(logger, trace.FromRequest, s.detector.ExtractClientIP))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

		r.Get("/status", s.handleStatus)

		r.Get("/balances", s.handleBalances)
		r.Get("/balances/export", s.handleBalancesExport)

		r.Get("/ledger", s.handleLedger)
		r.Get("/ledger/export", s.handleLedgerExport)

		r.Get("/transactions", s.handleTransactions)
		r.Get("/transactions/export", s.handleTransactionsExport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// trustedRealIP applies chi's RealIP only to requests relayed by a trusted
// proxy, so clients cannot pick their own rate-limit bucket.
func (s *Server) trustedRealIP(next http.Handler) http.Handler {
	withRealIP := middleware.RealIP(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if s.detector.IsTrusted(host) {
			withRealIP.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops accepting requests, drains in-flight ones and stops the
// rate limiter's eviction loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
