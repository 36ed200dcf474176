// Package http serves the JSON API consumed by the dashboard.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pdptracker/internal/cache"
	"pdptracker/internal/log"
	"pdptracker/internal/middleware/ratelimit"
	"pdptracker/internal/middleware/security"
	"pdptracker/internal/middleware/trace"
	"pdptracker/internal/state"
)

const (
	maxEntryBody   = 1 << 20
	maxAnalyzeBody = 20 << 20
)

// Analyzer answers free-text and screenshot analysis requests.
type Analyzer interface {
	Analyze(ctx context.Context, text, imageDataURI string) (string, error)
}

// Deps are the collaborators the handlers read from and write through.
type Deps struct {
	State *state.Store
	// Analyzer is nil when no assistant provider is configured.
	Analyzer Analyzer
	// AnalyzeCache is reported on /metrics and cleaned periodically when set.
	AnalyzeCache *cache.LRUCache[string]
	// Ping checks the record backend for /readyz.
	Ping func(ctx context.Context) error
}

type Options struct {
	TrustedProxies   []string
	RateLimit        int
	AnalyzeRateLimit int
}

type Server struct {
	*http.Server

	state        *state.Store
	analyzer     Analyzer
	analyzeCache *cache.LRUCache[string]
	ping         func(ctx context.Context) error

	detector       *security.Detector
	trace          *trace.Middleware
	limiter        *ratelimit.Limiter
	analyzeLimiter *ratelimit.Limiter
	caches         *cache.Manager

	logger    *log.Logger
	startTime time.Time
}

func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.State == nil {
		return nil, fmt.Errorf("create server: state store is required")
	}
	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	s := &Server{
		state:        deps.State,
		analyzer:     deps.Analyzer,
		analyzeCache: deps.AnalyzeCache,
		ping:         deps.Ping,
		detector:     detector,
		trace:        trace.NewMiddleware(detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.RateLimit,
			Window:   time.Minute,
		}),
		analyzeLimiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.AnalyzeRateLimit,
			Window:   time.Minute,
		}),
		caches:    cache.NewManager(),
		logger:    log.ForComponent(log.ComponentHTTP),
		startTime: time.Now(),
	}

	if s.analyzeCache != nil {
		s.caches.Register(s.analyzeCache)
	}
	s.caches.StartCleanup(5 * time.Minute)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/roster", s.handleRoster)
	mux.HandleFunc("GET /api/registros", s.handleListEntries)
	mux.HandleFunc("POST /api/registros", s.handleCreateEntry)
	mux.HandleFunc("PUT /api/registros/{id}", s.handleReplaceEntry)
	mux.HandleFunc("DELETE /api/registros/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("PUT /api/state", s.handleSetState)
	mux.HandleFunc("GET /api/historico", s.handleHistorical)

	analyze := s.analyzeLimiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)
	mux.Handle("POST /api/analyze", analyze(http.HandlerFunc(s.handleAnalyze)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)

	// Outermost first: the trace middleware installs the request logger the
	// others log through.
	var h http.Handler = mux
	h = limit(h)
	h = headers.Middleware(h)
	h = s.detector.Middleware(h)
	h = s.trace.Middleware(h)
	return h
}

// Shutdown stops the background cleaners before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping background workers")
	s.limiter.Stop()
	s.analyzeLimiter.Stop()
	s.caches.Stop()
	return s.Server.Shutdown(ctx)
}
