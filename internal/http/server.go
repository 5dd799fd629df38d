// Package http serves the coach dashboard, its JSON API and the coach
// websocket.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fincoach/internal/core"
	"fincoach/internal/log"
	"fincoach/internal/middleware/ratelimit"
	"fincoach/internal/middleware/security"
	"fincoach/internal/middleware/trace"
	"fincoach/internal/services"
	appweb "fincoach/web"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	SessionTTL         time.Duration
	Defaults           core.UserSettings
	// Ready reports whether the ledger backend is reachable.
	Ready          func(ctx context.Context) error
	TrustedProxies []string
}

type appMetrics struct {
	started time.Time
	advice  int64
	sockets int64
}

type Server struct {
	http.Server
	coach      *services.CoachService
	templates  *template.Template
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	upgrader   websocket.Upgrader
	ready      func(ctx context.Context) error
	defaults   core.UserSettings
	sessionTTL time.Duration
	logger     *log.Logger
	metrics    appMetrics

	closing      chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, coach *services.CoachService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Defaults == (core.UserSettings{}) {
		opts.Defaults = core.DefaultSettings()
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		coach:      coach,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), detector.ExtractClientIP),
		upgrader:   newUpgrader(),
		ready:      opts.Ready,
		defaults:   opts.Defaults,
		sessionTTL: opts.SessionTTL,
		logger:     logger.WithComponent(log.ComponentHTTP),
		metrics:    appMetrics{started: time.Now()},
		closing:    make(chan struct{}),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("POST /api/session", api(s.handleCreateSession))
	mux.Handle("DELETE /api/session", api(s.handleEndSession))
	mux.Handle("GET /api/dashboard", api(s.handleDashboard))
	mux.Handle("POST /api/settings", api(s.handleSettings))
	mux.Handle("POST /api/ask", api(s.handleAsk))
	mux.Handle("POST /api/budget/optimize", api(s.handleOptimizeBudget))
	mux.Handle("GET /api/investment", api(s.handleInvestment))
	mux.HandleFunc("GET /ws/coach", s.handleWebSocket)

	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded", log.FieldPath, r.URL.Path, log.FieldClientIP, detector.ExtractClientIP(r))
		TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
	}, http.MethodPost)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(detector.Middleware(limit(mux))))

	return s
}

// Shutdown stops background routines, closes open coach sockets and shuts
// down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.closing)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
