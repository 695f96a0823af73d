// Package http serves the budget page and forwards its widget events to the
// controller.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budget/internal/cache"
	"budget/internal/controller"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/store"
	appweb "budget/web"
)

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	// AuthPasswordHash enables the password gate when set (bcrypt).
	AuthPasswordHash string
	// Templates overrides the embedded page templates.
	Templates fs.FS
	// Caches are swept for expired entries while the server runs.
	Caches []cache.Cleaner
}

// Server is the budget web server.
type Server struct {
	http.Server

	templates *template.Template
	ctrl      *controller.Controller
	store     store.Store
	logger    *log.Logger

	detector     *security.Detector
	rateLimiter  *ratelimit.Limiter
	tracer       *trace.Middleware
	gate         *security.PasswordGate
	cacheManager *cache.Manager

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	started      time.Time
	events       atomic.Int64
	eventErrors  atomic.Int64
	exports      atomic.Int64
	resets       atomic.Int64
	notices      atomic.Int64
	chartMissing atomic.Int64
}

// NewServer wires the routes and middleware around ctrl. st is only used
// for readiness checks.
func NewServer(opts Options, ctrl *controller.Controller, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		ctrl:         ctrl,
		store:        st,
		logger:       logger,
		detector:     security.NewDetector(logger),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		cacheManager: cache.NewManager(logger.Logger),
	}
	s.metrics.started = time.Now()
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.gate = security.NewPasswordGate(opts.AuthPasswordHash, logger, "/healthz", "/readyz", "/static/")
	if s.gate != nil {
		s.cacheManager.Register(s.gate.Cache())
	}
	for _, c := range opts.Caches {
		s.cacheManager.Register(c)
	}

	templates := opts.Templates
	if templates == nil {
		templates = appweb.TemplatesFS
	}
	t, err := template.New("").Funcs(templateFuncs).ParseFS(templates, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldComponent, log.ComponentTemplate, log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/events", s.handleEvent)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /export/{format}", s.handleExport)
	mux.HandleFunc("GET /chart.png", s.handleChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.Handler = s.chain(mux)
	return s
}

// chain applies the middleware, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = log.Middleware(s.logger, trace.RequestID)(h)
	h = s.gate.Middleware(h)
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path,
	)
	w.Header().Set("Retry-After", ratelimit.RetryAfterSeconds(wait))
	ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, réessayez plus tard.").Write(w)
}

// StartBackground starts the periodic cache sweep. Shutdown stops it.
func (s *Server) StartBackground(interval time.Duration) {
	s.cacheManager.StartCleanup(interval)
}

// ListenAndServe runs the server until Shutdown. http.ErrServerClosed is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", log.FieldOperation, log.OpStartup, "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return shutdownErr
}
