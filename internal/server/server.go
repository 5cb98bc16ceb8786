package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"loanquote/internal/cache"
	"loanquote/internal/engine"
	"loanquote/internal/handler"
	"loanquote/internal/metrics"
	"loanquote/internal/parser"
	"loanquote/internal/repository"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	logger      *zap.Logger
	db          Pinger
	cacheClient *cache.Client
	rateLimit   int
}

// Config holds server configuration.
type Config struct {
	Port      int
	Repo      repository.LenderRepository
	Engine    *engine.Engine
	Parser    *parser.Parser
	Metrics   *metrics.Recorder
	DB        Pinger
	Cache     *cache.Client
	CacheTTL  time.Duration
	RateLimit int
	Logger    *zap.Logger
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		logger:      cfg.Logger,
		db:          cfg.DB,
		cacheClient: cfg.Cache,
		rateLimit:   cfg.RateLimit,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.routes(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes(cfg Config) http.Handler {
	quoteCfg := handler.QuoteHandlerConfig{
		Parser:   cfg.Parser,
		Engine:   cfg.Engine,
		Repo:     cfg.Repo,
		CacheTTL: cfg.CacheTTL,
		Logger:   s.logger,
	}
	if cfg.Cache != nil {
		quoteCfg.Cache = cfg.Cache
	}
	if cfg.Metrics != nil {
		quoteCfg.Recorder = cfg.Metrics
	}

	// Create handlers
	quoteHandler := handler.NewQuoteHandler(quoteCfg)
	lenderHandler := handler.NewLenderHandler(cfg.Repo)

	// Setup chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.zapLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health", s.healthCheck)
	r.Get("/ready", s.readyCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter)
			r.Post("/quotes", quoteHandler.Create)
			r.Post("/parse", quoteHandler.Parse)
		})

		r.Get("/lenders", lenderHandler.List)
		r.Post("/lenders/reload", lenderHandler.Reload)
		r.Get("/lenders/{bank}", lenderHandler.Get)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// healthCheck returns basic health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readyCheck returns readiness status (all configured dependencies available).
func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check PostgreSQL
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"database unavailable"}`))
			return
		}
	}

	// Check Redis
	if s.cacheClient != nil {
		if err := s.cacheClient.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"cache unavailable"}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// rateLimiter limits quote requests per client address when a cache and a
// limit are configured. Cache errors let the request through.
func (s *Server) rateLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cacheClient == nil || s.rateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := s.cacheClient.CheckRateLimit(r.Context(), clientAddr(r), s.rateLimit)
		if err != nil {
			s.logger.Warn("rate limit check failed", zap.Error(err))
		} else if !allowed {
			handler.TooManyRequests(w, "too many quote requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// zapLogger is a middleware that logs requests using zap.
func (s *Server) zapLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
