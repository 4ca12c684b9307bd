package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/ports"
	"github.com/emiliopalmerini/mhouse/internal/shared/middleware"
	"github.com/emiliopalmerini/mhouse/internal/web/templates"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures the HTTP surface.
type Options struct {
	Port            int
	Dashboard       templates.Dashboard
	Metrics         http.Handler // served at /metrics when not nil
	ShutdownTimeout time.Duration
}

type Server struct {
	router    *http.ServeMux
	port      int
	estimator ports.Estimator
	dashboard templates.Dashboard
	metrics   http.Handler
	shutdown  time.Duration
	logger    *zap.Logger
}

func NewServer(estimator ports.Estimator, opts Options, logger *zap.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		router:    http.NewServeMux(),
		port:      opts.Port,
		estimator: estimator,
		dashboard: opts.Dashboard,
		metrics:   opts.Metrics,
		shutdown:  opts.ShutdownTimeout,
		logger:    logger.Named("web"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics)
	}

	// Pages
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /predict", s.handlePredictPage)
	s.router.HandleFunc("POST /predict", s.handlePredict)
	s.router.HandleFunc("GET /dashboard", s.handleDashboard)

	// JSON API
	s.router.HandleFunc("GET /api/schema", s.handleAPISchema)
	s.router.HandleFunc("POST /api/predict", s.handleAPIPredict)
}

// Handler returns the router wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return middleware.HTMX(middleware.RequestLog(s.logger)(s.router))
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", zap.String("url", fmt.Sprintf("http://localhost:%d", s.port)))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
