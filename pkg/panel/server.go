// Package panel serves the admin panel over HTTP.
//
// The server exposes the per-endpoint hooks as JSON, accepts tracking
// events and images for compression, and renders a few static pages. Every
// data route reads through the shared stale-while-revalidate store, so
// several browser tabs polling the panel cost one upstream request per key.
package panel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/adminpanel/pkg/compress"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/track"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	maxUploadSize          = 32 << 20
)

// Options configures a Server.
type Options struct {
	Hooks    *hooks.Hooks
	Tracker  *track.Tracker
	Theme    Theme
	BaseURL  string
	Compress *compress.Options
	Logger   *log.Logger

	// ShutdownTimeout bounds graceful shutdown; zero uses 10s.
	ShutdownTimeout time.Duration
}

// Server is the panel's HTTP front end.
type Server struct {
	hooks    *hooks.Hooks
	tracker  *track.Tracker
	theme    Theme
	baseURL  string
	compress *compress.Options
	logger   *log.Logger
	shutdown time.Duration
	router   chi.Router
}

// NewServer creates a Server and builds its routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	theme := opts.Theme
	if theme.Name == "" {
		theme = ThemeLight
	}
	shutdown := opts.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = defaultShutdownTimeout
	}
	s := &Server{
		hooks:    opts.Hooks,
		tracker:  opts.Tracker,
		theme:    theme,
		baseURL:  opts.BaseURL,
		compress: opts.Compress,
		logger:   logger,
		shutdown: shutdown,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(WithTheme(s.theme))

	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.PageHandler(PageHome))
	r.Get("/about", s.PageHandler(PageAbout))
	r.Get("/offline", s.PageHandler(PageOffline))

	r.Route("/panel", func(r chi.Router) {
		r.Get("/stats", s.handleContentStats)
		r.Get("/display-cards", s.handleDisplayCards)
		r.Get("/pwa/stats", s.handlePWAStats)
		r.Post("/pwa/broadcast", s.handleBroadcast)
		r.Get("/media", s.handleMedia)
		r.Post("/track", s.handleTrack)
		r.Post("/compress", s.handleCompress)
	})
	return r
}

// requestLogger logs one line per request at debug level, and at warn level
// for server errors.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and waits for outstanding tracking posts.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("panel listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down panel")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if s.tracker != nil {
		s.tracker.Wait()
	}
	if s.hooks != nil {
		s.hooks.Store().Wait()
	}
	return err
}
