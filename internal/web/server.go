package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vbonduro/stocktake/internal/service"
)

//go:embed static
var staticFS embed.FS

// Options tunes request handling. Zero values fall back to defaults; a zero
// RateLimitRPS disables rate limiting.
type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

const defaultMaxUploadBytes = 50 << 20

type Server struct {
	service   *service.InventoryService
	mux       *http.ServeMux
	handler   http.Handler
	static    fs.FS
	maxUpload int64
	logger    *slog.Logger
}

func NewServer(svc *service.InventoryService, opts Options, logger *slog.Logger) *Server {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	s := &Server{
		service:   svc,
		mux:       http.NewServeMux(),
		static:    static,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUploadBytes
	}
	s.registerRoutes()

	var h http.Handler = s.mux
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		h = rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst), h)
	}
	s.handler = requestID(requestLogger(logger, securityHeaders(h)))
	return s
}

func (s *Server) registerRoutes() {
	// Anything not matched below, including a known path with the wrong
	// method, lands here.
	s.mux.HandleFunc("/", s.handleMethodNotAllowed)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("GET /inventory", s.handleListItems)
	s.mux.HandleFunc("GET /inventory/{id}", s.handleGetItem)
	s.mux.HandleFunc("PUT /inventory/{id}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /inventory/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("GET /inventory/{id}/photo", s.handleGetPhoto)
	s.mux.HandleFunc("PUT /inventory/{id}/photo", s.handleReplacePhoto)
	s.mux.HandleFunc("POST /search", s.handleSearch)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", ln.Addr().String())
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

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, s.static, "index.html")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
}
