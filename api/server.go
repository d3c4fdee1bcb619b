// Package api provides the HTTP read API for stonksfeed.
//
// It exposes the stored articles, newest first, behind a short-lived
// response cache so feed readers can poll without hammering the store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/stonksfeed/internal/config"
	"github.com/seenimoa/stonksfeed/internal/infra"
	"github.com/seenimoa/stonksfeed/internal/store"
	"github.com/seenimoa/stonksfeed/pkg/models"
)

const (
	defaultArticleLimit = 100
	maxArticleLimit     = 500
	responseCacheTTL    = 5 * time.Minute
)

// ArticleLister is the read surface the server needs from the store.
type ArticleLister interface {
	List(ctx context.Context, limit int) ([]models.Article, error)
	Count(ctx context.Context) (int, error)
}

var _ ArticleLister = (*store.Store)(nil)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	lister ArticleLister
	cache  *infra.Cache
	logger *slog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, lister ArticleLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		cfg:    cfg,
		lister: lister,
		cache:  infra.NewCache(responseCacheTTL),
		logger: logger,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/articles", s.handleArticles)
	})

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ArticlesPayload is the data body for GET /api/v1/articles.
type ArticlesPayload struct {
	Count    int              `json:"count"`
	Articles []models.Article `json:"articles"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.lister.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"articles": n,
		},
	})
}

// handleArticles serves GET /api/v1/articles?limit=N.
// The limit defaults to 100 and is capped at 500; responses are cached
// for five minutes per limit value, and the cache window is advertised
// to clients via Cache-Control.
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	limit := defaultArticleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxArticleLimit {
		limit = maxArticleLimit
	}

	cacheKey := fmt.Sprintf("articles:%d", limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.writeCached(w, cached.(*ArticlesPayload))
		return
	}

	articles, err := s.lister.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list articles failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	payload := &ArticlesPayload{Count: len(articles), Articles: articles}
	s.cache.Set(cacheKey, payload)
	s.writeCached(w, payload)
}

func (s *Server) writeCached(w http.ResponseWriter, payload *ArticlesPayload) {
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d", int(responseCacheTTL.Seconds())))
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: payload})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
