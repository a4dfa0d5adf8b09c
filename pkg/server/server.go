package server

import (
	"context"
	"embed"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/repository"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

//go:embed static/index.html
var staticFS embed.FS

// Promoter generates promotional copy for an article file
type Promoter interface {
	Generate(ctx context.Context, path string) (*model.Promotion, error)
}

// Curator curates news and manages the archive
type Curator interface {
	Curate(ctx context.Context, topic string) (*model.Curation, error)
	Save(ctx context.Context, record *model.Record) (bool, error)
	History(ctx context.Context) ([]*model.Record, error)
}

// Server is the marketing dashboard
type Server struct {
	articlesDir string
	cache       repository.AnalysisCache
	promoter    Promoter
	curator     Curator
	router      chi.Router
}

// New creates the dashboard handler. Articles are listed from articlesDir and
// annotated with patterns from cache.
func New(articlesDir string, cache repository.AnalysisCache, promoter Promoter, curator Curator) *Server {
	s := &Server{
		articlesDir: articlesDir,
		cache:       cache,
		promoter:    promoter,
		curator:     curator,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(noCache)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/articles", s.handleArticles)
		r.Post("/generate", s.handleGenerate)
		r.Post("/curate-news", s.handleCurateNews)
		r.Post("/save-to-archive", s.handleSaveToArchive)
		r.Get("/news-archive", s.handleNewsArchive)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is canceled
func (s *Server) Serve(ctx context.Context, addr string) error {
	return ServeHandler(ctx, addr, s)
}

// ServeHandler serves h on addr and shuts down gracefully when ctx is canceled
func ServeHandler(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", addr))
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("dashboard started", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "dashboard server failed", goerr.V("addr", addr))

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown dashboard")
		}
		logging.From(ctx).Info("dashboard stopped")
		return nil
	}
}

// requestLogger attaches a request scoped logger to the context and logs
// each request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		logger := logging.From(r.Context()).With("request_id", reqID)
		ctx := logging.With(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, max-age=0")
		next.ServeHTTP(w, r)
	})
}
