// Package api exposes the tax and credit engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"tax-credit-engine/internal/handlers"
	"tax-credit-engine/internal/models"
	"tax-credit-engine/internal/services/tax"
	"tax-credit-engine/internal/utils"
)

// Comparer computes (possibly cached) regime comparisons.
type Comparer interface {
	Compare(ctx context.Context, grossIncome float64, deductions models.DeductionBreakdown) (models.RegimeComparison, error)
}

// AssessmentReader lists stored assessments.
type AssessmentReader interface {
	GetByBatch(ctx context.Context, batchID string) ([]*models.Assessment, error)
}

// ScoreStore persists credit score snapshots.
type ScoreStore interface {
	Insert(ctx context.Context, s *models.ScoreSnapshot) error
	ListByUser(ctx context.Context, userRef string, limit int) ([]*models.ScoreSnapshot, error)
}

// Deps are the services behind the routes. A nil Engine means the default
// rules and a nil Comparer means uncached comparisons; routes whose other
// dependency is nil answer 503.
type Deps struct {
	Engine      *tax.Engine
	Comparer    Comparer
	Assessments AssessmentReader
	Scores      ScoreStore
	Assessor    handlers.BatchAssessor
	DB          handlers.Pinger
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	deps    Deps
	health  *handlers.HealthHandler
	metrics *Metrics
}

// New creates a new HTTP server listening on addr.
func New(addr string, deps Deps) *Server {
	if deps.Engine == nil {
		deps.Engine = tax.Default()
	}

	s := &Server{
		router:  chi.NewRouter(),
		deps:    deps,
		health:  handlers.NewHealthHandler(deps.DB),
		metrics: NewMetrics(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(s.metrics.middleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}).Handler)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/tax", func(r chi.Router) {
			r.Post("/calculate", s.handleCalculate)
			r.Post("/compare", s.handleCompare)
			r.Post("/deductions", s.handleDeductions)
			r.Post("/plan", s.handlePlan)
			r.Get("/slabs/{regime}", s.handleSlabs)
		})

		r.Route("/credit", func(r chi.Router) {
			r.Post("/score", s.handleScore)
			r.Post("/score/profile", s.handleScoreProfile)
			r.Post("/simulate", s.handleSimulate)
			r.Get("/history/{userRef}", s.handleScoreHistory)
		})

		r.Route("/assessments", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Get("/{batchID}", s.handleGetAssessments)
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	utils.GetLogger().Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	utils.GetLogger().Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		utils.GetLogger().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
