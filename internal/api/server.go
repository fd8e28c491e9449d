// Package api exposes scoring, the assessment lifecycle and stored reports
// over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/draft"
	"github.com/sos2a/assessment/internal/notify"
	"github.com/sos2a/assessment/internal/store"
)

// ReportStore is the persistence the server needs. *store.Store satisfies it.
type ReportStore interface {
	Submit(ctx context.Context, raw *assessment.RawInput, r *analysis.Report) (*store.Record, error)
	GetReport(ctx context.Context, id string) (*store.Record, error)
	ListReports(ctx context.Context, limit, offset int) ([]store.Record, error)
	UpdateReport(ctx context.Context, id string, r *analysis.Report) error
	DeleteReport(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
}

// Deps are the server's collaborators. Drafts, Publisher, Metrics and
// Logger default to in-memory, no-op, fresh and no-op values.
type Deps struct {
	Config    *config.Config
	Reports   ReportStore
	Drafts    draft.Store
	Publisher notify.Publisher
	Metrics   *Metrics
	Logger    *zap.Logger
}

// Server handles HTTP requests.
type Server struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	reports   ReportStore
	drafts    draft.Store
	publisher notify.Publisher
	metrics   *Metrics
	logger    *zap.Logger
	limiter   *clientLimiter

	now   func() time.Time
	newID func() string
}

// New builds a server from deps.
func New(deps Deps) *Server {
	s := &Server{
		cfg:       deps.Config,
		catalog:   catalog.Default(),
		reports:   deps.Reports,
		drafts:    deps.Drafts,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	if s.drafts == nil {
		s.drafts = draft.NewMemoryStore()
	}
	if s.publisher == nil {
		s.publisher = notify.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if rl := s.cfg.Server.RateLimit; rl.Enabled {
		s.limiter = newClientLimiter(rl.RPS, rl.Burst)
	}
	return s
}

// Router wires routes and middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), instrument(s.metrics))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	if s.limiter != nil {
		v1.Use(rateLimit(s.limiter, s.metrics))
	}

	v1.POST("/score", s.score)

	assessments := v1.Group("/assessments")
	assessments.POST("", s.createAssessment)
	assessments.GET("/:id", s.getAssessment)
	assessments.DELETE("/:id", s.deleteAssessment)
	assessments.PUT("/:id/questionnaire", s.saveStage(assessment.StageQuestionnaire))
	assessments.PUT("/:id/matrix", s.saveStage(assessment.StageMatrix))
	assessments.POST("/:id/gap-analysis", s.saveStage(assessment.StageGapAnalysis))
	assessments.POST("/:id/back", s.back)
	assessments.POST("/:id/report", s.generateReport)

	reports := v1.Group("/reports")
	reports.POST("", s.createReport)
	reports.GET("", s.listReports)
	reports.GET("/:id", s.getReport)
	reports.PUT("/:id", s.updateReport)
	reports.DELETE("/:id", s.deleteReport)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	if s.limiter != nil {
		go s.limiter.cleanup(ctx, limiterSweepInterval, limiterIdleTTL, s.logger)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// assess validates raw and scores it with the configured options.
func (s *Server) assess(raw *assessment.RawInput) (*analysis.Report, error) {
	if err := assessment.Validate(raw, s.catalog); err != nil {
		return nil, err
	}
	return s.scoreValidated(raw), nil
}

// scoreValidated runs the engine on input that has already passed validation.
func (s *Server) scoreValidated(raw *assessment.RawInput) *analysis.Report {
	opts := s.cfg.Scoring.Options(raw)
	in := assessment.Normalize(raw, s.catalog)
	return analysis.Assess(in, opts)
}

// persist stores a scored submission and announces it. Publishing failures
// are logged; the report is already durable.
func (s *Server) persist(ctx context.Context, raw *assessment.RawInput, r *analysis.Report) (*store.Record, error) {
	rec, err := s.reports.Submit(ctx, raw, r)
	if err != nil {
		return nil, err
	}
	s.metrics.observeReport(r.OverallScore.Grade, r.ReportType, r.OverallScore.Percentage)

	ev := notify.ReportGenerated(rec.ID, rec.AssessmentID, r, s.now())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("report notification dropped", zap.String("report_id", rec.ID), zap.Error(err))
	}
	return rec, nil
}
