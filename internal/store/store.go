// Package store persists submitted assessments and their reports in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/config"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Record is a stored report with its listing metadata. Report is nil in
// ListReports results.
type Record struct {
	ID           string           `json:"id"`
	AssessmentID string           `json:"assessmentId,omitempty"`
	Organization string           `json:"organization"`
	ReportType   string           `json:"reportType"`
	Industry     string           `json:"industry"`
	Percentage   float64          `json:"percentage"`
	Grade        string           `json:"grade"`
	Report       *analysis.Report `json:"report,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type reportRow struct {
	ID           string         `db:"id"`
	AssessmentID sql.NullString `db:"assessment_id"`
	Organization string         `db:"organization"`
	ReportType   string         `db:"report_type"`
	Industry     string         `db:"industry"`
	Percentage   float64        `db:"percentage"`
	Grade        string         `db:"grade"`
	Report       []byte         `db:"report"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r reportRow) record() (*Record, error) {
	rec := &Record{
		ID:           r.ID,
		AssessmentID: r.AssessmentID.String,
		Organization: r.Organization,
		ReportType:   r.ReportType,
		Industry:     r.Industry,
		Percentage:   r.Percentage,
		Grade:        r.Grade,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Report) > 0 {
		rec.Report = &analysis.Report{}
		if err := json.Unmarshal(r.Report, rec.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", r.ID, err)
		}
	}
	return rec, nil
}

// Store is the PostgreSQL-backed report repository.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() string
}

// New wraps an open connection.
func New(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Open connects to PostgreSQL, configures the pool and verifies the
// connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, logger), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck runs a trivial query with a short deadline.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	if err := s.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// SaveAssessment stores the raw submission and returns its ID.
func (s *Store) SaveAssessment(ctx context.Context, raw *assessment.RawInput) (string, error) {
	id := s.newID()
	if err := s.insertAssessment(ctx, s.db, id, raw); err != nil {
		return "", err
	}
	return id, nil
}

// CreateReport stores r, linked to assessmentID when it is non-empty.
func (s *Store) CreateReport(ctx context.Context, assessmentID string, r *analysis.Report) (*Record, error) {
	return s.insertReport(ctx, s.db, assessmentID, r)
}

// Submit stores the raw submission and its report in one transaction,
// retrying on serialization failures and deadlocks.
func (s *Store) Submit(ctx context.Context, raw *assessment.RawInput, r *analysis.Report) (*Record, error) {
	var rec *Record
	err := s.transactionWithRetry(ctx, maxTxRetries, func(tx *sqlx.Tx) error {
		id := s.newID()
		if err := s.insertAssessment(ctx, tx, id, raw); err != nil {
			return err
		}
		var err error
		rec, err = s.insertReport(ctx, tx, id, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("assessment submitted",
		zap.String("report_id", rec.ID),
		zap.String("assessment_id", rec.AssessmentID),
		zap.String("grade", rec.Grade),
		zap.Float64("percentage", rec.Percentage),
	)
	return rec, nil
}

// GetReport loads one report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, assessment_id, organization, report_type, industry,
			percentage, grade, report, created_at, updated_at
		FROM reports
		WHERE id = $1`

	var row reportRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return row.record()
}

// ListReports returns report summaries, newest first.
func (s *Store) ListReports(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, assessment_id, organization, report_type, industry,
			percentage, grade, created_at, updated_at
		FROM reports
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// UpdateReport replaces the stored report body and its summary columns.
func (s *Store) UpdateReport(ctx context.Context, id string, r *analysis.Report) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		UPDATE reports
		SET organization = $2, report_type = $3, industry = $4,
			percentage = $5, grade = $6, report = $7, updated_at = $8
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id,
		r.Organization.Name, r.ReportType, r.Industry,
		r.OverallScore.Percentage, r.OverallScore.Grade, body, s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	return expectOne(res, id)
}

// DeleteReport removes a report. The originating assessment is kept.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	return expectOne(res, id)
}

// List bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const maxTxRetries = 3

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) insertAssessment(ctx context.Context, db sqlx.ExecerContext, id string, raw *assessment.RawInput) error {
	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	reportType := raw.ReportType
	if reportType == "" {
		reportType = assessment.ReportPreliminary
	}

	query := `
		INSERT INTO assessments (id, organization, industry, report_type, raw, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := db.ExecContext(ctx, query, id,
		raw.Organization.Name, raw.Organization.Industry, reportType, body, s.now(),
	); err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

func (s *Store) insertReport(ctx context.Context, db sqlx.ExecerContext, assessmentID string, r *analysis.Report) (*Record, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	now := s.now()
	rec := &Record{
		ID:           s.newID(),
		AssessmentID: assessmentID,
		Organization: r.Organization.Name,
		ReportType:   r.ReportType,
		Industry:     r.Industry,
		Percentage:   r.OverallScore.Percentage,
		Grade:        r.OverallScore.Grade,
		Report:       r,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO reports (
			id, assessment_id, organization, report_type, industry,
			percentage, grade, report, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := db.ExecContext(ctx, query,
		rec.ID, nullString(assessmentID), rec.Organization, rec.ReportType, rec.Industry,
		rec.Percentage, rec.Grade, body, rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) transactionWithRetry(ctx context.Context, maxRetries int, fn func(*sqlx.Tx) error) error {
	var err error
	for i := 0; i <= maxRetries; i++ {
		err = s.transaction(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		if i == maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(i)) * 100 * time.Millisecond
		s.logger.Warn("retrying transaction", zap.Int("attempt", i+1), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("transaction failed after %d retries: %w", maxRetries, err)
}

// isRetryable reports serialization failures, deadlocks and connection
// exhaustion.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01", "53300":
		return true
	}
	return false
}
