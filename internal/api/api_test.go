package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/notify"
	"github.com/sos2a/assessment/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*store.Record
	order   []string
	err     error
	healthy error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*store.Record)}
}

func (f *fakeStore) Submit(_ context.Context, _ *assessment.RawInput, r *analysis.Report) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	id := fmt.Sprintf("rep-%d", len(f.order)+1)
	rec := &store.Record{
		ID:           id,
		AssessmentID: "asm-" + id,
		Organization: r.Organization.Name,
		ReportType:   r.ReportType,
		Industry:     r.Industry,
		Percentage:   r.OverallScore.Percentage,
		Grade:        r.OverallScore.Grade,
		Report:       r,
	}
	f.records[id] = rec
	f.order = append(f.order, id)
	return rec, nil
}

func (f *fakeStore) GetReport(_ context.Context, id string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) ListReports(_ context.Context, limit, offset int) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Record
	for i, id := range f.order {
		if i < offset || len(out) == limit {
			continue
		}
		if rec, ok := f.records[id]; ok {
			summary := *rec
			summary.Report = nil
			out = append(out, summary)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateReport(_ context.Context, id string, r *analysis.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Report = r
	rec.Percentage = r.OverallScore.Percentage
	rec.Grade = r.OverallScore.Grade
	return nil
}

func (f *fakeStore) DeleteReport(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) HealthCheck(context.Context) error { return f.healthy }

type recordingPublisher struct {
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			ReportType: assessment.ReportPreliminary,
			MinScore:   analysis.NeedsImprovementThreshold,
			Thresholds: analysis.DefaultThresholds(),
		},
	}
}

type harness struct {
	server    *Server
	router    *gin.Engine
	store     *fakeStore
	publisher *recordingPublisher
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	h := &harness{store: newFakeStore(), publisher: &recordingPublisher{}}
	h.server = New(Deps{Config: cfg, Reports: h.store, Publisher: h.publisher})
	ids := 0
	h.server.newID = func() string {
		ids++
		return fmt.Sprintf("draft-%d", ids)
	}
	h.server.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	h.router = h.server.Router()
	return h
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		var buf []byte
		switch b := body.(type) {
		case string:
			buf = []byte(b)
		default:
			var err error
			buf, err = json.Marshal(b)
			require.NoError(t, err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(buf))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// submission answers every control of the default catalog at level.
func submission(level int) assessment.RawInput {
	raw := assessment.RawInput{Organization: assessment.RawOrganization{Name: "Acme"}}
	for _, d := range catalog.Default().Domains {
		da := assessment.DomainAnswer{Domain: d.ID}
		for _, c := range d.Controls {
			lv := level
			da.Controls = append(da.Controls, assessment.ControlAnswer{Control: c.ID, Level: &lv})
		}
		raw.Questionnaire = append(raw.Questionnaire, da)
	}
	return raw
}

func TestScore(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/score", submission(5))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ScoreResponse](t, w)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 100.0, resp.Report.OverallScore.Percentage)
	assert.Equal(t, analysis.GradeGood, resp.Report.OverallScore.Grade)
	assert.Empty(t, resp.Report.PrioritizedRecommendations)
	assert.Empty(t, h.store.order, "scoring must not persist")
}

func TestScoreEmptySubmission(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/score", "{}")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[ScoreResponse](t, w)
	assert.Equal(t, 0.0, resp.Report.OverallScore.Percentage)
	assert.Equal(t, analysis.GradeCritical, resp.Report.OverallScore.Grade)
}

func TestScoreRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, nil)

	raw := submission(3)
	raw.Questionnaire[0].Domain = "quantum_security"
	raw.Organization.ContactEmail = "not-an-email"

	w := h.do(t, http.MethodPost, "/api/v1/score", raw)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error   string                  `json:"error"`
		Details []assessment.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body.Error)

	paths := make([]string, 0, len(body.Details))
	for _, fe := range body.Details {
		paths = append(paths, fe.Path)
	}
	assert.ElementsMatch(t, []string{"organization.contactEmail", "questionnaire[0].domain"}, paths)
}

func TestScoreRejectsMalformedJSON(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodPost, "/api/v1/score", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, w).Error)
}

func TestAssessmentLifecycle(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/assessments", assessment.RawInput{
		Organization: assessment.RawOrganization{Name: "Acme"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[SessionResponse](t, w)
	assert.Equal(t, assessment.StageQuestionnaire, sess.Stage)
	base := "/api/v1/assessments/" + sess.ID

	answers := submission(3)
	w = h.do(t, http.MethodPut, base+"/questionnaire", answers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, assessment.StageQuestionnaire, decode[SessionResponse](t, w).Stage)

	withMatrix := answers
	withMatrix.Matrix = []assessment.MatrixItem{{Component: "laptops"}}
	w = h.do(t, http.MethodPut, base+"/matrix", withMatrix)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, assessment.StageMatrix, decode[SessionResponse](t, w).Stage)

	w = h.do(t, http.MethodPost, base+"/gap-analysis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	gap := decode[SessionResponse](t, w)
	assert.Equal(t, assessment.StageGapAnalysis, gap.Stage)
	require.NotNil(t, gap.Analysis, "gap-analysis returns a preview")
	assert.NotEmpty(t, gap.Analysis.Gaps)

	w = h.do(t, http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	back := decode[SessionResponse](t, w)
	assert.Equal(t, assessment.StageMatrix, back.Stage)
	require.Len(t, back.Data.Matrix, 1)
	assert.Equal(t, "laptops", back.Data.Matrix[0].Component)

	w = h.do(t, http.MethodPost, base+"/gap-analysis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, base+"/report", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[store.Record](t, w)
	assert.Equal(t, "rep-1", rec.ID)
	assert.Equal(t, "Acme", rec.Organization)

	w = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	final := decode[SessionResponse](t, w)
	assert.Equal(t, assessment.StageReport, final.Stage)
	assert.Equal(t, "rep-1", final.ReportID)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "rep-1", h.publisher.events[0].ReportID)

	// The report stage is terminal.
	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, base + "/questionnaire"},
		{http.MethodPost, base + "/back"},
		{http.MethodPost, base + "/report"},
	} {
		w = h.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusConflict, w.Code, tc.path)
	}
}

func TestAssessmentRejectsSkippedStage(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodPost, "/api/v1/assessments", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	base := "/api/v1/assessments/" + decode[SessionResponse](t, w).ID

	w = h.do(t, http.MethodPost, base+"/gap-analysis", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, base+"/report", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, base+"/back", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, h.store.order)
}

func TestAssessmentValidationKeepsStage(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodPost, "/api/v1/assessments", nil)
	base := "/api/v1/assessments/" + decode[SessionResponse](t, w).ID

	bad := submission(2)
	bad.ReportType = "final"
	w = h.do(t, http.MethodPut, base+"/matrix", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, assessment.StageQuestionnaire, decode[SessionResponse](t, w).Stage)
}

func TestAssessmentNotFound(t *testing.T) {
	h := newHarness(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/assessments/missing"},
		{http.MethodDelete, "/api/v1/assessments/missing"},
		{http.MethodPost, "/api/v1/assessments/missing/back"},
		{http.MethodPut, "/api/v1/assessments/missing/matrix"},
	} {
		w := h.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
	}
}

func TestDeleteAssessment(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodPost, "/api/v1/assessments", nil)
	path := "/api/v1/assessments/" + decode[SessionResponse](t, w).ID

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, path, nil).Code)
}

func TestReportsCRUD(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/reports", submission(2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[store.Record](t, w)
	path := "/api/v1/reports/" + created.ID

	w = h.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[store.Record](t, w)
	require.NotNil(t, got.Report)
	assert.Equal(t, created.Percentage, got.Report.OverallScore.Percentage)

	w = h.do(t, http.MethodGet, "/api/v1/reports?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListResponse](t, w)
	assert.Equal(t, 5, list.Limit)
	require.Len(t, list.Reports, 1)
	assert.Nil(t, list.Reports[0].Report)

	w = h.do(t, http.MethodPut, path, submission(5))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[store.Record](t, w)
	assert.Equal(t, 100.0, updated.Percentage)
	assert.Equal(t, analysis.GradeGood, updated.Grade)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPut, path, submission(1)).Code)
}

func TestListReportsRejectsBadPaging(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/reports?limit=ten", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/reports?offset=x", nil).Code)
}

func TestStoreFailureIsExplicit(t *testing.T) {
	h := newHarness(t, nil)
	h.store.err = errors.New("connection refused")

	w := h.do(t, http.MethodPost, "/api/v1/reports", submission(2))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.Equal(t, "internal_error", body.Error)
	assert.Contains(t, body.Message, "connection refused")
	assert.Empty(t, h.publisher.events)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.publisher.err = errors.New("broker down")

	w := h.do(t, http.MethodPost, "/api/v1/reports", submission(2))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, h.store.order, 1)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", nil).Code)

	h.store.healthy = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.5, Burst: 1}
	h := newHarness(t, cfg)

	first := h.do(t, http.MethodPost, "/api/v1/score", "{}")
	assert.Equal(t, http.StatusOK, first.Code)

	second := h.do(t, http.MethodPost, "/api/v1/score", "{}")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "2", second.Header().Get("Retry-After"))

	// Health and metrics stay outside the limiter.
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.do(t, http.MethodPost, "/api/v1/reports", submission(4))

	w := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	for _, want := range []string{
		`sos2a_http_requests_total{method="POST",route="/api/v1/reports",status_code="201"} 1`,
		"sos2a_reports_generated_total",
		"sos2a_overall_score_percentage_bucket",
	} {
		assert.True(t, strings.Contains(out, want), "metrics missing %q", want)
	}
}

func TestClientLimiterEvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(10, 5)
	l.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		l.get(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	require.Len(t, l.limiters, 1000)

	now = now.Add(5 * time.Minute)
	active := l.get("10.0.0.1")
	assert.Equal(t, 1000, l.sweep(10*time.Minute), "nothing is idle yet")

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, l.sweep(10*time.Minute))
	assert.Same(t, active, l.get("10.0.0.1"), "recently used bucket keeps its state")
}

func TestClientLimiterCleanupStopsWithContext(t *testing.T) {
	l := newClientLimiter(10, 5)
	l.get("10.0.0.1")
	l.mu.Lock()
	l.limiters["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.cleanup(ctx, time.Millisecond, time.Minute, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.limiters) == 0
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop after cancel")
	}
}

func TestGapAnalysisPreviewMatchesScore(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPost, "/api/v1/assessments", submission(2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	base := "/api/v1/assessments/" + decode[SessionResponse](t, w).ID

	w = h.do(t, http.MethodPut, base+"/matrix", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(t, http.MethodPost, base+"/gap-analysis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[SessionResponse](t, w).Analysis
	require.NotNil(t, preview)

	w = h.do(t, http.MethodPost, "/api/v1/score", submission(2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	scored := decode[ScoreResponse](t, w).Report

	assert.Equal(t, scored.OverallScore, preview.OverallScore)
	assert.Equal(t, len(scored.Gaps), len(preview.Gaps))
}
