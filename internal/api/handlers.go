package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/draft"
	"github.com/sos2a/assessment/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SessionResponse describes a draft and its working data.
type SessionResponse struct {
	ID        string              `json:"id"`
	Stage     assessment.Stage    `json:"stage"`
	Data      assessment.RawInput `json:"data"`
	ReportID  string              `json:"reportId,omitempty"`
	Analysis  *analysis.Report    `json:"analysis,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func sessionResponse(s *assessment.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Stage:     s.Stage,
		Data:      s.Current(),
		ReportID:  s.ReportID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ScoreResponse is returned by the stateless scoring endpoint.
type ScoreResponse struct {
	Report *analysis.Report `json:"report"`
}

// ListResponse pages stored report summaries.
type ListResponse struct {
	Reports []store.Record `json:"reports"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// fail maps an error onto a status code and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	var verr *assessment.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: "Assessment data failed validation",
			Details: verr.Fields,
		})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, draft.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, assessment.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_transition",
			Message: err.Error(),
		})
	default:
		_ = c.Error(err)
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request format",
		Details: err.Error(),
	})
}

func (s *Server) health(c *gin.Context) {
	if err := s.reports.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// score assesses a complete submission without storing anything.
func (s *Server) score(c *gin.Context) {
	var raw assessment.RawInput
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := s.assess(&raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ScoreResponse{Report: rep})
}

func (s *Server) createAssessment(c *gin.Context) {
	var raw assessment.RawInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&raw); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := assessment.Validate(&raw, s.catalog); err != nil {
		s.fail(c, err)
		return
	}

	sess := assessment.NewSession(s.newID(), s.now())
	if err := sess.Save(raw, s.now()); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.drafts.Put(c.Request.Context(), sess); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (s *Server) getAssessment(c *gin.Context) {
	sess, err := s.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (s *Server) deleteAssessment(c *gin.Context) {
	if err := s.drafts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// saveStage stores data for stage. Posting to the current stage saves in
// place; posting to the next stage saves and advances. An empty body carries
// the working data forward. Reaching gap-analysis returns a preview report.
func (s *Server) saveStage(stage assessment.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := s.drafts.Get(ctx, c.Param("id"))
		if err != nil {
			s.fail(c, err)
			return
		}

		raw := sess.Current()
		if c.Request.ContentLength != 0 {
			raw = assessment.RawInput{}
			if err := c.ShouldBindJSON(&raw); err != nil {
				badRequest(c, err)
				return
			}
		}
		if err := assessment.Validate(&raw, s.catalog); err != nil {
			s.fail(c, err)
			return
		}

		if sess.Stage == stage {
			err = sess.Save(raw, s.now())
		} else {
			err = sess.Advance(stage, raw, s.now())
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		if err := s.drafts.Put(ctx, sess); err != nil {
			s.fail(c, err)
			return
		}

		resp := sessionResponse(sess)
		if stage == assessment.StageGapAnalysis {
			resp.Analysis = s.scoreValidated(&raw)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) back(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := s.drafts.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if _, err := sess.Back(s.now()); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.drafts.Put(ctx, sess); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

// generateReport finalises a draft at gap-analysis: the report is scored,
// stored and attached, and the draft becomes terminal.
func (s *Server) generateReport(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := s.drafts.Get(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if sess.Stage.Next() != assessment.StageReport {
		s.fail(c, fmt.Errorf("%w: report requires the %s stage, draft is at %s",
			assessment.ErrInvalidTransition, assessment.StageGapAnalysis, sess.Stage))
		return
	}

	raw := sess.Current()
	rep, err := s.assess(&raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	rec, err := s.persist(ctx, &raw, rep)
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := sess.Advance(assessment.StageReport, raw, s.now()); err != nil {
		s.fail(c, err)
		return
	}
	if err := sess.AttachReport(rec.ID, s.now()); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.drafts.Put(ctx, sess); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// createReport scores and stores a complete submission in one call.
func (s *Server) createReport(c *gin.Context) {
	var raw assessment.RawInput
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := s.assess(&raw)
	if err != nil {
		s.fail(c, err)
		return
	}
	rec, err := s.persist(c.Request.Context(), &raw, rep)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) listReports(c *gin.Context) {
	limit, err := queryInt(c, "limit", store.DefaultListLimit)
	if err != nil {
		badRequest(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, err)
		return
	}
	recs, err := s.reports.ListReports(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Reports: recs, Limit: limit, Offset: offset})
}

func (s *Server) getReport(c *gin.Context) {
	rec, err := s.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// updateReport re-scores a corrected submission and replaces the report.
func (s *Server) updateReport(c *gin.Context) {
	var raw assessment.RawInput
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return
	}
	rep, err := s.assess(&raw)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := s.reports.UpdateReport(ctx, id, rep); err != nil {
		s.fail(c, err)
		return
	}
	rec, err := s.reports.GetReport(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteReport(c *gin.Context) {
	if err := s.reports.DeleteReport(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}
