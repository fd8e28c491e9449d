package assessment

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned for any lifecycle move other than one
// step forward or one step back from a non-terminal stage.
var ErrInvalidTransition = errors.New("invalid stage transition")

// Stage is a step of the assessment workflow.
type Stage string

const (
	StageQuestionnaire Stage = "questionnaire"
	StageMatrix        Stage = "matrix"
	StageGapAnalysis   Stage = "gap-analysis"
	StageReport        Stage = "report"
)

var stageOrder = []Stage{StageQuestionnaire, StageMatrix, StageGapAnalysis, StageReport}

func (s Stage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool { return s.index() >= 0 }

// Next returns the following stage, or "" for the terminal stage.
func (s Stage) Next() Stage {
	i := s.index()
	if i < 0 || i == len(stageOrder)-1 {
		return ""
	}
	return stageOrder[i+1]
}

// Prev returns the preceding stage, or "" for the first stage.
func (s Stage) Prev() Stage {
	i := s.index()
	if i <= 0 {
		return ""
	}
	return stageOrder[i-1]
}

// Session is one user's in-progress assessment draft. Each stage keeps the
// data last saved while the user was on it, so stepping back restores that
// data verbatim rather than recomputing anything.
type Session struct {
	ID        string             `json:"id"`
	Stage     Stage              `json:"stage"`
	Saved     map[Stage]RawInput `json:"saved,omitempty"`
	ReportID  string             `json:"reportId,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewSession starts a draft at the questionnaire stage.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageQuestionnaire,
		Saved:     make(map[Stage]RawInput),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether the session has reached the report stage.
func (s *Session) Terminal() bool { return s.Stage == StageReport }

// Current returns the working data: what was saved on the current stage,
// or failing that on the nearest earlier stage.
func (s *Session) Current() RawInput {
	for i := s.Stage.index(); i >= 0; i-- {
		if data, ok := s.Saved[stageOrder[i]]; ok {
			return data
		}
	}
	return RawInput{ID: s.ID}
}

// Save records data as the current stage's last-saved data without moving.
func (s *Session) Save(data RawInput, now time.Time) error {
	if s.Terminal() {
		return fmt.Errorf("%w: report already generated", ErrInvalidTransition)
	}
	s.store(s.Stage, data, now)
	return nil
}

// Advance saves data on the current stage and moves to "to", which must be
// the immediately following stage.
func (s *Session) Advance(to Stage, data RawInput, now time.Time) error {
	next := s.Stage.Next()
	if next == "" || to != next {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, to)
	}
	s.store(s.Stage, data, now)
	s.Stage = to

	// Re-entering a stage after Back keeps the matrix saved there unless the
	// submission brought its own.
	if prior, ok := s.Saved[to]; ok && data.Matrix == nil {
		data.Matrix = prior.Matrix
	}
	s.store(to, data, now)
	return nil
}

// Back moves one stage back and returns that stage's last-saved data.
func (s *Session) Back(now time.Time) (RawInput, error) {
	if s.Terminal() {
		return RawInput{}, fmt.Errorf("%w: report already generated", ErrInvalidTransition)
	}
	prev := s.Stage.Prev()
	if prev == "" {
		return RawInput{}, fmt.Errorf("%w: already at %s", ErrInvalidTransition, s.Stage)
	}
	s.Stage = prev
	s.UpdatedAt = now
	return s.Current(), nil
}

// AttachReport records the persisted report for a terminal session.
func (s *Session) AttachReport(reportID string, now time.Time) error {
	if !s.Terminal() || s.ReportID != "" {
		return fmt.Errorf("%w: cannot attach report at stage %s", ErrInvalidTransition, s.Stage)
	}
	s.ReportID = reportID
	s.UpdatedAt = now
	return nil
}

func (s *Session) store(st Stage, data RawInput, now time.Time) {
	if s.Saved == nil {
		s.Saved = make(map[Stage]RawInput)
	}
	data.ID = s.ID
	s.Saved[st] = data
	s.UpdatedAt = now
}
