package assessment

import (
	"errors"
	"testing"
	"time"

	"github.com/sos2a/assessment/internal/catalog"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name     string
		answer   ControlAnswer
		want     catalog.Tier
		answered bool
	}{
		{"empty", ControlAnswer{Control: "edr"}, catalog.TierNotImplemented, false},
		{"implemented", ControlAnswer{Control: "edr", Implemented: boolPtr(true)}, catalog.TierDefined, true},
		{"not implemented", ControlAnswer{Control: "edr", Implemented: boolPtr(false)}, catalog.TierNotImplemented, true},
		{"level wins", ControlAnswer{Control: "edr", Implemented: boolPtr(true), Level: intPtr(5)}, catalog.TierOptimized, true},
		{"level zero", ControlAnswer{Control: "edr", Implemented: boolPtr(true), Level: intPtr(0)}, catalog.TierNotImplemented, true},
		{"level clamped", ControlAnswer{Control: "edr", Level: intPtr(9)}, catalog.TierOptimized, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveLevel(tt.answer)
			if got != tt.want || ok != tt.answered {
				t.Errorf("ResolveLevel() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.answered)
			}
		})
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	cat := catalog.Default()
	in := Normalize(&RawInput{}, cat)

	if in.ReportType != ReportPreliminary {
		t.Errorf("ReportType = %q, want %q", in.ReportType, ReportPreliminary)
	}
	if in.Organization.Industry != catalog.IndustryGeneral {
		t.Errorf("Industry = %q, want %q", in.Organization.Industry, catalog.IndustryGeneral)
	}
	if len(in.Domains) != len(cat.Domains) {
		t.Fatalf("len(Domains) = %d, want %d", len(in.Domains), len(cat.Domains))
	}
	for i, d := range in.Domains {
		if d.DomainID != cat.Domains[i].ID {
			t.Errorf("Domains[%d] = %q, want %q", i, d.DomainID, cat.Domains[i].ID)
		}
		if len(d.Controls) != len(cat.Domains[i].Controls) {
			t.Errorf("%s: %d controls, want %d", d.DomainID, len(d.Controls), len(cat.Domains[i].Controls))
		}
		if d.Answered() {
			t.Errorf("%s: Answered() = true for empty input", d.DomainID)
		}
		for _, c := range d.Controls {
			if c.Reported != catalog.TierNotImplemented {
				t.Errorf("%s/%s Reported = %v, want 0", d.DomainID, c.ControlID, c.Reported)
			}
		}
	}
}

func TestNormalizeWeakestAnswerWins(t *testing.T) {
	raw := &RawInput{
		Questionnaire: []DomainAnswer{
			{Domain: "endpoint_security", Controls: []ControlAnswer{
				{Control: "edr", Level: intPtr(4)},
				{Control: "patch_management", Implemented: boolPtr(true)},
			}},
		},
		Matrix: []MatrixItem{
			{Component: "laptops", Domains: []DomainAnswer{
				{Domain: "endpoint_security", Controls: []ControlAnswer{{Control: "edr", Level: intPtr(2)}}},
			}},
			{Component: "servers", Domains: []DomainAnswer{
				{Domain: "endpoint_security", Controls: []ControlAnswer{{Control: "edr", Level: intPtr(5)}}},
			}},
		},
	}
	in := Normalize(raw, catalog.Default())

	ep, ok := in.Domain("endpoint_security")
	if !ok {
		t.Fatal("endpoint_security missing")
	}
	if got := ep.Reported("edr"); got != catalog.TierRepeatable {
		t.Errorf("edr = %v, want %v", got, catalog.TierRepeatable)
	}
	if got := ep.Reported("patch_management"); got != catalog.TierDefined {
		t.Errorf("patch_management = %v, want %v", got, catalog.TierDefined)
	}
	if len(in.Components) != 2 {
		t.Errorf("Components = %v, want 2 entries", in.Components)
	}
}

func TestNormalizeIgnoresUnknownEntries(t *testing.T) {
	raw := &RawInput{
		Organization: RawOrganization{Industry: " Hospital ", OperationModes: []string{"remote", " remote", ""}},
		ReportType:   "Comprehensive",
		Questionnaire: []DomainAnswer{
			{Domain: "quantum", Controls: []ControlAnswer{{Control: "x", Level: intPtr(5)}}},
			{Domain: "cloud_security", Controls: []ControlAnswer{{Control: "nope", Level: intPtr(5)}}},
		},
	}
	in := Normalize(raw, catalog.Default())

	if in.Organization.Industry != catalog.IndustryHealthcare {
		t.Errorf("Industry = %q, want %q", in.Organization.Industry, catalog.IndustryHealthcare)
	}
	if len(in.Organization.OperationModes) != 1 {
		t.Errorf("OperationModes = %v, want [remote]", in.Organization.OperationModes)
	}
	if in.ReportType != ReportComprehensive {
		t.Errorf("ReportType = %q, want %q", in.ReportType, ReportComprehensive)
	}
	cs, _ := in.Domain("cloud_security")
	if cs.Answered() {
		t.Error("cloud_security answered by an unknown control")
	}
}

func TestValidate(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name  string
		raw   RawInput
		paths []string
	}{
		{
			name: "valid partial",
			raw: RawInput{Questionnaire: []DomainAnswer{
				{Domain: "dark_web", Controls: []ControlAnswer{{Control: "credential_monitoring", Implemented: boolPtr(true)}}},
			}},
		},
		{
			name:  "bad report type",
			raw:   RawInput{ReportType: "final"},
			paths: []string{"reportType"},
		},
		{
			name:  "bad email and size",
			raw:   RawInput{Organization: RawOrganization{ContactEmail: "nope", Size: "huge"}},
			paths: []string{"organization.size", "organization.contactEmail"},
		},
		{
			name: "level out of range",
			raw: RawInput{Questionnaire: []DomainAnswer{
				{Domain: "endpoint_security", Controls: []ControlAnswer{{Control: "edr", Level: intPtr(7)}}},
			}},
			paths: []string{"questionnaire[0].controls[0].level"},
		},
		{
			name: "unknown domain and control",
			raw: RawInput{
				Questionnaire: []DomainAnswer{{Domain: "quantum"}},
				Matrix: []MatrixItem{{Component: "db", Domains: []DomainAnswer{
					{Domain: "data_security", Controls: []ControlAnswer{{Control: "magic"}}},
				}}},
			},
			paths: []string{"questionnaire[0].domain", "matrix[0].domains[0].controls[0].control"},
		},
		{
			name:  "missing component",
			raw:   RawInput{Matrix: []MatrixItem{{}}},
			paths: []string{"matrix[0].component"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.raw, cat)
			if len(tt.paths) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			got := map[string]bool{}
			for _, f := range verr.Fields {
				got[f.Path] = true
				if f.Message == "" || f.Constraint == "" {
					t.Errorf("field %q has empty message or constraint", f.Path)
				}
			}
			for _, p := range tt.paths {
				if !got[p] {
					t.Errorf("missing error for %q, got %+v", p, verr.Fields)
				}
			}
			if len(verr.Fields) != len(tt.paths) {
				t.Errorf("len(Fields) = %d, want %d: %+v", len(verr.Fields), len(tt.paths), verr.Fields)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("a1", now)

	q := RawInput{Organization: RawOrganization{Name: "Acme"}}
	if err := s.Advance(StageMatrix, q, now); err != nil {
		t.Fatalf("Advance(matrix) = %v", err)
	}

	m := q
	m.Matrix = []MatrixItem{{Component: "laptops"}}
	if err := s.Advance(StageGapAnalysis, m, now); err != nil {
		t.Fatalf("Advance(gap-analysis) = %v", err)
	}

	back, err := s.Back(now)
	if err != nil {
		t.Fatalf("Back() = %v", err)
	}
	if s.Stage != StageMatrix {
		t.Errorf("Stage = %q, want %q", s.Stage, StageMatrix)
	}
	if len(back.Matrix) != 1 || back.Matrix[0].Component != "laptops" {
		t.Errorf("Back() restored %+v, want matrix snapshot", back)
	}

	back, err = s.Back(now)
	if err != nil {
		t.Fatalf("Back() = %v", err)
	}
	if back.Matrix != nil || back.Organization.Name != "Acme" {
		t.Errorf("Back() restored %+v, want questionnaire snapshot", back)
	}
	if _, err := s.Back(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back() at first stage = %v, want ErrInvalidTransition", err)
	}

	// Re-advancing keeps the matrix saved earlier.
	if err := s.Advance(StageMatrix, back, now); err != nil {
		t.Fatalf("Advance(matrix) = %v", err)
	}
	if cur := s.Current(); len(cur.Matrix) != 1 {
		t.Errorf("Current().Matrix = %v, want restored matrix", cur.Matrix)
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	now := time.Now()
	s := NewSession("a2", now)

	if err := s.Advance(StageGapAnalysis, RawInput{}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("skip stage = %v, want ErrInvalidTransition", err)
	}
	if err := s.AttachReport("r1", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("AttachReport before report = %v, want ErrInvalidTransition", err)
	}

	for _, st := range []Stage{StageMatrix, StageGapAnalysis, StageReport} {
		if err := s.Advance(st, RawInput{}, now); err != nil {
			t.Fatalf("Advance(%s) = %v", st, err)
		}
	}
	if !s.Terminal() {
		t.Fatal("Terminal() = false at report stage")
	}
	if err := s.AttachReport("r1", now); err != nil {
		t.Fatalf("AttachReport() = %v", err)
	}
	if _, err := s.Back(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Back() from report = %v, want ErrInvalidTransition", err)
	}
	if err := s.Save(RawInput{}, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Save() from report = %v, want ErrInvalidTransition", err)
	}
	if err := s.AttachReport("r2", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second AttachReport() = %v, want ErrInvalidTransition", err)
	}
}
