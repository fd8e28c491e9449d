package loader

import (
	"path/filepath"
	"runtime"
	"testing"
)

func testdataPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func TestLoadYAML(t *testing.T) {
	sub, err := loadYAML(testdataPath("acme_health.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil {
		t.Fatal("expected submission, got nil")
	}

	raw := sub.Raw
	if raw.ID != "acme_health" {
		t.Errorf("ID = %q, want %q", raw.ID, "acme_health")
	}
	if raw.Organization.Name != "Acme Health" {
		t.Errorf("Name = %q, want %q (derived from filename)", raw.Organization.Name, "Acme Health")
	}
	if raw.Organization.Industry != "healthcare" {
		t.Errorf("Industry = %q, want healthcare", raw.Organization.Industry)
	}
	if raw.ReportType != "comprehensive" {
		t.Errorf("ReportType = %q, want comprehensive", raw.ReportType)
	}
	if len(raw.Questionnaire) != 2 {
		t.Fatalf("expected 2 questionnaire domains, got %d", len(raw.Questionnaire))
	}
	edr := raw.Questionnaire[0].Controls[0]
	if edr.Level == nil || *edr.Level != 4 {
		t.Errorf("edr level = %v, want 4", edr.Level)
	}
	mfa := raw.Questionnaire[1].Controls[0]
	if mfa.Implemented == nil || *mfa.Implemented {
		t.Errorf("mfa implemented = %v, want false", mfa.Implemented)
	}
	if len(raw.Matrix) != 1 || raw.Matrix[0].Component != "workstations" {
		t.Errorf("Matrix = %+v", raw.Matrix)
	}
	if len(raw.Organization.OperationModes) != 2 {
		t.Errorf("OperationModes = %v", raw.Organization.OperationModes)
	}
	if sub.ContentHash == "" {
		t.Error("expected content hash")
	}
}

func TestLoadJSONAliasKeys(t *testing.T) {
	sub, err := loadJSON(testdataPath("northbank.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil {
		t.Fatal("expected submission, got nil")
	}
	if sub.Raw.ID != "northbank-2026" {
		t.Errorf("ID = %q, want explicit id", sub.Raw.ID)
	}
	if sub.Raw.Organization.Name != "North Bank" {
		t.Errorf("Name = %q, want %q from company alias", sub.Raw.Organization.Name, "North Bank")
	}
	if sub.Raw.Organization.Industry != "banking" {
		t.Errorf("Industry = %q, want banking from sector alias", sub.Raw.Organization.Industry)
	}
}

func TestLoadNonAssessment(t *testing.T) {
	sub, err := loadYAML(testdataPath("not_assessment.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != nil {
		t.Error("expected nil submission for unrelated yaml")
	}

	if _, err := LoadSubmissions(testdataPath("not_assessment.yaml")); err == nil {
		t.Error("expected error loading a non-assessment file directly")
	}
	if _, err := LoadSubmissions(testdataPath("broken.json")); err == nil {
		t.Error("expected error loading malformed json directly")
	}
	if _, err := LoadSubmissions(testdataPath("missing.yaml")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestLoadSubmissionsDirectory(t *testing.T) {
	subs, err := LoadSubmissions(testdataPath(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := map[string]bool{}
	for _, s := range subs {
		ids[s.Raw.ID] = true
	}
	if len(subs) != 2 || !ids["acme_health"] || !ids["northbank-2026"] {
		t.Errorf("loaded %v, want acme_health and northbank-2026", ids)
	}
}

func TestLoadSubmissionsRecursiveQualifiesIDs(t *testing.T) {
	subs, err := LoadSubmissionsRecursive(testdataPath(""), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(subs))
	}

	ids := map[string]bool{}
	for _, s := range subs {
		ids[s.Raw.ID] = true
		if s.Raw.Organization.Name == "Old" {
			t.Error("dot-directory was not skipped")
		}
	}
	for _, want := range []string{"acme_health", "branches/acme_health", "northbank-2026"} {
		if !ids[want] {
			t.Errorf("missing ID %q in %v", want, ids)
		}
	}
}

func TestLoadSubmissionsRecursiveDedup(t *testing.T) {
	subs, err := LoadSubmissionsRecursive(testdataPath(""), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions after dedup, got %d", len(subs))
	}

	acme := subs[0]
	if acme.Raw.ID != "acme_health" {
		t.Fatalf("first ID = %q, want acme_health", acme.Raw.ID)
	}
	if len(acme.AlsoFoundIn) != 1 || acme.AlsoFoundIn[0] != filepath.Join("branches", "acme_health.yaml") {
		t.Errorf("AlsoFoundIn = %v", acme.AlsoFoundIn)
	}
}

func TestNameFromStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"acme_health", "Acme Health"},
		{"north-bank-q3", "North Bank Q3"},
		{"solo", "Solo"},
		{"état_civil", "État Civil"},
		{"öresund-clinic", "Öresund Clinic"},
	}
	for _, tt := range tests {
		if got := nameFromStem(tt.in); got != tt.want {
			t.Errorf("nameFromStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
