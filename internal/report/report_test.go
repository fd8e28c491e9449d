package report

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
)

func sampleBatch(level int, minScore float64) *Batch {
	cat := catalog.Default()
	raw := &assessment.RawInput{Organization: assessment.RawOrganization{Name: "Acme"}}
	for _, d := range cat.Domains {
		da := assessment.DomainAnswer{Domain: d.ID}
		for _, c := range d.Controls {
			lv := level
			da.Controls = append(da.Controls, assessment.ControlAnswer{Control: c.ID, Level: &lv})
		}
		raw.Questionnaire = append(raw.Questionnaire, da)
	}
	r := analysis.Assess(assessment.Normalize(raw, cat), analysis.Options{Catalog: cat})
	return &Batch{
		Entries:  []Entry{{ID: "acme", Source: "acme.yaml", AlsoFoundIn: []string{"copy/acme.yaml"}, Report: r}},
		MinScore: minScore,
	}
}

func TestPass(t *testing.T) {
	full := sampleBatch(5, DefaultMinScore)
	if !full.Passed() {
		t.Errorf("fully implemented batch should pass, overall %v", full.Entries[0].Report.OverallScore)
	}

	empty := sampleBatch(0, DefaultMinScore)
	if empty.Passed() {
		t.Error("unimplemented batch should fail")
	}

	lenient := sampleBatch(0, 0)
	if lenient.Passed() {
		t.Error("critical gaps should fail even with a zero pass mark")
	}
}

func TestFormatJSON(t *testing.T) {
	out := FormatJSON(sampleBatch(2, DefaultMinScore))

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	for _, key := range []string{"timestamp", "version", "pass", "assessments", "scan_metadata"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	entries := doc["assessments"].([]any)
	rep := entries[0].(map[string]any)["report"].(map[string]any)
	for _, key := range []string{"overallScore", "domainScores", "prioritizedRecommendations", "matrixData", "scorecard", "rasbitaScore", "gapAnalysis"} {
		if _, ok := rep[key]; !ok {
			t.Errorf("report missing key %q", key)
		}
	}
}

func TestFormatYAML(t *testing.T) {
	out := FormatYAML(sampleBatch(3, DefaultMinScore))

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	entries, ok := doc["assessments"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("assessments = %v", doc["assessments"])
	}
	rep := entries[0].(map[string]any)["report"].(map[string]any)
	if _, ok := rep["overallScore"]; !ok {
		t.Error("YAML report missing overallScore")
	}
}

func TestFormatMarkdown(t *testing.T) {
	out := FormatMarkdown(sampleBatch(0, DefaultMinScore))

	if !strings.Contains(out, "## sos2a: Acme: ❌ Fail") {
		t.Errorf("missing status header:\n%s", out)
	}
	for _, want := range []string{"### Domains", "### RASBITA", "### Recommendations", "Endpoint Security", "🔴 **Critical**"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestFormatMarkdownWithoutScorecard(t *testing.T) {
	b := sampleBatch(3, DefaultMinScore)
	b.Entries[0].Report.Scorecard = nil

	out := FormatMarkdown(b)
	if !strings.Contains(out, "| Endpoint Security |") {
		t.Errorf("domain rows missing without a scorecard:\n%s", out)
	}
}

func TestRenderersSkipEmptyCategories(t *testing.T) {
	b := sampleBatch(5, DefaultMinScore)
	r := b.Entries[0].Report
	delete(r.CategoryScores, catalog.Recover)

	if md := FormatMarkdown(b); strings.Contains(md, "| Recover |") {
		t.Error("markdown lists a category with no controls")
	}
	if term := FormatTerminal(b); strings.Contains(term, lilac+"recover ") {
		t.Error("terminal lists a category with no controls")
	}
}

func TestFormatYAMLOrganizationKeys(t *testing.T) {
	b := sampleBatch(3, DefaultMinScore)
	r := b.Entries[0].Report
	r.Organization.ContactEmail = "security@acme.example"
	r.Organization.OperationModes = []string{"remote"}

	out := FormatYAML(b)
	for _, want := range []string{"contactEmail: security@acme.example", "operationModes:"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q", want)
		}
	}
	if strings.Contains(out, "contactemail") || strings.Contains(out, "operationmodes") {
		t.Error("YAML uses lowercased organization keys")
	}
}

func TestFormatTerminal(t *testing.T) {
	out := FormatTerminal(sampleBatch(5, DefaultMinScore))

	for _, want := range []string{"sos2a assessment report", "DOMAINS", "RASBITA CATEGORIES", "Cloud Security", "PASS"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
	if strings.Contains(out, "RECOMMENDATIONS") {
		t.Error("fully implemented report should have no recommendations section")
	}
}

func TestColorBarBounds(t *testing.T) {
	for _, s := range []float64{-0.5, 0, 0.5, 1, 1.5} {
		bar := colorBar(s)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 16 {
			t.Errorf("colorBar(%v) has %d cells, want 16", s, n)
		}
	}
}

func TestWordWrap(t *testing.T) {
	lines := wordWrap("one two three four five six", 9)
	want := []string{"one two", "three", "four five", "six"}
	if len(lines) != len(want) {
		t.Fatalf("wordWrap = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if got := wordWrap("   ", 10); len(got) != 1 || got[0] != "" {
		t.Errorf("wordWrap(blank) = %q", got)
	}
}
