// Package report renders scored assessments for terminals, CI artifacts
// and pull-request comments.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sos2a/assessment/internal/analysis"
)

// Version is stamped into machine-readable output.
var Version = "0.1.0"

// DefaultMinScore is the pass mark used when none is configured.
const DefaultMinScore = analysis.NeedsImprovementThreshold

// Entry is one scored submission.
type Entry struct {
	ID          string
	Source      string
	AlsoFoundIn []string
	Report      *analysis.Report
}

// Batch is everything rendered in one run.
type Batch struct {
	Entries  []Entry
	MinScore float64
}

// Pass reports whether r meets minScore with no Critical recommendation.
func Pass(r *analysis.Report, minScore float64) bool {
	return r.OverallScore.Percentage >= minScore && !r.HasCritical()
}

// Passed reports whether every entry passes.
func (b *Batch) Passed() bool {
	for _, e := range b.Entries {
		if !Pass(e.Report, b.MinScore) {
			return false
		}
	}
	return true
}

func (b *Batch) document() map[string]any {
	doc := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"min_score": b.MinScore,
		"pass":      b.Passed(),
	}

	var entries []map[string]any
	totalFiles := 0
	duplicates := 0
	for _, e := range b.Entries {
		entry := map[string]any{
			"id":     e.ID,
			"source": e.Source,
			"pass":   Pass(e.Report, b.MinScore),
			"report": e.Report,
		}
		if len(e.AlsoFoundIn) > 0 {
			entry["also_found_in"] = e.AlsoFoundIn
			entry["instance_count"] = 1 + len(e.AlsoFoundIn)
		}
		entries = append(entries, entry)
		totalFiles += 1 + len(e.AlsoFoundIn)
		duplicates += len(e.AlsoFoundIn)
	}
	doc["assessments"] = entries

	if duplicates > 0 {
		doc["scan_metadata"] = map[string]any{
			"total_files_scanned":  totalFiles,
			"unique_assessments":   len(b.Entries),
			"duplicates_collapsed": duplicates,
			"dedup_method":         "sha256-answers",
		}
	}
	return doc
}

// FormatJSON produces machine-readable JSON for CI artifacts.
func FormatJSON(b *Batch) string {
	data, err := json.MarshalIndent(b.document(), "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal report: %s"}`, err)
	}
	return string(data)
}

// FormatYAML produces the same document as FormatJSON in YAML.
func FormatYAML(b *Batch) string {
	// Round-trip through JSON so field names match the JSON rendering.
	raw, err := json.Marshal(b.document())
	if err != nil {
		return fmt.Sprintf("error: failed to marshal report: %s\n", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Sprintf("error: failed to marshal report: %s\n", err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Sprintf("error: failed to marshal report: %s\n", err)
	}
	return string(data)
}
