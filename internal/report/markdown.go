package report

import (
	"fmt"
	"strings"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/catalog"
)

var priorityEmoji = map[analysis.Priority]string{
	analysis.PriorityCritical: "🔴",
	analysis.PriorityHigh:     "🟠",
	analysis.PriorityMedium:   "🟡",
	analysis.PriorityLow:      "⚪",
}

// FormatMarkdown produces markdown for PR comments and ticket attachments.
func FormatMarkdown(b *Batch) string {
	var sb strings.Builder
	for i, e := range b.Entries {
		if i > 0 {
			sb.WriteString("---\n\n")
		}
		writeMarkdownEntry(&sb, e, b.MinScore)
	}
	return sb.String()
}

func writeMarkdownEntry(b *strings.Builder, e Entry, minScore float64) {
	r := e.Report
	status := "❌ Fail"
	if Pass(r, minScore) {
		status = "✅ Pass"
	} else if r.OverallScore.Percentage >= minScore {
		status = "⚠️ Critical gaps"
	}

	name := r.Organization.Name
	if name == "" {
		name = e.ID
	}
	fmt.Fprintf(b, "## sos2a: %s: %s (%.0f%%, %s)\n\n", name, status, r.OverallScore.Percentage, r.OverallScore.Grade)
	fmt.Fprintf(b, "%s report · industry **%s**", r.ReportType, r.Industry)
	if e.Source != "" {
		fmt.Fprintf(b, " · `%s`", e.Source)
	}
	b.WriteString("\n\n")

	b.WriteString("### Domains\n\n")
	b.WriteString("| Domain | Score | Grade | Maturity | Gaps |\n")
	b.WriteString("|--------|-------|-------|----------|------|\n")
	for _, ds := range r.DomainScores {
		fmt.Fprintf(b, "| %s | %.0f%% | %s | %.2f | %d |\n",
			ds.Domain, ds.EarnedPercentage, analysis.LetterGrade(ds.EarnedPercentage), ds.MaturityGPA, len(ds.Gaps))
	}
	b.WriteString("\n")

	b.WriteString("### RASBITA\n\n")
	b.WriteString("| Category | Score | Weight |\n")
	b.WriteString("|----------|-------|--------|\n")
	for _, c := range catalog.Categories {
		score, ok := r.CategoryScores[c]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s | %.0f%% | %.2f |\n", titleCase(string(c)), score, r.RasbitaScore.Weights[c])
	}
	fmt.Fprintf(b, "| **Overall** | **%.0f%%** | %s |\n\n", r.RasbitaScore.Overall, r.RasbitaScore.Grade)

	if len(r.PrioritizedRecommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, rec := range r.PrioritizedRecommendations {
			fmt.Fprintf(b, "- %s **%s** %s  \n  _%s · effort %s · %s_\n",
				priorityEmoji[rec.Priority], rec.Priority, rec.Recommendation,
				rec.Impact, rec.EstimatedEffort, rec.Timeframe)
		}
		b.WriteString("\n")
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
