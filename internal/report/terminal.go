package report

import (
	"fmt"
	"strings"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/catalog"
)

// Muted 256-color palette
const (
	bold  = "\033[1m"
	dim   = "\033[2m"
	reset = "\033[0m"

	rose  = "\033[38;5;174m" // soft red/pink
	amber = "\033[38;5;179m" // warm yellow
	sage  = "\033[38;5;108m" // muted green
	slate = "\033[38;5;110m" // muted blue
	lilac = "\033[38;5;139m" // soft purple
	stone = "\033[38;5;245m" // medium gray
	chalk = "\033[38;5;188m" // off-white
)

const ruler = "────────────────────────────────────────────────────────"

func sectionHeader(title string) string {
	return fmt.Sprintf("\n  %s%s%s\n  %s%s%s\n", bold+chalk, strings.ToUpper(title), reset, stone, ruler, reset)
}

// FormatTerminal produces human-readable terminal output.
func FormatTerminal(b *Batch) string {
	var sb strings.Builder

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  %s%ssos2a assessment report%s\n", bold, chalk, reset)
	fmt.Fprintf(&sb, "  %s%s%s\n", stone, ruler, reset)

	for _, e := range b.Entries {
		writeTerminalEntry(&sb, e, b.MinScore)
	}
	return sb.String()
}

func writeTerminalEntry(b *strings.Builder, e Entry, minScore float64) {
	r := e.Report

	name := r.Organization.Name
	if name == "" {
		name = e.ID
	}
	b.WriteString(sectionHeader(name))
	fmt.Fprintf(b, "    %sindustry%s  %s%s%s   %stype%s  %s\n", stone, reset, slate, r.Industry, reset, stone, reset, r.ReportType)
	if e.Source != "" {
		fmt.Fprintf(b, "    %ssource%s    %s\n", stone, reset, e.Source)
	}
	if len(e.AlsoFoundIn) > 0 {
		fmt.Fprintf(b, "    %salso in%s   %s%s%s\n", stone, reset, dim, strings.Join(e.AlsoFoundIn, ", "), reset)
	}

	// ── Domains ─────────────────────────────────────────────
	b.WriteString(sectionHeader("Domains"))
	for _, ds := range r.DomainScores {
		gapNote := ""
		if n := len(ds.Gaps); n > 0 {
			gapNote = fmt.Sprintf("%s%d gap%s%s", amber, n, plural(n), reset)
		}
		fmt.Fprintf(b, "  %-28s %s %s%3.0f%%%s  %s\n",
			ds.Domain, colorBar(ds.EarnedPercentage/100), chalk, ds.EarnedPercentage, reset, gapNote)
	}

	// ── RASBITA ─────────────────────────────────────────────
	b.WriteString(sectionHeader("RASBITA Categories"))
	for _, c := range catalog.Categories {
		score, ok := r.CategoryScores[c]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "  %s%-10s%s %s %3.0f%%  %sweight %.1f%s\n",
			lilac, c, reset, colorBar(score/100), score, stone, r.RasbitaScore.Weights[c], reset)
	}
	fmt.Fprintf(b, "  %s%-10s%s %s %3.0f%%  %s\n",
		bold, "overall", reset, colorBar(r.RasbitaScore.Overall/100), r.RasbitaScore.Overall, r.RasbitaScore.Grade)

	// ── Recommendations ─────────────────────────────────────
	if len(r.PrioritizedRecommendations) > 0 {
		b.WriteString(sectionHeader(fmt.Sprintf("Recommendations (%d)", len(r.PrioritizedRecommendations))))

		for _, rec := range r.PrioritizedRecommendations {
			icon, labelColor, label := priorityStyle(rec.Priority)
			prefix := fmt.Sprintf("  %s  %s%s%s  ", icon, labelColor, label, reset)
			indent := strings.Repeat(" ", 11)
			for i, line := range wordWrap(rec.Recommendation, 69) {
				if i == 0 {
					fmt.Fprintf(b, "%s%s\n", prefix, line)
				} else {
					fmt.Fprintf(b, "%s%s\n", indent, line)
				}
			}
			fmt.Fprintf(b, "%s%s%s · effort %s · %s%s\n", indent, stone, rec.Impact, rec.EstimatedEffort, rec.Timeframe, reset)
		}
	}

	// ── Overall ─────────────────────────────────────────────
	pct := r.OverallScore.Percentage
	var statusLabel, statusColor string
	switch {
	case Pass(r, minScore):
		statusLabel = "PASS ✔"
		statusColor = sage
	case pct >= minScore:
		statusLabel = "WARN ⚠"
		statusColor = amber
	default:
		statusLabel = "FAIL ✘"
		statusColor = rose
	}

	b.WriteString("\n")
	fmt.Fprintf(b, "  %s%s%s\n", stone, ruler, reset)
	fmt.Fprintf(b, "  %s%sOverall%s   %s  %s%3.0f%%%s  %s  %s%s%s\n\n",
		bold, chalk, reset,
		colorBar(pct/100),
		chalk, pct, reset,
		r.OverallScore.Grade,
		statusColor, statusLabel, reset)
}

func priorityStyle(p analysis.Priority) (icon, color, label string) {
	switch p {
	case analysis.PriorityCritical:
		return rose + "✘" + reset, rose, "CRIT"
	case analysis.PriorityHigh:
		return amber + "⚠" + reset, amber, "HIGH"
	case analysis.PriorityMedium:
		return slate + "ⓘ" + reset, slate, "MED "
	default:
		return stone + "·" + reset, stone, "LOW "
	}
}

// colorBar renders a progress bar with muted color based on a 0-1 score.
func colorBar(score float64) string {
	width := 16
	filled := int(score * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var color string
	switch {
	case score >= analysis.GoodThreshold/100:
		color = sage
	case score >= analysis.NeedsImprovementThreshold/100:
		color = amber
	default:
		color = rose
	}

	return color + strings.Repeat("█", filled) + stone + strings.Repeat("░", width-filled) + reset
}

// wordWrap breaks text into lines of at most maxWidth characters,
// splitting at word boundaries.
func wordWrap(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > maxWidth {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return lines
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
