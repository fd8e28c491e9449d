package analysis

import (
	"errors"
	"fmt"
)

// Priority is a recommendation band.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists the bands in output order.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// PriorityThresholds are inclusive lower bounds on a gap's percentage impact.
type PriorityThresholds struct {
	Critical float64 `json:"critical" yaml:"critical" mapstructure:"critical"`
	High     float64 `json:"high" yaml:"high" mapstructure:"high"`
	Medium   float64 `json:"medium" yaml:"medium" mapstructure:"medium"`
}

// DefaultThresholds returns the standard 3/2/1 banding.
func DefaultThresholds() PriorityThresholds {
	return PriorityThresholds{Critical: 3, High: 2, Medium: 1}
}

// Validate requires strictly descending, non-negative bounds.
func (t PriorityThresholds) Validate() error {
	if t.Medium < 0 {
		return errors.New("priority thresholds: medium must be non-negative")
	}
	if !(t.Critical > t.High && t.High > t.Medium) {
		return fmt.Errorf("priority thresholds must descend (critical %.2f > high %.2f > medium %.2f)",
			t.Critical, t.High, t.Medium)
	}
	return nil
}

// Classify maps an impact onto a band.
func (t PriorityThresholds) Classify(impact float64) Priority {
	switch {
	case impact >= t.Critical:
		return PriorityCritical
	case impact >= t.High:
		return PriorityHigh
	case impact >= t.Medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Recommendation is a prioritized remediation for one gap.
type Recommendation struct {
	Recommendation  string   `json:"recommendation" yaml:"recommendation"`
	Priority        Priority `json:"priority" yaml:"priority"`
	Impact          string   `json:"impact" yaml:"impact"`
	EstimatedEffort string   `json:"estimatedEffort" yaml:"estimatedEffort"`
	Timeframe       string   `json:"timeframe" yaml:"timeframe"`
	Domain          string   `json:"domain" yaml:"domain"`
	ControlID       string   `json:"controlId" yaml:"controlId"`
}

var timeframes = map[Priority]string{
	PriorityCritical: "Immediate (0-30 days)",
	PriorityHigh:     "Short-term (30-90 days)",
	PriorityMedium:   "Medium-term (3-6 months)",
	PriorityLow:      "Long-term (6-12 months)",
}

// effortFor estimates remediation effort from the tier deficit.
func effortFor(deficit int) string {
	switch {
	case deficit >= 4:
		return "High"
	case deficit >= 2:
		return "Medium"
	default:
		return "Low"
	}
}

// Prioritize turns gaps into recommendations ordered Critical, High,
// Medium, Low. Within a band the input order is preserved. domainNames maps
// domain IDs to display names for the impact text and may be nil.
func Prioritize(gaps []Gap, t PriorityThresholds, domainNames map[string]string) []Recommendation {
	buckets := make(map[Priority][]Recommendation, len(Priorities))
	for _, g := range gaps {
		p := t.Classify(g.PercentageImpact)
		name := domainNames[g.Domain]
		if name == "" {
			name = g.Domain
		}
		buckets[p] = append(buckets[p], Recommendation{
			Recommendation:  g.NextSteps,
			Priority:        p,
			Impact:          fmt.Sprintf("%.2f%% weighted impact on %s (%s)", g.PercentageImpact, name, g.ControlName),
			EstimatedEffort: effortFor(g.Deficit()),
			Timeframe:       timeframes[p],
			Domain:          g.Domain,
			ControlID:       g.ControlID,
		})
	}

	out := make([]Recommendation, 0, len(gaps))
	for _, p := range Priorities {
		out = append(out, buckets[p]...)
	}
	return out
}
