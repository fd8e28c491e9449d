package analysis

import (
	"fmt"
	"sort"

	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
)

// Gap is a control whose reported tier is below the expert tier.
type Gap struct {
	ControlID        string       `json:"controlId" yaml:"controlId"`
	ControlName      string       `json:"controlName" yaml:"controlName"`
	Domain           string       `json:"domain" yaml:"domain"`
	ExpertLevel      catalog.Tier `json:"expertLevel" yaml:"expertLevel"`
	ReportedLevel    catalog.Tier `json:"reportedLevel" yaml:"reportedLevel"`
	PercentageImpact float64      `json:"percentageImpact" yaml:"percentageImpact"`
	NextSteps        string       `json:"nextSteps" yaml:"nextSteps"`
	Reference        string       `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Deficit is the number of tiers between reported and expert.
func (g Gap) Deficit() int { return int(g.ExpertLevel - g.ReportedLevel) }

// GapImpact ties one control's deficit to its share of the overall score.
func GapImpact(expert, reported catalog.Tier, controlsInDomain int, domainWeight float64) float64 {
	if controlsInDomain <= 0 || reported >= expert {
		return 0
	}
	return float64(expert-reported) / float64(controlsInDomain) * domainWeight
}

// FindGaps emits a Gap for every control below its expert tier, sorted by
// impact descending. Equal impacts keep domain then control declaration
// order. weights holds one weight per catalog domain.
func FindGaps(cat *catalog.Catalog, in *assessment.Input, weights []float64) []Gap {
	var gaps []Gap
	for i, d := range cat.Domains {
		var w float64
		if i < len(weights) {
			w = weights[i]
		}
		ev, _ := in.Domain(d.ID)
		for _, c := range d.Controls {
			reported := ev.Reported(c.ID)
			if reported >= c.ExpertLevel {
				continue
			}
			gaps = append(gaps, Gap{
				ControlID:        c.ID,
				ControlName:      c.Name,
				Domain:           d.ID,
				ExpertLevel:      c.ExpertLevel,
				ReportedLevel:    reported,
				PercentageImpact: GapImpact(c.ExpertLevel, reported, len(d.Controls), w),
				NextSteps:        nextSteps(c, reported),
				Reference:        c.Reference,
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].PercentageImpact > gaps[j].PercentageImpact
	})
	return gaps
}

func nextSteps(c catalog.Control, reported catalog.Tier) string {
	return fmt.Sprintf("Raise from %s (%d) to %s (%d): %s",
		reported, int(reported), c.ExpertLevel, int(c.ExpertLevel), c.Remediation)
}
