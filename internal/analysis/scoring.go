package analysis

import (
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
)

// Evaluator scores domains of one catalog for one report type.
type Evaluator struct {
	Catalog    *catalog.Catalog
	ReportType string
	Perturber  Perturber
}

// Coverage returns Σ min(reported, expert) / Σ expert × 100 for a domain.
// A domain with no expert requirement is fully covered.
func Coverage(ev assessment.DomainEvidence, d *catalog.Domain) float64 {
	var earned, expert int
	for _, c := range d.Controls {
		r := ev.Reported(c.ID)
		if r > c.ExpertLevel {
			r = c.ExpertLevel
		}
		earned += int(r)
		expert += int(c.ExpertLevel)
	}
	if expert == 0 {
		return 100
	}
	return float64(earned) / float64(expert) * 100
}

// Evaluate returns the 0-100 implementation score of domainID. Domains with
// no gaps score exactly 100 and domains with no evidence exactly 0; others
// get the coverage ratio plus a bounded perturbation.
func (e *Evaluator) Evaluate(in *assessment.Input, domainID string) float64 {
	d, ok := e.Catalog.Domain(domainID)
	if !ok {
		return 0
	}
	ev, _ := in.Domain(domainID)

	base := Coverage(ev, d)
	if base >= 100 {
		return 100
	}
	if base <= 0 {
		return 0
	}

	p := e.Perturber
	if p == nil {
		p = NoPerturbation{}
	}
	spread := SpreadFor(e.ReportType, predicateFor(domainID)(ev, d))
	score := clamp(base+p.Offset(spread.Low, spread.High), 0, 100)
	if score >= 100 {
		// A domain with gaps never reads as fully implemented.
		return base
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
