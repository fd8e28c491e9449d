package analysis

import (
	"math/rand"

	"github.com/sos2a/assessment/internal/assessment"
)

// Perturber supplies the bounded noise applied to partially implemented
// domain scores. Implementations must return a value within [lo, hi].
type Perturber interface {
	Offset(lo, hi float64) float64
}

// NoPerturbation disables score noise entirely.
type NoPerturbation struct{}

func (NoPerturbation) Offset(lo, hi float64) float64 { return 0 }

// RandPerturber draws offsets from a seeded source, so a fixed seed
// reproduces the same report.
type RandPerturber struct {
	rng *rand.Rand
}

// NewRandPerturber returns a perturber seeded with seed.
func NewRandPerturber(seed int64) *RandPerturber {
	return &RandPerturber{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandPerturber) Offset(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + p.rng.Float64()*(hi-lo)
}

// Spread is the offset range applied to a base score.
type Spread struct {
	Low  float64
	High float64
}

// Preliminary reports are optimistic and loosely grounded, so they get a
// wide spread; comprehensive reports stay close to the evidence.
var (
	preliminaryImplemented    = Spread{Low: -4, High: 10}
	preliminaryNotImplemented = Spread{Low: -6, High: 6}
	comprehensiveImplemented  = Spread{Low: -2, High: 3}
	comprehensiveNotImplement = Spread{Low: -3, High: 2}
)

// SpreadFor returns the offset range for a report type and predicate outcome.
func SpreadFor(reportType string, implemented bool) Spread {
	if reportType == assessment.ReportComprehensive {
		if implemented {
			return comprehensiveImplemented
		}
		return comprehensiveNotImplement
	}
	if implemented {
		return preliminaryImplemented
	}
	return preliminaryNotImplemented
}
