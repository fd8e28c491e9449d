package analysis

import (
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/catalog"
)

// Predicate decides whether a domain counts as implemented, which selects
// the perturbation bias applied to its score.
type Predicate func(ev assessment.DomainEvidence, d *catalog.Domain) bool

// AnyKeyImplemented holds when at least one key control is above tier 0.
func AnyKeyImplemented(ev assessment.DomainEvidence, d *catalog.Domain) bool {
	for _, id := range d.KeyControls() {
		if ev.Reported(id) > catalog.TierNotImplemented {
			return true
		}
	}
	return false
}

// AllKeyImplemented holds when every key control is above tier 0. A domain
// without key controls never satisfies it.
func AllKeyImplemented(ev assessment.DomainEvidence, d *catalog.Domain) bool {
	keys := d.KeyControls()
	if len(keys) == 0 {
		return false
	}
	for _, id := range keys {
		if ev.Reported(id) == catalog.TierNotImplemented {
			return false
		}
	}
	return true
}

// DomainPredicates maps domains to their evaluator predicate. Domains where
// one missing key control leaves the whole area exposed require all keys.
// Anything not listed uses AnyKeyImplemented.
var DomainPredicates = map[string]Predicate{
	"endpoint_security": AllKeyImplemented,
	"cloud_security":    AllKeyImplemented,
	"data_security":     AllKeyImplemented,
	"identity_behavior": AnyKeyImplemented,
	"frameworks":        AnyKeyImplemented,
}

func predicateFor(domainID string) Predicate {
	if p, ok := DomainPredicates[domainID]; ok {
		return p
	}
	return AnyKeyImplemented
}
