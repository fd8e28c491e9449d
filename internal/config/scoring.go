package config

import (
	"strings"
	"time"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/assessment"
)

// Options builds engine options for one submission. Values carried by the
// submission itself win over configured defaults. With jitter enabled and
// no seed, every call draws a fresh seed.
func (s ScoringConfig) Options(raw *assessment.RawInput) analysis.Options {
	opts := analysis.Options{Thresholds: s.Thresholds}
	if strings.TrimSpace(raw.ReportType) == "" {
		opts.ReportType = s.ReportType
	}
	if strings.TrimSpace(raw.Organization.Industry) == "" {
		opts.Industry = s.Industry
	}
	if s.Jitter {
		seed := s.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		opts.Perturber = analysis.NewRandPerturber(seed)
	}
	return opts
}
