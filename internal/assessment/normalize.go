package assessment

import (
	"strings"

	"github.com/sos2a/assessment/internal/catalog"
)

// Normalize converts a possibly partial raw submission into an Input with
// every catalog domain and control populated. Unanswered controls resolve
// to tier 0. When several answers cover one control (questionnaire plus one
// or more matrix components) the weakest wins. Answers naming domains or
// controls outside cat are ignored; Validate reports them.
func Normalize(raw *RawInput, cat *catalog.Catalog) *Input {
	in := &Input{
		ID:           raw.ID,
		Organization: normalizeOrganization(raw.Organization),
		ReportType:   normalizeReportType(raw.ReportType),
	}

	resolved := make(map[string]map[string]catalog.Tier)
	record := func(answers []DomainAnswer) {
		for _, da := range answers {
			if !cat.HasDomain(da.Domain) {
				continue
			}
			m := resolved[da.Domain]
			if m == nil {
				m = make(map[string]catalog.Tier)
				resolved[da.Domain] = m
			}
			for _, ca := range da.Controls {
				tier, ok := ResolveLevel(ca)
				if !ok || !cat.HasControl(da.Domain, ca.Control) {
					continue
				}
				if prev, seen := m[ca.Control]; seen && prev <= tier {
					continue
				}
				m[ca.Control] = tier
			}
		}
	}

	record(raw.Questionnaire)
	for _, item := range raw.Matrix {
		if c := strings.TrimSpace(item.Component); c != "" {
			in.Components = append(in.Components, c)
		}
		record(item.Domains)
	}

	in.Domains = make([]DomainEvidence, len(cat.Domains))
	for i, d := range cat.Domains {
		ev := DomainEvidence{DomainID: d.ID, Controls: make([]ControlEvidence, len(d.Controls))}
		for j, c := range d.Controls {
			tier, answered := resolved[d.ID][c.ID]
			ev.Controls[j] = ControlEvidence{ControlID: c.ID, Reported: tier, Answered: answered}
		}
		in.Domains[i] = ev
	}
	return in
}

// ResolveLevel derives a tier from one answer: an explicit level wins,
// implemented=true counts as Defined, implemented=false as Not Implemented.
// ok is false when the answer carries neither field.
func ResolveLevel(ca ControlAnswer) (catalog.Tier, bool) {
	switch {
	case ca.Level != nil:
		return catalog.ClampTier(*ca.Level), true
	case ca.Implemented != nil && *ca.Implemented:
		return catalog.TierDefined, true
	case ca.Implemented != nil:
		return catalog.TierNotImplemented, true
	}
	return catalog.TierNotImplemented, false
}

func normalizeOrganization(o RawOrganization) Organization {
	return Organization{
		Name:                strings.TrimSpace(o.Name),
		Industry:            catalog.NormalizeIndustry(o.Industry),
		Size:                strings.ToLower(strings.TrimSpace(o.Size)),
		ContactEmail:        strings.TrimSpace(o.ContactEmail),
		OperationModes:      cleanList(o.OperationModes),
		InfrastructureModes: cleanList(o.InfrastructureModes),
	}
}

func normalizeReportType(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), ReportComprehensive) {
		return ReportComprehensive
	}
	return ReportPreliminary
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
