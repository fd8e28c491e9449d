// Package catalog defines the security domains, their controls and the
// expert target tiers each control is measured against.
package catalog

import "strings"

// Category is one of the six NIST CSF functions used by the RASBITA rubric.
type Category string

const (
	Govern   Category = "govern"
	Identify Category = "identify"
	Protect  Category = "protect"
	Detect   Category = "detect"
	Respond  Category = "respond"
	Recover  Category = "recover"
)

// Categories lists the RASBITA categories in reporting order.
var Categories = []Category{Govern, Identify, Protect, Detect, Respond, Recover}

// Control is a single assessable security control.
type Control struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	ExpertLevel Tier     `json:"expertLevel" yaml:"expertLevel"`
	Category    Category `json:"category" yaml:"category"`
	Reference   string   `json:"reference" yaml:"reference"` // NIST CSF 2.0 subcategory
	Remediation string   `json:"remediation" yaml:"remediation"`
	Key         bool     `json:"key,omitempty" yaml:"key,omitempty"`
}

// Domain groups the controls scored together as one parameter.
type Domain struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Controls []Control `json:"controls" yaml:"controls"`
}

// Control looks up a control by ID.
func (d *Domain) Control(id string) (Control, bool) {
	for _, c := range d.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return Control{}, false
}

// KeyControls returns the IDs of the controls the domain's evaluator
// predicate inspects.
func (d *Domain) KeyControls() []string {
	var keys []string
	for _, c := range d.Controls {
		if c.Key {
			keys = append(keys, c.ID)
		}
	}
	return keys
}

// Catalog is an ordered set of domains. Declaration order is significant:
// it breaks ties between equally weighted gaps.
type Catalog struct {
	Industry string
	Domains  []Domain
}

// New builds a catalog from the given domains, preserving their order.
func New(industry string, domains ...Domain) *Catalog {
	return &Catalog{Industry: NormalizeIndustry(industry), Domains: domains}
}

// Domain looks up a domain by ID.
func (c *Catalog) Domain(id string) (*Domain, bool) {
	for i := range c.Domains {
		if c.Domains[i].ID == id {
			return &c.Domains[i], true
		}
	}
	return nil, false
}

// HasDomain reports whether id names a catalog domain.
func (c *Catalog) HasDomain(id string) bool {
	_, ok := c.Domain(id)
	return ok
}

// DomainIDs returns domain IDs in declaration order.
func (c *Catalog) DomainIDs() []string {
	ids := make([]string, len(c.Domains))
	for i, d := range c.Domains {
		ids[i] = d.ID
	}
	return ids
}

// HasControl reports whether domainID/controlID exists in the catalog.
func (c *Catalog) HasControl(domainID, controlID string) bool {
	d, ok := c.Domain(domainID)
	if !ok {
		return false
	}
	_, ok = d.Control(controlID)
	return ok
}

// Clone returns a deep copy that can be adjusted without touching c.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Industry: c.Industry, Domains: make([]Domain, len(c.Domains))}
	for i, d := range c.Domains {
		controls := make([]Control, len(d.Controls))
		copy(controls, d.Controls)
		out.Domains[i] = Domain{ID: d.ID, Name: d.Name, Controls: controls}
	}
	return out
}

const (
	IndustryGeneral    = "general"
	IndustryHealthcare = "healthcare"
	IndustryFinance    = "finance"
)

var industryAliases = map[string]string{
	"health":             IndustryHealthcare,
	"healthcare":         IndustryHealthcare,
	"medical":            IndustryHealthcare,
	"hospital":           IndustryHealthcare,
	"finance":            IndustryFinance,
	"financial":          IndustryFinance,
	"financial services": IndustryFinance,
	"banking":            IndustryFinance,
	"fintech":            IndustryFinance,
	"insurance":          IndustryFinance,
}

// NormalizeIndustry maps free-form industry names onto canonical keys.
// Empty input yields IndustryGeneral; unknown names are lowercased as-is.
func NormalizeIndustry(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return IndustryGeneral
	}
	if canon, ok := industryAliases[v]; ok {
		return canon
	}
	return v
}

// regulatedDomains lists, per industry, the domains whose expert tier is
// raised one level above the general benchmark.
var regulatedDomains = map[string][]string{
	IndustryHealthcare: {"data_security", "identity_behavior", "compliance", "regulatory"},
	IndustryFinance:    {"data_security", "external_footprints", "compliance", "regulatory", "frameworks"},
}

// For returns the industry benchmark catalog.
func For(industry string) *Catalog {
	ind := NormalizeIndustry(industry)
	cat := Default()
	cat.Industry = ind

	for _, id := range regulatedDomains[ind] {
		d, ok := cat.Domain(id)
		if !ok {
			continue
		}
		for i := range d.Controls {
			d.Controls[i].ExpertLevel = ClampTier(int(d.Controls[i].ExpertLevel) + 1)
		}
	}
	return cat
}
