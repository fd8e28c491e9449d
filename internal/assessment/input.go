// Package assessment models the answers a user submits, converts them into
// the fully populated form the scoring engine consumes, and tracks the
// questionnaire → matrix → gap-analysis → report lifecycle of a draft.
package assessment

import "github.com/sos2a/assessment/internal/catalog"

// Report types accepted on submission.
const (
	ReportPreliminary   = "preliminary"
	ReportComprehensive = "comprehensive"
)

// RawInput is the boundary shape of a submission. Every field is optional
// so incomplete forms can still be scored.
type RawInput struct {
	ID            string          `json:"id,omitempty" yaml:"id,omitempty"`
	Organization  RawOrganization `json:"organization" yaml:"organization"`
	ReportType    string          `json:"reportType,omitempty" yaml:"reportType,omitempty" validate:"omitempty,oneof=preliminary comprehensive"`
	Questionnaire []DomainAnswer  `json:"questionnaire,omitempty" yaml:"questionnaire,omitempty" validate:"dive"`
	Matrix        []MatrixItem    `json:"matrix,omitempty" yaml:"matrix,omitempty" validate:"dive"`

	// SourcePath is set by the loader for file-based input.
	SourcePath string `json:"-" yaml:"-"`
}

// RawOrganization is the organization metadata block.
type RawOrganization struct {
	Name                string   `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,max=200"`
	Industry            string   `json:"industry,omitempty" yaml:"industry,omitempty" validate:"omitempty,max=100"`
	Size                string   `json:"size,omitempty" yaml:"size,omitempty" validate:"omitempty,oneof=micro small medium large enterprise"`
	ContactEmail        string   `json:"contactEmail,omitempty" yaml:"contactEmail,omitempty" validate:"omitempty,email"`
	OperationModes      []string `json:"operationModes,omitempty" yaml:"operationModes,omitempty" validate:"dive,required"`
	InfrastructureModes []string `json:"infrastructureModes,omitempty" yaml:"infrastructureModes,omitempty" validate:"dive,required"`
}

// DomainAnswer holds the control answers for one domain.
type DomainAnswer struct {
	Domain   string          `json:"domain" yaml:"domain" validate:"required"`
	Controls []ControlAnswer `json:"controls,omitempty" yaml:"controls,omitempty" validate:"dive"`
}

// ControlAnswer is a single checkbox/level answer. Implemented and Level
// are pointers so an unanswered field is distinguishable from false or 0.
type ControlAnswer struct {
	Control     string `json:"control" yaml:"control" validate:"required"`
	Implemented *bool  `json:"implemented,omitempty" yaml:"implemented,omitempty"`
	Level       *int   `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,min=0,max=5"`
}

// MatrixItem is one infrastructure component row of the control matrix.
type MatrixItem struct {
	Component string         `json:"component" yaml:"component" validate:"required"`
	Domains   []DomainAnswer `json:"domains,omitempty" yaml:"domains,omitempty" validate:"dive"`
}

// Organization is the normalized organization metadata.
type Organization struct {
	Name                string   `json:"name" yaml:"name"`
	Industry            string   `json:"industry" yaml:"industry"`
	Size                string   `json:"size,omitempty" yaml:"size,omitempty"`
	ContactEmail        string   `json:"contactEmail,omitempty" yaml:"contactEmail,omitempty"`
	OperationModes      []string `json:"operationModes,omitempty" yaml:"operationModes,omitempty"`
	InfrastructureModes []string `json:"infrastructureModes,omitempty" yaml:"infrastructureModes,omitempty"`
}

// ControlEvidence is the resolved tier for one catalog control.
type ControlEvidence struct {
	ControlID string       `json:"controlId" yaml:"controlId"`
	Reported  catalog.Tier `json:"reported" yaml:"reported"`
	Answered  bool         `json:"answered" yaml:"answered"`
}

// DomainEvidence lists every control of a catalog domain in catalog order.
type DomainEvidence struct {
	DomainID string            `json:"domainId" yaml:"domainId"`
	Controls []ControlEvidence `json:"controls" yaml:"controls"`
}

// Answered reports whether any control in the domain received an answer.
func (d DomainEvidence) Answered() bool {
	for _, c := range d.Controls {
		if c.Answered {
			return true
		}
	}
	return false
}

// Reported returns the tier recorded for controlID, or zero.
func (d DomainEvidence) Reported(controlID string) catalog.Tier {
	for _, c := range d.Controls {
		if c.ControlID == controlID {
			return c.Reported
		}
	}
	return catalog.TierNotImplemented
}

// Input is the fully populated assessment the engine scores. Every catalog
// domain and control is present, so evaluators never need nil checks.
type Input struct {
	ID           string           `json:"id,omitempty" yaml:"id,omitempty"`
	Organization Organization     `json:"organization" yaml:"organization"`
	ReportType   string           `json:"reportType" yaml:"reportType"`
	Domains      []DomainEvidence `json:"domains" yaml:"domains"`
	Components   []string         `json:"components,omitempty" yaml:"components,omitempty"`
}

// Domain looks up the evidence for a domain.
func (in *Input) Domain(id string) (DomainEvidence, bool) {
	for _, d := range in.Domains {
		if d.DomainID == id {
			return d, true
		}
	}
	return DomainEvidence{}, false
}
