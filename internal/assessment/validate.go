package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sos2a/assessment/internal/catalog"
)

// FieldError locates one offending input field.
type FieldError struct {
	Path       string `json:"path"`
	Constraint string `json:"constraint"`
	Param      string `json:"param,omitempty"`
	Message    string `json:"message"`
}

// ValidationError carries every field error found in a submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "invalid assessment: " + e.Fields[0].Message
	}
	return fmt.Sprintf("invalid assessment: %d field errors (first: %s)", len(e.Fields), e.Fields[0].Message)
}

func (e *ValidationError) add(path, constraint, param, msg string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Constraint: constraint, Param: param, Message: msg})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks raw against its struct constraints and against cat.
// It returns nil or a *ValidationError listing every problem found.
func Validate(raw *RawInput, cat *catalog.Catalog) error {
	verr := &ValidationError{}

	if err := validate.Struct(raw); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return fmt.Errorf("validating assessment: %w", err)
		}
		for _, fe := range ves {
			path := trimRoot(fe.Namespace())
			verr.add(path, fe.Tag(), fe.Param(), describe(path, fe.Tag(), fe.Param()))
		}
	}

	for i, da := range raw.Questionnaire {
		checkDomain(verr, cat, fmt.Sprintf("questionnaire[%d]", i), da)
	}
	for i, item := range raw.Matrix {
		for j, da := range item.Domains {
			checkDomain(verr, cat, fmt.Sprintf("matrix[%d].domains[%d]", i, j), da)
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func checkDomain(verr *ValidationError, cat *catalog.Catalog, prefix string, da DomainAnswer) {
	if da.Domain == "" {
		return // reported by the required tag
	}
	d, ok := cat.Domain(da.Domain)
	if !ok {
		verr.add(prefix+".domain", "domain", "", fmt.Sprintf("%s.domain: unknown domain %q", prefix, da.Domain))
		return
	}
	for k, ca := range da.Controls {
		if ca.Control == "" {
			continue
		}
		if _, ok := d.Control(ca.Control); !ok {
			path := fmt.Sprintf("%s.controls[%d].control", prefix, k)
			verr.add(path, "control", d.ID, fmt.Sprintf("%s: unknown control %q in domain %q", path, ca.Control, d.ID))
		}
	}
}

// trimRoot drops the struct type name validator prefixes onto namespaces.
func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(path, tag, param string) string {
	switch tag {
	case "required":
		return path + ": is required"
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", path, param)
	case "min":
		return fmt.Sprintf("%s: must be at least %s", path, param)
	case "max":
		return fmt.Sprintf("%s: must be at most %s", path, param)
	case "email":
		return path + ": must be a valid email address"
	default:
		return fmt.Sprintf("%s: failed %q constraint", path, tag)
	}
}
