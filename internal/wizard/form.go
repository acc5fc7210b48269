// Package wizard drives ordered, step-validated data entry: the public
// dealership application form and the back-office status dialog. Validation
// is pure and shared with the server, which checks submissions with the same
// rules.
package wizard

import (
	"regexp"
	"strconv"
	"strings"

	"dealership/pkg/validation"

	"github.com/shopspring/decimal"
)

// Values holds raw form input keyed by field name.
type Values map[string]string

// Clone returns an independent copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// FieldErrors maps a field name to its message. Empty means valid.
type FieldErrors map[string]string

// Rule checks a non-empty value and returns a message, or "" when valid.
type Rule func(value string) string

// Field is one input on a step. Max, when set, caps the length in
// characters.
type Field struct {
	Name     string
	Label    string
	Optional bool
	Max      int
	Rules    []Rule
}

// Step groups the fields validated together before the wizard may advance.
// Check, when set, runs cross-field rules after the per-field ones.
type Step struct {
	Name   string
	Fields []Field
	Check  func(values Values) FieldErrors
}

// Form is an ordered list of steps. The last step is where submission happens.
type Form struct {
	Steps []Step
}

// Last is the index of the final step.
func (f Form) Last() int { return len(f.Steps) - 1 }

// ValidateStep runs the rules of step i only.
func (f Form) ValidateStep(i int, values Values) FieldErrors {
	errs := FieldErrors{}
	if i < 0 || i >= len(f.Steps) {
		return errs
	}
	step := f.Steps[i]
	for _, field := range step.Fields {
		value := strings.TrimSpace(values[field.Name])
		if value == "" {
			if !field.Optional {
				errs[field.Name] = field.Label + " is required"
			}
			continue
		}
		if field.Max > 0 && !validation.Var(value, "max="+strconv.Itoa(field.Max)) {
			errs[field.Name] = field.Label + " must be at most " + strconv.Itoa(field.Max) + " characters"
			continue
		}
		for _, rule := range field.Rules {
			if msg := rule(value); msg != "" {
				errs[field.Name] = msg
				break
			}
		}
	}
	if step.Check != nil {
		for name, msg := range step.Check(values) {
			if _, exists := errs[name]; !exists {
				errs[name] = msg
			}
		}
	}
	return errs
}

// ValidateAll runs every step and merges the errors.
func (f Form) ValidateAll(values Values) FieldErrors {
	errs := FieldErrors{}
	for i := range f.Steps {
		for name, msg := range f.ValidateStep(i, values) {
			errs[name] = msg
		}
	}
	return errs
}

// Matches accepts values matching pattern in full.
func Matches(pattern *regexp.Regexp, message string) Rule {
	return func(value string) string {
		if !pattern.MatchString(value) {
			return message
		}
		return ""
	}
}

// Email accepts a bare address such as raj@x.com.
func Email(message string) Rule {
	return func(value string) string {
		if !validation.Var(value, "email") {
			return message
		}
		return ""
	}
}

// OneOf accepts only the listed options.
func OneOf(options []string, message string) Rule {
	return func(value string) string {
		for _, opt := range options {
			if value == opt {
				return ""
			}
		}
		return message
	}
}

// NonNegativeInt accepts whole numbers >= 0.
func NonNegativeInt(message string) Rule {
	return func(value string) string {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return message
		}
		return ""
	}
}

// NonNegativeNumber accepts decimal numbers >= 0. NaN and Inf are not
// numbers here.
func NonNegativeNumber(message string) Rule {
	return func(value string) string {
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return message
		}
		return ""
	}
}

// Below accepts numbers that, rounded to cents, stay under limit. Values
// that do not parse are left to NonNegativeNumber.
func Below(limit decimal.Decimal, message string) Rule {
	return func(value string) string {
		d, err := decimal.NewFromString(value)
		if err == nil && d.Round(2).GreaterThanOrEqual(limit) {
			return message
		}
		return ""
	}
}
