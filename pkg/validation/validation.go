// Package validation runs go-playground/validator rules, the same engine gin
// binding uses, and reports failures as field-scoped apperror values keyed
// by the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"dealership/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = New()

// New returns a validator reading `binding` tags, like gin's, and naming
// fields after their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	UseJSONNames(v)
	return v
}

// UseJSONNames makes v report the json name of a failing field.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
}

// Struct checks s against its binding tags.
func Struct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return FromError(err)
	}
	return nil
}

// Var reports whether value satisfies tag, e.g. "email" or "max=50".
func Var(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

// FromError turns validator failures into a VALIDATION_FAILED error with one
// message per field. Any other error is a body that could not be decoded.
func FromError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.CodeValidation, "Invalid request body", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = Message(fe)
		}
	}
	return apperror.Validation(fields)
}

// Message renders fe for the applicant.
func Message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "eq", "eq_ignore_case":
		return fmt.Sprintf("%s must be %s", label, strings.ToUpper(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return "Invalid " + strings.ToLower(label)
}

var acronyms = map[string]string{"id": "ID", "utr": "UTR", "upi": "UPI", "pan": "PAN", "gst": "GST", "url": "URL"}

// Label turns a json field name such as utrNumber into "UTR number".
func Label(name string) string {
	var words []string
	start := 0
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, name[start:i])
			start = i
		}
	}
	words = append(words, name[start:])

	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case lower == "":
		case acronyms[lower] != "":
			words[i] = acronyms[lower]
		case i == 0:
			words[i] = strings.ToUpper(lower[:1]) + lower[1:]
		default:
			words[i] = lower
		}
	}
	return strings.Join(words, " ")
}
