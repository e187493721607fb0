package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// OptionalMaxTag is the tag of the optional maximum length rule. The rule is
// skipped for empty values, so an empty required field reports only the
// "required" violation.
const OptionalMaxTag = "optmax"

// Validator validates request payloads and reports every violation as a
// human-readable "<field> <reason>" message.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. Reported field names come from the json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation(OptionalMaxTag, optionalMaxLength)

	return &Validator{validate: v}
}

// Struct validates s and returns the violation messages in field declaration
// order. A nil slice means s is valid.
func (v *Validator) Struct(s any) ([]string, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, message(e))
	}
	return messages, nil
}

// message converts a single field error into its human-readable form.
func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", e.Field())
	case "email":
		return fmt.Sprintf("%s must be an email", e.Field())
	case OptionalMaxTag, "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// optionalMaxLength passes for empty strings and for strings of at most
// param code points.
func optionalMaxLength(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}

	value := field.String()
	if value == "" {
		return true
	}

	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("validation: bad %s parameter %q", OptionalMaxTag, fl.Param()))
	}

	return utf8.RuneCountInString(value) <= limit
}
