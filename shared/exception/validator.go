package exception

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON/form names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Validator exposes the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// FieldMessage renders a single field failure for the envelope message.
func FieldMessage(fe validator.FieldError) string {
	return fe.Field() + ": " + tagMessage(fe)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	case "oneof":
		return "Value must be one of " + fe.Param()
	case "eqfield":
		return "Value must equal " + fe.Param()
	default:
		return "Invalid value"
	}
}

// ValidateStruct runs struct validation and reports failures as an
// ArgumentNotValidError.
func ValidateStruct(obj any) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ArgumentNotValidError{Errs: verrs}
	}
	return err
}

// CheckVar validates a single service argument and reports failures as a
// ConstraintViolationError.
func CheckVar(name string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, name+": "+tagMessage(fe))
	}
	return &ConstraintViolationError{Violations: violations}
}
