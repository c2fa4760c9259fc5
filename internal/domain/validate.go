package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// FieldErrors turns validator errors into field to message pairs.
// The second result is false when err is not a validation failure.
func FieldErrors(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	return fields, true
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "must not be blank"
	case "max":
		return fmt.Sprintf("size must be between 0 and %s", e.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(e.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
