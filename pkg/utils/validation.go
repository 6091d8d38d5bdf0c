package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	apperrors "datapoint-service/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report JSON names so clients see the field they sent
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into a validation AppError
// with one entry per rejected field, ordered by field name
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fieldErrors := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, formatFieldError(e))
	}
	sort.SliceStable(fieldErrors, func(i, j int) bool {
		return fieldErrors[i].Field < fieldErrors[j].Field
	})

	return apperrors.NewValidationError(fieldErrors...)
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) apperrors.FieldError {
	fe := apperrors.FieldError{Field: e.Field()}

	switch e.Tag() {
	case "notblank":
		fe.Reason = apperrors.ReasonNotBlank
		fe.Message = "must not be blank"
	case "required":
		fe.Reason = apperrors.ReasonNotNull
		fe.Message = "must not be null"
	case "gt":
		if e.Param() == "0" {
			fe.Reason = apperrors.ReasonPositive
			fe.Message = "must be greater than 0"
		} else {
			fe.Reason = apperrors.ReasonInvalid
			fe.Message = fmt.Sprintf("must be greater than %s", e.Param())
		}
	case "max":
		fe.Reason = apperrors.ReasonInvalid
		fe.Message = fmt.Sprintf("size must be at most %s", e.Param())
	default:
		fe.Reason = apperrors.ReasonInvalid
		fe.Message = "is invalid"
	}

	return fe
}
