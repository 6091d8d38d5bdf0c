package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	apperrors "datapoint-service/pkg/errors"
)

// DecodeJSON decodes a request body into v. Unparsable input yields a
// MESSAGE_NOT_READABLE error; a value of the wrong JSON type for a known
// field yields an INVALID_ARGUMENT error naming that field.
func DecodeJSON(body io.Reader, v interface{}) error {
	if body == nil {
		return apperrors.NewMessageNotReadableError(io.EOF)
	}

	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError(apperrors.FieldError{
			Field:   typeErr.Field,
			Reason:  apperrors.ReasonInvalidFormat,
			Message: fmt.Sprintf("Value not recognized as %s, got %s", describeKind(typeErr.Type), typeErr.Value),
		}).WithCause(err)
	}

	return apperrors.NewMessageNotReadableError(err)
}

func describeKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return t.String()
	}
}
