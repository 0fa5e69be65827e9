// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrMediaType    = errors.New("unsupported media type")
)

// FieldErrors reports request fields that failed validation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (f FieldErrors) Unwrap() error { return ErrValidation }

// ConflictError is a uniqueness violation that can echo the row already holding the key.
type ConflictError struct {
	Detail   string
	Existing any
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return ErrDuplicate.Error()
	}
	return e.Detail
}

// Unwrap lets errors.Is match ErrDuplicate.
func (e *ConflictError) Unwrap() error { return ErrDuplicate }

// Invalid builds a validation error for a single field.
func Invalid(field, message string) error {
	return FieldErrors{field: message}
}

// NotFound wraps ErrNotFound with the resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fields FieldErrors
	var conflict *ConflictError
	switch {
	case errors.As(err, &fields):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: ErrValidation.Error(),
			Errors: fields,
		})
	case errors.As(err, &conflict):
		JSON(w, http.StatusConflict, ProblemDetail{
			Title:    "Duplicate",
			Status:   http.StatusConflict,
			Detail:   conflict.Error(),
			Existing: conflict.Existing,
		})
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrMediaType):
		Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// IsClientError reports whether err maps to a 4xx response.
func IsClientError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrDuplicate, ErrValidation, ErrForbidden, ErrUnauthorized, ErrMediaType} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
