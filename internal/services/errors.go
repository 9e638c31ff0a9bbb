package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrRunAlreadyInProgress = errors.New("matching run already in progress")
	ErrLookupUnavailable    = errors.New("lookup unavailable")
	ErrPersistence          = errors.New("persistence failure")
	ErrExternal             = errors.New("external service error")
	ErrTimeout              = errors.New("timeout")
	ErrTransient            = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Failure kinds reported in run results and API responses.
const (
	KindValidation           = "validation"
	KindConfiguration        = "configuration"
	KindNotFound             = "not_found"
	KindInvalidTransition    = "invalid_transition"
	KindRunAlreadyInProgress = "run_in_progress"
	KindLookupUnavailable    = "lookup_unavailable"
	KindPersistence          = "persistence"
	KindExternal             = "external"
	KindInternal             = "internal"
)

// FailureKind maps an error to a stable, user-facing classification.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrRunAlreadyInProgress):
		return KindRunAlreadyInProgress
	case errors.Is(err, ErrLookupUnavailable), errors.Is(err, ErrTimeout):
		return KindLookupUnavailable
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrExternal), errors.Is(err, ErrTransient):
		return KindExternal
	default:
		return KindInternal
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
