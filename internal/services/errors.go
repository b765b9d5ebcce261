package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool       = errors.New("external tool error")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotFound           = errors.New("not found")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrCancelled          = errors.New("cancelled")
	ErrTransient          = errors.New("transient failure")
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

// IsFatal reports whether err should stop the whole run rather than a single task.
func IsFatal(err error) bool {
	return errors.Is(err, ErrExecutableNotFound) || errors.Is(err, ErrConfiguration)
}

// Hint returns a short operator-facing suggestion for err, or "" when none applies.
func Hint(err error, binary string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExecutableNotFound):
		if binary == "" {
			binary = "ffmpeg"
		}
		return fmt.Sprintf("Is '%s' installed on your system?", binary)
	case errors.Is(err, ErrConfiguration):
		return "run 'ffqueue config validate'"
	case errors.Is(err, ErrValidation):
		return "check the preset command syntax"
	case errors.Is(err, ErrCancelled):
		return ""
	default:
		return "check the run log for details"
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
