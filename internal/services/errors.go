package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks fatal caller mistakes: undetectable media type,
	// unsupported hints, missing processors.
	ErrInput = errors.New("input error")
	// ErrProvider marks a single provider plugin failure. Recoverable via
	// the fallback chain.
	ErrProvider = errors.New("provider error")
	// ErrUnavailable marks a capability with no working provider left.
	ErrUnavailable = errors.New("capability unavailable")
	// ErrConfiguration marks missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks an operation that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the whole job rather than
// degrade a single stage.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInput) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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
