package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrValidation marks rejected input: bad parameters, empty uploads,
	// unsupported target languages. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrFormat marks subtitle text the parser cannot decompose into
	// index/timestamp/content blocks. Never retried.
	ErrFormat = errors.New("format error")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrContextDetection marks context detection failing after retry
	// exhaustion. Fatal for the whole job.
	ErrContextDetection = errors.New("context detection error")
	// ErrChunkTranslation marks a chunk that exhausted its translation
	// attempts. Isolated per chunk and reported through statistics.
	ErrChunkTranslation = errors.New("chunk translation error")
	// ErrUnavailable marks the translation backend being unreachable at
	// setup time.
	ErrUnavailable = errors.New("capability unavailable")
	// ErrTransient tags failures worth a retry: timeouts, rate limits, and
	// transient upstream errors. Anything without this marker is treated as
	// permanent and ends the attempt loop immediately.
	ErrTransient = errors.New("transient failure")
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

type retryDelayError struct {
	err   error
	delay time.Duration
}

func (e *retryDelayError) Error() string { return e.err.Error() }

func (e *retryDelayError) Unwrap() error { return e.err }

// WithRetryDelay attaches a server-suggested pause to a transient failure,
// typically taken from a Retry-After header. Zero or negative delays leave
// the error unchanged.
func WithRetryDelay(err error, delay time.Duration) error {
	if err == nil || delay <= 0 {
		return err
	}
	return &retryDelayError{err: err, delay: delay}
}

// RetryDelay extracts the pause attached by WithRetryDelay.
func RetryDelay(err error) (time.Duration, bool) {
	var delayErr *retryDelayError
	if errors.As(err, &delayErr) {
		return delayErr.delay, true
	}
	return 0, false
}

// IsRetryable reports whether an error should consume a retry attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrFormat) {
		return false
	}
	return errors.Is(err, ErrTransient)
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
