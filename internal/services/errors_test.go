package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrValidation, "parser", "parse", "empty file", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	want := "validation error: parser: parse: empty file"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrTransient, "gemini", "translate", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", Wrap(ErrTransient, "gemini", "translate", "timeout", nil), true},
		{"validation", Wrap(ErrValidation, "parser", "parse", "bad input", nil), false},
		{"format", Wrap(ErrFormat, "parser", "parse", "no timestamp", nil), false},
		{"plain", errors.New("unclassified"), false},
		{"transient wrapping validation", fmt.Errorf("%w: %w", ErrTransient, ErrValidation), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryDelayRoundTrip(t *testing.T) {
	base := Wrap(ErrTransient, "svc", "call", "", nil)
	hinted := WithRetryDelay(base, 3*time.Second)

	if delay, ok := RetryDelay(hinted); !ok || delay != 3*time.Second {
		t.Fatalf("expected 3s delay, got %v ok=%v", delay, ok)
	}
	if !IsRetryable(hinted) {
		t.Fatal("hint must not change retry classification")
	}
	if _, ok := RetryDelay(base); ok {
		t.Fatal("expected no delay on unhinted error")
	}
	if WithRetryDelay(base, 0) != base {
		t.Fatal("zero delay should leave the error unchanged")
	}
	if WithRetryDelay(nil, time.Second) != nil {
		t.Fatal("nil error should stay nil")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	id, ok := RequestIDFromContext(ctx)
	if !ok || id != "req-42" {
		t.Fatalf("expected request id, got %q ok=%v", id, ok)
	}
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Fatal("expected no request id on fresh context")
	}
}
