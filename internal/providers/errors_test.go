package providers

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", 429, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"service unavailable", 503, true},
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"not found", 404, false},
		{"unprocessable", 422, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPStatus(tt.status, fmt.Errorf("status %d", tt.status))
			if got := IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient(%d) = %v, want %v", tt.status, got, tt.transient)
			}
			if got := IsFatal(err); got == tt.transient {
				t.Errorf("IsFatal(%d) = %v, want %v", tt.status, got, !tt.transient)
			}
		})
	}
}

func TestErrorClassificationSurvivesWrapping(t *testing.T) {
	base := Transient(errors.New("connection reset"))
	wrapped := fmt.Errorf("chapter 7: %w", base)

	if !IsTransient(wrapped) {
		t.Error("expected wrapped transient error to remain transient")
	}
	if IsFatal(wrapped) {
		t.Error("wrapped transient error should not be fatal")
	}

	fatal := fmt.Errorf("outline: %w", Fatal(errors.New("invalid request")))
	if !IsFatal(fatal) {
		t.Error("expected wrapped fatal error to remain fatal")
	}
	if IsTransient(fatal) {
		t.Error("wrapped fatal error should not be transient")
	}
}

func TestErrorUnwrap(t *testing.T) {
	sentinel := errors.New("boom")
	if !errors.Is(Transient(sentinel), sentinel) {
		t.Error("Transient should unwrap to the underlying error")
	}
	if !errors.Is(Fatal(sentinel), sentinel) {
		t.Error("Fatal should unwrap to the underlying error")
	}
}
