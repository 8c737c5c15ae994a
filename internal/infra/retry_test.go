package infra_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"smart-home-assistant/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return &infra.StatusError{Service: "llm", Code: http.StatusServiceUnavailable}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestWithRetry_StopsOnClientError(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return fmt.Errorf("calling: %w", &infra.StatusError{Service: "llm", Code: http.StatusUnauthorized})
	})

	var statusErr *infra.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Errorf("err: got %v, want 401 status error", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestWithRetry_StopsOnContextError(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return context.DeadlineExceeded
	})

	if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
		t.Errorf("got err=%v calls=%d, want deadline after 1 call", err, calls)
	}
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		calls++
		return fmt.Errorf("attempt %d", calls)
	})

	if err == nil || err.Error() != "attempt 3" {
		t.Errorf("err: got %v, want attempt 3", err)
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	tests := map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
	}
	for code, want := range tests {
		if got := infra.IsRetryableHTTPStatus(code); got != want {
			t.Errorf("IsRetryableHTTPStatus(%d): got %t, want %t", code, got, want)
		}
	}
}
