package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "context canceled", err: context.Canceled, statusCode: 0, expected: "canceled"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server error", err: errors.New("Internal Server Error"), statusCode: http.StatusInternalServerError, expected: "status"},
		{name: "rejected success status", err: errors.New("No Content"), statusCode: http.StatusNoContent, expected: "status"},
		{name: "bare status", err: nil, statusCode: http.StatusBadGateway, expected: "status"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestStatusErrorKeepsCode(t *testing.T) {
	err := StatusError(http.StatusServiceUnavailable)
	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusServiceUnavailable {
		t.Fatalf("StatusError(503) = %v, want ErrStatus{503}", err)
	}
	var noContent ErrStatus
	if err := classifyError(errors.New("No Content"), http.StatusNoContent); !errors.As(err, &noContent) || noContent.Code != http.StatusNoContent {
		t.Fatalf("classifyError(204) = %v, want ErrStatus{204}", err)
	}
	if StatusError(http.StatusOK) != nil {
		t.Fatal("StatusError(200) should be nil")
	}
}

func TestClassifiedErrorsUnwrap(t *testing.T) {
	err := classifyError(context.DeadlineExceeded, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timeout should unwrap to context.DeadlineExceeded: %v", err)
	}
	err = classifyError(nil, http.StatusNotFound)
	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusNotFound {
		t.Fatalf("not found should carry the status: %v", err)
	}
}
