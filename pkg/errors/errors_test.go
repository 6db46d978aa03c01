package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeAuth, 401, "session expired: %s", "please log in again")

	expected := "auth error (code 401): session expired: please log in again"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestErrorsAs(t *testing.T) {
	base := New(ErrorTypeRateLimit, 429, "rate limit exceeded")
	wrapped := fmt.Errorf("request failed: %w", base)

	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("Expected errors.As to unwrap *Error")
	}
	if apiErr.Type != ErrorTypeRateLimit {
		t.Errorf("Expected type %q, got %q", ErrorTypeRateLimit, apiErr.Type)
	}
	if apiErr.Code != 429 {
		t.Errorf("Expected code 429, got %d", apiErr.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		retryable bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeToken, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeUnknown, false},
	}

	for _, test := range tests {
		t.Run(string(test.errorType), func(t *testing.T) {
			if got := IsRetryable(test.errorType); got != test.retryable {
				t.Errorf("IsRetryable(%q) = %v, want %v", test.errorType, got, test.retryable)
			}
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		statusCode int
		retryable  bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{599, true},
		{401, false},
		{403, false},
		{404, false},
		{200, false},
		{400, false},
	}

	for _, test := range tests {
		if got := IsRetryableStatusCode(test.statusCode); got != test.retryable {
			t.Errorf("IsRetryableStatusCode(%d) = %v, want %v", test.statusCode, got, test.retryable)
		}
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		statusCode   int
		expectedType ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, test := range tests {
		err := FromStatusCode(test.statusCode, "test")
		if err.Type != test.expectedType {
			t.Errorf("FromStatusCode(%d) type = %q, want %q", test.statusCode, err.Type, test.expectedType)
		}
		if err.Code != test.statusCode {
			t.Errorf("FromStatusCode(%d) code = %d", test.statusCode, err.Code)
		}
	}
}
