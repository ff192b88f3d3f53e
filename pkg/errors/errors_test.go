package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidDescriptor, "test message: %s", "value")

	if err.Code != ErrCodeInvalidDescriptor {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidDescriptor)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_DESCRIPTOR: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeIO, cause, "failed to persist")

	if err.Code != ErrCodeIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIO)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidDescriptor, "test"),
			code:     ErrCodeInvalidDescriptor,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidDescriptor, "test"),
			code:     ErrCodeDependencyCycle,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeIO, New(ErrCodeInvalidDescriptor, "inner"), "outer"),
			code:     ErrCodeIO,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "fmt wrapped structured error",
			err:      fmt.Errorf("context: %w", New(ErrCodeMissingDependency, "inner")),
			code:     ErrCodeMissingDependency,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeVersionMismatch, "test")); got != ErrCodeVersionMismatch {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeVersionMismatch)
	}

	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode() = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidDescriptor, "bad descriptor")
	if got := UserMessage(err); got != "bad descriptor" {
		t.Errorf("UserMessage() = %v, want %v", got, "bad descriptor")
	}

	plain := errors.New("plain message")
	if got := UserMessage(plain); got != "plain message" {
		t.Errorf("UserMessage() = %v, want %v", got, "plain message")
	}
}
