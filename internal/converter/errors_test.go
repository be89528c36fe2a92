package converter

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindClassification, "classification"},
		{KindDecode, "decode"},
		{KindEncodeUnavailable, "encode-unavailable"},
		{KindResource, "resource"},
		{Kind(42), "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecodeErrorNamesFile(t *testing.T) {
	err := &Error{
		Kind: KindDecode,
		Unit: "heif",
		File: "vacation.heic",
		Err:  fmt.Errorf("truncated box header"),
	}

	msg := err.Error()
	if !strings.Contains(msg, "vacation.heic") {
		t.Errorf("decode error %q does not name the offending file", msg)
	}
	if !strings.Contains(msg, "truncated box header") {
		t.Errorf("decode error %q does not carry the underlying cause", msg)
	}
}

func TestEncodeUnavailableErrorSuggestsFallback(t *testing.T) {
	err := &Error{
		Kind:      KindEncodeUnavailable,
		Unit:      "heif",
		Out:       "heic",
		Missing:   "heic",
		Fallbacks: []string{"png", "jpeg"},
	}

	msg := err.Error()
	if !strings.Contains(msg, "heic") {
		t.Errorf("error %q does not name the missing capability", msg)
	}
	if !strings.Contains(msg, "png") {
		t.Errorf("error %q does not suggest a fallback format", msg)
	}
}

func TestClassificationErrorNamesPair(t *testing.T) {
	err := &Error{Kind: KindClassification, Unit: "icon", In: "wav", Out: "mp3"}

	msg := err.Error()
	if !strings.Contains(msg, "wav") || !strings.Contains(msg, "mp3") {
		t.Errorf("classification error %q does not name the format pair", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindResource, Unit: "audio", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var convErr *Error
	wrapped := fmt.Errorf("request failed: %w", err)
	if !errors.As(wrapped, &convErr) {
		t.Fatal("errors.As should find *Error through wrapping")
	}
	if convErr.Kind != KindResource {
		t.Errorf("Kind = %v, want KindResource", convErr.Kind)
	}
}
