package converter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned when Convert is called on a unit whose probe
// has not completed successfully.
var ErrNotReady = errors.New("unit has not completed probing")

// Kind classifies conversion failures.
type Kind int

const (
	// KindClassification means the format pair matched none of the
	// decode, encode or passthrough branches.
	KindClassification Kind = iota
	// KindDecode means an input file could not be decoded.
	KindDecode
	// KindEncodeUnavailable means the host runtime declined to
	// produce the target format.
	KindEncodeUnavailable
	// KindResource means a required runtime resource could not be
	// acquired or the unit is not ready.
	KindResource
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindClassification:
		return "classification"
	case KindDecode:
		return "decode"
	case KindEncodeUnavailable:
		return "encode-unavailable"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is a conversion failure with enough context for a caller to act
// on: the offending input file for decode failures, the missing host
// capability and suggested fallback formats for encode failures.
type Error struct {
	Kind      Kind
	Unit      string
	File      string   // offending input file, when applicable
	In        string   // requested input format tag
	Out       string   // requested output format tag
	Missing   string   // absent host capability, for encode failures
	Fallbacks []string // always-available target formats to suggest
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindClassification:
		return fmt.Sprintf("%s: no conversion path from %s to %s", e.Unit, e.In, e.Out)
	case KindDecode:
		if e.Err != nil {
			return fmt.Sprintf("%s: failed to decode %q: %v", e.Unit, e.File, e.Err)
		}
		return fmt.Sprintf("%s: failed to decode %q", e.Unit, e.File)
	case KindEncodeUnavailable:
		msg := fmt.Sprintf("%s: host runtime cannot produce %s output", e.Unit, e.Out)
		if e.Missing != "" {
			msg += fmt.Sprintf(" (missing %s encoder)", e.Missing)
		}
		if len(e.Fallbacks) > 0 {
			msg += fmt.Sprintf("; try %s instead", strings.Join(e.Fallbacks, " or "))
		}
		return msg
	case KindResource:
		return fmt.Sprintf("%s: %v", e.Unit, e.Err)
	default:
		return fmt.Sprintf("%s: conversion failed: %v", e.Unit, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
