package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so they can cross the wire and be handled
// by kind rather than by message.
type ErrorKind string

const (
	KindConfiguration      ErrorKind = "configuration"
	KindResolution         ErrorKind = "resolution"
	KindSoftDetector       ErrorKind = "soft_detector"
	KindHardDetector       ErrorKind = "hard_detector"
	KindTransport          ErrorKind = "transport"
	KindAction             ErrorKind = "action"
	KindTransientSubsystem ErrorKind = "transient_subsystem"
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind. A nil err yields nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or "" when err is unclassified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// Classify wraps err with kind unless it already carries a classification.
func Classify(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
