package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptySource  = errors.New("empty source")
	ErrSamplingSize = errors.New("sample larger than population")
	ErrEmptyInput   = errors.New("empty input")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindEmptySource  ErrorKind = "empty_source"
	KindSamplingSize ErrorKind = "sampling_size"
	KindEmptyInput   ErrorKind = "empty_input"
)

var kindSentinels = map[ErrorKind]error{
	KindNotFound:     ErrNotFound,
	KindEmptySource:  ErrEmptySource,
	KindSamplingSize: ErrSamplingSize,
	KindEmptyInput:   ErrEmptyInput,
}

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path or class ID
	Err  error
}

// NewOpError builds an OpError whose cause defaults to the sentinel for kind.
func NewOpError(op string, kind ErrorKind, path string, err error) *OpError {
	if err == nil {
		err = kindSentinels[kind]
	}
	return &OpError{Op: op, Kind: kind, Path: path, Err: err}
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match the kind's sentinel even when Err is a lower-level cause.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// IsKind helps callers classify errors without depending on lower packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}
