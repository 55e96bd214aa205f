package domain

import (
	"errors"
)

// ErrorKind classifies failures that escape a handler.
type ErrorKind string

const (
	KindInternal       ErrorKind = "internal"
	KindConfig         ErrorKind = "config"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindUpstream       ErrorKind = "upstream"
)

// Error is a classified error whose message is safe to return to callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ConfigError reports missing credentials or environment.
func ConfigError(msg string) error {
	return &Error{Kind: KindConfig, Message: msg}
}

// RequestError reports malformed or incomplete caller input.
func RequestError(msg string) error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

// UpstreamError reports an external collaborator that failed hard.
func UpstreamError(msg string, cause error) error {
	return &Error{Kind: KindUpstream, Message: msg, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
