package llm

import "errors"

// Kind classifies failures so callers can map them to user-facing outcomes
// without string matching.
type Kind string

const (
	KindConfig   Kind = "config"
	KindAuth     Kind = "auth"
	KindQuota    Kind = "quota"
	KindAccess   Kind = "access"
	KindProvider Kind = "provider"
)

// Error is a classified failure from the generation pipeline.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NewError returns a classified error with the given message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the classification of err, or KindProvider for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProvider
}
