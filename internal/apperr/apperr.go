// Package apperr defines the typed error taxonomy shared across the agent's
// components. Every component-local error is wrapped into one of these kinds
// before it crosses a package boundary, so callers can branch on Kind with
// errors.Is/errors.As instead of string-matching messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an Error with the taxonomy entry it belongs to.
type Kind string

const (
	KindExtraction  Kind = "extraction_error"
	KindNoText      Kind = "no_text_error"
	KindEmbedding   Kind = "embedding_error"
	KindVectorStore Kind = "vector_store_error"
	KindWebSearch   Kind = "web_search_error"
	KindLLM         Kind = "llm_error"
	KindTimeout     Kind = "timeout"
	KindConsent     Kind = "consent_required"
	KindClassifier  Kind = "classifier_error"
	KindConfig      Kind = "config_error"
	KindSpeech      Kind = "speech_error"
)

// Error is a tagged-variant error: a Kind plus a message plus an optional
// wrapped cause. It satisfies the standard errors.Is/As protocol via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, apperr.New(apperr.KindTimeout, "", nil)) or, more
// idiomatically, use apperr.Is(err, apperr.KindTimeout).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
