package domain

import (
	"errors"
	"fmt"
)

// Kind classifies forwarding failures.
type Kind string

const (
	KindConfiguration  Kind = "ConfigurationError"
	KindAuthentication Kind = "AuthenticationError"
	KindTransport      Kind = "TransportError"
	KindWrite          Kind = "WriteError"
)

// Caller facing fallback messages.
const (
	MessageConfigurationIncomplete = "Backend configuration incomplete"
	MessageTokenRefreshFailed      = "Failed to refresh Zoho access token"
	MessageWriteFailed             = "Failed to add row to Zoho Sheet"
)

// Error is a terminal failure of a single forward attempt.
// Message is safe to return to the caller; Detail holds the raw provider
// response and is only meant for server-side logs.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var fwdErr *Error
	if errors.As(err, &fwdErr) {
		return fwdErr.Kind, true
	}
	return "", false
}

// PublicMessage returns the text that may be shown to the caller.
func PublicMessage(err error) string {
	var fwdErr *Error
	if errors.As(err, &fwdErr) && fwdErr.Message != "" {
		return fwdErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
