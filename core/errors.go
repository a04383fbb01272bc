package core

import "errors"

// Dispatch errors
var (
	ErrNoHandler          = errors.New("no handler for message")
	ErrCapabilityNotFound = errors.New("actor does not provide capability")
	ErrHandlerMismatch    = errors.New("handler registered for a different actor or message type")
)

// Engine errors
var (
	ErrNotActive     = errors.New("actor is not active")
	ErrAlreadyActive = errors.New("actor is already active")
	ErrScopeClosed   = errors.New("scope is already closed")
	ErrStepLimit     = errors.New("propagation step limit exceeded")
	ErrNilMessage    = errors.New("nil message")
)

// Reply errors
var (
	ErrNoReply = errors.New("expected at least one reply")
)
