package serde

import "errors"

// Load errors
var (
	ErrTypeMismatch = errors.New("discriminator does not match any variant allowed here")
	ErrMissingKind  = errors.New("structural value has no discriminator")
	ErrMalformed    = errors.New("malformed structural value")
)

// Registry errors
var (
	ErrUnregistered  = errors.New("kind is not registered")
	ErrDuplicateKind = errors.New("kind is already registered")
	ErrKindMismatch  = errors.New("object type does not match the schema registered for its kind")
	ErrErasureRisk   = errors.New("polymorphic field declared with an erasing base slot")
	ErrInvalidSchema = errors.New("invalid schema")
	ErrUnknownFormat = errors.New("unknown encoding format")
)
