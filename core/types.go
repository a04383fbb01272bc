package core

import (
	"time"

	"github.com/google/uuid"
)

// ActorID identifies an Actor. Messages refer to actors only by ActorID.
type ActorID string

// NewActorID generates a unique ActorID.
func NewActorID() ActorID {
	return ActorID(uuid.NewString())
}

// MessageID identifies a Message.
type MessageID string

// NewMessageID generates a unique MessageID.
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// Kinds and families of the built-in variants.
const (
	ActorKind   = "actor"
	NetworkKind = "network"
	MessageKind = "message"

	ActorFamily   = "actor"
	MessageFamily = "message"
)

// ActorStats contains dispatch statistics for one Actor.
type ActorStats struct {
	// ID of the Actor
	ID ActorID

	// Kind of the Actor
	Kind string

	// Messages dispatched to the Actor
	Delivered uint64

	// Replies yielded by the Actor's handlers
	Emitted uint64

	// Messages the Actor had no handler for
	Unhandled uint64

	// Handler invocations that ended in an error
	Failed uint64

	// Last time a message was dispatched to the Actor
	LastMessageAt time.Time
}
