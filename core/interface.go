package core

import (
	"iter"

	"github.com/najoast/troupe/serde"
)

// Message is an immutable, causally linked unit of communication.
// Concrete messages embed Header and are always handled by pointer.
type Message interface {
	serde.Object

	// Head returns the addressing and ancestry of the message.
	Head() *Header
}

// Actor is a stateful entity that receives Messages and may emit replies.
// Concrete actors embed Identity and are always handled by pointer.
type Actor interface {
	serde.Object

	// Addr returns the unique identifier of this Actor.
	Addr() ActorID

	// Handlers returns the dispatch table shared by every Actor of the
	// concrete type. State may only be mutated by the handlers in this
	// table.
	Handlers() *Handlers
}

// Grouped is implemented by actors that own an ordered set of members.
type Grouped interface {
	Actor

	// Net returns the underlying Network.
	Net() *Network
}

// Replies is the lazy reply sequence of a handler or a propagation.
// Iteration may stop at any point; handlers must return as soon as yield
// reports false.
type Replies = iter.Seq2[Message, error]

// Handler processes one message for the receiver it is dispatched to.
type Handler func(recv Actor, msg Message) Replies
