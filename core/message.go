package core

import "iter"

// Header holds the fields shared by every Message.
type Header struct {
	// ID is assigned when the message is sent
	ID MessageID `mapstructure:"id"`

	// Sender is the Actor or external originator that produced the message
	Sender ActorID `mapstructure:"sender"`

	// Receiver is the Actor the message is dispatched to
	Receiver ActorID `mapstructure:"receiver"`

	// Parent is the message this one replies to, nil for an origin
	Parent Message `mapstructure:"-"`
}

// Head returns h itself so embedding types satisfy Message.
func (h *Header) Head() *Header {
	return h
}

// BaseMessage is the plain message variant. It carries no payload.
type BaseMessage struct {
	Header `mapstructure:",squash"`
}

// Kind returns the discriminator of BaseMessage.
func (*BaseMessage) Kind() string {
	return MessageKind
}

// Send assigns a fresh id and the addressing of m and returns it.
// m must not have been sent before.
func Send[M Message](m M, sender, receiver ActorID) M {
	h := m.Head()
	h.ID = NewMessageID()
	h.Sender = sender
	h.Receiver = receiver
	return m
}

// ReplyTo addresses m as a reply to parent. Payload that advances from
// parent must be copied into m; parent itself is never modified.
func ReplyTo[M Message](parent Message, m M, sender, receiver ActorID) M {
	Send(m, sender, receiver)
	m.Head().Parent = parent
	return m
}

// Ancestry yields the ancestors of m, nearest first.
func Ancestry(m Message) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		if m == nil {
			return
		}
		for p := m.Head().Parent; p != nil; p = p.Head().Parent {
			if !yield(p) {
				return
			}
		}
	}
}

// Root returns the origin of the causal chain m belongs to.
func Root(m Message) Message {
	root := m
	for p := range Ancestry(m) {
		root = p
	}
	return root
}
