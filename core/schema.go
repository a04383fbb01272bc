package core

import "github.com/najoast/troupe/serde"

// Slots for polymorphic actor and message fields.
var (
	// AnyActor accepts every registered actor kind and honors the stored discriminator.
	AnyActor = serde.Family(ActorFamily)

	// AnyMessage accepts every registered message kind and honors the stored discriminator.
	AnyMessage = serde.Family(MessageFamily)

	// ErasedActor reloads any actor as a BaseActor.
	ErasedActor = serde.Base(ActorKind)

	// ErasedMessage reloads any message as a BaseMessage.
	ErasedMessage = serde.Base(MessageKind)
)

// SlotMode selects the slots the built-in kinds declare for their own
// members and parents.
type SlotMode int

const (
	// Preserving declares them as AnyActor and AnyMessage.
	Preserving SlotMode = iota

	// Erasing declares them as ErasedActor and ErasedMessage, so an erased
	// ancestor rebuilt as a BaseMessage erases its own ancestors as well.
	Erasing
)

func (m SlotMode) String() string {
	if m == Erasing {
		return "erasing"
	}
	return "preserving"
}

// Members returns the slot for network members under m.
func (m SlotMode) Members() serde.Slot {
	if m == Erasing {
		return ErasedActor
	}
	return AnyActor
}

// Parent returns the slot for message parents under m.
func (m SlotMode) Parent() serde.Slot {
	if m == Erasing {
		return ErasedMessage
	}
	return AnyMessage
}

// ActorSchema describes an actor kind.
func ActorSchema[A Actor](kind string, newActor func() A, fields ...serde.Field) serde.Schema {
	return serde.Schema{
		Kind:   kind,
		Family: ActorFamily,
		New:    func() serde.Object { return newActor() },
		Fields: fields,
	}
}

// NetworkSchema describes a network kind whose members reload through members.
func NetworkSchema[N Grouped](kind string, newNetwork func() N, members serde.Slot, fields ...serde.Field) serde.Schema {
	return ActorSchema(kind, newNetwork, append([]serde.Field{MembersField[N](members)}, fields...)...)
}

// MessageSchema describes a message kind whose parent reloads through parent.
func MessageSchema[M Message](kind string, newMessage func() M, parent serde.Slot, fields ...serde.Field) serde.Schema {
	return serde.Schema{
		Kind:   kind,
		Family: MessageFamily,
		New:    func() serde.Object { return newMessage() },
		Fields: append([]serde.Field{ParentField[M](parent)}, fields...),
	}
}

// MembersField declares the member sequence of a Grouped actor.
func MembersField[N Grouped](slot serde.Slot) serde.Field {
	return serde.Many("members", slot,
		func(n N) []Actor { return n.Net().Members },
		func(n N, members []Actor) { n.Net().Members = members })
}

// ParentField declares the parent link of a message.
func ParentField[M Message](slot serde.Slot) serde.Field {
	return serde.One("parent", slot,
		func(m M) Message { return m.Head().Parent },
		func(m M, parent Message) { m.Head().Parent = parent })
}

// Register adds the built-in kinds to reg, declaring their own members
// and parents under mode.
func Register(reg *serde.Registry, mode SlotMode) error {
	return reg.Register(
		ActorSchema(ActorKind, func() *BaseActor { return &BaseActor{} }),
		NetworkSchema(NetworkKind, func() *Network { return &Network{} }, mode.Members()),
		MessageSchema(MessageKind, func() *BaseMessage { return &BaseMessage{} }, mode.Parent()),
	)
}

// DumpActor dumps an actor subtree.
func DumpActor(reg *serde.Registry, a Actor) (serde.Node, error) {
	return reg.Dump(a)
}

// LoadActor reloads an actor subtree of type A declared as slot.
func LoadActor[A Actor](reg *serde.Registry, n serde.Node, slot serde.Slot) (A, error) {
	return serde.LoadAs[A](reg, n, slot)
}

// DumpMessage dumps a message and its ancestry.
func DumpMessage(reg *serde.Registry, m Message) (serde.Node, error) {
	return reg.Dump(m)
}

// LoadMessage reloads a message of type M declared as slot.
func LoadMessage[M Message](reg *serde.Registry, n serde.Node, slot serde.Slot) (M, error) {
	return serde.LoadAs[M](reg, n, slot)
}
