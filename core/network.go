package core

import "slices"

// Network is an Actor that owns an ordered sequence of member Actors.
// Member order is stable; handlers may address members by position.
type Network struct {
	Identity `mapstructure:",squash"`

	Members []Actor `mapstructure:"-"`
}

// NewNetwork creates a Network holding members in the given order.
func NewNetwork(members ...Actor) *Network {
	return &Network{
		Identity: NewIdentity(),
		Members:  slices.Clone(members),
	}
}

// Kind returns the discriminator of Network.
func (*Network) Kind() string {
	return NetworkKind
}

// Net returns n so embedding types satisfy Grouped.
func (n *Network) Net() *Network {
	return n
}

var networkHandlers = NewHandlers(nil)

// NetworkHandlers returns the table of the plain Network. It holds no
// handlers; embedding types extend it.
func NetworkHandlers() *Handlers {
	return networkHandlers
}

// Handlers returns NetworkHandlers.
func (*Network) Handlers() *Handlers {
	return networkHandlers
}

// Add appends actors to the member sequence.
func (n *Network) Add(actors ...Actor) {
	n.Members = append(n.Members, actors...)
}

// Remove drops the member with the given id.
func (n *Network) Remove(id ActorID) bool {
	i := slices.IndexFunc(n.Members, func(a Actor) bool { return a.Addr() == id })
	if i < 0 {
		return false
	}
	n.Members = slices.Delete(n.Members, i, i+1)
	return true
}

// Lookup finds a member by id.
func (n *Network) Lookup(id ActorID) (Actor, bool) {
	for _, a := range n.Members {
		if a.Addr() == id {
			return a, true
		}
	}
	return nil, false
}

// Contains reports whether id is a member.
func (n *Network) Contains(id ActorID) bool {
	_, ok := n.Lookup(id)
	return ok
}

// Directory returns the members indexed by id.
func (n *Network) Directory() map[ActorID]Actor {
	dir := make(map[ActorID]Actor, len(n.Members))
	for _, a := range n.Members {
		dir[a.Addr()] = a
	}
	return dir
}

// Receivers returns, in member order, the members able to handle any of
// kinds. With no kinds it returns every member.
func (n *Network) Receivers(kinds ...string) []Actor {
	if len(kinds) == 0 {
		return slices.Clone(n.Members)
	}
	var out []Actor
	for _, a := range n.Members {
		for _, kind := range kinds {
			if Handles(a, kind) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Fanout yields one reply to parent per member, in member order. build
// returns the payload for a member, or nil to skip it.
func (n *Network) Fanout(parent Message, build func(member Actor) Message) Replies {
	return func(yield func(Message, error) bool) {
		for _, member := range slices.Clone(n.Members) {
			m := build(member)
			if m == nil {
				continue
			}
			if !yield(ReplyTo(parent, m, n.Addr(), member.Addr()), nil) {
				return
			}
		}
	}
}
