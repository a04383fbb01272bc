package core

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Identity holds the id every Actor carries.
type Identity struct {
	ID ActorID `mapstructure:"id"`
}

// NewIdentity returns an Identity with a freshly generated id.
func NewIdentity() Identity {
	return Identity{ID: NewActorID()}
}

// Addr returns the id so embedding types satisfy Actor.
func (i *Identity) Addr() ActorID {
	return i.ID
}

// BaseActor is the plain actor variant. It handles no messages.
type BaseActor struct {
	Identity `mapstructure:",squash"`
}

// NewBaseActor creates a BaseActor, typically used as an external originator.
func NewBaseActor() *BaseActor {
	return &BaseActor{Identity: NewIdentity()}
}

// Kind returns the discriminator of BaseActor.
func (*BaseActor) Kind() string {
	return ActorKind
}

var baseHandlers = NewHandlers(nil)

// Handlers returns an empty table.
func (*BaseActor) Handlers() *Handlers {
	return baseHandlers
}

// HandlerName derives the handler name for a message kind.
func HandlerName(kind string) string {
	return "receive_" + strings.ToLower(kind)
}

// Handlers maps handler names to handlers for one actor type. Tables are
// built once per type, usually in a package-level variable, and shared by
// every instance. A table may chain to the table of the type it extends;
// lookup walks from the most specific table to the least.
type Handlers struct {
	parent *Handlers
	byName map[string]Handler
}

// NewHandlers creates a table extending parent, which may be nil.
func NewHandlers(parent *Handlers) *Handlers {
	return &Handlers{
		parent: parent,
		byName: make(map[string]Handler),
	}
}

// Lookup resolves the handler for a message kind.
func (h *Handlers) Lookup(kind string) (Handler, bool) {
	name := HandlerName(kind)
	for t := h; t != nil; t = t.parent {
		if fn, ok := t.byName[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Names returns every handler name reachable from h.
func (h *Handlers) Names() []string {
	seen := make(map[string]struct{})
	for t := h; t != nil; t = t.parent {
		for name := range t.byName {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle registers fn for the concrete message type M, replacing any
// handler h already holds for that kind. M must be a pointer type. The
// receiver is passed to fn as A; a table meant to be inherited should use
// an interface for A that the extending types satisfy through embedding.
func Handle[A Actor, M Message](h *Handlers, fn func(A, M) Replies) *Handlers {
	kind := kindOf[M]()
	name := HandlerName(kind)
	h.byName[name] = func(recv Actor, msg Message) Replies {
		a, ok := recv.(A)
		if !ok {
			return Fail(fmt.Errorf("%w: %s cannot run on %T", ErrHandlerMismatch, name, recv))
		}
		m, ok := msg.(M)
		if !ok {
			return Fail(fmt.Errorf("%w: %s cannot take %T", ErrHandlerMismatch, name, msg))
		}
		return fn(a, m)
	}
	return h
}

func kindOf[M Message]() string {
	t := reflect.TypeFor[M]()
	if t.Kind() != reflect.Pointer {
		panic(fmt.Sprintf("core: handlers need a pointer message type, got %s", t))
	}
	return reflect.New(t.Elem()).Interface().(M).Kind()
}

// Receive dispatches m to the handler a's concrete type defines for m's
// concrete type. A missing handler yields nothing.
func Receive(a Actor, m Message) Replies {
	if m == nil {
		return Fail(ErrNilMessage)
	}
	fn, ok := resolve(a, m)
	if !ok {
		return NoReplies()
	}
	return fn(a, m)
}

// Handles reports whether a has a handler for messages of kind.
func Handles(a Actor, kind string) bool {
	table := a.Handlers()
	if table == nil {
		return false
	}
	_, ok := table.Lookup(kind)
	return ok
}

func resolve(a Actor, m Message) (Handler, bool) {
	table := a.Handlers()
	if table == nil {
		return nil, false
	}
	return table.Lookup(m.Kind())
}

// As projects a onto the concrete capability T.
func As[T Actor](a Actor) (T, error) {
	t, ok := a.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %s is not %T", ErrCapabilityNotFound, kindName(a), addrOf(a), zero)
	}
	return t, nil
}

func kindName(a Actor) string {
	if a == nil {
		return "<nil>"
	}
	return a.Kind()
}

func addrOf(a Actor) ActorID {
	if a == nil {
		return ""
	}
	return a.Addr()
}
