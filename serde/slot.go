package serde

import (
	"fmt"
	"slices"
	"strings"
)

// Slot declares which concrete kinds a polymorphic field may hold and how
// the kind of a stored value is chosen on reload.
type Slot interface {
	fmt.Stringer

	// Erasing reports whether reload ignores the stored discriminator.
	Erasing() bool

	resolve(r *Registry, n Node) (*Schema, error)
}

// Base declares a field by its base kind alone. Reload always rebuilds the
// base kind, dropping the payload and behavior of any more specific variant.
func Base(kind string) Slot {
	return baseSlot{kind: kind}
}

// OneOf declares a closed tagged union of the given kinds.
func OneOf(kinds ...string) Slot {
	return unionSlot{kinds: slices.Clone(kinds)}
}

// Exactly declares a field that holds a single concrete kind.
func Exactly(kind string) Slot {
	return OneOf(kind)
}

// Family declares a union of every kind registered under family.
func Family(family string) Slot {
	return familySlot{family: family}
}

type baseSlot struct {
	kind string
}

func (s baseSlot) String() string { return "base(" + s.kind + ")" }

func (s baseSlot) Erasing() bool { return true }

func (s baseSlot) resolve(r *Registry, _ Node) (*Schema, error) {
	return r.schema(s.kind)
}

type unionSlot struct {
	kinds []string
}

func (s unionSlot) String() string { return "oneof(" + strings.Join(s.kinds, "|") + ")" }

func (s unionSlot) Erasing() bool { return false }

func (s unionSlot) resolve(r *Registry, n Node) (*Schema, error) {
	kind, ok := Kind(n)
	if !ok {
		return nil, fmt.Errorf("%w: expected one of %v", ErrMissingKind, s.kinds)
	}
	if !slices.Contains(s.kinds, kind) {
		return nil, fmt.Errorf("%w: %q not in %s", ErrTypeMismatch, kind, s)
	}
	return r.schema(kind)
}

type familySlot struct {
	family string
}

func (s familySlot) String() string { return "family(" + s.family + ")" }

func (s familySlot) Erasing() bool { return false }

func (s familySlot) resolve(r *Registry, n Node) (*Schema, error) {
	kind, ok := Kind(n)
	if !ok {
		return nil, fmt.Errorf("%w: expected a member of family %q", ErrMissingKind, s.family)
	}
	schema, err := r.schema(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q in %s", ErrTypeMismatch, kind, s)
	}
	if schema.Family != s.family {
		return nil, fmt.Errorf("%w: %q belongs to family %q, not %q", ErrTypeMismatch, kind, schema.Family, s.family)
	}
	return schema, nil
}
