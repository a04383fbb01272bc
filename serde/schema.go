package serde

import (
	"fmt"
	"reflect"
)

// Object is anything the serializer can dump. Kind returns the
// discriminator of the object's concrete type.
type Object interface {
	Kind() string
}

// Schema describes one concrete kind.
//
// Payload fields of the value returned by New are converted with their
// mapstructure tags; embedded structs must be exported and tagged
// ",squash". Polymorphic fields must be tagged "-" and declared in Fields
// instead.
type Schema struct {
	Kind   string
	Family string
	New    func() Object
	Fields []Field

	typ reflect.Type
}

// Field declares a polymorphic field of a schema.
type Field struct {
	Name string
	Slot Slot

	many bool
	get  func(Object) []Object
	set  func(Object, []Object) error
}

// One declares a field holding a single, possibly nil, polymorphic value.
func One[T Object, V Object](name string, slot Slot, get func(T) V, set func(T, V)) Field {
	return Field{
		Name: name,
		Slot: slot,
		get: func(o Object) []Object {
			v := get(o.(T))
			if isNil(v) {
				return nil
			}
			return []Object{v}
		},
		set: func(o Object, vs []Object) error {
			if len(vs) == 0 {
				return nil
			}
			v, ok := vs[0].(V)
			if !ok {
				return fmt.Errorf("%w: field %q cannot hold %T", ErrTypeMismatch, name, vs[0])
			}
			set(o.(T), v)
			return nil
		},
	}
}

// Many declares an ordered sequence of polymorphic values.
func Many[T Object, V Object](name string, slot Slot, get func(T) []V, set func(T, []V)) Field {
	return Field{
		Name: name,
		Slot: slot,
		many: true,
		get: func(o Object) []Object {
			vs := get(o.(T))
			out := make([]Object, 0, len(vs))
			for _, v := range vs {
				out = append(out, v)
			}
			return out
		},
		set: func(o Object, vs []Object) error {
			out := make([]V, 0, len(vs))
			for i, raw := range vs {
				v, ok := raw.(V)
				if !ok {
					return fmt.Errorf("%w: field %q[%d] cannot hold %T", ErrTypeMismatch, name, i, raw)
				}
				out = append(out, v)
			}
			set(o.(T), out)
			return nil
		},
	}
}

func isNil(o Object) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
