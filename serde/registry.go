package serde

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Registry holds the schemas of every kind that can be dumped and reloaded.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	strict  bool
}

// Option configures a Registry.
type Option func(*Registry)

// Strict makes Register reject schemas that declare erasing Base slots.
func Strict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{schemas: make(map[string]*Schema)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds schemas to the registry.
func (r *Registry) Register(schemas ...Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range schemas {
		s := schemas[i]
		if s.Kind == "" || s.New == nil {
			return fmt.Errorf("%w: kind and constructor are required", ErrInvalidSchema)
		}
		if _, exists := r.schemas[s.Kind]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, s.Kind)
		}

		sample := s.New()
		if sample == nil || sample.Kind() != s.Kind {
			return fmt.Errorf("%w: constructor of %q builds kind %q", ErrKindMismatch, s.Kind, kindOf(sample))
		}
		s.typ = reflect.TypeOf(sample)
		if s.typ.Kind() != reflect.Pointer {
			return fmt.Errorf("%w: %s constructor must return a pointer", ErrInvalidSchema, s.Kind)
		}
		if err := checkEmbeds(s.typ.Elem()); err != nil {
			return fmt.Errorf("%w: %s %v", ErrInvalidSchema, s.Kind, err)
		}

		for _, f := range s.Fields {
			if f.Name == "" || f.Slot == nil || f.get == nil {
				return fmt.Errorf("%w: %s has an incomplete field", ErrInvalidSchema, s.Kind)
			}
			if r.strict && f.Slot.Erasing() {
				return fmt.Errorf("%w: %s.%s is %s", ErrErasureRisk, s.Kind, f.Name, f.Slot)
			}
		}

		r.schemas[s.Kind] = &s
	}
	return nil
}

// Kinds lists the registered kinds in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Finding is one ErasureRisk reported by Audit.
type Finding struct {
	Kind  string
	Field string
	Slot  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s.%s declared as %s", f.Kind, f.Field, f.Slot)
}

// Audit reports every field whose slot erases concrete types on reload.
func (r *Registry) Audit() []Finding {
	var findings []Finding
	for _, kind := range r.Kinds() {
		s, _ := r.schema(kind)
		for _, f := range s.Fields {
			if f.Slot.Erasing() {
				findings = append(findings, Finding{Kind: kind, Field: f.Name, Slot: f.Slot.String()})
			}
		}
	}
	return findings
}

// Dump converts obj and everything reachable through its declared fields
// into a structural tree.
func (r *Registry) Dump(obj Object) (Node, error) {
	if isNil(obj) {
		return nil, fmt.Errorf("%w: cannot dump nil object", ErrMalformed)
	}
	s, err := r.schema(obj.Kind())
	if err != nil {
		return nil, err
	}
	if t := reflect.TypeOf(obj); t != s.typ {
		return nil, fmt.Errorf("%w: %s reports kind %q registered for %s", ErrKindMismatch, t, s.Kind, s.typ)
	}

	n := Node{}
	if err := convert(obj, &n); err != nil {
		return nil, fmt.Errorf("failed to dump %s payload: %w", s.Kind, err)
	}
	n[KindField] = s.Kind

	for _, f := range s.Fields {
		values := f.get(obj)
		if !f.many {
			if len(values) == 0 {
				n[f.Name] = nil
				continue
			}
			child, err := r.Dump(values[0])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Kind, f.Name, err)
			}
			n[f.Name] = child
			continue
		}

		list := make([]any, 0, len(values))
		for i, v := range values {
			child, err := r.Dump(v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s[%d]: %w", s.Kind, f.Name, i, err)
			}
			list = append(list, child)
		}
		n[f.Name] = list
	}
	return n, nil
}

// Load rebuilds an object from n. The slot is the declaration of the
// caller's context and decides whether the stored discriminator is used.
func (r *Registry) Load(n Node, slot Slot) (Object, error) {
	s, err := slot.resolve(r, n)
	if err != nil {
		return nil, err
	}

	obj := s.New()
	if err := convert(n, obj); err != nil {
		return nil, fmt.Errorf("failed to load %s payload: %w", s.Kind, err)
	}

	for _, f := range s.Fields {
		raw, present := n[f.Name]
		if !present || raw == nil {
			continue
		}

		var values []Object
		if f.many {
			list, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s is %T, expected a list", ErrMalformed, s.Kind, f.Name, raw)
			}
			values = make([]Object, 0, len(list))
			for i, item := range list {
				child, err := r.loadChild(item, f.Slot)
				if err != nil {
					return nil, fmt.Errorf("%s.%s[%d]: %w", s.Kind, f.Name, i, err)
				}
				values = append(values, child)
			}
		} else {
			child, err := r.loadChild(raw, f.Slot)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Kind, f.Name, err)
			}
			values = []Object{child}
		}

		if err := f.set(obj, values); err != nil {
			return nil, fmt.Errorf("%s: %w", s.Kind, err)
		}
	}
	return obj, nil
}

func (r *Registry) loadChild(raw any, slot Slot) (Object, error) {
	n, err := asNode(raw)
	if err != nil {
		return nil, err
	}
	return r.Load(n, slot)
}

// LoadAs rebuilds an object from n and asserts its Go type.
func LoadAs[T Object](r *Registry, n Node, slot Slot) (T, error) {
	var zero T
	obj, err := r.Load(n, slot)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: loaded %T, want %T", ErrTypeMismatch, obj, zero)
	}
	return t, nil
}

func (r *Registry) schema(kind string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregistered, kind)
	}
	return s, nil
}

// checkEmbeds rejects unexported embedded structs, whose fields the
// payload conversion cannot see.
func checkEmbeds(t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || f.Tag.Get("mapstructure") == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if !f.IsExported() {
			return fmt.Errorf("embeds unexported %s", ft)
		}
		if err := checkEmbeds(ft); err != nil {
			return err
		}
	}
	return nil
}

// convert copies payload fields between structs and Nodes.
func convert(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		Squash:           true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func kindOf(o Object) string {
	if o == nil {
		return ""
	}
	return o.Kind()
}
