package core

import (
	"fmt"
	"slices"
	"sync"
)

// Directory resolves ActorIDs to the active Actors they name.
type Directory struct {
	mu     sync.RWMutex
	actors map[ActorID]Actor
	order  []ActorID
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{actors: make(map[ActorID]Actor)}
}

// Register adds an Actor to the directory.
func (d *Directory) Register(a Actor) error {
	if a == nil {
		return fmt.Errorf("cannot register nil actor")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := a.Addr()
	if _, exists := d.actors[id]; exists {
		return fmt.Errorf("%w: %s %s", ErrAlreadyActive, a.Kind(), id)
	}
	d.actors[id] = a
	d.order = append(d.order, id)
	return nil
}

// Unregister removes an Actor from the directory.
func (d *Directory) Unregister(id ActorID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.actors[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	delete(d.actors, id)
	d.order = slices.DeleteFunc(d.order, func(o ActorID) bool { return o == id })
	return nil
}

// Lookup finds an Actor by its ID.
func (d *Directory) Lookup(id ActorID) (Actor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.actors[id]
	return a, ok
}

// List returns the registered IDs in registration order.
func (d *Directory) List() []ActorID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.order)
}

// Len returns the number of registered actors.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.actors)
}
