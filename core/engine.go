package core

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/log"
)

// Engine resolves message receivers among the active actors and drives
// propagation.
type Engine struct {
	logger   log.Logger
	dir      *Directory
	maxSteps atomic.Int64
	strict   bool

	// mu guards stats and the open scopes
	mu     sync.Mutex
	stats  map[ActorID]*ActorStats
	scopes []*Scope
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps bounds the number of replies one propagation may yield.
// Zero leaves propagation unbounded.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps.Store(int64(n))
	}
}

// WithStrictReplies makes a dispatch to an actor without a matching
// handler fail with ErrNoHandler instead of yielding nothing.
func WithStrictReplies() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// NewEngine creates an Engine with no active actors.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: log.NewNopLogger(),
		dir:    NewDirectory(),
		stats:  make(map[ActorID]*ActorStats),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMaxSteps changes the step bound for propagations started afterwards.
func (e *Engine) SetMaxSteps(n int) {
	e.maxSteps.Store(int64(n))
	e.logger.Info("propagation step limit updated", "max_steps", n)
}

// MaxSteps returns the current step bound.
func (e *Engine) MaxSteps() int {
	return int(e.maxSteps.Load())
}

// Lookup finds an active Actor.
func (e *Engine) Lookup(id ActorID) (Actor, bool) {
	return e.dir.Lookup(id)
}

// Activate makes a and, recursively, the members of any Grouped actor
// reachable from it resolvable as message receivers until the returned
// Scope is closed. Members that join the tree while the scope is open are
// resolved when a message first reaches them.
func (e *Engine) Activate(a Actor) (*Scope, error) {
	if a == nil {
		return nil, fmt.Errorf("cannot activate nil actor")
	}

	s := &Scope{engine: e, root: a}
	for actor := range walk(a) {
		if err := e.dir.Register(actor); err != nil {
			s.release()
			return nil, fmt.Errorf("failed to activate %s %s: %w", a.Kind(), a.Addr(), err)
		}
		s.ids = append(s.ids, actor.Addr())
	}

	e.mu.Lock()
	e.scopes = append(e.scopes, s)
	e.mu.Unlock()

	e.logger.Debug("scope activated", "actor", a.Addr(), "kind", a.Kind(), "actors", len(s.ids))
	return s, nil
}

// Within activates a, runs fn and closes the scope on every exit path.
func (e *Engine) Within(a Actor, fn func(*Scope) error) (err error) {
	s, err := e.Activate(a)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Receive dispatches m to its active receiver once, without following
// the replies. A receiver that sent one of m's ancestors without being
// active, such as the external originator of the chain, takes m like an
// actor without handlers.
func (e *Engine) Receive(m Message) Replies {
	return func(yield func(Message, error) bool) {
		if m == nil {
			yield(nil, ErrNilMessage)
			return
		}

		id := m.Head().Receiver
		a, ok := e.locate(id)
		if !ok {
			if !sentAncestor(m, id) {
				yield(nil, fmt.Errorf("%w: receiver %s of %s", ErrNotActive, id, describe(m)))
				return
			}
			e.logger.Debug("reply to originator", "receiver", id, "message", describe(m))
			if e.strict {
				yield(nil, fmt.Errorf("%w: originator %s cannot take %s", ErrNoHandler, id, describe(m)))
			}
			return
		}

		kind := m.Kind()
		e.record(a, func(st *ActorStats) { st.Delivered++ })

		fn, ok := resolve(a, m)
		if !ok {
			e.record(a, func(st *ActorStats) { st.Unhandled++ })
			e.logger.Debug("no handler", "actor", id, "kind", a.Kind(), "handler", HandlerName(kind))
			if e.strict {
				yield(nil, fmt.Errorf("%w: %s.%s", ErrNoHandler, a.Kind(), HandlerName(kind)))
			}
			return
		}

		for reply, err := range fn(a, m) {
			if err == nil && reply == nil {
				err = ErrNilMessage
			}
			if err != nil {
				e.record(a, func(st *ActorStats) { st.Failed++ })
				e.logger.Error("handler failed", "actor", id, "handler", HandlerName(kind), "err", err)
				yield(nil, fmt.Errorf("%s.%s: %w", a.Kind(), HandlerName(kind), err))
				return
			}
			e.record(a, func(st *ActorStats) { st.Emitted++ })
			if !yield(reply, nil) {
				return
			}
		}
	}
}

// Propagate dispatches m and follows every reply depth-first: each reply
// is yielded, then propagated, before the handler that produced it is
// resumed. The initial message itself is not yielded.
//
// The sequence is lazy and may be iterated again, which dispatches m
// again. Stopping early leaves later handlers uninvoked. The first error
// ends the traversal; state changes already applied are kept.
func (e *Engine) Propagate(m Message) Replies {
	return func(yield func(Message, error) bool) {
		t := &traversal{limit: e.MaxSteps()}
		e.logger.Debug("propagation started", "message", describe(m))
		if e.propagate(m, yield, t) {
			e.logger.Debug("propagation finished", "message", describe(m), "steps", t.steps)
		}
	}
}

// locate finds the active actor id refers to. On a miss it searches the
// current trees of the open scopes, newest first, and activates the
// actor in the scope whose tree holds it.
func (e *Engine) locate(id ActorID) (Actor, bool) {
	if a, ok := e.dir.Lookup(id); ok {
		return a, true
	}

	e.mu.Lock()
	scopes := slices.Clone(e.scopes)
	e.mu.Unlock()

	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		for a := range walk(s.root) {
			if a.Addr() != id {
				continue
			}
			if err := e.dir.Register(a); err != nil {
				return e.dir.Lookup(id)
			}
			e.mu.Lock()
			s.ids = append(s.ids, id)
			e.mu.Unlock()
			e.logger.Debug("member joined scope", "actor", id, "kind", a.Kind(), "scope", s.root.Addr())
			return a, true
		}
	}
	return nil, false
}

func sentAncestor(m Message, id ActorID) bool {
	if id == "" {
		return false
	}
	for p := range Ancestry(m) {
		if p.Head().Sender == id {
			return true
		}
	}
	return false
}

type traversal struct {
	steps int
	limit int
}

func (e *Engine) propagate(m Message, yield func(Message, error) bool, t *traversal) bool {
	for reply, err := range e.Receive(m) {
		if err != nil {
			yield(nil, err)
			return false
		}
		if t.limit > 0 && t.steps >= t.limit {
			yield(nil, fmt.Errorf("%w: %d", ErrStepLimit, t.limit))
			return false
		}
		t.steps++
		if !yield(reply, nil) {
			return false
		}
		if !e.propagate(reply, yield, t) {
			return false
		}
	}
	return true
}

// Stats returns dispatch statistics in activation order.
func (e *Engine) Stats() []ActorStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stats []ActorStats
	for _, id := range e.dir.List() {
		if st, ok := e.stats[id]; ok {
			stats = append(stats, *st)
		}
	}
	return stats
}

// StatsFor returns the statistics of one actor.
func (e *Engine) StatsFor(id ActorID) (ActorStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.stats[id]
	if !ok {
		return ActorStats{}, false
	}
	return *st, true
}

func (e *Engine) record(a Actor, update func(*ActorStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.stats[a.Addr()]
	if !ok {
		st = &ActorStats{ID: a.Addr(), Kind: a.Kind()}
		e.stats[a.Addr()] = st
	}
	update(st)
	st.LastMessageAt = time.Now()
}

// Scope is the active period of an Actor tree.
type Scope struct {
	engine *Engine
	root   Actor
	ids    []ActorID
	closed bool
}

// Root returns the actor the scope was activated for.
func (s *Scope) Root() Actor {
	return s.root
}

// Propagate propagates m while the scope is open.
func (s *Scope) Propagate(m Message) Replies {
	if s.closed {
		return Fail(ErrScopeClosed)
	}
	return s.engine.Propagate(m)
}

// Close releases every actor the scope activated, along with their stats.
func (s *Scope) Close() error {
	if s.closed {
		return ErrScopeClosed
	}
	s.release()
	s.engine.logger.Debug("scope closed", "actor", s.root.Addr(), "kind", s.root.Kind())
	return nil
}

func (s *Scope) release() {
	e := s.engine
	e.mu.Lock()
	s.closed = true
	ids := s.ids
	s.ids = nil
	e.scopes = slices.DeleteFunc(e.scopes, func(open *Scope) bool { return open == s })
	e.mu.Unlock()

	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if err := e.dir.Unregister(id); err != nil {
			e.logger.Error("failed to release actor", "actor", id, "err", err)
		}
		e.mu.Lock()
		delete(e.stats, id)
		e.mu.Unlock()
	}
}

// walk yields a and the members of every Grouped actor reachable from it,
// depth-first in member order.
func walk(a Actor) func(yield func(Actor) bool) {
	return func(yield func(Actor) bool) {
		var visit func(Actor) bool
		visit = func(a Actor) bool {
			if !yield(a) {
				return false
			}
			g, ok := a.(Grouped)
			if !ok {
				return true
			}
			for _, m := range g.Net().Members {
				if !visit(m) {
					return false
				}
			}
			return true
		}
		visit(a)
	}
}
