// Package core implements the in-process actor engine of troupe.
//
// Actors exchange immutable Messages. Each Actor exposes a table of typed
// handlers; a handler may update the Actor's own state and lazily yield
// replies. The Engine follows those replies depth-first and exposes the
// whole traversal as a single pull-based iterator.
//
// Propagation is single-threaded and synchronous. Handlers, and the
// consumer between two replies, may change a Network's members; an actor
// that joins an active tree is resolved when a message first reaches it.
package core
