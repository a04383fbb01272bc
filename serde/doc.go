// Package serde dumps object graphs to structural trees and reloads them
// without losing the concrete type of any polymorphic member.
//
// A structural tree is a Node: a map of field names to scalars, lists and
// nested Nodes. Every dumped object carries its discriminator under the
// "kind" key. Whether that discriminator is honored on reload is decided by
// the Slot declared for the field that holds the object:
//
//   - Base slots always rebuild the declared base kind. They reproduce the
//     erasure defect of naive structural serialization and exist only so
//     legacy schemas can be expressed and audited.
//   - OneOf slots enumerate the kinds allowed at that point and reject
//     anything else.
//   - Family slots accept every kind registered under a family name.
//
// Registry.Audit reports every Base slot; a Strict registry refuses them.
//
// Payload is converted field by field, so structs embedded in an object
// must be exported and tagged ",squash"; Register rejects unexported ones.
package serde
