// Package registry implements the central identifier registry for loom.
//
// The Registry maintains bidirectional component<->identifier maps plus
// relationship indexes (parent/child, kind, property bindings). Structural
// relationships are encoded directly in the identifier string (see the
// ident package), so relationship queries are O(1) map lookups and a graph
// can be reconstructed purely from a flat list of identifiers.
//
// # Core Types
//
// Component is any registrable value; implementations must be pointer types
// so the reverse map can use identity. Binding associates one
// controller-side property with one observable-side property.
//
// # Concurrency
//
// The Registry is single-threaded by design: all mutation, command
// execution, and notification dispatch happen synchronously on one logical
// thread, and no locks are taken. Callers mixing goroutines must
// synchronize externally. Every mutation goes through the Registry API;
// relationship fields on returned components must not be manipulated
// directly.
//
// # Construction
//
// There is no global registry. Construct one with New and pass the handle
// to every component that needs it; tests routinely run several
// independent registries side by side.
package registry
