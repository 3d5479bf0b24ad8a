// Package serialize reconstructs component graphs from flat record lists.
//
// Serialization walks the registry from a root and emits one Record per
// component: its identifier, kind, scalar properties, and relationship
// references. Deserialization runs in two phases. Phase 1 materializes
// every record through the kind factory table and applies only scalar
// properties. Phase 2 wires relationships (parent, bindings) against the
// now-complete component map, so a record may reference another record
// that appears later in the input. References are matched by the unique
// suffix of the identifier, which survives relationship updates.
//
// Failures stay scoped: a record that cannot be materialized aborts only
// its own subtree, an unresolvable relationship is reported as a dangling
// reference, and both are collected into a Report alongside the
// successfully reconstructed portion.
package serialize

import (
	"fmt"
	"strings"

	"github.com/loomkit/loom/internal/core/ident"
)

// Record is the flat serialized form of one component.
type Record struct {
	ID            ident.ID       `yaml:"id"`
	Kind          ident.Kind     `yaml:"kind"`
	Properties    map[string]any `yaml:"properties,omitempty"`
	Relationships Relationships  `yaml:"relationships,omitempty"`
}

// Relationships holds the reference fields of a record. They are applied
// in phase 2, never during materialization.
type Relationships struct {
	ParentID ident.ID     `yaml:"parentId,omitempty"`
	Bindings []BindingRef `yaml:"bindings,omitempty"`
}

// BindingRef records a controller attached to one of the record's
// properties.
type BindingRef struct {
	ControllerID       ident.ID `yaml:"controllerId"`
	ControllerProperty string   `yaml:"controllerProperty"`
	Property           string   `yaml:"property"`
}

// DanglingReference reports a relationship identifier that resolved to no
// materialized component in phase 2.
type DanglingReference struct {
	RecordID ident.ID
	RefID    ident.ID
	Field    string
}

func (d DanglingReference) Error() string {
	return fmt.Sprintf("dangling reference: %s field %s -> %s", d.RecordID, d.Field, d.RefID)
}

// Report accumulates the failures of a deserialization run. It is
// returned as the error alongside the partial component map when any
// record failed; a nil Report means the whole graph reconstructed.
type Report struct {
	// Failed lists records that could not be materialized, including
	// records skipped because an ancestor failed.
	Failed []ident.ID
	// Dangling lists relationship references that resolved to nothing.
	Dangling []DanglingReference
	// Wiring lists relationships that resolved but could not be applied,
	// such as a binding naming an unknown property.
	Wiring []error
}

func (r *Report) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deserialization incomplete: %d failed record(s), %d dangling reference(s), %d wiring error(s)",
		len(r.Failed), len(r.Dangling), len(r.Wiring))
	for _, id := range r.Failed {
		fmt.Fprintf(&b, "\n  failed: %s", id)
	}
	for _, d := range r.Dangling {
		fmt.Fprintf(&b, "\n  %s", d.Error())
	}
	for _, err := range r.Wiring {
		fmt.Fprintf(&b, "\n  wiring: %s", err.Error())
	}
	return b.String()
}

func (r *Report) empty() bool {
	return len(r.Failed) == 0 && len(r.Dangling) == 0 && len(r.Wiring) == 0
}
