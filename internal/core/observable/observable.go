// Package observable provides change-tracked value containers.
//
// An Observable owns named Properties. Setting a property to a genuinely
// new value notifies every observer; setting it to its current value is a
// no-op. Observers are keyed by explicit tokens so closures can be removed
// without identity comparison, and removal is synchronous: a removed
// observer can never fire again. A per-property notifying flag rejects
// re-entrant writes from inside an observer, which would otherwise loop
// forever.
//
// Like the rest of the core, observables are single-threaded and take no
// locks.
package observable

import (
	"errors"
	"fmt"
	"sort"
)

// Observable errors.
var (
	ErrPropertyExists       = errors.New("property already defined")
	ErrPropertyNotFound     = errors.New("property not found")
	ErrReentrantSet         = errors.New("reentrant property write during notification")
	ErrPropertyNameMismatch = errors.New("property record name mismatch")
)

// Observable holds a set of named properties.
type Observable struct {
	props map[string]*Property
	order []string
}

// New creates an observable with no properties.
func New() *Observable {
	return &Observable{props: make(map[string]*Property)}
}

// Define creates a property with an initial value.
func (o *Observable) Define(name string, initial any) (*Property, error) {
	if _, exists := o.props[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPropertyExists, name)
	}
	p := newProperty(o, name, initial)
	o.props[name] = p
	o.order = append(o.order, name)
	return p, nil
}

// Property returns the named property.
func (o *Observable) Property(name string) (*Property, error) {
	p, ok := o.props[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	return p, nil
}

// HasProperty reports whether the named property is defined.
// Satisfies the registry's PropertyHolder contract.
func (o *Observable) HasProperty(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Names returns the property names in definition order.
func (o *Observable) Names() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Values returns a name->value map of every property, in support of
// scalar-property serialization.
func (o *Observable) Values() map[string]any {
	values := make(map[string]any, len(o.props))
	for name, p := range o.props {
		values[name] = p.Get()
	}
	return values
}

// ApplyProperties defines or restores the given properties without
// notifying observers. Existing properties keep their observers and take
// the new value silently; missing ones are defined. Names are applied in
// sorted order so definition order is deterministic.
func (o *Observable) ApplyProperties(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p, ok := o.props[name]; ok {
			p.Restore(values[name])
			continue
		}
		if _, err := o.Define(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Teardown removes every property and its observers. The observable can
// be reused by defining new properties afterwards.
func (o *Observable) Teardown() {
	for _, p := range o.props {
		p.observers = nil
		p.tokenOrder = nil
	}
	o.props = make(map[string]*Property)
	o.order = nil
}
