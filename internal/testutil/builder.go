// Package testutil provides helpers for constructing component graphs
// in tests.
package testutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/observable"
	"github.com/loomkit/loom/internal/core/registry"
)

// Stub is a structural component with no properties.
type Stub struct {
	Tag string
}

// componentData holds data for a component to be registered.
type componentData struct {
	name       string
	kind       ident.Kind
	parent     string // builder name, not identifier
	location   string
	properties map[string]any
}

// bindingData holds data for a binding to be attached.
type bindingData struct {
	controller         string
	controllerProperty string
	observable         string
	property           string
}

// GraphBuilder accumulates components and registers them in the correct
// order. Components are referenced by builder name, so a child can name
// its parent before identifiers exist.
type GraphBuilder struct {
	t          *testing.T
	reg        *registry.Registry
	components []componentData
	bindings   []bindingData
}

// NewGraphBuilder creates a builder for the given registry.
func NewGraphBuilder(t *testing.T, reg *registry.Registry) *GraphBuilder {
	t.Helper()
	return &GraphBuilder{t: t, reg: reg}
}

// WithNode adds a structural component with optional configuration.
func (b *GraphBuilder) WithNode(name string, opts ...ComponentOption) *GraphBuilder {
	c := componentData{name: name, kind: "node"}
	for _, opt := range opts {
		opt(&c)
	}
	b.components = append(b.components, c)
	return b
}

// WithObservable adds a property-owning component with optional
// configuration.
func (b *GraphBuilder) WithObservable(name string, opts ...ComponentOption) *GraphBuilder {
	c := componentData{name: name, kind: "observable", properties: make(map[string]any)}
	for _, opt := range opts {
		opt(&c)
	}
	b.components = append(b.components, c)
	return b
}

// WithBinding attaches controller.controllerProperty to
// observable.property. Both sides are builder names.
func (b *GraphBuilder) WithBinding(controller, controllerProperty, obs, property string) *GraphBuilder {
	b.bindings = append(b.bindings, bindingData{controller, controllerProperty, obs, property})
	return b
}

// Graph exposes the registered components by builder name.
type Graph struct {
	t   *testing.T
	ids map[string]ident.ID
	reg *registry.Registry
}

// ID returns the identifier registered under the builder name.
func (g *Graph) ID(name string) ident.ID {
	g.t.Helper()
	id, ok := g.ids[name]
	require.True(g.t, ok, "no component named %q in graph", name)
	return id
}

// Observable returns the observable registered under the builder name.
func (g *Graph) Observable(name string) *observable.Observable {
	g.t.Helper()
	component, err := g.reg.Get(g.ID(name))
	require.NoError(g.t, err)
	obs, ok := component.(*observable.Observable)
	require.True(g.t, ok, "component %q is not an observable", name)
	return obs
}

// Build registers all accumulated data.
// Registration order: components in declaration order (parents first),
// then bindings.
func (b *GraphBuilder) Build() *Graph {
	b.t.Helper()
	g := &Graph{t: b.t, ids: make(map[string]ident.ID, len(b.components)), reg: b.reg}

	for _, c := range b.components {
		g.ids[c.name] = b.register(c, g.ids)
	}
	for _, bd := range b.bindings {
		err := b.reg.Bind(g.ID(bd.controller), bd.controllerProperty, g.ID(bd.observable), bd.property)
		require.NoError(b.t, err)
	}
	return g
}

func (b *GraphBuilder) register(c componentData, ids map[string]ident.ID) ident.ID {
	b.t.Helper()

	var component registry.Component
	if c.kind == "observable" {
		obs := observable.New()
		names := make([]string, 0, len(c.properties))
		for name := range c.properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, err := obs.Define(name, c.properties[name])
			require.NoError(b.t, err)
		}
		component = obs
	} else {
		component = &Stub{Tag: c.name}
	}

	var opts []registry.Option
	if c.parent != "" {
		parentID, ok := ids[c.parent]
		require.True(b.t, ok, "parent %q of %q not declared first", c.parent, c.name)
		opts = append(opts, registry.WithParent(parentID))
	}
	if c.location != "" {
		opts = append(opts, registry.WithLocation(c.location))
	}

	id, err := b.reg.Register(component, c.kind, opts...)
	require.NoError(b.t, err)
	return id
}

// ComponentOption configures a component added to the builder.
type ComponentOption func(*componentData)

// OfKind overrides the kind tag.
func OfKind(kind ident.Kind) ComponentOption {
	return func(c *componentData) { c.kind = kind }
}

// ChildOf names the parent component.
func ChildOf(parent string) ComponentOption {
	return func(c *componentData) { c.parent = parent }
}

// AtLocation sets the structural location hint.
func AtLocation(location string) ComponentOption {
	return func(c *componentData) { c.location = location }
}

// WithProperty defines a property with an initial value. Only meaningful
// for observables.
func WithProperty(name string, value any) ComponentOption {
	return func(c *componentData) {
		if c.properties == nil {
			c.properties = make(map[string]any)
		}
		c.properties[name] = value
	}
}
