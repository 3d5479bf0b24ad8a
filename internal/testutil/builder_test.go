package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
)

func TestGraphBuilder_BuildsHierarchy(t *testing.T) {
	reg := registry.New()
	t.Cleanup(reg.Close)

	g := NewGraphBuilder(t, reg).
		WithNode("root").
		WithObservable("person", ChildOf("root"), AtLocation("left"),
			WithProperty("name", "Alice"), WithProperty("age", 30)).
		WithNode("controller", ChildOf("root")).
		WithBinding("controller", "value", "person", "name").
		Build()

	require.Equal(t, 3, reg.Len())

	parent, err := reg.ParentOf(g.ID("person"))
	require.NoError(t, err)
	require.Equal(t, g.ID("root"), parent)

	parts, err := ident.Parse(g.ID("person"))
	require.NoError(t, err)
	require.Equal(t, "left", parts.Location)

	person := g.Observable("person")
	require.Equal(t, map[string]any{"name": "Alice", "age": 30}, person.Values())

	bindings := reg.BindingsFor(g.ID("person"))
	require.Len(t, bindings, 1)
	require.Equal(t, g.ID("controller"), bindings[0].ControllerID)
}

func TestGraphBuilder_CustomKind(t *testing.T) {
	reg := registry.New()
	t.Cleanup(reg.Close)

	g := NewGraphBuilder(t, reg).
		WithNode("widget", OfKind("widget")).
		Build()

	parts, err := ident.Parse(g.ID("widget"))
	require.NoError(t, err)
	require.Equal(t, ident.Kind("widget"), parts.Kind)
	require.Equal(t, []ident.ID{g.ID("widget")}, reg.ByKind("widget"))
}
