package serialize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
)

func TestFactories_RegisterAndNew(t *testing.T) {
	f := NewFactories()
	require.NoError(t, f.Register("node", func() (registry.Component, error) {
		return &node{}, nil
	}))

	component, err := f.New("node")
	require.NoError(t, err)
	require.IsType(t, &node{}, component)
	require.Equal(t, []ident.Kind{"node"}, f.Kinds())
}

func TestFactories_DuplicateKind(t *testing.T) {
	f := NewFactories()
	factory := func() (registry.Component, error) { return &node{}, nil }
	require.NoError(t, f.Register("node", factory))
	require.ErrorIs(t, f.Register("node", factory), ErrFactoryExists)
}

func TestFactories_UnknownKind(t *testing.T) {
	f := NewFactories()
	_, err := f.New("mystery")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestFactories_InvalidInputs(t *testing.T) {
	f := NewFactories()
	require.ErrorIs(t, f.Register("node", nil), ErrNilFactory)
	require.ErrorIs(t, f.Register("", func() (registry.Component, error) {
		return &node{}, nil
	}), ident.ErrInvalidKind)
}

func TestFactories_NilConstruction(t *testing.T) {
	f := NewFactories()
	require.NoError(t, f.Register("node", func() (registry.Component, error) {
		return nil, nil
	}))
	_, err := f.New("node")
	require.ErrorIs(t, err, ErrNilConstructed)
}

func TestFactories_ConstructionError(t *testing.T) {
	f := NewFactories()
	boom := errors.New("boom")
	require.NoError(t, f.Register("node", func() (registry.Component, error) {
		return nil, boom
	}))
	_, err := f.New("node")
	require.ErrorIs(t, err, boom)
}
