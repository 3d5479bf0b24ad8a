package serialize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
)

// Factory errors.
var (
	ErrFactoryExists  = errors.New("factory already registered for kind")
	ErrUnknownKind    = errors.New("no factory registered for kind")
	ErrNilFactory     = errors.New("factory cannot be nil")
	ErrNilConstructed = errors.New("factory returned nil component")
)

// Factory constructs an empty component of one kind. Scalar properties
// are applied separately after construction.
type Factory func() (registry.Component, error)

// Factories is the explicit kind->constructor table consulted during
// materialization. Callers register a factory per kind up front; there is
// no runtime type discovery.
type Factories struct {
	byKind map[ident.Kind]Factory
}

// NewFactories creates an empty factory table.
func NewFactories() *Factories {
	return &Factories{byKind: make(map[ident.Kind]Factory)}
}

// Register adds a factory for a kind. Each kind takes exactly one
// factory; re-registration fails rather than silently replacing.
func (f *Factories) Register(kind ident.Kind, factory Factory) error {
	if err := ident.ValidateKind(kind); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, kind)
	}
	if _, exists := f.byKind[kind]; exists {
		return fmt.Errorf("%w: %s", ErrFactoryExists, kind)
	}
	f.byKind[kind] = factory
	return nil
}

// New constructs a component of the given kind.
func (f *Factories) New(kind ident.Kind) (registry.Component, error) {
	factory, ok := f.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	component, err := factory()
	if err != nil {
		return nil, fmt.Errorf("factory for %s: %w", kind, err)
	}
	if component == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilConstructed, kind)
	}
	return component, nil
}

// Kinds returns the registered kinds, sorted.
func (f *Factories) Kinds() []ident.Kind {
	kinds := make([]ident.Kind, 0, len(f.byKind))
	for kind := range f.byKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
