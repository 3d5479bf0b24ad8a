package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/pubsub"
)

// Registry errors.
var (
	ErrNotFound            = errors.New("identifier not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrTypeMismatch        = errors.New("kind mismatch")
	ErrNilComponent        = errors.New("component cannot be nil")
)

// Component is a registrable participant in the graph: a structural node
// (container or leaf) or an observable. Implementations must be pointer
// types so the registry's reverse map can key on identity.
type Component any

// PropertyHolder is implemented by components that own named properties.
// The registry consults it when attaching bindings.
type PropertyHolder interface {
	HasProperty(name string) bool
}

// LifecycleEvent is published on the registry's broker for every
// registration, relationship update, unregistration, bind, and unbind.
type LifecycleEvent struct {
	ID     ident.ID
	Kind   ident.Kind
	Parent ident.ID // zero for root registrations
}

// Registry maintains the component<->identifier maps and relationship
// indexes. Not safe for concurrent use; see the package documentation.
type Registry struct {
	gen      *ident.Generator
	byID     map[ident.ID]Component
	idOf     map[Component]ident.ID
	byUnique map[string]ident.ID
	children map[string]map[ident.ID]struct{} // parent unique suffix -> child ids
	byKind   map[ident.Kind]map[ident.ID]struct{}
	bindings []Binding
	broker   *pubsub.Broker[LifecycleEvent]
}

// New creates an empty registry with its own identifier generator.
func New() *Registry {
	return &Registry{
		gen:      ident.NewGenerator(),
		byID:     make(map[ident.ID]Component),
		idOf:     make(map[Component]ident.ID),
		byUnique: make(map[string]ident.ID),
		children: make(map[string]map[ident.ID]struct{}),
		byKind:   make(map[ident.Kind]map[ident.ID]struct{}),
		broker:   pubsub.NewBroker[LifecycleEvent](),
	}
}

// Events returns the broker carrying lifecycle events.
func (r *Registry) Events() *pubsub.Broker[LifecycleEvent] {
	return r.broker
}

// Register adds a component under a fresh identifier and returns it.
// Options supply an explicit identifier, a parent, or a location.
// Fails with ErrDuplicateIdentifier when an explicit identifier (or its
// unique suffix) is already live, and with ErrNotFound when the requested
// parent is not registered.
func (r *Registry) Register(component Component, kind ident.Kind, opts ...Option) (ident.ID, error) {
	if component == nil {
		return "", ErrNilComponent
	}
	if err := ident.ValidateKind(kind); err != nil {
		return "", err
	}
	if existing, live := r.idOf[component]; live {
		return "", fmt.Errorf("%w: component already registered as %s", ErrDuplicateIdentifier, existing)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var unique string
	if o.explicitID != "" {
		parts, err := ident.Parse(o.explicitID)
		if err != nil {
			return "", err
		}
		if parts.Kind != kind {
			return "", fmt.Errorf("%w: identifier %s carries kind %s, registering as %s",
				ErrTypeMismatch, o.explicitID, parts.Kind, kind)
		}
		if _, live := r.byUnique[parts.Unique]; live {
			return "", fmt.Errorf("%w: %s", ErrDuplicateIdentifier, o.explicitID)
		}
		// Explicit ids may carry parent/location; option values win.
		if o.parent == "" && parts.HasParent() {
			parentID, ok := r.idForUnique(parts.ParentUnique)
			if !ok {
				return "", fmt.Errorf("%w: parent suffix %s of %s", ErrNotFound, parts.ParentUnique, o.explicitID)
			}
			o.parent = parentID
		}
		if o.location == "" {
			o.location = parts.Location
		}
		unique = parts.Unique
		r.gen.Reserve(unique)
	} else {
		unique = r.gen.Suffix()
	}

	parentUnique, err := r.parentUnique(o.parent)
	if err != nil {
		r.gen.Release(unique)
		return "", err
	}

	id := ident.Build(kind, unique, parentUnique, o.location)

	r.byID[id] = component
	r.idOf[component] = id
	r.byUnique[unique] = id
	r.indexKind(kind, id)
	if parentUnique != "" {
		r.indexChild(parentUnique, id)
	}

	log.Debug(log.CatRegistry, "registered component", "id", id, "kind", kind)
	r.broker.Publish(pubsub.RegisteredEvent, LifecycleEvent{ID: id, Kind: kind, Parent: o.parent})
	return id, nil
}

// Get returns the component registered under id.
func (r *Registry) Get(id ident.ID) (Component, error) {
	component, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return component, nil
}

// GetKind returns the component registered under id after checking that
// the kind encoded in the identifier matches the expected kind.
func (r *Registry) GetKind(id ident.ID, kind ident.Kind) (Component, error) {
	parts, err := ident.Parse(id)
	if err != nil {
		return nil, err
	}
	if parts.Kind != kind {
		return nil, fmt.Errorf("%w: %s encodes kind %s, expected %s", ErrTypeMismatch, id, parts.Kind, kind)
	}
	return r.Get(id)
}

// IDOf returns the live identifier of a registered component.
func (r *Registry) IDOf(component Component) (ident.ID, error) {
	id, ok := r.idOf[component]
	if !ok {
		return "", fmt.Errorf("%w: component not registered", ErrNotFound)
	}
	return id, nil
}

// ChildrenOf returns the identifiers registered under parentID, sorted.
// An unknown parent yields ErrNotFound; a parent without children yields
// an empty slice.
func (r *Registry) ChildrenOf(parentID ident.ID) ([]ident.ID, error) {
	parts, err := ident.Parse(parentID)
	if err != nil {
		return nil, err
	}
	if _, live := r.byID[parentID]; !live {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, parentID)
	}
	return sortedIDs(r.children[parts.Unique]), nil
}

// ByKind returns all live identifiers carrying the given kind tag, sorted.
func (r *Registry) ByKind(kind ident.Kind) []ident.ID {
	return sortedIDs(r.byKind[kind])
}

// ParentOf returns the identifier of the parent encoded in id, or ""
// for root registrations.
func (r *Registry) ParentOf(id ident.ID) (ident.ID, error) {
	parts, err := ident.Parse(id)
	if err != nil {
		return "", err
	}
	if _, live := r.byID[id]; !live {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !parts.HasParent() {
		return "", nil
	}
	parentID, ok := r.idForUnique(parts.ParentUnique)
	if !ok {
		return "", fmt.Errorf("%w: parent suffix %s", ErrNotFound, parts.ParentUnique)
	}
	return parentID, nil
}

// Update atomically rewrites the relationship segments of an identifier.
// The unique suffix is preserved unless the Regenerate option is given.
// All relationship indexes, the identifiers of the component's children,
// and any bindings referencing the old identifier are updated together.
// Returns the (possibly changed) identifier.
func (r *Registry) Update(id ident.ID, opts ...Option) (ident.ID, error) {
	component, ok := r.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	parts, err := ident.Parse(id)
	if err != nil {
		return "", err
	}

	o := options{parent: ident.ID(unsetSentinel), location: unsetSentinel}
	for _, opt := range opts {
		opt(&o)
	}

	newParentUnique := parts.ParentUnique
	if o.parent != ident.ID(unsetSentinel) {
		newParentUnique, err = r.parentUnique(o.parent)
		if err != nil {
			return "", err
		}
		if newParentUnique == parts.Unique {
			return "", fmt.Errorf("%w: %s cannot be its own parent", ErrDuplicateIdentifier, id)
		}
	}
	newLocation := parts.Location
	if o.location != unsetSentinel {
		newLocation = o.location
	}

	newUnique := parts.Unique
	if o.regenerate {
		newUnique = r.gen.Suffix()
	}

	newID := ident.Build(parts.Kind, newUnique, newParentUnique, newLocation)
	if newID == id {
		return id, nil
	}

	// Re-home the registration itself.
	delete(r.byID, id)
	delete(r.byUnique, parts.Unique)
	r.unindexKind(parts.Kind, id)
	if parts.ParentUnique != "" {
		r.unindexChild(parts.ParentUnique, id)
	}
	if o.regenerate {
		r.gen.Release(parts.Unique)
	}

	r.byID[newID] = component
	r.idOf[component] = newID
	r.byUnique[newUnique] = newID
	r.indexKind(parts.Kind, newID)
	if newParentUnique != "" {
		r.indexChild(newParentUnique, newID)
	}

	r.rewriteBindings(id, newID)

	// A regenerated suffix changes the parent segment of every child.
	if o.regenerate {
		r.reparentChildren(parts.Unique, newUnique)
	}

	log.Debug(log.CatRegistry, "updated registration", "from", id, "to", newID)
	parentID := ident.ID("")
	if newParentUnique != "" {
		parentID, _ = r.idForUnique(newParentUnique)
	}
	r.broker.Publish(pubsub.UpdatedEvent, LifecycleEvent{ID: newID, Kind: parts.Kind, Parent: parentID})
	return newID, nil
}

// Unregister removes a component from every index and detaches its
// bindings. Children are re-rooted (their parent segment cleared, unique
// suffix preserved) so no live identifier references a dead parent.
// Unregistering an unknown identifier is a no-op, making teardown
// idempotent.
func (r *Registry) Unregister(id ident.ID) {
	component, ok := r.byID[id]
	if !ok {
		return
	}
	parts, err := ident.Parse(id)
	if err != nil {
		return
	}

	// Re-root children first so their new identifiers stay resolvable.
	for _, childID := range sortedIDs(r.children[parts.Unique]) {
		if _, err := r.Update(childID, ClearParent()); err != nil {
			log.ErrorErr(log.CatRegistry, "re-rooting child failed", err, "child", childID)
		}
	}
	delete(r.children, parts.Unique)

	r.detachBindingsFor(id)

	delete(r.byID, id)
	delete(r.idOf, component)
	delete(r.byUnique, parts.Unique)
	r.unindexKind(parts.Kind, id)
	if parts.ParentUnique != "" {
		r.unindexChild(parts.ParentUnique, id)
	}
	r.gen.Release(parts.Unique)

	log.Debug(log.CatRegistry, "unregistered component", "id", id)
	r.broker.Publish(pubsub.UnregisteredEvent, LifecycleEvent{ID: id, Kind: parts.Kind})
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	return len(r.byID)
}

// IDs returns every live identifier, sorted.
func (r *Registry) IDs() []ident.ID {
	ids := make([]ident.ID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close shuts down the lifecycle broker.
func (r *Registry) Close() {
	r.broker.Close()
}

func (r *Registry) parentUnique(parent ident.ID) (string, error) {
	if parent == "" {
		return "", nil
	}
	parts, err := ident.Parse(parent)
	if err != nil {
		return "", err
	}
	if _, live := r.byID[parent]; !live {
		return "", fmt.Errorf("%w: parent %s", ErrNotFound, parent)
	}
	return parts.Unique, nil
}

// ResolveUnique returns the live identifier carrying the given unique
// suffix. Relationship updates change an identifier's parent and location
// segments but never its suffix, so the suffix is the stable handle for
// resolving references recorded before an update.
func (r *Registry) ResolveUnique(unique string) (ident.ID, bool) {
	return r.idForUnique(unique)
}

func (r *Registry) idForUnique(unique string) (ident.ID, bool) {
	id, ok := r.byUnique[unique]
	return id, ok
}

func (r *Registry) indexKind(kind ident.Kind, id ident.ID) {
	set, ok := r.byKind[kind]
	if !ok {
		set = make(map[ident.ID]struct{})
		r.byKind[kind] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) unindexKind(kind ident.Kind, id ident.ID) {
	if set, ok := r.byKind[kind]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byKind, kind)
		}
	}
}

func (r *Registry) indexChild(parentUnique string, id ident.ID) {
	set, ok := r.children[parentUnique]
	if !ok {
		set = make(map[ident.ID]struct{})
		r.children[parentUnique] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) unindexChild(parentUnique string, id ident.ID) {
	if set, ok := r.children[parentUnique]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.children, parentUnique)
		}
	}
}

// reparentChildren rewrites the parent segment of every child of
// oldUnique to newUnique. Child unique suffixes are preserved, so
// grandchildren are unaffected.
func (r *Registry) reparentChildren(oldUnique, newUnique string) {
	childIDs := sortedIDs(r.children[oldUnique])
	delete(r.children, oldUnique)
	for _, childID := range childIDs {
		childParts, err := ident.Parse(childID)
		if err != nil {
			continue
		}
		component := r.byID[childID]
		newChildID := ident.Build(childParts.Kind, childParts.Unique, newUnique, childParts.Location)

		delete(r.byID, childID)
		r.unindexKind(childParts.Kind, childID)
		r.byID[newChildID] = component
		r.idOf[component] = newChildID
		r.byUnique[childParts.Unique] = newChildID
		r.indexKind(childParts.Kind, newChildID)
		r.indexChild(newUnique, newChildID)
		r.rewriteBindings(childID, newChildID)
	}
}

func sortedIDs(set map[ident.ID]struct{}) []ident.ID {
	ids := make([]ident.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
