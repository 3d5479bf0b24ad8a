package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/core/ident"
)

type fakeNode struct {
	name string
}

func TestRegister_GeneratesStructuredIdentifier(t *testing.T) {
	r := New()
	defer r.Close()

	node := &fakeNode{name: "root"}
	id, err := r.Register(node, "container")
	require.NoError(t, err)

	parts, err := ident.Parse(id)
	require.NoError(t, err)
	require.Equal(t, ident.Kind("container"), parts.Kind)
	require.NotEmpty(t, parts.Unique)
	require.Empty(t, parts.ParentUnique)
	require.Empty(t, parts.Location)

	got, err := r.Get(id)
	require.NoError(t, err)
	require.Same(t, node, got)

	back, err := r.IDOf(node)
	require.NoError(t, err)
	require.Equal(t, id, back)
}

func TestRegister_WithParentAndLocation(t *testing.T) {
	r := New()
	defer r.Close()

	parentID, err := r.Register(&fakeNode{name: "parent"}, "container")
	require.NoError(t, err)

	childID, err := r.Register(&fakeNode{name: "child"}, "observable",
		WithParent(parentID), WithLocation("left"))
	require.NoError(t, err)

	childParts, err := ident.Parse(childID)
	require.NoError(t, err)
	parentParts, err := ident.Parse(parentID)
	require.NoError(t, err)
	require.Equal(t, parentParts.Unique, childParts.ParentUnique)
	require.Equal(t, "left", childParts.Location)

	children, err := r.ChildrenOf(parentID)
	require.NoError(t, err)
	require.Equal(t, []ident.ID{childID}, children)

	resolvedParent, err := r.ParentOf(childID)
	require.NoError(t, err)
	require.Equal(t, parentID, resolvedParent)
}

func TestRegister_UnknownParent(t *testing.T) {
	r := New()
	defer r.Close()

	_, err := r.Register(&fakeNode{}, "observable",
		WithParent("container::deadbeef::-::-"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, r.Len(), "failed registration must not leave state behind")
}

func TestRegister_ExplicitID(t *testing.T) {
	r := New()
	defer r.Close()

	explicit := ident.Build("observable", "cafebabe", "", "dock")
	id, err := r.Register(&fakeNode{}, "observable", WithExplicitID(explicit))
	require.NoError(t, err)
	require.Equal(t, explicit, id)

	// Same suffix is now live: both explicit reuse and generated ids must avoid it.
	_, err = r.Register(&fakeNode{}, "observable", WithExplicitID(explicit))
	require.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestRegister_ExplicitIDKindMismatch(t *testing.T) {
	r := New()
	defer r.Close()

	explicit := ident.Build("observable", "cafebabe", "", "")
	_, err := r.Register(&fakeNode{}, "container", WithExplicitID(explicit))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRegister_SameComponentTwice(t *testing.T) {
	r := New()
	defer r.Close()

	node := &fakeNode{}
	_, err := r.Register(node, "container")
	require.NoError(t, err)
	_, err = r.Register(node, "container")
	require.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestRegister_NilComponent(t *testing.T) {
	r := New()
	defer r.Close()

	_, err := r.Register(nil, "container")
	require.ErrorIs(t, err, ErrNilComponent)
}

func TestGet_NotFound(t *testing.T) {
	r := New()
	defer r.Close()

	_, err := r.Get("container::deadbeef::-::-")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetKind(t *testing.T) {
	r := New()
	defer r.Close()

	id, err := r.Register(&fakeNode{}, "observable")
	require.NoError(t, err)

	_, err = r.GetKind(id, "observable")
	require.NoError(t, err)

	_, err = r.GetKind(id, "container")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestByKind(t *testing.T) {
	r := New()
	defer r.Close()

	a, err := r.Register(&fakeNode{name: "a"}, "observable")
	require.NoError(t, err)
	b, err := r.Register(&fakeNode{name: "b"}, "observable")
	require.NoError(t, err)
	_, err = r.Register(&fakeNode{name: "c"}, "container")
	require.NoError(t, err)

	ids := r.ByKind("observable")
	require.Len(t, ids, 2)
	require.Contains(t, ids, a)
	require.Contains(t, ids, b)

	require.Empty(t, r.ByKind("controller"))
}

func TestUpdate_ReparentPreservesSuffix(t *testing.T) {
	r := New()
	defer r.Close()

	p1, err := r.Register(&fakeNode{name: "p1"}, "container")
	require.NoError(t, err)
	p2, err := r.Register(&fakeNode{name: "p2"}, "container")
	require.NoError(t, err)
	child, err := r.Register(&fakeNode{name: "child"}, "observable", WithParent(p1))
	require.NoError(t, err)

	oldParts, err := ident.Parse(child)
	require.NoError(t, err)

	newID, err := r.Update(child, WithParent(p2))
	require.NoError(t, err)
	require.NotEqual(t, child, newID)

	newParts, err := ident.Parse(newID)
	require.NoError(t, err)
	require.Equal(t, oldParts.Unique, newParts.Unique, "suffix preserved by default")

	p2Parts, err := ident.Parse(p2)
	require.NoError(t, err)
	require.Equal(t, p2Parts.Unique, newParts.ParentUnique)

	// Old identifier is gone, new one resolves.
	_, err = r.Get(child)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(newID)
	require.NoError(t, err)

	// Index moved with it.
	p1Children, err := r.ChildrenOf(p1)
	require.NoError(t, err)
	require.Empty(t, p1Children)
	p2Children, err := r.ChildrenOf(p2)
	require.NoError(t, err)
	require.Equal(t, []ident.ID{newID}, p2Children)
}

func TestUpdate_RegenerateRewritesChildren(t *testing.T) {
	r := New()
	defer r.Close()

	parent, err := r.Register(&fakeNode{name: "parent"}, "container")
	require.NoError(t, err)
	child, err := r.Register(&fakeNode{name: "child"}, "observable", WithParent(parent))
	require.NoError(t, err)
	grandchild, err := r.Register(&fakeNode{name: "grandchild"}, "observable", WithParent(child))
	require.NoError(t, err)

	oldParts, err := ident.Parse(parent)
	require.NoError(t, err)

	newParent, err := r.Update(parent, Regenerate())
	require.NoError(t, err)
	newParts, err := ident.Parse(newParent)
	require.NoError(t, err)
	require.NotEqual(t, oldParts.Unique, newParts.Unique)

	// The child's parent segment follows the regenerated suffix.
	children, err := r.ChildrenOf(newParent)
	require.NoError(t, err)
	require.Len(t, children, 1)
	childParts, err := ident.Parse(children[0])
	require.NoError(t, err)
	require.Equal(t, newParts.Unique, childParts.ParentUnique)

	// The grandchild kept its identifier: its parent's suffix is unchanged.
	_, err = r.Get(grandchild)
	require.NoError(t, err)
	grandchildren, err := r.ChildrenOf(children[0])
	require.NoError(t, err)
	require.Equal(t, []ident.ID{grandchild}, grandchildren)
}

func TestUpdate_LocationOnly(t *testing.T) {
	r := New()
	defer r.Close()

	id, err := r.Register(&fakeNode{}, "observable", WithLocation("left"))
	require.NoError(t, err)

	newID, err := r.Update(id, WithLocation("right"))
	require.NoError(t, err)
	parts, err := ident.Parse(newID)
	require.NoError(t, err)
	require.Equal(t, "right", parts.Location)

	// No-op update returns the same identifier.
	same, err := r.Update(newID, WithLocation("right"))
	require.NoError(t, err)
	require.Equal(t, newID, same)
}

func TestUpdate_NotFound(t *testing.T) {
	r := New()
	defer r.Close()

	_, err := r.Update("container::deadbeef::-::-", WithLocation("x"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnregister_RemovesEverywhere(t *testing.T) {
	r := New()
	defer r.Close()

	node := &fakeNode{}
	id, err := r.Register(node, "observable")
	require.NoError(t, err)

	r.Unregister(id)

	_, err = r.Get(id)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.IDOf(node)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, r.ByKind("observable"))
	require.Zero(t, r.Len())

	// Idempotent.
	r.Unregister(id)
}

func TestUnregister_ReRootsChildren(t *testing.T) {
	r := New()
	defer r.Close()

	parent, err := r.Register(&fakeNode{name: "parent"}, "container")
	require.NoError(t, err)
	childNode := &fakeNode{name: "child"}
	child, err := r.Register(childNode, "observable", WithParent(parent))
	require.NoError(t, err)
	childParts, err := ident.Parse(child)
	require.NoError(t, err)

	r.Unregister(parent)

	newChildID, err := r.IDOf(childNode)
	require.NoError(t, err)
	newParts, err := ident.Parse(newChildID)
	require.NoError(t, err)
	require.Equal(t, childParts.Unique, newParts.Unique)
	require.False(t, newParts.HasParent(), "child must be re-rooted, not dangle")
}

func TestUnregister_FreesSuffixForReuse(t *testing.T) {
	r := New()
	defer r.Close()

	explicit := ident.Build("observable", "cafebabe", "", "")
	_, err := r.Register(&fakeNode{}, "observable", WithExplicitID(explicit))
	require.NoError(t, err)

	r.Unregister(explicit)

	_, err = r.Register(&fakeNode{}, "observable", WithExplicitID(explicit))
	require.NoError(t, err, "suffix must be reusable after unregistration")
}
