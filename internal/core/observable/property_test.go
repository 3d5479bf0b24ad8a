package observable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/core/ident"
)

func defineProp(t *testing.T, initial any) *Property {
	t.Helper()
	obs := New()
	p, err := obs.Define("name", initial)
	require.NoError(t, err)
	return p
}

func TestSet_NotifiesOnChange(t *testing.T) {
	p := defineProp(t, "Alice")

	var gotOld, gotNew any
	calls := 0
	p.AddObserver(func(old, new any) {
		calls++
		gotOld, gotNew = old, new
	})

	require.NoError(t, p.Set("Bob"))
	require.Equal(t, 1, calls)
	require.Equal(t, "Alice", gotOld)
	require.Equal(t, "Bob", gotNew)
	require.Equal(t, "Bob", p.Get())
}

func TestSet_SameValueIsNoop(t *testing.T) {
	p := defineProp(t, "Alice")

	calls := 0
	p.AddObserver(func(old, new any) { calls++ })

	require.NoError(t, p.Set("Alice"))
	require.Zero(t, calls, "setting the current value must trigger zero notifications")
}

func TestSet_SliceValuesCompareByContent(t *testing.T) {
	p := defineProp(t, []int{1, 2, 3})

	calls := 0
	p.AddObserver(func(old, new any) { calls++ })

	require.NoError(t, p.Set([]int{1, 2, 3}))
	require.Zero(t, calls)

	require.NoError(t, p.Set([]int{1, 2, 4}))
	require.Equal(t, 1, calls)
}

func TestSet_ReentrantWriteRejected(t *testing.T) {
	p := defineProp(t, 1)

	var reentrantErr error
	p.AddObserver(func(old, new any) {
		reentrantErr = p.Set(99)
	})

	require.NoError(t, p.Set(2))
	require.ErrorIs(t, reentrantErr, ErrReentrantSet)
	require.Equal(t, 2, p.Get(), "reentrant write must not land")

	// The guard resets once notification finishes.
	require.NoError(t, p.Set(3))
	require.Equal(t, 3, p.Get())
}

func TestRemoveObserver_IsSynchronous(t *testing.T) {
	p := defineProp(t, 0)

	calls := 0
	token := p.AddObserver(func(old, new any) { calls++ })
	p.RemoveObserver(token)

	require.NoError(t, p.Set(1))
	require.Zero(t, calls, "removed observer must never fire")

	// Unknown token removal is a no-op.
	p.RemoveObserver(ObserverToken("bogus"))
}

func TestRemoveObserver_MidNotification(t *testing.T) {
	p := defineProp(t, 0)

	secondCalls := 0
	var second ObserverToken
	p.AddObserver(func(old, new any) {
		// Removing a peer mid-dispatch must suppress it immediately.
		p.RemoveObserver(second)
	})
	second = p.AddObserver(func(old, new any) { secondCalls++ })

	require.NoError(t, p.Set(1))
	require.Zero(t, secondCalls)
	require.Equal(t, 1, p.ObserverCount())
}

func TestRemoveObserver_ClosuresNeedNoIdentity(t *testing.T) {
	p := defineProp(t, 0)

	// Two identical closures: tokens tell them apart.
	calls := []int{0, 0}
	t1 := p.AddObserver(func(old, new any) { calls[0]++ })
	t2 := p.AddObserver(func(old, new any) { calls[1]++ })
	require.NotEqual(t, t1, t2)

	p.RemoveObserver(t1)
	require.NoError(t, p.Set(1))
	require.Equal(t, 0, calls[0])
	require.Equal(t, 1, calls[1])
}

func TestRestore_DoesNotNotify(t *testing.T) {
	p := defineProp(t, "Alice")

	calls := 0
	p.AddObserver(func(old, new any) { calls++ })

	p.Restore("Bob")
	require.Zero(t, calls)
	require.Equal(t, "Bob", p.Get())
}

func TestSerializeProperty_RoundTrip(t *testing.T) {
	owner := ident.Build("observable", "a1b2c3d4", "", "")
	p := defineProp(t, "Alice")

	rec := p.SerializeProperty(owner)
	require.Equal(t, owner, rec.Owner)
	require.Equal(t, "name", rec.Name)
	require.Equal(t, "Alice", rec.Value)

	p.Restore("other")
	require.NoError(t, p.DeserializeProperty(rec))
	require.Equal(t, "Alice", p.Get())

	err := p.DeserializeProperty(Record{Owner: owner, Name: "age", Value: 3})
	require.ErrorIs(t, err, ErrPropertyNameMismatch)
}

func TestObservable_DefineAndLookup(t *testing.T) {
	obs := New()

	_, err := obs.Define("name", "Alice")
	require.NoError(t, err)
	_, err = obs.Define("age", 30)
	require.NoError(t, err)

	_, err = obs.Define("name", "dup")
	require.ErrorIs(t, err, ErrPropertyExists)

	p, err := obs.Property("age")
	require.NoError(t, err)
	require.Equal(t, 30, p.Get())

	_, err = obs.Property("missing")
	require.ErrorIs(t, err, ErrPropertyNotFound)

	require.True(t, obs.HasProperty("name"))
	require.False(t, obs.HasProperty("missing"))
	require.Equal(t, []string{"name", "age"}, obs.Names())
	require.Equal(t, map[string]any{"name": "Alice", "age": 30}, obs.Values())
}

func TestObservable_Teardown(t *testing.T) {
	obs := New()
	p, err := obs.Define("name", "Alice")
	require.NoError(t, err)
	p.AddObserver(func(old, new any) {})

	obs.Teardown()
	require.False(t, obs.HasProperty("name"))
	require.Empty(t, obs.Names())

	// Reusable after teardown.
	_, err = obs.Define("name", "fresh")
	require.NoError(t, err)
}
