package observable

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/log"
)

// ObserverToken identifies a subscription for later removal.
type ObserverToken string

// Observer is called with the previous and new value after a change.
type Observer func(old, new any)

// Property is a named, typed slot owned by exactly one Observable.
type Property struct {
	owner      *Observable
	name       string
	value      any
	observers  map[ObserverToken]Observer
	tokenOrder []ObserverToken
	notifying  bool
}

func newProperty(owner *Observable, name string, initial any) *Property {
	return &Property{
		owner:     owner,
		name:      name,
		value:     initial,
		observers: make(map[ObserverToken]Observer),
	}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// Owner returns the owning observable.
func (p *Property) Owner() *Observable {
	return p.owner
}

// Get returns the current value.
func (p *Property) Get() any {
	return p.value
}

// Set stores a new value and notifies observers.
// Setting the current value again is a no-op: no notification fires.
// A write issued synchronously from one of this property's own observers
// is rejected with ErrReentrantSet.
func (p *Property) Set(value any) error {
	if p.notifying {
		return fmt.Errorf("%w: %s", ErrReentrantSet, p.name)
	}
	if valuesEqual(p.value, value) {
		return nil
	}

	old := p.value
	p.value = value

	p.notifying = true
	defer func() { p.notifying = false }()

	// Iterate over a snapshot of the token order: an observer removing
	// itself (or a peer) mid-dispatch must take effect immediately, so
	// each token is re-checked against the live table.
	snapshot := make([]ObserverToken, len(p.tokenOrder))
	copy(snapshot, p.tokenOrder)
	for _, token := range snapshot {
		if observer, live := p.observers[token]; live {
			observer(old, value)
		}
	}
	log.Debug(log.CatObserve, "property changed", "property", p.name, "observers", len(p.observers))
	return nil
}

// AddObserver subscribes a callback and returns its removal token.
func (p *Property) AddObserver(observer Observer) ObserverToken {
	token := ObserverToken(uuid.New().String())
	p.observers[token] = observer
	p.tokenOrder = append(p.tokenOrder, token)
	return token
}

// RemoveObserver unsubscribes synchronously: the callback cannot fire
// after this returns, even when removal happens mid-notification.
// Removing an unknown token is a no-op.
func (p *Property) RemoveObserver(token ObserverToken) {
	if _, ok := p.observers[token]; !ok {
		return
	}
	delete(p.observers, token)
	for i, t := range p.tokenOrder {
		if t == token {
			p.tokenOrder = append(p.tokenOrder[:i], p.tokenOrder[i+1:]...)
			break
		}
	}
}

// ObserverCount returns the number of live subscriptions.
func (p *Property) ObserverCount() int {
	return len(p.observers)
}

// Restore overwrites the value without notifying observers. Used by graph
// reconstruction, where phase 1 applies scalar properties before any
// observer exists to care.
func (p *Property) Restore(value any) {
	p.value = value
}

// Record round-trips a property value together with its owning
// observable's identifier and the property name.
type Record struct {
	Owner ident.ID `yaml:"owner"`
	Name  string   `yaml:"name"`
	Value any      `yaml:"value"`
}

// SerializeProperty captures the property into a Record.
func (p *Property) SerializeProperty(owner ident.ID) Record {
	return Record{Owner: owner, Name: p.name, Value: p.value}
}

// DeserializeProperty restores the value from a Record. The record's name
// must match this property.
func (p *Property) DeserializeProperty(rec Record) error {
	if rec.Name != p.name {
		return fmt.Errorf("%w: record %q, property %q", ErrPropertyNameMismatch, rec.Name, p.name)
	}
	p.Restore(rec.Value)
	return nil
}

// valuesEqual compares property values. reflect.DeepEqual keeps slice and
// map valued properties from panicking under ==.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
