package registry

import (
	"errors"
	"fmt"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/pubsub"
)

// Binding errors.
var (
	ErrAlreadyBound    = errors.New("property already has a controller")
	ErrBindingNotFound = errors.New("binding not found")
	ErrUnknownProperty = errors.New("component does not own property")
)

// Binding associates one controller-side property with one
// observable-side property. A given observable property has zero or one
// controller at any time.
type Binding struct {
	ControllerID       ident.ID
	ControllerProperty string
	ObservableID       ident.ID
	ObservableProperty string
}

// Bind attaches a binding between a controller property and an observable
// property. Both components must be live; when either implements
// PropertyHolder the named property must exist. Fails with
// ErrAlreadyBound when the observable property already has a controller.
func (r *Registry) Bind(controllerID ident.ID, controllerProperty string, observableID ident.ID, observableProperty string) error {
	controller, err := r.Get(controllerID)
	if err != nil {
		return err
	}
	observable, err := r.Get(observableID)
	if err != nil {
		return err
	}

	if holder, ok := controller.(PropertyHolder); ok && !holder.HasProperty(controllerProperty) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, controllerProperty, controllerID)
	}
	if holder, ok := observable.(PropertyHolder); ok && !holder.HasProperty(observableProperty) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownProperty, observableProperty, observableID)
	}

	for _, b := range r.bindings {
		if b.ObservableID == observableID && b.ObservableProperty == observableProperty {
			return fmt.Errorf("%w: %s.%s controlled by %s",
				ErrAlreadyBound, observableID, observableProperty, b.ControllerID)
		}
	}

	r.bindings = append(r.bindings, Binding{
		ControllerID:       controllerID,
		ControllerProperty: controllerProperty,
		ObservableID:       observableID,
		ObservableProperty: observableProperty,
	})

	log.Debug(log.CatRegistry, "bound property",
		"controller", controllerID, "property", observableProperty, "observable", observableID)
	r.broker.Publish(pubsub.BoundEvent, LifecycleEvent{ID: observableID})
	return nil
}

// Unbind detaches a previously attached binding.
func (r *Registry) Unbind(controllerID ident.ID, controllerProperty string, observableID ident.ID, observableProperty string) error {
	for i, b := range r.bindings {
		if b.ControllerID == controllerID && b.ControllerProperty == controllerProperty &&
			b.ObservableID == observableID && b.ObservableProperty == observableProperty {
			r.bindings = append(r.bindings[:i], r.bindings[i+1:]...)
			r.broker.Publish(pubsub.UnboundEvent, LifecycleEvent{ID: observableID})
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s -> %s.%s",
		ErrBindingNotFound, controllerID, controllerProperty, observableID, observableProperty)
}

// BindingsFor returns every binding referencing id on either side.
func (r *Registry) BindingsFor(id ident.ID) []Binding {
	var result []Binding
	for _, b := range r.bindings {
		if b.ControllerID == id || b.ObservableID == id {
			result = append(result, b)
		}
	}
	return result
}

// Bindings returns a copy of every live binding.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	return out
}

// detachBindingsFor removes every binding referencing id on either side.
// Called from Unregister so bindings never dangle.
func (r *Registry) detachBindingsFor(id ident.ID) {
	kept := r.bindings[:0]
	for _, b := range r.bindings {
		if b.ControllerID == id || b.ObservableID == id {
			log.Debug(log.CatRegistry, "detached binding",
				"controller", b.ControllerID, "observable", b.ObservableID)
			r.broker.Publish(pubsub.UnboundEvent, LifecycleEvent{ID: b.ObservableID})
			continue
		}
		kept = append(kept, b)
	}
	r.bindings = kept
}

// rewriteBindings redirects binding references after an identifier change.
func (r *Registry) rewriteBindings(oldID, newID ident.ID) {
	for i := range r.bindings {
		if r.bindings[i].ControllerID == oldID {
			r.bindings[i].ControllerID = newID
		}
		if r.bindings[i].ObservableID == oldID {
			r.bindings[i].ObservableID = newID
		}
	}
}
