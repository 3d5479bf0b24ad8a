package registry

import "github.com/loomkit/loom/internal/core/ident"

// unsetSentinel distinguishes "option not given" from "clear the value"
// inside Update. It can never collide with a real identifier or location
// because identifiers always contain "::".
const unsetSentinel = "\x00unset"

type options struct {
	explicitID ident.ID
	parent     ident.ID
	location   string
	regenerate bool
}

// Option configures Register and Update calls.
type Option func(*options)

// WithExplicitID registers a component under a previously serialized
// identifier instead of generating a fresh one.
func WithExplicitID(id ident.ID) Option {
	return func(o *options) { o.explicitID = id }
}

// WithParent sets the parent registration.
func WithParent(parent ident.ID) Option {
	return func(o *options) { o.parent = parent }
}

// ClearParent removes the parent relationship, making the registration
// a root.
func ClearParent() Option {
	return func(o *options) { o.parent = "" }
}

// WithLocation sets the structural location hint.
func WithLocation(location string) Option {
	return func(o *options) { o.location = location }
}

// ClearLocation removes the location hint.
func ClearLocation() Option {
	return func(o *options) { o.location = "" }
}

// Regenerate opts in to a fresh unique suffix during Update. The default
// preserves the suffix so existing references stay valid.
func Regenerate() Option {
	return func(o *options) { o.regenerate = true }
}
