// Package ident defines the structured identifier format used to name
// registered components and encode their structural relationships.
//
// An identifier is a string of four fixed segments separated by "::":
//
//	{kind}::{unique}::{parent-unique}::{location}
//
// Example: observable::a1b2c3d4::9f8e7d6c::left
//
// The kind tag names the component's type, the unique suffix makes the
// identifier globally unique while registered, the parent segment carries
// the unique suffix of the parent registration, and location is a free-form
// structural hint. Absent parent and location segments are written as "-"
// so every identifier parses deterministically without lookahead.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder marks an absent optional segment.
const Placeholder = "-"

// Identifier errors.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier format")
	ErrInvalidKind       = errors.New("invalid kind tag")
)

// ID is a structured identifier string.
type ID string

// Kind tags the component type encoded in an identifier.
type Kind string

// String returns the string form of the kind tag.
func (k Kind) String() string {
	return string(k)
}

// Parts holds the decoded components of an identifier.
// ParentUnique and Location are empty when their segments are absent.
type Parts struct {
	Kind         Kind
	Unique       string
	ParentUnique string
	Location     string
}

// HasParent reports whether the identifier encodes a parent relationship.
func (p *Parts) HasParent() bool {
	return p.ParentUnique != ""
}

// ID re-encodes the parts into an identifier string.
func (p *Parts) ID() ID {
	return Build(p.Kind, p.Unique, p.ParentUnique, p.Location)
}

// Parse decodes an identifier into its parts.
// Exactly four non-empty "::"-separated segments are required; parent and
// location segments equal to "-" decode as absent.
func Parse(id ID) (*Parts, error) {
	if id == "" {
		return nil, ErrInvalidIdentifier
	}

	parts := strings.Split(string(id), "::")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	kind, unique, parent, location := parts[0], parts[1], parts[2], parts[3]
	if kind == "" || kind == Placeholder || unique == "" || unique == Placeholder ||
		parent == "" || location == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	if parent == Placeholder {
		parent = ""
	}
	if location == Placeholder {
		location = ""
	}

	return &Parts{
		Kind:         Kind(kind),
		Unique:       unique,
		ParentUnique: parent,
		Location:     location,
	}, nil
}

// Build constructs an identifier from components.
// Empty parentUnique and location encode as the "-" placeholder.
func Build(kind Kind, unique, parentUnique, location string) ID {
	if parentUnique == "" {
		parentUnique = Placeholder
	}
	if location == "" {
		location = Placeholder
	}
	return ID(fmt.Sprintf("%s::%s::%s::%s", kind, unique, parentUnique, location))
}

// ValidateKind checks that a kind tag is usable inside an identifier.
func ValidateKind(kind Kind) error {
	s := string(kind)
	if s == "" || s == Placeholder || strings.Contains(s, "::") {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

// KindOf decodes only the kind tag of an identifier.
func KindOf(id ID) (Kind, error) {
	parts, err := Parse(id)
	if err != nil {
		return "", err
	}
	return parts.Kind, nil
}
