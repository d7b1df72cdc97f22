// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
)

// CastDirection is the side of a type pair that failed an inheritance check.
type CastDirection string

const (
	CastSource      CastDirection = "source"
	CastDestination CastDirection = "destination"
)

// ErrInvalidCast is returned by Inherits when the configuration's types do
// not derive from the declared base types. Configuration inheritance must
// track the inheritance of the underlying types.
type ErrInvalidCast struct {
	// Pair is the configuration that Inherits was called on.
	Pair TypePair

	// Base is the base pair that was declared.
	Base TypePair

	// Direction is the side of the pair that failed the check.
	Direction CastDirection

	// Reason optionally replaces the default explanation.
	Reason string
}

func (e *ErrInvalidCast) Error() string {
	derived, base := e.Pair.Source, e.Base.Source
	if e.Direction == CastDestination {
		derived, base = e.Pair.Destination, e.Base.Destination
	}

	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("%s type %s does not derive from base %s type %s",
			e.Direction, typeName(derived), e.Direction, typeName(base))
	}

	return fmt.Sprintf("invalid cast: configuration %q cannot inherit %q: %s",
		e.Pair.String(), e.Base.String(), reason)
}

// ErrMemberConfig is returned when a member rule can't be registered or
// compiled for a configuration.
type ErrMemberConfig struct {
	// Pair is the configuration the rule belongs to.
	Pair TypePair

	// Member is the destination member named by the rule.
	Member string

	// Reason explains why the rule is invalid.
	Reason string
}

func (e *ErrMemberConfig) Error() string {
	return fmt.Sprintf("configuration %q: member %q: %s",
		e.Pair.String(), e.Member, e.Reason)
}

// ErrMember wraps an error returned by a rule function while adapting.
type ErrMember struct {
	// Pair is the configuration that was being applied.
	Pair TypePair

	// Member is the destination member being mapped.
	Member string

	// Err is the error returned by the value or condition function.
	Err error
}

func (e *ErrMember) Error() string {
	return fmt.Sprintf("error mapping %q member %q: %s", e.Pair.String(), e.Member, e.Err)
}

func (e *ErrMember) Unwrap() error { return e.Err }

func memberConfigError(p TypePair, member, format string, args ...interface{}) error {
	return &ErrMemberConfig{
		Pair:   p,
		Member: member,
		Reason: fmt.Sprintf(format, args...),
	}
}

// errType is used for comparison when validating rule functions.
var errType = reflect.TypeOf((*error)(nil)).Elem()

var (
	_ error = (*ErrInvalidCast)(nil)
	_ error = (*ErrMemberConfig)(nil)
	_ error = (*ErrMember)(nil)
)
