// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import "reflect"

// adaptContext is the state of a single top-level Adapt call. It is never
// shared between calls.
type adaptContext struct {
	registry *Registry

	// current is the mapping being applied. Nested lookups use its
	// implicit inheritance setting.
	current *compiledMapping

	// depth is the depth of the object currently being mapped; zero
	// before the top-level object is entered. maxDepth is the limit of
	// the top-level mapping and applies to nested mappings that don't
	// set their own.
	depth    int
	maxDepth int

	// identity tracks the destination created for each source pointer
	// for SameInstanceForSameType.
	identity map[identityKey]reflect.Value
}

type identityKey struct {
	src interface{}
	dst reflect.Type
}

func newAdaptContext(r *Registry, m *compiledMapping) *adaptContext {
	return &adaptContext{
		registry: r,
		maxDepth: m.settings.MaxDepth,
		identity: make(map[identityKey]reflect.Value),
	}
}

// adapt maps src with m and returns a pointer to the destination. If dst
// is valid it must be a pointer to an existing destination which is then
// mapped onto; otherwise a new destination is allocated.
//
// This returns false if the object is beyond the maximum depth and must be
// left unmapped.
func (ctx *adaptContext) adapt(m *compiledMapping, src, dst reflect.Value) (reflect.Value, bool, error) {
	limit := m.settings.MaxDepth
	if limit == 0 {
		limit = ctx.maxDepth
	}
	if limit > 0 && ctx.depth >= limit {
		return reflect.Value{}, false, nil
	}

	// Only pointers have an identity worth tracking.
	var key identityKey
	useIdentity := m.settings.SameInstanceForSameType && src.Kind() == reflect.Ptr
	if useIdentity {
		key = identityKey{src: src.Interface(), dst: m.pair.Destination}
		if existing, ok := ctx.identity[key]; ok {
			return existing, true, nil
		}
	}

	if !dst.IsValid() {
		dst = reflect.New(m.pair.Destination)
	}

	// Record the destination before mapping members so that cycles back
	// to src resolve to it.
	if useIdentity {
		ctx.identity[key] = dst
	}

	srcVal := src
	if src.Kind() == reflect.Ptr {
		srcVal = src.Elem()
	}

	parent := ctx.current
	ctx.current = m
	ctx.depth++
	defer func() {
		ctx.current = parent
		ctx.depth--
	}()

	if err := m.run(ctx, srcVal, dst.Elem()); err != nil {
		return reflect.Value{}, false, err
	}

	return dst, true, nil
}

// adaptNested maps a nested source value for pair. v is a struct, a
// non-nil pointer to a struct or a map. The result is a pointer to the
// destination if toPtr is true, otherwise the destination struct itself.
func (ctx *adaptContext) adaptNested(pair TypePair, v reflect.Value, toPtr bool) (reflect.Value, bool, error) {
	allowImplicit := ctx.registry.GlobalSettings().AllowImplicitDestinationInheritance
	if ctx.current != nil {
		allowImplicit = ctx.current.settings.AllowImplicitDestinationInheritance
	}

	m, err := ctx.registry.mappingFor(pair, allowImplicit)
	if err != nil {
		return reflect.Value{}, false, err
	}

	out, ok, err := ctx.adapt(m, v, reflect.Value{})
	if err != nil || !ok {
		return reflect.Value{}, ok, err
	}

	if !toPtr {
		return out.Elem(), true, nil
	}

	return out, true, nil
}
