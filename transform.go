// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
)

// DestinationTransforms holds post-processing functions keyed by
// destination value type. A transform for type T is applied to every value
// of type T that the configuration assigns to a destination member.
type DestinationTransforms struct {
	config *Configuration
	fns    map[reflect.Type]reflect.Value
}

func newDestinationTransforms(c *Configuration) *DestinationTransforms {
	return &DestinationTransforms{
		config: c,
		fns:    make(map[reflect.Type]reflect.Value),
	}
}

// Upsert adds or replaces the transform for a value type. fn must have the
// signature `func(T) T`; the transform is registered for T. An invalid fn
// is reported when the configuration is compiled.
//
// This returns the transforms so calls can be chained.
func (t *DestinationTransforms) Upsert(fn interface{}) *DestinationTransforms {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		t.config.addError(fmt.Errorf(
			"configuration %q: destination transform should be a function, got %T",
			t.config.pair.String(), fn))
		return t
	}

	ft := fv.Type()
	if ft.NumIn() != 1 || ft.NumOut() != 1 || ft.In(0) != ft.Out(0) || ft.IsVariadic() {
		t.config.addError(fmt.Errorf(
			"configuration %q: destination transform must have the signature func(T) T, got %s",
			t.config.pair.String(), ft))
		return t
	}

	t.fns[ft.In(0)] = fv
	return t
}

// Types returns the value types that have a transform.
func (t *DestinationTransforms) Types() []reflect.Type {
	result := make([]reflect.Type, 0, len(t.fns))
	for k := range t.fns {
		result = append(result, k)
	}

	return result
}

// transformSet is an immutable, resolved set of transforms.
type transformSet map[reflect.Type]reflect.Value

// inherit returns the union of base and s where s wins for the same type.
func (s transformSet) inherit(base transformSet) transformSet {
	result := make(transformSet, len(base)+len(s))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range s {
		result[k] = v
	}

	return result
}

// forType returns the transform for values of type t, or nil.
func (s transformSet) forType(t reflect.Type) func(reflect.Value) reflect.Value {
	fn, ok := s[t]
	if !ok {
		return nil
	}

	return func(v reflect.Value) reflect.Value {
		return fn.Call([]reflect.Value{v})[0]
	}
}

func (t *DestinationTransforms) snapshot() transformSet {
	result := make(transformSet, len(t.fns))
	for k, v := range t.fns {
		result[k] = v
	}

	return result
}
