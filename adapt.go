// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
)

// Adapt maps src to a new value of type D using the configuration for the
// type of src and D in r. D is a struct or a pointer to a struct; src is a
// struct, a pointer to a struct or a map with string keys.
//
// If the configuration isn't compiled yet it is compiled now. If there is
// no configuration at all, the configuration of the nearest base pair is
// used when implicit destination inheritance is allowed, otherwise a
// default convention-only configuration is compiled.
//
// A nil pointer src results in the zero value of D.
func Adapt[D any](r *Registry, src interface{}) (D, error) {
	var result D

	dt := typeOf[D]()
	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return result, fmt.Errorf("cannot adapt nil to %s", dt)
	}
	if sv.Kind() == reflect.Ptr && sv.IsNil() {
		return result, nil
	}

	out, err := adapt(r, sv, dt, reflect.Value{})
	if err != nil {
		return result, err
	}

	if dt.Kind() == reflect.Ptr {
		return out.Interface().(D), nil
	}

	return out.Elem().Interface().(D), nil
}

// MustAdapt is like Adapt but panics on error.
func MustAdapt[D any](r *Registry, src interface{}) D {
	result, err := Adapt[D](r, src)
	if err != nil {
		panic(err)
	}

	return result
}

// AdaptTo maps src onto the existing destination that dst points to.
// Members that are ignored, skipped by a condition or skipped as null
// values keep their current value.
func AdaptTo(r *Registry, src, dst interface{}) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
	}

	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		return fmt.Errorf("cannot adapt nil to %s", dv.Type())
	}
	if sv.Kind() == reflect.Ptr && sv.IsNil() {
		return nil
	}

	_, err := adapt(r, sv, dv.Type(), dv)
	return err
}

// Adapt maps src to a new D. See the package-level Adapt.
func (t *TypeConfig[S, D]) Adapt(src S) (D, error) {
	return Adapt[D](t.config.registry, src)
}

// adapt runs a top-level mapping from src to dstType. dst is an existing
// destination pointer or the invalid Value.
func adapt(r *Registry, src reflect.Value, dstType reflect.Type, dst reflect.Value) (reflect.Value, error) {
	pair := NewPair(src.Type(), dstType)
	m, err := r.mappingFor(pair, r.GlobalSettings().AllowImplicitDestinationInheritance)
	if err != nil {
		return reflect.Value{}, err
	}

	ctx := newAdaptContext(r, m)
	out, _, err := ctx.adapt(m, src, dst)
	return out, err
}
