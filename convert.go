// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
)

// compatibility is how a value of one type can be turned into a value of
// another type. Higher is better.
type compatibility int

const (
	incompatible compatibility = iota

	// dynamic means the source is an interface and the conversion is
	// chosen at runtime from the dynamic type.
	dynamic

	// convertible means a Go conversion is used.
	convertible

	// pointer means one level of pointer is added or removed.
	pointer

	// nested means both sides are structs (or struct pointers) and the
	// value is adapted through the registry.
	nested

	// assignable means the value is assigned directly.
	assignable

	// identical means the types are identical.
	identical
)

func (c compatibility) String() string {
	switch c {
	case identical:
		return "identical"
	case assignable:
		return "assignable"
	case nested:
		return "nested"
	case pointer:
		return "pointer"
	case convertible:
		return "convertible"
	case dynamic:
		return "dynamic"
	default:
		return "incompatible"
	}
}

// converter turns a value into a value of the destination type. It returns
// false if the value should be left unmapped, which happens when nested
// mapping reaches the maximum depth.
type converter func(ctx *adaptContext, v reflect.Value) (reflect.Value, bool, error)

// converterFor returns the converter from values of type from to values
// of type to.
func converterFor(from, to reflect.Type) (converter, compatibility) {
	switch {
	case from == to:
		return convertAssign, identical

	case from.AssignableTo(to):
		return convertAssign, assignable
	}

	// Structs are always mapped through the registry, even when Go could
	// convert them directly, so their own configuration applies.
	if fromElem, toElem, ok := structPair(from, to); ok {
		pair := NewPair(fromElem, toElem)
		toPtr := to.Kind() == reflect.Ptr
		return func(ctx *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
			if isNil(v) {
				return reflect.Zero(to), true, nil
			}

			return ctx.adaptNested(pair, v, toPtr)
		}, nested
	}

	switch {
	case from.Kind() == reflect.Ptr && from.Elem().AssignableTo(to):
		return func(_ *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
			if v.IsNil() {
				return reflect.Zero(to), true, nil
			}

			return v.Elem(), true, nil
		}, pointer

	case to.Kind() == reflect.Ptr && from.AssignableTo(to.Elem()):
		return func(_ *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
			ptr := reflect.New(to.Elem())
			ptr.Elem().Set(v)
			return ptr, true, nil
		}, pointer

	case isConvertible(from, to):
		return func(_ *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
			return v.Convert(to), true, nil
		}, convertible

	case from.Kind() == reflect.Interface:
		return func(ctx *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
			if v.IsNil() {
				return reflect.Zero(to), true, nil
			}

			elem := v.Elem()
			conv, c := converterFor(elem.Type(), to)
			if c == incompatible {
				return reflect.Value{}, false, fmt.Errorf(
					"cannot assign value of type %s to %s", elem.Type(), to)
			}

			return conv(ctx, elem)
		}, dynamic
	}

	return nil, incompatible
}

func convertAssign(_ *adaptContext, v reflect.Value) (reflect.Value, bool, error) {
	return v, true, nil
}

// structPair returns the struct types behind from and to if both are a
// struct or a pointer to a struct. Maps with string keys are accepted as
// the source as well.
func structPair(from, to reflect.Type) (reflect.Type, reflect.Type, bool) {
	fromElem, toElem := indirectType(from), indirectType(to)
	if toElem.Kind() != reflect.Struct {
		return nil, nil, false
	}

	switch fromElem.Kind() {
	case reflect.Struct:
		return fromElem, toElem, true

	case reflect.Map:
		if from.Kind() == reflect.Map && fromElem.Key().Kind() == reflect.String {
			return fromElem, toElem, true
		}
	}

	return nil, nil, false
}

// isConvertible is reflect.Type.ConvertibleTo without the conversions that
// are legal Go but never what a mapping wants: integers to strings (which
// produce runes) and slices to arrays (which panic on short slices).
func isConvertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}

	switch {
	case isInteger(from.Kind()) && to.Kind() == reflect.String:
		return false

	case from.Kind() == reflect.Slice && to.Kind() == reflect.Array:
		return false

	case from.Kind() == reflect.Slice && to.Kind() == reflect.Ptr && to.Elem().Kind() == reflect.Array:
		return false
	}

	return true
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}
