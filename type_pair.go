// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
)

// TypePair identifies a mapping configuration by its source and destination
// types. Two pairs are equal only if both types are identical; no subtyping
// is implied at the key level.
type TypePair struct {
	Source      reflect.Type
	Destination reflect.Type
}

// NewPair returns the TypePair for the given source and destination types.
// Pointer types are normalized to their element type so that *T and T
// address the same configuration.
func NewPair(src, dst reflect.Type) TypePair {
	return TypePair{
		Source:      indirectType(src),
		Destination: indirectType(dst),
	}
}

// PairOf returns the TypePair for S and D.
func PairOf[S, D any]() TypePair {
	return NewPair(typeOf[S](), typeOf[D]())
}

// String implements fmt.Stringer.
func (p TypePair) String() string {
	return fmt.Sprintf("%s -> %s", typeName(p.Source), typeName(p.Destination))
}

// Hashcode implements graph.VertexHashable.
func (p TypePair) Hashcode() interface{} { return p }

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func indirectType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}

	return t
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}
