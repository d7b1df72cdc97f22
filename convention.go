// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import "reflect"

// Convention matches destination members that have no explicit rule to a
// source value. It is only consulted at compile time.
//
// A match whose type can't be assigned, converted or mapped to the
// destination member is ignored by the compiler, so a Convention can be
// optimistic.
type Convention interface {
	Match(src reflect.Type, dst reflect.StructField) (FieldAccessor, bool)
}

// FieldAccessor reads a source value for a destination member.
type FieldAccessor struct {
	// Type is the type of the values returned by Get.
	Type reflect.Type

	// Get returns the value from a source struct. It returns false if
	// there is no value, for example because the path to the value goes
	// through a nil embedded pointer.
	Get func(src reflect.Value) (reflect.Value, bool)
}

// NameConvention matches a destination member to the source member with
// the same name. The typemapper struct tag on the destination member can
// rename the source member or exclude the destination member. Promoted
// fields of embedded structs match like any other field.
type NameConvention struct{}

// Match implements Convention.
func (NameConvention) Match(src reflect.Type, dst reflect.StructField) (FieldAccessor, bool) {
	if src.Kind() != reflect.Struct {
		return FieldAccessor{}, false
	}

	name := parseTag(dst)
	if name == "" {
		return FieldAccessor{}, false
	}

	sf, ok := src.FieldByName(name)
	if !ok || !sf.IsExported() {
		return FieldAccessor{}, false
	}

	index := sf.Index
	return FieldAccessor{
		Type: sf.Type,
		Get: func(v reflect.Value) (reflect.Value, bool) {
			f, err := v.FieldByIndexErr(index)
			if err != nil {
				return reflect.Value{}, false
			}

			return f, true
		},
	}, true
}

var _ Convention = NameConvention{}
