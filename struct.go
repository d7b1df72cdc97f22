// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"
	"strings"
)

// tagName is the struct tag read on destination fields. The first part
// renames the source member that convention matching looks for, "-"
// excludes the field from convention matching:
//
//    type UserDto struct {
//        Login    string `typemapper:"Name"`
//        Password string `typemapper:"-"`
//    }
//
const tagName = "typemapper"

// destinationField is a settable field of a destination struct, including
// fields promoted from embedded structs.
type destinationField struct {
	reflect.StructField

	// SourceName is the name convention matching looks for. It is empty
	// if the field is excluded from convention matching.
	SourceName string
}

// destinationFields returns the exported, settable fields of typ in
// declaration order. Embedded structs are not returned themselves; their
// promoted fields are.
func destinationFields(typ reflect.Type) []destinationField {
	var result []destinationField
	for _, sf := range reflect.VisibleFields(typ) {
		if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			continue
		}
		if !sf.IsExported() || !settablePath(typ, sf.Index) {
			continue
		}

		result = append(result, destinationField{
			StructField: sf,
			SourceName:  parseTag(sf),
		})
	}

	return result
}

// parseTag returns the source name for the field from its tag.
func parseTag(sf reflect.StructField) string {
	tag := sf.Tag.Get(tagName)
	if tag == "" {
		return sf.Name
	}

	name := strings.Split(tag, ",")[0]
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	default:
		return name
	}
}

// settablePath reports whether the field at index can be reached for
// setting. This is false when the path goes through an unexported embedded
// pointer, since we can't allocate it.
func settablePath(typ reflect.Type, index []int) bool {
	for _, idx := range index[:len(index)-1] {
		sf := typ.Field(idx)
		if sf.Type.Kind() == reflect.Ptr && !sf.IsExported() {
			return false
		}

		typ = indirectType(sf.Type)
	}

	return true
}

// fieldByIndexAlloc is like reflect.Value.FieldByIndex but allocates nil
// embedded struct pointers along the way. v must be addressable.
func fieldByIndexAlloc(v reflect.Value, index []int) (reflect.Value, error) {
	for i, idx := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf(
						"cannot allocate embedded %s", v.Type())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(idx)
	}

	return v, nil
}

// isNil reports whether v holds a nil value. Values of kinds that can't be
// nil never are.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()

	default:
		return false
	}
}
