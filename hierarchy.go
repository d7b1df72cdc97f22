// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import "reflect"

// Hierarchy answers type-compatibility questions for configuration
// inheritance. It is consulted by Inherits, by the inheritance resolver and
// by implicit destination inheritance.
//
// The default implementation is EmbeddingHierarchy. A custom Hierarchy can
// be set with WithHierarchy.
type Hierarchy interface {
	// Upcast reports whether derived specializes base. If it does, the
	// returned function projects a value of the derived type onto a value
	// of the base type.
	Upcast(derived, base reflect.Type) (UpcastFunc, bool)
}

// UpcastFunc projects a value of a derived type onto its base type.
type UpcastFunc func(reflect.Value) reflect.Value

// EmbeddingHierarchy models Go type derivation:
//
//   * every type derives from itself
//
//   * a struct derives from every struct it embeds, directly or through
//     other embedded structs, by value or by pointer
//
//   * a type derives from any interface that it (or a pointer to it)
//     implements
//
type EmbeddingHierarchy struct{}

// Upcast implements Hierarchy.
func (EmbeddingHierarchy) Upcast(derived, base reflect.Type) (UpcastFunc, bool) {
	if derived == nil || base == nil {
		return nil, false
	}

	if derived == base {
		return identityUpcast, true
	}

	if base.Kind() == reflect.Interface {
		if derived.Implements(base) {
			return identityUpcast, true
		}

		// Methods declared on the pointer receiver still count. We have to
		// copy the value to get an addressable pointer to it.
		if reflect.PtrTo(derived).Implements(base) {
			return func(v reflect.Value) reflect.Value {
				ptr := reflect.New(derived)
				ptr.Elem().Set(v)
				return ptr
			}, true
		}

		return nil, false
	}

	path, ok := embeddingPath(derived, base)
	if !ok {
		return nil, false
	}

	return func(v reflect.Value) reflect.Value {
		for _, idx := range path {
			v = v.Field(idx)
			if v.Kind() == reflect.Ptr {
				// A nil embedded pointer projects onto the zero base.
				if v.IsNil() {
					return reflect.Zero(base)
				}

				v = v.Elem()
			}
		}

		return v
	}, true
}

// embeddingPath does a breadth-first search through the anonymous fields
// of derived looking for base. The shallowest embedding wins, the same way
// Go resolves promoted fields.
func embeddingPath(derived, base reflect.Type) ([]int, bool) {
	if derived.Kind() != reflect.Struct || base.Kind() != reflect.Struct {
		return nil, false
	}

	type entry struct {
		typ  reflect.Type
		path []int
	}

	visited := map[reflect.Type]struct{}{derived: {}}
	queue := []entry{{typ: derived}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for i := 0; i < current.typ.NumField(); i++ {
			sf := current.typ.Field(i)
			if !sf.Anonymous {
				continue
			}

			ft := indirectType(sf.Type)
			if ft.Kind() != reflect.Struct {
				continue
			}

			path := make([]int, len(current.path)+1)
			copy(path, current.path)
			path[len(path)-1] = i

			if ft == base {
				return path, true
			}

			if _, ok := visited[ft]; ok {
				continue
			}
			visited[ft] = struct{}{}
			queue = append(queue, entry{typ: ft, path: path})
		}
	}

	return nil, false
}

func identityUpcast(v reflect.Value) reflect.Value { return v }

// composeUpcast returns a function that applies first and then second.
// Either may be nil, which is treated as the identity.
func composeUpcast(first, second UpcastFunc) UpcastFunc {
	switch {
	case first == nil:
		return second

	case second == nil:
		return first

	default:
		return func(v reflect.Value) reflect.Value {
			return second(first(v))
		}
	}
}

var _ Hierarchy = EmbeddingHierarchy{}
