// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddingHierarchy(t *testing.T) {
	cases := []struct {
		Name    string
		Derived reflect.Type
		Base    reflect.Type
		Ok      bool
	}{
		{
			"same type",
			typeOf[SimplePoco](),
			typeOf[SimplePoco](),
			true,
		},

		{
			"embedded by value",
			typeOf[DerivedPoco](),
			typeOf[SimplePoco](),
			true,
		},

		{
			"embedded by pointer",
			typeOf[PtrPoco](),
			typeOf[SimplePoco](),
			true,
		},

		{
			"embedded transitively",
			typeOf[MorePoco](),
			typeOf[SimplePoco](),
			true,
		},

		{
			"wrong direction",
			typeOf[SimplePoco](),
			typeOf[DerivedPoco](),
			false,
		},

		{
			"same layout is not derivation",
			typeOf[SimpleDto](),
			typeOf[SimplePoco](),
			false,
		},

		{
			"implements interface",
			typeOf[SimplePoco](),
			typeOf[namer](),
			true,
		},

		{
			"promoted method implements interface",
			typeOf[DerivedPoco](),
			typeOf[namer](),
			true,
		},

		{
			"pointer receiver implements interface",
			typeOf[mutablePoco](),
			typeOf[renamer](),
			true,
		},

		{
			"does not implement interface",
			typeOf[SimpleDto](),
			typeOf[namer](),
			false,
		},

		{
			"non-struct",
			typeOf[int](),
			typeOf[SimplePoco](),
			false,
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			fn, ok := EmbeddingHierarchy{}.Upcast(tt.Derived, tt.Base)
			require.Equal(tt.Ok, ok)
			if !ok {
				require.Nil(fn)
				return
			}

			// The projection must produce something usable as the base.
			out := fn(reflect.New(tt.Derived).Elem())
			require.True(out.Type().AssignableTo(tt.Base), out.Type().String())
		})
	}
}

func TestEmbeddingHierarchy_projection(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		require := require.New(t)

		fn, ok := EmbeddingHierarchy{}.Upcast(typeOf[MorePoco](), typeOf[SimplePoco]())
		require.True(ok)

		src := MorePoco{DerivedPoco: DerivedPoco{SimplePoco{Id: 4, Name: "deep"}}}
		out := fn(reflect.ValueOf(src))
		require.Equal(SimplePoco{Id: 4, Name: "deep"}, out.Interface())
	})

	t.Run("pointer", func(t *testing.T) {
		require := require.New(t)

		fn, ok := EmbeddingHierarchy{}.Upcast(typeOf[PtrPoco](), typeOf[SimplePoco]())
		require.True(ok)

		out := fn(reflect.ValueOf(PtrPoco{&SimplePoco{Id: 2}}))
		require.Equal(SimplePoco{Id: 2}, out.Interface())
	})

	t.Run("nil pointer", func(t *testing.T) {
		require := require.New(t)

		fn, ok := EmbeddingHierarchy{}.Upcast(typeOf[PtrPoco](), typeOf[SimplePoco]())
		require.True(ok)

		out := fn(reflect.ValueOf(PtrPoco{}))
		require.Equal(SimplePoco{}, out.Interface())
	})

	t.Run("pointer receiver", func(t *testing.T) {
		require := require.New(t)

		fn, ok := EmbeddingHierarchy{}.Upcast(typeOf[mutablePoco](), typeOf[renamer]())
		require.True(ok)

		src := mutablePoco{Name: "a"}
		out := fn(reflect.ValueOf(src))
		out.Interface().(renamer).SetName("b")

		// The projection works on a copy.
		require.Equal("a", src.Name)
		require.Equal("b", out.Elem().Interface().(mutablePoco).Name)
	})
}

func TestComposeUpcast(t *testing.T) {
	require := require.New(t)

	inner, ok := EmbeddingHierarchy{}.Upcast(typeOf[MorePoco](), typeOf[DerivedPoco]())
	require.True(ok)
	outer, ok := EmbeddingHierarchy{}.Upcast(typeOf[DerivedPoco](), typeOf[SimplePoco]())
	require.True(ok)

	fn := composeUpcast(inner, outer)
	out := fn(reflect.ValueOf(MorePoco{DerivedPoco: DerivedPoco{SimplePoco{Name: "x"}}}))
	require.Equal(SimplePoco{Name: "x"}, out.Interface())

	require.Nil(composeUpcast(nil, nil))
	require.NotNil(composeUpcast(inner, nil))
	require.NotNil(composeUpcast(nil, outer))
}
