// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type order struct {
	Customer SimplePoco
	Backup   *SimplePoco
	Owner    *SimplePoco
}

type orderDto struct {
	Customer SimpleDto
	Backup   *SimpleDto
	Owner    SimpleDto
}

type nodePair struct {
	A *Node
	B *Node
}

type nodePairDto struct {
	A *NodeDto
	B *NodeDto
}

func TestAdapt(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	src := SimplePoco{Id: 1, Name: "a"}
	first, err := Adapt[SimpleDto](r, src)
	require.NoError(err)
	require.Equal(SimpleDto{Id: 1, Name: "a"}, first)

	// Adapting twice gives equal results.
	second, err := Adapt[SimpleDto](r, src)
	require.NoError(err)
	require.Equal(first, second)

	// Pointer destinations are allocated.
	ptr, err := Adapt[*SimpleDto](r, &src)
	require.NoError(err)
	require.Equal(&first, ptr)
}

func TestAdapt_nil(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	_, err := Adapt[SimpleDto](r, nil)
	require.Error(err)

	actual, err := Adapt[SimpleDto](r, (*SimplePoco)(nil))
	require.NoError(err)
	require.Equal(SimpleDto{}, actual)

	ptr, err := Adapt[*SimpleDto](r, (*SimplePoco)(nil))
	require.NoError(err)
	require.Nil(ptr)
}

func TestAdapt_invalidSource(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	_, err := Adapt[SimpleDto](r, 42)
	require.Error(err)
	require.Contains(err.Error(), "source must be a struct")

	require.Panics(func() {
		MustAdapt[SimpleDto](r, 42)
	})
	require.Equal(SimpleDto{Id: 1}, MustAdapt[SimpleDto](r, SimplePoco{Id: 1}))
}

func TestAdaptTo(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	NewConfig[SimplePoco, SimpleDto](r).Ignore("Id")

	dst := SimpleDto{Id: 7, Name: "old"}
	require.NoError(AdaptTo(r, SimplePoco{Id: 1, Name: "new"}, &dst))
	require.Equal(SimpleDto{Id: 7, Name: "new"}, dst)

	// A nil source leaves the destination alone.
	require.NoError(AdaptTo(r, (*SimplePoco)(nil), &dst))
	require.Equal(SimpleDto{Id: 7, Name: "new"}, dst)

	require.Error(AdaptTo(r, SimplePoco{}, dst))
	require.Error(AdaptTo(r, SimplePoco{}, (*SimpleDto)(nil)))
	require.Error(AdaptTo(r, nil, &dst))
}

func TestAdapt_nested(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	// Nested structs go through the registry, even though Go could
	// convert them directly.
	NewConfig[SimplePoco, SimpleDto](r).Map("Name", suffixName)

	actual, err := Adapt[orderDto](r, order{
		Customer: SimplePoco{Id: 1, Name: "c"},
		Backup:   &SimplePoco{Id: 2, Name: "b"},
	})
	require.NoError(err)
	require.Equal(orderDto{
		Customer: SimpleDto{Id: 1, Name: "c_Suffix"},
		Backup:   &SimpleDto{Id: 2, Name: "b_Suffix"},
	}, actual)

	actual, err = Adapt[orderDto](r, order{Owner: &SimplePoco{Id: 3, Name: "o"}})
	require.NoError(err)
	require.Nil(actual.Backup)
	require.Equal(SimpleDto{Id: 3, Name: "o_Suffix"}, actual.Owner)
}

func TestAdapt_nestedImplicitInheritance(t *testing.T) {
	type holder struct{ Item DerivedPoco }
	type holderDto struct{ Item DerivedDto }

	cases := []struct {
		Name     string
		Allow    bool
		Expected string
	}{
		{"allowed", true, "i_Suffix"},
		{"not allowed", false, "i"},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)
			r := testRegistry(t)

			NewConfig[SimplePoco, SimpleDto](r).Map("Name", suffixName)

			// The setting of the outer configuration decides the nested
			// lookup, not the global one.
			NewConfig[holder, holderDto](r).AllowImplicitDestinationInheritance(tt.Allow)

			actual, err := Adapt[holderDto](r, holder{Item: DerivedPoco{SimplePoco{Name: "i"}}})
			require.NoError(err)
			require.Equal(tt.Expected, actual.Item.Name)
		})
	}
}

func TestAdapt_sameInstance(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		require := require.New(t)
		r := testRegistry(t)

		NewConfig[Node, NodeDto](r).SameInstanceForSameType(true)

		n := &Node{Name: "self"}
		n.Next = n

		actual, err := Adapt[*NodeDto](r, n)
		require.NoError(err)
		require.Equal("self", actual.Name)
		require.Same(actual, actual.Next)
	})

	t.Run("shared reference", func(t *testing.T) {
		require := require.New(t)
		r := testRegistry(t)

		NewConfig[Node, NodeDto](r).SameInstanceForSameType(true)

		shared := nodeChain("shared")
		actual, err := Adapt[nodePairDto](r, nodePair{A: shared, B: shared})
		require.NoError(err)
		require.Same(actual.A, actual.B)

		// Every Adapt call has its own identity map.
		again, err := Adapt[nodePairDto](r, nodePair{A: shared, B: shared})
		require.NoError(err)
		require.NotSame(actual.A, again.A)
	})

	t.Run("disabled", func(t *testing.T) {
		require := require.New(t)
		r := testRegistry(t)

		shared := nodeChain("shared")
		actual, err := Adapt[nodePairDto](r, nodePair{A: shared, B: shared})
		require.NoError(err)
		require.NotSame(actual.A, actual.B)
		require.Equal(actual.A, actual.B)
	})
}

func TestAdapt_maxDepth(t *testing.T) {
	cases := []struct {
		Name     string
		MaxDepth int
		Expected []string
	}{
		{"one", 1, []string{"a"}},
		{"two", 2, []string{"a", "b"}},
		{"exact", 3, []string{"a", "b", "c"}},
		{"beyond", 10, []string{"a", "b", "c"}},
		{"unlimited", 0, []string{"a", "b", "c"}},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)
			r := testRegistry(t)

			NewConfig[Node, NodeDto](r).MaxDepth(tt.MaxDepth)

			actual, err := Adapt[*NodeDto](r, nodeChain("a", "b", "c"))
			require.NoError(err)

			var names []string
			for n := actual; n != nil; n = n.Next {
				names = append(names, n.Name)
			}
			require.Equal(tt.Expected, names)
		})
	}
}

func TestAdapt_maxDepthCycle(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	// A cycle without SameInstanceForSameType terminates at the limit.
	NewConfig[Node, NodeDto](r).MaxDepth(3)

	n := &Node{Name: "loop"}
	n.Next = n

	actual, err := Adapt[*NodeDto](r, n)
	require.NoError(err)
	require.NotNil(actual.Next)
	require.NotNil(actual.Next.Next)
	require.Nil(actual.Next.Next.Next)
	require.NotSame(actual, actual.Next)
}

func TestAdapt_mapSource(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	// Weak typing turns the string into an int. Keys match
	// case-insensitively.
	actual, err := Adapt[SimpleDto](r, map[string]interface{}{
		"id":   "7",
		"Name": "x",
	})
	require.NoError(err)
	require.Equal(SimpleDto{Id: 7, Name: "x"}, actual)

	// Only keys present in the map are copied.
	dst := SimpleDto{Id: 3, Name: "old"}
	require.NoError(AdaptTo(r, map[string]interface{}{"name": "y"}, &dst))
	require.Equal(SimpleDto{Id: 3, Name: "y"}, dst)

	// Tags rename and exclude members like they do for structs.
	tagged, err := Adapt[taggedDto](r, map[string]interface{}{"Name": "login", "Id": 1})
	require.NoError(err)
	require.Equal(taggedDto{Login: "login"}, tagged)
}

func TestAdapt_mapSourceRule(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	NewConfig[map[string]interface{}, SimpleDto](r).
		Map("Name", func(m map[string]interface{}) string {
			return fmt.Sprint(m["first"], " ", m["last"])
		})

	actual, err := Adapt[SimpleDto](r, map[string]interface{}{
		"id":    1,
		"first": "Ada",
		"last":  "Lovelace",
		"name":  "ignored",
	})
	require.NoError(err)
	require.Equal(SimpleDto{Id: 1, Name: "Ada Lovelace"}, actual)
}

func TestAdapt_mapSourceError(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	_, err := Adapt[SimpleDto](r, map[string]interface{}{"id": "not a number"})
	require.Error(err)
	require.Contains(err.Error(), "error decoding source")
}

func TestAdapt_concurrent(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	NewConfig[SimplePoco, SimpleDto](r).Map("Name", suffixName)
	NewConfig[Node, NodeDto](r).SameInstanceForSameType(true)

	// Nothing is compiled up front so the first calls race to compile.
	var wg sync.WaitGroup
	errCh := make(chan error, 32)
	for i := 0; i < cap(errCh); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				name := fmt.Sprintf("%d-%d", i, j)
				dto, err := Adapt[SimpleDto](r, SimplePoco{Id: i, Name: name})
				if err != nil {
					errCh <- err
					return
				}
				if dto.Id != i || dto.Name != name+"_Suffix" {
					errCh <- fmt.Errorf("unexpected result %#v", dto)
					return
				}

				n := &Node{Name: name}
				n.Next = n
				node, err := Adapt[*NodeDto](r, n)
				if err != nil {
					errCh <- err
					return
				}
				if node.Next != node {
					errCh <- fmt.Errorf("identity not preserved for %s", name)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(err)
	}
}

func TestTypeConfig_Adapt(t *testing.T) {
	require := require.New(t)
	r := testRegistry(t)

	c := NewConfig[DerivedPoco, DerivedDto](r).Map("Name", func(s DerivedPoco) string { return "typed" })
	actual, err := c.Adapt(DerivedPoco{SimplePoco{Id: 9}})
	require.NoError(err)
	require.Equal(DerivedDto{SimpleDto{Id: 9, Name: "typed"}}, actual)
}
