// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"fmt"
	"strings"
)

// TopoOrder is a topological ordering of the vertices of a graph.
type TopoOrder []Vertex

// KahnSort returns a topological ordering of the graph using Kahn's
// algorithm. Ties are broken by VertexName so the order is stable. An
// error listing the remaining vertices is returned if the graph has a cycle.
//
// KahnSort does not modify the graph.
func (g *Graph) KahnSort() (TopoOrder, error) {
	/*
	   L ← Empty list that will contain the sorted elements
	   S ← Set of all nodes with no incoming edge

	   while S is non-empty do
	       remove a node n from S
	       add n to tail of L
	       for each node m with an edge e from n to m do
	           remove edge e from the graph
	           if m has no other incoming edges then
	               insert m into S

	   if graph has edges then
	       return error   (graph has at least one cycle)
	*/

	vertices := g.Vertices()

	// Track the in-degree instead of removing edges so the graph is
	// left as-is for the caller.
	inDegree := make(map[interface{}]int, len(vertices))
	var S []Vertex
	for _, v := range vertices {
		inDegree[hashcode(v)] = len(g.InEdges(v))
		if inDegree[hashcode(v)] == 0 {
			S = append(S, v)
		}
	}

	L := make(TopoOrder, 0, len(vertices))
	for len(S) > 0 {
		n := S[0]
		S = S[1:]
		L = append(L, n)

		var ready []Vertex
		for _, m := range g.OutEdges(n) {
			h := hashcode(m)
			inDegree[h]--
			if inDegree[h] == 0 {
				ready = append(ready, m)
			}
		}

		S = append(S, ready...)
		sortVertices(S)
	}

	if len(L) != len(vertices) {
		var cycle []string
		for _, v := range vertices {
			if inDegree[hashcode(v)] > 0 {
				cycle = append(cycle, VertexName(v))
			}
		}

		return nil, fmt.Errorf("graph has a cycle between: %s", strings.Join(cycle, ", "))
	}

	return L, nil
}
