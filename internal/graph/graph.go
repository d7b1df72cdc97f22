// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package graph is a small directed graph used to order configurations
// so that every base is handled before the configurations derived from it.
package graph

import (
	"bytes"
	"fmt"
	"sort"
)

// Graph represents a directed graph. An edge from v1 to v2 means that v1
// must be visited before v2.
//
// Unless otherwise documented, it is unsafe to call any method on Graph concurrently.
type Graph struct {
	// adjacency represents graphs using an adjacency list. Vertices are
	// represented using their hash codes for simpler equality checks.
	adjacencyOut map[interface{}]map[interface{}]struct{}
	adjacencyIn  map[interface{}]map[interface{}]struct{}

	// hash maintains the mapping of hash codes to the representative Vertex.
	hash map[interface{}]Vertex
}

// Add adds a vertex to the graph. Adding a vertex that already exists
// is a no-op and the original vertex is kept.
func (g *Graph) Add(v Vertex) Vertex {
	g.init()
	h := hashcode(v)
	if _, ok := g.adjacencyOut[h]; !ok {
		g.adjacencyOut[h] = make(map[interface{}]struct{})
		g.adjacencyIn[h] = make(map[interface{}]struct{})
		g.hash[h] = v
	}
	return v
}

// Vertices returns the list of all the vertices in this graph. The order
// is sorted by VertexName so callers get deterministic results.
func (g *Graph) Vertices() []Vertex {
	result := make([]Vertex, 0, len(g.hash))
	for _, v := range g.hash {
		result = append(result, v)
	}

	sortVertices(result)
	return result
}

// AddEdge adds a directed edge to the graph from v1 to v2. Both v1 and v2
// must already be in the Graph via Add or this will do nothing.
func (g *Graph) AddEdge(v1, v2 Vertex) {
	g.init()
	h1, h2 := hashcode(v1), hashcode(v2)

	outMap, ok := g.adjacencyOut[h1]
	if !ok {
		return
	}
	inMap, ok := g.adjacencyIn[h2]
	if !ok {
		return
	}

	outMap[h2] = struct{}{}
	inMap[h1] = struct{}{}
}

// OutEdges returns the vertices that v has an edge to.
func (g *Graph) OutEdges(v Vertex) []Vertex {
	return g.edges(g.adjacencyOut[hashcode(v)])
}

// InEdges returns the vertices that have an edge to v.
func (g *Graph) InEdges(v Vertex) []Vertex {
	return g.edges(g.adjacencyIn[hashcode(v)])
}

func (g *Graph) edges(set map[interface{}]struct{}) []Vertex {
	if len(set) == 0 {
		return nil
	}

	result := make([]Vertex, 0, len(set))
	for h := range set {
		result = append(result, g.hash[h])
	}

	sortVertices(result)
	return result
}

// String outputs some human-friendly output for the graph structure.
func (g *Graph) String() string {
	var buf bytes.Buffer
	for _, v := range g.Vertices() {
		buf.WriteString(fmt.Sprintf("%s\n", VertexName(v)))
		for _, out := range g.OutEdges(v) {
			buf.WriteString(fmt.Sprintf("  %s\n", VertexName(out)))
		}
	}

	return buf.String()
}

func (g *Graph) init() {
	if g.adjacencyOut == nil {
		g.adjacencyOut = make(map[interface{}]map[interface{}]struct{})
	}
	if g.adjacencyIn == nil {
		g.adjacencyIn = make(map[interface{}]map[interface{}]struct{})
	}
	if g.hash == nil {
		g.hash = make(map[interface{}]Vertex)
	}
}

func sortVertices(vs []Vertex) {
	sort.Slice(vs, func(i, j int) bool {
		return VertexName(vs[i]) < VertexName(vs[j])
	})
}
