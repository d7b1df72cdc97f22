// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package graph

import "fmt"

// Vertex can be anything comparable.
type Vertex interface{}

// VertexHashable is an optional interface that can be implemented to specify
// an alternate hash code for a Vertex. If this isn't implemented, Go interface
// equality is used.
type VertexHashable interface {
	Hashcode() interface{}
}

// VertexName returns the human-friendly name of a vertex. This uses
// fmt.Stringer if implemented and falls back to the %v formatting.
func VertexName(v Vertex) string {
	switch v := v.(type) {
	case fmt.Stringer:
		return v.String()

	default:
		return fmt.Sprintf("%v", v)
	}
}

// hashcode returns the hashcode for a Vertex.
func hashcode(v interface{}) interface{} {
	if h, ok := v.(VertexHashable); ok {
		return h.Hashcode()
	}

	return v
}
