// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

func init() {
	hclog.L().SetLevel(hclog.Trace)
}

type SimplePoco struct {
	Id   int
	Name string
}

func (p SimplePoco) GetName() string { return p.Name }

type SimpleDto struct {
	Id   int
	Name string
}

type DerivedPoco struct {
	SimplePoco
}

type DerivedDto struct {
	SimpleDto
}

type MorePoco struct {
	DerivedPoco
	Extra string
}

type MoreDto struct {
	DerivedDto
	Extra string
}

type PtrPoco struct {
	*SimplePoco
}

type Node struct {
	Name string
	Next *Node
}

type NodeDto struct {
	Name string
	Next *NodeDto
}

type namer interface {
	GetName() string
}

type renamer interface {
	SetName(string)
}

type mutablePoco struct {
	Name string
}

func (p *mutablePoco) SetName(n string) { p.Name = n }

// testRegistry returns an isolated registry that logs at trace level and
// has implicit destination inheritance disabled.
func testRegistry(t *testing.T, opts ...Option) *Registry {
	opts = append([]Option{
		WithLogger(hclog.New(&hclog.LoggerOptions{
			Name:  t.Name(),
			Level: hclog.Trace,
		})),
	}, opts...)

	r := NewRegistry(opts...)
	r.SetAllowImplicitDestinationInheritance(false)
	return r
}

// nodeChain returns a linked list of nodes with the given names.
func nodeChain(names ...string) *Node {
	var head *Node
	for i := len(names) - 1; i >= 0; i-- {
		head = &Node{Name: names[i], Next: head}
	}

	return head
}
