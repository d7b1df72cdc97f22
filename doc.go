// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package typemapper is an object-to-object mapping library for Go.
//
// go-typemapper copies and converts the fields of a source struct into a
// new or existing destination struct. Each source and destination type pair
// has a Configuration of member rules (explicit value functions, conditions,
// ignores), destination transforms and settings. Members without a rule are
// matched by name.
//
// Configurations can inherit from the configuration of a base type pair.
// Go has no classes, so a type derives from another by embedding it:
//
//    type Person struct{ Name string }
//    type Employee struct {
//        Person
//        Title string
//    }
//
// A configuration for Employee -> EmployeeDto can then inherit the rules
// registered for Person -> PersonDto with Inherits. Rules registered on the
// derived configuration override inherited rules member by member.
//
// Configurations are compiled into mapping functions, either explicitly
// with Compile or lazily on the first Adapt. The primary usage of this
// library is via Registry, NewConfig and Adapt.
package typemapper
