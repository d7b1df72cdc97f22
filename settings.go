// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

// Settings are the resolved scalar settings of a configuration, after
// inheritance and global defaults have been applied.
type Settings struct {
	// IgnoreNullValues skips assigning nil pointers, interfaces, maps,
	// slices, funcs and channels so existing destination values are kept.
	IgnoreNullValues bool

	// SameInstanceForSameType maps every source pointer at most once per
	// Adapt call. Repeated references (including cycles) resolve to the
	// same destination pointer.
	SameInstanceForSameType bool

	// MaxDepth limits how deep nested objects are mapped. The top-level
	// object has depth 1. Zero means unlimited.
	MaxDepth int

	// AllowImplicitDestinationInheritance lets nested lookups from this
	// configuration fall back to a configuration registered for base types.
	AllowImplicitDestinationInheritance bool
}

// settingsBlock holds the explicitly set settings of one configuration.
// A nil field is unset and takes the inherited (or global) value.
type settingsBlock struct {
	ignoreNullValues                    *bool
	sameInstanceForSameType             *bool
	maxDepth                            *int
	allowImplicitDestinationInheritance *bool
}

// inherit returns a copy of s where every unset field takes the value
// from base. Explicit values in s always win.
func (s settingsBlock) inherit(base settingsBlock) settingsBlock {
	if s.ignoreNullValues == nil {
		s.ignoreNullValues = base.ignoreNullValues
	}
	if s.sameInstanceForSameType == nil {
		s.sameInstanceForSameType = base.sameInstanceForSameType
	}
	if s.maxDepth == nil {
		s.maxDepth = base.maxDepth
	}
	if s.allowImplicitDestinationInheritance == nil {
		s.allowImplicitDestinationInheritance = base.allowImplicitDestinationInheritance
	}

	return s
}

// resolve turns the block into Settings, filling anything still unset
// from the global settings.
func (s settingsBlock) resolve(global GlobalSettings) Settings {
	result := Settings{
		AllowImplicitDestinationInheritance: global.AllowImplicitDestinationInheritance,
	}
	if s.ignoreNullValues != nil {
		result.IgnoreNullValues = *s.ignoreNullValues
	}
	if s.sameInstanceForSameType != nil {
		result.SameInstanceForSameType = *s.sameInstanceForSameType
	}
	if s.maxDepth != nil && *s.maxDepth > 0 {
		result.MaxDepth = *s.maxDepth
	}
	if s.allowImplicitDestinationInheritance != nil {
		result.AllowImplicitDestinationInheritance = *s.allowImplicitDestinationInheritance
	}

	return result
}
