// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
)

// Configuration is the mapping configuration of one TypePair. It owns the
// member rules, destination transforms and settings registered for the
// pair, an optional base pair and the compiled mapping.
//
// Configurations are created by a Registry. Registration methods return
// the configuration so calls can be chained; errors from registration are
// recorded and reported by Compile.
//
// Configuring is not safe for concurrent use. It is expected that all
// configuration happens up front, then Adapt is called concurrently.
// Changing a configuration while Adapt calls for the same pair are in
// flight must be synchronized by the caller.
type Configuration struct {
	pair     TypePair
	registry *Registry

	rules      *ruleSet
	transforms *DestinationTransforms
	settings   settingsBlock

	// base is the pair this configuration inherits from, if any.
	base *TypePair

	// errs accumulates registration errors until Compile.
	errs error

	// compiled holds the compiled mapping. compileErr is set instead if
	// compilation failed. Both nil means uncompiled.
	compiled   *compiledMapping
	compileErr error
}

func newConfiguration(r *Registry, p TypePair) *Configuration {
	c := &Configuration{pair: p, registry: r}
	c.reset()
	return c
}

// reset returns the configuration to its freshly created state.
func (c *Configuration) reset() {
	c.rules = newRuleSet()
	c.transforms = newDestinationTransforms(c)
	c.settings = settingsBlock{}
	c.base = nil
	c.errs = nil
	c.compiled = nil
	c.compileErr = nil

	if err := validatePair(c.pair); err != nil {
		c.addError(err)
	}
}

func validatePair(p TypePair) error {
	if p.Source == nil || p.Destination == nil {
		return fmt.Errorf("configuration %q: source and destination types are required", p.String())
	}

	// Interface sources only ever serve as bases. Values passed to Adapt
	// always have a concrete type.
	switch k := p.Source.Kind(); {
	case k == reflect.Struct:
	case k == reflect.Interface:
	case k == reflect.Map && p.Source.Key().Kind() == reflect.String:
	default:
		return fmt.Errorf("configuration %q: source must be a struct, an interface or a map with string keys, got %s",
			p.String(), k)
	}

	if k := p.Destination.Kind(); k != reflect.Struct {
		return fmt.Errorf("configuration %q: destination must be a struct, got %s", p.String(), k)
	}

	return nil
}

func (c *Configuration) addError(err error) {
	c.errs = multierror.Append(c.errs, err)
}

// Pair returns the type pair of this configuration.
func (c *Configuration) Pair() TypePair { return c.pair }

// Map registers a rule that assigns the result of fn to the destination
// member. fn must have the signature `func(S) V` or `func(S) (V, error)`
// where S accepts the source type. V must be assignable, convertible or
// mappable to the member's type; this is checked by Compile.
//
// An optional condition with the signature `func(S) bool` or
// `func(S) (bool, error)` guards the rule. When the condition is false the
// member is left untouched; there is no fallback to convention matching.
//
// Registering a rule for a member replaces any earlier rule for that member,
// including a rule inherited from a base configuration.
func (c *Configuration) Map(member string, fn interface{}, condition ...interface{}) *Configuration {
	rule := &memberRule{Member: member, Kind: ruleMap}

	var err error
	rule.Value, err = newRuleFunc(fn, c.pair.Source)
	if err != nil {
		c.addError(memberConfigError(c.pair, member, "invalid value function: %s", err))
		return c
	}

	switch len(condition) {
	case 0:
	case 1:
		rule.Condition, err = newConditionFunc(condition[0], c.pair.Source)
		if err != nil {
			c.addError(memberConfigError(c.pair, member, "invalid condition: %s", err))
			return c
		}

	default:
		c.addError(memberConfigError(c.pair, member, "at most one condition allowed, got %d", len(condition)))
		return c
	}

	c.rules.Set(rule)
	return c
}

// Ignore registers rules that leave the given destination members
// untouched.
func (c *Configuration) Ignore(members ...string) *Configuration {
	for _, m := range members {
		c.rules.Set(&memberRule{Member: m, Kind: ruleIgnore})
	}

	return c
}

// IgnoreNullValues sets whether nil source values are skipped instead of
// overwriting the destination member.
func (c *Configuration) IgnoreNullValues(v bool) *Configuration {
	c.settings.ignoreNullValues = &v
	return c
}

// SameInstanceForSameType sets whether repeated references to the same
// source pointer map to the same destination pointer within one Adapt call.
func (c *Configuration) SameInstanceForSameType(v bool) *Configuration {
	c.settings.sameInstanceForSameType = &v
	return c
}

// MaxDepth sets the maximum depth of nested objects to map. The top-level
// object has depth 1. Zero or less means unlimited.
func (c *Configuration) MaxDepth(v int) *Configuration {
	c.settings.maxDepth = &v
	return c
}

// AllowImplicitDestinationInheritance overrides the global setting of the
// same name for nested lookups made while applying this configuration.
func (c *Configuration) AllowImplicitDestinationInheritance(v bool) *Configuration {
	c.settings.allowImplicitDestinationInheritance = &v
	return c
}

// DestinationTransforms returns the transforms registered on this
// configuration.
func (c *Configuration) DestinationTransforms() *DestinationTransforms {
	return c.transforms
}

// Inherits declares base as the base configuration. The source type of
// this configuration must derive from the base source type and the
// destination type must derive from the base destination type, according
// to the registry Hierarchy. If not, *ErrInvalidCast is returned and the
// configuration is not changed.
//
// Inherits may be called before or after other registration calls, but
// should be called before Compile. Calling it after Compile leaves the
// compiled mapping stale until Compile is called again.
func (c *Configuration) Inherits(base TypePair) error {
	return c.registry.inherits(c, NewPair(base.Source, base.Destination))
}

// Base returns the base pair of this configuration, if there is one.
func (c *Configuration) Base() (TypePair, bool) {
	if c.base == nil {
		return TypePair{}, false
	}

	return *c.base, true
}

// Settings returns the settings of this configuration with inherited
// values and global defaults applied.
func (c *Configuration) Settings() Settings {
	return c.registry.settings(c)
}

// Compile compiles this configuration and any ancestors that aren't
// compiled yet. See Registry.Compile.
func (c *Configuration) Compile() error {
	return c.registry.Compile(c.pair)
}

// Compiled reports whether the configuration has a compiled mapping.
func (c *Configuration) Compiled() bool {
	return c.compiled != nil
}

// Clear resets the configuration to its freshly created state.
func (c *Configuration) Clear() {
	c.registry.Clear(c.pair)
}

// TypeConfig is a typed view of the Configuration for S and D. Conditions
// are checked by the compiler instead of at runtime.
type TypeConfig[S, D any] struct {
	config *Configuration
}

// NewConfig clears the configuration for S and D in r and returns it.
func NewConfig[S, D any](r *Registry) *TypeConfig[S, D] {
	p := PairOf[S, D]()
	r.Clear(p)
	return &TypeConfig[S, D]{config: r.GetOrCreate(p)}
}

// ConfigFor returns the configuration for S and D in r, creating it if
// necessary.
func ConfigFor[S, D any](r *Registry) *TypeConfig[S, D] {
	return &TypeConfig[S, D]{config: r.GetOrCreate(PairOf[S, D]())}
}

// Configuration returns the untyped configuration.
func (t *TypeConfig[S, D]) Configuration() *Configuration { return t.config }

// Pair returns the type pair of this configuration.
func (t *TypeConfig[S, D]) Pair() TypePair { return t.config.pair }

// Map is the same as Configuration.Map with a typed condition.
func (t *TypeConfig[S, D]) Map(member string, fn interface{}, condition ...func(S) bool) *TypeConfig[S, D] {
	conds := make([]interface{}, len(condition))
	for i, c := range condition {
		conds[i] = c
	}

	t.config.Map(member, fn, conds...)
	return t
}

// Ignore is the same as Configuration.Ignore.
func (t *TypeConfig[S, D]) Ignore(members ...string) *TypeConfig[S, D] {
	t.config.Ignore(members...)
	return t
}

// IgnoreNullValues is the same as Configuration.IgnoreNullValues.
func (t *TypeConfig[S, D]) IgnoreNullValues(v bool) *TypeConfig[S, D] {
	t.config.IgnoreNullValues(v)
	return t
}

// SameInstanceForSameType is the same as Configuration.SameInstanceForSameType.
func (t *TypeConfig[S, D]) SameInstanceForSameType(v bool) *TypeConfig[S, D] {
	t.config.SameInstanceForSameType(v)
	return t
}

// MaxDepth is the same as Configuration.MaxDepth.
func (t *TypeConfig[S, D]) MaxDepth(v int) *TypeConfig[S, D] {
	t.config.MaxDepth(v)
	return t
}

// AllowImplicitDestinationInheritance is the same as
// Configuration.AllowImplicitDestinationInheritance.
func (t *TypeConfig[S, D]) AllowImplicitDestinationInheritance(v bool) *TypeConfig[S, D] {
	t.config.AllowImplicitDestinationInheritance(v)
	return t
}

// DestinationTransforms is the same as Configuration.DestinationTransforms.
func (t *TypeConfig[S, D]) DestinationTransforms() *DestinationTransforms {
	return t.config.DestinationTransforms()
}

// Inherits is the same as Configuration.Inherits.
func (t *TypeConfig[S, D]) Inherits(base TypePair) error {
	return t.config.Inherits(base)
}

// Settings is the same as Configuration.Settings.
func (t *TypeConfig[S, D]) Settings() Settings {
	return t.config.Settings()
}

// Compile is the same as Configuration.Compile.
func (t *TypeConfig[S, D]) Compile() error {
	return t.config.Compile()
}

// Clear is the same as Configuration.Clear.
func (t *TypeConfig[S, D]) Clear() {
	t.config.Clear()
}
