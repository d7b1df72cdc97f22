// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp/go-typemapper/internal/graph"
)

// Registry stores the Configuration of every TypePair and their compiled
// mappings.
//
// Registration, Inherits and Compile are expected to happen up front from
// a single goroutine. After that, Adapt is safe to call concurrently,
// including for pairs that have to be compiled lazily.
type Registry struct {
	logger     hclog.Logger
	hierarchy  Hierarchy
	convention Convention
	global     GlobalSettings

	mu      sync.RWMutex
	configs map[TypePair]*Configuration

	// lazy holds the configurations Adapt creates for pairs that have no
	// registered configuration. They are never returned by Lookup and are
	// dropped whenever the registered configurations or the global
	// settings change, so an implicit base is picked again.
	lazy map[lazyKey]*Configuration
}

// lazyKey identifies a lazily created configuration. The same pair may be
// looked up with and without implicit destination inheritance.
type lazyKey struct {
	pair          TypePair
	allowImplicit bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry.
func WithLogger(l hclog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithHierarchy sets the Hierarchy used to validate and resolve
// configuration inheritance.
func WithHierarchy(h Hierarchy) Option {
	return func(r *Registry) {
		r.hierarchy = h
	}
}

// WithConvention sets the Convention used for destination members that
// have no rule.
func WithConvention(c Convention) Option {
	return func(r *Registry) {
		r.convention = c
	}
}

// WithGlobalSettings sets the registry-wide settings.
func WithGlobalSettings(gs GlobalSettings) Option {
	return func(r *Registry) {
		r.global = gs
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		hierarchy:  EmbeddingHierarchy{},
		convention: NameConvention{},
		global:     DefaultGlobalSettings(),
		configs:    make(map[TypePair]*Configuration),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		if r.global.LogLevel != "" {
			r.logger = hclog.New(&hclog.LoggerOptions{
				Name:  "typemapper",
				Level: hclog.LevelFromString(r.global.LogLevel),
			})
		} else {
			r.logger = hclog.L().Named("typemapper")
		}
	}

	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. Libraries should prefer
// creating their own Registry so their configurations stay isolated.
func Default() *Registry {
	return defaultRegistry
}

// GetOrCreate returns the configuration for p, creating a default one if
// it doesn't exist.
func (r *Registry) GetOrCreate(p TypePair) *Configuration {
	p = NewPair(p.Source, p.Destination)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(p)
}

func (r *Registry) getOrCreateLocked(p TypePair) *Configuration {
	if c, ok := r.configs[p]; ok {
		return c
	}

	c := newConfiguration(r, p)
	r.configs[p] = c
	r.invalidateLocked()
	return c
}

// invalidateLocked drops all lazily created configurations.
func (r *Registry) invalidateLocked() {
	r.lazy = nil
}

// Lookup returns the registered configuration for p if it exists.
// Configurations that Adapt creates on its own are not registered.
func (r *Registry) Lookup(p TypePair) (*Configuration, bool) {
	p = NewPair(p.Source, p.Destination)

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[p]
	return c, ok
}

// Pairs returns all pairs that have a configuration, sorted by name.
func (r *Registry) Pairs() []TypePair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pairsLocked()
}

func (r *Registry) pairsLocked() []TypePair {
	result := make([]TypePair, 0, len(r.configs))
	for p := range r.configs {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})

	return result
}

// Clear resets the configuration for p to its freshly created state. This
// is a no-op if p has no configuration.
func (r *Registry) Clear(p TypePair) {
	p = NewPair(p.Source, p.Destination)

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.configs[p]; ok {
		c.reset()
		r.invalidateLocked()
		r.logger.Debug("configuration cleared", "pair", p.String())
	}
}

// SetAllowImplicitDestinationInheritance sets the global default for
// implicit destination inheritance.
func (r *Registry) SetAllowImplicitDestinationInheritance(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global.AllowImplicitDestinationInheritance = v
	r.invalidateLocked()
}

// GlobalSettings returns the registry-wide settings.
func (r *Registry) GlobalSettings() GlobalSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.global
}

// Compile compiles the configuration for p, creating a default one if
// necessary. Every ancestor in the inheritance chain that isn't compiled
// yet is compiled first, root first.
//
// Compile always recompiles p itself, so it is how changes made after a
// previous Compile take effect. Changes are never picked up automatically.
func (r *Registry) Compile(p TypePair) error {
	p = NewPair(p.Source, p.Destination)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidateLocked()
	return r.compileLocked(r.getOrCreateLocked(p), true)
}

// CompileAll compiles every configuration in the registry, bases before
// the configurations derived from them. Errors from all configurations are
// returned together.
func (r *Registry) CompileAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidateLocked()

	// Build a graph with an edge from each base to its derived pairs so
	// the topological order visits bases first.
	var g graph.Graph
	for _, p := range r.pairsLocked() {
		g.Add(p)
	}
	for p, c := range r.configs {
		if c.base != nil {
			g.Add(*c.base)
			g.AddEdge(*c.base, p)
		}
	}

	order, err := g.KahnSort()
	if err != nil {
		return err
	}
	r.logger.Trace("compile order", "graph", g.String())

	var result error
	for _, v := range order {
		c := r.getOrCreateLocked(v.(TypePair))
		if err := r.compileSingleLocked(c); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

// compileLocked compiles c. If force is false, c is only compiled if it
// isn't already. Ancestors are compiled only if they aren't already, and
// only the error of c is returned.
func (r *Registry) compileLocked(c *Configuration, force bool) error {
	chain, err := r.chainLocked(c)
	if err != nil {
		c.compiled, c.compileErr = nil, err
		return err
	}

	// A failing ancestor keeps its own error. Its registration errors and
	// rules reach c through resolution, so they are not reported twice.
	for _, ancestor := range chain[:len(chain)-1] {
		if ancestor.compiled == nil {
			r.compileSingleLocked(ancestor)
		}
	}

	if !force && (c.compiled != nil || c.compileErr != nil) {
		return c.compileErr
	}

	return r.compileSingleLocked(c)
}

// compileSingleLocked resolves and compiles c alone, recording the result.
func (r *Registry) compileSingleLocked(c *Configuration) error {
	resolved, err := r.resolveLocked(c)
	if err == nil {
		c.compiled, err = compile(r, resolved)
	}
	if err != nil {
		c.compiled, c.compileErr = nil, err
		r.logger.Debug("configuration invalid", "pair", c.pair.String(), "error", err)
		return err
	}

	c.compileErr = nil
	return nil
}

// mappingFor returns the compiled mapping for p, compiling it lazily.
// A registered configuration for p is always used. Otherwise a lazy one
// is created: if allowImplicit is true it inherits the configuration of
// the nearest base pair, else it maps by convention only.
func (r *Registry) mappingFor(p TypePair, allowImplicit bool) (*compiledMapping, error) {
	key := lazyKey{pair: p, allowImplicit: allowImplicit}

	r.mu.RLock()
	c, ok := r.configs[p]
	if !ok {
		c, ok = r.lazy[key]
	}
	if ok && c.compiled != nil {
		r.mu.RUnlock()
		return c.compiled, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok = r.configs[p]
	if !ok {
		c = r.lazyLocked(key)
	}

	if err := r.compileLocked(c, false); err != nil {
		return nil, err
	}

	return c.compiled, nil
}

// lazyLocked returns the lazily created configuration for key, creating
// it if necessary.
func (r *Registry) lazyLocked(key lazyKey) *Configuration {
	if c, ok := r.lazy[key]; ok {
		return c
	}

	c := newConfiguration(r, key.pair)
	if key.allowImplicit {
		if base, ok := r.implicitBaseLocked(key.pair); ok {
			c.base = &base
			r.logger.Debug("implicit destination inheritance",
				"pair", key.pair.String(), "base", base.String())
		}
	}

	if r.lazy == nil {
		r.lazy = make(map[lazyKey]*Configuration)
	}
	r.lazy[key] = c
	return c
}

// implicitBaseLocked finds the most derived configured pair whose source
// and destination are both bases of p.
func (r *Registry) implicitBaseLocked(p TypePair) (TypePair, bool) {
	var best *TypePair
	for _, candidate := range r.pairsLocked() {
		if candidate == p || !r.derivesLocked(p, candidate) {
			continue
		}

		if best == nil || r.derivesLocked(candidate, *best) {
			candidate := candidate
			best = &candidate
		}
	}

	if best == nil {
		return TypePair{}, false
	}

	return *best, true
}

// derivesLocked reports whether both sides of p derive from the
// respective sides of base.
func (r *Registry) derivesLocked(p, base TypePair) bool {
	if _, ok := r.hierarchy.Upcast(p.Source, base.Source); !ok {
		return false
	}

	_, ok := r.hierarchy.Upcast(p.Destination, base.Destination)
	return ok
}
