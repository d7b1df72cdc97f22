// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// resolvedConfig is the effective configuration of a pair: its own rules,
// transforms and settings merged on top of the whole base chain.
type resolvedConfig struct {
	pair       TypePair
	rules      *ruleSet
	transforms transformSet
	settings   Settings

	// chain is the list of pairs from the root base down to pair.
	chain []TypePair

	// errs are the registration errors of pair and all of its bases.
	errs error
}

// inherits implements Configuration.Inherits.
func (r *Registry) inherits(c *Configuration, base TypePair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if base == c.pair {
		return &ErrInvalidCast{
			Pair:      c.pair,
			Base:      base,
			Direction: CastSource,
			Reason:    "a configuration cannot inherit from itself",
		}
	}

	// Check types first so we fail before any mutation.
	if _, ok := r.hierarchy.Upcast(c.pair.Source, base.Source); !ok {
		return &ErrInvalidCast{Pair: c.pair, Base: base, Direction: CastSource}
	}
	if _, ok := r.hierarchy.Upcast(c.pair.Destination, base.Destination); !ok {
		return &ErrInvalidCast{Pair: c.pair, Base: base, Direction: CastDestination}
	}

	// Make sure that the base chain never loops back to us.
	baseConfig := r.getOrCreateLocked(base)
	chain, err := r.chainLocked(baseConfig)
	if err != nil {
		return err
	}
	for _, ancestor := range chain {
		if ancestor == c {
			return &ErrInvalidCast{
				Pair:      c.pair,
				Base:      base,
				Direction: CastSource,
				Reason:    "base configuration already inherits from this configuration",
			}
		}
	}

	c.base = &base
	r.invalidateLocked()

	if c.compiled != nil {
		r.logger.Warn("inheritance changed after compile, mapping is stale until recompiled",
			"pair", c.pair.String(), "base", base.String())
	}

	return nil
}

// chainLocked returns the inheritance chain of c from the root base down
// to c itself.
func (r *Registry) chainLocked(c *Configuration) ([]*Configuration, error) {
	var result []*Configuration
	seen := map[TypePair]struct{}{}
	for current := c; current != nil; {
		if _, ok := seen[current.pair]; ok {
			names := make([]string, len(result))
			for i, v := range result {
				names[i] = v.pair.String()
			}

			return nil, fmt.Errorf("inheritance cycle: %s", strings.Join(names, " => "))
		}
		seen[current.pair] = struct{}{}
		result = append(result, current)

		if current.base == nil {
			break
		}

		next, ok := r.configs[*current.base]
		if !ok {
			// The base was registered by Inherits so this only happens
			// for a chain that was changed concurrently. Treat the
			// missing base as empty.
			break
		}
		current = next
	}

	// Reverse so the root is first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// resolveLocked merges the chain of c into its effective configuration.
// The merge walks from the root base down:
//
//   * settings that are unset take the value inherited from the base
//
//   * base rules are projected onto the derived source, then replaced
//     member by member by the derived rules
//
//   * transforms are unioned and the derived transform wins per type
//
func (r *Registry) resolveLocked(c *Configuration) (*resolvedConfig, error) {
	chain, err := r.chainLocked(c)
	if err != nil {
		return nil, err
	}

	var (
		rules      = newRuleSet()
		transforms = transformSet{}
		settings   settingsBlock
		errs       error
		pairs      = make([]TypePair, 0, len(chain))
		prev       *Configuration
	)
	for _, current := range chain {
		// Every configuration but the root projects the rules of its
		// base onto its own source.
		var upcast UpcastFunc
		if prev != nil {
			var ok bool
			upcast, ok = r.hierarchy.Upcast(current.pair.Source, prev.pair.Source)
			if !ok {
				return nil, &ErrInvalidCast{Pair: current.pair, Base: prev.pair, Direction: CastSource}
			}
			if _, ok := r.hierarchy.Upcast(current.pair.Destination, prev.pair.Destination); !ok {
				return nil, &ErrInvalidCast{Pair: current.pair, Base: prev.pair, Direction: CastDestination}
			}
		}

		rules = current.rules.inherit(rules, upcast)
		transforms = current.transforms.snapshot().inherit(transforms)
		settings = current.settings.inherit(settings)
		if current.errs != nil {
			errs = multierror.Append(errs, current.errs)
		}

		pairs = append(pairs, current.pair)
		prev = current
	}

	return &resolvedConfig{
		pair:       c.pair,
		rules:      rules,
		transforms: transforms,
		settings:   settings.resolve(r.global),
		chain:      pairs,
		errs:       errs,
	}, nil
}

// settings implements Configuration.Settings.
func (r *Registry) settings(c *Configuration) Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved, err := r.resolveLocked(c)
	if err != nil {
		// An invalid chain contributes nothing, so only the settings of c
		// itself apply.
		return c.settings.resolve(r.global)
	}

	return resolved.settings
}
