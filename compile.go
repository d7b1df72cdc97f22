// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
)

// compiledMapping is the executable mapping of one configuration. It is
// immutable after compile and safe to use concurrently; all state for a
// single Adapt call lives in the adaptContext.
type compiledMapping struct {
	pair     TypePair
	settings Settings
	steps    []*memberStep
	logger   hclog.Logger

	// mapSource is true if the source is a map. Members without a rule
	// are then decoded with mapstructure instead of matched by convention.
	mapSource bool
}

// memberStep assigns one destination member.
type memberStep struct {
	name  string
	index []int

	// condition and value are set for members with a rule. read is set
	// for members matched by convention.
	condition *ruleFunc
	value     *ruleFunc
	read      func(in *stepInput) (reflect.Value, bool)

	convert   converter
	transform func(reflect.Value) reflect.Value
}

// stepInput is the source as seen by the steps of one mapping run.
type stepInput struct {
	src reflect.Value

	// decoded and keys are only set for map sources: decoded is the map
	// decoded onto the destination type and keys the members it set.
	decoded reflect.Value
	keys    map[string]struct{}
}

// compile builds the compiled mapping for a resolved configuration.
// All member errors are collected and returned together.
func compile(r *Registry, rc *resolvedConfig) (*compiledMapping, error) {
	log := r.logger.With("pair", rc.pair.String())

	// Registration errors are reported first. If the pair itself is
	// invalid there is nothing more we can check.
	if rc.errs != nil {
		return nil, rc.errs
	}

	result := &compiledMapping{
		pair:      rc.pair,
		settings:  rc.settings,
		logger:    log,
		mapSource: rc.pair.Source.Kind() == reflect.Map,
	}

	var err error
	dst := rc.pair.Destination

	// Every rule has to name a member we can set.
	for _, rule := range rc.rules.Rules() {
		sf, ok := dst.FieldByName(rule.Member)
		switch {
		case !ok:
			err = multierror.Append(err, memberConfigError(rc.pair, rule.Member,
				"no such member on destination type %s", dst))

		case !sf.IsExported() || !settablePath(dst, sf.Index):
			err = multierror.Append(err, memberConfigError(rc.pair, rule.Member,
				"member is not settable"))

		case sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct:
			err = multierror.Append(err, memberConfigError(rc.pair, rule.Member,
				"member is an embedded struct, configure its fields instead"))
		}
	}

	for _, f := range destinationFields(dst) {
		transform := rc.transforms.forType(f.Type)

		rule, ok := rc.rules.Get(f.Name)
		if !ok {
			step := result.conventionStep(r.convention, f)
			if step == nil {
				log.Trace("member not matched", "member", f.Name)
				continue
			}

			step.transform = transform
			result.steps = append(result.steps, step)
			continue
		}

		if rule.Kind == ruleIgnore {
			log.Trace("member ignored", "member", f.Name)
			continue
		}

		conv, compat := converterFor(rule.Value.out, f.Type)
		if compat == incompatible {
			err = multierror.Append(err, memberConfigError(rc.pair, f.Name,
				"value of type %s from %s cannot be assigned to member of type %s",
				rule.Value.out, rule.Value.Name(), f.Type))
			continue
		}

		log.Trace("member mapped by rule",
			"member", f.Name,
			"fn", rule.Value.Name(),
			"conditional", rule.Condition != nil,
			"compatibility", compat.String())
		result.steps = append(result.steps, &memberStep{
			name:      f.Name,
			index:     f.Index,
			condition: rule.Condition,
			value:     rule.Value,
			convert:   conv,
			transform: transform,
		})
	}

	if err != nil {
		return nil, err
	}

	log.Debug("configuration compiled",
		"rules", rc.rules.Len(),
		"steps", len(result.steps),
		"chain", fmt.Sprintf("%v", rc.chain))
	return result, nil
}

// conventionStep returns the step for a member without a rule, or nil if
// the member can't be matched.
func (m *compiledMapping) conventionStep(convention Convention, f destinationField) *memberStep {
	if m.mapSource {
		if f.SourceName == "" {
			return nil
		}

		name, index := f.SourceName, f.Index
		return &memberStep{
			name:  f.Name,
			index: f.Index,
			read: func(in *stepInput) (reflect.Value, bool) {
				if _, ok := in.keys[name]; !ok {
					return reflect.Value{}, false
				}

				v, err := in.decoded.FieldByIndexErr(index)
				return v, err == nil
			},
			convert: convertAssign,
		}
	}

	acc, ok := convention.Match(m.pair.Source, f.StructField)
	if !ok {
		return nil
	}

	conv, compat := converterFor(acc.Type, f.Type)
	if compat == incompatible {
		m.logger.Trace("member matched with incompatible type",
			"member", f.Name, "source_type", acc.Type.String(), "type", f.Type.String())
		return nil
	}

	m.logger.Trace("member mapped by convention", "member", f.Name, "compatibility", compat.String())
	return &memberStep{
		name:  f.Name,
		index: f.Index,
		read: func(in *stepInput) (reflect.Value, bool) {
			return acc.Get(in.src)
		},
		convert: conv,
	}
}

// run maps src onto dst. src is the source struct (or map), dst is the
// addressable destination struct.
func (m *compiledMapping) run(ctx *adaptContext, src, dst reflect.Value) error {
	in := &stepInput{src: src}
	if m.mapSource {
		if err := m.decode(in); err != nil {
			return err
		}
	}

	for _, s := range m.steps {
		if err := m.apply(ctx, s, in, dst); err != nil {
			return err
		}
	}

	return nil
}

// apply runs a single step.
func (m *compiledMapping) apply(ctx *adaptContext, s *memberStep, in *stepInput, dst reflect.Value) error {
	if s.condition != nil {
		ok, err := s.condition.call(in.src)
		if err != nil {
			return &ErrMember{Pair: m.pair, Member: s.name, Err: err}
		}
		if !ok.Bool() {
			m.skipped(s, "condition is false", reflect.Value{})
			return nil
		}
	}

	var v reflect.Value
	if s.value != nil {
		var err error
		v, err = s.value.call(in.src)
		if err != nil {
			return &ErrMember{Pair: m.pair, Member: s.name, Err: err}
		}
	} else {
		var ok bool
		v, ok = s.read(in)
		if !ok {
			return nil
		}
	}

	if m.settings.IgnoreNullValues && isNil(v) {
		m.skipped(s, "value is null", v)
		return nil
	}

	out, ok, err := s.convert(ctx, v)
	if err != nil {
		return &ErrMember{Pair: m.pair, Member: s.name, Err: err}
	}
	if !ok {
		m.skipped(s, "max depth reached", v)
		return nil
	}

	if s.transform != nil {
		out = s.transform(out)
	}

	field, err := fieldByIndexAlloc(dst, s.index)
	if err != nil {
		return &ErrMember{Pair: m.pair, Member: s.name, Err: err}
	}

	field.Set(out)
	return nil
}

// decode decodes a map source onto a scratch destination.
func (m *compiledMapping) decode(in *stepInput) error {
	scratch := reflect.New(m.pair.Destination)

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           scratch.Interface(),
		TagName:          tagName,
		WeaklyTypedInput: true,
		Squash:           true,
		Metadata:         &md,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(in.src.Interface()); err != nil {
		return fmt.Errorf("error decoding source for %q: %w", m.pair.String(), err)
	}

	in.decoded = scratch.Elem()
	in.keys = make(map[string]struct{}, len(md.Keys))
	for _, k := range md.Keys {
		in.keys[k] = struct{}{}
	}

	return nil
}

// skipped logs a member that was not assigned.
func (m *compiledMapping) skipped(s *memberStep, reason string, v reflect.Value) {
	if !m.logger.IsTrace() {
		return
	}

	args := []interface{}{"member", s.name, "reason", reason}
	if v.IsValid() && v.CanInterface() {
		args = append(args, "value", spew.Sprint(v.Interface()))
	}

	m.logger.Trace("member skipped", args...)
}
