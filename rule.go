// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package typemapper

// ruleKind is the variant of a memberRule.
type ruleKind int

const (
	// ruleMap assigns the result of a value function, optionally guarded
	// by a condition.
	ruleMap ruleKind = iota

	// ruleIgnore leaves the destination member untouched.
	ruleIgnore
)

func (k ruleKind) String() string {
	switch k {
	case ruleMap:
		return "map"
	case ruleIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// memberRule is the directive for a single destination member. The value,
// condition and kind always travel together: overriding a rule replaces
// all of it.
type memberRule struct {
	Member    string
	Kind      ruleKind
	Value     *ruleFunc
	Condition *ruleFunc
}

// through returns a copy of the rule whose functions first project the
// source with u.
func (r *memberRule) through(u UpcastFunc) *memberRule {
	return &memberRule{
		Member:    r.Member,
		Kind:      r.Kind,
		Value:     r.Value.through(u),
		Condition: r.Condition.through(u),
	}
}

// ruleSet is the ordered set of member rules of one configuration. There
// is at most one rule per member.
type ruleSet struct {
	rules []*memberRule
	index map[string]int
}

func newRuleSet() *ruleSet {
	return &ruleSet{index: make(map[string]int)}
}

// Set adds r, replacing any rule for the same member. A replaced rule
// keeps its original position.
func (s *ruleSet) Set(r *memberRule) {
	if idx, ok := s.index[r.Member]; ok {
		s.rules[idx] = r
		return
	}

	s.index[r.Member] = len(s.rules)
	s.rules = append(s.rules, r)
}

// Get returns the rule for member, if there is one.
func (s *ruleSet) Get(member string) (*memberRule, bool) {
	idx, ok := s.index[member]
	if !ok {
		return nil, false
	}

	return s.rules[idx], true
}

// Rules returns the rules in order.
func (s *ruleSet) Rules() []*memberRule {
	return s.rules
}

// Len returns the number of rules.
func (s *ruleSet) Len() int {
	return len(s.rules)
}

// inherit returns the merge of s on top of base. Every base rule is
// projected through u so it can be applied to the derived source, then
// every rule of s replaces the base rule for the same member.
func (s *ruleSet) inherit(base *ruleSet, u UpcastFunc) *ruleSet {
	result := newRuleSet()
	for _, r := range base.rules {
		result.Set(r.through(u))
	}
	for _, r := range s.rules {
		result.Set(r)
	}

	return result
}
