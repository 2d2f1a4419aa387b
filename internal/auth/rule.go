package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Check decides whether a request may proceed.
type Check func(r *http.Request) (bool, error)

// Rule is one authorization requirement attached to a method. Name and
// Params describe the rule for introspection; the check does the work.
type Rule struct {
	Name   string
	Params []string

	check Check
}

// NewRule builds a Rule. A nil check denies everything.
func NewRule(name string, check Check, params ...string) Rule {
	return Rule{
		Name:   name,
		Params: append([]string(nil), params...),
		check:  check,
	}
}

// Eval runs the rule against r.
func (rl Rule) Eval(r *http.Request) (bool, error) {
	if rl.check == nil {
		return false, nil
	}
	return rl.check(r)
}

func (rl Rule) String() string {
	if len(rl.Params) == 0 {
		return rl.Name
	}
	return fmt.Sprintf("%s(%s)", rl.Name, strings.Join(rl.Params, ","))
}

// Rules is an ordered list of rules that must all pass. Values are
// never modified in place; With returns a new list.
type Rules struct {
	list []Rule
}

// NewRules returns a list holding rs in order.
func NewRules(rs ...Rule) Rules {
	return Rules{}.With(rs...)
}

// With returns a copy of the list with rs appended.
func (rules Rules) With(rs ...Rule) Rules {
	out := make([]Rule, 0, len(rules.list)+len(rs))
	out = append(out, rules.list...)
	out = append(out, rs...)
	return Rules{list: out}
}

// Len returns the number of rules.
func (rules Rules) Len() int { return len(rules.list) }

// All returns a copy of the rules in attachment order.
func (rules Rules) All() []Rule {
	return append([]Rule(nil), rules.list...)
}

// Names returns the rule descriptions in attachment order.
func (rules Rules) Names() []string {
	out := make([]string, 0, len(rules.list))
	for _, rl := range rules.list {
		out = append(out, rl.String())
	}
	return out
}

// Allow evaluates the rules in order and stops at the first one that
// does not pass. An empty list allows everything.
func (rules Rules) Allow(r *http.Request) (bool, error) {
	failed, err := rules.Denied(r)
	if err != nil {
		return false, err
	}
	return failed == nil, nil
}

// Denied evaluates like Allow and returns the first failing rule.
func (rules Rules) Denied(r *http.Request) (*Rule, error) {
	for i := range rules.list {
		rl := rules.list[i]
		ok, err := rl.Eval(r)
		if err != nil {
			return &rl, fmt.Errorf("rule %s: %w", rl.Name, err)
		}
		if !ok {
			return &rl, nil
		}
	}
	return nil, nil
}
