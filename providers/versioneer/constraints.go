package versioneer

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a comparison operator of a single version constraint.
type Operator string

// Supported comparison operators. Compatible release ('~=') is expanded while parsing.
const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

const (
	compatibleRelease = "~="
	wildcard          = "*"
	prefixSuffix      = ".*"
)

// Constraint represents one (operator, version) pair (e.g. '>=1.2.3').
//
// A prefix exclusion ('!=1.2.*') keeps the prefix in Version and its exclusive upper
// bound in Upper ('1.3'); Upper is the zero Version otherwise.
type Constraint struct {
	Op      Operator
	Version Version
	Upper   Version
}

// Prefix reports whether the constraint excludes a whole release prefix.
func (c Constraint) Prefix() bool {
	return c.Upper.value != ""
}

func (c Constraint) String() string {
	if c.Prefix() {
		return string(c.Op) + c.Version.Value() + prefixSuffix
	}
	return string(c.Op) + c.Version.Value()
}

// ConstraintSet is an ordered conjunction of constraints parsed from one range expression.
// An empty set accepts any version.
type ConstraintSet []Constraint

// Any reports whether the set is the implicit wildcard.
func (cs ConstraintSet) Any() bool {
	return len(cs) == 0
}

func (cs ConstraintSet) String() string {
	if cs.Any() {
		return wildcard
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// ParseConstraints parses a setup.py or Pipfile style version range (e.g. '>=1.3.2, <2', '~=1.2', '*').
//
// Every comma separated token is read left to right: the text before the first digit
// is the operator, the rest is the version. Whitespace is insignificant.
// Prefix matches are expanded: '==1.2.*' is '>=1.2, <1.3'.
func ParseConstraints(expr string) (ConstraintSet, error) {
	cs := ConstraintSet{}
	for _, raw := range strings.Split(expr, ",") {
		token := stripSpaces(raw)
		if token == "" {
			continue
		}

		op, ver := splitOperator(token)
		switch {
		case op == wildcard && ver == "":
			continue
		case op == compatibleRelease:
			expanded, err := expandCompatibleRelease(ver)
			if err != nil {
				return nil, &ParseError{Expr: expr, Token: token, Err: err}
			}
			cs = append(cs, expanded...)
			continue
		case (op == string(OpEqual) || op == string(OpNotEqual)) && strings.HasSuffix(ver, prefixSuffix):
			c, err := prefixMatch(Operator(op), strings.TrimSuffix(ver, prefixSuffix))
			if err != nil {
				return nil, &ParseError{Expr: expr, Token: token, Err: err}
			}
			cs = append(cs, c...)
			continue
		case !knownOperator(Operator(op)):
			return nil, &ParseError{Expr: expr, Token: token, Reason: fmt.Sprintf("not recognizable version string operator %q", op)}
		}

		v, err := NewPipVersion(ver)
		if err != nil {
			return nil, &ParseError{Expr: expr, Token: token, Err: err}
		}
		cs = append(cs, Constraint{Op: Operator(op), Version: v})
	}
	return cs, nil
}

// MustParseConstraints is like ParseConstraints but panics on error.
func MustParseConstraints(expr string) ConstraintSet {
	cs, err := ParseConstraints(expr)
	if err != nil {
		panic(err)
	}
	return cs
}

func knownOperator(op Operator) bool {
	_, ok := metricFilters[op]
	return ok
}

// splitOperator splits a whitespace free token at its first digit.
func splitOperator(token string) (string, string) {
	idx := strings.IndexFunc(token, func(r rune) bool { return r >= '0' && r <= '9' })
	if idx == -1 {
		return token, ""
	}
	return token[:idx], token[idx:]
}

// prefixMatch turns '==P.*' into '>=P, <P'' and '!=P.*' into a prefix exclusion, P'
// being P with its last segment bumped ('1.2' -> '1.3').
func prefixMatch(op Operator, prefix string) ([]Constraint, error) {
	lower, err := NewPipVersion(prefix)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(prefix, ".")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return nil, fmt.Errorf("prefix match segment %q is not numeric", parts[len(parts)-1])
	}
	parts[len(parts)-1] = strconv.Itoa(n + 1)
	upper, err := NewPipVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, err
	}

	if op == OpNotEqual {
		return []Constraint{{Op: OpNotEqual, Version: lower, Upper: upper}}, nil
	}
	return []Constraint{{Op: OpGreaterEqual, Version: lower}, {Op: OpLess, Version: upper}}, nil
}

// expandCompatibleRelease turns '~=V' into '>=V' and, when V has at least two segments,
// '<V'' with the second-to-last segment bumped and the last one zeroed ('~=1.2.4' is '>=1.2.4, <1.3.0').
func expandCompatibleRelease(ver string) ([]Constraint, error) {
	lower, err := NewPipVersion(ver)
	if err != nil {
		return nil, err
	}
	result := []Constraint{{Op: OpGreaterEqual, Version: lower}}

	parts := strings.Split(ver, ".")
	if len(parts) < 2 {
		return result, nil
	}
	n, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return nil, fmt.Errorf("compatible release segment %q is not numeric", parts[len(parts)-2])
	}
	parts[len(parts)-2] = strconv.Itoa(n + 1)
	parts[len(parts)-1] = "0"

	upper, err := NewPipVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, err
	}
	return append(result, Constraint{Op: OpLess, Version: upper}), nil
}
