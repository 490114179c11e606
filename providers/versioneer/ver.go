/*
Package versioneer provides pip (PEP 440) versions, version range parsing and
the compatibility analysis of two version ranges.

Usage:

	declared, err := versioneer.ParseConstraints(">=2.0, <3.0")
	if err != nil {
		return err
	}
	locked, err := versioneer.ParseConstraints("~=2.1")
	if err != nil {
		return err
	}
	switch versioneer.Analyze(declared, locked) {
	case versioneer.Potential, versioneer.Disjoint:
		// report it
	}
*/
package versioneer

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError is returned when a version range or one of its versions can not be understood.
type ParseError struct {
	Expr   string // Full range expression (e.g. '>=1.2, <2')
	Token  string // Offending comma separated token, if any
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("unable to parse version range %q", e.Expr)
	if e.Token != "" {
		msg += fmt.Sprintf(" at %q", e.Token)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Fast way to strip all whitespaces from a string
func stripSpaces(str string) string {
	var b strings.Builder
	b.Grow(len(str))
	for _, ch := range str {
		if !unicode.IsSpace(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
