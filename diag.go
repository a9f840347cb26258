// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Category classifies diagnostics.
//
type Category int

// Diagnostic categories.
const (
	Lexical    Category = iota // malformed or illegal token, grammar, grouping
	Semantic                   // namespace or width conflicts, port arity, oversized constants
	Dependency                 // circular dependency, re-assignment
	Resolution                 // missing or header-less sub-design
)

var categoryNames = [...]string{
	Lexical:    "lexical",
	Semantic:   "semantic",
	Dependency: "dependency",
	Resolution: "resolution",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(" + strconv.Itoa(int(c)) + ")"
	}
	return categoryNames[c]
}

// Diagnostic is a line-indexed problem found in a design file.
//
type Diagnostic struct {
	File     string // empty for the top-level design
	Line     int
	Category Category
	Msg      string
}

func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Msg)
	}
	return "line " + strconv.Itoa(d.Line) + ": " + d.Msg
}

// Diagnostics is the list of diagnostics of a failed parse pass.
//
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// categorized is an error carrying a diagnostic category.
type categorized struct {
	cat Category
	msg string
}

func (e *categorized) Error() string { return e.msg }

func errorf(cat Category, format string, args ...interface{}) error {
	return &categorized{cat, fmt.Sprintf(format, args...)}
}

// categoryOf returns the category of err, Semantic if err does not carry one.
func categoryOf(err error) Category {
	if c, ok := errors.Cause(err).(*categorized); ok {
		return c.cat
	}
	return Semantic
}
