// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package expand rewrites vectors, constants and concatenations into flat
// lists of scalar names and bits.
//
// Horizontal expansion replaces operands in place within a statement.
// Vertical expansion fans a multi-bit assignment out into one assignment per
// target bit, or folds it into a single integer assignment when the
// expression uses arithmetic or comparison.
//
package expand

import (
	"github.com/db47h/hwlogic/internal/lex"
	"github.com/pkg/errors"
)

// An Expander memoizes operand expansions. Use one Expander per parse pass.
//
type Expander struct {
	memo map[string][]lex.Token
}

// New returns a new Expander.
//
func New() *Expander {
	return &Expander{memo: make(map[string][]lex.Token)}
}

var (
	zero = lex.New(lex.Number, "0")
	rbr  = lex.Token{Kind: lex.Op, Text: "}"}
)

// Operand returns the components of a vector or constant token, most
// significant first. Any other token is returned as a single element.
// The returned slice must not be modified.
//
func (x *Expander) Operand(t lex.Token) ([]lex.Token, error) {
	switch t.Kind {
	case lex.Vector, lex.Constant, lex.Number:
	default:
		return []lex.Token{t}, nil
	}
	if r, ok := x.memo[t.Text]; ok {
		return r, nil
	}
	var names []string
	kind := lex.Ident
	if t.Kind == lex.Vector {
		v, err := lex.ParseVector(t.Text)
		if err != nil {
			return nil, err
		}
		names = v.Bits()
	} else {
		c, err := lex.ParseConstant(t.Text)
		if err != nil {
			return nil, err
		}
		names = c.Bits()
		kind = lex.Number
	}
	r := make([]lex.Token, len(names))
	for i, n := range names {
		r[i] = lex.New(kind, n)
	}
	x.memo[t.Text] = r
	return r, nil
}

// bit returns true for the single bit constants 0 and 1.
func bit(t lex.Token) bool {
	return t.Kind == lex.Number && (t.Text == "0" || t.Text == "1")
}

// Horizontal replaces every vector and constant in ts with its components and
// returns the widest component list. When group is set, multi-bit operands
// that are not already inside braces are wrapped into a concatenation.
//
func (x *Expander) Horizontal(ts []lex.Token, group bool) ([]lex.Token, int, error) {
	out := make([]lex.Token, 0, len(ts))
	width := 0
	inner := false
	for _, t := range ts {
		switch {
		case t.Is("{"):
			inner = true
		case t.Is("}"):
			inner = false
		}
		cs, err := x.Operand(t)
		if err != nil {
			return nil, 0, err
		}
		if len(cs) > width {
			width = len(cs)
		}
		switch {
		case group && !inner && len(cs) > 1:
			out = append(out, wrap(cs, t.Spaced)...)
		case len(cs) == 1 && cs[0].Text == t.Text:
			out = append(out, t)
		default:
			out = append(out, cs...)
			out[len(out)-len(cs)].Spaced = t.Spaced
		}
	}
	return out, width, nil
}

// Assignment is an assignment statement split into its parts.
//
type Assignment struct {
	Lhs   []lex.Token
	Op    lex.Token // = or <=
	Clock lex.Token // optional @clock, Kind is lex.Invalid if absent
	Expr  []lex.Token
}

// Split splits the tokens of a validated assignment statement.
//
func Split(ts []lex.Token) (Assignment, error) {
	for i, t := range ts {
		if t.Is("=") || t.Is("<=") {
			a := Assignment{Lhs: ts[:i], Op: t, Expr: ts[i+1:]}
			if len(a.Expr) > 0 && a.Expr[0].Kind == lex.Clock {
				a.Clock, a.Expr = a.Expr[0], a.Expr[1:]
			}
			if len(a.Lhs) == 0 || len(a.Expr) == 0 {
				break
			}
			return a, nil
		}
	}
	return Assignment{}, errors.Errorf("malformed assignment %s", lex.Join(ts))
}

// Tokens returns the token form of a.
//
func (a Assignment) Tokens() []lex.Token {
	r := make([]lex.Token, 0, len(a.Lhs)+len(a.Expr)+2)
	r = append(r, a.Lhs...)
	r = append(r, a.Op)
	if a.Clock.Kind == lex.Clock {
		r = append(r, a.Clock)
	}
	return append(r, a.Expr...)
}

// ClockName returns the name of the gating clock, or an empty string.
//
func (a Assignment) ClockName() string {
	if a.Clock.Kind != lex.Clock {
		return ""
	}
	return a.Clock.Text[1:]
}

// integer returns true if a must be evaluated as a single integer
// expression rather than bit by bit.
func integer(a Assignment) bool {
	if a.Lhs[0].Is("{") {
		return true
	}
	if len(a.Expr) == 1 && a.Expr[0].Kind != lex.Ident && a.Expr[0].Kind != lex.Vector && !bit(a.Expr[0]) {
		return true
	}
	for _, t := range a.Expr {
		if t.Is("+") || t.Is("-") || t.Is("==") {
			return true
		}
	}
	return false
}

// Vertical expands an assignment. In bitwise mode, the result holds one
// assignment per target bit. Names and the bits 0 and 1 are broadcast to all
// lines; vectors, constants and concatenations are spread across lines,
// zero-padded on the left. In integer mode (arithmetic or comparison
// operators, a concatenation target or a lone constant), the result is a
// single assignment with multi-bit operands wrapped into concatenations.
//
// Expanding a fully scalar assignment returns it unchanged.
//
func (x *Expander) Vertical(a Assignment) ([]Assignment, error) {
	lhs, _, err := x.Horizontal(a.Lhs, false)
	if err != nil {
		return nil, err
	}
	var names []lex.Token
	for _, t := range lhs {
		if t.Kind == lex.Ident {
			names = append(names, t)
		}
	}
	n := len(names)
	if integer(a) {
		return x.integer(a, names)
	}

	cols := make([]column, 0, len(a.Expr))
	for i := 0; i < len(a.Expr); i++ {
		t := a.Expr[i]
		var (
			list []lex.Token
			src  = t.Text
		)
		switch {
		case t.Is("{"):
			j := i + 1
			for !a.Expr[j].Is("}") {
				cs, err := x.Operand(a.Expr[j])
				if err != nil {
					return nil, err
				}
				list = append(list, cs...)
				j++
			}
			src = lex.Join(a.Expr[i : j+1])
			i = j
		case t.Kind == lex.Vector, t.Kind == lex.Constant, t.Kind == lex.Number && !bit(t):
			if list, err = x.Operand(t); err != nil {
				return nil, err
			}
		default:
			cols = append(cols, column{ts: []lex.Token{t}})
			continue
		}
		l, ok := fit(list, n)
		if !ok {
			return nil, errors.Errorf("width mismatch: %s is %d bits wide, %s is %d", lex.Join(a.Lhs), n, src, len(list))
		}
		cols = append(cols, column{ts: l, spread: true, spaced: t.Spaced})
	}

	r := make([]Assignment, n)
	for i := range r {
		expr := make([]lex.Token, len(cols))
		for k, c := range cols {
			if !c.spread {
				expr[k] = c.ts[0]
				continue
			}
			expr[k] = c.ts[i]
			expr[k].Spaced = c.spaced
		}
		r[i] = Assignment{Lhs: []lex.Token{names[i]}, Op: a.Op, Clock: a.Clock, Expr: expr}
	}
	return r, nil
}

// column is one expression operand across the lines of a bitwise expansion.
type column struct {
	ts     []lex.Token
	spread bool // one token per line, otherwise broadcast
	spaced bool
}

// fit returns list resized to n elements: zero-padded on the left, or with
// leading zero bits dropped. It returns false if list does not fit.
func fit(list []lex.Token, n int) ([]lex.Token, bool) {
	if len(list) > n {
		d := len(list) - n
		for _, t := range list[:d] {
			if !(t.Kind == lex.Number && t.Text == "0") {
				return nil, false
			}
		}
		return list[d:], true
	}
	if len(list) == n {
		return list, true
	}
	r := make([]lex.Token, n)
	d := n - len(list)
	for i := range r {
		if i < d {
			r[i] = zero
		} else {
			r[i] = list[i-d]
		}
	}
	return r, true
}

func (x *Expander) integer(a Assignment, names []lex.Token) ([]Assignment, error) {
	n := len(names)
	lhs := a.Lhs
	if n > 1 || lhs[0].Is("{") {
		lhs = wrap(names, lhs[0].Spaced)
	}
	if len(a.Expr) == 1 && (a.Expr[0].Kind == lex.Constant || a.Expr[0].Kind == lex.Number) {
		cs, err := x.Operand(a.Expr[0])
		if err != nil {
			return nil, err
		}
		cs, ok := fit(cs, n)
		if !ok {
			return nil, errors.Errorf("constant %s does not fit in %d bits", a.Expr[0].Text, n)
		}
		expr := cs
		if n > 1 {
			expr = wrap(cs, a.Expr[0].Spaced)
		} else {
			expr = []lex.Token{cs[0]}
			expr[0].Spaced = a.Expr[0].Spaced
		}
		return []Assignment{{Lhs: lhs, Op: a.Op, Clock: a.Clock, Expr: expr}}, nil
	}
	expr, _, err := x.Horizontal(a.Expr, true)
	if err != nil {
		return nil, err
	}
	return []Assignment{{Lhs: lhs, Op: a.Op, Clock: a.Clock, Expr: expr}}, nil
}

// wrap returns ts enclosed in braces.
func wrap(ts []lex.Token, spaced bool) []lex.Token {
	r := make([]lex.Token, 0, len(ts)+2)
	r = append(r, lex.Token{Kind: lex.Op, Text: "{", Spaced: spaced})
	r = append(r, ts...)
	r[1].Spaced = false
	return append(r, rbr)
}
