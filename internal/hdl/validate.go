// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl validates tokenized source lines and classifies them into
// statements.
//
package hdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/db47h/hwlogic/internal/lex"
)

// Error is a line-indexed diagnostic.
//
type Error struct {
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Msg
}

// Statement is a validated statement. Tokens does not include the
// terminating semicolon.
//
type Statement struct {
	Line   int
	Kind   Kind
	Tokens []lex.Token
}

// A Validator checks source lines one at a time and accumulates diagnostics.
// File level ordering rules (library directives and module header first) are
// tracked across calls, so a Validator must be fed the lines of a single file
// in order.
//
type Validator struct {
	errs   []*Error
	code   bool // a statement other than empty, comment or library was seen
	module bool
}

// Errors returns the diagnostics collected so far.
//
func (v *Validator) Errors() []*Error {
	return v.errs
}

func (v *Validator) errorf(line, col int, format string, args ...interface{}) {
	v.errs = append(v.errs, &Error{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)})
}

// Line validates the tokens of source line n. It returns false if the line
// holds any error, in which case the diagnostics have been recorded.
//
func (v *Validator) Line(n int, ts []lex.Token) (Statement, bool) {
	if !v.tokens(n, ts) {
		return Statement{}, false
	}
	k, ok := Infer(ts)
	if !ok {
		v.errorf(n, ts[0].Col, "unexpected %s %s at start of statement", ts[0].Kind, ts[0])
		return Statement{}, false
	}
	body, ok := v.terminate(n, k, ts)
	if ok {
		c := checker{v: v, line: n, ts: body}
		switch k {
		case Empty, Comment:
		case Library:
			ok = c.library()
		case Display:
			ok = c.display()
		case Module:
			ok = c.module()
		case Submodule:
			ok = c.submodule()
		case Boolean, Clock:
			ok = c.assignment(k)
		}
	}
	switch k {
	case Library:
		if v.code {
			v.errorf(n, ts[0].Col, "#library must precede all statements")
			ok = false
		}
	case Module:
		if v.module {
			v.errorf(n, ts[0].Col, "duplicate module declaration")
			ok = false
		} else if v.code {
			v.errorf(n, ts[0].Col, "module declaration must be the first statement")
			ok = false
		}
		v.module = true
	}
	if k != Empty && k != Comment && k != Library {
		v.code = true
	}
	if !ok {
		return Statement{}, false
	}
	return Statement{Line: n, Kind: k, Tokens: body}, true
}

// separated returns true if two consecutive tokens of these kinds need
// whitespace or an operator between them.
func separated(k lex.Kind) bool {
	switch k {
	case lex.Ident, lex.Vector, lex.Constant, lex.Number, lex.Instance, lex.Clock, lex.Format:
		return true
	}
	return false
}

// tokens checks individual tokens and their separators. Every bad token on
// the line is reported.
func (v *Validator) tokens(n int, ts []lex.Token) bool {
	ok := true
	for i, t := range ts {
		var err error
		switch t.Kind {
		case lex.Invalid:
			v.errorf(n, t.Col, "illegal character %q", t.Text)
			ok = false
			continue
		case lex.Comment:
			if len(t.Text) < 2 || !strings.HasSuffix(t.Text, `"`) {
				v.errorf(n, t.Col, "unterminated comment")
				ok = false
			}
		case lex.Vector:
			_, err = lex.ParseVector(t.Text)
		case lex.Constant, lex.Number:
			_, err = lex.ParseConstant(t.Text)
		case lex.Format:
			switch t.Text {
			case "%b", "%h", "%d", "%u":
			default:
				v.errorf(n, t.Col, "unknown format %s", t.Text)
				ok = false
			}
		}
		if err != nil {
			v.errorf(n, t.Col, "%s", err.Error())
			ok = false
		}
		if i > 0 && !t.Spaced && separated(ts[i-1].Kind) && separated(t.Kind) {
			v.errorf(n, t.Col, "missing separator between %s and %s", ts[i-1], t)
			ok = false
		}
	}
	return ok
}

// terminate checks statement termination and returns the statement body.
func (v *Validator) terminate(n int, k Kind, ts []lex.Token) ([]lex.Token, bool) {
	switch k {
	case Comment:
		if len(ts) == 2 && ts[1].Is(";") {
			return ts[:1], true
		}
		if len(ts) > 1 {
			v.errorf(n, ts[1].Col, "unexpected %s after comment", ts[1])
			return nil, false
		}
		return ts, true
	case Empty:
		if len(ts) > 1 {
			v.errorf(n, ts[1].Col, "unexpected %s after ';'", ts[1])
			return nil, false
		}
		return nil, true
	}
	for i, t := range ts {
		if t.Is(";") {
			if i < len(ts)-1 {
				v.errorf(n, ts[i+1].Col, "unexpected %s after ';'", ts[i+1])
				return nil, false
			}
			return ts[:i], true
		}
	}
	last := ts[len(ts)-1]
	v.errorf(n, last.Col+len(last.Text), "missing ';'")
	return nil, false
}

// DirectivePath splits the text of a directive token into its name and
// argument. Surrounding quotes are removed from the argument.
//
func DirectivePath(text string) (name, arg string) {
	text = strings.TrimPrefix(text, "#")
	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}
	arg = strings.TrimSpace(text[i:])
	arg = strings.TrimSuffix(strings.TrimPrefix(arg, `"`), `"`)
	return text[:i], arg
}

// checker is a cursor over the body of a single statement.
type checker struct {
	v    *Validator
	line int
	ts   []lex.Token
	i    int
}

func (c *checker) peek() (lex.Token, bool) {
	if c.i >= len(c.ts) {
		return lex.Token{}, false
	}
	return c.ts[c.i], true
}

func (c *checker) fail(t lex.Token, format string, args ...interface{}) bool {
	c.v.errorf(c.line, t.Col, format, args...)
	return false
}

func (c *checker) failEnd(format string, args ...interface{}) bool {
	col := 1
	if len(c.ts) > 0 {
		last := c.ts[len(c.ts)-1]
		col = last.Col + len(last.Text)
	}
	c.v.errorf(c.line, col, format, args...)
	return false
}

func (c *checker) op(s string) bool {
	t, ok := c.peek()
	if !ok {
		return c.failEnd("missing '%s'", s)
	}
	if !t.Is(s) {
		return c.fail(t, "expected '%s', got %s", s, t)
	}
	c.i++
	return true
}

func (c *checker) end() bool {
	if t, ok := c.peek(); ok {
		return c.fail(t, "unexpected %s", t)
	}
	return true
}

// list checks a comma separated list. An empty list is accepted only when
// allowEmpty is set and the list is immediately followed by ':'.
func (c *checker) list(item func() bool, allowEmpty bool) bool {
	if t, ok := c.peek(); ok && allowEmpty && t.Is(":") {
		return true
	}
	for {
		if !item() {
			return false
		}
		if t, ok := c.peek(); !ok || !t.Is(",") {
			return true
		}
		c.i++
	}
}

func (c *checker) name(what string) func() bool {
	return func() bool {
		t, ok := c.peek()
		if !ok {
			return c.failEnd("missing %s", what)
		}
		if t.Kind != lex.Ident && t.Kind != lex.Vector {
			return c.fail(t, "expected %s, got %s", what, t)
		}
		c.i++
		return true
	}
}

func (c *checker) arg() bool {
	t, ok := c.peek()
	switch {
	case !ok:
		return c.failEnd("missing argument")
	case t.IsOperand():
		c.i++
		return true
	case t.Is("{"):
		return c.group(false)
	}
	return c.fail(t, "expected argument, got %s", t)
}

// group checks a brace delimited group. With names set, members must be names
// or vectors (assignment targets).
func (c *checker) group(names bool) bool {
	if !c.op("{") {
		return false
	}
	n := 0
	for {
		t, ok := c.peek()
		switch {
		case !ok:
			return c.failEnd("missing '}'")
		case t.Is("}"):
			if n == 0 {
				return c.fail(t, "empty concatenation")
			}
			c.i++
			return true
		case t.Is("{"):
			return c.fail(t, "concatenation inside concatenation")
		case t.Is("("):
			return c.fail(t, "parenthesis inside concatenation")
		case names && t.Kind != lex.Ident && t.Kind != lex.Vector:
			return c.fail(t, "invalid assignment target %s", t)
		case !t.IsOperand():
			return c.fail(t, "unexpected %s in concatenation", t)
		}
		n++
		c.i++
	}
}

func (c *checker) library() bool {
	name, path := DirectivePath(c.ts[0].Text)
	if name != "library" {
		return c.fail(c.ts[0], "unknown directive #%s", name)
	}
	if path == "" {
		return c.fail(c.ts[0], "missing library path")
	}
	c.i = 1
	return c.end()
}

func (c *checker) module() bool {
	c.i = 1
	return c.op("(") &&
		c.list(c.name("port name"), true) &&
		c.op(":") &&
		c.list(c.name("port name"), false) &&
		c.op(")") &&
		c.end()
}

func (c *checker) submodule() bool {
	c.i = 1
	return c.op("(") &&
		c.list(c.arg, true) &&
		c.op(":") &&
		c.list(c.name("output"), false) &&
		c.op(")") &&
		c.end()
}

func (c *checker) display() bool {
	for c.i < len(c.ts) {
		t := c.ts[c.i]
		switch {
		case t.IsOperand():
			c.i++
		case t.Is("*"):
			c.i++
			n, ok := c.peek()
			if !ok || n.Kind != lex.Ident && n.Kind != lex.Vector {
				return c.fail(t, "expected name after '*'")
			}
			c.i++
		case t.Kind == lex.Format:
			c.i++
			if n, ok := c.peek(); !ok || !n.Is("{") {
				return c.fail(t, "expected '{' after %s", t.Text)
			}
			if !c.group(false) {
				return false
			}
		case t.Is("{"):
			if !c.group(false) {
				return false
			}
		default:
			return c.fail(t, "unexpected %s in display statement", t)
		}
	}
	return true
}

func (c *checker) assignment(k Kind) bool {
	t := c.ts[0]
	switch {
	case t.Kind == lex.Ident || t.Kind == lex.Vector:
		c.i = 1
	case t.Is("{"):
		if !c.group(true) {
			return false
		}
	default:
		return c.fail(t, "invalid assignment target %s", t)
	}
	op := "="
	if k == Clock {
		op = "<="
	}
	if n, ok := c.peek(); ok && !n.Is(op) {
		return c.fail(n, "invalid assignment target %s", lex.Join(c.ts[:c.i+1]))
	}
	if !c.op(op) {
		return false
	}
	if k == Clock {
		if n, ok := c.peek(); ok && n.Kind == lex.Clock {
			c.i++
		}
	}
	if c.i >= len(c.ts) {
		return c.failEnd("missing expression")
	}
	return c.expression(c.ts[c.i:])
}

// level is a grouping level in an expression. Exclusive operator families
// may not be mixed within a single level.
type level struct {
	concat bool
	and    bool   // juxtaposition seen
	excl   string // exclusive family: "|", "^", "==" or "+"
	op     string // first operator of excl, for messages
}

func family(op string) string {
	if op == "-" {
		return "+"
	}
	return op
}

func (c *checker) mix(l *level, t lex.Token) bool {
	if t.Kind != lex.Op || t.Text == "~" || t.Text == "(" || t.Text == "{" {
		// juxtaposition
		if l.excl == "+" {
			return c.fail(t, "implicit AND cannot be mixed with '%s'", l.op)
		}
		l.and = true
		return true
	}
	f := family(t.Text)
	switch {
	case f == "+" && l.and:
		return c.fail(t, "implicit AND cannot be mixed with '%s'", t.Text)
	case l.excl != "" && l.excl != f:
		return c.fail(t, "cannot mix '%s' and '%s' without parentheses", l.op, t.Text)
	case l.excl == "":
		l.excl, l.op = f, t.Text
	}
	return true
}

// expression checks operator placement, grouping and operator families.
func (c *checker) expression(ts []lex.Token) bool {
	const (
		none = iota
		operand
		operator
		open
	)
	stack := []*level{{}}
	prev := none
	for _, t := range ts {
		top := stack[len(stack)-1]
		value := prev == operand
		switch {
		case t.IsOperand():
			if !top.concat && value && !c.mix(top, t) {
				return false
			}
			prev = operand
		case t.Is("~"):
			if top.concat {
				return c.fail(t, "operator ~ inside concatenation")
			}
			if value && !c.mix(top, t) {
				return false
			}
			prev = operator
		case t.Is("("), t.Is("{"):
			if top.concat {
				if t.Text == "(" {
					return c.fail(t, "parenthesis inside concatenation")
				}
				return c.fail(t, "concatenation inside concatenation")
			}
			if value && !c.mix(top, t) {
				return false
			}
			stack = append(stack, &level{concat: t.Text == "{"})
			prev = open
		case t.Is(")"), t.Is("}"):
			want := t.Text == "}"
			if len(stack) == 1 || top.concat != want {
				return c.fail(t, "unmatched '%s'", t.Text)
			}
			if prev == open {
				if want {
					return c.fail(t, "empty concatenation")
				}
				return c.fail(t, "empty parentheses")
			}
			if !value {
				return c.fail(t, "missing operand before '%s'", t.Text)
			}
			stack = stack[:len(stack)-1]
			prev = operand
		case t.Is("|"), t.Is("^"), t.Is("=="), t.Is("+"), t.Is("-"):
			if top.concat {
				return c.fail(t, "operator %s inside concatenation", t.Text)
			}
			if !value {
				return c.fail(t, "missing operand before '%s'", t.Text)
			}
			if !c.mix(top, t) {
				return false
			}
			prev = operator
		default:
			return c.fail(t, "unexpected %s in expression", t)
		}
	}
	if prev != operand {
		return c.failEnd("missing operand at end of expression")
	}
	if top := stack[len(stack)-1]; len(stack) > 1 {
		if top.concat {
			return c.failEnd("unmatched '{'")
		}
		return c.failEnd("unmatched '('")
	}
	return true
}
