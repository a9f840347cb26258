// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package eval compiles and evaluates the expression sublanguage.
//
// Operators, from highest to lowest precedence:
//
//	~a        NOT, binds to the following primary
//	a b       AND (juxtaposition)
//	| ^ == + -  OR, XOR, equality, addition and subtraction
//
// Operators of equal precedence are evaluated left to right. A concatenation
// {a b c} assembles a multi-bit integer, most significant bit first.
//
package eval

import (
	"github.com/db47h/hwlogic/internal/lex"
	"github.com/pkg/errors"
)

// Unknown is the value of an undefined variable.
//
const Unknown = -1

// Values gives access to variable values. Value must return 0, 1 or Unknown.
//
type Values interface {
	Value(name string) int
}

type opcode int

const (
	opLoad opcode = iota
	opConst
	opConcat
	opNot
	opAnd
	opOr
	opXor
	opEq
	opAdd
	opSub
	opParen // operator stack only
)

var binary = map[string]opcode{
	"|":  opOr,
	"^":  opXor,
	"==": opEq,
	"+":  opAdd,
	"-":  opSub,
}

func (o opcode) prec() int {
	switch o {
	case opNot:
		return 3
	case opAnd:
		return 2
	case opParen:
		return 0
	}
	return 1
}

type instr struct {
	op      opcode
	name    string
	v       uint64
	members []instr // concatenation members: loads and constants
}

// Expr is a compiled expression.
//
type Expr struct {
	code []instr
	deps []string
	text string
}

// Compile compiles a fully expanded expression. Operands are scalar names,
// the bits 0 and 1, constants, and concatenations of names and bits.
// Vectors are accepted and read as concatenations.
//
func Compile(ts []lex.Token) (*Expr, error) {
	var (
		e    = &Expr{text: lex.Join(ts)}
		ops  []opcode
		seen = make(map[string]bool)
		prev bool // previous token ends an operand
	)
	dep := func(name string) {
		if !seen[name] {
			seen[name] = true
			e.deps = append(e.deps, name)
		}
	}
	push := func(o opcode) {
		if o != opNot {
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top == opParen || top.prec() < o.prec() {
					break
				}
				e.code = append(e.code, instr{op: top})
				ops = ops[:len(ops)-1]
			}
		}
		ops = append(ops, o)
	}
	for i := 0; i < len(ts); i++ {
		t := ts[i]
		if prev && (t.IsOperand() || t.Is("{") || t.Is("(") || t.Is("~")) {
			push(opAnd)
			prev = false
		}
		switch {
		case t.IsOperand():
			in, err := operand(t, dep)
			if err != nil {
				return nil, err
			}
			e.code = append(e.code, in)
			prev = true
		case t.Is("{"):
			var ms []instr
			for i++; i < len(ts) && !ts[i].Is("}"); i++ {
				in, err := operand(ts[i], dep)
				if err != nil {
					return nil, err
				}
				if in.op == opConcat {
					ms = append(ms, in.members...)
				} else {
					ms = append(ms, in)
				}
			}
			if i == len(ts) {
				return nil, errors.New("unmatched '{'")
			}
			c, err := concat(ms)
			if err != nil {
				return nil, err
			}
			e.code = append(e.code, c)
			prev = true
		case t.Is("("):
			ops = append(ops, opParen)
		case t.Is(")"):
			for len(ops) > 0 && ops[len(ops)-1] != opParen {
				e.code = append(e.code, instr{op: ops[len(ops)-1]})
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return nil, errors.New("unmatched ')'")
			}
			ops = ops[:len(ops)-1]
			prev = true
		case t.Is("~"):
			push(opNot)
		default:
			o, ok := binary[t.Text]
			if t.Kind != lex.Op || !ok {
				return nil, errors.Errorf("unexpected %s in expression", t)
			}
			push(o)
			prev = false
		}
	}
	for len(ops) > 0 {
		o := ops[len(ops)-1]
		if o == opParen {
			return nil, errors.New("unmatched '('")
		}
		e.code = append(e.code, instr{op: o})
		ops = ops[:len(ops)-1]
	}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e, nil
}

// operand compiles a single operand token. Multi-bit operands compile to
// concatenations.
func operand(t lex.Token, dep func(string)) (instr, error) {
	switch t.Kind {
	case lex.Ident:
		dep(t.Text)
		return instr{op: opLoad, name: t.Text}, nil
	case lex.Vector:
		v, err := lex.ParseVector(t.Text)
		if err != nil {
			return instr{}, err
		}
		var ms []instr
		for _, n := range v.Bits() {
			dep(n)
			ms = append(ms, instr{op: opLoad, name: n})
		}
		return concat(ms)
	case lex.Number, lex.Constant:
		c, err := lex.ParseConstant(t.Text)
		if err != nil {
			return instr{}, err
		}
		if c.Width == 1 {
			return instr{op: opConst, v: c.V}, nil
		}
		var ms []instr
		for _, b := range c.Bits() {
			ms = append(ms, instr{op: opConst, v: uint64(b[0] - '0')})
		}
		return concat(ms)
	}
	return instr{}, errors.Errorf("unexpected %s in expression", t)
}

func concat(ms []instr) (instr, error) {
	if len(ms) == 0 {
		return instr{}, errors.New("empty concatenation")
	}
	if len(ms) > 64 {
		return instr{}, errors.Errorf("concatenation too wide (%d bits)", len(ms))
	}
	return instr{op: opConcat, members: ms}, nil
}

// check verifies that the compiled code leaves exactly one value on the
// stack.
func (e *Expr) check() error {
	depth := 0
	for _, in := range e.code {
		switch in.op {
		case opLoad, opConst, opConcat:
			depth++
		case opNot:
			if depth < 1 {
				return errors.New("missing operand")
			}
		default:
			if depth < 2 {
				return errors.New("missing operand")
			}
			depth--
		}
	}
	if depth != 1 {
		return errors.New("missing operand")
	}
	return nil
}

// Deps returns the names read by the expression, in order of first
// appearance.
//
func (e *Expr) Deps() []string {
	return e.deps
}

func (e *Expr) String() string {
	return e.text
}

type value struct {
	v uint64
	w int
}

func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

func load(vs Values, name string) uint64 {
	if vs.Value(name) == 1 {
		return 1
	}
	return 0
}

// Eval evaluates the expression and returns its value and width in bits.
// Unknown variables read as 0.
//
func (e *Expr) Eval(vs Values) (uint64, int) {
	st := make([]value, 0, 8)
	for _, in := range e.code {
		switch in.op {
		case opLoad:
			st = append(st, value{load(vs, in.name), 1})
			continue
		case opConst:
			st = append(st, value{in.v, 1})
			continue
		case opConcat:
			var v uint64
			for _, m := range in.members {
				b := m.v
				if m.op == opLoad {
					b = load(vs, m.name)
				}
				v = v<<1 | b
			}
			st = append(st, value{v, len(in.members)})
			continue
		case opNot:
			x := &st[len(st)-1]
			x.v = ^x.v & mask(x.w)
			continue
		}
		a, b := st[len(st)-2], st[len(st)-1]
		st = st[:len(st)-1]
		r := value{w: max(a.w, b.w)}
		switch in.op {
		case opAnd:
			r.v = a.v & b.v
		case opOr:
			r.v = a.v | b.v
		case opXor:
			r.v = a.v ^ b.v
		case opEq:
			r.w = 1
			if a.v == b.v {
				r.v = 1
			}
		case opAdd:
			if r.w < 64 {
				r.w++
			}
			r.v = (a.v + b.v) & mask(r.w)
		case opSub:
			r.v = (a.v - b.v) & mask(r.w)
		}
		st[len(st)-1] = r
	}
	return st[0].v, st[0].w
}

// Bit evaluates the expression and returns bit i of the result.
//
func (e *Expr) Bit(vs Values, i int) int {
	v, _ := e.Eval(vs)
	return int(v >> uint(i) & 1)
}
