// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strconv"
	"strings"

	"github.com/db47h/hwlogic/internal/eval"
	"github.com/db47h/hwlogic/internal/expand"
	"github.com/db47h/hwlogic/internal/hdl"
	"github.com/db47h/hwlogic/internal/lex"
)

// StatementKind is the kind of a statement.
//
type StatementKind int

// Statement kinds.
const (
	EmptyStatement StatementKind = iota
	CommentStatement
	LibraryStatement
	DisplayStatement
	ModuleStatement
	SubmoduleStatement
	AssignStatement
	ClockedStatement
)

var statementKinds = map[hdl.Kind]StatementKind{
	hdl.Empty:     EmptyStatement,
	hdl.Comment:   CommentStatement,
	hdl.Library:   LibraryStatement,
	hdl.Display:   DisplayStatement,
	hdl.Module:    ModuleStatement,
	hdl.Submodule: SubmoduleStatement,
	hdl.Boolean:   AssignStatement,
	hdl.Clock:     ClockedStatement,
}

var statementKindNames = [...]string{
	EmptyStatement:     "empty",
	CommentStatement:   "comment",
	LibraryStatement:   "library",
	DisplayStatement:   "display",
	ModuleStatement:    "module",
	SubmoduleStatement: "submodule",
	AssignStatement:    "assignment",
	ClockedStatement:   "clocked assignment",
}

func (k StatementKind) String() string {
	if k < 0 || int(k) >= len(statementKindNames) {
		return "StatementKind(" + strconv.Itoa(int(k)) + ")"
	}
	return statementKindNames[k]
}

// Statement is a parsed statement of a single generation. The payload
// fields in use depend on Kind.
//
type Statement struct {
	Line   int
	Kind   StatementKind
	source []lex.Token

	comment string
	items   []item
	header  *Header
	inst    *instance
	assigns []assignment
}

// assignment is a single expanded assignment.
type assignment struct {
	lhs  []string // target bits, most significant first
	expr *eval.Expr
}

type itemKind int

const (
	itemVar itemKind = iota
	itemGroup
	itemConst
	itemExpr
)

// item is an element of a display statement.
type item struct {
	kind   itemKind
	spec   byte
	label  string
	names  []string
	spaced bool
}

func newStatement(hs hdl.Statement) *Statement {
	return &Statement{Line: hs.Line, Kind: statementKinds[hs.Kind], source: hs.Tokens}
}

// Source returns the source text of the statement, without the terminating
// semicolon.
//
func (st *Statement) Source() string {
	return lex.Join(st.source)
}

// init registers the statement into the generation's store.
func (st *Statement) init(g *generation) error {
	switch st.Kind {
	case EmptyStatement, LibraryStatement:
		return nil
	case CommentStatement:
		st.comment = strings.Trim(st.source[0].Text, `"`)
		return nil
	case ModuleStatement:
		return st.initModule(g)
	case DisplayStatement:
		return st.initDisplay(g)
	case SubmoduleStatement:
		return st.initSubmodule(g)
	case AssignStatement, ClockedStatement:
		return st.initAssign(g)
	}
	panic("unknown statement kind " + st.Kind.String())
}

// declare records the namespaces used by source tokens.
func declare(s *Store, ts []lex.Token) error {
	for _, t := range ts {
		switch t.Kind {
		case lex.Ident:
			if t.Text == "NC" {
				continue
			}
			if err := s.UpdateNamespace(t.Text, false); err != nil {
				return err
			}
		case lex.Clock:
			if err := s.UpdateNamespace(t.Text[1:], false); err != nil {
				return err
			}
		case lex.Vector:
			v, err := lex.ParseVector(t.Text)
			if err != nil {
				return err
			}
			if err = s.UpdateNamespace(v.Name, true, v.Indices()...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (st *Statement) initModule(g *generation) error {
	h := g.prog.header
	st.header = h
	if err := declare(g.store, st.source[1:]); err != nil {
		return err
	}
	for _, n := range h.InputBits() {
		g.store.AddVariable(n, 0, true)
		g.inputs[n] = true
	}
	return nil
}

func (st *Statement) initDisplay(g *generation) error {
	if err := declare(g.store, st.source); err != nil {
		return err
	}
	ts := st.source
	for i := 0; i < len(ts); i++ {
		t := ts[i]
		it := item{spaced: t.Spaced, label: t.Text}
		switch {
		case t.Kind == lex.Ident:
			it.kind, it.names = itemVar, []string{t.Text}
		case t.Kind == lex.Vector:
			cs, err := g.x.Operand(t)
			if err != nil {
				return err
			}
			it.kind, it.spec, it.names = itemGroup, 'b', texts(cs)
		case t.Kind == lex.Constant || t.Kind == lex.Number:
			it.kind = itemConst
		case t.Is("*"):
			i++
			cs, err := g.x.Operand(ts[i])
			if err != nil {
				return err
			}
			it.kind, it.names, it.label = itemExpr, texts(cs), ts[i].Text
		default:
			// format specifier or bare concatenation
			it.kind, it.spec = itemGroup, 'b'
			j := i
			if t.Kind == lex.Format {
				it.spec = t.Text[1]
				j++
			}
			k := j + 1
			for ; !ts[k].Is("}"); k++ {
				cs, err := g.x.Operand(ts[k])
				if err != nil {
					return err
				}
				it.names = append(it.names, texts(cs)...)
			}
			it.label = lex.Join(ts[i : k+1])
			i = k
		}
		for _, n := range it.names {
			if n != "0" && n != "1" {
				g.store.AddVariable(n, 0, true)
			}
		}
		st.items = append(st.items, it)
	}
	return nil
}

func texts(ts []lex.Token) []string {
	r := make([]string, len(ts))
	for i, t := range ts {
		r[i] = t.Text
	}
	return r
}

// assignable checks that name can be the target of an assignment.
func (g *generation) assignable(name string) error {
	if g.inputs[name] {
		return errorf(Semantic, "cannot assign module input %s", name)
	}
	if g.store.IsDependent(name) {
		return errorf(Dependency, "%s is already assigned", name)
	}
	return nil
}

func (st *Statement) initAssign(g *generation) error {
	if err := declare(g.store, st.source); err != nil {
		return err
	}
	a, err := expand.Split(st.source)
	if err != nil {
		return err
	}
	as, err := g.x.Vertical(a)
	if err != nil {
		return errorf(Semantic, "%s", err.Error())
	}
	clocked := st.Kind == ClockedStatement
	for _, a := range as {
		e, err := eval.Compile(a.Expr)
		if err != nil {
			return err
		}
		var lhs []string
		for _, t := range a.Lhs {
			if t.Kind == lex.Ident {
				lhs = append(lhs, t.Text)
			}
		}
		for i, name := range lhs {
			if err := g.assignable(name); err != nil {
				return err
			}
			bit := len(lhs) - 1 - i
			target := name
			if clocked {
				g.store.AddRegister(name, a.ClockName())
				target = Next(name)
			}
			solve := func(s *Store) int { return e.Bit(s, bit) }
			if err := g.store.Define(target, e.Deps(), e.String(), solve); err != nil {
				return err
			}
		}
		st.assigns = append(st.assigns, assignment{lhs: lhs, expr: e})
	}
	return nil
}

func (st *Statement) initSubmodule(g *generation) error {
	if err := declare(g.store, st.source); err != nil {
		return err
	}
	inst, err := bind(g, st)
	if err != nil {
		return err
	}
	st.inst = inst
	return nil
}

// render appends the display tokens of the statement to out.
func (st *Statement) render(g *generation, out []Token) []Token {
	switch st.Kind {
	case EmptyStatement:
	case CommentStatement:
		out = append(out, Token{Kind: TokComment, Text: st.comment})
	case LibraryStatement:
		out = append(out, Token{Kind: TokName, Text: st.source[0].Text})
	case DisplayStatement:
		out = st.renderDisplay(g, out)
	case ModuleStatement, SubmoduleStatement, AssignStatement, ClockedStatement:
		out = renderSource(g, st.source, out)
	default:
		panic("unknown statement kind " + st.Kind.String())
	}
	return append(out, lineBreak)
}

func varToken(s *Store, name string) Token {
	return Token{Kind: TokVar, Text: name, Value: s.Value(name), Clickable: !s.IsDependent(name)}
}

func groupToken(s *Store, label string, spec byte, names []string) Token {
	t := Token{Kind: TokFormat, Text: label, Spec: spec, Vars: names, Digits: "?"}
	v, ok := groupValue(s, names)
	if !ok {
		return t
	}
	t.Digits = formatValue(v, len(names), spec)
	t.Clickable = true
	for _, n := range names {
		if n == "0" || n == "1" || s.IsDependent(n) {
			t.Clickable = false
			break
		}
	}
	if t.Clickable {
		t.Next = nextValue(v, len(names))
	}
	return t
}

func (st *Statement) renderDisplay(g *generation, out []Token) []Token {
	s := g.store
	for i, it := range st.items {
		if i > 0 && it.spaced {
			out = append(out, space)
		}
		switch it.kind {
		case itemVar:
			out = append(out, varToken(s, it.names[0]))
		case itemConst:
			out = append(out, Token{Kind: TokConstant, Text: it.label})
		case itemGroup:
			out = append(out, groupToken(s, it.label, it.spec, it.names))
		case itemExpr:
			if len(it.names) == 1 {
				out = append(out, varToken(s, it.names[0]))
			} else {
				out = append(out, groupToken(s, it.label, 'b', it.names))
			}
			var exprs []string
			seen := make(map[string]bool)
			for _, n := range it.names {
				if x := s.Expression(n); x != "" && !seen[x] {
					seen[x] = true
					exprs = append(exprs, x)
				}
			}
			if len(exprs) > 0 {
				out = append(out, space, op("="), space, Token{Kind: TokName, Text: strings.Join(exprs, ", ")})
			}
		}
	}
	return out
}

// renderSource renders source tokens with the current values of variables.
func renderSource(g *generation, ts []lex.Token, out []Token) []Token {
	s := g.store
	for i, t := range ts {
		if i > 0 && t.Spaced {
			out = append(out, space)
		}
		switch t.Kind {
		case lex.Ident:
			if s.Has(t.Text) {
				out = append(out, varToken(s, t.Text))
			} else {
				out = append(out, Token{Kind: TokName, Text: t.Text})
			}
		case lex.Vector:
			cs, err := g.x.Operand(t)
			if err != nil {
				out = append(out, Token{Kind: TokName, Text: t.Text})
				continue
			}
			out = append(out, groupToken(s, t.Text, 'b', texts(cs)))
		case lex.Constant, lex.Number:
			out = append(out, Token{Kind: TokConstant, Text: t.Text})
		case lex.Op:
			out = append(out, op(t.Text))
		default:
			out = append(out, Token{Kind: TokName, Text: t.Text})
		}
	}
	return out
}
