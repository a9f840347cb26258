// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strings"

	"github.com/db47h/hwlogic/internal/expand"
	"github.com/db47h/hwlogic/internal/hdl"
	"github.com/db47h/hwlogic/internal/lex"
	"github.com/pkg/errors"
)

// program is the validated form of a design source.
//
type program struct {
	stmts  []hdl.Statement
	header *Header
	libs   []string
}

// compile splits src into lines, tokenizes and validates every line. All
// lines are scanned before failing.
//
func compile(src string) (*program, Diagnostics) {
	var (
		p     = &program{}
		v     hdl.Validator
		diags Diagnostics
	)
	for i, line := range strings.Split(strings.TrimSuffix(src, "\n"), "\n") {
		n := i + 1
		ts, err := lex.Tokenize(strings.TrimRight(line, "\r"))
		if err != nil {
			diags = append(diags, &Diagnostic{Line: n, Category: Lexical, Msg: err.Error()})
			continue
		}
		st, ok := v.Line(n, ts)
		if !ok {
			continue
		}
		switch st.Kind {
		case hdl.Library:
			_, path := hdl.DirectivePath(st.Tokens[0].Text)
			p.libs = append(p.libs, path)
		case hdl.Module:
			h, err := parseHeader(st.Tokens)
			if err != nil {
				diags = append(diags, &Diagnostic{Line: n, Category: Semantic, Msg: err.Error()})
				continue
			}
			p.header = h
		}
		p.stmts = append(p.stmts, st)
	}
	for _, e := range v.Errors() {
		diags = append(diags, &Diagnostic{Line: e.Line, Category: Lexical, Msg: e.Msg})
	}
	if len(diags) > 0 {
		sortDiagnostics(diags)
		return nil, diags
	}
	return p, nil
}

func sortDiagnostics(ds Diagnostics) {
	// insertion sort, stable and lists are short
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j].Line < ds[j-1].Line; j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

// generation is a parsed design: its statements and their value store.
//
type generation struct {
	d         *Design
	prog      *program
	store     *Store
	stmts     []*Statement
	inputs    map[string]bool // module input bits
	instances map[string]bool // instance names
	insts     []*instance
	x         *expand.Expander
	diags     Diagnostics
}

func (g *generation) fail(line int, err error) {
	d := &Diagnostic{Line: line, Category: categoryOf(err), Msg: err.Error()}
	if ds, ok := errors.Cause(err).(Diagnostics); ok {
		g.diags = append(g.diags, ds...)
		d.Category, d.Msg = Resolution, "sub-design failed to parse"
	}
	if g.d.child {
		d.File = g.d.path
	}
	g.diags = append(g.diags, d)
}

// generate builds a new generation of d from its compiled program.
// Independent variables take their initial value from initial.
//
func (d *Design) generate(initial map[string]bool) (*generation, Diagnostics) {
	if err := d.ld.enter(d); err != nil {
		return nil, Diagnostics{{File: d.fileName(), Line: 1, Category: categoryOf(err), Msg: err.Error()}}
	}
	defer d.ld.leave(d)

	g := &generation{
		d:         d,
		prog:      d.prog,
		store:     NewStore(initial),
		inputs:    make(map[string]bool),
		instances: make(map[string]bool),
		x:         expand.New(),
	}
	d.log.WithField("statements", len(d.prog.stmts)).Debug("parse pass")
	for _, hs := range d.prog.stmts {
		st := newStatement(hs)
		if err := st.init(g); err != nil {
			g.fail(st.Line, err)
			continue
		}
		g.stmts = append(g.stmts, st)
	}
	if len(g.diags) > 0 {
		return nil, g.diags
	}
	g.resetClocks()
	return g, nil
}

func (d *Design) fileName() string {
	if d.child {
		return d.path
	}
	return ""
}

func (g *generation) render() []Token {
	var out []Token
	for _, st := range g.stmts {
		out = st.render(g, out)
	}
	return out
}

func (g *generation) resetClocks() {
	s := g.store
	for _, c := range s.clkList {
		s.clocks[c] = s.Value(c)
	}
}

var tickClock = map[string]bool{"": true}

// latch returns the next values of the registers committed by Tick,
// throughout the instance hierarchy.
func (g *generation) latch() []pending {
	ps := g.store.latch(tickClock)
	for _, inst := range g.insts {
		ps = append(ps, inst.gen.latch()...)
	}
	return ps
}

// latchEdges returns the next values of the registers whose alternate clock
// had a rising edge, throughout the instance hierarchy.
func (g *generation) latchEdges() []pending {
	var ps []pending
	if e := g.store.edges(); e != nil {
		ps = g.store.latch(e)
	}
	for _, inst := range g.insts {
		ps = append(ps, inst.gen.latchEdges()...)
	}
	return ps
}

// refresh re-solves instance outputs after registers in child generations
// have been committed.
func (g *generation) refresh() {
	for _, inst := range g.insts {
		inst.gen.refresh()
		for _, b := range inst.driven {
			g.store.update(b)
		}
	}
}

func (g *generation) tick() error {
	err := commit(g.latch())
	g.refresh()
	return err
}

// settle commits registers on alternate clock edges until no edge occurs.
func (g *generation) settle(limit int) error {
	for i := 0; i < limit; i++ {
		ps := g.latchEdges()
		if len(ps) == 0 {
			return nil
		}
		err := commit(ps)
		g.refresh()
		if err != nil {
			return err
		}
	}
	return errors.Errorf("alternate clocks did not settle after %d passes", limit)
}
