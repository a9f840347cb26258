// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strings"

	"github.com/db47h/hwlogic/internal/lex"
)

// instance binds a submodule statement to a child design. It owns a private
// generation of the child, driven by the parent's argument bits.
//
type instance struct {
	name   string
	child  *Design
	gen    *generation
	ins    []string   // child input bits
	args   []string   // parent argument bits or constants, parallel to ins
	outs   [][]string // parent output bits per output port, nil for NC
	last   []int      // input snapshot
	driven []string   // parent bits driven by the instance
}

// split splits the arguments of a submodule statement into its comma
// separated input and output groups.
func split(ts []lex.Token) (ins, outs [][]lex.Token) {
	var cur []lex.Token
	out := false
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if out {
			outs = append(outs, cur)
		} else {
			ins = append(ins, cur)
		}
		cur = nil
	}
	for _, t := range ts[2 : len(ts)-1] {
		switch {
		case t.Is(","):
			flush()
		case t.Is(":"):
			flush()
			out = true
		default:
			cur = append(cur, t)
		}
	}
	flush()
	return ins, outs
}

// argBits expands an argument to its bits, most significant first. Constant
// arguments are resized to width.
func argBits(g *generation, arg []lex.Token, width int) ([]string, error) {
	constant := len(arg) == 1 && (arg[0].Kind == lex.Constant || arg[0].Kind == lex.Number)
	ts, _, err := g.x.Horizontal(arg, false)
	if err != nil {
		return nil, err
	}
	var bits []string
	for _, t := range ts {
		if t.Kind == lex.Ident || t.Kind == lex.Number {
			bits = append(bits, t.Text)
		}
	}
	if !constant || len(bits) == width {
		return bits, nil
	}
	if len(bits) < width {
		return append(zeros(width-len(bits)), bits...), nil
	}
	for _, b := range bits[:len(bits)-width] {
		if b != "0" {
			return nil, errorf(Semantic, "constant %s does not fit in %d bits", arg[0].Text, width)
		}
	}
	return bits[len(bits)-width:], nil
}

func zeros(n int) []string {
	r := make([]string, n)
	for i := range r {
		r[i] = "0"
	}
	return r
}

func bind(g *generation, st *Statement) (*instance, error) {
	ts := st.source
	dot := strings.IndexByte(ts[0].Text, '.')
	module, name := ts[0].Text[:dot], ts[0].Text[dot+1:]
	if g.instances[name] {
		return nil, errorf(Semantic, "duplicate instance name %s", name)
	}
	g.instances[name] = true

	child, err := g.d.ld.resolve(g.d, module)
	if err != nil {
		return nil, err
	}
	h := child.prog.header
	if h == nil {
		return nil, errorf(Resolution, "%s has no module header", child.path)
	}
	if h.Name != module {
		return nil, errorf(Resolution, "%s declares module %s, expected %s", child.path, h.Name, module)
	}

	ins, outs := split(ts)
	if len(ins) != len(h.Inputs) {
		return nil, errorf(Semantic, "%s.%s: %s has %d inputs, got %d", module, name, module, len(h.Inputs), len(ins))
	}
	if len(outs) != len(h.Outputs) {
		return nil, errorf(Semantic, "%s.%s: %s has %d outputs, got %d", module, name, module, len(h.Outputs), len(outs))
	}

	inst := &instance{name: name, child: child}
	for i, arg := range ins {
		p := &h.Inputs[i]
		bits, err := argBits(g, arg, p.Width)
		if err != nil {
			return nil, err
		}
		if len(bits) != p.Width {
			return nil, errorf(Semantic, "%s.%s: input %s is %d bits wide, got %d", module, name, p.Name, p.Width, len(bits))
		}
		inst.ins = append(inst.ins, p.Bits...)
		inst.args = append(inst.args, bits...)
	}
	for i, arg := range outs {
		p := &h.Outputs[i]
		if len(arg) == 1 && arg[0].Text == "NC" {
			inst.outs = append(inst.outs, nil)
			continue
		}
		bits, err := argBits(g, arg, p.Width)
		if err != nil {
			return nil, err
		}
		if len(bits) != p.Width {
			return nil, errorf(Semantic, "%s.%s: output %s is %d bits wide, got %d", module, name, p.Name, p.Width, len(bits))
		}
		inst.outs = append(inst.outs, bits)
	}

	// inputs are read before the child generation is built
	var deps []string
	seen := make(map[string]bool)
	for _, a := range inst.args {
		if a == "0" || a == "1" || seen[a] {
			continue
		}
		seen[a] = true
		deps = append(deps, a)
		g.store.AddVariable(a, 0, true)
	}
	inst.last = inst.snapshot(g.store)
	initial := make(map[string]bool, len(inst.ins))
	for i, n := range inst.ins {
		initial[n] = inst.last[i] == 1
	}
	cg, diags := child.generate(initial)
	if diags != nil {
		return nil, diags
	}
	inst.gen = cg

	text := lex.Join(ts)
	for i, bits := range inst.outs {
		for k, b := range bits {
			if err := g.assignable(b); err != nil {
				return nil, err
			}
			src := h.Outputs[i].Bits[k]
			solve := func(s *Store) int {
				inst.sync(g, s)
				return inst.gen.store.Value(src)
			}
			if err := g.store.Define(b, deps, text, solve); err != nil {
				return nil, err
			}
			inst.driven = append(inst.driven, b)
		}
	}
	g.insts = append(g.insts, inst)
	return inst, nil
}

func (inst *instance) snapshot(s *Store) []int {
	r := make([]int, len(inst.args))
	for i, a := range inst.args {
		switch a {
		case "0", "1":
			r[i] = int(a[0] - '0')
		default:
			if v := s.Value(a); v == 1 {
				r[i] = 1
			}
		}
	}
	return r
}

// sync forwards changed input bits to the child generation.
func (inst *instance) sync(g *generation, s *Store) {
	cur := inst.snapshot(s)
	changed := false
	for i, v := range cur {
		if v != inst.last[i] {
			changed = true
			_ = inst.gen.store.SetValue(inst.ins[i], v)
		}
	}
	if changed {
		g.d.log.WithField("instance", inst.name).Debug("inputs changed")
		inst.last = cur
	}
}
