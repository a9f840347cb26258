// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import "sort"

// VarFact describes a variable of a running design.
//
type VarFact struct {
	Name      string   `json:"name"`
	Dependent bool     `json:"dependent"`
	Register  bool     `json:"register"`
	Deps      []string `json:"deps,omitempty"`
}

// Facts is a static summary of a running design, used by lint rules.
//
type Facts struct {
	Module    string    `json:"module"`
	Inputs    []string  `json:"inputs"`
	Outputs   []string  `json:"outputs"`
	Variables []VarFact `json:"variables"`
	Read      []string  `json:"read"`      // names read by an expression or an instance
	Displayed []string  `json:"displayed"` // names shown by display statements
}

// Facts returns the facts of the current generation.
//
func (d *Design) Facts() (*Facts, error) {
	if d.gen == nil {
		return nil, ErrNotRunning
	}
	g := d.gen
	s := g.store
	f := &Facts{Inputs: []string{}, Outputs: []string{}, Variables: []VarFact{}, Read: []string{}, Displayed: []string{}}
	if h := g.prog.header; h != nil {
		f.Module = h.Name
		f.Inputs = append(f.Inputs, h.InputBits()...)
		f.Outputs = append(f.Outputs, h.OutputBits()...)
	}
	read := make(map[string]bool)
	for _, n := range s.Names() {
		f.Variables = append(f.Variables, VarFact{
			Name:      n,
			Dependent: s.IsDependent(n),
			Register:  s.IsRegister(n),
			Deps:      s.Deps(n),
		})
		for _, x := range s.Deps(n) {
			read[x] = true
		}
	}
	for _, c := range s.clkList {
		read[c] = true
	}
	shown := make(map[string]bool)
	for _, st := range g.stmts {
		for _, it := range st.items {
			for _, n := range it.names {
				shown[n] = true
			}
		}
	}
	f.Read = append(f.Read, sortedKeys(read)...)
	f.Displayed = append(f.Displayed, sortedKeys(shown)...)
	sort.Slice(f.Variables, func(i, j int) bool { return f.Variables[i].Name < f.Variables[j].Name })
	return f, nil
}
