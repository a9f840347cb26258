// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strings"

	"github.com/db47h/hwlogic/internal/lex"
	"github.com/pkg/errors"
)

// Port is a module input or output.
//
type Port struct {
	Name  string   // base name
	Width int      // bit count
	Bits  []string // scalar names, most significant first
	text  string
}

func (p *Port) String() string {
	return p.text
}

// Header is a module declaration: the module name and its ordered ports.
//
type Header struct {
	Name    string
	Inputs  []Port
	Outputs []Port
}

func portBits(ps []Port) []string {
	var r []string
	for i := range ps {
		r = append(r, ps[i].Bits...)
	}
	return r
}

// InputBits returns the scalar names of all input ports in declaration order.
//
func (h *Header) InputBits() []string {
	return portBits(h.Inputs)
}

// OutputBits returns the scalar names of all output ports in declaration
// order.
//
func (h *Header) OutputBits() []string {
	return portBits(h.Outputs)
}

// Input returns the input port with the given base name.
//
func (h *Header) Input(name string) *Port {
	return findPort(h.Inputs, name)
}

// Output returns the output port with the given base name.
//
func (h *Header) Output(name string) *Port {
	return findPort(h.Outputs, name)
}

func findPort(ps []Port, name string) *Port {
	for i := range ps {
		if ps[i].Name == name {
			return &ps[i]
		}
	}
	return nil
}

func (h *Header) String() string {
	var b strings.Builder
	b.WriteString(h.Name)
	b.WriteByte('(')
	for i := range h.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(h.Inputs[i].text)
	}
	b.WriteString(" : ")
	for i := range h.Outputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(h.Outputs[i].text)
	}
	b.WriteByte(')')
	return b.String()
}

// parseHeader decodes the tokens of a validated module declaration.
//
func parseHeader(ts []lex.Token) (*Header, error) {
	h := &Header{Name: ts[0].Text}
	seen := make(map[string]bool)
	out := false
	for _, t := range ts[2 : len(ts)-1] {
		switch {
		case t.Is(":"):
			out = true
			continue
		case t.Is(","):
			continue
		}
		p, err := newPort(t)
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, errors.Errorf("duplicate port %s", p.Name)
		}
		seen[p.Name] = true
		if out {
			h.Outputs = append(h.Outputs, p)
		} else {
			h.Inputs = append(h.Inputs, p)
		}
	}
	return h, nil
}

func newPort(t lex.Token) (Port, error) {
	if t.Kind == lex.Ident {
		return Port{Name: t.Text, Width: 1, Bits: []string{t.Text}, text: t.Text}, nil
	}
	v, err := lex.ParseVector(t.Text)
	if err != nil {
		return Port{}, err
	}
	bits := v.Bits()
	return Port{Name: v.Name, Width: len(bits), Bits: bits, text: t.Text}, nil
}
