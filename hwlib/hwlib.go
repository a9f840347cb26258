// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib is the standard library of design files. It is searched last
// when resolving a submodule instantiation.
//
//	Not(in : out)                         out = ~in
//	And, Or, Xor, Nand, Nor(a, b : out)   two input gates
//	Mux(a, b, sel : out)                  out = sel ? b : a
//	DMux(in, sel : a, b)                  demultiplexer
//	Mux4(a[3..0], b[3..0], sel : out[3..0])
//	HalfAdder(a, b : s, c)                {c s} = a + b
//	FullAdder(a, b, cin : s, cout)        {cout s} = a + b + cin
//	Add4(a[3..0], b[3..0], cin : s[3..0], cout)
//	DFF(in : out)                         out(t) = in(t-1)
//	Bit(in, load : out)                   1 bit register
//	Counter4(inc : out[3..0])             out(t) = out(t-1) + inc(t-1)
//
package hwlib

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

// FS holds the library files, named after the module they declare.
//
//go:embed *.lgc
var FS embed.FS

// Modules returns the names of the library modules, sorted.
//
func Modules() []string {
	es, err := fs.ReadDir(FS, ".")
	if err != nil {
		panic(err)
	}
	var r []string
	for _, e := range es {
		if n := e.Name(); strings.HasSuffix(n, ".lgc") {
			r = append(r, strings.TrimSuffix(n, ".lgc"))
		}
	}
	sort.Strings(r)
	return r
}
