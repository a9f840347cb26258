// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic_test

import (
	"fmt"

	hw "github.com/db47h/hwlogic"
)

// mux4 is a 4 bits mux built from the standard library Mux4.
//
const mux4 = `"4 bits mux"
M4(a[3..0], b[3..0], sel : out[3..0]);
Mux4.m(a[3..0], b[3..0], sel : out[3..0]);
`

// Eval example with a 4 bits mux.
func ExampleDesign_Eval() {
	d := hw.New("m4.lgc", mux4, nil)

	var m struct {
		A   uint8 `hw:"in"`     // input bus "a"
		B   uint8 `hw:"in"`     // input bus "b"
		S   bool  `hw:"in,sel"` // single pin, the second tag value forces the port name to "sel"
		Out uint8 `hw:"out"`    // output bus "out"
	}
	m.A, m.B = 1, 15
	if err := d.Eval(&m); err != nil {
		panic(err)
	}
	fmt.Printf("a=%d, b=%d, sel=%v => out=%d\n", m.A, m.B, m.S, m.Out)
	m.S = true
	if err := d.Eval(&m); err != nil {
		panic(err)
	}
	fmt.Printf("a=%d, b=%d, sel=%v => out=%d\n", m.A, m.B, m.S, m.Out)

	// Output:
	// a=1, b=15, sel=false => out=1
	// a=1, b=15, sel=true => out=15
}

// Run, click and tick a 2 bits counter.
func ExampleDesign_Click() {
	d := hw.New("count.lgc", `Count(en : q[1..0]);
q[1..0] <= q[1..0] + en;
%u{q[1..0]};
`, nil)
	ts, err := d.Run(nil)
	if err != nil {
		panic(err)
	}
	fmt.Print(hw.Format(ts))
	if _, err = d.Click("en", ""); err != nil {
		panic(err)
	}
	ts, err = d.Tick(3)
	if err != nil {
		panic(err)
	}
	fmt.Print(hw.Format(ts))

	// Output:
	// Count(en=0 : q[1..0]=00)
	// q[1..0]=00 <= q[1..0]=00 + en=0
	// %u{q[1..0]}=0
	// Count(en=1 : q[1..0]=11)
	// q[1..0]=11 <= q[1..0]=11 + en=1
	// %u{q[1..0]}=3
}
