// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib_test

import (
	"io/fs"
	"testing"

	"github.com/db47h/hwlogic"
	"github.com/db47h/hwlogic/hwlib"
	"github.com/db47h/hwlogic/hwtest"
)

func load(t *testing.T, module string) *hwlogic.Design {
	t.Helper()
	src, err := fs.ReadFile(hwlib.FS, module+hwlogic.Ext)
	if err != nil {
		t.Fatal(err)
	}
	return hwlogic.New(module+hwlogic.Ext, string(src), nil)
}

func TestModules(t *testing.T) {
	ms := hwlib.Modules()
	for _, m := range ms {
		d := load(t, m)
		h, err := d.Header()
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if h == nil || h.Name != m {
			t.Fatalf("%s: wrong module header %v", m, h)
		}
		if _, err := d.Run(nil); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
	}
	if len(ms) < 15 || ms[0] != "Add4" {
		t.Errorf("got modules %v", ms)
	}
}

func TestGates(t *testing.T) {
	data := map[string]func(a, b bool) bool{
		"And":  func(a, b bool) bool { return a && b },
		"Or":   func(a, b bool) bool { return a || b },
		"Xor":  func(a, b bool) bool { return a != b },
		"Nand": func(a, b bool) bool { return !(a && b) },
		"Nor":  func(a, b bool) bool { return !(a || b) },
	}
	for name, f := range data {
		d := load(t, name)
		for i := 0; i < 4; i++ {
			var g struct {
				A   bool `hw:"in"`
				B   bool `hw:"in"`
				Out bool `hw:"out"`
			}
			g.A, g.B = i&2 != 0, i&1 != 0
			if err := d.Eval(&g); err != nil {
				t.Fatal(err)
			}
			if g.Out != f(g.A, g.B) {
				t.Errorf("%s(%v, %v) = %v", name, g.A, g.B, g.Out)
			}
		}
	}

	not := load(t, "Not")
	for _, in := range []bool{false, true} {
		g := struct {
			In  bool `hw:"in"`
			Out bool `hw:"out"`
		}{In: in}
		if err := not.Eval(&g); err != nil {
			t.Fatal(err)
		}
		if g.Out == in {
			t.Errorf("Not(%v) = %v", in, g.Out)
		}
	}
}

func TestMux(t *testing.T) {
	mux := load(t, "Mux")
	dmux := load(t, "DMux")
	for i := 0; i < 8; i++ {
		var m struct {
			A, B, Sel bool `hw:"in"`
			Out       bool `hw:"out"`
		}
		m.A, m.B, m.Sel = i&4 != 0, i&2 != 0, i&1 != 0
		if err := mux.Eval(&m); err != nil {
			t.Fatal(err)
		}
		exp := m.A
		if m.Sel {
			exp = m.B
		}
		if m.Out != exp {
			t.Errorf("Mux(%v, %v, %v) = %v", m.A, m.B, m.Sel, m.Out)
		}

		var dm struct {
			In, Sel bool `hw:"in"`
			A, B    bool `hw:"out"`
		}
		dm.In, dm.Sel = m.A, m.Sel
		if err := dmux.Eval(&dm); err != nil {
			t.Fatal(err)
		}
		if dm.A != (dm.In && !dm.Sel) || dm.B != (dm.In && dm.Sel) {
			t.Errorf("DMux(%v, %v) = %v, %v", dm.In, dm.Sel, dm.A, dm.B)
		}
	}

	mux4 := load(t, "Mux4")
	m := struct {
		A   uint8 `hw:"in"`
		B   uint8 `hw:"in"`
		Sel bool  `hw:"in"`
		Out uint8 `hw:"out"`
	}{A: 0xA, B: 0x5, Sel: true}
	if err := mux4.Eval(&m); err != nil {
		t.Fatal(err)
	}
	if m.Out != 0x5 {
		t.Errorf("Mux4 = %x", m.Out)
	}
}

func TestAdders(t *testing.T) {
	full := load(t, "FullAdder")
	for i := 0; i < 8; i++ {
		var f struct {
			A, B, Cin uint `hw:"in"`
			S, Cout   uint `hw:"out"`
		}
		f.A, f.B, f.Cin = uint(i>>2&1), uint(i>>1&1), uint(i&1)
		if err := full.Eval(&f); err != nil {
			t.Fatal(err)
		}
		if sum := f.A + f.B + f.Cin; f.S != sum&1 || f.Cout != sum>>1 {
			t.Errorf("FullAdder(%d, %d, %d) = %d, %d", f.A, f.B, f.Cin, f.S, f.Cout)
		}
	}
	math := hwlogic.New("add4.lgc", `Add4(a[3..0], b[3..0], cin : s[3..0], cout);
{cout s[3..0]} = a[3..0] + b[3..0] + cin;
`, nil)
	hwtest.CompareDesigns(t, math, load(t, "Add4"))

	half := hwlogic.New("half.lgc", `HalfAdder(a, b : s, c);
{c s} = a + b;
`, nil)
	hwtest.CompareDesigns(t, half, load(t, "HalfAdder"))
}

func TestRegisters(t *testing.T) {
	d := hwlogic.New("regs.lgc", `Regs(in, load, inc : dff, bit, cnt[3..0]);
DFF.d(in : dff);
Bit.b(in, load : bit);
Counter4.c(inc : cnt[3..0]);
`, nil)
	if _, err := d.Run(map[string]bool{"in": true, "load": true, "inc": true}); err != nil {
		t.Fatal(err)
	}
	if d.Value("dff") != 0 || d.Value("bit") != 0 {
		t.Fatal("registers must start at 0")
	}
	if _, err := d.Tick(1); err != nil {
		t.Fatal(err)
	}
	if d.Value("dff") != 1 || d.Value("bit") != 1 || d.Value("cnt0") != 1 {
		t.Fatalf("after tick: dff=%d bit=%d cnt0=%d", d.Value("dff"), d.Value("bit"), d.Value("cnt0"))
	}
	if _, err := d.Click("in load", "00"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Tick(1); err != nil {
		t.Fatal(err)
	}
	// Bit keeps its value without load
	if d.Value("dff") != 0 || d.Value("bit") != 1 || d.Value("cnt1") != 1 || d.Value("cnt0") != 0 {
		t.Fatalf("after second tick: dff=%d bit=%d cnt=%d%d", d.Value("dff"), d.Value("bit"), d.Value("cnt1"), d.Value("cnt0"))
	}
}
