// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic_test

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/db47h/hwlogic"
)

func run(t *testing.T, src string, overrides map[string]bool, opts *hwlogic.Options) *hwlogic.Design {
	t.Helper()
	d := hwlogic.New("test.lgc", src, opts)
	if _, err := d.Run(overrides); err != nil {
		t.Fatal(err)
	}
	return d
}

func expect(t *testing.T, d *hwlogic.Design, values map[string]int) {
	t.Helper()
	for n, v := range values {
		if got := d.Value(n); got != v {
			t.Errorf("%s = %d, expected %d", n, got, v)
		}
	}
}

func click(t *testing.T, d *hwlogic.Design, vars, next string) {
	t.Helper()
	if _, err := d.Click(vars, next); err != nil {
		t.Fatal(err)
	}
}

func diagnostics(t *testing.T, err error) hwlogic.Diagnostics {
	t.Helper()
	ds, ok := err.(hwlogic.Diagnostics)
	if !ok {
		t.Fatalf("expected Diagnostics, got %T: %v", err, err)
	}
	return ds
}

func TestAnd_propagation(t *testing.T) {
	d := run(t, "a = b c;\nd = ~a;\ne = d | x;\n", map[string]bool{"b": true, "c": true}, nil)
	expect(t, d, map[string]int{"a": 1, "d": 0, "e": 0})
	click(t, d, "b", "")
	expect(t, d, map[string]int{"b": 0, "a": 0, "d": 1, "e": 1})
	click(t, d, "b", "1")
	expect(t, d, map[string]int{"b": 1, "a": 1, "d": 0, "e": 0})
	click(t, d, "c", "0")
	expect(t, d, map[string]int{"a": 0, "d": 1, "e": 1})
}

func TestVectorConstant(t *testing.T) {
	d := run(t, "a[3..0] = 'hA;\nb[0..3] = 3;\n", nil, nil)
	expect(t, d, map[string]int{"a3": 1, "a2": 0, "a1": 1, "a0": 0})
	expect(t, d, map[string]int{"b3": 0, "b2": 0, "b1": 1, "b0": 1})
}

func TestSteppedVector(t *testing.T) {
	d := run(t, "x[6.2.0] = y[3..0];\n", map[string]bool{"y3": true, "y0": true}, nil)
	expect(t, d, map[string]int{"x6": 1, "x4": 0, "x2": 0, "x0": 1})
}

func TestMath(t *testing.T) {
	src := `{c s[1..0]} = a[1..0] + b[1..0];
e = a[1..0] == b[1..0];
n[1..0] = a[1..0] - 1;
`
	d := run(t, src, map[string]bool{"a1": true, "a0": true, "b0": true}, nil)
	expect(t, d, map[string]int{"c": 1, "s1": 0, "s0": 0, "e": 0, "n1": 1, "n0": 0})
	click(t, d, "b[1..0]", "11")
	expect(t, d, map[string]int{"c": 1, "s1": 1, "s0": 0, "e": 1})
	click(t, d, "a[1..0]", "00")
	expect(t, d, map[string]int{"n1": 1, "n0": 1, "e": 0})
}

func TestMath_wrap(t *testing.T) {
	src := `e = (a - b) == 1;
f = (x[1..0] - y[1..0]) == 'b11;
g = ((x[1..0] - y[1..0]) + 1) == 'b100;
`
	d := run(t, src, map[string]bool{"b": true, "y0": true}, nil)
	expect(t, d, map[string]int{"e": 1, "f": 1, "g": 1})
	click(t, d, "a", "")
	expect(t, d, map[string]int{"e": 0, "f": 1})
}

func TestCircular(t *testing.T) {
	data := []struct {
		name string
		src  string
		err  string
	}{
		{"self", "a = a;", "line 1: circular dependency: a -> a"},
		{"indirect", "a = b;\nb = a;", "line 2: circular dependency: b -> a -> b"},
		{"deep", "a = b c;\nb = d;\nd = ~a;", "line 3: circular dependency: d -> a -> b -> d"},
		{"vector", "x[1..0] = x[1..0] | y;", "line 1: circular dependency: x1 -> x1"},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := hwlogic.New("test.lgc", d.src, nil).Run(nil)
			ds := diagnostics(t, err)
			if ds.Error() != d.err {
				t.Fatalf("got %q, expected %q", ds.Error(), d.err)
			}
			if ds[0].Category != hwlogic.Dependency {
				t.Errorf("got category %v", ds[0].Category)
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	data := []struct {
		name string
		src  string
		errs []string
		cat  hwlogic.Category
	}{
		{"lexical", "a = $;\nb = (c;\nd = e;", []string{`line 1: illegal character "$"`, "line 2: unmatched '('"}, hwlogic.Lexical},
		{"reassign", "a = b;\na = c;", []string{"line 2: a is already assigned"}, hwlogic.Dependency},
		{"input", "M(a : b);\na = c;\nb = a;", []string{"line 2: cannot assign module input a"}, hwlogic.Semantic},
		{"namespace", "x = y;\nx[1..0] = z[1..0];", []string{"line 2: x is used both as a scalar and as a vector"}, hwlogic.Semantic},
		{"width", "x = y[1..0];", []string{"line 1: width mismatch: x is 1 bits wide, y[1..0] is 2"}, hwlogic.Semantic},
		{"constant", "x[1..0] = 'h1F;", []string{"line 1: constant 'h1F does not fit in 2 bits"}, hwlogic.Semantic},
		{"duplicate port", "M(a, a : b);", []string{"line 1: duplicate port a"}, hwlogic.Semantic},
		{"unknown module", "Foo.x(a : b);", []string{"line 1: cannot find module Foo"}, hwlogic.Resolution},
		{"keeps going", "a = a;\nb = $;\nc = c;", []string{`line 2: illegal character "$"`}, hwlogic.Lexical},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			_, err := hwlogic.New("test.lgc", d.src, nil).Run(nil)
			ds := diagnostics(t, err)
			var got []string
			for _, x := range ds {
				got = append(got, x.Error())
			}
			if strings.Join(got, "\n") != strings.Join(d.errs, "\n") {
				t.Fatalf("got %q, expected %q", got, d.errs)
			}
			if ds[0].Category != d.cat {
				t.Errorf("got category %v, expected %v", ds[0].Category, d.cat)
			}
		})
	}
}

func TestTick(t *testing.T) {
	d := run(t, "q <= d;\n", map[string]bool{"d": true}, nil)
	expect(t, d, map[string]int{"q": 0, "q.d": 1})
	if _, err := d.Tick(1); err != nil {
		t.Fatal(err)
	}
	expect(t, d, map[string]int{"q": 1})
	click(t, d, "d", "0")
	expect(t, d, map[string]int{"q": 1, "q.d": 0})
	if _, err := d.Tick(1); err != nil {
		t.Fatal(err)
	}
	expect(t, d, map[string]int{"q": 0})
}

func TestTick_simultaneous(t *testing.T) {
	// a shift register: all registers latch before any commit
	d := run(t, "a <= in;\nb <= a;\nc <= b;\n", map[string]bool{"in": true}, nil)
	steps := []map[string]int{
		{"a": 1, "b": 0, "c": 0},
		{"a": 1, "b": 1, "c": 0},
		{"a": 1, "b": 1, "c": 1},
	}
	for _, s := range steps {
		if _, err := d.Tick(1); err != nil {
			t.Fatal(err)
		}
		expect(t, d, s)
	}
}

func TestTick_counter(t *testing.T) {
	d := run(t, "q[1..0] <= q[1..0] + 1;\n", nil, nil)
	for i := 1; i <= 5; i++ {
		if _, err := d.Tick(1); err != nil {
			t.Fatal(err)
		}
		v := i & 3
		expect(t, d, map[string]int{"q1": v >> 1, "q0": v & 1})
	}
}

func TestAlternateClock(t *testing.T) {
	d := run(t, "q <= @clk d;\nr <= d;\n", map[string]bool{"d": true}, nil)
	if _, err := d.Tick(1); err != nil {
		t.Fatal(err)
	}
	expect(t, d, map[string]int{"q": 0, "r": 1})
	click(t, d, "clk", "1")
	expect(t, d, map[string]int{"q": 1})
	click(t, d, "d", "0")
	click(t, d, "clk", "0")
	expect(t, d, map[string]int{"q": 1})
	click(t, d, "clk", "1")
	expect(t, d, map[string]int{"q": 0})
}

func TestAlternateClock_ripple(t *testing.T) {
	// q0 toggles on clk, q1 toggles on the rising edge of q0
	d := run(t, "q0 <= @clk ~q0;\nq1 <= @q0 ~q1;\n", nil, nil)
	var got []int
	for i := 0; i < 4; i++ {
		click(t, d, "clk", "1")
		click(t, d, "clk", "0")
		got = append(got, d.Value("q1")<<1|d.Value("q0"))
	}
	exp := []int{3, 2, 1, 0}
	for i := range exp {
		if got[i] != exp[i] {
			t.Fatalf("got %v, expected %v", got, exp)
		}
	}
}

func TestArity(t *testing.T) {
	data := []struct {
		src string
		err string
	}{
		{"And.g(a, b, c : o);", "line 1: And.g: And has 2 inputs, got 3"},
		{"And.g(a, b : o, p, q);", "line 1: And.g: And has 1 outputs, got 3"},
		{"And.g(a, b[1..0] : o);", "line 1: And.g: input b is 1 bits wide, got 2"},
		{"And.g(a, 2 : o);", "line 1: constant 2 does not fit in 1 bits"},
		{"And.g(a, b : o);\nOr.g(a, b : p);", "line 2: duplicate instance name g"},
	}
	for _, d := range data {
		t.Run(d.src, func(t *testing.T) {
			_, err := hwlogic.New("test.lgc", d.src, nil).Run(nil)
			ds := diagnostics(t, err)
			if ds.Error() != d.err {
				t.Fatalf("got %q, expected %q", ds.Error(), d.err)
			}
		})
	}
}

func TestDisplay_next(t *testing.T) {
	src := "M(x[1..0] : y);\ny = x1 x0;\n%b{x[1..0]} %h{x[1..0] y} y;\n"
	d := run(t, src, map[string]bool{"x1": true, "x0": true}, nil)
	var groups []hwlogic.Token
	for _, tk := range d.Tokens() {
		if tk.Kind == hwlogic.TokFormat {
			groups = append(groups, tk)
		}
	}
	// header, %b, %h
	if len(groups) != 3 {
		t.Fatalf("got %d groups", len(groups))
	}
	g := groups[1]
	if g.Text != "%b{x[1..0]}" || g.Digits != "11" || g.Next != "00" || !g.Clickable {
		t.Errorf("got %+v", g)
	}
	g = groups[2]
	if g.Digits != "7" || g.Next != "" || g.Clickable {
		t.Errorf("got %+v", g)
	}
	click(t, d, strings.Join(groups[1].Vars, " "), groups[1].Next)
	expect(t, d, map[string]int{"x1": 0, "x0": 0, "y": 0})
	// increment
	click(t, d, "x[1..0]", "")
	expect(t, d, map[string]int{"x1": 0, "x0": 1})
}

func TestFormat(t *testing.T) {
	src := "\"adder\"\na = b c;\n\n*a;\n%u{b c} %d{b c} 'h3;\n"
	d := run(t, src, map[string]bool{"b": true}, nil)
	exp := "\"adder\"\na=0 = b=1 c=0\n\na=0 = b c\n%u{b c}=2 %d{b c}=-2 'h3\n"
	if got := hwlogic.Format(d.Tokens()); got != exp {
		t.Errorf("got\n%s\nexpected\n%s", got, exp)
	}
}

func TestFormat_lineEnd(t *testing.T) {
	data := []struct {
		src string
		exp string
	}{
		{"a = b;", "a=0 = b=0\n"},
		{"a = b;\n", "a=0 = b=0\n"},
		{"a = b;\r\n", "a=0 = b=0\n"},
		{"a = b;\n\n", "a=0 = b=0\n\n"},
	}
	for _, d := range data {
		got := hwlogic.Format(run(t, d.src, nil, nil).Tokens())
		if got != d.exp {
			t.Errorf("%q: got %q, expected %q", d.src, got, d.exp)
		}
	}
}

var lib = fstest.MapFS{
	"Maj.lgc": {Data: []byte(`"majority"
Maj(a, b, c : m);
m = a b | a c | b c;
`)},
	"Inc2.lgc": {Data: []byte(`Inc2(x[1..0] : y[1..0], c);
{c y[1..0]} = x[1..0] + 1;
`)},
}

func TestSubmodule(t *testing.T) {
	src := "Maj.u(x, y, z : m);\nInc2.i({m z} : r[1..0], NC);\n"
	d := run(t, src, map[string]bool{"x": true}, &hwlogic.Options{Libraries: []fs.FS{lib}})
	expect(t, d, map[string]int{"m": 0, "r1": 0, "r0": 1})
	click(t, d, "y", "1")
	expect(t, d, map[string]int{"m": 1, "r1": 1, "r0": 1})
	click(t, d, "z", "1")
	// {m z} = 3, 3 + 1 wraps to 0
	expect(t, d, map[string]int{"m": 1, "r1": 0, "r0": 0})
	click(t, d, "x y", "00")
	expect(t, d, map[string]int{"m": 0, "r1": 1, "r0": 0})
}

func TestSubmodule_stdlib(t *testing.T) {
	src := "Add4.u(a[3..0], 'h3, 0 : s[3..0], c);\n"
	d := run(t, src, map[string]bool{"a3": true, "a2": true, "a1": true}, nil)
	// 14 + 3 = 17
	expect(t, d, map[string]int{"c": 1, "s3": 0, "s2": 0, "s1": 0, "s0": 1})

	_, err := hwlogic.New("test.lgc", src, &hwlogic.Options{NoStdLib: true}).Run(nil)
	if ds := diagnostics(t, err); ds.Error() != "line 1: cannot find module Add4" {
		t.Fatal(ds)
	}
}

func TestSubmodule_tick(t *testing.T) {
	d := run(t, "Counter4.c(en : q[3..0]);\n", map[string]bool{"en": true}, nil)
	if _, err := d.Tick(3); err != nil {
		t.Fatal(err)
	}
	expect(t, d, map[string]int{"q3": 0, "q2": 0, "q1": 1, "q0": 1})
	click(t, d, "en", "0")
	if _, err := d.Tick(2); err != nil {
		t.Fatal(err)
	}
	expect(t, d, map[string]int{"q1": 1, "q0": 1})
}

func TestResolution(t *testing.T) {
	files := fstest.MapFS{
		"top.lgc":     {Data: []byte("#library lib;\nAnd.g(a, b : o);\nMaj.m(a, b, 1 : p);\n")},
		"And.lgc":     {Data: []byte("And(a, b : out);\nout = a | b;\n")},
		"lib/Maj.lgc": {Data: []byte("Maj(a, b, c : m);\nm = a b;\n")},
		"Bad.lgc":     {Data: []byte("a = b;\n")},
		"Wrong.lgc":   {Data: []byte("Other(a : b);\nb = a;\n")},
		"Broken.lgc":  {Data: []byte("Broken(a : b);\nb = (a;\n")},
	}
	d, err := hwlogic.Open("top.lgc", &hwlogic.Options{FS: files, Libraries: []fs.FS{lib}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = d.Run(map[string]bool{"a": true}); err != nil {
		t.Fatal(err)
	}
	// And.lgc beside the file wins over the standard library,
	// lib/Maj.lgc over the configured library.
	expect(t, d, map[string]int{"o": 1, "p": 0})

	data := []struct {
		src string
		err string
	}{
		{"Bad.x(a : b);", "line 1: Bad.lgc has no module header"},
		{"Wrong.x(a : b);", "line 1: Wrong.lgc declares module Other, expected Wrong"},
		{"Broken.x(a : b);", "Broken.lgc:2: unmatched '('"},
	}
	for _, x := range data {
		d := hwlogic.New("top.lgc", x.src, &hwlogic.Options{FS: files})
		_, err := d.Run(nil)
		ds := diagnostics(t, err)
		if ds[0].Error() != x.err {
			t.Errorf("got %q, expected %q", ds[0].Error(), x.err)
		}
	}
}

func TestInstantiationCycle(t *testing.T) {
	files := fstest.MapFS{
		"A.lgc": {Data: []byte("A(x : y);\nB.b(x : y);\n")},
		"B.lgc": {Data: []byte("B(x : y);\nA.a(x : y);\n")},
	}
	d, err := hwlogic.Open("A.lgc", &hwlogic.Options{FS: files})
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Run(nil)
	ds := diagnostics(t, err)
	if !strings.Contains(ds.Error(), "instantiation cycle: A -> B -> A") {
		t.Fatalf("got %q", ds.Error())
	}
}

func TestExecute(t *testing.T) {
	d := hwlogic.New("maj.lgc", string(lib["Maj.lgc"].Data), nil)
	data := []struct {
		a, b, c bool
		m       int
	}{
		{false, false, false, 0},
		{true, false, false, 0},
		{true, false, true, 1},
		{true, true, true, 1},
	}
	for _, x := range data {
		r, err := d.Execute(map[string]bool{"a": x.a, "b": x.b, "c": x.c})
		if err != nil {
			t.Fatal(err)
		}
		if r["m"] != x.m {
			t.Errorf("Maj(%v, %v, %v) = %d, expected %d", x.a, x.b, x.c, r["m"], x.m)
		}
	}
	if d.Tokens() != nil {
		t.Error("Execute must not create a current generation")
	}
}

func TestClick_errors(t *testing.T) {
	d := hwlogic.New("test.lgc", "a = b;\n", nil)
	if _, err := d.Click("b", ""); err != hwlogic.ErrNotRunning {
		t.Fatalf("got %v", err)
	}
	if _, err := d.Run(nil); err != nil {
		t.Fatal(err)
	}
	data := []struct {
		vars, next, err string
	}{
		{"a", "", "a is not an input"},
		{"z", "", "unknown variable z"},
		{"b", "10", `invalid value "10" for 1 bits`},
		{"b", "x", `invalid value "x" for 1 bits`},
		{"'h3", "", "cannot click 'h3"},
	}
	for _, x := range data {
		_, err := d.Click(x.vars, x.next)
		if err == nil || err.Error() != x.err {
			t.Errorf("Click(%q, %q): got %v, expected %s", x.vars, x.next, err, x.err)
		}
	}
	d.Close()
	if d.Value("b") != hwlogic.Unknown {
		t.Error("closed design must not have values")
	}
}
