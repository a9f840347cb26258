// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"testing"
)

func and(a, b string) solver {
	return func(s *Store) int { return s.Value(a) & s.Value(b) }
}

func not(a string) solver {
	return func(s *Store) int { return s.Value(a) ^ 1 }
}

func TestStore_propagate(t *testing.T) {
	s := NewStore(map[string]bool{"b": true})
	if err := s.Define("a", []string{"b", "c"}, "b c", and("b", "c")); err != nil {
		t.Fatal(err)
	}
	if err := s.Define("d", []string{"a"}, "~a", not("a")); err != nil {
		t.Fatal(err)
	}
	if s.IsDependent("b") || !s.IsDependent("a") {
		t.Fatal("wrong dependency flags")
	}
	if s.Value("b") != 1 || s.Value("a") != 0 || s.Value("d") != 1 {
		t.Fatalf("initial values: b=%d a=%d d=%d", s.Value("b"), s.Value("a"), s.Value("d"))
	}
	if err := s.SetValue("c", 1); err != nil {
		t.Fatal(err)
	}
	if s.Value("a") != 1 || s.Value("d") != 0 {
		t.Fatalf("after set: a=%d d=%d", s.Value("a"), s.Value("d"))
	}
	if err := s.SetValue("z", 1); err == nil || err.Error() != "unknown variable z" {
		t.Fatalf("got %v", err)
	}
	if s.Value("z") != Unknown {
		t.Fatal("z must be unknown")
	}
	if x := s.Expression("a"); x != "b c" {
		t.Errorf("expression of a: %q", x)
	}
	names := s.Names()
	exp := []string{"b", "c", "a", "d"}
	if len(names) != len(exp) {
		t.Fatalf("got names %v", names)
	}
	for i := range exp {
		if names[i] != exp[i] {
			t.Fatalf("got names %v, expected %v", names, exp)
		}
	}
}

func TestStore_defineLater(t *testing.T) {
	// a reads b before b is defined
	s := NewStore(map[string]bool{"c": true})
	if err := s.Define("a", []string{"b"}, "~b", not("b")); err != nil {
		t.Fatal(err)
	}
	if s.Value("a") != 1 {
		t.Fatal("a should be 1")
	}
	if err := s.Define("b", []string{"c"}, "c", func(s *Store) int { return s.Value("c") }); err != nil {
		t.Fatal(err)
	}
	if s.Value("b") != 1 || s.Value("a") != 0 {
		t.Fatalf("b=%d a=%d", s.Value("b"), s.Value("a"))
	}
}

func TestStore_TryAddDependencyList(t *testing.T) {
	s := NewStore(nil)
	_ = s.Define("a", []string{"b"}, "b", not("b"))
	_ = s.Define("b", []string{"c", "d"}, "c d", and("c", "d"))
	data := []struct {
		dep  string
		deps []string
		err  string
	}{
		{"x", []string{"a", "c"}, ""},
		{"c", []string{"a"}, "circular dependency: c -> a -> b -> c"},
		{"d", []string{"x", "a"}, "circular dependency: d -> a -> b -> d"},
		{"e", []string{"e"}, "circular dependency: e -> e"},
	}
	for _, d := range data {
		err := s.TryAddDependencyList(d.dep, d.deps)
		switch {
		case d.err == "" && err != nil:
			t.Errorf("%s: unexpected error %v", d.dep, err)
		case d.err != "" && (err == nil || err.Error() != d.err):
			t.Errorf("%s: got %v, expected %s", d.dep, err, d.err)
		}
		if err != nil && categoryOf(err) != Dependency {
			t.Errorf("%s: wrong category", d.dep)
		}
	}
}

func TestStore_UpdateNamespace(t *testing.T) {
	s := NewStore(nil)
	if err := s.UpdateNamespace("a", true, 3, 2, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateNamespace("a", true, 7); err != nil {
		t.Fatal(err)
	}
	if w := s.Width("a"); w != 5 {
		t.Errorf("width of a: %d", w)
	}
	if err := s.UpdateNamespace("a", false); err == nil {
		t.Error("expected scalar/vector conflict")
	}
	if err := s.UpdateNamespace("b", false); err != nil {
		t.Fatal(err)
	}
	if s.Width("b") != 0 {
		t.Error("scalar has no width")
	}
	if err := s.UpdateNamespace("b", true, 0); err == nil || err.Error() != "b is used both as a scalar and as a vector" {
		t.Errorf("got %v", err)
	}
	if err := s.UpdateNamespace("c", true, 32); err == nil {
		t.Error("expected out of range index")
	}
}

func TestStore_registers(t *testing.T) {
	s := NewStore(map[string]bool{"d": true})
	s.AddRegister("q", "")
	s.AddRegister("r", "ck")
	_ = s.Define(Next("q"), []string{"d"}, "d", func(s *Store) int { return s.Value("d") })
	_ = s.Define(Next("r"), []string{"q"}, "q", func(s *Store) int { return s.Value("q") })
	if !s.IsRegister("q") || !s.IsRegister("r") || s.IsRegister("d") {
		t.Fatal("wrong register flags")
	}
	if s.Expression("r") != "q" {
		t.Errorf("expression of r: %q", s.Expression("r"))
	}

	if err := commit(s.latch(tickClock)); err != nil {
		t.Fatal(err)
	}
	if s.Value("q") != 1 || s.Value("r") != 0 || s.Value(Next("r")) != 1 {
		t.Fatalf("after tick: q=%d r=%d", s.Value("q"), s.Value("r"))
	}
	if s.edges() != nil {
		t.Fatal("no clock edge expected")
	}
	_ = s.SetValue("ck", 1)
	e := s.edges()
	if !e["ck"] {
		t.Fatal("expected rising edge of ck")
	}
	if err := commit(s.latch(e)); err != nil {
		t.Fatal(err)
	}
	if s.Value("r") != 1 {
		t.Fatal("r should be 1")
	}
	// edges are reported once
	if s.ClockEdge("ck") {
		t.Fatal("edge reported twice")
	}
	_ = s.SetValue("ck", 0)
	if s.ClockEdge("ck") {
		t.Fatal("falling edge reported")
	}
}

func TestStore_commitError(t *testing.T) {
	s := NewStore(nil)
	s.AddVariable("q", 0, true)
	err := commit([]pending{{s, "nope", 1}, {s, "q", 1}})
	if err == nil || err.Error() != "unknown variable nope" {
		t.Fatalf("got error %v", err)
	}
	if s.Value("q") != 1 {
		t.Fatal("q not committed")
	}
}
