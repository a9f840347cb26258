// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"sort"
	"strings"

	"github.com/db47h/hwlogic/internal/eval"
	"github.com/db47h/hwlogic/internal/lex"
)

// Unknown is the value of an undefined variable.
//
const Unknown = eval.Unknown

// A solver computes the value of a dependent variable.
//
type solver func(s *Store) int

type variable struct {
	value int
	dep   bool
}

type record struct {
	deps  []string
	text  string
	solve solver
}

type namespace struct {
	vector bool
	bits   map[int]bool
}

type register struct {
	q     string
	clock string // empty for registers committed by Tick
}

// Store is the value store of a single parse generation. It holds named
// binary variables, the dependency records of dependent variables, vector
// namespaces and alternate clock state.
//
// A register q has no record of its own: its next value is the dependent
// variable q.d, committed into q by Tick or by a rising edge of its clock.
//
type Store struct {
	vars    map[string]*variable
	order   []string
	records map[string]*record
	rdeps   map[string][]string
	spaces  map[string]*namespace
	regs    []register
	clocks  map[string]int // last seen value of alternate clocks
	clkList []string
	initial map[string]bool
}

// NewStore returns an empty store. Independent variables listed in initial
// take their initial value from it.
//
func NewStore(initial map[string]bool) *Store {
	return &Store{
		vars:    make(map[string]*variable),
		records: make(map[string]*record),
		rdeps:   make(map[string][]string),
		spaces:  make(map[string]*namespace),
		clocks:  make(map[string]int),
		initial: initial,
	}
}

// Next returns the name of the shadow variable holding the next value of
// register q.
//
func Next(q string) string {
	return q + ".d"
}

// AddVariable adds a variable. If a variable with that name already exists,
// AddVariable is a no-op unless an independent variable is added as
// dependent, in which case it is converted in place.
//
func (s *Store) AddVariable(name string, value int, independent bool) {
	if v, ok := s.vars[name]; ok {
		if !independent {
			v.dep = true
		}
		return
	}
	if b, ok := s.initial[name]; ok && independent {
		value = btoi(b)
	}
	s.vars[name] = &variable{value: value, dep: !independent}
	s.order = append(s.order, name)
}

// Has returns true if the named variable exists.
//
func (s *Store) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// IsDependent returns true if the named variable exists and is dependent.
//
func (s *Store) IsDependent(name string) bool {
	v, ok := s.vars[name]
	return ok && v.dep
}

// MakeDependent converts a variable to dependent, preserving its value.
//
func (s *Store) MakeDependent(name string) {
	s.AddVariable(name, 0, false)
}

// Value returns the value of a variable: 0, 1 or Unknown.
//
func (s *Store) Value(name string) int {
	if v, ok := s.vars[name]; ok {
		return v.value
	}
	return Unknown
}

// SetValue sets the value of a variable and re-evaluates its dependents.
//
func (s *Store) SetValue(name string, value int) error {
	v, ok := s.vars[name]
	if !ok {
		return errorf(Semantic, "unknown variable %s", name)
	}
	if v.value == value {
		return nil
	}
	v.value = value
	s.propagate(name)
	return nil
}

// propagate re-solves the transitive dependents of name. A dependent is
// enqueued only when its value changed, and the graph is acyclic, so the
// work list drains.
func (s *Store) propagate(name string) {
	queue := append([]string(nil), s.rdeps[name]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if s.resolve(n) {
			queue = append(queue, s.rdeps[n]...)
		}
	}
}

// resolve re-solves a dependent variable and returns true if its value
// changed.
func (s *Store) resolve(name string) bool {
	r := s.records[name]
	if r == nil {
		return false
	}
	v := s.vars[name]
	x := r.solve(s)
	if x == v.value {
		return false
	}
	v.value = x
	return true
}

// update re-solves name and propagates any change.
func (s *Store) update(name string) {
	if s.resolve(name) {
		s.propagate(name)
	}
}

// TryAddDependencyList checks that dep does not appear in deps, directly or
// through the recorded dependencies of the variables in deps.
//
func (s *Store) TryAddDependencyList(dep string, deps []string) error {
	seen := make(map[string]bool)
	var path []string
	var walk func(n string) bool
	walk = func(n string) bool {
		path = append(path, n)
		if n == dep {
			return true
		}
		if !seen[n] {
			seen[n] = true
			if r := s.records[n]; r != nil {
				for _, d := range r.deps {
					if walk(d) {
						return true
					}
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}
	for _, d := range deps {
		if walk(d) {
			return errorf(Dependency, "circular dependency: %s -> %s", dep, strings.Join(path, " -> "))
		}
	}
	return nil
}

// Define records the dependencies, expression text and solver of dep, makes
// dep dependent, solves it and propagates the result to dependents
// registered earlier. Variables in deps that do not exist yet are added as
// independent.
//
func (s *Store) Define(dep string, deps []string, text string, solve solver) error {
	if err := s.TryAddDependencyList(dep, deps); err != nil {
		return err
	}
	for _, d := range deps {
		s.AddVariable(d, 0, true)
		s.rdeps[d] = append(s.rdeps[d], dep)
	}
	s.MakeDependent(dep)
	s.records[dep] = &record{deps: deps, text: text, solve: solve}
	s.update(dep)
	return nil
}

// Deps returns the dependencies recorded for name.
//
func (s *Store) Deps(name string) []string {
	if r := s.records[name]; r != nil {
		return r.deps
	}
	return nil
}

// Expression returns the expression text recorded for name or for the next
// value of register name.
//
func (s *Store) Expression(name string) string {
	if r := s.records[name]; r != nil {
		return r.text
	}
	if r := s.records[Next(name)]; r != nil {
		return r.text
	}
	return ""
}

// UpdateNamespace declares the use of base as a scalar (vector false) or as a
// vector with the given bit indices.
//
func (s *Store) UpdateNamespace(base string, vector bool, indices ...int) error {
	ns := s.spaces[base]
	if ns == nil {
		ns = &namespace{vector: vector, bits: make(map[int]bool)}
		s.spaces[base] = ns
	}
	if ns.vector != vector {
		return errorf(Semantic, "%s is used both as a scalar and as a vector", base)
	}
	for _, i := range indices {
		if i < 0 || i > lex.MaxIndex {
			return errorf(Semantic, "bit index %d of %s out of range (0..%d)", i, base, lex.MaxIndex)
		}
		ns.bits[i] = true
	}
	return nil
}

// Width returns the number of bits declared for vector base, or 0 if base is
// not a vector.
//
func (s *Store) Width(base string) int {
	if ns := s.spaces[base]; ns != nil && ns.vector {
		return len(ns.bits)
	}
	return 0
}

// Names returns the names of all variables in order of creation.
//
func (s *Store) Names() []string {
	return s.order
}

// AddRegister makes q a register. If clock is not empty, q is committed on
// the rising edge of that variable instead of by Tick.
//
func (s *Store) AddRegister(q, clock string) {
	s.MakeDependent(q)
	s.regs = append(s.regs, register{q: q, clock: clock})
	if clock != "" {
		s.WatchClock(clock)
	}
}

// IsRegister returns true if q is a register.
//
func (s *Store) IsRegister(q string) bool {
	for _, r := range s.regs {
		if r.q == q {
			return true
		}
	}
	return false
}

// WatchClock starts tracking the edges of an alternate clock.
//
func (s *Store) WatchClock(name string) {
	if _, ok := s.clocks[name]; ok {
		return
	}
	s.AddVariable(name, 0, true)
	s.clocks[name] = s.Value(name)
	s.clkList = append(s.clkList, name)
}

// ClockEdge returns true if clock name went from 0 to 1 since the last call.
//
func (s *Store) ClockEdge(name string) bool {
	last, ok := s.clocks[name]
	if !ok {
		return false
	}
	cur := s.Value(name)
	s.clocks[name] = cur
	return cur == 1 && last != 1
}

// pending is a latched register value waiting to be committed.
type pending struct {
	s     *Store
	q     string
	value int
}

// latch returns the next values of the registers gated by one of clocks.
// The empty clock name selects registers committed by Tick.
func (s *Store) latch(clocks map[string]bool) []pending {
	var ps []pending
	for _, r := range s.regs {
		if clocks[r.clock] {
			ps = append(ps, pending{s, r.q, s.Value(Next(r.q))})
		}
	}
	return ps
}

// edges returns the alternate clocks with a rising edge since the last
// check.
func (s *Store) edges() map[string]bool {
	var m map[string]bool
	for _, c := range s.clkList {
		if s.ClockEdge(c) {
			if m == nil {
				m = make(map[string]bool)
			}
			m[c] = true
		}
	}
	return m
}

// commit stores latched register values. All values are stored even if one
// of them fails.
func commit(ps []pending) error {
	var err error
	for _, p := range ps {
		if e := p.s.SetValue(p.q, p.value); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func sortedKeys(m map[string]bool) []string {
	r := make([]string, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
