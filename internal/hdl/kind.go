// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"

	"github.com/db47h/hwlogic/internal/lex"
)

// Kind is the inferred kind of a statement.
//
type Kind int

// Statement kinds.
const (
	Empty Kind = iota
	Comment
	Library
	Display
	Module
	Submodule
	Boolean
	Clock
)

var kindNames = [...]string{
	Empty:     "empty",
	Comment:   "comment",
	Library:   "library",
	Display:   "display",
	Module:    "module",
	Submodule: "submodule",
	Boolean:   "assignment",
	Clock:     "clocked assignment",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// states of the kind inference automaton. The terminal states map one to one
// to statement kinds.
type state int

const (
	sEmpty state = iota
	sName        // a single leading name: display, module header or assignment
	sDisplay
	sComment
	sLibrary
	sModule
	sSubmodule
	sBoolean
	sClock
	sEnd // lone ';'
)

var stateKinds = map[state]Kind{
	sEmpty:     Empty,
	sEnd:       Empty,
	sName:      Display,
	sDisplay:   Display,
	sComment:   Comment,
	sLibrary:   Library,
	sModule:    Module,
	sSubmodule: Submodule,
	sBoolean:   Boolean,
	sClock:     Clock,
}

func (s state) terminal() bool {
	switch s {
	case sComment, sLibrary, sModule, sSubmodule, sBoolean, sClock, sEnd:
		return true
	}
	return false
}

// next is the transition function of the inference automaton. It returns
// false if t cannot start or continue any statement from state s.
//
func (s state) next(t lex.Token) (state, bool) {
	switch s {
	case sEmpty:
		switch {
		case t.Kind == lex.Comment:
			return sComment, true
		case t.Kind == lex.Directive:
			return sLibrary, true
		case t.Kind == lex.Instance:
			return sSubmodule, true
		case t.Is(";"):
			return sEnd, true
		case t.Kind == lex.Ident:
			return sName, true
		case t.IsOperand(), t.Kind == lex.Format, t.Is("*"), t.Is("{"):
			return sDisplay, true
		}
		return s, false
	case sName:
		if t.Is("(") {
			return sModule, true
		}
		fallthrough
	case sDisplay:
		switch {
		case t.Is("="):
			return sBoolean, true
		case t.Is("<="):
			return sClock, true
		}
		return sDisplay, true
	}
	return s, true
}

// Infer runs the inference automaton over ts. It returns false if the first
// token cannot start a statement.
//
func Infer(ts []lex.Token) (Kind, bool) {
	s := sEmpty
	for _, t := range ts {
		var ok bool
		if s, ok = s.next(t); !ok {
			return Empty, false
		}
		if s.terminal() {
			break
		}
	}
	return stateKinds[s], true
}
