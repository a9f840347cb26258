// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lex turns a single source line into a tagged token stream.
//
package lex

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// Kind identifies the category of a token.
//
type Kind int

// Token kinds.
const (
	Invalid   Kind = iota
	Comment        // "quoted text"
	Directive      // #library path
	Format         // %b, %h, %d, %u
	Constant       // [count]'base digits
	Vector         // name[hi..lo], name[hi.step.lo]
	Instance       // Module.instance
	Ident          // letter (letter|digit)*
	Number         // digits
	Clock          // @name
	Op             // operators and punctuation
)

var kindNames = [...]string{
	Invalid:   "invalid token",
	Comment:   "comment",
	Directive: "directive",
	Format:    "format specifier",
	Constant:  "constant",
	Vector:    "vector",
	Instance:  "instance",
	Ident:     "name",
	Number:    "number",
	Clock:     "clock",
	Op:        "operator",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Token is a lexical token. Col is the 1-based column of the first rune and
// Spaced reports whether whitespace (or the start of the line) precedes it.
//
type Token struct {
	Kind   Kind
	Text   string
	Col    int
	Spaced bool
}

// IsOperand returns true for tokens that denote a value: names, vectors,
// constants and numbers.
//
func (t Token) IsOperand() bool {
	switch t.Kind {
	case Ident, Vector, Constant, Number:
		return true
	}
	return false
}

// Is returns true if t is the operator op.
//
func (t Token) Is(op string) bool {
	return t.Kind == Op && t.Text == op
}

func (t Token) String() string {
	return strconv.Quote(t.Text)
}

// New returns a synthetic token, used by the macro expander.
//
func New(k Kind, text string) Token {
	return Token{Kind: k, Text: text, Spaced: true}
}

// Rule order matters: the first matching rule wins.
var def = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `"[^"]*"?`},
	{Name: "Directive", Pattern: `#[a-zA-Z]*[^;]*`},
	{Name: "Format", Pattern: `%[a-zA-Z]?`},
	{Name: "Constant", Pattern: `[0-9]*'[0-9a-zA-Z]*`},
	{Name: "Vector", Pattern: `[a-zA-Z][a-zA-Z0-9]*\[[^\]\s;]*\]?`},
	{Name: "Instance", Pattern: `[a-zA-Z][a-zA-Z0-9]*\.[a-zA-Z][a-zA-Z0-9]*`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9]*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Clock", Pattern: `@[a-zA-Z][a-zA-Z0-9]*`},
	{Name: "Op", Pattern: `<=|==|[=~|^+\-(){},:;*@]`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Invalid", Pattern: `.`},
})

var kinds = func() map[lexer.TokenType]Kind {
	syms := def.Symbols()
	m := make(map[lexer.TokenType]Kind, len(syms))
	for name, k := range map[string]Kind{
		"Comment":   Comment,
		"Directive": Directive,
		"Format":    Format,
		"Constant":  Constant,
		"Vector":    Vector,
		"Instance":  Instance,
		"Ident":     Ident,
		"Number":    Number,
		"Clock":     Clock,
		"Op":        Op,
		"Invalid":   Invalid,
	} {
		m[syms[name]] = k
	}
	return m
}()

var whitespace = def.Symbols()["Whitespace"]

// Tokenize splits a single line of source into tokens. Whitespace is
// dropped; characters that match no rule come out as Invalid tokens so that
// the caller can report them.
//
func Tokenize(line string) ([]Token, error) {
	l, err := def.LexString("", line)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}
	raw, err := lexer.ConsumeAll(l)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}
	out := make([]Token, 0, len(raw))
	spaced := true
	for _, t := range raw {
		if t.EOF() {
			break
		}
		if t.Type == whitespace {
			spaced = true
			continue
		}
		out = append(out, Token{
			Kind:   kinds[t.Type],
			Text:   t.Value,
			Col:    t.Pos.Column,
			Spaced: spaced,
		})
		spaced = false
	}
	return out, nil
}

// Join returns the source form of a token list, with single spaces between
// tokens that were separated in the source.
//
func Join(ts []Token) string {
	var b []byte
	for i, t := range ts {
		if i > 0 && t.Spaced {
			b = append(b, ' ')
		}
		b = append(b, t.Text...)
	}
	return string(b)
}
