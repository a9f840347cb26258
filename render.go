// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strconv"
	"strings"
)

// TokenKind identifies the kind of a display token.
//
type TokenKind int

// Display token kinds.
const (
	TokVar       TokenKind = iota // variable with its value
	TokOperator                   // operator or punctuation
	TokConstant                   // constant literal
	TokComment                    // comment text, without quotes
	TokName                       // module, instance or clock name, expression text
	TokFormat                     // formatted group of variables
	TokSpace
	TokLineBreak
)

// Token is a typed display token produced by rendering a design.
//
// For TokVar, Text is the variable name. For TokFormat, Text is the source
// form of the group, Spec the format letter (b, h, d or u), Vars the member
// names (most significant first), Digits the formatted value and Next the
// binary string that a click should set, empty if the group cannot be
// clicked.
//
type Token struct {
	Kind      TokenKind
	Text      string
	Value     int
	Clickable bool
	Spec      byte
	Vars      []string
	Digits    string
	Next      string
}

var (
	space     = Token{Kind: TokSpace}
	lineBreak = Token{Kind: TokLineBreak}
)

func op(text string) Token {
	return Token{Kind: TokOperator, Text: text}
}

func valueString(v int) string {
	if v == Unknown {
		return "?"
	}
	return strconv.Itoa(v)
}

// Format returns the plain text rendering of ts. Variables render as
// name=value and formatted groups as source=digits.
//
func Format(ts []Token) string {
	var b strings.Builder
	for _, t := range ts {
		switch t.Kind {
		case TokVar:
			b.WriteString(t.Text)
			b.WriteByte('=')
			b.WriteString(valueString(t.Value))
		case TokFormat:
			b.WriteString(t.Text)
			b.WriteByte('=')
			b.WriteString(t.Digits)
		case TokComment:
			b.WriteByte('"')
			b.WriteString(t.Text)
			b.WriteByte('"')
		case TokSpace:
			b.WriteByte(' ')
		case TokLineBreak:
			b.WriteByte('\n')
		default:
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
