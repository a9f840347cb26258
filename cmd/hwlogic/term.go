// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/db47h/hwlogic"
)

// colors are disabled when NO_COLOR is set.
var noColor = os.Getenv("NO_COLOR") != ""

func ansi(code, s string) string {
	if noColor {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func red(s string) string    { return ansi("31", s) }
func green(s string) string  { return ansi("32", s) }
func yellow(s string) string { return ansi("33", s) }
func blue(s string) string   { return ansi("94", s) }
func cyan(s string) string   { return ansi("36", s) }
func dim(s string) string    { return ansi("2", s) }
func bold(s string) string   { return ansi("1", s) }

func severity(s string) string {
	switch s {
	case "error":
		return red(s)
	case "warning":
		return yellow(s)
	}
	return blue(s)
}

func value(v int) string {
	switch v {
	case 1:
		return green("1")
	case 0:
		return red("0")
	}
	return yellow("?")
}

// render formats display tokens for the terminal. Clickable variables and
// groups are shown in bold.
func render(ts []hwlogic.Token) string {
	var b strings.Builder
	for _, t := range ts {
		switch t.Kind {
		case hwlogic.TokVar:
			name := t.Text
			if t.Clickable {
				name = bold(name)
			}
			b.WriteString(name + dim("=") + value(t.Value))
		case hwlogic.TokFormat:
			label := t.Text
			if t.Clickable {
				label = bold(label)
			}
			b.WriteString(label + dim("=") + cyan(t.Digits))
		case hwlogic.TokComment:
			b.WriteString(blue(strconv.Quote(t.Text)))
		case hwlogic.TokConstant:
			b.WriteString(cyan(t.Text))
		case hwlogic.TokName:
			b.WriteString(dim(t.Text))
		case hwlogic.TokSpace:
			b.WriteByte(' ')
		case hwlogic.TokLineBreak:
			b.WriteByte('\n')
		default:
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
