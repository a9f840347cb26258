// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lex

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Namespace limits.
const (
	MaxIndex = 31
	MaxWidth = MaxIndex + 1
)

// BitName returns the scalar name of bit i in namespace base.
//
func BitName(base string, i int) string {
	return base + strconv.Itoa(i)
}

// VectorRef is a decoded vector reference. Hi is always the most significant
// index and Step is at least 1.
//
type VectorRef struct {
	Name string
	Hi   int
	Step int
	Lo   int
}

// ParseVector decodes name[hi..lo] or name[hi.step.lo]. Bounds given in
// ascending order are flipped.
//
func ParseVector(s string) (VectorRef, error) {
	i := strings.IndexByte(s, '[')
	if i <= 0 {
		return VectorRef{}, errors.Errorf("malformed vector %s", s)
	}
	if !strings.HasSuffix(s, "]") {
		return VectorRef{}, errors.Errorf("missing ']' in %s", s)
	}
	v := VectorRef{Name: s[:i], Step: 1}
	inner := s[i+1 : len(s)-1]
	var parts []string
	if r := strings.Split(inner, ".."); len(r) == 2 {
		parts = []string{r[0], "1", r[1]}
	} else {
		parts = strings.Split(inner, ".")
		if len(parts) != 3 {
			return VectorRef{}, errors.Errorf("malformed vector %s: expected [hi..lo] or [hi.step.lo]", s)
		}
	}
	var n [3]int
	for k, p := range parts {
		x, err := strconv.Atoi(p)
		if err != nil || p == "" || p[0] == '+' || p[0] == '-' {
			return VectorRef{}, errors.Errorf("malformed vector %s", s)
		}
		n[k] = x
	}
	v.Hi, v.Step, v.Lo = n[0], n[1], n[2]
	if v.Step < 1 {
		return VectorRef{}, errors.Errorf("invalid step %d in %s", v.Step, s)
	}
	if v.Hi > MaxIndex || v.Lo > MaxIndex {
		return VectorRef{}, errors.Errorf("bit index out of range in %s (0..%d)", s, MaxIndex)
	}
	if v.Hi < v.Lo {
		v.Hi, v.Lo = v.Lo, v.Hi
	}
	return v, nil
}

// Indices returns the bit indices of v, most significant first.
//
func (v VectorRef) Indices() []int {
	r := make([]int, 0, (v.Hi-v.Lo)/v.Step+1)
	for i := v.Hi; i >= v.Lo; i -= v.Step {
		r = append(r, i)
	}
	return r
}

// Bits returns the scalar names of v, most significant first.
//
func (v VectorRef) Bits() []string {
	idx := v.Indices()
	r := make([]string, len(idx))
	for k, i := range idx {
		r[k] = BitName(v.Name, i)
	}
	return r
}

// Value is a decoded numeric constant.
//
type Value struct {
	V        uint64
	Width    int
	Explicit bool // width given by a bit count prefix
}

// ParseConstant decodes a constant literal: bare decimal digits or
// [count]'base digits with base one of b, h, d (case insensitive).
//
func ParseConstant(s string) (Value, error) {
	q := strings.IndexByte(s, '\'')
	if q < 0 {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Value{}, errors.Errorf("malformed number %s", s)
		}
		c := Value{V: v, Width: natural(v)}
		if c.Width > MaxWidth {
			return Value{}, errors.Errorf("constant %s exceeds %d bits", s, MaxWidth)
		}
		return c, nil
	}
	count, rest := s[:q], s[q+1:]
	if rest == "" {
		return Value{}, errors.Errorf("missing base in constant %s", s)
	}
	digits := rest[1:]
	if digits == "" {
		return Value{}, errors.Errorf("missing digits in constant %s", s)
	}
	var (
		base  int
		width int
	)
	switch rest[0] {
	case 'b', 'B':
		base, width = 2, len(digits)
	case 'h', 'H':
		base, width = 16, 4*len(digits)
	case 'd', 'D':
		base = 10
	default:
		return Value{}, errors.Errorf("unknown base %q in constant %s", rest[0], s)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Value{}, errors.Errorf("malformed constant %s", s)
	}
	if base == 10 {
		width = natural(v)
	}
	c := Value{V: v, Width: width}
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 || n > MaxWidth {
			return Value{}, errors.Errorf("invalid bit count in constant %s (1..%d)", s, MaxWidth)
		}
		if natural(v) > n {
			return Value{}, errors.Errorf("constant %s does not fit in %d bits", s, n)
		}
		c.Width, c.Explicit = n, true
	}
	if c.Width > MaxWidth {
		return Value{}, errors.Errorf("constant %s exceeds %d bits", s, MaxWidth)
	}
	return c, nil
}

// Bits returns the constant's bits as "0" and "1", most significant first.
//
func (c Value) Bits() []string {
	r := make([]string, c.Width)
	for i := range r {
		if c.V>>uint(c.Width-1-i)&1 != 0 {
			r[i] = "1"
		} else {
			r[i] = "0"
		}
	}
	return r
}

// natural returns the number of significant bits in v, at least 1.
func natural(v uint64) int {
	if v == 0 {
		return 1
	}
	return bits.Len64(v)
}
