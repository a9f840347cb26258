// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"strconv"
	"strings"
)

// groupValue returns the integer value of a group of variables or bits, most
// significant first. It returns false if any member is unknown.
//
func groupValue(s *Store, names []string) (uint64, bool) {
	var v uint64
	for _, n := range names {
		var b int
		switch n {
		case "0", "1":
			b = int(n[0] - '0')
		default:
			b = s.Value(n)
		}
		if b == Unknown {
			return 0, false
		}
		v = v<<1 | uint64(b)
	}
	return v, true
}

func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(w) - 1
}

// binary returns the w low bits of v as a binary string.
//
func binary(v uint64, w int) string {
	s := strconv.FormatUint(v&mask(w), 2)
	if len(s) < w {
		s = strings.Repeat("0", w-len(s)) + s
	}
	return s
}

// formatValue formats a w bit value: binary (b), upper case hexadecimal (h),
// signed decimal (d) or unsigned decimal (u).
//
func formatValue(v uint64, w int, spec byte) string {
	v &= mask(w)
	switch spec {
	case 'h':
		s := strconv.FormatUint(v, 16)
		if n := (w + 3) / 4; len(s) < n {
			s = strings.Repeat("0", n-len(s)) + s
		}
		return strings.ToUpper(s)
	case 'd':
		if w < 64 && v&(1<<uint(w-1)) != 0 {
			return strconv.FormatInt(int64(v)-int64(1)<<uint(w), 10)
		}
		return strconv.FormatInt(int64(v), 10)
	case 'u':
		return strconv.FormatUint(v, 10)
	}
	return binary(v, w)
}

// nextValue returns v+1 wrapped to w bits, as a binary string.
//
func nextValue(v uint64, w int) string {
	return binary(v+1, w)
}

// parseBinary decodes a binary string.
//
func parseBinary(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 2, 64)
	return v, err == nil
}
