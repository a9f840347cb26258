// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing designs.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/hwlogic"
)

// MaxExhaustive is the number of input bits up to which CompareDesigns tries
// every input combination. Above it, inputs are random.
//
const MaxExhaustive = 12

func bitNames(h *hwlogic.Header) (in, out []string) {
	return h.InputBits(), h.OutputBits()
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CompareDesigns takes two designs and compares their outputs given the same
// inputs. Both designs must have the same input and output ports.
//
func CompareDesigns(t *testing.T, d1, d2 *hwlogic.Design) {
	t.Helper()

	h1, err := d1.Header()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := d2.Header()
	if err != nil {
		t.Fatal(err)
	}
	if h1 == nil || h2 == nil {
		t.Fatal("both designs must declare a module header")
	}
	in1, out1 := bitNames(h1)
	in2, out2 := bitNames(h2)
	if !sameList(in1, in2) {
		t.Fatalf("inputs differ: %v != %v", in1, in2)
	}
	if !sameList(out1, out2) {
		t.Fatalf("outputs differ: %v != %v", out1, out2)
	}

	inputs := make(map[string]bool, len(in1))
	errString := func(oname string, ex, got int) string {
		var b strings.Builder
		for _, n := range in1 {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n)
			b.WriteRune('=')
			if inputs[n] {
				b.WriteString("1")
			} else {
				b.WriteString("0")
			}
		}
		return fmt.Sprintf("\nExpected %s => %s=%d\nGot %d", b.String(), oname, ex, got)
	}
	check := func() {
		t.Helper()
		r1, err := d1.Execute(inputs)
		if err != nil {
			t.Fatal(err)
		}
		r2, err := d2.Execute(inputs)
		if err != nil {
			t.Fatal(err)
		}
		for _, o := range out1 {
			if r1[o] != r2[o] {
				t.Fatal(errString(o, r1[o], r2[o]))
			}
		}
	}
	set := func(v uint64) {
		for i, n := range in1 {
			inputs[n] = v>>uint(len(in1)-1-i)&1 != 0
		}
	}

	start := time.Now()
	count := 0
	if len(in1) <= MaxExhaustive {
		for v := uint64(0); v < 1<<uint(len(in1)); v++ {
			set(v)
			check()
			count++
		}
	} else {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		// all 0, all 1
		set(0)
		check()
		set(^uint64(0))
		check()
		for i := 0; i < 1<<MaxExhaustive; i++ {
			for _, n := range in1 {
				inputs[n] = rnd.Int63()&(1<<62) != 0
			}
			check()
		}
		count = 2 + 1<<MaxExhaustive
	}
	t.Logf("%d input combinations in %v", count, time.Since(start))
}
