/*
Package hwlogic parses, macro-expands and simulates designs written in a small
line oriented boolean logic hardware description language.

A design file holds one statement per line, terminated by a semicolon:

	"A 2 bit counter with an enable input"
	Counter(en : q[1..0]);
	q[1..0] <= q[1..0] + en;
	%u{q[1..0]} *q[1..0];

Statements are comments, #library directives, a module declaration,
submodule instantiations (Child.inst(inputs : outputs)), display lists,
combinational assignments (a = expr) and clocked assignments
(q <= [@clock] expr).

Expressions use ~ (not), juxtaposition (and), |, ^, == and the arithmetic
operators + and -. Only one of |, ^, == or +/- may appear at a given
parenthesis level.

Vectors (name[hi..lo] or name[hi.step.lo]), constants ('hA, 4'b0011, 12)
and concatenations ({a b c}) are expanded into scalar variables before
evaluation. A multi-bit assignment is expanded into one assignment per bit,
except when it uses arithmetic or comparison, in which case it is evaluated
as a single integer expression.

Running a design parses the whole source and builds a new generation of
variables. Clicks and ticks then update the generation incrementally:

	d := hwlogic.New("counter.lgc", src, nil)
	tokens, err := d.Run(nil)
	...
	tokens, err = d.Click("en", "1")
	tokens, err = d.Tick(1)
	fmt.Print(hwlogic.Format(tokens))

*/
package hwlogic
