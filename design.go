// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/db47h/hwlogic/internal/lex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTickLimit is the default maximum number of alternate clock passes
// after a click or tick.
//
const DefaultTickLimit = 64

// ErrNotRunning is returned by operations that need a successful Run.
//
var ErrNotRunning = errors.New("design is not running")

// Options configures a Design.
//
type Options struct {
	// Logger receives debug logs of parse passes, sub-design resolution and
	// simulation. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// FS is the file system holding the design and its neighbour files. If
	// nil, paths refer to the OS file system.
	FS fs.FS
	// Libraries are searched for sub-designs after the design's own
	// directory and #library directories.
	Libraries []fs.FS
	// NoStdLib disables the embedded standard library.
	NoStdLib bool
	// TickLimit bounds the number of alternate clock passes after a click or
	// tick. Defaults to DefaultTickLimit.
	TickLimit int
}

// A Design is a design file and its current generation: the statements and
// value store built by the last successful Run.
//
// A Design is not safe for concurrent use.
//
type Design struct {
	path  string
	src   string
	fsys  fs.FS
	fsTag string
	child bool
	log   logrus.FieldLogger
	ld    *loader
	prog  *program
	gen   *generation
}

// Open reads the design file at path.
//
func Open(path string, opts *Options) (*Design, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	var (
		src []byte
		err error
	)
	if o.FS != nil {
		src, err = fs.ReadFile(o.FS, path)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open design")
	}
	return New(path, string(src), &o), nil
}

// New returns a design with the given source. Path is used to resolve
// sub-designs and may name a file that does not exist.
//
func New(path string, src string, opts *Options) *Design {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.TickLimit <= 0 {
		o.TickLimit = DefaultTickLimit
	}
	d := &Design{
		path: path,
		src:  src,
		fsys: o.FS,
		log:  o.Logger.WithField("design", path),
	}
	if o.FS != nil {
		d.fsTag = "fs"
	}
	d.ld = &loader{
		log:   o.Logger,
		libs:  o.Libraries,
		std:   !o.NoStdLib,
		limit: o.TickLimit,
	}
	return d
}

// Path returns the path of the design file.
//
func (d *Design) Path() string {
	return d.path
}

// Source returns the design source.
//
func (d *Design) Source() string {
	return d.src
}

// SetSource replaces the design source. The next Run parses the new source.
//
func (d *Design) SetSource(src string) {
	d.src = src
	d.prog = nil
}

// Reload reads the design file again.
//
func (d *Design) Reload() error {
	var (
		src []byte
		err error
	)
	if d.fsys != nil {
		src, err = fs.ReadFile(d.fsys, d.path)
	} else {
		src, err = os.ReadFile(d.path)
	}
	if err != nil {
		return errors.Wrap(err, "reload design")
	}
	d.SetSource(string(src))
	return nil
}

func (d *Design) name() string {
	if d.prog != nil && d.prog.header != nil {
		return d.prog.header.Name
	}
	return d.path
}

func (d *Design) key() string {
	if d.fsys == nil {
		return "os:" + filepath.Clean(d.path)
	}
	return d.fsTag + ":" + path.Clean(d.path)
}

// compile validates the source if needed.
func (d *Design) compile() error {
	if d.prog != nil {
		return nil
	}
	p, diags := compile(d.src)
	if diags != nil {
		return diags
	}
	d.prog = p
	return nil
}

// Header returns the module declaration of the design, or nil if it has
// none.
//
func (d *Design) Header() (*Header, error) {
	if err := d.compile(); err != nil {
		return nil, err
	}
	return d.prog.header, nil
}

// Run parses the design source and builds a new generation, replacing the
// current one. Independent variables named in overrides start with the given
// value. On failure, the returned error is of type Diagnostics for problems
// in the source.
//
func (d *Design) Run(overrides map[string]bool) ([]Token, error) {
	d.gen = nil
	d.prog = nil
	d.ld.cache = map[string]*Design{}
	if err := d.compile(); err != nil {
		return nil, err
	}
	d.ld.cache[d.key()] = d
	g, diags := d.generate(overrides)
	if diags != nil {
		d.log.WithField("diagnostics", len(diags)).Debug("parse failed")
		return nil, diags
	}
	for n := range overrides {
		if !g.store.Has(n) || g.store.IsDependent(n) {
			d.log.WithField("variable", n).Warn("override ignored: not an input")
		}
	}
	d.gen = g
	return g.render(), nil
}

// Tokens renders the current generation.
//
func (d *Design) Tokens() []Token {
	if d.gen == nil {
		return nil
	}
	return d.gen.render()
}

// Statements returns the statements of the current generation.
//
func (d *Design) Statements() []*Statement {
	if d.gen == nil {
		return nil
	}
	return d.gen.stmts
}

// Store returns the value store of the current generation.
//
func (d *Design) Store() *Store {
	if d.gen == nil {
		return nil
	}
	return d.gen.store
}

// Value returns the value of a variable in the current generation.
//
func (d *Design) Value(name string) int {
	if d.gen == nil {
		return Unknown
	}
	return d.gen.store.Value(name)
}

// Click sets independent variables. Vars is a space separated list of names
// and vectors; next is the new value as a binary string, most significant
// bit first. If next is empty, the group is incremented (a single bit is
// toggled).
//
func (d *Design) Click(vars string, next string) ([]Token, error) {
	if d.gen == nil {
		return nil, ErrNotRunning
	}
	g := d.gen
	ts, err := lex.Tokenize(vars)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range ts {
		cs, err := g.x.Operand(t)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if c.Kind != lex.Ident {
				return nil, errors.Errorf("cannot click %s", t.Text)
			}
			names = append(names, c.Text)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("nothing to click")
	}
	for _, n := range names {
		if !g.store.Has(n) {
			return nil, errors.Errorf("unknown variable %s", n)
		}
		if g.store.IsDependent(n) {
			return nil, errors.Errorf("%s is not an input", n)
		}
	}
	v, _ := groupValue(g.store, names)
	if next == "" {
		v++
	} else {
		var ok bool
		if v, ok = parseBinary(next); !ok || len(next) != len(names) {
			return nil, errors.Errorf("invalid value %q for %d bits", next, len(names))
		}
	}
	for i, n := range names {
		if err := g.store.SetValue(n, int(v>>uint(len(names)-1-i)&1)); err != nil {
			d.log.WithError(err).WithField("variable", n).Error("click")
			return g.render(), err
		}
	}
	d.log.WithFields(logrus.Fields{"vars": vars, "value": binary(v, len(names))}).Debug("click")
	if err := g.settle(d.ld.limit); err != nil {
		return g.render(), err
	}
	return g.render(), nil
}

// Tick runs count clock cycles. Each cycle commits the next value of all
// registers without an alternate clock, simultaneously.
//
func (d *Design) Tick(count int) ([]Token, error) {
	if d.gen == nil {
		return nil, ErrNotRunning
	}
	for i := 0; i < count; i++ {
		if err := d.gen.tick(); err != nil {
			return d.gen.render(), err
		}
		if err := d.gen.settle(d.ld.limit); err != nil {
			return d.gen.render(), err
		}
	}
	d.log.WithField("count", count).Debug("tick")
	return d.gen.render(), nil
}

// Execute runs a private parse of the design with the given input values
// and returns the values of its output bits. The current generation is not
// affected.
//
func (d *Design) Execute(inputs map[string]bool) (map[string]int, error) {
	if err := d.compile(); err != nil {
		return nil, err
	}
	h := d.prog.header
	if h == nil {
		return nil, errors.Errorf("%s has no module header", d.path)
	}
	if d.ld.cache == nil {
		d.ld.cache = map[string]*Design{d.key(): d}
	}
	g, diags := d.generate(inputs)
	if diags != nil {
		return nil, diags
	}
	r := make(map[string]int)
	for _, b := range h.OutputBits() {
		r[b] = g.store.Value(b)
	}
	return r, nil
}

// Close releases the current generation.
//
func (d *Design) Close() {
	d.gen = nil
}
