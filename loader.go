// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlogic

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/db47h/hwlogic/hwlib"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Ext is the file extension of design files.
//
const Ext = ".lgc"

// loader resolves and caches sub-designs. It is shared by a top-level design
// and all its sub-designs.
//
type loader struct {
	log    logrus.FieldLogger
	libs   []fs.FS
	std    bool
	limit  int
	cache  map[string]*Design
	active []*Design
}

// source is a candidate location for a sub-design file.
type source struct {
	key  string // cache key
	fsys fs.FS  // nil for the OS file system
	tag  string // file system tag, prefix of key
	path string
}

func (s source) read() ([]byte, error) {
	if s.fsys == nil {
		return os.ReadFile(s.path)
	}
	if !fs.ValidPath(s.path) {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(s.fsys, s.path)
}

func fsSource(tag string, fsys fs.FS, p string) source {
	p = path.Clean(p)
	return source{key: tag + ":" + p, fsys: fsys, tag: tag, path: p}
}

// candidates returns the possible locations of module, in search order:
// beside the instantiating file, in the file's #library directories, in the
// configured libraries, then in the standard library.
func (l *loader) candidates(from *Design, module string) []source {
	file := module + Ext
	var r []source
	if from.fsys == nil {
		dir := filepath.Dir(from.path)
		p := filepath.Join(dir, file)
		r = append(r, source{key: "os:" + p, path: p})
		for _, lib := range from.prog.libs {
			if !filepath.IsAbs(lib) {
				lib = filepath.Join(dir, lib)
			}
			p := filepath.Join(lib, file)
			r = append(r, source{key: "os:" + p, path: p})
		}
	} else {
		dir := path.Dir(from.path)
		r = append(r, fsSource(from.fsTag, from.fsys, path.Join(dir, file)))
		for _, lib := range from.prog.libs {
			r = append(r, fsSource(from.fsTag, from.fsys, path.Join(dir, strings.TrimPrefix(lib, "/"), file)))
		}
	}
	for i, lib := range l.libs {
		r = append(r, fsSource("lib"+strconv.Itoa(i), lib, file))
	}
	if l.std {
		r = append(r, fsSource("std", hwlib.FS, file))
	}
	return r
}

// resolve finds, loads and compiles the sub-design implementing module.
func (l *loader) resolve(from *Design, module string) (*Design, error) {
	for _, c := range l.candidates(from, module) {
		if d, ok := l.cache[c.key]; ok {
			return d, nil
		}
		src, err := c.read()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
				continue
			}
			return nil, errorf(Resolution, "load %s: %v", c.path, err)
		}
		d := &Design{
			path:  c.path,
			src:   string(src),
			fsys:  c.fsys,
			fsTag: c.tag,
			child: true,
			ld:    l,
			log:   l.log.WithField("design", c.path),
		}
		prog, diags := compile(d.src)
		if diags != nil {
			for _, dg := range diags {
				dg.File = c.path
			}
			return nil, diags
		}
		d.prog = prog
		l.cache[c.key] = d
		l.log.WithFields(logrus.Fields{"module": module, "path": c.path}).Debug("resolved sub-design")
		return d, nil
	}
	return nil, errorf(Resolution, "cannot find module %s", module)
}

// enter pushes d on the resolution stack. It fails if d is already being
// generated, which means that d instantiates itself.
func (l *loader) enter(d *Design) error {
	for i, a := range l.active {
		if a == d {
			var names []string
			for _, x := range l.active[i:] {
				names = append(names, x.name())
			}
			names = append(names, d.name())
			return errorf(Resolution, "instantiation cycle: %s", strings.Join(names, " -> "))
		}
	}
	l.active = append(l.active, d)
	return nil
}

func (l *loader) leave(d *Design) {
	if n := len(l.active); n > 0 && l.active[n-1] == d {
		l.active = l.active[:n-1]
	}
}
