// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hwlogic checks, lints and simulates design files.
//
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/hwlogic"
	"github.com/db47h/hwlogic/internal/config"
	"github.com/db47h/hwlogic/internal/lex"
	"github.com/db47h/hwlogic/internal/policy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const appName = "hwlogic"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(args))
	case "check":
		os.Exit(cmdCheck(args))
	case "sim":
		os.Exit(cmdSim(args))
	case "lint":
		os.Exit(cmdLint(args))
	case "init":
		os.Exit(cmdInit(args))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %[1]s run [-c config] [-v] <file%[2]s> [name=0|1 ...]   Evaluate a design and print it.
  %[1]s check [-c config] [-v] <file%[2]s>               Report diagnostics.
  %[1]s sim [-c config] [-v] <file%[2]s> [name=0|1 ...]   Simulate a design interactively.
  %[1]s lint [-c config] [-json] <file%[2]s>             Run lint rules.
  %[1]s init [-f]                                         Write a default %[3]s.
`, appName, hwlogic.Ext, config.FileName)
}

// env holds the flags shared by design commands.
type env struct {
	cfgPath string
	verbose bool
	cfg     *config.Config
	log     *logrus.Logger
}

func (e *env) flags(name string) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.StringVar(&e.cfgPath, "c", "", "configuration `file`")
	set.BoolVar(&e.verbose, "v", false, "debug logs")
	return set
}

// open loads the configuration and the design file.
func (e *env) open(file string) (*hwlogic.Design, error) {
	var err error
	if e.cfgPath != "" {
		e.cfg, err = config.LoadFile(e.cfgPath)
	} else {
		e.cfg, err = config.Load(filepath.Dir(file))
	}
	if err != nil {
		return nil, err
	}
	e.log = logrus.New()
	e.log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(e.cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if e.verbose {
		lvl = logrus.DebugLevel
	}
	e.log.SetLevel(lvl)
	if p := e.cfg.Path(); p != "" {
		e.log.WithField("path", p).Debug("configuration loaded")
	}

	var libs []fs.FS
	for _, dir := range e.cfg.LibraryDirs() {
		libs = append(libs, os.DirFS(dir))
	}
	return hwlogic.Open(file, &hwlogic.Options{
		Logger:    e.log,
		Libraries: libs,
		NoStdLib:  !*e.cfg.StdLib,
		TickLimit: e.cfg.TickLimit,
	})
}

// parseOverrides decodes name=0|1 and vector=bits arguments.
func parseOverrides(args []string) (map[string]bool, error) {
	m := make(map[string]bool)
	for _, a := range args {
		i := strings.IndexByte(a, '=')
		if i <= 0 {
			return nil, errors.Errorf("invalid override %q: expected name=value", a)
		}
		name, val := a[:i], a[i+1:]
		bits := []string{name}
		if strings.IndexByte(name, '[') >= 0 {
			v, err := lex.ParseVector(name)
			if err != nil {
				return nil, err
			}
			bits = v.Bits()
		}
		if len(val) != len(bits) || strings.Trim(val, "01") != "" {
			return nil, errors.Errorf("invalid value %q for %s", val, name)
		}
		for k, b := range bits {
			m[b] = val[k] == '1'
		}
	}
	return m, nil
}

// report prints err, Diagnostics one per line.
func report(err error) {
	if ds, ok := err.(hwlogic.Diagnostics); ok {
		for _, d := range ds {
			fmt.Fprintf(os.Stderr, "%s %s\n", red(d.Error()), dim("("+d.Category.String()+")"))
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", appName, red(err.Error()))
}

func cmdRun(args []string) int {
	var e env
	set := e.flags("run")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if set.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-c config] <file%s> [name=0|1 ...]\n", appName, hwlogic.Ext)
		return 2
	}
	ovr, err := parseOverrides(set.Args()[1:])
	if err != nil {
		report(err)
		return 2
	}
	d, err := e.open(set.Arg(0))
	if err != nil {
		report(err)
		return 1
	}
	ts, err := d.Run(ovr)
	if err != nil {
		report(err)
		return 1
	}
	fmt.Print(render(ts))
	return 0
}

func cmdCheck(args []string) int {
	var e env
	set := e.flags("check")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if set.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s check [-c config] <file%s>\n", appName, hwlogic.Ext)
		return 2
	}
	d, err := e.open(set.Arg(0))
	if err != nil {
		report(err)
		return 1
	}
	if _, err = d.Run(nil); err != nil {
		report(err)
		return 1
	}
	fmt.Printf("%s: %s\n", set.Arg(0), green("ok"))
	return 0
}

func cmdLint(args []string) int {
	var e env
	set := e.flags("lint")
	asJSON := set.Bool("json", false, "print violations as JSON")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if set.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s lint [-c config] [-json] <file%s>\n", appName, hwlogic.Ext)
		return 2
	}
	d, err := e.open(set.Arg(0))
	if err != nil {
		report(err)
		return 1
	}
	if _, err = d.Run(nil); err != nil {
		report(err)
		return 1
	}
	f, err := d.Facts()
	if err != nil {
		report(err)
		return 1
	}
	ctx := context.Background()
	eng, err := policy.New(ctx, e.cfg)
	if err != nil {
		report(err)
		return 1
	}
	r, err := eng.Evaluate(ctx, f)
	if err != nil {
		report(err)
		return 1
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			report(err)
			return 1
		}
	} else {
		for _, v := range r.Violations {
			fmt.Printf("%s: %s %s %s\n", set.Arg(0), severity(v.Severity), v.Message, dim("["+v.Rule+"]"))
		}
	}
	if r.Summary.Errors > 0 {
		return 1
	}
	return 0
}

func cmdInit(args []string) int {
	set := flag.NewFlagSet("init", flag.ContinueOnError)
	force := set.Bool("f", false, "overwrite an existing file")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if _, err := os.Stat(config.FileName); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s: %s already exists, use -f to overwrite\n", appName, config.FileName)
		return 1
	}
	cfg := config.DefaultConfig()
	for r, s := range policy.Rules {
		cfg.Lint.Rules[r] = s
	}
	if err := cfg.Save(config.FileName); err != nil {
		report(err)
		return 1
	}
	fmt.Printf("wrote %s\n", config.FileName)
	return 0
}
