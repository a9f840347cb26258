// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/db47h/hwlogic"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	historyFile = ".hwlogic_history"
	prompt      = "hw> "
)

const simHelp = `Commands:
  click var... [bits]   set inputs to bits, or increment them
  set name=bits...      set inputs
  tick [n]              run n clock cycles (default 1)
  show                  print the design
  reload                read the design file again and restart
  :quit                 exit
`

// sim is an interactive simulation session.
type sim struct {
	d   *hwlogic.Design
	ovr map[string]bool
}

func cmdSim(args []string) (ret int) {
	var e env
	set := e.flags("sim")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if set.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s sim [-c config] <file%s> [name=0|1 ...]\n", appName, hwlogic.Ext)
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
	s := &sim{d: d, ovr: ovr}
	if err := s.exec("reload"); err != nil {
		report(err)
		return 1
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(s.complete)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if err != nil {
			report(err)
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if line == ":quit" {
			return 0
		}
		if err := s.exec(line); err != nil {
			report(err)
		}
	}
}

// exec runs a single REPL command.
func (s *sim) exec(line string) error {
	f := strings.Fields(line)
	cmd, args := f[0], f[1:]
	var (
		ts  []hwlogic.Token
		err error
	)
	switch cmd {
	case "click":
		if len(args) == 0 {
			return errors.New("usage: click var... [bits]")
		}
		next := ""
		if n := len(args); n > 1 && strings.Trim(args[n-1], "01") == "" {
			next, args = args[n-1], args[:n-1]
		}
		ts, err = s.d.Click(strings.Join(args, " "), next)
	case "set":
		if len(args) == 0 {
			return errors.New("usage: set name=bits...")
		}
		for _, a := range args {
			i := strings.IndexByte(a, '=')
			if i <= 0 {
				return errors.Errorf("invalid assignment %q", a)
			}
			if ts, err = s.d.Click(a[:i], a[i+1:]); err != nil {
				break
			}
		}
	case "tick":
		n := 1
		if len(args) > 0 {
			if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
				return errors.Errorf("invalid tick count %q", args[0])
			}
		}
		ts, err = s.d.Tick(n)
	case "show":
		ts = s.d.Tokens()
	case "reload":
		if err = s.d.Reload(); err != nil {
			return err
		}
		ts, err = s.d.Run(s.ovr)
	case "help", "?":
		fmt.Print(simHelp)
		return nil
	default:
		return errors.Errorf("unknown command %q, type help", cmd)
	}
	if ts != nil {
		fmt.Print(render(ts))
	}
	return err
}

// complete completes commands and input variable names.
func (s *sim) complete(line string) []string {
	cmds := []string{"click ", "set ", "tick ", "show", "reload", "help", ":quit"}
	i := strings.LastIndexByte(line, ' ')
	if i < 0 {
		var r []string
		for _, c := range cmds {
			if strings.HasPrefix(c, line) {
				r = append(r, c)
			}
		}
		return r
	}
	st := s.d.Store()
	if st == nil {
		return nil
	}
	head, word := line[:i+1], line[i+1:]
	var r []string
	for _, n := range st.Names() {
		if !st.IsDependent(n) && strings.HasPrefix(n, word) {
			r = append(r, head+n)
		}
	}
	return r
}
