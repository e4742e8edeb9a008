// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/engine"
	"github.com/probechain/go-lichen/lang/lexer"
	"github.com/probechain/go-lichen/lang/parser"
)

const (
	historyFile = ".lichen_history"
	promptMain  = "> "
	promptCont  = ". "
)

var replCommand = cli.Command{
	Action:   repl,
	Name:     "repl",
	Usage:    "Start an interactive session",
	Category: "COMPILER COMMANDS",
	Description: `
Each input is compiled, run with the parameters set by :args (zero until
set) and its result printed. Input with an unclosed bracket, quotation or
block comment continues on the next line. Commands:

  :wat     toggle printing of the generated code
  :args    set the parameters, e.g. ":args 3,4"
  :quit    leave the session`,
}

var (
	errColor  = color.New(color.FgRed)
	codeColor = color.New(color.FgCyan)
)

// session is the state of one interactive session.
type session struct {
	engine  *engine.Engine
	args    []int32
	showWAT bool
	out     io.Writer
}

func repl(ctx *cli.Context) error {
	e, _ := makeEngine(ctx)
	defer e.Close()

	histPath := historyFile
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("lichen %s, type :quit to exit\n", engine.Version)
	s := &session{engine: e, out: os.Stdout}
	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if !s.eval(src) {
			return nil
		}
	}
}

// readInput reads lines until they form an input the lexer does not
// consider unfinished.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func incomplete(src string) bool {
	_, err := lexer.Scan(src, ast.Level{})
	return parser.IsIncomplete(err)
}

// eval handles one input and reports whether the session goes on.
func (s *session) eval(src string) bool {
	if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
		return s.command(cmd)
	}
	p, err := s.engine.Compile(src)
	if err != nil {
		errColor.Fprintln(s.out, err)
		return true
	}
	if s.showWAT {
		codeColor.Fprint(s.out, p.WAT)
	}
	res, err := s.engine.Run(context.Background(), p, s.args...)
	if res != nil {
		for _, v := range res.Logs {
			fmt.Fprintln(s.out, "log:", v)
		}
	}
	if err != nil {
		errColor.Fprintln(s.out, err)
		return true
	}
	fmt.Fprintln(s.out, res.Value)
	return true
}

func (s *session) command(cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q":
		return false
	case ":wat":
		s.showWAT = !s.showWAT
	case ":args":
		args, err := parseArgs(strings.Join(fields[1:], ""))
		if err != nil {
			errColor.Fprintln(s.out, err)
			break
		}
		s.args = args
	default:
		fmt.Fprintf(s.out, "unknown command %s\n", fields[0])
	}
	return true
}
