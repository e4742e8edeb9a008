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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-lichen/internal/log"
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/engine"
	"github.com/probechain/go-lichen/lang/lexer"
)

// Emit stages of the build command.
const (
	emitWAT    = "wat"
	emitModule = "module"
	emitTokens = "tokens"
	emitAST    = "ast"
	emitSpew   = "spew"
)

var (
	emitFlag = cli.StringFlag{
		Name:  "emit",
		Usage: "Output stage: wat, module, tokens, ast or spew",
		Value: emitWAT,
	}
	outputFlag = cli.StringFlag{
		Name:  "output, o",
		Usage: "Write output to this file (one input) or directory (several inputs)",
	}
	argsFlag = cli.StringFlag{
		Name:  "args",
		Usage: "Comma separated i32 values for the parameters a and b",
	}

	buildCommand = cli.Command{
		Action:    build,
		Name:      "build",
		Usage:     "Compile lichen source files",
		ArgsUsage: "<file> [file...]",
		Flags:     []cli.Flag{emitFlag, outputFlag},
		Category:  "COMPILER COMMANDS",
		Description: `
Compiles every file concurrently and writes the requested stage. Without
--output the results are printed to standard output in argument order.`,
	}
	runCommand = cli.Command{
		Action:    run,
		Name:      "run",
		Usage:     "Compile and execute a lichen source file",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{argsFlag},
		Category:  "COMPILER COMMANDS",
	}
)

func build(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("no input files")
	}
	emit := ctx.String(emitFlag.Name)
	switch emit {
	case emitWAT, emitModule, emitTokens, emitAST, emitSpew:
	default:
		return fmt.Errorf("unknown emit stage %q", emit)
	}
	e, _ := makeEngine(ctx)
	defer e.Close()

	files := ctx.Args()
	outputs := make([][]byte, len(files))
	start := time.Now()

	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			src, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			out, err := render(e, emit, string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Compiled sources", "files", len(files), "emit", emit, "elapsed", time.Since(start))

	output := ctx.String("output")
	switch {
	case output == "":
		for _, out := range outputs {
			os.Stdout.Write(out)
		}
	case len(files) == 1:
		return os.WriteFile(output, outputs[0], 0644)
	default:
		if err := os.MkdirAll(output, 0755); err != nil {
			return err
		}
		for i, file := range files {
			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + "." + extension(emit)
			if err := os.WriteFile(filepath.Join(output, name), outputs[i], 0644); err != nil {
				return err
			}
		}
	}
	return nil
}

func extension(emit string) string {
	switch emit {
	case emitWAT, emitModule:
		return "wat"
	}
	return emit + ".txt"
}

// render produces one emit stage of src.
func render(e *engine.Engine, emit, src string) ([]byte, error) {
	switch emit {
	case emitTokens:
		atoms, err := lexer.Scan(src, ast.Level{})
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		writeTokens(&buf, atoms)
		return buf.Bytes(), nil

	case emitWAT:
		text, err := e.WAT(src)
		return []byte(text), err
	}

	p, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	switch emit {
	case emitModule:
		m, err := e.Module(p)
		if err != nil {
			return nil, err
		}
		return []byte(m.String()), nil
	case emitAST:
		var b strings.Builder
		for _, s := range p.Stmts {
			b.WriteString(ast.Dump(s))
		}
		return []byte(b.String()), nil
	default:
		nodes := make([]interface{}, len(p.Stmts))
		for i, s := range p.Stmts {
			nodes[i] = s
		}
		return []byte(ast.Spew(nodes...)), nil
	}
}

// writeTokens prints the lexed atoms as a table.
func writeTokens(w io.Writer, atoms []ast.Expr) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Kind", "Depth", "Loop", "Text"})
	table.SetAutoWrapText(false)
	for i, a := range atoms {
		lv := a.Nesting()
		table.Append([]string{
			strconv.Itoa(i),
			ast.KindName(a),
			strconv.Itoa(lv.Depth),
			strconv.Itoa(lv.LoopDepth),
			a.String(),
		})
	}
	table.Render()
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("run takes exactly one file")
	}
	args, err := parseArgs(ctx.String(argsFlag.Name))
	if err != nil {
		return err
	}
	e, _ := makeEngine(ctx)
	defer e.Close()

	file := ctx.Args().First()
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	p, err := e.Compile(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	res, err := e.Run(context.Background(), p, args...)
	if res != nil {
		for _, v := range res.Logs {
			fmt.Println("log:", v)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	log.Debug("Program finished", "file", file, "steps", res.Steps)
	fmt.Println(res.Value)
	return nil
}

// parseArgs reads a comma separated list of i32 values.
func parseArgs(s string) ([]int32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	if len(fields) > len(engine.EntryParams) {
		return nil, fmt.Errorf("at most %d arguments", len(engine.EntryParams))
	}
	args := make([]int32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %v", i+1, err)
		}
		args[i] = int32(v)
	}
	return args, nil
}
