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

// lichenc is the command line front end of the lichen compiler.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-lichen/internal/log"
	"github.com/probechain/go-lichen/lang/engine"
)

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	originsFlag = cli.BoolFlag{
		Name:  "log.origins",
		Usage: "Print the call site of every log line",
	}
	maxDepthFlag = cli.IntFlag{
		Name:  "maxdepth",
		Usage: "Maximum bracket nesting depth (0 = unlimited)",
		Value: engine.DefaultConfig.MaxDepth,
	}
	cacheDirFlag = cli.StringFlag{
		Name:  "cachedir",
		Usage: "Directory of the persistent WAT store",
	}
	stepLimitFlag = cli.Uint64Flag{
		Name:  "steplimit",
		Usage: "Interpreter steps allowed per run",
		Value: engine.DefaultConfig.StepLimit,
	}
	noVerifyFlag = cli.BoolFlag{
		Name:  "noverify",
		Usage: "Skip structural verification of generated code",
	}
)

var app = newApp()

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "lichenc"
	app.Usage = "the lichen to WebAssembly text compiler"
	app.Version = engine.Version
	app.Copyright = "Copyright 2024 The ProbeChain Authors"
	app.Flags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		originsFlag,
		maxDepthFlag,
		cacheDirFlag,
		stepLimitFlag,
		noVerifyFlag,
	}
	app.Commands = []cli.Command{
		buildCommand,
		runCommand,
		replCommand,
		serveCommand,
		dumpConfigCommand,
	}
	app.Before = setupLogging
	return app
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes the root logger to stderr at the requested
// verbosity, in colour when stderr is a terminal.
func setupLogging(ctx *cli.Context) error {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	lvl := log.Lvl(ctx.GlobalInt(verbosityFlag.Name))
	log.PrintOrigins(ctx.GlobalBool(originsFlag.Name))
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(output, log.TerminalFormat(usecolor))))
	return nil
}

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
