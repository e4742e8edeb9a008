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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-lichen/lang/engine"
	"github.com/probechain/go-lichen/lang/stdlib"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Flags:       httpFlags,
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// httpConfig configures the serve command.
type httpConfig struct {
	Addr      string
	Rate      float64 // requests per second, 0 = unlimited
	Burst     int
	Origins   []string
	MaxSource int64 // request body limit in bytes
}

var defaultHTTPConfig = httpConfig{
	Addr:      "127.0.0.1:8645",
	Rate:      20,
	Burst:     40,
	Origins:   []string{"*"},
	MaxSource: 1 << 20,
}

type lichencConfig struct {
	Engine engine.Config
	HTTP   httpConfig
}

func loadConfig(file string, cfg *lichencConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads defaults, then the config file, then applies flags.
func makeConfig(ctx *cli.Context) (lichencConfig, error) {
	cfg := lichencConfig{
		Engine: engine.DefaultConfig,
		HTTP:   defaultHTTPConfig,
	}
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEngineFlags(ctx, &cfg.Engine)
	applyHTTPFlags(ctx, &cfg.HTTP)
	return cfg, nil
}

func applyEngineFlags(ctx *cli.Context, cfg *engine.Config) {
	if ctx.GlobalIsSet(maxDepthFlag.Name) {
		cfg.MaxDepth = ctx.GlobalInt(maxDepthFlag.Name)
	}
	if ctx.GlobalIsSet(cacheDirFlag.Name) {
		cfg.CacheDir = ctx.GlobalString(cacheDirFlag.Name)
	}
	if ctx.GlobalIsSet(stepLimitFlag.Name) {
		cfg.StepLimit = ctx.GlobalUint64(stepLimitFlag.Name)
	}
	if ctx.GlobalBool(noVerifyFlag.Name) {
		cfg.Verify = false
	}
}

func applyHTTPFlags(ctx *cli.Context, cfg *httpConfig) {
	if ctx.IsSet(httpAddrFlag.Name) {
		cfg.Addr = ctx.String(httpAddrFlag.Name)
	}
	if ctx.IsSet(httpRateFlag.Name) {
		cfg.Rate = ctx.Float64(httpRateFlag.Name)
	}
	if ctx.IsSet(httpBurstFlag.Name) {
		cfg.Burst = ctx.Int(httpBurstFlag.Name)
	}
	if ctx.IsSet(httpOriginsFlag.Name) {
		cfg.Origins = ctx.StringSlice(httpOriginsFlag.Name)
	}
}

// makeEngine creates the engine described by the merged configuration.
func makeEngine(ctx *cli.Context) (*engine.Engine, lichencConfig) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		Fatalf("%v", err)
	}
	e, err := engine.New(cfg.Engine)
	if err != nil {
		Fatalf("Failed to create the compiler engine: %v", err)
	}
	stdlib.Register(e)
	return e, cfg
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	dump := io.Writer(os.Stdout)
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	return writeConfig(dump, &cfg)
}

func writeConfig(w io.Writer, cfg *lichencConfig) error {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
