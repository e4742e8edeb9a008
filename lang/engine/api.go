// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package engine

import (
	"context"
	"errors"

	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/wat"
)

// Version is the lichen toolchain version.
const Version = "0.1.0"

// API exposes compile and run operations with JSON friendly results.
type API struct {
	engine *Engine
}

// NewAPI creates an API backed by e.
func NewAPI(e *Engine) *API {
	return &API{engine: e}
}

// CompileResult contains the output of compiling lichen source.
type CompileResult struct {
	Hash    string   `json:"hash,omitempty"`
	WAT     string   `json:"wat,omitempty"`
	Module  string   `json:"module,omitempty"`
	Locals  []string `json:"locals,omitempty"`
	Calls   []string `json:"calls,omitempty"`
	Success bool     `json:"success"`
	Kind    string   `json:"kind,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// RunResult contains the output of running lichen source.
type RunResult struct {
	Value   int32   `json:"value"`
	Steps   uint64  `json:"steps"`
	Logs    []int32 `json:"logs,omitempty"`
	Success bool    `json:"success"`
	Kind    string  `json:"kind,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Compile compiles src as statements. Language errors are reported in the
// result, not returned.
func (api *API) Compile(_ context.Context, src string) *CompileResult {
	p, err := api.engine.Compile(src)
	if err != nil {
		return &CompileResult{Kind: diag.KindOf(err).String(), Error: err.Error()}
	}
	m, err := api.engine.Module(p)
	if err != nil {
		return &CompileResult{Hash: p.Key.Hex(), WAT: p.WAT, Kind: diag.KindOf(err).String(), Error: err.Error()}
	}
	return &CompileResult{
		Hash:    p.Key.Hex(),
		WAT:     p.WAT,
		Module:  m.String(),
		Locals:  m.Locals,
		Calls:   p.Symbols.Calls,
		Success: true,
	}
}

// Run compiles and runs src with the entry arguments args.
func (api *API) Run(ctx context.Context, src string, args []int32) *RunResult {
	p, err := api.engine.Compile(src)
	if err != nil {
		return &RunResult{Kind: diag.KindOf(err).String(), Error: err.Error()}
	}
	res, err := api.engine.Run(ctx, p, args...)
	if err != nil {
		out := &RunResult{Error: err.Error(), Kind: diag.KindOf(err).String()}
		if res != nil {
			out.Steps, out.Logs = res.Steps, res.Logs
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			out.Kind = diag.Runtime.String()
		}
		return out
	}
	return &RunResult{Value: res.Value, Steps: res.Steps, Logs: res.Logs, Success: true}
}

// Format reindents WAT instruction text.
func (api *API) Format(_ context.Context, text string) (string, error) {
	code, err := wat.Parse(text)
	if err != nil {
		return "", err
	}
	return wat.Format(code), nil
}

// Version returns the toolchain version.
func (api *API) Version(_ context.Context) string {
	return Version
}
