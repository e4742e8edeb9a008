// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package wat

import (
	"fmt"
	"strings"
)

// Import declares a host function imported into the module. All
// parameters and results are i32.
type Import struct {
	Module  string
	Name    string
	Params  int
	Results int
}

// Module is a single-function module skeleton around generated code.
type Module struct {
	Func        string
	Params      []string
	Result      bool
	Locals      []string
	Imports     []Import
	MemoryPages int
	Body        []Instr
}

// TestModule wraps body the way the generated code is exercised: one
// exported function main with i32 parameters a and b, one i32 result and a
// single page of linear memory.
func TestModule(body []Instr) *Module {
	return &Module{
		Func:        "main",
		Params:      []string{"a", "b"},
		Result:      true,
		MemoryPages: 1,
		Body:        body,
	}
}

// LookupImport returns the import named name.
func (m *Module) LookupImport(name string) (Import, bool) {
	for _, imp := range m.Imports {
		if imp.Name == name {
			return imp, true
		}
	}
	return Import{}, false
}

// String renders the module in WAT text form.
func (m *Module) String() string {
	var b strings.Builder
	b.WriteString("(module\n")
	for _, imp := range m.Imports {
		fmt.Fprintf(&b, "  (import %q %q (func %s%s))\n", imp.Module, imp.Name, Ident(imp.Name), signature(imp.Params, imp.Results))
	}
	if m.MemoryPages > 0 {
		fmt.Fprintf(&b, "  (memory (export \"memory\") %d)\n", m.MemoryPages)
	}
	fmt.Fprintf(&b, "  (func %s (export %q)", Ident(m.Func), m.Func)
	for _, p := range m.Params {
		fmt.Fprintf(&b, " (param %s i32)", Ident(p))
	}
	if m.Result {
		b.WriteString(" (result i32)")
	}
	b.WriteByte('\n')
	for _, l := range m.Locals {
		fmt.Fprintf(&b, "    (local %s i32)\n", Ident(l))
	}
	for _, line := range strings.Split(strings.TrimRight(Format(m.Body), "\n"), "\n") {
		if line == "" {
			continue
		}
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("  )\n)\n")
	return b.String()
}

func signature(params, results int) string {
	var b strings.Builder
	if params > 0 {
		b.WriteString(" (param")
		for i := 0; i < params; i++ {
			b.WriteString(" i32")
		}
		b.WriteByte(')')
	}
	if results > 0 {
		b.WriteString(" (result")
		for i := 0; i < results; i++ {
			b.WriteString(" i32")
		}
		b.WriteByte(')')
	}
	return b.String()
}
