// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
)

// Symbols lists what generated code refers to outside its own
// instructions: locals to declare, functions to import and whether linear
// memory is addressed.
type Symbols struct {
	Locals     []string
	Calls      []string
	UsesMemory bool
}

// Analyze collects the symbols of a resolved statement list.
func Analyze(stmts []ast.Stmt) *Symbols {
	nodes := make([]ast.Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return analyze(nodes)
}

// AnalyzeExprs collects the symbols of resolved expressions.
func AnalyzeExprs(exprs []ast.Expr) *Symbols {
	nodes := make([]ast.Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return analyze(nodes)
}

func analyze(nodes []ast.Node) *Symbols {
	var (
		locals  = mapset.NewSet()
		calls   = mapset.NewSet()
		callees = make(map[*ast.Word]bool)
		memory  bool
	)
	visit := func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Func:
			if w, ok := n.Callee.(*ast.Word); ok {
				callees[w] = true
				calls.Add(w.Text)
			}
		case *ast.Word:
			switch {
			case callees[n]:
			case n.Text == token.Memory:
				memory = true
			case isNumeric(n.Text), reserved(n.Text):
			default:
				locals.Add(n.Text)
			}
		}
		return true
	}
	for _, n := range nodes {
		ast.Inspect(n, visit)
	}
	return &Symbols{
		Locals:     sorted(locals),
		Calls:      sorted(calls),
		UsesMemory: memory,
	}
}

// LocalsExcept returns the locals that are not among params.
func (s *Symbols) LocalsExcept(params ...string) []string {
	skip := mapset.NewSet()
	for _, p := range params {
		skip.Add(p)
	}
	all := mapset.NewSet()
	for _, l := range s.Locals {
		all.Add(l)
	}
	return sorted(all.Difference(skip))
}

func sorted(set mapset.Set) []string {
	out := make([]string, 0, set.Cardinality())
	for _, v := range set.ToSlice() {
		out = append(out, v.(string))
	}
	sort.Strings(out)
	return out
}
