// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
)

// callable reports whether a bracket directly after e applies to e.
func callable(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Word:
		return !token.IsKeyword(e.Text)
	case *ast.Func, *ast.ListAccess, *ast.SyntaxChain:
		return true
	}
	return false
}

// GroupCalls merges every callable atom with a directly following
// ParenBlock into a Func and with a directly following ListBlock into a
// ListAccess. Merging repeats until nothing changes, so f(1)(2)[3] becomes
// a single atom. Argument runs stay raw.
func GroupCalls(atoms []ast.Expr) []ast.Expr {
	for {
		next, merged := mergeCalls(atoms)
		if !merged {
			return next
		}
		atoms = next
	}
}

func mergeCalls(atoms []ast.Expr) ([]ast.Expr, bool) {
	var (
		out    = make([]ast.Expr, 0, len(atoms))
		merged bool
	)
	for _, atom := range atoms {
		if n := len(out); n > 0 && callable(out[n-1]) {
			switch b := atom.(type) {
			case *ast.ParenBlock:
				out[n-1] = &ast.Func{Level: b.Level, Callee: out[n-1], Deferred: ast.Deferred{Raw: b.Raw}}
				merged = true
				continue
			case *ast.ListBlock:
				out[n-1] = &ast.ListAccess{Level: b.Level, Callee: out[n-1], Deferred: ast.Deferred{Raw: b.Raw}}
				merged = true
				continue
			}
		}
		out = append(out, atom)
	}
	return out, merged
}
