// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
)

// SplitStatements cuts a tokenized run at every top-level ';'. A run whose
// first atom is a control keyword becomes a ControlStmt, any other
// non-empty run an ExprStmt. Comments are hoisted out of the run and kept
// as statements of their own, in front of the statement they were in. A
// trailing run without ';' is still a statement.
func SplitStatements(atoms []ast.Expr, lv ast.Level) []ast.Stmt {
	var (
		out []ast.Stmt
		run []ast.Expr
	)
	flush := func() {
		var body []ast.Expr
		for _, atom := range run {
			if c, ok := atom.(*ast.Comment); ok {
				out = append(out, c)
				continue
			}
			body = append(body, atom)
		}
		run = nil
		if len(body) == 0 {
			return
		}
		if w, ok := body[0].(*ast.Word); ok && token.IsControl(w.Text) {
			out = append(out, &ast.ControlStmt{Level: lv, Head: w.Text, Deferred: ast.Deferred{Raw: clone(body[1:])}})
			return
		}
		out = append(out, &ast.ExprStmt{Level: lv, Deferred: ast.Deferred{Raw: body}})
	}
	for _, atom := range atoms {
		if u, ok := atom.(*ast.Unknown); ok && u.Char == token.Semicolon {
			flush()
			continue
		}
		run = append(run, atom)
	}
	flush()
	return out
}
