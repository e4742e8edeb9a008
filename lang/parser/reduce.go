// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
)

// Reduce performs one operator split. It picks the loosest binding
// operator of the run, ignoring operators directly preceded by another
// operator since those are in prefix position. Among equal priorities a
// left-associative operator picks the last occurrence and a
// right-associative one keeps the first, so a-b-c groups as (a-b)-c and
// a**b**c as a**(b**c). The run collapses into
//
//	Func{Callee: op, Args: [Item(left), Item(right)]}
//
// with both items raw. An empty left item marks prefix use. A run without
// a candidate operator is returned unchanged.
func Reduce(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	var (
		at   = -1
		best token.Operator
	)
	for i, atom := range atoms {
		op, ok := atom.(*ast.Operator)
		if !ok {
			continue
		}
		if i > 0 {
			if _, prefix := atoms[i-1].(*ast.Operator); prefix {
				continue
			}
		}
		info, ok := token.LookupOperator(op.Lexeme)
		if !ok {
			return nil, ErrUnknownOperator
		}
		switch {
		case at < 0, info.Priority < best.Priority:
			at, best = i, info
		case info.Priority == best.Priority && info.Assoc == token.Left:
			at, best = i, info
		}
	}
	if at < 0 {
		return atoms, nil
	}
	left := &ast.Item{Level: lv, Deferred: ast.Deferred{Raw: clone(atoms[:at])}}
	right := &ast.Item{Level: lv, Deferred: ast.Deferred{Raw: clone(atoms[at+1:])}}
	fn := &ast.Func{Level: lv, Callee: atoms[at], Args: []ast.Expr{left, right}}
	return []ast.Expr{fn}, nil
}

func clone(atoms []ast.Expr) []ast.Expr {
	if len(atoms) == 0 {
		return nil
	}
	out := make([]ast.Expr, len(atoms))
	copy(out, atoms)
	return out
}
