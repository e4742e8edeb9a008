// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
)

// GroupSyntax recognizes syntax clauses (a syntax word, an optional
// parenthesized condition and a block) and merges consecutive clauses into
// chains. A chain starts at if, while, for or loop; elif may only follow
// an if chain and else ends any chain except loop.
func GroupSyntax(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	clauses, err := groupClauses(atoms, lv)
	if err != nil {
		return nil, err
	}
	return groupChains(clauses, lv)
}

func groupClauses(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(atoms))
	for i := 0; i < len(atoms); i++ {
		w, ok := atoms[i].(*ast.Word)
		if !ok || !token.IsSyntaxWord(w.Text) {
			out = append(out, atoms[i])
			continue
		}
		clause := &ast.SyntaxClause{Level: lv, Name: w.Text}
		if token.HasCondition(w.Text) {
			if i+1 >= len(atoms) {
				return nil, ErrMissingCondition
			}
			cond, ok := atoms[i+1].(*ast.ParenBlock)
			if !ok {
				return nil, ErrMissingCondition
			}
			clause.Cond = cond
			i++
		}
		if i+1 >= len(atoms) {
			return nil, ErrMissingBody
		}
		body, ok := atoms[i+1].(*ast.Block)
		if !ok {
			return nil, ErrMissingBody
		}
		clause.Body = body
		i++
		out = append(out, clause)
	}
	return out, nil
}

func groupChains(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	var (
		out  = make([]ast.Expr, 0, len(atoms))
		open *ast.SyntaxChain
	)
	closeChain := func() {
		if open != nil {
			out = append(out, open)
			open = nil
		}
	}
	for _, atom := range atoms {
		clause, ok := atom.(*ast.SyntaxClause)
		if !ok {
			closeChain()
			out = append(out, atom)
			continue
		}
		if token.IsChainHead(clause.Name) {
			closeChain()
			open = &ast.SyntaxChain{Level: lv, Clauses: []*ast.SyntaxClause{clause}}
			continue
		}
		if open == nil {
			return nil, ErrOrphanClause
		}
		switch clause.Name {
		case token.Elif:
			if open.Head() != token.If {
				return nil, ErrClauseOrder
			}
			open.Clauses = append(open.Clauses, clause)
		case token.Else:
			if open.Head() == token.Loop {
				return nil, ErrClauseOrder
			}
			open.Clauses = append(open.Clauses, clause)
			closeChain()
		default:
			return nil, ErrClauseOrder
		}
	}
	closeChain()
	return out, nil
}
