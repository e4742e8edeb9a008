// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/lexer"
	"github.com/probechain/go-lichen/lang/token"
)

// SplitArgs groups an argument run and splits it on top-level commas into
// one raw Item per slot. Every comma closes the slot before it, empty or
// not, while the text after the last comma forms a slot only when it is
// non-empty. So "" has no slots, "," and "a," have one, and "a,,b" has
// three.
func SplitArgs(raw []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	relevel(raw, lv)
	atoms, err := lexer.Group(raw, lv)
	if err != nil {
		return nil, err
	}
	var (
		items []ast.Expr
		slot  []ast.Expr
	)
	for _, atom := range atoms {
		if u, ok := atom.(*ast.Unknown); ok && u.Char == token.Comma {
			items = append(items, &ast.Item{Level: lv, Deferred: ast.Deferred{Raw: slot}})
			slot = nil
			continue
		}
		slot = append(slot, atom)
	}
	if len(slot) > 0 {
		items = append(items, &ast.Item{Level: lv, Deferred: ast.Deferred{Raw: slot}})
	}
	return items, nil
}

// relevel moves the top-level atoms of a raw run to lv.
func relevel(atoms []ast.Expr, lv ast.Level) {
	for _, atom := range atoms {
		if l, ok := atom.(interface{ Relevel(ast.Level) }); ok {
			l.Relevel(lv)
		}
	}
}
