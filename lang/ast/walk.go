// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

// Children returns the direct children of n. Unresolved composites report
// their raw run; resolved ones report their typed content.
func Children(n Node) []Node {
	var out []Node
	addExprs := func(list []Expr) {
		for _, e := range list {
			out = append(out, e)
		}
	}
	switch n := n.(type) {
	case *Block:
		if !n.Resolved {
			addExprs(n.Raw)
			break
		}
		for _, s := range n.Body {
			out = append(out, s)
		}
	case *ParenBlock:
		addExprs(n.Raw)
		addExprs(n.Contents)
	case *ListBlock:
		addExprs(n.Raw)
		addExprs(n.Contents)
	case *Item:
		addExprs(n.Raw)
		addExprs(n.Contents)
	case *Func:
		out = append(out, n.Callee)
		addExprs(n.Raw)
		addExprs(n.Args)
	case *ListAccess:
		out = append(out, n.Callee)
		addExprs(n.Raw)
		addExprs(n.Index)
	case *SyntaxClause:
		if n.Cond != nil {
			out = append(out, n.Cond)
		}
		out = append(out, n.Body)
	case *SyntaxChain:
		for _, c := range n.Clauses {
			out = append(out, c)
		}
	case *ExprStmt:
		addExprs(n.Raw)
		addExprs(n.Exprs)
	case *ControlStmt:
		addExprs(n.Raw)
		addExprs(n.Exprs)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order, calling f
// for every node. If f returns false the children of that node are
// skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
