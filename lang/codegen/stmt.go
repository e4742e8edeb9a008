// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
	"github.com/probechain/go-lichen/lang/wat"
)

func (g *Generator) stmt(s ast.Stmt) error {
	if err := resolved(s); err != nil {
		return err
	}
	switch s := s.(type) {
	case *ast.Comment:
		return nil
	case *ast.ExprStmt:
		return g.exprStmt(s.Exprs)
	case *ast.ControlStmt:
		return g.control(s)
	}
	return ErrDev
}

func (g *Generator) exprStmt(exprs []ast.Expr) error {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
	default:
		// let x / let mut x declare without emitting code
		if _, ok := declared(exprs); ok {
			return nil
		}
		return ErrInvalidShape
	}
	switch e := exprs[0].(type) {
	case *ast.SyntaxChain:
		return g.chain(e)
	case *ast.Func:
		op, ok := e.Callee.(*ast.Operator)
		if ok && token.IsAssignment(op.Lexeme) {
			return g.assign(op.Lexeme, e)
		}
		if !ok {
			return g.expr(e)
		}
	}
	// Blocks carry no result type, so only calls may stand alone in a body.
	if g.body > 0 {
		return ErrInvalidShape
	}
	return g.expr(exprs[0])
}

// blockBody lowers the statements of an if or while body.
func (g *Generator) blockBody(stmts []ast.Stmt) error {
	g.body++
	defer func() { g.body-- }()
	return g.Stmts(stmts)
}

// declared matches a declaration prefix: let x or let mut x.
func declared(exprs []ast.Expr) (string, bool) {
	words := make([]string, len(exprs))
	for i, e := range exprs {
		w, ok := e.(*ast.Word)
		if !ok {
			return "", false
		}
		words[i] = w.Text
	}
	switch {
	case len(words) == 2 && words[0] == token.Let:
	case len(words) == 3 && words[0] == token.Let && words[1] == token.Mut:
	default:
		return "", false
	}
	name := words[len(words)-1]
	if reserved(name) || isNumeric(name) || name == token.Memory {
		return "", false
	}
	return name, true
}

// ---- Assignment ------------------------------------------------------------

func (g *Generator) assign(lexeme string, f *ast.Func) error {
	left, right, err := operands(f)
	if err != nil {
		return err
	}
	if err := resolved(left); err != nil {
		return err
	}
	var base wat.Op
	if lexeme != token.ASSIGN {
		cb, _ := token.CompoundBase(lexeme)
		var ok bool
		if base, ok = binaryOps[cb]; !ok {
			return ErrInvalidOperation
		}
	}
	target := left.Contents

	if name, ok := declared(target); ok {
		if lexeme != token.ASSIGN {
			return ErrInvalidLeftPattern
		}
		return g.setLocal(name, nil, right)
	}
	if len(target) != 1 {
		return ErrInvalidLeftPattern
	}
	switch t := target[0].(type) {
	case *ast.Word:
		if reserved(t.Text) || isNumeric(t.Text) || t.Text == token.Memory {
			return ErrInvalidLeftPattern
		}
		if lexeme == token.ASSIGN {
			return g.setLocal(t.Text, nil, right)
		}
		return g.setLocal(t.Text, &base, right)

	case *ast.ListAccess:
		if _, nested := t.Callee.(*ast.ListAccess); nested {
			return ErrInvalidLeftPattern
		}
		if lexeme == token.ASSIGN {
			return g.store(t, nil, right)
		}
		return g.store(t, &base, right)
	}
	return ErrInvalidLeftPattern
}

// setLocal emits local = right, or local = local <op> right.
func (g *Generator) setLocal(name string, op *wat.Op, right *ast.Item) error {
	if op != nil {
		g.b.LocalGet(name)
	}
	if err := g.expr(right); err != nil {
		return err
	}
	if op != nil {
		g.b.Emit(*op)
	}
	g.b.LocalSet(name)
	return nil
}

// store emits __mem[i] = right, or __mem[i] = __mem[i] <op> right.
func (g *Generator) store(cell *ast.ListAccess, op *wat.Op, right *ast.Item) error {
	if err := g.memoryAddress(cell); err != nil {
		return err
	}
	if op != nil {
		if err := g.memoryAddress(cell); err != nil {
			return err
		}
		g.b.Emit(wat.OpI32Load)
	}
	if err := g.expr(right); err != nil {
		return err
	}
	if op != nil {
		g.b.Emit(*op)
	}
	g.b.Emit(wat.OpI32Store)
	return nil
}

// ---- Control ---------------------------------------------------------------

func (g *Generator) control(s *ast.ControlStmt) error {
	switch s.Head {
	case token.Return:
		switch len(s.Exprs) {
		case 0:
		case 1:
			if err := g.expr(s.Exprs[0]); err != nil {
				return err
			}
		default:
			return ErrInvalidShape
		}
		g.b.Emit(wat.OpReturn)
		return nil

	case token.Break, token.Continue:
		if len(s.Exprs) != 0 {
			return ErrInvalidShape
		}
		if s.LoopDepth < 1 {
			return ErrBreakOutsideLoop
		}
		if s.Head == token.Break {
			g.b.Br(wat.BlockLabel(s.LoopDepth - 1))
		} else {
			g.b.Br(wat.LoopLabel(s.LoopDepth - 1))
		}
		g.b.Emit(wat.OpUnreachable)
		return nil

	case token.Assert:
		if err := g.single(s.Exprs); err != nil {
			return err
		}
		g.b.Emit(wat.OpI32Eqz)
		g.b.If()
		g.b.Emit(wat.OpUnreachable)
		g.b.End()
		return nil
	}
	return ErrDev
}

// ---- Syntax chains ---------------------------------------------------------

func (g *Generator) chain(c *ast.SyntaxChain) error {
	if err := resolved(c); err != nil {
		return err
	}
	switch c.Head() {
	case token.If:
		return g.ifChain(c.Clauses)
	case token.While:
		if len(c.Clauses) != 1 {
			return ErrUnsupported
		}
		return g.while(c.Clauses[0])
	case token.For, token.Loop:
		return ErrUnsupported
	}
	return ErrDev
}

// ifChain emits cond if body [else cond if body]... [else body] followed by
// one end per conditional clause.
func (g *Generator) ifChain(clauses []*ast.SyntaxClause) error {
	opened := 0
	for i, c := range clauses {
		if i > 0 {
			g.b.Else()
		}
		switch c.Name {
		case token.If, token.Elif:
			if c.Cond == nil {
				return ErrDev
			}
			if err := g.expr(c.Cond); err != nil {
				return err
			}
			g.b.If()
			opened++
		case token.Else:
		default:
			return ErrDev
		}
		if err := g.blockBody(c.Body.Body); err != nil {
			return err
		}
	}
	for ; opened > 0; opened-- {
		g.b.End()
	}
	return nil
}

func (g *Generator) while(c *ast.SyntaxClause) error {
	if c.Cond == nil {
		return ErrDev
	}
	n := c.LoopDepth
	g.b.Loop(wat.LoopLabel(n))
	g.b.Block(wat.BlockLabel(n))
	if err := g.expr(c.Cond); err != nil {
		return err
	}
	g.b.Emit(wat.OpI32Eqz)
	g.b.BrIf(wat.BlockLabel(n))
	if err := g.blockBody(c.Body.Body); err != nil {
		return err
	}
	g.b.Br(wat.LoopLabel(n))
	g.b.End()
	g.b.End()
	return nil
}
