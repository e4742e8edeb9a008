// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// Package codegen lowers resolved lichen trees to WAT instructions.
//
// The generator emits a flat function body. It never declares locals,
// imports or memory; Analyze reports what a module skeleton around the body
// has to provide.
//
// Loops use two labels derived from the loop depth n of the while clause:
//
//	loop $L<n>        ;; continue target
//	  block $B<n>     ;; break target
//	    <cond> i32.eqz br_if $B<n>
//	    <body>
//	    br $L<n>
//	  end
//	end
//
// A break or continue sits one loop level deeper than the clause that
// declared the labels, so it branches to $B<n-1> or $L<n-1> of its own
// loop depth n.
package codegen

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/token"
	"github.com/probechain/go-lichen/lang/wat"
)

var (
	// ErrInvalidNumber is returned for a word that starts with a digit but
	// is not an i32 literal.
	ErrInvalidNumber = diag.New(diag.Generate, "codegen: invalid number literal")

	// ErrInvalidOperation is returned for an operator that has no WAT
	// lowering, or a binary operator used in prefix position.
	ErrInvalidOperation = diag.New(diag.Generate, "codegen: operator can not be lowered")

	// ErrInvalidLeftPattern is returned when the target of an assignment is
	// neither a local nor a single-level memory cell.
	ErrInvalidLeftPattern = diag.New(diag.Generate, "codegen: invalid assignment target")

	// ErrUnsupported is returned for constructs that parse but have no
	// lowering: for and loop clauses, while with else, string and list
	// literals, indexing anything but linear memory, and calls through
	// anything but a name.
	ErrUnsupported = diag.New(diag.Generate, "codegen: construct not supported")

	// ErrBreakOutsideLoop is returned for break or continue with no
	// enclosing loop.
	ErrBreakOutsideLoop = diag.New(diag.Generate, "codegen: break or continue outside loop")

	// ErrInvalidShape is returned when an expression position does not hold
	// exactly one value, or when an if or while body leaves a value behind.
	ErrInvalidShape = diag.New(diag.Shape, "codegen: expression does not reduce to one value")

	// ErrDev is returned for node configurations the parser never produces,
	// such as unresolved composites or operations without two operands.
	ErrDev = diag.New(diag.Internal, "codegen: unexpected node configuration")
)

// Generator translates resolved statements and expressions to WAT.
type Generator struct {
	b    *wat.Builder
	body int // enclosing if and while bodies
}

// New creates a new generator.
func New() *Generator {
	return &Generator{b: wat.NewBuilder()}
}

// Code returns the instructions generated so far.
func (g *Generator) Code() []wat.Instr {
	return g.b.Code()
}

// Stmts lowers a statement list.
func (g *Generator) Stmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// Expr lowers a single expression that leaves one value on the stack.
func (g *Generator) Expr(e ast.Expr) error {
	return g.expr(e)
}

// Stmts lowers a resolved statement list to a function body.
func Stmts(stmts []ast.Stmt) ([]wat.Instr, error) {
	g := New()
	if err := g.Stmts(stmts); err != nil {
		return nil, err
	}
	return g.Code(), nil
}

// Exprs lowers the result of an expression parse, which must hold exactly
// one expression.
func Exprs(exprs []ast.Expr) ([]wat.Instr, error) {
	if len(exprs) != 1 {
		return nil, ErrInvalidShape
	}
	g := New()
	if err := g.Expr(exprs[0]); err != nil {
		return nil, err
	}
	return g.Code(), nil
}

// resolved fails on composites the parser left raw.
func resolved(n ast.Node) error {
	if c, ok := n.(ast.Composite); ok && !c.IsResolved() {
		return ErrDev
	}
	return nil
}

// reserved reports whether a word can never name a local or a function.
func reserved(w string) bool {
	return token.IsKeyword(w) || w == token.Let || w == token.Mut
}
