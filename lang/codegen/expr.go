// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/token"
	"github.com/probechain/go-lichen/lang/wat"
)

// binaryOps maps operators with a direct i32 lowering.
var binaryOps = map[string]wat.Op{
	token.ADD: wat.OpI32Add,
	token.SUB: wat.OpI32Sub,
	token.MUL: wat.OpI32Mul,
	token.DIV: wat.OpI32DivS,
	token.REM: wat.OpI32RemS,
	token.AND: wat.OpI32And,
	token.OR:  wat.OpI32Or,
	token.NOT: wat.OpI32Xor,
	token.EQ:  wat.OpI32Eq,
	token.NEQ: wat.OpI32Ne,
	token.LT:  wat.OpI32LtS,
	token.GT:  wat.OpI32GtS,
	token.LTE: wat.OpI32LeS,
	token.GTE: wat.OpI32GeS,
}

// prefixIdentity holds the implicit left operand of operators that have a
// prefix form: -x is 0-x and !x is 1^x.
var prefixIdentity = map[string]int32{
	token.SUB: 0,
	token.NOT: 1,
}

func (g *Generator) expr(e ast.Expr) error {
	if err := resolved(e); err != nil {
		return err
	}
	switch e := e.(type) {
	case *ast.Word:
		return g.word(e)

	case *ast.ParenBlock:
		return g.single(e.Contents)

	case *ast.Item:
		return g.single(e.Contents)

	case *ast.Func:
		if e.IsOperation() {
			return g.operation(e)
		}
		return g.call(e)

	case *ast.ListAccess:
		if err := g.memoryAddress(e); err != nil {
			return err
		}
		g.b.Emit(wat.OpI32Load)
		return nil

	case *ast.StringLit, *ast.ListBlock, *ast.Block, *ast.SyntaxClause, *ast.SyntaxChain:
		return ErrUnsupported

	case *ast.Operator, *ast.Unknown, *ast.Comment:
		return ErrInvalidShape
	}
	return ErrDev
}

// single lowers a content list that must hold exactly one expression.
func (g *Generator) single(contents []ast.Expr) error {
	if len(contents) != 1 {
		return ErrInvalidShape
	}
	return g.expr(contents[0])
}

func (g *Generator) word(w *ast.Word) error {
	switch {
	case isNumeric(w.Text):
		v, err := ParseNumber(w.Text)
		if err != nil {
			return err
		}
		g.b.Const(v)
	case w.Text == token.Memory:
		return ErrUnsupported
	case reserved(w.Text):
		return ErrInvalidShape
	default:
		g.b.LocalGet(w.Text)
	}
	return nil
}

// operands returns the two items of an operator application.
func operands(f *ast.Func) (left, right *ast.Item, err error) {
	if len(f.Args) != 2 {
		return nil, nil, ErrDev
	}
	left, lok := f.Args[0].(*ast.Item)
	right, rok := f.Args[1].(*ast.Item)
	if !lok || !rok {
		return nil, nil, ErrDev
	}
	return left, right, nil
}

func (g *Generator) operation(f *ast.Func) error {
	op := f.Callee.(*ast.Operator)
	left, right, err := operands(f)
	if err != nil {
		return err
	}
	if token.IsAssignment(op.Lexeme) {
		// assignments produce no value
		return ErrInvalidShape
	}
	code, ok := binaryOps[op.Lexeme]
	if !ok {
		return ErrInvalidOperation
	}
	if left.IsEmpty() {
		identity, prefix := prefixIdentity[op.Lexeme]
		if !prefix {
			return ErrInvalidOperation
		}
		g.b.Const(identity)
	} else if err := g.expr(left); err != nil {
		return err
	}
	if err := g.expr(right); err != nil {
		return err
	}
	g.b.Emit(code)
	return nil
}

func (g *Generator) call(f *ast.Func) error {
	name, ok := f.Callee.(*ast.Word)
	if !ok || reserved(name.Text) || isNumeric(name.Text) || name.Text == token.Memory {
		return ErrUnsupported
	}
	for _, arg := range f.Args {
		if err := g.expr(arg); err != nil {
			return err
		}
	}
	g.b.Call(name.Text)
	return nil
}

// memoryAddress emits the address of a __mem[i] cell.
func (g *Generator) memoryAddress(l *ast.ListAccess) error {
	if err := resolved(l); err != nil {
		return err
	}
	name, ok := l.Callee.(*ast.Word)
	if !ok || name.Text != token.Memory {
		return ErrUnsupported
	}
	if len(l.Index) != 1 {
		return ErrInvalidShape
	}
	return g.expr(l.Index[0])
}
