// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/lexer"
	"github.com/probechain/go-lichen/lang/token"
)

// recursionFactor scales MaxDepth into the bound on nested sub-parses.
// Operator operands are parsed at the level of their operator, so a run
// of prefix operators nests sub-parses without raising the depth.
const recursionFactor = 4

// resolver carries the configuration through one resolve call. The parse
// context itself travels as an ast.Level argument.
type resolver struct {
	cfg  Config
	nest int // active parseExprs and parseStmts calls
}

// enter opens a sub-parse at lv. The returned function closes it.
func (r *resolver) enter(lv ast.Level) (func(), error) {
	if r.cfg.MaxDepth > 0 {
		if lv.Depth > r.cfg.MaxDepth || r.nest >= r.cfg.MaxDepth*recursionFactor {
			return nil, ErrNestingTooDeep
		}
	}
	r.nest++
	return func() { r.nest-- }, nil
}

// ---- Sub-parsers -----------------------------------------------------------

// parseExprs runs the expression pipeline over a raw run and resolves the
// result.
func (r *resolver) parseExprs(raw []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	leave, err := r.enter(lv)
	if err != nil {
		return nil, err
	}
	defer leave()
	relevel(raw, lv)
	atoms, err := lexer.Group(raw, lv)
	if err != nil {
		return nil, err
	}
	if atoms, err = structure(atoms, lv); err != nil {
		return nil, err
	}
	for _, atom := range atoms {
		if err := r.expr(atom); err != nil {
			return nil, err
		}
	}
	return atoms, nil
}

// parseStmts runs the statement pipeline over a raw run and resolves the
// result.
func (r *resolver) parseStmts(raw []ast.Expr, lv ast.Level) ([]ast.Stmt, error) {
	leave, err := r.enter(lv)
	if err != nil {
		return nil, err
	}
	defer leave()
	relevel(raw, lv)
	atoms, err := lexer.Group(raw, lv)
	if err != nil {
		return nil, err
	}
	stmts := SplitStatements(atoms, lv)
	for _, s := range stmts {
		if err := r.stmt(s); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

// structure recognizes the outer shape of a tokenized run: comments are
// dropped, then syntax chains, calls and one operator split are grouped.
func structure(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	kept := make([]ast.Expr, 0, len(atoms))
	for _, atom := range atoms {
		switch a := atom.(type) {
		case *ast.Comment:
			continue
		case *ast.Unknown:
			if token.IsSeparator(a.Char) {
				return nil, ErrUnexpectedSeparator
			}
		}
		kept = append(kept, atom)
	}
	atoms, err := GroupSyntax(kept, lv)
	if err != nil {
		return nil, err
	}
	return Reduce(GroupCalls(atoms), lv)
}

// ---- Dispatch --------------------------------------------------------------

// expr resolves one expression atom.
func (r *resolver) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Unknown, *ast.StringLit, *ast.Comment, *ast.Word, *ast.Operator:
		return nil

	case *ast.Block:
		return r.block(e, e.Level.Enter())

	case *ast.ParenBlock:
		if e.Resolved {
			return nil
		}
		contents, err := r.parseExprs(e.Raw, e.Level.Enter())
		if err != nil {
			return err
		}
		e.Contents = contents
		e.Settle()
		return nil

	case *ast.ListBlock:
		if e.Resolved {
			return nil
		}
		items, err := SplitArgs(e.Raw, e.Level.Enter())
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := r.expr(it); err != nil {
				return err
			}
		}
		e.Contents = items
		e.Settle()
		return nil

	case *ast.Item:
		if e.Resolved {
			return nil
		}
		contents, err := r.parseExprs(e.Raw, e.Level)
		if err != nil {
			return err
		}
		e.Contents = contents
		e.Settle()
		return nil

	case *ast.Func:
		if e.Resolved {
			return nil
		}
		if err := r.expr(e.Callee); err != nil {
			return err
		}
		if !e.IsOperation() {
			args, err := SplitArgs(e.Raw, e.Level.Enter())
			if err != nil {
				return err
			}
			e.Args = args
		}
		for _, arg := range e.Args {
			if err := r.expr(arg); err != nil {
				return err
			}
		}
		e.Settle()
		return nil

	case *ast.ListAccess:
		if e.Resolved {
			return nil
		}
		if err := r.expr(e.Callee); err != nil {
			return err
		}
		index, err := SplitArgs(e.Raw, e.Level.Enter())
		if err != nil {
			return err
		}
		for _, slot := range index {
			if err := r.expr(slot); err != nil {
				return err
			}
		}
		e.Index = index
		e.Settle()
		return nil

	case *ast.SyntaxClause:
		return r.clause(e)

	case *ast.SyntaxChain:
		for _, c := range e.Clauses {
			if err := r.clause(c); err != nil {
				return err
			}
		}
		return nil
	}
	return ErrUnexpectedNode
}

// clause resolves a condition as an expression and the body as statements.
// Bodies of loops run one loop level deeper.
func (r *resolver) clause(c *ast.SyntaxClause) error {
	if c.Cond != nil {
		if err := r.expr(c.Cond); err != nil {
			return err
		}
	}
	lv := c.Level.Enter()
	if token.IsLoop(c.Name) {
		lv = c.Level.EnterLoop()
	}
	return r.block(c.Body, lv)
}

func (r *resolver) block(b *ast.Block, lv ast.Level) error {
	if b.Resolved {
		return nil
	}
	body, err := r.parseStmts(b.Raw, lv)
	if err != nil {
		return err
	}
	b.Body = body
	b.Settle()
	return nil
}

// stmt resolves one statement.
func (r *resolver) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Comment:
		return nil

	case *ast.ExprStmt:
		if s.Resolved {
			return nil
		}
		exprs, err := r.statementExprs(s.Raw, s.Level)
		if err != nil {
			return err
		}
		s.Exprs = exprs
		s.Settle()
		return nil

	case *ast.ControlStmt:
		if s.Resolved {
			return nil
		}
		exprs, err := r.statementExprs(s.Raw, s.Level)
		if err != nil {
			return err
		}
		s.Exprs = exprs
		s.Settle()
		return nil
	}
	return ErrUnexpectedNode
}

// statementExprs structures an already tokenized statement run.
func (r *resolver) statementExprs(raw []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	atoms, err := structure(raw, lv)
	if err != nil {
		return nil, err
	}
	for _, atom := range atoms {
		if err := r.expr(atom); err != nil {
			return nil, err
		}
	}
	return atoms, nil
}
