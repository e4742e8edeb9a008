// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the atom tree produced by the lichen front end.
//
// Design overview:
//
//   - There are three closed atom families: Char (a single source character
//     awaiting classification), Expr and Stmt. Each family is sealed by an
//     unexported marker method so type switches over it are total.
//   - Composite atoms are built in two phases. Bracket matching stores the
//     unparsed run in Deferred.Raw; resolution later replaces it with typed
//     children and flips Deferred.Resolved. A node never holds both.
//   - Every atom records the Level it lives at. Levels are values passed
//     down by copy into every sub-parse.
//   - String returns a canonical, whitespace-independent dump that tests
//     compare; Dump and Spew are diagnostic renderings only.
package ast

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Core interfaces
// ---------------------------------------------------------------------------

// Node is implemented by every atom.
type Node interface {
	// Nesting returns the level the atom was created at.
	Nesting() Level

	// String returns the canonical dump of the atom.
	String() string
}

// Char is the character-level atom family.
type Char interface {
	Node
	charNode()
}

// Expr is the expression-level atom family.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the statement-level atom family.
type Stmt interface {
	Node
	stmtNode()
}

// Composite is implemented by atoms whose content is parsed lazily.
type Composite interface {
	Node
	IsResolved() bool
}

// ---------------------------------------------------------------------------
// Level
// ---------------------------------------------------------------------------

// Level is the parse context threaded into every sub-parse: the bracket
// nesting depth and the number of enclosing loops.
type Level struct {
	Depth     int
	LoopDepth int
}

// Nesting returns l itself so that embedding Level satisfies Node.
func (l Level) Nesting() Level { return l }

// Relevel moves an atom to lv. Atoms grouped early inside a raw run are
// moved to the level of the run once it is parsed.
func (l *Level) Relevel(lv Level) { *l = lv }

// Enter returns the level for content one bracket deeper.
func (l Level) Enter() Level { return Level{Depth: l.Depth + 1, LoopDepth: l.LoopDepth} }

// EnterLoop returns the level for the body of a loop.
func (l Level) EnterLoop() Level { return Level{Depth: l.Depth + 1, LoopDepth: l.LoopDepth + 1} }

// Deferred holds the unparsed content of a composite atom.
type Deferred struct {
	Raw      []Expr
	Resolved bool
}

// IsResolved reports whether the raw content has been parsed.
func (d *Deferred) IsResolved() bool { return d.Resolved }

// Settle drops the raw content and marks the atom resolved.
func (d *Deferred) Settle() {
	d.Raw = nil
	d.Resolved = true
}

// ---------------------------------------------------------------------------
// Leaf atoms
// ---------------------------------------------------------------------------

// Unknown is a source character that has not been classified yet. No
// Unknown survives resolution.
type Unknown struct {
	Level
	Char rune
}

func (u *Unknown) charNode()      {}
func (u *Unknown) exprNode()      {}
func (u *Unknown) String() string { return strconv.QuoteRune(u.Char) }

// StringLit is a quoted string with escapes already applied.
type StringLit struct {
	Level
	Text string
}

func (s *StringLit) exprNode()      {}
func (s *StringLit) String() string { return strconv.Quote(s.Text) }

// Comment is a line or block comment. Comments are expressions while a run
// is being grouped and become statements when hoisted by the statement
// parser.
type Comment struct {
	Level
	Text  string
	Block bool
}

func (c *Comment) exprNode() {}
func (c *Comment) stmtNode() {}
func (c *Comment) String() string {
	if c.Block {
		return "/*" + c.Text + "*/"
	}
	return "//" + c.Text
}

// Word is an identifier, keyword or number.
type Word struct {
	Level
	Text string
}

func (w *Word) exprNode()      {}
func (w *Word) String() string { return w.Text }

// Operator is an operator lexeme found in the precedence table.
type Operator struct {
	Level
	Lexeme string
}

func (o *Operator) exprNode()      {}
func (o *Operator) String() string { return o.Lexeme }

// ---------------------------------------------------------------------------
// Composite atoms
// ---------------------------------------------------------------------------

// Block is a brace-delimited statement sequence.
type Block struct {
	Level
	Deferred
	Body []Stmt
}

func (b *Block) exprNode() {}
func (b *Block) String() string {
	if !b.Resolved {
		return "{" + joinExprs(b.Raw, " ") + "}"
	}
	return "{" + joinStmts(b.Body) + "}"
}

// ParenBlock is a parenthesized expression sequence.
type ParenBlock struct {
	Level
	Deferred
	Contents []Expr
}

func (p *ParenBlock) exprNode() {}
func (p *ParenBlock) String() string {
	if !p.Resolved {
		return "(" + joinExprs(p.Raw, " ") + ")"
	}
	return "(" + joinExprs(p.Contents, " ") + ")"
}

// ListBlock is a bracketed list literal. Once resolved, Contents holds one
// *Item per comma separated element.
type ListBlock struct {
	Level
	Deferred
	Contents []Expr
}

func (l *ListBlock) exprNode() {}
func (l *ListBlock) String() string {
	if !l.Resolved {
		return "[" + joinExprs(l.Raw, " ") + "]"
	}
	return "[" + joinExprs(l.Contents, ", ") + "]"
}

// Item is one operand slot: a side of a binary operator or one argument of
// a call. An empty Item on the left of an operator marks prefix use.
type Item struct {
	Level
	Deferred
	Contents []Expr
}

func (i *Item) exprNode() {}
func (i *Item) String() string {
	if !i.Resolved {
		return "<" + joinExprs(i.Raw, " ") + ">"
	}
	return "<" + joinExprs(i.Contents, " ") + ">"
}

// IsEmpty reports whether the item holds no atoms.
func (i *Item) IsEmpty() bool {
	if i.Resolved {
		return len(i.Contents) == 0
	}
	return len(i.Raw) == 0
}

// Func is a call. For operator applications the callee is an *Operator and
// Args holds exactly two *Item values; for calls Raw holds the argument
// run until it is split on commas.
type Func struct {
	Level
	Deferred
	Callee Expr
	Args   []Expr
}

func (f *Func) exprNode() {}
func (f *Func) String() string {
	if !f.Resolved && f.Args == nil {
		return f.Callee.String() + "(" + joinExprs(f.Raw, " ") + ")"
	}
	return f.Callee.String() + "(" + joinExprs(f.Args, ", ") + ")"
}

// IsOperation reports whether f applies an operator.
func (f *Func) IsOperation() bool {
	_, ok := f.Callee.(*Operator)
	return ok
}

// ListAccess is a subscript of a callable atom.
type ListAccess struct {
	Level
	Deferred
	Callee Expr
	Index  []Expr
}

func (l *ListAccess) exprNode() {}
func (l *ListAccess) String() string {
	if !l.Resolved {
		return l.Callee.String() + "[" + joinExprs(l.Raw, " ") + "]"
	}
	return l.Callee.String() + "[" + joinExprs(l.Index, ", ") + "]"
}

// SyntaxClause is one member of a control-flow chain: a syntax word, an
// optional parenthesized condition and a body.
type SyntaxClause struct {
	Level
	Name string
	Cond *ParenBlock // nil for else and loop
	Body *Block
}

func (s *SyntaxClause) exprNode() {}
func (s *SyntaxClause) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if s.Cond != nil {
		b.WriteString(s.Cond.String())
	}
	b.WriteString(s.Body.String())
	return b.String()
}

// IsResolved reports whether condition and body are parsed.
func (s *SyntaxClause) IsResolved() bool {
	return (s.Cond == nil || s.Cond.Resolved) && s.Body.Resolved
}

// SyntaxChain is a validated sequence of clauses such as if/elif/else or
// while/else.
type SyntaxChain struct {
	Level
	Clauses []*SyntaxClause
}

func (s *SyntaxChain) exprNode() {}
func (s *SyntaxChain) String() string {
	parts := make([]string, len(s.Clauses))
	for i, c := range s.Clauses {
		parts[i] = c.String()
	}
	return "chain[" + strings.Join(parts, " ") + "]"
}

// Head returns the syntax word of the first clause.
func (s *SyntaxChain) Head() string {
	if len(s.Clauses) == 0 {
		return ""
	}
	return s.Clauses[0].Name
}

// IsResolved reports whether every clause is parsed.
func (s *SyntaxChain) IsResolved() bool {
	for _, c := range s.Clauses {
		if !c.IsResolved() {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExprStmt is a statement made of one expression run.
type ExprStmt struct {
	Level
	Deferred
	Exprs []Expr
}

func (s *ExprStmt) stmtNode() {}
func (s *ExprStmt) String() string {
	if !s.Resolved {
		return joinExprs(s.Raw, " ") + ";"
	}
	return joinExprs(s.Exprs, " ") + ";"
}

// ControlStmt is a statement headed by return, break, continue or assert.
type ControlStmt struct {
	Level
	Deferred
	Head  string
	Exprs []Expr
}

func (s *ControlStmt) stmtNode() {}
func (s *ControlStmt) String() string {
	rest := s.Exprs
	if !s.Resolved {
		rest = s.Raw
	}
	if len(rest) == 0 {
		return s.Head + ";"
	}
	return s.Head + " " + joinExprs(rest, " ") + ";"
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func joinExprs(list []Expr, sep string) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func joinStmts(list []Stmt) string {
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// Exprs renders an expression sequence the way composite atoms render
// their children.
func Exprs(list []Expr) string { return joinExprs(list, " ") }

// Stmts renders a statement sequence.
func Stmts(list []Stmt) string { return joinStmts(list) }
