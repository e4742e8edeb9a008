// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package parser builds the lichen atom tree.
//
// Parsing is lazy. A parse of one run only recognizes the outermost
// structure: syntax clauses and chains, calls and subscripts, and a single
// operator split. Composite atoms keep their content raw until Resolve
// reaches them, at which point the same pipeline runs again on the content
// one level deeper:
//
//	Block              -> statement parser, depth+1 (loop bodies: loop depth+1)
//	ParenBlock         -> expression parser, depth+1
//	Item               -> expression parser, same level
//	Func, ListAccess,
//	ListBlock          -> comma splitter, then one Item per slot, depth+1
//
// A resolve call either resolves the whole subtree or fails with the first
// error it meets; errors are returned as the sentinel that raised them.
package parser

import (
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/lexer"
)

var (
	// ErrOrphanClause is returned for an elif or else that does not follow a
	// chain head.
	ErrOrphanClause = diag.New(diag.Grammar, "parser: elif or else without a preceding chain head")

	// ErrClauseOrder is returned for a clause that the open chain does not
	// accept, such as elif after else or elif after while.
	ErrClauseOrder = diag.New(diag.Grammar, "parser: clause not allowed at this position of the chain")

	// ErrMissingCondition is returned when if, elif, while or for is not
	// followed by a parenthesized condition.
	ErrMissingCondition = diag.New(diag.Grammar, "parser: clause requires a parenthesized condition")

	// ErrMissingBody is returned when a clause has no block body.
	ErrMissingBody = diag.New(diag.Grammar, "parser: clause requires a block body")

	// ErrUnknownOperator is returned when the reducer meets an operator that
	// is not in the precedence table. The tokenizer only produces table
	// entries, so this indicates a pipeline fault.
	ErrUnknownOperator = diag.New(diag.Operator, "parser: operator missing from precedence table")

	// ErrUnexpectedSeparator is returned when ',', ':' or ';' is left in an
	// expression.
	ErrUnexpectedSeparator = diag.New(diag.Shape, "parser: unexpected separator in expression")

	// ErrNestingTooDeep is returned when bracket nesting exceeds
	// Config.MaxDepth.
	ErrNestingTooDeep = diag.New(diag.Structural, "parser: nesting too deep")

	// ErrUnexpectedNode is returned when the resolver is handed an atom kind
	// it has no rule for.
	ErrUnexpectedNode = diag.New(diag.Internal, "parser: unexpected node kind")
)

// Config tunes the parser.
type Config struct {
	// MaxDepth bounds the bracket nesting depth. Zero disables the check.
	MaxDepth int
}

// DefaultConfig is used by the package level functions.
var DefaultConfig = Config{MaxDepth: 256}

// Parser parses lichen source. It holds no per-parse state and may be used
// from several goroutines.
type Parser struct {
	cfg Config
}

// New returns a parser using cfg.
func New(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// ParseExpr parses src as an expression and resolves it completely.
func (p *Parser) ParseExpr(src string) ([]ast.Expr, error) {
	var lv ast.Level
	r := &resolver{cfg: p.cfg}
	return r.parseExprs(lexer.Explode(src, lv), lv)
}

// ParseStmts parses src as a statement sequence and resolves it
// completely.
func (p *Parser) ParseStmts(src string) ([]ast.Stmt, error) {
	var lv ast.Level
	r := &resolver{cfg: p.cfg}
	return r.parseStmts(lexer.Explode(src, lv), lv)
}

// Resolve resolves n and everything below it. Resolving an already
// resolved node does nothing.
func (p *Parser) Resolve(n ast.Node) error {
	r := &resolver{cfg: p.cfg}
	switch n := n.(type) {
	case ast.Expr:
		return r.expr(n)
	case ast.Stmt:
		return r.stmt(n)
	}
	return ErrUnexpectedNode
}

var std = New(DefaultConfig)

// ParseExpr parses src as an expression with DefaultConfig.
func ParseExpr(src string) ([]ast.Expr, error) { return std.ParseExpr(src) }

// ParseStmts parses src as statements with DefaultConfig.
func ParseStmts(src string) ([]ast.Stmt, error) { return std.ParseStmts(src) }

// Resolve resolves n with DefaultConfig.
func Resolve(n ast.Node) error { return std.Resolve(n) }

// IsIncomplete reports whether err means the input ended inside a literal,
// comment or bracket, so more input could still make it valid.
func IsIncomplete(err error) bool {
	switch err {
	case lexer.ErrQuotationNotClosed, lexer.ErrCommentBlockNotClosed, lexer.ErrBraceNotClosed:
		return true
	}
	return false
}
