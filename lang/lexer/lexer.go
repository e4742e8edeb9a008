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

// Package lexer turns lichen source into a shallow atom sequence.
//
// Lexing is a chain of linear passes over the same flat sequence:
//
//  1. Explode: every character becomes an *ast.Unknown.
//  2. ExtractLiterals: quoted runs and comments collapse into single atoms.
//  3. GroupBrackets: top-level {}, [] and () runs collapse into unresolved
//     composites, in that order.
//  4. Tokenize: the remaining characters become words and operators.
//
// The passes only look at the outermost level. Bracket contents stay raw
// until the parser resolves them, which reruns passes 2-4 on the raw run.
package lexer

import (
	"strings"

	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/token"
)

var (
	// ErrQuotationNotClosed is returned when a string literal runs to the end
	// of input.
	ErrQuotationNotClosed = diag.New(diag.Lexical, "lexer: quotation not closed")

	// ErrCommentBlockNotClosed is returned when a /* comment runs to the end
	// of input.
	ErrCommentBlockNotClosed = diag.New(diag.Lexical, "lexer: comment block not closed")

	// ErrBraceNotClosed is returned when an opening bracket has no partner.
	ErrBraceNotClosed = diag.New(diag.Structural, "lexer: brace not closed")

	// ErrBraceNotOpened is returned when a closing bracket has no partner.
	ErrBraceNotOpened = diag.New(diag.Structural, "lexer: brace not opened")

	// ErrUnknownSymbol is returned for operator characters that do not form
	// any lexeme, such as a lone '&'.
	ErrUnknownSymbol = diag.New(diag.Lexical, "lexer: unknown symbol")

	// ErrGroupedLiteral is returned when an already grouped atom shows up
	// inside an open literal. Raw runs handed back by the parser never
	// contain one.
	ErrGroupedLiteral = diag.New(diag.Internal, "lexer: grouped atom inside literal")
)

// Explode converts src into one Unknown atom per character.
func Explode(src string, lv ast.Level) []ast.Expr {
	out := make([]ast.Expr, 0, len(src))
	for _, r := range src {
		out = append(out, &ast.Unknown{Level: lv, Char: r})
	}
	return out
}

// Scan explodes src and runs every lexing pass over it.
func Scan(src string, lv ast.Level) ([]ast.Expr, error) {
	return Group(Explode(src, lv), lv)
}

// Group runs literal extraction, bracket grouping and tokenization over an
// atom sequence. Atoms that were grouped by an earlier run pass through
// unchanged, so Group may be applied to its own output.
func Group(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	atoms, err := ExtractLiterals(atoms, lv)
	if err != nil {
		return nil, err
	}
	if atoms, err = GroupBrackets(atoms, lv); err != nil {
		return nil, err
	}
	return Tokenize(atoms, lv)
}

// ---- Literals --------------------------------------------------------------

type literalState uint8

const (
	stateClosed literalState = iota
	stateQuote
	stateLineComment
	stateBlockComment
)

// charOf returns the character of atom if it is an Unknown.
func charOf(atom ast.Expr) (rune, bool) {
	u, ok := atom.(*ast.Unknown)
	if !ok {
		return 0, false
	}
	return u.Char, true
}

// charAt is charOf for atoms[i], tolerating out of range indexes.
func charAt(atoms []ast.Expr, i int) (rune, bool) {
	if i < 0 || i >= len(atoms) {
		return 0, false
	}
	return charOf(atoms[i])
}

// ExtractLiterals collapses quoted strings and comments. Inside a quote a
// backslash escapes exactly the next character. A line comment left open
// at the end of input ends there.
func ExtractLiterals(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	var (
		out     = make([]ast.Expr, 0, len(atoms))
		text    strings.Builder
		state   = stateClosed
		escaped bool
	)
	for i := 0; i < len(atoms); i++ {
		c, ok := charAt(atoms, i)
		if state == stateClosed {
			if !ok {
				out = append(out, atoms[i])
				continue
			}
			next, _ := charAt(atoms, i+1)
			switch {
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
			case c == '/' && next == '/':
				state = stateLineComment
				i++
			case c == token.Quote:
				state = stateQuote
			default:
				out = append(out, atoms[i])
			}
			continue
		}
		if !ok {
			return nil, ErrGroupedLiteral
		}
		switch state {
		case stateQuote:
			switch {
			case escaped:
				text.WriteRune(c)
				escaped = false
			case c == token.Escape:
				escaped = true
			case c == token.Quote:
				out = append(out, &ast.StringLit{Level: lv, Text: text.String()})
				text.Reset()
				state = stateClosed
			default:
				text.WriteRune(c)
			}
		case stateLineComment:
			if c == '\n' {
				out = append(out, &ast.Comment{Level: lv, Text: text.String()})
				text.Reset()
				state = stateClosed
				continue
			}
			text.WriteRune(c)
		case stateBlockComment:
			if next, _ := charAt(atoms, i+1); c == '*' && next == '/' {
				out = append(out, &ast.Comment{Level: lv, Text: text.String(), Block: true})
				text.Reset()
				state = stateClosed
				i++
				continue
			}
			text.WriteRune(c)
		}
	}
	switch state {
	case stateQuote:
		return nil, ErrQuotationNotClosed
	case stateBlockComment:
		return nil, ErrCommentBlockNotClosed
	case stateLineComment:
		out = append(out, &ast.Comment{Level: lv, Text: text.String()})
	}
	return out, nil
}

// ---- Brackets --------------------------------------------------------------

// GroupBrackets collapses the top-level bracket runs of atoms into
// unresolved Block, ListBlock and ParenBlock atoms. The pairs are handled
// in separate passes, braces first, so an inner pair is never split before
// the enclosing one is found.
func GroupBrackets(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	var err error
	for _, pair := range token.Brackets {
		if atoms, err = groupPair(atoms, pair, lv); err != nil {
			return nil, err
		}
	}
	return atoms, nil
}

func groupPair(atoms []ast.Expr, pair token.Bracket, lv ast.Level) ([]ast.Expr, error) {
	var (
		out   = make([]ast.Expr, 0, len(atoms))
		group []ast.Expr
		depth int
	)
	for _, atom := range atoms {
		c, ok := charOf(atom)
		switch {
		case ok && c == pair.Open:
			if depth > 0 {
				group = append(group, atom)
			}
			depth++
		case ok && c == pair.Close:
			if depth == 0 {
				return nil, ErrBraceNotOpened
			}
			depth--
			if depth > 0 {
				group = append(group, atom)
				continue
			}
			out = append(out, composite(pair, group, lv))
			group = nil
		case depth > 0:
			group = append(group, atom)
		default:
			out = append(out, atom)
		}
	}
	if depth != 0 {
		return nil, ErrBraceNotClosed
	}
	return out, nil
}

func composite(pair token.Bracket, raw []ast.Expr, lv ast.Level) ast.Expr {
	d := ast.Deferred{Raw: raw}
	switch pair.Open {
	case token.BraceOpen:
		return &ast.Block{Level: lv, Deferred: d}
	case token.ListOpen:
		return &ast.ListBlock{Level: lv, Deferred: d}
	default:
		return &ast.ParenBlock{Level: lv, Deferred: d}
	}
}

// ---- Words -----------------------------------------------------------------

// Tokenize turns runs of Unknown characters into Word and Operator atoms.
// Whitespace ends a run and disappears; separators end a run and stay as
// Unknown atoms; any other atom ends a run and passes through. Inside a
// run, operator characters are matched against the operator table longest
// lexeme first, so "a&&!b" yields a, &&, !, b.
func Tokenize(atoms []ast.Expr, lv ast.Level) ([]ast.Expr, error) {
	var (
		out = make([]ast.Expr, 0, len(atoms))
		run []rune
	)
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		toks, err := splitRun(run, lv)
		if err != nil {
			return err
		}
		out = append(out, toks...)
		run = run[:0]
		return nil
	}
	for _, atom := range atoms {
		u, ok := atom.(*ast.Unknown)
		if ok && !token.IsSpace(u.Char) && !token.IsSeparator(u.Char) {
			run = append(run, u.Char)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if ok && token.IsSpace(u.Char) {
			continue
		}
		out = append(out, atom)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitRun cuts one whitespace-free run into words and operators.
func splitRun(run []rune, lv ast.Level) ([]ast.Expr, error) {
	var out []ast.Expr
	for i := 0; i < len(run); {
		j := i
		if token.IsOperatorChar(run[i]) {
			for j < len(run) && token.IsOperatorChar(run[j]) {
				j++
			}
			ops, err := splitOperators(string(run[i:j]), lv)
			if err != nil {
				return nil, err
			}
			out = append(out, ops...)
		} else {
			for j < len(run) && !token.IsOperatorChar(run[j]) {
				j++
			}
			out = append(out, &ast.Word{Level: lv, Text: string(run[i:j])})
		}
		i = j
	}
	return out, nil
}

func splitOperators(s string, lv ast.Level) ([]ast.Expr, error) {
	var out []ast.Expr
	for s != "" {
		lexeme := token.MatchOperator(s)
		if lexeme == "" {
			return nil, ErrUnknownSymbol
		}
		out = append(out, &ast.Operator{Level: lv, Lexeme: lexeme})
		s = s[len(lexeme):]
	}
	return out, nil
}
