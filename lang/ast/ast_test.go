// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func word(s string) *Word { return &Word{Text: s} }

func item(list ...Expr) *Item {
	return &Item{Deferred: Deferred{Resolved: true}, Contents: list}
}

func TestLevel(t *testing.T) {
	var lv Level
	assert.Equal(t, Level{Depth: 1}, lv.Enter())
	assert.Equal(t, Level{Depth: 1, LoopDepth: 1}, lv.EnterLoop())
	assert.Equal(t, Level{Depth: 2, LoopDepth: 1}, lv.EnterLoop().Enter())
	// value semantics: the receiver is untouched
	assert.Equal(t, Level{}, lv)
}

func TestCanonicalString(t *testing.T) {
	// a + 1 * 2
	mul := &Func{Callee: &Operator{Lexeme: "*"}, Args: []Expr{item(word("1")), item(word("2"))}}
	mul.Settle()
	add := &Func{Callee: &Operator{Lexeme: "+"}, Args: []Expr{item(word("a")), item(mul)}}
	add.Settle()
	assert.Equal(t, "+(<a>, <*(<1>, <2>)>)", add.String())

	call := &Func{Callee: word("f"), Deferred: Deferred{Raw: []Expr{&Unknown{Char: 'x'}}}}
	assert.Equal(t, "f('x')", call.String())

	body := &Block{Deferred: Deferred{Resolved: true}, Body: []Stmt{
		&ControlStmt{Head: "break", Deferred: Deferred{Resolved: true}},
	}}
	cond := &ParenBlock{Deferred: Deferred{Resolved: true}, Contents: []Expr{word("c")}}
	chain := &SyntaxChain{Clauses: []*SyntaxClause{{Name: "while", Cond: cond, Body: body}}}
	assert.Equal(t, "chain[while(c){break;}]", chain.String())
	assert.True(t, chain.IsResolved())
	assert.Equal(t, "while", chain.Head())
}

func TestDeferred(t *testing.T) {
	p := &ParenBlock{Deferred: Deferred{Raw: []Expr{&Unknown{Char: 'a'}}}}
	assert.False(t, p.IsResolved())
	p.Contents = []Expr{word("a")}
	p.Settle()
	assert.True(t, p.IsResolved())
	assert.Nil(t, p.Raw)
	assert.Equal(t, "(a)", p.String())

	assert.True(t, (&Item{}).IsEmpty())
	assert.True(t, item().IsEmpty())
	assert.False(t, item(word("a")).IsEmpty())
}

func TestInspectAndDump(t *testing.T) {
	stmt := &ExprStmt{Deferred: Deferred{Resolved: true}, Exprs: []Expr{
		&ListAccess{Level: Level{Depth: 1}, Deferred: Deferred{Resolved: true}, Callee: word("__mem"), Index: []Expr{item(word("4"))}},
	}}
	var words []string
	Inspect(stmt, func(n Node) bool {
		if w, ok := n.(*Word); ok {
			words = append(words, w.Text)
		}
		return true
	})
	assert.Equal(t, []string{"__mem", "4"}, words)

	out := Dump(stmt)
	assert.True(t, strings.HasPrefix(out, "ExprStmt d=0 l=0\n"))
	assert.Contains(t, out, "  ListAccess d=1 l=0\n")
	assert.Contains(t, out, "Word d=0 l=0 __mem")

	assert.Contains(t, Spew(word("x")), `Text: (string) (len=1) "x"`)
}
