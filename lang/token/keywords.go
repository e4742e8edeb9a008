// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

// Syntax words introduce a clause of a control-flow chain.
const (
	If    = "if"
	Elif  = "elif"
	Else  = "else"
	Loop  = "loop"
	For   = "for"
	While = "while"
)

// Control keywords head a control statement.
const (
	Return   = "return"
	Break    = "break"
	Continue = "continue"
	Assert   = "assert"
)

// Declaration words accepted on the left of an assignment.
const (
	Let = "let"
	Mut = "mut"
)

// Memory is the reserved identifier that addresses linear memory directly.
const Memory = "__mem"

var syntaxWords = map[string]bool{
	If: true, Elif: true, Else: true, Loop: true, For: true, While: true,
}

var chainHeads = map[string]bool{
	If: true, Loop: true, For: true, While: true,
}

// conditional clauses take a parenthesized condition before their body.
var conditional = map[string]bool{
	If: true, Elif: true, For: true, While: true,
}

var loops = map[string]bool{
	For: true, While: true,
}

var controls = map[string]bool{
	Return: true, Break: true, Continue: true, Assert: true,
}

// IsSyntaxWord reports whether w starts a syntax clause.
func IsSyntaxWord(w string) bool { return syntaxWords[w] }

// IsChainHead reports whether w opens a new syntax chain.
func IsChainHead(w string) bool { return chainHeads[w] }

// HasCondition reports whether the clause introduced by w expects a
// parenthesized condition.
func HasCondition(w string) bool { return conditional[w] }

// IsLoop reports whether the body of clause w runs one loop level deeper.
func IsLoop(w string) bool { return loops[w] }

// IsControl reports whether w is a control keyword.
func IsControl(w string) bool { return controls[w] }

// IsKeyword reports whether w is reserved and can not be called.
func IsKeyword(w string) bool { return syntaxWords[w] || controls[w] }
