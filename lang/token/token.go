// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the fixed lexical vocabulary of the lichen language:
// the operator table, the reserved words and the character classes used by
// the lexer.
//
// Design principles:
//   - One operator table drives both tokenization and precedence reduction
//   - Lexemes are matched longest-first so "<=" never splits into "<" "="
//   - Keyword sets are closed; nothing here is configurable at runtime
package token

import "sort"

// Assoc is the associativity of an operator.
type Assoc uint8

const (
	Left Assoc = iota
	Right
	Prefix
)

var assocNames = [...]string{
	Left:   "left",
	Right:  "right",
	Prefix: "prefix",
}

func (a Assoc) String() string {
	if int(a) < len(assocNames) {
		return assocNames[a]
	}
	return "assoc(?)"
}

// Operator describes one entry of the precedence table. Lower priorities
// bind more loosely.
type Operator struct {
	Lexeme   string
	Priority int
	Assoc    Assoc
}

// Operator lexemes.
const (
	OR     = "||"
	AND    = "&&"
	EQ     = "=="
	NEQ    = "!="
	LT     = "<"
	LTE    = "<="
	GT     = ">"
	GTE    = ">="
	ADD    = "+"
	SUB    = "-"
	MUL    = "*"
	DIV    = "/"
	REM    = "%"
	MATMUL = "@"
	POW    = "**"
	ASSIGN = "="
	ADDA   = "+="
	SUBA   = "-="
	MULA   = "*="
	DIVA   = "/="
	REMA   = "%="
	NOT    = "!"
)

// PriorityAssign is the priority shared by all assignment operators; it is
// the lowest in the table.
const PriorityAssign = -4

var table = map[string]Operator{
	OR:     {OR, -3, Left},
	AND:    {AND, -2, Left},
	EQ:     {EQ, 0, Left},
	NEQ:    {NEQ, 0, Left},
	LT:     {LT, 0, Left},
	LTE:    {LTE, 0, Left},
	GT:     {GT, 0, Left},
	GTE:    {GTE, 0, Left},
	ADD:    {ADD, 1, Left},
	SUB:    {SUB, 1, Left},
	MUL:    {MUL, 2, Left},
	DIV:    {DIV, 2, Left},
	REM:    {REM, 2, Left},
	MATMUL: {MATMUL, 2, Left},
	POW:    {POW, 3, Right},
	ASSIGN: {ASSIGN, PriorityAssign, Right},
	ADDA:   {ADDA, PriorityAssign, Right},
	SUBA:   {SUBA, PriorityAssign, Right},
	MULA:   {MULA, PriorityAssign, Right},
	DIVA:   {DIVA, PriorityAssign, Right},
	REMA:   {REMA, PriorityAssign, Right},
	NOT:    {NOT, -1, Prefix},
}

// byLength holds every lexeme, longest first. Ties keep a stable
// alphabetical order so tokenization is deterministic.
var byLength []string

// opChars is the set of characters that appear in at least one lexeme.
var opChars = make(map[rune]bool)

func init() {
	for lexeme := range table {
		byLength = append(byLength, lexeme)
		for _, r := range lexeme {
			opChars[r] = true
		}
	}
	sort.Slice(byLength, func(i, j int) bool {
		if len(byLength[i]) != len(byLength[j]) {
			return len(byLength[i]) > len(byLength[j])
		}
		return byLength[i] < byLength[j]
	})
}

// LookupOperator returns the table entry for lexeme.
func LookupOperator(lexeme string) (Operator, bool) {
	op, ok := table[lexeme]
	return op, ok
}

// Lexemes returns all operator lexemes, longest first.
func Lexemes() []string {
	out := make([]string, len(byLength))
	copy(out, byLength)
	return out
}

// MatchOperator returns the longest lexeme that prefixes s, or "" if none.
func MatchOperator(s string) string {
	for _, lexeme := range byLength {
		if len(lexeme) <= len(s) && s[:len(lexeme)] == lexeme {
			return lexeme
		}
	}
	return ""
}

// IsOperatorChar reports whether r can be part of an operator lexeme.
func IsOperatorChar(r rune) bool { return opChars[r] }

// IsAssignment reports whether lexeme is "=" or a compound assignment.
func IsAssignment(lexeme string) bool {
	op, ok := table[lexeme]
	return ok && op.Priority == PriorityAssign
}

// CompoundBase returns the arithmetic operator behind a compound assignment,
// e.g. "+" for "+=".
func CompoundBase(lexeme string) (string, bool) {
	if !IsAssignment(lexeme) || lexeme == ASSIGN {
		return "", false
	}
	return lexeme[:len(lexeme)-1], true
}
