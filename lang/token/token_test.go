// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexemesLongestFirst(t *testing.T) {
	lex := Lexemes()
	assert.Len(t, lex, 22)
	for i := 1; i < len(lex); i++ {
		assert.GreaterOrEqual(t, len(lex[i-1]), len(lex[i]), "%q before %q", lex[i-1], lex[i])
	}
}

func TestMatchOperator(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<=b", LTE},
		{"<b", LT},
		{"**2", POW},
		{"*2", MUL},
		{"&&!b", AND},
		{"!b", NOT},
		{"!=", NEQ},
		{"=-1", ASSIGN},
		{"+=", ADDA},
		{"&", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchOperator(tt.in), "input %q", tt.in)
	}
}

func TestPriorities(t *testing.T) {
	or, _ := LookupOperator(OR)
	and, _ := LookupOperator(AND)
	eq, _ := LookupOperator(EQ)
	add, _ := LookupOperator(ADD)
	mul, _ := LookupOperator(MUL)
	pow, _ := LookupOperator(POW)
	not, _ := LookupOperator(NOT)

	assert.Less(t, or.Priority, and.Priority)
	assert.Less(t, and.Priority, not.Priority)
	assert.Less(t, not.Priority, eq.Priority)
	assert.Less(t, eq.Priority, add.Priority)
	assert.Less(t, add.Priority, mul.Priority)
	assert.Less(t, mul.Priority, pow.Priority)
	assert.Equal(t, Right, pow.Assoc)
	assert.Equal(t, Prefix, not.Assoc)

	for _, lexeme := range Lexemes() {
		op, ok := LookupOperator(lexeme)
		assert.True(t, ok)
		if IsAssignment(lexeme) {
			assert.Equal(t, PriorityAssign, op.Priority)
			continue
		}
		assert.Greater(t, op.Priority, PriorityAssign, lexeme)
	}
}

func TestCompoundBase(t *testing.T) {
	base, ok := CompoundBase(REMA)
	assert.True(t, ok)
	assert.Equal(t, REM, base)

	_, ok = CompoundBase(ASSIGN)
	assert.False(t, ok)
	_, ok = CompoundBase(LTE)
	assert.False(t, ok)
}

func TestKeywords(t *testing.T) {
	assert.True(t, IsKeyword(Return))
	assert.True(t, IsKeyword(Elif))
	assert.False(t, IsKeyword("tarai"))
	assert.True(t, IsChainHead(While))
	assert.False(t, IsChainHead(Elif))
	assert.True(t, HasCondition(Elif))
	assert.False(t, HasCondition(Else))
	assert.True(t, IsLoop(For))
	assert.False(t, IsLoop(Loop))
}
