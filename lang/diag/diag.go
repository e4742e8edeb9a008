// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package diag classifies compiler failures.
//
// Every stage of the pipeline declares its failures as package-level
// sentinels built with New. A sentinel carries a Kind so that callers can
// tell malformed programs apart from faults inside the compiler itself
// without matching on every sentinel.
package diag

import "errors"

// Kind is the category of a compile or execution failure.
type Kind uint8

const (
	// Unknown is reported for errors that did not originate in the pipeline.
	Unknown Kind = iota
	// Lexical covers unterminated quotations and block comments.
	Lexical
	// Structural covers unmatched brackets and excessive nesting.
	Structural
	// Grammar covers misplaced control-flow clauses.
	Grammar
	// Operator covers operator lookups that the table can not satisfy.
	Operator
	// Shape covers nodes whose content does not fit the context they are in.
	Shape
	// Generate covers failures while emitting WAT.
	Generate
	// Runtime covers traps raised while executing generated code.
	Runtime
	// Internal marks a bug in the pipeline rather than in the program.
	Internal
)

var kindNames = [...]string{
	Unknown:    "unknown",
	Lexical:    "lexical",
	Structural: "structural",
	Grammar:    "grammar",
	Operator:   "operator",
	Shape:      "shape",
	Generate:   "generate",
	Runtime:    "runtime",
	Internal:   "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(?)"
}

// Error is a classified failure. Values are compared by identity, so
// errors.Is works on the sentinels directly.
type Error struct {
	Kind Kind
	msg  string
}

// New returns a sentinel of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return Unknown
}

// IsInternal reports whether err signals a compiler bug.
func IsInternal(err error) bool {
	return KindOf(err) == Internal
}

// IsUser reports whether err was caused by the program being compiled or run.
func IsUser(err error) bool {
	switch KindOf(err) {
	case Unknown, Internal:
		return false
	}
	return true
}
