// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

// Character classes.
const (
	Quote      = '"'
	Escape     = '\\'
	Semicolon  = ';'
	Colon      = ':'
	Comma      = ','
	BraceOpen  = '{'
	BraceClose = '}'
	ListOpen   = '['
	ListClose  = ']'
	ParenOpen  = '('
	ParenClose = ')'
)

// Comment markers.
const (
	LineComment       = "//"
	BlockCommentOpen  = "/*"
	BlockCommentClose = "*/"
)

// IsSpace reports whether r separates words without producing a token.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// IsSeparator reports whether r ends a word and is kept as its own atom.
func IsSeparator(r rune) bool {
	return r == Semicolon || r == Colon || r == Comma
}

// Bracket is one of the three grouping pairs.
type Bracket struct {
	Open, Close rune
}

// Brackets lists the grouping pairs in the order the grouper applies them.
var Brackets = [...]Bracket{
	{BraceOpen, BraceClose},
	{ListOpen, ListClose},
	{ParenOpen, ParenClose},
}
