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

package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-lichen/lang/ast"
)

var top = ast.Level{}

// render returns the canonical dump of every atom.
func render(atoms []ast.Expr) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.String()
	}
	return out
}

func mustScan(t *testing.T, src string) []ast.Expr {
	t.Helper()
	atoms, err := Scan(src, top)
	require.NoError(t, err, "scan %q", src)
	return atoms
}

// ---- Literals --------------------------------------------------------------

func TestExtractLiterals(t *testing.T) {
	atoms, err := ExtractLiterals(Explode(`a"b c"/*x*/d//tail`, top), top)
	require.NoError(t, err)
	require.Len(t, atoms, 5)

	assert.Equal(t, "'a'", atoms[0].String())
	assert.Equal(t, &ast.StringLit{Text: "b c"}, atoms[1])
	assert.Equal(t, &ast.Comment{Text: "x", Block: true}, atoms[2])
	assert.Equal(t, "'d'", atoms[3].String())
	assert.Equal(t, &ast.Comment{Text: "tail"}, atoms[4])
}

func TestEscapes(t *testing.T) {
	atoms, err := ExtractLiterals(Explode(`"a\"b\\"`, top), top)
	require.NoError(t, err)
	require.Len(t, atoms, 1)
	assert.Equal(t, `a"b\`, atoms[0].(*ast.StringLit).Text)
}

func TestLineCommentEndsAtNewline(t *testing.T) {
	atoms := mustScan(t, "a // note\nb")
	assert.Equal(t, []string{"a", "// note", "b"}, render(atoms))
}

func TestLiteralErrors(t *testing.T) {
	tests := []struct {
		src string
		err error
	}{
		{`"open`, ErrQuotationNotClosed},
		{`"escaped end\"`, ErrQuotationNotClosed},
		{`/* open`, ErrCommentBlockNotClosed},
		{`/* open *`, ErrCommentBlockNotClosed},
	}
	for _, tt := range tests {
		_, err := Scan(tt.src, top)
		assert.Equal(t, tt.err, err, "input %q", tt.src)
	}
}

func TestBracketsInsideLiterals(t *testing.T) {
	atoms := mustScan(t, `f("(") /* } */`)
	assert.Equal(t, []string{"f", `("(")`, "/* } */"}, render(atoms))
}

// ---- Brackets --------------------------------------------------------------

func TestGroupBrackets(t *testing.T) {
	atoms := mustScan(t, "a[0](x){y}")
	require.Len(t, atoms, 4)
	assert.IsType(t, &ast.ListBlock{}, atoms[1])
	assert.IsType(t, &ast.ParenBlock{}, atoms[2])
	assert.IsType(t, &ast.Block{}, atoms[3])
	for _, a := range atoms[1:] {
		assert.False(t, a.(ast.Composite).IsResolved())
	}
}

func TestGroupBracketsKeepsInnerRaw(t *testing.T) {
	atoms := mustScan(t, "(a(b)c)")
	require.Len(t, atoms, 1)
	paren := atoms[0].(*ast.ParenBlock)
	assert.Equal(t, []string{"'a'", "'('", "'b'", "')'", "'c'"}, render(paren.Raw))
}

func TestBraceBeforeList(t *testing.T) {
	// the brace pass runs first, so the block ends up inside the list
	atoms := mustScan(t, "[{a}]")
	require.Len(t, atoms, 1)
	list := atoms[0].(*ast.ListBlock)
	require.Len(t, list.Raw, 1)
	assert.IsType(t, &ast.Block{}, list.Raw[0])
}

func TestBracketErrors(t *testing.T) {
	tests := []struct {
		src string
		err error
	}{
		{"(", ErrBraceNotClosed},
		{"{a", ErrBraceNotClosed},
		{"[[]", ErrBraceNotClosed},
		{")", ErrBraceNotOpened},
		{"a}", ErrBraceNotOpened},
		{"[]]", ErrBraceNotOpened},
		{"(]", ErrBraceNotOpened},
		{"([)", ErrBraceNotClosed},
	}
	for _, tt := range tests {
		_, err := Scan(tt.src, top)
		assert.Equal(t, tt.err, err, "input %q", tt.src)
	}
}

// ---- Words -----------------------------------------------------------------

func TestTokenize(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"!a&&!b", []string{"!", "a", "&&", "!", "b"}},
		{"! a && !b", []string{"!", "a", "&&", "!", "b"}},
		{"a<=b", []string{"a", "<=", "b"}},
		{"a=-1", []string{"a", "=", "-", "1"}},
		{"a-=1", []string{"a", "-=", "1"}},
		{"x**y*z", []string{"x", "**", "y", "*", "z"}},
		{"a!=!b", []string{"a", "!=", "!", "b"}},
		{"let\tmut\nv", []string{"let", "mut", "v"}},
		{"a,b;c:d", []string{"a", "','", "b", "';'", "c", "':'", "d"}},
		{"3.5@m", []string{"3.5", "@", "m"}},
	}
	for _, tt := range tests {
		got := render(mustScan(t, tt.src))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("tokenize %q mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestTokenizeKinds(t *testing.T) {
	atoms := mustScan(t, "a+b")
	assert.IsType(t, &ast.Word{}, atoms[0])
	assert.IsType(t, &ast.Operator{}, atoms[1])
	assert.IsType(t, &ast.Word{}, atoms[2])
}

func TestUnknownSymbol(t *testing.T) {
	_, err := Scan("a & b", top)
	assert.Equal(t, ErrUnknownSymbol, err)
	_, err = Scan("a | b", top)
	assert.Equal(t, ErrUnknownSymbol, err)
}

func TestGroupIsIdempotent(t *testing.T) {
	first := mustScan(t, `x = f("s", [1]) // c`)
	again, err := Group(first, top)
	require.NoError(t, err)
	assert.Equal(t, render(first), render(again))
}

func TestLevelIsRecorded(t *testing.T) {
	lv := ast.Level{Depth: 2, LoopDepth: 1}
	atoms, err := Scan(`a "s" (b)`, lv)
	require.NoError(t, err)
	for _, a := range atoms {
		assert.Equal(t, lv, a.Nesting())
	}
}
