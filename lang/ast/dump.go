// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ast

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Dump renders n as an indented outline, one atom per line, annotated with
// its kind and level. Indentation follows the recorded depth.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, indent int) {
	lv := n.Nesting()
	fmt.Fprintf(b, "%s%s d=%d l=%d", strings.Repeat("  ", indent), KindName(n), lv.Depth, lv.LoopDepth)
	switch n := n.(type) {
	case *Unknown, *StringLit, *Comment, *Word, *Operator:
		fmt.Fprintf(b, " %s", n)
	case *SyntaxClause:
		fmt.Fprintf(b, " %s", n.Name)
	case *ControlStmt:
		fmt.Fprintf(b, " %s", n.Head)
	}
	if c, ok := n.(Composite); ok && !c.IsResolved() {
		b.WriteString(" (raw)")
	}
	b.WriteByte('\n')
	for _, c := range Children(n) {
		dump(b, c, indent+1)
	}
}

// KindName returns the type name of the atom, such as Word or Func.
func KindName(n Node) string {
	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Spew returns a full Go-syntax dump of the given atoms.
func Spew(nodes ...interface{}) string {
	return spewConfig.Sdump(nodes...)
}
