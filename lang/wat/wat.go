// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package wat models the subset of the WebAssembly text format that the
// lichen code generator emits: flat instruction sequences, a module
// skeleton to host them, a reader for instruction text and a structural
// verifier.
package wat

import (
	"fmt"
	"strings"
)

// Op is a WAT instruction mnemonic.
type Op uint8

const (
	OpNop Op = iota
	OpUnreachable
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpReturn
	OpCall
	OpDrop
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpI32Load
	OpI32Store
	OpI32Const
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32GtS
	OpI32LeS
	OpI32GeS
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32RemS
	OpI32And
	OpI32Or
	OpI32Xor

	numOps
)

var opNames = [numOps]string{
	OpNop:         "nop",
	OpUnreachable: "unreachable",
	OpBlock:       "block",
	OpLoop:        "loop",
	OpIf:          "if",
	OpElse:        "else",
	OpEnd:         "end",
	OpBr:          "br",
	OpBrIf:        "br_if",
	OpReturn:      "return",
	OpCall:        "call",
	OpDrop:        "drop",
	OpLocalGet:    "local.get",
	OpLocalSet:    "local.set",
	OpLocalTee:    "local.tee",
	OpI32Load:     "i32.load",
	OpI32Store:    "i32.store",
	OpI32Const:    "i32.const",
	OpI32Eqz:      "i32.eqz",
	OpI32Eq:       "i32.eq",
	OpI32Ne:       "i32.ne",
	OpI32LtS:      "i32.lt_s",
	OpI32GtS:      "i32.gt_s",
	OpI32LeS:      "i32.le_s",
	OpI32GeS:      "i32.ge_s",
	OpI32Add:      "i32.add",
	OpI32Sub:      "i32.sub",
	OpI32Mul:      "i32.mul",
	OpI32DivS:     "i32.div_s",
	OpI32RemS:     "i32.rem_s",
	OpI32And:      "i32.and",
	OpI32Or:       "i32.or",
	OpI32Xor:      "i32.xor",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// LookupOp returns the op for a mnemonic.
func LookupOp(name string) (Op, bool) {
	op, ok := opByName[name]
	return op, ok
}

// Immediate reports whether op takes an immediate operand.
func (op Op) Immediate() bool {
	switch op {
	case OpBr, OpBrIf, OpCall, OpLocalGet, OpLocalSet, OpLocalTee, OpI32Const:
		return true
	case OpBlock, OpLoop:
		// optional label
		return true
	}
	return false
}

// Opens reports whether op starts a structured control frame.
func (op Op) Opens() bool { return op == OpBlock || op == OpLoop || op == OpIf }

// Instr is one instruction with its optional immediate, e.g. a label,
// local name, callee or constant.
type Instr struct {
	Op  Op
	Imm string
}

func (in Instr) String() string {
	if in.Imm == "" {
		return in.Op.String()
	}
	return in.Op.String() + " " + in.Imm
}

// Format renders instructions one per line, indenting the content of
// structured frames.
func Format(code []Instr) string {
	var (
		b     strings.Builder
		level int
	)
	for _, in := range code {
		indent := level
		switch in.Op {
		case OpEnd:
			if level > 0 {
				level--
			}
			indent = level
		case OpElse:
			if level > 0 {
				indent = level - 1
			}
		}
		b.WriteString(strings.Repeat("  ", indent))
		b.WriteString(in.String())
		b.WriteByte('\n')
		if in.Op.Opens() {
			level++
		}
	}
	return b.String()
}

// SyntaxError reports a line that Parse could not read.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("wat: line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Parse reads instruction text, one instruction per line. Blank lines and
// ";;" comments are ignored.
func Parse(text string) ([]Instr, error) {
	var code []Instr
	for i, line := range strings.Split(text, "\n") {
		if at := strings.Index(line, ";;"); at >= 0 {
			line = line[:at]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, ok := LookupOp(fields[0])
		if !ok {
			return nil, &SyntaxError{Line: i + 1, Text: line, Msg: "unknown instruction"}
		}
		switch {
		case len(fields) > 2:
			return nil, &SyntaxError{Line: i + 1, Text: line, Msg: "too many operands"}
		case len(fields) == 2 && !op.Immediate():
			return nil, &SyntaxError{Line: i + 1, Text: line, Msg: "unexpected operand"}
		}
		in := Instr{Op: op}
		if len(fields) == 2 {
			in.Imm = fields[1]
		}
		code = append(code, in)
	}
	return code, nil
}
