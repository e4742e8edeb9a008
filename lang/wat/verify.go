// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package wat

import (
	"fmt"
	"strconv"
	"strings"
)

// VerifyError describes a structural fault in an instruction sequence.
type VerifyError struct {
	Offset  int
	Message string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify error at offset %d: %s", e.Offset, e.Message)
}

type verifyFrame struct {
	op      Op
	label   string
	hasElse bool
}

// Verify checks a function body for structural faults:
//  1. block, loop and if are closed by a matching end
//  2. else only appears once, directly inside an if
//  3. branch targets name a frame that is in scope
//  4. immediates are well formed
func Verify(code []Instr) []VerifyError {
	var (
		errs  []VerifyError
		stack []verifyFrame
	)
	fail := func(offset int, format string, args ...interface{}) {
		errs = append(errs, VerifyError{Offset: offset, Message: fmt.Sprintf(format, args...)})
	}
	for offset, in := range code {
		switch in.Op {
		case OpBlock, OpLoop, OpIf:
			stack = append(stack, verifyFrame{op: in.Op, label: in.Imm})

		case OpElse:
			if len(stack) == 0 || stack[len(stack)-1].op != OpIf {
				fail(offset, "else outside if")
				continue
			}
			if stack[len(stack)-1].hasElse {
				fail(offset, "duplicate else")
			}
			stack[len(stack)-1].hasElse = true

		case OpEnd:
			if len(stack) == 0 {
				fail(offset, "unbalanced end")
				continue
			}
			stack = stack[:len(stack)-1]

		case OpBr, OpBrIf:
			if !labelInScope(stack, in.Imm) {
				fail(offset, "branch to unknown label %q", in.Imm)
			}

		case OpI32Const:
			if _, err := strconv.ParseInt(in.Imm, 10, 32); err != nil {
				fail(offset, "invalid i32 constant %q", in.Imm)
			}

		case OpLocalGet, OpLocalSet, OpLocalTee, OpCall:
			if len(in.Imm) < 2 || !strings.HasPrefix(in.Imm, "$") {
				fail(offset, "%s needs a $name operand", in.Op)
			}
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		fail(len(code), "%s %s not closed", stack[i].op, stack[i].label)
	}
	return errs
}

// labelInScope resolves a branch target given either as a $name or as a
// relative depth. Depth len(stack) addresses the function body itself.
func labelInScope(stack []verifyFrame, label string) bool {
	if n, err := strconv.Atoi(label); err == nil {
		return n >= 0 && n <= len(stack)
	}
	if label == "" {
		return false
	}
	for _, f := range stack {
		if f.label == label {
			return true
		}
	}
	return false
}
