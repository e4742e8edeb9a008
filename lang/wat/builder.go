// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package wat

import "strconv"

// Builder appends instructions to a flat instruction sequence.
type Builder struct {
	code []Instr
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Code returns the instructions emitted so far.
func (b *Builder) Code() []Instr {
	return b.code
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.code) }

// Emit appends an instruction without immediate.
func (b *Builder) Emit(op Op) {
	b.code = append(b.code, Instr{Op: op})
}

// EmitImm appends an instruction with an immediate.
func (b *Builder) EmitImm(op Op, imm string) {
	b.code = append(b.code, Instr{Op: op, Imm: imm})
}

// Const pushes an i32 constant.
func (b *Builder) Const(v int32) {
	b.EmitImm(OpI32Const, strconv.FormatInt(int64(v), 10))
}

// LocalGet pushes the named local.
func (b *Builder) LocalGet(name string) { b.EmitImm(OpLocalGet, Ident(name)) }

// LocalSet pops into the named local.
func (b *Builder) LocalSet(name string) { b.EmitImm(OpLocalSet, Ident(name)) }

// Call calls the named function.
func (b *Builder) Call(name string) { b.EmitImm(OpCall, Ident(name)) }

// Block opens a labelled block.
func (b *Builder) Block(label string) { b.EmitImm(OpBlock, label) }

// Loop opens a labelled loop.
func (b *Builder) Loop(label string) { b.EmitImm(OpLoop, label) }

// Br branches to label.
func (b *Builder) Br(label string) { b.EmitImm(OpBr, label) }

// BrIf branches to label when the popped value is non-zero.
func (b *Builder) BrIf(label string) { b.EmitImm(OpBrIf, label) }

// Ident turns a source name into a WAT identifier.
func Ident(name string) string { return "$" + name }

// LoopLabel and BlockLabel name the two frames a loop at the given loop
// depth opens: continue targets the loop, break targets the block.
func LoopLabel(depth int) string { return "$L" + strconv.Itoa(depth) }

// BlockLabel is the break target of the loop at depth.
func BlockLabel(depth int) string { return "$B" + strconv.Itoa(depth) }

// If opens an if frame on the popped condition.
func (b *Builder) If() { b.Emit(OpIf) }

// Else switches an if frame to its else arm.
func (b *Builder) Else() { b.Emit(OpElse) }

// End closes the innermost frame.
func (b *Builder) End() { b.Emit(OpEnd) }
