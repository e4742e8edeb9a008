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

package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/wat"
)

// ---- Helpers ---------------------------------------------------------------

// testModule parses body text into the two-parameter test module.
func testModule(t *testing.T, body string) *wat.Module {
	t.Helper()
	code, err := wat.Parse(body)
	require.NoError(t, err)
	return wat.TestModule(code)
}

// newTestVM creates a VM for body with a generous step limit.
func newTestVM(t *testing.T, body string, hosts map[string]HostFunc) *VM {
	t.Helper()
	v, err := New(testModule(t, body), hosts, Config{StepLimit: 1_000_000})
	require.NoError(t, err)
	return v
}

// runVM runs the VM and fails the test on error.
func runVM(t *testing.T, v *VM, a, b int32) int32 {
	t.Helper()
	result, err := v.Run(context.Background(), a, b)
	require.NoError(t, err)
	return result
}

// ---- Arithmetic ------------------------------------------------------------

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b int32
		want int32
	}{
		{"i32.add", 2, 3, 5},
		{"i32.sub", 2, 3, -1},
		{"i32.mul", -4, 3, -12},
		{"i32.div_s", -7, 2, -3},
		{"i32.rem_s", -7, 2, -1},
		{"i32.rem_s", -1 << 31, -1, 0},
		{"i32.and", 6, 3, 2},
		{"i32.or", 6, 3, 7},
		{"i32.xor", 6, 3, 5},
		{"i32.eq", 3, 3, 1},
		{"i32.ne", 3, 3, 0},
		{"i32.lt_s", -1, 0, 1},
		{"i32.gt_s", -1, 0, 0},
		{"i32.le_s", 2, 2, 1},
		{"i32.ge_s", 1, 2, 0},
		{"i32.add", 1<<31 - 1, 1, -1 << 31},
	}
	for _, tt := range tests {
		v := newTestVM(t, "local.get $a\nlocal.get $b\n"+tt.op, nil)
		assert.Equal(t, tt.want, runVM(t, v, tt.a, tt.b), "%s %d %d", tt.op, tt.a, tt.b)
	}
}

func TestEqz(t *testing.T) {
	v := newTestVM(t, "local.get $a\ni32.eqz", nil)
	assert.Equal(t, int32(1), runVM(t, v, 0, 0))
	assert.Equal(t, int32(0), runVM(t, v, 5, 0))
}

func TestLocals(t *testing.T) {
	m := testModule(t, "local.get $a\nlocal.tee $x\nlocal.get $x\ni32.mul\nlocal.set $x\nlocal.get $x\nlocal.get $b\ni32.add")
	m.Locals = []string{"x"}
	v, err := New(m, nil, Config{})
	require.NoError(t, err)
	assert.Equal(t, int32(13), runVM(t, v, 3, 4))
}

// ---- Control flow ----------------------------------------------------------

func TestIfElse(t *testing.T) {
	body := `
local.get $a
if
  i32.const 10
else
  i32.const 20
end
local.get $b
if
  i32.const 1
  i32.add
end`
	v := newTestVM(t, body, nil)
	assert.Equal(t, int32(10), runVM(t, v, 1, 0))
	assert.Equal(t, int32(20), runVM(t, v, 0, 0))
	assert.Equal(t, int32(21), runVM(t, v, 0, 1))
}

func TestNestedElse(t *testing.T) {
	body := `
local.get $a
if
  i32.const 1
else
  local.get $b
  if
    i32.const 2
  else
    i32.const 3
  end
end`
	v := newTestVM(t, body, nil)
	assert.Equal(t, int32(1), runVM(t, v, 1, 1))
	assert.Equal(t, int32(2), runVM(t, v, 0, 1))
	assert.Equal(t, int32(3), runVM(t, v, 0, 0))
}

// sum of 1..a with labelled loop/block, the shape of a lowered while.
const sumLoop = `
loop $L0
  block $B0
    local.get $a
    i32.eqz
    br_if $B0
    local.get $b
    local.get $a
    i32.add
    local.set $b
    local.get $a
    i32.const 1
    i32.sub
    local.set $a
    br $L0
  end
end
local.get $b`

func TestLoop(t *testing.T) {
	v := newTestVM(t, sumLoop, nil)
	assert.Equal(t, int32(55), runVM(t, v, 10, 0))
	assert.Equal(t, int32(0), runVM(t, v, 0, 0))
	assert.Greater(t, v.Steps(), uint64(0))
}

func TestBranchByDepth(t *testing.T) {
	body := `
block
  block
    local.get $a
    br_if 1
    i32.const 7
    return
  end
end
i32.const 9`
	v := newTestVM(t, body, nil)
	assert.Equal(t, int32(9), runVM(t, v, 1, 0))
	assert.Equal(t, int32(7), runVM(t, v, 0, 0))
}

func TestBranchOutOfFunction(t *testing.T) {
	v := newTestVM(t, "i32.const 4\nbr 0\ni32.const 5", nil)
	assert.Equal(t, int32(4), runVM(t, v, 0, 0))
}

func TestBranchResetsStack(t *testing.T) {
	body := `
i32.const 1
block $B
  i32.const 2
  i32.const 3
  br $B
end`
	v := newTestVM(t, body, nil)
	assert.Equal(t, int32(1), runVM(t, v, 0, 0))
}

// ---- Memory ----------------------------------------------------------------

func TestMemoryAccess(t *testing.T) {
	body := `
local.get $a
local.get $b
i32.store
local.get $a
i32.load`
	v := newTestVM(t, body, nil)
	assert.Equal(t, int32(-5), runVM(t, v, 8, -5))

	word, err := v.Memory().Read(8, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff, 0xff, 0xff}, word)

	_, err = v.Run(context.Background(), PageSize-3, 1)
	assert.Equal(t, ErrInvalidAddress, err)
	_, err = v.Run(context.Background(), -4, 1)
	assert.Equal(t, ErrInvalidAddress, err)
}

func TestMemoryResetBetweenRuns(t *testing.T) {
	v := newTestVM(t, "i32.const 0\ni32.load\ni32.const 0\nlocal.get $a\ni32.store", nil)
	assert.Equal(t, int32(0), runVM(t, v, 5, 0))
	assert.Equal(t, int32(0), runVM(t, v, 6, 0))
}

func TestNewMemory(t *testing.T) {
	m, err := NewMemory(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2*PageSize, m.Size())
	assert.Equal(t, 2, m.Pages())

	require.NoError(t, m.Store(4, 0x01020304))
	got, err := m.Load(4)
	require.NoError(t, err)
	assert.Equal(t, int32(0x01020304), got)
	raw, err := m.Read(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 3, 2, 1}, raw)

	_, err = NewMemory(DefaultMaxPages+1, 0)
	assert.Equal(t, ErrOutOfMemory, err)
	_, err = NewMemory(4, 3)
	assert.Equal(t, ErrOutOfMemory, err)

	var empty Memory
	_, err = empty.Load(0)
	assert.Equal(t, ErrInvalidAddress, err)
}

// ---- Host calls ------------------------------------------------------------

func TestHostCall(t *testing.T) {
	m := testModule(t, "local.get $a\ncall $log\nlocal.get $a\nlocal.get $b\ncall $max")
	m.Imports = []wat.Import{
		{Module: "env", Name: "log", Params: 1},
		{Module: "env", Name: "max", Params: 2, Results: 1},
	}
	var logged []int32
	hosts := map[string]HostFunc{
		"log": func(args []int32) ([]int32, error) {
			logged = append(logged, args...)
			return nil, nil
		},
		"max": func(args []int32) ([]int32, error) {
			if args[0] > args[1] {
				return []int32{args[0]}, nil
			}
			return []int32{args[1]}, nil
		},
	}
	v, err := New(m, hosts, Config{})
	require.NoError(t, err)
	assert.Equal(t, int32(9), runVM(t, v, 3, 9))
	assert.Equal(t, int32(4), runVM(t, v, 4, 1))
	assert.Equal(t, []int32{3, 4}, logged)
}

func TestHostErrors(t *testing.T) {
	m := testModule(t, "local.get $a\ncall $f")
	m.Imports = []wat.Import{{Module: "env", Name: "f", Params: 1, Results: 1}}

	boom := errors.New("boom")
	v, err := New(m, map[string]HostFunc{"f": func([]int32) ([]int32, error) { return nil, boom }}, Config{})
	require.NoError(t, err)
	_, err = v.Run(context.Background(), 0, 0)
	assert.Equal(t, boom, err)

	v, err = New(m, map[string]HostFunc{"f": func([]int32) ([]int32, error) { return nil, nil }}, Config{})
	require.NoError(t, err)
	_, err = v.Run(context.Background(), 0, 0)
	assert.Equal(t, ErrHostResults, err)

	v, err = New(m, nil, Config{})
	require.NoError(t, err)
	_, err = v.Run(context.Background(), 0, 0)
	assert.Equal(t, ErrUnknownFunction, err)
}

// ---- Traps -----------------------------------------------------------------

func TestTraps(t *testing.T) {
	tests := []struct {
		body string
		a, b int32
		err  error
	}{
		{"local.get $a\nlocal.get $b\ni32.div_s", 1, 0, ErrDivisionByZero},
		{"local.get $a\nlocal.get $b\ni32.rem_s", 1, 0, ErrDivisionByZero},
		{"local.get $a\nlocal.get $b\ni32.div_s", -1 << 31, -1, ErrIntegerOverflow},
		{"unreachable", 0, 0, ErrUnreachable},
		{"i32.add", 0, 0, ErrStackUnderflow},
		{"nop", 0, 0, ErrStackUnderflow},
		{"drop", 0, 0, ErrStackUnderflow},
		{"local.get $zz", 0, 0, ErrUnknownLocal},
		{"block $B0\nbr $B1\nend", 0, 0, ErrUnknownLabel},
		{"br 3", 0, 0, ErrUnknownLabel},
		{"loop $L\nbr $L\nend", 0, 0, ErrStepLimit},
	}
	for _, tt := range tests {
		v, err := New(testModule(t, tt.body), nil, Config{StepLimit: 1000})
		require.NoError(t, err, tt.body)
		_, err = v.Run(context.Background(), tt.a, tt.b)
		assert.Equal(t, tt.err, err, tt.body)
		assert.Equal(t, diag.Runtime, diag.KindOf(err), tt.body)
	}
}

func TestUnknownInstruction(t *testing.T) {
	m := wat.TestModule([]wat.Instr{{Op: wat.Op(200)}})
	v, err := New(m, nil, Config{})
	require.NoError(t, err)
	_, err = v.Run(context.Background(), 0, 0)
	assert.Equal(t, ErrUnknownInstruction, err)
}

func TestMalformed(t *testing.T) {
	for _, body := range []string{"end", "block", "if\nelse\nelse\nend", "block\nelse\nend"} {
		_, err := New(testModule(t, body), nil, Config{})
		assert.Equal(t, ErrMalformed, err, body)
	}
	v := newTestVM(t, "i32.const x", nil)
	_, err := v.Run(context.Background(), 0, 0)
	assert.Equal(t, ErrMalformed, err)
}

func TestArgumentCount(t *testing.T) {
	v := newTestVM(t, "local.get $a", nil)
	_, err := v.Run(context.Background(), 1)
	assert.Equal(t, ErrArgumentCount, err)
}

func TestCancel(t *testing.T) {
	v := newTestVM(t, "loop $L\nbr $L\nend", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Run(ctx, 0, 0)
	assert.Equal(t, context.Canceled, err)
}
