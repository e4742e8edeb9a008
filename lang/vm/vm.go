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

// Package vm executes the WAT subset produced by the lichen code generator.
//
// It is a plain stack interpreter over int32 values. Structured control
// is linked once when the VM is created; execution then walks the flat
// instruction list with a label stack, the way a WebAssembly engine would
// before compilation.
package vm

import (
	"context"
	"strconv"
	"strings"

	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/wat"
)

// ---- Error sentinels -------------------------------------------------------

var (
	// ErrStepLimit is returned when execution exceeds the configured number
	// of instructions.
	ErrStepLimit = diag.New(diag.Runtime, "vm: step limit exceeded")

	// ErrDivisionByZero is returned by i32.div_s and i32.rem_s when the
	// divisor is zero.
	ErrDivisionByZero = diag.New(diag.Runtime, "vm: integer divide by zero")

	// ErrIntegerOverflow is returned by i32.div_s for MinInt32 / -1.
	ErrIntegerOverflow = diag.New(diag.Runtime, "vm: integer overflow")

	// ErrUnreachable is returned when an unreachable instruction executes.
	ErrUnreachable = diag.New(diag.Runtime, "vm: unreachable executed")

	// ErrStackUnderflow is returned when an instruction pops an empty stack.
	ErrStackUnderflow = diag.New(diag.Runtime, "vm: stack underflow")

	// ErrUnknownLabel is returned by a branch whose target is not in scope.
	ErrUnknownLabel = diag.New(diag.Runtime, "vm: unknown label")

	// ErrUnknownFunction is returned by a call to a function that is neither
	// imported nor provided by the host.
	ErrUnknownFunction = diag.New(diag.Runtime, "vm: unknown function")

	// ErrUnknownLocal is returned when a local instruction names an
	// undeclared local.
	ErrUnknownLocal = diag.New(diag.Runtime, "vm: unknown local")

	// ErrUnknownInstruction is returned for an op the interpreter does not
	// implement.
	ErrUnknownInstruction = diag.New(diag.Runtime, "vm: unknown instruction")

	// ErrMalformed is returned for unbalanced control structure or an
	// unreadable immediate.
	ErrMalformed = diag.New(diag.Runtime, "vm: malformed function body")

	// ErrArgumentCount is returned when Run gets a different number of
	// arguments than the function declares.
	ErrArgumentCount = diag.New(diag.Runtime, "vm: argument count mismatch")

	// ErrHostResults is returned when a host function returns a different
	// number of results than its import declares.
	ErrHostResults = diag.New(diag.Runtime, "vm: host function result count mismatch")
)

// DefaultStepLimit is used when Config.StepLimit is zero.
const DefaultStepLimit uint64 = 10_000_000

// ctxCheckInterval is the number of steps between context checks.
const ctxCheckInterval = 1024

// HostFunc implements an imported function.
type HostFunc func(args []int32) ([]int32, error)

// Config bounds an execution.
type Config struct {
	StepLimit uint64 // instructions per Run, 0 for DefaultStepLimit
	MaxPages  int    // memory pages a module may declare, 0 for DefaultMaxPages
}

// ---- Labels ----------------------------------------------------------------

// label is one entered block, loop or if.
type label struct {
	op     wat.Op
	name   string
	start  int
	end    int
	height int // value stack height on entry
}

// ---- VM --------------------------------------------------------------------

// VM runs the single function of a module.
type VM struct {
	module *wat.Module
	hosts  map[string]HostFunc
	spans  map[int]span
	index  map[string]int // local name -> slot
	memory *Memory
	limit  uint64

	locals []int32
	stack  []int32
	labels []label
	steps  uint64
}

// New links the module body and prepares its memory.
func New(m *wat.Module, hosts map[string]HostFunc, cfg Config) (*VM, error) {
	spans, err := link(m.Body)
	if err != nil {
		return nil, err
	}
	memory, err := NewMemory(m.MemoryPages, cfg.MaxPages)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(m.Params)+len(m.Locals))
	for _, name := range append(append([]string{}, m.Params...), m.Locals...) {
		if _, dup := index[wat.Ident(name)]; !dup {
			index[wat.Ident(name)] = len(index)
		}
	}
	limit := cfg.StepLimit
	if limit == 0 {
		limit = DefaultStepLimit
	}
	return &VM{
		module: m,
		hosts:  hosts,
		spans:  spans,
		index:  index,
		memory: memory,
		limit:  limit,
		stack:  make([]int32, 0, 32),
		labels: make([]label, 0, 8),
	}, nil
}

// Steps returns the number of instructions executed by the last Run.
func (vm *VM) Steps() uint64 { return vm.steps }

// Memory returns the linear memory of the instance.
func (vm *VM) Memory() *Memory { return vm.memory }

// Run calls the function with args. Memory, locals and stacks start zeroed
// on every call. The result is the top of the value stack when the function
// returns, or 0 for a function without result.
func (vm *VM) Run(ctx context.Context, args ...int32) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(args) != len(vm.module.Params) {
		return 0, ErrArgumentCount
	}
	vm.locals = make([]int32, len(vm.index))
	copy(vm.locals, args)
	vm.stack = vm.stack[:0]
	vm.labels = vm.labels[:0]
	vm.steps = 0
	vm.memory.reset()

	if err := vm.exec(ctx); err != nil {
		return 0, err
	}
	if !vm.module.Result {
		return 0, nil
	}
	return vm.pop()
}

func (vm *VM) push(v int32) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (int32, error) {
	n := len(vm.stack)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}

func (vm *VM) pop2() (a, b int32, err error) {
	if b, err = vm.pop(); err != nil {
		return 0, 0, err
	}
	if a, err = vm.pop(); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (vm *VM) local(imm string) (int, error) {
	slot, ok := vm.index[imm]
	if !ok {
		return 0, ErrUnknownLocal
	}
	return slot, nil
}

// exec runs the body until it falls off the end or returns.
func (vm *VM) exec(ctx context.Context) error {
	code := vm.module.Body
	pc := 0
	for pc < len(code) {
		if vm.steps >= vm.limit {
			return ErrStepLimit
		}
		vm.steps++
		if vm.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		in := code[pc]
		switch in.Op {
		case wat.OpNop:

		case wat.OpUnreachable:
			return ErrUnreachable

		case wat.OpBlock, wat.OpLoop:
			vm.labels = append(vm.labels, label{op: in.Op, name: in.Imm, start: pc, end: vm.spans[pc].end, height: len(vm.stack)})

		case wat.OpIf:
			cond, err := vm.pop()
			if err != nil {
				return err
			}
			s := vm.spans[pc]
			if cond == 0 && s.els < 0 {
				pc = s.end + 1
				continue
			}
			vm.labels = append(vm.labels, label{op: wat.OpIf, start: pc, end: s.end, height: len(vm.stack)})
			if cond == 0 {
				pc = s.els + 1
				continue
			}

		case wat.OpElse:
			// end of the taken arm
			vm.labels = vm.labels[:len(vm.labels)-1]
			pc = vm.spans[pc].end + 1
			continue

		case wat.OpEnd:
			vm.labels = vm.labels[:len(vm.labels)-1]

		case wat.OpBr, wat.OpBrIf:
			if in.Op == wat.OpBrIf {
				cond, err := vm.pop()
				if err != nil {
					return err
				}
				if cond == 0 {
					break
				}
			}
			target, err := vm.branch(in.Imm)
			if err != nil {
				return err
			}
			if target < 0 {
				return nil
			}
			pc = target
			continue

		case wat.OpReturn:
			return nil

		case wat.OpCall:
			if err := vm.call(in.Imm); err != nil {
				return err
			}

		case wat.OpDrop:
			if _, err := vm.pop(); err != nil {
				return err
			}

		case wat.OpLocalGet:
			slot, err := vm.local(in.Imm)
			if err != nil {
				return err
			}
			vm.push(vm.locals[slot])

		case wat.OpLocalSet, wat.OpLocalTee:
			slot, err := vm.local(in.Imm)
			if err != nil {
				return err
			}
			v, err := vm.pop()
			if err != nil {
				return err
			}
			vm.locals[slot] = v
			if in.Op == wat.OpLocalTee {
				vm.push(v)
			}

		case wat.OpI32Load:
			addr, err := vm.pop()
			if err != nil {
				return err
			}
			v, err := vm.memory.Load(addr)
			if err != nil {
				return err
			}
			vm.push(v)

		case wat.OpI32Store:
			addr, v, err := vm.pop2()
			if err != nil {
				return err
			}
			if err := vm.memory.Store(addr, v); err != nil {
				return err
			}

		case wat.OpI32Const:
			v, err := strconv.ParseInt(in.Imm, 10, 32)
			if err != nil {
				return ErrMalformed
			}
			vm.push(int32(v))

		case wat.OpI32Eqz:
			v, err := vm.pop()
			if err != nil {
				return err
			}
			vm.push(boolToI32(v == 0))

		default:
			if in.Op < wat.OpI32Eq || in.Op > wat.OpI32Xor {
				return ErrUnknownInstruction
			}
			a, b, err := vm.pop2()
			if err != nil {
				return err
			}
			v, err := binop(in.Op, a, b)
			if err != nil {
				return err
			}
			vm.push(v)
		}
		pc++
	}
	return nil
}

// branch unwinds to the target label and returns the next pc, or -1 when
// the branch leaves the function.
func (vm *VM) branch(target string) (int, error) {
	k := -1
	if n, err := strconv.Atoi(target); err == nil {
		if n < 0 || n > len(vm.labels) {
			return 0, ErrUnknownLabel
		}
		if n == len(vm.labels) {
			return -1, nil
		}
		k = len(vm.labels) - 1 - n
	} else {
		for i := len(vm.labels) - 1; i >= 0; i-- {
			if vm.labels[i].name != "" && vm.labels[i].name == target {
				k = i
				break
			}
		}
		if k < 0 {
			return 0, ErrUnknownLabel
		}
	}
	l := vm.labels[k]
	vm.stack = vm.stack[:l.height]
	if l.op == wat.OpLoop {
		vm.labels = vm.labels[:k+1]
		return l.start + 1, nil
	}
	vm.labels = vm.labels[:k]
	return l.end + 1, nil
}

func (vm *VM) call(imm string) error {
	name := strings.TrimPrefix(imm, "$")
	imp, declared := vm.module.LookupImport(name)
	host, provided := vm.hosts[name]
	if !declared || !provided {
		return ErrUnknownFunction
	}
	if len(vm.stack) < imp.Params {
		return ErrStackUnderflow
	}
	at := len(vm.stack) - imp.Params
	args := append([]int32(nil), vm.stack[at:]...)
	vm.stack = vm.stack[:at]

	results, err := host(args)
	if err != nil {
		return err
	}
	if len(results) != imp.Results {
		return ErrHostResults
	}
	vm.stack = append(vm.stack, results...)
	return nil
}

func binop(op wat.Op, a, b int32) (int32, error) {
	switch op {
	case wat.OpI32Add:
		return a + b, nil
	case wat.OpI32Sub:
		return a - b, nil
	case wat.OpI32Mul:
		return a * b, nil
	case wat.OpI32DivS:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		if a == -1<<31 && b == -1 {
			return 0, ErrIntegerOverflow
		}
		return a / b, nil
	case wat.OpI32RemS:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		if b == -1 {
			return 0, nil
		}
		return a % b, nil
	case wat.OpI32And:
		return a & b, nil
	case wat.OpI32Or:
		return a | b, nil
	case wat.OpI32Xor:
		return a ^ b, nil
	case wat.OpI32Eq:
		return boolToI32(a == b), nil
	case wat.OpI32Ne:
		return boolToI32(a != b), nil
	case wat.OpI32LtS:
		return boolToI32(a < b), nil
	case wat.OpI32GtS:
		return boolToI32(a > b), nil
	case wat.OpI32LeS:
		return boolToI32(a <= b), nil
	case wat.OpI32GeS:
		return boolToI32(a >= b), nil
	}
	return 0, ErrUnknownInstruction
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
