// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-lichen/lang/codegen"
	"github.com/probechain/go-lichen/lang/lexer"
	"github.com/probechain/go-lichen/lang/vm"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func runExpr(t *testing.T, e *Engine, src string, args ...int32) int32 {
	t.Helper()
	p, err := e.CompileExpr(src)
	require.NoError(t, err, src)
	res, err := e.Run(context.Background(), p, args...)
	require.NoError(t, err, src)
	return res.Value
}

func runStmts(t *testing.T, e *Engine, src string, args ...int32) *Result {
	t.Helper()
	p, err := e.Compile(src)
	require.NoError(t, err, src)
	res, err := e.Run(context.Background(), p, args...)
	require.NoError(t, err, src)
	return res
}

// ---- Expressions ----

func TestArithmetic(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	assert.Equal(t, int32(59), runExpr(t, e, "(10 - 1) + 2 * ((1 + 4) * 5)"))
	assert.Equal(t, int32(7), runExpr(t, e, "a + b", 3, 4))
	assert.Equal(t, int32(-3), runExpr(t, e, "-a", 3))
	assert.Equal(t, int32(2), runExpr(t, e, "7 / 3"))
	assert.Equal(t, int32(1), runExpr(t, e, "7 % 3"))
}

func TestTruthTables(t *testing.T) {
	inputs := [][2]int32{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	tests := []struct {
		src  string
		want [4]int32
	}{
		{"!a && !b", [4]int32{1, 0, 0, 0}},
		{"!(a || b)", [4]int32{1, 0, 0, 0}},
		{"a != b", [4]int32{0, 1, 1, 0}},
		{"a * b != a + b", [4]int32{0, 1, 1, 1}},
		{"-a <= b && b <= a", [4]int32{1, 0, 1, 1}},
		{"a == b", [4]int32{1, 0, 0, 1}},
		{"a && b || !a && !b", [4]int32{1, 0, 0, 1}},
	}
	e := newEngine(t, DefaultConfig)
	for _, tt := range tests {
		var got [4]int32
		for i, in := range inputs {
			got[i] = runExpr(t, e, tt.src, in[0], in[1])
		}
		assert.Equal(t, tt.want, got, tt.src)
	}
}

// ---- Statements ----

func TestLoopWithLog(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	res := runStmts(t, e, "let mut i = 0; while (i < 5) { log(i); i += 1; }; i")
	assert.Equal(t, int32(5), res.Value)
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, res.Logs)
	assert.NotZero(t, res.Steps)
}

func TestBreakAndContinue(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	res := runStmts(t, e, "let i = 0; while (1) { if (i == 3) { break; }; i += 1; }; return i")
	assert.Equal(t, int32(3), res.Value)

	// sum of the odd numbers below a
	res = runStmts(t, e, `
		let i = 0;
		let sum = 0;
		while (i < a) {
			i += 1;
			if (i % 2 == 0) { continue; };
			sum += i;
		};
		sum`, 10)
	assert.Equal(t, int32(25), res.Value)
}

func TestCompoundAssignment(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	res := runStmts(t, e, "__mem[4] = 7; __mem[4] += 1; __mem[4]")
	assert.Equal(t, int32(8), res.Value)

	res = runStmts(t, e, "let x = a; x *= 3; x -= b; x %= 5; x", 4, 1)
	assert.Equal(t, int32(1), res.Value)
}

func TestNestedLoops(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	res := runStmts(t, e, `
		let count = 0;
		let i = 0;
		while (i < a) {
			let j = 0;
			while (1) {
				if (j == b) { break; };
				count += 1;
				j += 1;
			};
			i += 1;
		};
		count`, 4, 3)
	assert.Equal(t, int32(12), res.Value)
}

func TestPrimeSieve(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	src := `
		let n = a;
		let i = 2;
		while (i < n) { __mem[i * 4] = 1; i += 1; };
		i = 2;
		while (i * i < n) {
			if (__mem[i * 4]) {
				let j = i * i;
				while (j < n) { __mem[j * 4] = 0; j += i; };
			};
			i += 1;
		};
		let count = 0;
		i = 2;
		while (i < n) {
			if (__mem[i * 4]) { log(i); };
			count += __mem[i * 4];
			i += 1;
		};
		count`
	p, err := e.Compile(src)
	require.NoError(t, err)
	assert.True(t, p.Symbols.UsesMemory)

	m, err := e.Module(p)
	require.NoError(t, err)
	assert.Equal(t, 1, m.MemoryPages)
	assert.ElementsMatch(t, []string{"count", "i", "j", "n"}, m.Locals)

	res, err := e.Run(context.Background(), p, 30)
	require.NoError(t, err)
	assert.Equal(t, int32(10), res.Value)
	assert.Equal(t, []int32{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, res.Logs)
}

func TestAssert(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p, err := e.Compile("assert a > 0; a")
	require.NoError(t, err)

	res, err := e.Run(context.Background(), p, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), res.Value)

	_, err = e.Run(context.Background(), p, 0)
	assert.Equal(t, vm.ErrUnreachable, err)
}

func TestNoValue(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p, err := e.Compile("let x = a; log(x)")
	require.NoError(t, err)
	m, err := e.Module(p)
	require.NoError(t, err)
	assert.False(t, m.Result)

	res, err := e.Run(context.Background(), p, 9)
	require.NoError(t, err)
	assert.Equal(t, int32(0), res.Value)
	assert.Equal(t, []int32{9}, res.Logs)
}

// ---- Modules and hosts ----

func TestModuleText(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p, err := e.Compile("let mut n = 0; while (n < a) { __mem[n] = n; log(n); n += 1; }; return n")
	require.NoError(t, err)
	m, err := e.Module(p)
	require.NoError(t, err)

	text := m.String()
	assert.Contains(t, text, `(import "env" "log" (func $log (param i32)))`)
	assert.Contains(t, text, `(memory (export "memory") 1)`)
	assert.Contains(t, text, `(func $main (export "main") (param $a i32) (param $b i32) (result i32)`)
	assert.Contains(t, text, "(local $n i32)")
	assert.NotContains(t, text, "(local $a i32)")
}

func TestCustomHost(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	e.Register("double", Host{Params: 1, Results: 1, Fn: func(_ *Result, args []int32) ([]int32, error) {
		return []int32{args[0] * 2}, nil
	}})
	res := runStmts(t, e, "let x = a + 1; double(x)", 20)
	assert.Equal(t, int32(42), res.Value)

	p, err := e.Compile("missing(1)")
	require.NoError(t, err)
	_, err = e.Module(p)
	assert.ErrorIs(t, err, ErrUnknownHost)
}

// ---- Failures ----

func TestCompileErrors(t *testing.T) {
	e := newEngine(t, DefaultConfig)

	_, err := e.Compile("(1 + 2")
	assert.Equal(t, lexer.ErrBraceNotClosed, err)

	_, err = e.Compile("x = 0x1_")
	assert.Equal(t, codegen.ErrInvalidNumber, err)

	_, err = e.CompileExpr("a = 1")
	assert.Equal(t, codegen.ErrInvalidShape, err)

	_, err = e.Compile("if (a) { 1 } else { 2 }")
	assert.Equal(t, codegen.ErrInvalidShape, err)

	deep := strings.Repeat("(", 8) + "1" + strings.Repeat(")", 8)
	shallow := newEngine(t, Config{MaxDepth: 4})
	_, err = shallow.CompileExpr(deep)
	assert.Error(t, err)
	_, err = e.CompileExpr(deep)
	assert.NoError(t, err)
}

func TestRunErrors(t *testing.T) {
	cfg := DefaultConfig
	cfg.StepLimit = 1000
	e := newEngine(t, cfg)

	p, err := e.Compile("while (1) { a += 1; }")
	require.NoError(t, err)
	res, err := e.Run(context.Background(), p)
	assert.Equal(t, vm.ErrStepLimit, err)
	assert.Equal(t, uint64(1000), res.Steps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)

	p, err = e.CompileExpr("a / b")
	require.NoError(t, err)
	_, err = e.Run(context.Background(), p, 1, 0)
	assert.Equal(t, vm.ErrDivisionByZero, err)
	_, err = e.Run(context.Background(), p, 1, 2, 3)
	assert.Equal(t, ErrArgumentCount, err)
}

// ---- Caches ----

func TestProgramCache(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p1, err := e.Compile("a + 1")
	require.NoError(t, err)
	p2, err := e.Compile("a + 1")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	// the expression form is cached separately
	p3, err := e.CompileExpr("a + 1")
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	assert.NotEqual(t, p1.Key, p3.Key)

	assert.Equal(t, Stats{ProgramHits: 1, Misses: 2}, e.Stats())
}

func TestNormalization(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	composed, err := e.Compile("let \u00e9 = a; \u00e9")
	require.NoError(t, err)
	decomposed, err := e.Compile("let e\u0301 = a; e\u0301")
	require.NoError(t, err)
	assert.Same(t, composed, decomposed)
}

func TestTextCache(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p, err := e.Compile("let x = a * 2; x")
	require.NoError(t, err)

	text, err := e.WAT("let x = a * 2; x")
	require.NoError(t, err)
	assert.Equal(t, p.WAT, text)
	assert.Equal(t, uint64(1), e.Stats().TextHits)

	// a text miss compiles
	text, err = e.WAT("b")
	require.NoError(t, err)
	assert.Equal(t, "local.get $b\n", text)
	assert.Equal(t, uint64(2), e.Stats().Misses)
}

func TestMemoryDiskStore(t *testing.T) {
	store, err := NewMemoryDiskStore()
	require.NoError(t, err)
	defer store.Close()

	first, err := NewWithStore(DefaultConfig, store)
	require.NoError(t, err)
	p, err := first.Compile("a - b")
	require.NoError(t, err)

	second, err := NewWithStore(DefaultConfig, store)
	require.NoError(t, err)
	text, err := second.WAT("a - b")
	require.NoError(t, err)
	assert.Equal(t, p.WAT, text)
	assert.Equal(t, Stats{DiskHits: 1}, second.Stats())

	_, ok := store.Get(Keccak256([]byte("nothing")))
	assert.False(t, ok)
}

func TestDiskStorePersists(t *testing.T) {
	cfg := DefaultConfig
	cfg.CacheDir = t.TempDir()

	e, err := New(cfg)
	require.NoError(t, err)
	p, err := e.Compile("return a % 7")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	e, err = New(cfg)
	require.NoError(t, err)
	defer e.Close()
	text, err := e.WAT("return a % 7")
	require.NoError(t, err)
	assert.Equal(t, p.WAT, text)
	assert.Equal(t, uint64(1), e.Stats().DiskHits)
}

// ---- API ----

func TestAPI(t *testing.T) {
	api := NewAPI(newEngine(t, DefaultConfig))
	ctx := context.Background()

	res := api.Compile(ctx, "let y = a; log(y); y")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"log"}, res.Calls)
	assert.Equal(t, []string{"y"}, res.Locals)
	assert.True(t, strings.HasPrefix(res.Hash, "0x"))
	assert.Contains(t, res.Module, "(module")

	res = api.Compile(ctx, "{")
	assert.False(t, res.Success)
	assert.Equal(t, "structural", res.Kind)

	run := api.Run(ctx, "a * b", []int32{6, 7})
	require.True(t, run.Success, run.Error)
	assert.Equal(t, int32(42), run.Value)

	run = api.Run(ctx, "a / b", []int32{1})
	assert.False(t, run.Success)
	assert.Equal(t, "runtime", run.Kind)

	text, err := api.Format(ctx, "block $B0\ni32.const 1\nend")
	require.NoError(t, err)
	assert.Equal(t, "block $B0\n  i32.const 1\nend\n", text)
	assert.Equal(t, Version, api.Version(ctx))
}
