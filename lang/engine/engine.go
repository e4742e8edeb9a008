// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package engine ties the lichen pipeline together: it compiles source to
// WAT, caches the results and runs compiled programs in the interpreter.
package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"

	"github.com/probechain/go-lichen/internal/log"
	"github.com/probechain/go-lichen/lang/ast"
	"github.com/probechain/go-lichen/lang/codegen"
	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/parser"
	"github.com/probechain/go-lichen/lang/token"
	"github.com/probechain/go-lichen/lang/vm"
	"github.com/probechain/go-lichen/lang/wat"
)

var (
	// ErrVerify is returned when generated code fails structural
	// verification. The generator should never produce such code.
	ErrVerify = diag.New(diag.Internal, "engine: generated code failed verification")

	// ErrUnknownHost is returned when a program calls a function that no
	// host provides.
	ErrUnknownHost = diag.New(diag.Generate, "engine: call to unknown host function")

	// ErrArgumentCount is returned when Run gets more arguments than the
	// entry function has parameters.
	ErrArgumentCount = diag.New(diag.Runtime, "engine: too many arguments")
)

// Entry function of every compiled module.
const (
	EntryFunc   = "main"
	ImportScope = "env"
)

// EntryParams are the i32 parameters of the entry function.
var EntryParams = []string{"a", "b"}

// Config tunes an Engine.
type Config struct {
	MaxDepth    int    // bracket nesting limit, 0 disables
	StepLimit   uint64 // interpreter steps per run
	MemoryPages int    // pages declared by programs that use __mem
	CacheSize   int    // compiled programs kept in memory
	CacheBytes  int    // bytes of WAT text kept in memory
	CacheDir    string // persistent WAT store, empty disables
	Verify      bool   // verify generated code before accepting it
}

// DefaultConfig contains reasonable default settings.
var DefaultConfig = Config{
	MaxDepth:    parser.DefaultConfig.MaxDepth,
	StepLimit:   vm.DefaultStepLimit,
	MemoryPages: 1,
	CacheSize:   128,
	CacheBytes:  32 * 1024 * 1024,
	Verify:      true,
}

// Hash is the Keccak256 digest identifying a program.
type Hash [32]byte

// Hex returns the hex encoding of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// TerminalString abbreviates the hash for log output.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) (h Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// Program is a compiled lichen source.
type Program struct {
	Source  string // NFC normalized source
	Key     Hash
	Expr    bool // compiled as a single expression
	Stmts   []ast.Stmt
	Exprs   []ast.Expr
	Code    []wat.Instr
	WAT     string
	Symbols *codegen.Symbols
	Yields  bool // leaves a value for the entry function to return

	// TailCall names the host called by the last statement, whose
	// results decide what the program yields.
	TailCall string
}

// Result is the outcome of one run.
type Result struct {
	Value int32
	Steps uint64
	Logs  []int32
}

// Host is a function provided to programs under the env import scope. Fn
// gets the result of the run it is called from.
type Host struct {
	Params  int
	Results int
	Fn      func(run *Result, args []int32) ([]int32, error)
}

// Stats counts cache traffic.
type Stats struct {
	ProgramHits uint64
	TextHits    uint64
	DiskHits    uint64
	Misses      uint64
}

// Engine compiles and runs lichen programs. It is safe for concurrent use.
type Engine struct {
	cfg      Config
	parser   *parser.Parser
	programs *lru.ARCCache    // Hash -> *Program
	texts    *fastcache.Cache // Hash -> WAT text
	disk     *DiskStore

	hostLock sync.RWMutex
	hosts    map[string]Host

	stats Stats
	log   log.Logger
}

// New creates an engine. The disk store is opened when cfg.CacheDir is
// set.
func New(cfg Config) (*Engine, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig.CacheSize
	}
	if cfg.CacheBytes <= 0 {
		cfg.CacheBytes = DefaultConfig.CacheBytes
	}
	if cfg.MemoryPages <= 0 {
		cfg.MemoryPages = DefaultConfig.MemoryPages
	}
	programs, err := lru.NewARC(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		parser:   parser.New(parser.Config{MaxDepth: cfg.MaxDepth}),
		programs: programs,
		texts:    fastcache.New(cfg.CacheBytes),
		hosts:    make(map[string]Host),
		log:      log.New("module", "engine"),
	}
	if cfg.CacheDir != "" {
		if e.disk, err = OpenDiskStore(cfg.CacheDir, 0, 0); err != nil {
			return nil, err
		}
	}
	e.Register("log", Host{Params: 1, Fn: e.hostLog})
	return e, nil
}

// NewWithStore creates an engine that persists WAT text in store instead
// of opening cfg.CacheDir.
func NewWithStore(cfg Config, store *DiskStore) (*Engine, error) {
	cfg.CacheDir = ""
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	e.disk = store
	return e, nil
}

func (e *Engine) hostLog(run *Result, args []int32) ([]int32, error) {
	run.Logs = append(run.Logs, args[0])
	e.log.Debug("Program log", "value", args[0])
	return nil, nil
}

// Register makes h callable as name. A later registration replaces an
// earlier one.
func (e *Engine) Register(name string, h Host) {
	e.hostLock.Lock()
	defer e.hostLock.Unlock()
	e.hosts[name] = h
}

// Config returns the configuration in use.
func (e *Engine) Config() Config { return e.cfg }

// Stats returns a snapshot of the cache counters.
func (e *Engine) Stats() Stats {
	return Stats{
		ProgramHits: atomic.LoadUint64(&e.stats.ProgramHits),
		TextHits:    atomic.LoadUint64(&e.stats.TextHits),
		DiskHits:    atomic.LoadUint64(&e.stats.DiskHits),
		Misses:      atomic.LoadUint64(&e.stats.Misses),
	}
}

// key derives the cache key of src compiled in the given mode under the
// settings that influence parsing.
func (e *Engine) key(src string, expr bool) Hash {
	mode := "s"
	if expr {
		mode = "e"
	}
	fingerprint := mode + strconv.Itoa(e.cfg.MaxDepth) + ":"
	return Keccak256([]byte(fingerprint), []byte(src))
}

// Compile parses src as a statement list and generates its code.
func (e *Engine) Compile(src string) (*Program, error) {
	return e.compile(src, false)
}

// CompileExpr parses src as a single expression and generates its code.
func (e *Engine) CompileExpr(src string) (*Program, error) {
	return e.compile(src, true)
}

func (e *Engine) compile(src string, expr bool) (*Program, error) {
	src = norm.NFC.String(src)
	key := e.key(src, expr)
	if cached, ok := e.programs.Get(key); ok {
		atomic.AddUint64(&e.stats.ProgramHits, 1)
		return cached.(*Program), nil
	}
	atomic.AddUint64(&e.stats.Misses, 1)

	start := time.Now()
	p := &Program{Source: src, Key: key, Expr: expr}
	var err error
	if expr {
		if p.Exprs, err = e.parser.ParseExpr(src); err != nil {
			return nil, err
		}
		if p.Code, err = codegen.Exprs(p.Exprs); err != nil {
			return nil, err
		}
		p.Symbols = codegen.AnalyzeExprs(p.Exprs)
		p.Yields = true
	} else {
		if p.Stmts, err = e.parser.ParseStmts(src); err != nil {
			return nil, err
		}
		if p.Code, err = codegen.Stmts(p.Stmts); err != nil {
			return nil, err
		}
		p.Symbols = codegen.Analyze(p.Stmts)
		p.Yields, p.TailCall = yields(p.Stmts)
	}
	if e.cfg.Verify {
		if errs := wat.Verify(p.Code); len(errs) > 0 {
			e.log.Error("Generated code rejected", "hash", key, "err", errs[0].Error())
			return nil, fmt.Errorf("%w: %s", ErrVerify, errs[0].Error())
		}
	}
	p.WAT = wat.Format(p.Code)

	e.programs.Add(key, p)
	e.texts.SetBig(key[:], []byte(p.WAT))
	if e.disk != nil {
		if err := e.disk.Put(key, p.WAT); err != nil {
			e.log.Warn("Failed to persist WAT", "hash", key, "err", err)
		}
	}
	e.log.Debug("Compiled program", "hash", key, "instrs", len(p.Code), "elapsed", time.Since(start))
	return p, nil
}

// WAT returns the instruction text of src compiled as statements. Text
// already produced by this engine or found in the disk store is returned
// without parsing.
func (e *Engine) WAT(src string) (string, error) {
	src = norm.NFC.String(src)
	key := e.key(src, false)
	if text := e.texts.GetBig(nil, key[:]); len(text) > 0 {
		atomic.AddUint64(&e.stats.TextHits, 1)
		return string(text), nil
	}
	if e.disk != nil {
		if text, ok := e.disk.Get(key); ok {
			atomic.AddUint64(&e.stats.DiskHits, 1)
			e.texts.SetBig(key[:], []byte(text))
			return text, nil
		}
	}
	p, err := e.compile(src, false)
	if err != nil {
		return "", err
	}
	return p.WAT, nil
}

// yields reports whether a statement list ends in a value: a plain
// expression or a return with an operand. A trailing call yields whatever
// its host returns, so its callee is reported instead.
func yields(stmts []ast.Stmt) (bool, string) {
	for i := len(stmts) - 1; i >= 0; i-- {
		switch s := stmts[i].(type) {
		case *ast.Comment:
			continue
		case *ast.ControlStmt:
			return s.Head == token.Return && len(s.Exprs) > 0, ""
		case *ast.ExprStmt:
			if len(s.Exprs) != 1 {
				return false, ""
			}
			switch x := s.Exprs[0].(type) {
			case *ast.SyntaxChain:
				return false, ""
			case *ast.Func:
				if op, ok := x.Callee.(*ast.Operator); ok && token.IsAssignment(op.Lexeme) {
					return false, ""
				}
				if w, ok := x.Callee.(*ast.Word); ok {
					return false, w.Text
				}
			}
			return true, ""
		}
		return false, ""
	}
	return false, ""
}

// Module wraps p in the entry function skeleton, importing the hosts it
// calls and declaring memory when it addresses __mem.
func (e *Engine) Module(p *Program) (*wat.Module, error) {
	m := &wat.Module{
		Func:   EntryFunc,
		Params: append([]string(nil), EntryParams...),
		Result: p.Yields,
		Locals: p.Symbols.LocalsExcept(EntryParams...),
		Body:   p.Code,
	}
	e.hostLock.RLock()
	defer e.hostLock.RUnlock()
	for _, name := range p.Symbols.Calls {
		h, ok := e.hosts[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHost, name)
		}
		m.Imports = append(m.Imports, wat.Import{Module: ImportScope, Name: name, Params: h.Params, Results: h.Results})
		if name == p.TailCall {
			m.Result = h.Results > 0
		}
	}
	if p.Symbols.UsesMemory {
		m.MemoryPages = e.cfg.MemoryPages
	}
	return m, nil
}

// Run executes p with the given entry arguments. Missing arguments are
// zero.
func (e *Engine) Run(ctx context.Context, p *Program, args ...int32) (*Result, error) {
	if len(args) > len(EntryParams) {
		return nil, ErrArgumentCount
	}
	m, err := e.Module(p)
	if err != nil {
		return nil, err
	}
	res := new(Result)
	hosts := make(map[string]vm.HostFunc, len(m.Imports))
	e.hostLock.RLock()
	for _, imp := range m.Imports {
		h := e.hosts[imp.Name]
		hosts[imp.Name] = func(args []int32) ([]int32, error) {
			return h.Fn(res, args)
		}
	}
	e.hostLock.RUnlock()

	machine, err := vm.New(m, hosts, vm.Config{StepLimit: e.cfg.StepLimit})
	if err != nil {
		return nil, err
	}
	full := make([]int32, len(EntryParams))
	copy(full, args)

	start := time.Now()
	res.Value, err = machine.Run(ctx, full...)
	res.Steps = machine.Steps()
	if err != nil {
		e.log.Debug("Program trapped", "hash", p.Key, "steps", res.Steps, "err", err)
		return res, err
	}
	e.log.Trace("Program finished", "hash", p.Key, "value", res.Value, "steps", res.Steps, "elapsed", time.Since(start))
	return res, nil
}

// Close releases the disk store.
func (e *Engine) Close() error {
	e.texts.Reset()
	e.programs.Purge()
	if e.disk != nil {
		return e.disk.Close()
	}
	return nil
}
