// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package stdlib provides the host functions lichen programs can call
// besides the built-in log: integer helpers and a hash.
package stdlib

import (
	"encoding/binary"

	"github.com/probechain/go-lichen/lang/diag"
	"github.com/probechain/go-lichen/lang/engine"
)

// ErrNegativeExponent is returned by pow for a negative exponent.
var ErrNegativeExponent = diag.New(diag.Runtime, "stdlib: negative exponent")

// fn is a host function with a single result.
type fn struct {
	params int
	call   func(args []int32) (int32, error)
}

var functions = map[string]fn{
	"abs":   {1, abs},
	"min":   {2, minimum},
	"max":   {2, maximum},
	"pow":   {2, pow},
	"clamp": {3, clamp},
	"sign":  {1, sign},
	"hash":  {1, hash},
}

// Names lists the functions Register provides.
func Names() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	return names
}

// Register makes every function of the library callable on e.
func Register(e *engine.Engine) {
	for name, f := range functions {
		f := f
		e.Register(name, engine.Host{
			Params:  f.params,
			Results: 1,
			Fn: func(_ *engine.Result, args []int32) ([]int32, error) {
				v, err := f.call(args)
				if err != nil {
					return nil, err
				}
				return []int32{v}, nil
			},
		})
	}
}

// abs wraps for the minimum value, like i32 arithmetic does.
func abs(args []int32) (int32, error) {
	if v := args[0]; v < 0 {
		return -v, nil
	}
	return args[0], nil
}

func minimum(args []int32) (int32, error) {
	if args[1] < args[0] {
		return args[1], nil
	}
	return args[0], nil
}

func maximum(args []int32) (int32, error) {
	if args[1] > args[0] {
		return args[1], nil
	}
	return args[0], nil
}

// pow raises by squaring; the result wraps on overflow.
func pow(args []int32) (int32, error) {
	base, exp := args[0], args[1]
	if exp < 0 {
		return 0, ErrNegativeExponent
	}
	result := int32(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result, nil
}

// clamp(v, lo, hi)
func clamp(args []int32) (int32, error) {
	v, lo, hi := args[0], args[1], args[2]
	switch {
	case v < lo:
		return lo, nil
	case v > hi:
		return hi, nil
	}
	return v, nil
}

func sign(args []int32) (int32, error) {
	switch {
	case args[0] > 0:
		return 1, nil
	case args[0] < 0:
		return -1, nil
	}
	return 0, nil
}

// hash returns the first four bytes of the Keccak256 digest of the
// little endian encoding of its argument.
func hash(args []int32) (int32, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(args[0]))
	h := engine.Keccak256(buf[:])
	return int32(binary.LittleEndian.Uint32(h[:4])), nil
}
