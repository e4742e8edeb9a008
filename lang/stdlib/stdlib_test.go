// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package stdlib

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-lichen/lang/engine"
)

func TestFunctions(t *testing.T) {
	tests := []struct {
		name string
		args []int32
		want int32
	}{
		{"abs", []int32{-5}, 5},
		{"abs", []int32{7}, 7},
		{"abs", []int32{math.MinInt32}, math.MinInt32},
		{"min", []int32{3, -2}, -2},
		{"max", []int32{3, -2}, 3},
		{"pow", []int32{3, 4}, 81},
		{"pow", []int32{-2, 3}, -8},
		{"pow", []int32{9, 0}, 1},
		{"pow", []int32{2, 31}, math.MinInt32},
		{"clamp", []int32{15, 0, 10}, 10},
		{"clamp", []int32{-1, 0, 10}, 0},
		{"clamp", []int32{4, 0, 10}, 4},
		{"sign", []int32{-9}, -1},
		{"sign", []int32{0}, 0},
		{"sign", []int32{9}, 1},
	}
	for _, tt := range tests {
		f := functions[tt.name]
		require.Len(t, tt.args, f.params, tt.name)
		got, err := f.call(tt.args)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, "%s%v", tt.name, tt.args)
	}

	_, err := pow([]int32{2, -1})
	assert.Equal(t, ErrNegativeExponent, err)
}

func TestHash(t *testing.T) {
	a, _ := hash([]int32{1})
	b, _ := hash([]int32{1})
	c, _ := hash([]int32{2})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRegister(t *testing.T) {
	e, err := engine.New(engine.DefaultConfig)
	require.NoError(t, err)
	defer e.Close()
	Register(e)

	p, err := e.Compile("let d = max(a, b) - min(a, b); pow(d, 2) + abs(-1)")
	require.NoError(t, err)
	m, err := e.Module(p)
	require.NoError(t, err)
	assert.Len(t, m.Imports, 4)

	res, err := e.Run(context.Background(), p, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(26), res.Value)

	p, err = e.Compile("pow(a, b)")
	require.NoError(t, err)
	_, err = e.Run(context.Background(), p, 2, -1)
	assert.Equal(t, ErrNegativeExponent, err)

	names := Names()
	sort.Strings(names)
	assert.Equal(t, []string{"abs", "clamp", "hash", "max", "min", "pow", "sign"}, names)
}
