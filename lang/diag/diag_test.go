// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	errA := New(Lexical, "a")
	errB := New(Internal, "b")

	assert.Equal(t, Lexical, KindOf(errA))
	assert.Equal(t, Lexical, KindOf(fmt.Errorf("file.li: %w", errA)))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))

	assert.True(t, IsInternal(errB))
	assert.False(t, IsInternal(errA))
	assert.True(t, IsUser(errA))
	assert.False(t, IsUser(errB))
	assert.False(t, IsUser(errors.New("plain")))
}

func TestSentinelIdentity(t *testing.T) {
	a := New(Shape, "same text")
	b := New(Shape, "same text")
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", a), a))
	assert.False(t, errors.Is(a, b))
	assert.Equal(t, "shape", Shape.String())
}
