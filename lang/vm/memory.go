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
	"encoding/binary"

	"github.com/probechain/go-lichen/lang/diag"
)

const (
	// PageSize is the size of one linear memory page (64 KiB).
	PageSize = 64 * 1024

	// DefaultMaxPages caps the memory a module may declare (1 MiB).
	DefaultMaxPages = 16
)

// ErrOutOfMemory is returned when a module declares more pages than allowed.
var ErrOutOfMemory = diag.New(diag.Runtime, "vm: out of memory")

// ErrInvalidAddress is returned when a load or store touches bytes outside
// linear memory.
var ErrInvalidAddress = diag.New(diag.Runtime, "vm: invalid memory address")

// Memory is the linear byte-addressable memory of a module instance.
// Addresses are unsigned 32-bit byte offsets; words are little endian.
//
// The zero value is a memory without pages; every access fails.
type Memory struct {
	data []byte
}

// NewMemory creates a zeroed memory of the given number of pages. If
// maxPages is 0, DefaultMaxPages is used.
func NewMemory(pages, maxPages int) (*Memory, error) {
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}
	if pages < 0 || pages > maxPages {
		return nil, ErrOutOfMemory
	}
	return &Memory{data: make([]byte, pages*PageSize)}, nil
}

// Size returns the memory size in bytes.
func (m *Memory) Size() int { return len(m.data) }

// Pages returns the memory size in pages.
func (m *Memory) Pages() int { return len(m.data) / PageSize }

// check returns the byte range of the word at addr.
func (m *Memory) check(addr int32) (int, error) {
	at := uint64(uint32(addr))
	if at+4 > uint64(len(m.data)) {
		return 0, ErrInvalidAddress
	}
	return int(at), nil
}

// Load reads the i32 at addr.
func (m *Memory) Load(addr int32) (int32, error) {
	at, err := m.check(addr)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.data[at:])), nil
}

// Store writes v at addr.
func (m *Memory) Store(addr, v int32) error {
	at, err := m.check(addr)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[at:], uint32(v))
	return nil
}

// Read copies n bytes starting at addr.
func (m *Memory) Read(addr int32, n int) ([]byte, error) {
	at := uint64(uint32(addr))
	if n < 0 || at+uint64(n) > uint64(len(m.data)) {
		return nil, ErrInvalidAddress
	}
	out := make([]byte, n)
	copy(out, m.data[at:])
	return out, nil
}

// reset zeroes the memory in place.
func (m *Memory) reset() {
	for i := range m.data {
		m.data[i] = 0
	}
}
