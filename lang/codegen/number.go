// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package codegen

import (
	"strconv"
	"strings"
)

const (
	wordTrue  = "true"
	wordFalse = "false"
)

// isNumeric reports whether a word is meant as a literal.
func isNumeric(word string) bool {
	if word == wordTrue || word == wordFalse {
		return true
	}
	return word != "" && word[0] >= '0' && word[0] <= '9'
}

// ParseNumber reads an i32 literal: decimal, 0x hex or 0b binary, with
// optional _ separators. Hex and binary literals may use the full 32 bits
// and wrap to negative values. true and false read as 1 and 0.
func ParseNumber(word string) (int32, error) {
	switch word {
	case wordTrue:
		return 1, nil
	case wordFalse:
		return 0, nil
	}
	if !isNumeric(word) || strings.HasSuffix(word, "_") {
		return 0, ErrInvalidNumber
	}
	digits := strings.ReplaceAll(word, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		digits, base = digits[2:], 16
	case strings.HasPrefix(digits, "0b"), strings.HasPrefix(digits, "0B"):
		digits, base = digits[2:], 2
	}
	if digits == "" {
		return 0, ErrInvalidNumber
	}
	if base == 10 {
		v, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return 0, ErrInvalidNumber
		}
		return int32(v), nil
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return int32(uint32(v)), nil
}
