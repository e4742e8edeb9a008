// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package vm

import "github.com/probechain/go-lichen/lang/wat"

// span records where a structured instruction ends, and for if where its
// else arm starts (-1 without else).
type span struct {
	end int
	els int
}

// link matches every block, loop and if with its end before execution so
// branches jump in constant time.
func link(code []wat.Instr) (map[int]span, error) {
	var (
		spans = make(map[int]span)
		open  []int
	)
	for pc, in := range code {
		switch in.Op {
		case wat.OpBlock, wat.OpLoop, wat.OpIf:
			open = append(open, pc)
			spans[pc] = span{end: -1, els: -1}
		case wat.OpElse:
			if len(open) == 0 || code[open[len(open)-1]].Op != wat.OpIf {
				return nil, ErrMalformed
			}
			top := open[len(open)-1]
			s := spans[top]
			if s.els >= 0 {
				return nil, ErrMalformed
			}
			s.els = pc
			spans[top] = s
			// else jumps over the second arm to the shared end
			spans[pc] = span{end: -1, els: -1}
			open = append(open, pc)
		case wat.OpEnd:
			if len(open) == 0 {
				return nil, ErrMalformed
			}
			top := open[len(open)-1]
			open = open[:len(open)-1]
			if code[top].Op == wat.OpElse {
				spans[top] = span{end: pc, els: -1}
				top = open[len(open)-1]
				open = open[:len(open)-1]
			}
			s := spans[top]
			s.end = pc
			spans[top] = s
		}
	}
	if len(open) != 0 {
		return nil, ErrMalformed
	}
	return spans, nil
}
