// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package kernels

import (
	"iter"
	"math"
	"sync/atomic"

	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/renderer"
)

// listWriter appends commands to one region's list. Every region owns an
// initial block at region*LIST_INITIAL_ALLOC; when a block runs out, the
// writer claims an increment from the buffer's shared pool with a single
// fetch-and-add and links it with a jump at the old block's tail. The
// headroom reserved by cmdLimit guarantees the jump always fits.
//
// A region has exactly one writer per stage, so cmdOffset needs no
// synchronization; only the pool cursor and the fault word are shared.
type listWriter struct {
	list     []uint32
	pool     *uint32
	failed   *uint32
	failBit  uint32
	dynStart uint32

	cmdOffset uint32
	cmdLimit  uint32
	// Set after a failed claim; all further writes are dropped. The words at
	// cmdOffset stay zero, which reads back as CMD_END, so even a failed
	// region's list stays well formed.
	dead bool
}

func newListWriter(list []uint32, region uint32, pool, failed *uint32, failBit, dynStart uint32) listWriter {
	cmdOffset := region * renderer.LIST_INITIAL_ALLOC
	return listWriter{
		list:      list,
		pool:      pool,
		failed:    failed,
		failBit:   failBit,
		dynStart:  dynStart,
		cmdOffset: cmdOffset,
		cmdLimit:  cmdOffset + (renderer.LIST_INITIAL_ALLOC - renderer.LIST_HEADROOM),
	}
}

func (w *listWriter) allocCmd(size uint32) bool {
	if w.dead {
		return false
	}
	if w.cmdOffset+size >= w.cmdLimit {
		chunk := max(uint32(renderer.LIST_INCREMENT), size+renderer.LIST_HEADROOM)
		off := atomic.AddUint32(w.pool, chunk) - chunk
		newCmd := w.dynStart + off
		if uint64(newCmd)+uint64(chunk) > uint64(len(w.list)) {
			atomic.OrUint32(w.failed, w.failBit)
			w.dead = true
			return false
		}
		w.list[w.cmdOffset] = renderer.CMD_JUMP
		w.list[w.cmdOffset+1] = newCmd
		w.cmdOffset = newCmd
		w.cmdLimit = newCmd + (chunk - renderer.LIST_HEADROOM)
	}
	return true
}

func (w *listWriter) instance(ref encoding.ItemRef, offset [2]float32) {
	if !w.allocCmd(renderer.INSTANCE_WORDS) {
		return
	}
	w.list[w.cmdOffset] = renderer.CMD_INSTANCE
	w.list[w.cmdOffset+1] = uint32(ref)
	w.list[w.cmdOffset+2] = math.Float32bits(offset[0])
	w.list[w.cmdOffset+3] = math.Float32bits(offset[1])
	w.cmdOffset += renderer.INSTANCE_WORDS
}

// end terminates the region's list. The headroom makes the explicit write
// unnecessary for freshly zeroed buffers, but lists may live in reused
// memory.
func (w *listWriter) end() {
	if w.dead {
		return
	}
	w.list[w.cmdOffset] = renderer.CMD_END
}

// instances iterates a region's list in insertion order, following jumps.
func instances(list []uint32, region uint32) iter.Seq[Instance] {
	return func(yield func(Instance) bool) {
		off := region * renderer.LIST_INITIAL_ALLOC
		for {
			switch list[off] {
			case renderer.CMD_END:
				return
			case renderer.CMD_JUMP:
				off = list[off+1]
			case renderer.CMD_INSTANCE:
				inst := Instance{
					Item: encoding.ItemRef(list[off+1]),
					Offset: [2]float32{
						math.Float32frombits(list[off+2]),
						math.Float32frombits(list[off+3]),
					},
				}
				if !yield(inst) {
					return
				}
				off += renderer.INSTANCE_WORDS
			default:
				// Lists are only ever produced by the writers above;
				// anything else is memory corruption.
				panic("unreachable")
			}
		}
	}
}
