// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package kernels

import (
	"sync/atomic"

	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/mmath"
	"honnef.co/go/mica/renderer"
	"honnef.co/go/safeish"
)

// A DeviceEncoder appends items to the per-frame device arena. Allocation is
// a single fetch-and-add on the shared cursor, so any number of tasks can
// re-encode concurrently; the items themselves use the same layouts as the
// host encoder.
type DeviceEncoder struct {
	buf    []byte
	cursor *uint32
	failed *uint32
	limit  uint32
}

func (e *DeviceEncoder) alloc(size uint32) (uint32, bool) {
	off := atomic.AddUint32(e.cursor, size) - size
	if uint64(off)+uint64(size) > uint64(e.limit) {
		atomic.OrUint32(e.failed, renderer.FailEncodedAlloc)
		return 0, false
	}
	return off, true
}

func (e *DeviceEncoder) Line(l *encoding.Line) (encoding.ItemRef, bool) {
	off, ok := e.alloc(encoding.LineSize)
	if !ok {
		return 0, false
	}
	encoding.PutLine(e.buf, off, l)
	return encoding.ItemRef(off) | encoding.Device, true
}

func (e *DeviceEncoder) Circle(c *encoding.Circle) (encoding.ItemRef, bool) {
	off, ok := e.alloc(encoding.CircleSize)
	if !ok {
		return 0, false
	}
	encoding.PutCircle(e.buf, off, c)
	return encoding.ItemRef(off) | encoding.Device, true
}

func (e *DeviceEncoder) Rect(r *encoding.Rect) (encoding.ItemRef, bool) {
	off, ok := e.alloc(encoding.RectSize)
	if !ok {
		return 0, false
	}
	encoding.PutRect(e.buf, off, r)
	return encoding.ItemRef(off) | encoding.Device, true
}

// An Expander decomposes one compound item into simple items, re-encoding
// them through enc and emitting one instance per item produced, in item
// order. Implementations must be safe for concurrent use; tasks share one
// value.
type Expander interface {
	Expand(enc *DeviceEncoder, scene []byte, inst Instance, emit func(Instance))
}

// SegmentExpander decomposes polylines into one line per segment. Each
// line's bbox is the segment's bounds grown by the stroke half-width, so
// tile binning can cull segments individually instead of using the whole
// polyline's bbox.
type SegmentExpander struct{}

func (SegmentExpander) Expand(enc *DeviceEncoder, scene []byte, inst Instance, emit func(Instance)) {
	pl := encoding.ReadPolyline(scene, inst.Item)
	for i := uint32(0); i+1 < pl.N; i++ {
		p0 := pl.Point(scene, i)
		p1 := pl.Point(scene, i+1)
		l := encoding.Line{
			Bbox: mmath.Bbox{
				min(p0[0], p1[0]) - pl.HalfWidth,
				min(p0[1], p1[1]) - pl.HalfWidth,
				max(p0[0], p1[0]) + pl.HalfWidth,
				max(p0[1], p1[1]) + pl.HalfWidth,
			},
			P0:        p0,
			P1:        p1,
			HalfWidth: pl.HalfWidth,
			RGBA:      pl.RGBA,
		}
		ref, ok := enc.Line(&l)
		if !ok {
			return
		}
		emit(Instance{Item: ref, Offset: inst.Offset})
	}
}

// Expand builds the second stage around an expander. Each task rewrites its
// tilegroup's list: simple instances pass through unchanged, compound
// instances are replaced in place by the expander's output, preserving
// paint order.
//
// Bindings: config, scene, bump, tilegroup, expanded, encoded.
func Expand(expander Expander) Kernel {
	return func(tid uint32, resources []Binding) {
		config := fromBytes[renderer.ConfigUniform](resources[0].(Buffer))
		scene := []byte(resources[1].(Buffer))
		bump := fromBytes[renderer.BumpAllocators](resources[2].(Buffer))
		tilegroup := safeish.SliceCast[[]uint32](resources[3].(Buffer))
		expanded := safeish.SliceCast[[]uint32](resources[4].(Buffer))
		encoded := []byte(resources[5].(Buffer))

		nTilegroups := config.WidthInTilegroups * config.HeightInTilegroups
		if tid >= nTilegroups {
			return
		}

		w := newListWriter(
			expanded, tid, &bump.Expanded, &bump.Failed,
			renderer.FailExpandedAlloc, nTilegroups*renderer.LIST_INITIAL_ALLOC)
		defer w.end()
		enc := DeviceEncoder{
			buf:    encoded,
			cursor: &bump.Encoded,
			failed: &bump.Failed,
			limit:  config.EncodedSize,
		}

		for inst := range instances(tilegroup, tid) {
			// Stage 1 only emits scene references; device references first
			// appear in this stage's output.
			if encoding.Tag(scene, inst.Item).Compound() {
				expander.Expand(&enc, scene, inst, func(out Instance) {
					w.instance(out.Item, out.Offset)
				})
			} else {
				w.instance(inst.Item, inst.Offset)
			}
		}
	}
}
