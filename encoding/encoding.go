// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package encoding

import (
	"errors"
	"fmt"

	"honnef.co/go/mica/mmath"
)

// ErrSceneFull is returned when the encoder's arena capacity is insufficient
// for the scene. This is surfaced by Finish, before the scene would be
// uploaded; a partially encoded arena is never handed to the pipeline.
var ErrSceneFull = errors.New("encoding: scene arena capacity exceeded")

// Encoder serializes a scene graph into one immutable byte arena. Items are
// laid out in pre-order: a group precedes all of its children, and children
// appear in their draw order. The traversal order of the arena is the
// painter's order the pipeline preserves.
//
// The root of the arena, at offset 0, is always a group; it is opened
// implicitly and closed by Finish.
type Encoder struct {
	buf []byte
	off uint32
	// One frame per open group; the frame collects child refs until the
	// group ends and its child array can be written.
	frames []encoderFrame
	err    error
}

type encoderFrame struct {
	group    ItemRef
	children []ItemRef
}

// NewEncoder returns an encoder with a fixed arena capacity of size bytes.
// The root group uses the given offset; its bbox is the union of its
// children's and is filled in by Finish unless set explicitly via BeginGroup
// semantics on the root frame.
func NewEncoder(size int, rootOffset [2]float32) *Encoder {
	enc := &Encoder{
		buf: make([]byte, size),
	}
	enc.beginGroup(autoBbox, rootOffset)
	return enc
}

// autoBbox marks a group whose bbox should be computed as the union of its
// children's translated bboxes. An inverted box can't result from a union, so
// it's free to use as a sentinel.
var autoBbox = mmath.Bbox{1, 1, -1, -1}

func (enc *Encoder) alloc(n uint32) (uint32, bool) {
	if enc.err != nil {
		return 0, false
	}
	if uint32(len(enc.buf))-enc.off < n {
		enc.err = ErrSceneFull
		return 0, false
	}
	off := enc.off
	enc.off += n
	return off, true
}

func (enc *Encoder) beginGroup(bbox mmath.Bbox, offset [2]float32) {
	off, ok := enc.alloc(GroupSize)
	if !ok {
		return
	}
	tag := ItemTagGroup
	put(enc.buf, off, &tag)
	put(enc.buf, off+TagSize, &Group{
		Bbox:   bbox,
		Offset: offset,
	})
	enc.frames = append(enc.frames, encoderFrame{group: ItemRef(off)})
}

// BeginGroup opens a group with an explicit enclosing bbox (in the parent's
// coordinate space) and a translation offset applied to all children. The
// caller is responsible for the bbox actually enclosing the children;
// a too-small bbox silently prunes descendants during binning.
func (enc *Encoder) BeginGroup(bbox mmath.Bbox, offset [2]float32) {
	enc.beginGroup(bbox, offset)
}

// BeginGroupAuto opens a group whose bbox is computed from its children.
func (enc *Encoder) BeginGroupAuto(offset [2]float32) {
	enc.beginGroup(autoBbox, offset)
}

// EndGroup closes the innermost open group, writing its child array and
// patching the group item.
func (enc *Encoder) EndGroup() {
	if len(enc.frames) <= 1 {
		if enc.err == nil {
			enc.err = errors.New("encoding: EndGroup without matching BeginGroup")
		}
		return
	}
	enc.endGroup()
}

func (enc *Encoder) endGroup() {
	frame := enc.frames[len(enc.frames)-1]
	enc.frames = enc.frames[:len(enc.frames)-1]
	arr, ok := enc.alloc(uint32(len(frame.children)) * 4)
	if !ok {
		return
	}
	for i, ref := range frame.children {
		put(enc.buf, arr+uint32(i)*4, &ref)
	}
	g := ReadGroup(enc.buf, frame.group)
	g.N = uint32(len(frame.children))
	g.Items = ItemRef(arr)
	if g.Bbox == autoBbox {
		bbox := autoBbox
		for _, ref := range frame.children {
			b := ItemBbox(enc.buf, ref).Translate(g.Offset[0], g.Offset[1])
			bbox = bbox.Union(b)
		}
		g.Bbox = bbox
	}
	enc.pushChild(frame.group)
}

func (enc *Encoder) pushChild(ref ItemRef) {
	if len(enc.frames) == 0 {
		return
	}
	frame := &enc.frames[len(enc.frames)-1]
	frame.children = append(frame.children, ref)
}

func (enc *Encoder) encodeLeaf(tag ItemTag, size uint32, write func(off uint32)) {
	off, ok := enc.alloc(size)
	if !ok {
		return
	}
	put(enc.buf, off, &tag)
	write(off + TagSize)
	enc.pushChild(ItemRef(off))
}

func (enc *Encoder) Circle(c Circle) {
	enc.encodeLeaf(ItemTagCircle, CircleSize, func(off uint32) {
		put(enc.buf, off, &c)
	})
}

func (enc *Encoder) Line(l Line) {
	enc.encodeLeaf(ItemTagLine, LineSize, func(off uint32) {
		put(enc.buf, off, &l)
	})
}

func (enc *Encoder) Rect(r Rect) {
	enc.encodeLeaf(ItemTagRect, RectSize, func(off uint32) {
		put(enc.buf, off, &r)
	})
}

// Polyline encodes a compound stroke. pl.N and pl.Points are filled in from
// pts; the point array is written right after the item.
func (enc *Encoder) Polyline(pl Polyline, pts [][2]float32) {
	off, ok := enc.alloc(PolylineSize)
	if !ok {
		return
	}
	arr, ok := enc.alloc(uint32(len(pts)) * 8)
	if !ok {
		return
	}
	for i := range pts {
		put(enc.buf, arr+uint32(i)*8, &pts[i])
	}
	pl.N = uint32(len(pts))
	pl.Points = ItemRef(arr)
	tag := ItemTagPolyline
	put(enc.buf, off, &tag)
	put(enc.buf, off+TagSize, &pl)
	enc.pushChild(ItemRef(off))
}

// Finish closes the root group and returns the encoded arena. The arena is
// immutable from here on; all pipeline stages treat it as read-only.
func (enc *Encoder) Finish() ([]byte, error) {
	for len(enc.frames) > 0 {
		enc.endGroup()
	}
	if enc.err != nil {
		return nil, fmt.Errorf("encoding scene: %w", enc.err)
	}
	return enc.buf[:enc.off], nil
}
