// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package encoding defines the binary scene format: a single byte arena of
// tagged items, rooted at a group at offset 0.
//
// Every item starts with a one-word tag followed by a fixed layout struct.
// Variable-length data (child references, polyline points) lives in auxiliary
// arrays inside the same arena, addressed by reference fields. The layout
// structs below are the single source of truth; the host encoder, the device
// decode paths, and the device re-encode path in the command expander all go
// through them, so the two sides cannot drift apart.
package encoding

import (
	"structs"
	"unsafe"

	"honnef.co/go/mica/mmath"
	"honnef.co/go/safeish"
)

// ItemRef is a byte offset into an arena, usable as a handle to an item or to
// an auxiliary array. References with the Device bit set address the
// per-frame device arena that the command expander re-encodes items into;
// references with it clear address the immutable scene arena.
type ItemRef uint32

const Device ItemRef = 1 << 31

func (r ItemRef) InDevice() bool {
	return r&Device != 0
}

func (r ItemRef) Offset() uint32 {
	return uint32(r &^ Device)
}

type ItemTag uint32

// Tags deliberately start at 1 so that zero-initialized memory decodes as
// malformed instead of as a valid item.
const (
	ItemTagGroup ItemTag = 1 + iota
	ItemTagCircle
	ItemTagLine
	ItemTagPolyline
	ItemTagRect

	itemTagEnd
)

func (tag ItemTag) Valid() bool {
	return tag >= ItemTagGroup && tag < itemTagEnd
}

// Compound reports whether items with this tag have to be decomposed by the
// command expander before tile binning.
func (tag ItemTag) Compound() bool {
	return tag == ItemTagPolyline
}

func (tag ItemTag) String() string {
	switch tag {
	case ItemTagGroup:
		return "Group"
	case ItemTagCircle:
		return "Circle"
	case ItemTagLine:
		return "Line"
	case ItemTagPolyline:
		return "Polyline"
	case ItemTagRect:
		return "Rect"
	default:
		return "Invalid"
	}
}

// Group is a composite item. Its bbox must conservatively enclose the
// translated bboxes of all descendants; the tilegroup binner prunes whole
// subtrees based on it.
type Group struct {
	_ structs.HostLayout

	Bbox   mmath.Bbox
	Offset [2]float32
	// Number of children.
	N uint32
	// Reference to an array of N child ItemRefs.
	Items ItemRef
}

type Circle struct {
	_ structs.HostLayout

	Bbox   mmath.Bbox
	Center [2]float32
	Radius float32
	RGBA   uint32
}

type Line struct {
	_ structs.HostLayout

	Bbox      mmath.Bbox
	P0        [2]float32
	P1        [2]float32
	HalfWidth float32
	RGBA      uint32
}

// Polyline is a compound stroke; the command expander decomposes it into one
// Line item per segment.
type Polyline struct {
	_ structs.HostLayout

	Bbox      mmath.Bbox
	HalfWidth float32
	RGBA      uint32
	// Number of points; N-1 segments.
	N uint32
	// Reference to an array of N [2]float32 points.
	Points ItemRef
}

// Rect is an axis-aligned solid fill of its bbox.
type Rect struct {
	_ structs.HostLayout

	Bbox mmath.Bbox
	RGBA uint32
}

const TagSize = 4

const (
	GroupSize    = TagSize + uint32(unsafe.Sizeof(Group{}))
	CircleSize   = TagSize + uint32(unsafe.Sizeof(Circle{}))
	LineSize     = TagSize + uint32(unsafe.Sizeof(Line{}))
	PolylineSize = TagSize + uint32(unsafe.Sizeof(Polyline{}))
	RectSize     = TagSize + uint32(unsafe.Sizeof(Rect{}))
)

func read[T any](buf []byte, off uint32) *T {
	return safeish.Cast[*T](&buf[off])
}

func put[T any](buf []byte, off uint32, v *T) {
	copy(buf[off:], safeish.AsBytes(v))
}

// Tag reads an item's tag. Out-of-range references decode as tag 0, which is
// malformed; consumers report it through their fault channel rather than
// panicking.
func Tag(buf []byte, ref ItemRef) ItemTag {
	off := ref.Offset()
	if uint32(len(buf)) < TagSize || off > uint32(len(buf))-TagSize {
		return 0
	}
	return *read[ItemTag](buf, off)
}

// ItemBbox reads the local bounding box that every item layout starts with.
func ItemBbox(buf []byte, ref ItemRef) mmath.Bbox {
	return *read[mmath.Bbox](buf, ref.Offset()+TagSize)
}

func ReadGroup(buf []byte, ref ItemRef) *Group {
	return read[Group](buf, ref.Offset()+TagSize)
}

func ReadCircle(buf []byte, ref ItemRef) *Circle {
	return read[Circle](buf, ref.Offset()+TagSize)
}

func ReadLine(buf []byte, ref ItemRef) *Line {
	return read[Line](buf, ref.Offset()+TagSize)
}

func ReadPolyline(buf []byte, ref ItemRef) *Polyline {
	return read[Polyline](buf, ref.Offset()+TagSize)
}

func ReadRect(buf []byte, ref ItemRef) *Rect {
	return read[Rect](buf, ref.Offset()+TagSize)
}

// Child returns the ref of the group's i-th child. The child array always
// lives in the same arena as the group itself.
func (g *Group) Child(buf []byte, i uint32) ItemRef {
	return *read[ItemRef](buf, g.Items.Offset()+i*4)
}

// Point returns the polyline's i-th point.
func (p *Polyline) Point(buf []byte, i uint32) [2]float32 {
	return *read[[2]float32](buf, p.Points.Offset()+i*8)
}

// PutLine writes a Line item at off. This is the device-side re-encode path:
// the command expander appends freshly computed lines to the device arena
// with the exact layout the host encoder would have used.
func PutLine(buf []byte, off uint32, l *Line) {
	tag := ItemTagLine
	put(buf, off, &tag)
	put(buf, off+TagSize, l)
}

func PutCircle(buf []byte, off uint32, c *Circle) {
	tag := ItemTagCircle
	put(buf, off, &tag)
	put(buf, off+TagSize, c)
}

func PutRect(buf []byte, off uint32, r *Rect) {
	tag := ItemTagRect
	put(buf, off, &tag)
	put(buf, off+TagSize, r)
}
