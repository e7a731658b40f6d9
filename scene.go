// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mica

import (
	"honnef.co/go/curve"
	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/gfx"
	"honnef.co/go/mica/mmath"
)

// A Scene accumulates draw calls and serializes them into the binary scene
// format. Items are drawn in call order, back to front; groups nest and
// translate their contents. Unlike the raw encoder, a Scene computes all
// bounding boxes itself, including the anti-aliasing apron around strokes
// and circles, so scenes built through it never violate the enclosure
// requirement the binning stages rely on.
//
// A Scene records into memory; Encode serializes. The zero value is an empty
// scene ready for use.
type Scene struct {
	ops  []func(enc *encoding.Encoder)
	size uint32
}

// aaApron is how far, in pixels, the coverage ramp of an anti-aliased edge
// extends past the geometric edge.
const aaApron = 0.5

func (s *Scene) push(size uint32, op func(enc *encoding.Encoder)) {
	// Every item also occupies one slot in its parent's child array.
	s.size += size + 4
	s.ops = append(s.ops, op)
}

// PushGroup opens a group whose contents are translated by offset. Groups
// must be closed with PopGroup before Encode.
func (s *Scene) PushGroup(offset curve.Vec2) {
	off := [2]float32{float32(offset.X), float32(offset.Y)}
	s.push(encoding.GroupSize, func(enc *encoding.Encoder) {
		enc.BeginGroupAuto(off)
	})
}

// PushGroupAffine opens a group translated by the translation component of
// transform. The scene format cannot express rotation or scale; those
// components are ignored.
func (s *Scene) PushGroupAffine(transform curve.Affine) {
	off := mmath.TranslationFromKurbo(transform)
	s.push(encoding.GroupSize, func(enc *encoding.Encoder) {
		enc.BeginGroupAuto(off)
	})
}

func (s *Scene) PopGroup() {
	s.ops = append(s.ops, func(enc *encoding.Encoder) {
		enc.EndGroup()
	})
}

// Circle draws a filled circle with an anti-aliased edge.
func (s *Scene) Circle(center curve.Point, radius float64, c gfx.Color) {
	cx := float32(center.X)
	cy := float32(center.Y)
	r := float32(radius)
	item := encoding.Circle{
		Bbox:   mmath.Bbox{cx - r - aaApron, cy - r - aaApron, cx + r + aaApron, cy + r + aaApron},
		Center: [2]float32{cx, cy},
		Radius: r,
		RGBA:   c.PremulUint32(),
	}
	s.push(encoding.CircleSize, func(enc *encoding.Encoder) {
		enc.Circle(item)
	})
}

// Line draws a stroked segment with round caps of the stroke's half-width.
func (s *Scene) Line(p0, p1 curve.Point, width float64, c gfx.Color) {
	hw := float32(width) / 2
	x0, y0 := float32(p0.X), float32(p0.Y)
	x1, y1 := float32(p1.X), float32(p1.Y)
	item := encoding.Line{
		Bbox: mmath.Bbox{
			min(x0, x1) - hw - aaApron,
			min(y0, y1) - hw - aaApron,
			max(x0, x1) + hw + aaApron,
			max(y0, y1) + hw + aaApron,
		},
		P0:        [2]float32{x0, y0},
		P1:        [2]float32{x1, y1},
		HalfWidth: hw,
		RGBA:      c.PremulUint32(),
	}
	s.push(encoding.LineSize, func(enc *encoding.Encoder) {
		enc.Line(item)
	})
}

// Polyline draws a stroked path through pts. The stroke is decomposed into
// per-segment lines during command expansion, so only the segments that
// actually touch a tile are rasterized there.
func (s *Scene) Polyline(pts []curve.Point, width float64, c gfx.Color) {
	if len(pts) < 2 {
		return
	}
	hw := float32(width) / 2
	wire := make([][2]float32, len(pts))
	bbox := mmath.Bbox{
		float32(pts[0].X), float32(pts[0].Y),
		float32(pts[0].X), float32(pts[0].Y),
	}
	for i, pt := range pts {
		p := [2]float32{float32(pt.X), float32(pt.Y)}
		wire[i] = p
		bbox[0] = min(bbox[0], p[0])
		bbox[1] = min(bbox[1], p[1])
		bbox[2] = max(bbox[2], p[0])
		bbox[3] = max(bbox[3], p[1])
	}
	item := encoding.Polyline{
		Bbox: mmath.Bbox{
			bbox[0] - hw - aaApron,
			bbox[1] - hw - aaApron,
			bbox[2] + hw + aaApron,
			bbox[3] + hw + aaApron,
		},
		HalfWidth: hw,
		RGBA:      c.PremulUint32(),
	}
	s.push(encoding.PolylineSize+uint32(len(wire))*8, func(enc *encoding.Encoder) {
		enc.Polyline(item, wire)
	})
}

// FillRect draws an axis-aligned solid rectangle.
func (s *Scene) FillRect(x0, y0, x1, y1 float64, c gfx.Color) {
	item := encoding.Rect{
		Bbox: mmath.Bbox{float32(x0), float32(y0), float32(x1), float32(y1)},
		RGBA: c.PremulUint32(),
	}
	s.push(encoding.RectSize, func(enc *encoding.Encoder) {
		enc.Rect(item)
	})
}

// Reset empties the scene for reuse.
func (s *Scene) Reset() {
	s.ops = s.ops[:0]
	s.size = 0
}

// Encode serializes the scene into a freshly allocated arena. The arena is
// sized exactly; encoding cannot run out of space.
func (s *Scene) Encode() ([]byte, error) {
	enc := encoding.NewEncoder(int(encoding.GroupSize+s.size), [2]float32{})
	for _, op := range s.ops {
		op(enc)
	}
	return enc.Finish()
}
