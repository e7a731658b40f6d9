// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mmath provides the small amount of shared math used on both sides
// of the host/device boundary.
package mmath

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
	"honnef.co/go/curve"
)

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func AlignUp[T constraints.Integer](len T, alignment T) T {
	return (len + alignment - 1) & -alignment
}

func NextMultipleOf[T constraints.Integer](x, y T) T {
	r := x % y
	if r == 0 {
		return x
	}
	return x + y - r
}

// Bbox is an axis-aligned rectangle [x0, y0, x1, y1] in pixel space. An empty
// or inverted bbox intersects nothing.
type Bbox [4]float32

func (b Bbox) Translate(dx, dy float32) Bbox {
	return Bbox{b[0] + dx, b[1] + dy, b[2] + dx, b[3] + dy}
}

func (b Bbox) Intersects(o Bbox) bool {
	return b[0] < o[2] && o[0] < b[2] && b[1] < o[3] && o[1] < b[3]
}

func (b Bbox) Union(o Bbox) Bbox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bbox{
		min(b[0], o[0]),
		min(b[1], o[1]),
		max(b[2], o[2]),
		max(b[3], o[3]),
	}
}

func (b Bbox) Empty() bool {
	return b[0] >= b[2] || b[1] >= b[3]
}

// TranslationFromKurbo extracts the translation component of an affine
// transform. The scene format can only express translations; callers are
// expected to bake any other components into their geometry.
func TranslationFromKurbo(transform curve.Affine) [2]float32 {
	c := transform.Coefficients()
	return [2]float32{float32(c[4]), float32(c[5])}
}

func Dist32(x0, y0, x1, y1 float32) float32 {
	return math32.Hypot(x1-x0, y1-y0)
}
