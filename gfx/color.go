// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package gfx provides the paint types shared by the scene builder and the
// fine rasterization kernel.
package gfx

import (
	"honnef.co/go/color"
	"honnef.co/go/mica/mmath"
)

// Color is a non-premultiplied linear sRGB color. The scene format stores
// colors premultiplied and packed into a single word; Color exists so hosts
// don't have to do that packing themselves.
type Color struct {
	R, G, B, A float32
}

func RGB(r, g, b float32) Color {
	return Color{r, g, b, 1}
}

func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// FromColor converts a color managed by the color package, in whatever color
// space, to a linear sRGB Color.
func FromColor(c *color.Color) Color {
	cc := c.Convert(color.LinearSRGB)
	return Color{
		R: float32(cc.Values[0]),
		G: float32(cc.Values[1]),
		B: float32(cc.Values[2]),
		A: float32(cc.Values[3]),
	}
}

// PremulUint32 packs the color into the wire representation: premultiplied
// 8-bit RGBA, red in the least significant byte.
func (c Color) PremulUint32() uint32 {
	pack := func(v float32) uint32 {
		return uint32(mmath.Clamp(v, 0, 1)*255 + 0.5)
	}
	r := pack(c.R * c.A)
	g := pack(c.G * c.A)
	b := pack(c.B * c.A)
	a := pack(c.A)
	return r | g<<8 | b<<16 | a<<24
}

func (c Color) WithAlphaFactor(alpha float32) Color {
	c.A *= alpha
	return c
}
