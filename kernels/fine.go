// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package kernels

import (
	"sync/atomic"

	"github.com/chewxy/math32"
	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/mmath"
	"honnef.co/go/mica/renderer"
	"honnef.co/go/safeish"
)

// Fine is the fourth stage. Each task rasterizes one tile: it replays the
// tile's command list in order, computing an analytic coverage value per
// pixel per instance and compositing premultiplied source-over into a local
// accumulator, then packs the accumulator into the target image.
//
// Bindings: config, scene, bump, ptcl, encoded, image.
func Fine(tid uint32, resources []Binding) {
	config := fromBytes[renderer.ConfigUniform](resources[0].(Buffer))
	scene := []byte(resources[1].(Buffer))
	bump := fromBytes[renderer.BumpAllocators](resources[2].(Buffer))
	ptcl := safeish.SliceCast[[]uint32](resources[3].(Buffer))
	encoded := []byte(resources[4].(Buffer))
	image := safeish.SliceCast[[]uint32](resources[5].(Buffer))

	nTiles := config.WidthInTiles * config.HeightInTiles
	if tid >= nTiles {
		return
	}
	bounds := renderer.TileBounds(config, tid)

	var acc [renderer.TILE_WIDTH * renderer.TILE_HEIGHT][4]float32
	base := unpack(config.BaseColor)
	for i := range acc {
		acc[i] = base
	}

	for inst := range instances(ptcl, tid) {
		arena := itemArena(scene, encoded, inst.Item)
		tag := encoding.Tag(arena, inst.Item)
		switch tag {
		case encoding.ItemTagCircle:
			c := encoding.ReadCircle(arena, inst.Item)
			cx := c.Center[0] + inst.Offset[0]
			cy := c.Center[1] + inst.Offset[1]
			shade(&acc, bounds, unpack(c.RGBA), func(px, py float32) float32 {
				d := mmath.Dist32(px, py, cx, cy)
				return mmath.Clamp(c.Radius-d+0.5, 0, 1)
			})
		case encoding.ItemTagLine:
			l := encoding.ReadLine(arena, inst.Item)
			x0 := l.P0[0] + inst.Offset[0]
			y0 := l.P0[1] + inst.Offset[1]
			x1 := l.P1[0] + inst.Offset[0]
			y1 := l.P1[1] + inst.Offset[1]
			shade(&acc, bounds, unpack(l.RGBA), func(px, py float32) float32 {
				d := segmentDistance(px, py, x0, y0, x1, y1)
				return mmath.Clamp(l.HalfWidth-d+0.5, 0, 1)
			})
		case encoding.ItemTagRect:
			r := encoding.ReadRect(arena, inst.Item)
			bbox := r.Bbox.Translate(inst.Offset[0], inst.Offset[1])
			shade(&acc, bounds, unpack(r.RGBA), func(px, py float32) float32 {
				// Pixel-overlap area of the rect with the unit square
				// centered on the sample point.
				w := min(bbox[2], px+0.5) - max(bbox[0], px-0.5)
				h := min(bbox[3], py+0.5) - max(bbox[1], py-0.5)
				return mmath.Clamp(w, 0, 1) * mmath.Clamp(h, 0, 1)
			})
		default:
			// Groups never reach a command list and compound items were
			// decomposed two stages ago.
			atomic.OrUint32(&bump.Failed, renderer.FailMalformedItem)
			return
		}
	}

	for y := uint32(0); y < renderer.TILE_HEIGHT; y++ {
		py := uint32(bounds[1]) + y
		if py >= config.TargetHeight {
			break
		}
		for x := uint32(0); x < renderer.TILE_WIDTH; x++ {
			px := uint32(bounds[0]) + x
			if px >= config.TargetWidth {
				break
			}
			image[py*config.TargetWidth+px] = pack(acc[y*renderer.TILE_WIDTH+x])
		}
	}
}

// shade composites one instance into the accumulator: coverage is evaluated
// at every pixel center and the premultiplied source color is blended
// source-over on top of what earlier instances left behind.
func shade(acc *[renderer.TILE_WIDTH * renderer.TILE_HEIGHT][4]float32, bounds mmath.Bbox, src [4]float32, coverage func(px, py float32) float32) {
	for y := 0; y < renderer.TILE_HEIGHT; y++ {
		py := bounds[1] + float32(y) + 0.5
		for x := 0; x < renderer.TILE_WIDTH; x++ {
			px := bounds[0] + float32(x) + 0.5
			cov := coverage(px, py)
			if cov <= 0 {
				continue
			}
			dst := &acc[y*renderer.TILE_WIDTH+x]
			inv := 1 - src[3]*cov
			for i := range dst {
				dst[i] = src[i]*cov + dst[i]*inv
			}
		}
	}
}

// segmentDistance returns the distance from (px, py) to the closest point of
// the segment (x0, y0)–(x1, y1).
func segmentDistance(px, py, x0, y0, x1, y1 float32) float32 {
	dx := x1 - x0
	dy := y1 - y0
	lenSq := dx*dx + dy*dy
	t := float32(0)
	if lenSq > 0 {
		t = mmath.Clamp(((px-x0)*dx+(py-y0)*dy)/lenSq, 0, 1)
	}
	return mmath.Dist32(px, py, x0+t*dx, y0+t*dy)
}

// unpack converts premultiplied RGBA8, red in the least significant byte, to
// premultiplied floats.
func unpack(rgba uint32) [4]float32 {
	return [4]float32{
		float32(rgba&0xff) / 255,
		float32(rgba>>8&0xff) / 255,
		float32(rgba>>16&0xff) / 255,
		float32(rgba>>24&0xff) / 255,
	}
}

func pack(c [4]float32) uint32 {
	r := uint32(math32.Round(mmath.Clamp(c[0], 0, 1) * 255))
	g := uint32(math32.Round(mmath.Clamp(c[1], 0, 1) * 255))
	b := uint32(math32.Round(mmath.Clamp(c[2], 0, 1) * 255))
	a := uint32(math32.Round(mmath.Clamp(c[3], 0, 1) * 255))
	return r | g<<8 | b<<16 | a<<24
}
