// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mica is a tile-based 2D rasterizer structured like a GPU compute
// pipeline. Scenes are serialized into a compact binary format and rendered
// by four data-parallel stages: a coarse binner that walks the scene tree
// once per screen region, a command expander that decomposes compound items,
// a per-tile binner, and a fine rasterizer that composites with analytic
// anti-aliasing. The stages run as kernels on an engine; the engine in
// engine/cpu_engine executes them on a goroutine pool.
//
// Most users only need Scene and Renderer. The lower-level packages —
// encoding for the scene format, renderer for frame recording, kernels for
// the stages — are exported for hosts that need custom expansion or direct
// access to intermediate buffers.
package mica

import (
	"image"

	"honnef.co/go/mica/engine/cpu_engine"
	"honnef.co/go/mica/gfx"
	"honnef.co/go/mica/mem"
	"honnef.co/go/mica/renderer"
)

// A Renderer renders scenes to images. It owns an engine and a frame arena
// and reuses both across frames; it is not safe for concurrent use.
type Renderer struct {
	engine *cpu_engine.Engine
	arena  *mem.Arena
}

func NewRenderer() *Renderer {
	return &Renderer{
		engine: cpu_engine.New(),
		arena:  mem.NewArena(),
	}
}

// Engine exposes the renderer's engine, for installing custom kernels.
func (r *Renderer) Engine() *cpu_engine.Engine {
	return r.engine
}

// Render rasterizes the scene onto a background color. On a pipeline fault
// the error is a *renderer.FaultError naming the stage and cause.
func (r *Renderer) Render(scene *Scene, width, height uint32, background gfx.Color) (*image.RGBA, error) {
	arena, err := scene.Encode()
	if err != nil {
		return nil, err
	}

	r.arena.Reset()
	params := renderer.RenderParams{
		Width:     width,
		Height:    height,
		BaseColor: background.PremulUint32(),
	}
	rec, frame := renderer.Render(r.arena, arena, &params)
	if err := r.engine.Execute(rec); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	copy(img.Pix, r.engine.Buffer(frame.Image))

	var release renderer.Recording
	for _, buf := range []renderer.BufferProxy{
		frame.ConfigBuf, frame.Scene, frame.Bump, frame.Tilegroup,
		frame.Expanded, frame.Ptcl, frame.Encoded, frame.Image,
	} {
		release.FreeBuffer(r.arena, buf)
	}
	if err := r.engine.Execute(&release); err != nil {
		return nil, err
	}
	return img, nil
}
