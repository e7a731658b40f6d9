// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/mica/mem"
	"honnef.co/go/safeish"
)

type RenderParams struct {
	Width  uint32
	Height uint32
	// Premultiplied RGBA8.
	BaseColor uint32
}

// Frame names the buffers of one recorded frame so the caller can read
// results (and tests can poke at intermediates) after execution.
type Frame struct {
	Config RenderConfig

	ConfigBuf BufferProxy
	Scene     BufferProxy
	Bump      BufferProxy
	Tilegroup BufferProxy
	Expanded  BufferProxy
	Ptcl      BufferProxy
	Encoded   BufferProxy
	Image     BufferProxy
}

// Render records one frame: upload the scene arena, run the four stages with
// a fault check after each barrier, download the image. The scene buffer is
// never written by any stage; each list buffer is written by exactly one
// stage and read by the next.
func Render(arena *mem.Arena, scene []byte, params *RenderParams) (*Recording, *Frame) {
	config := NewRenderConfig(params.Width, params.Height, params.BaseColor)
	sizes := &config.BufferSizes
	wgs := &config.WorkgroupCounts

	var rec Recording
	frame := &Frame{Config: config}
	frame.Scene = rec.Upload(arena, "scene", scene)
	frame.ConfigBuf = rec.Upload(arena, "config", mem.MakeSlice(arena, safeish.AsBytes(&config.Gpu)))
	frame.Bump = rec.Alloc(arena, "bump", uint64(sizes.Bump.SizeInBytes()))
	frame.Tilegroup = rec.Alloc(arena, "tilegroup", uint64(sizes.Tilegroup.SizeInBytes()))
	frame.Expanded = rec.Alloc(arena, "expanded", uint64(sizes.Expanded.SizeInBytes()))
	frame.Ptcl = rec.Alloc(arena, "ptcl", uint64(sizes.Ptcl.SizeInBytes()))
	frame.Encoded = rec.Alloc(arena, "encoded", uint64(sizes.Encoded.SizeInBytes()))
	frame.Image = rec.Alloc(arena, "image", uint64(sizes.Image.SizeInBytes()))

	rec.Dispatch(arena, KernelTilegroupBin, wgs.Tilegroup, []BufferProxy{
		frame.ConfigBuf, frame.Scene, frame.Bump, frame.Tilegroup,
	})
	rec.CheckFaults(arena, "tilegroup binning", frame.Bump)

	rec.Dispatch(arena, KernelExpand, wgs.Expand, []BufferProxy{
		frame.ConfigBuf, frame.Scene, frame.Bump, frame.Tilegroup, frame.Expanded, frame.Encoded,
	})
	rec.CheckFaults(arena, "command expansion", frame.Bump)

	rec.Dispatch(arena, KernelTileBin, wgs.TileBin, []BufferProxy{
		frame.ConfigBuf, frame.Scene, frame.Bump, frame.Expanded, frame.Encoded, frame.Ptcl,
	})
	rec.CheckFaults(arena, "tile binning", frame.Bump)

	rec.Dispatch(arena, KernelFine, wgs.Fine, []BufferProxy{
		frame.ConfigBuf, frame.Scene, frame.Bump, frame.Ptcl, frame.Encoded, frame.Image,
	})
	rec.CheckFaults(arena, "fine rasterization", frame.Bump)

	rec.Download(arena, frame.Image)
	return &rec, frame
}
