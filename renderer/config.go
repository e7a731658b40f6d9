// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package renderer drives the four-stage pipeline: it sizes the dispatch
// grids and region buffers for a frame, records the per-frame command list,
// and defines the data structures shared between the host and the kernels.
package renderer

import (
	"structs"
	"unsafe"

	"honnef.co/go/mica/mmath"
)

const TILE_WIDTH = 16
const TILE_HEIGHT = 16
const TILEGROUP_WIDTH = 256
const TILEGROUP_HEIGHT = 256

// Traversal stack bound for the tilegroup binner. Exceeding it is reported
// through the fault buffer, not silently ignored.
const MAX_GROUP_DEPTH = 8

// Per-region command lists are word streams: an initial block per region,
// then increments claimed from the shared pool. The headroom guarantees a
// jump always fits at the tail of a block.
const LIST_INITIAL_ALLOC = 64
const LIST_INCREMENT = 256
const LIST_HEADROOM = 2

// Commands in a region's list.
const (
	CMD_END      = 0
	CMD_INSTANCE = 1
	CMD_JUMP     = 2
)

// An instance occupies CMD_INSTANCE plus three words: item ref, x offset
// bits, y offset bits.
const INSTANCE_WORDS = 4

// / Uniform render configuration read by all four kernels.
type ConfigUniform struct {
	_ structs.HostLayout

	/// Grid of tilegroups covering the target.
	WidthInTilegroups  uint32
	HeightInTilegroups uint32
	/// Grid of tiles covering the target.
	WidthInTiles  uint32
	HeightInTiles uint32
	/// Target size in pixels.
	TargetWidth  uint32
	TargetHeight uint32
	/// Premultiplied RGBA8 background applied before any instance.
	BaseColor uint32
	/// Size of the tilegroup list buffer, in words.
	TilegroupSize uint32
	/// Size of the expanded list buffer, in words.
	ExpandedSize uint32
	/// Size of the per-tile command list buffer, in words.
	PtclSize uint32
	/// Size of the device re-encode arena, in bytes.
	EncodedSize uint32
}

// / Cursors for the shared block pools, plus the fault word. All fields are
// / only ever mutated atomically by kernels.
type BumpAllocators struct {
	_ structs.HostLayout

	Failed    uint32
	Tilegroup uint32
	Expanded  uint32
	Ptcl      uint32
	Encoded   uint32
}

// Fault bits in BumpAllocators.Failed.
const (
	FailStackOverflow uint32 = 1 << iota
	FailMalformedItem
	FailTilegroupAlloc
	FailExpandedAlloc
	FailPtclAlloc
	FailEncodedAlloc
)

type WorkgroupCounts struct {
	// Stages 1 and 2: one task per tilegroup.
	Tilegroup [3]uint32
	Expand    [3]uint32
	// Stages 3 and 4: one task per tile.
	TileBin [3]uint32
	Fine    [3]uint32
}

type BufferSize[T any] uint32

func NewBufferSize[T any](x uint32) BufferSize[T] {
	return BufferSize[T](max(x, 1))
}

func (s BufferSize[T]) SizeInBytes() uint32 {
	return uint32(s) * uint32(unsafe.Sizeof(*new(T)))
}

type BufferSizes struct {
	Config    BufferSize[ConfigUniform]
	Bump      BufferSize[BumpAllocators]
	Tilegroup BufferSize[uint32]
	Expanded  BufferSize[uint32]
	Ptcl      BufferSize[uint32]
	Encoded   BufferSize[byte]
	Image     BufferSize[uint32]
}

type RenderConfig struct {
	Gpu             ConfigUniform
	WorkgroupCounts WorkgroupCounts
	BufferSizes     BufferSizes
}

func NewRenderConfig(width, height uint32, baseColor uint32) RenderConfig {
	widthInTilegroups := mmath.NextMultipleOf(width, TILEGROUP_WIDTH) / TILEGROUP_WIDTH
	heightInTilegroups := mmath.NextMultipleOf(height, TILEGROUP_HEIGHT) / TILEGROUP_HEIGHT
	widthInTiles := mmath.NextMultipleOf(width, TILE_WIDTH) / TILE_WIDTH
	heightInTiles := mmath.NextMultipleOf(height, TILE_HEIGHT) / TILE_HEIGHT

	nTilegroups := widthInTilegroups * heightInTilegroups
	nTiles := widthInTiles * heightInTiles

	// Initial blocks are statically assigned per region; the dynamic pool
	// follows. The pool sizes are heuristics, not derived from the scene;
	// exhausting them fails the frame deterministically.
	tilegroupSize := nTilegroups*LIST_INITIAL_ALLOC + (1 << 16)
	expandedSize := nTilegroups*LIST_INITIAL_ALLOC + (1 << 16)
	ptclSize := nTiles*LIST_INITIAL_ALLOC + (1 << 17)
	encodedSize := uint32(1) << 18

	return RenderConfig{
		Gpu: ConfigUniform{
			WidthInTilegroups:  widthInTilegroups,
			HeightInTilegroups: heightInTilegroups,
			WidthInTiles:       widthInTiles,
			HeightInTiles:      heightInTiles,
			TargetWidth:        width,
			TargetHeight:       height,
			BaseColor:          baseColor,
			TilegroupSize:      tilegroupSize,
			ExpandedSize:       expandedSize,
			PtclSize:           ptclSize,
			EncodedSize:        encodedSize,
		},
		WorkgroupCounts: WorkgroupCounts{
			Tilegroup: [3]uint32{nTilegroups, 1, 1},
			Expand:    [3]uint32{nTilegroups, 1, 1},
			TileBin:   [3]uint32{nTiles, 1, 1},
			Fine:      [3]uint32{nTiles, 1, 1},
		},
		BufferSizes: BufferSizes{
			Config:    NewBufferSize[ConfigUniform](1),
			Bump:      NewBufferSize[BumpAllocators](1),
			Tilegroup: NewBufferSize[uint32](tilegroupSize),
			Expanded:  NewBufferSize[uint32](expandedSize),
			Ptcl:      NewBufferSize[uint32](ptclSize),
			Encoded:   NewBufferSize[byte](encodedSize),
			Image:     NewBufferSize[uint32](width * height),
		},
	}
}

// TilegroupBounds maps a stage 1/2 task index to its pixel-space region. The
// same function sizes the dispatch grid and drives per-task logic, so the
// two can't disagree.
func TilegroupBounds(config *ConfigUniform, tid uint32) mmath.Bbox {
	x := tid % config.WidthInTilegroups
	y := tid / config.WidthInTilegroups
	return mmath.Bbox{
		float32(x * TILEGROUP_WIDTH),
		float32(y * TILEGROUP_HEIGHT),
		float32((x + 1) * TILEGROUP_WIDTH),
		float32((y + 1) * TILEGROUP_HEIGHT),
	}
}

// TileBounds maps a stage 3/4 task index to its pixel-space region.
func TileBounds(config *ConfigUniform, tid uint32) mmath.Bbox {
	x := tid % config.WidthInTiles
	y := tid / config.WidthInTiles
	return mmath.Bbox{
		float32(x * TILE_WIDTH),
		float32(y * TILE_HEIGHT),
		float32((x + 1) * TILE_WIDTH),
		float32((y + 1) * TILE_HEIGHT),
	}
}

// TileToTilegroup returns the stage 1/2 task index owning a tile task's
// region.
func TileToTilegroup(config *ConfigUniform, tid uint32) uint32 {
	tileX := tid % config.WidthInTiles
	tileY := tid / config.WidthInTiles
	tgX := tileX * TILE_WIDTH / TILEGROUP_WIDTH
	tgY := tileY * TILE_HEIGHT / TILEGROUP_HEIGHT
	return tgY*config.WidthInTilegroups + tgX
}
