// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/mica/mem"
	"honnef.co/go/mica/mmath"
)

func TestNewRenderConfigGrids(t *testing.T) {
	cfg := NewRenderConfig(1024, 768, 0)
	assert.EqualValues(t, 4, cfg.Gpu.WidthInTilegroups)
	assert.EqualValues(t, 3, cfg.Gpu.HeightInTilegroups)
	assert.EqualValues(t, 64, cfg.Gpu.WidthInTiles)
	assert.EqualValues(t, 48, cfg.Gpu.HeightInTiles)
	assert.Equal(t, [3]uint32{12, 1, 1}, cfg.WorkgroupCounts.Tilegroup)
	assert.Equal(t, [3]uint32{64 * 48, 1, 1}, cfg.WorkgroupCounts.Fine)

	// Sizes that don't divide evenly round up.
	cfg = NewRenderConfig(257, 17, 0)
	assert.EqualValues(t, 2, cfg.Gpu.WidthInTilegroups)
	assert.EqualValues(t, 1, cfg.Gpu.HeightInTilegroups)
	assert.EqualValues(t, 17, cfg.Gpu.WidthInTiles)
	assert.EqualValues(t, 2, cfg.Gpu.HeightInTiles)
}

func TestRegionMapping(t *testing.T) {
	cfg := NewRenderConfig(1024, 768, 0)

	assert.Equal(t, mmath.Bbox{0, 0, 256, 256}, TilegroupBounds(&cfg.Gpu, 0))
	assert.Equal(t, mmath.Bbox{256, 256, 512, 512}, TilegroupBounds(&cfg.Gpu, 5))
	assert.Equal(t, mmath.Bbox{0, 0, 16, 16}, TileBounds(&cfg.Gpu, 0))
	assert.Equal(t, mmath.Bbox{320, 160, 336, 176}, TileBounds(&cfg.Gpu, 10*64+20))

	// Every tile maps into the tilegroup that contains its pixels.
	for tile := uint32(0); tile < cfg.Gpu.WidthInTiles*cfg.Gpu.HeightInTiles; tile++ {
		tb := TileBounds(&cfg.Gpu, tile)
		tgb := TilegroupBounds(&cfg.Gpu, TileToTilegroup(&cfg.Gpu, tile))
		assert.True(t, tb[0] >= tgb[0] && tb[1] >= tgb[1] && tb[2] <= tgb[2] && tb[3] <= tgb[3],
			"tile %d not contained in its tilegroup", tile)
	}
}

func TestRenderRecording(t *testing.T) {
	arena := mem.NewArena()
	scene := make([]byte, 64)
	rec, frame := Render(arena, scene, &RenderParams{Width: 512, Height: 512, BaseColor: 0xffffffff})

	// Two uploads, six allocs, four dispatches each followed by a fault
	// check, one download.
	var uploads, allocs, dispatches, checks, downloads int
	var lastDispatch *Dispatch
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *Upload:
			uploads++
		case *Alloc:
			allocs++
		case *Dispatch:
			dispatches++
			lastDispatch = cmd
		case *CheckFaults:
			checks++
			require.NotNil(t, lastDispatch, "fault check before any dispatch")
		case *Download:
			downloads++
			assert.Equal(t, frame.Image.ID, cmd.Buffer.ID)
		}
	}
	assert.Equal(t, 2, uploads)
	assert.Equal(t, 6, allocs)
	assert.Equal(t, 4, dispatches)
	assert.Equal(t, 4, checks)
	assert.Equal(t, 1, downloads)

	// The final dispatch is fine rasterization writing the image.
	assert.Equal(t, KernelFine, lastDispatch.Kernel)
	assert.Equal(t, frame.Image.ID, lastDispatch.Bindings[len(lastDispatch.Bindings)-1].ID)
}

func TestFaultErrorMessage(t *testing.T) {
	err := &FaultError{Stage: "tile binning", Bits: FailStackOverflow | FailPtclAlloc}
	assert.Contains(t, err.Error(), "tile binning")
	assert.Contains(t, err.Error(), "stack overflow")
	assert.Contains(t, err.Error(), "per-tile list pool exhausted")

	unknown := &FaultError{Stage: "x", Bits: 1 << 30}
	assert.Contains(t, unknown.Error(), "unknown fault bits")
}
