// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package kernels

import (
	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/renderer"
	"honnef.co/go/safeish"
)

// TileBin is the third stage. Each task narrows its enclosing tilegroup's
// expanded list down to the instances whose translated bbox intersects the
// task's tile, producing the per-tile command list the rasterizer consumes.
//
// Bindings: config, scene, bump, expanded, encoded, ptcl.
func TileBin(tid uint32, resources []Binding) {
	config := fromBytes[renderer.ConfigUniform](resources[0].(Buffer))
	scene := []byte(resources[1].(Buffer))
	bump := fromBytes[renderer.BumpAllocators](resources[2].(Buffer))
	expanded := safeish.SliceCast[[]uint32](resources[3].(Buffer))
	encoded := []byte(resources[4].(Buffer))
	ptcl := safeish.SliceCast[[]uint32](resources[5].(Buffer))

	nTiles := config.WidthInTiles * config.HeightInTiles
	if tid >= nTiles {
		return
	}
	bounds := renderer.TileBounds(config, tid)
	tg := renderer.TileToTilegroup(config, tid)

	w := newListWriter(
		ptcl, tid, &bump.Ptcl, &bump.Failed,
		renderer.FailPtclAlloc, nTiles*renderer.LIST_INITIAL_ALLOC)
	defer w.end()

	for inst := range instances(expanded, tg) {
		arena := itemArena(scene, encoded, inst.Item)
		bbox := encoding.ItemBbox(arena, inst.Item).Translate(inst.Offset[0], inst.Offset[1])
		if bbox.Intersects(bounds) {
			w.instance(inst.Item, inst.Offset)
		}
	}
}
