// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package kernels

import (
	"sync/atomic"

	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/renderer"
	"honnef.co/go/safeish"
)

// TilegroupBin is the first stage. Each task walks the full scene tree with a
// bounded explicit stack and emits, into its tilegroup's list, an instance
// for every leaf item whose translated bbox intersects the tilegroup. Groups
// whose bbox misses the tilegroup are pruned without descending.
//
// Bindings: config, scene, bump, tilegroup.
func TilegroupBin(tid uint32, resources []Binding) {
	config := fromBytes[renderer.ConfigUniform](resources[0].(Buffer))
	scene := []byte(resources[1].(Buffer))
	bump := fromBytes[renderer.BumpAllocators](resources[2].(Buffer))
	tilegroup := safeish.SliceCast[[]uint32](resources[3].(Buffer))

	nTilegroups := config.WidthInTilegroups * config.HeightInTilegroups
	if tid >= nTilegroups {
		return
	}
	bounds := renderer.TilegroupBounds(config, tid)

	w := newListWriter(
		tilegroup, tid, &bump.Tilegroup, &bump.Failed,
		renderer.FailTilegroupAlloc, nTilegroups*renderer.LIST_INITIAL_ALLOC)
	defer w.end()

	if encoding.Tag(scene, 0) != encoding.ItemTagGroup {
		atomic.OrUint32(&bump.Failed, renderer.FailMalformedItem)
		return
	}
	root := encoding.ReadGroup(scene, 0)

	// The traversal state is one frame per open group: the group, the index
	// of the next child to visit, and the accumulated offset that positions
	// the group's children in global space.
	type frame struct {
		g      *encoding.Group
		i      uint32
		offset [2]float32
	}
	var stack [renderer.MAX_GROUP_DEPTH]frame
	stack[0] = frame{g: root, offset: root.Offset}
	sp := 1

	for sp > 0 {
		cur := &stack[sp-1]
		if cur.i == cur.g.N {
			sp--
			continue
		}
		ref := cur.g.Child(scene, cur.i)
		cur.i++

		tag := encoding.Tag(scene, ref)
		if !tag.Valid() {
			atomic.OrUint32(&bump.Failed, renderer.FailMalformedItem)
			return
		}
		bbox := encoding.ItemBbox(scene, ref).Translate(cur.offset[0], cur.offset[1])
		if !bbox.Intersects(bounds) {
			continue
		}
		if tag == encoding.ItemTagGroup {
			if sp == len(stack) {
				atomic.OrUint32(&bump.Failed, renderer.FailStackOverflow)
				return
			}
			g := encoding.ReadGroup(scene, ref)
			stack[sp] = frame{
				g: g,
				offset: [2]float32{
					cur.offset[0] + g.Offset[0],
					cur.offset[1] + g.Offset[1],
				},
			}
			sp++
		} else {
			w.instance(ref, cur.offset)
		}
	}
}
