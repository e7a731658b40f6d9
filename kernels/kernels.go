// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package kernels implements the four pipeline stages as data-parallel
// kernels.
//
// Each kernel processes one task: one tilegroup for binning and expansion,
// one tile for tile binning and fine rasterization. An engine runs a stage by
// invoking the kernel for every task index of the dispatch grid, in parallel,
// and imposing a barrier before the next stage. Within a stage, the only
// cross-task mutable state is the bump buffer, which kernels touch
// exclusively through atomics; every region list has exactly one writing
// task.
package kernels

import (
	"fmt"
	"unsafe"

	"honnef.co/go/mica/encoding"
	"honnef.co/go/safeish"
)

// A Binding is a resource passed to a kernel. Currently always a Buffer.
type Binding interface{}

type Buffer []byte

// A Kernel executes one task of a stage's dispatch. tid identifies the task
// within the grid; resources are the stage's buffer bindings in the order
// documented on each kernel.
type Kernel func(tid uint32, resources []Binding)

func fromBytes[E any, T *E](b []byte) T {
	if uintptr(len(b)) < unsafe.Sizeof(*new(E)) {
		panic(fmt.Sprintf(
			"buffer of size %d cannot represent object of size %d", len(b), unsafe.Sizeof(*new(E))))
	}
	return safeish.Cast[T](&b[0])
}

// An Instance is one culled occurrence of an item, positioned for a region
// by its accumulated offset.
type Instance struct {
	Item   encoding.ItemRef
	Offset [2]float32
}

// itemArena picks the arena a reference points into: the read-only scene, or
// the device arena written by the command expander.
func itemArena(scene, encoded []byte, ref encoding.ItemRef) []byte {
	if ref.InDevice() {
		return encoded
	}
	return scene
}
