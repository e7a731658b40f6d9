// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"sync/atomic"

	"honnef.co/go/mica/mem"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
}

func NewBufferProxy(size uint64, name string) BufferProxy {
	return BufferProxy{size, nextResourceID(), name}
}

// KernelID selects a pipeline stage. Engines map IDs to their own kernel
// implementations, which lets the host record a frame without knowing what
// will execute it.
type KernelID int

const (
	KernelTilegroupBin KernelID = iota
	KernelExpand
	KernelTileBin
	KernelFine
)

// A Recording is the per-frame command list handed to an engine. Commands
// execute strictly in order; a Dispatch does not begin until all previous
// commands — in particular the previous Dispatch — have completed. That
// ordering is the pipeline's inter-stage barrier.
type Recording struct {
	Commands []Command
}

func (rec *Recording) push(arena *mem.Arena, cmd Command) {
	rec.Commands = mem.Append(arena, rec.Commands, cmd)
}

// Upload creates a buffer initialized with data.
func (rec *Recording) Upload(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, Upload{buf, data}))
	return buf
}

// Alloc creates a zero-initialized buffer.
func (rec *Recording) Alloc(arena *mem.Arena, name string, size uint64) BufferProxy {
	buf := NewBufferProxy(size, name)
	rec.push(arena, mem.Make(arena, Alloc{buf}))
	return buf
}

func (rec *Recording) Dispatch(arena *mem.Arena, kernel KernelID, wgCount [3]uint32, resources []BufferProxy) {
	rec.push(arena, mem.Make(arena, Dispatch{kernel, wgCount, mem.MakeSlice(arena, resources)}))
}

// CheckFaults makes the engine read the bump buffer's fault word after the
// preceding dispatch's barrier and abort execution with a FaultError if any
// bit is set.
func (rec *Recording) CheckFaults(arena *mem.Arena, stage string, bump BufferProxy) {
	rec.push(arena, mem.Make(arena, CheckFaults{stage, bump}))
}

func (rec *Recording) Download(arena *mem.Arena, buf BufferProxy) {
	rec.push(arena, mem.Make(arena, Download{buf}))
}

func (rec *Recording) FreeBuffer(arena *mem.Arena, buf BufferProxy) {
	rec.push(arena, mem.Make(arena, FreeBuffer{buf}))
}

type Command interface {
	isCommand()
}

func (*Upload) isCommand()      {}
func (*Alloc) isCommand()       {}
func (*Dispatch) isCommand()    {}
func (*CheckFaults) isCommand() {}
func (*Download) isCommand()    {}
func (*FreeBuffer) isCommand()  {}

type Upload struct {
	Buffer BufferProxy
	Data   []byte
}

type Alloc struct {
	Buffer BufferProxy
}

type Dispatch struct {
	Kernel        KernelID
	WorkgroupSize [3]uint32
	Bindings      []BufferProxy
}

type CheckFaults struct {
	Stage string
	Bump  BufferProxy
}

type Download struct {
	Buffer BufferProxy
}

type FreeBuffer struct {
	Buffer BufferProxy
}
