// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package cpu_engine executes recordings on the CPU.
//
// A dispatch fans its tasks out over a pool of goroutines and blocks until
// the last task returns, so consecutive commands observe each other's writes
// fully; that is the inter-stage barrier the recording's command order
// implies.
package cpu_engine

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"honnef.co/go/mica/kernels"
	"honnef.co/go/mica/renderer"
	"honnef.co/go/safeish"
)

type Engine struct {
	buffers map[renderer.ResourceID][]byte
	kernels map[renderer.KernelID]kernels.Kernel
	workers int
}

func New() *Engine {
	return &Engine{
		buffers: map[renderer.ResourceID][]byte{},
		kernels: map[renderer.KernelID]kernels.Kernel{
			renderer.KernelTilegroupBin: kernels.TilegroupBin,
			renderer.KernelExpand:       kernels.Expand(kernels.SegmentExpander{}),
			renderer.KernelTileBin:      kernels.TileBin,
			renderer.KernelFine:         kernels.Fine,
		},
		workers: runtime.GOMAXPROCS(0),
	}
}

// SetKernel replaces the implementation of a stage, most usefully to install
// an Expand kernel built around a custom expander.
func (eng *Engine) SetKernel(id renderer.KernelID, k kernels.Kernel) {
	eng.kernels[id] = k
}

// Buffer returns the engine's backing storage for a proxy. Valid after an
// Execute that created the buffer and until a later FreeBuffer command
// releases it.
func (eng *Engine) Buffer(proxy renderer.BufferProxy) []byte {
	return eng.buffers[proxy.ID]
}

func (eng *Engine) Execute(rec *renderer.Recording) error {
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Upload:
			eng.buffers[cmd.Buffer.ID] = slices.Clone(cmd.Data)
		case *renderer.Alloc:
			eng.buffers[cmd.Buffer.ID] = make([]byte, cmd.Buffer.Size)
		case *renderer.Dispatch:
			k, ok := eng.kernels[cmd.Kernel]
			if !ok {
				return fmt.Errorf("no kernel registered for ID %d", cmd.Kernel)
			}
			bindings := make([]kernels.Binding, len(cmd.Bindings))
			for i, proxy := range cmd.Bindings {
				buf, ok := eng.buffers[proxy.ID]
				if !ok {
					return fmt.Errorf("dispatch binds missing buffer %q", proxy.Name)
				}
				bindings[i] = kernels.Buffer(buf)
			}
			eng.dispatch(k, cmd.WorkgroupSize, bindings)
		case *renderer.CheckFaults:
			buf, ok := eng.buffers[cmd.Bump.ID]
			if !ok {
				return fmt.Errorf("fault check binds missing buffer %q", cmd.Bump.Name)
			}
			bump := safeish.Cast[*renderer.BumpAllocators](&buf[0])
			if bump.Failed != 0 {
				return &renderer.FaultError{Stage: cmd.Stage, Bits: bump.Failed}
			}
		case *renderer.Download:
			// Buffers already live in host memory; Buffer gives access.
		case *renderer.FreeBuffer:
			delete(eng.buffers, cmd.Buffer.ID)
		default:
			panic(fmt.Sprintf("unhandled command type %T", cmd))
		}
	}
	return nil
}

func (eng *Engine) dispatch(k kernels.Kernel, wgCount [3]uint32, bindings []kernels.Binding) {
	n := wgCount[0] * wgCount[1] * wgCount[2]
	workers := min(eng.workers, int(n))
	if workers <= 1 {
		for tid := uint32(0); tid < n; tid++ {
			k(tid, bindings)
		}
		return
	}

	var next atomic.Uint32
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				tid := next.Add(1) - 1
				if tid >= n {
					return
				}
				k(tid, bindings)
			}
		}()
	}
	wg.Wait()
}
