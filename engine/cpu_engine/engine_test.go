// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu_engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/mica/encoding"
	"honnef.co/go/mica/kernels"
	"honnef.co/go/mica/mem"
	"honnef.co/go/mica/mmath"
	"honnef.co/go/mica/renderer"
)

func encodeScene(t *testing.T, build func(enc *encoding.Encoder)) []byte {
	t.Helper()
	enc := encoding.NewEncoder(1<<16, [2]float32{})
	build(enc)
	scene, err := enc.Finish()
	require.NoError(t, err)
	return scene
}

func TestExecutePipeline(t *testing.T) {
	scene := encodeScene(t, func(enc *encoding.Encoder) {
		enc.Rect(encoding.Rect{
			Bbox: mmath.Bbox{0, 0, 512, 512},
			RGBA: 0xff0000ff,
		})
	})

	arena := mem.NewArena()
	rec, frame := renderer.Render(arena, scene, &renderer.RenderParams{Width: 512, Height: 512})
	eng := New()
	require.NoError(t, eng.Execute(rec))

	img := eng.Buffer(frame.Image)
	require.Len(t, img, 512*512*4)
	// Every pixel is opaque red; check the corners and center.
	for _, off := range []int{0, (512*511 + 511) * 4, (512*256 + 256) * 4} {
		assert.Equal(t, []byte{255, 0, 0, 255}, img[off:off+4])
	}
}

func TestExecuteFaultAbortsEarly(t *testing.T) {
	// A malformed scene faults in stage 1; the engine must stop at the
	// first fault check and report the stage.
	arena := mem.NewArena()
	rec, frame := renderer.Render(arena, make([]byte, 64), &renderer.RenderParams{Width: 64, Height: 64})
	eng := New()
	err := eng.Execute(rec)

	var fault *renderer.FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "tilegroup binning", fault.Stage)
	assert.NotZero(t, fault.Bits&renderer.FailMalformedItem)

	// The image buffer was allocated but never dispatched into.
	img := eng.Buffer(frame.Image)
	for _, b := range img {
		require.Zero(t, b)
	}
}

func TestSetKernelCustomExpander(t *testing.T) {
	// An expander that drops every compound item entirely.
	scene := encodeScene(t, func(enc *encoding.Encoder) {
		enc.Polyline(encoding.Polyline{
			Bbox:      mmath.Bbox{0, 0, 64, 64},
			HalfWidth: 8,
			RGBA:      0xff0000ff,
		}, [][2]float32{{0, 32}, {64, 32}})
	})

	arena := mem.NewArena()
	rec, frame := renderer.Render(arena, scene, &renderer.RenderParams{Width: 64, Height: 64})
	eng := New()
	eng.SetKernel(renderer.KernelExpand, kernels.Expand(dropExpander{}))
	require.NoError(t, eng.Execute(rec))

	for _, b := range eng.Buffer(frame.Image) {
		require.Zero(t, b, "dropped polyline still rendered")
	}
}

type dropExpander struct{}

func (dropExpander) Expand(enc *kernels.DeviceEncoder, scene []byte, inst kernels.Instance, emit func(kernels.Instance)) {
}

func TestFreeBuffer(t *testing.T) {
	arena := mem.NewArena()
	eng := New()

	var rec renderer.Recording
	buf := rec.Upload(arena, "data", []byte{1, 2, 3})
	require.NoError(t, eng.Execute(&rec))
	assert.Equal(t, []byte{1, 2, 3}, eng.Buffer(buf))

	var free renderer.Recording
	free.FreeBuffer(arena, buf)
	require.NoError(t, eng.Execute(&free))
	assert.Nil(t, eng.Buffer(buf))
}

func TestUploadCopies(t *testing.T) {
	// Mutating the caller's slice after recording must not affect the
	// engine's copy.
	arena := mem.NewArena()
	data := []byte{1, 2, 3}
	var rec renderer.Recording
	buf := rec.Upload(arena, "data", data)

	eng := New()
	require.NoError(t, eng.Execute(&rec))
	data[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, eng.Buffer(buf))
}
