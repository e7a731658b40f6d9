// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mica

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"
	"honnef.co/go/mica/gfx"
	"honnef.co/go/mica/renderer"
)

func TestRenderBackground(t *testing.T) {
	var scene Scene
	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(63, 63))
}

func TestRenderShapes(t *testing.T) {
	var scene Scene
	scene.FillRect(0, 0, 64, 64, gfx.RGB(1, 1, 1))
	scene.Circle(curve.Point{X: 32.5, Y: 32.5}, 10, gfx.RGB(0, 0, 1))

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(32, 32))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(4, 4))
}

func TestRenderGroupTranslation(t *testing.T) {
	var scene Scene
	scene.PushGroup(curve.Vec(40, 40))
	scene.FillRect(0, 0, 8, 8, gfx.RGB(0, 1, 0))
	scene.PopGroup()

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(44, 44))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(4, 4))
}

func TestRenderNestedTranslation(t *testing.T) {
	var scene Scene
	scene.PushGroup(curve.Vec(16, 0))
	scene.PushGroup(curve.Vec(0, 16))
	scene.FillRect(0, 0, 8, 8, gfx.RGB(0, 1, 0))
	scene.PopGroup()
	scene.PopGroup()

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(20, 4))
}

func TestRenderPolyline(t *testing.T) {
	var scene Scene
	scene.Polyline([]curve.Point{
		{X: 8, Y: 32.5},
		{X: 32, Y: 32.5},
		{X: 56, Y: 32.5},
	}, 4, gfx.RGB(1, 0, 0))

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(32, 32))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(32, 8))
}

func TestRenderAcrossTilegroups(t *testing.T) {
	// A rect spanning all four tilegroups of a 512x512 target renders
	// seamlessly across region boundaries.
	var scene Scene
	scene.FillRect(128, 128, 384, 384, gfx.RGB(1, 0, 1))

	img, err := NewRenderer().Render(&scene, 512, 512, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	want := color.RGBA{255, 0, 255, 255}
	assert.Equal(t, want, img.RGBAAt(255, 255))
	assert.Equal(t, want, img.RGBAAt(256, 256))
	assert.Equal(t, want, img.RGBAAt(255, 256))
	assert.Equal(t, want, img.RGBAAt(130, 380))
}

func TestRenderFaultSurfaces(t *testing.T) {
	var scene Scene
	for i := 0; i < renderer.MAX_GROUP_DEPTH+1; i++ {
		scene.PushGroup(curve.Vec(0, 0))
	}
	scene.Circle(curve.Point{X: 32, Y: 32}, 4, gfx.RGB(1, 0, 0))
	for i := 0; i < renderer.MAX_GROUP_DEPTH+1; i++ {
		scene.PopGroup()
	}

	_, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	var fault *renderer.FaultError
	require.ErrorAs(t, err, &fault)
	assert.NotZero(t, fault.Bits&renderer.FailStackOverflow)
}

func TestRendererReuse(t *testing.T) {
	r := NewRenderer()
	for i := 0; i < 3; i++ {
		var scene Scene
		scene.FillRect(0, 0, 32, 32, gfx.RGB(0, 0, 1))
		img, err := r.Render(&scene, 64, 64, gfx.RGB(1, 1, 1))
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(16, 16))
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(48, 48))
	}
}

func TestSceneReset(t *testing.T) {
	var scene Scene
	scene.FillRect(0, 0, 64, 64, gfx.RGB(1, 0, 0))
	scene.Reset()

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(32, 32))
}

func TestRenderErrorDiscardsFrame(t *testing.T) {
	// A faulting render returns no image at all.
	var scene Scene
	for i := 0; i < renderer.MAX_GROUP_DEPTH+1; i++ {
		scene.PushGroup(curve.Vec(0, 0))
	}
	scene.Circle(curve.Point{X: 1, Y: 1}, 1, gfx.RGB(1, 0, 0))

	img, err := NewRenderer().Render(&scene, 64, 64, gfx.RGB(0, 0, 0))
	assert.Nil(t, img)
	assert.True(t, errors.As(err, new(*renderer.FaultError)))
}
