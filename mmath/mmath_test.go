// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBboxIntersects(t *testing.T) {
	b := Bbox{0, 0, 10, 10}
	assert.True(t, b.Intersects(Bbox{5, 5, 15, 15}))
	assert.True(t, b.Intersects(Bbox{-5, -5, 1, 1}))
	// Touching edges don't intersect; regions tile the plane without
	// double-binning items that end exactly on a boundary.
	assert.False(t, b.Intersects(Bbox{10, 0, 20, 10}))
	assert.False(t, b.Intersects(Bbox{0, 10, 10, 20}))
	assert.False(t, b.Intersects(Bbox{20, 20, 30, 30}))
	// Inverted boxes intersect nothing.
	assert.False(t, b.Intersects(Bbox{5, 5, -5, -5}))
}

func TestBboxUnion(t *testing.T) {
	assert.Equal(t, Bbox{0, 0, 15, 15}, Bbox{0, 0, 10, 10}.Union(Bbox{5, 5, 15, 15}))
	// Union with an empty box is the identity.
	empty := Bbox{1, 1, -1, -1}
	assert.Equal(t, Bbox{0, 0, 10, 10}, Bbox{0, 0, 10, 10}.Union(empty))
	assert.Equal(t, Bbox{0, 0, 10, 10}, empty.Union(Bbox{0, 0, 10, 10}))
}

func TestBboxTranslate(t *testing.T) {
	assert.Equal(t, Bbox{3, 4, 13, 14}, Bbox{0, 0, 10, 10}.Translate(3, 4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, 10, Clamp(42, 0, 10))
	assert.Equal(t, float32(0.25), Clamp(float32(0.25), 0, 1))
}

func TestNextMultipleOf(t *testing.T) {
	assert.Equal(t, 256, NextMultipleOf(256, 256))
	assert.Equal(t, 512, NextMultipleOf(257, 256))
	assert.Equal(t, 0, NextMultipleOf(0, 256))
}
