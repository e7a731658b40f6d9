// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaNew(t *testing.T) {
	a := NewArena()
	x := New[int](a)
	*x = 42
	y := New[int](a)
	assert.Equal(t, 0, *y, "fresh allocation must be zeroed")
	assert.Equal(t, 42, *x)
	assert.NotSame(t, x, y)
}

func TestArenaMakeSlice(t *testing.T) {
	a := NewArena()
	s := MakeSlice(a, []uint32{1, 2, 3})
	assert.Equal(t, []uint32{1, 2, 3}, s)
}

func TestArenaAppend(t *testing.T) {
	a := NewArena()
	var s []int
	for i := 0; i < 1000; i++ {
		s = Append(a, s, i)
	}
	assert.Len(t, s, 1000)
	assert.Equal(t, 0, s[0])
	assert.Equal(t, 999, s[999])
}

func TestArenaReset(t *testing.T) {
	a := NewArena()
	x := New[uint64](a)
	*x = 0xffffffffffffffff
	a.Reset()
	// After a reset the same memory is handed out again, zeroed.
	y := New[uint64](a)
	assert.Same(t, x, y)
	assert.EqualValues(t, 0, *y)
}

func TestArenaLargeAllocation(t *testing.T) {
	a := NewArena()
	// Larger than a slab; gets its own backing array.
	s := NewSlice[[]byte](a, slabBytes*2, slabBytes*2)
	assert.Len(t, s, slabBytes*2)
}
