// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mem implements a per-frame arena. Recordings are rebuilt every
// frame from many small allocations; the arena lets a renderer reuse that
// memory by resetting it once the frame has been submitted.
package mem

import (
	"reflect"
	"unsafe"
)

type slab struct {
	data unsafe.Pointer
	// size and offset are in elements, not bytes
	size   int
	offset int
}

type Arena struct {
	slabs map[reflect.Type][]slab
}

func NewArena() *Arena {
	return &Arena{
		slabs: make(map[reflect.Type][]slab),
	}
}

const slabBytes = 1 << 20

func (a *Arena) alloc(typ reflect.Type, num int) unsafe.Pointer {
	elemSize := int(typ.Size())
	if elemSize == 0 {
		elemSize = 1
	}
	slabs := a.slabs[typ]
	for i := range slabs {
		sl := &slabs[i]
		if sl.size-sl.offset >= num {
			ptr := unsafe.Add(sl.data, sl.offset*elemSize)
			sl.offset += num
			return ptr
		}
	}
	// Need a new slab. Slabs are backed by real typed slices so the GC sees
	// any pointers stored in them.
	size := max(slabBytes/elemSize, num)
	ptr := reflect.MakeSlice(reflect.SliceOf(typ), size, size).UnsafePointer()
	a.slabs[typ] = append(a.slabs[typ], slab{
		data:   ptr,
		size:   size,
		offset: num,
	})
	return ptr
}

// Reset makes all of the arena's memory available for reuse. It must not be
// called while values allocated from the arena are still in use.
func (a *Arena) Reset() {
	for typ, slabs := range a.slabs {
		elemSize := int(typ.Size())
		if elemSize == 0 {
			elemSize = 1
		}
		for i := range slabs {
			sl := &slabs[i]
			clear(unsafe.Slice((*byte)(sl.data), sl.offset*elemSize))
			sl.offset = 0
		}
	}
}

func New[T any](a *Arena) *T {
	// We cannot use TypeOf(*new(T)) when T is an interface type, because that
	// passes a nil interface to TypeOf, which returns nil.
	var t *T
	typ := reflect.TypeOf(t).Elem()
	return (*T)(a.alloc(typ, 1))
}

func Make[T any](a *Arena, v T) *T {
	ptr := New[T](a)
	*ptr = v
	return ptr
}

func NewSlice[T ~[]E, E any](a *Arena, len, cap int) T {
	if cap == 0 {
		return nil
	}
	var e *E
	ptr := a.alloc(reflect.TypeOf(e).Elem(), cap)
	return T(unsafe.Slice((*E)(ptr), cap)[:len])
}

func MakeSlice[T ~[]E, E any](a *Arena, values T) T {
	s := NewSlice[T, E](a, len(values), len(values))
	copy(s, values)
	return s
}

func Append[T ~[]E, E any](a *Arena, s T, data ...E) T {
	if n := len(s) + len(data) - cap(s); n > 0 {
		s = grow(a, s, len(data))
	}
	return append(s, data...)
}

func grow[T ~[]E, E any](a *Arena, s T, n int) T {
	const growThreshold = 256
	newLen := len(s) + n
	newCap := max(cap(s), 1)
	for newLen > newCap {
		if newCap < growThreshold {
			newCap *= 2
		} else {
			newCap += newCap / 4
		}
	}
	s2 := NewSlice[T, E](a, len(s), newCap)
	copy(s2, s)
	return s2
}
