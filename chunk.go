package slotpool

import (
	"fmt"
	"unsafe"
)

// chunk is a fixed block of slots for T paired with the bitmap that marks
// which slots hold live objects. Bit i is 1 exactly while slots[i] is
// caller-owned.
//
// base/end/stride cache the address range for ownership tests; the slots
// slice itself keeps the backing array reachable, so the cached uintptrs are
// only ever used for arithmetic, never dereferenced.
type chunk[T any] struct {
	slots    []T
	occupied *Bitmap
	base     uintptr
	end      uintptr
	stride   uintptr
}

func newChunk[T any](capacity int) (*chunk[T], error) {
	occupied, err := NewBitmap(capacity, false)
	if err != nil {
		return nil, err
	}
	var zero T
	stride := unsafe.Sizeof(zero)
	slots := make([]T, capacity)
	base := uintptr(unsafe.Pointer(&slots[0]))
	return &chunk[T]{
		slots:    slots,
		occupied: occupied,
		base:     base,
		end:      base + stride*uintptr(capacity),
		stride:   stride,
	}, nil
}

// tryAlloc claims the lowest free slot and returns its address, or nil if the
// chunk is full. Slots are zeroed on release, so the returned object is
// always a zero T.
func (c *chunk[T]) tryAlloc() *T {
	i := c.occupied.TakeFirstZero()
	if i < 0 {
		return nil
	}
	return &c.slots[i]
}

// owns reports whether p points at one of this chunk's slot boundaries.
func (c *chunk[T]) owns(p *T) bool {
	return c.slotIndex(p) >= 0
}

// slotIndex maps an address to its slot index, or -1 when the address is
// outside the chunk or not aligned to a slot boundary.
func (c *chunk[T]) slotIndex(p *T) int {
	addr := uintptr(unsafe.Pointer(p))
	if addr < c.base || addr >= c.end {
		return -1
	}
	off := addr - c.base
	if off%c.stride != 0 {
		return -1
	}
	return int(off / c.stride)
}

// release frees the slot p points at: the object is destroyed (the slot is
// reset to the zero value) and its bit cleared. Reports whether the chunk is
// now completely empty. Fails with ErrInvalidPointer for addresses that are
// not this chunk's live slots, including double frees.
func (c *chunk[T]) release(p *T) (empty bool, err error) {
	i := c.slotIndex(p)
	if i < 0 {
		return false, fmt.Errorf("%w: %p not a slot of this chunk", ErrInvalidPointer, p)
	}
	// Zeroing and bit clear share one critical section, so the slot can
	// never be zeroed after an allocator has already claimed it, and a
	// double free (the bit already clear) zeroes nothing.
	var zero T
	prev, err := c.occupied.clearWith(i, func() { c.slots[i] = zero })
	if err != nil {
		return false, err
	}
	if !prev {
		return false, fmt.Errorf("%w: slot %d already free", ErrInvalidPointer, i)
	}
	return c.occupied.Ones() == 0, nil
}

func (c *chunk[T]) empty() bool {
	return c.occupied.Ones() == 0
}

func (c *chunk[T]) live() int {
	return c.occupied.Ones()
}

// emptyPercent returns how empty the chunk is, 0..100.
func (c *chunk[T]) emptyPercent() int {
	return c.occupied.Zeroes() * 100 / len(c.slots)
}
