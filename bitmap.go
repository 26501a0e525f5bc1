package slotpool

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// MaxBits is the hard ceiling on the size of a single Bitmap, and therefore
// on a pool's per-chunk capacity.
const MaxBits = 65536

// Bitmap is a fixed-size bit vector that is safe for concurrent use. It keeps
// a running tally of set bits so Ones is O(1), and it offers combined
// find-and-flip operations (TakeFirstZero, TakeFirstOne) so that two
// concurrent callers can never claim the same bit.
//
// The tally is updated inside the same critical section as every bit flip,
// but is stored in an atomic so readers never need the lock.
type Bitmap struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	n    int
	ones atomic.Int64
}

// NewBitmap creates a bitmap with n bits, all initialized to the given value.
// n must be in [1, MaxBits]; larger values return ErrTooManyBits.
func NewBitmap(n int, initial bool) (*Bitmap, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d bits", ErrBitRange, n)
	}
	if n > MaxBits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyBits, n, MaxBits)
	}
	b := &Bitmap{
		bits: bitset.New(uint(n)),
		n:    n,
	}
	if initial {
		b.bits.SetAll()
		b.ones.Store(int64(n))
	}
	return b, nil
}

// Len returns the number of bits.
func (b *Bitmap) Len() int { return b.n }

func (b *Bitmap) checkIndex(i int) error {
	if i < 0 || i >= b.n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrBitRange, i, b.n)
	}
	return nil
}

// IsSet reports whether bit i is 1.
func (b *Bitmap) IsSet(i int) (bool, error) {
	if err := b.checkIndex(i); err != nil {
		return false, err
	}
	b.mu.Lock()
	v := b.bits.Test(uint(i))
	b.mu.Unlock()
	return v, nil
}

// Bit returns bit i as 0 or 1.
func (b *Bitmap) Bit(i int) (byte, error) {
	v, err := b.IsSet(i)
	if err != nil {
		return 0, err
	}
	if v {
		return 1, nil
	}
	return 0, nil
}

// SetTo sets bit i to the given value and adjusts the running tally by the
// signed delta, all in one critical section.
func (b *Bitmap) SetTo(i int, v bool) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.mu.Lock()
	prev := b.bits.Test(uint(i))
	if prev != v {
		b.bits.SetTo(uint(i), v)
		if v {
			b.ones.Add(1)
		} else {
			b.ones.Add(-1)
		}
	}
	b.mu.Unlock()
	return nil
}

// TestAndSet sets bit i and returns its previous value. The read and the
// write happen in a single critical section, so among any number of
// concurrent callers exactly one observes the 0 -> 1 transition.
func (b *Bitmap) TestAndSet(i int) (bool, error) {
	if err := b.checkIndex(i); err != nil {
		return false, err
	}
	b.mu.Lock()
	prev := b.bits.Test(uint(i))
	if !prev {
		b.bits.Set(uint(i))
		b.ones.Add(1)
	}
	b.mu.Unlock()
	return prev, nil
}

// TestAndClear clears bit i and returns its previous value. Atomic in the
// same sense as TestAndSet.
func (b *Bitmap) TestAndClear(i int) (bool, error) {
	if err := b.checkIndex(i); err != nil {
		return false, err
	}
	b.mu.Lock()
	prev := b.bits.Test(uint(i))
	if prev {
		b.bits.Clear(uint(i))
		b.ones.Add(-1)
	}
	b.mu.Unlock()
	return prev, nil
}

// clearWith clears bit i like TestAndClear, but first runs destroy inside
// the same critical section, and only when the bit was set. Chunks release
// slots through this so that destroying the object and clearing its bit form
// one atomic transition: a concurrent allocator can never receive the slot
// while destroy is still running, and a lost double-free race never runs
// destroy at all.
func (b *Bitmap) clearWith(i int, destroy func()) (bool, error) {
	if err := b.checkIndex(i); err != nil {
		return false, err
	}
	b.mu.Lock()
	prev := b.bits.Test(uint(i))
	if prev {
		destroy()
		b.bits.Clear(uint(i))
		b.ones.Add(-1)
	}
	b.mu.Unlock()
	return prev, nil
}

// FirstZero returns the lowest index holding a 0 bit, or -1 if every bit is
// set. The scan is lowest-index-first, so results are deterministic.
func (b *Bitmap) FirstZero() int {
	b.mu.Lock()
	i, ok := b.bits.NextClear(0)
	b.mu.Unlock()
	if !ok {
		return -1
	}
	return int(i)
}

// FirstOne returns the lowest index holding a 1 bit, or -1 if every bit is
// clear.
func (b *Bitmap) FirstOne() int {
	b.mu.Lock()
	i, ok := b.bits.NextSet(0)
	b.mu.Unlock()
	if !ok {
		return -1
	}
	return int(i)
}

// NextOne returns the lowest index >= from holding a 1 bit, or -1 if there is
// none. from may be b.Len() (returns -1); other out-of-range values return -1
// as well.
func (b *Bitmap) NextOne(from int) int {
	if from < 0 || from >= b.n {
		return -1
	}
	b.mu.Lock()
	i, ok := b.bits.NextSet(uint(from))
	b.mu.Unlock()
	if !ok {
		return -1
	}
	return int(i)
}

// TakeFirstZero finds the lowest 0 bit, sets it, and returns its index, all
// in one critical section. Returns -1 without mutating if every bit is set.
// This is the allocation primitive: concurrent callers always receive
// distinct indices.
func (b *Bitmap) TakeFirstZero() int {
	b.mu.Lock()
	i, ok := b.bits.NextClear(0)
	if ok {
		b.bits.Set(i)
		b.ones.Add(1)
	}
	b.mu.Unlock()
	if !ok {
		return -1
	}
	return int(i)
}

// TakeFirstOne finds the lowest 1 bit, clears it, and returns its index, all
// in one critical section. Returns -1 without mutating if every bit is clear.
func (b *Bitmap) TakeFirstOne() int {
	b.mu.Lock()
	i, ok := b.bits.NextSet(0)
	if ok {
		b.bits.Clear(i)
		b.ones.Add(-1)
	}
	b.mu.Unlock()
	if !ok {
		return -1
	}
	return int(i)
}

// Ones returns the number of set bits. Lock-free: it reads the running tally
// maintained by the mutating operations.
func (b *Bitmap) Ones() int {
	return int(b.ones.Load())
}

// Zeroes returns the number of clear bits.
func (b *Bitmap) Zeroes() int {
	return b.n - b.Ones()
}

// HexString returns the bitmap as fixed-width uppercase hex, most significant
// nibble first. Diagnostic output only, not a wire format.
func (b *Bitmap) HexString() string {
	words := b.snapshotWords()
	var sb strings.Builder
	for i := len(words) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%016X", words[i])
	}
	s := sb.String()
	nibbles := (b.n + 3) / 4
	return s[len(s)-nibbles:]
}

// BinaryString returns the bitmap as a string of '0' and '1' characters,
// highest bit index first, exactly Len characters wide.
func (b *Bitmap) BinaryString() string {
	words := b.snapshotWords()
	var sb strings.Builder
	for i := len(words) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%064b", words[i])
	}
	s := sb.String()
	return s[len(s)-b.n:]
}

// String implements fmt.Stringer as HexString.
func (b *Bitmap) String() string {
	return b.HexString()
}

func (b *Bitmap) snapshotWords() []uint64 {
	b.mu.Lock()
	words := make([]uint64, len(b.bits.Bytes()))
	copy(words, b.bits.Bytes())
	b.mu.Unlock()
	return words
}
