package slotpool

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
)

// DefaultChunkCapacity is the per-chunk slot count used by New when the
// caller passes 0.
const DefaultChunkCapacity = 1024

// Pool is a fixed-slot object pool for values of type T. Storage is a list
// of equally sized chunks, each tracking slot occupancy in its own Bitmap.
// Alloc and Free are O(1) with respect to objects (O(chunks) in the worst
// case), addresses are stable for the lifetime of the allocation, and the
// pool grows and shrinks whole chunks at a time, so there is no long-term
// fragmentation.
//
// All methods are safe for concurrent use. Locking is two-tier: every
// chunk's Bitmap serializes bit search and flip on that chunk, while the
// pool's RWMutex guards the chunk list itself. Alloc and Free hold the read
// lock across their per-chunk work, so growth and shrink (which take the
// write lock) can never remove a chunk with an operation in flight.
type Pool[T any] struct {
	mu       sync.RWMutex
	chunks   []*chunk[T]
	chunkCap int
	slack    int
	maxChunk int
	log      *slog.Logger
}

// New creates a pool of T with the given per-chunk capacity (0 means
// DefaultChunkCapacity; at most MaxBits). See the Option functions for
// initial size, shrink, and growth-limit settings.
func New[T any](chunkCapacity int, opts ...Option) (*Pool[T], error) {
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return nil, fmt.Errorf("slotpool: zero-size element type %T", zero)
	}
	if chunkCapacity == 0 {
		chunkCapacity = DefaultChunkCapacity
	}
	if chunkCapacity < 0 {
		return nil, fmt.Errorf("%w: chunk capacity %d", ErrBitRange, chunkCapacity)
	}
	if chunkCapacity > MaxBits {
		return nil, fmt.Errorf("%w: chunk capacity %d > %d", ErrTooManyBits, chunkCapacity, MaxBits)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.slack < -1 || cfg.slack > 100 {
		return nil, fmt.Errorf("%w: %d", ErrBadSlack, cfg.slack)
	}
	if cfg.initialChunks < 0 {
		return nil, fmt.Errorf("slotpool: negative initial chunk count %d", cfg.initialChunks)
	}
	if cfg.maxChunks > 0 && cfg.initialChunks > cfg.maxChunks {
		return nil, fmt.Errorf("%w: initial chunks %d > max %d", ErrPoolExhausted, cfg.initialChunks, cfg.maxChunks)
	}
	p := &Pool[T]{
		chunkCap: chunkCapacity,
		slack:    cfg.slack,
		maxChunk: cfg.maxChunks,
		log:      cfg.logger,
	}
	for i := 0; i < cfg.initialChunks; i++ {
		c, err := newChunk[T](chunkCapacity)
		if err != nil {
			return nil, err
		}
		p.chunks = append(p.chunks, c)
	}
	return p, nil
}

// Alloc claims a free slot and returns its address. The object is a zero T.
// Chunks are scanned in creation order and slots lowest-first, so placement
// is deterministic and favors low addresses. When every chunk is full the
// pool appends one chunk; if the chunk limit forbids that, Alloc returns
// ErrPoolExhausted and the pool is unchanged.
func (p *Pool[T]) Alloc() (*T, error) {
	p.mu.RLock()
	for _, c := range p.chunks {
		if ptr := c.tryAlloc(); ptr != nil {
			p.mu.RUnlock()
			return ptr, nil
		}
	}
	p.mu.RUnlock()
	return p.allocSlow()
}

// allocSlow grows the pool by one chunk. It re-scans first: between the
// read-locked scan and acquiring the write lock another goroutine may have
// freed a slot or appended a chunk.
func (p *Pool[T]) allocSlow() (*T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.chunks {
		if ptr := c.tryAlloc(); ptr != nil {
			return ptr, nil
		}
	}
	if p.maxChunk > 0 && len(p.chunks) >= p.maxChunk {
		return nil, fmt.Errorf("%w: all %d chunks full", ErrPoolExhausted, len(p.chunks))
	}
	c, err := newChunk[T](p.chunkCap)
	if err != nil {
		return nil, err
	}
	p.chunks = append(p.chunks, c)
	p.log.Debug("slotpool: grew", "chunks", len(p.chunks), "chunk_capacity", p.chunkCap)
	ptr := c.tryAlloc()
	// A fresh chunk under the write lock cannot be full.
	return ptr, nil
}

// Free releases the slot p points at. The object is destroyed (the slot is
// zeroed) and becomes available to Alloc again. Addresses the pool does not
// own, and slots that are already free, fail with ErrInvalidPointer and
// leave the pool unchanged. After a successful release the shrink policy is
// evaluated (see WithSlack).
func (p *Pool[T]) Free(ptr *T) error {
	p.mu.RLock()
	owner := p.owner(ptr)
	if owner == nil {
		p.mu.RUnlock()
		return fmt.Errorf("%w: %p not owned by any chunk", ErrInvalidPointer, ptr)
	}
	_, err := owner.release(ptr)
	tailEmpty := false
	if err == nil && p.slack >= 0 && len(p.chunks) > 0 {
		tailEmpty = p.chunks[len(p.chunks)-1].empty()
	}
	p.mu.RUnlock()
	if err != nil {
		return err
	}
	if tailEmpty {
		p.shrink()
	}
	return nil
}

// owner returns the chunk whose address range contains ptr. Caller holds at
// least the read lock.
func (p *Pool[T]) owner(ptr *T) *chunk[T] {
	for _, c := range p.chunks {
		if c.owns(ptr) {
			return c
		}
	}
	return nil
}

// shrink releases the trailing run of empty chunks when the slack policy
// allows. Emptiness is re-verified under the write lock: a concurrent Alloc
// may have claimed a slot in the tail since the caller's check.
func (p *Pool[T]) shrink() {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Find where the trailing run of empty chunks starts.
	run := len(p.chunks)
	for run > 0 && p.chunks[run-1].empty() {
		run--
	}
	if run == len(p.chunks) {
		return
	}
	if p.slack > 0 {
		// Percentage policies gate the whole run on the chunk just
		// before it; with no predecessor the run is kept. The run is
		// released all-or-nothing: its inner members are 100% empty and
		// must not qualify each other.
		if run == 0 || p.chunks[run-1].emptyPercent() < p.slack {
			return
		}
	}
	released := len(p.chunks) - run
	for i := run; i < len(p.chunks); i++ {
		p.chunks[i] = nil
	}
	p.chunks = p.chunks[:run]
	p.log.Debug("slotpool: shrank", "released", released, "chunks", len(p.chunks))
}

// IsValid reports whether ptr is a currently-live object of this pool. It
// never fails: foreign and stale pointers simply report false. Client code
// can use it to detect use-after-free.
func (p *Pool[T]) IsValid(ptr *T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	owner := p.owner(ptr)
	if owner == nil {
		return false
	}
	i := owner.slotIndex(ptr)
	live, err := owner.occupied.IsSet(i)
	return err == nil && live
}

// Count returns the number of live objects: the sum of every chunk's running
// tally, O(chunks).
func (p *Pool[T]) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	for _, c := range p.chunks {
		total += c.live()
	}
	return total
}

// NumChunks returns the number of chunks currently allocated.
func (p *Pool[T]) NumChunks() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chunks)
}

// ChunkCapacity returns the per-chunk slot count.
func (p *Pool[T]) ChunkCapacity() int {
	return p.chunkCap
}

// Capacity returns the total slot count across all chunks.
func (p *Pool[T]) Capacity() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chunks) * p.chunkCap
}

// Slack returns the configured shrink policy value.
func (p *Pool[T]) Slack() int {
	return p.slack
}

// Occupied returns a bitmap of the pool-wide indices of live slots, where a
// slot's index is chunkIndex*ChunkCapacity + slotIndex. Diagnostic snapshot:
// it is consistent per chunk, not across chunks while the pool is in use.
func (p *Pool[T]) Occupied() *roaring.Bitmap {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rb := roaring.New()
	for ci, c := range p.chunks {
		base := uint32(ci * p.chunkCap)
		for i := c.occupied.NextOne(0); i >= 0; i = c.occupied.NextOne(i + 1) {
			rb.Add(base + uint32(i))
		}
	}
	return rb
}
