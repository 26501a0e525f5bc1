// Package slotpool implements a bitmap-indexed object pool for homogeneous
// values: fixed-size slots handed out and reclaimed in constant time with
// zero long-term fragmentation.
//
// # Overview
//
// The pool is built for callers that allocate and free the same object type
// at high frequency (game entities, connection objects, request contexts)
// and want allocation cost and memory layout to be predictable. Storage is a
// list of equally sized chunks; each chunk pairs a slot array with a Bitmap
// marking which slots hold live objects. Allocation finds and claims the
// first free bit in one critical section, release clears it and zeroes the
// slot.
//
// # Basic Usage
//
//	pool, err := slotpool.New[Conn](1024)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	c, err := pool.Alloc() // *Conn, zero value
//	if err != nil {
//		log.Fatal(err)
//	}
//	// ... use c ...
//	if err := pool.Free(c); err != nil {
//		log.Fatal(err) // double free / foreign pointer
//	}
//
// # Growth and Shrink
//
// When every chunk is full, Alloc appends one chunk (bounded by
// WithMaxChunks, which makes exhaustion an error instead of unbounded
// growth). Chunks are only ever released from the tail of the list, and only
// while completely empty, under the policy set by WithSlack: never (-1,
// default), eagerly (0), or with hysteresis (1-100: the chunk preceding the
// empty tail run must be at least that percent empty).
//
// # Thread Safety
//
// All pool and Bitmap operations are safe for concurrent use. Two concurrent
// Alloc calls never return the same address: the find-and-claim runs inside
// a single per-chunk critical section. Structural changes to the chunk list
// take a write lock that excludes in-flight per-chunk operations, so a chunk
// is never released while an allocation could still target it.
//
// # Pointer Validation
//
// Free and IsValid locate the owning chunk by address range and slot
// alignment, so double frees, stale pointers, and foreign pointers are
// detected and reported (Free returns ErrInvalidPointer, IsValid returns
// false). Reinterpreting an object of one pool as another element type
// requires an explicit Compatible declaration plus a liveness check; see
// Conv.
//
// # Performance Characteristics
//
//   - Alloc: O(chunks) worst case, one mutex acquisition per chunk probed
//   - Free: O(chunks) to locate the owner, O(1) to release
//   - Count: O(chunks), each chunk's tally is an atomic read
//   - Memory overhead: one bit per slot plus chunk metadata
//
// The Bitmap type is exported and usable on its own as a concurrency-safe
// bit vector with a running set-bit tally and combined find-and-flip
// operations.
package slotpool
