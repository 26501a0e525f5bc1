package slotpool

import "errors"

// Sentinel errors returned by pool and bitmap operations. Wrap sites add
// context with fmt.Errorf("...: %w", err); match with errors.Is.
var (
	// ErrBitRange is returned when a bit or slot index falls outside the
	// valid range. The operation has no effect.
	ErrBitRange = errors.New("slotpool: bit index out of range")

	// ErrTooManyBits is returned when a requested bit count exceeds MaxBits.
	ErrTooManyBits = errors.New("slotpool: bit count exceeds maximum")

	// ErrInvalidPointer is returned by Free and Convert when the pointer is
	// not a currently-live slot of the pool: a foreign address, a misaligned
	// address inside a chunk, or a slot that was already freed.
	ErrInvalidPointer = errors.New("slotpool: pointer is not a live pool object")

	// ErrPoolExhausted is returned by Alloc when every chunk is full and the
	// configured chunk limit prevents growing. The pool is left unchanged.
	ErrPoolExhausted = errors.New("slotpool: chunk limit reached")

	// ErrBadSlack is returned by New when the slack setting is not -1 and
	// not in [0, 100].
	ErrBadSlack = errors.New("slotpool: slack must be -1 or in [0, 100]")

	// ErrIncompatibleLayout is returned by Compatible when the two element
	// types do not share size and alignment, and by Conv.Convert when the
	// conversion was never successfully declared.
	ErrIncompatibleLayout = errors.New("slotpool: incompatible element layout")
)
