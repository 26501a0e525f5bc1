package slotpool

import (
	"fmt"
	"unsafe"
)

// Conv is a declared compatibility between two element types, allowing a
// live object in a pool of U to be viewed as a T. Obtain one from
// Compatible; the zero value refuses every conversion.
type Conv[T any, U any] struct {
	ok bool
}

// Compatible declares that T and U are layout-compatible. The declaration
// fails with ErrIncompatibleLayout unless the two types have identical size
// and alignment. Nothing is inferred beyond that: choosing to declare two
// types compatible is the caller's responsibility, and the returned Conv is
// the explicit, testable record of that decision.
func Compatible[T any, U any]() (Conv[T, U], error) {
	var t T
	var u U
	if unsafe.Sizeof(t) != unsafe.Sizeof(u) {
		return Conv[T, U]{}, fmt.Errorf("%w: sizeof(%T)=%d, sizeof(%T)=%d",
			ErrIncompatibleLayout, t, unsafe.Sizeof(t), u, unsafe.Sizeof(u))
	}
	if unsafe.Alignof(t) != unsafe.Alignof(u) {
		return Conv[T, U]{}, fmt.Errorf("%w: alignof(%T)=%d, alignof(%T)=%d",
			ErrIncompatibleLayout, t, unsafe.Alignof(t), u, unsafe.Alignof(u))
	}
	return Conv[T, U]{ok: true}, nil
}

// Convert reinterprets a live object of src as a *T. The pointer must be
// validated by the pool first: a foreign or freed pointer fails with
// ErrInvalidPointer and no conversion happens. The returned *T aliases the
// same slot, and the slot remains owned by src: release it through src.Free
// with the original *U.
func (c Conv[T, U]) Convert(src *Pool[U], p *U) (*T, error) {
	if !c.ok {
		return nil, fmt.Errorf("%w: conversion was not declared", ErrIncompatibleLayout)
	}
	if !src.IsValid(p) {
		return nil, fmt.Errorf("%w: %p is not a live object of the source pool", ErrInvalidPointer, p)
	}
	return (*T)(unsafe.Pointer(p)), nil
}
