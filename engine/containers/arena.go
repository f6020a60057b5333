package containers

import (
	"fmt"
	m "math"
)

// Key identifies a value stored in an Arena[T]. The type parameter ties a key
// to the kind of arena that produced it, so a pipeline key cannot be handed
// to a texture arena.
//
// The zero Key is never valid.
type Key[T any] struct {
	index      uint32
	generation uint32
}

// IsZero reports whether k is the zero key.
func (k Key[T]) IsZero() bool {
	return k.generation == 0
}

func (k Key[T]) String() string {
	return fmt.Sprintf("%d:%d", k.index, k.generation)
}

type slot struct {
	// generation is odd while the slot is occupied and even while it is free.
	// A slot whose generation would wrap is retired with generation zero and
	// never handed out again.
	generation uint32
	// dense index while occupied, next free slot while free.
	idx uint32
}

// Arena stores values behind generational keys. Values are kept densely so
// iteration touches only live entries; insert, remove and lookup are O(1).
type Arena[T any] struct {
	slots    []slot
	values   []T
	owners   []uint32 // slot index of each dense value
	freeHead uint32   // first free slot plus one, zero when none
	retired  int
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value and returns the key that resolves to it.
func (a *Arena[T]) Insert(value T) Key[T] {
	dense := uint32(len(a.values))
	a.values = append(a.values, value)

	var index uint32
	if a.freeHead != 0 {
		index = a.freeHead - 1
		s := &a.slots[index]
		a.freeHead = s.idx
		s.generation++
		s.idx = dense
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{generation: 1, idx: dense})
	}
	a.owners = append(a.owners, index)

	return Key[T]{index: index, generation: a.slots[index].generation}
}

// Remove deletes the value behind key and returns it. A stale key returns
// false and leaves the arena untouched.
func (a *Arena[T]) Remove(key Key[T]) (T, bool) {
	var zero T
	if !a.Contains(key) {
		return zero, false
	}

	s := &a.slots[key.index]
	dense := s.idx
	value := a.values[dense]

	last := uint32(len(a.values) - 1)
	if dense != last {
		a.values[dense] = a.values[last]
		moved := a.owners[last]
		a.owners[dense] = moved
		a.slots[moved].idx = dense
	}
	a.values[last] = zero
	a.values = a.values[:last]
	a.owners = a.owners[:last]

	a.release(key.index)
	return value, true
}

// release marks an occupied slot free, or retires it when its generation is
// exhausted so an old key can never match a later value.
func (a *Arena[T]) release(index uint32) {
	s := &a.slots[index]
	if s.generation == m.MaxUint32 {
		s.generation = 0
		s.idx = 0
		a.retired++
		return
	}
	s.generation++
	s.idx = a.freeHead
	a.freeHead = index + 1
}

// Retired returns the number of slots taken out of use after exhausting
// their generations.
func (a *Arena[T]) Retired() int {
	return a.retired
}

// Contains reports whether key currently resolves to a value.
func (a *Arena[T]) Contains(key Key[T]) bool {
	if key.IsZero() || int(key.index) >= len(a.slots) {
		return false
	}
	s := a.slots[key.index]
	return s.generation == key.generation && s.generation%2 == 1
}

// Get returns a pointer to the value behind key. The pointer is valid until
// the next Insert or Remove on the arena.
func (a *Arena[T]) Get(key Key[T]) (*T, bool) {
	if !a.Contains(key) {
		return nil, false
	}
	return &a.values[a.slots[key.index].idx], true
}

// MustGet is Get for keys the caller owns and knows to be live. A missing
// value is an engine bug, not a recoverable condition.
func (a *Arena[T]) MustGet(key Key[T]) *T {
	v, ok := a.Get(key)
	if !ok {
		panic(fmt.Sprintf("arena: key %s is stale or was produced by another arena", key))
	}
	return v
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return len(a.values)
}

// Each calls fn for every live value until fn returns false.
func (a *Arena[T]) Each(fn func(key Key[T], value *T) bool) {
	for dense := range a.values {
		index := a.owners[dense]
		key := Key[T]{index: index, generation: a.slots[index].generation}
		if !fn(key, &a.values[dense]) {
			return
		}
	}
}

// Clear removes every value. Keys handed out before Clear never resolve again.
func (a *Arena[T]) Clear() {
	for _, index := range a.owners {
		a.release(index)
	}
	clear(a.values)
	a.values = a.values[:0]
	a.owners = a.owners[:0]
}
