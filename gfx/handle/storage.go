// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidReference is returned when a reference is null, was erased,
// or belongs to a different storage.
var ErrInvalidReference = errors.New("invalid resource reference")

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

type slot struct {
	generation uint32
	live       bool
	object     Releasable
}

type slotMap struct {
	slots []slot
	free  []uint32
	live  int
}

func (m *slotMap) insert(obj Releasable) (uint32, uint32) {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		s := &m.slots[idx]
		s.generation++
		s.live = true
		s.object = obj
		m.live++
		return idx, s.generation
	}
	m.slots = append(m.slots, slot{generation: 1, live: true, object: obj})
	m.live++
	return uint32(len(m.slots) - 1), 1
}

func (m *slotMap) get(index, generation uint32) (*slot, bool) {
	if generation == 0 || int(index) >= len(m.slots) {
		return nil, false
	}
	s := &m.slots[index]
	if !s.live || s.generation != generation {
		return nil, false
	}
	return s, true
}

func (m *slotMap) remove(index uint32, s *slot) Releasable {
	obj := s.object
	s.object = nil
	s.live = false
	m.live--
	// A slot whose generation would wrap is retired instead of recycled,
	// so a stale reference can never match a new occupant.
	if s.generation < math.MaxUint32 {
		m.free = append(m.free, index)
	}
	return obj
}

// Storage owns native resources and maps references to them.
// It is not safe for concurrent use.
type Storage struct {
	maps [kindCount]slotMap
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Insert takes ownership of obj and returns a fresh reference to it.
func Insert[T Tag](s *Storage, obj Releasable) Ref[T] {
	var tag T
	index, generation := s.maps[tag.Kind()].insert(obj)
	return Ref[T]{index: index, generation: generation}
}

// Resolve returns the object the reference points to.
func Resolve[T Tag](s *Storage, ref Ref[T]) (Releasable, error) {
	sl, ok := s.maps[ref.Kind()].get(ref.index, ref.generation)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidReference, "%s", ref)
	}
	return sl.object, nil
}

// Lookup resolves the reference and asserts the object to V.
func Lookup[V any, T Tag](s *Storage, ref Ref[T]) (V, error) {
	var zero V
	obj, err := Resolve(s, ref)
	if err != nil {
		return zero, err
	}
	v, ok := obj.(V)
	if !ok {
		return zero, errors.Wrapf(ErrInvalidReference, "%s holds %T", ref, obj)
	}
	return v, nil
}

// Erase removes the resource and releases it. Erasing a null or an
// already erased reference does nothing.
func Erase[T Tag](s *Storage, ref Ref[T]) {
	if obj, ok := Take(s, ref); ok && obj != nil {
		obj.Release()
	}
}

// Take removes the resource without releasing it, handing ownership
// back to the caller.
func Take[T Tag](s *Storage, ref Ref[T]) (Releasable, bool) {
	m := &s.maps[ref.Kind()]
	sl, ok := m.get(ref.index, ref.generation)
	if !ok {
		return nil, false
	}
	return m.remove(ref.index, sl), true
}

// Contains reports whether the reference resolves.
func Contains[T Tag](s *Storage, ref Ref[T]) bool {
	_, ok := s.maps[ref.Kind()].get(ref.index, ref.generation)
	return ok
}

// Len returns the number of live resources of all kinds.
func (s *Storage) Len() int {
	var n int
	for k := range s.maps {
		n += s.maps[k].live
	}
	return n
}

// LenKind returns the number of live resources of the given kind.
func (s *Storage) LenKind(k Kind) int {
	if k >= kindCount {
		return 0
	}
	return s.maps[k].live
}

// Clear releases every live resource, dependants first. References
// handed out before Clear stop resolving.
func (s *Storage) Clear() {
	for k := range s.maps {
		m := &s.maps[k]
		for idx := range m.slots {
			sl := &m.slots[idx]
			if !sl.live {
				continue
			}
			if obj := m.remove(uint32(idx), sl); obj != nil {
				obj.Release()
			}
		}
	}
}
