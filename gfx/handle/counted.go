// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle

import (
	"sync/atomic"
)

type counter[T Releasable] struct {
	refs  int32
	value T
}

// Counted is one holder of a reference-counted value. Every holder must be
// released once; the value itself is released together with the last holder.
type Counted[T Releasable] struct {
	shared   *counter[T]
	released int32
}

// NewCounted wraps v into its first holder.
func NewCounted[T Releasable](v T) *Counted[T] {
	return &Counted[T]{shared: &counter[T]{refs: 1, value: v}}
}

// Retain returns a new holder sharing the value.
func (c *Counted[T]) Retain() *Counted[T] {
	if c == nil || atomic.LoadInt32(&c.released) != 0 {
		panic("handle: retain of a released holder")
	}
	atomic.AddInt32(&c.shared.refs, 1)
	return &Counted[T]{shared: c.shared}
}

// Get returns the shared value.
func (c *Counted[T]) Get() T {
	if atomic.LoadInt32(&c.released) != 0 {
		panic("handle: use of a released holder")
	}
	return c.shared.value
}

// Alive reports whether this holder has not been released yet.
func (c *Counted[T]) Alive() bool {
	return c != nil && atomic.LoadInt32(&c.released) == 0
}

// Refs returns the number of holders still alive.
func (c *Counted[T]) Refs() int {
	return int(atomic.LoadInt32(&c.shared.refs))
}

// Release drops this holder. Releasing a holder twice does nothing.
func (c *Counted[T]) Release() {
	if c == nil || !atomic.CompareAndSwapInt32(&c.released, 0, 1) {
		return
	}
	if atomic.AddInt32(&c.shared.refs, -1) == 0 {
		c.shared.value.Release()
	}
}
