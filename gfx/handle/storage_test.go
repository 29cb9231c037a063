// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handle_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/kvk/gfx/handle"
)

type native struct {
	name     string
	released int
}

func (n *native) Release() {
	n.released++
}

func TestInsertResolve(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	obj := &native{name: "H1"}
	ref := handle.Insert[handle.Buffer](s, obj)
	c.Assert(ref.Valid(), qt.IsTrue)

	got, err := handle.Resolve(s, ref)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, handle.Releasable(obj))

	typed, err := handle.Lookup[*native](s, ref)
	c.Assert(err, qt.IsNil)
	c.Assert(typed, qt.Equals, obj)
	c.Assert(s.Len(), qt.Equals, 1)
	c.Assert(s.LenKind(handle.KindBuffer), qt.Equals, 1)
}

func TestEraseIsIdempotent(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	obj := &native{}
	ref := handle.Insert[handle.Image](s, obj)
	handle.Erase(s, ref)

	_, err := handle.Resolve(s, ref)
	c.Assert(err, qt.ErrorIs, handle.ErrInvalidReference)
	c.Assert(obj.released, qt.Equals, 1)

	handle.Erase(s, ref)
	handle.Erase(s, handle.Ref[handle.Image]{})
	c.Assert(obj.released, qt.Equals, 1)
	c.Assert(s.Len(), qt.Equals, 0)
}

func TestNullReference(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	var ref handle.Ref[handle.Sampler]
	c.Assert(ref.Valid(), qt.IsFalse)
	_, err := handle.Resolve(s, ref)
	c.Assert(err, qt.ErrorIs, handle.ErrInvalidReference)
	c.Assert(ref.String(), qt.Equals, "sampler(null)")
}

func TestRecycledSlotRejectsStaleReference(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	first := handle.Insert[handle.Buffer](s, &native{name: "first"})
	handle.Erase(s, first)
	second := handle.Insert[handle.Buffer](s, &native{name: "second"})

	c.Assert(second.Index(), qt.Equals, first.Index())
	c.Assert(second.Generation(), qt.Not(qt.Equals), first.Generation())
	c.Assert(second, qt.Not(qt.Equals), first)

	_, err := handle.Resolve(s, first)
	c.Assert(err, qt.ErrorIs, handle.ErrInvalidReference)

	got, err := handle.Lookup[*native](s, second)
	c.Assert(err, qt.IsNil)
	c.Assert(got.name, qt.Equals, "second")
}

func TestDistinctTagsNeverEqual(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	h1 := &native{name: "H1"}
	h2 := &native{name: "H2"}
	r1 := handle.Insert[handle.Buffer](s, h1)
	r2 := handle.Insert[handle.Image](s, h2)

	// Both are the first entry of their kind.
	c.Assert(r1.Index(), qt.Equals, r2.Index())
	c.Assert(r1.Generation(), qt.Equals, r2.Generation())
	c.Assert(interface{}(r1) == interface{}(r2), qt.IsFalse)

	got, err := handle.Lookup[*native](s, r1)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, h1)
}

func TestLookupWrongDynamicType(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	ref := handle.Insert[handle.Shader](s, &native{})
	_, err := handle.Lookup[*handle.Counted[*native]](s, ref)
	c.Assert(err, qt.ErrorIs, handle.ErrInvalidReference)
	c.Assert(err, qt.ErrorMatches, `.* holds \*handle_test\.native: invalid resource reference`)
}

func TestTakeDoesNotRelease(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	obj := &native{}
	ref := handle.Insert[handle.CommandBuffer](s, obj)
	taken, ok := handle.Take(s, ref)
	c.Assert(ok, qt.IsTrue)
	c.Assert(taken, qt.Equals, handle.Releasable(obj))
	c.Assert(obj.released, qt.Equals, 0)
	c.Assert(handle.Contains(s, ref), qt.IsFalse)

	_, ok = handle.Take(s, ref)
	c.Assert(ok, qt.IsFalse)
}

type ordered struct {
	order *[]string
	name  string
}

func (o ordered) Release() {
	*o.order = append(*o.order, o.name)
}

func TestClearReleasesDependantsFirst(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	var order []string
	buffer := handle.Insert[handle.Buffer](s, ordered{&order, "buffer"})
	handle.Insert[handle.Image](s, ordered{&order, "image"})
	handle.Insert[handle.ImageView](s, ordered{&order, "view"})
	handle.Insert[handle.CommandBuffer](s, ordered{&order, "commands"})

	s.Clear()
	c.Assert(order, qt.DeepEquals, []string{"commands", "view", "image", "buffer"})
	c.Assert(s.Len(), qt.Equals, 0)
	c.Assert(handle.Contains(s, buffer), qt.IsFalse)
}

func TestAliasedCountedObject(t *testing.T) {
	c := qt.New(t)
	s := handle.NewStorage()

	obj := &native{}
	holder := handle.NewCounted(obj)
	a := handle.Insert[handle.Image](s, holder)
	b := handle.Insert[handle.Image](s, holder.Retain())

	handle.Erase(s, a)
	c.Assert(obj.released, qt.Equals, 0)

	got, err := handle.Lookup[*handle.Counted[*native]](s, b)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Get(), qt.Equals, obj)

	handle.Erase(s, b)
	c.Assert(obj.released, qt.Equals, 1)
}

func BenchmarkResolve(b *testing.B) {
	s := handle.NewStorage()
	refs := make([]handle.Ref[handle.Buffer], 1024)
	for idx := range refs {
		refs[idx] = handle.Insert[handle.Buffer](s, &native{})
	}
	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		if _, err := handle.Resolve(s, refs[idx%len(refs)]); err != nil {
			b.Fatal(err)
		}
	}
}
