// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

func TestMakeShaderRejectsByteCode(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	shaders := f.backend.Shaders()
	before := f.storage().Len()

	for _, code := range [][]byte{
		nil,
		{},
		{0x03, 0x02, 0x23},
		{0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00},
	} {
		ref, err := shaders.MakeShader(code)
		c.Assert(err, qt.ErrorIs, gfx.ErrInvalidShaderByteCode, qt.Commentf("% x", code))
		c.Assert(ref.Valid(), qt.IsFalse)
	}
	c.Assert(f.storage().Len(), qt.Equals, before)
	c.Assert(f.drv.calls["CreateShaderModule"], qt.Equals, 0)
}

func TestMakeShaderNativeFailure(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	before := f.storage().Len()

	f.drv.rejectShaders = true
	_, err := f.backend.Shaders().MakeShader(spirv())
	c.Assert(err, qt.ErrorIs, gfx.ErrShaderCreationFailed)
	c.Assert(err, qt.ErrorIs, gfx.ErrNativeFailure)
	var native *NativeError
	c.Assert(err, qt.ErrorAs, &native)
	c.Assert(native.Result, qt.Equals, vk.ErrorInitializationFailed)
	c.Assert(f.storage().Len(), qt.Equals, before)
}

func TestMakeAndEraseShader(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	shaders := f.backend.Shaders()

	ref, err := shaders.MakeShader(spirv())
	c.Assert(err, qt.IsNil)
	c.Assert(handle.Contains(f.storage(), ref), qt.IsTrue)
	c.Assert(f.storage().LenKind(handle.KindShader), qt.Equals, 1)

	shaders.EraseShader(ref)
	shaders.EraseShader(ref)
	c.Assert(f.drv.calls["DestroyShaderModule"], qt.Equals, 1)
	c.Assert(f.storage().LenKind(handle.KindShader), qt.Equals, 0)
}
