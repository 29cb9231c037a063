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

func TestFindDepthFormat(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	device := f.backend.Device()

	format, err := device.FindDepthFormat()
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, gfx.FormatD32Sfloat)

	f.drv.unsupported[vk.FormatD32Sfloat] = true
	f.drv.unsupported[vk.FormatD32SfloatS8Uint] = true
	format, err = device.FindDepthFormat()
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, gfx.FormatD24UnormS8Uint)

	f.drv.unsupported[vk.FormatD24UnormS8Uint] = true
	format, err = device.FindDepthFormat()
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, gfx.FormatD16Unorm)

	f.drv.unsupported[vk.FormatD16Unorm] = true
	_, err = device.FindDepthFormat()
	c.Assert(err, qt.ErrorIs, gfx.ErrUnsupportedFormat)
}

func TestFindSupportedFormat(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	device := f.backend.Device()

	candidates := []gfx.Format{gfx.FormatR8G8B8A8Srgb, gfx.FormatR8G8B8A8Unorm}
	f.drv.unsupported[vk.FormatR8g8b8a8Srgb] = true

	format, err := device.FindSupportedFormat(candidates, gfx.TilingLinear, gfx.FeatureSampledImage|gfx.FeatureBlitSrc)
	c.Assert(err, qt.IsNil)
	c.Assert(format, qt.Equals, gfx.FormatR8G8B8A8Unorm)

	_, err = device.FindSupportedFormat(nil, gfx.TilingOptimal, gfx.FeatureSampledImage)
	c.Assert(err, qt.ErrorIs, gfx.ErrUnsupportedFormat)
}

func TestPhysicalDevices(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)

	devices := f.backend.Device().PhysicalDevices()
	c.Assert(devices, qt.HasLen, 1)
	c.Assert(devices[0].Name, qt.Equals, "fake device")
	c.Assert(devices[0].ID, qt.Equals, 42)
	c.Assert(devices[0].Memory, qt.Equals, uint64(1<<30))
	c.Assert(devices[0].Invalid, qt.IsFalse)

	devices[0].Name = "changed"
	c.Assert(f.backend.Device().PhysicalDevices()[0].Name, qt.Equals, "fake device")
}

func TestSampleCount(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	c.Assert(f.backend.Device().SampleCount(), qt.Equals, gfx.Samples1)

	limits := vk.PhysicalDeviceLimits{
		FramebufferColorSampleCounts: vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit | vk.SampleCount8Bit),
		FramebufferDepthSampleCounts: vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit),
	}
	c.Assert(chooseSampleCount(limits, 0), qt.Equals, gfx.Samples1)
	c.Assert(chooseSampleCount(limits, 2), qt.Equals, gfx.Samples2)
	c.Assert(chooseSampleCount(limits, 8), qt.Equals, gfx.Samples4)
	c.Assert(chooseSampleCount(limits, 3), qt.Equals, gfx.Samples2)
}

func TestDeviceWaitIdleDrainsPending(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)

	refs, err := f.backend.Commands().MakeCommandBuffers(1, gfx.CommandBufferOneTime)
	c.Assert(err, qt.IsNil)
	c.Assert(f.backend.Commands().BeginCommandBuffer(refs[0]), qt.IsNil)
	c.Assert(f.backend.Commands().EndCommandBuffer(refs[0]), qt.IsNil)

	f.drv.fencesPending = true
	c.Assert(f.backend.Commands().SubmitCommandBuffer(refs[0]), qt.IsNil)
	c.Assert(f.backend.state.Get().Pending(), qt.Equals, 1)

	c.Assert(f.backend.Device().WaitIdle(), qt.IsNil)
	c.Assert(f.backend.state.Get().Pending(), qt.Equals, 0)
	c.Assert(handle.Contains(f.storage(), refs[0]), qt.IsFalse)
}
