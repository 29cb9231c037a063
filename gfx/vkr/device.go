// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// DeviceUnit implements gfx.DeviceUnit.
type DeviceUnit struct {
	shared
}

// NewDeviceUnit creates a device unit over the session.
func NewDeviceUnit(state *handle.Counted[*Session]) (*DeviceUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &DeviceUnit{shared: s}, nil
}

// WaitIdle implements interface
func (u *DeviceUnit) WaitIdle() error {
	return u.session().WaitIdle()
}

// SampleCount implements interface
func (u *DeviceUnit) SampleCount() gfx.SampleCount {
	return u.session().samples
}

// FindDepthFormat implements interface
func (u *DeviceUnit) FindDepthFormat() (gfx.Format, error) {
	return u.FindSupportedFormat(gfx.DepthFormatCandidates, gfx.TilingOptimal, gfx.FeatureDepthStencilAttachment)
}

// FindSupportedFormat implements interface
func (u *DeviceUnit) FindSupportedFormat(candidates []gfx.Format, tiling gfx.ImageTiling, features gfx.FormatFeature) (gfx.Format, error) {
	return findSupportedFormat(u.session(), candidates, tiling, features)
}

// PhysicalDevices implements interface
func (u *DeviceUnit) PhysicalDevices() []gfx.PhysicalDeviceInfo {
	return u.session().instance.Get().PhysicalDevicesInfo()
}

func findSupportedFormat(s *Session, candidates []gfx.Format, tiling gfx.ImageTiling, features gfx.FormatFeature) (gfx.Format, error) {
	want := vkFormatFeature(features)
	for _, candidate := range candidates {
		format, err := vkFormat(candidate)
		if err != nil {
			return gfx.FormatUndefined, err
		}
		props := s.drv.FormatProperties(s.physicalDevice, format)

		var have vk.FormatFeatureFlags
		switch tiling {
		case gfx.TilingLinear:
			have = props.LinearTilingFeatures
		default:
			have = props.OptimalTilingFeatures
		}
		if have&want == want {
			return candidate, nil
		}
	}
	return gfx.FormatUndefined, errors.Wrapf(gfx.ErrUnsupportedFormat, "candidates %v", candidates)
}
