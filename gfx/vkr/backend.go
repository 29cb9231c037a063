// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr is the Vulkan implementation of the gfx backend.
package vkr

import (
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// Backend composes every unit over one session.
type Backend struct {
	state *handle.Counted[*Session]

	device      *DeviceUnit
	shaders     *ShaderUnit
	buffers     *BufferUnit
	images      *ImageUnit
	descriptors *DescriptorUnit
	pipelines   *PipelineUnit
	commands    *CommandUnit
	swapchains  *SwapchainUnit
}

// NewBackend acquires the process wide instance and brings up a session on
// it. A nil window gives a headless backend without swapchain support.
func NewBackend(cfg core.Configuration, window gfx.Window, log logrus.FieldLogger) (*Backend, error) {
	instanceCfg := cfg.Instance
	instanceCfg.Extensions = append([]string(nil), cfg.Instance.Extensions...)

	var procAddr unsafe.Pointer
	if window != nil {
		procAddr = window.ProcAddr()
		instanceCfg.Extensions = append(instanceCfg.Extensions, window.InstanceExtensions()...)
	}

	instance, err := AcquireInstance(instanceCfg, procAddr, log)
	if err != nil {
		return nil, err
	}
	defer instance.Release()

	return newBackend(vulkanDriver{}, instance, window, cfg.Renderer, log)
}

func newBackend(drv driver, instance *handle.Counted[*Instance], window gfx.Window, cfg core.RendererConfiguration, log logrus.FieldLogger) (*Backend, error) {
	session, err := newSession(drv, instance, window, cfg, log)
	if err != nil {
		return nil, err
	}

	b := &Backend{state: handle.NewCounted(session)}
	if err := b.makeUnits(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *Backend) makeUnits() (err error) {
	if b.device, err = NewDeviceUnit(b.state); err != nil {
		return err
	}
	if b.shaders, err = NewShaderUnit(b.state); err != nil {
		return err
	}
	if b.buffers, err = NewBufferUnit(b.state); err != nil {
		return err
	}
	if b.images, err = NewImageUnit(b.state); err != nil {
		return err
	}
	if b.descriptors, err = NewDescriptorUnit(b.state); err != nil {
		return err
	}
	if b.pipelines, err = NewPipelineUnit(b.state); err != nil {
		return err
	}
	if b.commands, err = NewCommandUnit(b.state); err != nil {
		return err
	}
	b.swapchains, err = NewSwapchainUnit(b.state)
	return err
}

// Session returns the backend's session holder, to build further units on.
func (b *Backend) Session() *handle.Counted[*Session] {
	return b.state
}

// Device implements interface
func (b *Backend) Device() gfx.DeviceUnit { return b.device }

// Shaders implements interface
func (b *Backend) Shaders() gfx.ShaderUnit { return b.shaders }

// Buffers implements interface
func (b *Backend) Buffers() gfx.BufferUnit { return b.buffers }

// Images implements interface
func (b *Backend) Images() gfx.ImageUnit { return b.images }

// Descriptors implements interface
func (b *Backend) Descriptors() gfx.DescriptorUnit { return b.descriptors }

// Pipelines implements interface
func (b *Backend) Pipelines() gfx.PipelineUnit { return b.pipelines }

// Commands implements interface
func (b *Backend) Commands() gfx.CommandUnit { return b.commands }

// Swapchains implements interface
func (b *Backend) Swapchains() gfx.SwapchainUnit { return b.swapchains }

// Kind implements interface
func (b *Backend) Kind() gfx.BackendKind {
	return gfx.BackendVulkan
}

// Release drops the backend's units and its own session hold. The session
// is torn down once no unit holds it either.
func (b *Backend) Release() {
	if b.device != nil {
		b.device.Release()
	}
	if b.shaders != nil {
		b.shaders.Release()
	}
	if b.buffers != nil {
		b.buffers.Release()
	}
	if b.images != nil {
		b.images.Release()
	}
	if b.descriptors != nil {
		b.descriptors.Release()
	}
	if b.pipelines != nil {
		b.pipelines.Release()
	}
	if b.commands != nil {
		b.commands.Release()
	}
	if b.swapchains != nil {
		b.swapchains.Release()
	}
	b.state.Release()
}
