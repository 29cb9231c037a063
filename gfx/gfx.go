// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that backends must implement.
// Backends hand out typed references from package handle instead of native
// objects, and every operation is partitioned into a capability unit.
package gfx

import (
	"unsafe"

	"github.com/devblok/kvk/gfx/handle"
)

// Reference aliases, so callers rarely need to import package handle.
type (
	BufferRef              = handle.Ref[handle.Buffer]
	ImageRef               = handle.Ref[handle.Image]
	ImageViewRef           = handle.Ref[handle.ImageView]
	SamplerRef             = handle.Ref[handle.Sampler]
	ShaderRef              = handle.Ref[handle.Shader]
	DescriptorPoolRef      = handle.Ref[handle.DescriptorPool]
	DescriptorSetLayoutRef = handle.Ref[handle.DescriptorSetLayout]
	DescriptorSetRef       = handle.Ref[handle.DescriptorSet]
	PipelineRef            = handle.Ref[handle.GraphicsPipeline]
	CommandBufferRef       = handle.Ref[handle.CommandBuffer]
	SwapchainRef           = handle.Ref[handle.Swapchain]
)

// Window is the drawable target owned by windowing code.
type Window interface {
	// PixelSize returns the current drawable size in pixels.
	PixelSize() (width, height uint32)

	// InstanceExtensions returns the instance extensions the window
	// system needs for presentation.
	InstanceExtensions() []string

	// CreateSurface creates a presentation surface for the given
	// native instance handle.
	CreateSurface(instance interface{}) (unsafe.Pointer, error)

	// ProcAddr returns the loader entry point, nil selects the default loader.
	ProcAddr() unsafe.Pointer
}

// BackendKind selects a backend implementation.
type BackendKind int

// Backend kinds
const (
	BackendVulkan BackendKind = iota
)

func (k BackendKind) String() string {
	if k == BackendVulkan {
		return "vulkan"
	}
	return "unknown"
}

// DeviceUnit exposes device level queries and synchronisation.
type DeviceUnit interface {
	// WaitIdle blocks until all submitted work completes.
	WaitIdle() error

	// SampleCount returns the multisampling level chosen for the session.
	SampleCount() SampleCount

	// FindDepthFormat returns the most preferred supported depth format.
	FindDepthFormat() (Format, error)

	// FindSupportedFormat returns the first candidate supporting features
	// with the given tiling.
	FindSupportedFormat(candidates []Format, tiling ImageTiling, features FormatFeature) (Format, error)

	// PhysicalDevices describes every physical device of the instance.
	PhysicalDevices() []PhysicalDeviceInfo
}

// ShaderUnit creates shader modules from pre-compiled byte code.
type ShaderUnit interface {
	MakeShader(code []byte) (ShaderRef, error)
	EraseShader(ShaderRef)
}

// BufferUnit creates and updates buffers.
type BufferUnit interface {
	MakeBuffer(info BufferInfo) (BufferRef, error)
	MakeBufferWithData(data []byte, usage BufferUsage) (BufferRef, error)
	UpdateBuffer(ref BufferRef, offset uint64, data []byte) error
	EraseBuffer(BufferRef)
}

// ImageUnit creates images, views and samplers and manages image layouts.
type ImageUnit interface {
	MakeImage(info ImageInfo) (ImageRef, error)
	MakeTexture(data ImageData) (ImageRef, error)
	MakeImageView(image ImageRef, aspect ImageAspect) (ImageViewRef, error)
	MakeSampler(info SamplerInfo) (SamplerRef, error)
	TransitionImageLayout(image ImageRef, oldLayout, newLayout ImageLayout) error
	GenerateMipLevels(image ImageRef) error
	EraseImage(ImageRef)
	EraseImageView(ImageViewRef)
	EraseSampler(SamplerRef)
}

// DescriptorUnit creates descriptor pools, layouts and sets.
type DescriptorUnit interface {
	MakeDescriptorPool(sizes []DescriptorPoolSize, maxSets uint32) (DescriptorPoolRef, error)
	MakeDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayoutRef, error)
	MakeDescriptorSets(pool DescriptorPoolRef, layout DescriptorSetLayoutRef, count uint32) ([]DescriptorSetRef, error)
	WriteDescriptorSet(set DescriptorSetRef, writes []DescriptorWrite) error
	EraseDescriptorPool(DescriptorPoolRef)
	EraseDescriptorSetLayout(DescriptorSetLayoutRef)
}

// PipelineUnit creates graphics pipelines.
type PipelineUnit interface {
	MakeGraphicsPipeline(info PipelineInfo) (PipelineRef, error)
	ErasePipeline(PipelineRef)
}

// CommandUnit allocates, records and submits command buffers.
type CommandUnit interface {
	MakeCommandBuffers(count uint32, usage CommandBufferUsage) ([]CommandBufferRef, error)
	BeginCommandBuffer(CommandBufferRef) error
	EndCommandBuffer(CommandBufferRef) error
	SubmitCommandBuffer(CommandBufferRef) error
	SubmitAndWait(CommandBufferRef) error
	State(CommandBufferRef) (CommandBufferState, error)
	EraseCommandBuffer(CommandBufferRef)

	BindPipeline(cmd CommandBufferRef, pipeline PipelineRef) error
	BindVertexBuffers(cmd CommandBufferRef, first uint32, buffers []BufferRef, offsets []uint64) error
	BindIndexBuffer(cmd CommandBufferRef, buffer BufferRef, offset uint64, indexType IndexType) error
	BindDescriptorSets(cmd CommandBufferRef, pipeline PipelineRef, first uint32, sets []DescriptorSetRef) error
	PushConstants(cmd CommandBufferRef, pipeline PipelineRef, offset uint32, data []byte) error
	SetViewport(cmd CommandBufferRef, viewport Viewport) error
	SetScissor(cmd CommandBufferRef, scissor Rect2D) error
	Draw(cmd CommandBufferRef, vertexCount, instanceCount, firstVertex, firstInstance uint32) error
	DrawIndexed(cmd CommandBufferRef, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error
	CopyBuffer(cmd CommandBufferRef, src, dst BufferRef, size uint64) error
}

// SwapchainUnit drives the acquire, render and present cycle.
type SwapchainUnit interface {
	MakeSwapchain(window Window) (SwapchainRef, error)
	RecreateSwapchain(ref SwapchainRef, window Window) (SwapchainRef, error)
	BeginFrame(ref SwapchainRef) (FrameResult, error)
	ImageIndex(ref SwapchainRef) (uint32, error)
	BeginRendering(ref SwapchainRef, cmd CommandBufferRef, clear ClearValues) error
	EndRendering(ref SwapchainRef, cmd CommandBufferRef) error
	EndFrame(ref SwapchainRef, cmd CommandBufferRef) (FrameResult, error)
	FrameState(ref SwapchainRef) (FrameState, error)
	Extent(ref SwapchainRef) (Extent2D, error)
	ColorFormat(ref SwapchainRef) (Format, error)
	EraseSwapchain(SwapchainRef)
}

// Backend is the facade over every capability unit of one backend session.
type Backend interface {
	handle.Releasable

	Device() DeviceUnit
	Shaders() ShaderUnit
	Buffers() BufferUnit
	Images() ImageUnit
	Descriptors() DescriptorUnit
	Pipelines() PipelineUnit
	Commands() CommandUnit
	Swapchains() SwapchainUnit

	Kind() BackendKind
}
