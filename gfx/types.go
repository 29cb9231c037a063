// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/devblok/kvk/gfx/handle"
)

// Format is a pixel or vertex attribute format.
type Format int

// Supported formats
const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR32G32Sfloat
	FormatR32G32B32Sfloat
	FormatR32G32B32A32Sfloat
	FormatD16Unorm
	FormatD24UnormS8Uint
	FormatD32Sfloat
	FormatD32SfloatS8Uint
)

var formatNames = map[Format]string{
	FormatUndefined:          "undefined",
	FormatR8G8B8A8Unorm:      "r8g8b8a8-unorm",
	FormatR8G8B8A8Srgb:       "r8g8b8a8-srgb",
	FormatB8G8R8A8Unorm:      "b8g8r8a8-unorm",
	FormatB8G8R8A8Srgb:       "b8g8r8a8-srgb",
	FormatR32G32Sfloat:       "r32g32-sfloat",
	FormatR32G32B32Sfloat:    "r32g32b32-sfloat",
	FormatR32G32B32A32Sfloat: "r32g32b32a32-sfloat",
	FormatD16Unorm:           "d16-unorm",
	FormatD24UnormS8Uint:     "d24-unorm-s8-uint",
	FormatD32Sfloat:          "d32-sfloat",
	FormatD32SfloatS8Uint:    "d32-sfloat-s8-uint",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// IsDepth reports whether the format has a depth component.
func (f Format) IsDepth() bool {
	switch f {
	case FormatD16Unorm, FormatD24UnormS8Uint, FormatD32Sfloat, FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether the format has a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

// DepthFormatCandidates lists depth formats from most to least preferred.
var DepthFormatCandidates = []Format{
	FormatD32Sfloat,
	FormatD32SfloatS8Uint,
	FormatD24UnormS8Uint,
	FormatD16Unorm,
}

// ImageAspect selects the parts of an image a view or barrier covers.
type ImageAspect uint32

// Image aspects
const (
	AspectColor ImageAspect = 1 << iota
	AspectDepth
	AspectStencil
)

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}

// VertexInputRate tells whether a binding advances per vertex or per instance.
type VertexInputRate int

// Vertex input rates
const (
	InputRateVertex VertexInputRate = iota
	InputRateInstance
)

// DescriptorType is the type of resource bound through a descriptor.
type DescriptorType int

// Descriptor types
const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorStorageBuffer
	DescriptorCombinedImageSampler
	DescriptorSampledImage
	DescriptorSampler
)

// IsBuffer reports whether the descriptor binds a buffer.
func (d DescriptorType) IsBuffer() bool {
	return d == DescriptorUniformBuffer || d == DescriptorStorageBuffer
}

// ImageLayout is the memory layout an image is kept in.
type ImageLayout int

// Image layouts
const (
	LayoutUndefined ImageLayout = iota
	LayoutTransferSrc
	LayoutTransferDst
	LayoutShaderReadOnly
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutPresentSrc
)

// ImageType is the dimensionality of an image.
type ImageType int

// Image types
const (
	ImageType1D ImageType = iota
	ImageType2D
	ImageType3D
)

// ImageTiling is the arrangement of texels in memory.
type ImageTiling int

// Image tilings
const (
	TilingOptimal ImageTiling = iota
	TilingLinear
)

// FormatFeature is a capability a format may support.
type FormatFeature uint32

// Format features
const (
	FeatureSampledImage FormatFeature = 1 << iota
	FeatureSampledImageFilterLinear
	FeatureColorAttachment
	FeatureDepthStencilAttachment
	FeatureBlitSrc
	FeatureBlitDst
)

// BufferUsage describes what a buffer may be used for.
type BufferUsage uint32

// Buffer usages
const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// ImageUsage describes what an image may be used for.
type ImageUsage uint32

// Image usages
const (
	ImageUsageSampled ImageUsage = 1 << iota
	ImageUsageTransferSrc
	ImageUsageTransferDst
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
)

// MemoryUsage selects where a resource's memory lives.
type MemoryUsage int

// Memory usages
const (
	// MemoryGPUOnly is device local and not mappable.
	MemoryGPUOnly MemoryUsage = iota
	// MemoryCPUToGPU is host visible and coherent.
	MemoryCPUToGPU
)

// SampleCount is the number of samples per pixel.
type SampleCount uint32

// Sample counts
const (
	Samples1  SampleCount = 1
	Samples2  SampleCount = 2
	Samples4  SampleCount = 4
	Samples8  SampleCount = 8
	Samples16 SampleCount = 16
	Samples32 SampleCount = 32
	Samples64 SampleCount = 64
)

// IndexType is the width of index buffer elements.
type IndexType int

// Index types
const (
	IndexUint16 IndexType = iota
	IndexUint32
)

// Filter is a texel filtering mode.
type Filter int

// Filters
const (
	FilterLinear Filter = iota
	FilterNearest
)

// AddressMode is a sampler addressing mode.
type AddressMode int

// Address modes
const (
	AddressRepeat AddressMode = iota
	AddressMirroredRepeat
	AddressClampToEdge
)

// Extent2D is a two dimensional size in pixels.
type Extent2D struct {
	Width, Height uint32
}

// Extent3D is a three dimensional size in pixels.
type Extent3D struct {
	Width, Height, Depth uint32
}

// Viewport is a rendering viewport.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect2D is a rectangle in framebuffer coordinates.
type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// ClearValues are used to clear the colour and depth attachments.
type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// VertexInputBinding describes a vertex buffer binding.
type VertexInputBinding struct {
	Binding uint32
	Stride  uint32
	Rate    VertexInputRate
}

// VertexInputAttribute describes one attribute read from a binding.
type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// DescriptorBinding is one binding of a descriptor set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  []ShaderType
}

// DescriptorPoolSize is the number of descriptors of a type a pool holds.
type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

// DescriptorWrite updates one binding of a descriptor set. Buffer
// descriptors use Buffer, Offset and Range; image descriptors use View
// and Sampler.
type DescriptorWrite struct {
	Binding uint32
	Type    DescriptorType

	Buffer handle.Ref[handle.Buffer]
	Offset uint64
	Range  uint64

	View    handle.Ref[handle.ImageView]
	Sampler handle.Ref[handle.Sampler]
}

// BufferInfo describes a buffer to create.
type BufferInfo struct {
	Size   uint64
	Usage  BufferUsage
	Memory MemoryUsage
}

// ImageInfo describes an image to create.
type ImageInfo struct {
	Type      ImageType
	Format    Format
	Extent    Extent3D
	MipLevels uint32
	Samples   SampleCount
	Usage     ImageUsage
	Tiling    ImageTiling
}

// SamplerInfo describes a sampler to create.
type SamplerInfo struct {
	MagFilter     Filter
	MinFilter     Filter
	AddressMode   AddressMode
	MaxLod        float32
	MaxAnisotropy float32
}

// ShaderStage attaches a shader module to a pipeline stage.
type ShaderStage struct {
	Shader handle.Ref[handle.Shader]
	Type   ShaderType
	// Entry defaults to "main".
	Entry string
}

// PipelineInfo describes a graphics pipeline.
type PipelineInfo struct {
	Stages     []ShaderStage
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
	SetLayouts []handle.Ref[handle.DescriptorSetLayout]

	PushConstantSize   uint32
	PushConstantStages []ShaderType

	ColorFormat Format
	DepthFormat Format
	Samples     SampleCount
	CullBack    bool
}

// CommandBufferUsage tells whether a command buffer can be recorded again.
type CommandBufferUsage int

// Command buffer usages
const (
	CommandBufferReusable CommandBufferUsage = iota
	CommandBufferOneTime
)

// CommandBufferState is the lifecycle state of a command buffer.
type CommandBufferState int

// Command buffer states
const (
	CommandBufferUnrecorded CommandBufferState = iota
	CommandBufferRecording
	CommandBufferRecorded
	CommandBufferSubmitted
	CommandBufferRetired
)

func (s CommandBufferState) String() string {
	switch s {
	case CommandBufferUnrecorded:
		return "unrecorded"
	case CommandBufferRecording:
		return "recording"
	case CommandBufferRecorded:
		return "recorded"
	case CommandBufferSubmitted:
		return "submitted"
	case CommandBufferRetired:
		return "retired"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FrameResult is the outcome of acquiring or presenting a frame.
type FrameResult int

// Frame results
const (
	FrameOK FrameResult = iota
	// FrameRecreationRequired is not a failure, the swapchain has to be
	// rebuilt before the next frame.
	FrameRecreationRequired
	FrameError
)

func (r FrameResult) String() string {
	switch r {
	case FrameOK:
		return "ok"
	case FrameRecreationRequired:
		return "recreation-required"
	}
	return "error"
}

// FrameState is the state of a swapchain's frame cycle.
type FrameState int

// Frame states
const (
	FrameIdle FrameState = iota
	FrameAcquirePending
	FrameAcquired
	FrameRenderingAttachments
	FramePresentable
	FrameInvalid
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquirePending:
		return "acquire-pending"
	case FrameAcquired:
		return "frame-acquired"
	case FrameRenderingAttachments:
		return "rendering-attachments"
	case FramePresentable:
		return "frame-presentable"
	case FrameInvalid:
		return "invalid"
	}
	return fmt.Sprintf("frame-state(%d)", int(s))
}

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint64
}
