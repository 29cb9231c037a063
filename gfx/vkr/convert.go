// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
)

var formats = map[gfx.Format]vk.Format{
	gfx.FormatUndefined:          vk.FormatUndefined,
	gfx.FormatR8G8B8A8Unorm:      vk.FormatR8g8b8a8Unorm,
	gfx.FormatR8G8B8A8Srgb:       vk.FormatR8g8b8a8Srgb,
	gfx.FormatB8G8R8A8Unorm:      vk.FormatB8g8r8a8Unorm,
	gfx.FormatB8G8R8A8Srgb:       vk.FormatB8g8r8a8Srgb,
	gfx.FormatR32G32Sfloat:       vk.FormatR32g32Sfloat,
	gfx.FormatR32G32B32Sfloat:    vk.FormatR32g32b32Sfloat,
	gfx.FormatR32G32B32A32Sfloat: vk.FormatR32g32b32a32Sfloat,
	gfx.FormatD16Unorm:           vk.FormatD16Unorm,
	gfx.FormatD24UnormS8Uint:     vk.FormatD24UnormS8Uint,
	gfx.FormatD32Sfloat:          vk.FormatD32Sfloat,
	gfx.FormatD32SfloatS8Uint:    vk.FormatD32SfloatS8Uint,
}

func vkFormat(f gfx.Format) (vk.Format, error) {
	if format, ok := formats[f]; ok {
		return format, nil
	}
	return vk.FormatUndefined, errors.Wrapf(gfx.ErrInvalidParameters, "format %s", f)
}

// fromVkFormat maps unknown native formats to gfx.FormatUndefined.
func fromVkFormat(f vk.Format) gfx.Format {
	for format, native := range formats {
		if native == f {
			return format
		}
	}
	return gfx.FormatUndefined
}

func vkImageAspect(a gfx.ImageAspect) vk.ImageAspectFlags {
	var flags vk.ImageAspectFlagBits
	if a&gfx.AspectColor != 0 {
		flags |= vk.ImageAspectColorBit
	}
	if a&gfx.AspectDepth != 0 {
		flags |= vk.ImageAspectDepthBit
	}
	if a&gfx.AspectStencil != 0 {
		flags |= vk.ImageAspectStencilBit
	}
	return vk.ImageAspectFlags(flags)
}

// aspectOf returns the aspects a whole-image barrier of format f covers.
func aspectOf(f gfx.Format) gfx.ImageAspect {
	switch {
	case f.HasStencil():
		return gfx.AspectDepth | gfx.AspectStencil
	case f.IsDepth():
		return gfx.AspectDepth
	}
	return gfx.AspectColor
}

func vkShaderStage(t gfx.ShaderType) (vk.ShaderStageFlagBits, error) {
	switch t {
	case gfx.VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case gfx.FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "shader type %s", t)
}

func vkShaderStages(types []gfx.ShaderType) (vk.ShaderStageFlags, error) {
	var flags vk.ShaderStageFlagBits
	for _, t := range types {
		stage, err := vkShaderStage(t)
		if err != nil {
			return 0, err
		}
		flags |= stage
	}
	return vk.ShaderStageFlags(flags), nil
}

func vkVertexInputRate(r gfx.VertexInputRate) (vk.VertexInputRate, error) {
	switch r {
	case gfx.InputRateVertex:
		return vk.VertexInputRateVertex, nil
	case gfx.InputRateInstance:
		return vk.VertexInputRateInstance, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "vertex input rate %d", r)
}

func vkDescriptorType(t gfx.DescriptorType) (vk.DescriptorType, error) {
	switch t {
	case gfx.DescriptorUniformBuffer:
		return vk.DescriptorTypeUniformBuffer, nil
	case gfx.DescriptorStorageBuffer:
		return vk.DescriptorTypeStorageBuffer, nil
	case gfx.DescriptorCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler, nil
	case gfx.DescriptorSampledImage:
		return vk.DescriptorTypeSampledImage, nil
	case gfx.DescriptorSampler:
		return vk.DescriptorTypeSampler, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "descriptor type %d", t)
}

func vkImageLayout(l gfx.ImageLayout) (vk.ImageLayout, error) {
	switch l {
	case gfx.LayoutUndefined:
		return vk.ImageLayoutUndefined, nil
	case gfx.LayoutTransferSrc:
		return vk.ImageLayoutTransferSrcOptimal, nil
	case gfx.LayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal, nil
	case gfx.LayoutShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal, nil
	case gfx.LayoutColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal, nil
	case gfx.LayoutDepthStencilAttachment:
		return vk.ImageLayoutDepthStencilAttachmentOptimal, nil
	case gfx.LayoutPresentSrc:
		return vk.ImageLayoutPresentSrc, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "image layout %d", l)
}

func vkImageType(t gfx.ImageType) (vk.ImageType, vk.ImageViewType, error) {
	switch t {
	case gfx.ImageType1D:
		return vk.ImageType1d, vk.ImageViewType1d, nil
	case gfx.ImageType2D:
		return vk.ImageType2d, vk.ImageViewType2d, nil
	case gfx.ImageType3D:
		return vk.ImageType3d, vk.ImageViewType3d, nil
	}
	return 0, 0, errors.Wrapf(gfx.ErrInvalidParameters, "image type %d", t)
}

func vkImageTiling(t gfx.ImageTiling) vk.ImageTiling {
	if t == gfx.TilingLinear {
		return vk.ImageTilingLinear
	}
	return vk.ImageTilingOptimal
}

func vkFormatFeature(f gfx.FormatFeature) vk.FormatFeatureFlags {
	var flags vk.FormatFeatureFlagBits
	if f&gfx.FeatureSampledImage != 0 {
		flags |= vk.FormatFeatureSampledImageBit
	}
	if f&gfx.FeatureSampledImageFilterLinear != 0 {
		flags |= vk.FormatFeatureSampledImageFilterLinearBit
	}
	if f&gfx.FeatureColorAttachment != 0 {
		flags |= vk.FormatFeatureColorAttachmentBit
	}
	if f&gfx.FeatureDepthStencilAttachment != 0 {
		flags |= vk.FormatFeatureDepthStencilAttachmentBit
	}
	if f&gfx.FeatureBlitSrc != 0 {
		flags |= vk.FormatFeatureBlitSrcBit
	}
	if f&gfx.FeatureBlitDst != 0 {
		flags |= vk.FormatFeatureBlitDstBit
	}
	return vk.FormatFeatureFlags(flags)
}

func vkBufferUsage(u gfx.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&gfx.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if u&gfx.BufferUsageIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u&gfx.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if u&gfx.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorageBufferBit
	}
	if u&gfx.BufferUsageTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if u&gfx.BufferUsageTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func vkImageUsage(u gfx.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&gfx.ImageUsageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&gfx.ImageUsageTransferSrc != 0 {
		flags |= vk.ImageUsageTransferSrcBit
	}
	if u&gfx.ImageUsageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	if u&gfx.ImageUsageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&gfx.ImageUsageDepthStencilAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	return vk.ImageUsageFlags(flags)
}

func vkSampleCount(s gfx.SampleCount) (vk.SampleCountFlagBits, error) {
	switch s {
	case gfx.Samples1:
		return vk.SampleCount1Bit, nil
	case gfx.Samples2:
		return vk.SampleCount2Bit, nil
	case gfx.Samples4:
		return vk.SampleCount4Bit, nil
	case gfx.Samples8:
		return vk.SampleCount8Bit, nil
	case gfx.Samples16:
		return vk.SampleCount16Bit, nil
	case gfx.Samples32:
		return vk.SampleCount32Bit, nil
	case gfx.Samples64:
		return vk.SampleCount64Bit, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "sample count %d", s)
}

func vkFilter(f gfx.Filter) vk.Filter {
	if f == gfx.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func vkAddressMode(m gfx.AddressMode) (vk.SamplerAddressMode, error) {
	switch m {
	case gfx.AddressRepeat:
		return vk.SamplerAddressModeRepeat, nil
	case gfx.AddressMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat, nil
	case gfx.AddressClampToEdge:
		return vk.SamplerAddressModeClampToEdge, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "address mode %d", m)
}

func vkIndexType(t gfx.IndexType) (vk.IndexType, error) {
	switch t {
	case gfx.IndexUint16:
		return vk.IndexTypeUint16, nil
	case gfx.IndexUint32:
		return vk.IndexTypeUint32, nil
	}
	return 0, errors.Wrapf(gfx.ErrInvalidParameters, "index type %d", t)
}

func vkBindings(bindings []gfx.VertexInputBinding) ([]vk.VertexInputBindingDescription, error) {
	descriptions := make([]vk.VertexInputBindingDescription, 0, len(bindings))
	for _, b := range bindings {
		rate, err := vkVertexInputRate(b.Rate)
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: rate,
		})
	}
	return descriptions, nil
}

func vkAttributes(attributes []gfx.VertexInputAttribute) ([]vk.VertexInputAttributeDescription, error) {
	descriptions := make([]vk.VertexInputAttributeDescription, 0, len(attributes))
	for _, a := range attributes {
		format, err := vkFormat(a.Format)
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   format,
			Offset:   a.Offset,
		})
	}
	return descriptions, nil
}

// sampleCounts lists the supported counts of a native mask, lowest first.
func sampleCounts(mask vk.SampleCountFlags) []gfx.SampleCount {
	var counts []gfx.SampleCount
	for _, s := range []gfx.SampleCount{gfx.Samples1, gfx.Samples2, gfx.Samples4, gfx.Samples8, gfx.Samples16, gfx.Samples32, gfx.Samples64} {
		if mask&vk.SampleCountFlags(s) != 0 {
			counts = append(counts, s)
		}
	}
	return counts
}
