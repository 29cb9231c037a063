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

// Image is an image together with the memory bound to it.
type Image struct {
	drv      driver
	device   vk.Device
	image    vk.Image
	memory   Memory
	format   gfx.Format
	extent   gfx.Extent3D
	levels   uint32
	viewType vk.ImageViewType
	layout   gfx.ImageLayout
}

// Format returns the image format.
func (i *Image) Format() gfx.Format {
	return i.format
}

// Release destroys the image and frees its memory.
func (i *Image) Release() {
	i.drv.DestroyImage(i.device, i.image)
	i.memory.Release()
}

type imageView struct {
	drv    driver
	device vk.Device
	view   vk.ImageView
}

func (v *imageView) Release() {
	v.drv.DestroyImageView(v.device, v.view)
}

type sampler struct {
	drv     driver
	device  vk.Device
	sampler vk.Sampler
}

func (s *sampler) Release() {
	s.drv.DestroySampler(s.device, s.sampler)
}

func validateImageInfo(info gfx.ImageInfo) error {
	if info.Extent.Width == 0 || info.Extent.Height == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "image extent is zero")
	}
	if info.MipLevels == 0 || info.MipLevels > gfx.MaxMipLevels(info.Extent.Width, info.Extent.Height) {
		return errors.Wrapf(gfx.ErrInvalidParameters, "mip levels %d out of range for %dx%d",
			info.MipLevels, info.Extent.Width, info.Extent.Height)
	}
	if info.Usage == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "image usage is empty")
	}
	if info.Format == gfx.FormatUndefined {
		return errors.Wrap(gfx.ErrInvalidParameters, "image format is undefined")
	}
	return nil
}

func createImage(s *Session, info gfx.ImageInfo) (*Image, error) {
	if err := validateImageInfo(info); err != nil {
		return nil, err
	}
	format, err := vkFormat(info.Format)
	if err != nil {
		return nil, err
	}
	imageType, viewType, err := vkImageType(info.Type)
	if err != nil {
		return nil, err
	}
	if info.Samples == 0 {
		info.Samples = gfx.Samples1
	}
	samples, err := vkSampleCount(info.Samples)
	if err != nil {
		return nil, err
	}
	if info.Extent.Depth == 0 {
		info.Extent.Depth = 1
	}

	img, err := s.drv.CreateImage(s.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: imageType,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        vkImageTiling(info.Tiling),
		Usage:         vkImageUsage(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return nil, err
	}

	memory, err := s.allocator.Malloc(s.drv.ImageMemoryRequirements(s.device, img), gfx.MemoryGPUOnly)
	if err != nil {
		s.drv.DestroyImage(s.device, img)
		return nil, err
	}
	if err := s.drv.BindImageMemory(s.device, img, memory.Get(), memory.Offset()); err != nil {
		s.drv.DestroyImage(s.device, img)
		memory.Release()
		return nil, err
	}

	return &Image{
		drv:      s.drv,
		device:   s.device,
		image:    img,
		memory:   memory,
		format:   info.Format,
		extent:   info.Extent,
		levels:   info.MipLevels,
		viewType: viewType,
		layout:   gfx.LayoutUndefined,
	}, nil
}

func createImageView(s *Session, img vk.Image, viewType vk.ImageViewType, format gfx.Format, aspect gfx.ImageAspect, levels uint32) (vk.ImageView, error) {
	vkfmt, err := vkFormat(format)
	if err != nil {
		return nil, err
	}
	return s.drv.CreateImageView(s.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: viewType,
		Format:   vkfmt,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vkImageAspect(aspect),
			BaseMipLevel:   0,
			LevelCount:     levels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
}

type layoutTransition struct {
	srcAccess, dstAccess vk.AccessFlagBits
	srcStage, dstStage   vk.PipelineStageFlagBits
}

var transitions = map[[2]gfx.ImageLayout]layoutTransition{
	{gfx.LayoutUndefined, gfx.LayoutTransferDst}: {
		dstAccess: vk.AccessTransferWriteBit,
		srcStage:  vk.PipelineStageTopOfPipeBit,
		dstStage:  vk.PipelineStageTransferBit,
	},
	{gfx.LayoutTransferDst, gfx.LayoutShaderReadOnly}: {
		srcAccess: vk.AccessTransferWriteBit,
		dstAccess: vk.AccessShaderReadBit,
		srcStage:  vk.PipelineStageTransferBit,
		dstStage:  vk.PipelineStageFragmentShaderBit,
	},
	{gfx.LayoutTransferDst, gfx.LayoutTransferSrc}: {
		srcAccess: vk.AccessTransferWriteBit,
		dstAccess: vk.AccessTransferReadBit,
		srcStage:  vk.PipelineStageTransferBit,
		dstStage:  vk.PipelineStageTransferBit,
	},
	{gfx.LayoutTransferSrc, gfx.LayoutShaderReadOnly}: {
		srcAccess: vk.AccessTransferReadBit,
		dstAccess: vk.AccessShaderReadBit,
		srcStage:  vk.PipelineStageTransferBit,
		dstStage:  vk.PipelineStageFragmentShaderBit,
	},
	{gfx.LayoutUndefined, gfx.LayoutDepthStencilAttachment}: {
		dstAccess: vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit,
		srcStage:  vk.PipelineStageTopOfPipeBit,
		dstStage:  vk.PipelineStageEarlyFragmentTestsBit,
	},
	{gfx.LayoutUndefined, gfx.LayoutColorAttachment}: {
		dstAccess: vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit,
		srcStage:  vk.PipelineStageTopOfPipeBit,
		dstStage:  vk.PipelineStageColorAttachmentOutputBit,
	},
}

// barrier records a layout transition of levels [base, base+count).
func barrier(s *Session, cmd vk.CommandBuffer, img *Image, old, new gfx.ImageLayout, base, count uint32) error {
	t, ok := transitions[[2]gfx.ImageLayout{old, new}]
	if !ok {
		return errors.Wrapf(gfx.ErrInvalidParameters, "unsupported layout transition %d -> %d", old, new)
	}
	oldLayout, err := vkImageLayout(old)
	if err != nil {
		return err
	}
	newLayout, err := vkImageLayout(new)
	if err != nil {
		return err
	}

	s.drv.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(t.srcStage), vk.PipelineStageFlags(t.dstStage),
		[]vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(t.srcAccess),
			DstAccessMask:       vk.AccessFlags(t.dstAccess),
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vkImageAspect(aspectOf(img.format)),
				BaseMipLevel:   base,
				LevelCount:     count,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}})
	return nil
}

func transition(s *Session, img *Image, old, new gfx.ImageLayout) error {
	if _, ok := transitions[[2]gfx.ImageLayout{old, new}]; !ok {
		return errors.Wrapf(gfx.ErrInvalidParameters, "unsupported layout transition %d -> %d", old, new)
	}
	var recordErr error
	if err := s.immediate(func(cmd vk.CommandBuffer) {
		recordErr = barrier(s, cmd, img, old, new, 0, img.levels)
	}); err != nil {
		return err
	}
	if recordErr != nil {
		return recordErr
	}
	img.layout = new
	return nil
}

func generateMips(s *Session, img *Image) error {
	format, err := vkFormat(img.format)
	if err != nil {
		return err
	}
	props := s.drv.FormatProperties(s.physicalDevice, format)
	if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) == 0 {
		return errors.Wrapf(gfx.ErrUnsupportedFormat, "%s does not support linear blitting", img.format)
	}
	if img.layout != gfx.LayoutTransferDst {
		return errors.Wrapf(gfx.ErrInvalidParameters, "image must be in transfer destination layout, not %d", img.layout)
	}

	aspect := vkImageAspect(aspectOf(img.format))
	var recordErr error
	record := func(cmd vk.CommandBuffer) error {
		width, height := int32(img.extent.Width), int32(img.extent.Height)
		for level := uint32(1); level < img.levels; level++ {
			if err := barrier(s, cmd, img, gfx.LayoutTransferDst, gfx.LayoutTransferSrc, level-1, 1); err != nil {
				return err
			}

			nextWidth, nextHeight := width, height
			if nextWidth > 1 {
				nextWidth /= 2
			}
			if nextHeight > 1 {
				nextHeight /= 2
			}
			s.drv.CmdBlitImage(cmd,
				img.image, vk.ImageLayoutTransferSrcOptimal,
				img.image, vk.ImageLayoutTransferDstOptimal,
				vk.ImageBlit{
					SrcSubresource: vk.ImageSubresourceLayers{
						AspectMask: aspect,
						MipLevel:   level - 1,
						LayerCount: 1,
					},
					SrcOffsets: [2]vk.Offset3D{{}, {X: width, Y: height, Z: 1}},
					DstSubresource: vk.ImageSubresourceLayers{
						AspectMask: aspect,
						MipLevel:   level,
						LayerCount: 1,
					},
					DstOffsets: [2]vk.Offset3D{{}, {X: nextWidth, Y: nextHeight, Z: 1}},
				}, vk.FilterLinear)

			if err := barrier(s, cmd, img, gfx.LayoutTransferSrc, gfx.LayoutShaderReadOnly, level-1, 1); err != nil {
				return err
			}
			width, height = nextWidth, nextHeight
		}
		return barrier(s, cmd, img, gfx.LayoutTransferDst, gfx.LayoutShaderReadOnly, img.levels-1, 1)
	}

	if err := s.immediate(func(cmd vk.CommandBuffer) {
		recordErr = record(cmd)
	}); err != nil {
		return err
	}
	if recordErr != nil {
		return recordErr
	}
	img.layout = gfx.LayoutShaderReadOnly
	return nil
}

// ImageUnit implements gfx.ImageUnit.
type ImageUnit struct {
	shared
}

// NewImageUnit creates an image unit over the session.
func NewImageUnit(state *handle.Counted[*Session]) (*ImageUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &ImageUnit{shared: s}, nil
}

// MakeImage implements interface
func (u *ImageUnit) MakeImage(info gfx.ImageInfo) (gfx.ImageRef, error) {
	s := u.session()
	img, err := createImage(s, info)
	if err != nil {
		return gfx.ImageRef{}, err
	}
	ref := handle.Insert[handle.Image](s.storage, img)
	u.logger("image").WithField("ref", ref).Debugf("image %dx%d created", info.Extent.Width, info.Extent.Height)
	return ref, nil
}

// MakeTexture implements interface
func (u *ImageUnit) MakeTexture(data gfx.ImageData) (gfx.ImageRef, error) {
	if err := data.Validate(); err != nil {
		return gfx.ImageRef{}, err
	}

	s := u.session()
	img, err := createImage(s, gfx.ImageInfo{
		Type:      gfx.ImageType2D,
		Format:    gfx.FormatR8G8B8A8Unorm,
		Extent:    gfx.Extent3D{Width: data.Width, Height: data.Height, Depth: 1},
		MipLevels: data.MipLevels,
		Samples:   gfx.Samples1,
		Usage:     gfx.ImageUsageSampled | gfx.ImageUsageTransferDst | gfx.ImageUsageTransferSrc,
		Tiling:    gfx.TilingOptimal,
	})
	if err != nil {
		return gfx.ImageRef{}, err
	}

	staging, err := staged(s, data.Pixels)
	if err != nil {
		img.Release()
		return gfx.ImageRef{}, err
	}
	defer staging.Release()

	var recordErr error
	if err := s.immediate(func(cmd vk.CommandBuffer) {
		if recordErr = barrier(s, cmd, img, gfx.LayoutUndefined, gfx.LayoutTransferDst, 0, img.levels); recordErr != nil {
			return
		}
		s.drv.CmdCopyBufferToImage(cmd, staging.buffer, img.image, vk.ImageLayoutTransferDstOptimal,
			[]vk.BufferImageCopy{{
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					LayerCount: 1,
				},
				ImageExtent: vk.Extent3D{Width: data.Width, Height: data.Height, Depth: 1},
			}})
	}); err != nil {
		img.Release()
		return gfx.ImageRef{}, err
	}
	if recordErr != nil {
		img.Release()
		return gfx.ImageRef{}, recordErr
	}
	img.layout = gfx.LayoutTransferDst

	if img.levels > 1 {
		err = generateMips(s, img)
	} else {
		err = transition(s, img, gfx.LayoutTransferDst, gfx.LayoutShaderReadOnly)
	}
	if err != nil {
		img.Release()
		return gfx.ImageRef{}, err
	}

	ref := handle.Insert[handle.Image](s.storage, img)
	u.logger("image").WithField("ref", ref).Debugf("texture %dx%d with %d levels created",
		data.Width, data.Height, data.MipLevels)
	return ref, nil
}

// MakeImageView implements interface. A zero aspect is derived from the
// image format. The view must be erased before its image.
func (u *ImageUnit) MakeImageView(ref gfx.ImageRef, aspect gfx.ImageAspect) (gfx.ImageViewRef, error) {
	s := u.session()
	img, err := handle.Lookup[*Image](s.storage, ref)
	if err != nil {
		return gfx.ImageViewRef{}, err
	}
	if aspect == 0 {
		aspect = aspectOf(img.format)
	}

	view, err := createImageView(s, img.image, img.viewType, img.format, aspect, img.levels)
	if err != nil {
		return gfx.ImageViewRef{}, err
	}
	return handle.Insert[handle.ImageView](s.storage, &imageView{drv: s.drv, device: s.device, view: view}), nil
}

// MakeSampler implements interface
func (u *ImageUnit) MakeSampler(info gfx.SamplerInfo) (gfx.SamplerRef, error) {
	if info.MaxLod < 0 {
		return gfx.SamplerRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "max lod %f", info.MaxLod)
	}
	if info.MaxAnisotropy < 0 {
		return gfx.SamplerRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "max anisotropy %f", info.MaxAnisotropy)
	}
	addressMode, err := vkAddressMode(info.AddressMode)
	if err != nil {
		return gfx.SamplerRef{}, err
	}

	anisotropy := vk.Bool32(vk.False)
	if info.MaxAnisotropy > 1 {
		anisotropy = vk.True
	}

	s := u.session()
	smp, err := s.drv.CreateSampler(s.device, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vkFilter(info.MagFilter),
		MinFilter:               vkFilter(info.MinFilter),
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		AnisotropyEnable:        anisotropy,
		MaxAnisotropy:           info.MaxAnisotropy,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MinLod:                  0,
		MaxLod:                  info.MaxLod,
	})
	if err != nil {
		return gfx.SamplerRef{}, err
	}
	return handle.Insert[handle.Sampler](s.storage, &sampler{drv: s.drv, device: s.device, sampler: smp}), nil
}

// TransitionImageLayout implements interface
func (u *ImageUnit) TransitionImageLayout(ref gfx.ImageRef, oldLayout, newLayout gfx.ImageLayout) error {
	s := u.session()
	img, err := handle.Lookup[*Image](s.storage, ref)
	if err != nil {
		return err
	}
	return transition(s, img, oldLayout, newLayout)
}

// GenerateMipLevels implements interface. The image has to be in the
// transfer destination layout; every level ends up shader readable.
func (u *ImageUnit) GenerateMipLevels(ref gfx.ImageRef) error {
	s := u.session()
	img, err := handle.Lookup[*Image](s.storage, ref)
	if err != nil {
		return err
	}
	return generateMips(s, img)
}

// EraseImage implements interface
func (u *ImageUnit) EraseImage(ref gfx.ImageRef) {
	erase(u.session(), ref)
}

// EraseImageView implements interface
func (u *ImageUnit) EraseImageView(ref gfx.ImageViewRef) {
	erase(u.session(), ref)
}

// EraseSampler implements interface
func (u *ImageUnit) EraseSampler(ref gfx.SamplerRef) {
	erase(u.session(), ref)
}
