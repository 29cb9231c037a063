// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
)

// createRenderPass builds the single subpass render pass used both by
// swapchain framebuffers and pipelines, so the two are always compatible.
// Attachments are ordered colour, depth (when depth is defined), then the
// resolve target when samples is above one.
func createRenderPass(s *Session, color, depth gfx.Format, samples gfx.SampleCount) (vk.RenderPass, error) {
	colorFormat, err := vkFormat(color)
	if err != nil {
		return nil, err
	}
	if samples == 0 {
		samples = gfx.Samples1
	}
	sampleBits, err := vkSampleCount(samples)
	if err != nil {
		return nil, err
	}
	multisampled := samples > gfx.Samples1

	colorAttachment := vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        sampleBits,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	if multisampled {
		colorAttachment.StoreOp = vk.AttachmentStoreOpDontCare
		colorAttachment.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	}
	attachments := []vk.AttachmentDescription{colorAttachment}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)

	if depth != gfx.FormatUndefined {
		depthFormat, err := vkFormat(depth)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        sampleBits,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	if multisampled {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		})
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	return s.drv.CreateRenderPass(s.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  stages,
			SrcAccessMask: 0,
			DstStageMask:  stages,
			DstAccessMask: access,
		}},
	})
}
