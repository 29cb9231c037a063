// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// MaxPushConstantSize is the push constant range every device guarantees.
const MaxPushConstantSize = 128

type pipeline struct {
	drv        driver
	device     vk.Device
	pipeline   vk.Pipeline
	layout     vk.PipelineLayout
	renderPass vk.RenderPass
	pushStages vk.ShaderStageFlags
	pushSize   uint32
}

func (p *pipeline) Release() {
	p.drv.DestroyPipeline(p.device, p.pipeline)
	p.drv.DestroyPipelineLayout(p.device, p.layout)
	p.drv.DestroyRenderPass(p.device, p.renderPass)
}

func validatePipelineInfo(info gfx.PipelineInfo) error {
	if len(info.Stages) == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "pipeline has no shader stages")
	}
	var vertexStages int
	for _, stage := range info.Stages {
		if stage.Type == gfx.VertexShaderType {
			vertexStages++
		}
	}
	if vertexStages != 1 {
		return errors.Wrapf(gfx.ErrInvalidParameters, "pipeline has %d vertex stages", vertexStages)
	}

	bindings := make(map[uint32]bool, len(info.Bindings))
	for _, b := range info.Bindings {
		if bindings[b.Binding] {
			return errors.Wrapf(gfx.ErrInvalidParameters, "vertex binding %d declared twice", b.Binding)
		}
		bindings[b.Binding] = true
	}

	locations := make(map[uint32]bool, len(info.Attributes))
	for _, a := range info.Attributes {
		if locations[a.Location] {
			return errors.Wrapf(gfx.ErrInvalidParameters, "vertex attribute location %d declared twice", a.Location)
		}
		locations[a.Location] = true
		if !bindings[a.Binding] {
			return errors.Wrapf(gfx.ErrInvalidParameters, "vertex attribute %d reads undeclared binding %d", a.Location, a.Binding)
		}
	}

	if info.PushConstantSize%4 != 0 || info.PushConstantSize > MaxPushConstantSize {
		return errors.Wrapf(gfx.ErrInvalidParameters, "push constant size %d", info.PushConstantSize)
	}
	if info.PushConstantSize > 0 && len(info.PushConstantStages) == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "push constants without stages")
	}
	if info.ColorFormat == gfx.FormatUndefined {
		return errors.Wrap(gfx.ErrInvalidParameters, "pipeline colour format is undefined")
	}
	if info.DepthFormat != gfx.FormatUndefined && !info.DepthFormat.IsDepth() {
		return errors.Wrapf(gfx.ErrInvalidParameters, "%s is not a depth format", info.DepthFormat)
	}
	return nil
}

// PipelineUnit implements gfx.PipelineUnit.
type PipelineUnit struct {
	shared
}

// NewPipelineUnit creates a pipeline unit over the session.
func NewPipelineUnit(state *handle.Counted[*Session]) (*PipelineUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &PipelineUnit{shared: s}, nil
}

// MakeGraphicsPipeline implements interface. A zero sample count uses the
// session's.
func (u *PipelineUnit) MakeGraphicsPipeline(info gfx.PipelineInfo) (gfx.PipelineRef, error) {
	if err := validatePipelineInfo(info); err != nil {
		return gfx.PipelineRef{}, err
	}
	s := u.session()
	if info.Samples == 0 {
		info.Samples = s.samples
	}
	samples, err := vkSampleCount(info.Samples)
	if err != nil {
		return gfx.PipelineRef{}, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(info.Stages))
	for _, stage := range info.Stages {
		module, err := handle.Lookup[*shaderModule](s.storage, stage.Shader)
		if err != nil {
			return gfx.PipelineRef{}, err
		}
		bit, err := vkShaderStage(stage.Type)
		if err != nil {
			return gfx.PipelineRef{}, err
		}
		entry := stage.Entry
		if entry == "" {
			entry = "main"
		}
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  bit,
			Module: module.module,
			PName:  core.SafeString(entry),
		})
	}

	setLayouts := make([]vk.DescriptorSetLayout, 0, len(info.SetLayouts))
	for _, ref := range info.SetLayouts {
		layout, err := handle.Lookup[*descriptorSetLayout](s.storage, ref)
		if err != nil {
			return gfx.PipelineRef{}, err
		}
		setLayouts = append(setLayouts, layout.layout)
	}

	bindings, err := vkBindings(info.Bindings)
	if err != nil {
		return gfx.PipelineRef{}, err
	}
	attributes, err := vkAttributes(info.Attributes)
	if err != nil {
		return gfx.PipelineRef{}, err
	}
	pushStages, err := vkShaderStages(info.PushConstantStages)
	if err != nil {
		return gfx.PipelineRef{}, err
	}

	var pushRanges []vk.PushConstantRange
	if info.PushConstantSize > 0 {
		pushRanges = []vk.PushConstantRange{{
			StageFlags: pushStages,
			Offset:     0,
			Size:       info.PushConstantSize,
		}}
	}

	renderPass, err := createRenderPass(s, info.ColorFormat, info.DepthFormat, info.Samples)
	if err != nil {
		return gfx.PipelineRef{}, err
	}

	layout, err := s.drv.CreatePipelineLayout(s.device, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushRanges)),
		PPushConstantRanges:    pushRanges,
	})
	if err != nil {
		s.drv.DestroyRenderPass(s.device, renderPass)
		return gfx.PipelineRef{}, err
	}

	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if info.CullBack {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}

	var depthState *vk.PipelineDepthStencilStateCreateInfo
	if info.DepthFormat != gfx.FormatUndefined {
		depthState = &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.True,
			DepthWriteEnable:      vk.True,
			DepthCompareOp:        vk.CompareOpLessOrEqual,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		}
	}

	native, err := s.drv.CreateGraphicsPipeline(s.device, &vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    cullMode,
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: depthState,
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: samples,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:     layout,
		RenderPass: renderPass,
	})
	if err != nil {
		s.drv.DestroyPipelineLayout(s.device, layout)
		s.drv.DestroyRenderPass(s.device, renderPass)
		return gfx.PipelineRef{}, err
	}

	ref := handle.Insert[handle.GraphicsPipeline](s.storage, &pipeline{
		drv:        s.drv,
		device:     s.device,
		pipeline:   native,
		layout:     layout,
		renderPass: renderPass,
		pushStages: pushStages,
		pushSize:   info.PushConstantSize,
	})
	u.logger("pipeline").WithField("ref", ref).Debug("graphics pipeline created")
	return ref, nil
}

// ErasePipeline implements interface
func (u *PipelineUnit) ErasePipeline(ref gfx.PipelineRef) {
	erase(u.session(), ref)
}
