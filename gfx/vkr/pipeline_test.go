// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

func pipelineInfo(c *qt.C, f *fixture) gfx.PipelineInfo {
	vertex, err := f.backend.Shaders().MakeShader(spirv())
	c.Assert(err, qt.IsNil)
	fragment, err := f.backend.Shaders().MakeShader(spirv())
	c.Assert(err, qt.IsNil)

	return gfx.PipelineInfo{
		Stages: []gfx.ShaderStage{
			{Shader: vertex, Type: gfx.VertexShaderType},
			{Shader: fragment, Type: gfx.FragmentShaderType},
		},
		Bindings: []gfx.VertexInputBinding{{Binding: 0, Stride: 32}},
		Attributes: []gfx.VertexInputAttribute{
			{Location: 0, Binding: 0, Format: gfx.FormatR32G32B32Sfloat},
			{Location: 1, Binding: 0, Format: gfx.FormatR32G32B32Sfloat, Offset: 12},
			{Location: 2, Binding: 0, Format: gfx.FormatR32G32Sfloat, Offset: 24},
		},
		PushConstantSize:   64,
		PushConstantStages: []gfx.ShaderType{gfx.VertexShaderType},
		ColorFormat:        gfx.FormatB8G8R8A8Unorm,
		DepthFormat:        gfx.FormatD32Sfloat,
		CullBack:           true,
	}
}

func TestPipelineValidation(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	valid := pipelineInfo(c, f)

	tests := []struct {
		about  string
		mutate func(info *gfx.PipelineInfo)
	}{{
		about:  "no stages",
		mutate: func(info *gfx.PipelineInfo) { info.Stages = nil },
	}, {
		about:  "no vertex stage",
		mutate: func(info *gfx.PipelineInfo) { info.Stages = info.Stages[1:] },
	}, {
		about: "two vertex stages",
		mutate: func(info *gfx.PipelineInfo) {
			info.Stages = append(info.Stages, info.Stages[0])
		},
	}, {
		about: "duplicate binding",
		mutate: func(info *gfx.PipelineInfo) {
			info.Bindings = append(info.Bindings, info.Bindings[0])
		},
	}, {
		about: "duplicate location",
		mutate: func(info *gfx.PipelineInfo) {
			info.Attributes = append(info.Attributes, info.Attributes[0])
		},
	}, {
		about: "undeclared binding",
		mutate: func(info *gfx.PipelineInfo) {
			info.Attributes = append(info.Attributes, gfx.VertexInputAttribute{Location: 7, Binding: 3, Format: gfx.FormatR32G32Sfloat})
		},
	}, {
		about:  "unaligned push constants",
		mutate: func(info *gfx.PipelineInfo) { info.PushConstantSize = 30 },
	}, {
		about:  "oversized push constants",
		mutate: func(info *gfx.PipelineInfo) { info.PushConstantSize = MaxPushConstantSize + 4 },
	}, {
		about:  "push constants without stages",
		mutate: func(info *gfx.PipelineInfo) { info.PushConstantStages = nil },
	}, {
		about:  "undefined colour format",
		mutate: func(info *gfx.PipelineInfo) { info.ColorFormat = gfx.FormatUndefined },
	}, {
		about:  "colour format as depth",
		mutate: func(info *gfx.PipelineInfo) { info.DepthFormat = gfx.FormatR8G8B8A8Unorm },
	}}

	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			info := valid
			info.Stages = append([]gfx.ShaderStage(nil), valid.Stages...)
			info.Bindings = append([]gfx.VertexInputBinding(nil), valid.Bindings...)
			info.Attributes = append([]gfx.VertexInputAttribute(nil), valid.Attributes...)
			test.mutate(&info)

			_, err := f.backend.Pipelines().MakeGraphicsPipeline(info)
			c.Assert(err, qt.ErrorIs, gfx.ErrInvalidParameters)
		})
	}
	c.Assert(f.drv.calls["CreateRenderPass"], qt.Equals, 0)
	c.Assert(f.drv.calls["CreatePipelineLayout"], qt.Equals, 0)
	c.Assert(f.drv.calls["CreateGraphicsPipeline"], qt.Equals, 0)
}

func TestMakeGraphicsPipeline(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	info := pipelineInfo(c, f)

	layout, err := f.backend.Descriptors().MakeDescriptorSetLayout([]gfx.DescriptorBinding{uniformBinding})
	c.Assert(err, qt.IsNil)
	info.SetLayouts = []gfx.DescriptorSetLayoutRef{layout}

	ref, err := f.backend.Pipelines().MakeGraphicsPipeline(info)
	c.Assert(err, qt.IsNil)
	c.Assert(f.storage().LenKind(handle.KindGraphicsPipeline), qt.Equals, 1)

	p, err := handle.Lookup[*pipeline](f.storage(), ref)
	c.Assert(err, qt.IsNil)
	c.Assert(p.pushSize, qt.Equals, uint32(64))

	// shader modules may go once the pipeline exists
	f.backend.Shaders().EraseShader(info.Stages[0].Shader)
	c.Assert(handle.Contains(f.storage(), ref), qt.IsTrue)

	f.backend.Pipelines().ErasePipeline(ref)
	c.Assert(f.drv.calls["DestroyPipeline"], qt.Equals, 1)
	c.Assert(f.drv.calls["DestroyPipelineLayout"], qt.Equals, 1)
	c.Assert(f.drv.calls["DestroyRenderPass"], qt.Equals, 1)
}

func TestMakeGraphicsPipelineStaleShader(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	info := pipelineInfo(c, f)

	f.backend.Shaders().EraseShader(info.Stages[1].Shader)
	_, err := f.backend.Pipelines().MakeGraphicsPipeline(info)
	c.Assert(err, qt.ErrorIs, gfx.ErrInvalidReference)
	c.Assert(f.drv.calls["CreateGraphicsPipeline"], qt.Equals, 0)
}

func TestPushConstants(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	cmds := f.backend.Commands()

	ref, err := f.backend.Pipelines().MakeGraphicsPipeline(pipelineInfo(c, f))
	c.Assert(err, qt.IsNil)
	refs, err := cmds.MakeCommandBuffers(1, gfx.CommandBufferReusable)
	c.Assert(err, qt.IsNil)
	c.Assert(cmds.BeginCommandBuffer(refs[0]), qt.IsNil)
	c.Assert(cmds.BindPipeline(refs[0], ref), qt.IsNil)

	data := PushMatrices(glm.Ident4())
	c.Assert(cmds.PushConstants(refs[0], ref, 0, data), qt.IsNil)
	c.Assert(cmds.PushConstants(refs[0], ref, 4, data), qt.ErrorIs, gfx.ErrInvalidParameters)
	c.Assert(cmds.PushConstants(refs[0], ref, 0, data[:6]), qt.ErrorIs, gfx.ErrInvalidParameters)
	c.Assert(cmds.PushConstants(refs[0], ref, 0, PushMatrices(glm.Ident4(), glm.Ident4())), qt.ErrorIs, gfx.ErrInvalidParameters)
	// offset + size wraps around uint32
	c.Assert(cmds.PushConstants(refs[0], ref, 0xFFFFFFFC, data[:4]), qt.ErrorIs, gfx.ErrInvalidParameters)
	c.Assert(cmds.PushConstants(refs[0], ref, 64, data[:4]), qt.ErrorIs, gfx.ErrInvalidParameters)
	c.Assert(cmds.PushConstants(refs[0], ref, 60, data[:4]), qt.IsNil)
	c.Assert(f.drv.calls["CmdPushConstants"], qt.Equals, 2)
}

func TestPushMatrices(t *testing.T) {
	c := qt.New(t)

	data := PushMatrices(glm.Ident4(), glm.Translate3D(1, 2, 3))
	c.Assert(data, qt.HasLen, 128)
	// identity column major, first element 1.0
	c.Assert(data[0:4], qt.DeepEquals, []byte{0x00, 0x00, 0x80, 0x3f})
	c.Assert(data[4:8], qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x00})
	// translation x sits in the fourth column
	c.Assert(data[64+48:64+52], qt.DeepEquals, []byte{0x00, 0x00, 0x80, 0x3f})

	vec := PushVec4(glm.Vec4{0, 0, 0, 2})
	c.Assert(vec, qt.HasLen, 16)
	c.Assert(vec[12:], qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x40})
}
