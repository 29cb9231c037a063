// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"image"
	"image/color"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/vkr"
	"github.com/devblok/kvk/model"
)

// scene is a textured, spinning cube.
type scene struct {
	backend gfx.Backend

	vertices   gfx.BufferRef
	indices    gfx.BufferRef
	indexCount uint32

	texture gfx.ImageRef
	view    gfx.ImageViewRef
	sampler gfx.SamplerRef

	setLayout gfx.DescriptorSetLayoutRef
	pool      gfx.DescriptorPoolRef
	set       gfx.DescriptorSetRef

	shaders  []gfx.ShaderRef
	pipeline gfx.PipelineRef

	angle float32
}

func newScene(backend gfx.Backend, shaders shaderSource, colorFormat gfx.Format) (*scene, error) {
	s := &scene{backend: backend}
	steps := []func() error{
		s.makeMesh,
		s.makeTexture,
		s.makeDescriptors,
		func() error { return s.makePipeline(shaders, colorFormat) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

func (s *scene) makeMesh() error {
	mesh := model.Cube()
	vertices, err := model.Vertices(mesh)
	if err != nil {
		return err
	}

	buffers := s.backend.Buffers()
	if s.vertices, err = buffers.MakeBufferWithData(model.Bytes(vertices), gfx.BufferUsageVertex); err != nil {
		return errors.Wrap(err, "vertex buffer")
	}
	if s.indices, err = buffers.MakeBufferWithData(model.Indices(mesh), gfx.BufferUsageIndex); err != nil {
		return errors.Wrap(err, "index buffer")
	}
	s.indexCount = uint32(len(mesh.Indices))
	return nil
}

func checkerboard(size, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 0xe0, G: 0x60, B: 0x20, A: 0xff})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func (s *scene) makeTexture() error {
	data, err := gfx.NewImageData(checkerboard(256, 32), true)
	if err != nil {
		return err
	}

	images := s.backend.Images()
	if s.texture, err = images.MakeTexture(data); err != nil {
		return errors.Wrap(err, "texture")
	}
	if s.view, err = images.MakeImageView(s.texture, gfx.AspectColor); err != nil {
		return err
	}
	s.sampler, err = images.MakeSampler(gfx.SamplerInfo{
		MagFilter:     gfx.FilterLinear,
		MinFilter:     gfx.FilterLinear,
		AddressMode:   gfx.AddressRepeat,
		MaxLod:        float32(data.MipLevels),
		MaxAnisotropy: 16,
	})
	return err
}

func (s *scene) makeDescriptors() (err error) {
	descriptors := s.backend.Descriptors()
	if s.setLayout, err = descriptors.MakeDescriptorSetLayout([]gfx.DescriptorBinding{{
		Binding: 0,
		Type:    gfx.DescriptorCombinedImageSampler,
		Count:   1,
		Stages:  []gfx.ShaderType{gfx.FragmentShaderType},
	}}); err != nil {
		return err
	}
	if s.pool, err = descriptors.MakeDescriptorPool([]gfx.DescriptorPoolSize{
		{Type: gfx.DescriptorCombinedImageSampler, Count: 1},
	}, 1); err != nil {
		return err
	}
	sets, err := descriptors.MakeDescriptorSets(s.pool, s.setLayout, 1)
	if err != nil {
		return err
	}
	s.set = sets[0]
	return descriptors.WriteDescriptorSet(s.set, []gfx.DescriptorWrite{{
		Binding: 0,
		Type:    gfx.DescriptorCombinedImageSampler,
		View:    s.view,
		Sampler: s.sampler,
	}})
}

func (s *scene) makePipeline(source shaderSource, colorFormat gfx.Format) error {
	stages := []gfx.ShaderStage{
		{Type: gfx.VertexShaderType},
		{Type: gfx.FragmentShaderType},
	}
	for idx, name := range []string{"cube.vert.spv", "cube.frag.spv"} {
		code, err := source.ReadAll(name)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		ref, err := s.backend.Shaders().MakeShader(code)
		if err != nil {
			return errors.Wrap(err, name)
		}
		s.shaders = append(s.shaders, ref)
		stages[idx].Shader = ref
	}

	depthFormat, err := s.backend.Device().FindDepthFormat()
	if err != nil {
		return err
	}

	s.pipeline, err = s.backend.Pipelines().MakeGraphicsPipeline(gfx.PipelineInfo{
		Stages:             stages,
		Bindings:           model.VertexBindings(),
		Attributes:         model.VertexAttributes(),
		SetLayouts:         []gfx.DescriptorSetLayoutRef{s.setLayout},
		PushConstantSize:   64,
		PushConstantStages: []gfx.ShaderType{gfx.VertexShaderType},
		ColorFormat:        colorFormat,
		DepthFormat:        depthFormat,
		Samples:            s.backend.Device().SampleCount(),
		CullBack:           true,
	})
	if err != nil {
		return err
	}

	// modules are baked into the pipeline
	for _, ref := range s.shaders {
		s.backend.Shaders().EraseShader(ref)
	}
	s.shaders = nil
	return nil
}

// Update advances the cube rotation.
func (s *scene) Update(delta time.Duration) {
	s.angle += float32(delta.Seconds()) * glm.DegToRad(45)
}

func (s *scene) mvp(extent gfx.Extent2D) glm.Mat4 {
	aspect := float32(extent.Width) / float32(extent.Height)
	projection := glm.Perspective(glm.DegToRad(45), aspect, 0.1, 10)
	// clip space y points down
	projection[5] *= -1
	view := glm.LookAtV(glm.Vec3{2, 2, 2}, glm.Vec3{}, glm.Vec3{0, 1, 0})
	world := glm.HomogRotate3DY(s.angle)
	return projection.Mul4(view).Mul4(world)
}

// Record draws the cube into cmd, rendering has to be begun already.
func (s *scene) Record(cmd gfx.CommandBufferRef, extent gfx.Extent2D) error {
	cmds := s.backend.Commands()
	steps := []func() error{
		func() error { return cmds.BindPipeline(cmd, s.pipeline) },
		func() error {
			return cmds.SetViewport(cmd, gfx.Viewport{
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MaxDepth: 1,
			})
		},
		func() error { return cmds.SetScissor(cmd, gfx.Rect2D{Width: extent.Width, Height: extent.Height}) },
		func() error { return cmds.BindVertexBuffers(cmd, 0, []gfx.BufferRef{s.vertices}, []uint64{0}) },
		func() error { return cmds.BindIndexBuffer(cmd, s.indices, 0, gfx.IndexUint32) },
		func() error { return cmds.BindDescriptorSets(cmd, s.pipeline, 0, []gfx.DescriptorSetRef{s.set}) },
		func() error { return cmds.PushConstants(cmd, s.pipeline, 0, vkr.PushMatrices(s.mvp(extent))) },
		func() error { return cmds.DrawIndexed(cmd, s.indexCount, 1, 0, 0, 0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Release erases everything the scene created. Stale references are ignored.
func (s *scene) Release() {
	for _, ref := range s.shaders {
		s.backend.Shaders().EraseShader(ref)
	}
	s.backend.Pipelines().ErasePipeline(s.pipeline)
	s.backend.Descriptors().EraseDescriptorPool(s.pool)
	s.backend.Descriptors().EraseDescriptorSetLayout(s.setLayout)
	s.backend.Images().EraseSampler(s.sampler)
	s.backend.Images().EraseImageView(s.view)
	s.backend.Images().EraseImage(s.texture)
	s.backend.Buffers().EraseBuffer(s.indices)
	s.backend.Buffers().EraseBuffer(s.vertices)
}
