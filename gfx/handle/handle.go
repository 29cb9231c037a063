// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package handle implements typed resource references and the storage
// that owns the native objects they point to.
package handle

import (
	"fmt"
)

// Kind identifies a family of native resources.
type Kind uint8

// Resource kinds known to the storage. Clear releases kinds in the order
// they are declared here, so dependants come before their dependencies.
const (
	KindCommandBuffer Kind = iota
	KindDescriptorSet
	KindGraphicsPipeline
	KindDescriptorSetLayout
	KindDescriptorPool
	KindImageView
	KindSampler
	KindImage
	KindBuffer
	KindShader
	KindSwapchain
	KindQueue
	KindSurface

	kindCount
)

var kindNames = [...]string{
	KindCommandBuffer:       "command-buffer",
	KindDescriptorSet:       "descriptor-set",
	KindGraphicsPipeline:    "graphics-pipeline",
	KindDescriptorSetLayout: "descriptor-set-layout",
	KindDescriptorPool:      "descriptor-pool",
	KindImageView:           "image-view",
	KindSampler:             "sampler",
	KindImage:               "image",
	KindBuffer:              "buffer",
	KindShader:              "shader",
	KindSwapchain:           "swapchain",
	KindQueue:               "queue",
	KindSurface:             "surface",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Tag is implemented by the marker types that parameterise Ref.
type Tag interface {
	Kind() Kind
}

// Marker types, one per resource kind. They carry no data.
type (
	Buffer              struct{}
	Image               struct{}
	ImageView           struct{}
	Sampler             struct{}
	Shader              struct{}
	DescriptorPool      struct{}
	DescriptorSetLayout struct{}
	DescriptorSet       struct{}
	GraphicsPipeline    struct{}
	CommandBuffer       struct{}
	Queue               struct{}
	Surface             struct{}
	Swapchain           struct{}
)

func (Buffer) Kind() Kind              { return KindBuffer }
func (Image) Kind() Kind               { return KindImage }
func (ImageView) Kind() Kind           { return KindImageView }
func (Sampler) Kind() Kind             { return KindSampler }
func (Shader) Kind() Kind              { return KindShader }
func (DescriptorPool) Kind() Kind      { return KindDescriptorPool }
func (DescriptorSetLayout) Kind() Kind { return KindDescriptorSetLayout }
func (DescriptorSet) Kind() Kind       { return KindDescriptorSet }
func (GraphicsPipeline) Kind() Kind    { return KindGraphicsPipeline }
func (CommandBuffer) Kind() Kind       { return KindCommandBuffer }
func (Queue) Kind() Kind               { return KindQueue }
func (Surface) Kind() Kind             { return KindSurface }
func (Swapchain) Kind() Kind           { return KindSwapchain }

// Ref is an opaque reference to a resource of kind T held in a Storage.
// The zero value is the null reference.
type Ref[T Tag] struct {
	index      uint32
	generation uint32
}

// Valid reports whether the reference was handed out by a Storage.
// It says nothing about whether the resource is still alive.
func (r Ref[T]) Valid() bool {
	return r.generation != 0
}

// Index returns the slot index of the reference.
func (r Ref[T]) Index() uint32 {
	return r.index
}

// Generation returns the slot generation the reference was created with.
func (r Ref[T]) Generation() uint32 {
	return r.generation
}

// Kind returns the resource kind of the reference.
func (r Ref[T]) Kind() Kind {
	var tag T
	return tag.Kind()
}

func (r Ref[T]) String() string {
	if !r.Valid() {
		return r.Kind().String() + "(null)"
	}
	return fmt.Sprintf("%s(%d@%d)", r.Kind(), r.index, r.generation)
}
