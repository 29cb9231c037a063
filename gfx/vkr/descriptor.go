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

type descriptorPool struct {
	drv    driver
	device vk.Device
	pool   vk.DescriptorPool

	// remaining capacity, sets first, then descriptors per type
	sets        uint32
	descriptors map[gfx.DescriptorType]uint32
	allocated   []gfx.DescriptorSetRef
}

func (p *descriptorPool) Release() {
	p.drv.DestroyDescriptorPool(p.device, p.pool)
}

type descriptorSetLayout struct {
	drv      driver
	device   vk.Device
	layout   vk.DescriptorSetLayout
	bindings []gfx.DescriptorBinding
}

func (l *descriptorSetLayout) Release() {
	l.drv.DestroyDescriptorSetLayout(l.device, l.layout)
}

// descriptorSet is freed together with its pool.
type descriptorSet struct {
	set      vk.DescriptorSet
	bindings []gfx.DescriptorBinding
}

func (descriptorSet) Release() {}

func (s *descriptorSet) binding(index uint32) (gfx.DescriptorBinding, bool) {
	for _, b := range s.bindings {
		if b.Binding == index {
			return b, true
		}
	}
	return gfx.DescriptorBinding{}, false
}

// DescriptorUnit implements gfx.DescriptorUnit.
type DescriptorUnit struct {
	shared
}

// NewDescriptorUnit creates a descriptor unit over the session.
func NewDescriptorUnit(state *handle.Counted[*Session]) (*DescriptorUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &DescriptorUnit{shared: s}, nil
}

// MakeDescriptorPool implements interface
func (u *DescriptorUnit) MakeDescriptorPool(sizes []gfx.DescriptorPoolSize, maxSets uint32) (gfx.DescriptorPoolRef, error) {
	if maxSets == 0 {
		return gfx.DescriptorPoolRef{}, errors.Wrap(gfx.ErrInvalidParameters, "descriptor pool max sets is zero")
	}
	if len(sizes) == 0 {
		return gfx.DescriptorPoolRef{}, errors.Wrap(gfx.ErrInvalidParameters, "descriptor pool has no sizes")
	}

	descriptors := make(map[gfx.DescriptorType]uint32, len(sizes))
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(sizes))
	for _, size := range sizes {
		if size.Count == 0 {
			return gfx.DescriptorPoolRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "descriptor pool size of type %d is zero", size.Type)
		}
		t, err := vkDescriptorType(size.Type)
		if err != nil {
			return gfx.DescriptorPoolRef{}, err
		}
		descriptors[size.Type] += size.Count
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: size.Count,
		})
	}

	s := u.session()
	pool, err := s.drv.CreateDescriptorPool(s.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	})
	if err != nil {
		return gfx.DescriptorPoolRef{}, err
	}

	return handle.Insert[handle.DescriptorPool](s.storage, &descriptorPool{
		drv:         s.drv,
		device:      s.device,
		pool:        pool,
		sets:        maxSets,
		descriptors: descriptors,
	}), nil
}

// MakeDescriptorSetLayout implements interface
func (u *DescriptorUnit) MakeDescriptorSetLayout(bindings []gfx.DescriptorBinding) (gfx.DescriptorSetLayoutRef, error) {
	seen := make(map[uint32]bool, len(bindings))
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	for _, b := range bindings {
		if seen[b.Binding] {
			return gfx.DescriptorSetLayoutRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "descriptor binding %d declared twice", b.Binding)
		}
		seen[b.Binding] = true
		if b.Count == 0 {
			return gfx.DescriptorSetLayoutRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "descriptor binding %d has zero count", b.Binding)
		}
		if len(b.Stages) == 0 {
			return gfx.DescriptorSetLayoutRef{}, errors.Wrapf(gfx.ErrInvalidParameters, "descriptor binding %d has no stages", b.Binding)
		}
		t, err := vkDescriptorType(b.Type)
		if err != nil {
			return gfx.DescriptorSetLayoutRef{}, err
		}
		stages, err := vkShaderStages(b.Stages)
		if err != nil {
			return gfx.DescriptorSetLayoutRef{}, err
		}
		layoutBindings = append(layoutBindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  t,
			DescriptorCount: b.Count,
			StageFlags:      stages,
		})
	}

	s := u.session()
	layout, err := s.drv.CreateDescriptorSetLayout(s.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	})
	if err != nil {
		return gfx.DescriptorSetLayoutRef{}, err
	}

	return handle.Insert[handle.DescriptorSetLayout](s.storage, &descriptorSetLayout{
		drv:      s.drv,
		device:   s.device,
		layout:   layout,
		bindings: append([]gfx.DescriptorBinding(nil), bindings...),
	}), nil
}

// MakeDescriptorSets implements interface
func (u *DescriptorUnit) MakeDescriptorSets(poolRef gfx.DescriptorPoolRef, layoutRef gfx.DescriptorSetLayoutRef, count uint32) ([]gfx.DescriptorSetRef, error) {
	s := u.session()
	pool, err := handle.Lookup[*descriptorPool](s.storage, poolRef)
	if err != nil {
		return nil, err
	}
	layout, err := handle.Lookup[*descriptorSetLayout](s.storage, layoutRef)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, errors.Wrap(gfx.ErrInvalidParameters, "zero descriptor sets requested")
	}
	if count > pool.sets {
		return nil, errors.Wrapf(gfx.ErrInvalidParameters, "%d descriptor sets requested, pool has %d left", count, pool.sets)
	}
	needed := make(map[gfx.DescriptorType]uint32)
	for _, b := range layout.bindings {
		needed[b.Type] += b.Count * count
	}
	for t, n := range needed {
		if pool.descriptors[t] < n {
			return nil, errors.Wrapf(gfx.ErrInvalidParameters, "%d descriptors of type %d needed, pool has %d left",
				n, t, pool.descriptors[t])
		}
	}

	sets := make([]vk.DescriptorSet, 0, count)
	for i := uint32(0); i < count; i++ {
		set, err := s.drv.AllocateDescriptorSet(s.device, &vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     pool.pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{layout.layout},
		})
		if err != nil {
			// sets already allocated stay with the pool, charge them
			pool.sets -= uint32(len(sets))
			for _, b := range layout.bindings {
				pool.descriptors[b.Type] -= b.Count * uint32(len(sets))
			}
			return nil, err
		}
		sets = append(sets, set)
	}

	pool.sets -= count
	for t, n := range needed {
		pool.descriptors[t] -= n
	}

	refs := make([]gfx.DescriptorSetRef, 0, count)
	for _, set := range sets {
		ref := handle.Insert[handle.DescriptorSet](s.storage, &descriptorSet{set: set, bindings: layout.bindings})
		pool.allocated = append(pool.allocated, ref)
		refs = append(refs, ref)
	}
	return refs, nil
}

// WriteDescriptorSet implements interface
func (u *DescriptorUnit) WriteDescriptorSet(ref gfx.DescriptorSetRef, writes []gfx.DescriptorWrite) error {
	s := u.session()
	set, err := handle.Lookup[*descriptorSet](s.storage, ref)
	if err != nil {
		return err
	}

	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		binding, ok := set.binding(w.Binding)
		if !ok {
			return errors.Wrapf(gfx.ErrInvalidParameters, "descriptor set has no binding %d", w.Binding)
		}
		if binding.Type != w.Type {
			return errors.Wrapf(gfx.ErrInvalidParameters, "binding %d holds type %d, not %d", w.Binding, binding.Type, w.Type)
		}
		t, err := vkDescriptorType(w.Type)
		if err != nil {
			return err
		}

		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set.set,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  t,
		}

		if w.Type.IsBuffer() {
			buffer, err := handle.Lookup[*Buffer](s.storage, w.Buffer)
			if err != nil {
				return err
			}
			rng := w.Range
			if rng == 0 && w.Offset < buffer.size {
				rng = buffer.size - w.Offset
			}
			if rng == 0 || !inRange(w.Offset, rng, buffer.size) {
				return errors.Wrapf(gfx.ErrInvalidParameters, "range %d at %d outside buffer of %d bytes",
					w.Range, w.Offset, buffer.size)
			}
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: buffer.buffer,
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(rng),
			}}
		} else {
			info := vk.DescriptorImageInfo{ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal}
			if w.Type != gfx.DescriptorSampler {
				view, err := handle.Lookup[*imageView](s.storage, w.View)
				if err != nil {
					return err
				}
				info.ImageView = view.view
			}
			if w.Type != gfx.DescriptorSampledImage {
				smp, err := handle.Lookup[*sampler](s.storage, w.Sampler)
				if err != nil {
					return err
				}
				info.Sampler = smp.sampler
			}
			write.PImageInfo = []vk.DescriptorImageInfo{info}
		}
		vkWrites = append(vkWrites, write)
	}

	if len(vkWrites) > 0 {
		s.drv.UpdateDescriptorSets(s.device, vkWrites)
	}
	return nil
}

// EraseDescriptorPool implements interface. Sets allocated from the pool
// stop resolving.
func (u *DescriptorUnit) EraseDescriptorPool(ref gfx.DescriptorPoolRef) {
	s := u.session()
	if pool, err := handle.Lookup[*descriptorPool](s.storage, ref); err == nil {
		for _, set := range pool.allocated {
			handle.Erase(s.storage, set)
		}
	}
	erase(s, ref)
}

// EraseDescriptorSetLayout implements interface
func (u *DescriptorUnit) EraseDescriptorSetLayout(ref gfx.DescriptorSetLayoutRef) {
	erase(u.session(), ref)
}
