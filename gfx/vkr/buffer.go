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

// Buffer is a buffer together with the memory bound to it.
type Buffer struct {
	drv    driver
	device vk.Device
	size   uint64
	buffer vk.Buffer
	memory Memory
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Release destroys the buffer and frees its memory.
func (b *Buffer) Release() {
	b.drv.DestroyBuffer(b.device, b.buffer)
	b.memory.Release()
}

func createBuffer(s *Session, size uint64, usage vk.BufferUsageFlags, memUsage gfx.MemoryUsage) (*Buffer, error) {
	buffer, err := s.drv.CreateBuffer(s.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}

	memory, err := s.allocator.Malloc(s.drv.BufferMemoryRequirements(s.device, buffer), memUsage)
	if err != nil {
		s.drv.DestroyBuffer(s.device, buffer)
		return nil, err
	}

	if err := s.drv.BindBufferMemory(s.device, buffer, memory.Get(), memory.Offset()); err != nil {
		s.drv.DestroyBuffer(s.device, buffer)
		memory.Release()
		return nil, err
	}

	return &Buffer{
		drv:    s.drv,
		device: s.device,
		size:   size,
		buffer: buffer,
		memory: memory,
	}, nil
}

// staged creates a host visible buffer holding data, for transfers.
func staged(s *Session, data []byte) (*Buffer, error) {
	staging, err := createBuffer(s, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), gfx.MemoryCPUToGPU)
	if err != nil {
		return nil, err
	}
	if err := staging.memory.Write(0, data); err != nil {
		staging.Release()
		return nil, err
	}
	return staging, nil
}

// BufferUnit implements gfx.BufferUnit.
type BufferUnit struct {
	shared
}

// NewBufferUnit creates a buffer unit over the session.
func NewBufferUnit(state *handle.Counted[*Session]) (*BufferUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &BufferUnit{shared: s}, nil
}

// MakeBuffer implements interface
func (u *BufferUnit) MakeBuffer(info gfx.BufferInfo) (gfx.BufferRef, error) {
	if info.Size == 0 {
		return gfx.BufferRef{}, errors.Wrap(gfx.ErrInvalidParameters, "buffer size is zero")
	}
	if info.Usage == 0 {
		return gfx.BufferRef{}, errors.Wrap(gfx.ErrInvalidParameters, "buffer usage is empty")
	}

	s := u.session()
	buffer, err := createBuffer(s, info.Size, vkBufferUsage(info.Usage), info.Memory)
	if err != nil {
		return gfx.BufferRef{}, err
	}

	ref := handle.Insert[handle.Buffer](s.storage, buffer)
	u.logger("buffer").WithField("ref", ref).Debugf("buffer of %d bytes created", info.Size)
	return ref, nil
}

// MakeBufferWithData implements interface
func (u *BufferUnit) MakeBufferWithData(data []byte, usage gfx.BufferUsage) (gfx.BufferRef, error) {
	if len(data) == 0 {
		return gfx.BufferRef{}, errors.Wrap(gfx.ErrInvalidParameters, "no data")
	}
	if usage == 0 {
		return gfx.BufferRef{}, errors.Wrap(gfx.ErrInvalidParameters, "buffer usage is empty")
	}

	s := u.session()
	staging, err := staged(s, data)
	if err != nil {
		return gfx.BufferRef{}, err
	}
	defer staging.Release()

	buffer, err := createBuffer(s, uint64(len(data)),
		vkBufferUsage(usage|gfx.BufferUsageTransferDst), gfx.MemoryGPUOnly)
	if err != nil {
		return gfx.BufferRef{}, err
	}

	if err := s.immediate(func(cmd vk.CommandBuffer) {
		s.drv.CmdCopyBuffer(cmd, staging.buffer, buffer.buffer, []vk.BufferCopy{{
			Size: vk.DeviceSize(len(data)),
		}})
	}); err != nil {
		buffer.Release()
		return gfx.BufferRef{}, err
	}

	ref := handle.Insert[handle.Buffer](s.storage, buffer)
	u.logger("buffer").WithField("ref", ref).Debugf("buffer of %d bytes uploaded", len(data))
	return ref, nil
}

// UpdateBuffer implements interface
func (u *BufferUnit) UpdateBuffer(ref gfx.BufferRef, offset uint64, data []byte) error {
	buffer, err := handle.Lookup[*Buffer](u.storage(), ref)
	if err != nil {
		return err
	}
	if !inRange(offset, uint64(len(data)), buffer.size) {
		return errors.Wrapf(gfx.ErrInvalidParameters, "update of %d bytes at %d overflows %s of %d bytes",
			len(data), offset, ref, buffer.size)
	}
	return buffer.memory.Write(offset, data)
}

// EraseBuffer implements interface
func (u *BufferUnit) EraseBuffer(ref gfx.BufferRef) {
	erase(u.session(), ref)
}
