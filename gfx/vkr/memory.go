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

// Memory defines a usable memory region.
type Memory struct {
	drv         driver
	hostVisible bool
	len, offset uint64
	device      vk.Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint64 {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint64 {
	return m.offset
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// HostVisible tells whether the memory can be written from the host.
func (m *Memory) HostVisible() bool {
	return m.hostVisible
}

// Write copies data into the memory region at offset.
func (m *Memory) Write(offset uint64, data []byte) error {
	if !m.hostVisible {
		return errors.Wrap(gfx.ErrInvalidParameters, "memory is not host visible")
	}
	if !inRange(offset, uint64(len(data)), m.len) {
		return errors.Wrapf(gfx.ErrInvalidParameters, "write of %d bytes at %d overflows %d bytes of memory",
			len(data), offset, m.len)
	}
	if len(data) == 0 {
		return nil
	}
	return m.drv.WriteMemory(m.device, m.memory, m.offset+offset, data)
}

// Release frees the memory.
func (m *Memory) Release() {
	m.drv.FreeMemory(m.device, m.memory)
}

func newMemoryAllocator(drv driver, device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	return &MemoryAllocator{
		drv:           drv,
		device:        device,
		memProperties: drv.PhysicalDeviceMemoryProperties(phyDevice),
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	drv           driver
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, usage gfx.MemoryUsage) (Memory, error) {
	prop := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if usage == gfx.MemoryCPUToGPU {
		prop = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}

	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, prop)
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	memory, err := ma.drv.AllocateMemory(ma.device, &mai)
	if err != nil {
		return Memory{}, err
	}

	return Memory{
		drv:         ma.drv,
		hostVisible: usage == gfx.MemoryCPUToGPU,
		offset:      0,
		len:         uint64(req.Size),
		device:      ma.device,
		memory:      memory,
	}, nil
}

func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errors.Wrapf(gfx.ErrNativeFailure, "suitable memory type not found for filter %b", filter)
}
