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

type commandBuffer struct {
	drv    driver
	device vk.Device
	pool   vk.CommandPool
	cmd    vk.CommandBuffer
	fence  vk.Fence
	usage  gfx.CommandBufferUsage
	state  gfx.CommandBufferState
	last   *submission
}

func (c *commandBuffer) Release() {
	c.drv.DestroyFence(c.device, c.fence)
	c.drv.FreeCommandBuffers(c.device, c.pool, []vk.CommandBuffer{c.cmd})
}

// recording resolves a command buffer that is being recorded.
func recording(s *Session, ref gfx.CommandBufferRef) (*commandBuffer, error) {
	cb, err := handle.Lookup[*commandBuffer](s.storage, ref)
	if err != nil {
		return nil, err
	}
	if cb.state != gfx.CommandBufferRecording {
		return nil, errors.Wrapf(gfx.ErrNotRecording, "%s is %s", ref, cb.state)
	}
	return cb, nil
}

// submit hands a recorded command buffer to the queue. One-time buffers
// retire and leave storage once their fence signals.
func submit(s *Session, ref gfx.CommandBufferRef, cb *commandBuffer, info vk.SubmitInfo) error {
	if cb.state != gfx.CommandBufferRecorded {
		return errors.Wrapf(gfx.ErrInvalidParameters, "cannot submit %s while %s", ref, cb.state)
	}

	if err := s.drv.ResetFence(s.device, cb.fence); err != nil {
		return err
	}
	info.SType = vk.StructureTypeSubmitInfo
	info.CommandBufferCount = 1
	info.PCommandBuffers = []vk.CommandBuffer{cb.cmd}
	if err := s.drv.QueueSubmit(s.queue, []vk.SubmitInfo{info}, cb.fence); err != nil {
		return err
	}

	var done func()
	if cb.usage == gfx.CommandBufferOneTime {
		cb.state = gfx.CommandBufferRetired
		done = func() {
			handle.Erase(s.storage, ref)
		}
	} else {
		cb.state = gfx.CommandBufferSubmitted
	}
	cb.last = s.track(cb.fence, done)
	return nil
}

// CommandUnit implements gfx.CommandUnit.
type CommandUnit struct {
	shared
}

// NewCommandUnit creates a command unit over the session.
func NewCommandUnit(state *handle.Counted[*Session]) (*CommandUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &CommandUnit{shared: s}, nil
}

// MakeCommandBuffers implements interface
func (u *CommandUnit) MakeCommandBuffers(count uint32, usage gfx.CommandBufferUsage) ([]gfx.CommandBufferRef, error) {
	if count == 0 {
		return nil, errors.Wrap(gfx.ErrInvalidParameters, "zero command buffers requested")
	}
	if usage != gfx.CommandBufferReusable && usage != gfx.CommandBufferOneTime {
		return nil, errors.Wrapf(gfx.ErrInvalidParameters, "command buffer usage %d", usage)
	}

	s := u.session()
	cmds, err := s.drv.AllocateCommandBuffers(s.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        s.pool,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	fences := make([]vk.Fence, 0, len(cmds))
	for range cmds {
		fence, err := s.drv.CreateFence(s.device, false)
		if err != nil {
			for _, f := range fences {
				s.drv.DestroyFence(s.device, f)
			}
			s.drv.FreeCommandBuffers(s.device, s.pool, cmds)
			return nil, err
		}
		fences = append(fences, fence)
	}

	refs := make([]gfx.CommandBufferRef, 0, len(cmds))
	for i, cmd := range cmds {
		refs = append(refs, handle.Insert[handle.CommandBuffer](s.storage, &commandBuffer{
			drv:    s.drv,
			device: s.device,
			pool:   s.pool,
			cmd:    cmd,
			fence:  fences[i],
			usage:  usage,
			state:  gfx.CommandBufferUnrecorded,
		}))
	}
	return refs, nil
}

// BeginCommandBuffer implements interface. A reusable buffer that was
// submitted is reset first, after its previous submission completes.
func (u *CommandUnit) BeginCommandBuffer(ref gfx.CommandBufferRef) error {
	s := u.session()
	cb, err := handle.Lookup[*commandBuffer](s.storage, ref)
	if err != nil {
		return err
	}

	if cb.state == gfx.CommandBufferSubmitted && cb.usage == gfx.CommandBufferReusable {
		if !cb.last.completed {
			if err := s.drv.WaitForFence(s.device, cb.fence); err != nil {
				return err
			}
		}
		if err := s.Collect(); err != nil {
			return err
		}
		if err := s.drv.ResetCommandBuffer(cb.cmd); err != nil {
			return err
		}
		cb.state = gfx.CommandBufferUnrecorded
	}
	if cb.state != gfx.CommandBufferUnrecorded {
		return errors.Wrapf(gfx.ErrAlreadyRecording, "%s is %s", ref, cb.state)
	}

	var flags vk.CommandBufferUsageFlagBits
	if cb.usage == gfx.CommandBufferOneTime {
		flags = vk.CommandBufferUsageOneTimeSubmitBit
	}
	if err := s.drv.BeginCommandBuffer(cb.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(flags),
	}); err != nil {
		return err
	}
	cb.state = gfx.CommandBufferRecording
	return nil
}

// EndCommandBuffer implements interface
func (u *CommandUnit) EndCommandBuffer(ref gfx.CommandBufferRef) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	if err := s.drv.EndCommandBuffer(cb.cmd); err != nil {
		return err
	}
	cb.state = gfx.CommandBufferRecorded
	return nil
}

// SubmitCommandBuffer implements interface
func (u *CommandUnit) SubmitCommandBuffer(ref gfx.CommandBufferRef) error {
	s := u.session()
	cb, err := handle.Lookup[*commandBuffer](s.storage, ref)
	if err != nil {
		return err
	}
	if err := s.Collect(); err != nil {
		return err
	}
	return submit(s, ref, cb, vk.SubmitInfo{})
}

// SubmitAndWait implements interface
func (u *CommandUnit) SubmitAndWait(ref gfx.CommandBufferRef) error {
	s := u.session()
	cb, err := handle.Lookup[*commandBuffer](s.storage, ref)
	if err != nil {
		return err
	}
	if err := submit(s, ref, cb, vk.SubmitInfo{}); err != nil {
		return err
	}
	if err := s.drv.WaitForFence(s.device, cb.fence); err != nil {
		return err
	}
	return s.Collect()
}

// State implements interface
func (u *CommandUnit) State(ref gfx.CommandBufferRef) (gfx.CommandBufferState, error) {
	cb, err := handle.Lookup[*commandBuffer](u.storage(), ref)
	if err != nil {
		return 0, err
	}
	return cb.state, nil
}

// EraseCommandBuffer implements interface
func (u *CommandUnit) EraseCommandBuffer(ref gfx.CommandBufferRef) {
	erase(u.session(), ref)
}

// BindPipeline implements interface
func (u *CommandUnit) BindPipeline(ref gfx.CommandBufferRef, pipelineRef gfx.PipelineRef) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	p, err := handle.Lookup[*pipeline](s.storage, pipelineRef)
	if err != nil {
		return err
	}
	s.drv.CmdBindPipeline(cb.cmd, p.pipeline)
	return nil
}

// BindVertexBuffers implements interface. Nil offsets bind every buffer
// from its start.
func (u *CommandUnit) BindVertexBuffers(ref gfx.CommandBufferRef, first uint32, buffers []gfx.BufferRef, offsets []uint64) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	if len(buffers) == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "no vertex buffers")
	}
	if offsets != nil && len(offsets) != len(buffers) {
		return errors.Wrapf(gfx.ErrInvalidParameters, "%d offsets for %d vertex buffers", len(offsets), len(buffers))
	}

	natives := make([]vk.Buffer, len(buffers))
	vkOffsets := make([]vk.DeviceSize, len(buffers))
	for i, bufRef := range buffers {
		buffer, err := handle.Lookup[*Buffer](s.storage, bufRef)
		if err != nil {
			return err
		}
		natives[i] = buffer.buffer
		if offsets != nil {
			vkOffsets[i] = vk.DeviceSize(offsets[i])
		}
	}
	s.drv.CmdBindVertexBuffers(cb.cmd, first, natives, vkOffsets)
	return nil
}

// BindIndexBuffer implements interface
func (u *CommandUnit) BindIndexBuffer(ref gfx.CommandBufferRef, bufRef gfx.BufferRef, offset uint64, indexType gfx.IndexType) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	buffer, err := handle.Lookup[*Buffer](s.storage, bufRef)
	if err != nil {
		return err
	}
	t, err := vkIndexType(indexType)
	if err != nil {
		return err
	}
	if offset >= buffer.size {
		return errors.Wrapf(gfx.ErrInvalidParameters, "index offset %d outside buffer of %d bytes", offset, buffer.size)
	}
	s.drv.CmdBindIndexBuffer(cb.cmd, buffer.buffer, offset, t)
	return nil
}

// BindDescriptorSets implements interface
func (u *CommandUnit) BindDescriptorSets(ref gfx.CommandBufferRef, pipelineRef gfx.PipelineRef, first uint32, sets []gfx.DescriptorSetRef) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	p, err := handle.Lookup[*pipeline](s.storage, pipelineRef)
	if err != nil {
		return err
	}
	natives := make([]vk.DescriptorSet, 0, len(sets))
	for _, setRef := range sets {
		set, err := handle.Lookup[*descriptorSet](s.storage, setRef)
		if err != nil {
			return err
		}
		natives = append(natives, set.set)
	}
	if len(natives) == 0 {
		return errors.Wrap(gfx.ErrInvalidParameters, "no descriptor sets")
	}
	s.drv.CmdBindDescriptorSets(cb.cmd, p.layout, first, natives)
	return nil
}

// PushConstants implements interface
func (u *CommandUnit) PushConstants(ref gfx.CommandBufferRef, pipelineRef gfx.PipelineRef, offset uint32, data []byte) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	p, err := handle.Lookup[*pipeline](s.storage, pipelineRef)
	if err != nil {
		return err
	}
	if len(data) == 0 || len(data)%4 != 0 || offset%4 != 0 || !inRange(uint64(offset), uint64(len(data)), uint64(p.pushSize)) {
		return errors.Wrapf(gfx.ErrInvalidParameters, "push of %d bytes at %d into a %d byte range",
			len(data), offset, p.pushSize)
	}
	s.drv.CmdPushConstants(cb.cmd, p.layout, p.pushStages, offset, data)
	return nil
}

// SetViewport implements interface
func (u *CommandUnit) SetViewport(ref gfx.CommandBufferRef, viewport gfx.Viewport) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	s.drv.CmdSetViewport(cb.cmd, vk.Viewport{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	})
	return nil
}

// SetScissor implements interface
func (u *CommandUnit) SetScissor(ref gfx.CommandBufferRef, scissor gfx.Rect2D) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	s.drv.CmdSetScissor(cb.cmd, vk.Rect2D{
		Offset: vk.Offset2D{X: scissor.X, Y: scissor.Y},
		Extent: vk.Extent2D{Width: scissor.Width, Height: scissor.Height},
	})
	return nil
}

// Draw implements interface
func (u *CommandUnit) Draw(ref gfx.CommandBufferRef, vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	s.drv.CmdDraw(cb.cmd, vertexCount, instanceCount, firstVertex, firstInstance)
	return nil
}

// DrawIndexed implements interface
func (u *CommandUnit) DrawIndexed(ref gfx.CommandBufferRef, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	s.drv.CmdDrawIndexed(cb.cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	return nil
}

// CopyBuffer implements interface
func (u *CommandUnit) CopyBuffer(ref gfx.CommandBufferRef, srcRef, dstRef gfx.BufferRef, size uint64) error {
	s := u.session()
	cb, err := recording(s, ref)
	if err != nil {
		return err
	}
	src, err := handle.Lookup[*Buffer](s.storage, srcRef)
	if err != nil {
		return err
	}
	dst, err := handle.Lookup[*Buffer](s.storage, dstRef)
	if err != nil {
		return err
	}
	if size == 0 || size > src.size || size > dst.size {
		return errors.Wrapf(gfx.ErrInvalidParameters, "copy of %d bytes from %d into %d bytes", size, src.size, dst.size)
	}
	s.drv.CmdCopyBuffer(cb.cmd, src.buffer, dst.buffer, []vk.BufferCopy{{Size: vk.DeviceSize(size)}})
	return nil
}
