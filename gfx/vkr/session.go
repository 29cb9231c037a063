// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// submission is a batch of GPU work that has not been seen complete yet.
type submission struct {
	fence     vk.Fence
	retired   []handle.Releasable
	done      func()
	completed bool
}

// Session is the state shared by every unit of one backend: the instance
// hold, the selected device with its graphics queue and command pool, and
// the storage owning every resource created through the units.
type Session struct {
	drv driver
	log logrus.FieldLogger
	cfg core.RendererConfiguration

	instance       *handle.Counted[*Instance]
	physicalDevice vk.PhysicalDevice
	properties     vk.PhysicalDeviceProperties

	device      vk.Device
	queue       vk.Queue
	queueFamily uint32
	pool        vk.CommandPool
	allocator   *MemoryAllocator
	samples     gfx.SampleCount

	storage    *handle.Storage
	queueRef   handle.Ref[handle.Queue]
	surfaceRef handle.Ref[handle.Surface]

	pending  []*submission
	released bool
}

// nativeQueue is owned by the device, releasing it does nothing.
type nativeQueue struct {
	queue  vk.Queue
	family uint32
}

func (nativeQueue) Release() {}

type nativeSurface struct {
	drv      driver
	instance vk.Instance
	surface  vk.Surface
}

func (s *nativeSurface) Release() {
	s.drv.DestroySurface(s.instance, s.surface)
}

// newSession brings up a device on the first physical device that has a
// graphics queue, and that can present to the window when one is given.
// The session takes its own hold of the instance.
func newSession(drv driver, instance *handle.Counted[*Instance], window gfx.Window, cfg core.RendererConfiguration, log logrus.FieldLogger) (*Session, error) {
	if instance == nil || !instance.Alive() {
		return nil, gfx.ErrNullSharedState
	}
	inst := instance.Get()

	s := &Session{
		drv:      drv,
		log:      log,
		cfg:      cfg,
		instance: instance.Retain(),
		storage:  handle.NewStorage(),
	}

	var (
		surface    vk.Surface
		hasSurface bool
	)
	if window != nil {
		ptr, err := window.CreateSurface(inst.Inner())
		if err != nil {
			s.instance.Release()
			return nil, errors.Wrap(err, "window.CreateSurface()")
		}
		surface = drv.SurfaceFromPointer(ptr)
		hasSurface = true
		s.surfaceRef = handle.Insert[handle.Surface](s.storage, &nativeSurface{
			drv:      drv,
			instance: inst.Inner(),
			surface:  surface,
		})
	}

	if err := s.selectPhysicalDevice(inst, surface, hasSurface); err != nil {
		s.storage.Clear()
		s.instance.Release()
		return nil, err
	}

	if err := s.createDevice(hasSurface); err != nil {
		s.storage.Clear()
		s.instance.Release()
		return nil, err
	}

	s.queue = drv.DeviceQueue(s.device, s.queueFamily, 0)
	s.queueRef = handle.Insert[handle.Queue](s.storage, nativeQueue{queue: s.queue, family: s.queueFamily})

	pool, err := drv.CreateCommandPool(s.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: s.queueFamily,
	})
	if err != nil {
		s.storage.Clear()
		drv.DestroyDevice(s.device)
		s.instance.Release()
		return nil, err
	}
	s.pool = pool

	s.allocator = newMemoryAllocator(drv, s.device, s.physicalDevice)
	s.samples = chooseSampleCount(s.properties.Limits, cfg.PreferredSampleCount)

	log.WithFields(logrus.Fields{
		"device":  vk.ToString(s.properties.DeviceName[:]),
		"family":  s.queueFamily,
		"samples": s.samples,
	}).Info("backend session created")
	return s, nil
}

func (s *Session) selectPhysicalDevice(inst *Instance, surface vk.Surface, hasSurface bool) error {
	infos := inst.PhysicalDevicesInfo()
	for i, pd := range inst.AvailableDevices() {
		if infos[i].Invalid {
			continue
		}
		if hasSurface && !containsAll(infos[i].Extensions, s.cfg.DeviceExtensions) {
			continue
		}
		for family, props := range s.drv.QueueFamilies(pd) {
			if props.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				continue
			}
			if hasSurface {
				supported, err := s.drv.SurfaceSupport(pd, uint32(family), surface)
				if err != nil {
					return err
				}
				if !supported {
					continue
				}
			}
			s.physicalDevice = pd
			s.properties = s.drv.PhysicalDeviceProperties(pd)
			s.queueFamily = uint32(family)
			return nil
		}
	}
	return errors.Wrap(gfx.ErrNativeFailure, "no physical device with a suitable graphics queue")
}

func (s *Session) createDevice(hasSurface bool) error {
	var extensions []string
	if hasSurface {
		extensions = s.cfg.DeviceExtensions
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: s.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	device, err := s.drv.CreateDevice(s.physicalDevice, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: core.SafeStrings(extensions),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
	})
	if err != nil {
		return err
	}
	s.device = device
	return nil
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if core.TrimString(h) == core.TrimString(w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func chooseSampleCount(limits vk.PhysicalDeviceLimits, preferred uint32) gfx.SampleCount {
	chosen := gfx.Samples1
	for _, c := range sampleCounts(limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts) {
		if uint32(c) <= preferred && c > chosen {
			chosen = c
		}
	}
	return chosen
}

func (s *Session) surface() (vk.Surface, bool) {
	ns, err := handle.Lookup[*nativeSurface](s.storage, s.surfaceRef)
	if err != nil {
		return nil, false
	}
	return ns.surface, true
}

// track registers work submitted with fence. done runs once the fence is
// seen signalled. A pending fence is never reset, so waiting on it is safe
// until the submission completes.
func (s *Session) track(fence vk.Fence, done func()) *submission {
	sub := &submission{fence: fence, done: done}
	s.pending = append(s.pending, sub)
	return sub
}

// retire releases obj once every submission made so far has completed.
func (s *Session) retire(obj handle.Releasable) {
	if obj == nil {
		return
	}
	if n := len(s.pending); n > 0 {
		last := s.pending[n-1]
		last.retired = append(last.retired, obj)
		return
	}
	obj.Release()
}

// erase takes the resource out of storage and retires it.
func erase[T handle.Tag](s *Session, ref handle.Ref[T]) {
	if obj, ok := handle.Take(s.storage, ref); ok {
		s.retire(obj)
	}
}

// Collect releases everything retired by submissions that have completed.
// Submissions go to a single queue, so it stops at the first one that is
// still running.
func (s *Session) Collect() error {
	for len(s.pending) > 0 {
		next := s.pending[0]
		signaled, err := s.drv.FenceSignaled(s.device, next.fence)
		if err != nil {
			return err
		}
		if !signaled {
			return nil
		}
		s.pending = s.pending[1:]
		s.complete(next)
	}
	return nil
}

func (s *Session) complete(sub *submission) {
	sub.completed = true
	if sub.done != nil {
		sub.done()
	}
	for _, obj := range sub.retired {
		obj.Release()
	}
}

// WaitIdle blocks until the device has finished all work and releases
// everything that was waiting on it.
func (s *Session) WaitIdle() error {
	if err := s.drv.DeviceWaitIdle(s.device); err != nil {
		return err
	}
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.complete(next)
	}
	return nil
}

// Pending returns the number of submissions not yet seen complete.
func (s *Session) Pending() int {
	return len(s.pending)
}

// immediate records a command buffer with record, submits it and waits
// for it to complete.
func (s *Session) immediate(record func(cmd vk.CommandBuffer)) error {
	cmds, err := s.drv.AllocateCommandBuffers(s.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        s.pool,
		CommandBufferCount: 1,
	})
	if err != nil {
		return err
	}
	defer s.drv.FreeCommandBuffers(s.device, s.pool, cmds)

	if err := s.drv.BeginCommandBuffer(cmds[0], &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); err != nil {
		return err
	}
	record(cmds[0])
	if err := s.drv.EndCommandBuffer(cmds[0]); err != nil {
		return err
	}

	fence, err := s.drv.CreateFence(s.device, false)
	if err != nil {
		return err
	}
	defer s.drv.DestroyFence(s.device, fence)

	if err := s.drv.QueueSubmit(s.queue, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}}, fence); err != nil {
		return err
	}
	if err := s.drv.WaitForFence(s.device, fence); err != nil {
		return err
	}
	return s.Collect()
}

// Release waits for the device, releases every resource in storage and
// then the device itself. The instance hold is dropped last.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true

	if err := s.WaitIdle(); err != nil {
		s.log.WithError(err).Error("waiting for device before teardown")
	}
	s.storage.Clear()
	s.drv.DestroyCommandPool(s.device, s.pool)
	s.drv.DestroyDevice(s.device)
	s.instance.Release()
	s.log.Info("backend session released")
}
