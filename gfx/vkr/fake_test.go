// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// fakeDriver stands in for the vulkan loader. It hands out null handles,
// counts every call by name and can be scripted per test.
type fakeDriver struct {
	calls map[string]int

	devices        int
	images         int
	unsupported    map[vk.Format]bool
	rejectShaders  bool
	fencesPending  bool
	acquireResults []vk.Result
	presentResults []vk.Result
	written        int
	// call name to the 1-based call number that fails
	failOn         map[string]int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		calls:       make(map[string]int),
		devices:     1,
		images:      3,
		unsupported: make(map[vk.Format]bool),
		failOn:      make(map[string]int),
	}
}

func (f *fakeDriver) call(name string) {
	f.calls[name]++
}

// fallible counts the call and fails it when it is the scripted one.
func (f *fakeDriver) fallible(name string) error {
	f.call(name)
	if n, ok := f.failOn[name]; ok && f.calls[name] == n {
		return &NativeError{Call: "vk." + name + "()", Result: vk.ErrorOutOfDeviceMemory}
	}
	return nil
}

func (f *fakeDriver) Init(procAddr unsafe.Pointer) error {
	f.call("Init")
	return nil
}

func (f *fakeDriver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	f.call("CreateInstance")
	return nil, nil
}

func (f *fakeDriver) DestroyInstance(instance vk.Instance) { f.call("DestroyInstance") }

func (f *fakeDriver) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	f.call("EnumeratePhysicalDevices")
	return make([]vk.PhysicalDevice, f.devices), nil
}

func (f *fakeDriver) PhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	copy(props.DeviceName[:], "fake device")
	props.DeviceID = 42
	props.VendorID = 7
	props.Limits.FramebufferColorSampleCounts = vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit)
	props.Limits.FramebufferDepthSampleCounts = vk.SampleCountFlags(vk.SampleCount1Bit | vk.SampleCount2Bit | vk.SampleCount4Bit)
	return props
}

func (f *fakeDriver) PhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 2
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	props.MemoryHeapCount = 1
	props.MemoryHeaps[0].Size = 1 << 30
	return props
}

func (f *fakeDriver) DeviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	return []string{"VK_KHR_swapchain\x00"}, nil
}

func (f *fakeDriver) DeviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	return nil, nil
}

func (f *fakeDriver) QueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	return []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1},
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit), QueueCount: 1},
	}
}

func (f *fakeDriver) FormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	if f.unsupported[format] {
		return vk.FormatProperties{}
	}
	all := vk.FormatFeatureFlags(0xFFFFFFFF)
	return vk.FormatProperties{LinearTilingFeatures: all, OptimalTilingFeatures: all, BufferFeatures: all}
}

func (f *fakeDriver) SurfaceFromPointer(p unsafe.Pointer) vk.Surface { return nil }

func (f *fakeDriver) DestroySurface(instance vk.Instance, surface vk.Surface) { f.call("DestroySurface") }

func (f *fakeDriver) SurfaceSupport(pd vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	return true, nil
}

func (f *fakeDriver) SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	return vk.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           8,
		SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit),
	}, nil
}

func (f *fakeDriver) SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	return []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}}, nil
}

func (f *fakeDriver) PresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	return []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, nil
}

func (f *fakeDriver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	f.call("CreateDevice")
	return nil, nil
}

func (f *fakeDriver) DestroyDevice(device vk.Device) { f.call("DestroyDevice") }

func (f *fakeDriver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue { return nil }

func (f *fakeDriver) DeviceWaitIdle(device vk.Device) error {
	f.call("DeviceWaitIdle")
	return nil
}

func (f *fakeDriver) QueueWaitIdle(queue vk.Queue) error { return nil }

func (f *fakeDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	f.call("CreateCommandPool")
	return nil, nil
}

func (f *fakeDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) { f.call("DestroyCommandPool") }

func (f *fakeDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	f.call("AllocateCommandBuffers")
	return make([]vk.CommandBuffer, info.CommandBufferCount), nil
}

func (f *fakeDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	f.call("FreeCommandBuffers")
}

func (f *fakeDriver) BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	f.call("BeginCommandBuffer")
	return nil
}

func (f *fakeDriver) EndCommandBuffer(cmd vk.CommandBuffer) error {
	f.call("EndCommandBuffer")
	return nil
}

func (f *fakeDriver) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	f.call("ResetCommandBuffer")
	return nil
}

func (f *fakeDriver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error {
	f.call("QueueSubmit")
	return nil
}

func (f *fakeDriver) CreateFence(device vk.Device, signaled bool) (vk.Fence, error) {
	f.call("CreateFence")
	return nil, nil
}

func (f *fakeDriver) DestroyFence(device vk.Device, fence vk.Fence) { f.call("DestroyFence") }

func (f *fakeDriver) WaitForFence(device vk.Device, fence vk.Fence) error {
	f.call("WaitForFence")
	f.fencesPending = false
	return nil
}

func (f *fakeDriver) FenceSignaled(device vk.Device, fence vk.Fence) (bool, error) {
	return !f.fencesPending, nil
}

func (f *fakeDriver) ResetFence(device vk.Device, fence vk.Fence) error { return nil }

func (f *fakeDriver) CreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	f.call("CreateSemaphore")
	return nil, nil
}

func (f *fakeDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	f.call("DestroySemaphore")
}

func (f *fakeDriver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	f.call("AllocateMemory")
	return nil, nil
}

func (f *fakeDriver) FreeMemory(device vk.Device, memory vk.DeviceMemory) { f.call("FreeMemory") }

func (f *fakeDriver) WriteMemory(device vk.Device, memory vk.DeviceMemory, offset uint64, data []byte) error {
	f.written += len(data)
	return nil
}

func (f *fakeDriver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	f.call("CreateBuffer")
	return nil, nil
}

func (f *fakeDriver) DestroyBuffer(device vk.Device, buffer vk.Buffer) { f.call("DestroyBuffer") }

func (f *fakeDriver) BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	return vk.MemoryRequirements{Size: 1 << 16, Alignment: 256, MemoryTypeBits: 0x3}
}

func (f *fakeDriver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset uint64) error {
	return nil
}

func (f *fakeDriver) CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	f.call("CreateImage")
	return nil, nil
}

func (f *fakeDriver) DestroyImage(device vk.Device, image vk.Image) { f.call("DestroyImage") }

func (f *fakeDriver) ImageMemoryRequirements(device vk.Device, image vk.Image) vk.MemoryRequirements {
	return vk.MemoryRequirements{Size: 1 << 20, Alignment: 256, MemoryTypeBits: 0x3}
}

func (f *fakeDriver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset uint64) error {
	return nil
}

func (f *fakeDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	f.call("CreateImageView")
	return nil, nil
}

func (f *fakeDriver) DestroyImageView(device vk.Device, view vk.ImageView) { f.call("DestroyImageView") }

func (f *fakeDriver) CreateSampler(device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	f.call("CreateSampler")
	return nil, nil
}

func (f *fakeDriver) DestroySampler(device vk.Device, sampler vk.Sampler) { f.call("DestroySampler") }

func (f *fakeDriver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	f.call("CreateShaderModule")
	if f.rejectShaders {
		return nil, &NativeError{Call: "vk.CreateShaderModule()", Result: vk.ErrorInitializationFailed}
	}
	return nil, nil
}

func (f *fakeDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	f.call("DestroyShaderModule")
}

func (f *fakeDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	f.call("CreateDescriptorPool")
	return nil, nil
}

func (f *fakeDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) {
	f.call("DestroyDescriptorPool")
}

func (f *fakeDriver) CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	f.call("CreateDescriptorSetLayout")
	return nil, nil
}

func (f *fakeDriver) DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout) {
	f.call("DestroyDescriptorSetLayout")
}

func (f *fakeDriver) AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, error) {
	return nil, f.fallible("AllocateDescriptorSet")
}

func (f *fakeDriver) UpdateDescriptorSets(device vk.Device, writes []vk.WriteDescriptorSet) {
	f.calls["UpdateDescriptorSets"] += len(writes)
}

func (f *fakeDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	f.call("CreatePipelineLayout")
	return nil, nil
}

func (f *fakeDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	f.call("DestroyPipelineLayout")
}

func (f *fakeDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	f.call("CreateRenderPass")
	return nil, nil
}

func (f *fakeDriver) DestroyRenderPass(device vk.Device, pass vk.RenderPass) { f.call("DestroyRenderPass") }

func (f *fakeDriver) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	f.call("CreateGraphicsPipeline")
	return nil, nil
}

func (f *fakeDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) { f.call("DestroyPipeline") }

func (f *fakeDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	return nil, f.fallible("CreateFramebuffer")
}

func (f *fakeDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	f.call("DestroyFramebuffer")
}

func (f *fakeDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	f.call("CreateSwapchain")
	return nil, nil
}

func (f *fakeDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) { f.call("DestroySwapchain") }

func (f *fakeDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	return make([]vk.Image, f.images), nil
}

func (f *fakeDriver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, semaphore vk.Semaphore) (uint32, vk.Result) {
	f.call("AcquireNextImage")
	if len(f.acquireResults) > 0 {
		result := f.acquireResults[0]
		f.acquireResults = f.acquireResults[1:]
		return 1, result
	}
	return 1, vk.Success
}

func (f *fakeDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	f.call("QueuePresent")
	if len(f.presentResults) > 0 {
		result := f.presentResults[0]
		f.presentResults = f.presentResults[1:]
		return result
	}
	return vk.Success
}

func (f *fakeDriver) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	f.call("CmdBeginRenderPass")
}

func (f *fakeDriver) CmdEndRenderPass(cmd vk.CommandBuffer) { f.call("CmdEndRenderPass") }

func (f *fakeDriver) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) { f.call("CmdBindPipeline") }

func (f *fakeDriver) CmdBindVertexBuffers(cmd vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	f.call("CmdBindVertexBuffers")
}

func (f *fakeDriver) CmdBindIndexBuffer(cmd vk.CommandBuffer, buffer vk.Buffer, offset uint64, indexType vk.IndexType) {
	f.call("CmdBindIndexBuffer")
}

func (f *fakeDriver) CmdBindDescriptorSets(cmd vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet) {
	f.call("CmdBindDescriptorSets")
}

func (f *fakeDriver) CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	f.call("CmdPushConstants")
}

func (f *fakeDriver) CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport) { f.call("CmdSetViewport") }

func (f *fakeDriver) CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D) { f.call("CmdSetScissor") }

func (f *fakeDriver) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.call("CmdDraw")
}

func (f *fakeDriver) CmdDrawIndexed(cmd vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	f.call("CmdDrawIndexed")
}

func (f *fakeDriver) CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	f.call("CmdCopyBuffer")
}

func (f *fakeDriver) CmdCopyBufferToImage(cmd vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	f.call("CmdCopyBufferToImage")
}

func (f *fakeDriver) CmdPipelineBarrier(cmd vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	f.call("CmdPipelineBarrier")
}

func (f *fakeDriver) CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, blit vk.ImageBlit, filter vk.Filter) {
	f.call("CmdBlitImage")
}

type fakeWindow struct {
	width, height uint32
}

func (w *fakeWindow) PixelSize() (uint32, uint32) {
	return w.width, w.height
}

func (w *fakeWindow) InstanceExtensions() []string {
	return []string{"VK_KHR_surface"}
}

func (w *fakeWindow) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	return nil, nil
}

func (w *fakeWindow) ProcAddr() unsafe.Pointer {
	return nil
}

// fixture is a backend over a fake driver.
type fixture struct {
	drv     *fakeDriver
	window  *fakeWindow
	backend *Backend
	hook    *test.Hook
}

func (f *fixture) storage() *handle.Storage {
	return f.backend.state.Get().storage
}

func newFixture(c *qt.C, window bool) *fixture {
	drv := newFakeDriver()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	cfg := core.DefaultConfiguration()
	instance, err := newInstance(drv, cfg.Instance, nil, log)
	c.Assert(err, qt.IsNil)
	holder := handle.NewCounted(instance)

	f := &fixture{drv: drv, hook: hook}
	var w gfx.Window
	if window {
		f.window = &fakeWindow{width: 800, height: 600}
		w = f.window
	}

	f.backend, err = newBackend(drv, holder, w, cfg.Renderer, log)
	holder.Release()
	c.Assert(err, qt.IsNil)
	c.Cleanup(f.backend.Release)
	return f
}

// spirv returns a minimal module header.
func spirv() []byte {
	return []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
}
