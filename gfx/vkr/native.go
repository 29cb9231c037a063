// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// driver is the set of native calls the backend makes. Every value it
// returns is already dereferenced, so callers never touch C memory.
type driver interface {
	Init(procAddr unsafe.Pointer) error
	CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error)
	DestroyInstance(instance vk.Instance)
	EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error)
	PhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties
	PhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties
	DeviceExtensions(pd vk.PhysicalDevice) ([]string, error)
	DeviceLayers(pd vk.PhysicalDevice) ([]string, error)
	QueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties
	FormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties

	SurfaceFromPointer(p unsafe.Pointer) vk.Surface
	DestroySurface(instance vk.Instance, surface vk.Surface)
	SurfaceSupport(pd vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error)
	SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error)
	PresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error)

	CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error)
	DestroyDevice(device vk.Device)
	DeviceQueue(device vk.Device, family, index uint32) vk.Queue
	DeviceWaitIdle(device vk.Device) error
	QueueWaitIdle(queue vk.Queue) error

	CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error)
	DestroyCommandPool(device vk.Device, pool vk.CommandPool)
	AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer)
	BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error
	EndCommandBuffer(cmd vk.CommandBuffer) error
	ResetCommandBuffer(cmd vk.CommandBuffer) error
	QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error

	CreateFence(device vk.Device, signaled bool) (vk.Fence, error)
	DestroyFence(device vk.Device, fence vk.Fence)
	WaitForFence(device vk.Device, fence vk.Fence) error
	FenceSignaled(device vk.Device, fence vk.Fence) (bool, error)
	ResetFence(device vk.Device, fence vk.Fence) error
	CreateSemaphore(device vk.Device) (vk.Semaphore, error)
	DestroySemaphore(device vk.Device, semaphore vk.Semaphore)

	AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error)
	FreeMemory(device vk.Device, memory vk.DeviceMemory)
	WriteMemory(device vk.Device, memory vk.DeviceMemory, offset uint64, data []byte) error

	CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error)
	DestroyBuffer(device vk.Device, buffer vk.Buffer)
	BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vk.MemoryRequirements
	BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset uint64) error

	CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error)
	DestroyImage(device vk.Device, image vk.Image)
	ImageMemoryRequirements(device vk.Device, image vk.Image) vk.MemoryRequirements
	BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset uint64) error
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(device vk.Device, view vk.ImageView)
	CreateSampler(device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error)
	DestroySampler(device vk.Device, sampler vk.Sampler)

	CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error)
	DestroyShaderModule(device vk.Device, module vk.ShaderModule)

	CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error)
	DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool)
	CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout)
	AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, error)
	UpdateDescriptorSets(device vk.Device, writes []vk.WriteDescriptorSet)

	CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout)
	CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(device vk.Device, pass vk.RenderPass)
	CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(device vk.Device, pipeline vk.Pipeline)
	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer)

	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain)
	SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error)
	AcquireNextImage(device vk.Device, swapchain vk.Swapchain, semaphore vk.Semaphore) (uint32, vk.Result)
	QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result

	CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdEndRenderPass(cmd vk.CommandBuffer)
	CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline)
	CmdBindVertexBuffers(cmd vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdBindIndexBuffer(cmd vk.CommandBuffer, buffer vk.Buffer, offset uint64, indexType vk.IndexType)
	CmdBindDescriptorSets(cmd vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet)
	CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte)
	CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D)
	CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cmd vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy)
	CmdCopyBufferToImage(cmd vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy)
	CmdPipelineBarrier(cmd vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier)
	CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, blit vk.ImageBlit, filter vk.Filter)
}

// vulkanDriver implements driver with the vulkan loader.
type vulkanDriver struct{}

// Init implements interface
func (vulkanDriver) Init(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return &NativeError{Call: "vk.SetDefaultGetInstanceProcAddr()", Result: vk.ErrorInitializationFailed}
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return &NativeError{Call: "vk.Init()", Result: vk.ErrorInitializationFailed}
	}
	return nil
}

// CreateInstance implements interface
func (vulkanDriver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	var instance vk.Instance
	if err := check("vk.CreateInstance()", vk.CreateInstance(info, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, &NativeError{Call: "vk.InitInstance()", Result: vk.ErrorInitializationFailed}
	}
	return instance, nil
}

// DestroyInstance implements interface
func (vulkanDriver) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

// EnumeratePhysicalDevices implements interface
func (vulkanDriver) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := check("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := check("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, err
	}
	return availableDevices, nil
}

// PhysicalDeviceProperties implements interface
func (vulkanDriver) PhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()
	properties.Limits.Deref()
	return properties
}

// PhysicalDeviceMemoryProperties implements interface
func (vulkanDriver) PhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for idx := uint32(0); idx < memoryProperties.MemoryTypeCount; idx++ {
		memoryProperties.MemoryTypes[idx].Deref()
	}
	for idx := uint32(0); idx < memoryProperties.MemoryHeapCount; idx++ {
		memoryProperties.MemoryHeaps[idx].Deref()
	}
	return memoryProperties
}

// DeviceExtensions implements interface
func (vulkanDriver) DeviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var numDeviceExtensions uint32
	if err := check("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		return nil, err
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := check("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(deviceExt))
	for _, ext := range deviceExt {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceLayers implements interface
func (vulkanDriver) DeviceLayers(pd vk.PhysicalDevice) ([]string, error) {
	var numDeviceLayers uint32
	if err := check("vk.EnumerateDeviceLayerProperties()", vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		return nil, err
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := check("vk.EnumerateDeviceLayerProperties()", vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(deviceLayers))
	for _, layer := range deviceLayers {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// QueueFamilies implements interface
func (vulkanDriver) QueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &queueFamilyCount, queueFamilies)
	for idx := range queueFamilies {
		queueFamilies[idx].Deref()
	}
	return queueFamilies
}

// FormatProperties implements interface
func (vulkanDriver) FormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(pd, format, &properties)
	properties.Deref()
	return properties
}

// SurfaceFromPointer implements interface
func (vulkanDriver) SurfaceFromPointer(p unsafe.Pointer) vk.Surface {
	return vk.SurfaceFromPointer(uintptr(p))
}

// DestroySurface implements interface
func (vulkanDriver) DestroySurface(instance vk.Instance, surface vk.Surface) {
	vk.DestroySurface(instance, surface, nil)
}

// SurfaceSupport implements interface
func (vulkanDriver) SurfaceSupport(pd vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	if err := check("vk.GetPhysicalDeviceSurfaceSupport()", vk.GetPhysicalDeviceSurfaceSupport(pd, family, surface, &supported)); err != nil {
		return false, err
	}
	return supported.B(), nil
}

// SurfaceCapabilities implements interface
func (vulkanDriver) SurfaceCapabilities(pd vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := check("vk.GetPhysicalDeviceSurfaceCapabilities()", vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &surfaceCapabilities)); err != nil {
		return vk.SurfaceCapabilities{}, err
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()
	surfaceCapabilities.MinImageExtent.Deref()
	surfaceCapabilities.MaxImageExtent.Deref()
	return surfaceCapabilities, nil
}

// SurfaceFormats implements interface
func (vulkanDriver) SurfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var surfaceFormatCount uint32
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &surfaceFormatCount, nil)); err != nil {
		return nil, err
	}
	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return nil, err
	}
	for idx := range surfaceFormats {
		surfaceFormats[idx].Deref()
	}
	return surfaceFormats, nil
}

// PresentModes implements interface
func (vulkanDriver) PresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var presentModeCount uint32
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, nil)); err != nil {
		return nil, err
	}
	presentModes := make([]vk.PresentMode, presentModeCount)
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, presentModes)); err != nil {
		return nil, err
	}
	return presentModes, nil
}

// CreateDevice implements interface
func (vulkanDriver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var device vk.Device
	if err := check("vk.CreateDevice()", vk.CreateDevice(pd, info, nil, &device)); err != nil {
		return nil, err
	}
	return device, nil
}

// DestroyDevice implements interface
func (vulkanDriver) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

// DeviceQueue implements interface
func (vulkanDriver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, index, &queue)
	return queue
}

// DeviceWaitIdle implements interface
func (vulkanDriver) DeviceWaitIdle(device vk.Device) error {
	return check("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(device))
}

// QueueWaitIdle implements interface
func (vulkanDriver) QueueWaitIdle(queue vk.Queue) error {
	return check("vk.QueueWaitIdle()", vk.QueueWaitIdle(queue))
}

// CreateCommandPool implements interface
func (vulkanDriver) CreateCommandPool(device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	var commandPool vk.CommandPool
	if err := check("vk.CreateCommandPool()", vk.CreateCommandPool(device, info, nil, &commandPool)); err != nil {
		return nil, err
	}
	return commandPool, nil
}

// DestroyCommandPool implements interface
func (vulkanDriver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	vk.DestroyCommandPool(device, pool, nil)
}

// AllocateCommandBuffers implements interface
func (vulkanDriver) AllocateCommandBuffers(device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	commandBuffers := make([]vk.CommandBuffer, info.CommandBufferCount)
	if err := check("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(device, info, commandBuffers)); err != nil {
		return nil, err
	}
	return commandBuffers, nil
}

// FreeCommandBuffers implements interface
func (vulkanDriver) FreeCommandBuffers(device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
}

// BeginCommandBuffer implements interface
func (vulkanDriver) BeginCommandBuffer(cmd vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return check("vk.BeginCommandBuffer()", vk.BeginCommandBuffer(cmd, info))
}

// EndCommandBuffer implements interface
func (vulkanDriver) EndCommandBuffer(cmd vk.CommandBuffer) error {
	return check("vk.EndCommandBuffer()", vk.EndCommandBuffer(cmd))
}

// ResetCommandBuffer implements interface
func (vulkanDriver) ResetCommandBuffer(cmd vk.CommandBuffer) error {
	return check("vk.ResetCommandBuffer()", vk.ResetCommandBuffer(cmd, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit)))
}

// QueueSubmit implements interface
func (vulkanDriver) QueueSubmit(queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error {
	return check("vk.QueueSubmit()", vk.QueueSubmit(queue, uint32(len(submits)), submits, fence))
}

// CreateFence implements interface
func (vulkanDriver) CreateFence(device vk.Device, signaled bool) (vk.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check("vk.CreateFence()", vk.CreateFence(device, &fci, nil, &fence)); err != nil {
		return nil, err
	}
	return fence, nil
}

// DestroyFence implements interface
func (vulkanDriver) DestroyFence(device vk.Device, fence vk.Fence) {
	vk.DestroyFence(device, fence, nil)
}

// WaitForFence implements interface
func (vulkanDriver) WaitForFence(device vk.Device, fence vk.Fence) error {
	return check("vk.WaitForFences()", vk.WaitForFences(device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64))
}

// FenceSignaled implements interface
func (vulkanDriver) FenceSignaled(device vk.Device, fence vk.Fence) (bool, error) {
	switch result := vk.GetFenceStatus(device, fence); result {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, check("vk.GetFenceStatus()", result)
	}
}

// ResetFence implements interface
func (vulkanDriver) ResetFence(device vk.Device, fence vk.Fence) error {
	return check("vk.ResetFences()", vk.ResetFences(device, 1, []vk.Fence{fence}))
}

// CreateSemaphore implements interface
func (vulkanDriver) CreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := check("vk.CreateSemaphore()", vk.CreateSemaphore(device, &sci, nil, &semaphore)); err != nil {
		return nil, err
	}
	return semaphore, nil
}

// DestroySemaphore implements interface
func (vulkanDriver) DestroySemaphore(device vk.Device, semaphore vk.Semaphore) {
	vk.DestroySemaphore(device, semaphore, nil)
}

// AllocateMemory implements interface
func (vulkanDriver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	var memory vk.DeviceMemory
	if err := check("vk.AllocateMemory()", vk.AllocateMemory(device, info, nil, &memory)); err != nil {
		return nil, err
	}
	return memory, nil
}

// FreeMemory implements interface
func (vulkanDriver) FreeMemory(device vk.Device, memory vk.DeviceMemory) {
	vk.FreeMemory(device, memory, nil)
}

// WriteMemory implements interface
func (vulkanDriver) WriteMemory(device vk.Device, memory vk.DeviceMemory, offset uint64, data []byte) error {
	var mappedMemory unsafe.Pointer
	if err := check("vk.MapMemory()", vk.MapMemory(device, memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &mappedMemory)); err != nil {
		return err
	}
	vk.Memcopy(mappedMemory, data)
	vk.UnmapMemory(device, memory)
	return nil
}

// CreateBuffer implements interface
func (vulkanDriver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	var buffer vk.Buffer
	if err := check("vk.CreateBuffer()", vk.CreateBuffer(device, info, nil, &buffer)); err != nil {
		return nil, err
	}
	return buffer, nil
}

// DestroyBuffer implements interface
func (vulkanDriver) DestroyBuffer(device vk.Device, buffer vk.Buffer) {
	vk.DestroyBuffer(device, buffer, nil)
}

// BufferMemoryRequirements implements interface
func (vulkanDriver) BufferMemoryRequirements(device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &req)
	req.Deref()
	return req
}

// BindBufferMemory implements interface
func (vulkanDriver) BindBufferMemory(device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset uint64) error {
	return check("vk.BindBufferMemory()", vk.BindBufferMemory(device, buffer, memory, vk.DeviceSize(offset)))
}

// CreateImage implements interface
func (vulkanDriver) CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	var image vk.Image
	if err := check("vk.CreateImage()", vk.CreateImage(device, info, nil, &image)); err != nil {
		return nil, err
	}
	return image, nil
}

// DestroyImage implements interface
func (vulkanDriver) DestroyImage(device vk.Device, image vk.Image) {
	vk.DestroyImage(device, image, nil)
}

// ImageMemoryRequirements implements interface
func (vulkanDriver) ImageMemoryRequirements(device vk.Device, image vk.Image) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &req)
	req.Deref()
	return req
}

// BindImageMemory implements interface
func (vulkanDriver) BindImageMemory(device vk.Device, image vk.Image, memory vk.DeviceMemory, offset uint64) error {
	return check("vk.BindImageMemory()", vk.BindImageMemory(device, image, memory, vk.DeviceSize(offset)))
}

// CreateImageView implements interface
func (vulkanDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := check("vk.CreateImageView()", vk.CreateImageView(device, info, nil, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

// DestroyImageView implements interface
func (vulkanDriver) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, nil)
}

// CreateSampler implements interface
func (vulkanDriver) CreateSampler(device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	var sampler vk.Sampler
	if err := check("vk.CreateSampler()", vk.CreateSampler(device, info, nil, &sampler)); err != nil {
		return nil, err
	}
	return sampler, nil
}

// DestroySampler implements interface
func (vulkanDriver) DestroySampler(device vk.Device, sampler vk.Sampler) {
	vk.DestroySampler(device, sampler, nil)
}

// CreateShaderModule implements interface
func (vulkanDriver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if err := check("vk.CreateShaderModule()", vk.CreateShaderModule(device, info, nil, &module)); err != nil {
		return nil, err
	}
	return module, nil
}

// DestroyShaderModule implements interface
func (vulkanDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(device, module, nil)
}

// CreateDescriptorPool implements interface
func (vulkanDriver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	var descriptorPool vk.DescriptorPool
	if err := check("vk.CreateDescriptorPool()", vk.CreateDescriptorPool(device, info, nil, &descriptorPool)); err != nil {
		return nil, err
	}
	return descriptorPool, nil
}

// DestroyDescriptorPool implements interface
func (vulkanDriver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(device, pool, nil)
}

// CreateDescriptorSetLayout implements interface
func (vulkanDriver) CreateDescriptorSetLayout(device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	var descriptorSetLayout vk.DescriptorSetLayout
	if err := check("vk.CreateDescriptorSetLayout()", vk.CreateDescriptorSetLayout(device, info, nil, &descriptorSetLayout)); err != nil {
		return nil, err
	}
	return descriptorSetLayout, nil
}

// DestroyDescriptorSetLayout implements interface
func (vulkanDriver) DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(device, layout, nil)
}

// AllocateDescriptorSet implements interface
func (vulkanDriver) AllocateDescriptorSet(device vk.Device, info *vk.DescriptorSetAllocateInfo) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	if err := check("vk.AllocateDescriptorSets()", vk.AllocateDescriptorSets(device, info, &set)); err != nil {
		return nil, err
	}
	return set, nil
}

// UpdateDescriptorSets implements interface
func (vulkanDriver) UpdateDescriptorSets(device vk.Device, writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(device, uint32(len(writes)), writes, 0, nil)
}

// CreatePipelineLayout implements interface
func (vulkanDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var pipelineLayout vk.PipelineLayout
	if err := check("vk.CreatePipelineLayout()", vk.CreatePipelineLayout(device, info, nil, &pipelineLayout)); err != nil {
		return nil, err
	}
	return pipelineLayout, nil
}

// DestroyPipelineLayout implements interface
func (vulkanDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device, layout, nil)
}

// CreateRenderPass implements interface
func (vulkanDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if err := check("vk.CreateRenderPass()", vk.CreateRenderPass(device, info, nil, &renderPass)); err != nil {
		return nil, err
	}
	return renderPass, nil
}

// DestroyRenderPass implements interface
func (vulkanDriver) DestroyRenderPass(device vk.Device, pass vk.RenderPass) {
	vk.DestroyRenderPass(device, pass, nil)
}

// CreateGraphicsPipeline implements interface
func (vulkanDriver) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	if err := check("vk.CreateGraphicsPipelines()", vk.CreateGraphicsPipelines(device, nil, 1, []vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines)); err != nil {
		return nil, err
	}
	return pipelines[0], nil
}

// DestroyPipeline implements interface
func (vulkanDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(device, pipeline, nil)
}

// CreateFramebuffer implements interface
func (vulkanDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if err := check("vk.CreateFramebuffer()", vk.CreateFramebuffer(device, info, nil, &framebuffer)); err != nil {
		return nil, err
	}
	return framebuffer, nil
}

// DestroyFramebuffer implements interface
func (vulkanDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(device, framebuffer, nil)
}

// CreateSwapchain implements interface
func (vulkanDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := check("vk.CreateSwapchain()", vk.CreateSwapchain(device, info, nil, &swapchain)); err != nil {
		return nil, err
	}
	return swapchain, nil
}

// DestroySwapchain implements interface
func (vulkanDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

// SwapchainImages implements interface
func (vulkanDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	var numImages uint32
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(device, swapchain, &numImages, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, numImages)
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(device, swapchain, &numImages, images)); err != nil {
		return nil, err
	}
	return images, nil
}

// AcquireNextImage implements interface
func (vulkanDriver) AcquireNextImage(device vk.Device, swapchain vk.Swapchain, semaphore vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(device, swapchain, vk.MaxUint64, semaphore, nil, &imageIndex)
	return imageIndex, result
}

// QueuePresent implements interface
func (vulkanDriver) QueuePresent(queue vk.Queue, info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(queue, info)
}

// CmdBeginRenderPass implements interface
func (vulkanDriver) CmdBeginRenderPass(cmd vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(cmd, info, vk.SubpassContentsInline)
}

// CmdEndRenderPass implements interface
func (vulkanDriver) CmdEndRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

// CmdBindPipeline implements interface
func (vulkanDriver) CmdBindPipeline(cmd vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)
}

// CmdBindVertexBuffers implements interface
func (vulkanDriver) CmdBindVertexBuffers(cmd vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(cmd, first, uint32(len(buffers)), buffers, offsets)
}

// CmdBindIndexBuffer implements interface
func (vulkanDriver) CmdBindIndexBuffer(cmd vk.CommandBuffer, buffer vk.Buffer, offset uint64, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(cmd, buffer, vk.DeviceSize(offset), indexType)
}

// CmdBindDescriptorSets implements interface
func (vulkanDriver) CmdBindDescriptorSets(cmd vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, layout, first, uint32(len(sets)), sets, 0, nil)
}

// CmdPushConstants implements interface
func (vulkanDriver) CmdPushConstants(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	vk.CmdPushConstants(cmd, layout, stages, offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

// CmdSetViewport implements interface
func (vulkanDriver) CmdSetViewport(cmd vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
}

// CmdSetScissor implements interface
func (vulkanDriver) CmdSetScissor(cmd vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
}

// CmdDraw implements interface
func (vulkanDriver) CmdDraw(cmd vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cmd, vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdDrawIndexed implements interface
func (vulkanDriver) CmdDrawIndexed(cmd vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(cmd, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// CmdCopyBuffer implements interface
func (vulkanDriver) CmdCopyBuffer(cmd vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	vk.CmdCopyBuffer(cmd, src, dst, uint32(len(regions)), regions)
}

// CmdCopyBufferToImage implements interface
func (vulkanDriver) CmdCopyBufferToImage(cmd vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	vk.CmdCopyBufferToImage(cmd, src, dst, layout, uint32(len(regions)), regions)
}

// CmdPipelineBarrier implements interface
func (vulkanDriver) CmdPipelineBarrier(cmd vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags, barriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, uint32(len(barriers)), barriers)
}

// CmdBlitImage implements interface
func (vulkanDriver) CmdBlitImage(cmd vk.CommandBuffer, src vk.Image, srcLayout vk.ImageLayout, dst vk.Image, dstLayout vk.ImageLayout, blit vk.ImageBlit, filter vk.Filter) {
	vk.CmdBlitImage(cmd, src, srcLayout, dst, dstLayout, 1, []vk.ImageBlit{blit}, filter)
}
