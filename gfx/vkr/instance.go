// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

const (
	engineName      = "Koru3D"
	validationLayer = "VK_LAYER_KHRONOS_validation"
	debugExtension  = "VK_EXT_debug_report"
)

// Instance describes a Vulkan API Instance together with the physical
// devices that were enumerated when it was created.
type Instance struct {
	drv driver
	log logrus.FieldLogger

	extensions       []string
	instance         vk.Instance
	availableDevices []vk.PhysicalDevice
	devicesInfo      []gfx.PhysicalDeviceInfo
}

func newInstance(drv driver, cfg core.InstanceConfiguration, procAddr unsafe.Pointer, log logrus.FieldLogger) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, validationLayer)
		cfg.Extensions = append(cfg.Extensions, debugExtension)
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = engineName
	}

	if err := drv.Init(procAddr); err != nil {
		return nil, err
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   core.SafeString(cfg.ApplicationName),
			PEngineName:        core.SafeString(engineName),
		},
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: core.SafeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     core.SafeStrings(cfg.Layers),
	}

	instance, err := drv.CreateInstance(&instanceInfo)
	if err != nil {
		return nil, err
	}

	physicalDevices, err := drv.EnumeratePhysicalDevices(instance)
	if err != nil {
		drv.DestroyInstance(instance)
		return nil, err
	}

	v := &Instance{
		drv:              drv,
		log:              log,
		extensions:       append([]string(nil), cfg.Extensions...),
		instance:         instance,
		availableDevices: physicalDevices,
	}
	v.devicesInfo = v.describeDevices()
	log.WithField("devices", len(physicalDevices)).Info("vulkan instance created")
	return v, nil
}

func (v *Instance) describeDevices() []gfx.PhysicalDeviceInfo {
	pdi := make([]gfx.PhysicalDeviceInfo, len(v.availableDevices))
	for i, device := range v.availableDevices {
		extensions, err := v.drv.DeviceExtensions(device)
		if err != nil {
			pdi[i].Invalid = true
		}
		pdi[i].Extensions = extensions

		layers, err := v.drv.DeviceLayers(device)
		if err != nil {
			pdi[i].Invalid = true
		}
		pdi[i].Layers = layers

		memoryProperties := v.drv.PhysicalDeviceMemoryProperties(device)
		for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			pdi[i].Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
		}

		properties := v.drv.PhysicalDeviceProperties(device)
		pdi[i].ID = int(properties.DeviceID)
		pdi[i].VendorID = int(properties.VendorID)
		pdi[i].Name = vk.ToString(properties.DeviceName[:])
		pdi[i].DriverVersion = int(properties.DriverVersion)
	}
	return pdi
}

// PhysicalDevicesInfo returns a description of every physical device,
// as enumerated on instance creation.
func (v *Instance) PhysicalDevicesInfo() []gfx.PhysicalDeviceInfo {
	return append([]gfx.PhysicalDeviceInfo(nil), v.devicesInfo...)
}

// AvailableDevices returns handles of Physical Devices
func (v *Instance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Extensions returns the enabled instance extensions
func (v *Instance) Extensions() []string {
	return v.extensions
}

// Inner returns the vk.Instance
func (v *Instance) Inner() vk.Instance {
	return v.instance
}

func (v *Instance) hasExtensions(required []string) bool {
	for _, r := range required {
		found := false
		for _, e := range v.extensions {
			if core.TrimString(e) == core.TrimString(r) {
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

// Release destroys the instance
func (v *Instance) Release() {
	v.availableDevices = nil
	v.drv.DestroyInstance(v.instance)
	v.log.Info("vulkan instance destroyed")
}

// instances is the process wide instance cache. Only acquisition and
// teardown lock it, holders are used without locking.
var instances struct {
	sync.Mutex
	holder *handle.Counted[*Instance]
}

// AcquireInstance returns a holder of the process wide instance, creating it
// on first use. Every holder must be released; the instance itself lives
// until ReleaseInstances is called and every holder is released.
func AcquireInstance(cfg core.InstanceConfiguration, procAddr unsafe.Pointer, log logrus.FieldLogger) (*handle.Counted[*Instance], error) {
	return acquireInstance(vulkanDriver{}, cfg, procAddr, log)
}

func acquireInstance(drv driver, cfg core.InstanceConfiguration, procAddr unsafe.Pointer, log logrus.FieldLogger) (*handle.Counted[*Instance], error) {
	instances.Lock()
	defer instances.Unlock()

	if instances.holder != nil {
		if !instances.holder.Get().hasExtensions(cfg.Extensions) {
			return nil, errors.Wrapf(gfx.ErrInvalidParameters,
				"instance already created without some of extensions %v", cfg.Extensions)
		}
		return instances.holder.Retain(), nil
	}

	instance, err := newInstance(drv, cfg, procAddr, log)
	if err != nil {
		return nil, err
	}
	instances.holder = handle.NewCounted(instance)
	return instances.holder.Retain(), nil
}

// ReleaseInstances drops the cache's own hold of the instance. It is meant
// to be called once on process exit.
func ReleaseInstances() {
	instances.Lock()
	defer instances.Unlock()

	instances.holder.Release()
	instances.holder = nil
}
