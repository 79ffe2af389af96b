// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

var applicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   safeString("korugfx"),
	PEngineName:        safeString("korugfx"),
}

// createInstance loads the Vulkan entry points through procAddr, the
// system loader when nil, and creates an instance.
func createInstance(procAddr unsafe.Pointer, extensions []string, debug bool) (vk.Instance, error) {
	var layers []string
	if debug {
		layers = append(layers, "VK_LAYER_LUNARG_standard_validation")
		extensions = append(extensions, "VK_EXT_debug_report")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, fmt.Errorf("vk.SetDefaultGetInstanceProcAddr(): %w", err)
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vk.Init(): %w", err)
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        applicationInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}
	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, fmt.Errorf("vk.CreateInstance(): %w", err)
	}
	vk.InitInstance(instance)
	return instance, nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %w", err)
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, fmt.Errorf("vk.EnumeratePhysicalDevices(): %w", err)
	}
	return devices, nil
}

// PhysicalDeviceInfo describes a GPU.
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	Name          string
	DriverVersion int
	Memory        uint
	Extensions    []string
	Layers        []string
	Invalid       bool
}

func deviceInfo(device vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	var numExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, nil)); err != nil {
		info.Invalid = true
	}
	extensions := make([]vk.ExtensionProperties, numExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numExtensions, extensions)); err != nil {
		info.Invalid = true
	}
	for _, ext := range extensions {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numLayers, nil)); err != nil {
		info.Invalid = true
	}
	layers := make([]vk.LayerProperties, numLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numLayers, layers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range layers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()
	for i := uint32(0); i < memoryProperties.MemoryHeapCount; i++ {
		memoryProperties.MemoryHeaps[i].Deref()
		info.Memory += uint(memoryProperties.MemoryHeaps[i].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	return info
}

// PhysicalDevices lists the GPUs seen by the system Vulkan loader.
func PhysicalDevices() ([]PhysicalDeviceInfo, error) {
	instance, err := createInstance(nil, nil, false)
	if err != nil {
		return nil, err
	}
	defer vk.DestroyInstance(instance, nil)

	devices, err := enumerateDevices(instance)
	if err != nil {
		return nil, err
	}
	infos := make([]PhysicalDeviceInfo, len(devices))
	for i, d := range devices {
		infos[i] = deviceInfo(d)
	}
	return infos, nil
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
