// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// memoryAllocator hands out device memory of a suitable type.
type memoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

func newMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *memoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()
	return &memoryAllocator{device: device, memProperties: memProperties}
}

func (ma *memoryAllocator) malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}
	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return vk.NullDeviceMemory, fmt.Errorf("vk.AllocateMemory(): %w", err)
	}
	return memory, nil
}

func (ma *memoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		ma.memProperties.MemoryTypes[idx].Deref()
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errors.New("suitable memory type not found")
}

// buffer is a host visible buffer with its own allocation.
type buffer struct {
	device vk.Device
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   int
}

func newBuffer(ma *memoryAllocator, usage vk.BufferUsageFlagBits, size int) (*buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := vk.Error(vk.CreateBuffer(ma.device, &createInfo, nil, &buf)); err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer(): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(ma.device, buf, &req)
	req.Deref()

	memory, err := ma.malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(ma.device, buf, nil)
		return nil, err
	}
	if err := vk.Error(vk.BindBufferMemory(ma.device, buf, memory, 0)); err != nil {
		vk.FreeMemory(ma.device, memory, nil)
		vk.DestroyBuffer(ma.device, buf, nil)
		return nil, fmt.Errorf("vk.BindBufferMemory(): %w", err)
	}
	return &buffer{device: ma.device, buffer: buf, memory: memory, size: size}, nil
}

// write copies data to the start of the buffer.
func (b *buffer) write(data []byte) error {
	if len(data) > b.size {
		return fmt.Errorf("%d bytes do not fit a buffer of %d", len(data), b.size)
	}
	if len(data) == 0 {
		return nil
	}
	var mapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(b.device, b.memory, 0, vk.DeviceSize(len(data)), 0, &mapped)); err != nil {
		return fmt.Errorf("vk.MapMemory(): %w", err)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(b.device, b.memory)
	return nil
}

func (b *buffer) release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	vk.FreeMemory(b.device, b.memory, nil)
}
