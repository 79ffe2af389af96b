// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"errors"
	"fmt"

	vkbackend "github.com/devblok/korugfx/gfx/vk"
	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

// object is a Vulkan object owned through a vkbackend.Handle.
type object interface {
	destroy(device vk.Device)
}

type shaderModule struct{ module vk.ShaderModule }

func (s shaderModule) destroy(device vk.Device) { vk.DestroyShaderModule(device, s.module, nil) }

type pipelineLayout struct{ layout vk.PipelineLayout }

func (l pipelineLayout) destroy(device vk.Device) { vk.DestroyPipelineLayout(device, l.layout, nil) }

type pipeline struct{ pipeline vk.Pipeline }

func (p pipeline) destroy(device vk.Device) { vk.DestroyPipeline(device, p.pipeline, nil) }

func (b *buffer) destroy(device vk.Device) { b.release() }

// Device implements vkbackend.Device on a window surface.
type Device struct {
	log logrus.FieldLogger

	instance       vk.Instance
	surface        vk.Surface
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queue          vk.Queue
	queueFamily    uint32
	allocator      *memoryAllocator
	pipelineCache  vk.PipelineCache

	provider      SurfaceProvider
	swapchainSize uint32
	swapchain     *swapchain

	commandPool             vk.CommandPool
	commandBuffers          []vk.CommandBuffer
	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemaphore vk.Semaphore
	imageFence              vk.Fence
	imageIndex              uint32
	recording               bool

	next    vkbackend.Handle
	objects map[vkbackend.Handle]object

	// garbage is destroyed once the frame that may use it has finished.
	garbage []object
}

func (d *Device) add(o object) vkbackend.Handle {
	d.next++
	d.objects[d.next] = o
	return d.next
}

func (d *Device) lookup(h vkbackend.Handle) object {
	o, ok := d.objects[h]
	if !ok {
		panic(fmt.Sprintf("vknative: unknown handle %d", h))
	}
	return o
}

// Destroy implements vkbackend.Device.
func (d *Device) Destroy(h vkbackend.Handle) {
	o := d.lookup(h)
	delete(d.objects, h)
	d.garbage = append(d.garbage, o)
}

func (d *Device) collectGarbage() {
	for _, o := range d.garbage {
		o.destroy(d.device)
	}
	d.garbage = d.garbage[:0]
}

// findQueueFamily returns a family that can draw and present to surface.
func findQueueFamily(device vk.PhysicalDevice, surface vk.Surface) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &present)
		if present.B() {
			return i, true
		}
	}
	return 0, false
}

func (d *Device) createLogicalDevice() error {
	devices, err := enumerateDevices(d.instance)
	if err != nil {
		return err
	}
	found := false
	for _, pd := range devices {
		if family, ok := findQueueFamily(pd, d.surface); ok {
			d.physicalDevice, d.queueFamily, found = pd, family, true
			break
		}
	}
	if !found {
		return errors.New("no GPU can draw to the window surface")
	}
	d.log.WithField("gpu", deviceInfo(d.physicalDevice).Name).Info("Vulkan device selected")

	extensions := []string{vk.KhrSwapchainExtensionName}
	dci := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.queueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	if err := vk.Error(vk.CreateDevice(d.physicalDevice, &dci, nil, &d.device)); err != nil {
		return fmt.Errorf("vk.CreateDevice(): %w", err)
	}
	vk.GetDeviceQueue(d.device, d.queueFamily, 0, &d.queue)
	d.allocator = newMemoryAllocator(d.device, d.physicalDevice)

	pcci := vk.PipelineCacheCreateInfo{SType: vk.StructureTypePipelineCacheCreateInfo}
	if err := vk.Error(vk.CreatePipelineCache(d.device, &pcci, nil, &d.pipelineCache)); err != nil {
		return fmt.Errorf("vk.CreatePipelineCache(): %w", err)
	}
	return nil
}

func (d *Device) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &d.imageAvailableSemaphore)); err != nil {
		return fmt.Errorf("vk.CreateSemaphore(): %w", err)
	}
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &d.renderFinishedSemaphore)); err != nil {
		return fmt.Errorf("vk.CreateSemaphore(): %w", err)
	}
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &d.imageFence)); err != nil {
		return fmt.Errorf("vk.CreateFence(): %w", err)
	}

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := vk.Error(vk.CreateCommandPool(d.device, &cpci, nil, &d.commandPool)); err != nil {
		return fmt.Errorf("vk.CreateCommandPool(): %w", err)
	}
	return nil
}

func (d *Device) allocateCommandBuffers() error {
	n := len(d.swapchain.images)
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}
	d.commandBuffers = make([]vk.CommandBuffer, n)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, d.commandBuffers)); err != nil {
		d.commandBuffers = nil
		return fmt.Errorf("vk.AllocateCommandBuffers(): %w", err)
	}
	return nil
}

func (d *Device) freeCommandBuffers() {
	if len(d.commandBuffers) > 0 {
		vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(d.commandBuffers)), d.commandBuffers)
		d.commandBuffers = nil
	}
}

// WaitIdle implements vkbackend.Device.
func (d *Device) WaitIdle() {
	if d.device != nil {
		vk.DeviceWaitIdle(d.device)
	}
}

// Close implements vkbackend.Device. Every object still owned through a
// handle is destroyed.
func (d *Device) Close() {
	if d.device != nil {
		vk.DeviceWaitIdle(d.device)
		if len(d.objects) > 0 {
			d.log.WithField("objects", len(d.objects)).Warn("destroying leaked Vulkan objects")
		}
		for h, o := range d.objects {
			d.garbage = append(d.garbage, o)
			delete(d.objects, h)
		}
		d.collectGarbage()

		d.freeCommandBuffers()
		if d.commandPool != nil {
			vk.DestroyCommandPool(d.device, d.commandPool, nil)
		}
		vk.DestroySemaphore(d.device, d.imageAvailableSemaphore, nil)
		vk.DestroySemaphore(d.device, d.renderFinishedSemaphore, nil)
		vk.DestroyFence(d.device, d.imageFence, nil)
		if d.swapchain != nil {
			d.swapchain.destroy(d.device, true)
			d.swapchain = nil
		}
		vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
	if d.surface != vk.NullSurface {
		vk.DestroySurface(d.instance, d.surface, nil)
		d.surface = vk.NullSurface
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

var _ vkbackend.Device = (*Device)(nil)
