// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vknative implements vk.Device with devblok/vulkan and registers
// the Vulkan backend. The display must provide the window surface.
package vknative

import (
	"fmt"
	"unsafe"

	"github.com/devblok/korugfx/gfx"
	vkbackend "github.com/devblok/korugfx/gfx/vk"
	vk "github.com/devblok/vulkan"
)

func init() {
	gfx.RegisterBackend(gfx.BackendVulkan, func(cfg gfx.Configuration, display gfx.Display) (gfx.Backend, error) {
		p, ok := display.(SurfaceProvider)
		if !ok {
			return nil, fmt.Errorf("vknative: display %T provides no Vulkan surface", display)
		}
		dev, err := Open(p, cfg)
		if err != nil {
			return nil, err
		}
		return vkbackend.New(dev, cfg), nil
	})
}

// SurfaceProvider is implemented by displays with a Vulkan capable window.
type SurfaceProvider interface {
	gfx.Display
	VulkanInstanceExtensions() []string
	VulkanProcAddr() unsafe.Pointer
	VulkanCreateSurface(instance interface{}) (unsafe.Pointer, error)
}

// Open creates the instance, device and swapchain for the window of p.
func Open(p SurfaceProvider, cfg gfx.Configuration) (*Device, error) {
	d := &Device{
		log:           cfg.Log().WithField("backend", gfx.BackendVulkan),
		provider:      p,
		swapchainSize: cfg.SwapchainSize,
		objects:       make(map[vkbackend.Handle]object),
	}
	if err := d.open(cfg.Debug); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) open(debug bool) error {
	instance, err := createInstance(d.provider.VulkanProcAddr(), d.provider.VulkanInstanceExtensions(), debug)
	if err != nil {
		return err
	}
	d.instance = instance

	surface, err := d.provider.VulkanCreateSurface(instance)
	if err != nil {
		return fmt.Errorf("vknative: create surface: %w", err)
	}
	d.surface = vk.SurfaceFromPointer(uintptr(surface))

	if err := d.createLogicalDevice(); err != nil {
		return err
	}
	if err := d.createSynchronization(); err != nil {
		return err
	}
	if d.swapchain, err = d.createSwapchain(nil); err != nil {
		return err
	}
	return d.allocateCommandBuffers()
}
