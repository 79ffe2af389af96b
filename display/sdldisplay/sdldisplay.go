// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sdldisplay opens an SDL2 window for the GL or Vulkan backend.
// It must be used from the locked main thread.
package sdldisplay

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/devblok/korugfx/gfx"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// Display is an SDL2 window.
type Display struct {
	log     logrus.FieldLogger
	backend gfx.BackendType
	window  *sdl.Window
	glctx   sdl.GLContext
	attrs   gfx.DisplayAttrs
	quit    bool
}

// New creates an SDL display, nothing is opened before SetupDisplay.
func New() *Display {
	return &Display{}
}

// SetupDisplay implements gfx.Display.
func (d *Display) SetupDisplay(cfg gfx.Configuration) error {
	if d.window != nil {
		return errors.New("sdl display already set up")
	}
	d.log = cfg.Log().WithField("display", "sdl")
	d.backend = cfg.Backend
	if d.backend == "" {
		d.backend = gfx.DefaultBackend()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl.Init(): %w", err)
	}

	var flags uint32 = sdl.WINDOW_SHOWN
	switch d.backend {
	case gfx.BackendGL:
		flags |= sdl.WINDOW_OPENGL
		for attr, value := range map[sdl.GLattr]int{
			sdl.GL_CONTEXT_MAJOR_VERSION: 3,
			sdl.GL_CONTEXT_MINOR_VERSION: 3,
			sdl.GL_CONTEXT_PROFILE_MASK:  sdl.GL_CONTEXT_PROFILE_CORE,
			sdl.GL_DOUBLEBUFFER:          1,
			sdl.GL_DEPTH_SIZE:            24,
			sdl.GL_STENCIL_SIZE:          8,
		} {
			if err := sdl.GLSetAttribute(attr, value); err != nil {
				sdl.Quit()
				return fmt.Errorf("sdl.GLSetAttribute(): %w", err)
			}
		}
	case gfx.BackendVulkan:
		flags |= sdl.WINDOW_VULKAN
		if err := sdl.VulkanLoadLibrary(""); err != nil {
			sdl.Quit()
			return fmt.Errorf("sdl.VulkanLoadLibrary(): %w", err)
		}
	default:
		sdl.Quit()
		return fmt.Errorf("sdl display does not support the %q backend", d.backend)
	}
	if !cfg.Windowed {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags)
	if err != nil {
		d.unload()
		return fmt.Errorf("sdl.CreateWindow(): %w", err)
	}
	d.window = window

	var fbw, fbh int32
	if d.backend == gfx.BackendGL {
		if d.glctx, err = window.GLCreateContext(); err != nil {
			d.DiscardDisplay()
			return fmt.Errorf("sdl.GLCreateContext(): %w", err)
		}
		if err := sdl.GLSetSwapInterval(cfg.SwapInterval); err != nil {
			d.log.WithError(err).Warn("swap interval not supported")
		}
		fbw, fbh = window.GLGetDrawableSize()
	} else {
		fbw, fbh = window.VulkanGetDrawableSize()
	}

	w, h := window.GetSize()
	d.attrs = gfx.DisplayAttrs{
		Width:             int(w),
		Height:            int(h),
		FramebufferWidth:  int(fbw),
		FramebufferHeight: int(fbh),
		Title:             cfg.Title,
		Windowed:          cfg.Windowed,
		SwapInterval:      cfg.SwapInterval,
	}
	d.quit = false
	d.log.WithFields(logrus.Fields{
		"backend": d.backend,
		"width":   d.attrs.FramebufferWidth,
		"height":  d.attrs.FramebufferHeight,
	}).Debug("window created")
	return nil
}

func (d *Display) unload() {
	if d.backend == gfx.BackendVulkan {
		sdl.VulkanUnloadLibrary()
	}
	sdl.Quit()
}

// DiscardDisplay implements gfx.Display.
func (d *Display) DiscardDisplay() {
	if d.window == nil {
		return
	}
	if d.glctx != nil {
		sdl.GLDeleteContext(d.glctx)
		d.glctx = nil
	}
	d.window.Destroy()
	d.window = nil
	d.unload()
}

// ProcessSystemEvents implements gfx.Display. Closing the window or
// pressing escape requests quit.
func (d *Display) ProcessSystemEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				d.quit = true
			}
		case *sdl.QuitEvent:
			d.quit = true
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				d.resized()
			}
		}
	}
}

func (d *Display) resized() {
	w, h := d.window.GetSize()
	d.attrs.Width, d.attrs.Height = int(w), int(h)
	var fbw, fbh int32
	if d.backend == gfx.BackendGL {
		fbw, fbh = d.window.GLGetDrawableSize()
	} else {
		fbw, fbh = d.window.VulkanGetDrawableSize()
	}
	d.attrs.FramebufferWidth, d.attrs.FramebufferHeight = int(fbw), int(fbh)
}

// Present implements gfx.Display. Vulkan presents from its own swapchain.
func (d *Display) Present() {
	if d.backend == gfx.BackendGL && d.window != nil {
		d.window.GLSwap()
	}
}

// QuitRequested implements gfx.Display.
func (d *Display) QuitRequested() bool {
	return d.quit
}

// DisplayAttrs implements gfx.Display.
func (d *Display) DisplayAttrs() gfx.DisplayAttrs {
	return d.attrs
}

// VulkanInstanceExtensions returns the instance extensions the window
// surface needs.
func (d *Display) VulkanInstanceExtensions() []string {
	return d.window.VulkanGetInstanceExtensions()
}

// VulkanProcAddr returns vkGetInstanceProcAddr of the loaded library.
func (d *Display) VulkanProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// VulkanCreateSurface creates the window surface for a VkInstance.
func (d *Display) VulkanCreateSurface(instance interface{}) (unsafe.Pointer, error) {
	return d.window.VulkanCreateSurface(instance)
}

var _ gfx.Display = (*Display)(nil)
