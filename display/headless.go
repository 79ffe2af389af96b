// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package display holds display implementations that need no window
// system. See sdldisplay for a real window.
package display

import (
	"errors"

	"github.com/devblok/korugfx/gfx"
)

// Headless is a display without a window. It reports a quit request once
// QuitAfter frames were presented, zero never quits.
type Headless struct {
	QuitAfter int

	attrs  gfx.DisplayAttrs
	up     bool
	quit   bool
	frames int
	events int
}

// NewHeadless creates a headless display.
func NewHeadless(quitAfter int) *Headless {
	return &Headless{QuitAfter: quitAfter}
}

// SetupDisplay implements gfx.Display.
func (h *Headless) SetupDisplay(cfg gfx.Configuration) error {
	if h.up {
		return errors.New("headless display already set up")
	}
	h.attrs = gfx.DisplayAttrs{
		Width:             cfg.Width,
		Height:            cfg.Height,
		FramebufferWidth:  cfg.Width,
		FramebufferHeight: cfg.Height,
		Title:             cfg.Title,
		Windowed:          true,
		SwapInterval:      cfg.SwapInterval,
	}
	h.up = true
	h.quit = false
	h.frames = 0
	return nil
}

// DiscardDisplay implements gfx.Display.
func (h *Headless) DiscardDisplay() {
	h.up = false
}

// ProcessSystemEvents implements gfx.Display.
func (h *Headless) ProcessSystemEvents() {
	h.events++
}

// Present implements gfx.Display.
func (h *Headless) Present() {
	h.frames++
	if h.QuitAfter > 0 && h.frames >= h.QuitAfter {
		h.quit = true
	}
}

// QuitRequested implements gfx.Display.
func (h *Headless) QuitRequested() bool {
	return h.quit
}

// RequestQuit makes QuitRequested report true.
func (h *Headless) RequestQuit() {
	h.quit = true
}

// DisplayAttrs implements gfx.Display.
func (h *Headless) DisplayAttrs() gfx.DisplayAttrs {
	return h.attrs
}

// Frames returns the number of presented frames.
func (h *Headless) Frames() int {
	return h.frames
}

// IsSetup reports whether the display is set up.
func (h *Headless) IsSetup() bool {
	return h.up
}

var _ gfx.Display = (*Headless)(nil)
