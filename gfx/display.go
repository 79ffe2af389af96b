// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// DisplayAttrs are the actual attributes of a set up display.
type DisplayAttrs struct {
	Width             int
	Height            int
	FramebufferWidth  int
	FramebufferHeight int
	Title             string
	Windowed          bool
	SwapInterval      int
}

// Display is the window and swapchain collaborator.
type Display interface {
	SetupDisplay(cfg Configuration) error
	DiscardDisplay()
	ProcessSystemEvents()
	Present()
	QuitRequested() bool
	DisplayAttrs() DisplayAttrs
}
