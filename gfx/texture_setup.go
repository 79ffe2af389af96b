// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/devblok/korugfx/resource"
)

// TextureFilter is a sampling filter.
type TextureFilter int

// Texture filters.
const (
	FilterLinear TextureFilter = iota
	FilterNearest
)

// TextureWrap is a sampling address mode.
type TextureWrap int

// Texture wraps.
const (
	WrapRepeat TextureWrap = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// TextureSetup describes a 2D texture or an offscreen render target.
type TextureSetup struct {
	Locator      resource.Locator
	Width        int
	Height       int
	ColorFormat  PixelFormat
	DepthFormat  PixelFormat
	RenderTarget bool
	Filter       TextureFilter
	Wrap         TextureWrap
}

// NewTextureSetup creates a setup for a sampled texture.
func NewTextureSetup(loc resource.Locator, width, height int, format PixelFormat) TextureSetup {
	return TextureSetup{
		Locator:     loc,
		Width:       width,
		Height:      height,
		ColorFormat: format,
	}
}

// NewRenderTargetSetup creates a setup for an offscreen render target with
// an optional depth buffer.
func NewRenderTargetSetup(loc resource.Locator, width, height int, color, depth PixelFormat) TextureSetup {
	return TextureSetup{
		Locator:      loc,
		Width:        width,
		Height:       height,
		ColorFormat:  color,
		DepthFormat:  depth,
		RenderTarget: true,
	}
}

// TextureSetupFromImage creates an RGBA8 texture setup and its pixel data
// from an image.
func TextureSetupFromImage(loc resource.Locator, img image.Image) (TextureSetup, []byte) {
	bounds := img.Bounds()
	setup := NewTextureSetup(loc, bounds.Dx(), bounds.Dy(), RGBA8)
	return setup, GetPixels(img, bounds.Dx()*4)
}

// GetPixels returns tightly packed RGBA pixels of img with the given
// row pitch.
func GetPixels(img image.Image, rowPitch int) []byte {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != rowPitch || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	pixels := make([]byte, rowPitch*bounds.Dy())
	for y := 0; y < bounds.Dy(); y++ {
		copy(pixels[y*rowPitch:], rgba.Pix[y*rgba.Stride:y*rgba.Stride+bounds.Dx()*4])
	}
	return pixels
}

// Validate checks the setup against the initial data.
func (s TextureSetup) Validate(data []byte) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("gfx: texture size %dx%d is invalid", s.Width, s.Height)
	}
	if s.ColorFormat == PixelFormatNone || s.ColorFormat.IsDepth() {
		return fmt.Errorf("gfx: texture needs a color format")
	}
	if s.DepthFormat != PixelFormatNone && (!s.RenderTarget || !s.DepthFormat.IsDepth()) {
		return fmt.Errorf("gfx: depth format is only valid on render targets")
	}
	if len(data) > 0 {
		if s.RenderTarget {
			return fmt.Errorf("gfx: render targets take no initial data")
		}
		if want := s.Width * s.Height * s.ColorFormat.ByteSize(); len(data) != want {
			return fmt.Errorf("gfx: texture data is %d bytes, expected %d", len(data), want)
		}
	}
	return nil
}

// ResourceLocator implements ResourceSetup.
func (s TextureSetup) ResourceLocator() resource.Locator {
	return s.Locator
}

// ResourceType implements ResourceSetup.
func (s TextureSetup) ResourceType() resource.Type {
	return TypeTexture
}
