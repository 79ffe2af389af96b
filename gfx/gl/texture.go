// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

type texture struct {
	b      *Backend
	tex    uint32
	fbo    uint32
	depth  uint32
	width  int
	height int
}

func (t *texture) Release() {
	if t.fbo != 0 {
		t.b.deleteFramebuffer(t.fbo)
		t.fbo = 0
	}
	if t.depth != 0 {
		t.b.f.DeleteRenderbuffer(t.depth)
		t.depth = 0
	}
	if t.tex != 0 {
		t.b.deleteTexture(t.tex)
		t.tex = 0
	}
}

func (t *texture) LiveHandles() int {
	n := 0
	for _, h := range []uint32{t.tex, t.fbo, t.depth} {
		if h != 0 {
			n++
		}
	}
	return n
}

// pixelFormat returns the internal format, format and type of f.
func pixelFormat(f gfx.PixelFormat) (internal, format, typ Enum) {
	switch f {
	case gfx.RGB8:
		return RGB8, RGB, UNSIGNED_BYTE
	case gfx.R32F:
		return R32F, RED, FLOAT
	case gfx.D24S8:
		return DEPTH24_STENCIL8, 0, 0
	case gfx.D32F:
		return DEPTH_COMPONENT32F, 0, 0
	}
	return RGBA8, RGBA, UNSIGNED_BYTE
}

func textureFilter(f gfx.TextureFilter) int {
	if f == gfx.FilterNearest {
		return int(NEAREST)
	}
	return int(LINEAR)
}

func textureWrap(w gfx.TextureWrap) int {
	switch w {
	case gfx.WrapClampToEdge:
		return int(CLAMP_TO_EDGE)
	case gfx.WrapMirroredRepeat:
		return int(MIRRORED_REPEAT)
	}
	return int(REPEAT)
}

// CreateTexture implements gfx.Factory.
func (b *Backend) CreateTexture(setup gfx.TextureSetup, data []byte) (gfx.Object, error) {
	t := &texture{
		b:      b,
		width:  setup.Width,
		height: setup.Height,
	}
	t.tex = b.f.CreateTexture()
	b.bindTexture(0, t.tex)
	b.f.TexParameteri(TEXTURE_2D, TEXTURE_MIN_FILTER, textureFilter(setup.Filter))
	b.f.TexParameteri(TEXTURE_2D, TEXTURE_MAG_FILTER, textureFilter(setup.Filter))
	b.f.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_S, textureWrap(setup.Wrap))
	b.f.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_T, textureWrap(setup.Wrap))
	internal, format, typ := pixelFormat(setup.ColorFormat)
	b.f.TexImage2D(TEXTURE_2D, internal, setup.Width, setup.Height, format, typ, data)

	if setup.RenderTarget {
		if err := b.createFramebuffer(t, setup); err != nil {
			t.Release()
			return nil, err
		}
	}
	if err := b.checkError("CreateTexture"); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (b *Backend) createFramebuffer(t *texture, setup gfx.TextureSetup) error {
	prev, prevKnown := b.state.fbo, b.state.has(knownFBO)

	t.fbo = b.f.CreateFramebuffer()
	b.bindFramebuffer(t.fbo)
	b.f.FramebufferTexture2D(FRAMEBUFFER, COLOR_ATTACHMENT0, TEXTURE_2D, t.tex)
	if setup.DepthFormat != gfx.PixelFormatNone {
		internal, _, _ := pixelFormat(setup.DepthFormat)
		attachment := DEPTH_ATTACHMENT
		if setup.DepthFormat == gfx.D24S8 {
			attachment = DEPTH_STENCIL_ATTACHMENT
		}
		t.depth = b.f.CreateRenderbuffer()
		b.f.BindRenderbuffer(RENDERBUFFER, t.depth)
		b.f.RenderbufferStorage(RENDERBUFFER, internal, setup.Width, setup.Height)
		b.f.FramebufferRenderbuffer(FRAMEBUFFER, attachment, RENDERBUFFER, t.depth)
	}
	status := b.f.CheckFramebufferStatus(FRAMEBUFFER)

	if prevKnown {
		b.bindFramebuffer(prev)
	} else {
		b.bindFramebuffer(0)
	}
	if status != FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("glCheckFramebufferStatus(): incomplete framebuffer %#04x", uint32(status))
	}
	return nil
}
