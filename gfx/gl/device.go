// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

import (
	"github.com/devblok/korugfx/gfx"
)

// drawState references the objects it combines, it owns no handles.
type drawState struct {
	bundle       *programBundle
	programIndex int
	mesh         *mesh
	setup        gfx.DrawStateSetup
}

func (d *drawState) Release() {
	d.bundle = nil
	d.mesh = nil
}

func (d *drawState) LiveHandles() int {
	return 0
}

func (d *drawState) entry() *programEntry {
	return &d.bundle.entries[d.programIndex]
}

// CreateDrawState implements gfx.Factory.
func (b *Backend) CreateDrawState(setup gfx.DrawStateSetup, deps gfx.DrawStateDeps) (gfx.Object, error) {
	return &drawState{
		bundle:       deps.Program.(*programBundle),
		programIndex: deps.ProgramIndex,
		mesh:         deps.Mesh.(*mesh),
		setup:        setup,
	}, nil
}

func compareFunc(f gfx.CompareFunc) Enum {
	switch f {
	case gfx.CompareNever:
		return NEVER
	case gfx.CompareLess:
		return LESS
	case gfx.CompareLessEqual:
		return LEQUAL
	case gfx.CompareEqual:
		return EQUAL
	case gfx.CompareGreaterEqual:
		return GEQUAL
	case gfx.CompareGreater:
		return GREATER
	case gfx.CompareNotEqual:
		return NOTEQUAL
	}
	return ALWAYS
}

func blendFactor(f gfx.BlendFactor) Enum {
	switch f {
	case gfx.BlendOne:
		return ONE
	case gfx.BlendSrcAlpha:
		return SRC_ALPHA
	case gfx.BlendOneMinusSrcAlpha:
		return ONE_MINUS_SRC_ALPHA
	case gfx.BlendDstAlpha:
		return DST_ALPHA
	case gfx.BlendOneMinusDstAlpha:
		return ONE_MINUS_DST_ALPHA
	}
	return ZERO
}

func primitiveMode(t gfx.PrimitiveType) Enum {
	switch t {
	case gfx.Points:
		return POINTS
	case gfx.Lines:
		return LINES
	case gfx.LineStrip:
		return LINE_STRIP
	case gfx.TriangleStrip:
		return TRIANGLE_STRIP
	}
	return TRIANGLES
}

func channelMask(c gfx.PixelChannel) [4]bool {
	return [4]bool{
		c&gfx.ChannelRed != 0,
		c&gfx.ChannelGreen != 0,
		c&gfx.ChannelBlue != 0,
		c&gfx.ChannelAlpha != 0,
	}
}

// ApplyRenderTarget implements gfx.Device.
func (b *Backend) ApplyRenderTarget(target gfx.Object, attrs gfx.DisplayAttrs) {
	if target == nil {
		b.bindFramebuffer(0)
		b.setViewport(0, 0, attrs.FramebufferWidth, attrs.FramebufferHeight)
		return
	}
	t := target.(*texture)
	b.bindFramebuffer(t.fbo)
	b.setViewport(0, 0, t.width, t.height)
}

// ApplyViewport implements gfx.Device.
func (b *Backend) ApplyViewport(x, y, width, height int) {
	b.setViewport(x, y, width, height)
}

// ApplyDrawState implements gfx.Device.
func (b *Backend) ApplyDrawState(obj gfx.Object) {
	ds := obj.(*drawState)
	b.cur = ds
	b.useProgram(ds.entry().program)
	b.bindVertexArray(ds.mesh.vao)

	depth := ds.setup.DepthStencil
	depthTest := depth.DepthCmpFunc != gfx.CompareAlways || depth.DepthWriteEnabled
	b.setCap(DEPTH_TEST, knownDepthTest, &b.state.depthTest, depthTest)
	if depthTest {
		b.setDepthFunc(compareFunc(depth.DepthCmpFunc))
	}
	b.setDepthMask(depth.DepthWriteEnabled)

	blend := ds.setup.Blend
	b.setCap(BLEND, knownBlend, &b.state.blend, blend.Enabled)
	if blend.Enabled {
		b.setBlendFunc(blendFactor(blend.SrcFactor), blendFactor(blend.DstFactor))
	}
	b.setColorMask(channelMask(blend.ColorWriteMask))

	raster := ds.setup.Rasterizer
	b.setCap(CULL_FACE, knownCull, &b.state.cull, raster.CullFaceEnabled)
	if raster.CullFaceEnabled {
		face := BACK
		if raster.CullFace == gfx.FaceFront {
			face = FRONT
		}
		b.setCullFace(face)
	}
}

// ApplyUniformBlock implements gfx.Device.
func (b *Backend) ApplyUniformBlock(obj gfx.Object, stage gfx.ShaderStage, slot int, data []byte) {
	e := obj.(*drawState).entry()
	b.useProgram(e.program)
	for _, u := range e.uniforms[stage][slot] {
		if u.location < 0 {
			continue
		}
		values := gfx.Floats(data[u.offset : u.offset+u.typ.ByteSize()*u.num])
		switch u.typ {
		case gfx.UniformFloat:
			b.f.Uniform1fv(u.location, values)
		case gfx.UniformVec2:
			b.f.Uniform2fv(u.location, values)
		case gfx.UniformVec3:
			b.f.Uniform3fv(u.location, values)
		case gfx.UniformVec4:
			b.f.Uniform4fv(u.location, values)
		case gfx.UniformMat4:
			b.f.UniformMatrix4fv(u.location, values)
		}
	}
}

// ApplyTexture implements gfx.Device.
func (b *Backend) ApplyTexture(obj gfx.Object, stage gfx.ShaderStage, slot int, tex gfx.Object) {
	unit := obj.(*drawState).entry().samplers[stage][slot]
	if unit < 0 || unit >= MaxTextureUnits {
		return
	}
	b.bindTexture(unit, tex.(*texture).tex)
}

// Clear implements gfx.Device.
func (b *Backend) Clear(state gfx.ClearState) {
	var mask Enum
	if state.Channels&gfx.ChannelRGBA != 0 {
		b.setColorMask(channelMask(state.Channels))
		b.f.ClearColor(state.Color[0], state.Color[1], state.Color[2], state.Color[3])
		mask |= COLOR_BUFFER_BIT
	}
	if state.Channels&gfx.ChannelDepth != 0 {
		b.setDepthMask(true)
		b.f.ClearDepth(state.Depth)
		mask |= DEPTH_BUFFER_BIT
	}
	if state.Channels&gfx.ChannelStencil != 0 {
		b.f.ClearStencil(int(state.Stencil))
		mask |= STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		b.f.Clear(mask)
	}
	// Clearing must not leak write masks into the applied draw state.
	if b.cur != nil {
		b.setDepthMask(b.cur.setup.DepthStencil.DepthWriteEnabled)
		b.setColorMask(channelMask(b.cur.setup.Blend.ColorWriteMask))
	}
}

// Draw implements gfx.Device.
func (b *Backend) Draw(group gfx.PrimitiveGroup, numInstances int) {
	if b.cur == nil {
		return
	}
	mode := primitiveMode(group.Type)
	m := b.cur.mesh
	if m.indexType == gfx.IndexNone {
		b.f.DrawArraysInstanced(mode, group.BaseElement, group.NumElements, numInstances)
		return
	}
	b.f.DrawElementsInstanced(mode, group.NumElements, indexType(m.indexType),
		group.BaseElement*m.indexType.ByteSize(), numInstances)
}

// ReadPixels implements gfx.Device.
func (b *Backend) ReadPixels(width, height int, buf []byte) error {
	b.f.ReadPixels(0, 0, width, height, RGBA, UNSIGNED_BYTE, buf)
	return b.checkError("ReadPixels")
}

// CommitFrame implements gfx.Device.
func (b *Backend) CommitFrame() {
	b.f.Flush()
}

// ResetState implements gfx.Device.
func (b *Backend) ResetState() {
	b.state.reset()
	b.cur = nil
}
