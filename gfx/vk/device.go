// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

func (b *Backend) setViewport(x, y, width, height int) {
	vp := [4]int{x, y, width, height}
	if b.cache.viewport == vp {
		return
	}
	if enc := b.encoder(); enc != nil {
		enc.SetViewport(x, y, width, height)
		b.cache.viewport = vp
	}
}

// ApplyRenderTarget implements gfx.Device. Only the swapchain can be
// rendered to.
func (b *Backend) ApplyRenderTarget(target gfx.Object, attrs gfx.DisplayAttrs) {
	if target != nil {
		b.log.Error("offscreen render targets are not supported")
		return
	}
	b.setViewport(0, 0, attrs.FramebufferWidth, attrs.FramebufferHeight)
}

// ApplyViewport implements gfx.Device.
func (b *Backend) ApplyViewport(x, y, width, height int) {
	b.setViewport(x, y, width, height)
}

// ApplyDrawState implements gfx.Device. The pipeline is bound by Draw
// once the topology is known.
func (b *Backend) ApplyDrawState(obj gfx.Object) {
	ds := obj.(*drawState)
	b.cur = ds
	enc := b.encoder()
	if enc == nil {
		return
	}
	m := ds.mesh
	if b.cache.vb != m.vb {
		enc.BindVertexBuffer(m.vb)
		b.cache.vb = m.vb
	}
	if m.ib != 0 && b.cache.ib != m.ib {
		enc.BindIndexBuffer(m.ib, m.index32)
		b.cache.ib = m.ib
	}
}

// ApplyUniformBlock implements gfx.Device. Data is cut or zero padded to
// the size of the block's push constant range.
func (b *Backend) ApplyUniformBlock(obj gfx.Object, stage gfx.ShaderStage, slot int, data []byte) {
	ds := obj.(*drawState)
	r := ds.bundle.pushRange(stage, slot)
	if r == nil {
		return
	}
	enc := b.encoder()
	if enc == nil {
		return
	}
	if len(data) != r.size {
		buf := make([]byte, r.size)
		copy(buf, data)
		data = buf
	}
	enc.PushConstants(ds.bundle.layout, stage, r.offset, data)
}

// ApplyTexture implements gfx.Device. Textures cannot be created, so there
// is never one to bind.
func (b *Backend) ApplyTexture(obj gfx.Object, stage gfx.ShaderStage, slot int, tex gfx.Object) {}

// Clear implements gfx.Device.
func (b *Backend) Clear(state gfx.ClearState) {
	if state.Channels == 0 {
		return
	}
	if enc := b.encoder(); enc != nil {
		enc.ClearAttachments(state.Channels, [4]float32(state.Color), state.Depth, state.Stencil)
	}
}

// Draw implements gfx.Device.
func (b *Backend) Draw(group gfx.PrimitiveGroup, numInstances int) {
	ds := b.cur
	if ds == nil {
		return
	}
	enc := b.encoder()
	if enc == nil {
		return
	}
	p, err := ds.pipeline(group.Type)
	if err != nil {
		b.log.WithError(err).WithField("primitive", group.Type).Error("draw skipped")
		return
	}
	if b.cache.pipeline != p {
		enc.BindPipeline(p)
		b.cache.pipeline = p
	}
	if ds.mesh.ib == 0 {
		enc.Draw(group.NumElements, numInstances, group.BaseElement)
		return
	}
	enc.DrawIndexed(group.NumElements, numInstances, group.BaseElement)
}

// ReadPixels implements gfx.Device. Render targets are not readable
// from the CPU.
func (b *Backend) ReadPixels(width, height int, buf []byte) error {
	return fmt.Errorf("vk: read pixels: %w", gfx.ErrNotSupported)
}

// CommitFrame implements gfx.Device. A frame with no commands is not
// submitted.
func (b *Backend) CommitFrame() {
	if b.enc != nil {
		if err := b.dev.EndFrame(); err != nil {
			b.log.WithError(err).Warn("frame not presented")
		}
	}
	b.enc = nil
	b.frameFailed = false
	b.cache.reset()
}

// ResetState implements gfx.Device.
func (b *Backend) ResetState() {
	b.cache.reset()
	b.cur = nil
}
