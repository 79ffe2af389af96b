// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package d3d11

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

func topology(t gfx.PrimitiveType) Topology {
	switch t {
	case gfx.Points:
		return TopologyPointList
	case gfx.Lines:
		return TopologyLineList
	case gfx.LineStrip:
		return TopologyLineStrip
	case gfx.TriangleStrip:
		return TopologyTriangleStrip
	}
	return TopologyTriangleList
}

func (b *Backend) setRenderTargets(rtv, dsv Handle) {
	if b.cache.rtv != rtv || b.cache.dsv != dsv {
		b.ctx.OMSetRenderTargets(rtv, dsv)
		b.cache.rtv, b.cache.dsv = rtv, dsv
	}
}

func (b *Backend) setViewport(x, y, width, height int) {
	vp := [4]int{x, y, width, height}
	if b.cache.viewport != vp {
		b.ctx.RSSetViewport(x, y, width, height)
		b.cache.viewport = vp
	}
}

// ApplyRenderTarget implements gfx.Device.
func (b *Backend) ApplyRenderTarget(target gfx.Object, attrs gfx.DisplayAttrs) {
	if target == nil {
		rtv, dsv := b.provider.D3D11DefaultRenderTarget()
		b.setRenderTargets(rtv, dsv)
		b.setViewport(0, 0, attrs.FramebufferWidth, attrs.FramebufferHeight)
		return
	}
	t := target.(*texture)
	b.setRenderTargets(t.rtv, t.dsv)
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
	e := ds.entry()
	b.setShader(gfx.VertexStage, e.vs)
	b.setShader(gfx.FragmentStage, e.ps)

	if b.cache.layout != ds.layout {
		b.ctx.IASetInputLayout(ds.layout)
		b.cache.layout = ds.layout
	}
	m := ds.mesh
	if b.cache.vb != m.vb {
		b.ctx.IASetVertexBuffer(m.vb, m.stride, 0)
		b.cache.vb = m.vb
	}
	if m.ib != 0 && b.cache.ib != m.ib {
		b.ctx.IASetIndexBuffer(m.ib, m.indexFormat, 0)
		b.cache.ib = m.ib
	}

	if b.cache.rasterizer != ds.rasterizer {
		b.ctx.RSSetState(ds.rasterizer)
		b.cache.rasterizer = ds.rasterizer
	}
	if b.cache.blend != ds.blend {
		b.ctx.OMSetBlendState(ds.blend)
		b.cache.blend = ds.blend
	}
	if b.cache.depth != ds.depth {
		b.ctx.OMSetDepthStencilState(ds.depth)
		b.cache.depth = ds.depth
	}

	for i := 0; i < ds.bundle.numUB; i++ {
		ub := &ds.bundle.ubs[i]
		b.setConstantBuffer(ub.stage, ub.slot, ub.cb)
	}
}

// ApplyUniformBlock implements gfx.Device.
func (b *Backend) ApplyUniformBlock(obj gfx.Object, stage gfx.ShaderStage, slot int, data []byte) {
	ub := obj.(*drawState).bundle.uniformBlock(stage, slot)
	if ub == nil {
		return
	}
	size := roundUp16(ub.size)
	if cap(b.scratch) < size {
		b.scratch = make([]byte, size)
	}
	buf := b.scratch[:size]
	n := copy(buf, data)
	for i := n; i < size; i++ {
		buf[i] = 0
	}
	b.ctx.UpdateSubresource(ub.cb, buf)
	b.setConstantBuffer(stage, slot, ub.cb)
}

// ApplyTexture implements gfx.Device.
func (b *Backend) ApplyTexture(obj gfx.Object, stage gfx.ShaderStage, slot int, tex gfx.Object) {
	if slot < 0 || slot >= gfx.MaxNumTextures {
		return
	}
	t := tex.(*texture)
	b.setTexture(stage, slot, t.srv, t.sampler)
}

// Clear implements gfx.Device. Write masks live in the blend and depth
// states, clearing leaves them untouched.
func (b *Backend) Clear(state gfx.ClearState) {
	rtv, dsv := b.cache.rtv, b.cache.dsv
	if rtv == unknown {
		rtv, dsv = b.provider.D3D11DefaultRenderTarget()
	}
	if state.Channels&gfx.ChannelRGBA != 0 && rtv != 0 {
		b.ctx.ClearRenderTargetView(rtv, [4]float32(state.Color))
	}
	depth := state.Channels&gfx.ChannelDepth != 0
	stencil := state.Channels&gfx.ChannelStencil != 0
	if (depth || stencil) && dsv != 0 {
		b.ctx.ClearDepthStencilView(dsv, depth, stencil, state.Depth, state.Stencil)
	}
}

// Draw implements gfx.Device.
func (b *Backend) Draw(group gfx.PrimitiveGroup, numInstances int) {
	if b.cur == nil {
		return
	}
	topo := topology(group.Type)
	if b.cache.topology != topo {
		b.ctx.IASetPrimitiveTopology(topo)
		b.cache.topology = topo
	}
	if b.cur.mesh.ib == 0 {
		b.ctx.DrawInstanced(group.NumElements, numInstances, group.BaseElement)
		return
	}
	b.ctx.DrawIndexedInstanced(group.NumElements, numInstances, group.BaseElement)
}

// ReadPixels implements gfx.Device. Render targets are not readable
// from the CPU.
func (b *Backend) ReadPixels(width, height int, buf []byte) error {
	return fmt.Errorf("d3d11: read pixels: %w", gfx.ErrNotSupported)
}

// CommitFrame implements gfx.Device.
func (b *Backend) CommitFrame() {
	b.ctx.Flush()
}

// ResetState implements gfx.Device.
func (b *Backend) ResetState() {
	b.cache.reset()
	b.cur = nil
}
