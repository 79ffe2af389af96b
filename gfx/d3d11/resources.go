// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package d3d11

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

// releaseAll releases every non-nil handle.
func releaseAll(dev Device, handles ...*Handle) {
	for _, h := range handles {
		if *h != 0 {
			dev.Release(*h)
			*h = 0
		}
	}
}

func countLive(handles ...Handle) int {
	n := 0
	for _, h := range handles {
		if h != 0 {
			n++
		}
	}
	return n
}

type mesh struct {
	dev         Device
	vb, ib      Handle
	stride      int
	indexFormat Format
	usage       gfx.Usage
}

func (m *mesh) Release() {
	releaseAll(m.dev, &m.vb, &m.ib)
}

func (m *mesh) LiveHandles() int {
	return countLive(m.vb, m.ib)
}

func bufferUsage(u gfx.Usage) Usage {
	if u == gfx.Immutable {
		return UsageImmutable
	}
	return UsageDefault
}

// CreateMesh implements gfx.Factory.
func (b *Backend) CreateMesh(setup gfx.MeshSetup, data []byte) (gfx.Object, error) {
	m := &mesh{
		dev:    b.dev,
		stride: setup.Layout.ByteSize(),
		usage:  setup.Usage,
	}
	vbSize := setup.VertexDataSize()
	var vertices, indices []byte
	if len(data) > 0 {
		vertices, indices = data[:vbSize], data[vbSize:]
	}

	var err error
	m.vb, err = b.dev.CreateBuffer(BufferDesc{Size: vbSize, Usage: bufferUsage(setup.Usage), Bind: BindVertexBuffer}, vertices)
	if err != nil {
		return nil, fmt.Errorf("d3d11: vertex buffer: %w", err)
	}
	if setup.IndexType != gfx.IndexNone {
		m.indexFormat = FormatR16UInt
		if setup.IndexType == gfx.Index32 {
			m.indexFormat = FormatR32UInt
		}
		m.ib, err = b.dev.CreateBuffer(BufferDesc{Size: setup.IndexDataSize(), Usage: bufferUsage(setup.Usage), Bind: BindIndexBuffer}, indices)
		if err != nil {
			m.Release()
			return nil, fmt.Errorf("d3d11: index buffer: %w", err)
		}
	}
	return m, nil
}

// UpdateVertices implements gfx.Device.
func (b *Backend) UpdateVertices(obj gfx.Object, data []byte) error {
	m := obj.(*mesh)
	if m.usage == gfx.Immutable {
		return fmt.Errorf("d3d11: vertex buffer is immutable")
	}
	b.ctx.UpdateSubresource(m.vb, data)
	return nil
}

type texture struct {
	dev           Device
	tex, srv      Handle
	sampler       Handle
	rtv           Handle
	depth, dsv    Handle
	width, height int
}

func (t *texture) Release() {
	releaseAll(t.dev, &t.dsv, &t.depth, &t.rtv, &t.sampler, &t.srv, &t.tex)
}

func (t *texture) LiveHandles() int {
	return countLive(t.tex, t.srv, t.sampler, t.rtv, t.depth, t.dsv)
}

func pixelFormat(f gfx.PixelFormat) (Format, error) {
	switch f {
	case gfx.RGBA8:
		return FormatR8G8B8A8UNorm, nil
	case gfx.R32F:
		return FormatR32Float, nil
	case gfx.D24S8:
		return FormatD24UNormS8UInt, nil
	case gfx.D32F:
		return FormatD32Float, nil
	}
	return FormatUnknown, fmt.Errorf("d3d11: pixel format %d not supported", f)
}

// CreateTexture implements gfx.Factory.
func (b *Backend) CreateTexture(setup gfx.TextureSetup, data []byte) (gfx.Object, error) {
	format, err := pixelFormat(setup.ColorFormat)
	if err != nil {
		return nil, err
	}
	t := &texture{dev: b.dev, width: setup.Width, height: setup.Height}
	desc := TextureDesc{
		Width:  setup.Width,
		Height: setup.Height,
		Format: format,
		Usage:  UsageDefault,
		Bind:   BindShaderResource,
	}
	if setup.RenderTarget {
		desc.Bind |= BindRenderTarget
	}

	if err := b.createTexture(t, setup, desc, data); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (b *Backend) createTexture(t *texture, setup gfx.TextureSetup, desc TextureDesc, data []byte) error {
	var err error
	if t.tex, err = b.dev.CreateTexture2D(desc, data); err != nil {
		return fmt.Errorf("d3d11: texture: %w", err)
	}
	if t.srv, err = b.dev.CreateShaderResourceView(t.tex); err != nil {
		return fmt.Errorf("d3d11: shader resource view: %w", err)
	}
	if t.sampler, err = b.dev.CreateSamplerState(SamplerDesc{Filter: setup.Filter, Wrap: setup.Wrap}); err != nil {
		return fmt.Errorf("d3d11: sampler: %w", err)
	}
	if !setup.RenderTarget {
		return nil
	}
	if t.rtv, err = b.dev.CreateRenderTargetView(t.tex); err != nil {
		return fmt.Errorf("d3d11: render target view: %w", err)
	}
	if setup.DepthFormat == gfx.PixelFormatNone {
		return nil
	}
	depthFormat, err := pixelFormat(setup.DepthFormat)
	if err != nil {
		return err
	}
	t.depth, err = b.dev.CreateTexture2D(TextureDesc{
		Width:  setup.Width,
		Height: setup.Height,
		Format: depthFormat,
		Usage:  UsageDefault,
		Bind:   BindDepthStencil,
	}, nil)
	if err != nil {
		return fmt.Errorf("d3d11: depth buffer: %w", err)
	}
	if t.dsv, err = b.dev.CreateDepthStencilView(t.depth); err != nil {
		return fmt.Errorf("d3d11: depth stencil view: %w", err)
	}
	return nil
}

// drawState owns its input layout and fixed function states.
type drawState struct {
	dev          Device
	bundle       *programBundle
	programIndex int
	mesh         *mesh
	setup        gfx.DrawStateSetup

	layout     Handle
	rasterizer Handle
	blend      Handle
	depth      Handle
}

func (d *drawState) Release() {
	releaseAll(d.dev, &d.layout, &d.rasterizer, &d.blend, &d.depth)
	d.bundle = nil
	d.mesh = nil
}

func (d *drawState) LiveHandles() int {
	return countLive(d.layout, d.rasterizer, d.blend, d.depth)
}

func (d *drawState) entry() *programEntry {
	return &d.bundle.entries[d.programIndex]
}

var semantics = [gfx.NumVertexAttrs]struct {
	name  string
	index int
}{
	gfx.Position:  {"POSITION", 0},
	gfx.Normal:    {"NORMAL", 0},
	gfx.TexCoord0: {"TEXCOORD", 0},
	gfx.TexCoord1: {"TEXCOORD", 1},
	gfx.TexCoord2: {"TEXCOORD", 2},
	gfx.TexCoord3: {"TEXCOORD", 3},
	gfx.Tangent:   {"TANGENT", 0},
	gfx.Binormal:  {"BINORMAL", 0},
	gfx.Weights:   {"BLENDWEIGHT", 0},
	gfx.Indices:   {"BLENDINDICES", 0},
	gfx.Color0:    {"COLOR", 0},
	gfx.Color1:    {"COLOR", 1},
	gfx.Instance0: {"INSTANCE", 0},
	gfx.Instance1: {"INSTANCE", 1},
	gfx.Instance2: {"INSTANCE", 2},
	gfx.Instance3: {"INSTANCE", 3},
}

var vertexFormats = [gfx.NumVertexFormats]Format{
	gfx.Float:   FormatR32Float,
	gfx.Float2:  FormatR32G32Float,
	gfx.Float3:  FormatR32G32B32Float,
	gfx.Float4:  FormatR32G32B32A32Float,
	gfx.Byte4:   FormatR8G8B8A8SInt,
	gfx.Byte4N:  FormatR8G8B8A8SNorm,
	gfx.UByte4:  FormatR8G8B8A8UInt,
	gfx.UByte4N: FormatR8G8B8A8UNorm,
	gfx.Short2:  FormatR16G16SInt,
	gfx.Short2N: FormatR16G16SNorm,
	gfx.Short4:  FormatR16G16B16A16SInt,
	gfx.Short4N: FormatR16G16B16A16SNorm,
}

func inputElements(layout gfx.VertexLayout) []InputElement {
	elems := make([]InputElement, layout.NumComponents())
	for i := range elems {
		comp := layout.Component(i)
		sem := semantics[comp.Attr]
		elems[i] = InputElement{
			SemanticName:  sem.name,
			SemanticIndex: sem.index,
			Format:        vertexFormats[comp.Format],
			Offset:        layout.ComponentByteOffset(i),
			PerInstance:   comp.Attr >= gfx.Instance0,
		}
	}
	return elems
}

// CreateDrawState implements gfx.Factory. The input layout is validated
// against the vertex shader of the selected program.
func (b *Backend) CreateDrawState(setup gfx.DrawStateSetup, deps gfx.DrawStateDeps) (gfx.Object, error) {
	pb := deps.Program.(*programBundle)
	if !pb.Select(deps.ProgramSetup.Program(deps.ProgramIndex).Mask) {
		return nil, fmt.Errorf("d3d11: %w: mask %#x", gfx.ErrNoProgram, setup.ProgramMask)
	}
	ds := &drawState{
		dev:          b.dev,
		bundle:       pb,
		programIndex: pb.selIndex,
		mesh:         deps.Mesh.(*mesh),
		setup:        setup,
	}
	if err := b.createDrawState(ds, deps.MeshSetup.Layout); err != nil {
		ds.Release()
		return nil, err
	}
	return ds, nil
}

func (b *Backend) createDrawState(ds *drawState, layout gfx.VertexLayout) error {
	var err error
	if ds.layout, err = b.dev.CreateInputLayout(inputElements(layout), ds.entry().vsByteCode); err != nil {
		return fmt.Errorf("d3d11: input layout: %w", err)
	}
	ds.rasterizer, err = b.dev.CreateRasterizerState(RasterizerDesc{
		CullEnabled: ds.setup.Rasterizer.CullFaceEnabled,
		CullFront:   ds.setup.Rasterizer.CullFace == gfx.FaceFront,
	})
	if err != nil {
		return fmt.Errorf("d3d11: rasterizer state: %w", err)
	}
	ds.blend, err = b.dev.CreateBlendState(BlendDesc{
		Enabled:        ds.setup.Blend.Enabled,
		Src:            ds.setup.Blend.SrcFactor,
		Dst:            ds.setup.Blend.DstFactor,
		ColorWriteMask: ds.setup.Blend.ColorWriteMask,
	})
	if err != nil {
		return fmt.Errorf("d3d11: blend state: %w", err)
	}
	ds.depth, err = b.dev.CreateDepthStencilState(DepthStencilDesc{
		DepthWrite: ds.setup.DepthStencil.DepthWriteEnabled,
		DepthFunc:  ds.setup.DepthStencil.DepthCmpFunc,
	})
	if err != nil {
		return fmt.Errorf("d3d11: depth stencil state: %w", err)
	}
	return nil
}
