// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"errors"
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

// ErrTexturesNotSupported is returned for every texture and render target.
var ErrTexturesNotSupported = errors.New("vk: textures are not supported")

type mesh struct {
	dev     Device
	vb, ib  Handle
	index32 bool
	usage   gfx.Usage
}

func (m *mesh) Release() {
	if m.vb != 0 {
		m.dev.Destroy(m.vb)
		m.vb = 0
	}
	if m.ib != 0 {
		m.dev.Destroy(m.ib)
		m.ib = 0
	}
}

func (m *mesh) LiveHandles() int {
	n := 0
	if m.vb != 0 {
		n++
	}
	if m.ib != 0 {
		n++
	}
	return n
}

// CreateMesh implements gfx.Factory.
func (b *Backend) CreateMesh(setup gfx.MeshSetup, data []byte) (gfx.Object, error) {
	m := &mesh{
		dev:     b.dev,
		index32: setup.IndexType == gfx.Index32,
		usage:   setup.Usage,
	}
	vbSize := setup.VertexDataSize()
	var vertices, indices []byte
	if len(data) > 0 {
		vertices, indices = data[:vbSize], data[vbSize:]
	}

	var err error
	if m.vb, err = b.dev.CreateBuffer(VertexBuffer, vbSize, vertices); err != nil {
		return nil, fmt.Errorf("vk: vertex buffer: %w", err)
	}
	if setup.IndexType != gfx.IndexNone {
		if m.ib, err = b.dev.CreateBuffer(IndexBuffer, setup.IndexDataSize(), indices); err != nil {
			m.Release()
			return nil, fmt.Errorf("vk: index buffer: %w", err)
		}
	}
	return m, nil
}

// UpdateVertices implements gfx.Device.
func (b *Backend) UpdateVertices(obj gfx.Object, data []byte) error {
	m := obj.(*mesh)
	if m.usage == gfx.Immutable {
		return errors.New("vk: vertex buffer is immutable")
	}
	return b.dev.UpdateBuffer(m.vb, data)
}

// CreateTexture implements gfx.Factory.
func (b *Backend) CreateTexture(setup gfx.TextureSetup, data []byte) (gfx.Object, error) {
	return nil, ErrTexturesNotSupported
}

const numPrimitiveTypes = int(gfx.TriangleStrip) + 1

// drawState owns a pipeline per primitive type it was drawn with.
type drawState struct {
	dev   Device
	entry programEntry
	mesh  *mesh
	desc  PipelineDesc

	bundle    *programBundle
	pipelines [numPrimitiveTypes]Handle
}

func (d *drawState) Release() {
	for i, p := range d.pipelines {
		if p != 0 {
			d.dev.Destroy(p)
			d.pipelines[i] = 0
		}
	}
	d.bundle = nil
	d.mesh = nil
}

func (d *drawState) LiveHandles() int {
	n := 0
	for _, p := range d.pipelines {
		if p != 0 {
			n++
		}
	}
	return n
}

// pipeline returns the pipeline for topology t, creating it on first use.
func (d *drawState) pipeline(t gfx.PrimitiveType) (Handle, error) {
	if t < 0 || int(t) >= numPrimitiveTypes {
		return 0, fmt.Errorf("vk: invalid primitive type %d", t)
	}
	if p := d.pipelines[t]; p != 0 {
		return p, nil
	}
	desc := d.desc
	desc.Topology = t
	p, err := d.dev.CreatePipeline(desc)
	if err != nil {
		return 0, fmt.Errorf("vk: pipeline: %w", err)
	}
	d.pipelines[t] = p
	return p, nil
}

func vertexAttributes(layout gfx.VertexLayout) []VertexAttribute {
	attrs := make([]VertexAttribute, layout.NumComponents())
	for i := range attrs {
		comp := layout.Component(i)
		attrs[i] = VertexAttribute{
			Location:    int(comp.Attr),
			Format:      comp.Format,
			Offset:      layout.ComponentByteOffset(i),
			PerInstance: comp.Attr >= gfx.Instance0,
		}
	}
	return attrs
}

// CreateDrawState implements gfx.Factory. The pipeline for the topology of
// the mesh's first primitive group is created up front.
func (b *Backend) CreateDrawState(setup gfx.DrawStateSetup, deps gfx.DrawStateDeps) (gfx.Object, error) {
	pb := deps.Program.(*programBundle)
	entry := pb.entries[deps.ProgramIndex]
	ds := &drawState{
		dev:    b.dev,
		entry:  entry,
		mesh:   deps.Mesh.(*mesh),
		bundle: pb,
		desc: PipelineDesc{
			Layout:       pb.layout,
			VS:           entry.vs,
			FS:           entry.fs,
			Stride:       deps.MeshSetup.Layout.ByteSize(),
			Attributes:   vertexAttributes(deps.MeshSetup.Layout),
			DepthStencil: setup.DepthStencil,
			Blend:        setup.Blend,
			Rasterizer:   setup.Rasterizer,
		},
	}
	topology := gfx.Triangles
	if deps.MeshSetup.NumPrimitiveGroups() > 0 {
		topology = deps.MeshSetup.PrimitiveGroup(0).Type
	}
	if _, err := ds.pipeline(topology); err != nil {
		return nil, err
	}
	return ds, nil
}
