// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

import (
	"github.com/devblok/korugfx/gfx"
)

type mesh struct {
	b         *Backend
	vao       uint32
	vbo       uint32
	ibo       uint32
	indexType gfx.IndexType
}

func (m *mesh) Release() {
	m.b.forgetMesh(m)
	if m.vao != 0 {
		m.b.deleteVertexArray(m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		m.b.f.DeleteBuffer(m.vbo)
		m.vbo = 0
	}
	if m.ibo != 0 {
		m.b.f.DeleteBuffer(m.ibo)
		m.ibo = 0
	}
}

func (m *mesh) LiveHandles() int {
	n := 0
	for _, h := range []uint32{m.vao, m.vbo, m.ibo} {
		if h != 0 {
			n++
		}
	}
	return n
}

func bufferUsage(u gfx.Usage) Enum {
	switch u {
	case gfx.Dynamic:
		return DYNAMIC_DRAW
	case gfx.Stream:
		return STREAM_DRAW
	}
	return STATIC_DRAW
}

func vertexType(f gfx.VertexFormat) Enum {
	switch f {
	case gfx.Byte4, gfx.Byte4N:
		return BYTE
	case gfx.UByte4, gfx.UByte4N:
		return UNSIGNED_BYTE
	case gfx.Short2, gfx.Short2N, gfx.Short4, gfx.Short4N:
		return SHORT
	}
	return FLOAT
}

func indexType(t gfx.IndexType) Enum {
	if t == gfx.Index32 {
		return UNSIGNED_INT
	}
	return UNSIGNED_SHORT
}

// CreateMesh implements gfx.Factory. The vertex array captures the
// attribute layout, attribute locations are the VertexAttr ordinals the
// programs were linked with.
func (b *Backend) CreateMesh(setup gfx.MeshSetup, data []byte) (gfx.Object, error) {
	m := &mesh{
		b:         b,
		indexType: setup.IndexType,
	}
	usage := bufferUsage(setup.Usage)
	vbSize := setup.VertexDataSize()

	m.vao = b.f.CreateVertexArray()
	b.bindVertexArray(m.vao)

	m.vbo = b.f.CreateBuffer()
	b.f.BindBuffer(ARRAY_BUFFER, m.vbo)
	var vertices []byte
	if len(data) > 0 {
		vertices = data[:vbSize]
	}
	b.f.BufferData(ARRAY_BUFFER, vbSize, vertices, usage)

	stride := setup.Layout.ByteSize()
	for i := 0; i < setup.Layout.NumComponents(); i++ {
		comp := setup.Layout.Component(i)
		b.f.EnableVertexAttribArray(uint32(comp.Attr))
		b.f.VertexAttribPointer(uint32(comp.Attr), comp.Format.NumElements(), vertexType(comp.Format),
			comp.Format.Normalized(), stride, setup.Layout.ComponentByteOffset(i))
	}

	if setup.IndexType != gfx.IndexNone {
		m.ibo = b.f.CreateBuffer()
		b.f.BindBuffer(ELEMENT_ARRAY_BUFFER, m.ibo)
		var indices []byte
		if len(data) > 0 {
			indices = data[vbSize:]
		}
		b.f.BufferData(ELEMENT_ARRAY_BUFFER, setup.IndexDataSize(), indices, usage)
	}
	b.bindVertexArray(0)

	if err := b.checkError("CreateMesh"); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

// UpdateVertices implements gfx.Device.
func (b *Backend) UpdateVertices(obj gfx.Object, data []byte) error {
	m := obj.(*mesh)
	b.f.BindBuffer(ARRAY_BUFFER, m.vbo)
	b.f.BufferSubData(ARRAY_BUFFER, 0, data)
	return b.checkError("UpdateVertices")
}
