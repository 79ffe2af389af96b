// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/devblok/korugfx/resource"
)

// MeshSetup describes vertex and index buffers plus the primitive groups
// drawn from them. Initial data is passed at creation as the vertex bytes
// followed by the index bytes.
type MeshSetup struct {
	Locator     resource.Locator
	Layout      VertexLayout
	Usage       Usage
	NumVertices int
	IndexType   IndexType
	NumIndices  int

	primGroups    [MaxNumPrimGroups]PrimitiveGroup
	numPrimGroups int
}

// NewMeshSetup creates an immutable mesh setup.
func NewMeshSetup(loc resource.Locator, layout VertexLayout, numVertices int, indexType IndexType, numIndices int) MeshSetup {
	return MeshSetup{
		Locator:     loc,
		Layout:      layout,
		Usage:       Immutable,
		NumVertices: numVertices,
		IndexType:   indexType,
		NumIndices:  numIndices,
	}
}

// AddPrimitiveGroup appends a primitive group.
func (s *MeshSetup) AddPrimitiveGroup(group PrimitiveGroup) error {
	if s.numPrimGroups == MaxNumPrimGroups {
		return &CapacityError{Table: "primitive groups", Limit: MaxNumPrimGroups}
	}
	s.primGroups[s.numPrimGroups] = group
	s.numPrimGroups++
	return nil
}

// NumPrimitiveGroups returns the number of primitive groups.
func (s MeshSetup) NumPrimitiveGroups() int {
	return s.numPrimGroups
}

// PrimitiveGroup returns the primitive group at index.
func (s MeshSetup) PrimitiveGroup(index int) PrimitiveGroup {
	return s.primGroups[index]
}

// VertexDataSize returns the size of the vertex buffer.
func (s MeshSetup) VertexDataSize() int {
	return s.NumVertices * s.Layout.ByteSize()
}

// IndexDataSize returns the size of the index buffer.
func (s MeshSetup) IndexDataSize() int {
	return s.NumIndices * s.IndexType.ByteSize()
}

// Validate checks the setup against the initial data.
func (s MeshSetup) Validate(data []byte) error {
	if s.Layout.Empty() {
		return fmt.Errorf("gfx: mesh has no vertex layout")
	}
	if s.NumVertices <= 0 {
		return fmt.Errorf("gfx: mesh has no vertices")
	}
	if s.IndexType == IndexNone && s.NumIndices != 0 {
		return fmt.Errorf("gfx: mesh has indices without an index type")
	}
	if s.Usage == Immutable || len(data) > 0 {
		if want := s.VertexDataSize() + s.IndexDataSize(); len(data) != want {
			return fmt.Errorf("gfx: mesh data is %d bytes, expected %d", len(data), want)
		}
	}
	elements := s.NumVertices
	if s.IndexType != IndexNone {
		elements = s.NumIndices
	}
	for i := 0; i < s.numPrimGroups; i++ {
		g := s.primGroups[i]
		if g.BaseElement < 0 || g.NumElements < 0 || g.BaseElement+g.NumElements > elements {
			return fmt.Errorf("gfx: primitive group %d exceeds the mesh", i)
		}
	}
	return nil
}

// ResourceLocator implements ResourceSetup.
func (s MeshSetup) ResourceLocator() resource.Locator {
	return s.Locator
}

// ResourceType implements ResourceSetup.
func (s MeshSetup) ResourceType() resource.Type {
	return TypeMesh
}
