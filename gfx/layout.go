// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "fmt"

// VertexComponent is one attribute of a vertex.
type VertexComponent struct {
	Attr   VertexAttr
	Format VertexFormat
}

// VertexLayout describes the interleaved components of a vertex.
type VertexLayout struct {
	comps [MaxNumVertexLayoutComponents]VertexComponent
	num   int
}

// NewVertexLayout builds a layout from components.
func NewVertexLayout(comps ...VertexComponent) (VertexLayout, error) {
	var l VertexLayout
	for _, c := range comps {
		if err := l.Add(c.Attr, c.Format); err != nil {
			return VertexLayout{}, err
		}
	}
	return l, nil
}

// Add appends a component. An attribute can only appear once.
func (l *VertexLayout) Add(attr VertexAttr, format VertexFormat) error {
	if attr < 0 || attr >= NumVertexAttrs {
		return fmt.Errorf("gfx: invalid vertex attribute %d", attr)
	}
	if format < 0 || format >= NumVertexFormats {
		return fmt.Errorf("gfx: invalid vertex format %d", format)
	}
	if l.Contains(attr) {
		return fmt.Errorf("gfx: vertex attribute %s already in layout", attr)
	}
	if l.num == MaxNumVertexLayoutComponents {
		return &CapacityError{Table: "vertex layout", Limit: MaxNumVertexLayoutComponents}
	}
	l.comps[l.num] = VertexComponent{Attr: attr, Format: format}
	l.num++
	return nil
}

// NumComponents returns the number of components.
func (l VertexLayout) NumComponents() int {
	return l.num
}

// Empty reports whether the layout has no components.
func (l VertexLayout) Empty() bool {
	return l.num == 0
}

// Component returns the component at index.
func (l VertexLayout) Component(index int) VertexComponent {
	return l.comps[index]
}

// ByteSize returns the size of one vertex.
func (l VertexLayout) ByteSize() int {
	size := 0
	for i := 0; i < l.num; i++ {
		size += l.comps[i].Format.ByteSize()
	}
	return size
}

// ComponentByteOffset returns the offset of the component at index.
func (l VertexLayout) ComponentByteOffset(index int) int {
	offset := 0
	for i := 0; i < index; i++ {
		offset += l.comps[i].Format.ByteSize()
	}
	return offset
}

// ComponentIndex returns the index of attr, or -1.
func (l VertexLayout) ComponentIndex(attr VertexAttr) int {
	for i := 0; i < l.num; i++ {
		if l.comps[i].Attr == attr {
			return i
		}
	}
	return -1
}

// Contains reports whether the layout has a component for attr.
func (l VertexLayout) Contains(attr VertexAttr) bool {
	return l.ComponentIndex(attr) >= 0
}

// Satisfies reports whether every attribute of required is present in l.
func (l VertexLayout) Satisfies(required VertexLayout) bool {
	for i := 0; i < required.num; i++ {
		if !l.Contains(required.comps[i].Attr) {
			return false
		}
	}
	return true
}

// UniformType is the type of a uniform block component.
type UniformType int

// Uniform types.
const (
	UniformFloat UniformType = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
)

// ByteSize returns the size of one element.
func (t UniformType) ByteSize() int {
	switch t {
	case UniformFloat:
		return 4
	case UniformVec2:
		return 8
	case UniformVec3:
		return 12
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	}
	return 0
}

// UniformComponent is a named member of a uniform block.
type UniformComponent struct {
	Name string
	Type UniformType
	Num  int
}

// ByteSize returns the size of all elements of the component.
func (c UniformComponent) ByteSize() int {
	return c.Type.ByteSize() * c.Num
}

// UniformLayout describes the tightly packed members of a uniform block.
type UniformLayout struct {
	comps [MaxNumUniformComponents]UniformComponent
	num   int
}

// Add appends a single element component.
func (l *UniformLayout) Add(name string, typ UniformType) error {
	return l.AddArray(name, typ, 1)
}

// AddArray appends an array component.
func (l *UniformLayout) AddArray(name string, typ UniformType, num int) error {
	if name == "" {
		return fmt.Errorf("gfx: uniform component needs a name")
	}
	if typ < UniformFloat || typ > UniformMat4 || num < 1 {
		return fmt.Errorf("gfx: invalid uniform component %s", name)
	}
	if l.ComponentIndex(name) >= 0 {
		return fmt.Errorf("gfx: uniform component %s already in layout", name)
	}
	if l.num == MaxNumUniformComponents {
		return &CapacityError{Table: "uniform layout", Limit: MaxNumUniformComponents}
	}
	l.comps[l.num] = UniformComponent{Name: name, Type: typ, Num: num}
	l.num++
	return nil
}

// NumComponents returns the number of components.
func (l UniformLayout) NumComponents() int {
	return l.num
}

// Component returns the component at index.
func (l UniformLayout) Component(index int) UniformComponent {
	return l.comps[index]
}

// ComponentIndex returns the index of the named component, or -1.
func (l UniformLayout) ComponentIndex(name string) int {
	for i := 0; i < l.num; i++ {
		if l.comps[i].Name == name {
			return i
		}
	}
	return -1
}

// ByteSize returns the size of the block.
func (l UniformLayout) ByteSize() int {
	return l.ComponentByteOffset(l.num)
}

// ComponentByteOffset returns the offset of the component at index.
func (l UniformLayout) ComponentByteOffset(index int) int {
	offset := 0
	for i := 0; i < index; i++ {
		offset += l.comps[i].ByteSize()
	}
	return offset
}
