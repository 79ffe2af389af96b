// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformData holds the bytes of one uniform block laid out by a
// UniformLayout. Values are little endian float32.
type UniformData struct {
	layout UniformLayout
	buf    []byte
}

// NewUniformData allocates zeroed block data for layout.
func NewUniformData(layout UniformLayout) *UniformData {
	return &UniformData{
		layout: layout,
		buf:    make([]byte, layout.ByteSize()),
	}
}

// Bytes returns the encoded block. The slice is reused by later Set calls.
func (d *UniformData) Bytes() []byte {
	return d.buf
}

// Layout returns the layout of the block.
func (d *UniformData) Layout() UniformLayout {
	return d.layout
}

// SetFloat sets a float component.
func (d *UniformData) SetFloat(name string, v float32) error {
	return d.set(name, UniformFloat, v)
}

// SetVec2 sets a vec2 component.
func (d *UniformData) SetVec2(name string, v mgl32.Vec2) error {
	return d.set(name, UniformVec2, v[:]...)
}

// SetVec3 sets a vec3 component.
func (d *UniformData) SetVec3(name string, v mgl32.Vec3) error {
	return d.set(name, UniformVec3, v[:]...)
}

// SetVec4 sets a vec4 component.
func (d *UniformData) SetVec4(name string, v mgl32.Vec4) error {
	return d.set(name, UniformVec4, v[:]...)
}

// SetMat4 sets a column major mat4 component.
func (d *UniformData) SetMat4(name string, m mgl32.Mat4) error {
	return d.set(name, UniformMat4, m[:]...)
}

func (d *UniformData) set(name string, typ UniformType, values ...float32) error {
	index := d.layout.ComponentIndex(name)
	if index < 0 {
		return fmt.Errorf("gfx: no uniform component %s", name)
	}
	if comp := d.layout.Component(index); comp.Type != typ {
		return fmt.Errorf("gfx: uniform component %s is not of the given type", name)
	}
	PutFloats(d.buf[d.layout.ComponentByteOffset(index):], values)
	return nil
}

// PutFloats encodes values into dst.
func PutFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Floats decodes the float32 values stored in src.
func Floats(src []byte) []float32 {
	values := make([]float32, len(src)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return values
}
