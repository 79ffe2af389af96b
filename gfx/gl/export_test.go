// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

import "github.com/devblok/korugfx/gfx"

// Bindings is the resolved binding table of a bundle entry.
type Bindings struct {
	Uniforms [gfx.NumShaderStages][gfx.MaxNumUniformBlocks][]uniformLocation
	Samplers [gfx.NumShaderStages][gfx.MaxNumTextures]int
}

func BundleProgram(obj gfx.Object, index int) uint32 {
	return obj.(*programBundle).Program(index)
}

func BundleBindings(obj gfx.Object, index int) Bindings {
	e := obj.(*programBundle).entries[index]
	return Bindings{Uniforms: e.uniforms, Samplers: e.samplers}
}

func UniformLocationOf(obj gfx.Object, index int, stage gfx.ShaderStage, slot, comp int) int32 {
	return obj.(*programBundle).entries[index].uniforms[stage][slot][comp].location
}

func DrawStateProgram(obj gfx.Object) uint32 {
	return obj.(*drawState).entry().program
}

func MeshVAO(obj gfx.Object) uint32 {
	return obj.(*mesh).vao
}

func DrawStateMesh(obj gfx.Object) gfx.Object {
	return obj.(*drawState).mesh
}

func DrawStateVAO(obj gfx.Object) uint32 {
	return obj.(*drawState).mesh.vao
}

func (b *Backend) CachedDepthMask() bool {
	return b.state.depthMask
}
