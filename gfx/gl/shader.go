// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

import (
	"errors"
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

// shader is a compiled shader object that bundles can link against.
type shader struct {
	f      Functions
	stage  gfx.ShaderStage
	handle uint32
}

func (s *shader) Release() {
	if s.handle != 0 {
		s.f.DeleteShader(s.handle)
		s.handle = 0
	}
}

func (s *shader) LiveHandles() int {
	if s.handle != 0 {
		return 1
	}
	return 0
}

func shaderType(stage gfx.ShaderStage) Enum {
	if stage == gfx.VertexStage {
		return VERTEX_SHADER
	}
	return FRAGMENT_SHADER
}

// compileShader compiles src, the shader object is deleted again when
// compilation fails.
func (b *Backend) compileShader(stage gfx.ShaderStage, src string) (uint32, error) {
	handle := b.f.CreateShader(shaderType(stage))
	if handle == 0 {
		return 0, b.checkErrorOr("glCreateShader()", errors.New("glCreateShader(): no shader object"))
	}
	b.f.ShaderSource(handle, src)
	b.f.CompileShader(handle)
	if b.f.GetShaderi(handle, COMPILE_STATUS) == 0 {
		info := b.f.GetShaderInfoLog(handle)
		b.f.DeleteShader(handle)
		return 0, fmt.Errorf("glCompileShader(): %s shader: %s", stage, info)
	}
	return handle, nil
}

func (b *Backend) checkErrorOr(op string, fallback error) error {
	if err := b.checkError(op); err != nil {
		return err
	}
	return fallback
}

// CreateShader implements gfx.Factory.
func (b *Backend) CreateShader(setup gfx.ShaderSetup) (gfx.Object, error) {
	if !setup.Source.HasSource(ShaderLang) {
		return nil, fmt.Errorf("no %s source", ShaderLang)
	}
	handle, err := b.compileShader(setup.Stage, setup.Source.Sources[ShaderLang])
	if err != nil {
		return nil, err
	}
	sh := &shader{f: b.f, stage: setup.Stage, handle: handle}
	if err := b.checkError("CreateShader"); err != nil {
		sh.Release()
		return nil, err
	}
	return sh, nil
}
