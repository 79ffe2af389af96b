// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/devblok/korugfx/resource"

// StageSource holds every way a single shader stage can be provided:
// source text or byte code per language, a function in the bundle's
// library, or a precompiled shader resource.
type StageSource struct {
	Sources  [NumShaderLangs]string
	ByteCode [NumShaderLangs][]byte
	Function string
	Shader   resource.Id
}

// HasSource reports whether source text is set for lang.
func (s StageSource) HasSource(lang ShaderLang) bool {
	return s.Sources[lang] != ""
}

// HasByteCode reports whether byte code is set for lang.
func (s StageSource) HasByteCode(lang ShaderLang) bool {
	return len(s.ByteCode[lang]) > 0
}

// HasShader reports whether the stage references a shader resource.
func (s StageSource) HasShader() bool {
	return s.Shader.IsValid()
}

// ShaderSetup describes a standalone shader stage that program bundles can
// reference once it is valid.
type ShaderSetup struct {
	Locator resource.Locator
	Stage   ShaderStage
	Source  StageSource
}

// NewShaderSetup creates a setup for a shader stage.
func NewShaderSetup(loc resource.Locator, stage ShaderStage) ShaderSetup {
	return ShaderSetup{
		Locator: loc,
		Stage:   stage,
	}
}

// SetSource sets the source text for lang.
func (s *ShaderSetup) SetSource(lang ShaderLang, src string) {
	s.Source.Sources[lang] = src
}

// SetByteCode sets the byte code for lang.
func (s *ShaderSetup) SetByteCode(lang ShaderLang, code []byte) {
	s.Source.ByteCode[lang] = code
}

// ResourceLocator implements ResourceSetup.
func (s ShaderSetup) ResourceLocator() resource.Locator {
	return s.Locator
}

// ResourceType implements ResourceSetup.
func (s ShaderSetup) ResourceType() resource.Type {
	return TypeShader
}
