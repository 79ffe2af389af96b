// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/devblok/korugfx/resource"
)

// ProgramEntry is one vertex/fragment pair of a bundle, selected by Mask.
type ProgramEntry struct {
	Mask   uint32
	VS, FS StageSource

	// Layout lists the vertex attributes the program reads. Meshes whose
	// layout satisfies it can be drawn with the entry.
	Layout VertexLayout
}

// UniformBlockSetup binds a uniform block to a stage and slot.
type UniformBlockSetup struct {
	Name   string
	Layout UniformLayout
	Stage  ShaderStage
	Slot   int
}

// TextureBindingSetup binds a sampler to a stage and slot.
type TextureBindingSetup struct {
	Name  string
	Type  TextureType
	Stage ShaderStage
	Slot  int
}

// ProgramBundleSetup describes a set of program variants sharing the same
// uniform blocks and texture bindings.
type ProgramBundleSetup struct {
	Locator resource.Locator

	// Library is an opaque blob holding named shader functions, used by
	// entries set up with AddProgramFromLibrary.
	Library []byte

	programs    [MaxNumBundlePrograms]ProgramEntry
	numPrograms int

	uniformBlocks    [MaxNumUniformBlocks]UniformBlockSetup
	numUniformBlocks int

	textures    [MaxNumTextures]TextureBindingSetup
	numTextures int
}

// NewProgramBundleSetup creates an empty bundle setup.
func NewProgramBundleSetup(loc resource.Locator) ProgramBundleSetup {
	return ProgramBundleSetup{Locator: loc}
}

// entry returns the program with mask, adding it when missing.
func (s *ProgramBundleSetup) entry(mask uint32) (*ProgramEntry, error) {
	for i := 0; i < s.numPrograms; i++ {
		if s.programs[i].Mask == mask {
			return &s.programs[i], nil
		}
	}
	if s.numPrograms == MaxNumBundlePrograms {
		return nil, &CapacityError{Table: "bundle programs", Limit: MaxNumBundlePrograms}
	}
	e := &s.programs[s.numPrograms]
	*e = ProgramEntry{Mask: mask}
	s.numPrograms++
	return e, nil
}

// AddProgramFromSources sets the vertex and fragment source of lang on
// the program with mask.
func (s *ProgramBundleSetup) AddProgramFromSources(mask uint32, lang ShaderLang, vs, fs string) error {
	if lang < 0 || lang >= NumShaderLangs {
		return fmt.Errorf("gfx: invalid shader language %d", lang)
	}
	e, err := s.entry(mask)
	if err != nil {
		return err
	}
	e.VS.Sources[lang] = vs
	e.FS.Sources[lang] = fs
	return nil
}

// AddProgramFromByteCode sets precompiled vertex and fragment byte code of
// lang on the program with mask.
func (s *ProgramBundleSetup) AddProgramFromByteCode(mask uint32, lang ShaderLang, vs, fs []byte) error {
	if lang < 0 || lang >= NumShaderLangs {
		return fmt.Errorf("gfx: invalid shader language %d", lang)
	}
	e, err := s.entry(mask)
	if err != nil {
		return err
	}
	e.VS.ByteCode[lang] = vs
	e.FS.ByteCode[lang] = fs
	return nil
}

// AddProgramFromLibrary names the vertex and fragment functions in Library
// used by the program with mask.
func (s *ProgramBundleSetup) AddProgramFromLibrary(mask uint32, vsFunc, fsFunc string) error {
	e, err := s.entry(mask)
	if err != nil {
		return err
	}
	e.VS.Function = vsFunc
	e.FS.Function = fsFunc
	return nil
}

// AddProgramFromShaders references shader resources for the program with
// mask. They must be valid when the bundle is created.
func (s *ProgramBundleSetup) AddProgramFromShaders(mask uint32, vs, fs resource.Id) error {
	e, err := s.entry(mask)
	if err != nil {
		return err
	}
	e.VS.Shader = vs
	e.FS.Shader = fs
	return nil
}

// SetInputLayout sets the vertex attributes read by the program with mask.
func (s *ProgramBundleSetup) SetInputLayout(mask uint32, layout VertexLayout) error {
	for i := 0; i < s.numPrograms; i++ {
		if s.programs[i].Mask == mask {
			s.programs[i].Layout = layout
			return nil
		}
	}
	return fmt.Errorf("gfx: no program with mask %#x", mask)
}

// AddUniformBlock binds a uniform block to a stage slot.
func (s *ProgramBundleSetup) AddUniformBlock(name string, layout UniformLayout, stage ShaderStage, slot int) error {
	if stage < 0 || stage >= NumShaderStages {
		return fmt.Errorf("gfx: invalid shader stage %d", stage)
	}
	if slot < 0 || slot >= MaxNumUniformBlocks {
		return fmt.Errorf("gfx: uniform block slot %d out of range", slot)
	}
	if layout.NumComponents() == 0 {
		return fmt.Errorf("gfx: uniform block %s has an empty layout", name)
	}
	if s.UniformBlockIndex(stage, slot) >= 0 {
		return fmt.Errorf("gfx: %s uniform block slot %d already bound", stage, slot)
	}
	if s.numUniformBlocks == MaxNumUniformBlocks {
		return &CapacityError{Table: "uniform blocks", Limit: MaxNumUniformBlocks}
	}
	s.uniformBlocks[s.numUniformBlocks] = UniformBlockSetup{
		Name:   name,
		Layout: layout,
		Stage:  stage,
		Slot:   slot,
	}
	s.numUniformBlocks++
	return nil
}

// AddTexture binds a sampler to a stage slot.
func (s *ProgramBundleSetup) AddTexture(name string, typ TextureType, stage ShaderStage, slot int) error {
	if stage < 0 || stage >= NumShaderStages {
		return fmt.Errorf("gfx: invalid shader stage %d", stage)
	}
	if slot < 0 || slot >= MaxNumTextures {
		return fmt.Errorf("gfx: texture slot %d out of range", slot)
	}
	if s.TextureIndex(stage, slot) >= 0 {
		return fmt.Errorf("gfx: %s texture slot %d already bound", stage, slot)
	}
	if s.numTextures == MaxNumTextures {
		return &CapacityError{Table: "textures", Limit: MaxNumTextures}
	}
	s.textures[s.numTextures] = TextureBindingSetup{
		Name:  name,
		Type:  typ,
		Stage: stage,
		Slot:  slot,
	}
	s.numTextures++
	return nil
}

// NumPrograms returns the number of program entries.
func (s ProgramBundleSetup) NumPrograms() int {
	return s.numPrograms
}

// Program returns the program entry at index.
func (s ProgramBundleSetup) Program(index int) ProgramEntry {
	return s.programs[index]
}

// NumUniformBlocks returns the number of uniform blocks.
func (s ProgramBundleSetup) NumUniformBlocks() int {
	return s.numUniformBlocks
}

// UniformBlock returns the uniform block at index.
func (s ProgramBundleSetup) UniformBlock(index int) UniformBlockSetup {
	return s.uniformBlocks[index]
}

// UniformBlockIndex returns the index of the block bound to a stage slot, or -1.
func (s ProgramBundleSetup) UniformBlockIndex(stage ShaderStage, slot int) int {
	for i := 0; i < s.numUniformBlocks; i++ {
		if s.uniformBlocks[i].Stage == stage && s.uniformBlocks[i].Slot == slot {
			return i
		}
	}
	return -1
}

// NumTextures returns the number of texture bindings.
func (s ProgramBundleSetup) NumTextures() int {
	return s.numTextures
}

// Texture returns the texture binding at index.
func (s ProgramBundleSetup) Texture(index int) TextureBindingSetup {
	return s.textures[index]
}

// TextureIndex returns the index of the texture bound to a stage slot, or -1.
func (s ProgramBundleSetup) TextureIndex(stage ShaderStage, slot int) int {
	for i := 0; i < s.numTextures; i++ {
		if s.textures[i].Stage == stage && s.textures[i].Slot == slot {
			return i
		}
	}
	return -1
}

// SelectProgram picks the program used to draw a mesh with layout. An
// explicit mask selects the program carrying it or nothing. AnyMask picks
// the first program whose input layout the mesh satisfies, programs
// without an input layout accept any mesh.
func (s ProgramBundleSetup) SelectProgram(mask uint32, layout VertexLayout) (int, bool) {
	if mask != AnyMask {
		for i := 0; i < s.numPrograms; i++ {
			if s.programs[i].Mask == mask {
				return i, true
			}
		}
		return -1, false
	}
	for i := 0; i < s.numPrograms; i++ {
		if layout.Satisfies(s.programs[i].Layout) {
			return i, true
		}
	}
	return -1, false
}

// ResourceLocator implements ResourceSetup.
func (s ProgramBundleSetup) ResourceLocator() resource.Locator {
	return s.Locator
}

// ResourceType implements ResourceSetup.
func (s ProgramBundleSetup) ResourceType() resource.Type {
	return TypeProgramBundle
}
