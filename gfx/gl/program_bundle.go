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

// uniformLocation is where one uniform block component lives in a program.
type uniformLocation struct {
	location int32
	typ      gfx.UniformType
	num      int
	offset   int
}

type programEntry struct {
	mask    uint32
	program uint32

	// uniforms holds the resolved components per stage and block slot,
	// nil for unbound slots.
	uniforms [gfx.NumShaderStages][gfx.MaxNumUniformBlocks][]uniformLocation

	// samplers holds the texture unit per stage and texture slot, -1 for
	// unbound slots.
	samplers [gfx.NumShaderStages][gfx.MaxNumTextures]int
}

// programBundle is a set of linked programs, one per entry of the setup.
type programBundle struct {
	b          *Backend
	entries    [gfx.MaxNumBundlePrograms]programEntry
	numEntries int
}

// Release deletes every linked program. Zero handles are skipped.
func (p *programBundle) Release() {
	p.b.forgetProgramBundle(p)
	for i := 0; i < p.numEntries; i++ {
		if p.entries[i].program != 0 {
			p.b.deleteProgram(p.entries[i].program)
		}
	}
	p.clear()
}

func (p *programBundle) clear() {
	for i := range p.entries {
		p.entries[i] = programEntry{}
	}
	p.numEntries = 0
}

func (p *programBundle) LiveHandles() int {
	n := 0
	for i := 0; i < p.numEntries; i++ {
		if p.entries[i].program != 0 {
			n++
		}
	}
	return n
}

// Program returns the GL program of an entry.
func (p *programBundle) Program(index int) uint32 {
	return p.entries[index].program
}

// CreateProgramBundle implements gfx.Factory. Programs are linked in
// order, the first failure releases everything linked so far.
func (b *Backend) CreateProgramBundle(setup gfx.ProgramBundleSetup, shaders gfx.ShaderResolver) (gfx.Object, error) {
	pb := &programBundle{b: b}
	for i := 0; i < setup.NumPrograms(); i++ {
		entry := setup.Program(i)
		program, err := b.linkProgram(entry, shaders)
		if err != nil {
			pb.Release()
			return nil, fmt.Errorf("program %d (mask %#x): %w", i, entry.Mask, err)
		}
		pb.entries[pb.numEntries].mask = entry.Mask
		pb.entries[pb.numEntries].program = program
		pb.numEntries++
	}

	for i := 0; i < pb.numEntries; i++ {
		b.resolveBindings(&pb.entries[i], setup)
	}
	if err := b.checkError("CreateProgramBundle"); err != nil {
		pb.Release()
		return nil, err
	}
	return pb, nil
}

// stageShader returns the shader object for a stage. Owned shaders were
// compiled here and must be deleted after linking.
func (b *Backend) stageShader(stage gfx.ShaderStage, src gfx.StageSource, shaders gfx.ShaderResolver) (handle uint32, owned bool, err error) {
	if src.HasShader() {
		obj, setup, err := shaders.ResolveShader(src.Shader)
		if err != nil {
			return 0, false, err
		}
		if setup.Stage != stage {
			return 0, false, fmt.Errorf("shader %s is a %s shader, need %s", setup.Locator, setup.Stage, stage)
		}
		sh, ok := obj.(*shader)
		if !ok || sh.handle == 0 {
			return 0, false, fmt.Errorf("shader %s has no GL shader object", setup.Locator)
		}
		return sh.handle, false, nil
	}
	if src.HasSource(ShaderLang) {
		handle, err := b.compileShader(stage, src.Sources[ShaderLang])
		return handle, err == nil, err
	}
	return 0, false, fmt.Errorf("no %s source for the %s stage", ShaderLang, stage)
}

func (b *Backend) linkProgram(entry gfx.ProgramEntry, shaders gfx.ShaderResolver) (uint32, error) {
	vs, vsOwned, err := b.stageShader(gfx.VertexStage, entry.VS, shaders)
	if err != nil {
		return 0, err
	}
	fs, fsOwned, err := b.stageShader(gfx.FragmentStage, entry.FS, shaders)
	if err != nil {
		if vsOwned {
			b.f.DeleteShader(vs)
		}
		return 0, err
	}
	deleteOwned := func() {
		if vsOwned {
			b.f.DeleteShader(vs)
		}
		if fsOwned {
			b.f.DeleteShader(fs)
		}
	}

	program := b.f.CreateProgram()
	if program == 0 {
		deleteOwned()
		return 0, b.checkErrorOr("glCreateProgram()", errors.New("glCreateProgram(): no program object"))
	}
	b.f.AttachShader(program, vs)
	b.f.AttachShader(program, fs)
	for attr := gfx.VertexAttr(0); attr < gfx.NumVertexAttrs; attr++ {
		b.f.BindAttribLocation(program, uint32(attr), attr.String())
	}
	b.f.LinkProgram(program)
	deleteOwned()

	if b.f.GetProgrami(program, LINK_STATUS) == 0 {
		info := b.f.GetProgramInfoLog(program)
		b.f.DeleteProgram(program)
		return 0, fmt.Errorf("glLinkProgram(): %s", info)
	}
	if info := b.f.GetProgramInfoLog(program); info != "" {
		b.log.WithField("mask", entry.Mask).Debugf("program link log: %s", info)
	}
	return program, nil
}

// resolveBindings looks up uniform locations and assigns texture units.
// Units are set once, they never change for the lifetime of the program.
func (b *Backend) resolveBindings(e *programEntry, setup gfx.ProgramBundleSetup) {
	for stage := range e.samplers {
		for slot := range e.samplers[stage] {
			e.samplers[stage][slot] = -1
		}
	}

	for i := 0; i < setup.NumUniformBlocks(); i++ {
		block := setup.UniformBlock(i)
		locs := make([]uniformLocation, block.Layout.NumComponents())
		for c := range locs {
			comp := block.Layout.Component(c)
			locs[c] = uniformLocation{
				location: b.f.GetUniformLocation(e.program, comp.Name),
				typ:      comp.Type,
				num:      comp.Num,
				offset:   block.Layout.ComponentByteOffset(c),
			}
			if locs[c].location < 0 {
				b.log.WithField("uniform", comp.Name).Debug("uniform not active in program")
			}
		}
		e.uniforms[block.Stage][block.Slot] = locs
	}

	unit := 0
	for i := 0; i < setup.NumTextures(); i++ {
		tex := setup.Texture(i)
		e.samplers[tex.Stage][tex.Slot] = unit
		if loc := b.f.GetUniformLocation(e.program, tex.Name); loc >= 0 {
			b.useProgram(e.program)
			b.f.Uniform1i(loc, int32(unit))
		}
		unit++
	}
}
