// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/utility/kar"
)

const spirvMagic = 0x07230203

func checkSPIRV(code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return fmt.Errorf("spir-v size %d is not a positive multiple of 4", len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return errors.New("not a spir-v module")
	}
	return nil
}

func (b *Backend) createModule(code []byte) (Handle, error) {
	if err := checkSPIRV(code); err != nil {
		return 0, err
	}
	return b.dev.CreateShaderModule(code)
}

type shader struct {
	dev    Device
	stage  gfx.ShaderStage
	module Handle
}

func (s *shader) Release() {
	if s.module != 0 {
		s.dev.Destroy(s.module)
		s.module = 0
	}
}

func (s *shader) LiveHandles() int {
	if s.module != 0 {
		return 1
	}
	return 0
}

// CreateShader implements gfx.Factory.
func (b *Backend) CreateShader(setup gfx.ShaderSetup) (gfx.Object, error) {
	if !setup.Source.HasByteCode(ShaderLang) {
		return nil, fmt.Errorf("vk: no %s byte code", ShaderLang)
	}
	m, err := b.createModule(setup.Source.ByteCode[ShaderLang])
	if err != nil {
		return nil, fmt.Errorf("vk: %s shader: %w", setup.Stage, err)
	}
	return &shader{dev: b.dev, stage: setup.Stage, module: m}, nil
}

type programEntry struct {
	mask   uint32
	vs, fs Handle
}

type pushRange struct {
	stage  gfx.ShaderStage
	slot   int
	offset int
	size   int
}

type programBundle struct {
	dev Device

	entries     [gfx.MaxNumBundlePrograms]programEntry
	numPrograms int

	ranges    [gfx.MaxNumUniformBlocks]pushRange
	numRanges int
	layout    Handle

	// modules are owned, library functions used by several entries are
	// created once.
	modules   []Handle
	functions map[string]Handle
}

func (p *programBundle) Release() {
	for _, m := range p.modules {
		p.dev.Destroy(m)
	}
	if p.layout != 0 {
		p.dev.Destroy(p.layout)
	}
	p.modules = nil
	p.functions = nil
	p.layout = 0
	p.numPrograms = 0
	p.numRanges = 0
}

func (p *programBundle) LiveHandles() int {
	n := len(p.modules)
	if p.layout != 0 {
		n++
	}
	return n
}

func (p *programBundle) pushRange(stage gfx.ShaderStage, slot int) *pushRange {
	for i := 0; i < p.numRanges; i++ {
		if p.ranges[i].stage == stage && p.ranges[i].slot == slot {
			return &p.ranges[i]
		}
	}
	return nil
}

type bundleBuilder struct {
	b       *Backend
	pb      *programBundle
	setup   gfx.ProgramBundleSetup
	shaders gfx.ShaderResolver
	library *kar.Archive
}

func (bb *bundleBuilder) openLibrary() (*kar.Archive, error) {
	if bb.library != nil {
		return bb.library, nil
	}
	if len(bb.setup.Library) == 0 {
		return nil, errors.New("bundle has no library")
	}
	lib, err := kar.OpenBytes(bb.setup.Library)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	bb.library = lib
	return lib, nil
}

func (bb *bundleBuilder) function(name string) (Handle, error) {
	if m, ok := bb.pb.functions[name]; ok {
		return m, nil
	}
	lib, err := bb.openLibrary()
	if err != nil {
		return 0, err
	}
	code, err := lib.ReadAll(name)
	if err != nil {
		return 0, err
	}
	m, err := bb.b.createModule(code)
	if err != nil {
		return 0, fmt.Errorf("function %s: %w", name, err)
	}
	bb.pb.modules = append(bb.pb.modules, m)
	bb.pb.functions[name] = m
	return m, nil
}

func (bb *bundleBuilder) stageModule(stage gfx.ShaderStage, src gfx.StageSource) (Handle, error) {
	switch {
	case src.Function != "":
		return bb.function(src.Function)
	case src.HasByteCode(ShaderLang):
		m, err := bb.b.createModule(src.ByteCode[ShaderLang])
		if err != nil {
			return 0, fmt.Errorf("%s stage: %w", stage, err)
		}
		bb.pb.modules = append(bb.pb.modules, m)
		return m, nil
	case src.HasShader():
		obj, setup, err := bb.shaders.ResolveShader(src.Shader)
		if err != nil {
			return 0, err
		}
		if setup.Stage != stage {
			return 0, fmt.Errorf("shader %s is a %s shader, need %s", setup.Locator, setup.Stage, stage)
		}
		sh, ok := obj.(*shader)
		if !ok || sh.module == 0 {
			return 0, fmt.Errorf("shader %s has no shader module", setup.Locator)
		}
		return sh.module, nil
	}
	return 0, fmt.Errorf("no library function or %s byte code for the %s stage", ShaderLang, stage)
}

func (bb *bundleBuilder) build() error {
	pb := bb.pb
	for i := 0; i < bb.setup.NumPrograms(); i++ {
		entry := bb.setup.Program(i)
		vs, err := bb.stageModule(gfx.VertexStage, entry.VS)
		if err != nil {
			return fmt.Errorf("program %d (mask %#x): %w", i, entry.Mask, err)
		}
		fs, err := bb.stageModule(gfx.FragmentStage, entry.FS)
		if err != nil {
			return fmt.Errorf("program %d (mask %#x): %w", i, entry.Mask, err)
		}
		pb.entries[pb.numPrograms] = programEntry{mask: entry.Mask, vs: vs, fs: fs}
		pb.numPrograms++
	}

	ranges := make([]PushConstantRange, 0, bb.setup.NumUniformBlocks())
	offset := 0
	for i := 0; i < bb.setup.NumUniformBlocks(); i++ {
		block := bb.setup.UniformBlock(i)
		size := block.Layout.ByteSize()
		pb.ranges[pb.numRanges] = pushRange{stage: block.Stage, slot: block.Slot, offset: offset, size: size}
		pb.numRanges++
		ranges = append(ranges, PushConstantRange{Stage: block.Stage, Offset: offset, Size: size})
		offset += size
	}
	if offset > MaxPushConstantSize {
		return fmt.Errorf("uniform blocks need %d bytes of push constants, limit is %d", offset, MaxPushConstantSize)
	}

	layout, err := bb.b.dev.CreatePipelineLayout(ranges)
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}
	pb.layout = layout
	return nil
}

// CreateProgramBundle implements gfx.Factory.
func (b *Backend) CreateProgramBundle(setup gfx.ProgramBundleSetup, shaders gfx.ShaderResolver) (gfx.Object, error) {
	bb := &bundleBuilder{
		b: b,
		pb: &programBundle{
			dev:       b.dev,
			functions: make(map[string]Handle),
		},
		setup:   setup,
		shaders: shaders,
	}
	if err := bb.build(); err != nil {
		bb.pb.Release()
		return nil, fmt.Errorf("vk: %w", err)
	}
	return bb.pb, nil
}
