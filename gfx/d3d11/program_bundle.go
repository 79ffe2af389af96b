// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package d3d11

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
)

type shader struct {
	dev      Device
	stage    gfx.ShaderStage
	handle   Handle
	byteCode []byte
}

func (s *shader) Release() {
	if s.handle != 0 {
		s.dev.Release(s.handle)
		s.handle = 0
	}
}

func (s *shader) LiveHandles() int {
	if s.handle != 0 {
		return 1
	}
	return 0
}

func (b *Backend) createStageShader(stage gfx.ShaderStage, byteCode []byte) (Handle, error) {
	if stage == gfx.VertexStage {
		return b.dev.CreateVertexShader(byteCode)
	}
	return b.dev.CreatePixelShader(byteCode)
}

// CreateShader implements gfx.Factory.
func (b *Backend) CreateShader(setup gfx.ShaderSetup) (gfx.Object, error) {
	if !setup.Source.HasByteCode(ShaderLang) {
		return nil, fmt.Errorf("d3d11: no %s byte code", ShaderLang)
	}
	byteCode := setup.Source.ByteCode[ShaderLang]
	h, err := b.createStageShader(setup.Stage, byteCode)
	if err != nil {
		return nil, fmt.Errorf("d3d11: create %s shader: %w", setup.Stage, err)
	}
	return &shader{dev: b.dev, stage: setup.Stage, handle: h, byteCode: byteCode}, nil
}

type programEntry struct {
	mask       uint32
	vs, ps     Handle
	vsByteCode []byte

	// Shaders created for the entry are released with it, referenced
	// shader resources are not.
	ownVS, ownPS bool
}

type ubEntry struct {
	cb    Handle
	stage gfx.ShaderStage
	slot  int
	size  int
}

type programBundle struct {
	dev Device

	selMask  uint32
	selIndex int

	entries     [gfx.MaxNumBundlePrograms]programEntry
	numPrograms int

	ubs   [gfx.MaxNumUniformBlocks]ubEntry
	numUB int
}

func newProgramBundle(dev Device) *programBundle {
	pb := &programBundle{dev: dev}
	pb.clear()
	return pb
}

func (p *programBundle) clear() {
	p.selMask = gfx.AnyMask
	p.selIndex = 0
	p.entries = [gfx.MaxNumBundlePrograms]programEntry{}
	p.numPrograms = 0
	p.ubs = [gfx.MaxNumUniformBlocks]ubEntry{}
	p.numUB = 0
}

// Release releases owned shaders and constant buffers, nil handles are
// skipped.
func (p *programBundle) Release() {
	for i := 0; i < p.numPrograms; i++ {
		e := &p.entries[i]
		if e.ownVS && e.vs != 0 {
			p.dev.Release(e.vs)
		}
		if e.ownPS && e.ps != 0 {
			p.dev.Release(e.ps)
		}
	}
	for i := 0; i < p.numUB; i++ {
		if p.ubs[i].cb != 0 {
			p.dev.Release(p.ubs[i].cb)
		}
	}
	p.clear()
}

func (p *programBundle) LiveHandles() int {
	n := 0
	for i := 0; i < p.numPrograms; i++ {
		e := p.entries[i]
		if e.ownVS && e.vs != 0 {
			n++
		}
		if e.ownPS && e.ps != 0 {
			n++
		}
	}
	for i := 0; i < p.numUB; i++ {
		if p.ubs[i].cb != 0 {
			n++
		}
	}
	return n
}

func (p *programBundle) addShaders(e programEntry) error {
	for i := 0; i < p.numPrograms; i++ {
		if p.entries[i].mask == e.mask {
			return fmt.Errorf("d3d11: duplicate program mask %#x", e.mask)
		}
	}
	if p.numPrograms == gfx.MaxNumBundlePrograms {
		return &gfx.CapacityError{Table: "bundle programs", Limit: gfx.MaxNumBundlePrograms}
	}
	p.entries[p.numPrograms] = e
	p.numPrograms++
	return nil
}

func (p *programBundle) addUniformBlock(ub ubEntry) {
	p.ubs[p.numUB] = ub
	p.numUB++
}

// Select makes the program with mask current, the last selection is
// cached.
func (p *programBundle) Select(mask uint32) bool {
	if mask == p.selMask && p.selIndex < p.numPrograms {
		return true
	}
	for i := 0; i < p.numPrograms; i++ {
		if p.entries[i].mask == mask {
			p.selMask = mask
			p.selIndex = i
			return true
		}
	}
	return false
}

func (p *programBundle) uniformBlock(stage gfx.ShaderStage, slot int) *ubEntry {
	for i := 0; i < p.numUB; i++ {
		if p.ubs[i].stage == stage && p.ubs[i].slot == slot {
			return &p.ubs[i]
		}
	}
	return nil
}

// stageShader returns the shader of a stage and its byte code.
func (b *Backend) stageShader(stage gfx.ShaderStage, src gfx.StageSource, shaders gfx.ShaderResolver) (Handle, []byte, bool, error) {
	if src.HasShader() {
		obj, setup, err := shaders.ResolveShader(src.Shader)
		if err != nil {
			return 0, nil, false, err
		}
		if setup.Stage != stage {
			return 0, nil, false, fmt.Errorf("shader %s is a %s shader, need %s", setup.Locator, setup.Stage, stage)
		}
		sh, ok := obj.(*shader)
		if !ok || sh.handle == 0 {
			return 0, nil, false, fmt.Errorf("shader %s has no D3D11 shader object", setup.Locator)
		}
		return sh.handle, sh.byteCode, false, nil
	}
	if !src.HasByteCode(ShaderLang) {
		return 0, nil, false, fmt.Errorf("no %s byte code for the %s stage", ShaderLang, stage)
	}
	byteCode := src.ByteCode[ShaderLang]
	h, err := b.createStageShader(stage, byteCode)
	if err != nil {
		return 0, nil, false, fmt.Errorf("create %s shader: %w", stage, err)
	}
	return h, byteCode, true, nil
}

func roundUp16(n int) int {
	return (n + 15) &^ 15
}

// CreateProgramBundle implements gfx.Factory.
func (b *Backend) CreateProgramBundle(setup gfx.ProgramBundleSetup, shaders gfx.ShaderResolver) (gfx.Object, error) {
	pb := newProgramBundle(b.dev)
	for i := 0; i < setup.NumPrograms(); i++ {
		entry := setup.Program(i)
		e := programEntry{mask: entry.Mask}
		var err error
		e.vs, e.vsByteCode, e.ownVS, err = b.stageShader(gfx.VertexStage, entry.VS, shaders)
		if err == nil {
			e.ps, _, e.ownPS, err = b.stageShader(gfx.FragmentStage, entry.FS, shaders)
			if err != nil && e.ownVS {
				b.dev.Release(e.vs)
			}
		}
		if err == nil {
			if err = pb.addShaders(e); err != nil {
				if e.ownVS {
					b.dev.Release(e.vs)
				}
				if e.ownPS {
					b.dev.Release(e.ps)
				}
			}
		}
		if err != nil {
			pb.Release()
			return nil, fmt.Errorf("d3d11: program %d (mask %#x): %w", i, entry.Mask, err)
		}
	}

	for i := 0; i < setup.NumUniformBlocks(); i++ {
		block := setup.UniformBlock(i)
		size := block.Layout.ByteSize()
		cb, err := b.dev.CreateBuffer(BufferDesc{
			Size:  roundUp16(size),
			Usage: UsageDefault,
			Bind:  BindConstantBuffer,
		}, nil)
		if err != nil {
			pb.Release()
			return nil, fmt.Errorf("d3d11: constant buffer %s: %w", block.Name, err)
		}
		pb.addUniformBlock(ubEntry{cb: cb, stage: block.Stage, slot: block.Slot, size: size})
	}
	return pb, nil
}
