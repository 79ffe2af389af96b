// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"bytes"
	"fmt"

	"github.com/devblok/korugfx/resource"
)

// FrameInfo counts what happened during a frame.
type FrameInfo struct {
	NumApplyRenderTarget int
	NumApplyDrawState    int
	NumApplyUniformBlock int
	NumApplyTexture      int
	NumDraw              int

	// NumSkipped counts apply calls that matched the cached state and
	// never reached the device.
	NumSkipped int
}

// renderer caches the currently applied state and forwards only changes
// to the device.
type renderer struct {
	device   Device
	display  Display
	mgr      *manager
	contract contract

	targetValid bool
	target      resource.Id

	drawStateValid bool
	drawStateID    resource.Id
	drawState      *drawStateSlot

	uniforms [NumShaderStages][MaxNumUniformBlocks][]byte
	textures [NumShaderStages][MaxNumTextures]resource.Id

	frame     FrameInfo
	lastFrame FrameInfo
}

func newRenderer(device Device, display Display, mgr *manager) *renderer {
	r := &renderer{
		device:   device,
		display:  display,
		mgr:      mgr,
		contract: mgr.contract,
	}
	mgr.onDestroy = r.forget
	return r
}

// applyRenderTarget binds an offscreen target, or the default one for the
// invalid id.
func (r *renderer) applyRenderTarget(id resource.Id) {
	if r.targetValid && r.target == id {
		r.frame.NumSkipped++
		return
	}
	var target Object
	if id.IsValid() {
		slot := r.mgr.textureSlot(id)
		if slot == nil || !slot.setup.RenderTarget {
			r.contract.violated("render target %s is not a valid render target", id)
			return
		}
		target = slot.obj
	}
	r.device.ApplyRenderTarget(target, r.display.DisplayAttrs())
	r.targetValid = true
	r.target = id
	r.frame.NumApplyRenderTarget++
}

// renderTargetAttrs returns the attributes of the applied render target.
// Offscreen targets report their texture size, everything else is the
// display's.
func (r *renderer) renderTargetAttrs() DisplayAttrs {
	attrs := r.display.DisplayAttrs()
	if !r.targetValid || !r.target.IsValid() {
		return attrs
	}
	if slot := r.mgr.textureSlot(r.target); slot != nil {
		attrs.Width, attrs.Height = slot.setup.Width, slot.setup.Height
		attrs.FramebufferWidth, attrs.FramebufferHeight = slot.setup.Width, slot.setup.Height
	}
	return attrs
}

// readPixels reads the applied render target, the default one when none
// was applied this frame.
func (r *renderer) readPixels(buf []byte) error {
	if !r.targetValid {
		r.applyRenderTarget(resource.Id{})
	}
	attrs := r.renderTargetAttrs()
	size := attrs.FramebufferWidth * attrs.FramebufferHeight * 4
	if len(buf) < size {
		return fmt.Errorf("gfx: read pixels needs %d bytes, got %d", size, len(buf))
	}
	return r.device.ReadPixels(attrs.FramebufferWidth, attrs.FramebufferHeight, buf[:size])
}

func (r *renderer) applyDrawState(id resource.Id) {
	if r.drawStateValid && r.drawStateID == id {
		r.frame.NumSkipped++
		return
	}
	slot, err := r.mgr.drawState(id)
	if err != nil {
		r.invalidateDrawState()
		r.contract.violated("apply draw state %s: %s", id, err)
		return
	}
	r.device.ApplyDrawState(slot.obj)
	r.drawStateValid = true
	r.drawStateID = id
	r.drawState = slot
	r.forgetBindings()
	r.frame.NumApplyDrawState++
}

func (r *renderer) applyUniformBlock(stage ShaderStage, slot int, data []byte) {
	if !r.drawStateValid {
		r.contract.violated("uniform block applied without a draw state")
		return
	}
	if stage < 0 || stage >= NumShaderStages || slot < 0 || slot >= MaxNumUniformBlocks {
		r.contract.violated("uniform block slot %s/%d out of range", stage, slot)
		return
	}
	index := r.drawState.program.UniformBlockIndex(stage, slot)
	if index < 0 {
		r.contract.violated("no uniform block bound at %s slot %d", stage, slot)
		return
	}
	if size := r.drawState.program.UniformBlock(index).Layout.ByteSize(); len(data) != size {
		r.contract.violated("uniform block %s/%d is %d bytes, expected %d", stage, slot, len(data), size)
		return
	}
	cached := r.uniforms[stage][slot]
	if cached != nil && bytes.Equal(cached, data) {
		r.frame.NumSkipped++
		return
	}
	r.device.ApplyUniformBlock(r.drawState.obj, stage, slot, data)
	r.uniforms[stage][slot] = append(cached[:0], data...)
	r.frame.NumApplyUniformBlock++
}

func (r *renderer) applyTexture(stage ShaderStage, slot int, id resource.Id) {
	if !r.drawStateValid {
		r.contract.violated("texture applied without a draw state")
		return
	}
	if stage < 0 || stage >= NumShaderStages || slot < 0 || slot >= MaxNumTextures {
		r.contract.violated("texture slot %s/%d out of range", stage, slot)
		return
	}
	if !id.IsValid() {
		r.contract.violated("texture %s/%d applied with an invalid id", stage, slot)
		return
	}
	if r.textures[stage][slot] == id {
		r.frame.NumSkipped++
		return
	}
	tex := r.mgr.textureSlot(id)
	if tex == nil {
		r.contract.violated("texture %s is not valid", id)
		return
	}
	r.device.ApplyTexture(r.drawState.obj, stage, slot, tex.obj)
	r.textures[stage][slot] = id
	r.frame.NumApplyTexture++
}

func (r *renderer) draw(group PrimitiveGroup, numInstances int) {
	if !r.drawStateValid {
		r.contract.violated("draw without an applied draw state")
		return
	}
	if numInstances < 1 {
		return
	}
	r.device.Draw(group, numInstances)
	r.frame.NumDraw++
}

// primitiveGroup resolves a group of the applied draw state's mesh.
func (r *renderer) primitiveGroup(index int) (PrimitiveGroup, bool) {
	if !r.drawStateValid {
		r.contract.violated("draw without an applied draw state")
		return PrimitiveGroup{}, false
	}
	mesh := r.mgr.meshSlot(r.drawState.setup.Mesh)
	if mesh == nil {
		r.contract.violated("mesh of the applied draw state is gone")
		return PrimitiveGroup{}, false
	}
	if index < 0 || index >= mesh.setup.NumPrimitiveGroups() {
		r.contract.violated("primitive group %d out of range", index)
		return PrimitiveGroup{}, false
	}
	return mesh.setup.PrimitiveGroup(index), true
}

func (r *renderer) commitFrame() {
	r.device.CommitFrame()
	r.display.Present()
	r.lastFrame = r.frame
	r.frame = FrameInfo{}

	// The next frame starts on a fresh backbuffer, backends may drop their
	// bindings at the frame boundary.
	r.targetValid = false
	r.invalidateDrawState()
}

func (r *renderer) resetStateCache() {
	r.targetValid = false
	r.invalidateDrawState()
	r.device.ResetState()
}

func (r *renderer) invalidateDrawState() {
	r.drawStateValid = false
	r.drawStateID = resource.Id{}
	r.drawState = nil
	r.forgetBindings()
}

// forgetBindings drops cached uniforms and textures, they belong to the
// program of the previous draw state.
func (r *renderer) forgetBindings() {
	for stage := range r.uniforms {
		for slot := range r.uniforms[stage] {
			r.uniforms[stage][slot] = nil
		}
		for slot := range r.textures[stage] {
			r.textures[stage][slot] = resource.Id{}
		}
	}
}

// forget drops any cached reference to a resource about to be destroyed.
func (r *renderer) forget(id resource.Id) {
	if r.targetValid && r.target == id {
		r.targetValid = false
	}
	if r.drawStateValid && (r.drawStateID == id || r.drawState.setup.Mesh == id || r.drawState.setup.Program == id) {
		r.invalidateDrawState()
	}
	for stage := range r.textures {
		for slot := range r.textures[stage] {
			if r.textures[stage][slot] == id {
				r.textures[stage][slot] = resource.Id{}
			}
		}
	}
}
