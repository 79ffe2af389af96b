// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

// MaxTextureUnits is the number of texture units tracked.
const MaxTextureUnits = 16

const (
	knownProgram = 1 << iota
	knownVAO
	knownFBO
	knownUnit
	knownDepthTest
	knownDepthMask
	knownDepthFunc
	knownBlend
	knownBlendFunc
	knownColorMask
	knownCull
	knownCullFace
	knownViewport
)

// glstate mirrors the native state set through the backend so calls that
// wouldn't change anything are dropped. Fields are only trusted when their
// known bit is set.
type glstate struct {
	known uint32

	program   uint32
	vao       uint32
	fbo       uint32
	unit      int
	textures  [MaxTextureUnits]uint32
	texKnown  [MaxTextureUnits]bool
	depthTest bool
	depthMask bool
	depthFunc Enum
	blend     bool
	blendSrc  Enum
	blendDst  Enum
	colorMask [4]bool
	cull      bool
	cullFace  Enum
	viewport  [4]int
}

func (s *glstate) reset() {
	*s = glstate{}
}

func (s *glstate) has(bit uint32) bool {
	return s.known&bit != 0
}

func (b *Backend) useProgram(p uint32) {
	if b.state.has(knownProgram) && b.state.program == p {
		return
	}
	b.f.UseProgram(p)
	b.state.program = p
	b.state.known |= knownProgram
}

func (b *Backend) bindVertexArray(vao uint32) {
	if b.state.has(knownVAO) && b.state.vao == vao {
		return
	}
	b.f.BindVertexArray(vao)
	b.state.vao = vao
	b.state.known |= knownVAO
}

func (b *Backend) bindFramebuffer(fbo uint32) {
	if b.state.has(knownFBO) && b.state.fbo == fbo {
		return
	}
	b.f.BindFramebuffer(FRAMEBUFFER, fbo)
	b.state.fbo = fbo
	b.state.known |= knownFBO
}

func (b *Backend) bindTexture(unit int, tex uint32) {
	if b.state.texKnown[unit] && b.state.textures[unit] == tex {
		return
	}
	if !b.state.has(knownUnit) || b.state.unit != unit {
		b.f.ActiveTexture(TEXTURE0 + Enum(unit))
		b.state.unit = unit
		b.state.known |= knownUnit
	}
	b.f.BindTexture(TEXTURE_2D, tex)
	b.state.textures[unit] = tex
	b.state.texKnown[unit] = true
}

// Deleting a bound object reverts its binding to zero, the cache follows so
// a recycled name is bound again.

func (b *Backend) deleteProgram(p uint32) {
	b.f.DeleteProgram(p)
	if b.state.program == p {
		b.state.known &^= knownProgram
	}
}

func (b *Backend) deleteVertexArray(vao uint32) {
	b.f.DeleteVertexArray(vao)
	if b.state.has(knownVAO) && b.state.vao == vao {
		b.state.vao = 0
	}
}

func (b *Backend) deleteFramebuffer(fbo uint32) {
	b.f.DeleteFramebuffer(fbo)
	if b.state.has(knownFBO) && b.state.fbo == fbo {
		b.state.fbo = 0
	}
}

func (b *Backend) deleteTexture(tex uint32) {
	b.f.DeleteTexture(tex)
	for unit := range b.state.textures {
		if b.state.texKnown[unit] && b.state.textures[unit] == tex {
			b.state.textures[unit] = 0
		}
	}
}

// forgetMesh drops the applied draw state when it draws m.
func (b *Backend) forgetMesh(m *mesh) {
	if b.cur != nil && b.cur.mesh == m {
		b.cur = nil
	}
}

func (b *Backend) forgetProgramBundle(p *programBundle) {
	if b.cur != nil && b.cur.bundle == p {
		b.cur = nil
	}
}

func (b *Backend) setCap(cap Enum, bit uint32, cur *bool, enable bool) {
	if b.state.has(bit) && *cur == enable {
		return
	}
	if enable {
		b.f.Enable(cap)
	} else {
		b.f.Disable(cap)
	}
	*cur = enable
	b.state.known |= bit
}

func (b *Backend) setDepthMask(enable bool) {
	if b.state.has(knownDepthMask) && b.state.depthMask == enable {
		return
	}
	b.f.DepthMask(enable)
	b.state.depthMask = enable
	b.state.known |= knownDepthMask
}

func (b *Backend) setDepthFunc(fn Enum) {
	if b.state.has(knownDepthFunc) && b.state.depthFunc == fn {
		return
	}
	b.f.DepthFunc(fn)
	b.state.depthFunc = fn
	b.state.known |= knownDepthFunc
}

func (b *Backend) setBlendFunc(src, dst Enum) {
	if b.state.has(knownBlendFunc) && b.state.blendSrc == src && b.state.blendDst == dst {
		return
	}
	b.f.BlendFunc(src, dst)
	b.state.blendSrc, b.state.blendDst = src, dst
	b.state.known |= knownBlendFunc
}

func (b *Backend) setColorMask(mask [4]bool) {
	if b.state.has(knownColorMask) && b.state.colorMask == mask {
		return
	}
	b.f.ColorMask(mask[0], mask[1], mask[2], mask[3])
	b.state.colorMask = mask
	b.state.known |= knownColorMask
}

func (b *Backend) setCullFace(face Enum) {
	if b.state.has(knownCullFace) && b.state.cullFace == face {
		return
	}
	b.f.CullFace(face)
	b.state.cullFace = face
	b.state.known |= knownCullFace
}

func (b *Backend) setViewport(x, y, w, h int) {
	vp := [4]int{x, y, w, h}
	if b.state.has(knownViewport) && b.state.viewport == vp {
		return
	}
	b.f.Viewport(x, y, w, h)
	b.state.viewport = vp
	b.state.known |= knownViewport
}
