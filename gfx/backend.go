// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"github.com/devblok/korugfx/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// ShaderResolver gives factories access to shader resources referenced by
// program bundles. It fails for shaders that aren't valid.
type ShaderResolver interface {
	ResolveShader(id resource.Id) (Object, ShaderSetup, error)
}

// DrawStateDeps are the realized dependencies of a draw state.
type DrawStateDeps struct {
	Mesh         Object
	MeshSetup    MeshSetup
	Program      Object
	ProgramSetup ProgramBundleSetup

	// ProgramIndex is the bundle entry selected for the mesh.
	ProgramIndex int
}

// Factory turns setups into backend objects. On error nothing created on
// the way may stay alive.
type Factory interface {
	CreateShader(setup ShaderSetup) (Object, error)
	CreateProgramBundle(setup ProgramBundleSetup, shaders ShaderResolver) (Object, error)
	CreateMesh(setup MeshSetup, data []byte) (Object, error)
	CreateTexture(setup TextureSetup, data []byte) (Object, error)
	CreateDrawState(setup DrawStateSetup, deps DrawStateDeps) (Object, error)
}

// ClearState holds the values used when clearing a render target.
type ClearState struct {
	Channels PixelChannel
	Color    mgl32.Vec4
	Depth    float32
	Stencil  uint8
}

// DefaultClearState clears everything to black and depth to one.
func DefaultClearState() ClearState {
	return ClearState{
		Channels: ChannelAll,
		Color:    mgl32.Vec4{0, 0, 0, 1},
		Depth:    1,
	}
}

// Device issues the native calls of the render loop. Every call is made
// because the state it sets differs from the current one, redundancy is
// filtered before the device sees it.
type Device interface {

	// ApplyRenderTarget binds target, or the default framebuffer when
	// target is nil.
	ApplyRenderTarget(target Object, attrs DisplayAttrs)
	ApplyViewport(x, y, width, height int)
	ApplyDrawState(drawState Object)
	ApplyUniformBlock(drawState Object, stage ShaderStage, slot int, data []byte)
	ApplyTexture(drawState Object, stage ShaderStage, slot int, texture Object)
	Clear(state ClearState)
	Draw(group PrimitiveGroup, numInstances int)
	UpdateVertices(mesh Object, data []byte) error

	// ReadPixels reads width*height RGBA8 pixels of the bound render
	// target into buf, bottom row first.
	ReadPixels(width, height int, buf []byte) error

	// CommitFrame flushes pending work before the display presents.
	CommitFrame()

	// ResetState forgets any native state the device tracks.
	ResetState()
}

// Backend is a native graphics API.
type Backend interface {
	Factory
	Device

	Type() BackendType

	// Discard releases the backend. Every object must be released before.
	Discard()
}
