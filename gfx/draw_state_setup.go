// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/devblok/korugfx/resource"

// DepthStencilState is the depth test configuration.
type DepthStencilState struct {
	DepthWriteEnabled bool
	DepthCmpFunc      CompareFunc
}

// BlendState is the color blend configuration.
type BlendState struct {
	Enabled        bool
	SrcFactor      BlendFactor
	DstFactor      BlendFactor
	ColorWriteMask PixelChannel
}

// RasterizerState is the culling configuration.
type RasterizerState struct {
	CullFaceEnabled bool
	CullFace        Face
}

// DrawStateSetup combines a mesh, a program bundle and fixed function
// state into something that can be applied before drawing.
type DrawStateSetup struct {
	Locator resource.Locator
	Mesh    resource.Id
	Program resource.Id

	// ProgramMask selects the bundle entry. AnyMask picks the first entry
	// the mesh layout satisfies.
	ProgramMask uint32

	DepthStencil DepthStencilState
	Blend        BlendState
	Rasterizer   RasterizerState
}

// NewDrawStateSetup creates a draw state setup with default fixed
// function state.
func NewDrawStateSetup(loc resource.Locator, mesh, program resource.Id) DrawStateSetup {
	return DrawStateSetup{
		Locator:     loc,
		Mesh:        mesh,
		Program:     program,
		ProgramMask: AnyMask,
		DepthStencil: DepthStencilState{
			DepthCmpFunc: CompareAlways,
		},
		Blend: BlendState{
			SrcFactor:      BlendOne,
			DstFactor:      BlendZero,
			ColorWriteMask: ChannelRGBA,
		},
	}
}

// ResourceLocator implements ResourceSetup.
func (s DrawStateSetup) ResourceLocator() resource.Locator {
	return s.Locator
}

// ResourceType implements ResourceSetup.
func (s DrawStateSetup) ResourceType() resource.Type {
	return TypeDrawState
}
