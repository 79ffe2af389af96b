// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"github.com/devblok/korugfx/gfx"
	vk "github.com/devblok/vulkan"
)

var vertexFormats = [gfx.NumVertexFormats]vk.Format{
	gfx.Float:   vk.FormatR32Sfloat,
	gfx.Float2:  vk.FormatR32g32Sfloat,
	gfx.Float3:  vk.FormatR32g32b32Sfloat,
	gfx.Float4:  vk.FormatR32g32b32a32Sfloat,
	gfx.Byte4:   vk.FormatR8g8b8a8Sint,
	gfx.Byte4N:  vk.FormatR8g8b8a8Snorm,
	gfx.UByte4:  vk.FormatR8g8b8a8Uint,
	gfx.UByte4N: vk.FormatR8g8b8a8Unorm,
	gfx.Short2:  vk.FormatR16g16Sint,
	gfx.Short2N: vk.FormatR16g16Snorm,
	gfx.Short4:  vk.FormatR16g16b16a16Sint,
	gfx.Short4N: vk.FormatR16g16b16a16Snorm,
}

func topology(t gfx.PrimitiveType) vk.PrimitiveTopology {
	switch t {
	case gfx.Points:
		return vk.PrimitiveTopologyPointList
	case gfx.Lines:
		return vk.PrimitiveTopologyLineList
	case gfx.LineStrip:
		return vk.PrimitiveTopologyLineStrip
	case gfx.TriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	}
	return vk.PrimitiveTopologyTriangleList
}

func compareOp(f gfx.CompareFunc) vk.CompareOp {
	switch f {
	case gfx.CompareNever:
		return vk.CompareOpNever
	case gfx.CompareLess:
		return vk.CompareOpLess
	case gfx.CompareLessEqual:
		return vk.CompareOpLessOrEqual
	case gfx.CompareEqual:
		return vk.CompareOpEqual
	case gfx.CompareGreaterEqual:
		return vk.CompareOpGreaterOrEqual
	case gfx.CompareGreater:
		return vk.CompareOpGreater
	case gfx.CompareNotEqual:
		return vk.CompareOpNotEqual
	}
	return vk.CompareOpAlways
}

func blendFactor(f gfx.BlendFactor) vk.BlendFactor {
	switch f {
	case gfx.BlendOne:
		return vk.BlendFactorOne
	case gfx.BlendSrcAlpha:
		return vk.BlendFactorSrcAlpha
	case gfx.BlendOneMinusSrcAlpha:
		return vk.BlendFactorOneMinusSrcAlpha
	case gfx.BlendDstAlpha:
		return vk.BlendFactorDstAlpha
	case gfx.BlendOneMinusDstAlpha:
		return vk.BlendFactorOneMinusDstAlpha
	}
	return vk.BlendFactorZero
}

func colorWriteMask(c gfx.PixelChannel) vk.ColorComponentFlags {
	var mask vk.ColorComponentFlagBits
	if c&gfx.ChannelRed != 0 {
		mask |= vk.ColorComponentRBit
	}
	if c&gfx.ChannelGreen != 0 {
		mask |= vk.ColorComponentGBit
	}
	if c&gfx.ChannelBlue != 0 {
		mask |= vk.ColorComponentBBit
	}
	if c&gfx.ChannelAlpha != 0 {
		mask |= vk.ColorComponentABit
	}
	return vk.ColorComponentFlags(mask)
}

func cullMode(r gfx.RasterizerState) vk.CullModeFlags {
	switch {
	case !r.CullFaceEnabled:
		return vk.CullModeFlags(vk.CullModeNone)
	case r.CullFace == gfx.FaceFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	}
	return vk.CullModeFlags(vk.CullModeBackBit)
}

func stageFlags(stage gfx.ShaderStage) vk.ShaderStageFlags {
	if stage == gfx.VertexStage {
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	return vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
}

// clearAspects returns the image aspects touched by clearing channels.
func clearAspects(c gfx.PixelChannel) (color bool, depthStencil vk.ImageAspectFlags) {
	var aspects vk.ImageAspectFlagBits
	if c&gfx.ChannelDepth != 0 {
		aspects |= vk.ImageAspectDepthBit
	}
	if c&gfx.ChannelStencil != 0 {
		aspects |= vk.ImageAspectStencilBit
	}
	return c&gfx.ChannelRGBA != 0, vk.ImageAspectFlags(aspects)
}
