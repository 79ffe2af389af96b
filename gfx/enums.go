// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// Fixed capacities of setup tables.
const (
	MaxNumBundlePrograms         = 8
	MaxNumUniformBlocks          = 4
	MaxNumTextures               = 8
	MaxNumVertexLayoutComponents = 16
	MaxNumUniformComponents      = 16
	MaxNumPrimGroups             = 16
)

// AnyMask matches any program entry of a bundle.
const AnyMask uint32 = 0xFFFFFFFF

// ShaderLang selects a shader language variant.
type ShaderLang int

// Shader languages.
const (
	GLSL330 ShaderLang = iota
	GLSLES3
	HLSL5
	SPIRV
	NumShaderLangs
)

var shaderLangNames = [...]string{"glsl330", "glsles3", "hlsl5", "spirv"}

func (l ShaderLang) String() string {
	if l < 0 || l >= NumShaderLangs {
		return "invalid"
	}
	return shaderLangNames[l]
}

// ShaderStage is a programmable pipeline stage.
type ShaderStage int

// Shader stages.
const (
	VertexStage ShaderStage = iota
	FragmentStage
	NumShaderStages
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return "invalid"
}

// VertexAttr is the semantic of a vertex component. The ordinal is used
// as the fixed attribute location on backends without reflection.
type VertexAttr int

// Vertex attributes.
const (
	Position VertexAttr = iota
	Normal
	TexCoord0
	TexCoord1
	TexCoord2
	TexCoord3
	Tangent
	Binormal
	Weights
	Indices
	Color0
	Color1
	Instance0
	Instance1
	Instance2
	Instance3
	NumVertexAttrs
)

var vertexAttrNames = [...]string{
	"position", "normal",
	"texcoord0", "texcoord1", "texcoord2", "texcoord3",
	"tangent", "binormal", "weights", "indices",
	"color0", "color1",
	"instance0", "instance1", "instance2", "instance3",
}

func (a VertexAttr) String() string {
	if a < 0 || a >= NumVertexAttrs {
		return "invalid"
	}
	return vertexAttrNames[a]
}

// VertexFormat is the data format of a vertex component.
type VertexFormat int

// Vertex formats.
const (
	Float VertexFormat = iota
	Float2
	Float3
	Float4
	Byte4
	Byte4N
	UByte4
	UByte4N
	Short2
	Short2N
	Short4
	Short4N
	NumVertexFormats
)

// ByteSize returns the size of one component in bytes.
func (f VertexFormat) ByteSize() int {
	switch f {
	case Float:
		return 4
	case Float2:
		return 8
	case Float3:
		return 12
	case Float4:
		return 16
	case Byte4, Byte4N, UByte4, UByte4N, Short2, Short2N:
		return 4
	case Short4, Short4N:
		return 8
	}
	return 0
}

// NumElements returns the number of scalars in the format.
func (f VertexFormat) NumElements() int {
	switch f {
	case Float:
		return 1
	case Float2, Short2, Short2N:
		return 2
	case Float3:
		return 3
	case Float4, Byte4, Byte4N, UByte4, UByte4N, Short4, Short4N:
		return 4
	}
	return 0
}

// Normalized reports whether integer data is mapped to 0..1 or -1..1.
func (f VertexFormat) Normalized() bool {
	switch f {
	case Byte4N, UByte4N, Short2N, Short4N:
		return true
	}
	return false
}

// IndexType is the type of index buffer elements.
type IndexType int

// Index types.
const (
	IndexNone IndexType = iota
	Index16
	Index32
)

// ByteSize returns the size of one index.
func (t IndexType) ByteSize() int {
	switch t {
	case Index16:
		return 2
	case Index32:
		return 4
	}
	return 0
}

// PrimitiveType is the topology of a draw.
type PrimitiveType int

// Primitive types.
const (
	Points PrimitiveType = iota
	Lines
	LineStrip
	Triangles
	TriangleStrip
)

// PrimitiveGroup is a range of vertices or indices drawn with one topology.
type PrimitiveGroup struct {
	Type        PrimitiveType
	BaseElement int
	NumElements int
}

// Usage tells how often buffer contents change.
type Usage int

// Usages.
const (
	Immutable Usage = iota
	Dynamic
	Stream
)

// PixelFormat is the format of texture and render target pixels.
type PixelFormat int

// Pixel formats.
const (
	PixelFormatNone PixelFormat = iota
	RGBA8
	RGB8
	R32F
	D24S8
	D32F
)

// ByteSize returns the size of one pixel.
func (f PixelFormat) ByteSize() int {
	switch f {
	case RGBA8, R32F, D24S8, D32F:
		return 4
	case RGB8:
		return 3
	}
	return 0
}

// IsDepth reports whether the format is a depth(-stencil) format.
func (f PixelFormat) IsDepth() bool {
	return f == D24S8 || f == D32F
}

// PixelChannel is a bitmask of framebuffer channels.
type PixelChannel uint8

// Pixel channels.
const (
	ChannelRed PixelChannel = 1 << iota
	ChannelGreen
	ChannelBlue
	ChannelAlpha
	ChannelDepth
	ChannelStencil

	ChannelRGBA         = ChannelRed | ChannelGreen | ChannelBlue | ChannelAlpha
	ChannelDepthStencil = ChannelDepth | ChannelStencil
	ChannelAll          = ChannelRGBA | ChannelDepthStencil
)

// CompareFunc is a depth or stencil comparison.
type CompareFunc int

// Compare functions.
const (
	CompareAlways CompareFunc = iota
	CompareNever
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreaterEqual
	CompareGreater
	CompareNotEqual
)

// BlendFactor is a blend equation factor.
type BlendFactor int

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// Face selects front or back facing triangles.
type Face int

// Faces.
const (
	FaceBack Face = iota
	FaceFront
)

// TextureType is the type of a texture binding.
type TextureType int

// Texture types.
const (
	Texture2D TextureType = iota
	TextureCube
)
