// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl

// Enum is a GL enumeration value.
type Enum uint32

// GL enumeration values used by the backend.
const (
	NO_ERROR          Enum = 0
	INVALID_OPERATION Enum = 0x0502
	OUT_OF_MEMORY     Enum = 0x0505

	VERTEX_SHADER   Enum = 0x8B31
	FRAGMENT_SHADER Enum = 0x8B30
	COMPILE_STATUS  Enum = 0x8B81
	LINK_STATUS     Enum = 0x8B82

	ARRAY_BUFFER         Enum = 0x8892
	ELEMENT_ARRAY_BUFFER Enum = 0x8893
	STATIC_DRAW          Enum = 0x88E4
	DYNAMIC_DRAW         Enum = 0x88E8
	STREAM_DRAW          Enum = 0x88E0

	BYTE           Enum = 0x1400
	UNSIGNED_BYTE  Enum = 0x1401
	SHORT          Enum = 0x1402
	UNSIGNED_SHORT Enum = 0x1403
	UNSIGNED_INT   Enum = 0x1405
	FLOAT          Enum = 0x1406

	TEXTURE_2D         Enum = 0x0DE1
	TEXTURE0           Enum = 0x84C0
	TEXTURE_MIN_FILTER Enum = 0x2801
	TEXTURE_MAG_FILTER Enum = 0x2800
	TEXTURE_WRAP_S     Enum = 0x2802
	TEXTURE_WRAP_T     Enum = 0x2803
	LINEAR             Enum = 0x2601
	NEAREST            Enum = 0x2600
	REPEAT             Enum = 0x2901
	CLAMP_TO_EDGE      Enum = 0x812F
	MIRRORED_REPEAT    Enum = 0x8370

	RED                Enum = 0x1903
	RGB                Enum = 0x1907
	RGBA               Enum = 0x1908
	RGB8               Enum = 0x8051
	RGBA8              Enum = 0x8058
	R32F               Enum = 0x822E
	DEPTH24_STENCIL8   Enum = 0x88F0
	DEPTH_COMPONENT32F Enum = 0x8CAC

	FRAMEBUFFER              Enum = 0x8D40
	RENDERBUFFER             Enum = 0x8D41
	COLOR_ATTACHMENT0        Enum = 0x8CE0
	DEPTH_ATTACHMENT         Enum = 0x8D00
	DEPTH_STENCIL_ATTACHMENT Enum = 0x821A
	FRAMEBUFFER_COMPLETE     Enum = 0x8CD5
	FRAMEBUFFER_UNSUPPORTED  Enum = 0x8CDD

	COLOR_BUFFER_BIT   Enum = 0x4000
	DEPTH_BUFFER_BIT   Enum = 0x0100
	STENCIL_BUFFER_BIT Enum = 0x0400

	DEPTH_TEST Enum = 0x0B71
	BLEND      Enum = 0x0BE2
	CULL_FACE  Enum = 0x0B44
	FRONT      Enum = 0x0404
	BACK       Enum = 0x0405

	NEVER    Enum = 0x0200
	LESS     Enum = 0x0201
	EQUAL    Enum = 0x0202
	LEQUAL   Enum = 0x0203
	GREATER  Enum = 0x0204
	NOTEQUAL Enum = 0x0205
	GEQUAL   Enum = 0x0206
	ALWAYS   Enum = 0x0207

	ZERO                Enum = 0
	ONE                 Enum = 1
	SRC_ALPHA           Enum = 0x0302
	ONE_MINUS_SRC_ALPHA Enum = 0x0303
	DST_ALPHA           Enum = 0x0304
	ONE_MINUS_DST_ALPHA Enum = 0x0305

	POINTS         Enum = 0x0000
	LINES          Enum = 0x0001
	LINE_STRIP     Enum = 0x0003
	TRIANGLES      Enum = 0x0004
	TRIANGLE_STRIP Enum = 0x0005
)

// Functions is the subset of OpenGL 3.3 core the backend calls. Every
// call must be made with the GL context current on the calling thread.
type Functions interface {
	GetError() Enum

	CreateShader(typ Enum) uint32
	ShaderSource(shader uint32, src string)
	CompileShader(shader uint32)
	GetShaderi(shader uint32, pname Enum) int
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	BindAttribLocation(program uint32, index uint32, name string)
	LinkProgram(program uint32)
	GetProgrami(program uint32, pname Enum) int
	GetProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32

	Uniform1i(location int32, v int32)
	Uniform1fv(location int32, v []float32)
	Uniform2fv(location int32, v []float32)
	Uniform3fv(location int32, v []float32)
	Uniform4fv(location int32, v []float32)
	UniformMatrix4fv(location int32, v []float32)

	CreateBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target Enum, buffer uint32)
	BufferData(target Enum, size int, data []byte, usage Enum)
	BufferSubData(target Enum, offset int, data []byte)

	CreateVertexArray() uint32
	DeleteVertexArray(array uint32)
	BindVertexArray(array uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int, typ Enum, normalized bool, stride, offset int)

	CreateTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit Enum)
	BindTexture(target Enum, texture uint32)
	TexImage2D(target Enum, internalFormat Enum, width, height int, format, typ Enum, data []byte)
	TexParameteri(target, pname Enum, param int)

	CreateFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	BindFramebuffer(target Enum, fb uint32)
	FramebufferTexture2D(target, attachment, texTarget Enum, texture uint32)
	FramebufferRenderbuffer(target, attachment, rbTarget Enum, rb uint32)
	CheckFramebufferStatus(target Enum) Enum
	CreateRenderbuffer() uint32
	DeleteRenderbuffer(rb uint32)
	BindRenderbuffer(target Enum, rb uint32)
	RenderbufferStorage(target, internalFormat Enum, width, height int)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	ClearDepth(d float32)
	ClearStencil(s int)
	Clear(mask Enum)
	Enable(cap Enum)
	Disable(cap Enum)
	DepthMask(mask bool)
	DepthFunc(fn Enum)
	BlendFunc(src, dst Enum)
	ColorMask(r, g, b, a bool)
	CullFace(face Enum)
	ReadPixels(x, y, width, height int, format, typ Enum, pixels []byte)

	DrawArraysInstanced(mode Enum, first, count, instances int)
	DrawElementsInstanced(mode Enum, count int, typ Enum, offset, instances int)
	Flush()
}
