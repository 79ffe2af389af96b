// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glnative implements gl.Functions with go-gl and registers the
// GL backend. The display must make a 3.3 core context current before
// the backend is created.
package glnative

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/devblok/korugfx/gfx"
	glbackend "github.com/devblok/korugfx/gfx/gl"
	"github.com/go-gl/gl/v3.3-core/gl"
)

func init() {
	gfx.RegisterBackend(gfx.BackendGL, func(cfg gfx.Configuration, display gfx.Display) (gfx.Backend, error) {
		if err := gl.Init(); err != nil {
			return nil, fmt.Errorf("gl.Init(): %w", err)
		}
		cfg.Log().WithField("version", gl.GoStr(gl.GetString(gl.VERSION))).Info("OpenGL initialised")
		return glbackend.New(Functions{}, cfg), nil
	})
}

// Functions calls straight into the current GL context.
type Functions struct{}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func (Functions) GetError() glbackend.Enum {
	return glbackend.Enum(gl.GetError())
}

func (Functions) CreateShader(typ glbackend.Enum) uint32 {
	return gl.CreateShader(uint32(typ))
}

func (Functions) ShaderSource(shader uint32, src string) {
	csrc, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csrc, nil)
}

func (Functions) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (Functions) GetShaderi(shader uint32, pname glbackend.Enum) int {
	var v int32
	gl.GetShaderiv(shader, uint32(pname), &v)
	return int(v)
}

func (Functions) GetShaderInfoLog(shader uint32) string {
	var n int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(shader, n, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (Functions) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (Functions) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (Functions) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (Functions) BindAttribLocation(program uint32, index uint32, name string) {
	gl.BindAttribLocation(program, index, gl.Str(name+"\x00"))
}

func (Functions) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (Functions) GetProgrami(program uint32, pname glbackend.Enum) int {
	var v int32
	gl.GetProgramiv(program, uint32(pname), &v)
	return int(v)
}

func (Functions) GetProgramInfoLog(program uint32) string {
	var n int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetProgramInfoLog(program, n, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (Functions) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (Functions) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (Functions) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (Functions) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (Functions) Uniform1fv(location int32, v []float32) {
	gl.Uniform1fv(location, int32(len(v)), &v[0])
}

func (Functions) Uniform2fv(location int32, v []float32) {
	gl.Uniform2fv(location, int32(len(v)/2), &v[0])
}

func (Functions) Uniform3fv(location int32, v []float32) {
	gl.Uniform3fv(location, int32(len(v)/3), &v[0])
}

func (Functions) Uniform4fv(location int32, v []float32) {
	gl.Uniform4fv(location, int32(len(v)/4), &v[0])
}

func (Functions) UniformMatrix4fv(location int32, v []float32) {
	gl.UniformMatrix4fv(location, int32(len(v)/16), false, &v[0])
}

func (Functions) CreateBuffer() uint32 {
	var b uint32
	gl.GenBuffers(1, &b)
	return b
}

func (Functions) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (Functions) BindBuffer(target glbackend.Enum, buffer uint32) {
	gl.BindBuffer(uint32(target), buffer)
}

func (Functions) BufferData(target glbackend.Enum, size int, data []byte, usage glbackend.Enum) {
	gl.BufferData(uint32(target), size, ptr(data), uint32(usage))
}

func (Functions) BufferSubData(target glbackend.Enum, offset int, data []byte) {
	gl.BufferSubData(uint32(target), offset, len(data), ptr(data))
}

func (Functions) CreateVertexArray() uint32 {
	var a uint32
	gl.GenVertexArrays(1, &a)
	return a
}

func (Functions) DeleteVertexArray(array uint32) {
	gl.DeleteVertexArrays(1, &array)
}

func (Functions) BindVertexArray(array uint32) {
	gl.BindVertexArray(array)
}

func (Functions) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (Functions) VertexAttribPointer(index uint32, size int, typ glbackend.Enum, normalized bool, stride, offset int) {
	gl.VertexAttribPointer(index, int32(size), uint32(typ), normalized, int32(stride), gl.PtrOffset(offset))
}

func (Functions) CreateTexture() uint32 {
	var t uint32
	gl.GenTextures(1, &t)
	return t
}

func (Functions) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (Functions) ActiveTexture(unit glbackend.Enum) {
	gl.ActiveTexture(uint32(unit))
}

func (Functions) BindTexture(target glbackend.Enum, texture uint32) {
	gl.BindTexture(uint32(target), texture)
}

func (Functions) TexImage2D(target glbackend.Enum, internalFormat glbackend.Enum, width, height int, format, typ glbackend.Enum, data []byte) {
	gl.TexImage2D(uint32(target), 0, int32(internalFormat), int32(width), int32(height), 0,
		uint32(format), uint32(typ), ptr(data))
}

func (Functions) TexParameteri(target, pname glbackend.Enum, param int) {
	gl.TexParameteri(uint32(target), uint32(pname), int32(param))
}

func (Functions) CreateFramebuffer() uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	return fb
}

func (Functions) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

func (Functions) BindFramebuffer(target glbackend.Enum, fb uint32) {
	gl.BindFramebuffer(uint32(target), fb)
}

func (Functions) FramebufferTexture2D(target, attachment, texTarget glbackend.Enum, texture uint32) {
	gl.FramebufferTexture2D(uint32(target), uint32(attachment), uint32(texTarget), texture, 0)
}

func (Functions) FramebufferRenderbuffer(target, attachment, rbTarget glbackend.Enum, rb uint32) {
	gl.FramebufferRenderbuffer(uint32(target), uint32(attachment), uint32(rbTarget), rb)
}

func (Functions) CheckFramebufferStatus(target glbackend.Enum) glbackend.Enum {
	return glbackend.Enum(gl.CheckFramebufferStatus(uint32(target)))
}

func (Functions) CreateRenderbuffer() uint32 {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	return rb
}

func (Functions) DeleteRenderbuffer(rb uint32) {
	gl.DeleteRenderbuffers(1, &rb)
}

func (Functions) BindRenderbuffer(target glbackend.Enum, rb uint32) {
	gl.BindRenderbuffer(uint32(target), rb)
}

func (Functions) RenderbufferStorage(target, internalFormat glbackend.Enum, width, height int) {
	gl.RenderbufferStorage(uint32(target), uint32(internalFormat), int32(width), int32(height))
}

func (Functions) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (Functions) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (Functions) ClearDepth(d float32) {
	gl.ClearDepth(float64(d))
}

func (Functions) ClearStencil(s int) {
	gl.ClearStencil(int32(s))
}

func (Functions) Clear(mask glbackend.Enum) {
	gl.Clear(uint32(mask))
}

func (Functions) Enable(cap glbackend.Enum) {
	gl.Enable(uint32(cap))
}

func (Functions) Disable(cap glbackend.Enum) {
	gl.Disable(uint32(cap))
}

func (Functions) DepthMask(mask bool) {
	gl.DepthMask(mask)
}

func (Functions) DepthFunc(fn glbackend.Enum) {
	gl.DepthFunc(uint32(fn))
}

func (Functions) BlendFunc(src, dst glbackend.Enum) {
	gl.BlendFunc(uint32(src), uint32(dst))
}

func (Functions) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (Functions) CullFace(face glbackend.Enum) {
	gl.CullFace(uint32(face))
}

func (Functions) ReadPixels(x, y, width, height int, format, typ glbackend.Enum, pixels []byte) {
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), uint32(format), uint32(typ), ptr(pixels))
}

func (Functions) DrawArraysInstanced(mode glbackend.Enum, first, count, instances int) {
	gl.DrawArraysInstanced(uint32(mode), int32(first), int32(count), int32(instances))
}

func (Functions) DrawElementsInstanced(mode glbackend.Enum, count int, typ glbackend.Enum, offset, instances int) {
	gl.DrawElementsInstanced(uint32(mode), int32(count), uint32(typ), gl.PtrOffset(offset), int32(instances))
}

func (Functions) Flush() {
	gl.Flush()
}

var _ glbackend.Functions = Functions{}
