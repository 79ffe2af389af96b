// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glfake is an in-memory implementation of gl.Functions that
// tracks native objects and counts calls. Shaders fail to compile when
// their braces or parentheses don't balance or when they contain #error.
package glfake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devblok/korugfx/gfx/gl"
)

type shaderObject struct {
	typ      gl.Enum
	src      string
	compiled bool
	log      string
}

type programObject struct {
	attached []uint32
	attribs  map[string]uint32
	linked   bool
	log      string
	uniforms map[string]int32
	values   map[int32][]float32
	ints     map[int32]int32
}

// DrawCall records one draw.
type DrawCall struct {
	Program   uint32
	VAO       uint32
	Mode      gl.Enum
	First     int
	Count     int
	Instances int
	Indexed   bool
}

// Functions implements gl.Functions.
type Functions struct {
	// Calls counts calls per function name.
	Calls map[string]int

	// Draws records every draw call.
	Draws []DrawCall

	// FramebufferStatus is returned by CheckFramebufferStatus.
	FramebufferStatus gl.Enum

	// ReuseNames hands deleted names out again per object kind, most
	// recent first, the way drivers do.
	ReuseNames bool

	// AttribPointers counts VertexAttribPointer calls per bound VAO.
	AttribPointers map[uint32]int

	next     uint32
	freed    map[string][]uint32
	pending  gl.Enum
	inject   map[string]gl.Enum
	shaders  map[uint32]*shaderObject
	programs map[uint32]*programObject
	objects  map[string]map[uint32]bool

	program    uint32
	vao        uint32
	clearColor [4]float32
}

// New creates a fake with no live objects.
func New() *Functions {
	return &Functions{
		Calls:             make(map[string]int),
		FramebufferStatus: gl.FRAMEBUFFER_COMPLETE,
		AttribPointers:    make(map[uint32]int),
		freed:             make(map[string][]uint32),
		inject:            make(map[string]gl.Enum),
		shaders:           make(map[uint32]*shaderObject),
		programs:          make(map[uint32]*programObject),
		objects: map[string]map[uint32]bool{
			"buffer":       {},
			"vertexArray":  {},
			"texture":      {},
			"framebuffer":  {},
			"renderbuffer": {},
		},
	}
}

// InjectError makes the next call of the named function raise a GL error.
func (f *Functions) InjectError(call string, e gl.Enum) {
	f.inject[call] = e
}

func (f *Functions) call(name string) {
	f.Calls[name]++
	if e, ok := f.inject[name]; ok {
		delete(f.inject, name)
		if f.pending == gl.NO_ERROR {
			f.pending = e
		}
	}
}

// Shaders and programs share the "program" name space.
func (f *Functions) handle(kind string) uint32 {
	if freed := f.freed[kind]; f.ReuseNames && len(freed) > 0 {
		h := freed[len(freed)-1]
		f.freed[kind] = freed[:len(freed)-1]
		return h
	}
	f.next++
	return f.next
}

func (f *Functions) release(kind string, h uint32) {
	if h != 0 {
		f.freed[kind] = append(f.freed[kind], h)
	}
}

// ResetCalls zeroes the call counters, the draw log and the recorded
// attribute pointers.
func (f *Functions) ResetCalls() {
	f.Calls = make(map[string]int)
	f.Draws = nil
	f.AttribPointers = make(map[uint32]int)
}

// Live returns the number of live native objects of every kind.
func (f *Functions) Live() int {
	n := len(f.shaders) + len(f.programs)
	for _, objs := range f.objects {
		n += len(objs)
	}
	return n
}

// LiveShaders returns the number of live shader objects.
func (f *Functions) LiveShaders() int {
	return len(f.shaders)
}

// LivePrograms returns the number of live program objects.
func (f *Functions) LivePrograms() int {
	return len(f.programs)
}

// AttribLocation returns the location bound to an attribute name.
func (f *Functions) AttribLocation(program uint32, name string) (uint32, bool) {
	p, ok := f.programs[program]
	if !ok {
		return 0, false
	}
	loc, ok := p.attribs[name]
	return loc, ok
}

// UniformValue returns the floats last set at a location of a program.
func (f *Functions) UniformValue(program uint32, location int32) []float32 {
	if p, ok := f.programs[program]; ok {
		return p.values[location]
	}
	return nil
}

// UniformInt returns the integer last set at a location of a program.
func (f *Functions) UniformInt(program uint32, location int32) (int32, bool) {
	if p, ok := f.programs[program]; ok {
		v, ok := p.ints[location]
		return v, ok
	}
	return 0, false
}

// CurrentProgram returns the program in use.
func (f *Functions) CurrentProgram() uint32 {
	return f.program
}

func (f *Functions) GetError() gl.Enum {
	f.call("GetError")
	e := f.pending
	f.pending = gl.NO_ERROR
	return e
}

func (f *Functions) CreateShader(typ gl.Enum) uint32 {
	f.call("CreateShader")
	h := f.handle("program")
	f.shaders[h] = &shaderObject{typ: typ}
	return h
}

func (f *Functions) ShaderSource(shader uint32, src string) {
	f.call("ShaderSource")
	if s, ok := f.shaders[shader]; ok {
		s.src = src
	}
}

func (f *Functions) CompileShader(shader uint32) {
	f.call("CompileShader")
	s, ok := f.shaders[shader]
	if !ok {
		return
	}
	if err := check(s.src); err != nil {
		s.compiled = false
		s.log = fmt.Sprintf("0:1(1): error: %s", err)
		return
	}
	s.compiled = true
	s.log = ""
}

func check(src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("empty source")
	}
	if strings.Contains(src, "#error") {
		return fmt.Errorf("#error directive")
	}
	depth := map[rune]int{}
	pairs := map[rune]rune{'}': '{', ')': '('}
	for _, r := range src {
		switch r {
		case '{', '(':
			depth[r]++
		case '}', ')':
			depth[pairs[r]]--
			if depth[pairs[r]] < 0 {
				return fmt.Errorf("syntax error, unexpected '%c'", r)
			}
		}
	}
	for r, d := range depth {
		if d != 0 {
			return fmt.Errorf("syntax error, unbalanced '%c'", r)
		}
	}
	return nil
}

func (f *Functions) GetShaderi(shader uint32, pname gl.Enum) int {
	f.call("GetShaderi")
	s, ok := f.shaders[shader]
	if !ok || pname != gl.COMPILE_STATUS {
		return 0
	}
	if s.compiled {
		return 1
	}
	return 0
}

func (f *Functions) GetShaderInfoLog(shader uint32) string {
	f.call("GetShaderInfoLog")
	if s, ok := f.shaders[shader]; ok {
		return s.log
	}
	return ""
}

func (f *Functions) DeleteShader(shader uint32) {
	f.call("DeleteShader")
	if _, ok := f.shaders[shader]; ok {
		delete(f.shaders, shader)
		f.release("program", shader)
	}
}

func (f *Functions) CreateProgram() uint32 {
	f.call("CreateProgram")
	h := f.handle("program")
	f.programs[h] = &programObject{
		attribs:  make(map[string]uint32),
		uniforms: make(map[string]int32),
		values:   make(map[int32][]float32),
		ints:     make(map[int32]int32),
	}
	return h
}

func (f *Functions) AttachShader(program, shader uint32) {
	f.call("AttachShader")
	if p, ok := f.programs[program]; ok {
		p.attached = append(p.attached, shader)
	}
}

func (f *Functions) BindAttribLocation(program uint32, index uint32, name string) {
	f.call("BindAttribLocation")
	if p, ok := f.programs[program]; ok {
		p.attribs[name] = index
	}
}

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*(\[\s*\d+\s*\])?\s*;`)

func (f *Functions) LinkProgram(program uint32) {
	f.call("LinkProgram")
	p, ok := f.programs[program]
	if !ok {
		return
	}
	var vs, fs *shaderObject
	for _, h := range p.attached {
		s, ok := f.shaders[h]
		if !ok {
			continue
		}
		switch s.typ {
		case gl.VERTEX_SHADER:
			vs = s
		case gl.FRAGMENT_SHADER:
			fs = s
		}
	}
	switch {
	case vs == nil || fs == nil:
		p.linked, p.log = false, "error: program needs a vertex and a fragment shader"
		return
	case !vs.compiled || !fs.compiled:
		p.linked, p.log = false, "error: linking with uncompiled shader"
		return
	}
	p.linked, p.log = true, ""
	p.uniforms = make(map[string]int32)
	for _, s := range []*shaderObject{vs, fs} {
		for _, m := range uniformDecl.FindAllStringSubmatch(s.src, -1) {
			if _, ok := p.uniforms[m[1]]; !ok {
				p.uniforms[m[1]] = int32(len(p.uniforms))
			}
		}
	}
}

func (f *Functions) GetProgrami(program uint32, pname gl.Enum) int {
	f.call("GetProgrami")
	p, ok := f.programs[program]
	if !ok || pname != gl.LINK_STATUS {
		return 0
	}
	if p.linked {
		return 1
	}
	return 0
}

func (f *Functions) GetProgramInfoLog(program uint32) string {
	f.call("GetProgramInfoLog")
	if p, ok := f.programs[program]; ok {
		return p.log
	}
	return ""
}

func (f *Functions) DeleteProgram(program uint32) {
	f.call("DeleteProgram")
	if _, ok := f.programs[program]; ok {
		delete(f.programs, program)
		f.release("program", program)
	}
	if f.program == program {
		f.program = 0
	}
}

func (f *Functions) UseProgram(program uint32) {
	f.call("UseProgram")
	f.program = program
}

func (f *Functions) GetUniformLocation(program uint32, name string) int32 {
	f.call("GetUniformLocation")
	p, ok := f.programs[program]
	if !ok || !p.linked {
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (f *Functions) setUniform(name string, location int32, v []float32) {
	f.call(name)
	if p, ok := f.programs[f.program]; ok && location >= 0 {
		p.values[location] = append([]float32(nil), v...)
	}
}

func (f *Functions) Uniform1i(location int32, v int32) {
	f.call("Uniform1i")
	if p, ok := f.programs[f.program]; ok && location >= 0 {
		p.ints[location] = v
	}
}

func (f *Functions) Uniform1fv(location int32, v []float32) { f.setUniform("Uniform1fv", location, v) }
func (f *Functions) Uniform2fv(location int32, v []float32) { f.setUniform("Uniform2fv", location, v) }
func (f *Functions) Uniform3fv(location int32, v []float32) { f.setUniform("Uniform3fv", location, v) }
func (f *Functions) Uniform4fv(location int32, v []float32) { f.setUniform("Uniform4fv", location, v) }

func (f *Functions) UniformMatrix4fv(location int32, v []float32) {
	f.setUniform("UniformMatrix4fv", location, v)
}

func (f *Functions) create(kind, call string) uint32 {
	f.call(call)
	h := f.handle(kind)
	f.objects[kind][h] = true
	return h
}

func (f *Functions) delete(kind, call string, h uint32) {
	f.call(call)
	if f.objects[kind][h] {
		delete(f.objects[kind], h)
		f.release(kind, h)
	}
}

func (f *Functions) CreateBuffer() uint32       { return f.create("buffer", "CreateBuffer") }
func (f *Functions) DeleteBuffer(buffer uint32) { f.delete("buffer", "DeleteBuffer", buffer) }

func (f *Functions) BindBuffer(target gl.Enum, buffer uint32) { f.call("BindBuffer") }

func (f *Functions) BufferData(target gl.Enum, size int, data []byte, usage gl.Enum) {
	f.call("BufferData")
}

func (f *Functions) BufferSubData(target gl.Enum, offset int, data []byte) {
	f.call("BufferSubData")
}

func (f *Functions) CreateVertexArray() uint32 { return f.create("vertexArray", "CreateVertexArray") }

func (f *Functions) DeleteVertexArray(array uint32) {
	f.delete("vertexArray", "DeleteVertexArray", array)
	if f.vao == array {
		f.vao = 0
	}
}

func (f *Functions) BindVertexArray(array uint32) {
	f.call("BindVertexArray")
	f.vao = array
}

func (f *Functions) EnableVertexAttribArray(index uint32) { f.call("EnableVertexAttribArray") }

func (f *Functions) VertexAttribPointer(index uint32, size int, typ gl.Enum, normalized bool, stride, offset int) {
	f.call("VertexAttribPointer")
	f.AttribPointers[f.vao]++
}

func (f *Functions) CreateTexture() uint32        { return f.create("texture", "CreateTexture") }
func (f *Functions) DeleteTexture(texture uint32) { f.delete("texture", "DeleteTexture", texture) }

func (f *Functions) ActiveTexture(unit gl.Enum)                 { f.call("ActiveTexture") }
func (f *Functions) BindTexture(target gl.Enum, texture uint32) { f.call("BindTexture") }

func (f *Functions) TexImage2D(target gl.Enum, internalFormat gl.Enum, width, height int, format, typ gl.Enum, data []byte) {
	f.call("TexImage2D")
}

func (f *Functions) TexParameteri(target, pname gl.Enum, param int) { f.call("TexParameteri") }

func (f *Functions) CreateFramebuffer() uint32 { return f.create("framebuffer", "CreateFramebuffer") }

func (f *Functions) DeleteFramebuffer(fb uint32) {
	f.delete("framebuffer", "DeleteFramebuffer", fb)
}

func (f *Functions) BindFramebuffer(target gl.Enum, fb uint32) { f.call("BindFramebuffer") }

func (f *Functions) FramebufferTexture2D(target, attachment, texTarget gl.Enum, texture uint32) {
	f.call("FramebufferTexture2D")
}

func (f *Functions) FramebufferRenderbuffer(target, attachment, rbTarget gl.Enum, rb uint32) {
	f.call("FramebufferRenderbuffer")
}

func (f *Functions) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	f.call("CheckFramebufferStatus")
	return f.FramebufferStatus
}

func (f *Functions) CreateRenderbuffer() uint32 { return f.create("renderbuffer", "CreateRenderbuffer") }

func (f *Functions) DeleteRenderbuffer(rb uint32) {
	f.delete("renderbuffer", "DeleteRenderbuffer", rb)
}

func (f *Functions) BindRenderbuffer(target gl.Enum, rb uint32) { f.call("BindRenderbuffer") }

func (f *Functions) RenderbufferStorage(target, internalFormat gl.Enum, width, height int) {
	f.call("RenderbufferStorage")
}

func (f *Functions) ClearColor(r, g, b, a float32) {
	f.call("ClearColor")
	f.clearColor = [4]float32{r, g, b, a}
}

func (f *Functions) Viewport(x, y, width, height int) { f.call("Viewport") }
func (f *Functions) ClearDepth(d float32)             { f.call("ClearDepth") }
func (f *Functions) ClearStencil(s int)               { f.call("ClearStencil") }
func (f *Functions) Clear(mask gl.Enum)               { f.call("Clear") }
func (f *Functions) Enable(cap gl.Enum)               { f.call("Enable") }
func (f *Functions) Disable(cap gl.Enum)              { f.call("Disable") }
func (f *Functions) DepthMask(mask bool)              { f.call("DepthMask") }
func (f *Functions) DepthFunc(fn gl.Enum)             { f.call("DepthFunc") }
func (f *Functions) BlendFunc(src, dst gl.Enum)       { f.call("BlendFunc") }
func (f *Functions) ColorMask(r, g, b, a bool)        { f.call("ColorMask") }
func (f *Functions) CullFace(face gl.Enum)            { f.call("CullFace") }

func (f *Functions) DrawArraysInstanced(mode gl.Enum, first, count, instances int) {
	f.call("DrawArraysInstanced")
	f.Draws = append(f.Draws, DrawCall{
		Program:   f.program,
		VAO:       f.vao,
		Mode:      mode,
		First:     first,
		Count:     count,
		Instances: instances,
	})
}

func (f *Functions) DrawElementsInstanced(mode gl.Enum, count int, typ gl.Enum, offset, instances int) {
	f.call("DrawElementsInstanced")
	f.Draws = append(f.Draws, DrawCall{
		Program:   f.program,
		VAO:       f.vao,
		Mode:      mode,
		First:     offset,
		Count:     count,
		Instances: instances,
		Indexed:   true,
	})
}

// ReadPixels fills pixels with the last clear color.
func (f *Functions) ReadPixels(x, y, width, height int, format, typ gl.Enum, pixels []byte) {
	f.call("ReadPixels")
	if format != gl.RGBA || typ != gl.UNSIGNED_BYTE || len(pixels) < width*height*4 {
		if f.pending == gl.NO_ERROR {
			f.pending = gl.INVALID_OPERATION
		}
		return
	}
	var px [4]byte
	for i, c := range f.clearColor {
		px[i] = byte(c*255 + 0.5)
	}
	for i := 0; i < width*height; i++ {
		copy(pixels[i*4:], px[:])
	}
}

func (f *Functions) Flush() { f.call("Flush") }

var _ gl.Functions = (*Functions)(nil)
