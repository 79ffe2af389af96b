// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gl implements the OpenGL 3.3 core backend. Native calls go
// through Functions, implemented by glnative for a real context.
package gl

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
	"github.com/sirupsen/logrus"
)

// ShaderLang is the language of sources compiled by the backend.
const ShaderLang = gfx.GLSL330

// Backend implements gfx.Backend on top of Functions.
type Backend struct {
	f     Functions
	log   logrus.FieldLogger
	state glstate

	cur *drawState
}

// New creates a backend. The GL context must be current.
func New(f Functions, cfg gfx.Configuration) *Backend {
	b := &Backend{
		f:   f,
		log: cfg.Log().WithField("backend", gfx.BackendGL),
	}
	b.state.reset()
	return b
}

// Type implements gfx.Backend.
func (b *Backend) Type() gfx.BackendType {
	return gfx.BackendGL
}

// Discard implements gfx.Backend.
func (b *Backend) Discard() {
	b.bindVertexArray(0)
	b.useProgram(0)
	b.bindFramebuffer(0)
	b.cur = nil
}

// checkError turns a pending GL error into an error.
func (b *Backend) checkError(op string) error {
	if e := b.f.GetError(); e != NO_ERROR {
		return fmt.Errorf("%s: GL error %#04x", op, uint32(e))
	}
	return nil
}

var _ gfx.Backend = (*Backend)(nil)
