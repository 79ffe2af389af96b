// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vk implements the Vulkan backend. Program bundles draw their
// shader functions from a library, a kar archive of SPIR-V modules.
// Uniform blocks are pushed as push constants. Commands are recorded into
// the frame's command buffer, which is started by the first command of a
// frame and submitted by CommitFrame.
package vk

import (
	"github.com/devblok/korugfx/gfx"
	"github.com/sirupsen/logrus"
)

// ShaderLang is the language of byte code accepted by the backend.
const ShaderLang = gfx.SPIRV

// MaxPushConstantSize is the push constant budget every Vulkan
// implementation guarantees.
const MaxPushConstantSize = 128

type commandCache struct {
	pipeline Handle
	vb, ib   Handle
	viewport [4]int
}

func (c *commandCache) reset() {
	*c = commandCache{viewport: [4]int{-1, -1, -1, -1}}
}

// Backend implements gfx.Backend on a Device.
type Backend struct {
	dev Device
	log logrus.FieldLogger

	enc         CommandEncoder
	frameFailed bool

	cache commandCache
	cur   *drawState
}

// New creates a backend.
func New(dev Device, cfg gfx.Configuration) *Backend {
	b := &Backend{
		dev: dev,
		log: cfg.Log().WithField("backend", gfx.BackendVulkan),
	}
	b.cache.reset()
	return b
}

// Type implements gfx.Backend.
func (b *Backend) Type() gfx.BackendType {
	return gfx.BackendVulkan
}

// Discard implements gfx.Backend.
func (b *Backend) Discard() {
	b.CommitFrame()
	b.dev.WaitIdle()
	b.dev.Close()
}

// encoder returns the command encoder of the current frame, nil when the
// frame could not be started.
func (b *Backend) encoder() CommandEncoder {
	if b.enc != nil || b.frameFailed {
		return b.enc
	}
	enc, err := b.dev.BeginFrame()
	if err != nil {
		b.log.WithError(err).Warn("frame skipped")
		b.frameFailed = true
		return nil
	}
	b.enc = enc
	return enc
}

var _ gfx.Backend = (*Backend)(nil)
