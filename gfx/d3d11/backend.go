// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package d3d11 implements the Direct3D 11 backend. Programs are built
// from precompiled HLSL5 byte code, uniform blocks live in constant
// buffers. The device and context are supplied by the display.
package d3d11

import (
	"fmt"

	"github.com/devblok/korugfx/gfx"
	"github.com/sirupsen/logrus"
)

// ShaderLang is the language of byte code accepted by the backend.
const ShaderLang = gfx.HLSL5

func init() {
	gfx.RegisterBackend(gfx.BackendD3D11, func(cfg gfx.Configuration, display gfx.Display) (gfx.Backend, error) {
		p, ok := display.(DeviceProvider)
		if !ok {
			return nil, fmt.Errorf("d3d11: display %T provides no D3D11 device", display)
		}
		return New(p, cfg), nil
	})
}

// unknown marks a cached binding whose native value is not known.
const unknown = ^Handle(0)

// stateCache holds the handles last bound to the context.
type stateCache struct {
	layout     Handle
	vb         Handle
	ib         Handle
	topology   Topology
	shaders    [gfx.NumShaderStages]Handle
	cbs        [gfx.NumShaderStages][gfx.MaxNumUniformBlocks]Handle
	srvs       [gfx.NumShaderStages][gfx.MaxNumTextures]Handle
	samplers   [gfx.NumShaderStages][gfx.MaxNumTextures]Handle
	rasterizer Handle
	blend      Handle
	depth      Handle
	rtv, dsv   Handle
	viewport   [4]int
}

func (c *stateCache) reset() {
	*c = stateCache{
		layout:     unknown,
		vb:         unknown,
		ib:         unknown,
		rasterizer: unknown,
		blend:      unknown,
		depth:      unknown,
		rtv:        unknown,
		dsv:        unknown,
		viewport:   [4]int{-1, -1, -1, -1},
	}
	for stage := range c.shaders {
		c.shaders[stage] = unknown
		for slot := range c.cbs[stage] {
			c.cbs[stage][slot] = unknown
		}
		for slot := range c.srvs[stage] {
			c.srvs[stage][slot] = unknown
			c.samplers[stage][slot] = unknown
		}
	}
}

// Backend implements gfx.Backend on a device and context.
type Backend struct {
	provider DeviceProvider
	dev      Device
	ctx      Context
	log      logrus.FieldLogger

	cache stateCache
	cur   *drawState

	// scratch pads uniform data to the constant buffer size.
	scratch []byte
}

// New creates a backend.
func New(p DeviceProvider, cfg gfx.Configuration) *Backend {
	b := &Backend{
		provider: p,
		dev:      p.D3D11Device(),
		ctx:      p.D3D11Context(),
		log:      cfg.Log().WithField("backend", gfx.BackendD3D11),
	}
	b.cache.reset()
	return b
}

// Type implements gfx.Backend.
func (b *Backend) Type() gfx.BackendType {
	return gfx.BackendD3D11
}

// Discard implements gfx.Backend.
func (b *Backend) Discard() {
	b.ctx.Flush()
	b.ResetState()
}

func (b *Backend) setShader(stage gfx.ShaderStage, h Handle) {
	if b.cache.shaders[stage] != h {
		b.ctx.SetShader(stage, h)
		b.cache.shaders[stage] = h
	}
}

func (b *Backend) setConstantBuffer(stage gfx.ShaderStage, slot int, h Handle) {
	if b.cache.cbs[stage][slot] != h {
		b.ctx.SetConstantBuffer(stage, slot, h)
		b.cache.cbs[stage][slot] = h
	}
}

func (b *Backend) setTexture(stage gfx.ShaderStage, slot int, srv, sampler Handle) {
	if b.cache.srvs[stage][slot] != srv {
		b.ctx.SetShaderResource(stage, slot, srv)
		b.cache.srvs[stage][slot] = srv
	}
	if b.cache.samplers[stage][slot] != sampler {
		b.ctx.SetSampler(stage, slot, sampler)
		b.cache.samplers[stage][slot] = sampler
	}
}

var _ gfx.Backend = (*Backend)(nil)
