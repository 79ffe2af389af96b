// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"context"
	"fmt"
	"runtime/trace"
	"sync"

	"github.com/devblok/korugfx/resource"
	"github.com/sirupsen/logrus"
)

// Only one Gfx can be set up at a time, the native APIs bind their
// context to the thread and window.
var (
	activeMu sync.Mutex
	active   *Gfx
)

// Gfx is the rendering context. All of its methods must be called from the
// thread that set it up.
type Gfx struct {
	cfg     Configuration
	log     logrus.FieldLogger
	ctx     context.Context
	display Display
	backend Backend
	mgr     *manager
	rdr     *renderer

	discarded bool
}

// Setup sets up the display and the configured backend.
func Setup(cfg Configuration, display Display) (*Gfx, error) {
	typ := cfg.Backend
	if typ == "" {
		typ = DefaultBackend()
	}
	return setup(cfg, display, func(cfg Configuration, display Display) (Backend, error) {
		return NewBackend(typ, cfg, display)
	})
}

// SetupWithBackend sets up Gfx with an explicitly constructed backend,
// bypassing the registry.
func SetupWithBackend(cfg Configuration, display Display, factory BackendFactory) (*Gfx, error) {
	return setup(cfg, display, factory)
}

func setup(cfg Configuration, display Display, factory BackendFactory) (*Gfx, error) {
	defer trace.StartRegion(context.Background(), "gfx.Setup").End()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		return nil, ErrAlreadySetup
	}

	g := &Gfx{
		cfg:     cfg,
		log:     cfg.Log(),
		ctx:     context.Background(),
		display: display,
	}
	if err := display.SetupDisplay(cfg); err != nil {
		return nil, fmt.Errorf("gfx: display setup: %w", err)
	}
	backend, err := factory(cfg, display)
	if err != nil {
		display.DiscardDisplay()
		return nil, fmt.Errorf("gfx: backend setup: %w", err)
	}
	g.backend = backend

	if g.mgr, err = newManager(cfg, backend); err != nil {
		backend.Discard()
		display.DiscardDisplay()
		return nil, err
	}
	g.rdr = newRenderer(backend, display, g.mgr)

	attrs := display.DisplayAttrs()
	g.log.WithFields(logrus.Fields{
		"backend": backend.Type(),
		"width":   attrs.Width,
		"height":  attrs.Height,
	}).Info("gfx set up")

	active = g
	return g, nil
}

// Discard destroys every resource, the backend and the display.
func (g *Gfx) Discard() {
	defer trace.StartRegion(g.ctx, "gfx.Discard").End()

	activeMu.Lock()
	defer activeMu.Unlock()
	if g.discarded || active != g {
		g.mgr.contract.violated("discard: %s", ErrNotSetup)
		return
	}
	g.mgr.discardAll()
	g.backend.Discard()
	g.display.DiscardDisplay()
	g.discarded = true
	active = nil
}

// live reports calls on a discarded Gfx as contract violations.
func (g *Gfx) live(op string) bool {
	if g.discarded {
		g.mgr.contract.violated("%s: %s", op, ErrNotSetup)
		return false
	}
	return true
}

// Backend returns the type of the running backend.
func (g *Gfx) Backend() BackendType {
	return g.backend.Type()
}

// DisplayAttrs returns the display attributes.
func (g *Gfx) DisplayAttrs() DisplayAttrs {
	return g.display.DisplayAttrs()
}

// QuitRequested processes window events and reports whether the window
// wants to close.
func (g *Gfx) QuitRequested() bool {
	g.display.ProcessSystemEvents()
	return g.display.QuitRequested()
}

// CreateResource creates a resource from setup. The returned id is either
// Valid or Failed, or invalid if the pool is exhausted.
func (g *Gfx) CreateResource(setup ResourceSetup) resource.Id {
	if !g.live("CreateResource") {
		return resource.Id{}
	}
	defer trace.StartRegion(g.ctx, "gfx.CreateResource").End()
	return g.mgr.create(setup, nil)
}

// CreateResourceWithData creates a mesh or texture with initial data.
func (g *Gfx) CreateResourceWithData(setup ResourceSetup, data []byte) resource.Id {
	if !g.live("CreateResourceWithData") {
		return resource.Id{}
	}
	defer trace.StartRegion(g.ctx, "gfx.CreateResource").End()
	return g.mgr.create(setup, data)
}

// LookupResource returns the live resource of a shared locator and takes a
// use on it. The id is invalid when nothing was found.
func (g *Gfx) LookupResource(loc resource.Locator) resource.Id {
	if !g.live("LookupResource") {
		return resource.Id{}
	}
	return g.mgr.lookup(loc)
}

// DiscardResource drops a use of the resource, destroying it with the last.
func (g *Gfx) DiscardResource(id resource.Id) {
	if !g.live("DiscardResource") {
		return
	}
	defer trace.StartRegion(g.ctx, "gfx.DiscardResource").End()
	g.mgr.discard(id)
}

// QueryResourceState returns the state of a resource, Invalid for ids that
// don't point to a live resource.
func (g *Gfx) QueryResourceState(id resource.Id) resource.State {
	return g.mgr.queryState(id)
}

// UseCount returns the number of uses of a resource.
func (g *Gfx) UseCount(id resource.Id) int {
	return g.mgr.useCount(id)
}

// LiveHandles returns the number of native handles held by all resources.
func (g *Gfx) LiveHandles() int {
	return g.mgr.liveHandles()
}

// ApplyDefaultRenderTarget renders to the display's backbuffer.
func (g *Gfx) ApplyDefaultRenderTarget() {
	if !g.live("ApplyDefaultRenderTarget") {
		return
	}
	g.rdr.applyRenderTarget(resource.Id{})
}

// ApplyOffscreenRenderTarget renders to a render target texture.
func (g *Gfx) ApplyOffscreenRenderTarget(id resource.Id) {
	if !g.live("ApplyOffscreenRenderTarget") {
		return
	}
	if !id.IsValid() {
		g.mgr.contract.violated("offscreen render target needs a valid id")
		return
	}
	g.rdr.applyRenderTarget(id)
}

// ApplyViewport sets the viewport of the current render target.
func (g *Gfx) ApplyViewport(x, y, width, height int) {
	if !g.live("ApplyViewport") {
		return
	}
	g.backend.ApplyViewport(x, y, width, height)
}

// ApplyDrawState makes a draw state current.
func (g *Gfx) ApplyDrawState(id resource.Id) {
	if !g.live("ApplyDrawState") {
		return
	}
	defer trace.StartRegion(g.ctx, "gfx.ApplyDrawState").End()
	g.rdr.applyDrawState(id)
}

// ApplyUniformBlock uploads block data for the current draw state.
func (g *Gfx) ApplyUniformBlock(stage ShaderStage, slot int, data []byte) {
	if !g.live("ApplyUniformBlock") {
		return
	}
	g.rdr.applyUniformBlock(stage, slot, data)
}

// ApplyTexture binds a texture for the current draw state.
func (g *Gfx) ApplyTexture(stage ShaderStage, slot int, id resource.Id) {
	if !g.live("ApplyTexture") {
		return
	}
	g.rdr.applyTexture(stage, slot, id)
}

// Clear clears the current render target.
func (g *Gfx) Clear(state ClearState) {
	if !g.live("Clear") {
		return
	}
	g.backend.Clear(state)
}

// UpdateVertices replaces the vertex data of a stream or dynamic mesh.
func (g *Gfx) UpdateVertices(id resource.Id, data []byte) error {
	if g.discarded {
		return ErrNotSetup
	}
	mesh := g.mgr.meshSlot(id)
	if mesh == nil {
		return fmt.Errorf("gfx: mesh %s is not valid", id)
	}
	if mesh.setup.Usage == Immutable {
		return fmt.Errorf("gfx: mesh %s is immutable", mesh.setup.Locator)
	}
	if len(data) > mesh.setup.VertexDataSize() {
		return fmt.Errorf("gfx: %d bytes of vertex data exceed the mesh", len(data))
	}
	return g.backend.UpdateVertices(mesh.obj, data)
}

// Draw draws a primitive group of the current draw state's mesh.
func (g *Gfx) Draw(primGroupIndex int) {
	g.DrawInstanced(primGroupIndex, 1)
}

// DrawInstanced draws a primitive group numInstances times.
func (g *Gfx) DrawInstanced(primGroupIndex, numInstances int) {
	if !g.live("DrawInstanced") {
		return
	}
	defer trace.StartRegion(g.ctx, "gfx.Draw").End()
	if group, ok := g.rdr.primitiveGroup(primGroupIndex); ok {
		g.rdr.draw(group, numInstances)
	}
}

// DrawGroup draws an explicit primitive group.
func (g *Gfx) DrawGroup(group PrimitiveGroup) {
	if !g.live("DrawGroup") {
		return
	}
	defer trace.StartRegion(g.ctx, "gfx.Draw").End()
	g.rdr.draw(group, 1)
}

// CommitFrame finishes the frame and presents it.
func (g *Gfx) CommitFrame() {
	if !g.live("CommitFrame") {
		return
	}
	defer trace.StartRegion(g.ctx, "gfx.CommitFrame").End()
	g.rdr.commitFrame()
}

// RenderTargetAttrs returns the attributes of the applied render target,
// the display's for the default one.
func (g *Gfx) RenderTargetAttrs() DisplayAttrs {
	return g.rdr.renderTargetAttrs()
}

// ReadPixels reads the RGBA8 pixels of the applied render target into buf.
// buf must hold FramebufferWidth*FramebufferHeight*4 bytes of
// RenderTargetAttrs. Backends without CPU readback return ErrNotSupported.
func (g *Gfx) ReadPixels(buf []byte) error {
	if g.discarded {
		return ErrNotSetup
	}
	defer trace.StartRegion(g.ctx, "gfx.ReadPixels").End()
	return g.rdr.readPixels(buf)
}

// ResetStateCache forces the next apply calls to reach the backend.
func (g *Gfx) ResetStateCache() {
	if !g.live("ResetStateCache") {
		return
	}
	g.rdr.resetStateCache()
}

// FrameInfo returns the counters of the frame in progress.
func (g *Gfx) FrameInfo() FrameInfo {
	return g.rdr.frame
}

// LastFrameInfo returns the counters of the last committed frame.
func (g *Gfx) LastFrameInfo() FrameInfo {
	return g.rdr.lastFrame
}
