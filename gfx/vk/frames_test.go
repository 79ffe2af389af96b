// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"errors"
	"testing"

	"github.com/devblok/korugfx/display"
	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/resource"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGfx(t *testing.T) (*gfx.Gfx, *fakeDevice, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := gfx.DefaultConfiguration()
	cfg.Debug = true
	cfg.Logger = logger
	dev := newFakeDevice()
	g, err := gfx.SetupWithBackend(cfg, display.NewHeadless(0), func(cfg gfx.Configuration, _ gfx.Display) (gfx.Backend, error) {
		return New(dev, cfg), nil
	})
	require.NoError(t, err)
	t.Cleanup(g.Discard)
	return g, dev, hook
}

func TestEveryFrameRebindsDrawState(t *testing.T) {
	g, dev, hook := setupGfx(t)

	ms, data := meshSetup(t, gfx.Index16)
	mesh := g.CreateResourceWithData(ms, data)
	bundle := g.CreateResource(bundleSetup(t))
	ds := g.CreateResource(gfx.NewDrawStateSetup(resource.NewLocator("ds"), mesh, bundle))
	require.Equal(t, resource.Valid, g.QueryResourceState(ds))

	var mvp gfx.UniformLayout
	require.NoError(t, mvp.Add("mvp", gfx.UniformMat4))
	params := gfx.NewUniformData(mvp)
	require.NoError(t, params.SetMat4("mvp", mgl32.Ident4()))

	for frame := 1; frame <= 3; frame++ {
		g.ApplyDefaultRenderTarget()
		g.Clear(gfx.DefaultClearState())
		g.ApplyDrawState(ds)
		g.ApplyUniformBlock(gfx.VertexStage, 0, params.Bytes())
		g.Draw(0)
		g.CommitFrame()

		assert.Equal(t, frame, dev.frames)
		assert.Equal(t, frame, dev.submitted)
		assert.Equal(t, frame, dev.calls["BindVertexBuffer"], "frame %d", frame)
		assert.Equal(t, frame, dev.calls["BindIndexBuffer"], "frame %d", frame)
		assert.Equal(t, frame, dev.calls["BindPipeline"], "frame %d", frame)
		assert.Len(t, dev.pushes, frame)
		require.Len(t, dev.draws, frame)
		assert.True(t, dev.draws[frame-1].indexed)

		last := g.LastFrameInfo()
		assert.Equal(t, 1, last.NumApplyDrawState)
		assert.Equal(t, 1, last.NumApplyUniformBlock)
		assert.Equal(t, 1, last.NumDraw)
	}

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, e.Message)
	}
}

func TestDrawStateIsNotCarriedIntoNextFrame(t *testing.T) {
	g, _, _ := setupGfx(t)

	ms, data := meshSetup(t, gfx.IndexNone)
	mesh := g.CreateResourceWithData(ms, data)
	bundle := g.CreateResource(bundleSetup(t))
	ds := g.CreateResource(gfx.NewDrawStateSetup(resource.NewLocator("ds"), mesh, bundle))

	g.ApplyDrawState(ds)
	g.Draw(0)
	g.CommitFrame()
	assert.Panics(t, func() { g.Draw(0) })
}

func TestReadPixelsNotSupported(t *testing.T) {
	g, _, _ := setupGfx(t)

	attrs := g.RenderTargetAttrs()
	buf := make([]byte, attrs.FramebufferWidth*attrs.FramebufferHeight*4)
	assert.True(t, errors.Is(g.ReadPixels(buf), gfx.ErrNotSupported))
}
