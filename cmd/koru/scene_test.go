// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	"github.com/devblok/korugfx/display"
	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/gfx/gl"
	"github.com/devblok/korugfx/gfx/gl/glfake"
	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shaderBox() packr.Box {
	return packr.NewBox("./shaders")
}

func TestProgramSetupPerBackend(t *testing.T) {
	setup, err := programSetup(gfx.BackendGL, shaderBox())
	require.NoError(t, err)
	assert.Equal(t, 1, setup.NumPrograms())
	assert.Equal(t, 1, setup.NumUniformBlocks())
	assert.Equal(t, 64, setup.UniformBlock(0).Layout.ByteSize())

	_, err = programSetup(gfx.BackendD3D11, shaderBox())
	assert.Error(t, err)
}

func TestSceneRendersFrames(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := gfx.DefaultConfiguration()
	cfg.Debug = true
	cfg.Logger = logger

	functions := glfake.New()
	g, err := gfx.SetupWithBackend(cfg, display.NewHeadless(0), func(cfg gfx.Configuration, _ gfx.Display) (gfx.Backend, error) {
		return gl.New(functions, cfg), nil
	})
	require.NoError(t, err)
	defer g.Discard()

	s, err := newScene(g, shaderBox())
	require.NoError(t, err)

	s.frame()
	info := g.LastFrameInfo()
	assert.Equal(t, 2, info.NumDraw)
	assert.Equal(t, 2, info.NumApplyUniformBlock)

	s.frame()
	assert.Equal(t, 2, g.LastFrameInfo().NumDraw)
	assert.Greater(t, s.angle, float32(0.015))

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "error", e.Level.String(), e.Message)
	}
}
