// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"errors"
	"testing"

	"github.com/devblok/korugfx/display"
	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/gfx/gl"
	"github.com/devblok/korugfx/gfx/gl/glfake"
	"github.com/devblok/korugfx/resource"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vsSource = `#version 330 core
in vec4 position;
in vec4 color0;
uniform mat4 mvp;
out vec4 color;
void main() {
	gl_Position = mvp * position;
	color = color0;
}`
	fsSource = `#version 330 core
in vec4 color;
uniform sampler2D tex;
out vec4 fragColor;
void main() {
	fragColor = color * texture(tex, vec2(0.5));
}`
	brokenSource = `#version 330 core
void main() {
	#error unfinished
}`
)

type fixture struct {
	g       *gfx.Gfx
	gl      *glfake.Functions
	display *display.Headless
	hook    *test.Hook

	discarded bool
}

func newFixtureWith(t *testing.T, cfg gfx.Configuration) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg.Logger = logger

	fx := &fixture{
		gl:      glfake.New(),
		display: display.NewHeadless(0),
		hook:    hook,
	}
	g, err := gfx.SetupWithBackend(cfg, fx.display, func(cfg gfx.Configuration, _ gfx.Display) (gfx.Backend, error) {
		return gl.New(fx.gl, cfg), nil
	})
	require.NoError(t, err)
	fx.g = g
	t.Cleanup(fx.discard)
	return fx
}

func (fx *fixture) discard() {
	if !fx.discarded {
		fx.discarded = true
		fx.g.Discard()
	}
}

func newFixture(t *testing.T, debug bool) *fixture {
	cfg := gfx.DefaultConfiguration()
	cfg.Debug = debug
	return newFixtureWith(t, cfg)
}

func mvpLayout() gfx.UniformLayout {
	var l gfx.UniformLayout
	if err := l.Add("mvp", gfx.UniformMat4); err != nil {
		panic(err)
	}
	return l
}

func vertexLayout(t *testing.T) gfx.VertexLayout {
	layout, err := gfx.NewVertexLayout(
		gfx.VertexComponent{Attr: gfx.Position, Format: gfx.Float3},
		gfx.VertexComponent{Attr: gfx.Color0, Format: gfx.UByte4N},
	)
	require.NoError(t, err)
	return layout
}

func bundleSetup(t *testing.T, name string) gfx.ProgramBundleSetup {
	setup := gfx.NewProgramBundleSetup(resource.NewLocator(name))
	require.NoError(t, setup.AddProgramFromSources(1, gfx.GLSL330, vsSource, fsSource))
	require.NoError(t, setup.AddUniformBlock("params", mvpLayout(), gfx.VertexStage, 0))
	require.NoError(t, setup.AddTexture("tex", gfx.Texture2D, gfx.FragmentStage, 0))
	return setup
}

func meshSetup(t *testing.T, name string) (gfx.MeshSetup, []byte) {
	setup := gfx.NewMeshSetup(resource.NewLocator(name), vertexLayout(t), 4, gfx.Index16, 6)
	require.NoError(t, setup.AddPrimitiveGroup(gfx.PrimitiveGroup{Type: gfx.Triangles, NumElements: 6}))
	return setup, make([]byte, setup.VertexDataSize()+setup.IndexDataSize())
}

type quad struct {
	mesh, bundle, drawState resource.Id
}

func (fx *fixture) createQuad(t *testing.T, name string) quad {
	t.Helper()
	ms, data := meshSetup(t, name+"-mesh")
	q := quad{
		mesh:   fx.g.CreateResourceWithData(ms, data),
		bundle: fx.g.CreateResource(bundleSetup(t, name+"-bundle")),
	}
	q.drawState = fx.g.CreateResource(gfx.NewDrawStateSetup(resource.NewLocator(name), q.mesh, q.bundle))
	for _, id := range []resource.Id{q.mesh, q.bundle, q.drawState} {
		require.Equal(t, resource.Valid, fx.g.QueryResourceState(id))
	}
	return q
}

func mvpData(t *testing.T, m mgl32.Mat4) []byte {
	data := gfx.NewUniformData(mvpLayout())
	require.NoError(t, data.SetMat4("mvp", m))
	return data.Bytes()
}

func TestCreateResourceValidOrFailed(t *testing.T) {
	fx := newFixture(t, false)

	vs := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	vs.SetSource(gfx.GLSL330, vsSource)
	id := fx.g.CreateResource(vs)
	assert.True(t, id.IsValid())
	assert.Equal(t, resource.Valid, fx.g.QueryResourceState(id))

	broken := gfx.NewShaderSetup(resource.NewLocator("broken"), gfx.FragmentStage)
	broken.SetSource(gfx.GLSL330, brokenSource)
	id = fx.g.CreateResource(&broken)
	assert.True(t, id.IsValid())
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(id))

	entry := fx.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "broken", entry.Data["locator"])
	assert.Equal(t, "shader", entry.Data["type"])

	// Failed resources are discarded like valid ones.
	fx.g.DiscardResource(id)
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(id))
}

func TestSharedLocatorIsDeduplicated(t *testing.T) {
	fx := newFixture(t, false)

	vs := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	vs.SetSource(gfx.GLSL330, vsSource)
	first := fx.g.CreateResource(vs)
	second := fx.g.CreateResource(vs)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, fx.g.UseCount(first))
	assert.Equal(t, 1, fx.gl.LiveShaders())

	found := fx.g.LookupResource(resource.NewLocator("vs"))
	assert.Equal(t, first, found)
	assert.Equal(t, 3, fx.g.UseCount(first))
	assert.False(t, fx.g.LookupResource(resource.NewLocator("fs")).IsValid())

	for i := 0; i < 3; i++ {
		assert.Equal(t, resource.Valid, fx.g.QueryResourceState(first))
		fx.g.DiscardResource(first)
	}
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(first))
	assert.Equal(t, 0, fx.gl.Live())
}

func TestNonSharedLocatorsAreDistinct(t *testing.T) {
	fx := newFixture(t, false)

	vs := gfx.NewShaderSetup(resource.NonShared("vs"), gfx.VertexStage)
	vs.SetSource(gfx.GLSL330, vsSource)
	first := fx.g.CreateResource(vs)
	second := fx.g.CreateResource(vs)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, fx.g.UseCount(first))
	assert.False(t, fx.g.LookupResource(resource.NonShared("vs")).IsValid())
}

func TestDiscardReleasesHandles(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")
	assert.True(t, fx.g.LiveHandles() > 0)

	// The draw state keeps its mesh and bundle alive.
	fx.g.DiscardResource(q.mesh)
	fx.g.DiscardResource(q.bundle)
	assert.Equal(t, resource.Valid, fx.g.QueryResourceState(q.mesh))
	assert.Equal(t, resource.Valid, fx.g.QueryResourceState(q.bundle))

	fx.g.DiscardResource(q.drawState)
	for _, id := range []resource.Id{q.mesh, q.bundle, q.drawState} {
		assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(id))
	}
	assert.Equal(t, 0, fx.g.LiveHandles())
	assert.Equal(t, 0, fx.gl.Live())

	// Slots are reused with new stamps.
	again := fx.createQuad(t, "quad")
	assert.NotEqual(t, q.drawState, again.drawState)
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(q.drawState))
}

func TestDiscardUnknownResource(t *testing.T) {
	fx := newFixture(t, false)
	fx.g.DiscardResource(resource.InvalidId())
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, fx.hook.LastEntry().Level)

	fx.discard()
	fx = newFixture(t, true)
	assert.Panics(t, func() { fx.g.DiscardResource(resource.InvalidId()) })
}

func TestBundleKeepsShadersAlive(t *testing.T) {
	fx := newFixture(t, false)

	vsSetup := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	vsSetup.SetSource(gfx.GLSL330, vsSource)
	fsSetup := gfx.NewShaderSetup(resource.NewLocator("fs"), gfx.FragmentStage)
	fsSetup.SetSource(gfx.GLSL330, fsSource)
	vs, fs := fx.g.CreateResource(vsSetup), fx.g.CreateResource(fsSetup)

	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	require.NoError(t, setup.AddProgramFromShaders(1, vs, fs))
	bundle := fx.g.CreateResource(setup)
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(bundle))
	assert.Equal(t, 2, fx.g.UseCount(vs))

	fx.g.DiscardResource(vs)
	fx.g.DiscardResource(fs)
	assert.Equal(t, resource.Valid, fx.g.QueryResourceState(vs))
	assert.Equal(t, 2, fx.gl.LiveShaders())

	fx.g.DiscardResource(bundle)
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(vs))
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(fs))
	assert.Equal(t, 0, fx.gl.Live())
}

func TestFailedDependencyFailsDependent(t *testing.T) {
	fx := newFixture(t, false)

	broken := gfx.NewShaderSetup(resource.NewLocator("broken"), gfx.FragmentStage)
	broken.SetSource(gfx.GLSL330, brokenSource)
	vsSetup := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	vsSetup.SetSource(gfx.GLSL330, vsSource)
	vs, fs := fx.g.CreateResource(vsSetup), fx.g.CreateResource(broken)
	require.Equal(t, resource.Failed, fx.g.QueryResourceState(fs))

	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	require.NoError(t, setup.AddProgramFromShaders(1, vs, fs))
	bundle := fx.g.CreateResource(setup)
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(bundle))
	assert.Equal(t, 1, fx.g.UseCount(vs))

	ms, _ := meshSetup(t, "short")
	mesh := fx.g.CreateResourceWithData(ms, []byte{1, 2, 3})
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(mesh))

	goodBundle := fx.g.CreateResource(bundleSetup(t, "good"))
	ds := fx.g.CreateResource(gfx.NewDrawStateSetup(resource.NewLocator("ds"), mesh, goodBundle))
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(ds))
	assert.Equal(t, 1, fx.g.UseCount(goodBundle))

	fx.g.DiscardResource(ds)
	assert.Equal(t, resource.Valid, fx.g.QueryResourceState(goodBundle))
}

func TestApplyDrawStateIsCached(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")
	fx.gl.ResetCalls()

	fx.g.ApplyDefaultRenderTarget()
	fx.g.ApplyDrawState(q.drawState)
	fx.g.ApplyDrawState(q.drawState)
	info := fx.g.FrameInfo()
	assert.Equal(t, 1, info.NumApplyDrawState)
	assert.Equal(t, 1, info.NumSkipped)
	assert.Equal(t, 1, fx.gl.Calls["BindVertexArray"])

	fx.g.ResetStateCache()
	fx.g.ApplyDrawState(q.drawState)
	assert.Equal(t, 2, fx.g.FrameInfo().NumApplyDrawState)
	assert.Equal(t, 2, fx.gl.Calls["BindVertexArray"])
}

func TestApplyUniformBlockIsCached(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")
	other := fx.createQuad(t, "other")

	fx.g.ApplyDrawState(q.drawState)
	data := mvpData(t, mgl32.Ident4())
	fx.g.ApplyUniformBlock(gfx.VertexStage, 0, data)
	fx.g.ApplyUniformBlock(gfx.VertexStage, 0, data)
	assert.Equal(t, 1, fx.g.FrameInfo().NumApplyUniformBlock)

	fx.g.ApplyUniformBlock(gfx.VertexStage, 0, mvpData(t, mgl32.Scale3D(2, 2, 2)))
	assert.Equal(t, 2, fx.g.FrameInfo().NumApplyUniformBlock)

	// A new draw state starts without cached uniforms.
	fx.g.ApplyDrawState(other.drawState)
	fx.g.ApplyUniformBlock(gfx.VertexStage, 0, data)
	assert.Equal(t, 3, fx.g.FrameInfo().NumApplyUniformBlock)
	assert.Equal(t, 3, fx.gl.Calls["UniformMatrix4fv"])
}

func TestApplyUniformBlockContract(t *testing.T) {
	fx := newFixture(t, true)
	q := fx.createQuad(t, "quad")

	assert.Panics(t, func() { fx.g.ApplyUniformBlock(gfx.VertexStage, 0, mvpData(t, mgl32.Ident4())) })
	fx.g.ApplyDrawState(q.drawState)
	assert.Panics(t, func() { fx.g.ApplyUniformBlock(gfx.VertexStage, 0, []byte{1, 2, 3, 4}) })
	assert.Panics(t, func() { fx.g.ApplyUniformBlock(gfx.FragmentStage, 1, mvpData(t, mgl32.Ident4())) })
}

func TestApplyTexture(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")
	tex := fx.g.CreateResourceWithData(
		gfx.NewTextureSetup(resource.NewLocator("tex"), 2, 2, gfx.RGBA8), make([]byte, 16))
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(tex))

	fx.g.ApplyDrawState(q.drawState)
	fx.g.ApplyTexture(gfx.FragmentStage, 0, tex)
	fx.g.ApplyTexture(gfx.FragmentStage, 0, tex)
	assert.Equal(t, 1, fx.g.FrameInfo().NumApplyTexture)

	// Destroying the texture drops it from the cache.
	fx.g.DiscardResource(tex)
	fx.g.ApplyTexture(gfx.FragmentStage, 0, tex)
	assert.Equal(t, 1, fx.g.FrameInfo().NumApplyTexture)
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, fx.hook.LastEntry().Level)
}

func TestOffscreenRenderTarget(t *testing.T) {
	fx := newFixture(t, false)
	rt := fx.g.CreateResource(gfx.NewRenderTargetSetup(resource.NewLocator("rt"), 128, 128, gfx.RGBA8, gfx.D24S8))
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(rt))

	fx.g.ApplyOffscreenRenderTarget(rt)
	fx.g.ApplyOffscreenRenderTarget(rt)
	fx.g.ApplyDefaultRenderTarget()
	info := fx.g.FrameInfo()
	assert.Equal(t, 2, info.NumApplyRenderTarget)
	assert.Equal(t, 1, info.NumSkipped)

	// Every frame starts without a bound target.
	fx.g.CommitFrame()
	fx.g.ApplyDefaultRenderTarget()
	assert.Equal(t, 1, fx.g.FrameInfo().NumApplyRenderTarget)
}

func TestDrawWithoutDrawState(t *testing.T) {
	fx := newFixture(t, false)
	fx.g.Draw(0)
	assert.Empty(t, fx.gl.Draws)
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, fx.hook.LastEntry().Level)

	fx.discard()
	fx = newFixture(t, true)
	assert.Panics(t, func() { fx.g.Draw(0) })
}

func TestDrawAfterDiscardedDrawState(t *testing.T) {
	fx := newFixture(t, true)
	q := fx.createQuad(t, "quad")
	fx.g.ApplyDrawState(q.drawState)
	fx.g.DiscardResource(q.drawState)
	assert.Panics(t, func() { fx.g.Draw(0) })
}

func TestRenderFrame(t *testing.T) {
	fx := newFixture(t, true)
	q := fx.createQuad(t, "quad")

	fx.g.ApplyDefaultRenderTarget()
	fx.g.Clear(gfx.DefaultClearState())
	fx.g.ApplyDrawState(q.drawState)
	fx.g.ApplyUniformBlock(gfx.VertexStage, 0, mvpData(t, mgl32.Perspective(mgl32.DegToRad(45), 1.6, 0.1, 100)))
	assert.NotPanics(t, func() { fx.g.Draw(0) })
	fx.g.DrawInstanced(0, 3)
	fx.g.CommitFrame()

	last := fx.g.LastFrameInfo()
	assert.Equal(t, 2, last.NumDraw)
	assert.Equal(t, gfx.FrameInfo{}, fx.g.FrameInfo())
	assert.Equal(t, 1, fx.display.Frames())
	assert.Equal(t, 1, fx.gl.Calls["Flush"])

	require.Len(t, fx.gl.Draws, 2)
	assert.True(t, fx.gl.Draws[0].Indexed)
	assert.Equal(t, 6, fx.gl.Draws[0].Count)
	assert.Equal(t, 3, fx.gl.Draws[1].Instances)

	fx.g.DiscardResource(q.drawState)
	assert.Equal(t, resource.Invalid, fx.g.QueryResourceState(q.drawState))
}

func TestUpdateVertices(t *testing.T) {
	fx := newFixture(t, false)

	ms, data := meshSetup(t, "static")
	static := fx.g.CreateResourceWithData(ms, data)
	assert.Error(t, fx.g.UpdateVertices(static, data[:ms.VertexDataSize()]))

	dyn, _ := meshSetup(t, "dynamic")
	dyn.Usage = gfx.Stream
	dynamic := fx.g.CreateResource(dyn)
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(dynamic))
	assert.NoError(t, fx.g.UpdateVertices(dynamic, data[:dyn.VertexDataSize()]))
	assert.Error(t, fx.g.UpdateVertices(dynamic, make([]byte, dyn.VertexDataSize()+1)))
	assert.Equal(t, 1, fx.gl.Calls["BufferSubData"])
}

func TestPoolExhaustion(t *testing.T) {
	cfg := gfx.DefaultConfiguration()
	cfg.ShaderPoolSize = 1
	fx := newFixtureWith(t, cfg)

	vs := gfx.NewShaderSetup(resource.NonShared("vs"), gfx.VertexStage)
	vs.SetSource(gfx.GLSL330, vsSource)
	assert.True(t, fx.g.CreateResource(vs).IsValid())
	assert.False(t, fx.g.CreateResource(vs).IsValid())
}

func TestBundleCapacityFromConfiguration(t *testing.T) {
	cfg := gfx.DefaultConfiguration()
	cfg.MaxProgramsPerBundle = 1
	fx := newFixtureWith(t, cfg)

	setup := bundleSetup(t, "bundle")
	require.NoError(t, setup.AddProgramFromSources(2, gfx.GLSL330, vsSource, fsSource))
	id := fx.g.CreateResource(setup)
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(id))
}

func TestConfigurationValidate(t *testing.T) {
	assert.NoError(t, gfx.DefaultConfiguration().Validate())

	cfg := gfx.DefaultConfiguration()
	cfg.MeshPoolSize = 0
	err := cfg.Validate()
	var cerr *gfx.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "MeshPoolSize", cerr.Field)

	cfg = gfx.DefaultConfiguration()
	cfg.MaxUniformBlocks = gfx.MaxNumUniformBlocks + 1
	assert.Error(t, cfg.Validate())

	for _, size := range []uint32{0, gfx.MaxSwapchainSize + 1} {
		cfg := gfx.DefaultConfiguration()
		cfg.SwapchainSize = size
		err := cfg.Validate()
		require.True(t, errors.As(err, &cerr), "swapchain size %d", size)
		assert.Equal(t, "SwapchainSize", cerr.Field)
	}

	_, err = gfx.SetupWithBackend(cfg, display.NewHeadless(0), nil)
	assert.True(t, errors.As(err, &cerr))
}

func TestSetupTwice(t *testing.T) {
	fx := newFixture(t, false)
	_, err := gfx.SetupWithBackend(gfx.DefaultConfiguration(), display.NewHeadless(0), nil)
	assert.True(t, errors.Is(err, gfx.ErrAlreadySetup))
	assert.Equal(t, gfx.BackendGL, fx.g.Backend())
}

func TestSetupFromRegistry(t *testing.T) {
	const fake gfx.BackendType = "fake"
	functions := glfake.New()
	gfx.RegisterBackend(fake, func(cfg gfx.Configuration, _ gfx.Display) (gfx.Backend, error) {
		return gl.New(functions, cfg), nil
	})
	defer gfx.UnregisterBackend(fake)
	assert.True(t, gfx.IsRegistered(fake))
	assert.Contains(t, gfx.Backends(), fake)

	cfg := gfx.DefaultConfiguration()
	cfg.Backend = fake
	d := display.NewHeadless(1)
	g, err := gfx.Setup(cfg, d)
	require.NoError(t, err)
	assert.False(t, g.QuitRequested())
	g.CommitFrame()
	assert.True(t, g.QuitRequested())
	g.Discard()
	assert.False(t, d.IsSetup())

	cfg.Backend = "missing"
	_, err = gfx.Setup(cfg, display.NewHeadless(0))
	assert.True(t, errors.Is(err, gfx.ErrBackendNotRegistered))
}

func TestDrawStateIsAppliedAgainNextFrame(t *testing.T) {
	fx := newFixture(t, true)
	q := fx.createQuad(t, "quad")
	data := mvpData(t, mgl32.Ident4())

	for frame := 1; frame <= 2; frame++ {
		fx.g.ApplyDefaultRenderTarget()
		fx.g.ApplyDrawState(q.drawState)
		fx.g.ApplyUniformBlock(gfx.VertexStage, 0, data)
		fx.g.Draw(0)
		fx.g.CommitFrame()

		last := fx.g.LastFrameInfo()
		assert.Equal(t, 1, last.NumApplyDrawState, "frame %d", frame)
		assert.Equal(t, 1, last.NumApplyUniformBlock, "frame %d", frame)
		assert.Equal(t, 0, last.NumSkipped, "frame %d", frame)
	}
	assert.Equal(t, 2, fx.gl.Calls["UniformMatrix4fv"])
	assert.Len(t, fx.gl.Draws, 2)

	// A draw state does not survive the frame it was applied in.
	assert.Panics(t, func() { fx.g.Draw(0) })
}

func TestApplyTextureInvalidId(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")
	fx.g.ApplyDrawState(q.drawState)

	fx.g.ApplyTexture(gfx.FragmentStage, 0, resource.Id{})
	assert.Equal(t, 0, fx.g.FrameInfo().NumApplyTexture)
	assert.Equal(t, 0, fx.g.FrameInfo().NumSkipped)
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, fx.hook.LastEntry().Level)

	fx.discard()
	fx = newFixture(t, true)
	q = fx.createQuad(t, "quad")
	fx.g.ApplyDrawState(q.drawState)
	assert.Panics(t, func() { fx.g.ApplyTexture(gfx.FragmentStage, 0, resource.Id{}) })
}

func TestSelectProgramByMask(t *testing.T) {
	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	require.NoError(t, setup.AddProgramFromSources(1, gfx.GLSL330, vsSource, fsSource))
	require.NoError(t, setup.AddProgramFromSources(2, gfx.GLSL330, vsSource, fsSource))
	layout := vertexLayout(t)

	index, ok := setup.SelectProgram(2, layout)
	assert.True(t, ok)
	assert.Equal(t, 1, index)

	index, ok = setup.SelectProgram(gfx.AnyMask, layout)
	assert.True(t, ok)
	assert.Equal(t, 0, index)

	// A mask no program carries selects nothing, even when the layout fits.
	index, ok = setup.SelectProgram(4, layout)
	assert.False(t, ok)
	assert.Equal(t, -1, index)
}

func TestDrawStateWithUnknownMaskFails(t *testing.T) {
	fx := newFixture(t, false)
	q := fx.createQuad(t, "quad")

	setup := gfx.NewDrawStateSetup(resource.NewLocator("masked"), q.mesh, q.bundle)
	setup.ProgramMask = 4
	ds := fx.g.CreateResource(setup)
	assert.Equal(t, resource.Failed, fx.g.QueryResourceState(ds))
}

func TestCallsAfterDiscard(t *testing.T) {
	fx := newFixture(t, false)
	ms, data := meshSetup(t, "mesh")
	ms.Usage = gfx.Dynamic
	mesh := fx.g.CreateResourceWithData(ms, data)
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(mesh))
	fx.discard()
	fx.hook.Reset()

	assert.False(t, fx.g.CreateResource(bundleSetup(t, "late")).IsValid())
	require.NotNil(t, fx.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, fx.hook.LastEntry().Level)
	assert.Contains(t, fx.hook.LastEntry().Message, gfx.ErrNotSetup.Error())

	assert.True(t, errors.Is(fx.g.UpdateVertices(mesh, data[:ms.VertexDataSize()]), gfx.ErrNotSetup))
	assert.True(t, errors.Is(fx.g.ReadPixels(make([]byte, 4)), gfx.ErrNotSetup))

	fx.hook.Reset()
	fx.g.CommitFrame()
	fx.g.Discard()
	assert.Len(t, fx.hook.AllEntries(), 2)
	assert.Equal(t, 0, fx.display.Frames())

	fx = newFixture(t, true)
	fx.discard()
	assert.Panics(t, func() { fx.g.ApplyDefaultRenderTarget() })
}

func TestReadPixels(t *testing.T) {
	fx := newFixture(t, false)

	attrs := fx.g.RenderTargetAttrs()
	assert.Equal(t, fx.g.DisplayAttrs(), attrs)

	cs := gfx.DefaultClearState()
	cs.Color = mgl32.Vec4{1, 0, 0, 1}
	fx.g.Clear(cs)
	buf := make([]byte, attrs.FramebufferWidth*attrs.FramebufferHeight*4)
	require.NoError(t, fx.g.ReadPixels(buf))
	assert.Equal(t, []byte{255, 0, 0, 255}, buf[:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, buf[len(buf)-4:])
	// Reading binds the default target when none was applied.
	assert.Equal(t, 1, fx.g.FrameInfo().NumApplyRenderTarget)

	assert.Error(t, fx.g.ReadPixels(buf[:len(buf)-1]))
	assert.Equal(t, 1, fx.gl.Calls["ReadPixels"])
}

func TestRenderTargetAttrsOffscreen(t *testing.T) {
	fx := newFixture(t, false)
	rt := fx.g.CreateResource(gfx.NewRenderTargetSetup(resource.NewLocator("rt"), 4, 2, gfx.RGBA8, gfx.PixelFormatNone))
	require.Equal(t, resource.Valid, fx.g.QueryResourceState(rt))

	fx.g.ApplyOffscreenRenderTarget(rt)
	attrs := fx.g.RenderTargetAttrs()
	assert.Equal(t, 4, attrs.Width)
	assert.Equal(t, 2, attrs.Height)
	assert.Equal(t, 4, attrs.FramebufferWidth)
	assert.Equal(t, 2, attrs.FramebufferHeight)
	require.NoError(t, fx.g.ReadPixels(make([]byte, 4*2*4)))

	fx.g.ApplyDefaultRenderTarget()
	assert.Equal(t, fx.g.DisplayAttrs(), fx.g.RenderTargetAttrs())
}
