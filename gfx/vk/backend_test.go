// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devblok/korugfx/gfx"
	"github.com/devblok/korugfx/resource"
	"github.com/devblok/korugfx/utility/kar"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spirv returns a minimal module carrying the SPIR-V magic number.
func spirv(words ...byte) []byte {
	code := []byte{0x03, 0x02, 0x23, 0x07}
	return append(code, words...)
}

func library(t *testing.T, funcs ...string) []byte {
	t.Helper()
	b := kar.NewBuilder(kar.Header{Author: "korugfx", Version: 1})
	for i, name := range funcs {
		require.NoError(t, b.AddBytes(name, spirv(byte(i), 0, 0, 0)))
	}
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

type noShaders struct{}

func (noShaders) ResolveShader(id resource.Id) (gfx.Object, gfx.ShaderSetup, error) {
	return nil, gfx.ShaderSetup{}, errors.New("no shaders")
}

type resolvedShader struct {
	obj   gfx.Object
	setup gfx.ShaderSetup
}

type shaderMap map[resource.Id]resolvedShader

func (m shaderMap) ResolveShader(id resource.Id) (gfx.Object, gfx.ShaderSetup, error) {
	s, ok := m[id]
	if !ok {
		return nil, gfx.ShaderSetup{}, gfx.ErrDependencyNotValid
	}
	return s.obj, s.setup, nil
}

func newTestBackend(t *testing.T) (*Backend, *fakeDevice, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := gfx.DefaultConfiguration()
	cfg.Logger = logger
	dev := newFakeDevice()
	return New(dev, cfg), dev, hook
}

func bundleSetup(t *testing.T) gfx.ProgramBundleSetup {
	t.Helper()
	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	setup.Library = library(t, "main_vs", "main_fs", "lit_fs")
	require.NoError(t, setup.AddProgramFromLibrary(0, "main_vs", "main_fs"))
	require.NoError(t, setup.AddProgramFromLibrary(1, "main_vs", "lit_fs"))

	var mvp gfx.UniformLayout
	require.NoError(t, mvp.Add("mvp", gfx.UniformMat4))
	require.NoError(t, setup.AddUniformBlock("vsParams", mvp, gfx.VertexStage, 0))

	var tint gfx.UniformLayout
	require.NoError(t, tint.Add("tint", gfx.UniformVec3))
	require.NoError(t, setup.AddUniformBlock("fsParams", tint, gfx.FragmentStage, 0))
	return setup
}

func meshSetup(t *testing.T, index gfx.IndexType) (gfx.MeshSetup, []byte) {
	t.Helper()
	layout, err := gfx.NewVertexLayout(
		gfx.VertexComponent{Attr: gfx.Position, Format: gfx.Float3},
		gfx.VertexComponent{Attr: gfx.Color0, Format: gfx.UByte4N},
		gfx.VertexComponent{Attr: gfx.Instance0, Format: gfx.Float4},
	)
	require.NoError(t, err)
	numIndices := 0
	if index != gfx.IndexNone {
		numIndices = 6
	}
	setup := gfx.NewMeshSetup(resource.NewLocator("quad"), layout, 4, index, numIndices)
	setup.Usage = gfx.Dynamic
	require.NoError(t, setup.AddPrimitiveGroup(gfx.PrimitiveGroup{Type: gfx.Triangles, NumElements: 6}))
	require.NoError(t, setup.AddPrimitiveGroup(gfx.PrimitiveGroup{Type: gfx.Lines, BaseElement: 2, NumElements: 2}))
	return setup, make([]byte, setup.VertexDataSize()+setup.IndexDataSize())
}

type drawFixture struct {
	bundle, mesh, ds gfx.Object
	meshSetup        gfx.MeshSetup
}

func newDrawFixture(t *testing.T, b *Backend, index gfx.IndexType, programIndex int) drawFixture {
	t.Helper()
	bs := bundleSetup(t)
	pb, err := b.CreateProgramBundle(bs, noShaders{})
	require.NoError(t, err)
	ms, data := meshSetup(t, index)
	m, err := b.CreateMesh(ms, data)
	require.NoError(t, err)
	ds, err := b.CreateDrawState(
		gfx.NewDrawStateSetup(resource.NewLocator("ds"), resource.InvalidId(), resource.InvalidId()),
		gfx.DrawStateDeps{Mesh: m, MeshSetup: ms, Program: pb, ProgramSetup: bs, ProgramIndex: programIndex},
	)
	require.NoError(t, err)
	return drawFixture{bundle: pb, mesh: m, ds: ds, meshSetup: ms}
}

func (fx drawFixture) release() {
	fx.ds.Release()
	fx.mesh.Release()
	fx.bundle.Release()
}

func TestCreateShader(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	setup := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	_, err := b.CreateShader(setup)
	assert.Error(t, err, "shader without SPIR-V")

	setup.SetByteCode(gfx.SPIRV, []byte("not spir-v"))
	_, err = b.CreateShader(setup)
	assert.Error(t, err, "size is not a multiple of 4")

	setup.SetByteCode(gfx.SPIRV, []byte{1, 2, 3, 4})
	_, err = b.CreateShader(setup)
	assert.Error(t, err, "bad magic")

	setup.SetByteCode(gfx.SPIRV, spirv())
	obj, err := b.CreateShader(setup)
	require.NoError(t, err)
	assert.Equal(t, 1, obj.LiveHandles())
	assert.Equal(t, 1, dev.kinds("module"))

	obj.Release()
	assert.Equal(t, 0, obj.LiveHandles())
	assert.Empty(t, dev.live)
}

func TestProgramBundleFromLibrary(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	obj, err := b.CreateProgramBundle(bundleSetup(t), noShaders{})
	require.NoError(t, err)

	// main_vs is shared by both programs.
	assert.Equal(t, 3, dev.kinds("module"))
	assert.Equal(t, 1, dev.kinds("layout"))
	assert.Equal(t, 4, obj.LiveHandles())

	pb := obj.(*programBundle)
	assert.Equal(t, pb.entries[0].vs, pb.entries[1].vs)
	assert.NotEqual(t, pb.entries[0].fs, pb.entries[1].fs)

	ranges := dev.layouts[pb.layout]
	require.Len(t, ranges, 2)
	assert.Equal(t, PushConstantRange{Stage: gfx.VertexStage, Offset: 0, Size: 64}, ranges[0])
	assert.Equal(t, PushConstantRange{Stage: gfx.FragmentStage, Offset: 64, Size: 12}, ranges[1])

	obj.Release()
	assert.Empty(t, dev.live)
}

func TestProgramBundleMissingFunction(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	setup := bundleSetup(t)
	require.NoError(t, setup.AddProgramFromLibrary(2, "main_vs", "missing_fs"))
	_, err := b.CreateProgramBundle(setup, noShaders{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kar.ErrNotExist))
	assert.Contains(t, err.Error(), "program 2")
	assert.Empty(t, dev.live, "partially built bundle is released")
}

func TestProgramBundleWithoutLibrary(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	require.NoError(t, setup.AddProgramFromLibrary(0, "main_vs", "main_fs"))
	_, err := b.CreateProgramBundle(setup, noShaders{})
	assert.Error(t, err)

	setup.Library = []byte("garbage")
	_, err = b.CreateProgramBundle(setup, noShaders{})
	assert.Error(t, err)
	assert.Empty(t, dev.live)
}

func TestProgramBundlePushConstantLimit(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	setup := bundleSetup(t)
	var big gfx.UniformLayout
	require.NoError(t, big.Add("bones", gfx.UniformMat4))
	require.NoError(t, setup.AddUniformBlock("skin", big, gfx.VertexStage, 1))

	_, err := b.CreateProgramBundle(setup, noShaders{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push constants")
	assert.Empty(t, dev.live)
}

func TestProgramBundleLayoutFailure(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	dev.fail["layout"] = errors.New("out of memory")

	_, err := b.CreateProgramBundle(bundleSetup(t), noShaders{})
	assert.Error(t, err)
	assert.Empty(t, dev.live)
}

func TestProgramBundleFromShadersAndByteCode(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	vsSetup := gfx.NewShaderSetup(resource.NewLocator("vs"), gfx.VertexStage)
	vsSetup.SetByteCode(gfx.SPIRV, spirv())
	vs, err := b.CreateShader(vsSetup)
	require.NoError(t, err)

	fsSetup := gfx.NewShaderSetup(resource.NewLocator("fs"), gfx.FragmentStage)
	fsSetup.SetByteCode(gfx.SPIRV, spirv())
	fs, err := b.CreateShader(fsSetup)
	require.NoError(t, err)

	pool, err := resource.NewPool[struct{}](gfx.TypeShader, 2)
	require.NoError(t, err)
	vsSlot, _ := pool.Alloc()
	fsSlot, _ := pool.Alloc()
	vsID, fsID := vsSlot.Id, fsSlot.Id
	shaders := shaderMap{
		vsID: {obj: vs, setup: vsSetup},
		fsID: {obj: fs, setup: fsSetup},
	}

	setup := gfx.NewProgramBundleSetup(resource.NewLocator("bundle"))
	require.NoError(t, setup.AddProgramFromShaders(0, vsID, fsID))
	require.NoError(t, setup.AddProgramFromByteCode(1, gfx.SPIRV, spirv(), spirv()))
	pb, err := b.CreateProgramBundle(setup, shaders)
	require.NoError(t, err)
	assert.Equal(t, 3, pb.LiveHandles(), "referenced shaders are not owned")

	pb.Release()
	assert.Equal(t, 2, dev.kinds("module"))

	wrongStage := gfx.NewProgramBundleSetup(resource.NewLocator("wrong"))
	require.NoError(t, wrongStage.AddProgramFromShaders(0, fsID, vsID))
	_, err = b.CreateProgramBundle(wrongStage, shaders)
	assert.Error(t, err)

	vs.Release()
	fs.Release()
	assert.Empty(t, dev.live)
}

func TestDrawStatePipeline(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.Index16, 1)

	ds := fx.ds.(*drawState)
	require.Equal(t, 1, dev.kinds("pipeline"))
	desc := dev.pipelines[ds.pipelines[gfx.Triangles]]
	assert.Equal(t, gfx.Triangles, desc.Topology)
	assert.Equal(t, fx.meshSetup.Layout.ByteSize(), desc.Stride)
	assert.Equal(t, ds.bundle.entries[1].fs, desc.FS)
	assert.Equal(t, []VertexAttribute{
		{Location: int(gfx.Position), Format: gfx.Float3, Offset: 0},
		{Location: int(gfx.Color0), Format: gfx.UByte4N, Offset: 12},
		{Location: int(gfx.Instance0), Format: gfx.Float4, Offset: 16, PerInstance: true},
	}, desc.Attributes)

	fx.release()
	assert.Empty(t, dev.live)
}

func TestDrawStatePipelineFailure(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	bs := bundleSetup(t)
	pb, err := b.CreateProgramBundle(bs, noShaders{})
	require.NoError(t, err)
	ms, data := meshSetup(t, gfx.IndexNone)
	m, err := b.CreateMesh(ms, data)
	require.NoError(t, err)

	dev.fail["pipeline"] = errors.New("invalid shader interface")
	_, err = b.CreateDrawState(
		gfx.NewDrawStateSetup(resource.NewLocator("ds"), resource.InvalidId(), resource.InvalidId()),
		gfx.DrawStateDeps{Mesh: m, MeshSetup: ms, Program: pb, ProgramSetup: bs},
	)
	assert.Error(t, err)
	assert.Equal(t, 0, dev.kinds("pipeline"))

	m.Release()
	pb.Release()
	assert.Empty(t, dev.live)
}

func TestDrawCreatesPipelinePerTopology(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.Index16, 0)

	b.ApplyRenderTarget(nil, gfx.DisplayAttrs{FramebufferWidth: 640, FramebufferHeight: 480})
	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 3)
	b.Draw(fx.meshSetup.PrimitiveGroup(1), 1)

	assert.Equal(t, 2, dev.kinds("pipeline"))
	assert.Equal(t, 2, dev.calls["BindPipeline"])
	assert.Equal(t, 1, dev.calls["BindIndexBuffer"])
	require.Len(t, dev.draws, 3)
	assert.Equal(t, fakeDraw{indexed: true, count: 6, instances: 3, pipeline: dev.draws[0].pipeline}, dev.draws[1])
	assert.Equal(t, 2, dev.draws[2].first)
	assert.NotEqual(t, dev.draws[0].pipeline, dev.draws[2].pipeline)

	fx.release()
	assert.Empty(t, dev.live)
}

func TestDrawNonIndexed(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.IndexNone, 0)

	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	require.Len(t, dev.draws, 1)
	assert.False(t, dev.draws[0].indexed)
	assert.Zero(t, dev.calls["BindIndexBuffer"])

	fx.release()
}

func TestDrawWithoutDrawState(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	b.Draw(gfx.PrimitiveGroup{Type: gfx.Triangles, NumElements: 3}, 1)
	assert.Empty(t, dev.draws)
	assert.Zero(t, dev.frames, "no frame is started for nothing")
}

func TestApplyUniformBlockPushConstants(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.Index16, 0)
	b.ApplyDrawState(fx.ds)

	tint := make([]byte, 12)
	gfx.PutFloats(tint, []float32{1, 0.5, 0.25})
	b.ApplyUniformBlock(fx.ds, gfx.FragmentStage, 0, tint)

	mvp := mgl32.Ident4()
	short := make([]byte, 16)
	gfx.PutFloats(short, mvp[:4])
	b.ApplyUniformBlock(fx.ds, gfx.VertexStage, 0, short)

	b.ApplyUniformBlock(fx.ds, gfx.VertexStage, 3, tint)

	require.Len(t, dev.pushes, 2)
	assert.Equal(t, fakePush{stage: gfx.FragmentStage, offset: 64, data: tint}, dev.pushes[0])
	assert.Equal(t, 0, dev.pushes[1].offset)
	require.Len(t, dev.pushes[1].data, 64, "short data is padded")
	assert.Equal(t, []float32{1, 0, 0, 0, 0}, gfx.Floats(dev.pushes[1].data)[:5])

	fx.release()
}

func TestClearAndViewport(t *testing.T) {
	b, dev, _ := newTestBackend(t)

	attrs := gfx.DisplayAttrs{FramebufferWidth: 800, FramebufferHeight: 600}
	b.ApplyRenderTarget(nil, attrs)
	b.ApplyRenderTarget(nil, attrs)
	b.ApplyViewport(0, 0, 800, 600)
	assert.Equal(t, 1, dev.calls["SetViewport"])

	b.Clear(gfx.ClearState{Channels: gfx.ChannelAll, Color: mgl32.Vec4{0.1, 0.2, 0.3, 1}, Depth: 1})
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, dev.cleared)

	b.Clear(gfx.ClearState{})
	assert.Equal(t, 1, dev.calls["ClearAttachments"])
	assert.Equal(t, 1, dev.frames)
}

func TestOffscreenTargetLogsError(t *testing.T) {
	b, dev, hook := newTestBackend(t)

	_, err := b.CreateTexture(gfx.TextureSetup{Width: 4, Height: 4, ColorFormat: gfx.RGBA8, RenderTarget: true}, nil)
	assert.Equal(t, ErrTexturesNotSupported, err)

	b.ApplyRenderTarget(&mesh{dev: dev}, gfx.DisplayAttrs{})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Zero(t, dev.calls["SetViewport"])
}

func TestCommitFrame(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.Index16, 0)

	b.CommitFrame()
	assert.Zero(t, dev.submitted, "empty frame is not submitted")

	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	b.CommitFrame()
	assert.Equal(t, 1, dev.frames)
	assert.Equal(t, 1, dev.submitted)

	// Bindings do not survive the frame.
	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	b.CommitFrame()
	assert.Equal(t, 2, dev.frames)
	assert.Equal(t, 2, dev.calls["BindPipeline"])
	assert.Equal(t, 2, dev.calls["BindVertexBuffer"])

	fx.release()
}

func TestFrameSkippedWhenAcquireFails(t *testing.T) {
	b, dev, hook := newTestBackend(t)
	fx := newDrawFixture(t, b, gfx.Index16, 0)

	dev.fail["frame"] = errors.New("out of date")
	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	b.Clear(gfx.ClearState{Channels: gfx.ChannelAll})
	assert.Empty(t, dev.draws)
	assert.Len(t, hook.AllEntries(), 1, "one warning per frame")
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	b.CommitFrame()
	assert.Zero(t, dev.submitted)

	delete(dev.fail, "frame")
	b.ApplyDrawState(fx.ds)
	b.Draw(fx.meshSetup.PrimitiveGroup(0), 1)
	b.CommitFrame()
	assert.Len(t, dev.draws, 1)
	assert.Equal(t, 1, dev.submitted)

	fx.release()
}

func TestUpdateVertices(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	ms, data := meshSetup(t, gfx.IndexNone)
	m, err := b.CreateMesh(ms, data)
	require.NoError(t, err)
	assert.Equal(t, 1, m.LiveHandles())

	update := bytes.Repeat([]byte{7}, ms.VertexDataSize())
	require.NoError(t, b.UpdateVertices(m, update))
	assert.Equal(t, update, dev.buffers[m.(*mesh).vb])

	ms.Usage = gfx.Immutable
	im, err := b.CreateMesh(ms, data)
	require.NoError(t, err)
	assert.Error(t, b.UpdateVertices(im, update))

	m.Release()
	im.Release()
	assert.Empty(t, dev.live)
}

func TestMeshIndexBufferFailure(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	ms, data := meshSetup(t, gfx.Index32)

	dev.fail["index buffer"] = errors.New("out of memory")
	_, err := b.CreateMesh(ms, data)
	assert.Error(t, err)
	assert.Empty(t, dev.live, "vertex buffer is released")
}

func TestDiscard(t *testing.T) {
	b, dev, _ := newTestBackend(t)
	b.Clear(gfx.ClearState{Channels: gfx.ChannelRGBA})
	b.Discard()
	assert.Equal(t, 1, dev.submitted)
	assert.Equal(t, 1, dev.calls["WaitIdle"])
	assert.True(t, dev.closed)
}
