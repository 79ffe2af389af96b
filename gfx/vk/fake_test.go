// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"errors"

	"github.com/devblok/korugfx/gfx"
)

// fakeDevice records Vulkan objects and the commands of each frame.
type fakeDevice struct {
	next  Handle
	live  map[Handle]string
	fail  map[string]error
	calls map[string]int

	layouts   map[Handle][]PushConstantRange
	pipelines map[Handle]PipelineDesc
	buffers   map[Handle][]byte

	pushes  []fakePush
	draws   []fakeDraw
	bound   Handle
	cleared [4]float32

	frames, submitted int
	closed            bool
}

type fakePush struct {
	stage  gfx.ShaderStage
	offset int
	data   []byte
}

type fakeDraw struct {
	indexed   bool
	count     int
	instances int
	first     int
	pipeline  Handle
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		next:      1,
		live:      make(map[Handle]string),
		fail:      make(map[string]error),
		calls:     make(map[string]int),
		layouts:   make(map[Handle][]PushConstantRange),
		pipelines: make(map[Handle]PipelineDesc),
		buffers:   make(map[Handle][]byte),
	}
}

func (f *fakeDevice) create(kind string) (Handle, error) {
	if err := f.fail[kind]; err != nil {
		return 0, err
	}
	h := f.next
	f.next++
	f.live[h] = kind
	return h, nil
}

func (f *fakeDevice) kinds(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDevice) CreateShaderModule(spirv []byte) (Handle, error) {
	return f.create("module")
}

func (f *fakeDevice) CreatePipelineLayout(ranges []PushConstantRange) (Handle, error) {
	h, err := f.create("layout")
	if err == nil {
		f.layouts[h] = append([]PushConstantRange(nil), ranges...)
	}
	return h, err
}

func (f *fakeDevice) CreatePipeline(desc PipelineDesc) (Handle, error) {
	h, err := f.create("pipeline")
	if err == nil {
		f.pipelines[h] = desc
	}
	return h, err
}

func (f *fakeDevice) CreateBuffer(kind BufferKind, size int, data []byte) (Handle, error) {
	name := "vertex buffer"
	if kind == IndexBuffer {
		name = "index buffer"
	}
	if err := f.fail[name]; err != nil {
		return 0, err
	}
	h, err := f.create("buffer")
	if err == nil {
		buf := make([]byte, size)
		copy(buf, data)
		f.buffers[h] = buf
	}
	return h, err
}

func (f *fakeDevice) UpdateBuffer(buffer Handle, data []byte) error {
	buf, ok := f.buffers[buffer]
	if !ok {
		return errors.New("no such buffer")
	}
	if len(data) > len(buf) {
		return errors.New("buffer overflow")
	}
	copy(buf, data)
	return nil
}

func (f *fakeDevice) Destroy(h Handle) {
	if _, ok := f.live[h]; !ok {
		panic("destroy of dead handle")
	}
	delete(f.live, h)
}

func (f *fakeDevice) BeginFrame() (CommandEncoder, error) {
	if err := f.fail["frame"]; err != nil {
		return nil, err
	}
	f.frames++
	return f, nil
}

func (f *fakeDevice) EndFrame() error {
	f.submitted++
	return f.fail["submit"]
}

func (f *fakeDevice) WaitIdle() { f.calls["WaitIdle"]++ }
func (f *fakeDevice) Close()    { f.closed = true }

func (f *fakeDevice) BindPipeline(pipeline Handle) {
	f.calls["BindPipeline"]++
	f.bound = pipeline
}

func (f *fakeDevice) BindVertexBuffer(buffer Handle) { f.calls["BindVertexBuffer"]++ }

func (f *fakeDevice) BindIndexBuffer(buffer Handle, index32 bool) {
	f.calls["BindIndexBuffer"]++
}

func (f *fakeDevice) PushConstants(layout Handle, stage gfx.ShaderStage, offset int, data []byte) {
	f.pushes = append(f.pushes, fakePush{stage: stage, offset: offset, data: append([]byte(nil), data...)})
}

func (f *fakeDevice) SetViewport(x, y, width, height int) { f.calls["SetViewport"]++ }

func (f *fakeDevice) ClearAttachments(channels gfx.PixelChannel, color [4]float32, depth float32, stencil uint8) {
	f.calls["ClearAttachments"]++
	f.cleared = color
}

func (f *fakeDevice) Draw(vertices, instances, first int) {
	f.draws = append(f.draws, fakeDraw{count: vertices, instances: instances, first: first, pipeline: f.bound})
}

func (f *fakeDevice) DrawIndexed(indices, instances, first int) {
	f.draws = append(f.draws, fakeDraw{indexed: true, count: indices, instances: instances, first: first, pipeline: f.bound})
}
