// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package d3d11

import (
	"errors"

	"github.com/devblok/korugfx/gfx"
)

// fakeDevice records native objects and context calls.
type fakeDevice struct {
	next  Handle
	live  map[Handle]string
	fail  map[string]error
	calls map[string]int

	buffers  map[Handle][]byte
	layouts  map[Handle][]InputElement
	draws    []fakeDraw
	cleared  [4]float32
	rtv, dsv Handle
}

type fakeDraw struct {
	indexed   bool
	count     int
	instances int
	start     int
	topology  Topology
	vs, ps    Handle
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		live:    make(map[Handle]string),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
		buffers: make(map[Handle][]byte),
		layouts: make(map[Handle][]InputElement),
	}
}

func (f *fakeDevice) create(kind string) (Handle, error) {
	f.calls[kind]++
	if err := f.fail[kind]; err != nil {
		return 0, err
	}
	f.next++
	f.live[f.next] = kind
	return f.next, nil
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

func (f *fakeDevice) resetCalls() {
	f.calls = make(map[string]int)
}

func (f *fakeDevice) CreateVertexShader(byteCode []byte) (Handle, error) {
	if len(byteCode) == 0 {
		return 0, errors.New("empty byte code")
	}
	return f.create("vs")
}

func (f *fakeDevice) CreatePixelShader(byteCode []byte) (Handle, error) {
	if len(byteCode) == 0 {
		return 0, errors.New("empty byte code")
	}
	return f.create("ps")
}

func (f *fakeDevice) CreateBuffer(desc BufferDesc, data []byte) (Handle, error) {
	if desc.Usage == UsageImmutable && len(data) == 0 {
		return 0, errors.New("immutable buffer without data")
	}
	h, err := f.create("buffer")
	if err == nil {
		f.buffers[h] = make([]byte, desc.Size)
		copy(f.buffers[h], data)
	}
	return h, err
}

func (f *fakeDevice) CreateInputLayout(elems []InputElement, vsByteCode []byte) (Handle, error) {
	if len(vsByteCode) == 0 {
		return 0, errors.New("no vertex shader signature")
	}
	h, err := f.create("layout")
	if err == nil {
		f.layouts[h] = elems
	}
	return h, err
}

func (f *fakeDevice) CreateTexture2D(desc TextureDesc, data []byte) (Handle, error) {
	return f.create("texture")
}

func (f *fakeDevice) CreateShaderResourceView(texture Handle) (Handle, error) {
	return f.create("srv")
}

func (f *fakeDevice) CreateRenderTargetView(texture Handle) (Handle, error) {
	return f.create("rtv")
}

func (f *fakeDevice) CreateDepthStencilView(texture Handle) (Handle, error) {
	return f.create("dsv")
}

func (f *fakeDevice) CreateSamplerState(desc SamplerDesc) (Handle, error) {
	return f.create("sampler")
}

func (f *fakeDevice) CreateRasterizerState(desc RasterizerDesc) (Handle, error) {
	return f.create("rasterizer")
}

func (f *fakeDevice) CreateBlendState(desc BlendDesc) (Handle, error) {
	return f.create("blend")
}

func (f *fakeDevice) CreateDepthStencilState(desc DepthStencilDesc) (Handle, error) {
	return f.create("depth")
}

func (f *fakeDevice) Release(h Handle) {
	if _, ok := f.live[h]; !ok {
		panic("release of dead handle")
	}
	delete(f.live, h)
	delete(f.buffers, h)
	delete(f.layouts, h)
}

func (f *fakeDevice) IASetInputLayout(layout Handle) { f.calls["IASetInputLayout"]++ }

func (f *fakeDevice) IASetVertexBuffer(buffer Handle, stride, offset int) {
	f.calls["IASetVertexBuffer"]++
}

func (f *fakeDevice) IASetIndexBuffer(buffer Handle, format Format, offset int) {
	f.calls["IASetIndexBuffer"]++
}

func (f *fakeDevice) IASetPrimitiveTopology(topology Topology) {
	f.calls["IASetPrimitiveTopology"]++
}

func (f *fakeDevice) SetShader(stage gfx.ShaderStage, shader Handle) { f.calls["SetShader"]++ }

func (f *fakeDevice) SetConstantBuffer(stage gfx.ShaderStage, slot int, buffer Handle) {
	f.calls["SetConstantBuffer"]++
}

func (f *fakeDevice) SetShaderResource(stage gfx.ShaderStage, slot int, view Handle) {
	f.calls["SetShaderResource"]++
}

func (f *fakeDevice) SetSampler(stage gfx.ShaderStage, slot int, sampler Handle) {
	f.calls["SetSampler"]++
}

func (f *fakeDevice) UpdateSubresource(resource Handle, data []byte) {
	f.calls["UpdateSubresource"]++
	copy(f.buffers[resource], data)
}

func (f *fakeDevice) OMSetRenderTargets(rtv, dsv Handle) {
	f.calls["OMSetRenderTargets"]++
	f.rtv, f.dsv = rtv, dsv
}

func (f *fakeDevice) OMSetBlendState(state Handle)        { f.calls["OMSetBlendState"]++ }
func (f *fakeDevice) OMSetDepthStencilState(state Handle) { f.calls["OMSetDepthStencilState"]++ }
func (f *fakeDevice) RSSetState(state Handle)             { f.calls["RSSetState"]++ }

func (f *fakeDevice) RSSetViewport(x, y, width, height int) { f.calls["RSSetViewport"]++ }

func (f *fakeDevice) ClearRenderTargetView(rtv Handle, color [4]float32) {
	f.calls["ClearRenderTargetView"]++
	f.cleared = color
}

func (f *fakeDevice) ClearDepthStencilView(dsv Handle, depth, stencil bool, d float32, s uint8) {
	f.calls["ClearDepthStencilView"]++
}

func (f *fakeDevice) DrawInstanced(vertices, instances, start int) {
	f.draws = append(f.draws, fakeDraw{count: vertices, instances: instances, start: start})
}

func (f *fakeDevice) DrawIndexedInstanced(indices, instances, start int) {
	f.draws = append(f.draws, fakeDraw{indexed: true, count: indices, instances: instances, start: start})
}

func (f *fakeDevice) Flush() { f.calls["Flush"]++ }

// fakeProvider hands out the fake as device and context.
type fakeProvider struct {
	dev      *fakeDevice
	rtv, dsv Handle
}

func (p *fakeProvider) D3D11Device() Device   { return p.dev }
func (p *fakeProvider) D3D11Context() Context { return p.dev }

func (p *fakeProvider) D3D11DefaultRenderTarget() (Handle, Handle) {
	return p.rtv, p.dsv
}

func (p *fakeProvider) SetupDisplay(cfg gfx.Configuration) error { return nil }
func (p *fakeProvider) DiscardDisplay()                          {}
func (p *fakeProvider) ProcessSystemEvents()                     {}
func (p *fakeProvider) QuitRequested() bool                      { return false }
func (p *fakeProvider) Present()                                 {}
func (p *fakeProvider) DisplayAttrs() gfx.DisplayAttrs           { return gfx.DisplayAttrs{} }
