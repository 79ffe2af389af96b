// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package d3d11

import (
	"github.com/devblok/korugfx/gfx"
)

// Handle is an opaque COM object pointer, zero is nil.
type Handle uintptr

// Format is a DXGI_FORMAT value.
type Format uint32

// DXGI formats used by the backend.
const (
	FormatUnknown            Format = 0
	FormatR32G32B32A32Float  Format = 2
	FormatR32G32B32Float     Format = 6
	FormatR16G16B16A16SNorm  Format = 13
	FormatR16G16B16A16SInt   Format = 14
	FormatR32G32Float        Format = 16
	FormatR8G8B8A8UNorm      Format = 28
	FormatR8G8B8A8UInt       Format = 30
	FormatR8G8B8A8SNorm      Format = 31
	FormatR8G8B8A8SInt       Format = 32
	FormatR16G16SNorm        Format = 37
	FormatR16G16SInt         Format = 38
	FormatD32Float           Format = 40
	FormatR32Float           Format = 41
	FormatR32UInt            Format = 42
	FormatD24UNormS8UInt     Format = 45
	FormatR16UInt            Format = 57
)

// BindFlags is a D3D11_BIND_FLAG mask.
type BindFlags uint32

// Bind flags.
const (
	BindVertexBuffer   BindFlags = 0x1
	BindIndexBuffer    BindFlags = 0x2
	BindConstantBuffer BindFlags = 0x4
	BindShaderResource BindFlags = 0x8
	BindRenderTarget   BindFlags = 0x20
	BindDepthStencil   BindFlags = 0x40
)

// Usage is a D3D11_USAGE value.
type Usage uint32

// Usages.
const (
	UsageDefault   Usage = 0
	UsageImmutable Usage = 1
	UsageDynamic   Usage = 2
)

// Topology is a D3D11_PRIMITIVE_TOPOLOGY value.
type Topology uint32

// Topologies.
const (
	TopologyPointList     Topology = 1
	TopologyLineList      Topology = 2
	TopologyLineStrip     Topology = 3
	TopologyTriangleList  Topology = 4
	TopologyTriangleStrip Topology = 5
)

// BufferDesc describes a buffer.
type BufferDesc struct {
	Size  int
	Usage Usage
	Bind  BindFlags
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width  int
	Height int
	Format Format
	Usage  Usage
	Bind   BindFlags
}

// SamplerDesc describes a sampler state.
type SamplerDesc struct {
	Filter gfx.TextureFilter
	Wrap   gfx.TextureWrap
}

// InputElement is one entry of an input layout.
type InputElement struct {
	SemanticName  string
	SemanticIndex int
	Format        Format
	Offset        int
	PerInstance   bool
}

// RasterizerDesc describes a rasterizer state.
type RasterizerDesc struct {
	CullEnabled bool
	CullFront   bool
}

// BlendDesc describes a blend state.
type BlendDesc struct {
	Enabled        bool
	Src, Dst       gfx.BlendFactor
	ColorWriteMask gfx.PixelChannel
}

// DepthStencilDesc describes a depth stencil state.
type DepthStencilDesc struct {
	DepthWrite bool
	DepthFunc  gfx.CompareFunc
}

// Device creates native objects, ID3D11Device.
type Device interface {
	CreateVertexShader(byteCode []byte) (Handle, error)
	CreatePixelShader(byteCode []byte) (Handle, error)
	CreateBuffer(desc BufferDesc, data []byte) (Handle, error)
	CreateInputLayout(elems []InputElement, vsByteCode []byte) (Handle, error)
	CreateTexture2D(desc TextureDesc, data []byte) (Handle, error)
	CreateShaderResourceView(texture Handle) (Handle, error)
	CreateRenderTargetView(texture Handle) (Handle, error)
	CreateDepthStencilView(texture Handle) (Handle, error)
	CreateSamplerState(desc SamplerDesc) (Handle, error)
	CreateRasterizerState(desc RasterizerDesc) (Handle, error)
	CreateBlendState(desc BlendDesc) (Handle, error)
	CreateDepthStencilState(desc DepthStencilDesc) (Handle, error)
	Release(h Handle)
}

// Context records rendering commands, ID3D11DeviceContext.
type Context interface {
	IASetInputLayout(layout Handle)
	IASetVertexBuffer(buffer Handle, stride, offset int)
	IASetIndexBuffer(buffer Handle, format Format, offset int)
	IASetPrimitiveTopology(topology Topology)
	SetShader(stage gfx.ShaderStage, shader Handle)
	SetConstantBuffer(stage gfx.ShaderStage, slot int, buffer Handle)
	SetShaderResource(stage gfx.ShaderStage, slot int, view Handle)
	SetSampler(stage gfx.ShaderStage, slot int, sampler Handle)
	UpdateSubresource(resource Handle, data []byte)
	OMSetRenderTargets(rtv, dsv Handle)
	OMSetBlendState(state Handle)
	OMSetDepthStencilState(state Handle)
	RSSetState(state Handle)
	RSSetViewport(x, y, width, height int)
	ClearRenderTargetView(rtv Handle, color [4]float32)
	ClearDepthStencilView(dsv Handle, depth, stencil bool, d float32, s uint8)
	DrawInstanced(vertices, instances, start int)
	DrawIndexedInstanced(indices, instances, start int)
	Flush()
}

// DeviceProvider is implemented by displays that own a D3D11 device and
// its swapchain.
type DeviceProvider interface {
	D3D11Device() Device
	D3D11Context() Context

	// D3D11DefaultRenderTarget returns the backbuffer views of the
	// current frame.
	D3D11DefaultRenderTarget() (rtv, dsv Handle)
}
