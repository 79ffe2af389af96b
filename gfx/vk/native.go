// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vk

import (
	"github.com/devblok/korugfx/gfx"
)

// Handle is an opaque Vulkan object, zero is VK_NULL_HANDLE.
type Handle uint64

// BufferKind is the usage of a buffer.
type BufferKind int

// Buffer kinds.
const (
	VertexBuffer BufferKind = iota
	IndexBuffer
)

// PushConstantRange is the part of the push constant block read by a stage.
type PushConstantRange struct {
	Stage  gfx.ShaderStage
	Offset int
	Size   int
}

// VertexAttribute is one attribute of the vertex input state. Location is
// the VertexAttr ordinal.
type VertexAttribute struct {
	Location    int
	Format      gfx.VertexFormat
	Offset      int
	PerInstance bool
}

// PipelineDesc describes a graphics pipeline.
type PipelineDesc struct {
	Layout     Handle
	VS, FS     Handle
	Stride     int
	Attributes []VertexAttribute
	Topology   gfx.PrimitiveType

	DepthStencil gfx.DepthStencilState
	Blend        gfx.BlendState
	Rasterizer   gfx.RasterizerState
}

// Device owns the logical device and the swapchain.
type Device interface {
	CreateShaderModule(spirv []byte) (Handle, error)
	CreatePipelineLayout(ranges []PushConstantRange) (Handle, error)
	CreatePipeline(desc PipelineDesc) (Handle, error)

	// CreateBuffer creates a host visible buffer of size bytes filled
	// with data.
	CreateBuffer(kind BufferKind, size int, data []byte) (Handle, error)
	UpdateBuffer(buffer Handle, data []byte) error
	Destroy(h Handle)

	// BeginFrame acquires the next swapchain image and starts recording
	// its render pass.
	BeginFrame() (CommandEncoder, error)

	// EndFrame submits the recorded commands and queues the image for
	// presentation.
	EndFrame() error

	WaitIdle()
	Close()
}

// CommandEncoder records commands into the command buffer of a frame.
type CommandEncoder interface {
	BindPipeline(pipeline Handle)
	BindVertexBuffer(buffer Handle)
	BindIndexBuffer(buffer Handle, index32 bool)
	PushConstants(layout Handle, stage gfx.ShaderStage, offset int, data []byte)
	SetViewport(x, y, width, height int)
	ClearAttachments(channels gfx.PixelChannel, color [4]float32, depth float32, stencil uint8)
	Draw(vertices, instances, first int)
	DrawIndexed(indices, instances, first int)
}
