// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/devblok/korugfx/gfx"
	vkbackend "github.com/devblok/korugfx/gfx/vk"
	vk "github.com/devblok/vulkan"
)

// ErrSwapchainOutOfDate is returned for a frame dropped while the
// swapchain followed a surface change.
var ErrSwapchainOutOfDate = errors.New("vknative: swapchain out of date")

var defaultClearValues = func() []vk.ClearValue {
	values := make([]vk.ClearValue, 2)
	values[0].SetColor([]float32{0, 0, 0, 1})
	values[1].SetDepthStencil(1, 0)
	return values
}()

// BeginFrame implements vkbackend.Device.
func (d *Device) BeginFrame() (vkbackend.CommandEncoder, error) {
	if d.recording {
		return nil, errors.New("vknative: frame already begun")
	}
	if d.swapchain == nil {
		if err := d.recreateSwapchain(); err != nil {
			return nil, err
		}
	}
	vk.WaitForFences(d.device, 1, []vk.Fence{d.imageFence}, vk.True, math.MaxUint64)
	d.collectGarbage()

	result := vk.AcquireNextImage(d.device, d.swapchain.handle, math.MaxUint64, d.imageAvailableSemaphore, vk.NullFence, &d.imageIndex)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		if err := d.recreateSwapchain(); err != nil {
			return nil, err
		}
		return nil, ErrSwapchainOutOfDate
	default:
		return nil, fmt.Errorf("vk.AcquireNextImage(): %w", vk.Error(result))
	}

	cb := d.commandBuffers[d.imageIndex]
	if err := vk.Error(vk.ResetCommandBuffer(cb, 0)); err != nil {
		return nil, fmt.Errorf("vk.ResetCommandBuffer(): %w", err)
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cb, &cbbi)); err != nil {
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %w", err)
	}

	sc := d.swapchain
	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  sc.renderPass,
		Framebuffer: sc.framebuffers[d.imageIndex],
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: sc.width, Height: sc.height},
		},
		ClearValueCount: uint32(len(defaultClearValues)),
		PClearValues:    defaultClearValues,
	}
	vk.CmdBeginRenderPass(cb, &rpbi, vk.SubpassContentsInline)
	d.recording = true

	enc := &commandEncoder{d: d, cb: cb}
	enc.SetViewport(0, 0, int(sc.width), int(sc.height))
	return enc, nil
}

// EndFrame implements vkbackend.Device.
func (d *Device) EndFrame() error {
	if !d.recording {
		return errors.New("vknative: no frame begun")
	}
	d.recording = false
	cb := d.commandBuffers[d.imageIndex]
	vk.CmdEndRenderPass(cb)
	if err := vk.Error(vk.EndCommandBuffer(cb)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %w", err)
	}

	vk.ResetFences(d.device, 1, []vk.Fence{d.imageFence})
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{d.renderFinishedSemaphore},
	}}
	if err := vk.Error(vk.QueueSubmit(d.queue, 1, submit, d.imageFence)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %w", err)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchain.handle},
		PImageIndices:      []uint32{d.imageIndex},
	}
	switch result := vk.QueuePresent(d.queue, &presentInfo); result {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return d.recreateSwapchain()
	default:
		return fmt.Errorf("vk.QueuePresent(): %w", vk.Error(result))
	}
}

// commandEncoder records into the command buffer of the current frame.
type commandEncoder struct {
	d  *Device
	cb vk.CommandBuffer
}

func (e *commandEncoder) BindPipeline(h vkbackend.Handle) {
	vk.CmdBindPipeline(e.cb, vk.PipelineBindPointGraphics, e.d.lookup(h).(pipeline).pipeline)
}

// BindVertexBuffer binds the buffer for per vertex and per instance
// attributes.
func (e *commandEncoder) BindVertexBuffer(h vkbackend.Handle) {
	buf := e.d.lookup(h).(*buffer).buffer
	vk.CmdBindVertexBuffers(e.cb, 0, 2, []vk.Buffer{buf, buf}, []vk.DeviceSize{0, 0})
}

func (e *commandEncoder) BindIndexBuffer(h vkbackend.Handle, index32 bool) {
	typ := vk.IndexTypeUint16
	if index32 {
		typ = vk.IndexTypeUint32
	}
	vk.CmdBindIndexBuffer(e.cb, e.d.lookup(h).(*buffer).buffer, 0, typ)
}

func (e *commandEncoder) PushConstants(layout vkbackend.Handle, stage gfx.ShaderStage, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	l := e.d.lookup(layout).(pipelineLayout).layout
	vk.CmdPushConstants(e.cb, l, stageFlags(stage), uint32(offset), uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (e *commandEncoder) SetViewport(x, y, width, height int) {
	vk.CmdSetViewport(e.cb, 0, 1, []vk.Viewport{{
		X:        float32(x),
		Y:        float32(y),
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(e.cb, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: int32(x), Y: int32(y)},
		Extent: vk.Extent2D{Width: uint32(width), Height: uint32(height)},
	}})
}

func (e *commandEncoder) ClearAttachments(channels gfx.PixelChannel, color [4]float32, depth float32, stencil uint8) {
	clearColor, aspects := clearAspects(channels)
	if !e.d.swapchain.hasStencil {
		aspects &^= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	var attachments []vk.ClearAttachment
	if clearColor {
		a := vk.ClearAttachment{
			AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
			ColorAttachment: 0,
		}
		a.ClearValue.SetColor(color[:])
		attachments = append(attachments, a)
	}
	if aspects != 0 {
		a := vk.ClearAttachment{AspectMask: aspects}
		a.ClearValue.SetDepthStencil(depth, uint32(stencil))
		attachments = append(attachments, a)
	}
	if len(attachments) == 0 {
		return
	}
	sc := e.d.swapchain
	rects := []vk.ClearRect{{
		Rect:       vk.Rect2D{Extent: vk.Extent2D{Width: sc.width, Height: sc.height}},
		LayerCount: 1,
	}}
	vk.CmdClearAttachments(e.cb, uint32(len(attachments)), attachments, uint32(len(rects)), rects)
}

func (e *commandEncoder) Draw(vertices, instances, first int) {
	vk.CmdDraw(e.cb, uint32(vertices), uint32(instances), uint32(first), 0)
}

func (e *commandEncoder) DrawIndexed(indices, instances, first int) {
	vk.CmdDrawIndexed(e.cb, uint32(indices), uint32(instances), uint32(first), 0, 0)
}
