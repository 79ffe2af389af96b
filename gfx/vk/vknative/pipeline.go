// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"errors"
	"fmt"
	"math"

	"github.com/devblok/korugfx/core"
	vkbackend "github.com/devblok/korugfx/gfx/vk"
	vk "github.com/devblok/vulkan"
)

const entryPoint = "main"

// CreateShaderModule implements vkbackend.Device.
func (d *Device) CreateShaderModule(spirv []byte) (vkbackend.Handle, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(spirv)),
		PCode:    core.SliceUint32(spirv),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return 0, fmt.Errorf("vk.CreateShaderModule(): %w", err)
	}
	return d.add(shaderModule{module}), nil
}

// CreatePipelineLayout implements vkbackend.Device.
func (d *Device) CreatePipelineLayout(ranges []vkbackend.PushConstantRange) (vkbackend.Handle, error) {
	pcr := make([]vk.PushConstantRange, len(ranges))
	for i, r := range ranges {
		pcr[i] = vk.PushConstantRange{
			StageFlags: stageFlags(r.Stage),
			Offset:     uint32(r.Offset),
			Size:       uint32(r.Size),
		}
	}
	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: uint32(len(pcr)),
		PPushConstantRanges:    pcr,
	}
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, &plci, nil, &layout)); err != nil {
		return 0, fmt.Errorf("vk.CreatePipelineLayout(): %w", err)
	}
	return d.add(pipelineLayout{layout}), nil
}

func vertexInput(desc vkbackend.PipelineDesc) ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	bindings := []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(desc.Stride),
		InputRate: vk.VertexInputRateVertex,
	}}
	attrs := make([]vk.VertexInputAttributeDescription, len(desc.Attributes))
	instanced := false
	for i, a := range desc.Attributes {
		binding := uint32(0)
		if a.PerInstance {
			binding = 1
			instanced = true
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(a.Location),
			Binding:  binding,
			Format:   vertexFormats[a.Format],
			Offset:   uint32(a.Offset),
		}
	}
	// Instance attributes read the same buffer at instance rate.
	if instanced {
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   1,
			Stride:    uint32(desc.Stride),
			InputRate: vk.VertexInputRateInstance,
		})
	}
	return bindings, attrs
}

// CreatePipeline implements vkbackend.Device.
func (d *Device) CreatePipeline(desc vkbackend.PipelineDesc) (vkbackend.Handle, error) {
	if d.swapchain == nil {
		return 0, errors.New("no swapchain")
	}
	layout, ok := d.lookup(desc.Layout).(pipelineLayout)
	if !ok {
		return 0, fmt.Errorf("handle %d is not a pipeline layout", desc.Layout)
	}
	vs, ok := d.lookup(desc.VS).(shaderModule)
	if !ok {
		return 0, fmt.Errorf("handle %d is not a shader module", desc.VS)
	}
	fs, ok := d.lookup(desc.FS).(shaderModule)
	if !ok {
		return 0, fmt.Errorf("handle %d is not a shader module", desc.FS)
	}

	stages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: vs.module,
		PName:  safeString(entryPoint),
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: fs.module,
		PName:  safeString(entryPoint),
	}}
	bindings, attrs := vertexInput(desc)

	blend := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask:      colorWriteMask(desc.Blend.ColorWriteMask),
		BlendEnable:         vk.False,
		SrcColorBlendFactor: blendFactor(desc.Blend.SrcFactor),
		DstColorBlendFactor: blendFactor(desc.Blend.DstFactor),
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: blendFactor(desc.Blend.SrcFactor),
		DstAlphaBlendFactor: blendFactor(desc.Blend.DstFactor),
		AlphaBlendOp:        vk.BlendOpAdd,
	}
	if desc.Blend.Enabled {
		blend.BlendEnable = vk.True
	}
	depthWrite := vk.Bool32(vk.False)
	if desc.DepthStencil.DepthWriteEnabled {
		depthWrite = vk.True
	}
	keep := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attrs)),
			PVertexAttributeDescriptions:    attrs,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: topology(desc.Topology),
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    cullMode(desc.Rasterizer),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:   vk.True,
			DepthWriteEnable:  depthWrite,
			DepthCompareOp:    compareOp(desc.DepthStencil.DepthCmpFunc),
			StencilTestEnable: vk.False,
			Front:             keep,
			Back:              keep,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{blend},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:     layout.layout,
		RenderPass: d.swapchain.renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(d.device, d.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return 0, fmt.Errorf("vk.CreateGraphicsPipelines(): %w", err)
	}
	return d.add(pipeline{pipelines[0]}), nil
}

// CreateBuffer implements vkbackend.Device.
func (d *Device) CreateBuffer(kind vkbackend.BufferKind, size int, data []byte) (vkbackend.Handle, error) {
	usage := vk.BufferUsageVertexBufferBit
	if kind == vkbackend.IndexBuffer {
		usage = vk.BufferUsageIndexBufferBit
	}
	buf, err := newBuffer(d.allocator, usage, size)
	if err != nil {
		return 0, err
	}
	if err := buf.write(data); err != nil {
		buf.release()
		return 0, err
	}
	return d.add(buf), nil
}

// UpdateBuffer implements vkbackend.Device. Outside of a frame it waits
// for the submitted frame. Draws recorded earlier in the current frame
// read the new contents.
func (d *Device) UpdateBuffer(h vkbackend.Handle, data []byte) error {
	buf, ok := d.lookup(h).(*buffer)
	if !ok {
		return fmt.Errorf("handle %d is not a buffer", h)
	}
	if !d.recording {
		vk.WaitForFences(d.device, 1, []vk.Fence{d.imageFence}, vk.True, math.MaxUint64)
	}
	return buf.write(data)
}
