// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vknative

import (
	"errors"
	"fmt"
	"math"

	vk "github.com/devblok/vulkan"
)

// depthFormats are tried in order, the first with stencil wins.
var depthFormats = []vk.Format{
	vk.FormatD24UnormS8Uint,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD16Unorm,
}

// swapchain holds the presentable images and everything sized to them.
type swapchain struct {
	handle        vk.Swapchain
	format        vk.Format
	colorSpace    vk.ColorSpace
	width, height uint32

	images       []vk.Image
	views        []vk.ImageView
	framebuffers []vk.Framebuffer

	depthFormat vk.Format
	hasStencil  bool
	depthImage  vk.Image
	depthMemory vk.DeviceMemory
	depthView   vk.ImageView
	renderPass  vk.RenderPass
}

func (d *Device) surfaceFormat() (vk.Format, vk.ColorSpace, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &count, nil)); err != nil {
		return 0, 0, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %w", err)
	}
	if count == 0 {
		return 0, 0, errors.New("surface has no formats")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, d.surface, &count, formats)); err != nil {
		return 0, 0, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %w", err)
	}
	formats[0].Deref()
	if formats[0].Format == vk.FormatUndefined {
		return vk.FormatB8g8r8a8Unorm, formats[0].ColorSpace, nil
	}
	return formats[0].Format, formats[0].ColorSpace, nil
}

func (d *Device) depthFormat() (vk.Format, bool, error) {
	for _, f := range depthFormats {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.physicalDevice, f, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return f, f != vk.FormatD16Unorm, nil
		}
	}
	return vk.FormatUndefined, false, errors.New("no depth format supported")
}

// createSwapchain builds a swapchain for the current surface size,
// replacing old when set.
func (d *Device) createSwapchain(old *swapchain) (*swapchain, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, d.surface, &caps)); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities(): %w", err)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()

	sc := &swapchain{
		width:  caps.CurrentExtent.Width,
		height: caps.CurrentExtent.Height,
	}
	// 0xFFFFFFFF means the surface takes the swapchain's size.
	if sc.width == math.MaxUint32 {
		attrs := d.provider.DisplayAttrs()
		sc.width, sc.height = uint32(attrs.FramebufferWidth), uint32(attrs.FramebufferHeight)
	}

	var err error
	if sc.format, sc.colorSpace, err = d.surfaceFormat(); err != nil {
		return nil, err
	}
	if sc.depthFormat, sc.hasStencil, err = d.depthFormat(); err != nil {
		return nil, err
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	minImages := d.swapchainSize
	if minImages < caps.MinImageCount {
		minImages = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && minImages > caps.MaxImageCount {
		minImages = caps.MaxImageCount
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   minImages,
		ImageFormat:     sc.format,
		ImageColorSpace: sc.colorSpace,
		ImageExtent: vk.Extent2D{
			Width:  sc.width,
			Height: sc.height,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if old != nil {
		scci.OldSwapchain = old.handle
	}
	if err := vk.Error(vk.CreateSwapchain(d.device, &scci, nil, &sc.handle)); err != nil {
		return nil, fmt.Errorf("vk.CreateSwapchain(): %w", err)
	}

	if err := d.createAttachments(sc); err != nil {
		sc.destroy(d.device, true)
		return nil, err
	}
	return sc, nil
}

func (d *Device) createAttachments(sc *swapchain) error {
	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, sc.handle, &numImages, nil)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages(): %w", err)
	}
	sc.images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(d.device, sc.handle, &numImages, sc.images)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages(): %w", err)
	}

	for _, image := range sc.images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   sc.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
			return fmt.Errorf("vk.CreateImageView(): %w", err)
		}
		sc.views = append(sc.views, view)
	}

	if err := d.createDepthImage(sc); err != nil {
		return err
	}
	if err := d.createRenderPass(sc); err != nil {
		return err
	}

	for _, view := range sc.views {
		attachments := []vk.ImageView{view, sc.depthView}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      sc.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           sc.width,
			Height:          sc.height,
			Layers:          1,
		}
		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
			return fmt.Errorf("vk.CreateFramebuffer(): %w", err)
		}
		sc.framebuffers = append(sc.framebuffers, framebuffer)
	}
	return nil
}

func (d *Device) createDepthImage(sc *swapchain) error {
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    sc.depthFormat,
		Extent: vk.Extent3D{
			Width:  sc.width,
			Height: sc.height,
			Depth:  1,
		},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
	}
	if err := vk.Error(vk.CreateImage(d.device, &ici, nil, &sc.depthImage)); err != nil {
		return fmt.Errorf("vk.CreateImage(): %w", err)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, sc.depthImage, &req)
	req.Deref()
	memory, err := d.allocator.malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return err
	}
	sc.depthMemory = memory
	if err := vk.Error(vk.BindImageMemory(d.device, sc.depthImage, sc.depthMemory, 0)); err != nil {
		return fmt.Errorf("vk.BindImageMemory(): %w", err)
	}

	aspect := vk.ImageAspectDepthBit
	if sc.hasStencil {
		aspect |= vk.ImageAspectStencilBit
	}
	ivci := vk.ImageViewCreateInfo{
		SType:  vk.StructureTypeImageViewCreateInfo,
		Format: sc.depthFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
		ViewType: vk.ImageViewType2d,
		Image:    sc.depthImage,
	}
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &sc.depthView)); err != nil {
		return fmt.Errorf("vk.CreateImageView(): %w", err)
	}
	return nil
}

func (d *Device) createRenderPass(sc *swapchain) error {
	attachments := []vk.AttachmentDescription{{
		Format:         sc.format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, {
		Format:         sc.depthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpClear,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}

	colorRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:       vk.PipelineBindPointGraphics,
			ColorAttachmentCount:    uint32(len(colorRef)),
			PColorAttachments:       colorRef,
			PDepthStencilAttachment: &depthRef,
		}},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		}},
	}
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &sc.renderPass)); err != nil {
		return fmt.Errorf("vk.CreateRenderPass(): %w", err)
	}
	return nil
}

// destroy releases everything sized to the swapchain images, the
// swapchain itself only with handle set.
func (sc *swapchain) destroy(device vk.Device, handle bool) {
	for _, f := range sc.framebuffers {
		vk.DestroyFramebuffer(device, f, nil)
	}
	sc.framebuffers = nil
	if sc.renderPass != nil {
		vk.DestroyRenderPass(device, sc.renderPass, nil)
	}
	if sc.depthView != nil {
		vk.DestroyImageView(device, sc.depthView, nil)
	}
	if sc.depthImage != nil {
		vk.DestroyImage(device, sc.depthImage, nil)
	}
	if sc.depthMemory != vk.NullDeviceMemory {
		vk.FreeMemory(device, sc.depthMemory, nil)
	}
	for _, v := range sc.views {
		vk.DestroyImageView(device, v, nil)
	}
	sc.views = nil
	if handle && sc.handle != nil {
		vk.DestroySwapchain(device, sc.handle, nil)
	}
}

// recreateSwapchain follows a surface resize. Pipelines stay valid, the
// render pass of the new swapchain is compatible with the old one.
func (d *Device) recreateSwapchain() error {
	vk.DeviceWaitIdle(d.device)
	old := d.swapchain
	d.swapchain = nil
	if old != nil {
		old.destroy(d.device, false)
	}
	sc, err := d.createSwapchain(old)
	if old != nil {
		vk.DestroySwapchain(d.device, old.handle, nil)
	}
	if err != nil {
		return err
	}
	d.swapchain = sc
	d.freeCommandBuffers()
	return d.allocateCommandBuffers()
}
