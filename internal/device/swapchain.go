package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/vulkan-presenter/present"
)

var _ present.Device = (*Context)(nil)
var _ present.SwapchainDevice = (*Context)(nil)

func (c *Context) SurfaceSupport() (present.SurfaceSupport, common.VkResult, error) {
	return c.querySurfaceSupport(c.physicalDevice)
}

func (c *Context) querySurfaceSupport(device core1_0.PhysicalDevice) (present.SurfaceSupport, common.VkResult, error) {
	var support present.SurfaceSupport
	var res common.VkResult
	var err error

	support.Capabilities, res, err = c.surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return support, res, errors.Wrap(err, "query surface capabilities")
	}

	support.Formats, res, err = c.surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return support, res, errors.Wrap(err, "query surface formats")
	}

	support.PresentModes, res, err = c.surface.PhysicalDeviceSurfacePresentModes(device)
	return support, res, errors.Wrap(err, "query surface present modes")
}

func (c *Context) CreateSwapchain(info present.SwapchainInfo) (khr_swapchain.Swapchain, []core1_0.Image, common.VkResult, error) {
	sharingMode, queueFamilyIndices := c.families.SharingMode()

	swapchain, res, err := c.swapchainExtension.CreateSwapchain(c.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: c.surface,

		MinImageCount:    info.ImageCount,
		ImageFormat:      info.Format.Format,
		ImageColorSpace:  info.Format.ColorSpace,
		ImageExtent:      info.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   info.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    info.PresentMode,
		Clipped:        true,
		OldSwapchain:   info.Old,
	})
	if err != nil {
		return nil, nil, res, errors.Wrap(err, "create swapchain")
	}

	images, res, err := swapchain.SwapchainImages()
	if err != nil {
		swapchain.Destroy(nil)
		return nil, nil, res, errors.Wrap(err, "get swapchain images")
	}

	return swapchain, images, res, nil
}

func (c *Context) DestroySwapchain(swapchain khr_swapchain.Swapchain) {
	swapchain.Destroy(nil)
}

func (c *Context) AcquireNextImage(swapchain khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error) {
	return swapchain.AcquireNextImage(common.NoTimeout, signal, nil)
}

func (c *Context) Present(swapchain khr_swapchain.Swapchain, imageIndex int, wait core1_0.Semaphore) (common.VkResult, error) {
	return c.swapchainExtension.QueuePresent(c.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{swapchain},
		ImageIndices:   []int{imageIndex},
	})
}

var depthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

func (c *Context) DepthFormat() (core1_0.Format, error) {
	return findSupportedFormat(depthFormats, core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment,
		func(format core1_0.Format) (linear, optimal core1_0.FormatFeatureFlags) {
			props := c.physicalDevice.FormatProperties(format)
			return props.LinearTilingFeatures, props.OptimalTilingFeatures
		})
}

// formatFeatures reports the linear and optimal tiling features of a format.
type formatFeatures func(format core1_0.Format) (linear, optimal core1_0.FormatFeatureFlags)

func findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags, properties formatFeatures) (core1_0.Format, error) {
	for _, format := range formats {
		linear, optimal := properties(format)

		if tiling == core1_0.ImageTilingLinear && (linear&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (optimal&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

func (c *Context) CreateRenderPass(color, depth core1_0.Format) (core1_0.RenderPass, error) {
	renderPass, _, err := c.device.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         color,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         depth,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create render pass %s/%s", color, depth)
	}

	return renderPass, nil
}

func (c *Context) DestroyRenderPass(renderPass core1_0.RenderPass) {
	renderPass.Destroy(nil)
}

func (c *Context) CreateImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error) {
	return c.createImageView(image, format, core1_0.ImageAspectColor)
}

func (c *Context) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := c.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, errors.Wrapf(err, "create %s image view", format)
}

func (c *Context) DestroyImageView(view core1_0.ImageView) {
	view.Destroy(nil)
}

func (c *Context) CreateDepthTarget(extent core1_0.Extent2D, format core1_0.Format) (present.DepthTarget, error) {
	target := present.DepthTarget{Format: format}

	var err error
	target.Image, target.Memory, err = c.createImage(extent.Width, extent.Height,
		format,
		core1_0.ImageTilingOptimal,
		core1_0.ImageUsageDepthStencilAttachment,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return target, errors.Wrapf(err, "create %dx%d depth image", extent.Width, extent.Height)
	}

	target.View, err = c.createImageView(target.Image, format, core1_0.ImageAspectDepth)
	if err != nil {
		target.Image.Destroy(nil)
		target.Memory.Free(nil)
		return present.DepthTarget{Format: format}, err
	}

	return target, nil
}

func (c *Context) DestroyDepthTarget(target present.DepthTarget) {
	if target.View != nil {
		target.View.Destroy(nil)
	}
	if target.Image != nil {
		target.Image.Destroy(nil)
	}
	if target.Memory != nil {
		target.Memory.Free(nil)
	}
}

func (c *Context) CreateFramebuffer(renderPass core1_0.RenderPass, color, depth core1_0.ImageView, extent core1_0.Extent2D) (core1_0.Framebuffer, error) {
	framebuffer, _, err := c.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: renderPass,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			color,
			depth,
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create %dx%d framebuffer", extent.Width, extent.Height)
	}

	return framebuffer, nil
}

func (c *Context) DestroyFramebuffer(framebuffer core1_0.Framebuffer) {
	framebuffer.Destroy(nil)
}
