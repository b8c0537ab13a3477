package present

import (
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Surface is the window the loop presents to.
type Surface interface {
	// Extent is the current drawable size in device pixels. Either
	// dimension is zero while the window is minimized.
	Extent() core1_0.Extent2D
	// PollEvents processes pending window events without blocking.
	PollEvents()
	// WaitEvents blocks until at least one window event arrived or a
	// short timeout elapsed.
	WaitEvents()
	WasResized() bool
	ClearResized()
	ShouldClose() bool
}

// Device is the part of the logical device the frame loop needs: sync
// primitives, command buffers and the graphics queue.
type Device interface {
	WaitIdle() error

	CreateSemaphore() (core1_0.Semaphore, error)
	DestroySemaphore(core1_0.Semaphore)
	CreateFence(signaled bool) (core1_0.Fence, error)
	DestroyFence(core1_0.Fence)
	WaitForFence(core1_0.Fence) error
	ResetFence(core1_0.Fence) error

	AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error)
	FreeCommandBuffers([]core1_0.CommandBuffer)

	// Submit queues buf on the graphics queue. The work waits for wait at
	// the colour attachment output stage, then signals signal and fence.
	Submit(buf core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error
}

// SurfaceSupport is what the surface supports on the chosen physical device.
type SurfaceSupport struct {
	Capabilities *khr_surface.Capabilities
	Formats      []khr_surface.Format
	PresentModes []khr_surface.PresentMode
}

// SwapchainInfo describes a swapchain to create.
type SwapchainInfo struct {
	ImageCount  int
	Format      khr_surface.Format
	Extent      core1_0.Extent2D
	PresentMode khr_surface.PresentMode

	// Capabilities supplies the pre-transform for the new swapchain.
	Capabilities *khr_surface.Capabilities
	Old          khr_swapchain.Swapchain
}

// DepthTarget is a depth image with its memory and view.
type DepthTarget struct {
	Format core1_0.Format
	Image  core1_0.Image
	Memory core1_0.DeviceMemory
	View   core1_0.ImageView
}

// SwapchainDevice creates and drives swapchains and the resources bound to
// their images.
type SwapchainDevice interface {
	SurfaceSupport() (SurfaceSupport, common.VkResult, error)

	CreateSwapchain(info SwapchainInfo) (khr_swapchain.Swapchain, []core1_0.Image, common.VkResult, error)
	DestroySwapchain(khr_swapchain.Swapchain)

	AcquireNextImage(sc khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error)
	Present(sc khr_swapchain.Swapchain, imageIndex int, wait core1_0.Semaphore) (common.VkResult, error)

	DepthFormat() (core1_0.Format, error)
	CreateRenderPass(color, depth core1_0.Format) (core1_0.RenderPass, error)
	DestroyRenderPass(core1_0.RenderPass)

	CreateImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error)
	DestroyImageView(core1_0.ImageView)

	CreateDepthTarget(extent core1_0.Extent2D, format core1_0.Format) (DepthTarget, error)
	DestroyDepthTarget(DepthTarget)

	CreateFramebuffer(pass core1_0.RenderPass, color, depth core1_0.ImageView, extent core1_0.Extent2D) (core1_0.Framebuffer, error)
	DestroyFramebuffer(core1_0.Framebuffer)
}

// RenderTarget is everything a Recorder needs to draw into one image.
type RenderTarget struct {
	Generation  Generation
	RenderPass  core1_0.RenderPass
	Framebuffer core1_0.Framebuffer
	Extent      core1_0.Extent2D
	Format      core1_0.Format
}

// Recorder fills a command buffer with the draw work for one image.
type Recorder interface {
	Record(imageIndex int, buf core1_0.CommandBuffer, target RenderTarget) error
}

// TargetObserver is implemented by recorders that keep state bound to the
// render pass or extent, such as graphics pipelines. TargetChanged is called
// after every recreation, before the next recording.
type TargetObserver interface {
	TargetChanged(target RenderTarget) error
}
