package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Generation identifies one Presentable-Image Set. Generations increase
// monotonically across recreations.
type Generation uint64

// ImageSet is one generation of the swapchain: its images, their views and
// framebuffers, a shared depth target and the render pass they were built
// against. All images share format, extent and render pass.
type ImageSet struct {
	dev        SwapchainDevice
	generation Generation

	swapchain   khr_swapchain.Swapchain
	format      khr_surface.Format
	presentMode khr_surface.PresentMode
	extent      core1_0.Extent2D

	images       []core1_0.Image
	views        []core1_0.ImageView
	framebuffers []core1_0.Framebuffer
	depth        DepthTarget
	renderPass   core1_0.RenderPass
}

// NewImageSet builds a swapchain and its per-image resources for extent.
//
// When previous is not nil its swapchain is handed to the driver as the old
// swapchain, and its render pass is adopted if the formats still match. The
// caller destroys previous once NewImageSet succeeded and the device is idle;
// previous must not be used for rendering afterwards.
func NewImageSet(dev SwapchainDevice, extent core1_0.Extent2D, previous *ImageSet, cfg Config) (*ImageSet, error) {
	support, res, err := dev.SurfaceSupport()
	if err != nil {
		return nil, classify(res, err, ErrPresentationFailure, "query surface support")
	}
	if support.Capabilities == nil || len(support.Formats) == 0 {
		return nil, errors.WithDetailf(
			errors.Wrap(ErrNoCompatibleFormat, "surface reports no formats"),
			"requested extent %dx%d", extent.Width, extent.Height)
	}

	caps := support.Capabilities
	set := &ImageSet{
		dev:         dev,
		format:      chooseSurfaceFormat(support.Formats),
		presentMode: choosePresentMode(support.PresentModes, cfg.VSync),
		extent:      chooseExtent(caps, extent),
	}
	if set.extent.Width <= 0 || set.extent.Height <= 0 {
		return nil, errors.WithDetailf(
			errors.Wrapf(ErrNoCompatibleFormat, "extent %dx%d", set.extent.Width, set.extent.Height),
			"requested %dx%d, supported %dx%d..%dx%d",
			extent.Width, extent.Height,
			caps.MinImageExtent.Width, caps.MinImageExtent.Height,
			caps.MaxImageExtent.Width, caps.MaxImageExtent.Height)
	}

	info := SwapchainInfo{
		ImageCount:   chooseImageCount(caps, cfg.ImageCount),
		Format:       set.format,
		Extent:       set.extent,
		PresentMode:  set.presentMode,
		Capabilities: caps,
	}
	if previous != nil {
		info.Old = previous.swapchain
	}

	var images []core1_0.Image
	set.swapchain, images, res, err = dev.CreateSwapchain(info)
	if err != nil {
		return nil, classify(res, err, ErrPresentationFailure, "create swapchain %dx%d", set.extent.Width, set.extent.Height)
	}
	set.images = images

	if err := set.build(previous); err != nil {
		set.Destroy()
		return nil, err
	}

	return set, nil
}

func (s *ImageSet) build(previous *ImageSet) error {
	depthFormat, err := s.dev.DepthFormat()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "find depth format"), ErrNoCompatibleFormat)
	}

	for i, image := range s.images {
		view, err := s.dev.CreateImageView(image, s.format.Format)
		if err != nil {
			return errors.Wrapf(err, "create view for image %d", i)
		}
		s.views = append(s.views, view)
	}

	s.depth, err = s.dev.CreateDepthTarget(s.extent, depthFormat)
	if err != nil {
		return errors.Wrap(err, "create depth target")
	}

	adopted := false
	if previous != nil && previous.renderPass != nil &&
		previous.format.Format == s.format.Format && previous.depth.Format == depthFormat {
		s.renderPass = previous.renderPass
		adopted = true
	} else {
		s.renderPass, err = s.dev.CreateRenderPass(s.format.Format, depthFormat)
		if err != nil {
			return errors.Wrap(err, "create render pass")
		}
	}

	for i, view := range s.views {
		fb, err := s.dev.CreateFramebuffer(s.renderPass, view, s.depth.View, s.extent)
		if err != nil {
			if adopted {
				// Still owned by previous.
				s.renderPass = nil
			}
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.framebuffers = append(s.framebuffers, fb)
	}

	if adopted {
		previous.renderPass = nil
	}
	return nil
}

// Destroy releases everything the set owns. The device must be idle.
func (s *ImageSet) Destroy() {
	for _, fb := range s.framebuffers {
		s.dev.DestroyFramebuffer(fb)
	}
	s.framebuffers = nil

	if s.depth.Image != nil {
		s.dev.DestroyDepthTarget(s.depth)
		s.depth = DepthTarget{Format: s.depth.Format}
	}

	for _, view := range s.views {
		s.dev.DestroyImageView(view)
	}
	s.views = nil

	if s.renderPass != nil {
		s.dev.DestroyRenderPass(s.renderPass)
		s.renderPass = nil
	}

	if s.swapchain != nil {
		s.dev.DestroySwapchain(s.swapchain)
		s.swapchain = nil
	}
	s.images = nil
}

// ImageCount is the number of swapchain images, N.
func (s *ImageSet) ImageCount() int { return len(s.images) }

// Extent is the size every image and the depth target were created with.
func (s *ImageSet) Extent() core1_0.Extent2D { return s.extent }

// Format is the colour format shared by all images.
func (s *ImageSet) Format() core1_0.Format { return s.format.Format }

// PresentMode is the mode the swapchain was created with.
func (s *ImageSet) PresentMode() khr_surface.PresentMode { return s.presentMode }

// Generation identifies this set within its SwapchainManager.
func (s *ImageSet) Generation() Generation { return s.generation }

// RenderTargetLayout is the render pass every framebuffer of the set is
// compatible with.
func (s *ImageSet) RenderTargetLayout() core1_0.RenderPass { return s.renderPass }

// Target returns the render target for image i.
func (s *ImageSet) Target(i int) RenderTarget {
	return RenderTarget{
		Generation:  s.generation,
		RenderPass:  s.renderPass,
		Framebuffer: s.framebuffers[i],
		Extent:      s.extent,
		Format:      s.format.Format,
	}
}

func chooseSurfaceFormat(formats []khr_surface.Format) khr_surface.Format {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return formats[0]
}

func choosePresentMode(modes []khr_surface.PresentMode, vsync bool) khr_surface.PresentMode {
	if vsync {
		return khr_surface.PresentModeFIFO
	}

	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
	}

	return khr_surface.PresentModeFIFO
}

// undefinedExtent is the 0xFFFFFFFF current extent width a surface reports
// when the swapchain extent decides the window size.
const undefinedExtent = int(^uint32(0))

func chooseExtent(caps *khr_surface.Capabilities, requested core1_0.Extent2D) core1_0.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps *khr_surface.Capabilities, preferred int) int {
	count := preferred
	if count <= 0 {
		count = caps.MinImageCount + 1
	}
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
