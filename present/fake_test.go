package present

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// Handle fakes embed the vkngwrapper interfaces so they satisfy them; the
// package under test never calls methods on handles directly.

type fakeSemaphore struct {
	core1_0.Semaphore
	id int
}

type fakeFence struct {
	core1_0.Fence
	id       int
	signaled bool
}

type fakeCommandBuffer struct {
	core1_0.CommandBuffer
	id    int
	freed bool
}

type fakeImage struct {
	core1_0.Image
	id int
}

type fakeImageView struct {
	core1_0.ImageView
	id int
}

type fakeFramebuffer struct {
	core1_0.Framebuffer
	id int
}

type fakeRenderPass struct {
	core1_0.RenderPass
	id int
}

type fakeSwapchain struct {
	khr_swapchain.Swapchain
	id     int
	images int
	next   int
}

type fakeSurface struct {
	extents     []core1_0.Extent2D
	extentCalls int
	waits       int
	polls       int
	resized     bool
	closeAfter  int
}

func newFakeSurface(w, h int) *fakeSurface {
	return &fakeSurface{extents: []core1_0.Extent2D{{Width: w, Height: h}}}
}

func (s *fakeSurface) Extent() core1_0.Extent2D {
	s.extentCalls++
	e := s.extents[0]
	if len(s.extents) > 1 {
		s.extents = s.extents[1:]
	}
	return e
}

func (s *fakeSurface) peek() core1_0.Extent2D { return s.extents[0] }

func (s *fakeSurface) resize(w, h int) {
	s.extents = []core1_0.Extent2D{{Width: w, Height: h}}
	s.resized = true
}

func (s *fakeSurface) PollEvents()       { s.polls++ }
func (s *fakeSurface) WaitEvents()       { s.waits++ }
func (s *fakeSurface) WasResized() bool  { return s.resized }
func (s *fakeSurface) ClearResized()     { s.resized = false }
func (s *fakeSurface) ShouldClose() bool { return s.closeAfter > 0 && s.polls >= s.closeAfter }

type submission struct {
	buf    *fakeCommandBuffer
	wait   *fakeSemaphore
	signal *fakeSemaphore
	fence  *fakeFence
}

// fakeDevice implements Device and SwapchainDevice. GPU work completes when
// a fence is waited on or the device is waited idle.
type fakeDevice struct {
	surface *fakeSurface

	minImages int
	maxImages int
	formats   []khr_surface.Format

	// extentUndefined reports the all-ones current extent, leaving the
	// swapchain size to the requested extent.
	extentUndefined bool

	nextID int
	live   map[interface{}]string

	fences      []*fakeFence
	fenceWaits  []*fakeFence
	waitIdles   int
	submissions []submission
	presents    []int
	swapchains  []SwapchainInfo
	freedBufs   int

	acquireResults []common.VkResult
	presentResults []common.VkResult
	submitErr      error
	supportErr     error
	supportRes     common.VkResult
}

func newFakeDevice(surface *fakeSurface, minImages int) *fakeDevice {
	return &fakeDevice{
		surface:   surface,
		minImages: minImages,
		maxImages: 8,
		formats: []khr_surface.Format{
			{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
		live: make(map[interface{}]string),
	}
}

func (d *fakeDevice) id() int {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) track(h interface{}, kind string) {
	d.live[h] = kind
}

func (d *fakeDevice) untrack(h interface{}) {
	if _, ok := d.live[h]; !ok {
		panic(fmt.Sprintf("destroying unknown or already destroyed handle %v", h))
	}
	delete(d.live, h)
}

func (d *fakeDevice) liveCount(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	for _, f := range d.fences {
		f.signaled = true
	}
	return nil
}

func (d *fakeDevice) CreateSemaphore() (core1_0.Semaphore, error) {
	s := &fakeSemaphore{id: d.id()}
	d.track(s, "semaphore")
	return s, nil
}

func (d *fakeDevice) DestroySemaphore(s core1_0.Semaphore) { d.untrack(s) }

func (d *fakeDevice) CreateFence(signaled bool) (core1_0.Fence, error) {
	f := &fakeFence{id: d.id(), signaled: signaled}
	d.fences = append(d.fences, f)
	d.track(f, "fence")
	return f, nil
}

func (d *fakeDevice) DestroyFence(f core1_0.Fence) { d.untrack(f) }

func (d *fakeDevice) WaitForFence(f core1_0.Fence) error {
	fence := f.(*fakeFence)
	d.fenceWaits = append(d.fenceWaits, fence)
	fence.signaled = true
	return nil
}

func (d *fakeDevice) ResetFence(f core1_0.Fence) error {
	fence := f.(*fakeFence)
	if !fence.signaled {
		return errors.Newf("reset of unsignaled fence %d", fence.id)
	}
	fence.signaled = false
	return nil
}

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	var bufs []core1_0.CommandBuffer
	for i := 0; i < count; i++ {
		b := &fakeCommandBuffer{id: d.id()}
		d.track(b, "commandbuffer")
		bufs = append(bufs, b)
	}
	return bufs, nil
}

func (d *fakeDevice) FreeCommandBuffers(bufs []core1_0.CommandBuffer) {
	for _, b := range bufs {
		b.(*fakeCommandBuffer).freed = true
		d.untrack(b)
		d.freedBufs++
	}
}

func (d *fakeDevice) Submit(buf core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error {
	if d.submitErr != nil {
		return d.submitErr
	}
	f := fence.(*fakeFence)
	if f.signaled {
		return errors.Newf("submit with signaled fence %d", f.id)
	}
	d.submissions = append(d.submissions, submission{
		buf:    buf.(*fakeCommandBuffer),
		wait:   wait.(*fakeSemaphore),
		signal: signal.(*fakeSemaphore),
		fence:  f,
	})
	return nil
}

func (d *fakeDevice) SurfaceSupport() (SurfaceSupport, common.VkResult, error) {
	if d.supportErr != nil {
		return SurfaceSupport{}, d.supportRes, d.supportErr
	}
	current := d.surface.peek()
	if d.extentUndefined {
		current = core1_0.Extent2D{Width: undefinedExtent, Height: undefinedExtent}
	}
	return SurfaceSupport{
		Capabilities: &khr_surface.Capabilities{
			MinImageCount:  d.minImages,
			MaxImageCount:  d.maxImages,
			CurrentExtent:  current,
			MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
		},
		Formats:      d.formats,
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox},
	}, 0, nil
}

func (d *fakeDevice) CreateSwapchain(info SwapchainInfo) (khr_swapchain.Swapchain, []core1_0.Image, common.VkResult, error) {
	d.swapchains = append(d.swapchains, info)
	sc := &fakeSwapchain{id: d.id(), images: info.ImageCount}
	d.track(sc, "swapchain")

	var images []core1_0.Image
	for i := 0; i < info.ImageCount; i++ {
		images = append(images, &fakeImage{id: d.id()})
	}
	return sc, images, 0, nil
}

func (d *fakeDevice) DestroySwapchain(sc khr_swapchain.Swapchain) { d.untrack(sc) }

func (d *fakeDevice) AcquireNextImage(sc khr_swapchain.Swapchain, signal core1_0.Semaphore) (int, common.VkResult, error) {
	var res common.VkResult
	if len(d.acquireResults) > 0 {
		res = d.acquireResults[0]
		d.acquireResults = d.acquireResults[1:]
	}

	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, res, errors.New("out of date")
	}
	if res != 0 && res != khr_swapchain.VKSuboptimal {
		return 0, res, errors.Newf("acquire failed: %d", res)
	}

	s := sc.(*fakeSwapchain)
	index := s.next
	s.next = (s.next + 1) % s.images
	return index, res, nil
}

func (d *fakeDevice) Present(sc khr_swapchain.Swapchain, imageIndex int, wait core1_0.Semaphore) (common.VkResult, error) {
	var res common.VkResult
	if len(d.presentResults) > 0 {
		res = d.presentResults[0]
		d.presentResults = d.presentResults[1:]
	}
	if res == khr_swapchain.VKErrorOutOfDate {
		return res, errors.New("out of date")
	}
	if res != 0 && res != khr_swapchain.VKSuboptimal {
		return res, errors.Newf("present failed: %d", res)
	}
	d.presents = append(d.presents, imageIndex)
	return res, nil
}

func (d *fakeDevice) DepthFormat() (core1_0.Format, error) {
	return core1_0.FormatD32SignedFloat, nil
}

func (d *fakeDevice) CreateRenderPass(color, depth core1_0.Format) (core1_0.RenderPass, error) {
	rp := &fakeRenderPass{id: d.id()}
	d.track(rp, "renderpass")
	return rp, nil
}

func (d *fakeDevice) DestroyRenderPass(rp core1_0.RenderPass) { d.untrack(rp) }

func (d *fakeDevice) CreateImageView(image core1_0.Image, format core1_0.Format) (core1_0.ImageView, error) {
	v := &fakeImageView{id: d.id()}
	d.track(v, "imageview")
	return v, nil
}

func (d *fakeDevice) DestroyImageView(v core1_0.ImageView) { d.untrack(v) }

func (d *fakeDevice) CreateDepthTarget(extent core1_0.Extent2D, format core1_0.Format) (DepthTarget, error) {
	img := &fakeImage{id: d.id()}
	view := &fakeImageView{id: d.id()}
	d.track(img, "depth")
	return DepthTarget{Format: format, Image: img, View: view}, nil
}

func (d *fakeDevice) DestroyDepthTarget(t DepthTarget) { d.untrack(t.Image) }

func (d *fakeDevice) CreateFramebuffer(pass core1_0.RenderPass, color, depth core1_0.ImageView, extent core1_0.Extent2D) (core1_0.Framebuffer, error) {
	fb := &fakeFramebuffer{id: d.id()}
	d.track(fb, "framebuffer")
	return fb, nil
}

func (d *fakeDevice) DestroyFramebuffer(fb core1_0.Framebuffer) { d.untrack(fb) }

type recording struct {
	image  int
	buf    *fakeCommandBuffer
	target RenderTarget
}

type fakeRecorder struct {
	records        []recording
	targetsChanged []RenderTarget
	err            error
}

func (r *fakeRecorder) Record(imageIndex int, buf core1_0.CommandBuffer, target RenderTarget) error {
	if r.err != nil {
		return r.err
	}
	b := buf.(*fakeCommandBuffer)
	if b.freed {
		return errors.Newf("recording into freed command buffer %d", b.id)
	}
	r.records = append(r.records, recording{image: imageIndex, buf: b, target: target})
	return nil
}

func (r *fakeRecorder) TargetChanged(target RenderTarget) error {
	r.targetsChanged = append(r.targetsChanged, target)
	return nil
}
