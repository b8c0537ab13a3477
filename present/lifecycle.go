package present

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// AcquireStatus classifies the outcome of acquiring a swapchain image.
type AcquireStatus int

const (
	AcquireSuccess AcquireStatus = iota
	AcquireSuboptimal
	AcquireStale
)

func (s AcquireStatus) String() string {
	switch s {
	case AcquireSuccess:
		return "success"
	case AcquireSuboptimal:
		return "suboptimal"
	case AcquireStale:
		return "stale"
	}
	return "unknown"
}

// Acquisition is the result of AcquireNext. ImageIndex is only meaningful
// when Status is not AcquireStale.
type Acquisition struct {
	Status     AcquireStatus
	ImageIndex int
}

// setArena owns every live ImageSet keyed by generation. There is at most
// one live set outside of Recreate, which briefly holds two.
type setArena struct {
	sets map[Generation]*ImageSet
	last Generation
}

func (a *setArena) insert(set *ImageSet) Generation {
	if a.sets == nil {
		a.sets = make(map[Generation]*ImageSet)
	}
	a.last++
	set.generation = a.last
	a.sets[a.last] = set
	return a.last
}

func (a *setArena) get(gen Generation) *ImageSet {
	return a.sets[gen]
}

func (a *setArena) retire(gen Generation) {
	set, ok := a.sets[gen]
	if !ok {
		return
	}
	set.Destroy()
	delete(a.sets, gen)
}

// SwapchainManager owns the current ImageSet and rebuilds it when the
// surface changes.
type SwapchainManager struct {
	dev     Device
	sc      SwapchainDevice
	surface Surface
	cfg     Config
	log     *slog.Logger

	arena   setArena
	current Generation
}

// NewSwapchainManager builds the first ImageSet for the surface's current
// extent, waiting for it to become non-zero.
func NewSwapchainManager(dev Device, sc SwapchainDevice, surface Surface, cfg Config) (*SwapchainManager, error) {
	m := &SwapchainManager{
		dev:     dev,
		sc:      sc,
		surface: surface,
		cfg:     cfg,
		log:     cfg.logger(),
	}

	_, err := m.Recreate(surface.Extent())
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Current returns the live ImageSet.
func (m *SwapchainManager) Current() *ImageSet {
	return m.arena.get(m.current)
}

// Generation returns the generation of the live ImageSet.
func (m *SwapchainManager) Generation() Generation {
	return m.current
}

// AcquireNext asks for the next image, signaling h.ImageAvailable once it
// is ready for rendering.
func (m *SwapchainManager) AcquireNext(h FrameHandle) (Acquisition, error) {
	set := m.Current()
	index, res, err := m.sc.AcquireNextImage(set.swapchain, h.ImageAvailable)

	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return Acquisition{Status: AcquireStale}, nil
	case res == khr_swapchain.VKSuboptimal:
		return Acquisition{Status: AcquireSuboptimal, ImageIndex: index}, nil
	case err != nil:
		return Acquisition{}, classify(res, err, ErrPresentationFailure, "acquire image (slot %d)", h.Slot)
	}

	if index < 0 || index >= set.ImageCount() {
		return Acquisition{}, errors.Mark(
			errors.Newf("acquired image %d of %d", index, set.ImageCount()),
			ErrPresentationFailure)
	}
	return Acquisition{Status: AcquireSuccess, ImageIndex: index}, nil
}

// Present queues imageIndex for display once h.RenderFinished is signaled.
// It reports stale when the swapchain is out of date or suboptimal; the
// image is still shown in the suboptimal case.
func (m *SwapchainManager) Present(h FrameHandle, imageIndex int) (stale bool, err error) {
	res, err := m.sc.Present(m.Current().swapchain, imageIndex, h.RenderFinished)
	if isStale(res) {
		return true, nil
	}
	if err != nil {
		return false, classify(res, err, ErrPresentationFailure, "present image %d (slot %d)", imageIndex, h.Slot)
	}
	return false, nil
}

// Recreate replaces the live ImageSet with one built for extent.
//
// A zero extent means the window is minimized: Recreate blocks on window
// events until the surface reports a usable extent. The device is then
// drained, the new set is built against the old one and only afterwards is
// the old set destroyed. countChanged reports whether the image count
// differs from the previous generation.
func (m *SwapchainManager) Recreate(extent core1_0.Extent2D) (countChanged bool, err error) {
	for extent.Width <= 0 || extent.Height <= 0 {
		if m.surface.ShouldClose() {
			return false, ErrClosed
		}
		m.surface.WaitEvents()
		extent = m.surface.Extent()
	}

	err = m.dev.WaitIdle()
	if err != nil {
		return false, errors.Wrap(err, "wait for device idle before recreation")
	}

	old := m.Current()
	set, err := NewImageSet(m.sc, extent, old, m.cfg)
	if err != nil {
		return false, err
	}

	oldGen := m.current
	m.current = m.arena.insert(set)
	if old != nil {
		countChanged = old.ImageCount() != set.ImageCount()
		m.arena.retire(oldGen)
	}

	m.log.Info("swapchain ready",
		slog.Uint64("generation", uint64(m.current)),
		slog.Int("width", set.Extent().Width),
		slog.Int("height", set.Extent().Height),
		slog.Int("images", set.ImageCount()),
		slog.Bool("countChanged", countChanged))

	return countChanged, nil
}

// Destroy releases the live ImageSet. The device must be idle.
func (m *SwapchainManager) Destroy() {
	for gen := range m.arena.sets {
		m.arena.retire(gen)
	}
	m.current = 0
}
