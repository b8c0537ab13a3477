package present

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

func TestRecreateSameExtentIsStable(t *testing.T) {
	surface := newFakeSurface(800, 600)
	dev := newFakeDevice(surface, 2)

	m, err := NewSwapchainManager(dev, dev, surface, Config{})
	require.NoError(t, err)
	first := m.Current()
	count, extent, layout := first.ImageCount(), first.Extent(), first.RenderTargetLayout()

	for i := 0; i < 2; i++ {
		countChanged, err := m.Recreate(core1_0.Extent2D{Width: 800, Height: 600})
		require.NoError(t, err)
		require.False(t, countChanged)

		set := m.Current()
		assert.Equal(t, count, set.ImageCount())
		assert.Equal(t, extent, set.Extent())
		assert.Same(t, layout, set.RenderTargetLayout())
	}

	require.Equal(t, Generation(3), m.Generation())
	require.Equal(t, 1, dev.liveCount("swapchain"))
	require.Equal(t, 1, dev.liveCount("renderpass"))
	require.Len(t, m.arena.sets, 1)

	m.Destroy()
	assert.Empty(t, dev.live)
}

func TestRecreateWaitsForNonZeroExtent(t *testing.T) {
	testCases := map[string]core1_0.Extent2D{
		"Minimized":  {Width: 0, Height: 0},
		"ZeroWidth":  {Width: 0, Height: 600},
		"ZeroHeight": {Width: 800, Height: 0},
	}

	for name, zero := range testCases {
		t.Run(name, func(t *testing.T) {
			surface := &fakeSurface{extents: []core1_0.Extent2D{zero, zero, zero, {Width: 800, Height: 600}}}
			dev := newFakeDevice(surface, 2)

			m, err := NewSwapchainManager(dev, dev, surface, Config{})
			require.NoError(t, err)
			defer m.Destroy()

			assert.Equal(t, 3, surface.waits)
			assert.Len(t, dev.swapchains, 1)
			assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, m.Current().Extent())
		})
	}
}

func TestRecreateClosedWhileMinimized(t *testing.T) {
	surface := newFakeSurface(800, 600)
	dev := newFakeDevice(surface, 2)
	m, err := NewSwapchainManager(dev, dev, surface, Config{})
	require.NoError(t, err)
	gen := m.Generation()

	surface.closeAfter = 1
	surface.polls = 1
	_, err = m.Recreate(core1_0.Extent2D{})
	require.ErrorIs(t, err, ErrClosed)

	require.Equal(t, gen, m.Generation(), "the live set is kept")
	require.Len(t, dev.swapchains, 1)

	m.Destroy()
	assert.Empty(t, dev.live)
}

func TestRecreateReportsCountChange(t *testing.T) {
	surface := newFakeSurface(800, 600)
	dev := newFakeDevice(surface, 2)
	m, err := NewSwapchainManager(dev, dev, surface, Config{})
	require.NoError(t, err)
	defer m.Destroy()
	require.Equal(t, 3, m.Current().ImageCount())

	dev.minImages = 3
	countChanged, err := m.Recreate(surface.Extent())
	require.NoError(t, err)
	require.True(t, countChanged)
	require.Equal(t, 4, m.Current().ImageCount())
}

func TestRecreateFailureKeepsCurrentSet(t *testing.T) {
	surface := newFakeSurface(800, 600)
	dev := newFakeDevice(surface, 2)
	m, err := NewSwapchainManager(dev, dev, surface, Config{})
	require.NoError(t, err)
	gen := m.Generation()

	dev.formats = nil
	_, err = m.Recreate(surface.Extent())
	require.True(t, errors.Is(err, ErrNoCompatibleFormat))
	require.Equal(t, gen, m.Generation())
	require.NotNil(t, m.Current())

	m.Destroy()
	assert.Empty(t, dev.live)
}

func TestAcquireNextClassification(t *testing.T) {
	testCases := map[string]struct {
		res      common.VkResult
		status   AcquireStatus
		sentinel error
	}{
		"Success":     {res: 0, status: AcquireSuccess},
		"Suboptimal":  {res: khr_swapchain.VKSuboptimal, status: AcquireSuboptimal},
		"OutOfDate":   {res: khr_swapchain.VKErrorOutOfDate, status: AcquireStale},
		"SurfaceLost": {res: vkErrorSurfaceLost, sentinel: ErrSurfaceLost},
		"DeviceLost":  {res: -4, sentinel: ErrPresentationFailure},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			surface := newFakeSurface(800, 600)
			dev := newFakeDevice(surface, 2)
			m, err := NewSwapchainManager(dev, dev, surface, Config{})
			require.NoError(t, err)
			defer m.Destroy()

			fs, err := NewFrameSynchronizer(dev)
			require.NoError(t, err)
			defer fs.Destroy()
			h, err := fs.BeginFrame()
			require.NoError(t, err)

			dev.acquireResults = []common.VkResult{tc.res}
			acq, err := m.AcquireNext(h)
			if tc.sentinel != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.sentinel))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.status, acq.Status)
		})
	}
}

func TestPresentStale(t *testing.T) {
	surface := newFakeSurface(800, 600)
	dev := newFakeDevice(surface, 2)
	m, err := NewSwapchainManager(dev, dev, surface, Config{})
	require.NoError(t, err)
	defer m.Destroy()

	fs, err := NewFrameSynchronizer(dev)
	require.NoError(t, err)
	defer fs.Destroy()
	h, err := fs.BeginFrame()
	require.NoError(t, err)

	dev.presentResults = []common.VkResult{khr_swapchain.VKSuboptimal, khr_swapchain.VKErrorOutOfDate, 0, vkErrorSurfaceLost}

	stale, err := m.Present(h, 0)
	require.NoError(t, err)
	require.True(t, stale)

	stale, err = m.Present(h, 0)
	require.NoError(t, err)
	require.True(t, stale)

	stale, err = m.Present(h, 0)
	require.NoError(t, err)
	require.False(t, stale)

	_, err = m.Present(h, 0)
	require.True(t, errors.Is(err, ErrSurfaceLost))

	require.Equal(t, []int{0, 0}, dev.presents, "suboptimal and successful presents reach the queue")
}
