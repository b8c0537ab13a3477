package device

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

func intPtr(v int) *int { return &v }

func TestQueueFamilyIndices(t *testing.T) {
	var indices QueueFamilyIndices
	require.False(t, indices.IsComplete())

	indices.GraphicsFamily = intPtr(0)
	require.False(t, indices.IsComplete())

	indices.PresentFamily = intPtr(0)
	require.True(t, indices.IsComplete())
	require.Equal(t, []int{0}, indices.Unique())

	mode, families := indices.SharingMode()
	require.Equal(t, core1_0.SharingModeExclusive, mode)
	require.Nil(t, families)

	indices.PresentFamily = intPtr(2)
	require.Equal(t, []int{0, 2}, indices.Unique())

	mode, families = indices.SharingMode()
	require.Equal(t, core1_0.SharingModeConcurrent, mode)
	require.Equal(t, []int{0, 2}, families)
}

func TestFindMemoryType(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
	}

	index, err := findMemoryType(types, 0b111, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	require.Equal(t, 0, index)

	index, err = findMemoryType(types, 0b111, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	require.Equal(t, 2, index)

	index, err = findMemoryType(types, 0b110, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	require.Equal(t, 1, index)

	_, err = findMemoryType(types, 0b001, core1_0.MemoryPropertyHostVisible)
	require.Error(t, err)
}

func TestFindSupportedFormat(t *testing.T) {
	features := map[core1_0.Format]core1_0.FormatFeatureFlags{
		core1_0.FormatD32SignedFloatS8UnsignedInt: core1_0.FormatFeatureDepthStencilAttachment,
	}
	lookup := func(format core1_0.Format) (core1_0.FormatFeatureFlags, core1_0.FormatFeatureFlags) {
		return 0, features[format]
	}

	format, err := findSupportedFormat(depthFormats, core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment, lookup)
	require.NoError(t, err)
	require.Equal(t, core1_0.FormatD32SignedFloatS8UnsignedInt, format)

	_, err = findSupportedFormat(depthFormats, core1_0.ImageTilingLinear, core1_0.FormatFeatureDepthStencilAttachment, lookup)
	require.Error(t, err)
}

func TestDebugLevel(t *testing.T) {
	require.Equal(t, slog.LevelError, debugLevel(ext_debug_utils.SeverityError))
	require.Equal(t, slog.LevelError, debugLevel(ext_debug_utils.SeverityError|ext_debug_utils.SeverityWarning))
	require.Equal(t, slog.LevelWarn, debugLevel(ext_debug_utils.SeverityWarning))
	require.Equal(t, slog.LevelDebug, debugLevel(0))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "vkpresent", cfg.AppName)
	require.False(t, cfg.Validation)

	require.Same(t, slog.Default(), Config{}.logger())
}
