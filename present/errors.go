package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

var (
	// ErrSurfaceLost means the drawable surface is gone. It is never retried.
	ErrSurfaceLost = errors.New("present: surface lost")

	// ErrNoCompatibleFormat means the surface offers no usable format/extent
	// combination for the requested extent.
	ErrNoCompatibleFormat = errors.New("present: no compatible surface format")

	// ErrPresentationFailure is any acquire/present failure other than an
	// out-of-date or suboptimal surface.
	ErrPresentationFailure = errors.New("present: presentation failed")

	// ErrRecordingFailure wraps errors returned by a Recorder.
	ErrRecordingFailure = errors.New("present: command recording failed")

	// ErrSubmissionFailure wraps queue submission errors.
	ErrSubmissionFailure = errors.New("present: queue submission failed")

	// ErrClosed is returned when the surface asks to close while the loop is
	// blocked waiting for a usable extent.
	ErrClosed = errors.New("present: surface closed")
)

// vkErrorSurfaceLost is VK_ERROR_SURFACE_LOST_KHR.
const vkErrorSurfaceLost common.VkResult = -1000000000

// mark wraps err with msg and tags it with the sentinel kind so callers can
// test it with errors.Is while the underlying cause stays in the chain.
func mark(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		err = kind
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}

// classify turns a backend result into one of the fatal sentinels.
func classify(res common.VkResult, err error, fallback error, format string, args ...interface{}) error {
	if res == vkErrorSurfaceLost {
		return mark(err, ErrSurfaceLost, format, args...)
	}
	return mark(err, fallback, format, args...)
}

// isStale reports whether a presentation result asks for recreation.
func isStale(res common.VkResult) bool {
	return res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal
}
