// Package present owns the swapchain of a Vulkan window and the per-frame
// acquire, record, submit and present sequence.
//
// The package talks to Vulkan only through the Device and SwapchainDevice
// interfaces and to the window only through Surface, so every handle it
// touches is created, waited on and destroyed by those collaborators.
//
// Resources bound to swapchain images live in an ImageSet. A new ImageSet is
// always fully built before the previous one is destroyed, and destruction
// only happens after the device went idle. Command buffers are tied to the
// ImageSet generation they were allocated for.
package present
