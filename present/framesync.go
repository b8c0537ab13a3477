package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// FrameHandle carries the synchronization primitives of one in-flight slot.
type FrameHandle struct {
	Slot           int
	ImageAvailable core1_0.Semaphore
	RenderFinished core1_0.Semaphore
	InUse          core1_0.Fence
}

type frameSlot struct {
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	inUse          core1_0.Fence
}

// FrameSynchronizer hands out in-flight slots round-robin. A slot is only
// handed out again once the GPU signaled its fence.
type FrameSynchronizer struct {
	dev    Device
	slots  [MaxFramesInFlight]frameSlot
	cursor int

	// imageOwner maps an image index to the slot whose submission last
	// rendered into it, or -1.
	imageOwner []int
}

// NewFrameSynchronizer creates the semaphores and fences for every slot.
// Fences start signaled so the first BeginFrame on each slot does not block.
func NewFrameSynchronizer(dev Device) (*FrameSynchronizer, error) {
	fs := &FrameSynchronizer{dev: dev}

	for i := range fs.slots {
		slot := &fs.slots[i]
		var err error

		slot.imageAvailable, err = dev.CreateSemaphore()
		if err != nil {
			fs.Destroy()
			return nil, errors.Wrapf(err, "create image-available semaphore %d", i)
		}

		slot.renderFinished, err = dev.CreateSemaphore()
		if err != nil {
			fs.Destroy()
			return nil, errors.Wrapf(err, "create render-finished semaphore %d", i)
		}

		slot.inUse, err = dev.CreateFence(true)
		if err != nil {
			fs.Destroy()
			return nil, errors.Wrapf(err, "create in-flight fence %d", i)
		}
	}

	return fs, nil
}

// Cursor is the slot the next BeginFrame returns.
func (fs *FrameSynchronizer) Cursor() int { return fs.cursor }

// BeginFrame blocks until the GPU finished the previous use of the cursor
// slot and returns its primitives. The cursor is not advanced.
func (fs *FrameSynchronizer) BeginFrame() (FrameHandle, error) {
	slot := fs.slots[fs.cursor]

	err := fs.dev.WaitForFence(slot.inUse)
	if err != nil {
		return FrameHandle{}, errors.Wrapf(err, "wait for frame slot %d", fs.cursor)
	}

	return FrameHandle{
		Slot:           fs.cursor,
		ImageAvailable: slot.imageAvailable,
		RenderFinished: slot.renderFinished,
		InUse:          slot.inUse,
	}, nil
}

// ClaimImage marks image as rendered by h's slot. If another slot still has
// work in flight on that image, ClaimImage waits for it first. The slot's
// own fence is reset so the upcoming submission can signal it; it must only
// be called once the frame is certain to be submitted.
func (fs *FrameSynchronizer) ClaimImage(h FrameHandle, image int) error {
	if image >= len(fs.imageOwner) {
		owners := make([]int, image+1)
		copy(owners, fs.imageOwner)
		for i := len(fs.imageOwner); i < len(owners); i++ {
			owners[i] = -1
		}
		fs.imageOwner = owners
	}

	owner := fs.imageOwner[image]
	if owner >= 0 && owner != h.Slot {
		err := fs.dev.WaitForFence(fs.slots[owner].inUse)
		if err != nil {
			return errors.Wrapf(err, "wait for image %d held by slot %d", image, owner)
		}
	}
	fs.imageOwner[image] = h.Slot

	err := fs.dev.ResetFence(h.InUse)
	if err != nil {
		return errors.Wrapf(err, "reset fence of slot %d", h.Slot)
	}
	return nil
}

// EndFrame advances the cursor. It is called once per submitted frame.
func (fs *FrameSynchronizer) EndFrame() {
	fs.cursor = (fs.cursor + 1) % MaxFramesInFlight
}

// ForgetImages drops the image ownership table. Image indices of a new
// swapchain generation do not refer to the old images.
func (fs *FrameSynchronizer) ForgetImages() {
	fs.imageOwner = fs.imageOwner[:0]
}

// Destroy releases all primitives. The device must be idle.
func (fs *FrameSynchronizer) Destroy() {
	for i := range fs.slots {
		slot := &fs.slots[i]
		if slot.inUse != nil {
			fs.dev.DestroyFence(slot.inUse)
		}
		if slot.renderFinished != nil {
			fs.dev.DestroySemaphore(slot.renderFinished)
		}
		if slot.imageAvailable != nil {
			fs.dev.DestroySemaphore(slot.imageAvailable)
		}
		*slot = frameSlot{}
	}
}
