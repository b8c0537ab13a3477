package present

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// CommandPool holds one primary command buffer per swapchain image of a
// single generation.
type CommandPool struct {
	dev        Device
	generation Generation
	buffers    []core1_0.CommandBuffer
}

func NewCommandPool(dev Device) *CommandPool {
	return &CommandPool{dev: dev}
}

// Size is the number of allocated buffers.
func (p *CommandPool) Size() int { return len(p.buffers) }

// Generation is the image-set generation the buffers were allocated for.
func (p *CommandPool) Generation() Generation { return p.generation }

// Reconcile makes the pool match set. Buffers from an older generation are
// freed and exactly set.ImageCount() new ones are allocated, so no buffer
// recorded against destroyed framebuffers is ever handed out again.
// It reports whether anything was reallocated.
func (p *CommandPool) Reconcile(set *ImageSet) (bool, error) {
	if p.buffers != nil && p.generation == set.Generation() && len(p.buffers) == set.ImageCount() {
		return false, nil
	}

	p.Release()

	buffers, err := p.dev.AllocateCommandBuffers(set.ImageCount())
	if err != nil {
		return true, errors.Wrapf(err, "allocate %d command buffers", set.ImageCount())
	}
	if len(buffers) != set.ImageCount() {
		p.dev.FreeCommandBuffers(buffers)
		return true, errors.Newf("allocated %d command buffers, want %d", len(buffers), set.ImageCount())
	}

	p.buffers = buffers
	p.generation = set.Generation()
	return true, nil
}

// Buffer returns the buffer for image index of generation gen. Asking for a
// generation the pool was not reconciled with is an error.
func (p *CommandPool) Buffer(gen Generation, index int) (core1_0.CommandBuffer, error) {
	if p.buffers == nil || gen != p.generation {
		return nil, errors.AssertionFailedf("command pool holds generation %d, asked for %d", p.generation, gen)
	}
	if index < 0 || index >= len(p.buffers) {
		return nil, errors.AssertionFailedf("image index %d out of range [0,%d)", index, len(p.buffers))
	}
	return p.buffers[index], nil
}

// Release frees all buffers. The device must be idle or the buffers must
// not be pending execution.
func (p *CommandPool) Release() {
	if len(p.buffers) > 0 {
		p.dev.FreeCommandBuffers(p.buffers)
	}
	p.buffers = nil
}
