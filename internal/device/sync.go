package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

func (c *Context) WaitIdle() error {
	_, err := c.device.WaitIdle()
	return errors.Wrap(err, "device wait idle")
}

func (c *Context) CreateSemaphore() (core1_0.Semaphore, error) {
	semaphore, _, err := c.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return semaphore, nil
}

func (c *Context) DestroySemaphore(semaphore core1_0.Semaphore) {
	semaphore.Destroy(nil)
}

func (c *Context) CreateFence(signaled bool) (core1_0.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	fence, _, err := c.device.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return fence, nil
}

func (c *Context) DestroyFence(fence core1_0.Fence) {
	fence.Destroy(nil)
}

func (c *Context) WaitForFence(fence core1_0.Fence) error {
	_, err := c.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{fence})
	return errors.Wrap(err, "wait for fence")
}

func (c *Context) ResetFence(fence core1_0.Fence) error {
	_, err := c.device.ResetFences([]core1_0.Fence{fence})
	return errors.Wrap(err, "reset fence")
}

func (c *Context) AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	buffers, _, err := c.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        c.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d command buffers", count)
	}
	return buffers, nil
}

func (c *Context) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	c.device.FreeCommandBuffers(buffers)
}

func (c *Context) Submit(buffer core1_0.CommandBuffer, wait, signal core1_0.Semaphore, fence core1_0.Fence) error {
	_, err := c.graphicsQueue.Submit(fence, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{wait},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{buffer},
			SignalSemaphores: []core1_0.Semaphore{signal},
		},
	})
	return errors.Wrap(err, "queue submit")
}
