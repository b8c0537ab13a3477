package device

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
)

// Buffer is a device buffer bound to its own allocation.
type Buffer struct {
	Buffer core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int
}

func (b *Buffer) Destroy() {
	if b.Buffer != nil {
		b.Buffer.Destroy(nil)
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Free(nil)
		b.Memory = nil
	}
}

// UploadBuffer copies data into a new device-local buffer with the given
// usage, going through a host-visible staging buffer. data is encoded with
// encoding/binary in the device byte order.
func (c *Context) UploadBuffer(usage core1_0.BufferUsageFlags, data any) (Buffer, error) {
	bufferSize := binary.Size(data)
	if bufferSize <= 0 {
		return Buffer{}, errors.Newf("cannot upload %T: no fixed binary size", data)
	}

	staging, err := c.createBuffer(bufferSize, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer staging.Destroy()
	if err != nil {
		return Buffer{}, errors.Wrap(err, "create staging buffer")
	}

	err = writeData(staging.Memory, 0, data)
	if err != nil {
		return Buffer{}, err
	}

	buffer, err := c.createBuffer(bufferSize, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		buffer.Destroy()
		return Buffer{}, errors.Wrap(err, "create device buffer")
	}

	err = c.copyBuffer(staging.Buffer, buffer.Buffer, bufferSize)
	if err != nil {
		buffer.Destroy()
		return Buffer{}, err
	}

	return buffer, nil
}

func writeData(memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)

	memoryPtr, _, err := memory.Map(offset, bufferSize, 0)
	if err != nil {
		return errors.Wrap(err, "map memory")
	}
	defer memory.Unmap()

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)

	buf := &bytes.Buffer{}
	err = binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrapf(err, "encode %T", data)
	}

	copy(dataBuffer, buf.Bytes())
	return nil
}

func (c *Context) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (Buffer, error) {
	result := Buffer{Size: size}

	var err error
	result.Buffer, _, err = c.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return result, err
	}

	memRequirements := result.Buffer.MemoryRequirements()
	memoryTypeIndex, err := findMemoryType(c.physicalDevice.MemoryProperties().MemoryTypes, memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return result, err
	}

	result.Memory, _, err = c.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return result, err
	}

	_, err = result.Buffer.BindBufferMemory(result.Memory, 0)
	return result, err
}

func (c *Context) createImage(width, height int, format core1_0.Format, tiling core1_0.ImageTiling, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := c.device.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, nil, err
	}

	memReqs := image.MemoryRequirements()
	memoryIndex, err := findMemoryType(c.physicalDevice.MemoryProperties().MemoryTypes, memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		image.Destroy(nil)
		return nil, nil, err
	}

	imageMemory, _, err := c.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		image.Destroy(nil)
		return nil, nil, err
	}

	_, err = image.BindImageMemory(imageMemory, 0)
	if err != nil {
		image.Destroy(nil)
		imageMemory.Free(nil)
		return nil, nil, err
	}

	return image, imageMemory, nil
}

func findMemoryType(memoryTypes []core1_0.MemoryType, typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range memoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type in %032b with properties %s", typeFilter, properties)
}

func (c *Context) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := c.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        c.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, err
	}

	buffer := buffers[0]
	_, err = buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		c.device.FreeCommandBuffers(buffers)
		return nil, err
	}
	return buffer, nil
}

func (c *Context) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer c.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})

	_, err := buffer.End()
	if err != nil {
		return err
	}

	_, err = c.graphicsQueue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{buffer},
		},
	})
	if err != nil {
		return err
	}

	_, err = c.graphicsQueue.WaitIdle()
	return err
}

func (c *Context) copyBuffer(srcBuffer core1_0.Buffer, dstBuffer core1_0.Buffer, size int) error {
	buffer, err := c.beginSingleTimeCommands()
	if err != nil {
		return errors.Wrap(err, "begin copy")
	}

	err = buffer.CmdCopyBuffer(srcBuffer, dstBuffer, []core1_0.BufferCopy{
		{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		},
	})
	if err != nil {
		c.device.FreeCommandBuffers([]core1_0.CommandBuffer{buffer})
		return errors.Wrap(err, "record copy")
	}

	return errors.Wrapf(c.endSingleTimeCommands(buffer), "copy %d bytes", size)
}
