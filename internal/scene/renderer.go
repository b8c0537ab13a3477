// Package scene records the demo's draw commands: a vertex buffer drawn four
// times per frame with animated push constants.
package scene

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/present"
)

var clearColor = core1_0.ClearValueFloat{0.1, 0.1, 0.1, 1}

// Renderer implements present.Recorder and present.TargetObserver.
type Renderer struct {
	cfg    Config
	log    *slog.Logger
	device core1_0.Device

	vertexBuffer device.Buffer
	vertexCount  int

	pipelineLayout core1_0.PipelineLayout
	pipeline       core1_0.Pipeline
	renderPass     core1_0.RenderPass

	frame int
}

var _ present.Recorder = (*Renderer)(nil)
var _ present.TargetObserver = (*Renderer)(nil)

// New uploads the vertices cfg selects and creates the pipeline layout. The
// pipeline itself is built on the first TargetChanged.
func New(ctx *device.Context, cfg Config) (*Renderer, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	properties, err := ctx.PhysicalDevice().Properties()
	if err != nil {
		return nil, errors.Wrap(err, "read device properties")
	}
	if limit := properties.Limits.MaxPushConstantsSize; limit < pushConstantsSize {
		return nil, errors.Newf("device allows %d bytes of push constants, need %d", limit, pushConstantsSize)
	}

	vertices, err := Vertices(cfg)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		cfg:         cfg,
		log:         log,
		device:      ctx.Device(),
		vertexCount: len(vertices),
	}

	r.vertexBuffer, err = ctx.UploadBuffer(core1_0.BufferUsageVertexBuffer, vertices)
	if err != nil {
		return nil, errors.Wrap(err, "upload vertices")
	}

	r.pipelineLayout, err = createPipelineLayout(r.device)
	if err != nil {
		r.Destroy()
		return nil, err
	}

	log.Info("scene loaded", slog.Int("vertices", r.vertexCount))
	return r, nil
}

// TargetChanged rebuilds the pipeline when the render pass changed. A new
// extent alone is handled by the dynamic viewport.
func (r *Renderer) TargetChanged(target present.RenderTarget) error {
	if r.pipeline != nil && target.RenderPass == r.renderPass {
		return nil
	}

	pipeline, err := createGraphicsPipeline(r.device, r.cfg, r.pipelineLayout, target.RenderPass)
	if err != nil {
		return err
	}

	if r.pipeline != nil {
		r.pipeline.Destroy(nil)
	}
	r.pipeline = pipeline
	r.renderPass = target.RenderPass

	r.log.Debug("graphics pipeline built",
		slog.Uint64("generation", uint64(target.Generation)),
		slog.Int("format", int(target.Format)))
	return nil
}

// Record draws the scene into target, then advances the animation.
func (r *Renderer) Record(imageIndex int, buffer core1_0.CommandBuffer, target present.RenderTarget) error {
	if r.pipeline == nil {
		return errors.New("no graphics pipeline")
	}

	_, err := buffer.Begin(core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err = buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  target.RenderPass,
			Framebuffer: target.Framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: target.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				clearColor,
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	buffer.CmdSetViewport([]core1_0.Viewport{
		{
			X:        0,
			Y:        0,
			Width:    float32(target.Extent.Width),
			Height:   float32(target.Extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	})
	buffer.CmdSetScissor([]core1_0.Rect2D{
		{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: target.Extent,
		},
	})

	buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, r.pipeline)
	buffer.CmdBindVertexBuffers(0, []core1_0.Buffer{r.vertexBuffer.Buffer}, []int{0})

	for i := 0; i < drawsPerFrame; i++ {
		push, err := pushConstantsFor(r.frame, i).Bytes()
		if err != nil {
			return err
		}
		buffer.CmdPushConstants(r.pipelineLayout, pushStages, 0, push)
		buffer.CmdDraw(r.vertexCount, 1, 0, 0)
	}

	buffer.CmdEndRenderPass()

	_, err = buffer.End()
	if err != nil {
		return errors.Wrapf(err, "end command buffer for image %d", imageIndex)
	}

	r.frame = (r.frame + 1) % framePeriod
	return nil
}

// Destroy releases the pipeline and vertex buffer. The device must be idle.
func (r *Renderer) Destroy() {
	if r.pipeline != nil {
		r.pipeline.Destroy(nil)
		r.pipeline = nil
	}
	if r.pipelineLayout != nil {
		r.pipelineLayout.Destroy(nil)
		r.pipelineLayout = nil
	}
	r.vertexBuffer.Destroy()
}
