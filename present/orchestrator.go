package present

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// State is the phase of the frame loop.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateSubmitting
	StatePresenting
	StateRecreating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateRecreating:
		return "recreating"
	}
	return "unknown"
}

// Orchestrator drives acquire, record, submit and present for every frame
// and funnels every reason to rebuild the swapchain into one recreation.
type Orchestrator struct {
	dev      Device
	surface  Surface
	recorder Recorder
	log      *slog.Logger

	swapchain *SwapchainManager
	sync      *FrameSynchronizer
	pool      *CommandPool
	stats     *frameStats

	state State
}

// NewOrchestrator creates the swapchain, the frame slots and the command
// buffers. Close releases them.
func NewOrchestrator(dev Device, sc SwapchainDevice, surface Surface, recorder Recorder, cfg Config) (*Orchestrator, error) {
	o := &Orchestrator{
		dev:      dev,
		surface:  surface,
		recorder: recorder,
		log:      cfg.logger(),
		pool:     NewCommandPool(dev),
		stats:    newFrameStats(cfg.StatsInterval),
	}

	var err error
	o.swapchain, err = NewSwapchainManager(dev, sc, surface, cfg)
	if err != nil {
		return nil, err
	}

	o.sync, err = NewFrameSynchronizer(dev)
	if err != nil {
		o.swapchain.Destroy()
		return nil, err
	}

	_, err = o.pool.Reconcile(o.swapchain.Current())
	if err != nil {
		o.Close()
		return nil, err
	}

	err = o.targetChanged()
	if err != nil {
		o.Close()
		return nil, err
	}

	return o, nil
}

// State is the phase the loop ended the last Frame in: StateIdle or
// StateRecreating.
func (o *Orchestrator) State() State { return o.state }

// Swapchain exposes the lifecycle manager.
func (o *Orchestrator) Swapchain() *SwapchainManager { return o.swapchain }

// Sync exposes the frame synchronizer.
func (o *Orchestrator) Sync() *FrameSynchronizer { return o.sync }

// Pool exposes the command buffer pool.
func (o *Orchestrator) Pool() *CommandPool { return o.pool }

// Frame runs one iteration of the loop.
//
// A pending recreation, from a previous frame or a resize notification,
// happens first. An out-of-date swapchain on acquire ends the iteration
// without submitting anything; the next iteration starts by recreating.
func (o *Orchestrator) Frame() error {
	if o.state == StateRecreating || o.surface.WasResized() {
		err := o.recreate()
		if err != nil {
			return err
		}
	}

	o.state = StateAcquiring
	frame, err := o.sync.BeginFrame()
	if err != nil {
		return err
	}

	acq, err := o.swapchain.AcquireNext(frame)
	if err != nil {
		return err
	}
	if acq.Status == AcquireStale {
		o.log.Debug("swapchain out of date on acquire")
		o.state = StateRecreating
		return nil
	}

	o.state = StateRecording
	err = o.sync.ClaimImage(frame, acq.ImageIndex)
	if err != nil {
		return err
	}

	// Already in step with the set after construction and recreation.
	set := o.swapchain.Current()
	if _, err := o.pool.Reconcile(set); err != nil {
		return err
	}
	buf, err := o.pool.Buffer(set.Generation(), acq.ImageIndex)
	if err != nil {
		return err
	}

	err = o.recorder.Record(acq.ImageIndex, buf, set.Target(acq.ImageIndex))
	if err != nil {
		return mark(err, ErrRecordingFailure, "record image %d", acq.ImageIndex)
	}

	o.state = StateSubmitting
	err = o.dev.Submit(buf, frame.ImageAvailable, frame.RenderFinished, frame.InUse)
	if err != nil {
		return mark(err, ErrSubmissionFailure, "submit image %d (slot %d)", acq.ImageIndex, frame.Slot)
	}
	o.sync.EndFrame()

	o.state = StatePresenting
	stale, err := o.swapchain.Present(frame, acq.ImageIndex)
	if err != nil {
		return err
	}
	o.stats.frame(o.log)

	if stale || acq.Status == AcquireSuboptimal || o.surface.WasResized() {
		o.state = StateRecreating
		return nil
	}

	o.state = StateIdle
	return nil
}

// recreate is the only place the swapchain is rebuilt.
func (o *Orchestrator) recreate() error {
	o.state = StateRecreating
	o.surface.ClearResized()

	countChanged, err := o.swapchain.Recreate(o.surface.Extent())
	if err != nil {
		return err
	}
	o.sync.ForgetImages()

	// The device is idle here, so the old buffers are no longer pending.
	_, err = o.pool.Reconcile(o.swapchain.Current())
	if err != nil {
		return err
	}
	if countChanged {
		o.log.Debug("command pool resized", slog.Int("buffers", o.pool.Size()))
	}

	err = o.targetChanged()
	if err != nil {
		return err
	}

	o.state = StateIdle
	return nil
}

func (o *Orchestrator) targetChanged() error {
	observer, ok := o.recorder.(TargetObserver)
	if !ok {
		return nil
	}

	set := o.swapchain.Current()
	err := observer.TargetChanged(set.Target(0))
	if err != nil {
		return mark(err, ErrRecordingFailure, "rebuild state for generation %d", set.Generation())
	}
	return nil
}

// Run renders until the surface asks to close or ctx is done, then waits
// for the device to finish all submitted work. Run does not release
// resources; call Close afterwards.
func (o *Orchestrator) Run(ctx context.Context) error {
	var loopErr error
	for !o.surface.ShouldClose() && ctx.Err() == nil {
		o.surface.PollEvents()

		loopErr = o.Frame()
		if errors.Is(loopErr, ErrClosed) {
			loopErr = nil
			break
		}
		if loopErr != nil {
			break
		}
	}

	err := o.dev.WaitIdle()
	if loopErr != nil {
		return loopErr
	}
	return errors.Wrap(err, "wait for device idle on shutdown")
}

// Close waits for the device and releases everything the orchestrator owns.
func (o *Orchestrator) Close() error {
	err := o.dev.WaitIdle()

	o.pool.Release()
	if o.sync != nil {
		o.sync.Destroy()
	}
	o.swapchain.Destroy()

	return errors.Wrap(err, "wait for device idle on close")
}
