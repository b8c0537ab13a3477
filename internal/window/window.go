// Package window opens the SDL2 window frames are presented to and turns its
// events into the resize and close notifications the frame loop consumes.
package window

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/core1_0"
)

// waitTimeout bounds WaitEvents in milliseconds so a closing window is
// noticed even if no further event arrives.
const waitTimeout = 100

type Config struct {
	Title  string
	Width  int
	Height int

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Title:  "vkpresent",
		Width:  800,
		Height: 600,
		Logger: slog.Default(),
	}
}

// Window is an SDL2 Vulkan window. It implements present.Surface.
type Window struct {
	window *sdl.Window
	log    *slog.Logger

	resized bool
	closed  bool
}

// Open initializes SDL video and creates a resizable Vulkan window.
func Open(cfg Config) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Newf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrapf(err, "create %dx%d window", cfg.Width, cfg.Height)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Window{window: window, log: log}, nil
}

// SDL is the underlying window, for surface and instance creation.
func (w *Window) SDL() *sdl.Window { return w.window }

func (w *Window) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}

// Extent is the drawable size in pixels, zero while minimized.
func (w *Window) Extent() core1_0.Extent2D {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return core1_0.Extent2D{}
	}

	width, height := w.window.VulkanGetDrawableSize()
	return core1_0.Extent2D{Width: int(width), Height: int(height)}
}

func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handle(event)
	}
}

func (w *Window) WaitEvents() {
	event := sdl.WaitEventTimeout(waitTimeout)
	if event != nil {
		w.handle(event)
	}
	w.PollEvents()
}

func (w *Window) WasResized() bool  { return w.resized }
func (w *Window) ClearResized()     { w.resized = false }
func (w *Window) ShouldClose() bool { return w.closed }

func (w *Window) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			w.closed = true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED,
			sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED:
			if !w.resized {
				w.log.Debug("window resized", slog.Int("width", int(e.Data1)), slog.Int("height", int(e.Data2)))
			}
			w.resized = true
		case sdl.WINDOWEVENT_CLOSE:
			w.closed = true
		}
	}
}
