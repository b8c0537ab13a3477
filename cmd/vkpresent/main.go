// Command vkpresent opens a window and presents an animated scene through a
// Vulkan swapchain that is rebuilt whenever the window changes size.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/internal/scene"
	"github.com/vkngwrapper/vulkan-presenter/internal/window"
	"github.com/vkngwrapper/vulkan-presenter/present"
)

func init() {
	// SDL event handling must stay on the main thread.
	runtime.LockOSThread()
}

type options struct {
	window  window.Config
	device  device.Config
	scene   scene.Config
	present present.Config
}

func parseFlags(args []string) (options, error) {
	opts := options{
		window:  window.DefaultConfig(),
		device:  device.DefaultConfig(),
		scene:   scene.DefaultConfig(),
		present: present.DefaultConfig(),
	}

	fs := flag.NewFlagSet("vkpresent", flag.ContinueOnError)
	fs.IntVar(&opts.window.Width, "width", opts.window.Width, "initial window width")
	fs.IntVar(&opts.window.Height, "height", opts.window.Height, "initial window height")
	fs.BoolVar(&opts.present.VSync, "vsync", opts.present.VSync, "use FIFO presentation")
	fs.IntVar(&opts.present.ImageCount, "images", opts.present.ImageCount, "preferred swapchain image count, 0 for min+1")
	fs.IntVar(&opts.present.StatsInterval, "stats", opts.present.StatsInterval, "frames between frame-time reports, 0 to disable")
	fs.BoolVar(&opts.device.Validation, "validation", opts.device.Validation, "enable the Khronos validation layer")
	fs.StringVar(&opts.scene.VertexShader, "vert", opts.scene.VertexShader, "SPIR-V vertex shader")
	fs.StringVar(&opts.scene.FragmentShader, "frag", opts.scene.FragmentShader, "SPIR-V fragment shader")
	fs.StringVar(&opts.scene.Model, "model", opts.scene.Model, "OBJ model to draw instead of the triangle")
	fs.IntVar(&opts.scene.Sierpinski, "sierpinski", opts.scene.Sierpinski, "subdivide the triangle to this depth")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return options{}, errors.Wrapf(err, "log level %q", *logLevel)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	opts.window.Logger = logger.With(slog.String("component", "window"))
	opts.device.Logger = logger.With(slog.String("component", "device"))
	opts.scene.Logger = logger.With(slog.String("component", "scene"))
	opts.present.Logger = logger.With(slog.String("component", "present"))

	return opts, nil
}

func run(ctx context.Context, opts options) (err error) {
	win, err := window.Open(opts.window)
	if err != nil {
		return err
	}
	defer win.Close()

	vk, err := device.New(win.SDL(), opts.device)
	if err != nil {
		return err
	}
	defer vk.Destroy()

	renderer, err := scene.New(vk, opts.scene)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	orchestrator, err := present.NewOrchestrator(vk, vk, win, renderer, opts.present)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := orchestrator.Close()
		if err == nil {
			err = closeErr
		}
	}()

	return orchestrator.Run(ctx)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, opts)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
