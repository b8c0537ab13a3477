package window

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"
)

func newTestWindow() *Window {
	return &Window{log: slog.Default()}
}

func TestHandleResizeEvents(t *testing.T) {
	for _, id := range []uint8{
		sdl.WINDOWEVENT_RESIZED,
		sdl.WINDOWEVENT_SIZE_CHANGED,
		sdl.WINDOWEVENT_MINIMIZED,
		sdl.WINDOWEVENT_RESTORED,
	} {
		w := newTestWindow()
		w.handle(&sdl.WindowEvent{Event: id, Data1: 640, Data2: 480})
		assert.True(t, w.WasResized(), "window event %d", id)
		assert.False(t, w.ShouldClose())

		w.ClearResized()
		assert.False(t, w.WasResized())
	}
}

func TestHandleResizeCoalesces(t *testing.T) {
	w := newTestWindow()
	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 640, Data2: 480})
	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_SIZE_CHANGED, Data1: 640, Data2: 480})
	require.True(t, w.WasResized())

	w.ClearResized()
	require.False(t, w.WasResized())
}

func TestHandleClose(t *testing.T) {
	w := newTestWindow()
	w.handle(&sdl.QuitEvent{Type: sdl.QUIT})
	require.True(t, w.ShouldClose())

	w = newTestWindow()
	w.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE}})
	require.True(t, w.ShouldClose())

	w = newTestWindow()
	w.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Sym: sdl.K_SPACE}})
	require.False(t, w.ShouldClose())

	w = newTestWindow()
	w.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_CLOSE})
	require.True(t, w.ShouldClose())
}

func TestOpenRejectsEmptySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 0

	_, err := Open(cfg)
	require.Error(t, err)
}
