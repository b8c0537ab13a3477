package present

import "log/slog"

// MaxFramesInFlight is the number of frames whose GPU work may be
// outstanding at once.
const MaxFramesInFlight = 2

// Config tunes the presentation loop.
type Config struct {
	// ImageCount is the preferred number of swapchain images. Zero means
	// one more than the surface minimum. The value is always clamped into
	// the range the surface supports.
	ImageCount int

	// VSync selects FIFO presentation. Otherwise mailbox is used when the
	// surface offers it.
	VSync bool

	// StatsInterval is the number of frames between frame-time reports.
	// Zero disables them.
	StatsInterval int

	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the vkpresent command.
func DefaultConfig() Config {
	return Config{
		StatsInterval: 600,
		Logger:        slog.Default(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
