package device

import "log/slog"

// Config selects how the Vulkan instance and device are created.
type Config struct {
	AppName string

	// Validation enables VK_LAYER_KHRONOS_validation and routes its messages
	// to Logger. Instance creation fails if the layer is not installed.
	Validation bool

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		AppName:    "vkpresent",
		Validation: false,
		Logger:     slog.Default(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
