package present

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigLogger(t *testing.T) {
	require.Same(t, slog.Default(), Config{}.logger())

	custom := slog.New(slog.NewTextHandler(nil, nil))
	require.Same(t, custom, Config{Logger: custom}.logger())
}
