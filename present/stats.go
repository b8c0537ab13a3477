package present

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

// frameStats reports the average frame time every interval frames.
type frameStats struct {
	interval int
	frames   int
	total    uint64
	start    time.Duration
}

func newFrameStats(interval int) *frameStats {
	return &frameStats{interval: interval, start: hrtime.Now()}
}

func (s *frameStats) frame(log *slog.Logger) {
	s.total++
	if s.interval <= 0 {
		return
	}

	s.frames++
	if s.frames < s.interval {
		return
	}

	now := hrtime.Now()
	avg := (now - s.start) / time.Duration(s.frames)
	log.Debug("frame time",
		slog.Uint64("frames", s.total),
		slog.Duration("avg", avg),
		slog.Float64("fps", float64(time.Second)/float64(avg)))

	s.frames = 0
	s.start = now
}
