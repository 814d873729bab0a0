package frame

import "time"

// Stats counts presented frames and swapchain rebuilds.
type Stats struct {
	Frames      int
	Recreations int
	FPS         float64

	windowStart  time.Time
	windowFrames int
}

func (s *Stats) reset(now time.Time) {
	*s = Stats{windowStart: now}
}

// frame records a presented frame. It reports a fresh FPS figure once a
// second has passed since the last one.
func (s *Stats) frame(now time.Time) (float64, bool) {
	s.Frames++
	s.windowFrames++
	elapsed := now.Sub(s.windowStart)
	if elapsed < time.Second {
		return 0, false
	}
	s.FPS = float64(s.windowFrames) / elapsed.Seconds()
	s.windowFrames = 0
	s.windowStart = now
	return s.FPS, true
}
