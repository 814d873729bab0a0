// Package frame drives the per-frame render loop and swapchain recreation on
// top of a graphics System.
//
// The loop is single threaded. Event polling, uniform updates and submission
// all run on the caller's goroutine, which must be the OS thread that owns
// the window.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Status reports whether the swapchain still matches the surface.
type Status int

const (
	StatusOK Status = iota
	// StatusSuboptimal means the image was usable but the swapchain should be
	// rebuilt.
	StatusSuboptimal
	// StatusOutOfDate means the swapchain can no longer present to the surface.
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) stale() bool { return s == StatusSuboptimal || s == StatusOutOfDate }

// System is the graphics backend the renderer drives. Slots are in
// [0, FramesInFlight); images are in [0, ImageCount()).
type System interface {
	// Init acquires the device, the swapchain and everything built on it.
	Init(width, height int) error
	ImageCount() int
	// Acquire waits until slot is free and returns the next presentable image.
	// The slot's image-available signal fires when the image is ready.
	Acquire(slot int) (uint32, Status, error)
	Update(image uint32, elapsed time.Duration) error
	// Submit runs the commands recorded for image, waiting on the slot's
	// image-available signal and raising its render-finished signal.
	Submit(slot int, image uint32) error
	// Present queues image for display once the slot's render-finished
	// signal fires.
	Present(slot int, image uint32) (Status, error)
	// Recreate rebuilds every swapchain-dependent resource at the new size.
	Recreate(width, height int) error
	WaitIdle()
	// Destroy releases everything Init acquired, newest first.
	Destroy()
}

// Window is the part of the OS window the loop needs.
type Window interface {
	ShouldClose() bool
	PollEvents()
	// WaitEvents blocks until at least one event arrives.
	WaitEvents()
}

type State int

const (
	Uninitialized State = iota
	Initialized
	Rendering
	Recreating
	ShuttingDown
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Rendering:
		return "rendering"
	case Recreating:
		return "recreating"
	case ShuttingDown:
		return "shutting down"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNotInitialized = errors.New("frame: renderer not initialized")
	ErrClosed         = errors.New("frame: renderer closed")
)

// Renderer owns the frame lifecycle: Uninitialized → Initialized →
// Rendering ⇄ Recreating → ShuttingDown → Closed.
type Renderer struct {
	sys            System
	logger         *log.Logger
	framesInFlight int
	now            func() time.Time

	state         State
	width, height int
	minimized     bool
	resized       bool
	slot          int
	start         time.Time
	stats         Stats
}

type Option func(*Renderer)

// WithClock replaces time.Now for uniform updates and frame statistics.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

func NewRenderer(sys System, width, height, framesInFlight int, opts ...Option) *Renderer {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	r := &Renderer{
		sys:            sys,
		logger:         log.Default(),
		framesInFlight: framesInFlight,
		now:            time.Now,
		width:          width,
		height:         height,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) State() State { return r.state }

func (r *Renderer) Stats() Stats { return r.stats }

// Init brings up the graphics system. Failure leaves the renderer
// uninitialized; the caller is expected to treat it as fatal.
func (r *Renderer) Init() error {
	switch r.state {
	case Uninitialized:
	case ShuttingDown, Closed:
		return ErrClosed
	default:
		return nil
	}
	if err := r.sys.Init(r.width, r.height); err != nil {
		return fmt.Errorf("init graphics: %w", err)
	}
	r.state = Initialized
	r.start = r.now()
	r.stats.reset(r.start)
	r.logger.Info("graphics initialized", "width", r.width, "height", r.height, "images", r.sys.ImageCount())
	return nil
}

// Resize records a new framebuffer size. A zero dimension means the window is
// minimized: nothing is rebuilt and frames are skipped until a non-zero size
// arrives.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		r.minimized = true
		return
	}
	r.minimized = false
	r.width, r.height = width, height
	r.resized = true
}

// DrawFrame renders one frame: acquire, update, submit, present. Stale
// swapchains are rebuilt in place; any other failure is returned.
func (r *Renderer) DrawFrame() error {
	switch r.state {
	case Uninitialized:
		return ErrNotInitialized
	case ShuttingDown, Closed:
		return ErrClosed
	}
	if r.minimized {
		return nil
	}
	r.state = Rendering

	if r.resized {
		if err := r.recreate(); err != nil {
			return err
		}
	}

	slot := r.slot
	image, status, err := r.sys.Acquire(slot)
	if err != nil {
		return fmt.Errorf("acquire image: %w", err)
	}
	if status == StatusOutOfDate {
		return r.recreate()
	}

	now := r.now()
	if err := r.sys.Update(image, now.Sub(r.start)); err != nil {
		return fmt.Errorf("update uniforms: %w", err)
	}
	if err := r.sys.Submit(slot, image); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	status, err = r.sys.Present(slot, image)
	if err != nil {
		return fmt.Errorf("present image: %w", err)
	}

	r.slot = (r.slot + 1) % r.framesInFlight
	if fps, ok := r.stats.frame(now); ok {
		r.logger.Debug("frame rate", "fps", fmt.Sprintf("%.1f", fps), "frames", r.stats.Frames)
	}

	if status.stale() || r.resized {
		return r.recreate()
	}
	return nil
}

func (r *Renderer) recreate() error {
	r.state = Recreating
	r.sys.WaitIdle()
	if err := r.sys.Recreate(r.width, r.height); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	r.resized = false
	r.stats.Recreations++
	r.state = Rendering
	r.logger.Debug("swapchain recreated", "width", r.width, "height", r.height, "images", r.sys.ImageCount())
	return nil
}

// Shutdown waits for in-flight work and releases the graphics system. It is
// safe to call more than once.
func (r *Renderer) Shutdown() {
	if r.state == Closed {
		return
	}
	if r.state == Uninitialized {
		r.state = Closed
		return
	}
	r.state = ShuttingDown
	r.sys.WaitIdle()
	r.sys.Destroy()
	r.state = Closed
	r.logger.Info("renderer shut down", "frames", r.stats.Frames, "recreations", r.stats.Recreations)
}

// Run draws frames until the window asks to close, then shuts down. While
// minimized it blocks on window events rather than polling.
func (r *Renderer) Run(w Window) error {
	if r.state == Uninitialized {
		if err := r.Init(); err != nil {
			return err
		}
	}
	defer r.Shutdown()

	for !w.ShouldClose() {
		// Nothing is drawn while minimized; block until the next event.
		if r.minimized {
			w.WaitEvents()
			continue
		}
		w.PollEvents()
		if err := r.DrawFrame(); err != nil {
			return err
		}
	}
	return nil
}
