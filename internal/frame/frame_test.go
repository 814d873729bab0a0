package frame

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// fakeSystem models a swapchain with a fixed number of images per size and
// checks the synchronisation rules a real GPU would enforce.
type fakeSystem struct {
	images int

	width, height int
	framebuffers  int
	live          int // swapchain-dependent objects not yet destroyed
	inFlight      map[int]bool
	acquired      map[int]bool
	next          uint32

	acquireStatus []Status
	presentStatus []Status
	failRecreate  error

	calls      []string
	recreates  int
	presents   int
	destroyed  bool
	violations []string
}

func newFakeSystem(images int) *fakeSystem {
	return &fakeSystem{
		images:   images,
		inFlight: map[int]bool{},
		acquired: map[int]bool{},
	}
}

func (f *fakeSystem) build(width, height int) {
	f.width, f.height = width, height
	f.framebuffers = f.images
	f.live += f.images
}

func (f *fakeSystem) Init(width, height int) error {
	f.calls = append(f.calls, "init")
	f.build(width, height)
	return nil
}

func (f *fakeSystem) ImageCount() int { return f.images }

func (f *fakeSystem) Acquire(slot int) (uint32, Status, error) {
	f.calls = append(f.calls, "acquire")
	// Waiting on the slot fence retires its previous submission.
	delete(f.inFlight, slot)
	status := StatusOK
	if len(f.acquireStatus) > 0 {
		status, f.acquireStatus = f.acquireStatus[0], f.acquireStatus[1:]
	}
	if status == StatusOutOfDate {
		return 0, status, nil
	}
	f.acquired[slot] = true
	image := f.next
	f.next = (f.next + 1) % uint32(f.images)
	return image, status, nil
}

func (f *fakeSystem) Update(image uint32, elapsed time.Duration) error {
	f.calls = append(f.calls, "update")
	if int(image) >= f.framebuffers {
		f.violations = append(f.violations, fmt.Sprintf("update for image %d without framebuffer", image))
	}
	return nil
}

func (f *fakeSystem) Submit(slot int, image uint32) error {
	f.calls = append(f.calls, "submit")
	if !f.acquired[slot] {
		f.violations = append(f.violations, fmt.Sprintf("submit on slot %d without acquire", slot))
	}
	if f.inFlight[slot] {
		f.violations = append(f.violations, fmt.Sprintf("signal pair %d reused while in flight", slot))
	}
	f.inFlight[slot] = true
	delete(f.acquired, slot)
	return nil
}

func (f *fakeSystem) Present(slot int, image uint32) (Status, error) {
	f.calls = append(f.calls, "present")
	f.presents++
	status := StatusOK
	if len(f.presentStatus) > 0 {
		status, f.presentStatus = f.presentStatus[0], f.presentStatus[1:]
	}
	return status, nil
}

func (f *fakeSystem) Recreate(width, height int) error {
	f.calls = append(f.calls, "recreate")
	if f.failRecreate != nil {
		return f.failRecreate
	}
	if len(f.inFlight) > 0 {
		f.violations = append(f.violations, "recreate with work in flight")
	}
	f.live -= f.framebuffers
	f.recreates++
	f.build(width, height)
	return nil
}

func (f *fakeSystem) WaitIdle() {
	f.calls = append(f.calls, "wait")
	f.inFlight = map[int]bool{}
}

func (f *fakeSystem) Destroy() {
	f.calls = append(f.calls, "destroy")
	f.live -= f.framebuffers
	f.framebuffers = 0
	f.destroyed = true
}

// fakeWindow closes after closeAt events, counting polls and waits
// together. onEvent sees the running total.
type fakeWindow struct {
	polls   int
	waits   int
	closeAt int
	onEvent func(n int)
}

func (w *fakeWindow) ShouldClose() bool { return w.polls+w.waits >= w.closeAt }

func (w *fakeWindow) PollEvents() {
	w.polls++
	w.event()
}

func (w *fakeWindow) WaitEvents() {
	w.waits++
	w.event()
}

func (w *fakeWindow) event() {
	if w.onEvent != nil {
		w.onEvent(w.polls + w.waits)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(16 * time.Millisecond)
	return c.t
}

func newTestRenderer(sys System, w, h, frames int) *Renderer {
	clock := &fakeClock{t: time.Unix(0, 0)}
	return NewRenderer(sys, w, h, frames, WithClock(clock.now), WithLogger(log.New(io.Discard)))
}

func TestLifecycleStates(t *testing.T) {
	sys := newFakeSystem(3)
	r := newTestRenderer(sys, 800, 600, 2)

	if r.State() != Uninitialized {
		t.Fatalf("initial state = %v", r.State())
	}
	if err := r.DrawFrame(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("DrawFrame before Init error = %v, want ErrNotInitialized", err)
	}
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	if r.State() != Initialized {
		t.Errorf("after Init state = %v, want initialized", r.State())
	}
	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	if r.State() != Rendering {
		t.Errorf("after DrawFrame state = %v, want rendering", r.State())
	}

	r.Shutdown()
	if r.State() != Closed {
		t.Errorf("after Shutdown state = %v, want closed", r.State())
	}
	if err := r.DrawFrame(); !errors.Is(err, ErrClosed) {
		t.Errorf("DrawFrame after Shutdown error = %v, want ErrClosed", err)
	}
	r.Shutdown()
	if n := countCalls(sys.calls, "destroy"); n != 1 {
		t.Errorf("Destroy called %d times, want 1", n)
	}
}

func TestFrameOrder(t *testing.T) {
	sys := newFakeSystem(3)
	r := newTestRenderer(sys, 800, 600, 2)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	sys.calls = nil

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	want := []string{"acquire", "update", "submit", "present"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Errorf("calls = %v, want %v", sys.calls, want)
	}
}

func TestShutdownWaitsBeforeDestroy(t *testing.T) {
	sys := newFakeSystem(2)
	r := newTestRenderer(sys, 800, 600, 2)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	sys.calls = nil

	r.Shutdown()

	want := []string{"wait", "destroy"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Errorf("calls = %v, want %v", sys.calls, want)
	}
}

func TestShutdownBeforeInit(t *testing.T) {
	sys := newFakeSystem(2)
	r := newTestRenderer(sys, 800, 600, 2)

	r.Shutdown()

	if len(sys.calls) != 0 {
		t.Errorf("Shutdown of uninitialized renderer touched the system: %v", sys.calls)
	}
	if err := r.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("Init after Shutdown error = %v, want ErrClosed", err)
	}
}

func TestZeroSizeResizeIgnored(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 600},
		{"zero height", 800, 0},
		{"both zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newFakeSystem(3)
			r := newTestRenderer(sys, 800, 600, 2)
			if err := r.Init(); err != nil {
				t.Fatal(err)
			}
			sys.calls = nil

			r.Resize(tt.w, tt.h)
			for i := 0; i < 3; i++ {
				if err := r.DrawFrame(); err != nil {
					t.Fatal(err)
				}
			}
			if len(sys.calls) != 0 {
				t.Errorf("minimized window still drove the system: %v", sys.calls)
			}

			r.Resize(400, 300)
			if err := r.DrawFrame(); err != nil {
				t.Fatal(err)
			}
			if sys.recreates != 1 {
				t.Errorf("recreates = %d, want 1 after non-zero resize", sys.recreates)
			}
			if sys.width != 400 || sys.height != 300 {
				t.Errorf("recreated at %dx%d, want 400x300", sys.width, sys.height)
			}
		})
	}
}

func TestStaleSwapchainRecreates(t *testing.T) {
	tests := []struct {
		name          string
		acquire       []Status
		present       []Status
		wantPresents  int
		wantRecreates int
	}{
		{"acquire out of date", []Status{StatusOutOfDate}, nil, 0, 1},
		{"acquire suboptimal still presents", []Status{StatusSuboptimal}, nil, 1, 0},
		{"present out of date", nil, []Status{StatusOutOfDate}, 1, 1},
		{"present suboptimal", nil, []Status{StatusSuboptimal}, 1, 1},
		{"healthy", nil, nil, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newFakeSystem(3)
			sys.acquireStatus = tt.acquire
			sys.presentStatus = tt.present
			r := newTestRenderer(sys, 800, 600, 2)
			if err := r.Init(); err != nil {
				t.Fatal(err)
			}

			if err := r.DrawFrame(); err != nil {
				t.Fatal(err)
			}
			if sys.presents != tt.wantPresents {
				t.Errorf("presents = %d, want %d", sys.presents, tt.wantPresents)
			}
			if sys.recreates != tt.wantRecreates {
				t.Errorf("recreates = %d, want %d", sys.recreates, tt.wantRecreates)
			}
			if r.State() != Rendering {
				t.Errorf("state = %v, want rendering", r.State())
			}
		})
	}
}

func TestRecreateWaitsForIdle(t *testing.T) {
	sys := newFakeSystem(3)
	r := newTestRenderer(sys, 800, 600, 2)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	r.Resize(640, 480)
	sys.calls = nil

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	if len(sys.calls) < 2 || sys.calls[0] != "wait" || sys.calls[1] != "recreate" {
		t.Errorf("calls = %v, want wait then recreate first", sys.calls)
	}
}

func TestRecreateFailureIsFatal(t *testing.T) {
	sys := newFakeSystem(3)
	sys.failRecreate = errors.New("device lost")
	r := newTestRenderer(sys, 800, 600, 2)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	r.Resize(400, 300)

	err := r.DrawFrame()
	if !errors.Is(err, sys.failRecreate) {
		t.Errorf("DrawFrame error = %v, want wrapped device lost", err)
	}
}

func TestSignalPairsNeverOverlap(t *testing.T) {
	for _, frames := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("%d in flight", frames), func(t *testing.T) {
			sys := newFakeSystem(3)
			r := newTestRenderer(sys, 800, 600, frames)
			if err := r.Init(); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 20; i++ {
				if err := r.DrawFrame(); err != nil {
					t.Fatal(err)
				}
				if len(sys.inFlight) > frames {
					t.Fatalf("frame %d: %d submissions in flight, limit %d", i, len(sys.inFlight), frames)
				}
			}
			if len(sys.violations) > 0 {
				t.Errorf("violations: %v", sys.violations)
			}
		})
	}
}

func TestOneFramebufferPerImage(t *testing.T) {
	sizes := [][2]int{{1, 1}, {400, 300}, {800, 600}, {1920, 1080}}
	for _, images := range []int{2, 3, 4} {
		sys := newFakeSystem(images)
		r := newTestRenderer(sys, 800, 600, 2)
		if err := r.Init(); err != nil {
			t.Fatal(err)
		}
		for _, size := range sizes {
			r.Resize(size[0], size[1])
			if err := r.DrawFrame(); err != nil {
				t.Fatal(err)
			}
			if sys.framebuffers != sys.ImageCount() {
				t.Errorf("%d images at %dx%d: %d framebuffers", images, size[0], size[1], sys.framebuffers)
			}
		}
	}
}

func TestRunResizeScenario(t *testing.T) {
	sys := newFakeSystem(3)
	r := newTestRenderer(sys, 800, 600, 2)
	win := &fakeWindow{closeAt: 10}
	win.onEvent = func(n int) {
		if n == 5 {
			r.Resize(400, 300)
		}
	}

	if err := r.Run(win); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sys.presents != 10 {
		t.Errorf("presents = %d, want 10", sys.presents)
	}
	if sys.recreates != 1 {
		t.Errorf("recreates = %d, want 1", sys.recreates)
	}
	if sys.width != 400 || sys.height != 300 {
		t.Errorf("final size %dx%d, want 400x300", sys.width, sys.height)
	}
	if !sys.destroyed || r.State() != Closed {
		t.Errorf("Run did not shut down: destroyed=%v state=%v", sys.destroyed, r.State())
	}
	if sys.live != 0 {
		t.Errorf("%d swapchain objects leaked", sys.live)
	}
	if len(sys.violations) > 0 {
		t.Errorf("violations: %v", sys.violations)
	}
	if st := r.Stats(); st.Frames != 10 || st.Recreations != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestRunMinimizedWaitsForEvents(t *testing.T) {
	tests := []struct {
		name                      string
		restoreAt                 int
		wantWaits, wantPolls      int
		wantPresents, wantRebuild int
	}{
		{"stays minimized", 0, 6, 0, 0, 0},
		{"restored after three events", 3, 3, 3, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newFakeSystem(3)
			r := newTestRenderer(sys, 800, 600, 2)
			r.Resize(0, 0)
			win := &fakeWindow{closeAt: 6}
			win.onEvent = func(n int) {
				if n == tt.restoreAt {
					r.Resize(400, 300)
				}
			}

			if err := r.Run(win); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if win.waits != tt.wantWaits || win.polls != tt.wantPolls {
				t.Errorf("waits=%d polls=%d, want %d and %d", win.waits, win.polls, tt.wantWaits, tt.wantPolls)
			}
			if sys.presents != tt.wantPresents {
				t.Errorf("presents = %d, want %d", sys.presents, tt.wantPresents)
			}
			if sys.recreates != tt.wantRebuild {
				t.Errorf("recreates = %d, want %d", sys.recreates, tt.wantRebuild)
			}
			if !sys.destroyed {
				t.Error("Run did not shut down")
			}
		})
	}
}

type failingInit struct{ *fakeSystem }

func (failingInit) Init(int, int) error { return errors.New("no suitable GPU found") }

func TestRunInitFailure(t *testing.T) {
	sys := failingInit{newFakeSystem(3)}
	r := newTestRenderer(sys, 800, 600, 2)

	err := r.Run(&fakeWindow{closeAt: 1})
	if err == nil {
		t.Fatal("Run() should fail when Init fails")
	}
	if r.State() != Uninitialized {
		t.Errorf("state = %v, want uninitialized", r.State())
	}
	if sys.destroyed {
		t.Error("Destroy should not run after a failed Init")
	}
}

func TestStatsFPS(t *testing.T) {
	var s Stats
	start := time.Unix(0, 0)
	s.reset(start)

	for i := 1; i < 60; i++ {
		if _, ok := s.frame(start.Add(time.Duration(i) * 16 * time.Millisecond)); ok {
			t.Fatalf("FPS reported early at frame %d", i)
		}
	}
	fps, ok := s.frame(start.Add(time.Second))
	if !ok {
		t.Fatal("FPS not reported after one second")
	}
	if fps != 60 {
		t.Errorf("fps = %v, want 60", fps)
	}
	if s.Frames != 60 {
		t.Errorf("Frames = %d, want 60", s.Frames)
	}
}

func TestStringers(t *testing.T) {
	if got := Recreating.String(); got != "recreating" {
		t.Errorf("Recreating.String() = %q", got)
	}
	if got := StatusOutOfDate.String(); got != "out of date" {
		t.Errorf("StatusOutOfDate.String() = %q", got)
	}
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("State(42).String() = %q", got)
	}
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
