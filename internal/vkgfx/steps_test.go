package vkgfx

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"Quad/internal/config"
)

func stepNames(steps []step) []string {
	names := make([]string, len(steps))
	for i, st := range steps {
		names[i] = st.name
	}
	return names
}

// assertOrder checks that every dependency is created before its dependent
// and that no stage appears twice.
func assertOrder(t *testing.T, names []string, deps map[string][]string) {
	t.Helper()
	pos := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := pos[n]; dup {
			t.Errorf("step %q listed twice", n)
		}
		pos[n] = i
	}
	for name, before := range deps {
		at, ok := pos[name]
		if !ok {
			t.Errorf("step %q missing from %v", name, names)
			continue
		}
		for _, dep := range before {
			if p, ok := pos[dep]; !ok || p >= at {
				t.Errorf("%q must come before %q in %v", dep, name, names)
			}
		}
	}
}

func TestCoreStepOrder(t *testing.T) {
	s := New(nil, config.Default(), log.New(io.Discard))
	names := stepNames(s.coreSteps(nil, nil))

	if names[0] != "instance" {
		t.Fatalf("first step = %q, want instance", names[0])
	}
	deviceOwned := []string{"shader modules", "command pool", "geometry buffers", "descriptor set layout", "sync objects"}
	deps := map[string][]string{
		"debug callback":   {"instance"},
		"surface":          {"instance"},
		"physical device":  {"surface"},
		"device":           {"physical device"},
		"geometry buffers": {"command pool"},
	}
	for _, n := range deviceOwned {
		deps[n] = append(deps[n], "device")
	}
	assertOrder(t, names, deps)
}

func TestSwapchainStepOrder(t *testing.T) {
	s := New(nil, config.Default(), log.New(io.Discard))
	names := stepNames(s.swapchainSteps(800, 600))

	if names[0] != "swapchain" {
		t.Fatalf("first step = %q, want swapchain", names[0])
	}
	assertOrder(t, names, map[string][]string{
		"image views":                {"swapchain"},
		"render-finished semaphores": {"swapchain"},
		"pipeline":                   {"render pass"},
		"framebuffers":               {"image views", "render pass"},
		"descriptor sets":            {"uniform buffers"},
		"command buffers":            {"framebuffers", "pipeline", "descriptor sets"},
	})
}

func TestRenderFinishedFollowsSwapchain(t *testing.T) {
	s := New(nil, config.Default(), log.New(io.Discard))
	const name = "render-finished semaphores"

	for _, n := range stepNames(s.coreSteps(nil, nil)) {
		if n == name {
			t.Fatalf("%s created once per slot; they must be rebuilt with the swapchain images", name)
		}
	}
	found := false
	for _, n := range stepNames(s.swapchainSteps(800, 600)) {
		found = found || n == name
	}
	if !found {
		t.Errorf("%s missing from the swapchain set", name)
	}
}
