package main

import (
	"fmt"

	"github.com/vulkan-go/glfw/v3.3/glfw"

	"Quad/internal/config"
)

// openWindow creates a resizable no-API window and blocks until it has a
// usable framebuffer.
func openWindow(cfg config.Config) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	for {
		w, h := window.GetFramebufferSize()
		if w > 0 && h > 0 {
			break
		}
		glfw.WaitEventsTimeout(0.01)
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return window, nil
}

// glfwWindow adapts a GLFW window to frame.Window.
type glfwWindow struct {
	*glfw.Window
}

func (glfwWindow) PollEvents() { glfw.PollEvents() }

func (glfwWindow) WaitEvents() { glfw.WaitEvents() }
