package main

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vulkan-go/glfw/v3.3/glfw"

	"Quad/internal/config"
	"Quad/internal/frame"
	"Quad/internal/vkgfx"
)

func init() {
	// GLFW/Vulkan require the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "quad",
		Short:         "Quad draws a spinning coloured quad with Vulkan",
		Long:          "Quad opens a window and renders a rotating quad, rebuilding the swapchain whenever the window is resized. Settings are read from " + config.DefaultPath + " in the working directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.DefaultPath)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
}

func run(cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, level)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	window, err := openWindow(cfg)
	if err != nil {
		return err
	}
	defer window.Destroy()

	width, height := window.GetFramebufferSize()
	sys := vkgfx.New(window, cfg, logger)
	renderer := frame.NewRenderer(sys, width, height, cfg.FramesInFlight, frame.WithLogger(logger))

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		renderer.Resize(w, h)
	})

	logger.Info("entering main loop", "validation", cfg.Validation, "frames_in_flight", cfg.FramesInFlight)
	return renderer.Run(glfwWindow{window})
}
