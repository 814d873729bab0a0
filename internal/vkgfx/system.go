// Package vkgfx implements frame.System on Vulkan through vulkan-go.
//
// Resources live on two release stacks. The core stack holds everything
// that survives a resize (instance, surface, device, geometry, per-slot sync
// objects). The swapchain stack holds what is rebuilt wholesale on every
// resize. Destroy empties the swapchain stack first and then the core stack,
// so teardown runs in reverse creation order and the device goes after
// every object created from it.
package vkgfx

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	"github.com/vulkan-go/vulkan"

	"Quad/internal/config"
	"Quad/internal/frame"
	"Quad/internal/release"
	"Quad/internal/shader"
)

var (
	validationLayers = []string{"VK_LAYER_KHRONOS_validation\x00"}
	deviceExtensions = []string{"VK_KHR_swapchain\x00"}
)

var _ frame.System = (*System)(nil)

type queueFamilyIndices struct {
	graphicsFamily uint32
	presentFamily  uint32
	hasGraphics    bool
	hasPresent     bool
}

func (q queueFamilyIndices) complete() bool { return q.hasGraphics && q.hasPresent }

type System struct {
	cfg    config.Config
	window *glfw.Window
	logger *log.Logger

	core release.Stack
	swap release.Stack

	instance       vulkan.Instance
	debugCallback  vulkan.DebugReportCallback
	surface        vulkan.Surface
	physicalDevice vulkan.PhysicalDevice
	device         vulkan.Device
	queues         queueFamilyIndices
	graphicsQueue  vulkan.Queue
	presentQueue   vulkan.Queue

	vertModule          vulkan.ShaderModule
	fragModule          vulkan.ShaderModule
	commandPool         vulkan.CommandPool
	vertexBuffer        buffer
	indexBuffer         buffer
	descriptorSetLayout vulkan.DescriptorSetLayout

	imageAvailable []vulkan.Semaphore
	inFlightFences []vulkan.Fence

	swapchain       vulkan.Swapchain
	swapchainImages []vulkan.Image
	swapchainFormat vulkan.Format
	swapchainExtent vulkan.Extent2D
	swapchainViews  []vulkan.ImageView
	renderPass      vulkan.RenderPass
	pipeline        pipeline
	framebuffers    []vulkan.Framebuffer
	uniformBuffers  []buffer
	descriptorPool  vulkan.DescriptorPool
	descriptorSets  []vulkan.DescriptorSet
	commandBuffers  []vulkan.CommandBuffer
	renderFinished  []vulkan.Semaphore
	imagesInFlight  []vulkan.Fence
}

func New(window *glfw.Window, cfg config.Config, logger *log.Logger) *System {
	return &System{
		cfg:    cfg,
		window: window,
		logger: logger,
	}
}

// Init creates every Vulkan object the renderer needs. On failure whatever
// was created is released before returning.
func (s *System) Init(width, height int) (err error) {
	defer func() {
		if err != nil {
			s.swap.Release()
			s.core.Release()
		}
	}()

	vertCode, err := shader.Load(s.cfg.ShaderPath(s.cfg.VertexShader))
	if err != nil {
		return err
	}
	fragCode, err := shader.Load(s.cfg.ShaderPath(s.cfg.FragmentShader))
	if err != nil {
		return err
	}

	vulkan.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vulkan.Init(); err != nil {
		return fmt.Errorf("vulkan init: %w", err)
	}

	if err := s.runSteps(s.coreSteps(vertCode, fragCode)); err != nil {
		return err
	}
	return s.createSwapchainResources(width, height)
}

// step is one named stage of resource creation.
type step struct {
	name string
	run  func() error
}

// coreSteps lists the resources that outlive the swapchain, in creation
// order. Every step after "device" needs the logical device.
func (s *System) coreSteps(vertCode, fragCode []uint32) []step {
	return []step{
		{"instance", s.createInstance},
		{"debug callback", s.setupDebugCallback},
		{"surface", s.createSurface},
		{"physical device", s.pickPhysicalDevice},
		{"device", s.createLogicalDevice},
		{"shader modules", func() error { return s.createShaderModules(vertCode, fragCode) }},
		{"command pool", s.createCommandPool},
		{"geometry buffers", s.createGeometryBuffers},
		{"descriptor set layout", s.createDescriptorSetLayout},
		{"sync objects", s.createSyncObjects},
	}
}

// swapchainSteps lists everything sized by the swapchain, in creation order.
func (s *System) swapchainSteps(width, height int) []step {
	return []step{
		{"swapchain", func() error { return s.createSwapchain(width, height) }},
		{"image views", s.createImageViews},
		{"render-finished semaphores", s.createRenderFinished},
		{"render pass", s.createRenderPass},
		{"pipeline", s.createGraphicsPipeline},
		{"framebuffers", s.createFramebuffers},
		{"uniform buffers", s.createUniformBuffers},
		{"descriptor sets", s.createDescriptorSets},
		{"command buffers", s.recordCommandBuffers},
	}
}

func (s *System) runSteps(steps []step) error {
	for _, st := range steps {
		if err := st.run(); err != nil {
			return err
		}
		s.logger.Debug("created", "resource", st.name)
	}
	return nil
}

func (s *System) ImageCount() int { return len(s.swapchainImages) }

// Recreate rebuilds the swapchain and everything sized by it.
func (s *System) Recreate(width, height int) error {
	s.WaitIdle()
	s.swap.Release()
	return s.createSwapchainResources(width, height)
}

func (s *System) WaitIdle() {
	if s.device == vulkan.Device(vulkan.NullHandle) {
		return
	}
	vulkan.DeviceWaitIdle(s.device)
}

func (s *System) Destroy() {
	s.WaitIdle()
	s.swap.Release()
	s.core.Release()
	s.logger.Debug("vulkan resources released")
}
