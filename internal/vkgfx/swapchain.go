package vkgfx

import (
	"fmt"

	"github.com/vulkan-go/vulkan"

	"Quad/internal/vkinfo"
)

type swapchainSupport struct {
	capabilities vulkan.SurfaceCapabilities
	formats      []vulkan.SurfaceFormat
	presentModes []vulkan.PresentMode
}

func (s *System) querySwapchainSupport(device vulkan.PhysicalDevice) swapchainSupport {
	var details swapchainSupport
	vulkan.GetPhysicalDeviceSurfaceCapabilities(device, s.surface, &details.capabilities)
	details.capabilities.Deref()
	details.capabilities.CurrentExtent.Deref()
	details.capabilities.MinImageExtent.Deref()
	details.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vulkan.GetPhysicalDeviceSurfaceFormats(device, s.surface, &formatCount, nil)
	if formatCount > 0 {
		details.formats = make([]vulkan.SurfaceFormat, formatCount)
		vulkan.GetPhysicalDeviceSurfaceFormats(device, s.surface, &formatCount, details.formats)
		for i := range details.formats {
			details.formats[i].Deref()
		}
	}

	var presentCount uint32
	vulkan.GetPhysicalDeviceSurfacePresentModes(device, s.surface, &presentCount, nil)
	if presentCount > 0 {
		details.presentModes = make([]vulkan.PresentMode, presentCount)
		vulkan.GetPhysicalDeviceSurfacePresentModes(device, s.surface, &presentCount, details.presentModes)
	}
	return details
}

// createSwapchainResources builds everything that depends on the surface
// size, pushing each release onto the swapchain stack.
func (s *System) createSwapchainResources(width, height int) error {
	if err := s.runSteps(s.swapchainSteps(width, height)); err != nil {
		return err
	}
	s.imagesInFlight = make([]vulkan.Fence, len(s.swapchainImages))
	return nil
}

func (s *System) createSwapchain(width, height int) error {
	support := s.querySwapchainSupport(s.physicalDevice)
	format := vkinfo.ChooseSurfaceFormat(support.formats)
	extent := vkinfo.ChooseExtent(support.capabilities, width, height)

	createInfo := vkinfo.NewSwapchain(s.surface, format, extent, vkinfo.ImageCount(support.capabilities)).
		WithPresentMode(vkinfo.ChoosePresentMode(support.presentModes)).
		WithTransform(support.capabilities.CurrentTransform).
		WithQueueFamilies(s.queues.graphicsFamily, s.queues.presentFamily).
		Build()

	if res := vulkan.CreateSwapchain(s.device, &createInfo, nil, &s.swapchain); res != vulkan.Success {
		return fmt.Errorf("create swapchain: %w", vulkan.Error(res))
	}
	s.swap.Push("swapchain", func() {
		vulkan.DestroySwapchain(s.device, s.swapchain, nil)
		s.swapchain = vulkan.Swapchain(vulkan.NullHandle)
		s.swapchainImages = nil
	})

	var count uint32
	if res := vulkan.GetSwapchainImages(s.device, s.swapchain, &count, nil); res != vulkan.Success {
		return fmt.Errorf("get swapchain images: %w", vulkan.Error(res))
	}
	s.swapchainImages = make([]vulkan.Image, count)
	if res := vulkan.GetSwapchainImages(s.device, s.swapchain, &count, s.swapchainImages); res != vulkan.Success {
		return fmt.Errorf("get swapchain images list: %w", vulkan.Error(res))
	}
	s.swapchainFormat = format.Format
	s.swapchainExtent = extent
	return nil
}

func (s *System) createImageViews() error {
	s.swapchainViews = make([]vulkan.ImageView, 0, len(s.swapchainImages))
	s.swap.Push("image views", func() {
		for _, view := range s.swapchainViews {
			vulkan.DestroyImageView(s.device, view, nil)
		}
		s.swapchainViews = nil
	})
	for i, image := range s.swapchainImages {
		createInfo := vkinfo.NewImageView(image, s.swapchainFormat).Build()
		var view vulkan.ImageView
		if res := vulkan.CreateImageView(s.device, &createInfo, nil, &view); res != vulkan.Success {
			return fmt.Errorf("create image view %d: %w", i, vulkan.Error(res))
		}
		s.swapchainViews = append(s.swapchainViews, view)
	}
	return nil
}

func (s *System) createRenderPass() error {
	createInfo := vkinfo.ColorRenderPass(s.swapchainFormat)
	if res := vulkan.CreateRenderPass(s.device, &createInfo, nil, &s.renderPass); res != vulkan.Success {
		return fmt.Errorf("create render pass: %w", vulkan.Error(res))
	}
	s.swap.Push("render pass", func() {
		vulkan.DestroyRenderPass(s.device, s.renderPass, nil)
		s.renderPass = vulkan.RenderPass(vulkan.NullHandle)
	})
	return nil
}

// createFramebuffers builds exactly one framebuffer per swapchain image view.
func (s *System) createFramebuffers() error {
	s.framebuffers = make([]vulkan.Framebuffer, 0, len(s.swapchainViews))
	s.swap.Push("framebuffers", func() {
		for _, fb := range s.framebuffers {
			vulkan.DestroyFramebuffer(s.device, fb, nil)
		}
		s.framebuffers = nil
	})
	for i, view := range s.swapchainViews {
		createInfo := vkinfo.NewFramebuffer(s.renderPass, s.swapchainExtent, view).Build()
		var fb vulkan.Framebuffer
		if res := vulkan.CreateFramebuffer(s.device, &createInfo, nil, &fb); res != vulkan.Success {
			return fmt.Errorf("create framebuffer %d: %w", i, vulkan.Error(res))
		}
		s.framebuffers = append(s.framebuffers, fb)
	}
	return nil
}
