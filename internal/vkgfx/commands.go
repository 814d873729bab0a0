package vkgfx

import (
	"errors"
	"fmt"

	"github.com/vulkan-go/vulkan"

	"Quad/internal/frame"
	"Quad/internal/geom"
)

var clearColor = []float32{0, 0, 0, 1}

// ErrAcquireTimeout means no swapchain image became available within the
// configured acquire timeout.
var ErrAcquireTimeout = errors.New("vkgfx: acquire timed out")

func (s *System) createCommandPool() error {
	poolInfo := vulkan.CommandPoolCreateInfo{
		SType:            vulkan.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: s.queues.graphicsFamily,
	}
	if res := vulkan.CreateCommandPool(s.device, &poolInfo, nil, &s.commandPool); res != vulkan.Success {
		return fmt.Errorf("create command pool: %w", vulkan.Error(res))
	}
	s.core.Push("command pool", func() { vulkan.DestroyCommandPool(s.device, s.commandPool, nil) })
	return nil
}

// createSyncObjects makes one image-available semaphore and one fence per
// frame slot. Fences start signaled so the first wait on each slot returns
// immediately.
func (s *System) createSyncObjects() error {
	n := s.cfg.FramesInFlight
	s.imageAvailable = make([]vulkan.Semaphore, 0, n)
	s.inFlightFences = make([]vulkan.Fence, 0, n)
	s.core.Push("sync objects", func() {
		for _, sem := range s.imageAvailable {
			vulkan.DestroySemaphore(s.device, sem, nil)
		}
		for _, f := range s.inFlightFences {
			vulkan.DestroyFence(s.device, f, nil)
		}
		s.imageAvailable, s.inFlightFences = nil, nil
	})

	fenceInfo := vulkan.FenceCreateInfo{
		SType: vulkan.StructureTypeFenceCreateInfo,
		Flags: vulkan.FenceCreateFlags(vulkan.FenceCreateSignaledBit),
	}
	for i := 0; i < n; i++ {
		sem, err := s.newSemaphore()
		if err != nil {
			return fmt.Errorf("create image-available semaphore %d: %w", i, err)
		}
		s.imageAvailable = append(s.imageAvailable, sem)
		var fence vulkan.Fence
		if res := vulkan.CreateFence(s.device, &fenceInfo, nil, &fence); res != vulkan.Success {
			return fmt.Errorf("create fence %d: %w", i, vulkan.Error(res))
		}
		s.inFlightFences = append(s.inFlightFences, fence)
	}
	return nil
}

// createRenderFinished makes one render-finished semaphore per swapchain
// image. The presentation engine holds it until that image is acquired
// again, so it cannot be reused by a frame slot that may target another
// image in the meantime.
func (s *System) createRenderFinished() error {
	s.renderFinished = make([]vulkan.Semaphore, 0, len(s.swapchainImages))
	s.swap.Push("render-finished semaphores", func() {
		for _, sem := range s.renderFinished {
			vulkan.DestroySemaphore(s.device, sem, nil)
		}
		s.renderFinished = nil
	})
	for i := range s.swapchainImages {
		sem, err := s.newSemaphore()
		if err != nil {
			return fmt.Errorf("create render-finished semaphore %d: %w", i, err)
		}
		s.renderFinished = append(s.renderFinished, sem)
	}
	return nil
}

func (s *System) newSemaphore() (vulkan.Semaphore, error) {
	info := vulkan.SemaphoreCreateInfo{SType: vulkan.StructureTypeSemaphoreCreateInfo}
	var sem vulkan.Semaphore
	if res := vulkan.CreateSemaphore(s.device, &info, nil, &sem); res != vulkan.Success {
		return sem, vulkan.Error(res)
	}
	return sem, nil
}

// recordCommandBuffers allocates one command buffer per framebuffer and
// records the whole quad draw into each. They are replayed unchanged until
// the next swapchain rebuild.
func (s *System) recordCommandBuffers() error {
	allocInfo := vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        s.commandPool,
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(s.framebuffers)),
	}
	s.commandBuffers = make([]vulkan.CommandBuffer, len(s.framebuffers))
	if res := vulkan.AllocateCommandBuffers(s.device, &allocInfo, s.commandBuffers); res != vulkan.Success {
		s.commandBuffers = nil
		return fmt.Errorf("allocate command buffers: %w", vulkan.Error(res))
	}
	s.swap.Push("command buffers", func() {
		vulkan.FreeCommandBuffers(s.device, s.commandPool, uint32(len(s.commandBuffers)), s.commandBuffers)
		s.commandBuffers = nil
	})

	for i, cb := range s.commandBuffers {
		if err := s.recordCommandBuffer(cb, i); err != nil {
			return fmt.Errorf("record command buffer %d: %w", i, err)
		}
	}
	return nil
}

func (s *System) recordCommandBuffer(cb vulkan.CommandBuffer, image int) error {
	beginInfo := vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
		Flags: vulkan.CommandBufferUsageFlags(vulkan.CommandBufferUsageSimultaneousUseBit),
	}
	if res := vulkan.BeginCommandBuffer(cb, &beginInfo); res != vulkan.Success {
		return fmt.Errorf("begin command buffer: %w", vulkan.Error(res))
	}

	clearValues := []vulkan.ClearValue{vulkan.NewClearValue(clearColor)}
	renderPassInfo := vulkan.RenderPassBeginInfo{
		SType:       vulkan.StructureTypeRenderPassBeginInfo,
		RenderPass:  s.renderPass,
		Framebuffer: s.framebuffers[image],
		RenderArea: vulkan.Rect2D{
			Offset: vulkan.Offset2D{X: 0, Y: 0},
			Extent: s.swapchainExtent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vulkan.CmdBeginRenderPass(cb, &renderPassInfo, vulkan.SubpassContentsInline)
	vulkan.CmdBindPipeline(cb, vulkan.PipelineBindPointGraphics, s.pipeline.handle)
	vulkan.CmdBindVertexBuffers(cb, 0, 1, []vulkan.Buffer{s.vertexBuffer.handle}, []vulkan.DeviceSize{0})
	vulkan.CmdBindIndexBuffer(cb, s.indexBuffer.handle, 0, geom.IndexType)
	vulkan.CmdBindDescriptorSets(cb, vulkan.PipelineBindPointGraphics, s.pipeline.layout, 0, 1,
		[]vulkan.DescriptorSet{s.descriptorSets[image]}, 0, nil)
	vulkan.CmdDrawIndexed(cb, uint32(len(geom.QuadIndices)), 1, 0, 0, 0)
	vulkan.CmdEndRenderPass(cb)

	if res := vulkan.EndCommandBuffer(cb); res != vulkan.Success {
		return fmt.Errorf("end command buffer: %w", vulkan.Error(res))
	}
	return nil
}

// Acquire waits for slot's previous submission, takes the next swapchain
// image and waits for whichever slot last rendered to that image, so the
// image's uniform buffer is free to overwrite.
func (s *System) Acquire(slot int) (uint32, frame.Status, error) {
	fence := s.inFlightFences[slot]
	if res := vulkan.WaitForFences(s.device, 1, []vulkan.Fence{fence}, vulkan.True, vulkan.MaxUint64); res != vulkan.Success {
		return 0, frame.StatusOK, fmt.Errorf("wait for slot %d: %w", slot, vulkan.Error(res))
	}

	var image uint32
	res := vulkan.AcquireNextImage(s.device, s.swapchain, s.cfg.AcquireTimeoutNanos(),
		s.imageAvailable[slot], vulkan.Fence(vulkan.NullHandle), &image)
	status, err := presentStatus(res)
	if err != nil || status == frame.StatusOutOfDate {
		return 0, status, err
	}

	if prev := s.imagesInFlight[image]; prev != vulkan.Fence(vulkan.NullHandle) && prev != fence {
		if res := vulkan.WaitForFences(s.device, 1, []vulkan.Fence{prev}, vulkan.True, vulkan.MaxUint64); res != vulkan.Success {
			return 0, status, fmt.Errorf("wait for image %d: %w", image, vulkan.Error(res))
		}
	}
	s.imagesInFlight[image] = fence
	return image, status, nil
}

// Submit resets the slot fence only now that work is certain to be queued;
// an out-of-date acquire leaves it signaled for the next attempt.
func (s *System) Submit(slot int, image uint32) error {
	fence := s.inFlightFences[slot]
	if res := vulkan.ResetFences(s.device, 1, []vulkan.Fence{fence}); res != vulkan.Success {
		return fmt.Errorf("reset fence %d: %w", slot, vulkan.Error(res))
	}

	waitStages := []vulkan.PipelineStageFlags{vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit)}
	submitInfo := vulkan.SubmitInfo{
		SType:                vulkan.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vulkan.Semaphore{s.imageAvailable[slot]},
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vulkan.CommandBuffer{s.commandBuffers[image]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vulkan.Semaphore{s.renderFinished[image]},
	}
	if res := vulkan.QueueSubmit(s.graphicsQueue, 1, []vulkan.SubmitInfo{submitInfo}, fence); res != vulkan.Success {
		return fmt.Errorf("queue submit: %w", vulkan.Error(res))
	}
	return nil
}

func (s *System) Present(slot int, image uint32) (frame.Status, error) {
	presentInfo := vulkan.PresentInfo{
		SType:              vulkan.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vulkan.Semaphore{s.renderFinished[image]},
		SwapchainCount:     1,
		PSwapchains:        []vulkan.Swapchain{s.swapchain},
		PImageIndices:      []uint32{image},
	}
	return presentStatus(vulkan.QueuePresent(s.presentQueue, &presentInfo))
}

// presentStatus maps an acquire or present result onto a swapchain status.
// Anything other than success, suboptimal or out-of-date is an error.
func presentStatus(res vulkan.Result) (frame.Status, error) {
	switch res {
	case vulkan.Success:
		return frame.StatusOK, nil
	case vulkan.Suboptimal:
		return frame.StatusSuboptimal, nil
	case vulkan.ErrorOutOfDate:
		return frame.StatusOutOfDate, nil
	case vulkan.Timeout, vulkan.NotReady:
		return frame.StatusOK, ErrAcquireTimeout
	}
	if err := vulkan.Error(res); err != nil {
		return frame.StatusOK, err
	}
	return frame.StatusOK, fmt.Errorf("unexpected result %d", res)
}
