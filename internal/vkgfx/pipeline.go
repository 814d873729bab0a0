package vkgfx

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vulkan-go/vulkan"

	"Quad/internal/geom"
	"Quad/internal/vkinfo"
)

// pipeline pairs a graphics pipeline with its layout. The id tells
// successive rebuilds apart in the logs.
type pipeline struct {
	id     string
	handle vulkan.Pipeline
	layout vulkan.PipelineLayout
}

func (s *System) createShaderModules(vertCode, fragCode []uint32) error {
	var err error
	if s.vertModule, err = s.createShaderModule("vertex", vertCode); err != nil {
		return err
	}
	s.core.Push("vertex shader", func() { vulkan.DestroyShaderModule(s.device, s.vertModule, nil) })

	if s.fragModule, err = s.createShaderModule("fragment", fragCode); err != nil {
		return err
	}
	s.core.Push("fragment shader", func() { vulkan.DestroyShaderModule(s.device, s.fragModule, nil) })
	return nil
}

func (s *System) createShaderModule(name string, code []uint32) (vulkan.ShaderModule, error) {
	createInfo := vkinfo.ShaderModule(code)
	var module vulkan.ShaderModule
	if res := vulkan.CreateShaderModule(s.device, &createInfo, nil, &module); res != vulkan.Success {
		return vulkan.ShaderModule(vulkan.NullHandle), fmt.Errorf("create %s shader module: %w", name, vulkan.Error(res))
	}
	return module, nil
}

func (s *System) createDescriptorSetLayout() error {
	createInfo := vkinfo.DescriptorSetLayout(vkinfo.UniformLayoutBinding(0, vulkan.ShaderStageVertexBit))
	if res := vulkan.CreateDescriptorSetLayout(s.device, &createInfo, nil, &s.descriptorSetLayout); res != vulkan.Success {
		return fmt.Errorf("create descriptor set layout: %w", vulkan.Error(res))
	}
	s.core.Push("descriptor set layout", func() {
		vulkan.DestroyDescriptorSetLayout(s.device, s.descriptorSetLayout, nil)
	})
	return nil
}

func (s *System) createGraphicsPipeline() error {
	layoutInfo := vkinfo.PipelineLayout(s.descriptorSetLayout)
	var layout vulkan.PipelineLayout
	if res := vulkan.CreatePipelineLayout(s.device, &layoutInfo, nil, &layout); res != vulkan.Success {
		return fmt.Errorf("create pipeline layout: %w", vulkan.Error(res))
	}
	s.pipeline = pipeline{id: uuid.NewString(), layout: layout}
	s.swap.Push("pipeline layout", func() {
		vulkan.DestroyPipelineLayout(s.device, s.pipeline.layout, nil)
		s.pipeline.layout = vulkan.PipelineLayout(vulkan.NullHandle)
	})

	stages := vkinfo.NewShaderStages().
		WithVertex(s.vertModule).
		WithFragment(s.fragModule).
		Build()
	viewport := vkinfo.ViewportState(
		vkinfo.Viewport(s.swapchainExtent),
		vkinfo.Scissor(s.swapchainExtent),
	)
	createInfo := vkinfo.NewGraphicsPipeline(stages, viewport, layout, s.renderPass).
		WithVertexInput(vkinfo.VertexInput(
			[]vulkan.VertexInputBindingDescription{geom.BindingDescription()},
			geom.AttributeDescriptions(),
		)).
		Build()

	handles := make([]vulkan.Pipeline, 1)
	res := vulkan.CreateGraphicsPipelines(s.device, vulkan.PipelineCache(vulkan.NullHandle), 1, []vulkan.GraphicsPipelineCreateInfo{createInfo}, nil, handles)
	if res != vulkan.Success {
		return fmt.Errorf("create graphics pipeline: %w", vulkan.Error(res))
	}
	s.pipeline.handle = handles[0]
	s.swap.Push("pipeline", func() {
		vulkan.DestroyPipeline(s.device, s.pipeline.handle, nil)
		s.pipeline.handle = vulkan.Pipeline(vulkan.NullHandle)
	})

	s.logger.Debug("pipeline created", "id", s.pipeline.id,
		"extent", fmt.Sprintf("%dx%d", s.swapchainExtent.Width, s.swapchainExtent.Height))
	return nil
}
