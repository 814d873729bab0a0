package vkinfo

import "github.com/vulkan-go/vulkan"

// EntryPoint is the shader entry point for every stage.
const EntryPoint = "main\x00"

type ShaderStages struct {
	stages []vulkan.PipelineShaderStageCreateInfo
}

func NewShaderStages() ShaderStages { return ShaderStages{} }

func (b ShaderStages) WithStage(stage vulkan.ShaderStageFlagBits, module vulkan.ShaderModule) ShaderStages {
	stages := make([]vulkan.PipelineShaderStageCreateInfo, len(b.stages), len(b.stages)+1)
	copy(stages, b.stages)
	b.stages = append(stages, vulkan.PipelineShaderStageCreateInfo{
		SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: module,
		PName:  EntryPoint,
	})
	return b
}

func (b ShaderStages) WithVertex(module vulkan.ShaderModule) ShaderStages {
	return b.WithStage(vulkan.ShaderStageVertexBit, module)
}

func (b ShaderStages) WithFragment(module vulkan.ShaderModule) ShaderStages {
	return b.WithStage(vulkan.ShaderStageFragmentBit, module)
}

func (b ShaderStages) Build() []vulkan.PipelineShaderStageCreateInfo {
	return append([]vulkan.PipelineShaderStageCreateInfo(nil), b.stages...)
}

func VertexInput(bindings []vulkan.VertexInputBindingDescription, attributes []vulkan.VertexInputAttributeDescription) vulkan.PipelineVertexInputStateCreateInfo {
	return vulkan.PipelineVertexInputStateCreateInfo{
		SType:                           vulkan.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
}

func InputAssembly(topology vulkan.PrimitiveTopology) vulkan.PipelineInputAssemblyStateCreateInfo {
	return vulkan.PipelineInputAssemblyStateCreateInfo{
		SType:                  vulkan.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topology,
		PrimitiveRestartEnable: vulkan.False,
	}
}

// Viewport covers the whole extent with the standard [0,1] depth range.
func Viewport(extent vulkan.Extent2D) vulkan.Viewport {
	return vulkan.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}

func Scissor(extent vulkan.Extent2D) vulkan.Rect2D {
	return vulkan.Rect2D{
		Offset: vulkan.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
}

func ViewportState(viewport vulkan.Viewport, scissor vulkan.Rect2D) vulkan.PipelineViewportStateCreateInfo {
	return vulkan.PipelineViewportStateCreateInfo{
		SType:         vulkan.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vulkan.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vulkan.Rect2D{scissor},
	}
}

type Rasterization struct {
	polygonMode vulkan.PolygonMode
	cullMode    vulkan.CullModeFlagBits
	frontFace   vulkan.FrontFace
	lineWidth   float32
}

func NewRasterization() Rasterization {
	return Rasterization{
		polygonMode: vulkan.PolygonModeFill,
		cullMode:    vulkan.CullModeBackBit,
		frontFace:   vulkan.FrontFaceCounterClockwise,
		lineWidth:   1.0,
	}
}

func (b Rasterization) Build() vulkan.PipelineRasterizationStateCreateInfo {
	return vulkan.PipelineRasterizationStateCreateInfo{
		SType:                   vulkan.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vulkan.False,
		RasterizerDiscardEnable: vulkan.False,
		PolygonMode:             b.polygonMode,
		LineWidth:               b.lineWidth,
		CullMode:                vulkan.CullModeFlags(b.cullMode),
		FrontFace:               b.frontFace,
		DepthBiasEnable:         vulkan.False,
	}
}

func Multisample() vulkan.PipelineMultisampleStateCreateInfo {
	return vulkan.PipelineMultisampleStateCreateInfo{
		SType:                vulkan.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vulkan.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
}

// ColorBlend writes all channels with blending off.
func ColorBlend() vulkan.PipelineColorBlendStateCreateInfo {
	attachment := vulkan.PipelineColorBlendAttachmentState{
		ColorWriteMask: vulkan.ColorComponentFlags(vulkan.ColorComponentRBit | vulkan.ColorComponentGBit | vulkan.ColorComponentBBit | vulkan.ColorComponentABit),
		BlendEnable:    vulkan.False,
	}
	return vulkan.PipelineColorBlendStateCreateInfo{
		SType:           vulkan.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vulkan.False,
		LogicOp:         vulkan.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vulkan.PipelineColorBlendAttachmentState{attachment},
	}
}

func PipelineLayout(setLayouts ...vulkan.DescriptorSetLayout) vulkan.PipelineLayoutCreateInfo {
	return vulkan.PipelineLayoutCreateInfo{
		SType:          vulkan.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}
}

// GraphicsPipeline assembles shader stages and fixed-function state into a
// pipeline create-info. Input assembly, rasterization, multisampling and
// colour blending have defaults; the rest must be supplied.
type GraphicsPipeline struct {
	stages        []vulkan.PipelineShaderStageCreateInfo
	vertexInput   vulkan.PipelineVertexInputStateCreateInfo
	inputAssembly vulkan.PipelineInputAssemblyStateCreateInfo
	viewportState vulkan.PipelineViewportStateCreateInfo
	rasterization vulkan.PipelineRasterizationStateCreateInfo
	multisample   vulkan.PipelineMultisampleStateCreateInfo
	colorBlend    vulkan.PipelineColorBlendStateCreateInfo
	layout        vulkan.PipelineLayout
	renderPass    vulkan.RenderPass
}

func NewGraphicsPipeline(stages []vulkan.PipelineShaderStageCreateInfo, viewport vulkan.PipelineViewportStateCreateInfo, layout vulkan.PipelineLayout, pass vulkan.RenderPass) GraphicsPipeline {
	return GraphicsPipeline{
		stages:        stages,
		vertexInput:   VertexInput(nil, nil),
		inputAssembly: InputAssembly(vulkan.PrimitiveTopologyTriangleList),
		viewportState: viewport,
		rasterization: NewRasterization().Build(),
		multisample:   Multisample(),
		colorBlend:    ColorBlend(),
		layout:        layout,
		renderPass:    pass,
	}
}

func (b GraphicsPipeline) WithVertexInput(v vulkan.PipelineVertexInputStateCreateInfo) GraphicsPipeline {
	b.vertexInput = v
	return b
}

func (b GraphicsPipeline) Build() vulkan.GraphicsPipelineCreateInfo {
	return vulkan.GraphicsPipelineCreateInfo{
		SType:               vulkan.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(b.stages)),
		PStages:             b.stages,
		PVertexInputState:   &b.vertexInput,
		PInputAssemblyState: &b.inputAssembly,
		PViewportState:      &b.viewportState,
		PRasterizationState: &b.rasterization,
		PMultisampleState:   &b.multisample,
		PColorBlendState:    &b.colorBlend,
		Layout:              b.layout,
		RenderPass:          b.renderPass,
		BasePipelineIndex:   -1,
	}
}
