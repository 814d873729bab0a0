package vkinfo

import "github.com/vulkan-go/vulkan"

// Attachment describes a single render pass attachment. The defaults clear on
// load, store on write and hand the image to the presentation engine.
type Attachment struct {
	format         vulkan.Format
	samples        vulkan.SampleCountFlagBits
	loadOp         vulkan.AttachmentLoadOp
	storeOp        vulkan.AttachmentStoreOp
	stencilLoadOp  vulkan.AttachmentLoadOp
	stencilStoreOp vulkan.AttachmentStoreOp
	initialLayout  vulkan.ImageLayout
	finalLayout    vulkan.ImageLayout
}

func NewAttachment(format vulkan.Format) Attachment {
	return Attachment{
		format:         format,
		samples:        vulkan.SampleCount1Bit,
		loadOp:         vulkan.AttachmentLoadOpClear,
		storeOp:        vulkan.AttachmentStoreOpStore,
		stencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
		stencilStoreOp: vulkan.AttachmentStoreOpDontCare,
		initialLayout:  vulkan.ImageLayoutUndefined,
		finalLayout:    vulkan.ImageLayoutPresentSrc,
	}
}

func (b Attachment) Build() vulkan.AttachmentDescription {
	return vulkan.AttachmentDescription{
		Format:         b.format,
		Samples:        b.samples,
		LoadOp:         b.loadOp,
		StoreOp:        b.storeOp,
		StencilLoadOp:  b.stencilLoadOp,
		StencilStoreOp: b.stencilStoreOp,
		InitialLayout:  b.initialLayout,
		FinalLayout:    b.finalLayout,
	}
}

type AttachmentRef struct {
	index  uint32
	layout vulkan.ImageLayout
}

func NewAttachmentRef() AttachmentRef {
	return AttachmentRef{layout: vulkan.ImageLayoutColorAttachmentOptimal}
}

func (b AttachmentRef) Build() vulkan.AttachmentReference {
	return vulkan.AttachmentReference{Attachment: b.index, Layout: b.layout}
}

type Subpass struct {
	bindPoint vulkan.PipelineBindPoint
	colors    []vulkan.AttachmentReference
}

func NewSubpass(colors ...vulkan.AttachmentReference) Subpass {
	return Subpass{
		bindPoint: vulkan.PipelineBindPointGraphics,
		colors:    append([]vulkan.AttachmentReference(nil), colors...),
	}
}

func (b Subpass) Build() vulkan.SubpassDescription {
	return vulkan.SubpassDescription{
		PipelineBindPoint:    b.bindPoint,
		ColorAttachmentCount: uint32(len(b.colors)),
		PColorAttachments:    b.colors,
	}
}

// SubpassDependency defaults to waiting for the swapchain image to be
// released before the first subpass writes colour.
type SubpassDependency struct {
	src, dst             uint32
	srcStage, dstStage   vulkan.PipelineStageFlags
	srcAccess, dstAccess vulkan.AccessFlags
}

func NewSubpassDependency() SubpassDependency {
	return SubpassDependency{
		src:       vulkan.SubpassExternal,
		dst:       0,
		srcStage:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit),
		dstStage:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit),
		srcAccess: 0,
		dstAccess: vulkan.AccessFlags(vulkan.AccessColorAttachmentReadBit | vulkan.AccessColorAttachmentWriteBit),
	}
}

func (b SubpassDependency) Build() vulkan.SubpassDependency {
	return vulkan.SubpassDependency{
		SrcSubpass:    b.src,
		DstSubpass:    b.dst,
		SrcStageMask:  b.srcStage,
		DstStageMask:  b.dstStage,
		SrcAccessMask: b.srcAccess,
		DstAccessMask: b.dstAccess,
	}
}

type RenderPass struct {
	attachments  []vulkan.AttachmentDescription
	subpasses    []vulkan.SubpassDescription
	dependencies []vulkan.SubpassDependency
}

func NewRenderPass() RenderPass { return RenderPass{} }

func (b RenderPass) WithAttachments(a ...vulkan.AttachmentDescription) RenderPass {
	b.attachments = append([]vulkan.AttachmentDescription(nil), a...)
	return b
}

func (b RenderPass) WithSubpasses(s ...vulkan.SubpassDescription) RenderPass {
	b.subpasses = append([]vulkan.SubpassDescription(nil), s...)
	return b
}

func (b RenderPass) WithDependencies(d ...vulkan.SubpassDependency) RenderPass {
	b.dependencies = append([]vulkan.SubpassDependency(nil), d...)
	return b
}

func (b RenderPass) Build() vulkan.RenderPassCreateInfo {
	return vulkan.RenderPassCreateInfo{
		SType:           vulkan.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(b.attachments)),
		PAttachments:    b.attachments,
		SubpassCount:    uint32(len(b.subpasses)),
		PSubpasses:      b.subpasses,
		DependencyCount: uint32(len(b.dependencies)),
		PDependencies:   b.dependencies,
	}
}

// ColorRenderPass is the single-subpass, single-colour-attachment pass the
// renderer draws with.
func ColorRenderPass(format vulkan.Format) vulkan.RenderPassCreateInfo {
	return NewRenderPass().
		WithAttachments(NewAttachment(format).Build()).
		WithSubpasses(NewSubpass(NewAttachmentRef().Build()).Build()).
		WithDependencies(NewSubpassDependency().Build()).
		Build()
}

type Framebuffer struct {
	renderPass  vulkan.RenderPass
	attachments []vulkan.ImageView
	extent      vulkan.Extent2D
}

func NewFramebuffer(pass vulkan.RenderPass, extent vulkan.Extent2D, attachments ...vulkan.ImageView) Framebuffer {
	return Framebuffer{
		renderPass:  pass,
		attachments: append([]vulkan.ImageView(nil), attachments...),
		extent:      extent,
	}
}

func (b Framebuffer) Build() vulkan.FramebufferCreateInfo {
	return vulkan.FramebufferCreateInfo{
		SType:           vulkan.StructureTypeFramebufferCreateInfo,
		RenderPass:      b.renderPass,
		AttachmentCount: uint32(len(b.attachments)),
		PAttachments:    b.attachments,
		Width:           b.extent.Width,
		Height:          b.extent.Height,
		Layers:          1,
	}
}
