package vkinfo

import (
	"math"

	"github.com/vulkan-go/vulkan"
)

// undefinedExtent is what surfaces report when the window size decides the
// swapchain extent.
const undefinedExtent = math.MaxUint32

type Swapchain struct {
	surface     vulkan.Surface
	format      vulkan.SurfaceFormat
	presentMode vulkan.PresentMode
	extent      vulkan.Extent2D
	imageCount  uint32
	transform   vulkan.SurfaceTransformFlagBits
	families    []uint32
}

func NewSwapchain(surface vulkan.Surface, format vulkan.SurfaceFormat, extent vulkan.Extent2D, imageCount uint32) Swapchain {
	return Swapchain{
		surface:     surface,
		format:      format,
		presentMode: vulkan.PresentModeFifo,
		extent:      extent,
		imageCount:  imageCount,
		transform:   vulkan.SurfaceTransformIdentityBit,
	}
}

func (b Swapchain) WithPresentMode(mode vulkan.PresentMode) Swapchain {
	b.presentMode = mode
	return b
}

func (b Swapchain) WithTransform(t vulkan.SurfaceTransformFlagBits) Swapchain {
	b.transform = t
	return b
}

// WithQueueFamilies switches to concurrent sharing when graphics and
// presentation run on different queue families.
func (b Swapchain) WithQueueFamilies(graphics, present uint32) Swapchain {
	if graphics == present {
		b.families = nil
		return b
	}
	b.families = []uint32{graphics, present}
	return b
}

func (b Swapchain) Build() vulkan.SwapchainCreateInfo {
	info := vulkan.SwapchainCreateInfo{
		SType:            vulkan.StructureTypeSwapchainCreateInfo,
		Surface:          b.surface,
		MinImageCount:    b.imageCount,
		ImageFormat:      b.format.Format,
		ImageColorSpace:  b.format.ColorSpace,
		ImageExtent:      b.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		ImageSharingMode: vulkan.SharingModeExclusive,
		PreTransform:     b.transform,
		CompositeAlpha:   vulkan.CompositeAlphaOpaqueBit,
		PresentMode:      b.presentMode,
		Clipped:          vulkan.True,
		OldSwapchain:     vulkan.Swapchain(vulkan.NullHandle),
	}
	if len(b.families) > 0 {
		info.ImageSharingMode = vulkan.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(b.families))
		info.PQueueFamilyIndices = b.families
	}
	return info
}

type ImageView struct {
	image  vulkan.Image
	format vulkan.Format
	aspect vulkan.ImageAspectFlags
}

func NewImageView(image vulkan.Image, format vulkan.Format) ImageView {
	return ImageView{
		image:  image,
		format: format,
		aspect: vulkan.ImageAspectFlags(vulkan.ImageAspectColorBit),
	}
}

func (b ImageView) Build() vulkan.ImageViewCreateInfo {
	return vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    b.image,
		ViewType: vulkan.ImageViewType2d,
		Format:   b.format,
		Components: vulkan.ComponentMapping{
			R: vulkan.ComponentSwizzleIdentity,
			G: vulkan.ComponentSwizzleIdentity,
			B: vulkan.ComponentSwizzleIdentity,
			A: vulkan.ComponentSwizzleIdentity,
		},
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask:     b.aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

func ChooseSurfaceFormat(available []vulkan.SurfaceFormat) vulkan.SurfaceFormat {
	for _, f := range available {
		if f.Format == vulkan.FormatB8g8r8a8Srgb && f.ColorSpace == vulkan.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

func ChoosePresentMode(available []vulkan.PresentMode) vulkan.PresentMode {
	for _, m := range available {
		if m == vulkan.PresentModeMailbox {
			return m
		}
	}
	return vulkan.PresentModeFifo
}

// ChooseExtent returns the surface's current extent, or the framebuffer size
// clamped to the supported range when the surface leaves it to us.
func ChooseExtent(caps vulkan.SurfaceCapabilities, width, height int) vulkan.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return vulkan.Extent2D{
		Width:  clamp(uint32(max(width, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(height, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount asks for one image more than the minimum so acquisition does not
// stall on the driver. A MaxImageCount of zero means unbounded.
func ImageCount(caps vulkan.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
