package vkinfo

import "github.com/vulkan-go/vulkan"

type Buffer struct {
	size    vulkan.DeviceSize
	usage   vulkan.BufferUsageFlagBits
	sharing vulkan.SharingMode
}

// NewBuffer defaults to an exclusively owned vertex buffer.
func NewBuffer(size int) Buffer {
	return Buffer{
		size:    vulkan.DeviceSize(size),
		usage:   vulkan.BufferUsageVertexBufferBit,
		sharing: vulkan.SharingModeExclusive,
	}
}

func (b Buffer) WithUsage(usage vulkan.BufferUsageFlagBits) Buffer {
	b.usage = usage
	return b
}

func (b Buffer) Size() vulkan.DeviceSize { return b.size }

func (b Buffer) Build() vulkan.BufferCreateInfo {
	return vulkan.BufferCreateInfo{
		SType:       vulkan.StructureTypeBufferCreateInfo,
		Size:        b.size,
		Usage:       vulkan.BufferUsageFlags(b.usage),
		SharingMode: b.sharing,
	}
}

func UniformLayoutBinding(binding uint32, stage vulkan.ShaderStageFlagBits) vulkan.DescriptorSetLayoutBinding {
	return vulkan.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  vulkan.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vulkan.ShaderStageFlags(stage),
	}
}

func DescriptorSetLayout(bindings ...vulkan.DescriptorSetLayoutBinding) vulkan.DescriptorSetLayoutCreateInfo {
	return vulkan.DescriptorSetLayoutCreateInfo{
		SType:        vulkan.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
}

// UniformPool sizes a descriptor pool for one uniform buffer set per image.
func UniformPool(sets int) vulkan.DescriptorPoolCreateInfo {
	return vulkan.DescriptorPoolCreateInfo{
		SType:         vulkan.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(sets),
		PoolSizeCount: 1,
		PPoolSizes: []vulkan.DescriptorPoolSize{{
			Type:            vulkan.DescriptorTypeUniformBuffer,
			DescriptorCount: uint32(sets),
		}},
	}
}

func ShaderModule(code []uint32) vulkan.ShaderModuleCreateInfo {
	return vulkan.ShaderModuleCreateInfo{
		SType:    vulkan.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
}
