package vkgfx

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/vulkan-go/vulkan"

	"Quad/internal/geom"
	"Quad/internal/vkinfo"
)

type buffer struct {
	handle vulkan.Buffer
	memory vulkan.DeviceMemory
	size   vulkan.DeviceSize
}

const hostVisible = vulkan.MemoryPropertyHostVisibleBit | vulkan.MemoryPropertyHostCoherentBit

func (s *System) findMemoryType(typeFilter uint32, properties vulkan.MemoryPropertyFlagBits) (uint32, error) {
	var memProps vulkan.PhysicalDeviceMemoryProperties
	vulkan.GetPhysicalDeviceMemoryProperties(s.physicalDevice, &memProps)
	memProps.Deref()

	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memoryType := memProps.MemoryTypes[i]
		memoryType.Deref()
		if typeFilter&(1<<i) != 0 && memoryType.PropertyFlags&vulkan.MemoryPropertyFlags(properties) == vulkan.MemoryPropertyFlags(properties) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches filter 0x%x with properties 0x%x", typeFilter, properties)
}

func (s *System) createBuffer(info vkinfo.Buffer, properties vulkan.MemoryPropertyFlagBits) (buffer, error) {
	createInfo := info.Build()
	b := buffer{size: info.Size()}
	if res := vulkan.CreateBuffer(s.device, &createInfo, nil, &b.handle); res != vulkan.Success {
		return buffer{}, fmt.Errorf("create buffer: %w", vulkan.Error(res))
	}

	var memReq vulkan.MemoryRequirements
	vulkan.GetBufferMemoryRequirements(s.device, b.handle, &memReq)
	memReq.Deref()
	memType, err := s.findMemoryType(memReq.MemoryTypeBits, properties)
	if err != nil {
		vulkan.DestroyBuffer(s.device, b.handle, nil)
		return buffer{}, err
	}

	allocInfo := vulkan.MemoryAllocateInfo{
		SType:           vulkan.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReq.Size,
		MemoryTypeIndex: memType,
	}
	if res := vulkan.AllocateMemory(s.device, &allocInfo, nil, &b.memory); res != vulkan.Success {
		vulkan.DestroyBuffer(s.device, b.handle, nil)
		return buffer{}, fmt.Errorf("allocate buffer memory: %w", vulkan.Error(res))
	}
	if res := vulkan.BindBufferMemory(s.device, b.handle, b.memory, 0); res != vulkan.Success {
		s.destroyBuffer(b)
		return buffer{}, fmt.Errorf("bind buffer memory: %w", vulkan.Error(res))
	}
	return b, nil
}

func (s *System) destroyBuffer(b buffer) {
	vulkan.DestroyBuffer(s.device, b.handle, nil)
	vulkan.FreeMemory(s.device, b.memory, nil)
}

// upload copies data into host-visible memory backing b.
func (s *System) upload(b buffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if vulkan.DeviceSize(len(data)) > b.size {
		return fmt.Errorf("upload of %d bytes overflows %d byte buffer", len(data), b.size)
	}
	var mapped unsafe.Pointer
	if res := vulkan.MapMemory(s.device, b.memory, 0, vulkan.DeviceSize(len(data)), 0, &mapped); res != vulkan.Success {
		return fmt.Errorf("map memory: %w", vulkan.Error(res))
	}
	copy(unsafe.Slice((*byte)(mapped), len(data)), data)
	vulkan.UnmapMemory(s.device, b.memory)
	return nil
}

// createGeometryBuffers uploads the quad once; it never changes.
func (s *System) createGeometryBuffers() error {
	vertices := geom.VertexBytes(geom.QuadVertices[:])
	vb, err := s.createBuffer(vkinfo.NewBuffer(len(vertices)), hostVisible)
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	s.vertexBuffer = vb
	s.core.Push("vertex buffer", func() { s.destroyBuffer(s.vertexBuffer) })
	if err := s.upload(vb, vertices); err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}

	indices := geom.IndexBytes(geom.QuadIndices[:])
	ib, err := s.createBuffer(vkinfo.NewBuffer(len(indices)).WithUsage(vulkan.BufferUsageIndexBufferBit), hostVisible)
	if err != nil {
		return fmt.Errorf("index buffer: %w", err)
	}
	s.indexBuffer = ib
	s.core.Push("index buffer", func() { s.destroyBuffer(s.indexBuffer) })
	if err := s.upload(ib, indices); err != nil {
		return fmt.Errorf("index buffer: %w", err)
	}
	return nil
}

func (s *System) createUniformBuffers() error {
	size := int(unsafe.Sizeof(geom.UniformBufferObject{}))
	s.uniformBuffers = make([]buffer, 0, len(s.swapchainImages))
	s.swap.Push("uniform buffers", func() {
		for _, b := range s.uniformBuffers {
			s.destroyBuffer(b)
		}
		s.uniformBuffers = nil
	})
	for i := range s.swapchainImages {
		b, err := s.createBuffer(vkinfo.NewBuffer(size).WithUsage(vulkan.BufferUsageUniformBufferBit), hostVisible)
		if err != nil {
			return fmt.Errorf("uniform buffer %d: %w", i, err)
		}
		s.uniformBuffers = append(s.uniformBuffers, b)
	}
	return nil
}

// createDescriptorSets allocates one uniform descriptor set per image and
// points each at that image's uniform buffer.
func (s *System) createDescriptorSets() error {
	count := len(s.swapchainImages)
	poolInfo := vkinfo.UniformPool(count)
	if res := vulkan.CreateDescriptorPool(s.device, &poolInfo, nil, &s.descriptorPool); res != vulkan.Success {
		return fmt.Errorf("create descriptor pool: %w", vulkan.Error(res))
	}
	s.swap.Push("descriptor pool", func() {
		vulkan.DestroyDescriptorPool(s.device, s.descriptorPool, nil)
		s.descriptorSets = nil
	})

	layouts := make([]vulkan.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = s.descriptorSetLayout
	}
	allocInfo := vulkan.DescriptorSetAllocateInfo{
		SType:              vulkan.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     s.descriptorPool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}
	s.descriptorSets = make([]vulkan.DescriptorSet, count)
	if res := vulkan.AllocateDescriptorSets(s.device, &allocInfo, &s.descriptorSets[0]); res != vulkan.Success {
		return fmt.Errorf("allocate descriptor sets: %w", vulkan.Error(res))
	}

	for i, set := range s.descriptorSets {
		write := vulkan.WriteDescriptorSet{
			SType:           vulkan.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorType:  vulkan.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo: []vulkan.DescriptorBufferInfo{{
				Buffer: s.uniformBuffers[i].handle,
				Range:  s.uniformBuffers[i].size,
			}},
		}
		vulkan.UpdateDescriptorSets(s.device, 1, []vulkan.WriteDescriptorSet{write}, 0, nil)
	}
	return nil
}

// Update writes this frame's transforms into the uniform buffer of image.
func (s *System) Update(image uint32, elapsed time.Duration) error {
	if int(image) >= len(s.uniformBuffers) {
		return fmt.Errorf("image %d out of range (%d images)", image, len(s.uniformBuffers))
	}
	ubo := geom.NewUniform(elapsed, aspect(s.swapchainExtent))
	return s.upload(s.uniformBuffers[image], geom.UniformBytes(&ubo))
}

func aspect(extent vulkan.Extent2D) float32 {
	if extent.Height == 0 {
		return 1
	}
	return float32(extent.Width) / float32(extent.Height)
}
