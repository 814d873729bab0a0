package vkinfo

import "github.com/vulkan-go/vulkan"

// Device describes a logical device with one queue per distinct family.
type Device struct {
	families   []uint32
	extensions []string
	layers     []string
}

// NewDevice requests a queue from each family. Repeated indices collapse
// into one queue, as Vulkan rejects duplicate family entries.
func NewDevice(families ...uint32) Device {
	var b Device
	seen := make(map[uint32]bool, len(families))
	for _, f := range families {
		if seen[f] {
			continue
		}
		seen[f] = true
		b.families = append(b.families, f)
	}
	return b
}

func (b Device) WithExtensions(extensions ...string) Device {
	b.extensions = append([]string(nil), extensions...)
	return b
}

// WithLayers sets device layers. Modern loaders ignore them, but older
// implementations still expect the instance layers repeated here.
func (b Device) WithLayers(layers ...string) Device {
	b.layers = append([]string(nil), layers...)
	return b
}

func (b Device) Build() vulkan.DeviceCreateInfo {
	queues := make([]vulkan.DeviceQueueCreateInfo, len(b.families))
	for i, f := range b.families {
		queues[i] = vulkan.DeviceQueueCreateInfo{
			SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: f,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	info := vulkan.DeviceCreateInfo{
		SType:                   vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(b.extensions)),
		PpEnabledExtensionNames: b.extensions,
	}
	if len(b.layers) > 0 {
		info.EnabledLayerCount = uint32(len(b.layers))
		info.PpEnabledLayerNames = b.layers
	}
	return info
}
