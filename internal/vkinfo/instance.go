// Package vkinfo builds the Vulkan create-info structs used by the renderer.
//
// Every builder is a plain value. With* methods return a modified copy, so a
// partially configured builder can be shared and specialised without aliasing.
package vkinfo

import "github.com/vulkan-go/vulkan"

type ApplicationInfo struct {
	name          string
	engine        string
	version       uint32
	engineVersion uint32
	apiVersion    uint32
}

func NewApplicationInfo() ApplicationInfo {
	return ApplicationInfo{
		name:          "Vulkan Application",
		engine:        "No Engine",
		version:       vulkan.MakeVersion(1, 0, 0),
		engineVersion: vulkan.MakeVersion(1, 0, 0),
		apiVersion:    vulkan.MakeVersion(1, 0, 0),
	}
}

func (b ApplicationInfo) WithName(name string) ApplicationInfo {
	b.name = name
	return b
}

func (b ApplicationInfo) WithVersion(major, minor, patch int) ApplicationInfo {
	b.version = vulkan.MakeVersion(major, minor, patch)
	return b
}

func (b ApplicationInfo) Build() vulkan.ApplicationInfo {
	return vulkan.ApplicationInfo{
		SType:              vulkan.StructureTypeApplicationInfo,
		PApplicationName:   b.name,
		ApplicationVersion: b.version,
		PEngineName:        b.engine,
		EngineVersion:      b.engineVersion,
		ApiVersion:         b.apiVersion,
	}
}

type InstanceInfo struct {
	app        ApplicationInfo
	layers     []string
	extensions []string
}

func NewInstanceInfo() InstanceInfo {
	return InstanceInfo{app: NewApplicationInfo()}
}

func (b InstanceInfo) WithApplication(app ApplicationInfo) InstanceInfo {
	b.app = app
	return b
}

func (b InstanceInfo) WithLayers(layers ...string) InstanceInfo {
	b.layers = append([]string(nil), layers...)
	return b
}

func (b InstanceInfo) WithExtensions(extensions ...string) InstanceInfo {
	b.extensions = append([]string(nil), extensions...)
	return b
}

func (b InstanceInfo) Build() vulkan.InstanceCreateInfo {
	app := b.app.Build()
	info := vulkan.InstanceCreateInfo{
		SType:                   vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &app,
		EnabledExtensionCount:   uint32(len(b.extensions)),
		PpEnabledExtensionNames: b.extensions,
	}
	if len(b.layers) > 0 {
		info.EnabledLayerCount = uint32(len(b.layers))
		info.PpEnabledLayerNames = b.layers
	}
	return info
}
