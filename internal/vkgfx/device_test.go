package vkgfx

import (
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/vulkan-go/vulkan"
)

func TestMissingNames(t *testing.T) {
	tests := []struct {
		name      string
		required  []string
		available []string
		want      []string
	}{
		{"all present", []string{"VK_KHR_swapchain\x00"}, []string{"VK_KHR_maintenance1", "VK_KHR_swapchain"}, nil},
		{"one missing", []string{"VK_LAYER_KHRONOS_validation\x00", "VK_KHR_swapchain\x00"}, []string{"VK_KHR_swapchain"}, []string{"VK_LAYER_KHRONOS_validation"}},
		{"nothing available", []string{"VK_KHR_swapchain\x00"}, nil, []string{"VK_KHR_swapchain"}},
		{"nothing required", nil, []string{"VK_KHR_swapchain"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := missingNames(tt.required, tt.available); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("missingNames = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChooseQueueFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []queueFamily
		want     queueFamilyIndices
	}{
		{
			"combined family preferred",
			[]queueFamily{{graphics: true}, {present: true}, {graphics: true, present: true}},
			queueFamilyIndices{graphicsFamily: 2, presentFamily: 2, hasGraphics: true, hasPresent: true},
		},
		{
			"split families",
			[]queueFamily{{present: true}, {graphics: true}, {graphics: true}},
			queueFamilyIndices{graphicsFamily: 1, presentFamily: 0, hasGraphics: true, hasPresent: true},
		},
		{
			"no present",
			[]queueFamily{{graphics: true}, {}},
			queueFamilyIndices{graphicsFamily: 0, hasGraphics: true},
		},
		{"no families", nil, queueFamilyIndices{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chooseQueueFamilies(tt.families)
			if got != tt.want {
				t.Errorf("chooseQueueFamilies = %+v, want %+v", got, tt.want)
			}
			if got.complete() != (tt.want.hasGraphics && tt.want.hasPresent) {
				t.Errorf("complete() = %v", got.complete())
			}
		})
	}
}

func TestBestCandidate(t *testing.T) {
	if _, ok := bestCandidate(nil); ok {
		t.Fatal("bestCandidate(nil) reported a device")
	}

	candidates := []gpuCandidate{
		{name: "llvmpipe", score: deviceTypeScore(vulkan.PhysicalDeviceTypeCpu)},
		{name: "intel", score: deviceTypeScore(vulkan.PhysicalDeviceTypeIntegratedGpu)},
		{name: "nvidia", score: deviceTypeScore(vulkan.PhysicalDeviceTypeDiscreteGpu)},
		{name: "amd", score: deviceTypeScore(vulkan.PhysicalDeviceTypeDiscreteGpu)},
	}
	best, ok := bestCandidate(candidates)
	if !ok || best.name != "nvidia" {
		t.Errorf("bestCandidate = %q, want the first discrete GPU", best.name)
	}
}

func TestDeviceTypeScoreOrder(t *testing.T) {
	order := []vulkan.PhysicalDeviceType{
		vulkan.PhysicalDeviceTypeDiscreteGpu,
		vulkan.PhysicalDeviceTypeIntegratedGpu,
		vulkan.PhysicalDeviceTypeVirtualGpu,
		vulkan.PhysicalDeviceTypeCpu,
		vulkan.PhysicalDeviceTypeOther,
	}
	for i := 1; i < len(order); i++ {
		if deviceTypeScore(order[i-1]) <= deviceTypeScore(order[i]) {
			t.Errorf("device type %d should outrank %d", order[i-1], order[i])
		}
	}
}

func TestDebugLevel(t *testing.T) {
	tests := []struct {
		name  string
		flags vulkan.DebugReportFlagBits
		want  log.Level
	}{
		{"error", vulkan.DebugReportErrorBit, log.ErrorLevel},
		{"error wins over warning", vulkan.DebugReportErrorBit | vulkan.DebugReportWarningBit, log.ErrorLevel},
		{"warning", vulkan.DebugReportWarningBit, log.WarnLevel},
		{"performance", vulkan.DebugReportPerformanceWarningBit, log.WarnLevel},
		{"information", vulkan.DebugReportInformationBit, log.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := debugLevel(vulkan.DebugReportFlags(tt.flags)); got != tt.want {
				t.Errorf("debugLevel = %v, want %v", got, tt.want)
			}
		})
	}
}
