package vkgfx

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	"github.com/vulkan-go/vulkan"

	"Quad/internal/vkinfo"
)

// ErrNoSuitableGPU means no physical device can both draw and present to
// the window surface.
var ErrNoSuitableGPU = errors.New("vkgfx: no suitable GPU")

func (s *System) createInstance() error {
	if !glfw.VulkanSupported() {
		return errors.New("GLFW Vulkan loader not found")
	}

	extensions := s.window.GetRequiredInstanceExtensions()
	builder := vkinfo.NewInstanceInfo().
		WithApplication(vkinfo.NewApplicationInfo().WithName(s.cfg.Title).WithVersion(0, 1, 0))
	if s.cfg.Validation {
		available, err := instanceLayerNames()
		if err != nil {
			return err
		}
		if missing := missingNames(validationLayers, available); len(missing) > 0 {
			return fmt.Errorf("validation layers unavailable: %s", strings.Join(missing, ", "))
		}
		extensions = append(extensions, "VK_EXT_debug_report\x00")
		builder = builder.WithLayers(validationLayers...)
	}

	createInfo := builder.WithExtensions(extensions...).Build()
	if res := vulkan.CreateInstance(&createInfo, nil, &s.instance); res != vulkan.Success {
		return fmt.Errorf("create instance: %w", vulkan.Error(res))
	}
	s.core.Push("instance", func() { vulkan.DestroyInstance(s.instance, nil) })

	if err := vulkan.InitInstance(s.instance); err != nil {
		return fmt.Errorf("init instance: %w", err)
	}
	return nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	if res := vulkan.EnumerateInstanceLayerProperties(&count, nil); res != vulkan.Success {
		return nil, fmt.Errorf("enumerate instance layers: %w", vulkan.Error(res))
	}
	props := make([]vulkan.LayerProperties, count)
	if res := vulkan.EnumerateInstanceLayerProperties(&count, props); res != vulkan.Success {
		return nil, fmt.Errorf("enumerate instance layers: %w", vulkan.Error(res))
	}
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vulkan.ToString(props[i].LayerName[:])
	}
	return names, nil
}

func deviceExtensionNames(device vulkan.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vulkan.Success {
		return nil, fmt.Errorf("enumerate device extensions: %w", vulkan.Error(res))
	}
	props := make([]vulkan.ExtensionProperties, count)
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vulkan.Success {
		return nil, fmt.Errorf("enumerate device extensions: %w", vulkan.Error(res))
	}
	names := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		names[i] = vulkan.ToString(props[i].ExtensionName[:])
	}
	return names, nil
}

// missingNames returns the required names absent from available, without
// their NUL terminators.
func missingNames(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[trimNul(name)] = true
	}
	var missing []string
	for _, name := range required {
		if name = trimNul(name); !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s *System) setupDebugCallback() error {
	if !s.cfg.Validation {
		return nil
	}
	flags := vulkan.DebugReportErrorBit | vulkan.DebugReportWarningBit | vulkan.DebugReportPerformanceWarningBit
	if s.logger.GetLevel() <= log.DebugLevel {
		flags |= vulkan.DebugReportInformationBit
	}
	createInfo := vulkan.DebugReportCallbackCreateInfo{
		SType:       vulkan.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vulkan.DebugReportFlags(flags),
		PfnCallback: s.onDebugReport,
	}
	if res := vulkan.CreateDebugReportCallback(s.instance, &createInfo, nil, &s.debugCallback); res != vulkan.Success {
		return fmt.Errorf("create debug callback: %w", vulkan.Error(res))
	}
	s.core.Push("debug callback", func() { vulkan.DestroyDebugReportCallback(s.instance, s.debugCallback, nil) })
	return nil
}

func (s *System) onDebugReport(flags vulkan.DebugReportFlags, _ vulkan.DebugReportObjectType, _ uint64, _ uint, code int32, layer string, message string, _ unsafe.Pointer) vulkan.Bool32 {
	s.logger.Log(debugLevel(flags), message, "layer", layer, "code", code)
	return vulkan.False
}

// debugLevel maps validation report flags onto a log level, taking the most
// severe bit present.
func debugLevel(flags vulkan.DebugReportFlags) log.Level {
	switch {
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportErrorBit) != 0:
		return log.ErrorLevel
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportWarningBit|vulkan.DebugReportPerformanceWarningBit) != 0:
		return log.WarnLevel
	default:
		return log.DebugLevel
	}
}

func (s *System) createSurface() error {
	surfacePtr, err := s.window.CreateWindowSurface(s.instance, nil)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}
	s.surface = vulkan.SurfaceFromPointer(surfacePtr)
	s.core.Push("surface", func() { vulkan.DestroySurface(s.instance, s.surface, nil) })
	return nil
}

// gpuCandidate is a physical device that passed every suitability check.
type gpuCandidate struct {
	device vulkan.PhysicalDevice
	name   string
	score  int
	queues queueFamilyIndices
}

func (s *System) pickPhysicalDevice() error {
	var count uint32
	if res := vulkan.EnumeratePhysicalDevices(s.instance, &count, nil); res != vulkan.Success {
		return fmt.Errorf("enumerate physical devices: %w", vulkan.Error(res))
	}
	devices := make([]vulkan.PhysicalDevice, count)
	if count > 0 {
		if res := vulkan.EnumeratePhysicalDevices(s.instance, &count, devices); res != vulkan.Success {
			return fmt.Errorf("enumerate physical devices: %w", vulkan.Error(res))
		}
	}

	var candidates []gpuCandidate
	for _, dev := range devices {
		c, err := s.inspectDevice(dev)
		if err != nil {
			s.logger.Debug("skipping GPU", "name", c.name, "reason", err)
			continue
		}
		candidates = append(candidates, c)
	}

	best, ok := bestCandidate(candidates)
	if !ok {
		return fmt.Errorf("%w among %d devices", ErrNoSuitableGPU, len(devices))
	}
	s.physicalDevice = best.device
	s.queues = best.queues
	s.logger.Info("selected GPU", "name", best.name, "score", best.score)
	return nil
}

// inspectDevice scores dev, or explains why it cannot drive the surface.
func (s *System) inspectDevice(dev vulkan.PhysicalDevice) (gpuCandidate, error) {
	var props vulkan.PhysicalDeviceProperties
	vulkan.GetPhysicalDeviceProperties(dev, &props)
	props.Deref()
	c := gpuCandidate{
		device: dev,
		name:   vulkan.ToString(props.DeviceName[:]),
		score:  deviceTypeScore(props.DeviceType),
		queues: chooseQueueFamilies(s.queueFamilies(dev)),
	}

	if !c.queues.complete() {
		return c, errors.New("no graphics and present queues")
	}
	exts, err := deviceExtensionNames(dev)
	if err != nil {
		return c, err
	}
	if missing := missingNames(deviceExtensions, exts); len(missing) > 0 {
		return c, fmt.Errorf("missing extensions: %s", strings.Join(missing, ", "))
	}
	support := s.querySwapchainSupport(dev)
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		return c, errors.New("surface has no formats or present modes")
	}
	return c, nil
}

// bestCandidate returns the highest scoring candidate. Ties go to the device
// the loader listed first.
func bestCandidate(candidates []gpuCandidate) (gpuCandidate, bool) {
	if len(candidates) == 0 {
		return gpuCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best, true
}

func deviceTypeScore(t vulkan.PhysicalDeviceType) int {
	switch t {
	case vulkan.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case vulkan.PhysicalDeviceTypeIntegratedGpu:
		return 500
	case vulkan.PhysicalDeviceTypeVirtualGpu:
		return 100
	case vulkan.PhysicalDeviceTypeCpu:
		return 10
	default:
		return 1
	}
}

// queueFamily is what device selection needs to know about one family.
type queueFamily struct {
	graphics bool
	present  bool
}

func (s *System) queueFamilies(device vulkan.PhysicalDevice) []queueFamily {
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)

	families := make([]queueFamily, count)
	for i := range props {
		props[i].Deref()
		var present vulkan.Bool32
		vulkan.GetPhysicalDeviceSurfaceSupport(device, uint32(i), s.surface, &present)
		families[i] = queueFamily{
			graphics: props[i].QueueFlags&vulkan.QueueFlags(vulkan.QueueGraphicsBit) != 0,
			present:  present == vulkan.True,
		}
	}
	return families
}

// chooseQueueFamilies prefers a single family that can both draw and
// present, so the swapchain images need no ownership transfer. Otherwise
// it takes the first family of each kind.
func chooseQueueFamilies(families []queueFamily) queueFamilyIndices {
	var q queueFamilyIndices
	for i, f := range families {
		idx := uint32(i)
		if f.graphics && f.present {
			return queueFamilyIndices{graphicsFamily: idx, presentFamily: idx, hasGraphics: true, hasPresent: true}
		}
		if f.graphics && !q.hasGraphics {
			q.graphicsFamily, q.hasGraphics = idx, true
		}
		if f.present && !q.hasPresent {
			q.presentFamily, q.hasPresent = idx, true
		}
	}
	return q
}

func (s *System) createLogicalDevice() error {
	builder := vkinfo.NewDevice(s.queues.graphicsFamily, s.queues.presentFamily).
		WithExtensions(deviceExtensions...)
	if s.cfg.Validation {
		builder = builder.WithLayers(validationLayers...)
	}
	createInfo := builder.Build()

	if res := vulkan.CreateDevice(s.physicalDevice, &createInfo, nil, &s.device); res != vulkan.Success {
		return fmt.Errorf("create logical device: %w", vulkan.Error(res))
	}
	s.core.Push("device", func() {
		vulkan.DestroyDevice(s.device, nil)
		s.device = vulkan.Device(vulkan.NullHandle)
	})

	vulkan.GetDeviceQueue(s.device, s.queues.graphicsFamily, 0, &s.graphicsQueue)
	vulkan.GetDeviceQueue(s.device, s.queues.presentFamily, 0, &s.presentQueue)
	return nil
}

func trimNul(s string) string {
	return strings.TrimSuffix(s, "\x00")
}
