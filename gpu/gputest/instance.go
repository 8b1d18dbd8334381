// Package gputest is an in-memory backend for driving the engine without a GPU. Submitted work
// completes when the host waits for it, so fence and semaphore misuse shows up as Violations.
package gputest

import (
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
)

// PhysicalDevice describes one fake adapter.
type PhysicalDevice struct {
	Properties    gpu.PhysicalDeviceProperties
	QueueFamilies []gpu.QueueFamilyProperties
	// PresentFamilies lists the families that can present to any surface.
	PresentFamilies []uint32
	Extensions      []string
	Formats         []gpu.SurfaceFormat
	PresentModes    []gpu.PresentMode
	Memory          gpu.MemoryProperties
}

// DefaultMemory has one device-local type and one host-visible coherent type.
func DefaultMemory() gpu.MemoryProperties {
	return gpu.MemoryProperties{Types: []gpu.MemoryType{
		{Flags: gpu.MemoryDeviceLocal},
		{Flags: gpu.MemoryHostVisible | gpu.MemoryHostCoherent, HeapIndex: 1},
	}}
}

// NewPhysicalDevice is a capable discrete GPU with one graphics+present family.
func NewPhysicalDevice(name string) PhysicalDevice {
	return PhysicalDevice{
		Properties:      gpu.PhysicalDeviceProperties{Name: name, Type: gpu.DeviceTypeDiscreteGPU},
		QueueFamilies:   []gpu.QueueFamilyProperties{{Flags: gpu.QueueGraphics | gpu.QueueTransfer, Count: 1}},
		PresentFamilies: []uint32{0},
		Extensions:      []string{gpu.SwapchainExtensionName},
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
			{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox},
		Memory:       DefaultMemory(),
	}
}

// DefaultCapabilities reports a fixed 1280x720 surface with 2..4 images.
func DefaultCapabilities() gpu.SurfaceCapabilities {
	return gpu.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           4,
		CurrentExtent:           gpu.Extent2D{Width: 1280, Height: 720},
		MinImageExtent:          gpu.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:          gpu.Extent2D{Width: 4096, Height: 4096},
		SupportedTransforms:     gpu.SurfaceTransformIdentity,
		CurrentTransform:        gpu.SurfaceTransformIdentity,
		SupportedCompositeAlpha: gpu.CompositeAlphaOpaque,
	}
}

type Loader struct {
	Extensions []string
	Layers     []string
	Instance   *Instance
	Result     gpu.Result
	// Info is the last create request.
	Info gpu.InstanceCreateInfo
}

func NewLoader(inst *Instance) *Loader {
	return &Loader{
		Extensions: []string{"VK_KHR_surface", "VK_EXT_debug_report"},
		Layers:     []string{"VK_LAYER_KHRONOS_validation"},
		Instance:   inst,
	}
}

func (l *Loader) InstanceExtensions() ([]string, gpu.Result) {
	return slices.Clone(l.Extensions), gpu.Success
}

func (l *Loader) InstanceLayers() ([]string, gpu.Result) {
	return slices.Clone(l.Layers), gpu.Success
}

func (l *Loader) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, gpu.Result) {
	l.Info = info
	if l.Result != gpu.Success {
		return nil, l.Result
	}
	l.Instance.Debug = info.Debug
	return l.Instance, gpu.Success
}

type Instance struct {
	Devices      []PhysicalDevice
	Capabilities gpu.SurfaceCapabilities
	// DeviceResult fails CreateDevice when not Success.
	DeviceResult gpu.Result

	// Device is the last logical device created and DeviceInfo its request.
	Device     *Device
	DeviceInfo gpu.DeviceCreateInfo
	Physical   gpu.PhysicalDevice

	Debug             gpu.DebugCallback
	DestroyedSurfaces []gpu.Surface
	Destroyed         bool
}

func NewInstance(devices ...PhysicalDevice) *Instance {
	return &Instance{Devices: devices, Capabilities: DefaultCapabilities()}
}

func (i *Instance) device(physical gpu.PhysicalDevice) (PhysicalDevice, bool) {
	idx := int(physical) - 1
	if idx < 0 || idx >= len(i.Devices) {
		return PhysicalDevice{}, false
	}
	return i.Devices[idx], true
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, gpu.Result) {
	out := make([]gpu.PhysicalDevice, len(i.Devices))
	for n := range i.Devices {
		out[n] = gpu.PhysicalDevice(n + 1)
	}
	return out, gpu.Success
}

func (i *Instance) Properties(physical gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	d, _ := i.device(physical)
	return d.Properties
}

func (i *Instance) QueueFamilies(physical gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	d, _ := i.device(physical)
	return slices.Clone(d.QueueFamilies)
}

func (i *Instance) SurfaceSupport(physical gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, gpu.Result) {
	d, ok := i.device(physical)
	if !ok || surface == 0 {
		return false, gpu.ErrorSurfaceLost
	}
	return slices.Contains(d.PresentFamilies, family), gpu.Success
}

func (i *Instance) DeviceExtensions(physical gpu.PhysicalDevice) ([]string, gpu.Result) {
	d, _ := i.device(physical)
	return slices.Clone(d.Extensions), gpu.Success
}

func (i *Instance) SurfaceCapabilities(physical gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, gpu.Result) {
	if surface == 0 {
		return gpu.SurfaceCapabilities{}, gpu.ErrorSurfaceLost
	}
	return i.Capabilities, gpu.Success
}

func (i *Instance) SurfaceFormats(physical gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, gpu.Result) {
	d, _ := i.device(physical)
	return slices.Clone(d.Formats), gpu.Success
}

func (i *Instance) PresentModes(physical gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, gpu.Result) {
	d, _ := i.device(physical)
	return slices.Clone(d.PresentModes), gpu.Success
}

func (i *Instance) MemoryProperties(physical gpu.PhysicalDevice) gpu.MemoryProperties {
	d, _ := i.device(physical)
	return d.Memory
}

func (i *Instance) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, gpu.Result) {
	if i.DeviceResult != gpu.Success {
		return nil, i.DeviceResult
	}
	i.Physical = physical
	i.DeviceInfo = info
	i.Device = NewDevice(i)
	return i.Device, gpu.Success
}

func (i *Instance) DestroySurface(surface gpu.Surface) {
	i.DestroyedSurfaces = append(i.DestroyedSurfaces, surface)
}

func (i *Instance) Destroy() {
	i.Destroyed = true
}

// Emit pushes a message through the installed validation callback.
func (i *Instance) Emit(msg gpu.DebugMessage) {
	if i.Debug != nil {
		i.Debug(msg)
	}
}
