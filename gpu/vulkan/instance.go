package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
)

// Instance wraps a vk.Instance along with the physical devices and surfaces issued from it.
type Instance struct {
	instance      vk.Instance
	layers        []string
	debugCallback vk.DebugReportCallback

	physical *table[gpu.PhysicalDevice, vk.PhysicalDevice]
	surfaces *table[gpu.Surface, vk.Surface]
}

func newInstance(instance vk.Instance, layers []string) *Instance {
	return &Instance{
		instance: instance,
		layers:   layers,
		physical: newTable[gpu.PhysicalDevice, vk.PhysicalDevice](4),
		surfaces: newTable[gpu.Surface, vk.Surface](2),
	}
}

// Native returns the vk.Instance, for window systems that create surfaces against it.
func (i *Instance) Native() any {
	return i.instance
}

// AdoptSurface takes ownership of a surface the window system created for this instance.
func (i *Instance) AdoptSurface(ptr uintptr) gpu.Surface {
	return i.surfaces.add(vk.SurfaceFromPointer(ptr))
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, gpu.Result) {
	if i.physical.len() == 0 {
		var count uint32
		if ret := vk.EnumeratePhysicalDevices(i.instance, &count, nil); ret != vk.Success {
			return nil, gpu.Result(ret)
		}
		list := make([]vk.PhysicalDevice, count)
		if ret := vk.EnumeratePhysicalDevices(i.instance, &count, list); ret != vk.Success {
			return nil, gpu.Result(ret)
		}
		for _, pd := range list[:count] {
			i.physical.add(pd)
		}
	}
	// Handles are issued in enumeration order, so 1..n is the platform's order.
	out := make([]gpu.PhysicalDevice, i.physical.len())
	for n := range out {
		out[n] = gpu.PhysicalDevice(n + 1)
	}
	return out, gpu.Success
}

func (i *Instance) Properties(physical gpu.PhysicalDevice) gpu.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(i.physical.get(physical), &props)
	props.Deref()
	return gpu.PhysicalDeviceProperties{
		Name:       vk.ToString(props.DeviceName[:]),
		Type:       gpu.DeviceType(props.DeviceType),
		APIVersion: props.ApiVersion,
		VendorID:   props.VendorID,
		DeviceID:   props.DeviceID,
	}
}

func (i *Instance) QueueFamilies(physical gpu.PhysicalDevice) []gpu.QueueFamilyProperties {
	pd := i.physical.get(physical)
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	list := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, list)

	out := make([]gpu.QueueFamilyProperties, count)
	for n := range out {
		list[n].Deref()
		out[n] = gpu.QueueFamilyProperties{
			Flags: gpu.QueueFlags(list[n].QueueFlags),
			Count: list[n].QueueCount,
		}
	}
	return out
}

func (i *Instance) SurfaceSupport(physical gpu.PhysicalDevice, family uint32, surface gpu.Surface) (bool, gpu.Result) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(i.physical.get(physical), family, i.surfaces.get(surface), &supported)
	if ret != vk.Success {
		return false, gpu.Result(ret)
	}
	return supported.B(), gpu.Success
}

func (i *Instance) DeviceExtensions(physical gpu.PhysicalDevice) ([]string, gpu.Result) {
	pd := i.physical.get(physical)
	var count uint32
	if ret := vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateDeviceExtensionProperties(pd, "", &count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	names := make([]string, 0, count)
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, gpu.Success
}

func (i *Instance) SurfaceCapabilities(physical gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceCapabilities, gpu.Result) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(i.physical.get(physical), i.surfaces.get(surface), &caps)
	if ret != vk.Success {
		return gpu.SurfaceCapabilities{}, gpu.Result(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return gpu.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           extent(caps.CurrentExtent),
		MinImageExtent:          extent(caps.MinImageExtent),
		MaxImageExtent:          extent(caps.MaxImageExtent),
		SupportedTransforms:     gpu.SurfaceTransform(caps.SupportedTransforms),
		CurrentTransform:        gpu.SurfaceTransform(caps.CurrentTransform),
		SupportedCompositeAlpha: gpu.CompositeAlpha(caps.SupportedCompositeAlpha),
	}, gpu.Success
}

func (i *Instance) SurfaceFormats(physical gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.SurfaceFormat, gpu.Result) {
	pd, s := i.physical.get(physical), i.surfaces.get(surface)
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfaceFormats(pd, s, &count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.SurfaceFormat, count)
	if ret := vk.GetPhysicalDeviceSurfaceFormats(pd, s, &count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	out := make([]gpu.SurfaceFormat, count)
	for n := range out {
		list[n].Deref()
		out[n] = gpu.SurfaceFormat{
			Format:     gpu.Format(list[n].Format),
			ColorSpace: gpu.ColorSpace(list[n].ColorSpace),
		}
	}
	return out, gpu.Success
}

func (i *Instance) PresentModes(physical gpu.PhysicalDevice, surface gpu.Surface) ([]gpu.PresentMode, gpu.Result) {
	pd, s := i.physical.get(physical), i.surfaces.get(surface)
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.PresentMode, count)
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	out := make([]gpu.PresentMode, count)
	for n, mode := range list[:count] {
		out[n] = gpu.PresentMode(mode)
	}
	return out, gpu.Success
}

func (i *Instance) MemoryProperties(physical gpu.PhysicalDevice) gpu.MemoryProperties {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(i.physical.get(physical), &props)
	props.Deref()

	out := gpu.MemoryProperties{Types: make([]gpu.MemoryType, props.MemoryTypeCount)}
	for n := range out.Types {
		props.MemoryTypes[n].Deref()
		out.Types[n] = gpu.MemoryType{
			Flags:     gpu.MemoryPropertyFlags(props.MemoryTypes[n].PropertyFlags),
			HeapIndex: props.MemoryTypes[n].HeapIndex,
		}
	}
	return out
}

// portabilitySubset must be enabled on implementations that advertise it.
const portabilitySubset = "VK_KHR_portability_subset"

func (i *Instance) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, gpu.Result) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.Queues))
	for n, q := range info.Queues {
		queueInfos[n] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.Family,
			QueueCount:       uint32(len(q.Priorities)),
			PQueuePriorities: q.Priorities,
		}
	}
	names := info.Extensions
	if available, res := i.DeviceExtensions(physical); res == gpu.Success &&
		slices.Contains(available, portabilitySubset) && !slices.Contains(names, portabilitySubset) {
		names = append(slices.Clone(names), portabilitySubset)
	}
	extensions := safeStrings(names)
	layers := safeStrings(info.Layers)

	var device vk.Device
	ret := vk.CreateDevice(i.physical.get(physical), &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	if ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	return newDevice(i, device), gpu.Success
}

func (i *Instance) DestroySurface(surface gpu.Surface) {
	if s, ok := i.surfaces.remove(surface); ok {
		vk.DestroySurface(i.instance, s, nil)
	}
}

// Destroy releases the debug callback, any surfaces still owned, and the instance.
func (i *Instance) Destroy() {
	i.surfaces.each(func(h gpu.Surface, s vk.Surface) {
		vk.DestroySurface(i.instance, s, nil)
	})
	i.surfaces = newTable[gpu.Surface, vk.Surface](0)
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.instance, i.debugCallback, nil)
		i.debugCallback = vk.NullDebugReportCallback
	}
	if i.instance != nil {
		vk.DestroyInstance(i.instance, nil)
		i.instance = nil
	}
}

func extent(e vk.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent(e gpu.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func vkRect(r gpu.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vkExtent(r.Extent),
	}
}
