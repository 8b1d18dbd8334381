// Package vulkan implements the gpu interfaces on top of github.com/vulkan-go/vulkan.
//
// Native handles never leave the package: every object is issued an opaque gpu handle from a
// per-kind table and resolved on each call.
package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
)

// Loader is the process-wide entry point. Only one loader should exist per process.
type Loader struct{}

// NewLoader installs the platform's vkGetInstanceProcAddr (for example
// glfw.GetVulkanGetInstanceProcAddress) and loads the global entry points.
func NewLoader(procAddr unsafe.Pointer) (*Loader, error) {
	if procAddr == nil {
		return nil, errors.New("vulkan: no vkGetInstanceProcAddr available")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vulkan: init")
	}
	return &Loader{}, nil
}

// InstanceExtensions lists instance extensions available on the platform.
func (l *Loader) InstanceExtensions() ([]string, gpu.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateInstanceExtensionProperties("", &count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	names := make([]string, 0, count)
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, gpu.Success
}

// InstanceLayers lists the instance layers installed on the platform.
func (l *Loader) InstanceLayers() ([]string, gpu.Result) {
	var count uint32
	if ret := vk.EnumerateInstanceLayerProperties(&count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.LayerProperties, count)
	if ret := vk.EnumerateInstanceLayerProperties(&count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	names := make([]string, 0, count)
	for _, layer := range list[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, gpu.Success
}

const (
	portabilityEnumeration             = "VK_KHR_portability_enumeration"
	instanceCreateEnumeratePortability = vk.InstanceCreateFlags(0x00000001)
)

// portability adds the enumeration extension MoltenVK needs to list its devices on darwin.
func (l *Loader) portability(extensions []string) ([]string, vk.InstanceCreateFlags) {
	if runtime.GOOS != "darwin" {
		return extensions, 0
	}
	if slices.Contains(extensions, portabilityEnumeration) {
		return extensions, instanceCreateEnumeratePortability
	}
	available, res := l.InstanceExtensions()
	if res != gpu.Success || !slices.Contains(available, portabilityEnumeration) {
		return extensions, 0
	}
	return append(slices.Clone(extensions), portabilityEnumeration), instanceCreateEnumeratePortability
}

func (l *Loader) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, gpu.Result) {
	var instance vk.Instance
	names, flags := l.portability(info.Extensions)
	extensions := safeStrings(names)
	layers := safeStrings(info.Layers)
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		Flags: flags,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         info.Application.APIVersion,
			ApplicationVersion: info.Application.ApplicationVersion,
			PApplicationName:   safeString(info.Application.ApplicationName),
			EngineVersion:      info.Application.EngineVersion,
			PEngineName:        safeString(info.Application.EngineName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	if ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, gpu.ErrorInitializationFailed
	}

	inst := newInstance(instance, layers)
	if info.Debug != nil {
		callback := info.Debug
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(debugReportAll),
			PfnCallback: inst.debugFunc(callback),
		}, nil, &inst.debugCallback)
		if ret != vk.Success {
			inst.Destroy()
			return nil, gpu.Result(ret)
		}
	}
	return inst, gpu.Success
}

var (
	_ gpu.Loader   = (*Loader)(nil)
	_ gpu.Instance = (*Instance)(nil)
	_ gpu.Device   = (*Device)(nil)
)
