package render

import (
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryInstance = "instance"

const DebugReportExtensionName = "VK_EXT_debug_report"

var ValidationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// EngineVersion packs as an API version number (major 0, minor 1).
const EngineVersion = 0<<22 | 1<<12

type InstanceConfig struct {
	ApplicationName    string
	ApplicationVersion uint32
	// Validation requests the validation layers and the debug channel.
	Validation bool
	// Extensions are required by the window layer.
	Extensions []string
}

// RenderInstance owns the API instance and the validation callback installed with it.
type RenderInstance struct {
	loader     gpu.Loader
	instance   gpu.Instance
	extensions []string
	layers     []string
	validation bool
	status     Status
	rep        *report.Reporter
}

// CreateInstance creates the API instance. Validation requested but absent is a warning and the
// instance is created without it.
func CreateInstance(loader gpu.Loader, cfg InstanceConfig, rep *report.Reporter) (*RenderInstance, error) {
	ri := &RenderInstance{loader: loader, rep: rep}

	available, res := loader.InstanceExtensions()
	if err := gpu.Check(res); err != nil {
		return nil, report.Wrapf(err, report.CodeNoSupport, categoryInstance, "enumerate instance extensions")
	}
	for _, name := range cfg.Extensions {
		if !slices.Contains(available, name) {
			return nil, report.Errorf(report.CodeNoSupport, categoryInstance, "instance extension %s not supported", name)
		}
	}
	ri.extensions = slices.Clone(cfg.Extensions)

	if cfg.Validation {
		ri.validation = ri.negotiateValidation(available)
	}

	info := gpu.InstanceCreateInfo{
		Application: gpu.ApplicationInfo{
			ApplicationName:    cfg.ApplicationName,
			ApplicationVersion: cfg.ApplicationVersion,
			EngineName:         "avixel",
			EngineVersion:      EngineVersion,
			APIVersion:         1<<22 | 0<<12,
		},
		Extensions: ri.extensions,
		Layers:     ri.layers,
	}
	if ri.validation {
		info.Debug = rep.Validation
	}

	instance, res := loader.CreateInstance(info)
	if err := gpu.Check(res); err != nil {
		return nil, report.Wrapf(err, report.CodeCreationError, categoryInstance, "create instance")
	}
	ri.instance = instance
	rep.Log(report.CodeDebugCreate, categoryInstance, "render instance created")
	return ri, nil
}

func (ri *RenderInstance) negotiateValidation(extensions []string) bool {
	layers, res := ri.loader.InstanceLayers()
	if res != gpu.Success {
		layers = nil
	}
	for _, name := range ValidationLayers {
		if !slices.Contains(layers, name) {
			ri.rep.Logf(report.CodeValidationNotPresent, categoryInstance,
				"validation requested but layer %s is not present", name)
			return false
		}
	}
	if !slices.Contains(extensions, DebugReportExtensionName) {
		ri.rep.Logf(report.CodeValidationNotPresent, categoryInstance,
			"validation requested but %s is not supported", DebugReportExtensionName)
		return false
	}
	ri.layers = slices.Clone(ValidationLayers)
	ri.extensions = append(ri.extensions, DebugReportExtensionName)
	ri.rep.Log(report.CodeValidationPresent, categoryInstance, "validation layers enabled")
	return true
}

func (ri *RenderInstance) Instance() gpu.Instance {
	return ri.instance
}

// Validation reports whether the validation layers were negotiated.
func (ri *RenderInstance) Validation() bool {
	return ri.validation
}

func (ri *RenderInstance) Layers() []string {
	return ri.layers
}

func (ri *RenderInstance) Reporter() *report.Reporter {
	return ri.rep
}

func (ri *RenderInstance) Status() Status {
	return ri.status
}

// CreateDevice probes the adapters against surface and opens the best one.
func (ri *RenderInstance) CreateDevice(surface gpu.Surface) (*DeviceContext, error) {
	choice, err := SelectDevice(ri.instance, surface, ri.rep)
	if err != nil {
		ri.status.Set(StatusFatalError)
		return nil, err
	}
	ctx, err := CreateDevice(ri, choice, ri.validation)
	if err != nil {
		ri.status.Set(StatusFatalError)
		return nil, err
	}
	return ctx, nil
}

// Destroy releases the instance. Every device and surface created from it must be gone.
func (ri *RenderInstance) Destroy() {
	if ri.instance == nil {
		return
	}
	ri.instance.Destroy()
	ri.instance = nil
	ri.rep.Log(report.CodeDebugDestroy, categoryInstance, "render instance destroyed")
}
