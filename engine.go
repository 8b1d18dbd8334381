// Package avixel boots the renderer against a window and drives it from the host loop.
package avixel

import (
	"strconv"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/andewx/avixel/config"
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/render"
	"github.com/andewx/avixel/report"
)

const categoryEngine = "engine"

// Window is what the engine needs from the window layer beyond drawing into it.
type Window interface {
	render.Window
	RequiredInstanceExtensions() []string
	CreateSurface(inst gpu.Instance) error
	PollEvents()
	Destroy()
}

// Scene is the static content the engine draws.
type Scene struct {
	Geometry  render.Geometry
	Pipelines []render.PipelineDescriptor
}

// Engine owns every renderer resource attached to one window. The window is owned too and is
// destroyed with the engine.
type Engine struct {
	cfg      config.Config
	rep      *report.Reporter
	window   Window
	instance *render.RenderInstance
	device   *render.DeviceContext
	renderer *render.Renderer
}

// New creates the instance, surface, device, swapchain resources and pipelines in that order.
// On failure everything created so far is released, the window included.
func New(cfg config.Config, loader gpu.Loader, window Window, scene Scene, rep *report.Reporter) (*Engine, error) {
	e := &Engine{cfg: cfg, rep: rep, window: window}

	var err error
	e.instance, err = render.CreateInstance(loader, render.InstanceConfig{
		ApplicationName:    cfg.Project.Name,
		ApplicationVersion: packVersion(cfg.Project.Version),
		Validation:         cfg.Validation,
		Extensions:         window.RequiredInstanceExtensions(),
	}, rep)
	if err != nil {
		return nil, e.abort(err)
	}
	if err := window.CreateSurface(e.instance.Instance()); err != nil {
		return nil, e.abort(err)
	}
	if e.device, err = e.instance.CreateDevice(window.Surface()); err != nil {
		return nil, e.abort(err)
	}
	if e.renderer, err = render.CreateSwapchainResources(e.device, window, scene.Geometry); err != nil {
		return nil, e.abort(err)
	}
	if err := e.renderer.CreatePipelines(scene.Pipelines); err != nil {
		return nil, e.abort(err)
	}
	rep.Logf(report.CodeInfo, categoryEngine, "%s v%s running on %s", cfg.Project.Name, cfg.Project.Version,
		e.device.Properties().Name)
	return e, nil
}

func (e *Engine) abort(err error) error {
	e.Destroy()
	return err
}

// packVersion reads "major.minor.patch" into the API version layout. Missing parts are zero, as
// is any part too wide for its field along with those after it.
func packVersion(version string) uint32 {
	var parts [3]uint32
	bits := [3]int{10, 10, 12}
	for i, s := range strings.SplitN(version, ".", 3) {
		n, err := strconv.ParseUint(s, 10, bits[i])
		if err != nil {
			break
		}
		parts[i] = uint32(n)
	}
	return parts[0]<<22 | parts[1]<<12 | parts[2]
}

func (e *Engine) Reporter() *report.Reporter {
	return e.rep
}

func (e *Engine) Renderer() *render.Renderer {
	return e.renderer
}

func (e *Engine) Device() *render.DeviceContext {
	return e.device
}

// Update draws one frame unless the window has no drawable area, then polls window events.
func (e *Engine) Update() error {
	var err error
	if !e.inoperable() {
		err = e.renderer.RunFrame()
	}
	e.window.PollEvents()
	return err
}

func (e *Engine) inoperable() bool {
	if !e.window.Status().Has(render.StatusInoperable) {
		return false
	}
	width, height := e.window.FramebufferSize()
	return width == 0 || height == 0
}

// Status is the union of the instance, device and window statuses.
func (e *Engine) Status() render.Status {
	var s render.Status
	if e.instance != nil {
		s |= e.instance.Status()
	}
	if e.device != nil {
		s |= e.device.Status()
	}
	if e.window != nil {
		s |= e.window.Status()
	}
	return s
}

// ShutdownRequested reports whether the host loop should stop.
func (e *Engine) ShutdownRequested() bool {
	return e.Status().Has(render.Terminal)
}

// Run loops Update until shutdown is requested or a frame fails.
func (e *Engine) Run() error {
	for !e.ShutdownRequested() {
		if err := e.Update(); err != nil {
			return err
		}
	}
	if e.window.Status().Has(render.StatusShutdownRequested) {
		e.rep.Log(report.CodeDebugInfo, categoryEngine, "shutdown requested by window")
	}
	return nil
}

// Stats dumps the engine status with the renderer statistics.
func (e *Engine) Stats() []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("Status").String(e.Status().String())
	if e.renderer != nil {
		e.renderer.WriteStats(obj.Name("Renderer"))
	}
	obj.End()
	return w.Bytes()
}

// Destroy waits for the device, then releases pipelines, swapchain resources, the device, the
// window and the instance. It is safe on a partially built engine.
func (e *Engine) Destroy() {
	if e.device != nil {
		if err := e.device.WaitIdle(); err != nil {
			e.rep.Error(err)
		}
	}
	if e.renderer != nil {
		e.renderer.DestroyPipelines()
		e.renderer.Destroy()
		e.renderer = nil
	}
	if e.device != nil {
		e.device.Destroy()
		e.device = nil
	}
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}
}
