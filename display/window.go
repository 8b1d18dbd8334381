// Package display owns the glfw window the renderer presents into. Framebuffer and close
// events are folded into render.Status bits polled by the host loop.
package display

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/andewx/avixel/config"
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/render"
	"github.com/andewx/avixel/report"
)

// SurfaceTarget is an instance the window system can create surfaces for.
type SurfaceTarget interface {
	Native() any
	AdoptSurface(ptr uintptr) gpu.Surface
}

// Hooks are optional host callbacks run after the status bits are updated.
type Hooks struct {
	OnResize func(width, height int)
	OnClose  func()
}

type Window struct {
	window   *glfw.Window
	instance gpu.Instance
	surface  gpu.Surface
	status   render.Status
	hooks    Hooks
	rep      *report.Reporter
}

// Init initializes glfw. It must run on the main OS thread.
func Init() error {
	if err := glfw.Init(); err != nil {
		return report.Wrapf(err, report.CodeCreationError, categoryWindow, "initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return report.Errorf(report.CodeNoSupport, categoryWindow, "no Vulkan loader found")
	}
	return nil
}

func Terminate() {
	glfw.Terminate()
}

// Open creates a window with no client API bound, ready for surface creation.
func Open(cfg config.Window, hooks Hooks, rep *report.Reporter) (*Window, error) {
	monitor := pickMonitor(cfg.Monitor, rep)
	var mode VideoMode
	if monitor != nil {
		if vm := monitor.GetVideoMode(); vm != nil {
			mx, my := monitor.GetPos()
			mode = VideoMode{X: mx, Y: my, Width: vm.Width, Height: vm.Height}
		}
	}
	placement, err := Place(cfg, mode, rep)
	if err != nil {
		return nil, err
	}
	if cfg.Resizable && hooks.OnResize == nil {
		rep.Log(report.CodeUnspecifiedCallback, categoryWindow, "resizable window has no resize callback")
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, hint(cfg.Resizable))
	glfw.WindowHint(glfw.Decorated, hint(cfg.Decorated))
	glfw.WindowHint(glfw.Visible, glfw.False)

	var fullscreen *glfw.Monitor
	if cfg.Fullscreen {
		fullscreen = monitor
	}
	win, err := glfw.CreateWindow(placement.Width, placement.Height, cfg.Title, fullscreen, nil)
	if err != nil {
		return nil, report.Wrapf(err, report.CodeCreationError, categoryWindow, "create window %q", cfg.Title)
	}
	if placement.Positioned() && fullscreen == nil {
		win.SetPos(placement.X, placement.Y)
	}

	w := &Window{window: win, hooks: hooks, rep: rep}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		w.closed()
	})
	win.Show()
	rep.Logf(report.CodeDebugCreate, categoryWindow, "window %q created %dx%d", cfg.Title, placement.Width, placement.Height)
	return w, nil
}

func pickMonitor(index int, rep *report.Reporter) *glfw.Monitor {
	monitors := glfw.GetMonitors()
	if index >= 0 && index < len(monitors) {
		return monitors[index]
	}
	if index != 0 {
		rep.Logf(report.CodeUnusualArguments, categoryWindow,
			"monitor %d not connected, using the primary monitor", index)
	}
	return glfw.GetPrimaryMonitor()
}

func hint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (w *Window) resized(width, height int) {
	applyResize(&w.status, width, height)
	if w.hooks.OnResize != nil {
		w.hooks.OnResize(width, height)
	}
}

func (w *Window) closed() {
	w.status.Set(render.StatusShutdownRequested)
	w.rep.Log(report.CodeShutdownRequested, categoryWindow, "window close requested")
	if w.hooks.OnClose != nil {
		w.hooks.OnClose()
	}
}

// applyResize folds a framebuffer size notification into status.
func applyResize(status *render.Status, width, height int) {
	if width == 0 || height == 0 {
		status.Set(render.StatusInoperable)
		return
	}
	status.Clear(render.StatusInoperable)
	status.Set(render.StatusResized)
}

// RequiredInstanceExtensions lists the instance extensions surfaces for this window need.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface creates the presentation surface against inst. The instance must come from a
// backend that exposes its native handle.
func (w *Window) CreateSurface(inst gpu.Instance) error {
	if w.surface != 0 {
		return report.Errorf(report.CodeAlreadyInitialized, categoryWindow, "surface already created")
	}
	target, ok := inst.(SurfaceTarget)
	if !ok {
		return report.Errorf(report.CodeNoSupport, categoryWindow, "instance %T cannot host a window surface", inst)
	}
	ptr, err := w.window.CreateWindowSurface(target.Native(), nil)
	if err != nil {
		return report.Wrapf(err, report.CodeCreationError, categoryWindow, "create window surface")
	}
	w.instance = inst
	w.surface = target.AdoptSurface(ptr)
	return nil
}

func (w *Window) Surface() gpu.Surface {
	return w.surface
}

func (w *Window) FramebufferSize() (width, height int) {
	return w.window.GetFramebufferSize()
}

func (w *Window) Status() render.Status {
	return w.status
}

func (w *Window) SetStatus(bits render.Status) {
	w.status.Set(bits)
}

func (w *Window) ClearStatus(bits render.Status) {
	w.status.Clear(bits)
}

// PollEvents processes pending window events, running the status callbacks.
func (w *Window) PollEvents() {
	glfw.PollEvents()
	if w.window.ShouldClose() {
		w.status.Set(render.StatusShutdownRequested)
	}
}

// Destroy releases the surface and the window. The instance must still be alive.
func (w *Window) Destroy() {
	if w.window == nil {
		return
	}
	if w.surface != 0 && w.instance != nil {
		w.instance.DestroySurface(w.surface)
		w.surface = 0
	}
	w.window.Destroy()
	w.window = nil
	w.rep.Log(report.CodeDebugDestroy, categoryWindow, "window destroyed")
}
