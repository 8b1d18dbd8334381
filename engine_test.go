package avixel

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/config"
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/gpu/gputest"
	"github.com/andewx/avixel/render"
	"github.com/andewx/avixel/report"
)

const hostSurface gpu.Surface = 91

type hostWindow struct {
	inst          *gputest.Instance
	surface       gpu.Surface
	width, height int
	status        render.Status
	surfaceErr    error
	polls         int
	onPoll        func(w *hostWindow)

	// deviceGone and instanceGone are captured when the window is destroyed.
	destroyed    bool
	deviceGone   bool
	instanceGone bool
}

func (w *hostWindow) RequiredInstanceExtensions() []string { return []string{"VK_KHR_surface"} }
func (w *hostWindow) Surface() gpu.Surface                 { return w.surface }
func (w *hostWindow) FramebufferSize() (width, height int) { return w.width, w.height }
func (w *hostWindow) Status() render.Status                { return w.status }
func (w *hostWindow) SetStatus(bits render.Status)         { w.status.Set(bits) }
func (w *hostWindow) ClearStatus(bits render.Status)       { w.status.Clear(bits) }

func (w *hostWindow) CreateSurface(inst gpu.Instance) error {
	if w.surfaceErr != nil {
		return w.surfaceErr
	}
	w.surface = hostSurface
	return nil
}

func (w *hostWindow) PollEvents() {
	w.polls++
	if w.onPoll != nil {
		w.onPoll(w)
	}
}

func (w *hostWindow) Destroy() {
	w.destroyed = true
	w.deviceGone = w.inst.Device == nil || w.inst.Device.Destroyed
	w.instanceGone = w.inst.Destroyed
	if w.surface != 0 {
		w.inst.DestroySurface(w.surface)
	}
}

func testShader() []byte {
	code := make([]byte, 20)
	binary.LittleEndian.PutUint32(code, 0x07230203)
	return code
}

func testScene() Scene {
	stages := []render.ShaderStageDescriptor{
		{Stage: gpu.ShaderStageVertex, Code: testShader()},
		{Stage: gpu.ShaderStageFragment, Code: testShader()},
	}
	return Scene{
		Geometry: render.Quad(),
		Pipelines: []render.PipelineDescriptor{
			{Name: "render", Stages: stages, VertexLayout: render.VertexLayout()},
			{Name: "font", Stages: stages, VertexLayout: render.VertexLayout()},
		},
	}
}

type harness struct {
	inst   *gputest.Instance
	window *hostWindow
	out    *bytes.Buffer
	rep    *report.Reporter
}

func newHarness(devices ...gputest.PhysicalDevice) *harness {
	if len(devices) == 0 {
		devices = []gputest.PhysicalDevice{gputest.NewPhysicalDevice("host gpu")}
	}
	inst := gputest.NewInstance(devices...)
	var out bytes.Buffer
	cfg := report.DefaultConfig()
	cfg.Level = report.SeverityDebug
	return &harness{
		inst:   inst,
		window: &hostWindow{inst: inst, width: 1280, height: 720},
		out:    &out,
		rep:    report.New(cfg, report.WithWriter(&out), report.WithExit(func(int) {})),
	}
}

func (h *harness) config() config.Config {
	cfg := config.Default()
	cfg.Project = config.Project{Name: "host", Version: "1.2.3"}
	cfg.Validation = true
	return cfg
}

func (h *harness) newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(h.config(), gputest.NewLoader(h.inst), h.window, testScene(), h.rep)
	require.NoError(t, err)
	return e
}

func TestEngineRunsUntilClosed(t *testing.T) {
	h := newHarness()
	loader := gputest.NewLoader(h.inst)
	e, err := New(h.config(), loader, h.window, testScene(), h.rep)
	require.NoError(t, err)

	require.Equal(t, "host", loader.Info.Application.ApplicationName)
	require.Equal(t, uint32(1<<22|2<<12|3), loader.Info.Application.ApplicationVersion)
	require.Contains(t, loader.Info.Extensions, "VK_KHR_surface")
	require.Contains(t, loader.Info.Layers, "VK_LAYER_KHRONOS_validation")

	h.window.onPoll = func(w *hostWindow) {
		if w.polls == 4 {
			w.status.Set(render.StatusShutdownRequested)
		}
	}
	require.NoError(t, e.Run())
	require.Equal(t, []uint32{0, 1, 2, 0}, h.inst.Device.Presented)
	require.Equal(t, uint64(4), e.Renderer().Frames())
	require.True(t, e.ShutdownRequested())

	dev := h.inst.Device
	e.Destroy()
	require.Empty(t, dev.Violations)
	require.Zero(t, dev.LiveTotal())
	require.True(t, dev.Destroyed)
	require.True(t, h.inst.Destroyed)
	require.Equal(t, []gpu.Surface{hostSurface}, h.inst.DestroyedSurfaces)
	require.True(t, h.window.deviceGone)
	require.False(t, h.window.instanceGone)
	require.NotContains(t, h.out.String(), "OUT_OF_BOUNDS")

	e.Destroy()
}

func TestUpdateSkipsWhileInoperable(t *testing.T) {
	h := newHarness()
	e := h.newEngine(t)
	defer e.Destroy()

	h.window.width, h.window.height = 0, 0
	h.window.status.Set(render.StatusInoperable)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Update())
	}
	require.Empty(t, h.inst.Device.Presented)
	require.Equal(t, 3, h.window.polls)
	require.False(t, e.ShutdownRequested())

	h.window.width, h.window.height = 1280, 720
	require.NoError(t, e.Update())
	require.Equal(t, []uint32{0}, h.inst.Device.Presented)
	require.False(t, h.window.status.Has(render.StatusInoperable))
	require.Equal(t, 2, h.inst.Device.CountCalls("CreateSwapchain"))
}

func TestFatalFrameStopsEngine(t *testing.T) {
	h := newHarness()
	e := h.newEngine(t)
	defer e.Destroy()

	h.inst.Device.Failures["QueueSubmit"] = gpu.ErrorDeviceLost
	err := e.Run()
	require.Error(t, err)
	require.True(t, report.IsFatal(err))
	require.True(t, e.ShutdownRequested())
	require.True(t, e.Status().Has(render.StatusFatalError))
	require.False(t, h.window.status.Has(render.StatusFatalError))
	require.Equal(t, 1, h.window.polls)
}

func TestNewReleasesOnFailure(t *testing.T) {
	t.Run("no device", func(t *testing.T) {
		h := newHarness()
		h.inst.Devices = nil
		_, err := New(h.config(), gputest.NewLoader(h.inst), h.window, testScene(), h.rep)
		code, ok := report.CodeOf(err)
		require.True(t, ok)
		require.Equal(t, report.CodeNoSupport, code)
		require.True(t, h.window.destroyed)
		require.False(t, h.window.instanceGone)
		require.True(t, h.inst.Destroyed)
	})

	t.Run("surface", func(t *testing.T) {
		h := newHarness()
		h.window.surfaceErr = report.Errorf(report.CodeNoSupport, "window", "no surface")
		_, err := New(h.config(), gputest.NewLoader(h.inst), h.window, testScene(), h.rep)
		require.True(t, report.IsFatal(err))
		require.Nil(t, h.inst.Device)
		require.Empty(t, h.inst.DestroyedSurfaces)
		require.True(t, h.inst.Destroyed)
	})

	t.Run("pipelines", func(t *testing.T) {
		h := newHarness()
		scene := testScene()
		scene.Pipelines = nil
		_, err := New(h.config(), gputest.NewLoader(h.inst), h.window, scene, h.rep)
		require.Error(t, err)
		require.Zero(t, h.inst.Device.LiveTotal())
		require.True(t, h.inst.Device.Destroyed)
		require.Equal(t, []gpu.Surface{hostSurface}, h.inst.DestroyedSurfaces)
	})

	t.Run("instance", func(t *testing.T) {
		h := newHarness()
		loader := gputest.NewLoader(h.inst)
		loader.Result = gpu.ErrorInitializationFailed
		_, err := New(h.config(), loader, h.window, testScene(), h.rep)
		require.True(t, errors.Is(err, gpu.ResultError{Result: gpu.ErrorInitializationFailed}) || report.IsFatal(err))
		require.True(t, h.window.destroyed)
		require.False(t, h.inst.Destroyed)
	})
}

func TestEngineStats(t *testing.T) {
	h := newHarness()
	e := h.newEngine(t)
	defer e.Destroy()

	require.NoError(t, e.Update())
	stats := string(e.Stats())
	require.Contains(t, stats, `"Status":"NORMAL"`)
	require.Contains(t, stats, `"Frames":1`)
	require.Contains(t, stats, `"Device":"host gpu"`)
}

func TestPackVersion(t *testing.T) {
	require.Equal(t, uint32(0), packVersion(""))
	require.Equal(t, uint32(1<<22), packVersion("1"))
	require.Equal(t, uint32(0<<22|1<<12), packVersion("0.1"))
	require.Equal(t, uint32(2<<22|5<<12|9), packVersion("2.5.9"))
	require.Equal(t, uint32(3<<22), packVersion("3.beta"))
	require.Equal(t, uint32(1<<22|2<<12|4000), packVersion("1.2.4000"))
	require.Equal(t, uint32(1<<22|1023<<12|4095), packVersion("1.1023.4095"))
	require.Equal(t, uint32(1<<22|2<<12), packVersion("1.2.4096"))
	require.Equal(t, uint32(1<<22), packVersion("1.1024.3"))
}

func TestLoadPrograms(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"render.vert.spv", "render.frag.spv", "font.frag.spv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), testShader(), 0o644))
	}

	descs, err := LoadPrograms(dir, DefaultPrograms)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	require.Equal(t, "render", descs[0].Name)
	require.Equal(t, "font", descs[1].Name)
	require.Equal(t, gpu.ShaderStageVertex, descs[1].Stages[0].Stage)
	require.Equal(t, gpu.ShaderStageFragment, descs[1].Stages[1].Stage)
	require.Equal(t, render.VertexLayout(), descs[0].VertexLayout)

	_, err = LoadPrograms(dir, []ShaderProgram{{Name: "lost", Vertex: "render.vert.spv", Fragment: "lost.frag.spv"}})
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeIOError, code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "text.frag.spv"), []byte("void main() {}\n"), 0o644))
	_, err = LoadPrograms(dir, []ShaderProgram{{Name: "text", Vertex: "render.vert.spv", Fragment: "text.frag.spv"}})
	code, _ = report.CodeOf(err)
	require.Equal(t, report.CodeParseError, code)
}
