package render

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/gpu/gputest"
	"github.com/andewx/avixel/report"
)

const testSurface gpu.Surface = 77

type testWindow struct {
	surface       gpu.Surface
	width, height int
	status        Status
}

func newTestWindow() *testWindow {
	return &testWindow{surface: testSurface, width: 1280, height: 720}
}

func (w *testWindow) Surface() gpu.Surface { return w.surface }
func (w *testWindow) FramebufferSize() (width, height int) { return w.width, w.height }
func (w *testWindow) Status() Status { return w.status }
func (w *testWindow) SetStatus(bits Status) { w.status.Set(bits) }
func (w *testWindow) ClearStatus(bits Status) { w.status.Clear(bits) }

type fixture struct {
	loader *gputest.Loader
	inst   *gputest.Instance
	out    *bytes.Buffer
	rep    *report.Reporter
	ri     *RenderInstance
	ctx    *DeviceContext
	dev    *gputest.Device
	window *testWindow
}

func newReporter() (*report.Reporter, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := report.DefaultConfig()
	cfg.Level = report.SeverityDebug
	cfg.ValidationLevel = gpu.DebugVerbose
	return report.New(cfg, report.WithWriter(&out), report.WithExit(func(int) {})), &out
}

func newInstanceFixture(t *testing.T, devices ...gputest.PhysicalDevice) *fixture {
	t.Helper()
	if len(devices) == 0 {
		devices = []gputest.PhysicalDevice{gputest.NewPhysicalDevice("fake discrete")}
	}
	f := &fixture{inst: gputest.NewInstance(devices...), window: newTestWindow()}
	f.loader = gputest.NewLoader(f.inst)
	f.rep, f.out = newReporter()

	ri, err := CreateInstance(f.loader, InstanceConfig{
		ApplicationName: "render test",
		Validation:      true,
		Extensions:      []string{"VK_KHR_surface"},
	}, f.rep)
	require.NoError(t, err)
	f.ri = ri
	return f
}

func newFixture(t *testing.T, devices ...gputest.PhysicalDevice) *fixture {
	t.Helper()
	f := newInstanceFixture(t, devices...)
	ctx, err := f.ri.CreateDevice(f.window.surface)
	require.NoError(t, err)
	f.ctx = ctx
	f.dev = f.inst.Device
	return f
}

func (f *fixture) requireClean(t *testing.T) {
	t.Helper()
	require.Empty(t, f.dev.Violations)
}

func testShader() []byte {
	code := make([]byte, 24)
	binary.LittleEndian.PutUint32(code, spirvMagic)
	return code
}

func testPipelines() []PipelineDescriptor {
	stages := []ShaderStageDescriptor{
		{Stage: gpu.ShaderStageVertex, Code: testShader()},
		{Stage: gpu.ShaderStageFragment, Code: testShader()},
	}
	return []PipelineDescriptor{
		{Name: "render", Stages: stages, VertexLayout: VertexLayout()},
		{Name: "font", Stages: stages, VertexLayout: VertexLayout()},
	}
}

func (f *fixture) newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := CreateSwapchainResources(f.ctx, f.window, Quad())
	require.NoError(t, err)
	require.NoError(t, r.CreatePipelines(testPipelines()))
	return r
}
