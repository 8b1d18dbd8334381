package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/gpu/gputest"
	"github.com/andewx/avixel/report"
)

func TestCreateInstanceWithValidation(t *testing.T) {
	f := newInstanceFixture(t)

	require.True(t, f.ri.Validation())
	require.Equal(t, ValidationLayers, f.loader.Info.Layers)
	require.Contains(t, f.loader.Info.Extensions, DebugReportExtensionName)
	require.Contains(t, f.loader.Info.Extensions, "VK_KHR_surface")
	require.NotNil(t, f.loader.Info.Debug)
	require.Contains(t, f.out.String(), "VALIDATION_PRESENT")

	f.inst.Emit(gpu.DebugMessage{Severity: gpu.DebugError, Category: gpu.DebugValidation, Message: "object leaked"})
	require.Contains(t, f.out.String(), "[renderer][validation] -> object leaked")

	ctx, err := f.ri.CreateDevice(testSurface)
	require.NoError(t, err)
	require.Equal(t, ValidationLayers, f.inst.DeviceInfo.Layers)
	require.Equal(t, []string{gpu.SwapchainExtensionName}, f.inst.DeviceInfo.Extensions)
	require.Len(t, f.inst.DeviceInfo.Queues, 1)

	ctx.Destroy()
	f.ri.Destroy()
	require.True(t, f.inst.Destroyed)
	require.True(t, f.inst.Device.Destroyed)
}

func TestCreateInstanceValidationAbsent(t *testing.T) {
	inst := gputest.NewInstance(gputest.NewPhysicalDevice("gpu"))
	loader := gputest.NewLoader(inst)
	loader.Layers = nil
	rep, out := newReporter()

	ri, err := CreateInstance(loader, InstanceConfig{Validation: true}, rep)
	require.NoError(t, err)
	require.False(t, ri.Validation())
	require.Empty(t, loader.Info.Layers)
	require.Nil(t, loader.Info.Debug)
	require.Contains(t, out.String(), "VALIDATION_NOT_PRESENT")

	_, err = ri.CreateDevice(testSurface)
	require.NoError(t, err)
	require.Empty(t, inst.DeviceInfo.Layers)
}

func TestCreateInstanceFailures(t *testing.T) {
	inst := gputest.NewInstance()
	loader := gputest.NewLoader(inst)

	_, err := CreateInstance(loader, InstanceConfig{Extensions: []string{"VK_KHR_win32_surface"}}, report.Discard())
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeNoSupport, code)

	loader.Result = gpu.ErrorIncompatibleDriver
	_, err = CreateInstance(loader, InstanceConfig{}, report.Discard())
	code, _ = report.CodeOf(err)
	require.Equal(t, report.CodeCreationError, code)
	require.True(t, report.IsFatal(err))
}

func TestCreateDeviceFailures(t *testing.T) {
	f := newInstanceFixture(t)
	f.inst.DeviceResult = gpu.ErrorInitializationFailed

	_, err := f.ri.CreateDevice(testSurface)
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeCreationError, code)
	require.True(t, f.ri.Status().Has(StatusFatalError))
}

func TestCreateDeviceSplitFamilies(t *testing.T) {
	d := gputest.NewPhysicalDevice("split")
	d.QueueFamilies = []gpu.QueueFamilyProperties{
		{Flags: gpu.QueueGraphics, Count: 1},
		{Flags: gpu.QueueTransfer, Count: 1},
	}
	d.PresentFamilies = []uint32{1}
	f := newFixture(t, d)

	require.Len(t, f.inst.DeviceInfo.Queues, 2)
	require.NotEqual(t, f.ctx.GraphicsQueue(), f.ctx.PresentQueue())

	r := f.newRenderer(t)
	require.Equal(t, []uint32{0, 1}, f.dev.Swapchains[0].QueueFamilies)
	r.Destroy()
	f.ctx.Destroy()
	f.requireClean(t)
}
