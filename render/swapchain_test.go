package render

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/gpu/gputest"
	"github.com/andewx/avixel/report"
)

func TestSwapchainNegotiation(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.ri.Validation())

	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)
	state := m.State()

	require.Equal(t, 3, state.ImageCount())
	require.Len(t, state.Frames, 3)
	require.Equal(t, gpu.FormatB8G8R8A8SRGB, state.Format.Format)
	require.Equal(t, gpu.ColorSpaceSRGBNonlinear, state.Format.ColorSpace)
	require.Equal(t, gpu.PresentModeMailbox, state.PresentMode)
	require.Equal(t, gpu.Extent2D{Width: 1280, Height: 720}, state.Extent)
	require.Equal(t, 3, m.Synchronizer().Len())

	for i, frame := range state.Frames {
		require.Equal(t, i, frame.Index)
		require.NotZero(t, frame.View)
		require.NotZero(t, frame.Framebuffer)
		require.Same(t, m.Synchronizer().Slot(i), frame.Sync)
		require.True(t, f.dev.FenceSignaled(frame.Sync.InFlight))
	}
	require.Equal(t, 3, f.dev.Live(gputest.KindImageView))
	require.Equal(t, 3, f.dev.Live(gputest.KindFramebuffer))
	require.Equal(t, 1, f.dev.Live(gputest.KindRenderPass))

	m.Destroy()
	require.Zero(t, f.dev.Live(gputest.KindImageView))
	require.Zero(t, f.dev.Live(gputest.KindFramebuffer))
	require.Zero(t, f.dev.Live(gputest.KindSwapchain))
	require.Zero(t, f.dev.Live(gputest.KindFence))
	require.Zero(t, f.dev.Live(gputest.KindSemaphore))
	require.Zero(t, f.dev.Live(gputest.KindRenderPass))
	f.requireClean(t)
}

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Unorm}
	rgba := gpu.SurfaceFormat{Format: gpu.FormatR8G8B8A8SRGB}
	require.Equal(t, unorm, ChooseSurfaceFormat([]gpu.SurfaceFormat{unorm, rgba}))
	require.Equal(t, PreferredSurfaceFormat, ChooseSurfaceFormat([]gpu.SurfaceFormat{rgba, PreferredSurfaceFormat}))

	// Same format in a different colorspace is not a match.
	other := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: 1000104001}
	require.Equal(t, other, ChooseSurfaceFormat([]gpu.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	require.Equal(t, gpu.PresentModeMailbox, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox}))
	require.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFIFO}))
	require.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFIFORelaxed}))
}

func TestChooseImageCount(t *testing.T) {
	caps := gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 4}
	require.Equal(t, uint32(3), ChooseImageCount(caps))

	caps.MaxImageCount = 2
	require.Equal(t, uint32(2), ChooseImageCount(caps))

	caps = gpu.SurfaceCapabilities{MinImageCount: 3}
	require.Equal(t, uint32(4), ChooseImageCount(caps))
}

func TestChooseExtent(t *testing.T) {
	caps := gputest.DefaultCapabilities()
	require.Equal(t, caps.CurrentExtent, ChooseExtent(caps, 10, 10))

	caps.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}
	caps.MinImageExtent = gpu.Extent2D{Width: 64, Height: 64}
	caps.MaxImageExtent = gpu.Extent2D{Width: 2048, Height: 2048}
	require.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 800, 600))
	require.Equal(t, gpu.Extent2D{Width: 2048, Height: 64}, ChooseExtent(caps, 5000, 10))
	require.Equal(t, gpu.Extent2D{Width: 64, Height: 64}, ChooseExtent(caps, -1, 0))
}

func TestSwapchainUsesFramebufferSize(t *testing.T) {
	f := newFixture(t)
	f.inst.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}

	ctrl := gomock.NewController(t)
	window := NewMockWindow(ctrl)
	window.EXPECT().Surface().Return(testSurface).AnyTimes()
	window.EXPECT().FramebufferSize().Return(5000, 300).Times(1)

	m, err := CreateSwapchain(f.ctx, window)
	require.NoError(t, err)
	require.Equal(t, gpu.Extent2D{Width: 4096, Height: 300}, m.State().Extent)
	require.Equal(t, gpu.Extent2D{Width: 4096, Height: 300}, f.dev.Swapchains[0].Extent)
	m.Destroy()
}

func TestRecreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)
	pass := m.RenderPass()

	require.NoError(t, m.Recreate())
	first := *m.State()
	require.NoError(t, m.Recreate())
	second := *m.State()

	require.Equal(t, first.Extent, second.Extent)
	require.Equal(t, first.Format, second.Format)
	require.Equal(t, first.ImageCount(), second.ImageCount())
	require.Equal(t, first.Generation+1, second.Generation)
	require.NotEqual(t, first.Handle, second.Handle)
	require.Equal(t, pass, m.RenderPass())

	require.Equal(t, 1, f.dev.Live(gputest.KindSwapchain))
	require.Equal(t, 3, f.dev.Live(gputest.KindImageView))
	require.Equal(t, 3, f.dev.Live(gputest.KindFramebuffer))
	require.Equal(t, 3, f.dev.Live(gputest.KindFence))
	require.Equal(t, 1, f.dev.Live(gputest.KindRenderPass))
	require.Equal(t, 2, f.dev.CountCalls("WaitIdle"))

	m.Destroy()
	f.requireClean(t)
}

func TestRecreateResizesSyncRing(t *testing.T) {
	f := newFixture(t)
	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)
	require.Equal(t, 3, m.Synchronizer().Len())

	f.inst.Capabilities.MinImageCount = 3
	f.inst.Capabilities.MaxImageCount = 8
	require.NoError(t, m.Recreate())
	require.Equal(t, 4, m.State().ImageCount())
	require.Equal(t, 4, m.Synchronizer().Len())
	require.Equal(t, 4, f.dev.Live(gputest.KindFence))
	require.Equal(t, 8, f.dev.Live(gputest.KindSemaphore))
	for i, frame := range m.State().Frames {
		require.Same(t, m.Synchronizer().Slot(i), frame.Sync)
	}
	m.Destroy()
	f.requireClean(t)
}

func TestRecreateWhileMinimized(t *testing.T) {
	f := newFixture(t)
	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)

	f.inst.Capabilities.CurrentExtent = gpu.Extent2D{}
	require.NoError(t, m.Recreate())
	require.Nil(t, m.State())
	require.True(t, f.window.Status().Has(StatusInoperable))
	require.Zero(t, f.dev.Live(gputest.KindSwapchain))

	m.Destroy()
	f.requireClean(t)
}

func TestSwapchainFormatChangeIsFatal(t *testing.T) {
	d := gputest.NewPhysicalDevice("gpu")
	f := newFixture(t, d)
	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)

	f.inst.Devices[0].Formats = []gpu.SurfaceFormat{{Format: gpu.FormatR8G8B8A8Unorm}}
	err = m.Recreate()
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeSwapchainError, code)
	require.True(t, f.ctx.Status().Has(StatusFatalError))
	m.Destroy()
}

func TestSwapchainCreateFailure(t *testing.T) {
	f := newFixture(t)
	f.dev.Failures["CreateSwapchain"] = gpu.ErrorOutOfDeviceMemory

	_, err := CreateSwapchain(f.ctx, f.window)
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeSwapchainError, code)
	require.Zero(t, f.dev.Live(gputest.KindRenderPass))
	require.True(t, f.ctx.Status().Has(StatusFatalError))
}
