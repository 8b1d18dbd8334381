package render

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categorySwapchain = "swapchain"

// PreferredSurfaceFormat is picked whenever the surface offers it.
var PreferredSurfaceFormat = gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear}

// errInoperable means the surface has no area and no swapchain can be built right now.
var errInoperable = errors.New("surface has zero extent")

type SwapchainSupport struct {
	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode
}

// Adequate requires at least one format and one present mode.
func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

func QuerySwapchainSupport(inst gpu.Instance, physical gpu.PhysicalDevice, surface gpu.Surface) (SwapchainSupport, error) {
	var support SwapchainSupport
	var res gpu.Result

	support.Capabilities, res = inst.SurfaceCapabilities(physical, surface)
	if err := gpu.Check(res); err != nil {
		return support, report.Wrapf(err, report.CodeSwapchainError, categorySwapchain, "surface capabilities")
	}
	support.Formats, res = inst.SurfaceFormats(physical, surface)
	if err := gpu.Check(res); err != nil {
		return support, report.Wrapf(err, report.CodeSwapchainError, categorySwapchain, "surface formats")
	}
	support.PresentModes, res = inst.PresentModes(physical, surface)
	if err := gpu.Check(res); err != nil {
		return support, report.Wrapf(err, report.CodeSwapchainError, categorySwapchain, "present modes")
	}
	return support, nil
}

// ChooseSurfaceFormat returns the preferred pair if offered, else the first format.
func ChooseSurfaceFormat(formats []gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, f := range formats {
		if f == PreferredSurfaceFormat {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every surface supports.
func ChoosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, m := range modes {
		if m == gpu.PresentModeMailbox {
			return m
		}
	}
	return gpu.PresentModeFIFO
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ChooseExtent uses the surface's current extent unless the surface leaves it to the swapchain,
// in which case the framebuffer size is clamped into the supported range.
func ChooseExtent(caps gpu.SurfaceCapabilities, width, height int) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return gpu.Extent2D{
		Width:  clamp(uint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image above the minimum. A zero maximum means unbounded.
func ChooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func chooseCompositeAlpha(caps gpu.SurfaceCapabilities) gpu.CompositeAlpha {
	for _, alpha := range []gpu.CompositeAlpha{
		gpu.CompositeAlphaOpaque,
		gpu.CompositeAlphaPreMultiplied,
		gpu.CompositeAlphaPostMultiplied,
		gpu.CompositeAlphaInherit,
	} {
		if caps.SupportedCompositeAlpha&alpha != 0 {
			return alpha
		}
	}
	return gpu.CompositeAlphaOpaque
}

func choosePreTransform(caps gpu.SurfaceCapabilities) gpu.SurfaceTransform {
	if caps.SupportedTransforms&gpu.SurfaceTransformIdentity != 0 {
		return gpu.SurfaceTransformIdentity
	}
	return caps.CurrentTransform
}

// Frame is the per-image bundle. Image is borrowed from the swapchain and Sync from the
// synchronizer ring; View and Framebuffer are owned. Sync starts as the slot with the same
// index and afterwards names the slot that last rendered into the image.
type Frame struct {
	Index       int
	Image       gpu.Image
	View        gpu.ImageView
	Framebuffer gpu.Framebuffer
	Sync        *FrameSync
}

// SwapchainState is one generation of the image chain.
type SwapchainState struct {
	Handle      gpu.Swapchain
	Extent      gpu.Extent2D
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Transform   gpu.SurfaceTransform
	Frames      []Frame
	Generation  int
}

// ImageCount is the negotiated number of presentable images.
func (s *SwapchainState) ImageCount() int {
	return len(s.Frames)
}

// SwapchainManager owns the image chain of one window, the render pass its framebuffers use
// and the frame synchronizer sized to it.
type SwapchainManager struct {
	ctx        *DeviceContext
	window     Window
	renderPass gpu.RenderPass
	format     gpu.SurfaceFormat
	sync       *FrameSynchronizer
	state      *SwapchainState
	generation int
}

// CreateSwapchain negotiates and builds the first swapchain generation for window.
func CreateSwapchain(ctx *DeviceContext, window Window) (*SwapchainManager, error) {
	m := &SwapchainManager{ctx: ctx, window: window}
	state, err := m.build()
	if err != nil {
		m.Destroy()
		if errors.Is(err, errInoperable) {
			err = report.Errorf(report.CodeSwapchainError, categorySwapchain, "window has no drawable area at creation")
		}
		return nil, ctx.fail(err)
	}
	m.state = state
	return m, nil
}

func (m *SwapchainManager) State() *SwapchainState {
	return m.state
}

func (m *SwapchainManager) RenderPass() gpu.RenderPass {
	return m.renderPass
}

func (m *SwapchainManager) Synchronizer() *FrameSynchronizer {
	return m.sync
}

// Recreate rebuilds the chain against the current surface. When the window has no area the
// state is left empty and INOPERABLE is set on the window.
func (m *SwapchainManager) Recreate() error {
	if err := m.ctx.WaitIdle(); err != nil {
		return err
	}
	m.teardown()

	state, err := m.build()
	if errors.Is(err, errInoperable) {
		m.window.SetStatus(StatusInoperable)
		m.ctx.rep.Log(report.CodeDebugInfo, categorySwapchain, "surface has no area, swapchain deferred")
		return nil
	}
	if err != nil {
		return m.ctx.fail(err)
	}
	m.state = state
	m.ctx.rep.Logf(report.CodeDebugInfo, categorySwapchain, "swapchain generation %d: %dx%d, %d images",
		state.Generation, state.Extent.Width, state.Extent.Height, len(state.Frames))
	return nil
}

func (m *SwapchainManager) build() (*SwapchainState, error) {
	inst := m.ctx.instance.instance
	dev := m.ctx.device
	surface := m.window.Surface()

	support, err := QuerySwapchainSupport(inst, m.ctx.physical, surface)
	if err != nil {
		return nil, err
	}
	if !support.Adequate() {
		return nil, report.Errorf(report.CodeNoSupport, categorySwapchain, "surface offers no formats or present modes")
	}

	width, height := m.window.FramebufferSize()
	caps := support.Capabilities
	extent := ChooseExtent(caps, width, height)
	if extent.Width == 0 || extent.Height == 0 {
		return nil, errInoperable
	}

	format := ChooseSurfaceFormat(support.Formats)
	if m.renderPass == 0 {
		pass, res := dev.CreateRenderPass(gpu.RenderPassCreateInfo{ColorFormat: format.Format})
		if err := gpu.Check(res); err != nil {
			return nil, report.Wrapf(err, report.CodeCreationError, categorySwapchain, "create render pass")
		}
		m.renderPass = pass
		m.format = format
	} else if format != m.format {
		return nil, report.Errorf(report.CodeSwapchainError, categorySwapchain,
			"surface format changed from %s to %s", m.format.Format, format.Format)
	}

	info := gpu.SwapchainCreateInfo{
		Surface:        surface,
		MinImageCount:  ChooseImageCount(caps),
		Format:         format.Format,
		ColorSpace:     format.ColorSpace,
		Extent:         extent,
		PreTransform:   choosePreTransform(caps),
		CompositeAlpha: chooseCompositeAlpha(caps),
		PresentMode:    ChoosePresentMode(support.PresentModes),
	}
	if !m.ctx.families.Shared() {
		info.QueueFamilies = m.ctx.families.Unique()
	}

	handle, res := dev.CreateSwapchain(info)
	if err := gpu.Check(res); err != nil {
		return nil, report.Wrapf(err, report.CodeSwapchainError, categorySwapchain, "create swapchain")
	}
	m.generation++
	state := &SwapchainState{
		Handle:      handle,
		Extent:      extent,
		Format:      format,
		PresentMode: info.PresentMode,
		Transform:   info.PreTransform,
		Generation:  m.generation,
	}

	images, res := dev.SwapchainImages(handle)
	if err := gpu.Check(res); err != nil {
		m.destroyState(state)
		return nil, report.Wrapf(err, report.CodeSwapchainError, categorySwapchain, "swapchain images")
	}

	state.Frames = make([]Frame, len(images))
	for i, image := range images {
		frame := &state.Frames[i]
		frame.Index = i
		frame.Image = image

		view, res := dev.CreateImageView(gpu.ImageViewCreateInfo{Image: image, Format: format.Format})
		if err := gpu.Check(res); err != nil {
			m.destroyState(state)
			return nil, report.Wrapf(err, report.CodeCreationError, categorySwapchain, "image view %d", i)
		}
		frame.View = view

		fb, res := dev.CreateFramebuffer(gpu.FramebufferCreateInfo{
			RenderPass:  m.renderPass,
			Attachments: []gpu.ImageView{view},
			Extent:      extent,
		})
		if err := gpu.Check(res); err != nil {
			m.destroyState(state)
			return nil, report.Wrapf(err, report.CodeCreationError, categorySwapchain, "framebuffer %d", i)
		}
		frame.Framebuffer = fb
	}

	if err := m.bindSync(state); err != nil {
		m.destroyState(state)
		return nil, err
	}
	return state, nil
}

// bindSync sizes the synchronizer ring to the image count and lends each frame its slot.
func (m *SwapchainManager) bindSync(state *SwapchainState) error {
	count := len(state.Frames)
	if m.sync == nil {
		sync, err := NewFrameSynchronizer(m.ctx, count)
		if err != nil {
			return err
		}
		m.sync = sync
	} else if m.sync.Len() != count {
		if err := m.sync.Resize(count); err != nil {
			return err
		}
	}
	for i := range state.Frames {
		state.Frames[i].Sync = m.sync.Slot(i)
	}
	return nil
}

func (m *SwapchainManager) destroyState(state *SwapchainState) {
	dev := m.ctx.device
	for i := range state.Frames {
		frame := &state.Frames[i]
		if frame.Framebuffer != 0 {
			dev.DestroyFramebuffer(frame.Framebuffer)
			frame.Framebuffer = 0
		}
		if frame.View != 0 {
			dev.DestroyImageView(frame.View)
			frame.View = 0
		}
		frame.Sync = nil
	}
	if state.Handle != 0 {
		dev.DestroySwapchain(state.Handle)
		state.Handle = 0
	}
}

func (m *SwapchainManager) teardown() {
	if m.state == nil {
		return
	}
	m.destroyState(m.state)
	m.state = nil
}

// Destroy releases the chain, the synchronizer and the render pass. The device must be idle.
func (m *SwapchainManager) Destroy() {
	m.teardown()
	if m.sync != nil {
		m.sync.Destroy()
		m.sync = nil
	}
	if m.renderPass != 0 {
		m.ctx.device.DestroyRenderPass(m.renderPass)
		m.renderPass = 0
	}
}
