package render

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryFrame = "frame"

// maxAcquireAttempts bounds back-to-back recreations inside one frame.
const maxAcquireAttempts = 3

// Renderer holds the resources that draw into one window: the swapchain, the pipelines and the
// static geometry.
type Renderer struct {
	ctx       *DeviceContext
	window    Window
	swapchain *SwapchainManager

	pipelines []*Pipeline
	active    int

	vertices    *DeviceBuffer
	indices     *DeviceBuffer
	vertexCount uint32
	indexCount  uint32

	ClearColor [4]float32
	frames     uint64
	recreated  uint64
}

// CreateSwapchainResources builds the swapchain for window and uploads geometry.
func CreateSwapchainResources(ctx *DeviceContext, window Window, geometry Geometry) (*Renderer, error) {
	if len(geometry.Vertices) == 0 {
		return nil, report.Errorf(report.CodeInvalidArguments, categoryFrame, "geometry has no vertices")
	}
	swapchain, err := CreateSwapchain(ctx, window)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		ctx:         ctx,
		window:      window,
		swapchain:   swapchain,
		vertexCount: uint32(len(geometry.Vertices)),
		indexCount:  uint32(len(geometry.Indices)),
		ClearColor:  [4]float32{0, 0, 0, 1},
	}

	r.vertices, err = Upload(ctx, geometry.VertexBytes(), gpu.BufferUsageVertexBuffer)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	if len(geometry.Indices) > 0 {
		r.indices, err = Upload(ctx, geometry.IndexBytes(), gpu.BufferUsageIndexBuffer)
		if err != nil {
			r.Destroy()
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) Swapchain() *SwapchainManager {
	return r.swapchain
}

func (r *Renderer) Pipelines() []*Pipeline {
	return r.pipelines
}

// Frames counts presented frames.
func (r *Renderer) Frames() uint64 {
	return r.frames
}

// CreatePipelines compiles descs against the swapchain's render pass. The first descriptor is
// the base pipeline and is the one drawn with until UsePipeline selects another.
func (r *Renderer) CreatePipelines(descs []PipelineDescriptor) error {
	if len(r.pipelines) > 0 {
		return report.Errorf(report.CodeAlreadyInitialized, categoryPipeline, "pipelines already created")
	}
	pipelines, err := NewPipelineBuilder(r.ctx, r.swapchain.RenderPass()).BuildAll(descs)
	if err != nil {
		return err
	}
	r.pipelines = pipelines
	r.active = 0
	return nil
}

// UsePipeline selects the pipeline drawn with by name.
func (r *Renderer) UsePipeline(name string) error {
	for i, p := range r.pipelines {
		if p.Name == name {
			r.active = i
			return nil
		}
	}
	return report.Errorf(report.CodeNotFound, categoryPipeline, "no pipeline named %q", name)
}

// DestroyPipelines waits for the device and releases every pipeline.
func (r *Renderer) DestroyPipelines() {
	if len(r.pipelines) == 0 {
		return
	}
	if err := r.ctx.WaitIdle(); err != nil {
		r.ctx.rep.Error(err)
	}
	for _, p := range r.pipelines {
		p.Destroy(r.ctx)
	}
	r.pipelines = nil
}

// Destroy waits for the device and releases geometry and swapchain resources.
func (r *Renderer) Destroy() {
	if err := r.ctx.WaitIdle(); err != nil {
		r.ctx.rep.Error(err)
	}
	r.DestroyPipelines()
	if r.indices != nil {
		r.indices.Destroy()
		r.indices = nil
	}
	if r.vertices != nil {
		r.vertices.Destroy()
		r.vertices = nil
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}

func (r *Renderer) recreate() error {
	if r.swapchain == nil {
		return report.Errorf(report.CodeNotInitialized, categoryFrame, "swapchain was destroyed")
	}
	r.window.ClearStatus(StatusResized)
	r.recreated++
	r.ctx.rep.Log(report.CodeDebugInfo, categoryFrame, "recreating swapchain")
	return r.swapchain.Recreate()
}

// RunFrame performs one acquire, record, submit and present cycle. Stale swapchains are rebuilt
// in place. The returned error is fatal and is also recorded in the device status.
func (r *Renderer) RunFrame() error {
	if r.swapchain == nil {
		return report.Errorf(report.CodeNotInitialized, categoryFrame, "swapchain was destroyed")
	}
	if r.ctx.status.Has(StatusFatalError) {
		return report.Errorf(report.CodeRenderError, categoryFrame, "device is in a failed state")
	}
	if len(r.pipelines) == 0 {
		return report.Errorf(report.CodeNotInitialized, categoryFrame, "no pipelines to draw with")
	}
	if r.window.Status().Has(Terminal) {
		return nil
	}

	if r.window.Status().Has(StatusInoperable) {
		width, height := r.window.FramebufferSize()
		if width == 0 || height == 0 {
			return nil
		}
		r.window.ClearStatus(StatusInoperable)
		if err := r.recreate(); err != nil {
			return err
		}
	} else if r.swapchain.State() == nil {
		if err := r.recreate(); err != nil {
			return err
		}
	}
	if r.swapchain.State() == nil {
		return nil
	}

	sync := r.swapchain.Synchronizer()
	var slot *FrameSync
	var imageIndex uint32
	for attempt := 0; ; attempt++ {
		slot = sync.Current()
		slot.State = SlotAcquiring
		if err := sync.Wait(slot); err != nil {
			return err
		}

		state := r.swapchain.State()
		idx, res := r.ctx.device.AcquireNextImage(state.Handle, gpu.WaitForever, slot.Acquire, 0)
		if res == gpu.ErrorOutOfDate {
			slot.State = SlotIdle
			if attempt+1 >= maxAcquireAttempts {
				return r.ctx.fail(report.Errorf(report.CodeSwapchainError, categoryFrame,
					"swapchain still out of date after %d recreations", attempt+1))
			}
			if err := r.recreate(); err != nil {
				return err
			}
			if r.swapchain.State() == nil {
				return nil
			}
			sync = r.swapchain.Synchronizer()
			continue
		}
		if res != gpu.Success && res != gpu.Suboptimal {
			return r.ctx.fail(report.Wrapf(gpu.Check(res), report.CodeSwapchainError, categoryFrame, "acquire next image"))
		}
		imageIndex = idx
		break
	}

	if err := sync.Reset(slot); err != nil {
		return err
	}
	slot.ImageIndex = imageIndex

	slot.State = SlotRecording
	state := r.swapchain.State()
	frame := &state.Frames[imageIndex]
	frame.Sync = slot
	if err := r.record(*slot.Command, frame, state.Extent); err != nil {
		return err
	}

	submit := gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{slot.Acquire},
		WaitStages:       []gpu.PipelineStage{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{*slot.Command},
		SignalSemaphores: []gpu.Semaphore{slot.Release},
	}
	if err := gpu.Check(r.ctx.device.QueueSubmit(r.ctx.graphics, []gpu.SubmitInfo{submit}, slot.InFlight)); err != nil {
		slot.State = SlotIdle
		return r.ctx.fail(report.Wrapf(err, report.CodeRenderError, categoryFrame, "submit frame"))
	}
	slot.State = SlotSubmitted

	slot.State = SlotPresenting
	res := r.ctx.device.QueuePresent(r.ctx.present, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{slot.Release},
		Swapchain:      state.Handle,
		ImageIndex:     imageIndex,
	})
	slot.State = SlotIdle

	if res != gpu.Success && !res.Stale() {
		return r.ctx.fail(report.Wrapf(gpu.Check(res), report.CodePresentError, categoryFrame, "present image %d", imageIndex))
	}
	if res == gpu.Success || res == gpu.Suboptimal {
		r.frames++
		sync.Advance()
	}
	if res.Stale() || r.window.Status().Has(StatusResized|StatusInoperable) {
		return r.recreate()
	}
	return nil
}

func (r *Renderer) record(cmd gpu.CommandBuffer, frame *Frame, extent gpu.Extent2D) error {
	dev := r.ctx.device
	if err := gpu.Check(dev.ResetCommandBuffer(cmd)); err != nil {
		return r.ctx.fail(report.Wrapf(err, report.CodeRenderCommandError, categoryFrame, "reset command buffer"))
	}
	if err := gpu.Check(dev.BeginCommandBuffer(cmd, false)); err != nil {
		return r.ctx.fail(report.Wrapf(err, report.CodeRenderCommandError, categoryFrame, "begin command buffer"))
	}

	area := gpu.Rect2D{Extent: extent}
	dev.CmdBeginRenderPass(cmd, gpu.RenderPassBeginInfo{
		RenderPass:  r.swapchain.RenderPass(),
		Framebuffer: frame.Framebuffer,
		Area:        area,
		ClearColor:  r.ClearColor,
	})
	dev.CmdBindPipeline(cmd, r.pipelines[r.active].Handle)
	dev.CmdSetViewport(cmd, gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	})
	dev.CmdSetScissor(cmd, area)
	dev.CmdBindVertexBuffers(cmd, []gpu.Buffer{r.vertices.Handle()}, []uint64{0})
	if r.indices != nil {
		dev.CmdBindIndexBuffer(cmd, r.indices.Handle(), 0, gpu.IndexTypeUint16)
		dev.CmdDrawIndexed(cmd, r.indexCount, 1)
	} else {
		dev.CmdDraw(cmd, r.vertexCount, 1)
	}
	dev.CmdEndRenderPass(cmd)

	if err := gpu.Check(dev.EndCommandBuffer(cmd)); err != nil {
		return r.ctx.fail(report.Wrapf(err, report.CodeRenderCommandError, categoryFrame, "end command buffer"))
	}
	return nil
}

// WriteStats dumps the swapchain and frame counters followed by the device.
func (r *Renderer) WriteStats(w *jwriter.Writer) {
	obj := w.Object()
	defer obj.End()

	obj.Name("Frames").Int(int(r.frames))
	obj.Name("Recreations").Int(int(r.recreated))
	if r.swapchain == nil {
		obj.Name("Swapchain").Null()
	} else if state := r.swapchain.State(); state != nil {
		sc := obj.Name("Swapchain").Object()
		sc.Name("Generation").Int(state.Generation)
		sc.Name("Width").Int(int(state.Extent.Width))
		sc.Name("Height").Int(int(state.Extent.Height))
		sc.Name("Format").String(state.Format.Format.String())
		sc.Name("PresentMode").String(state.PresentMode.String())
		sc.Name("Images").Int(state.ImageCount())
		sc.Name("FrameIndex").Int(r.swapchain.Synchronizer().Index())
		sc.End()
	}

	names := obj.Name("Pipelines").Array()
	for _, p := range r.pipelines {
		names.String(p.Name)
	}
	names.End()

	r.ctx.WriteStats(obj.Name("Device"))
}
