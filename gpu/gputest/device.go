package gputest

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
)

type Kind string

const (
	KindCommandPool    Kind = "command pool"
	KindCommandBuffer  Kind = "command buffer"
	KindSemaphore      Kind = "semaphore"
	KindFence          Kind = "fence"
	KindSwapchain      Kind = "swapchain"
	KindImageView      Kind = "image view"
	KindRenderPass     Kind = "render pass"
	KindFramebuffer    Kind = "framebuffer"
	KindShaderModule   Kind = "shader module"
	KindPipelineLayout Kind = "pipeline layout"
	KindPipeline       Kind = "pipeline"
	KindBuffer         Kind = "buffer"
	KindMemory         Kind = "memory"
)

// Command is one recorded command.
type Command struct {
	Op          string
	Pipeline    gpu.Pipeline
	Framebuffer gpu.Framebuffer
	Buffers     []gpu.Buffer
	Src, Dst    gpu.Buffer
	Regions     []gpu.BufferCopy
	Count       uint32
}

type cmdState uint8

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
	cmdPending
)

type commandBuffer struct {
	state    cmdState
	commands []Command
}

type buffer struct {
	info   gpu.BufferCreateInfo
	memory gpu.DeviceMemory
	offset uint64
}

type memory struct {
	data       []byte
	memoryType uint32
	mapped     bool
}

type swapchain struct {
	info   gpu.SwapchainCreateInfo
	images []gpu.Image
	next   uint32
}

type submission struct {
	commands []gpu.CommandBuffer
	fence    gpu.Fence
}

// Device is a fake logical device. Submitted work runs when the host waits on its fence, the
// queue or the device.
type Device struct {
	instance *Instance
	next     uint64

	objects    *swiss.Map[uint64, Kind]
	fences     *swiss.Map[gpu.Fence, bool]
	semaphores *swiss.Map[gpu.Semaphore, bool]
	commands   *swiss.Map[gpu.CommandBuffer, *commandBuffer]
	buffers    *swiss.Map[gpu.Buffer, *buffer]
	memory     *swiss.Map[gpu.DeviceMemory, *memory]
	swapchains *swiss.Map[gpu.Swapchain, *swapchain]
	pending    []submission

	// Failures injects a result for the named method.
	Failures map[string]gpu.Result
	// AcquireResults and PresentResults are consumed one per call; Success once empty.
	AcquireResults []gpu.Result
	PresentResults []gpu.Result

	Calls      []string
	Violations []string
	Pipelines  []gpu.GraphicsPipelineCreateInfo
	Presented  []uint32
	Swapchains []gpu.SwapchainCreateInfo
	Destroyed  bool
}

func NewDevice(instance *Instance) *Device {
	return &Device{
		instance:   instance,
		objects:    swiss.NewMap[uint64, Kind](64),
		fences:     swiss.NewMap[gpu.Fence, bool](8),
		semaphores: swiss.NewMap[gpu.Semaphore, bool](8),
		commands:   swiss.NewMap[gpu.CommandBuffer, *commandBuffer](8),
		buffers:    swiss.NewMap[gpu.Buffer, *buffer](8),
		memory:     swiss.NewMap[gpu.DeviceMemory, *memory](8),
		swapchains: swiss.NewMap[gpu.Swapchain, *swapchain](2),
		Failures:   map[string]gpu.Result{},
	}
}

func (d *Device) call(name string) gpu.Result {
	d.Calls = append(d.Calls, name)
	return d.Failures[name]
}

func (d *Device) violate(format string, args ...any) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) alloc(kind Kind) uint64 {
	d.next++
	d.objects.Put(d.next, kind)
	return d.next
}

func (d *Device) release(kind Kind, handle uint64) {
	if handle == 0 {
		return
	}
	got, ok := d.objects.Get(handle)
	if !ok || got != kind {
		d.violate("destroy of unknown %s %d", kind, handle)
		return
	}
	d.objects.Delete(handle)
}

func (d *Device) alive(kind Kind, handle uint64) bool {
	got, ok := d.objects.Get(handle)
	return ok && got == kind
}

// Live counts objects of kind that have not been destroyed.
func (d *Device) Live(kind Kind) int {
	n := 0
	d.objects.Iter(func(_ uint64, k Kind) bool {
		if k == kind {
			n++
		}
		return false
	})
	return n
}

// LiveTotal counts every undestroyed object.
func (d *Device) LiveTotal() int {
	return d.objects.Count()
}

// Pending is the number of submissions the host has not waited for.
func (d *Device) Pending() int {
	return len(d.pending)
}

// Commands returns what was last recorded into cmd.
func (d *Device) Commands(cmd gpu.CommandBuffer) []Command {
	cb, ok := d.commands.Get(cmd)
	if !ok {
		return nil
	}
	return cb.commands
}

// FenceSignaled reports the host-visible state of a fence.
func (d *Device) FenceSignaled(fence gpu.Fence) bool {
	signaled, _ := d.fences.Get(fence)
	return signaled
}

// BufferBytes exposes the memory backing a buffer.
func (d *Device) BufferBytes(buf gpu.Buffer) []byte {
	b, ok := d.buffers.Get(buf)
	if !ok {
		return nil
	}
	mem, ok := d.memory.Get(b.memory)
	if !ok {
		return nil
	}
	return mem.data[b.offset : b.offset+b.info.Size]
}

// CountCalls counts calls of a method.
func (d *Device) CountCalls(name string) int {
	n := 0
	for _, c := range d.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (d *Device) Queue(family, index uint32) gpu.Queue {
	return gpu.Queue(family + 1)
}

func (d *Device) CreateCommandPool(family uint32, resettable bool) (gpu.CommandPool, gpu.Result) {
	if r := d.call("CreateCommandPool"); r != gpu.Success {
		return 0, r
	}
	if !resettable {
		d.violate("command pool %d is not resettable", family)
	}
	return gpu.CommandPool(d.alloc(KindCommandPool)), gpu.Success
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	d.call("DestroyCommandPool")
	d.release(KindCommandPool, uint64(pool))
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, gpu.Result) {
	if r := d.call("AllocateCommandBuffers"); r != gpu.Success {
		return nil, r
	}
	if !d.alive(KindCommandPool, uint64(pool)) {
		d.violate("allocate from unknown command pool %d", pool)
	}
	out := make([]gpu.CommandBuffer, count)
	for i := range out {
		out[i] = gpu.CommandBuffer(d.alloc(KindCommandBuffer))
		d.commands.Put(out[i], &commandBuffer{})
	}
	return out, gpu.Success
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	d.call("FreeCommandBuffers")
	for _, cmd := range buffers {
		if d.inFlight(cmd) {
			d.violate("free of command buffer %d while in flight", cmd)
		}
		d.release(KindCommandBuffer, uint64(cmd))
		d.commands.Delete(cmd)
	}
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, gpu.Result) {
	if r := d.call("CreateSemaphore"); r != gpu.Success {
		return 0, r
	}
	s := gpu.Semaphore(d.alloc(KindSemaphore))
	d.semaphores.Put(s, false)
	return s, gpu.Success
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	d.call("DestroySemaphore")
	if len(d.pending) > 0 {
		d.violate("semaphore %d destroyed while work is pending", semaphore)
	}
	d.release(KindSemaphore, uint64(semaphore))
	d.semaphores.Delete(semaphore)
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, gpu.Result) {
	if r := d.call("CreateFence"); r != gpu.Success {
		return 0, r
	}
	f := gpu.Fence(d.alloc(KindFence))
	d.fences.Put(f, signaled)
	return f, gpu.Success
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	d.call("DestroyFence")
	if d.fencePending(fence) {
		d.violate("fence %d destroyed while its submission is pending", fence)
	}
	d.release(KindFence, uint64(fence))
	d.fences.Delete(fence)
}

func (d *Device) fencePending(fence gpu.Fence) bool {
	for _, sub := range d.pending {
		if sub.fence == fence {
			return true
		}
	}
	return false
}

func (d *Device) inFlight(cmd gpu.CommandBuffer) bool {
	for _, sub := range d.pending {
		if slices.Contains(sub.commands, cmd) {
			return true
		}
	}
	return false
}

func (d *Device) WaitForFences(fences []gpu.Fence, waitAll bool, timeout uint64) gpu.Result {
	if r := d.call("WaitForFences"); r != gpu.Success {
		return r
	}
	for _, fence := range fences {
		// Queue order: everything submitted before the fence's batch completes with it.
		last := -1
		for i, sub := range d.pending {
			if sub.fence == fence {
				last = i
			}
		}
		for i := 0; i <= last; i++ {
			d.complete(d.pending[0])
			d.pending = d.pending[1:]
		}
		if signaled, _ := d.fences.Get(fence); !signaled {
			d.violate("wait on fence %d that can never signal", fence)
			return gpu.Timeout
		}
	}
	return gpu.Success
}

func (d *Device) ResetFences(fences []gpu.Fence) gpu.Result {
	if r := d.call("ResetFences"); r != gpu.Success {
		return r
	}
	for _, fence := range fences {
		if d.fencePending(fence) {
			d.violate("fence %d reset while its submission is pending", fence)
		}
		d.fences.Put(fence, false)
	}
	return gpu.Success
}

func (d *Device) FenceStatus(fence gpu.Fence) gpu.Result {
	if d.FenceSignaled(fence) {
		return gpu.Success
	}
	return gpu.NotReady
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, gpu.Result) {
	if r := d.call("CreateSwapchain"); r != gpu.Success {
		return 0, r
	}
	if info.OldSwapchain != 0 && !d.alive(KindSwapchain, uint64(info.OldSwapchain)) {
		d.violate("old swapchain %d is not alive", info.OldSwapchain)
	}
	sc := gpu.Swapchain(d.alloc(KindSwapchain))
	state := &swapchain{info: info, images: make([]gpu.Image, info.MinImageCount)}
	for i := range state.images {
		d.next++
		state.images[i] = gpu.Image(d.next)
	}
	d.swapchains.Put(sc, state)
	d.Swapchains = append(d.Swapchains, info)
	return sc, gpu.Success
}

func (d *Device) DestroySwapchain(sc gpu.Swapchain) {
	d.call("DestroySwapchain")
	if len(d.pending) > 0 {
		d.violate("swapchain %d destroyed while work is pending", sc)
	}
	d.release(KindSwapchain, uint64(sc))
	d.swapchains.Delete(sc)
}

func (d *Device) SwapchainImages(sc gpu.Swapchain) ([]gpu.Image, gpu.Result) {
	state, ok := d.swapchains.Get(sc)
	if !ok {
		return nil, gpu.ErrorInitializationFailed
	}
	return slices.Clone(state.images), gpu.Success
}

func (d *Device) AcquireNextImage(sc gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	d.call("AcquireNextImage")
	result := gpu.Success
	if len(d.AcquireResults) > 0 {
		result = d.AcquireResults[0]
		d.AcquireResults = d.AcquireResults[1:]
	}
	if result < 0 {
		return 0, result
	}
	state, ok := d.swapchains.Get(sc)
	if !ok {
		d.violate("acquire from unknown swapchain %d", sc)
		return 0, gpu.ErrorSurfaceLost
	}
	if signaled, _ := d.semaphores.Get(semaphore); signaled {
		d.violate("acquire semaphore %d is already signaled", semaphore)
	}
	d.semaphores.Put(semaphore, true)
	idx := state.next
	state.next = (state.next + 1) % uint32(len(state.images))
	return idx, result
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, gpu.Result) {
	if r := d.call("CreateImageView"); r != gpu.Success {
		return 0, r
	}
	return gpu.ImageView(d.alloc(KindImageView)), gpu.Success
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	d.call("DestroyImageView")
	d.release(KindImageView, uint64(view))
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, gpu.Result) {
	if r := d.call("CreateRenderPass"); r != gpu.Success {
		return 0, r
	}
	return gpu.RenderPass(d.alloc(KindRenderPass)), gpu.Success
}

func (d *Device) DestroyRenderPass(pass gpu.RenderPass) {
	d.call("DestroyRenderPass")
	d.release(KindRenderPass, uint64(pass))
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, gpu.Result) {
	if r := d.call("CreateFramebuffer"); r != gpu.Success {
		return 0, r
	}
	if !d.alive(KindRenderPass, uint64(info.RenderPass)) {
		d.violate("framebuffer on unknown render pass %d", info.RenderPass)
	}
	return gpu.Framebuffer(d.alloc(KindFramebuffer)), gpu.Success
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	d.call("DestroyFramebuffer")
	if len(d.pending) > 0 {
		d.violate("framebuffer %d destroyed while work is pending", framebuffer)
	}
	d.release(KindFramebuffer, uint64(framebuffer))
}

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, gpu.Result) {
	if r := d.call("CreateShaderModule"); r != gpu.Success {
		return 0, r
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, gpu.ErrorInitializationFailed
	}
	return gpu.ShaderModule(d.alloc(KindShaderModule)), gpu.Success
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	d.call("DestroyShaderModule")
	d.release(KindShaderModule, uint64(module))
}

func (d *Device) CreatePipelineLayout(info gpu.PipelineLayoutCreateInfo) (gpu.PipelineLayout, gpu.Result) {
	if r := d.call("CreatePipelineLayout"); r != gpu.Success {
		return 0, r
	}
	return gpu.PipelineLayout(d.alloc(KindPipelineLayout)), gpu.Success
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	d.call("DestroyPipelineLayout")
	d.release(KindPipelineLayout, uint64(layout))
}

func (d *Device) CreateGraphicsPipelines(infos []gpu.GraphicsPipelineCreateInfo) ([]gpu.Pipeline, gpu.Result) {
	if r := d.call("CreateGraphicsPipelines"); r != gpu.Success {
		return nil, r
	}
	out := make([]gpu.Pipeline, len(infos))
	for i, info := range infos {
		for _, stage := range info.Stages {
			if !d.alive(KindShaderModule, uint64(stage.Module)) {
				d.violate("pipeline %d uses dead shader module %d", i, stage.Module)
			}
		}
		if !d.alive(KindRenderPass, uint64(info.RenderPass)) {
			d.violate("pipeline %d uses unknown render pass %d", i, info.RenderPass)
		}
		if info.BasePipelineIndex >= int32(i) {
			d.violate("pipeline %d derives from later pipeline %d", i, info.BasePipelineIndex)
		}
		out[i] = gpu.Pipeline(d.alloc(KindPipeline))
	}
	d.Pipelines = append(d.Pipelines, infos...)
	return out, gpu.Success
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	d.call("DestroyPipeline")
	d.release(KindPipeline, uint64(pipeline))
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, gpu.Result) {
	if r := d.call("CreateBuffer"); r != gpu.Success {
		return 0, r
	}
	if info.Size == 0 {
		return 0, gpu.ErrorInitializationFailed
	}
	b := gpu.Buffer(d.alloc(KindBuffer))
	d.buffers.Put(b, &buffer{info: info})
	return b, gpu.Success
}

func (d *Device) DestroyBuffer(buf gpu.Buffer) {
	d.call("DestroyBuffer")
	if len(d.pending) > 0 {
		d.violate("buffer %d destroyed while work is pending", buf)
	}
	d.release(KindBuffer, uint64(buf))
	d.buffers.Delete(buf)
}

func (d *Device) BufferMemoryRequirements(buf gpu.Buffer) gpu.MemoryRequirements {
	b, ok := d.buffers.Get(buf)
	if !ok {
		return gpu.MemoryRequirements{}
	}
	types := d.memoryTypes()
	return gpu.MemoryRequirements{
		Size:           b.info.Size,
		Alignment:      4,
		MemoryTypeBits: uint32(1)<<uint(len(types)) - 1,
	}
}

func (d *Device) memoryTypes() []gpu.MemoryType {
	return d.instance.MemoryProperties(d.instance.Physical).Types
}

func (d *Device) AllocateMemory(size uint64, memoryType uint32) (gpu.DeviceMemory, gpu.Result) {
	if r := d.call("AllocateMemory"); r != gpu.Success {
		return 0, r
	}
	if int(memoryType) >= len(d.memoryTypes()) {
		return 0, gpu.ErrorOutOfDeviceMemory
	}
	m := gpu.DeviceMemory(d.alloc(KindMemory))
	d.memory.Put(m, &memory{data: make([]byte, size), memoryType: memoryType})
	return m, gpu.Success
}

func (d *Device) FreeMemory(mem gpu.DeviceMemory) {
	d.call("FreeMemory")
	if m, ok := d.memory.Get(mem); ok && m.mapped {
		d.violate("memory %d freed while mapped", mem)
	}
	d.release(KindMemory, uint64(mem))
	d.memory.Delete(mem)
}

func (d *Device) BindBufferMemory(buf gpu.Buffer, mem gpu.DeviceMemory, offset uint64) gpu.Result {
	if r := d.call("BindBufferMemory"); r != gpu.Success {
		return r
	}
	b, ok := d.buffers.Get(buf)
	m, mok := d.memory.Get(mem)
	if !ok || !mok || offset+b.info.Size > uint64(len(m.data)) {
		return gpu.ErrorOutOfDeviceMemory
	}
	b.memory = mem
	b.offset = offset
	return gpu.Success
}

func (d *Device) MapMemory(mem gpu.DeviceMemory, offset, size uint64) ([]byte, gpu.Result) {
	if r := d.call("MapMemory"); r != gpu.Success {
		return nil, r
	}
	m, ok := d.memory.Get(mem)
	if !ok {
		return nil, gpu.ErrorMemoryMapFailed
	}
	if d.memoryTypes()[m.memoryType].Flags&gpu.MemoryHostVisible == 0 {
		d.violate("map of device-local memory %d", mem)
		return nil, gpu.ErrorMemoryMapFailed
	}
	if m.mapped {
		d.violate("memory %d mapped twice", mem)
	}
	if size == 0 {
		d.violate("zero-length map of memory %d", mem)
		return nil, gpu.ErrorMemoryMapFailed
	}
	if offset+size > uint64(len(m.data)) {
		return nil, gpu.ErrorMemoryMapFailed
	}
	m.mapped = true
	return m.data[offset : offset+size], gpu.Success
}

func (d *Device) UnmapMemory(mem gpu.DeviceMemory) {
	d.call("UnmapMemory")
	if m, ok := d.memory.Get(mem); ok {
		m.mapped = false
	}
}

func (d *Device) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTime bool) gpu.Result {
	if r := d.call("BeginCommandBuffer"); r != gpu.Success {
		return r
	}
	cb, ok := d.commands.Get(cmd)
	if !ok {
		return gpu.ErrorInitializationFailed
	}
	if d.inFlight(cmd) {
		d.violate("command buffer %d begun while in flight", cmd)
	}
	cb.state = cmdRecording
	cb.commands = nil
	return gpu.Success
}

func (d *Device) EndCommandBuffer(cmd gpu.CommandBuffer) gpu.Result {
	if r := d.call("EndCommandBuffer"); r != gpu.Success {
		return r
	}
	cb, ok := d.commands.Get(cmd)
	if !ok || cb.state != cmdRecording {
		return gpu.ErrorInitializationFailed
	}
	cb.state = cmdExecutable
	return gpu.Success
}

func (d *Device) ResetCommandBuffer(cmd gpu.CommandBuffer) gpu.Result {
	if r := d.call("ResetCommandBuffer"); r != gpu.Success {
		return r
	}
	cb, ok := d.commands.Get(cmd)
	if !ok {
		return gpu.ErrorInitializationFailed
	}
	if d.inFlight(cmd) {
		d.violate("command buffer %d reset while in flight", cmd)
	}
	cb.state = cmdInitial
	cb.commands = nil
	return gpu.Success
}

func (d *Device) record(cmd gpu.CommandBuffer, c Command) {
	cb, ok := d.commands.Get(cmd)
	if !ok || cb.state != cmdRecording {
		d.violate("%s recorded outside a recording command buffer %d", c.Op, cmd)
		return
	}
	cb.commands = append(cb.commands, c)
}

func (d *Device) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	d.record(cmd, Command{Op: "BeginRenderPass", Framebuffer: info.Framebuffer})
}

func (d *Device) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	d.record(cmd, Command{Op: "EndRenderPass"})
}

func (d *Device) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.record(cmd, Command{Op: "BindPipeline", Pipeline: pipeline})
}

func (d *Device) CmdSetViewport(cmd gpu.CommandBuffer, viewport gpu.Viewport) {
	d.record(cmd, Command{Op: "SetViewport"})
}

func (d *Device) CmdSetScissor(cmd gpu.CommandBuffer, scissor gpu.Rect2D) {
	d.record(cmd, Command{Op: "SetScissor"})
}

func (d *Device) CmdBindVertexBuffers(cmd gpu.CommandBuffer, buffers []gpu.Buffer, offsets []uint64) {
	d.record(cmd, Command{Op: "BindVertexBuffers", Buffers: slices.Clone(buffers)})
}

func (d *Device) CmdBindIndexBuffer(cmd gpu.CommandBuffer, buf gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	d.record(cmd, Command{Op: "BindIndexBuffer", Buffers: []gpu.Buffer{buf}})
}

func (d *Device) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount uint32) {
	d.record(cmd, Command{Op: "Draw", Count: vertexCount})
}

func (d *Device) CmdDrawIndexed(cmd gpu.CommandBuffer, indexCount, instanceCount uint32) {
	d.record(cmd, Command{Op: "DrawIndexed", Count: indexCount})
}

func (d *Device) CmdCopyBuffer(cmd gpu.CommandBuffer, src, dst gpu.Buffer, regions []gpu.BufferCopy) {
	d.record(cmd, Command{Op: "CopyBuffer", Src: src, Dst: dst, Regions: slices.Clone(regions)})
}

func (d *Device) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) gpu.Result {
	if r := d.call("QueueSubmit"); r != gpu.Success {
		return r
	}
	if fence != 0 && d.FenceSignaled(fence) {
		d.violate("submit with already signaled fence %d", fence)
	}
	sub := submission{fence: fence}
	for _, info := range submits {
		if len(info.WaitStages) != len(info.WaitSemaphores) {
			d.violate("submit has %d wait semaphores and %d stages", len(info.WaitSemaphores), len(info.WaitStages))
		}
		for _, s := range info.WaitSemaphores {
			if signaled, _ := d.semaphores.Get(s); !signaled {
				d.violate("submit waits on unsignaled semaphore %d", s)
			}
			d.semaphores.Put(s, false)
		}
		for _, cmd := range info.CommandBuffers {
			cb, ok := d.commands.Get(cmd)
			if !ok || cb.state != cmdExecutable {
				d.violate("submit of command buffer %d that is not executable", cmd)
				continue
			}
			cb.state = cmdPending
			sub.commands = append(sub.commands, cmd)
		}
		for _, s := range info.SignalSemaphores {
			d.semaphores.Put(s, true)
		}
	}
	d.pending = append(d.pending, sub)
	return gpu.Success
}

func (d *Device) complete(sub submission) {
	for _, cmd := range sub.commands {
		cb, ok := d.commands.Get(cmd)
		if !ok {
			continue
		}
		for _, c := range cb.commands {
			if c.Op == "CopyBuffer" {
				d.copy(c)
			}
		}
		cb.state = cmdExecutable
	}
	if sub.fence != 0 {
		d.fences.Put(sub.fence, true)
	}
}

func (d *Device) copy(c Command) {
	src := d.BufferBytes(c.Src)
	dst := d.BufferBytes(c.Dst)
	for _, r := range c.Regions {
		if r.SrcOffset+r.Size > uint64(len(src)) || r.DstOffset+r.Size > uint64(len(dst)) {
			d.violate("copy region out of range")
			continue
		}
		copy(dst[r.DstOffset:r.DstOffset+r.Size], src[r.SrcOffset:r.SrcOffset+r.Size])
	}
}

func (d *Device) drain() {
	for _, sub := range d.pending {
		d.complete(sub)
	}
	d.pending = nil
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) gpu.Result {
	if r := d.call("QueueWaitIdle"); r != gpu.Success {
		return r
	}
	d.drain()
	return gpu.Success
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	d.call("QueuePresent")
	for _, s := range info.WaitSemaphores {
		if signaled, _ := d.semaphores.Get(s); !signaled {
			d.violate("present waits on unsignaled semaphore %d", s)
		}
		d.semaphores.Put(s, false)
	}
	result := gpu.Success
	if len(d.PresentResults) > 0 {
		result = d.PresentResults[0]
		d.PresentResults = d.PresentResults[1:]
	}
	if result >= 0 {
		d.Presented = append(d.Presented, info.ImageIndex)
	}
	return result
}

func (d *Device) WaitIdle() gpu.Result {
	if r := d.call("WaitIdle"); r != gpu.Success {
		return r
	}
	d.drain()
	return gpu.Success
}

func (d *Device) Destroy() {
	d.call("Destroy")
	if len(d.pending) > 0 {
		d.violate("device destroyed with %d pending submissions", len(d.pending))
	}
	d.Destroyed = true
}
