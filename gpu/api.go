// Package gpu is the narrow binding surface the engine drives. It mirrors the subset of a
// Vulkan-class explicit API the renderer needs so the engine can run against the production
// backend in gpu/vulkan or the recording fake in gpu/gputest.
package gpu

type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
}

type InstanceCreateInfo struct {
	Application ApplicationInfo
	Extensions  []string
	Layers      []string
	// Debug is installed as the validation messenger when non-nil.
	Debug DebugCallback
}

type QueueCreateInfo struct {
	Family     uint32
	Priorities []float32
}

type DeviceCreateInfo struct {
	Queues     []QueueCreateInfo
	Extensions []string
	Layers     []string
}

type SwapchainCreateInfo struct {
	Surface        Surface
	MinImageCount  uint32
	Format         Format
	ColorSpace     ColorSpace
	Extent         Extent2D
	PreTransform   SurfaceTransform
	CompositeAlpha CompositeAlpha
	PresentMode    PresentMode
	// QueueFamilies lists every family touching the images; more than one means concurrent sharing.
	QueueFamilies []uint32
	OldSwapchain  Swapchain
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

type RenderPassCreateInfo struct {
	ColorFormat Format
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsage
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect2D
	ClearColor  [4]float32
}

type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

// Loader is the process-level entry point of a backend.
type Loader interface {
	// InstanceExtensions lists the instance extensions the platform supports.
	InstanceExtensions() ([]string, Result)
	// InstanceLayers lists the instance layers present, validation layers among them.
	InstanceLayers() ([]string, Result)
	CreateInstance(info InstanceCreateInfo) (Instance, Result)
}

// Instance is an API instance plus the physical-device queries made against it.
type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, Result)
	Properties(physical PhysicalDevice) PhysicalDeviceProperties
	QueueFamilies(physical PhysicalDevice) []QueueFamilyProperties
	SurfaceSupport(physical PhysicalDevice, family uint32, surface Surface) (bool, Result)
	DeviceExtensions(physical PhysicalDevice) ([]string, Result)
	SurfaceCapabilities(physical PhysicalDevice, surface Surface) (SurfaceCapabilities, Result)
	SurfaceFormats(physical PhysicalDevice, surface Surface) ([]SurfaceFormat, Result)
	PresentModes(physical PhysicalDevice, surface Surface) ([]PresentMode, Result)
	MemoryProperties(physical PhysicalDevice) MemoryProperties
	CreateDevice(physical PhysicalDevice, info DeviceCreateInfo) (Device, Result)
	DestroySurface(surface Surface)
	Destroy()
}

// Device is a logical device. Command recording calls take the command buffer they record into.
type Device interface {
	Queue(family, index uint32) Queue

	CreateCommandPool(family uint32, resettable bool) (CommandPool, Result)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffers(pool CommandPool, count uint32) ([]CommandBuffer, Result)
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)

	CreateSemaphore() (Semaphore, Result)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, Result)
	DestroyFence(fence Fence)
	WaitForFences(fences []Fence, waitAll bool, timeout uint64) Result
	ResetFences(fences []Fence) Result
	FenceStatus(fence Fence) Result

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, Result)
	DestroySwapchain(swapchain Swapchain)
	SwapchainImages(swapchain Swapchain) ([]Image, Result)
	AcquireNextImage(swapchain Swapchain, timeout uint64, semaphore Semaphore, fence Fence) (uint32, Result)

	CreateImageView(info ImageViewCreateInfo) (ImageView, Result)
	DestroyImageView(view ImageView)
	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, Result)
	DestroyRenderPass(pass RenderPass)
	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, Result)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateShaderModule(code []byte) (ShaderModule, Result)
	DestroyShaderModule(module ShaderModule)
	CreatePipelineLayout(info PipelineLayoutCreateInfo) (PipelineLayout, Result)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipelines(infos []GraphicsPipelineCreateInfo) ([]Pipeline, Result)
	DestroyPipeline(pipeline Pipeline)

	CreateBuffer(info BufferCreateInfo) (Buffer, Result)
	DestroyBuffer(buffer Buffer)
	BufferMemoryRequirements(buffer Buffer) MemoryRequirements
	AllocateMemory(size uint64, memoryType uint32) (DeviceMemory, Result)
	FreeMemory(memory DeviceMemory)
	BindBufferMemory(buffer Buffer, memory DeviceMemory, offset uint64) Result
	// MapMemory returns a host view of the range, valid until UnmapMemory.
	MapMemory(memory DeviceMemory, offset, size uint64) ([]byte, Result)
	UnmapMemory(memory DeviceMemory)

	BeginCommandBuffer(cmd CommandBuffer, oneTime bool) Result
	EndCommandBuffer(cmd CommandBuffer) Result
	ResetCommandBuffer(cmd CommandBuffer) Result
	CmdBeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(cmd CommandBuffer)
	CmdBindPipeline(cmd CommandBuffer, pipeline Pipeline)
	CmdSetViewport(cmd CommandBuffer, viewport Viewport)
	CmdSetScissor(cmd CommandBuffer, scissor Rect2D)
	CmdBindVertexBuffers(cmd CommandBuffer, buffers []Buffer, offsets []uint64)
	CmdBindIndexBuffer(cmd CommandBuffer, buffer Buffer, offset uint64, indexType IndexType)
	CmdDraw(cmd CommandBuffer, vertexCount, instanceCount uint32)
	CmdDrawIndexed(cmd CommandBuffer, indexCount, instanceCount uint32)
	CmdCopyBuffer(cmd CommandBuffer, src, dst Buffer, regions []BufferCopy)

	QueueSubmit(queue Queue, submits []SubmitInfo, fence Fence) Result
	QueueWaitIdle(queue Queue) Result
	QueuePresent(queue Queue, info PresentInfo) Result
	WaitIdle() Result
	Destroy()
}
