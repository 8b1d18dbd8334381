package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/avixel/gpu"
)

type queueKey struct {
	family, index uint32
}

// Device wraps a vk.Device. It is not safe for concurrent use; the engine drives it from the
// render thread only.
type Device struct {
	instance *Instance
	device   vk.Device

	queueIndex     map[queueKey]gpu.Queue
	queues         *table[gpu.Queue, vk.Queue]
	pools          *table[gpu.CommandPool, vk.CommandPool]
	commandBuffers *table[gpu.CommandBuffer, vk.CommandBuffer]
	semaphores     *table[gpu.Semaphore, vk.Semaphore]
	fences         *table[gpu.Fence, vk.Fence]
	swapchains     *table[gpu.Swapchain, vk.Swapchain]
	images         *table[gpu.Image, vk.Image]
	views          *table[gpu.ImageView, vk.ImageView]
	renderPasses   *table[gpu.RenderPass, vk.RenderPass]
	framebuffers   *table[gpu.Framebuffer, vk.Framebuffer]
	modules        *table[gpu.ShaderModule, vk.ShaderModule]
	layouts        *table[gpu.PipelineLayout, vk.PipelineLayout]
	pipelines      *table[gpu.Pipeline, vk.Pipeline]
	buffers        *table[gpu.Buffer, vk.Buffer]
	memory         *table[gpu.DeviceMemory, vk.DeviceMemory]

	// swapchainImages remembers which image handles belong to a swapchain so they are
	// retired with it.
	swapchainImages map[gpu.Swapchain][]gpu.Image
}

func newDevice(instance *Instance, device vk.Device) *Device {
	return &Device{
		instance:        instance,
		device:          device,
		queueIndex:      make(map[queueKey]gpu.Queue, 2),
		queues:          newTable[gpu.Queue, vk.Queue](2),
		pools:           newTable[gpu.CommandPool, vk.CommandPool](1),
		commandBuffers:  newTable[gpu.CommandBuffer, vk.CommandBuffer](8),
		semaphores:      newTable[gpu.Semaphore, vk.Semaphore](8),
		fences:          newTable[gpu.Fence, vk.Fence](4),
		swapchains:      newTable[gpu.Swapchain, vk.Swapchain](2),
		images:          newTable[gpu.Image, vk.Image](8),
		views:           newTable[gpu.ImageView, vk.ImageView](8),
		renderPasses:    newTable[gpu.RenderPass, vk.RenderPass](1),
		framebuffers:    newTable[gpu.Framebuffer, vk.Framebuffer](8),
		modules:         newTable[gpu.ShaderModule, vk.ShaderModule](4),
		layouts:         newTable[gpu.PipelineLayout, vk.PipelineLayout](4),
		pipelines:       newTable[gpu.Pipeline, vk.Pipeline](4),
		buffers:         newTable[gpu.Buffer, vk.Buffer](8),
		memory:          newTable[gpu.DeviceMemory, vk.DeviceMemory](8),
		swapchainImages: make(map[gpu.Swapchain][]gpu.Image, 2),
	}
}

func (d *Device) Queue(family, index uint32) gpu.Queue {
	key := queueKey{family, index}
	if q, ok := d.queueIndex[key]; ok {
		return q
	}
	var queue vk.Queue
	vk.GetDeviceQueue(d.device, family, index, &queue)
	q := d.queues.add(queue)
	d.queueIndex[key] = q
	return q
}

func (d *Device) CreateCommandPool(family uint32, resettable bool) (gpu.CommandPool, gpu.Result) {
	var flags vk.CommandPoolCreateFlags
	if resettable {
		flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit)
	}
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            flags,
	}, nil, &pool)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.pools.add(pool), gpu.Success
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	if p, ok := d.pools.remove(pool); ok {
		vk.DestroyCommandPool(d.device, p, nil)
	}
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, gpu.Result) {
	list := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pools.get(pool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, list)
	if ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	out := make([]gpu.CommandBuffer, count)
	for i, cmd := range list {
		out[i] = d.commandBuffers.add(cmd)
	}
	return out, gpu.Success
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	list := make([]vk.CommandBuffer, 0, len(buffers))
	for _, cmd := range buffers {
		if c, ok := d.commandBuffers.remove(cmd); ok {
			list = append(list, c)
		}
	}
	if len(list) > 0 {
		vk.FreeCommandBuffers(d.device, d.pools.get(pool), uint32(len(list)), list)
	}
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, gpu.Result) {
	var semaphore vk.Semaphore
	ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &semaphore)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.semaphores.add(semaphore), gpu.Success
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	if s, ok := d.semaphores.remove(semaphore); ok {
		vk.DestroySemaphore(d.device, s, nil)
	}
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, gpu.Result) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(d.device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.fences.add(fence), gpu.Success
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	if f, ok := d.fences.remove(fence); ok {
		vk.DestroyFence(d.device, f, nil)
	}
}

func (d *Device) nativeFences(fences []gpu.Fence) []vk.Fence {
	list := make([]vk.Fence, len(fences))
	for i, f := range fences {
		list[i] = d.fences.get(f)
	}
	return list
}

func (d *Device) WaitForFences(fences []gpu.Fence, waitAll bool, timeout uint64) gpu.Result {
	all := vk.Bool32(vk.False)
	if waitAll {
		all = vk.Bool32(vk.True)
	}
	return gpu.Result(vk.WaitForFences(d.device, uint32(len(fences)), d.nativeFences(fences), all, timeout))
}

func (d *Device) ResetFences(fences []gpu.Fence) gpu.Result {
	return gpu.Result(vk.ResetFences(d.device, uint32(len(fences)), d.nativeFences(fences)))
}

func (d *Device) FenceStatus(fence gpu.Fence) gpu.Result {
	return gpu.Result(vk.GetFenceStatus(d.device, d.fences.get(fence)))
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, gpu.Result) {
	sharing := vk.SharingModeExclusive
	var families []uint32
	if len(info.QueueFamilies) > 1 {
		sharing = vk.SharingModeConcurrent
		families = info.QueueFamilies
	}
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(d.device, &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               d.instance.surfaces.get(info.Surface),
		MinImageCount:         info.MinImageCount,
		ImageFormat:           vk.Format(info.Format),
		ImageColorSpace:       vk.ColorSpace(info.ColorSpace),
		ImageExtent:           vkExtent(info.Extent),
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharing,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:        vk.CompositeAlphaFlagBits(info.CompositeAlpha),
		PresentMode:           vk.PresentMode(info.PresentMode),
		Clipped:               vk.True,
		OldSwapchain:          d.swapchains.get(info.OldSwapchain),
	}, nil, &swapchain)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.swapchains.add(swapchain), gpu.Success
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	for _, img := range d.swapchainImages[swapchain] {
		d.images.remove(img)
	}
	delete(d.swapchainImages, swapchain)
	if sc, ok := d.swapchains.remove(swapchain); ok {
		vk.DestroySwapchain(d.device, sc, nil)
	}
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, gpu.Result) {
	if images, ok := d.swapchainImages[swapchain]; ok {
		return append([]gpu.Image(nil), images...), gpu.Success
	}
	sc := d.swapchains.get(swapchain)
	var count uint32
	if ret := vk.GetSwapchainImages(d.device, sc, &count, nil); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	list := make([]vk.Image, count)
	if ret := vk.GetSwapchainImages(d.device, sc, &count, list); ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	images := make([]gpu.Image, count)
	for i, img := range list[:count] {
		images[i] = d.images.add(img)
	}
	d.swapchainImages[swapchain] = images
	return append([]gpu.Image(nil), images...), gpu.Success
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	var index uint32
	ret := vk.AcquireNextImage(d.device, d.swapchains.get(swapchain), timeout,
		d.semaphores.get(semaphore), d.fences.get(fence), &index)
	return index, gpu.Result(ret)
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, gpu.Result) {
	var view vk.ImageView
	ret := vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(info.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.views.add(view), gpu.Success
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	if v, ok := d.views.remove(view); ok {
		vk.DestroyImageView(d.device, v, nil)
	}
}

// CreateRenderPass builds a single-subpass pass with one cleared color attachment that ends in
// the present layout.
func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, gpu.Result) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}
	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}}
	// The acquire semaphore is waited on at color output, so the layout transition must wait too.
	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}}

	var pass vk.RenderPass
	ret := vk.CreateRenderPass(d.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &pass)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.renderPasses.add(pass), gpu.Success
}

func (d *Device) DestroyRenderPass(pass gpu.RenderPass) {
	if p, ok := d.renderPasses.remove(pass); ok {
		vk.DestroyRenderPass(d.device, p, nil)
	}
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, gpu.Result) {
	views := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		views[i] = d.views.get(v)
	}
	var framebuffer vk.Framebuffer
	ret := vk.CreateFramebuffer(d.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.get(info.RenderPass),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}, nil, &framebuffer)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.framebuffers.add(framebuffer), gpu.Success
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	if f, ok := d.framebuffers.remove(framebuffer); ok {
		vk.DestroyFramebuffer(d.device, f, nil)
	}
}

func (d *Device) WaitIdle() gpu.Result {
	return gpu.Result(vk.DeviceWaitIdle(d.device))
}

// Destroy releases the logical device. Child objects must already be destroyed.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	vk.DeviceWaitIdle(d.device)
	vk.DestroyDevice(d.device, nil)
	d.device = nil
}
