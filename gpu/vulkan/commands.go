package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/avixel/gpu"
)

func (d *Device) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTime bool) gpu.Result {
	var flags vk.CommandBufferUsageFlags
	if oneTime {
		flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return gpu.Result(vk.BeginCommandBuffer(d.commandBuffers.get(cmd), &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}))
}

func (d *Device) EndCommandBuffer(cmd gpu.CommandBuffer) gpu.Result {
	return gpu.Result(vk.EndCommandBuffer(d.commandBuffers.get(cmd)))
}

func (d *Device) ResetCommandBuffer(cmd gpu.CommandBuffer) gpu.Result {
	return gpu.Result(vk.ResetCommandBuffer(d.commandBuffers.get(cmd), 0))
}

func (d *Device) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	clearValues := []vk.ClearValue{vk.NewClearValue(info.ClearColor[:])}
	vk.CmdBeginRenderPass(d.commandBuffers.get(cmd), &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      d.renderPasses.get(info.RenderPass),
		Framebuffer:     d.framebuffers.get(info.Framebuffer),
		RenderArea:      vkRect(info.Area),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
}

func (d *Device) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffers.get(cmd))
}

func (d *Device) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffers.get(cmd), vk.PipelineBindPointGraphics, d.pipelines.get(pipeline))
}

func (d *Device) CmdSetViewport(cmd gpu.CommandBuffer, viewport gpu.Viewport) {
	vk.CmdSetViewport(d.commandBuffers.get(cmd), 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

func (d *Device) CmdSetScissor(cmd gpu.CommandBuffer, scissor gpu.Rect2D) {
	vk.CmdSetScissor(d.commandBuffers.get(cmd), 0, 1, []vk.Rect2D{vkRect(scissor)})
}

func (d *Device) CmdBindVertexBuffers(cmd gpu.CommandBuffer, buffers []gpu.Buffer, offsets []uint64) {
	list := make([]vk.Buffer, len(buffers))
	offs := make([]vk.DeviceSize, len(buffers))
	for i, b := range buffers {
		list[i] = d.buffers.get(b)
		if i < len(offsets) {
			offs[i] = vk.DeviceSize(offsets[i])
		}
	}
	vk.CmdBindVertexBuffers(d.commandBuffers.get(cmd), 0, uint32(len(list)), list, offs)
}

func (d *Device) CmdBindIndexBuffer(cmd gpu.CommandBuffer, buffer gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	vk.CmdBindIndexBuffer(d.commandBuffers.get(cmd), d.buffers.get(buffer), vk.DeviceSize(offset), vk.IndexType(indexType))
}

func (d *Device) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount uint32) {
	vk.CmdDraw(d.commandBuffers.get(cmd), vertexCount, instanceCount, 0, 0)
}

func (d *Device) CmdDrawIndexed(cmd gpu.CommandBuffer, indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(d.commandBuffers.get(cmd), indexCount, instanceCount, 0, 0, 0)
}

func (d *Device) CmdCopyBuffer(cmd gpu.CommandBuffer, src, dst gpu.Buffer, regions []gpu.BufferCopy) {
	list := make([]vk.BufferCopy, len(regions))
	for i, r := range regions {
		list[i] = vk.BufferCopy{
			SrcOffset: vk.DeviceSize(r.SrcOffset),
			DstOffset: vk.DeviceSize(r.DstOffset),
			Size:      vk.DeviceSize(r.Size),
		}
	}
	vk.CmdCopyBuffer(d.commandBuffers.get(cmd), d.buffers.get(src), d.buffers.get(dst), uint32(len(list)), list)
}

func (d *Device) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) gpu.Result {
	infos := make([]vk.SubmitInfo, len(submits))
	for i, s := range submits {
		wait := make([]vk.Semaphore, len(s.WaitSemaphores))
		for n, sem := range s.WaitSemaphores {
			wait[n] = d.semaphores.get(sem)
		}
		stages := make([]vk.PipelineStageFlags, len(s.WaitStages))
		for n, stage := range s.WaitStages {
			stages[n] = vk.PipelineStageFlags(stage)
		}
		cmds := make([]vk.CommandBuffer, len(s.CommandBuffers))
		for n, cmd := range s.CommandBuffers {
			cmds[n] = d.commandBuffers.get(cmd)
		}
		signal := make([]vk.Semaphore, len(s.SignalSemaphores))
		for n, sem := range s.SignalSemaphores {
			signal[n] = d.semaphores.get(sem)
		}
		infos[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(wait)),
			PWaitSemaphores:      wait,
			PWaitDstStageMask:    stages,
			CommandBufferCount:   uint32(len(cmds)),
			PCommandBuffers:      cmds,
			SignalSemaphoreCount: uint32(len(signal)),
			PSignalSemaphores:    signal,
		}
	}
	return gpu.Result(vk.QueueSubmit(d.queues.get(queue), uint32(len(infos)), infos, d.fences.get(fence)))
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) gpu.Result {
	return gpu.Result(vk.QueueWaitIdle(d.queues.get(queue)))
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	wait := make([]vk.Semaphore, len(info.WaitSemaphores))
	for i, sem := range info.WaitSemaphores {
		wait[i] = d.semaphores.get(sem)
	}
	return gpu.Result(vk.QueuePresent(d.queues.get(queue), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchains.get(info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}))
}
