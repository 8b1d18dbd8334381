package render

import (
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryTransfer = "transfer"

const stagingProperties = gpu.MemoryHostVisible | gpu.MemoryHostCoherent

// DeviceBuffer is a buffer with its own memory allocation. It belongs to exactly one
// DeviceContext and never takes part in operations on another.
type DeviceBuffer struct {
	ctx        *DeviceContext
	id         uint64
	buffer     gpu.Buffer
	memory     gpu.DeviceMemory
	size       uint64
	usage      gpu.BufferUsage
	properties gpu.MemoryPropertyFlags
}

// CreateBuffer allocates size bytes with the given usage in memory with props.
func CreateBuffer(ctx *DeviceContext, size uint64, usage gpu.BufferUsage, props gpu.MemoryPropertyFlags) (*DeviceBuffer, error) {
	if size == 0 {
		return nil, report.Errorf(report.CodeInvalidSize, categoryTransfer, "buffer size must be nonzero")
	}
	dev := ctx.device

	handle, res := dev.CreateBuffer(gpu.BufferCreateInfo{Size: size, Usage: usage})
	if err := gpu.Check(res); err != nil {
		return nil, ctx.fail(report.Wrapf(err, allocationCode(res), categoryTransfer, "create buffer of %d bytes", size))
	}

	reqs := dev.BufferMemoryRequirements(handle)
	memoryType, err := ctx.FindMemoryType(reqs.MemoryTypeBits, props)
	if err != nil {
		dev.DestroyBuffer(handle)
		return nil, ctx.fail(err)
	}

	mem, res := dev.AllocateMemory(reqs.Size, memoryType)
	if err := gpu.Check(res); err != nil {
		dev.DestroyBuffer(handle)
		return nil, ctx.fail(report.Wrapf(err, report.CodeMemoryError, categoryTransfer, "allocate %d bytes from memory type %d", reqs.Size, memoryType))
	}

	if err := gpu.Check(dev.BindBufferMemory(handle, mem, 0)); err != nil {
		dev.FreeMemory(mem)
		dev.DestroyBuffer(handle)
		return nil, ctx.fail(report.Wrapf(err, report.CodeMemoryError, categoryTransfer, "bind buffer memory"))
	}

	buf := &DeviceBuffer{
		ctx:        ctx,
		buffer:     handle,
		memory:     mem,
		size:       size,
		usage:      usage,
		properties: props,
	}
	ctx.register(buf)
	return buf, nil
}

func allocationCode(res gpu.Result) report.Code {
	if res.OutOfMemory() {
		return report.CodeMemoryError
	}
	return report.CodeCreationError
}

func (b *DeviceBuffer) Handle() gpu.Buffer {
	return b.buffer
}

func (b *DeviceBuffer) Size() uint64 {
	return b.size
}

func (b *DeviceBuffer) Usage() gpu.BufferUsage {
	return b.usage
}

func (b *DeviceBuffer) Context() *DeviceContext {
	return b.ctx
}

func (b *DeviceBuffer) HostVisible() bool {
	return b.properties&gpu.MemoryHostVisible != 0
}

func (b *DeviceBuffer) mapped(size uint64, fn func(mem []byte)) error {
	if !b.HostVisible() {
		return report.Errorf(report.CodeInvalidArguments, categoryTransfer, "buffer %d is not host visible", b.id)
	}
	if size > b.size {
		return report.Errorf(report.CodeInvalidSize, categoryTransfer, "%d bytes do not fit buffer %d of %d bytes", size, b.id, b.size)
	}
	// Mapping zero bytes is invalid usage.
	if size == 0 {
		return nil
	}
	mem, res := b.ctx.device.MapMemory(b.memory, 0, size)
	if err := gpu.Check(res); err != nil {
		return b.ctx.fail(report.Wrapf(err, report.CodeMemoryError, categoryTransfer, "map buffer %d", b.id))
	}
	fn(mem)
	b.ctx.device.UnmapMemory(b.memory)
	return nil
}

// Push writes data at the start of a host-visible buffer. Empty data is a no-op.
func (b *DeviceBuffer) Push(data []byte) error {
	return b.mapped(uint64(len(data)), func(mem []byte) {
		copy(mem, data)
	})
}

// Pull reads len(dst) bytes from the start of a host-visible buffer.
func (b *DeviceBuffer) Pull(dst []byte) error {
	return b.mapped(uint64(len(dst)), func(mem []byte) {
		copy(dst, mem)
	})
}

// Destroy frees the buffer and its memory. The buffer must not be referenced by pending work.
func (b *DeviceBuffer) Destroy() {
	if b.buffer == 0 {
		return
	}
	b.ctx.device.DestroyBuffer(b.buffer)
	b.ctx.device.FreeMemory(b.memory)
	b.ctx.unregister(b)
	b.buffer = 0
	b.memory = 0
}

// CopyBuffer copies all of src into dst and waits for completion. Buffers from different devices
// or of different sizes are rejected before anything is recorded.
func CopyBuffer(src, dst *DeviceBuffer) error {
	if src == nil || dst == nil || src.buffer == 0 || dst.buffer == 0 {
		return report.Errorf(report.CodeInvalidArguments, categoryTransfer, "copy with a destroyed or missing buffer")
	}
	rep := src.ctx.rep
	if src.ctx != dst.ctx {
		return rep.Error(report.Errorf(report.CodeDeviceMismatch, categoryTransfer,
			"buffer %d and buffer %d belong to different devices", src.id, dst.id))
	}
	if src.size != dst.size {
		return rep.Error(report.Errorf(report.CodeInvalidSize, categoryTransfer,
			"source buffer is %d bytes, destination buffer is %d bytes", src.size, dst.size))
	}
	if src == dst {
		return rep.Error(report.Errorf(report.CodeInvalidArguments, categoryTransfer, "buffer %d copied onto itself", src.id))
	}
	if src.usage&gpu.BufferUsageTransferSrc == 0 || dst.usage&gpu.BufferUsageTransferDst == 0 {
		return rep.Error(report.Errorf(report.CodeInvalidArguments, categoryTransfer,
			"buffer %d needs transfer-source usage and buffer %d transfer-destination usage", src.id, dst.id))
	}

	return src.ctx.submitOneShot(func(dev gpu.Device, cmd gpu.CommandBuffer) {
		dev.CmdCopyBuffer(cmd, src.buffer, dst.buffer, []gpu.BufferCopy{{Size: src.size}})
	})
}

// submitOneShot records a single-use command buffer, submits it on the graphics queue and
// blocks until the queue drains.
func (c *DeviceContext) submitOneShot(record func(dev gpu.Device, cmd gpu.CommandBuffer)) error {
	cmds, err := c.AllocateCommandBuffers(1)
	if err != nil {
		return err
	}
	defer c.FreeCommandBuffers(cmds)
	cmd := cmds[0]

	if err := gpu.Check(c.device.BeginCommandBuffer(cmd, true)); err != nil {
		return c.fail(report.Wrapf(err, report.CodeRenderCommandError, categoryTransfer, "begin transfer commands"))
	}
	record(c.device, cmd)
	if err := gpu.Check(c.device.EndCommandBuffer(cmd)); err != nil {
		return c.fail(report.Wrapf(err, report.CodeRenderCommandError, categoryTransfer, "end transfer commands"))
	}

	submit := gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cmd}}
	if err := gpu.Check(c.device.QueueSubmit(c.graphics, []gpu.SubmitInfo{submit}, 0)); err != nil {
		return c.fail(report.Wrapf(err, report.CodeRenderError, categoryTransfer, "submit transfer"))
	}
	if err := gpu.Check(c.device.QueueWaitIdle(c.graphics)); err != nil {
		return c.fail(report.Wrapf(err, report.CodeRenderError, categoryTransfer, "wait for transfer"))
	}
	return nil
}

// Upload places data in a new device-local buffer through a staging buffer. The returned buffer
// has usage plus transfer-destination. The call blocks until the copy completes.
func Upload(ctx *DeviceContext, data []byte, usage gpu.BufferUsage) (*DeviceBuffer, error) {
	size := uint64(len(data))
	if size == 0 {
		return nil, report.Errorf(report.CodeInvalidSize, categoryTransfer, "upload of zero bytes")
	}

	staging, err := CreateBuffer(ctx, size, gpu.BufferUsageTransferSrc, stagingProperties)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.Push(data); err != nil {
		return nil, err
	}

	dst, err := CreateBuffer(ctx, size, usage|gpu.BufferUsageTransferDst, gpu.MemoryDeviceLocal)
	if err != nil {
		return nil, err
	}
	if err := CopyBuffer(staging, dst); err != nil {
		dst.Destroy()
		return nil, err
	}
	ctx.rep.Logf(report.CodeDebugCreate, categoryTransfer, "uploaded %d bytes into buffer %d", size, dst.id)
	return dst, nil
}

// Download reads a device buffer back through a staging buffer. The buffer needs
// transfer-source usage.
func Download(buf *DeviceBuffer) ([]byte, error) {
	if buf == nil || buf.buffer == 0 {
		return nil, report.Errorf(report.CodeInvalidArguments, categoryTransfer, "download of a destroyed buffer")
	}
	out := make([]byte, buf.size)
	if buf.HostVisible() {
		return out, buf.Pull(out)
	}

	staging, err := CreateBuffer(buf.ctx, buf.size, gpu.BufferUsageTransferDst, stagingProperties)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := CopyBuffer(buf, staging); err != nil {
		return nil, err
	}
	if err := staging.Pull(out); err != nil {
		return nil, err
	}
	return out, nil
}
