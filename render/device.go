package render

import (
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryDevice = "device"

// DeviceContext owns the logical device, its queues and the shared command pool. Every GPU
// resource of a window is allocated through it.
type DeviceContext struct {
	instance   *RenderInstance
	physical   gpu.PhysicalDevice
	properties gpu.PhysicalDeviceProperties
	families   QueueFamilyIndices
	memory     gpu.MemoryProperties

	device   gpu.Device
	graphics gpu.Queue
	present  gpu.Queue
	pool     gpu.CommandPool

	buffers    *swiss.Map[uint64, *DeviceBuffer]
	nextBuffer uint64

	status Status
	rep    *report.Reporter
}

// CreateDevice opens the chosen adapter with one queue per distinct family.
func CreateDevice(inst *RenderInstance, choice PhysicalDeviceChoice, validation bool) (*DeviceContext, error) {
	queues := make([]gpu.QueueCreateInfo, 0, 2)
	for _, family := range choice.Families.Unique() {
		queues = append(queues, gpu.QueueCreateInfo{Family: family, Priorities: []float32{1.0}})
	}
	info := gpu.DeviceCreateInfo{
		Queues:     queues,
		Extensions: slices.Clone(DeviceExtensions),
	}
	if validation {
		info.Layers = slices.Clone(ValidationLayers)
	}

	device, res := inst.instance.CreateDevice(choice.Device, info)
	if err := gpu.Check(res); err != nil {
		return nil, report.Wrapf(err, report.CodeCreationError, categoryDevice, "create logical device on %q", choice.Properties.Name)
	}

	ctx := &DeviceContext{
		instance:   inst,
		physical:   choice.Device,
		properties: choice.Properties,
		families:   choice.Families,
		memory:     inst.instance.MemoryProperties(choice.Device),
		device:     device,
		graphics:   device.Queue(choice.Families.Graphics, 0),
		present:    device.Queue(choice.Families.Present, 0),
		buffers:    swiss.NewMap[uint64, *DeviceBuffer](16),
		rep:        inst.rep,
	}

	pool, res := device.CreateCommandPool(choice.Families.Graphics, true)
	if err := gpu.Check(res); err != nil {
		device.Destroy()
		return nil, report.Wrapf(err, report.CodeCreationError, categoryDevice, "create command pool")
	}
	ctx.pool = pool

	ctx.rep.Logf(report.CodeDebugCreate, categoryDevice, "logical device created on %q, graphics family %d, present family %d",
		choice.Properties.Name, choice.Families.Graphics, choice.Families.Present)
	return ctx, nil
}

func (c *DeviceContext) Device() gpu.Device {
	return c.device
}

func (c *DeviceContext) Instance() *RenderInstance {
	return c.instance
}

func (c *DeviceContext) PhysicalDevice() gpu.PhysicalDevice {
	return c.physical
}

func (c *DeviceContext) Properties() gpu.PhysicalDeviceProperties {
	return c.properties
}

func (c *DeviceContext) Families() QueueFamilyIndices {
	return c.families
}

func (c *DeviceContext) GraphicsQueue() gpu.Queue {
	return c.graphics
}

func (c *DeviceContext) PresentQueue() gpu.Queue {
	return c.present
}

func (c *DeviceContext) Status() Status {
	return c.status
}

// fail marks the device unusable when err is fatal and passes err through.
func (c *DeviceContext) fail(err error) error {
	if report.IsFatal(err) {
		c.status.Set(StatusFatalError)
	}
	return err
}

// AllocateCommandBuffers takes count primary buffers from the shared pool.
func (c *DeviceContext) AllocateCommandBuffers(count uint32) ([]gpu.CommandBuffer, error) {
	buffers, res := c.device.AllocateCommandBuffers(c.pool, count)
	if err := gpu.Check(res); err != nil {
		return nil, c.fail(report.Wrapf(err, report.CodeCreationError, categoryDevice, "allocate %d command buffers", count))
	}
	return buffers, nil
}

func (c *DeviceContext) FreeCommandBuffers(buffers []gpu.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	c.device.FreeCommandBuffers(c.pool, buffers)
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *DeviceContext) WaitIdle() error {
	if err := gpu.Check(c.device.WaitIdle()); err != nil {
		return c.fail(report.Wrapf(err, report.CodeRenderError, categoryDevice, "wait for device idle"))
	}
	return nil
}

// FindMemoryType returns the first memory type allowed by typeBits that has every flag in props.
func (c *DeviceContext) FindMemoryType(typeBits uint32, props gpu.MemoryPropertyFlags) (uint32, error) {
	for i, t := range c.memory.Types {
		if typeBits&(1<<uint(i)) != 0 && t.Flags&props == props {
			return uint32(i), nil
		}
	}
	return 0, report.Errorf(report.CodeMemoryError, categoryTransfer,
		"no memory type in mask %#x has properties %#x", typeBits, props)
}

func (c *DeviceContext) register(buf *DeviceBuffer) {
	c.nextBuffer++
	buf.id = c.nextBuffer
	c.buffers.Put(buf.id, buf)
}

func (c *DeviceContext) unregister(buf *DeviceBuffer) {
	c.buffers.Delete(buf.id)
}

// LiveBuffers is the number of buffers created on this device and not yet destroyed.
func (c *DeviceContext) LiveBuffers() int {
	return c.buffers.Count()
}

func (c *DeviceContext) liveBuffers() []*DeviceBuffer {
	byID := make(map[uint64]*DeviceBuffer, c.buffers.Count())
	c.buffers.Iter(func(id uint64, buf *DeviceBuffer) bool {
		byID[id] = buf
		return false
	})
	ids := maps.Keys(byID)
	slices.Sort(ids)
	out := make([]*DeviceBuffer, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// WriteStats dumps the device identity and its live buffers.
func (c *DeviceContext) WriteStats(w *jwriter.Writer) {
	obj := w.Object()
	defer obj.End()

	obj.Name("Device").String(c.properties.Name)
	obj.Name("Type").String(c.properties.Type.String())
	obj.Name("GraphicsFamily").Int(int(c.families.Graphics))
	obj.Name("PresentFamily").Int(int(c.families.Present))

	arr := obj.Name("Buffers").Array()
	for _, buf := range c.liveBuffers() {
		b := arr.Object()
		b.Name("Id").Int(int(buf.id))
		b.Name("Size").Int(int(buf.size))
		b.Name("Usage").Int(int(buf.usage))
		b.Name("HostVisible").Bool(buf.HostVisible())
		b.End()
	}
	arr.End()
}

// Destroy waits for the device, releases leftover buffers and closes the device.
func (c *DeviceContext) Destroy() {
	if c.device == nil {
		return
	}
	if err := c.WaitIdle(); err != nil {
		c.rep.Error(err)
	}
	for _, buf := range c.liveBuffers() {
		c.rep.Logf(report.CodeOutOfBounds, categoryDevice, "buffer %d of %d bytes still alive at device teardown", buf.id, buf.size)
		buf.Destroy()
	}
	c.device.DestroyCommandPool(c.pool)
	c.device.Destroy()
	c.device = nil
	c.rep.Logf(report.CodeDebugDestroy, categoryDevice, "logical device on %q destroyed", c.properties.Name)
}
