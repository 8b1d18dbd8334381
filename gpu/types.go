package gpu

// Opaque handles. A zero handle is the null object.
type (
	PhysicalDevice uint64
	Surface        uint64
	Queue          uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Semaphore      uint64
	Fence          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	RenderPass     uint64
	Framebuffer    uint64
	ShaderModule   uint64
	PipelineLayout uint64
	Pipeline       uint64
	Buffer         uint64
	DeviceMemory   uint64
)

// UndefinedExtent in CurrentExtent.Width means the surface size is decided by the swapchain.
const UndefinedExtent = ^uint32(0)

// WaitForever is the timeout value that never expires.
const WaitForever = ^uint64(0)

const SwapchainExtensionName = "VK_KHR_swapchain"

type DeviceType uint32

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "integrated"
	case DeviceTypeDiscreteGPU:
		return "discrete"
	case DeviceTypeVirtualGPU:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

type PhysicalDeviceProperties struct {
	Name       string
	Type       DeviceType
	APIVersion uint32
	VendorID   uint32
	DeviceID   uint32
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
)

type QueueFamilyProperties struct {
	Flags QueueFlags
	Count uint32
}

type Extent2D struct {
	Width  uint32
	Height uint32
}

type Offset2D struct {
	X int32
	Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// Format values match VkFormat.
type Format uint32

const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8Unorm   Format = 37
	FormatR8G8B8A8SRGB    Format = 43
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8SRGB    Format = 50
	FormatR32G32Sfloat    Format = 103
	FormatR32G32B32Sfloat Format = 106
)

func (f Format) String() string {
	switch f {
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8SRGB:
		return "B8G8R8A8_SRGB"
	case FormatR32G32Sfloat:
		return "R32G32_SFLOAT"
	case FormatR32G32B32Sfloat:
		return "R32G32B32_SFLOAT"
	case FormatUndefined:
		return "UNDEFINED"
	}
	return "FORMAT_UNKNOWN"
}

type ColorSpace uint32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode values match VkPresentModeKHR.
type PresentMode uint32

const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFIFO
	PresentModeFIFORelaxed
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "IMMEDIATE"
	case PresentModeMailbox:
		return "MAILBOX"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFO_RELAXED"
	}
	return "PRESENT_MODE_UNKNOWN"
}

type SurfaceTransform uint32

const SurfaceTransformIdentity SurfaceTransform = 1

type CompositeAlpha uint32

const (
	CompositeAlphaOpaque CompositeAlpha = 1 << iota
	CompositeAlphaPreMultiplied
	CompositeAlphaPostMultiplied
	CompositeAlphaInherit
)

type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent2D
	MinImageExtent          Extent2D
	MaxImageExtent          Extent2D
	SupportedTransforms     SurfaceTransform
	CurrentTransform        SurfaceTransform
	SupportedCompositeAlpha CompositeAlpha
}

type MemoryPropertyFlags uint32

const (
	MemoryDeviceLocal MemoryPropertyFlags = 1 << iota
	MemoryHostVisible
	MemoryHostCoherent
	MemoryHostCached
)

type MemoryType struct {
	Flags     MemoryPropertyFlags
	HeapIndex uint32
}

type MemoryProperties struct {
	Types []MemoryType
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type BufferUsage uint32

const (
	BufferUsageTransferSrc   BufferUsage = 0x01
	BufferUsageTransferDst   BufferUsage = 0x02
	BufferUsageUniformBuffer BufferUsage = 0x10
	BufferUsageStorageBuffer BufferUsage = 0x20
	BufferUsageIndexBuffer   BufferUsage = 0x40
	BufferUsageVertexBuffer  BufferUsage = 0x80
)

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x01
	ShaderStageFragment ShaderStage = 0x10
)

type PipelineStage uint32

const (
	PipelineStageTopOfPipe             PipelineStage = 0x001
	PipelineStageColorAttachmentOutput PipelineStage = 0x400
	PipelineStageTransfer              PipelineStage = 0x1000
)

type IndexType uint32

const (
	IndexTypeUint16 IndexType = 0
	IndexTypeUint32 IndexType = 1
)
