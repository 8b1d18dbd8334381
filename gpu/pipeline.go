package gpu

type PrimitiveTopology uint32

const (
	TopologyPointList PrimitiveTopology = iota
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

type PolygonMode uint32

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
	PolygonModePoint
)

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)

type BlendFactor uint32

const (
	BlendFactorZero             BlendFactor = 0
	BlendFactorOne              BlendFactor = 1
	BlendFactorSrcAlpha         BlendFactor = 6
	BlendFactorOneMinusSrcAlpha BlendFactor = 7
)

type BlendOp uint32

const BlendOpAdd BlendOp = 0

type ColorComponents uint32

const (
	ColorComponentR ColorComponents = 1 << iota
	ColorComponentG
	ColorComponentB
	ColorComponentA

	ColorComponentAll = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)

type DynamicState uint32

const (
	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1
)

type PipelineCreateFlags uint32

const (
	PipelineCreateAllowDerivatives PipelineCreateFlags = 0x2
	PipelineCreateDerivative       PipelineCreateFlags = 0x4
)

type VertexInputBinding struct {
	Binding     uint32
	Stride      uint32
	PerInstance bool
}

type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type VertexLayout struct {
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
}

type PipelineShaderStage struct {
	Stage  ShaderStage
	Module ShaderModule
	Entry  string
}

type RasterizationState struct {
	PolygonMode PolygonMode
	CullMode    CullMode
	FrontFace   FrontFace
	LineWidth   float32
}

type ColorBlendAttachment struct {
	Enable         bool
	SrcColorFactor BlendFactor
	DstColorFactor BlendFactor
	ColorOp        BlendOp
	SrcAlphaFactor BlendFactor
	DstAlphaFactor BlendFactor
	AlphaOp        BlendOp
	WriteMask      ColorComponents
}

type GraphicsPipelineCreateInfo struct {
	Flags         PipelineCreateFlags
	Stages        []PipelineShaderStage
	VertexInput   VertexLayout
	Topology      PrimitiveTopology
	Rasterization RasterizationState
	Samples       uint32
	Blend         ColorBlendAttachment
	DynamicStates []DynamicState
	Layout        PipelineLayout
	RenderPass    RenderPass
	Subpass       uint32
	// BasePipelineIndex indexes into the same create call; -1 for none.
	BasePipelineIndex int32
}

type PipelineLayoutCreateInfo struct {
	PushConstantStages ShaderStage
	PushConstantSize   uint32
}
