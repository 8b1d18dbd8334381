package render

import (
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryPipeline = "pipeline"

type ShaderStageDescriptor struct {
	Stage gpu.ShaderStage
	// Code is SPIR-V.
	Code  []byte
	Entry string
}

// PipelineDescriptor names a pipeline and the shaders it is compiled from.
type PipelineDescriptor struct {
	Name         string
	Stages       []ShaderStageDescriptor
	VertexLayout gpu.VertexLayout
}

// Pipeline owns its layout and state object. The render pass is shared and not owned.
type Pipeline struct {
	Name       string
	Layout     gpu.PipelineLayout
	Handle     gpu.Pipeline
	RenderPass gpu.RenderPass
}

func (p *Pipeline) Destroy(ctx *DeviceContext) {
	if p.Handle != 0 {
		ctx.device.DestroyPipeline(p.Handle)
		p.Handle = 0
	}
	if p.Layout != 0 {
		ctx.device.DestroyPipelineLayout(p.Layout)
		p.Layout = 0
	}
}

// PipelineBuilder holds the fixed-function state shared by the pipelines of one render pass.
// Viewport and scissor are dynamic so a resize never rebuilds pipelines.
type PipelineBuilder struct {
	ctx        *DeviceContext
	renderPass gpu.RenderPass

	inputAssembly        gpu.PrimitiveTopology
	rasterizer           gpu.RasterizationState
	colorBlendAttachment gpu.ColorBlendAttachment
	multisampling        uint32
	dynamicStates        []gpu.DynamicState
}

// NewPipelineBuilder starts from the base profile: triangle lists, back-face culling, alpha
// blending over one color attachment, no depth.
func NewPipelineBuilder(ctx *DeviceContext, renderPass gpu.RenderPass) *PipelineBuilder {
	return &PipelineBuilder{
		ctx:           ctx,
		renderPass:    renderPass,
		inputAssembly: gpu.TopologyTriangleList,
		rasterizer: gpu.RasterizationState{
			PolygonMode: gpu.PolygonModeFill,
			CullMode:    gpu.CullModeBack,
			FrontFace:   gpu.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		colorBlendAttachment: gpu.ColorBlendAttachment{
			Enable:         true,
			SrcColorFactor: gpu.BlendFactorSrcAlpha,
			DstColorFactor: gpu.BlendFactorOneMinusSrcAlpha,
			ColorOp:        gpu.BlendOpAdd,
			SrcAlphaFactor: gpu.BlendFactorOne,
			DstAlphaFactor: gpu.BlendFactorZero,
			AlphaOp:        gpu.BlendOpAdd,
			WriteMask:      gpu.ColorComponentAll,
		},
		multisampling: 1,
		dynamicStates: []gpu.DynamicState{gpu.DynamicStateViewport, gpu.DynamicStateScissor},
	}
}

func (b *PipelineBuilder) SetTopology(topology gpu.PrimitiveTopology) *PipelineBuilder {
	b.inputAssembly = topology
	return b
}

func (b *PipelineBuilder) SetRasterization(state gpu.RasterizationState) *PipelineBuilder {
	b.rasterizer = state
	return b
}

func (b *PipelineBuilder) SetBlend(blend gpu.ColorBlendAttachment) *PipelineBuilder {
	b.colorBlendAttachment = blend
	return b
}

// Build compiles a single pipeline.
func (b *PipelineBuilder) Build(desc PipelineDescriptor) (*Pipeline, error) {
	pipelines, err := b.BuildAll([]PipelineDescriptor{desc})
	if err != nil {
		return nil, err
	}
	return pipelines[0], nil
}

// BuildAll compiles every descriptor in one create call. The first pipeline is the base and
// the rest derive from it. Shader modules live only for the duration of the call.
func (b *PipelineBuilder) BuildAll(descs []PipelineDescriptor) ([]*Pipeline, error) {
	if len(descs) == 0 {
		return nil, report.Errorf(report.CodeInvalidArguments, categoryPipeline, "no pipelines requested")
	}
	dev := b.ctx.device

	var modules []gpu.ShaderModule
	defer func() {
		for _, module := range modules {
			dev.DestroyShaderModule(module)
		}
	}()

	out := make([]*Pipeline, 0, len(descs))
	cleanup := func() {
		for _, p := range out {
			p.Destroy(b.ctx)
		}
	}

	infos := make([]gpu.GraphicsPipelineCreateInfo, len(descs))
	for i, desc := range descs {
		if len(desc.Stages) == 0 {
			cleanup()
			return nil, report.Errorf(report.CodeInvalidArguments, categoryPipeline, "pipeline %q has no shader stages", desc.Name)
		}

		stages := make([]gpu.PipelineShaderStage, len(desc.Stages))
		for s, stage := range desc.Stages {
			module, res := dev.CreateShaderModule(stage.Code)
			if err := gpu.Check(res); err != nil {
				cleanup()
				return nil, b.ctx.fail(report.Wrapf(err, report.CodeCreationError, categoryPipeline,
					"shader module %d of pipeline %q", s, desc.Name))
			}
			modules = append(modules, module)
			entry := stage.Entry
			if entry == "" {
				entry = "main"
			}
			stages[s] = gpu.PipelineShaderStage{Stage: stage.Stage, Module: module, Entry: entry}
		}

		layout, res := dev.CreatePipelineLayout(gpu.PipelineLayoutCreateInfo{})
		if err := gpu.Check(res); err != nil {
			cleanup()
			return nil, b.ctx.fail(report.Wrapf(err, report.CodeCreationError, categoryPipeline, "layout of pipeline %q", desc.Name))
		}
		out = append(out, &Pipeline{Name: desc.Name, Layout: layout, RenderPass: b.renderPass})

		info := gpu.GraphicsPipelineCreateInfo{
			Flags:             gpu.PipelineCreateAllowDerivatives,
			Stages:            stages,
			VertexInput:       desc.VertexLayout,
			Topology:          b.inputAssembly,
			Rasterization:     b.rasterizer,
			Samples:           b.multisampling,
			Blend:             b.colorBlendAttachment,
			DynamicStates:     b.dynamicStates,
			Layout:            layout,
			RenderPass:        b.renderPass,
			BasePipelineIndex: -1,
		}
		if i > 0 {
			info.Flags = gpu.PipelineCreateDerivative
			info.BasePipelineIndex = 0
		}
		infos[i] = info
	}

	handles, res := dev.CreateGraphicsPipelines(infos)
	if err := gpu.Check(res); err != nil {
		cleanup()
		return nil, b.ctx.fail(report.Wrapf(err, report.CodeCreationError, categoryPipeline, "create %d graphics pipelines", len(infos)))
	}
	for i, handle := range handles {
		out[i].Handle = handle
	}
	b.ctx.rep.Logf(report.CodeDebugCreate, categoryPipeline, "created %d pipelines", len(out))
	return out, nil
}
