package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/avixel/gpu"
)

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, gpu.Result) {
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, gpu.ErrorInitializationFailed
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.modules.add(module), gpu.Success
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	if m, ok := d.modules.remove(module); ok {
		vk.DestroyShaderModule(d.device, m, nil)
	}
}

func (d *Device) CreatePipelineLayout(info gpu.PipelineLayoutCreateInfo) (gpu.PipelineLayout, gpu.Result) {
	create := vk.PipelineLayoutCreateInfo{SType: vk.StructureTypePipelineLayoutCreateInfo}
	if info.PushConstantSize > 0 {
		create.PushConstantRangeCount = 1
		create.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(info.PushConstantStages),
			Size:       info.PushConstantSize,
		}}
	}
	var layout vk.PipelineLayout
	if ret := vk.CreatePipelineLayout(d.device, &create, nil, &layout); ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.layouts.add(layout), gpu.Success
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	if l, ok := d.layouts.remove(layout); ok {
		vk.DestroyPipelineLayout(d.device, l, nil)
	}
}

// pipelineState keeps every nested create-info alive until the create call returns.
type pipelineState struct {
	stages      []vk.PipelineShaderStageCreateInfo
	bindings    []vk.VertexInputBindingDescription
	attributes  []vk.VertexInputAttributeDescription
	vertexInput vk.PipelineVertexInputStateCreateInfo
	assembly    vk.PipelineInputAssemblyStateCreateInfo
	viewport    vk.PipelineViewportStateCreateInfo
	rasterizer  vk.PipelineRasterizationStateCreateInfo
	multisample vk.PipelineMultisampleStateCreateInfo
	attachments []vk.PipelineColorBlendAttachmentState
	blend       vk.PipelineColorBlendStateCreateInfo
	dynamics    []vk.DynamicState
	dynamic     vk.PipelineDynamicStateCreateInfo
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.Bool32(vk.True)
	}
	return vk.Bool32(vk.False)
}

func (d *Device) pipelineInfo(info gpu.GraphicsPipelineCreateInfo, st *pipelineState) vk.GraphicsPipelineCreateInfo {
	st.stages = make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, stage := range info.Stages {
		st.stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(stage.Stage),
			Module: d.modules.get(stage.Module),
			PName:  safeString(stage.Entry),
		}
	}

	for _, b := range info.VertexInput.Bindings {
		rate := vk.VertexInputRateVertex
		if b.PerInstance {
			rate = vk.VertexInputRateInstance
		}
		st.bindings = append(st.bindings, vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: rate,
		})
	}
	for _, a := range info.VertexInput.Attributes {
		st.attributes = append(st.attributes, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		})
	}
	st.vertexInput = vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(st.bindings)),
		PVertexBindingDescriptions:      st.bindings,
		VertexAttributeDescriptionCount: uint32(len(st.attributes)),
		PVertexAttributeDescriptions:    st.attributes,
	}

	st.assembly = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(info.Topology),
		PrimitiveRestartEnable: vk.False,
	}
	// Viewport and scissor are dynamic; only the counts are baked in.
	st.viewport = vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	st.rasterizer = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonMode(info.Rasterization.PolygonMode),
		CullMode:                vk.CullModeFlags(info.Rasterization.CullMode),
		FrontFace:               vk.FrontFace(info.Rasterization.FrontFace),
		DepthBiasEnable:         vk.False,
		LineWidth:               info.Rasterization.LineWidth,
	}
	st.multisample = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCountFlagBits(info.Samples),
		MinSampleShading:     1.0,
	}

	blend := info.Blend
	st.attachments = []vk.PipelineColorBlendAttachmentState{{
		BlendEnable:         bool32(blend.Enable),
		SrcColorBlendFactor: vk.BlendFactor(blend.SrcColorFactor),
		DstColorBlendFactor: vk.BlendFactor(blend.DstColorFactor),
		ColorBlendOp:        vk.BlendOp(blend.ColorOp),
		SrcAlphaBlendFactor: vk.BlendFactor(blend.SrcAlphaFactor),
		DstAlphaBlendFactor: vk.BlendFactor(blend.DstAlphaFactor),
		AlphaBlendOp:        vk.BlendOp(blend.AlphaOp),
		ColorWriteMask:      vk.ColorComponentFlags(blend.WriteMask),
	}}
	st.blend = vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(st.attachments)),
		PAttachments:    st.attachments,
	}

	for _, ds := range info.DynamicStates {
		st.dynamics = append(st.dynamics, vk.DynamicState(ds))
	}
	st.dynamic = vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(st.dynamics)),
		PDynamicStates:    st.dynamics,
	}

	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		Flags:               vk.PipelineCreateFlags(info.Flags),
		StageCount:          uint32(len(st.stages)),
		PStages:             st.stages,
		PVertexInputState:   &st.vertexInput,
		PInputAssemblyState: &st.assembly,
		PViewportState:      &st.viewport,
		PRasterizationState: &st.rasterizer,
		PMultisampleState:   &st.multisample,
		PColorBlendState:    &st.blend,
		PDynamicState:       &st.dynamic,
		Layout:              d.layouts.get(info.Layout),
		RenderPass:          d.renderPasses.get(info.RenderPass),
		Subpass:             info.Subpass,
		BasePipelineIndex:   info.BasePipelineIndex,
	}
}

// CreateGraphicsPipelines issues one create call so derivatives can name their base by index.
func (d *Device) CreateGraphicsPipelines(infos []gpu.GraphicsPipelineCreateInfo) ([]gpu.Pipeline, gpu.Result) {
	states := make([]pipelineState, len(infos))
	creates := make([]vk.GraphicsPipelineCreateInfo, len(infos))
	for i, info := range infos {
		creates[i] = d.pipelineInfo(info, &states[i])
	}
	list := make([]vk.Pipeline, len(infos))
	ret := vk.CreateGraphicsPipelines(d.device, nil, uint32(len(creates)), creates, nil, list)
	if ret != vk.Success {
		for _, p := range list {
			if p != vk.NullPipeline {
				vk.DestroyPipeline(d.device, p, nil)
			}
		}
		return nil, gpu.Result(ret)
	}
	out := make([]gpu.Pipeline, len(list))
	for i, p := range list {
		out[i] = d.pipelines.add(p)
	}
	return out, gpu.Success
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	if p, ok := d.pipelines.remove(pipeline); ok {
		vk.DestroyPipeline(d.device, p, nil)
	}
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, gpu.Result) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.buffers.add(buffer), gpu.Success
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	if b, ok := d.buffers.remove(buffer); ok {
		vk.DestroyBuffer(d.device, b, nil)
	}
}

func (d *Device) BufferMemoryRequirements(buffer gpu.Buffer) gpu.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, d.buffers.get(buffer), &reqs)
	reqs.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(reqs.Size),
		Alignment:      uint64(reqs.Alignment),
		MemoryTypeBits: reqs.MemoryTypeBits,
	}
}

func (d *Device) AllocateMemory(size uint64, memoryType uint32) (gpu.DeviceMemory, gpu.Result) {
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryType,
	}, nil, &memory)
	if ret != vk.Success {
		return 0, gpu.Result(ret)
	}
	return d.memory.add(memory), gpu.Success
}

func (d *Device) FreeMemory(memory gpu.DeviceMemory) {
	if m, ok := d.memory.remove(memory); ok {
		vk.FreeMemory(d.device, m, nil)
	}
}

func (d *Device) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) gpu.Result {
	return gpu.Result(vk.BindBufferMemory(d.device, d.buffers.get(buffer), d.memory.get(memory), vk.DeviceSize(offset)))
}

func (d *Device) MapMemory(memory gpu.DeviceMemory, offset, size uint64) ([]byte, gpu.Result) {
	var data unsafe.Pointer
	ret := vk.MapMemory(d.device, d.memory.get(memory), vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)
	if ret != vk.Success {
		return nil, gpu.Result(ret)
	}
	return unsafe.Slice((*byte)(data), size), gpu.Success
}

func (d *Device) UnmapMemory(memory gpu.DeviceMemory) {
	vk.UnmapMemory(d.device, d.memory.get(memory))
}
