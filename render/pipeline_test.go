package render

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/gpu/gputest"
	"github.com/andewx/avixel/report"
)

func newSwapchainFixture(t *testing.T) (*fixture, *SwapchainManager) {
	t.Helper()
	f := newFixture(t)
	m, err := CreateSwapchain(f.ctx, f.window)
	require.NoError(t, err)
	return f, m
}

func TestBuildAllDerivatives(t *testing.T) {
	f, m := newSwapchainFixture(t)
	pipelines, err := NewPipelineBuilder(f.ctx, m.RenderPass()).BuildAll(testPipelines())
	require.NoError(t, err)
	require.Len(t, pipelines, 2)

	require.Equal(t, 1, f.dev.CountCalls("CreateGraphicsPipelines"))
	require.Len(t, f.dev.Pipelines, 2)
	base, derived := f.dev.Pipelines[0], f.dev.Pipelines[1]

	assert.Equal(t, gpu.PipelineCreateAllowDerivatives, base.Flags)
	assert.Equal(t, int32(-1), base.BasePipelineIndex)
	assert.Equal(t, gpu.PipelineCreateDerivative, derived.Flags)
	assert.Equal(t, int32(0), derived.BasePipelineIndex)

	for i, info := range f.dev.Pipelines {
		assert.Equal(t, []gpu.DynamicState{gpu.DynamicStateViewport, gpu.DynamicStateScissor}, info.DynamicStates)
		assert.Equal(t, gpu.CullModeBack, info.Rasterization.CullMode)
		assert.Equal(t, gpu.TopologyTriangleList, info.Topology)
		assert.True(t, info.Blend.Enable)
		assert.Equal(t, gpu.BlendFactorSrcAlpha, info.Blend.SrcColorFactor)
		assert.Equal(t, gpu.BlendFactorOneMinusSrcAlpha, info.Blend.DstColorFactor)
		assert.Equal(t, uint32(1), info.Samples)
		assert.Equal(t, m.RenderPass(), info.RenderPass)
		assert.Equal(t, pipelines[i].Layout, info.Layout)
		for _, stage := range info.Stages {
			assert.Equal(t, "main", stage.Entry)
		}
	}
	assert.NotEqual(t, pipelines[0].Layout, pipelines[1].Layout)

	require.Zero(t, f.dev.Live(gputest.KindShaderModule))
	require.Equal(t, 4, f.dev.CountCalls("DestroyShaderModule"))
	require.Equal(t, 2, f.dev.Live(gputest.KindPipeline))

	for _, p := range pipelines {
		p.Destroy(f.ctx)
	}
	require.Zero(t, f.dev.Live(gputest.KindPipeline))
	require.Zero(t, f.dev.Live(gputest.KindPipelineLayout))
	f.requireClean(t)
}

func TestBuilderOverrides(t *testing.T) {
	f, m := newSwapchainFixture(t)
	b := NewPipelineBuilder(f.ctx, m.RenderPass()).
		SetTopology(gpu.TopologyLineList).
		SetRasterization(gpu.RasterizationState{PolygonMode: gpu.PolygonModeLine, CullMode: gpu.CullModeNone, LineWidth: 2}).
		SetBlend(gpu.ColorBlendAttachment{WriteMask: gpu.ColorComponentAll})

	desc := testPipelines()[0]
	desc.Stages[0].Entry = "vs_main"
	p, err := b.Build(desc)
	require.NoError(t, err)
	require.NotZero(t, p.Handle)

	info := f.dev.Pipelines[0]
	assert.Equal(t, gpu.TopologyLineList, info.Topology)
	assert.Equal(t, gpu.CullModeNone, info.Rasterization.CullMode)
	assert.False(t, info.Blend.Enable)
	assert.Equal(t, "vs_main", info.Stages[0].Entry)
	assert.Equal(t, "main", info.Stages[1].Entry)
	p.Destroy(f.ctx)
}

func TestBuildAllFailures(t *testing.T) {
	t.Run("bad shader", func(t *testing.T) {
		f, m := newSwapchainFixture(t)
		descs := testPipelines()
		descs[1].Stages = []ShaderStageDescriptor{{Stage: gpu.ShaderStageVertex, Code: []byte{1, 2, 3}}}

		_, err := NewPipelineBuilder(f.ctx, m.RenderPass()).BuildAll(descs)
		code, _ := report.CodeOf(err)
		require.Equal(t, report.CodeCreationError, code)
		require.Zero(t, f.dev.CountCalls("CreateGraphicsPipelines"))
		require.Zero(t, f.dev.Live(gputest.KindShaderModule))
		require.Zero(t, f.dev.Live(gputest.KindPipelineLayout))
	})
	t.Run("create call", func(t *testing.T) {
		f, m := newSwapchainFixture(t)
		f.dev.Failures["CreateGraphicsPipelines"] = gpu.ErrorOutOfDeviceMemory

		_, err := NewPipelineBuilder(f.ctx, m.RenderPass()).BuildAll(testPipelines())
		code, _ := report.CodeOf(err)
		require.Equal(t, report.CodeCreationError, code)
		require.True(t, f.ctx.Status().Has(StatusFatalError))
		require.Zero(t, f.dev.Live(gputest.KindShaderModule))
		require.Zero(t, f.dev.Live(gputest.KindPipelineLayout))
	})
	t.Run("no stages", func(t *testing.T) {
		f, m := newSwapchainFixture(t)
		_, err := NewPipelineBuilder(f.ctx, m.RenderPass()).BuildAll([]PipelineDescriptor{{Name: "empty"}})
		code, _ := report.CodeOf(err)
		require.Equal(t, report.CodeInvalidArguments, code)

		_, err = NewPipelineBuilder(f.ctx, m.RenderPass()).BuildAll(nil)
		code, _ = report.CodeOf(err)
		require.Equal(t, report.CodeInvalidArguments, code)
	})
}

func TestValidateSPIRV(t *testing.T) {
	require.NoError(t, ValidateSPIRV(testShader()))

	short := testShader()[:16]
	require.Error(t, ValidateSPIRV(short))

	unaligned := append(testShader(), 0)
	require.Error(t, ValidateSPIRV(unaligned))

	bad := testShader()
	binary.LittleEndian.PutUint32(bad, 0xdeadbeef)
	err := ValidateSPIRV(bad)
	code, _ := report.CodeOf(err)
	require.Equal(t, report.CodeParseError, code)
}

func TestLoadShader(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.spv")
	require.NoError(t, os.WriteFile(good, testShader(), 0o600))
	code, err := LoadShader(good)
	require.NoError(t, err)
	require.Equal(t, testShader(), code)

	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, []byte("#version 450\n"), 0o600))
	_, err = LoadShader(bad)
	code2, _ := report.CodeOf(err)
	require.Equal(t, report.CodeParseError, code2)

	_, err = LoadShader(filepath.Join(dir, "missing.spv"))
	code2, _ = report.CodeOf(err)
	require.Equal(t, report.CodeIOError, code2)
}
