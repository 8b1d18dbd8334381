package vulkan

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/avixel/gpu"
)

func TestDebugMessage(t *testing.T) {
	cases := []struct {
		name     string
		flags    vk.DebugReportFlagBits
		prefix   string
		severity gpu.DebugSeverity
		category gpu.DebugCategory
	}{
		{"error", vk.DebugReportErrorBit, "Validation", gpu.DebugError, gpu.DebugValidation},
		{"warning", vk.DebugReportWarningBit, "Loader Message", gpu.DebugWarning, gpu.DebugGeneral},
		{"performance", vk.DebugReportPerformanceWarningBit, "Validation", gpu.DebugWarning, gpu.DebugPerformance},
		{"information", vk.DebugReportInformationBit, "VK_LAYER_KHRONOS_validation", gpu.DebugInfo, gpu.DebugValidation},
		{"debug", vk.DebugReportDebugBit, "driver", gpu.DebugVerbose, gpu.DebugGeneral},
		{"error wins", vk.DebugReportErrorBit | vk.DebugReportWarningBit, "", gpu.DebugError, gpu.DebugGeneral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := debugMessage(vk.DebugReportFlags(tc.flags), tc.prefix, "text")
			assert.Equal(t, tc.severity, msg.Severity)
			assert.Equal(t, tc.category, msg.Category)
			assert.Equal(t, "text", msg.Message)
		})
	}
}

func TestTable(t *testing.T) {
	tbl := newTable[gpu.Fence, string](2)
	a := tbl.add("a")
	b := tbl.add("b")
	require.NotZero(t, a)
	require.NotEqual(t, a, b)
	require.Equal(t, "b", tbl.get(b))
	require.Equal(t, "", tbl.get(0))

	v, ok := tbl.remove(a)
	require.True(t, ok)
	require.Equal(t, "a", v)
	_, ok = tbl.remove(a)
	require.False(t, ok)
	require.Equal(t, 1, tbl.len())

	// Handles are never reused.
	require.Greater(t, tbl.add("c"), b)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b"}))

	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, 0x07230203)
	binary.LittleEndian.PutUint32(code[4:], 0x00010000)
	words := sliceUint32(code)
	require.Len(t, words, 2)
	assert.Equal(t, uint32(0x07230203), words[0])
	assert.Nil(t, sliceUint32(nil))
}
