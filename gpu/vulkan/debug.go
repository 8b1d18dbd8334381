package vulkan

import (
	"strings"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/avixel/gpu"
)

const debugReportAll = vk.DebugReportInformationBit | vk.DebugReportWarningBit |
	vk.DebugReportPerformanceWarningBit | vk.DebugReportErrorBit | vk.DebugReportDebugBit

// debugMessage classifies a debug report. Messages from a validation layer land in the
// validation category unless they are performance warnings.
func debugMessage(flags vk.DebugReportFlags, layerPrefix, text string) gpu.DebugMessage {
	msg := gpu.DebugMessage{Severity: gpu.DebugInfo, Category: gpu.DebugGeneral, Message: text}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		msg.Severity = gpu.DebugError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		msg.Severity = gpu.DebugWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		msg.Severity = gpu.DebugWarning
		msg.Category = gpu.DebugPerformance
		return msg
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		msg.Severity = gpu.DebugVerbose
	}
	if strings.Contains(strings.ToLower(layerPrefix), "validation") {
		msg.Category = gpu.DebugValidation
	}
	return msg
}

func (i *Instance) debugFunc(callback gpu.DebugCallback) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		callback(debugMessage(flags, pLayerPrefix, pMessage))
		return vk.Bool32(vk.False)
	}
}
