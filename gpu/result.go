package gpu

import (
	"fmt"
)

// Result mirrors the API return codes the engine distinguishes. Numeric values match VkResult.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorSurfaceLost          Result = -1000000000
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
)

var resultNames = map[Result]string{
	Success:                   "success",
	NotReady:                  "not ready",
	Timeout:                   "timeout",
	Incomplete:                "incomplete",
	ErrorOutOfHostMemory:      "out of host memory",
	ErrorOutOfDeviceMemory:    "out of device memory",
	ErrorInitializationFailed: "initialization failed",
	ErrorDeviceLost:           "device lost",
	ErrorMemoryMapFailed:      "memory map failed",
	ErrorLayerNotPresent:      "layer not present",
	ErrorExtensionNotPresent:  "extension not present",
	ErrorFeatureNotPresent:    "feature not present",
	ErrorIncompatibleDriver:   "incompatible driver",
	ErrorTooManyObjects:       "too many objects",
	ErrorFormatNotSupported:   "format not supported",
	ErrorSurfaceLost:          "surface lost",
	Suboptimal:                "suboptimal",
	ErrorOutOfDate:            "out of date",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("result(%d)", int32(r))
}

// Stale reports whether the result says the swapchain no longer matches its surface.
func (r Result) Stale() bool {
	return r == ErrorOutOfDate || r == Suboptimal
}

// OutOfMemory reports host or device memory exhaustion.
func (r Result) OutOfMemory() bool {
	return r == ErrorOutOfHostMemory || r == ErrorOutOfDeviceMemory
}

// ResultError carries a non-success Result as an error value.
type ResultError struct {
	Result Result
}

func (e ResultError) Error() string {
	return fmt.Sprintf("gpu: %s (%d)", e.Result, int32(e.Result))
}

// Check converts a Result into an error, nil on Success.
func Check(r Result) error {
	if r == Success {
		return nil
	}
	return ResultError{Result: r}
}
