package report

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Severity is totally ordered; compare with < and >=.
type Severity uint8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{"DEBUG", "INFO", "WARNING", "ERROR", "FATAL"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("SEVERITY(%d)", s)
}

// ParseSeverity accepts the names printed by String in any case.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), nil
		}
	}
	if strings.EqualFold(name, "warn") {
		return SeverityWarning, nil
	}
	return SeverityDebug, errors.Newf("unknown severity %q", name)
}

// Code identifies what happened. Every code has a fixed severity.
type Code uint16

const (
	CodeSuccess Code = iota

	CodeDebugCreate
	CodeDebugDestroy
	CodeDebugInfo
	CodeValidationPresent

	CodeInfo
	CodeTime

	CodeOutOfBounds
	CodeValidationNotPresent
	CodeUnspecifiedCallback
	CodeUnusualArguments
	CodeTimeout
	CodeSwapchainRecreation
	CodeWindowSize
	CodeShutdownRequested

	CodeFailure
	CodeInvalidArguments
	CodeTimedOut
	CodeIOError
	CodeNotFound
	CodeNotImplemented
	CodeNotInitialized
	CodeAlreadyInitialized
	CodeAlreadyExists
	CodeParseError
	CodeDeviceMismatch
	CodeInvalidSize

	CodeNoSupport
	CodeCreationError
	CodeMemoryError
	CodeSwapchainError
	CodeRenderCommandError
	CodeRenderError
	CodePresentError

	codeCount
)

type codeInfo struct {
	name     string
	severity Severity
}

var codes = [codeCount]codeInfo{
	CodeSuccess:              {"SUCCESS", SeverityDebug},
	CodeDebugCreate:          {"CREATE", SeverityDebug},
	CodeDebugDestroy:         {"DESTROY", SeverityDebug},
	CodeDebugInfo:            {"DEBUG_INFO", SeverityDebug},
	CodeValidationPresent:    {"VALIDATION_PRESENT", SeverityDebug},
	CodeInfo:                 {"INFO", SeverityInfo},
	CodeTime:                 {"TIME", SeverityInfo},
	CodeOutOfBounds:          {"OUT_OF_BOUNDS", SeverityWarning},
	CodeValidationNotPresent: {"VALIDATION_NOT_PRESENT", SeverityWarning},
	CodeUnspecifiedCallback:  {"UNSPECIFIED_CALLBACK", SeverityWarning},
	CodeUnusualArguments:     {"UNUSUAL_ARGUMENTS", SeverityWarning},
	CodeTimeout:              {"TIMEOUT", SeverityWarning},
	CodeSwapchainRecreation:  {"SWAPCHAIN_RECREATION", SeverityWarning},
	CodeWindowSize:           {"WINDOW_SIZE", SeverityWarning},
	CodeShutdownRequested:    {"SHUTDOWN_REQUESTED", SeverityWarning},
	CodeFailure:              {"FAILURE", SeverityError},
	CodeInvalidArguments:     {"INVALID_ARGUMENTS", SeverityError},
	CodeTimedOut:             {"TIMED_OUT", SeverityError},
	CodeIOError:              {"IO_ERROR", SeverityError},
	CodeNotFound:             {"NOT_FOUND", SeverityError},
	CodeNotImplemented:       {"NOT_IMPLEMENTED", SeverityError},
	CodeNotInitialized:       {"NOT_INITIALIZED", SeverityError},
	CodeAlreadyInitialized:   {"ALREADY_INITIALIZED", SeverityError},
	CodeAlreadyExists:        {"ALREADY_EXISTS", SeverityError},
	CodeParseError:           {"PARSE_ERROR", SeverityError},
	CodeDeviceMismatch:       {"DEVICE_MISMATCH", SeverityError},
	CodeInvalidSize:          {"INVALID_SIZE", SeverityError},
	CodeNoSupport:            {"NO_SUPPORT", SeverityFatal},
	CodeCreationError:        {"CREATION_ERROR", SeverityFatal},
	CodeMemoryError:          {"MEMORY_ERROR", SeverityFatal},
	CodeSwapchainError:       {"SWAPCHAIN_ERROR", SeverityFatal},
	CodeRenderCommandError:   {"RENDER_COMMAND_ERROR", SeverityFatal},
	CodeRenderError:          {"RENDER_ERROR", SeverityFatal},
	CodePresentError:         {"PRESENT_ERROR", SeverityFatal},
}

func (c Code) String() string {
	if c < codeCount {
		return codes[c].name
	}
	return fmt.Sprintf("CODE(%d)", c)
}

// Severity returns the fixed severity of the code. Unknown codes are errors.
func (c Code) Severity() Severity {
	if c < codeCount {
		return codes[c].severity
	}
	return SeverityError
}

// ParseCode is the inverse of String.
func ParseCode(name string) (Code, error) {
	for i := Code(0); i < codeCount; i++ {
		if strings.EqualFold(codes[i].name, name) {
			return i, nil
		}
	}
	return CodeSuccess, errors.Newf("unknown code %q", name)
}
