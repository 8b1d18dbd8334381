package gpu

// DebugSeverity orders validation messages from chatty to severe.
type DebugSeverity uint32

const (
	DebugVerbose DebugSeverity = iota
	DebugInfo
	DebugWarning
	DebugError
)

func (s DebugSeverity) String() string {
	switch s {
	case DebugVerbose:
		return "verbose"
	case DebugInfo:
		return "info"
	case DebugWarning:
		return "warning"
	case DebugError:
		return "error"
	}
	return "unknown"
}

type DebugCategory uint32

const (
	DebugGeneral DebugCategory = iota
	DebugValidation
	DebugPerformance
	// DebugDeviceAddress has no debug report flag; only a debug utils messenger reports it.
	DebugDeviceAddress
)

func (c DebugCategory) String() string {
	switch c {
	case DebugGeneral:
		return "general"
	case DebugValidation:
		return "validation"
	case DebugPerformance:
		return "performance"
	case DebugDeviceAddress:
		return "device address"
	}
	return "unknown"
}

type DebugMessage struct {
	Severity DebugSeverity
	Category DebugCategory
	Message  string
}

type DebugCallback func(msg DebugMessage)
