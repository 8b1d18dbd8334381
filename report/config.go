package report

import (
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
)

// Config selects what the Reporter prints and when it aborts.
type Config struct {
	// Level is the lowest severity printed. Fatal events always print.
	Level Severity
	// ValidationLevel is the lowest validation-layer severity printed.
	ValidationLevel gpu.DebugSeverity
	// AssertLevel is the lowest severity at which a failed Assert exits the process.
	AssertLevel Severity

	PrintLocation bool
	PrintCategory bool
	PrintCode     bool
	PrintProject  bool
	PrintTime     bool
	Colors        bool

	DisabledCategories []string
	DisabledCodes      []Code
}

func DefaultConfig() Config {
	return Config{
		Level:           SeverityInfo,
		ValidationLevel: gpu.DebugWarning,
		AssertLevel:     SeverityFatal,
		PrintLocation:   true,
		PrintCategory:   true,
		PrintCode:       true,
		PrintProject:    true,
	}
}

// Allows is the filter predicate applied to every event before formatting.
func (c Config) Allows(ev Event) bool {
	if ev.Severity >= SeverityFatal {
		return true
	}
	if ev.Severity < c.Level {
		return false
	}
	if slices.Contains(c.DisabledCategories, ev.Category) {
		return false
	}
	return !slices.Contains(c.DisabledCodes, ev.Code)
}

// AllowsValidation applies ValidationLevel to a validation-layer message.
func (c Config) AllowsValidation(msg gpu.DebugMessage) bool {
	if msg.Severity < c.ValidationLevel {
		return false
	}
	return !slices.Contains(c.DisabledCategories, msg.Category.String())
}
