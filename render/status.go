package render

import "strings"

// Status is the condition bitset the host loop polls each iteration.
type Status uint32

const (
	StatusNormal            Status = 0
	StatusFatalError        Status = 1 << 0
	StatusShutdownRequested Status = 1 << 1
	StatusResized           Status = 1 << 2
	StatusInoperable        Status = 1 << 3
)

// Terminal is the set of bits that end the host loop.
const Terminal = StatusFatalError | StatusShutdownRequested

func (s Status) Has(bits Status) bool {
	return s&bits != 0
}

func (s *Status) Set(bits Status) {
	*s |= bits
}

func (s *Status) Clear(bits Status) {
	*s &^= bits
}

func (s Status) String() string {
	if s == StatusNormal {
		return "NORMAL"
	}
	var parts []string
	names := []struct {
		bit  Status
		name string
	}{
		{StatusFatalError, "FATAL_ERROR"},
		{StatusShutdownRequested, "SHUTDOWN_REQUESTED"},
		{StatusResized, "RESIZED"},
		{StatusInoperable, "INOPERABLE"},
	}
	for _, n := range names {
		if s.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
