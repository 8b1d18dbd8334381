package render

import (
	"golang.org/x/exp/slices"

	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categoryProbe = "probe"

// DeviceExtensions must be supported by every candidate device.
var DeviceExtensions = []string{gpu.SwapchainExtensionName}

// QueueFamilyIndices names the families used for graphics and presentation. They may coincide.
type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32

	hasGraphics bool
	hasPresent  bool
}

func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

func (q QueueFamilyIndices) Shared() bool {
	return q.Graphics == q.Present
}

// Unique lists the distinct families, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Shared() {
		return []uint32{q.Graphics}
	}
	return []uint32{q.Graphics, q.Present}
}

// PhysicalDeviceChoice is the outcome of probing one adapter. A zero Score means unsuitable.
type PhysicalDeviceChoice struct {
	Device     gpu.PhysicalDevice
	Properties gpu.PhysicalDeviceProperties
	Families   QueueFamilyIndices
	Score      uint32
}

// FindQueueFamilies prefers one family that does both graphics and presentation, otherwise the
// first family of each kind.
func FindQueueFamilies(inst gpu.Instance, physical gpu.PhysicalDevice, surface gpu.Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range inst.QueueFamilies(physical) {
		idx := uint32(i)
		if family.Count == 0 {
			continue
		}
		graphics := family.Flags&gpu.QueueGraphics != 0
		present, res := inst.SurfaceSupport(physical, idx, surface)
		if err := gpu.Check(res); err != nil {
			return indices, report.Wrapf(err, report.CodeNoSupport, categoryProbe, "surface support of family %d", idx)
		}
		if graphics && present {
			return QueueFamilyIndices{Graphics: idx, Present: idx, hasGraphics: true, hasPresent: true}, nil
		}
		if graphics && !indices.hasGraphics {
			indices.Graphics, indices.hasGraphics = idx, true
		}
		if present && !indices.hasPresent {
			indices.Present, indices.hasPresent = idx, true
		}
	}
	return indices, nil
}

func checkDeviceExtensions(inst gpu.Instance, physical gpu.PhysicalDevice, required []string) bool {
	available, res := inst.DeviceExtensions(physical)
	if res != gpu.Success {
		return false
	}
	for _, name := range required {
		if !slices.Contains(available, name) {
			return false
		}
	}
	return true
}

// ScoreDevice applies every hard requirement, then ranks: 1 for a usable device, 2 for a
// discrete one.
func ScoreDevice(inst gpu.Instance, physical gpu.PhysicalDevice, surface gpu.Surface, extensions []string) PhysicalDeviceChoice {
	choice := PhysicalDeviceChoice{
		Device:     physical,
		Properties: inst.Properties(physical),
	}

	families, err := FindQueueFamilies(inst, physical, surface)
	if err != nil || !families.Complete() {
		return choice
	}
	choice.Families = families

	if !checkDeviceExtensions(inst, physical, extensions) {
		return choice
	}

	support, err := QuerySwapchainSupport(inst, physical, surface)
	if err != nil || !support.Adequate() {
		return choice
	}

	choice.Score = 1
	if choice.Properties.Type == gpu.DeviceTypeDiscreteGPU {
		choice.Score++
	}
	return choice
}

// SelectDevice picks the highest scoring device. Ties go to the first enumerated.
func SelectDevice(inst gpu.Instance, surface gpu.Surface, rep *report.Reporter) (PhysicalDeviceChoice, error) {
	devices, res := inst.PhysicalDevices()
	if err := gpu.Check(res); err != nil {
		return PhysicalDeviceChoice{}, report.Wrapf(err, report.CodeNoSupport, categoryProbe, "enumerate physical devices")
	}
	if len(devices) == 0 {
		return PhysicalDeviceChoice{}, report.Errorf(report.CodeNoSupport, categoryProbe, "no physical devices present")
	}

	var best PhysicalDeviceChoice
	for _, physical := range devices {
		choice := ScoreDevice(inst, physical, surface, DeviceExtensions)
		rep.Logf(report.CodeDebugInfo, categoryProbe, "device %q (%s) scored %d",
			choice.Properties.Name, choice.Properties.Type, choice.Score)
		if choice.Score > best.Score {
			best = choice
		}
	}
	if best.Score == 0 {
		return PhysicalDeviceChoice{}, report.Errorf(report.CodeNoSupport, categoryProbe,
			"none of %d physical devices can render to the surface", len(devices))
	}
	return best, nil
}
