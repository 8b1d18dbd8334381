package render

import (
	"github.com/andewx/avixel/gpu"
	"github.com/andewx/avixel/report"
)

const categorySync = "sync"

// SlotState tracks where a frame slot is in its cycle.
type SlotState uint8

const (
	SlotIdle SlotState = iota
	SlotAcquiring
	SlotRecording
	SlotSubmitted
	SlotPresenting
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "IDLE"
	case SlotAcquiring:
		return "ACQUIRING"
	case SlotRecording:
		return "RECORDING"
	case SlotSubmitted:
		return "SUBMITTED"
	case SlotPresenting:
		return "PRESENTING"
	}
	return "UNKNOWN"
}

// FrameSync is one in-flight slot. Acquire is signaled when the image is ready, Release when
// rendering into it has finished, and InFlight when the slot's submission completes.
type FrameSync struct {
	Acquire  gpu.Semaphore
	Release  gpu.Semaphore
	InFlight gpu.Fence
	// Command points into the synchronizer's command buffer array.
	Command    *gpu.CommandBuffer
	State      SlotState
	ImageIndex uint32
}

// FrameSynchronizer owns the ring of frame slots and the index of the slot in use.
type FrameSynchronizer struct {
	ctx      *DeviceContext
	slots    []FrameSync
	commands []gpu.CommandBuffer
	current  int
}

// NewFrameSynchronizer creates count slots. Fences start signaled so the first wait on each
// slot returns at once.
func NewFrameSynchronizer(ctx *DeviceContext, count int) (*FrameSynchronizer, error) {
	s := &FrameSynchronizer{ctx: ctx}
	if err := s.allocate(count); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *FrameSynchronizer) allocate(count int) error {
	if count <= 0 {
		return report.Errorf(report.CodeInvalidArguments, categorySync, "frame count %d", count)
	}
	dev := s.ctx.device

	commands, err := s.ctx.AllocateCommandBuffers(uint32(count))
	if err != nil {
		return err
	}
	s.commands = commands
	s.slots = make([]FrameSync, count)

	for i := range s.slots {
		slot := &s.slots[i]
		slot.Command = &s.commands[i]

		var res gpu.Result
		if slot.Acquire, res = dev.CreateSemaphore(); res != gpu.Success {
			return s.ctx.fail(report.Wrapf(gpu.Check(res), report.CodeCreationError, categorySync, "acquire semaphore %d", i))
		}
		if slot.Release, res = dev.CreateSemaphore(); res != gpu.Success {
			return s.ctx.fail(report.Wrapf(gpu.Check(res), report.CodeCreationError, categorySync, "release semaphore %d", i))
		}
		if slot.InFlight, res = dev.CreateFence(true); res != gpu.Success {
			return s.ctx.fail(report.Wrapf(gpu.Check(res), report.CodeCreationError, categorySync, "in-flight fence %d", i))
		}
	}
	s.current = 0
	return nil
}

func (s *FrameSynchronizer) Len() int {
	return len(s.slots)
}

func (s *FrameSynchronizer) Index() int {
	return s.current
}

func (s *FrameSynchronizer) Slot(i int) *FrameSync {
	return &s.slots[i]
}

func (s *FrameSynchronizer) Current() *FrameSync {
	return &s.slots[s.current]
}

// Advance moves to the next slot. Only a successful present advances.
func (s *FrameSynchronizer) Advance() {
	s.current = (s.current + 1) % len(s.slots)
}

// Wait blocks until the slot's previous submission has finished.
func (s *FrameSynchronizer) Wait(slot *FrameSync) error {
	res := s.ctx.device.WaitForFences([]gpu.Fence{slot.InFlight}, true, gpu.WaitForever)
	if err := gpu.Check(res); err != nil {
		return s.ctx.fail(report.Wrapf(err, report.CodeRenderError, categorySync, "wait for frame fence"))
	}
	return nil
}

// Reset unsignals the slot's fence ahead of its next submission.
func (s *FrameSynchronizer) Reset(slot *FrameSync) error {
	if err := gpu.Check(s.ctx.device.ResetFences([]gpu.Fence{slot.InFlight})); err != nil {
		return s.ctx.fail(report.Wrapf(err, report.CodeRenderError, categorySync, "reset frame fence"))
	}
	return nil
}

// Resize rebuilds the ring with count slots. The device must be idle.
func (s *FrameSynchronizer) Resize(count int) error {
	s.release()
	return s.allocate(count)
}

func (s *FrameSynchronizer) release() {
	dev := s.ctx.device
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.InFlight != 0 {
			dev.DestroyFence(slot.InFlight)
		}
		if slot.Release != 0 {
			dev.DestroySemaphore(slot.Release)
		}
		if slot.Acquire != 0 {
			dev.DestroySemaphore(slot.Acquire)
		}
	}
	s.ctx.FreeCommandBuffers(s.commands)
	s.slots = nil
	s.commands = nil
	s.current = 0
}

// Destroy releases every slot. The device must be idle.
func (s *FrameSynchronizer) Destroy() {
	s.release()
}
