package render

import "github.com/andewx/avixel/gpu"

// Window is the surface collaborator the renderer draws into. Its resize and close notifications
// arrive as status bits.
type Window interface {
	// Surface is the presentation surface created against the render instance.
	Surface() gpu.Surface
	// FramebufferSize is the drawable size in pixels. Zero means minimized.
	FramebufferSize() (width, height int)
	Status() Status
	SetStatus(bits Status)
	ClearStatus(bits Status)
}
