// Package host declares the presentation boundary between the emulation
// core and whatever actually shows a frame, plays a sample, or reads a
// controller: a terminal window, a test harness, or nothing at all.
package host

import (
	"github.com/n64dev/emu64/pif"
	"github.com/n64dev/emu64/vi"
)

// FramebufferFormat is the video interface's pixel-type field, re-exported
// under this package so Host's signature doesn't force every implementation
// to import package vi just to name the type.
type FramebufferFormat = vi.FramebufferFormat

// ControllerState is the joybus controller snapshot Host.PollInputs reports,
// re-exported from package pif for the same reason: a Host implementation
// shouldn't need to import the microcontroller package to satisfy this
// interface.
type ControllerState = pif.ControllerState

// Host is everything the core calls out into: one framebuffer draw per
// vertical interrupt, one decoded sample pair per audio-DMA tick, and one
// controller poll per joybus ControllerState command. Per spec §6 these are
// the only calls the core makes into the host; there is no persisted state.
type Host interface {
	DrawFramebuffer(origin uint32, format FramebufferFormat, width uint32)
	PushAudioSample(left, right int16)
	PollInputs() ControllerState
}

// Headless is a Host that discards every frame and sample and reports no
// buttons pressed. It backs `n64 --headless` (draining the scheduler with no
// presentation backend) and any test that only needs System to run, not to
// be watched.
type Headless struct {
	Frames  int
	Samples int
}

func (h *Headless) DrawFramebuffer(origin uint32, format FramebufferFormat, width uint32) {
	h.Frames++
}

func (h *Headless) PushAudioSample(left, right int16) {
	h.Samples++
}

func (h *Headless) PollInputs() ControllerState {
	return ControllerState{}
}
