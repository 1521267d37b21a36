package host

import "testing"

func TestHeadlessCountsFramesAndSamplesAndReportsNoInput(t *testing.T) {
	h := &Headless{}

	h.DrawFramebuffer(0, FramebufferFormat(2), 320)
	h.DrawFramebuffer(0, FramebufferFormat(2), 320)
	if h.Frames != 2 {
		t.Fatalf("Frames = %d, want 2", h.Frames)
	}

	h.PushAudioSample(100, -100)
	if h.Samples != 1 {
		t.Fatalf("Samples = %d, want 1", h.Samples)
	}

	state := h.PollInputs()
	if state.Buttons != 0 || state.StickX != 0 || state.StickY != 0 {
		t.Fatalf("PollInputs = %+v, want zero value", state)
	}
}
