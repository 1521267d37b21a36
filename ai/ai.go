// Package ai implements the audio interface: a double-buffered sample-pump
// DMA engine clocked by a scheduler callback at the rate DACRATE implies.
package ai

import "fmt"

// DRAM is the subset of the physical bus samples are pulled from.
type DRAM interface {
	Read32(addr uint32) (uint32, error)
}

// Interrupt requests or clears this core's bit on the aggregated peripheral
// interrupt line. *mi.Line satisfies it.
type Interrupt interface {
	Request()
	Clear()
}

// Scheduler is the subset of scheduler.Scheduler the sample pump needs to
// reschedule itself.
type Scheduler interface {
	AddEvent(id SchedulerEventID, param int64, delta int64)
}

// SchedulerEventID mirrors scheduler.EventID without importing package
// scheduler, matching the local-interface pattern used throughout (see
// rsp.Interrupt, rdp.Interrupt).
type SchedulerEventID int

// Host is the presentation sink for decoded samples.
type Host interface {
	PushAudioSample(left, right int16)
}

// descriptor is one of the two DMA buffer slots.
type descriptor struct {
	dramAddr uint32 // 3 low bits are hardwired to 0, per ai.cpp's DRAMADDR.addr:21 shifted by 3
	length   uint32 // in 8-byte units: ai.cpp's LENGTH.length:15, the byte count shifted right by 3
}

// Core is the audio interface: the two DMA descriptor slots, the DAC/bit
// rate registers, and the sample pump's scheduling state.
type Core struct {
	desc       [2]descriptor
	activeDMAs int

	dmaEnable bool

	dacRate  uint32
	bitRate  uint32
	currentSamples uint32

	sched    Scheduler
	sampleID SchedulerEventID
	dram     DRAM
	host     Host
	intr     Interrupt
}

// cpuFrequency is the scalar CPU's clock rate in Hz, per
// sys/scheduler.hpp's CPU_FREQUENCY.
const cpuFrequency = 93_750_000

// New returns an audio interface core. sampleID is the scheduler event ID
// the caller registered for the pump callback (sched.AddEvent's id
// parameter); the caller's registered callback must call Core.Sample.
func New(dram DRAM, host Host, intr Interrupt, sched Scheduler, sampleID SchedulerEventID) *Core {
	return &Core{dram: dram, host: host, intr: intr, sched: sched, sampleID: sampleID}
}

// Sample is the scheduler callback the caller registers for sampleID. It
// exists because the scheduler's Callback type can only invoke an exported
// method, while doSample's name and signature otherwise mirror ai.cpp.
func (c *Core) Sample(param int64) { c.doSample(param) }

// SetSampleEventID rewires the registered scheduler event ID after
// construction. The caller must register Core.Sample as a callback to learn
// the ID, but Core.Sample is itself a method value bound to this Core, so
// the core must exist before the ID is known; New takes a placeholder and
// the wiring code fills in the real one with this setter.
func (c *Core) SetSampleEventID(id SchedulerEventID) { c.sampleID = id }

func (c *Core) Reset() {
	c.desc = [2]descriptor{}
	c.activeDMAs = 0
	c.dmaEnable = false
	c.dacRate, c.bitRate, c.currentSamples = 0, 0, 0
}

// aiCycles returns the scheduler delay between samples for the current
// DACRATE, per ai.cpp's getAICycles: CPU_FREQUENCY/4/(dacRate+1), scaled
// 1.037x to match the DAC's actual output rate.
func aiCycles(dacRate uint32) int64 {
	cycles := cpuFrequency / 4 / int64(dacRate+1)
	if cycles < 1 {
		cycles = 1
	}
	return int64(float64(cycles) * 1.037)
}

func (c *Core) updateStatus() {}

// doSample pulls one doubleword of samples from DRAM, advances the active
// descriptor, and swaps in the queued descriptor on underflow, per ai.cpp's
// doSample.
func (c *Core) doSample(int64) {
	d := &c.desc[0]

	sample, err := c.dram.Read32(d.dramAddr << 3)
	if err != nil {
		return
	}
	c.currentSamples = sample
	c.host.PushAudioSample(int16(sample>>16), int16(sample))

	d.dramAddr++
	d.length--

	if d.length == 0 {
		if c.activeDMAs > 1 {
			c.desc[0] = c.desc[1]
			c.intr.Request()
		}
		c.activeDMAs--
	}

	if c.desc[0].length != 0 {
		c.sched.AddEvent(c.sampleID, 0, aiCycles(c.dacRate))
	}
}

type FatalError struct {
	Offset  uint32
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("ai: %s (offset=%#x)", e.Message, e.Offset)
}
