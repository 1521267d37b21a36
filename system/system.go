// Package system assembles every component into a single N64 aggregate: one
// value the caller constructs, resets, and runs, with no package-level state
// anywhere in the tree beneath it.
package system

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/n64dev/emu64/ai"
	"github.com/n64dev/emu64/bus"
	"github.com/n64dev/emu64/cpu"
	"github.com/n64dev/emu64/cpu/fpu"
	"github.com/n64dev/emu64/host"
	"github.com/n64dev/emu64/internal/config"
	"github.com/n64dev/emu64/mi"
	"github.com/n64dev/emu64/pi"
	"github.com/n64dev/emu64/pif"
	"github.com/n64dev/emu64/rdp"
	"github.com/n64dev/emu64/ri"
	"github.com/n64dev/emu64/rsp"
	"github.com/n64dev/emu64/scheduler"
	"github.com/n64dev/emu64/si"
	"github.com/n64dev/emu64/vi"
)

// cpuFrequency is the scalar CPU's clock rate in Hz, per
// sys/scheduler.hpp's CPU_FREQUENCY (same value ai.go derives its sample
// cadence from).
const cpuFrequency = 93_750_000

// cyclesPerField paces the one vblank-equivalent draw per NTSC field (60Hz).
// original_source's vi.cpp never raises a vertical interrupt of its own
// (see vi.Core's doc comment), so there is no event to hook a presentation
// callback to; this is the scheduler-driven substitute, not a ported value.
const cyclesPerField = cpuFrequency / 60

// hostProxy lets ai.Core and pif.Core be constructed with a stable
// host.Host-shaped collaborator before System.Run supplies the real one.
// Before the first Run call it discards samples and reports no input,
// matching host.Headless's semantics.
type hostProxy struct {
	h host.Host
}

func (p *hostProxy) DrawFramebuffer(origin uint32, format host.FramebufferFormat, width uint32) {
	if p.h != nil {
		p.h.DrawFramebuffer(origin, format, width)
	}
}

func (p *hostProxy) PushAudioSample(left, right int16) {
	if p.h != nil {
		p.h.PushAudioSample(left, right)
	}
}

func (p *hostProxy) PollInputs() host.ControllerState {
	if p.h == nil {
		return host.ControllerState{}
	}
	return p.h.PollInputs()
}

// aiSchedulerAdapter satisfies ai.Scheduler, whose AddEvent takes the
// locally declared ai.SchedulerEventID rather than scheduler.EventID -- a
// distinct defined type despite the identical underlying int, so
// *scheduler.Scheduler does not satisfy ai.Scheduler directly (same
// local-interface pattern as rsp.Interrupt/rdp.Interrupt, just crossing a
// type boundary instead of a missing import). It holds the owning System,
// not the *scheduler.Scheduler directly, so it keeps working after Reset
// swaps in a fresh scheduler.
type aiSchedulerAdapter struct{ sys *System }

func (a aiSchedulerAdapter) AddEvent(id ai.SchedulerEventID, param, delta int64) {
	a.sys.sched.AddEvent(scheduler.EventID(id), param, delta)
}

// System is the whole console: the physical bus, every peripheral wired onto
// it, the scalar CPU and its coprocessors, the scheduler that drives all
// three guest processors in lockstep, and the configuration that governs the
// drive ratios.
type System struct {
	bus *bus.Bus
	mi  *mi.Controller

	cpu *cpu.Core
	fpu *fpu.Unit

	rsp *rsp.Core
	rdp *rdp.Core

	vi  *vi.Core
	ai  *ai.Core
	pi  *pi.Core
	si  *si.Core
	ri  *ri.Core
	pif *pif.Core

	proxy *hostProxy

	sched    *scheduler.Scheduler
	vblankID scheduler.EventID

	cfg config.Config
	log *zap.Logger
}

// New builds a fully wired System from three inputs named for spec §6's
// three CLI positional arguments and bootRomPath/microcontrollerRomPath/
// cartridgeRomPath entry point: bootRom and pifRom both describe the
// 1984-byte microcontroller ROM image (spec §6 names it twice, once as
// "Boot ROM" and once as "Microcontroller ROM", with no second artifact
// ever referenced anywhere else in the design -- the same bytes under two
// names), and cart is the cartridge image installed at bus.CartBase. pifRom
// wins when both are non-empty, since it is the more specific of the two
// names; either alone is sufficient. cfg governs the scheduler's quantum
// size and cycle-ratio split (spec §4.10); log receives each
// FatalError that Run returns.
func New(bootRom, pifRom, cart []byte, cfg config.Config, log *zap.Logger) *System {
	s := &System{cfg: cfg, log: log, proxy: &hostProxy{}}

	rom := pifRom
	if len(rom) == 0 {
		rom = bootRom
	}

	s.bus = bus.New()
	s.bus.InstallCart(cart)

	s.mi = &mi.Controller{}
	s.bus.Install(bus.MIRegsBase, s.mi)

	s.cpu = cpu.New(s.bus, s.mi)
	s.fpu = fpu.New(&s.cpu.COP0)
	s.cpu.FPU = s.fpu

	s.ri = ri.New()
	s.bus.Install(bus.RIRegsBase, s.ri)
	s.bus.Install(bus.RDRAMRegsBase, s.ri.Module())

	s.rsp = rsp.New(s.bus, s.mi.Line(mi.SignalProcessor))
	s.bus.InstallMemory(bus.SPDMEMBase, s.rsp.DMEM[:])
	s.bus.InstallMemory(bus.SPIMEMBase, s.rsp.IMEM[:])
	s.bus.Install(bus.SPRegsBase, s.rsp)

	s.rdp = rdp.New(s.bus, s.mi.Line(mi.DisplayProcessor))
	s.bus.Install(bus.DPRegsBase, s.rdp)
	s.rsp.SetDPRegisters(s.rdp)

	s.vi = vi.New()
	s.bus.Install(bus.VIRegsBase, s.vi)

	s.pi = pi.New(s.bus, s.bus, s.mi.Line(mi.PeripheralInterface))
	s.bus.Install(bus.PIRegsBase, s.pi)

	// si and pif need each other's result; si is built first with a nil PIF
	// and wired in once pif.New returns (si.SetPIF), the same
	// construct-then-wire shape SetDPRegisters uses above for rsp/rdp.
	s.si = si.New(s.bus, nil, s.mi.Line(mi.SerialInterface))
	s.bus.Install(bus.SIRegsBase, s.si)

	s.pif = pif.New(rom, s.si, s.proxy)
	s.si.SetPIF(s.pif)
	s.bus.Install(bus.PIFBase, s.pif)

	s.sched = scheduler.New()

	// ai.Core needs to know its own scheduler event ID to reschedule itself,
	// but Core.Sample is a method value bound to the Core that doesn't exist
	// until after New returns; construct with a placeholder ID, register the
	// bound method, then patch the real ID in with SetSampleEventID.
	s.ai = ai.New(s.bus, s.proxy, s.mi.Line(mi.AudioInterface), aiSchedulerAdapter{s}, 0)
	sampleID := s.sched.Register(s.ai.Sample)
	s.ai.SetSampleEventID(ai.SchedulerEventID(sampleID))
	s.bus.Install(bus.AIRegsBase, s.ai)

	s.vblankID = s.sched.Register(s.vblank)

	return s
}

// Reset reinitializes every component's architectural state and primes the
// scheduler's first vblank-equivalent draw. The bus's backing memory (main
// RAM, the cartridge image, the PIF ROM image) is untouched; only registers
// and the microcontroller's RAM are cleared.
func (s *System) Reset() {
	s.mi.ClearInterrupt(mi.SignalProcessor | mi.SerialInterface | mi.AudioInterface |
		mi.VideoInterface | mi.PeripheralInterface | mi.DisplayProcessor)
	s.cpu.Reset()
	s.rsp.Reset()
	s.rdp.Reset()
	s.vi.Reset()
	s.ai.Reset()
	s.pi.Reset()
	s.si.Reset()
	s.ri.Reset()
	s.pif.Reset()

	s.sched = scheduler.New()
	sampleID := s.sched.Register(s.ai.Sample)
	s.ai.SetSampleEventID(ai.SchedulerEventID(sampleID))
	s.vblankID = s.sched.Register(s.vblank)
	s.sched.AddEvent(s.vblankID, 0, cyclesPerField)
}

// vblank is the scheduler callback that presents one frame and reschedules
// itself. See cyclesPerField's doc comment for why this is scheduler-driven
// rather than interrupt-driven.
func (s *System) vblank(int64) {
	s.proxy.DrawFramebuffer(s.vi.Origin(), s.vi.Format(), s.vi.Width())
	s.mi.Line(mi.VideoInterface).Request()
	s.sched.AddEvent(s.vblankID, 0, cyclesPerField)
}

// FatalError wraps a host/implementation error bubbling up out of a named
// component, per spec §7. component is a package tag ("cpu", "rsp", "pif",
// ...), not a guest-visible identifier.
type FatalError struct {
	Component string
	Err       error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("system: fatal error in %s: %v", e.Component, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Run drives all three guest processors in lockstep until ctx is canceled or
// a component returns a fatal error. Each scheduler quantum (cfg.Quantum
// cycles) is split across the microcontroller, scalar CPU, and signal
// processor in cfg.MicroRatio:cfg.ScalarRatio:cfg.SignalRatio proportion
// (1:6:3 in the reference configuration, per spec §4.10), with any
// remainder from integer division folded into the scalar CPU's share since
// it is the quantum's dominant consumer.
func (s *System) Run(ctx context.Context, h host.Host) error {
	if s.cfg.MicroRatio <= 0 || s.cfg.ScalarRatio <= 0 || s.cfg.SignalRatio <= 0 {
		panic("system: cycle ratios must all be positive")
	}
	if s.cfg.Quantum <= 0 {
		panic("system: quantum must be positive")
	}

	s.proxy.h = h

	total := int64(s.cfg.MicroRatio + s.cfg.ScalarRatio + s.cfg.SignalRatio)
	microCycles := s.cfg.Quantum * int64(s.cfg.MicroRatio) / total
	signalCycles := s.cfg.Quantum * int64(s.cfg.SignalRatio) / total
	scalarCycles := s.cfg.Quantum - microCycles - signalCycles

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.pif.Run(microCycles); err != nil {
			return s.fatal("pif", err)
		}
		if err := s.cpu.Run(int(scalarCycles)); err != nil {
			return s.fatal("cpu", err)
		}
		if !s.rsp.Halted() {
			if err := s.rsp.Run(int(signalCycles)); err != nil {
				return s.fatal("rsp", err)
			}
		}

		s.sched.Run(s.cfg.Quantum)
	}
}

func (s *System) fatal(component string, err error) error {
	wrapped := &FatalError{Component: component, Err: err}
	if s.log != nil {
		s.log.Error("fatal error", zap.String("component", component), zap.Error(err))
	}
	return wrapped
}
