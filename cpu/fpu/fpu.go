// Package fpu implements the N64 scalar CPU's floating-point coprocessor
// (COP1): the FR-aware register file, the condition bit driven by C.cond.fmt,
// and the single/double arithmetic and conversion instructions.
package fpu

import (
	"fmt"
	"math"
)

// frProvider is satisfied by *cpu.COP0; it reports the current register-file
// mode without the fpu package importing cpu.
type frProvider interface {
	FR() bool
}

// Unit is the FPU coprocessor. It implements cpu.FloatUnit.
type Unit struct {
	fpr       [32]uint64
	condition bool
	control   uint32 // FCR31: rounding mode, flags, enables, cause, condition
	fr        frProvider
}

// New returns an FPU whose register-file width tracks fr.FR() (the
// system-control coprocessor's Status.FR bit), per spec §4.3.
func New(fr frProvider) *Unit {
	return &Unit{fr: fr}
}

func (u *Unit) Reset() {
	for i := range u.fpr {
		u.fpr[i] = 0
	}
	u.condition = false
	u.control = 0
}

// ConditionTrue reports the coprocessor's condition bit, last set by a
// C.cond.fmt compare.
func (u *Unit) ConditionTrue() bool { return u.condition }

func (u *Unit) largeFile() bool {
	return u.fr != nil && u.fr.FR()
}

// getWord and setWord implement the FR-aware 32-bit accessor from spec §4.3:
// FR=1 gives 32 independent 64-bit registers, each addressable as its low
// 32 bits; FR=0 packs them into 16 even/odd pairs, the odd half holding the
// upper 32 bits of the preceding even register.
func (u *Unit) getWord(idx uint32) uint32 {
	if u.largeFile() {
		return uint32(u.fpr[idx])
	}
	if idx&1 != 0 {
		return uint32(u.fpr[idx&^1] >> 32)
	}
	return uint32(u.fpr[idx])
}

func (u *Unit) setWord(idx uint32, v uint32) {
	if u.largeFile() {
		u.fpr[idx] = u.fpr[idx]&0xFFFF_FFFF_0000_0000 | uint64(v)
		return
	}
	if idx&1 != 0 {
		base := idx &^ 1
		u.fpr[base] = u.fpr[base]&0x0000_0000_FFFF_FFFF | uint64(v)<<32
		return
	}
	u.fpr[idx] = u.fpr[idx]&0xFFFF_FFFF_0000_0000 | uint64(v)
}

func (u *Unit) getDouble(idx uint32) uint64 {
	if u.largeFile() {
		return u.fpr[idx]
	}
	return u.fpr[idx&^1]
}

func (u *Unit) setDouble(idx uint32, v uint64) {
	if u.largeFile() {
		u.fpr[idx] = v
		return
	}
	u.fpr[idx&^1] = v
}

// LoadWord, StoreWord, LoadDouble, and StoreDouble back LWC1/SWC1/LDC1/SDC1 —
// ordinary bus transfers into the register file, not coprocessor-executed
// instructions.
func (u *Unit) LoadWord(fr uint32, v uint32)    { u.setWord(fr, v) }
func (u *Unit) StoreWord(fr uint32) uint32      { return u.getWord(fr) }
func (u *Unit) LoadDouble(fr uint32, v uint64)  { u.setDouble(fr, v) }
func (u *Unit) StoreDouble(fr uint32) uint64    { return u.getDouble(fr) }

func getSingle(bits uint32) float32 { return math.Float32frombits(bits) }
func makeWord(f float32) uint32     { return math.Float32bits(f) }
func getDoubleF(bits uint64) float64 { return math.Float64frombits(bits) }
func makeLong(f float64) uint64      { return math.Float64bits(f) }

// fpuFormat mirrors the COP1 rs-field format selectors.
const (
	fmtSingle = 16
	fmtDouble = 17
	fmtWord   = 20
	fmtLong   = 21
)

// COP1 rs-field move-instruction selectors (share the fmt field's slot).
const (
	movMFC1 = 0x00
	movDMFC1 = 0x01
	movCFC1 = 0x02
	movMTC1 = 0x04
	movDMTC1 = 0x05
	movCTC1 = 0x06
	movBC1  = 0x08
)

// Arithmetic/conversion funct values, shared across formats.
const (
	fnADD    = 0x00
	fnSUB    = 0x01
	fnMUL    = 0x02
	fnDIV    = 0x03
	fnSQRT   = 0x04
	fnABS    = 0x05
	fnMOV    = 0x06
	fnNEG    = 0x07
	fnTRUNCW = 0x0D
	fnCVTS   = 0x20
	fnCVTD   = 0x21
	fnCVTW   = 0x24
	fnCCONDBase = 0x30
)

type unsupported struct{ what string }

func (e *unsupported) Error() string { return "fpu: unsupported " + e.what }

// Execute decodes and runs a single COP1 instruction. instr is the raw
// 32-bit word; gpr is the scalar CPU's general-purpose register file, used
// by the plain register-move forms (MFC1/MTC1/DMFC1/DMTC1).
func (u *Unit) Execute(instr uint32, gpr *[32]uint64) error {
	rs := (instr >> 21) & 0x1F // fmt, or a move selector
	rt := (instr >> 16) & 0x1F
	fs := (instr >> 11) & 0x1F
	fd := (instr >> 6) & 0x1F
	funct := instr & 0x3F

	switch rs {
	case movMFC1:
		gpr[rt] = uint64(int64(int32(u.getWord(fs))))
		return nil
	case movDMFC1:
		gpr[rt] = u.getDouble(fs)
		return nil
	case movCFC1:
		gpr[rt] = uint64(int64(int32(u.control)))
		return nil
	case movMTC1:
		u.setWord(fs, uint32(gpr[rt]))
		return nil
	case movDMTC1:
		u.setDouble(fs, gpr[rt])
		return nil
	case movCTC1:
		u.control = uint32(gpr[rt])
		return nil
	case movBC1:
		return nil // BC1T/BC1F are decoded and branched by the scalar core; nothing to do here
	case fmtSingle:
		return u.execSingle(funct, fs, rt, fd)
	case fmtDouble:
		return u.execDouble(funct, fs, rt, fd)
	case fmtWord:
		return u.execWord(funct, fs, fd)
	case fmtLong:
		return &unsupported{"Long format"}
	default:
		return &unsupported{fmt.Sprintf("COP1 rs field %#x", rs)}
	}
}

func (u *Unit) execSingle(funct, fs, ft, fd uint32) error {
	a := getSingle(u.getWord(fs))
	b := getSingle(u.getWord(ft))
	switch funct {
	case fnADD:
		u.setWord(fd, makeWord(a+b))
	case fnSUB:
		u.setWord(fd, makeWord(a-b))
	case fnMUL:
		u.setWord(fd, makeWord(a*b))
	case fnDIV:
		u.setWord(fd, makeWord(a/b))
	case fnSQRT:
		u.setWord(fd, makeWord(float32(math.Sqrt(float64(a)))))
	case fnABS:
		u.setWord(fd, makeWord(float32(math.Abs(float64(a)))))
	case fnMOV:
		u.setWord(fd, u.getWord(fs))
	case fnNEG:
		u.setWord(fd, makeWord(-a))
	case fnTRUNCW:
		u.setWord(fd, truncToWord(float64(a)))
	case fnCVTD:
		u.setDouble(fd, makeLong(float64(a)))
	case fnCVTW:
		u.setWord(fd, truncToWord(float64(a)))
	default:
		if funct >= fnCCONDBase {
			u.compare(float64(a), float64(b), funct)
			return nil
		}
		return &unsupported{fmt.Sprintf("single funct %#x", funct)}
	}
	return nil
}

func (u *Unit) execDouble(funct, fs, ft, fd uint32) error {
	a := getDoubleF(u.getDouble(fs))
	b := getDoubleF(u.getDouble(ft))
	switch funct {
	case fnADD:
		u.setDouble(fd, makeLong(a+b))
	case fnSUB:
		u.setDouble(fd, makeLong(a-b))
	case fnMUL:
		u.setDouble(fd, makeLong(a*b))
	case fnDIV:
		u.setDouble(fd, makeLong(a/b))
	case fnSQRT:
		u.setDouble(fd, makeLong(math.Sqrt(a)))
	case fnABS:
		u.setDouble(fd, makeLong(math.Abs(a)))
	case fnMOV:
		u.setDouble(fd, u.getDouble(fs))
	case fnNEG:
		u.setDouble(fd, makeLong(-a))
	case fnTRUNCW:
		u.setWord(fd, truncToWord(a))
	case fnCVTS:
		u.setWord(fd, makeWord(float32(a)))
	case fnCVTW:
		u.setWord(fd, truncToWord(a))
	default:
		if funct >= fnCCONDBase {
			u.compare(a, b, funct)
			return nil
		}
		return &unsupported{fmt.Sprintf("double funct %#x", funct)}
	}
	return nil
}

func (u *Unit) execWord(funct, fs, fd uint32) error {
	word := u.getWord(fs)
	switch funct {
	case fnCVTS:
		u.setWord(fd, makeWord(float32(int32(word))))
	case fnCVTD:
		u.setDouble(fd, makeLong(float64(int32(word))))
	default:
		return &unsupported{fmt.Sprintf("word funct %#x", funct)}
	}
	return nil
}

// truncToWord implements TRUNC.W/CVT.W: truncation toward zero regardless
// of the control register's rounding-mode field, per spec §4.3.
func truncToWord(f float64) uint32 {
	return uint32(int32(math.Trunc(f)))
}

// condition bit flags used by C.cond.fmt, per the selector's four bits:
// bit0 LessThan, bit1 Equal, bit2 Unordered, bit3 Signaling (unimplemented,
// since this emulator never traps on invalid-operation).
const (
	condLessThan  = 1 << 0
	condEqual     = 1 << 1
	condUnordered = 1 << 2
)

// compare implements C.cond.fmt: the four-bit selector in funct's low
// nibble is ANDed against the flags actually observed, and the coprocessor
// condition bit is set iff the result is nonzero.
func (u *Unit) compare(a, b float64, funct uint32) {
	condition := funct & 0xF
	var flags uint32
	if math.IsNaN(a) || math.IsNaN(b) {
		flags |= condUnordered
	} else {
		if a < b {
			flags |= condLessThan
		}
		if a == b {
			flags |= condEqual
		}
	}
	u.condition = condition&flags != 0
	u.control &^= 1 << 23
	if u.condition {
		u.control |= 1 << 23
	}
}
