package cpu

// Instruction field accessors. Per spec §9, instruction words are plain
// 32-bit integers; fields are extracted with named functions rather than a
// bitfield struct.

func opField(instr uint32) uint32   { return instr >> 26 }
func rsField(instr uint32) uint32   { return (instr >> 21) & 0x1F }
func rtField(instr uint32) uint32   { return (instr >> 16) & 0x1F }
func rdField(instr uint32) uint32   { return (instr >> 11) & 0x1F }
func saField(instr uint32) uint32   { return (instr >> 6) & 0x1F }
func funcField(instr uint32) uint32 { return instr & 0x3F }
func imm16Field(instr uint32) uint32 { return instr & 0xFFFF }
func target26Field(instr uint32) uint32 { return instr & 0x03FF_FFFF }

func signExt16(v uint32) uint64 {
	return uint64(int64(int16(uint16(v))))
}

func zeroExt16(v uint32) uint64 { return uint64(uint16(v)) }
