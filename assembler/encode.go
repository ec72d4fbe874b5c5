package assembler

// Instruction word bit packing. Field widths are fixed by the MIPS layouts:
// R: opcode(6) rs(5) rt(5) rd(5) shamt(5) funct(6)
// I: opcode(6) rs(5) rt(5) imm(16)
// J: opcode(6) target(26)
// Callers validate field ranges before packing; these helpers only mask.

func makeRTypeInstruction(funct, rd, rs, rt, shamt uint32) uint32 {
	return (rs&0x1f)<<21 | (rt&0x1f)<<16 | (rd&0x1f)<<11 | (shamt&0x1f)<<6 | (funct & 0x3f)
}

func makeITypeInstruction(opcode, rt, rs uint32, imm uint32) uint32 {
	return (opcode&0x3f)<<26 | (rs&0x1f)<<21 | (rt&0x1f)<<16 | (imm & 0xffff)
}

func makeJTypeInstruction(opcode, target uint32) uint32 {
	return (opcode&0x3f)<<26 | (target & 0x03ffffff)
}

func DecodeOpcode(inst uint32) uint32 {
	return inst >> 26
}

func DecodeRTypeInstruction(inst uint32) (funct, rd, rs, rt, shamt uint32) {
	funct = inst & 0x3f
	shamt = (inst >> 6) & 0x1f
	rd = (inst >> 11) & 0x1f
	rt = (inst >> 16) & 0x1f
	rs = (inst >> 21) & 0x1f
	return
}

func DecodeITypeInstruction(inst uint32) (opcode, rt, rs, imm uint32) {
	opcode = inst >> 26
	rs = (inst >> 21) & 0x1f
	rt = (inst >> 16) & 0x1f
	imm = inst & 0xffff
	return
}

func DecodeJTypeInstruction(inst uint32) (opcode, target uint32) {
	opcode = inst >> 26
	target = inst & 0x03ffffff
	return
}

// fitsSigned reports whether v is representable in a signed field of the
// given bit width.
func fitsSigned(v int64, bits int) bool {
	return v >= -(1<<(bits-1)) && v < 1<<(bits-1)
}

// fitsUnsigned reports whether v is representable in an unsigned field of
// the given bit width.
func fitsUnsigned(v int64, bits int) bool {
	return v >= 0 && v < 1<<bits
}
