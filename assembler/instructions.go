package assembler

import "strconv"

type InstFormat int

const (
	FormatR InstFormat = iota
	FormatI
	FormatILoadStore // I-format written as "op rt, imm(rs)"
	FormatJ
)

type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgRd
	ArgRs
	ArgRt
	ArgShamt
	ArgSImm   // signed 16-bit immediate
	ArgUImm   // zero-extended 16-bit immediate
	ArgBranch // label or immediate, encoded as a PC-relative word offset
	ArgTarget // label or immediate, encoded as a 26-bit word address
)

// Inst describes one real instruction of the reduced MIPS set. The table
// below is the single source of truth for parsing, encoding, execution
// dispatch and hover documentation.
type Inst struct {
	Mnemonic string
	Name     string
	Format   InstFormat
	Opcode   uint32
	Funct    uint32
	Args     [3]ArgKind
	Desc     string
}

// R-format funct values (opcode 0x00).
const (
	FunctSLL     = 0x00
	FunctSRL     = 0x02
	FunctSRA     = 0x03
	FunctSLLV    = 0x04
	FunctSRLV    = 0x06
	FunctSRAV    = 0x07
	FunctJR      = 0x08
	FunctJALR    = 0x09
	FunctSYSCALL = 0x0c
	FunctMFHI    = 0x10
	FunctMTHI    = 0x11
	FunctMFLO    = 0x12
	FunctMTLO    = 0x13
	FunctMULT    = 0x18
	FunctMULTU   = 0x19
	FunctDIV     = 0x1a
	FunctDIVU    = 0x1b
	FunctADD     = 0x20
	FunctADDU    = 0x21
	FunctSUB     = 0x22
	FunctSUBU    = 0x23
	FunctAND     = 0x24
	FunctOR      = 0x25
	FunctXOR     = 0x26
	FunctNOR     = 0x27
	FunctSLT     = 0x2a
	FunctSLTU    = 0x2b
)

// I- and J-format opcodes.
const (
	OpcodeRType = 0x00
	OpcodeJ     = 0x02
	OpcodeJAL   = 0x03
	OpcodeBEQ   = 0x04
	OpcodeBNE   = 0x05
	OpcodeBLEZ  = 0x06
	OpcodeBGTZ  = 0x07
	OpcodeADDI  = 0x08
	OpcodeADDIU = 0x09
	OpcodeSLTI  = 0x0a
	OpcodeSLTIU = 0x0b
	OpcodeANDI  = 0x0c
	OpcodeORI   = 0x0d
	OpcodeXORI  = 0x0e
	OpcodeLUI   = 0x0f
	OpcodeLB    = 0x20
	OpcodeLH    = 0x21
	OpcodeLW    = 0x23
	OpcodeLBU   = 0x24
	OpcodeLHU   = 0x25
	OpcodeSB    = 0x28
	OpcodeSH    = 0x29
	OpcodeSW    = 0x2b
)

var Instructions = []Inst{
	{"add", "Add", FormatR, 0x00, FunctADD, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs + $rt."},
	{"addu", "Add Unsigned", FormatR, 0x00, FunctADDU, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs + $rt, unsigned."},
	{"sub", "Subtract", FormatR, 0x00, FunctSUB, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs - $rt."},
	{"subu", "Subtract Unsigned", FormatR, 0x00, FunctSUBU, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs - $rt, unsigned."},
	{"and", "AND", FormatR, 0x00, FunctAND, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs & $rt."},
	{"or", "OR", FormatR, 0x00, FunctOR, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs | $rt."},
	{"xor", "XOR", FormatR, 0x00, FunctXOR, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Performs $rd = $rs ^ $rt."},
	{"nor", "NOR", FormatR, 0x00, FunctNOR, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Not OR. Performs $rd = ~($rs | $rt)."},
	{"slt", "Set Less Than", FormatR, 0x00, FunctSLT, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Sets $rd to 1 when $rs < $rt, else 0."},
	{"sltu", "Set Less Than Unsigned", FormatR, 0x00, FunctSLTU, [3]ArgKind{ArgRd, ArgRs, ArgRt}, "Sets $rd to 1 when $rs < $rt, unsigned, else 0."},
	{"sll", "Shift Left Logical", FormatR, 0x00, FunctSLL, [3]ArgKind{ArgRd, ArgRt, ArgShamt}, "Performs $rd = $rt << $shamt."},
	{"srl", "Shift Right Logical", FormatR, 0x00, FunctSRL, [3]ArgKind{ArgRd, ArgRt, ArgShamt}, "Performs $rd = $rt >> $shamt, zero-filled."},
	{"sra", "Shift Right Arithmetic", FormatR, 0x00, FunctSRA, [3]ArgKind{ArgRd, ArgRt, ArgShamt}, "Performs $rd = $rt >> $shamt, sign-filled."},
	{"sllv", "Shift Left Logical Variable", FormatR, 0x00, FunctSLLV, [3]ArgKind{ArgRd, ArgRt, ArgRs}, "Performs $rd = $rt << ($rs & 31)."},
	{"srlv", "Shift Right Logical Variable", FormatR, 0x00, FunctSRLV, [3]ArgKind{ArgRd, ArgRt, ArgRs}, "Performs $rd = $rt >> ($rs & 31), zero-filled."},
	{"srav", "Shift Right Arithmetic Variable", FormatR, 0x00, FunctSRAV, [3]ArgKind{ArgRd, ArgRt, ArgRs}, "Performs $rd = $rt >> ($rs & 31), sign-filled."},
	{"mult", "Multiply", FormatR, 0x00, FunctMULT, [3]ArgKind{ArgRs, ArgRt, ArgNone}, "Multiplies $rs by $rt, signed; HI:LO holds the 64-bit product."},
	{"multu", "Multiply Unsigned", FormatR, 0x00, FunctMULTU, [3]ArgKind{ArgRs, ArgRt, ArgNone}, "Multiplies $rs by $rt, unsigned; HI:LO holds the 64-bit product."},
	{"div", "Divide", FormatR, 0x00, FunctDIV, [3]ArgKind{ArgRs, ArgRt, ArgNone}, "Divides $rs by $rt, signed; LO = quotient, HI = remainder."},
	{"divu", "Divide Unsigned", FormatR, 0x00, FunctDIVU, [3]ArgKind{ArgRs, ArgRt, ArgNone}, "Divides $rs by $rt, unsigned; LO = quotient, HI = remainder."},
	{"mfhi", "Move From HI", FormatR, 0x00, FunctMFHI, [3]ArgKind{ArgRd, ArgNone, ArgNone}, "Copies HI into $rd."},
	{"mflo", "Move From LO", FormatR, 0x00, FunctMFLO, [3]ArgKind{ArgRd, ArgNone, ArgNone}, "Copies LO into $rd."},
	{"mthi", "Move To HI", FormatR, 0x00, FunctMTHI, [3]ArgKind{ArgRs, ArgNone, ArgNone}, "Copies $rs into HI."},
	{"mtlo", "Move To LO", FormatR, 0x00, FunctMTLO, [3]ArgKind{ArgRs, ArgNone, ArgNone}, "Copies $rs into LO."},
	{"jr", "Jump Register", FormatR, 0x00, FunctJR, [3]ArgKind{ArgRs, ArgNone, ArgNone}, "Jumps to the address in $rs."},
	{"jalr", "Jump and Link Register", FormatR, 0x00, FunctJALR, [3]ArgKind{ArgRs, ArgNone, ArgNone}, "Sets $ra to the next address, then jumps to the address in $rs."},
	{"syscall", "System Call", FormatR, 0x00, FunctSYSCALL, [3]ArgKind{ArgNone, ArgNone, ArgNone}, "Performs the system call selected by $v0."},

	{"addi", "Add Immediate", FormatI, OpcodeADDI, 0, [3]ArgKind{ArgRt, ArgRs, ArgSImm}, "Performs $rt = $rs + $imm."},
	{"addiu", "Add Immediate Unsigned", FormatI, OpcodeADDIU, 0, [3]ArgKind{ArgRt, ArgRs, ArgSImm}, "Performs $rt = $rs + $imm without overflow trapping."},
	{"slti", "Set Less Than Immediate", FormatI, OpcodeSLTI, 0, [3]ArgKind{ArgRt, ArgRs, ArgSImm}, "Sets $rt to 1 when $rs < $imm, else 0."},
	{"sltiu", "Set Less Than Immediate Unsigned", FormatI, OpcodeSLTIU, 0, [3]ArgKind{ArgRt, ArgRs, ArgSImm}, "Sets $rt to 1 when $rs < $imm, unsigned, else 0."},
	{"andi", "AND Immediate", FormatI, OpcodeANDI, 0, [3]ArgKind{ArgRt, ArgRs, ArgUImm}, "Performs $rt = $rs & $imm, zero-extended."},
	{"ori", "OR Immediate", FormatI, OpcodeORI, 0, [3]ArgKind{ArgRt, ArgRs, ArgUImm}, "Performs $rt = $rs | $imm, zero-extended."},
	{"xori", "XOR Immediate", FormatI, OpcodeXORI, 0, [3]ArgKind{ArgRt, ArgRs, ArgUImm}, "Performs $rt = $rs ^ $imm, zero-extended."},
	{"lui", "Load Upper Immediate", FormatI, OpcodeLUI, 0, [3]ArgKind{ArgRt, ArgUImm, ArgNone}, "Performs $rt = $imm << 16."},
	{"beq", "Branch on Equal", FormatI, OpcodeBEQ, 0, [3]ArgKind{ArgRs, ArgRt, ArgBranch}, "Branches to $imm when $rs == $rt."},
	{"bne", "Branch on Not Equal", FormatI, OpcodeBNE, 0, [3]ArgKind{ArgRs, ArgRt, ArgBranch}, "Branches to $imm when $rs != $rt."},
	{"blez", "Branch on Less Than or Equal Zero", FormatI, OpcodeBLEZ, 0, [3]ArgKind{ArgRs, ArgBranch, ArgNone}, "Branches to $imm when $rs <= 0."},
	{"bgtz", "Branch on Greater Than Zero", FormatI, OpcodeBGTZ, 0, [3]ArgKind{ArgRs, ArgBranch, ArgNone}, "Branches to $imm when $rs > 0."},

	{"lb", "Load Byte", FormatILoadStore, OpcodeLB, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Loads a sign-extended byte at $mem($rs + $imm) into $rt."},
	{"lh", "Load Half", FormatILoadStore, OpcodeLH, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Loads a sign-extended halfword at $mem($rs + $imm) into $rt."},
	{"lw", "Load Word", FormatILoadStore, OpcodeLW, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Loads the word at $mem($rs + $imm) into $rt."},
	{"lbu", "Load Byte Unsigned", FormatILoadStore, OpcodeLBU, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Loads a zero-extended byte at $mem($rs + $imm) into $rt."},
	{"lhu", "Load Half Unsigned", FormatILoadStore, OpcodeLHU, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Loads a zero-extended halfword at $mem($rs + $imm) into $rt."},
	{"sb", "Store Byte", FormatILoadStore, OpcodeSB, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Stores the low byte of $rt at $mem($rs + $imm)."},
	{"sh", "Store Half", FormatILoadStore, OpcodeSH, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Stores the low halfword of $rt at $mem($rs + $imm)."},
	{"sw", "Store Word", FormatILoadStore, OpcodeSW, 0, [3]ArgKind{ArgRt, ArgSImm, ArgRs}, "Stores $rt at $mem($rs + $imm)."},

	{"j", "Jump", FormatJ, OpcodeJ, 0, [3]ArgKind{ArgTarget, ArgNone, ArgNone}, "Jumps to $addr."},
	{"jal", "Jump and Link", FormatJ, OpcodeJAL, 0, [3]ArgKind{ArgTarget, ArgNone, ArgNone}, "Sets $ra to the next address, then jumps to $addr."},
}

// PseudoInst describes an assembly mnemonic with no hardware encoding.
type PseudoInst struct {
	Mnemonic string
	Name     string
	Desc     string
}

var PseudoInstructions = []PseudoInst{
	{"li", "Load Immediate", "Loads a 32-bit immediate into $rt. Expands to addiu, or lui+ori when the value does not fit 16 signed bits."},
	{"la", "Load Address", "Loads an address (label or literal) into $rt. Expands to lui+ori."},
	{"move", "Move", "Copies $rs into $rd. Expands to addu $rd, $rs, $zero."},
	{"nop", "No Operation", "Does nothing. Expands to sll $zero, $zero, 0."},
	{"b", "Branch", "Branches unconditionally. Expands to beq $zero, $zero."},
	{"beqz", "Branch on Equal Zero", "Branches when $rs == 0. Expands to beq $rs, $zero."},
	{"bnez", "Branch on Not Equal Zero", "Branches when $rs != 0. Expands to bne $rs, $zero."},
	{"not", "Not", "Performs $rd = ~$rs. Expands to nor $rd, $rs, $zero."},
	{"neg", "Negate", "Performs $rd = -$rs. Expands to sub $rd, $zero, $rs."},
	{"blt", "Branch on Less Than", "Branches when $rs < $rt. Expands to slt $at + bne."},
	{"bgt", "Branch on Greater Than", "Branches when $rs > $rt. Expands to slt $at + bne."},
	{"ble", "Branch on Less Than or Equal", "Branches when $rs <= $rt. Expands to slt $at + beq."},
	{"bge", "Branch on Greater Than or Equal", "Branches when $rs >= $rt. Expands to slt $at + beq."},
}

var instByMnemonic = func() map[string]*Inst {
	m := make(map[string]*Inst, len(Instructions))
	for i := range Instructions {
		m[Instructions[i].Mnemonic] = &Instructions[i]
	}
	return m
}()

var instByOpcodeFunct = func() map[[2]uint32]*Inst {
	m := make(map[[2]uint32]*Inst, len(Instructions))
	for i := range Instructions {
		key := [2]uint32{Instructions[i].Opcode, 0}
		if Instructions[i].Format == FormatR {
			key[1] = Instructions[i].Funct
		}
		m[key] = &Instructions[i]
	}
	return m
}()

var pseudoByMnemonic = func() map[string]*PseudoInst {
	m := make(map[string]*PseudoInst, len(PseudoInstructions))
	for i := range PseudoInstructions {
		m[PseudoInstructions[i].Mnemonic] = &PseudoInstructions[i]
	}
	return m
}()

// LookupMnemonic returns the table entry for a real instruction mnemonic,
// or nil. Mnemonics are matched case-insensitively by the caller.
func LookupMnemonic(mnemonic string) *Inst {
	return instByMnemonic[mnemonic]
}

// LookupOpcode returns the table entry matching a decoded opcode and, for
// R-format, funct value. A nil result is an illegal instruction.
func LookupOpcode(opcode, funct uint32) *Inst {
	if opcode != OpcodeRType {
		funct = 0
	}
	return instByOpcodeFunct[[2]uint32{opcode, funct}]
}

// LookupPseudo returns the pseudo-instruction entry for a mnemonic, or nil.
func LookupPseudo(mnemonic string) *PseudoInst {
	return pseudoByMnemonic[mnemonic]
}

// Canonical register numbering.
const (
	RegZero = 0
	RegAT   = 1
	RegV0   = 2
	RegV1   = 3
	RegA0   = 4
	RegA1   = 5
	RegA2   = 6
	RegA3   = 7
	RegT0   = 8
	RegS0   = 16
	RegT8   = 24
	RegK0   = 26
	RegGP   = 28
	RegSP   = 29
	RegFP   = 30
	RegRA   = 31
)

// RegisterNames maps register index to its symbolic name, without the '$'.
var RegisterNames = [32]string{
	"zero", "at", "v0", "v1",
	"a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1",
	"gp", "sp", "fp", "ra",
}

var registerIndex = func() map[string]uint32 {
	m := make(map[string]uint32, 32)
	for i, name := range RegisterNames {
		m[name] = uint32(i)
	}
	return m
}()

// RegisterIndex resolves a register name without the '$' prefix. Symbolic
// names are case-sensitive; plain numbers 0-31 are accepted too.
func RegisterIndex(name string) (uint32, bool) {
	if idx, ok := registerIndex[name]; ok {
		return idx, true
	}
	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil || n > 31 {
		return 0, false
	}
	return uint32(n), true
}
