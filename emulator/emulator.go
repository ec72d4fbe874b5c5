package emulator

import (
	"errors"

	"github.com/asmsuite/MIPS-Emulator/assembler"
)

// Context is one loaded program and its machine state. It is not safe for
// concurrent use; callers serialize access (the debug server holds a mutex
// per connection).
type Context struct {
	config   Config
	program  *assembler.Program
	mem      *Memory
	regs     RegisterFile
	state    State
	fault    *RuntimeFault
	textEnd  uint32
	executed uint64
}

func NewContext(config Config) *Context {
	def := DefaultConfig()
	if config.StackTop == 0 {
		config.StackTop = def.StackTop
	}
	if config.StackSize == 0 {
		config.StackSize = def.StackSize
	}
	if config.GlobalPointer == 0 {
		config.GlobalPointer = def.GlobalPointer
	}
	return &Context{config: config, state: StateHalted}
}

// Load installs an assembled program: segment windows are sized from the
// image, both segments are copied in and the registers take their startup
// values. The context is then in StateLoaded.
func (c *Context) Load(program *assembler.Program) {
	textEnd := program.TextBase + uint32(len(program.Text))

	// The static window covers the data image and the $gp-relative area
	// so small programs can still address globals off $gp.
	staticEnd := program.DataBase + uint32(len(program.Data))
	if gpEnd := c.config.GlobalPointer + pageSize; gpEnd > staticEnd {
		staticEnd = gpEnd
	}

	c.mem = NewMemory(
		MemoryWindow{Start: program.TextBase, End: roundUpPage(textEnd)},
		MemoryWindow{Start: program.DataBase, End: roundUpPage(staticEnd)},
		MemoryWindow{Start: c.config.StackTop - c.config.StackSize, End: c.config.StackTop},
	)
	c.mem.LoadBytes(program.TextBase, program.Text)
	c.mem.LoadBytes(program.DataBase, program.Data)

	c.program = program
	c.textEnd = textEnd
	c.regs.reset(program.Entry, c.config.StackTop, c.config.GlobalPointer)
	c.fault = nil
	c.executed = 0
	c.state = StateLoaded
}

// Reset restores the loaded program to its initial state.
func (c *Context) Reset() {
	if c.program != nil {
		c.Load(c.program)
	}
}

func (c *Context) State() State         { return c.state }
func (c *Context) Fault() *RuntimeFault { return c.fault }
func (c *Context) StepCount() uint64    { return c.executed }

func (c *Context) PC() uint32 { return c.regs.PC() }
func (c *Context) HI() uint32 { return c.regs.HI() }
func (c *Context) LO() uint32 { return c.regs.LO() }

func (c *Context) ReadRegister(index uint32) uint32 {
	return c.regs.Read(index)
}

func (c *Context) Registers() [32]uint32 {
	return c.regs.Snapshot()
}

// ReadMemory reads without side effects for debugger views.
func (c *Context) ReadMemory(addr, length uint32) []byte {
	if c.mem == nil {
		return make([]byte, length)
	}
	return c.mem.ReadBytes(addr, length)
}

// WriteMemory pokes bytes into the address space. Only external callers
// use this; the engine itself writes through store instructions.
func (c *Context) WriteMemory(addr uint32, b []byte) error {
	if c.mem == nil {
		return errors.New("no program loaded")
	}
	for i, v := range b {
		if err := c.mem.Write(addr+uint32(i), 1, uint32(v)); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction. Terminal states absorb the call with no
// side effects. The PC moving past the end of the text segment halts.
func (c *Context) Step() State {
	if c.state == StateHalted || c.state == StateFaulted {
		return c.state
	}
	c.state = StateRunning

	pc := c.regs.PC()
	if pc >= c.textEnd {
		c.state = StateHalted
		return c.state
	}

	word, err := c.mem.Read(pc, 4)
	if err != nil {
		c.newMemoryFault(err)
		return c.state
	}

	c.execute(word)
	if c.state != StateFaulted {
		c.executed++
	}
	return c.state
}

// Run steps until a terminal state or the instruction limit is reached.
func (c *Context) Run(limit uint64) State {
	for i := uint64(0); limit == 0 || i < limit; i++ {
		state := c.Step()
		if state == StateHalted || state == StateFaulted {
			return state
		}
	}
	return c.state
}

func (c *Context) execute(word uint32) {
	opcode := assembler.DecodeOpcode(word)
	switch opcode {
	case assembler.OpcodeRType:
		c.executeRType(word)
	case assembler.OpcodeJ, assembler.OpcodeJAL:
		c.executeJType(word)
	default:
		c.executeIType(word)
	}
}

func (c *Context) executeRType(word uint32) {
	funct, rd, rs, rt, shamt := assembler.DecodeRTypeInstruction(word)
	if assembler.LookupOpcode(assembler.OpcodeRType, funct) == nil {
		c.newIllegalInstructionFault(word)
		return
	}

	pc := c.regs.PC()
	next := pc + 4
	a := c.regs.Read(rs)
	b := c.regs.Read(rt)

	switch funct {
	case assembler.FunctSLL:
		c.regs.Write(rd, b<<shamt)
	case assembler.FunctSRL:
		c.regs.Write(rd, b>>shamt)
	case assembler.FunctSRA:
		c.regs.Write(rd, uint32(int32(b)>>shamt))
	case assembler.FunctSLLV:
		c.regs.Write(rd, b<<(a&0x1f))
	case assembler.FunctSRLV:
		c.regs.Write(rd, b>>(a&0x1f))
	case assembler.FunctSRAV:
		c.regs.Write(rd, uint32(int32(b)>>(a&0x1f)))

	case assembler.FunctJR:
		next = a
	case assembler.FunctJALR:
		c.regs.Write(assembler.RegRA, pc+4)
		next = a

	case assembler.FunctSYSCALL:
		c.executeSyscall()

	case assembler.FunctMFHI:
		c.regs.Write(rd, c.regs.HI())
	case assembler.FunctMTHI:
		c.regs.SetHI(a)
	case assembler.FunctMFLO:
		c.regs.Write(rd, c.regs.LO())
	case assembler.FunctMTLO:
		c.regs.SetLO(a)

	case assembler.FunctMULT:
		product := int64(int32(a)) * int64(int32(b))
		c.regs.SetHI(uint32(uint64(product) >> 32))
		c.regs.SetLO(uint32(uint64(product)))
	case assembler.FunctMULTU:
		product := uint64(a) * uint64(b)
		c.regs.SetHI(uint32(product >> 32))
		c.regs.SetLO(uint32(product))
	case assembler.FunctDIV:
		if b == 0 {
			c.newDivideByZeroFault()
			return
		}
		c.regs.SetLO(uint32(int32(a) / int32(b)))
		c.regs.SetHI(uint32(int32(a) % int32(b)))
	case assembler.FunctDIVU:
		if b == 0 {
			c.newDivideByZeroFault()
			return
		}
		c.regs.SetLO(a / b)
		c.regs.SetHI(a % b)

	case assembler.FunctADD:
		c.regs.Write(rd, uint32(int32(a)+int32(b)))
	case assembler.FunctADDU:
		c.regs.Write(rd, a+b)
	case assembler.FunctSUB:
		c.regs.Write(rd, uint32(int32(a)-int32(b)))
	case assembler.FunctSUBU:
		c.regs.Write(rd, a-b)
	case assembler.FunctAND:
		c.regs.Write(rd, a&b)
	case assembler.FunctOR:
		c.regs.Write(rd, a|b)
	case assembler.FunctXOR:
		c.regs.Write(rd, a^b)
	case assembler.FunctNOR:
		c.regs.Write(rd, ^(a | b))
	case assembler.FunctSLT:
		c.regs.Write(rd, boolToReg(int32(a) < int32(b)))
	case assembler.FunctSLTU:
		c.regs.Write(rd, boolToReg(a < b))
	}

	if c.state == StateFaulted {
		return
	}
	c.regs.SetPC(next)
}

func (c *Context) executeIType(word uint32) {
	opcode, rt, rs, imm := assembler.DecodeITypeInstruction(word)
	if assembler.LookupOpcode(opcode, 0) == nil {
		c.newIllegalInstructionFault(word)
		return
	}

	pc := c.regs.PC()
	next := pc + 4
	a := c.regs.Read(rs)
	simm := int32(int16(imm))
	branchTarget := uint32(int32(pc+4) + simm<<2)

	switch opcode {
	case assembler.OpcodeBEQ:
		if a == c.regs.Read(rt) {
			next = branchTarget
		}
	case assembler.OpcodeBNE:
		if a != c.regs.Read(rt) {
			next = branchTarget
		}
	case assembler.OpcodeBLEZ:
		if int32(a) <= 0 {
			next = branchTarget
		}
	case assembler.OpcodeBGTZ:
		if int32(a) > 0 {
			next = branchTarget
		}

	case assembler.OpcodeADDI:
		c.regs.Write(rt, uint32(int32(a)+simm))
	case assembler.OpcodeADDIU:
		c.regs.Write(rt, a+uint32(simm))
	case assembler.OpcodeSLTI:
		c.regs.Write(rt, boolToReg(int32(a) < simm))
	case assembler.OpcodeSLTIU:
		c.regs.Write(rt, boolToReg(a < uint32(simm)))
	case assembler.OpcodeANDI:
		c.regs.Write(rt, a&imm)
	case assembler.OpcodeORI:
		c.regs.Write(rt, a|imm)
	case assembler.OpcodeXORI:
		c.regs.Write(rt, a^imm)
	case assembler.OpcodeLUI:
		c.regs.Write(rt, imm<<16)

	case assembler.OpcodeLB, assembler.OpcodeLH, assembler.OpcodeLW,
		assembler.OpcodeLBU, assembler.OpcodeLHU:
		addr := a + uint32(simm)
		width := loadStoreWidth(opcode)
		value, err := c.mem.Read(addr, width)
		if err != nil {
			c.newMemoryFault(err)
			return
		}
		switch opcode {
		case assembler.OpcodeLB:
			value = uint32(int32(int8(value)))
		case assembler.OpcodeLH:
			value = uint32(int32(int16(value)))
		}
		c.regs.Write(rt, value)

	case assembler.OpcodeSB, assembler.OpcodeSH, assembler.OpcodeSW:
		addr := a + uint32(simm)
		width := loadStoreWidth(opcode)
		if err := c.mem.Write(addr, width, c.regs.Read(rt)); err != nil {
			c.newMemoryFault(err)
			return
		}
	}

	if c.state == StateFaulted {
		return
	}
	c.regs.SetPC(next)
}

func (c *Context) executeJType(word uint32) {
	opcode, target := assembler.DecodeJTypeInstruction(word)
	pc := c.regs.PC()
	next := (pc+4)&0xF0000000 | target<<2

	if opcode == assembler.OpcodeJAL {
		c.regs.Write(assembler.RegRA, pc+4)
	}
	c.regs.SetPC(next)
}

func loadStoreWidth(opcode uint32) uint32 {
	switch opcode {
	case assembler.OpcodeLB, assembler.OpcodeLBU, assembler.OpcodeSB:
		return 1
	case assembler.OpcodeLH, assembler.OpcodeLHU, assembler.OpcodeSH:
		return 2
	}
	return 4
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func roundUpPage(addr uint32) uint32 {
	return (addr + pageSize - 1) &^ uint32(pageSize-1)
}
