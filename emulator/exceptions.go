package emulator

import "fmt"

// newFault snapshots the machine state, stores the fault on the context
// and moves it to the terminal Faulted state.
func (c *Context) newFault(format string, args ...interface{}) *RuntimeFault {
	fault := &RuntimeFault{
		PC:        c.regs.PC(),
		Registers: c.regs.Snapshot(),
		Message:   fmt.Sprintf(format, args...),
	}
	c.fault = fault
	c.state = StateFaulted
	return fault
}

func (c *Context) newIllegalInstructionFault(word uint32) *RuntimeFault {
	return c.newFault("illegal instruction 0x%08X at 0x%08X", word, c.regs.PC())
}

func (c *Context) newMemoryFault(err error) *RuntimeFault {
	return c.newFault("%s at pc 0x%08X", err.Error(), c.regs.PC())
}

func (c *Context) newDivideByZeroFault() *RuntimeFault {
	return c.newFault("division by zero at 0x%08X", c.regs.PC())
}

func (c *Context) newUnknownSyscallFault(number uint32) *RuntimeFault {
	return c.newFault("unknown syscall %d at 0x%08X", number, c.regs.PC())
}

func (c *Context) newIOFault(err error) *RuntimeFault {
	return c.newFault("i/o error: %s at 0x%08X", err.Error(), c.regs.PC())
}
