package emulator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/asmsuite/MIPS-Emulator/assembler"
)

// Syscall numbers, selected through $v0.
const (
	SyscallPrintInt    = 1
	SyscallPrintString = 4
	SyscallReadInt     = 5
	SyscallReadString  = 8
	SyscallExit        = 10
	SyscallPrintChar   = 11
)

// executeSyscall dispatches on $v0. Any number outside the table faults,
// as does a missing or failing HostIO.
func (c *Context) executeSyscall() {
	number := c.regs.Read(assembler.RegV0)
	a0 := c.regs.Read(assembler.RegA0)

	switch number {
	case SyscallPrintInt:
		c.writeStdout([]byte(strconv.FormatInt(int64(int32(a0)), 10)))

	case SyscallPrintString:
		b, ok := c.readCString(a0)
		if !ok {
			return
		}
		c.writeStdout(b)

	case SyscallReadInt:
		line, ok := c.readLine()
		if !ok {
			return
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil || v < -(1<<31) || v > (1<<32)-1 {
			c.newIOFault(fmt.Errorf("not an integer: %q", strings.TrimSpace(line)))
			return
		}
		c.regs.Write(assembler.RegV0, uint32(v))

	case SyscallReadString:
		line, ok := c.readLine()
		if !ok {
			return
		}
		c.storeCString(a0, c.regs.Read(assembler.RegA1), line)

	case SyscallExit:
		c.state = StateHalted

	case SyscallPrintChar:
		c.writeStdout([]byte{byte(a0)})

	default:
		c.newUnknownSyscallFault(number)
	}
}

func (c *Context) writeStdout(b []byte) {
	if c.config.IO == nil {
		c.newIOFault(fmt.Errorf("no host i/o attached"))
		return
	}
	if err := c.config.IO.WriteStdout(b); err != nil {
		c.newIOFault(err)
	}
}

func (c *Context) readLine() (string, bool) {
	if c.config.IO == nil {
		c.newIOFault(fmt.Errorf("no host i/o attached"))
		return "", false
	}
	line, err := c.config.IO.ReadLine()
	if err != nil {
		c.newIOFault(err)
		return "", false
	}
	return line, true
}

// readCString reads bytes at addr until the terminating NUL, which is not
// included in the result.
func (c *Context) readCString(addr uint32) ([]byte, bool) {
	var out []byte
	for {
		v, err := c.mem.Read(addr, 1)
		if err != nil {
			c.newMemoryFault(err)
			return nil, false
		}
		if v == 0 {
			return out, true
		}
		out = append(out, byte(v))
		addr++
	}
}

// storeCString writes the line into the buffer at addr, truncating to
// maxLen-1 bytes and always NUL-terminating when maxLen > 0.
func (c *Context) storeCString(addr, maxLen uint32, line string) {
	if maxLen == 0 {
		return
	}
	b := []byte(line)
	if uint32(len(b)) > maxLen-1 {
		b = b[:maxLen-1]
	}
	for i, v := range b {
		if err := c.mem.Write(addr+uint32(i), 1, uint32(v)); err != nil {
			c.newMemoryFault(err)
			return
		}
	}
	if err := c.mem.Write(addr+uint32(len(b)), 1, 0); err != nil {
		c.newMemoryFault(err)
	}
}

// ConsoleIO adapts the process stdin/stdout to HostIO for the run mode.
type ConsoleIO struct {
	Out    io.Writer
	reader *bufio.Reader
	In     io.Reader
}

func NewConsoleIO(in io.Reader, out io.Writer) *ConsoleIO {
	return &ConsoleIO{In: in, Out: out, reader: bufio.NewReader(in)}
}

func (c *ConsoleIO) WriteStdout(b []byte) error {
	_, err := c.Out.Write(b)
	return err
}

func (c *ConsoleIO) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
