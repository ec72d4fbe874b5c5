package emulator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asmsuite/MIPS-Emulator/assembler"
)

type testIO struct {
	out   bytes.Buffer
	lines []string
}

func (io *testIO) WriteStdout(b []byte) error {
	_, err := io.out.Write(b)
	return err
}

func (io *testIO) ReadLine() (string, error) {
	line := io.lines[0]
	io.lines = io.lines[1:]
	return line, nil
}

func load(t *testing.T, source string) (*Context, *testIO) {
	t.Helper()
	result := assembler.AssembleDefault(source)
	require.False(t, result.HasErrors(), "assembly failed: %v", result.Diagnostics)
	require.NotNil(t, result.Program)

	io := &testIO{}
	config := DefaultConfig()
	config.IO = io
	ctx := NewContext(config)
	ctx.Load(result.Program)
	return ctx, io
}

func TestArithmeticSteps(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $t0, $zero, 5
		addi $t1, $zero, 7
		add $t2, $t0, $t1
	`)

	assert.Equal(StateLoaded, ctx.State())

	ctx.Step()
	assert.Equal(StateRunning, ctx.State())
	assert.Equal(uint32(5), ctx.ReadRegister(assembler.RegT0))
	assert.Equal(uint32(0x00400004), ctx.PC())

	ctx.Step()
	ctx.Step()
	assert.Equal(uint32(12), ctx.ReadRegister(10))
}

func TestZeroRegisterWriteIgnored(t *testing.T) {
	ctx, _ := load(t, `
	.text
		addi $zero, $zero, 42
	`)

	ctx.Step()
	assert.Equal(t, uint32(0), ctx.ReadRegister(assembler.RegZero))
}

func TestStartupRegisters(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		nop
	`)

	assert.Equal(uint32(0x80000000), ctx.ReadRegister(assembler.RegSP))
	assert.Equal(uint32(0x10008000), ctx.ReadRegister(assembler.RegGP))
	assert.Equal(uint32(0x00400000), ctx.PC())
}

func TestBranchTaken(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $t0, $zero, 1
		addi $t1, $zero, 1
		beq $t0, $t1, skip
		addi $t2, $zero, 99
	skip:
		addi $t3, $zero, 3
	`)

	ctx.Run(16)
	assert.Equal(StateHalted, ctx.State())
	assert.Equal(uint32(0), ctx.ReadRegister(10), "branched-over instruction must not execute")
	assert.Equal(uint32(3), ctx.ReadRegister(11))
}

func TestJalAndJr(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
	main:
		jal sub
		addi $t1, $zero, 2
		j end
	sub:
		addi $t0, $zero, 1
		jr $ra
	end:
		nop
	`)

	ctx.Run(32)
	assert.Equal(StateHalted, ctx.State())
	assert.Equal(uint32(1), ctx.ReadRegister(8))
	assert.Equal(uint32(2), ctx.ReadRegister(9))
}

func TestHiLo(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $t0, $zero, 7
		addi $t1, $zero, 3
		div $t0, $t1
		mflo $t2
		mfhi $t3
	`)

	ctx.Run(8)
	assert.Equal(uint32(2), ctx.ReadRegister(10), "quotient in LO")
	assert.Equal(uint32(1), ctx.ReadRegister(11), "remainder in HI")
}

func TestDivideByZeroFaults(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $t0, $zero, 1
		div $t0, $zero
	`)

	ctx.Run(8)
	assert.Equal(StateFaulted, ctx.State())
	require.NotNil(t, ctx.Fault())
	assert.Contains(ctx.Fault().Message, "division by zero")
	assert.Equal(uint32(0x00400004), ctx.Fault().PC, "fault pc points at the div")
}

func TestExitSyscallHaltsAndAbsorbsSteps(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $v0, $zero, 10
		syscall
		addi $t0, $zero, 99
	`)

	ctx.Step()
	ctx.Step()
	assert.Equal(StateHalted, ctx.State())

	before := ctx.Registers()
	pc := ctx.PC()
	assert.Equal(StateHalted, ctx.Step(), "step in a terminal state is a no-op")
	assert.Equal(before, ctx.Registers())
	assert.Equal(pc, ctx.PC())
	assert.Equal(uint32(0), ctx.ReadRegister(8))
}

func TestPrintStringSyscall(t *testing.T) {
	ctx, io := load(t, `
	.data
	msg: .asciiz "hi"
	.text
		la $a0, msg
		addi $v0, $zero, 4
		syscall
		addi $v0, $zero, 10
		syscall
	`)

	ctx.Run(16)
	assert.Equal(t, StateHalted, ctx.State())
	assert.Equal(t, "hi", io.out.String(), "terminating NUL is not written")
}

func TestPrintIntAndCharSyscalls(t *testing.T) {
	ctx, io := load(t, `
	.text
		addi $a0, $zero, -42
		addi $v0, $zero, 1
		syscall
		addi $a0, $zero, 33
		addi $v0, $zero, 11
		syscall
		addi $v0, $zero, 10
		syscall
	`)

	ctx.Run(16)
	assert.Equal(t, "-42!", io.out.String())
}

func TestReadIntSyscall(t *testing.T) {
	ctx, io := load(t, `
	.text
		addi $v0, $zero, 5
		syscall
		addu $t0, $v0, $zero
		addi $v0, $zero, 10
		syscall
	`)
	io.lines = []string{" 123 "}

	ctx.Run(16)
	assert.Equal(t, StateHalted, ctx.State())
	assert.Equal(t, uint32(123), ctx.ReadRegister(8))
}

func TestReadIntSyscallParseFailureFaults(t *testing.T) {
	ctx, io := load(t, `
	.text
		addi $v0, $zero, 5
		syscall
	`)
	io.lines = []string{"not a number"}

	ctx.Run(16)
	assert.Equal(t, StateFaulted, ctx.State())
	assert.Contains(t, ctx.Fault().Message, "not an integer")
}

func TestReadStringSyscallTruncatesAndTerminates(t *testing.T) {
	assert := assert.New(t)
	ctx, io := load(t, `
	.data
	buf: .space 8
	.text
		la $a0, buf
		addi $a1, $zero, 4
		addi $v0, $zero, 8
		syscall
		addi $v0, $zero, 10
		syscall
	`)
	io.lines = []string{"hello world"}

	ctx.Run(32)
	assert.Equal(StateHalted, ctx.State())
	got := ctx.ReadMemory(0x10000000, 4)
	assert.Equal([]byte{'h', 'e', 'l', 0}, got)
}

func TestUnknownSyscallFaults(t *testing.T) {
	ctx, _ := load(t, `
	.text
		addi $v0, $zero, 99
		syscall
	`)

	ctx.Run(8)
	assert.Equal(t, StateFaulted, ctx.State())
	assert.Contains(t, ctx.Fault().Message, "unknown syscall 99")
}

func TestOutOfWindowAccessFaults(t *testing.T) {
	ctx, _ := load(t, `
	.text
		lui $t0, 0x2000
		lw $t1, 0($t0)
	`)

	ctx.Run(8)
	assert.Equal(t, StateFaulted, ctx.State())
	assert.Contains(t, ctx.Fault().Message, "out of bounds")
}

func TestMisalignedAccessFaults(t *testing.T) {
	ctx, _ := load(t, `
	.text
		lui $t0, 0x1000
		lw $t1, 2($t0)
	`)

	ctx.Run(8)
	assert.Equal(t, StateFaulted, ctx.State())
	assert.Contains(t, ctx.Fault().Message, "not aligned")
}

func TestLiEndToEnd(t *testing.T) {
	ctx, _ := load(t, `
	.text
		li $t0, 0x12345678
	`)

	ctx.Run(8)
	assert.Equal(t, uint32(0x12345678), ctx.ReadRegister(8))
}

func TestStoreLoadRoundTrip(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.data
	slot: .space 4
	.text
		la $t0, slot
		li $t1, 0x11223344
		sw $t1, 0($t0)
		lb $t2, 0($t0)
		lbu $t3, 3($t0)
		lh $t4, 0($t0)
	`)

	ctx.Run(16)
	assert.Equal(uint32(0x11), ctx.ReadRegister(10), "big-endian: msb first")
	assert.Equal(uint32(0x44), ctx.ReadRegister(11))
	assert.Equal(uint32(0x1122), ctx.ReadRegister(12))
}

func TestStackPushPop(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $sp, $sp, -4
		li $t0, 77
		sw $t0, 0($sp)
		lw $t1, 0($sp)
	`)

	ctx.Run(16)
	assert.Equal(StateHalted, ctx.State())
	assert.Equal(uint32(77), ctx.ReadRegister(9))
}

func TestRunsOffTextEndHalts(t *testing.T) {
	ctx, _ := load(t, `
	.text
		nop
	`)

	ctx.Run(4)
	assert.Equal(t, StateHalted, ctx.State())
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.text
		addi $t0, $zero, 9
	`)

	ctx.Run(4)
	assert.Equal(StateHalted, ctx.State())
	assert.Equal(uint32(9), ctx.ReadRegister(8))

	ctx.Reset()
	assert.Equal(StateLoaded, ctx.State())
	assert.Equal(uint32(0), ctx.ReadRegister(8))
	assert.Equal(uint32(0x00400000), ctx.PC())
}

func TestWriteMemoryWithoutProgram(t *testing.T) {
	ctx := NewContext(DefaultConfig())

	err := ctx.WriteMemory(0x10000000, []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no program loaded")
}

func TestPokeThenExecute(t *testing.T) {
	assert := assert.New(t)
	ctx, _ := load(t, `
	.data
	val: .word 0
	.text
		la $t0, val
		lw $t1, 0($t0)
	`)

	require.NoError(t, ctx.WriteMemory(0x10000000, []byte{0, 0, 0, 55}))
	ctx.Run(8)
	assert.Equal(uint32(55), ctx.ReadRegister(9))
}
