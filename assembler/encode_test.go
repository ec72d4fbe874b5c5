package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRTypeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	word := makeRTypeInstruction(FunctADD, 10, 8, 9, 0)
	assert.Equal(uint32(OpcodeRType), DecodeOpcode(word))

	funct, rd, rs, rt, shamt := DecodeRTypeInstruction(word)
	assert.Equal(uint32(FunctADD), funct)
	assert.Equal(uint32(10), rd)
	assert.Equal(uint32(8), rs)
	assert.Equal(uint32(9), rt)
	assert.Equal(uint32(0), shamt)
}

func TestITypeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	word := makeITypeInstruction(OpcodeADDI, 8, 0, 0xfffe)
	opcode, rt, rs, imm := DecodeITypeInstruction(word)
	assert.Equal(uint32(OpcodeADDI), opcode)
	assert.Equal(uint32(8), rt)
	assert.Equal(uint32(0), rs)
	assert.Equal(uint32(0xfffe), imm)
}

func TestJTypeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	word := makeJTypeInstruction(OpcodeJAL, 0x0100000)
	opcode, target := DecodeJTypeInstruction(word)
	assert.Equal(uint32(OpcodeJAL), opcode)
	assert.Equal(uint32(0x0100000), target)
}

func TestLookupOpcodeClosedTable(t *testing.T) {
	assert := assert.New(t)

	inst := LookupOpcode(OpcodeRType, FunctADD)
	if assert.NotNil(inst) {
		assert.Equal("add", inst.Mnemonic)
	}

	inst = LookupOpcode(OpcodeLW, 0)
	if assert.NotNil(inst) {
		assert.Equal("lw", inst.Mnemonic)
	}

	assert.Nil(LookupOpcode(0x3f, 0))
	assert.Nil(LookupOpcode(OpcodeRType, 0x3f))
}

func TestFieldRangePredicates(t *testing.T) {
	assert := assert.New(t)

	assert.True(fitsSigned(32767, 16))
	assert.True(fitsSigned(-32768, 16))
	assert.False(fitsSigned(32768, 16))
	assert.False(fitsSigned(-32769, 16))

	assert.True(fitsUnsigned(65535, 16))
	assert.False(fitsUnsigned(65536, 16))
	assert.False(fitsUnsigned(-1, 16))
}
