package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBigEndian(t *testing.T) {
	assert := assert.New(t)
	m := NewMemory(MemoryWindow{Start: 0x1000, End: 0x2000})

	require.NoError(t, m.Write(0x1000, 4, 0x11223344))

	b0, err := m.Read(0x1000, 1)
	require.NoError(t, err)
	assert.Equal(uint32(0x11), b0)

	h, err := m.Read(0x1002, 2)
	require.NoError(t, err)
	assert.Equal(uint32(0x3344), h)

	w, err := m.Read(0x1000, 4)
	require.NoError(t, err)
	assert.Equal(uint32(0x11223344), w)
}

func TestMemoryAlignment(t *testing.T) {
	assert := assert.New(t)
	m := NewMemory(MemoryWindow{Start: 0x1000, End: 0x2000})

	_, err := m.Read(0x1001, 2)
	assert.True(IsAlignmentError(err))

	_, err = m.Read(0x1002, 4)
	assert.True(IsAlignmentError(err))

	err = m.Write(0x1003, 4, 1)
	assert.True(IsAlignmentError(err))

	// byte access is never misaligned
	_, err = m.Read(0x1003, 1)
	assert.NoError(err)
}

func TestMemoryWindows(t *testing.T) {
	assert := assert.New(t)
	m := NewMemory(MemoryWindow{Start: 0x1000, End: 0x2000})

	_, err := m.Read(0x0ffc, 4)
	assert.True(IsAccessError(err))

	err = m.Write(0x2000, 4, 1)
	assert.True(IsAccessError(err))

	// untouched memory inside the window reads as zero
	v, err := m.Read(0x1ffc, 4)
	assert.NoError(err)
	assert.Equal(uint32(0), v)

	// a word straddling the window end is rejected
	short := NewMemory(MemoryWindow{Start: 0x1000, End: 0x1ffe})
	err = short.Write(0x1ffc, 4, 1)
	assert.True(IsAccessError(err))
}

func TestMemoryReadBytesSpansPages(t *testing.T) {
	m := NewMemory(MemoryWindow{Start: 0x1000, End: 0x3000})
	require.NoError(t, m.Write(0x1ffe, 2, 0xaabb))
	require.NoError(t, m.Write(0x2000, 2, 0xccdd))

	got := m.ReadBytes(0x1ffe, 4)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, got)
}
