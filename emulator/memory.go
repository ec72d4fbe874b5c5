package emulator

import "fmt"

const pageSize = 0x1000

// MemoryWindow is a contiguous range of valid addresses. Accesses outside
// every window fail instead of allocating.
type MemoryWindow struct {
	Start uint32
	End   uint32 // exclusive
}

func (w MemoryWindow) contains(addr uint32, width uint32) bool {
	return addr >= w.Start && addr+width > addr && addr+width <= w.End
}

// Memory is a sparse paged big-endian address space. Pages allocate on
// first touch inside a window; everything starts zeroed.
type Memory struct {
	pages   map[uint32]*[pageSize]byte
	windows []MemoryWindow
}

func NewMemory(windows ...MemoryWindow) *Memory {
	return &Memory{
		pages:   map[uint32]*[pageSize]byte{},
		windows: windows,
	}
}

type alignmentError struct {
	addr  uint32
	width uint32
}

func (e *alignmentError) Error() string {
	return fmt.Sprintf("memory access not aligned at 0x%08X for width %d", e.addr, e.width)
}

type accessError struct {
	addr uint32
}

func (e *accessError) Error() string {
	return fmt.Sprintf("memory access out of bounds at 0x%08X", e.addr)
}

// IsAlignmentError reports whether err is a misaligned access.
func IsAlignmentError(err error) bool {
	_, ok := err.(*alignmentError)
	return ok
}

// IsAccessError reports whether err is an out-of-bounds access.
func IsAccessError(err error) bool {
	_, ok := err.(*accessError)
	return ok
}

func (m *Memory) check(addr, width uint32) error {
	if width > 1 && addr%width != 0 {
		return &alignmentError{addr: addr, width: width}
	}
	for _, w := range m.windows {
		if w.contains(addr, width) {
			return nil
		}
	}
	return &accessError{addr: addr}
}

func (m *Memory) page(addr uint32, allocate bool) *[pageSize]byte {
	key := addr / pageSize
	p, ok := m.pages[key]
	if !ok && allocate {
		p = &[pageSize]byte{}
		m.pages[key] = p
	}
	return p
}

// Read fetches width bytes (1, 2 or 4) big-endian.
func (m *Memory) Read(addr, width uint32) (uint32, error) {
	if err := m.check(addr, width); err != nil {
		return 0, err
	}
	value := uint32(0)
	for i := uint32(0); i < width; i++ {
		value <<= 8
		p := m.page(addr+i, false)
		if p != nil {
			value |= uint32(p[(addr+i)%pageSize])
		}
	}
	return value, nil
}

// Write stores width bytes (1, 2 or 4) big-endian.
func (m *Memory) Write(addr, width, value uint32) error {
	if err := m.check(addr, width); err != nil {
		return err
	}
	for i := uint32(0); i < width; i++ {
		shift := 8 * (width - 1 - i)
		p := m.page(addr+i, true)
		p[(addr+i)%pageSize] = byte(value >> shift)
	}
	return nil
}

// LoadBytes copies a segment image into memory without window checks; the
// loader places segments exactly where the windows were built from.
func (m *Memory) LoadBytes(addr uint32, b []byte) {
	for i, v := range b {
		p := m.page(addr+uint32(i), true)
		p[(addr+uint32(i))%pageSize] = v
	}
}

// ReadBytes copies out a byte range for debugger memory views. Bytes
// outside every window read as zero with no error; the caller already
// chose the range.
func (m *Memory) ReadBytes(addr, length uint32) []byte {
	out := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		if p := m.page(addr+i, false); p != nil {
			out[i] = p[(addr+i)%pageSize]
		}
	}
	return out
}
