package emulator

// RegisterFile holds the 32 general purpose registers plus PC, HI and LO.
// The $zero write mask lives here so no execution path can forget it.
type RegisterFile struct {
	gpr [32]uint32
	pc  uint32
	hi  uint32
	lo  uint32
}

func (r *RegisterFile) Read(index uint32) uint32 {
	return r.gpr[index&0x1f]
}

func (r *RegisterFile) ReadSigned(index uint32) int32 {
	return int32(r.gpr[index&0x1f])
}

// Write stores a value; writes to register 0 are discarded.
func (r *RegisterFile) Write(index, value uint32) {
	if index&0x1f == 0 {
		return
	}
	r.gpr[index&0x1f] = value
}

func (r *RegisterFile) PC() uint32      { return r.pc }
func (r *RegisterFile) SetPC(pc uint32) { r.pc = pc }
func (r *RegisterFile) HI() uint32      { return r.hi }
func (r *RegisterFile) LO() uint32      { return r.lo }
func (r *RegisterFile) SetHI(v uint32)  { r.hi = v }
func (r *RegisterFile) SetLO(v uint32)  { r.lo = v }

// Snapshot copies the general purpose registers for faults and debuggers.
func (r *RegisterFile) Snapshot() [32]uint32 {
	return r.gpr
}

// reset zeroes everything and applies the conventional startup values.
func (r *RegisterFile) reset(entry, stackTop, globalPointer uint32) {
	r.gpr = [32]uint32{}
	r.gpr[28] = globalPointer
	r.gpr[29] = stackTop
	r.pc = entry
	r.hi = 0
	r.lo = 0
}
