package emulator

// State is the lifecycle of an execution context. Halted and Faulted are
// terminal; Step in either is a no-op.
type State int

const (
	StateLoaded State = iota
	StateRunning
	StateHalted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	}
	return "unknown"
}

// HostIO is the engine's only channel to the outside world. The process
// console, a websocket session and test buffers all implement it.
type HostIO interface {
	WriteStdout(b []byte) error
	ReadLine() (string, error)
}

// Config carries the memory map and collaborators of one execution
// context. Zero values fall back to DefaultConfig.
type Config struct {
	StackTop      uint32 // stack grows down from here
	StackSize     uint32
	GlobalPointer uint32 // initial $gp
	IO            HostIO
}

func DefaultConfig() Config {
	return Config{
		StackTop:      0x80000000,
		StackSize:     0x00100000,
		GlobalPointer: 0x10008000,
	}
}

// RuntimeFault is a terminal execution error with the machine state
// snapshotted at the point of failure.
type RuntimeFault struct {
	PC        uint32
	Registers [32]uint32
	Message   string
}

func (f *RuntimeFault) Error() string {
	return f.Message
}
