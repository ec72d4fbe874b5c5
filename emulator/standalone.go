package emulator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/asmsuite/MIPS-Emulator/assembler"
)

// The engine normally lives behind an editor frontend, but for development
// there needs to be a way to drive it directly. This file hosts a websocket
// debug session: each connection gets its own context and steps it with
// JSON commands. Running to completion is repeated stepping, which is the
// client's job.

type debugCommand struct {
	Type    string `json:"type"`
	Source  string `json:"source,omitempty"`
	Count   uint64 `json:"count,omitempty"`
	Address uint32 `json:"address,omitempty"`
	Length  uint32 `json:"length,omitempty"`
	Data    string `json:"data,omitempty"` // base64 for poke
	Text    string `json:"text,omitempty"` // stdin line
}

type debugEvent struct {
	Type        string                 `json:"type"`
	State       string                 `json:"state,omitempty"`
	PC          uint32                 `json:"pc,omitempty"`
	Entry       uint32                 `json:"entry,omitempty"`
	Steps       uint64                 `json:"steps,omitempty"`
	Fault       string                 `json:"fault,omitempty"`
	Registers   []uint32               `json:"registers,omitempty"`
	HI          uint32                 `json:"hi,omitempty"`
	LO          uint32                 `json:"lo,omitempty"`
	Address     uint32                 `json:"address,omitempty"`
	Data        string                 `json:"data,omitempty"`
	Text        string                 `json:"text,omitempty"`
	Diagnostics []assembler.Diagnostic `json:"diagnostics,omitempty"`
}

// debugSession serializes context access between the reader loop and step
// workers. A step worker holds ctxMu for its whole run, which can block
// inside a read syscall waiting for stdin. The reader loop must stay free to
// deliver that stdin line, so it never blocks on ctxMu: snapshot commands
// try the lock and report busy instead.
type debugSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	ctxMu   sync.Mutex
	ctx     *Context
	stdin   chan string
}

func (s *debugSession) send(event debugEvent) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(event); err != nil {
		log.Println("debug session write:", err)
	}
}

// WriteStdout and ReadLine make the session the context's HostIO.
func (s *debugSession) WriteStdout(b []byte) error {
	s.send(debugEvent{Type: "stdout", Text: string(b)})
	return nil
}

func (s *debugSession) ReadLine() (string, error) {
	line, ok := <-s.stdin
	if !ok {
		return "", errors.New("debug session closed")
	}
	return line, nil
}

func (s *debugSession) stateEvent() debugEvent {
	event := debugEvent{
		Type:  "state",
		State: s.ctx.State().String(),
		PC:    s.ctx.PC(),
		Steps: s.ctx.StepCount(),
	}
	if fault := s.ctx.Fault(); fault != nil {
		event.Fault = fault.Message
	}
	return event
}

func (s *debugSession) handle(cmd debugCommand) {
	switch cmd.Type {
	case "load":
		result := assembler.AssembleDefault(cmd.Source)
		if result.HasErrors() {
			s.send(debugEvent{Type: "diagnostics", Diagnostics: result.Diagnostics})
			return
		}
		if !s.tryLock() {
			return
		}
		config := DefaultConfig()
		config.IO = s
		s.ctx = NewContext(config)
		s.ctx.Load(result.Program)
		s.ctxMu.Unlock()
		s.send(debugEvent{Type: "loaded", Entry: result.Program.Entry})

	case "step":
		if !s.requireContext() {
			return
		}
		count := cmd.Count
		if count == 0 {
			count = 1
		}
		// Stepping can block on stdin, so it runs off the reader loop.
		go func() {
			s.ctxMu.Lock()
			defer s.ctxMu.Unlock()
			for i := uint64(0); i < count; i++ {
				state := s.ctx.Step()
				if state == StateHalted || state == StateFaulted {
					break
				}
			}
			s.send(s.stateEvent())
		}()

	case "registers":
		if !s.requireContext() || !s.tryLock() {
			return
		}
		regs := s.ctx.Registers()
		event := debugEvent{
			Type:      "registers",
			Registers: regs[:],
			PC:        s.ctx.PC(),
			HI:        s.ctx.HI(),
			LO:        s.ctx.LO(),
		}
		s.ctxMu.Unlock()
		s.send(event)

	case "memory":
		if !s.requireContext() || !s.tryLock() {
			return
		}
		data := s.ctx.ReadMemory(cmd.Address, cmd.Length)
		s.ctxMu.Unlock()
		s.send(debugEvent{
			Type:    "memory",
			Address: cmd.Address,
			Data:    base64.StdEncoding.EncodeToString(data),
		})

	case "poke":
		if !s.requireContext() {
			return
		}
		b, err := base64.StdEncoding.DecodeString(cmd.Data)
		if err != nil {
			s.send(debugEvent{Type: "error", Text: "poke data is not valid base64"})
			return
		}
		if !s.tryLock() {
			return
		}
		err = s.ctx.WriteMemory(cmd.Address, b)
		s.ctxMu.Unlock()
		if err != nil {
			s.send(debugEvent{Type: "error", Text: err.Error()})
			return
		}
		s.send(debugEvent{Type: "poked", Address: cmd.Address})

	case "reset":
		if !s.requireContext() || !s.tryLock() {
			return
		}
		s.ctx.Reset()
		s.ctxMu.Unlock()
		s.send(s.stateEvent())

	case "stdin":
		select {
		case s.stdin <- cmd.Text:
		default:
			s.send(debugEvent{Type: "error", Text: "stdin buffer full"})
		}

	default:
		s.send(debugEvent{Type: "error", Text: "unknown command: " + cmd.Type})
	}
}

func (s *debugSession) requireContext() bool {
	if s.ctx == nil {
		s.send(debugEvent{Type: "error", Text: "no program loaded"})
		return false
	}
	return true
}

// tryLock acquires ctxMu without blocking the reader loop. A held lock means
// a step worker is running, usually waiting on stdin.
func (s *debugSession) tryLock() bool {
	if !s.ctxMu.TryLock() {
		s.send(debugEvent{Type: "error", Text: "busy: a step is in progress"})
		return false
	}
	return true
}

var debugUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// DebugSessionHandler upgrades the request to a websocket and serves one
// debug session until the connection closes.
func DebugSessionHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := debugUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	session := &debugSession{
		conn:  conn,
		stdin: make(chan string, 16),
	}
	// A step worker blocked on stdin must unwind when the connection drops.
	defer close(session.stdin)

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			log.Println("debug session read:", err)
			return
		}
		var cmd debugCommand
		if err := json.Unmarshal(messageBytes, &cmd); err != nil {
			session.send(debugEvent{Type: "error", Text: "bad command: " + err.Error()})
			continue
		}
		session.handle(cmd)
	}
}

// RunDebugServer serves websocket debug sessions until the process exits.
func RunDebugServer(listenAddr string) error {
	http.HandleFunc("/ws", DebugSessionHandler)
	log.Printf("debug server listening on %s", listenAddr)
	return http.ListenAndServe(listenAddr, nil)
}
