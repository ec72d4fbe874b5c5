package emulator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectDebug(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(DebugSessionHandler))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDebugSessionRoundTrip(t *testing.T) {
	assert := assert.New(t)
	conn := connectDebug(t)

	require.NoError(t, conn.WriteJSON(debugCommand{
		Type: "load",
		Source: `
		.text
			addi $t0, $zero, 5
			addi $v0, $zero, 10
			syscall
		`,
	}))

	var loaded debugEvent
	require.NoError(t, conn.ReadJSON(&loaded))
	require.Equal(t, "loaded", loaded.Type)
	assert.Equal(uint32(0x00400000), loaded.Entry)

	require.NoError(t, conn.WriteJSON(debugCommand{Type: "step", Count: 8}))
	var state debugEvent
	require.NoError(t, conn.ReadJSON(&state))
	require.Equal(t, "state", state.Type)
	assert.Equal("halted", state.State)
	assert.Equal(uint64(3), state.Steps)

	require.NoError(t, conn.WriteJSON(debugCommand{Type: "registers"}))
	var regs debugEvent
	require.NoError(t, conn.ReadJSON(&regs))
	require.Equal(t, "registers", regs.Type)
	require.Len(t, regs.Registers, 32)
	assert.Equal(uint32(5), regs.Registers[8])
}

func TestDebugSessionLoadErrorsReportDiagnostics(t *testing.T) {
	conn := connectDebug(t)

	require.NoError(t, conn.WriteJSON(debugCommand{
		Type:   "load",
		Source: "frobnicate $t0",
	}))

	var event debugEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "diagnostics", event.Type)
	assert.NotEmpty(t, event.Diagnostics)
}

// A step worker blocked in a read syscall holds the context lock. Snapshot
// commands sent meanwhile must not wedge the reader loop, or the stdin line
// that would unblock the worker could never arrive.
func TestDebugSessionCommandsWhileBlockedOnInput(t *testing.T) {
	assert := assert.New(t)
	conn := connectDebug(t)

	require.NoError(t, conn.WriteJSON(debugCommand{
		Type: "load",
		Source: `
		.text
			addi $v0, $zero, 5
			syscall
			addu $t0, $v0, $zero
			addi $v0, $zero, 10
			syscall
		`,
	}))
	var loaded debugEvent
	require.NoError(t, conn.ReadJSON(&loaded))
	require.Equal(t, "loaded", loaded.Type)

	require.NoError(t, conn.WriteJSON(debugCommand{Type: "step", Count: 16}))
	require.NoError(t, conn.WriteJSON(debugCommand{Type: "registers"}))
	require.NoError(t, conn.WriteJSON(debugCommand{Type: "stdin", Text: "42"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var state debugEvent
	for i := 0; i < 8; i++ {
		var event debugEvent
		require.NoError(t, conn.ReadJSON(&event), "session wedged waiting for input")
		if event.Type == "registers" || event.Type == "error" {
			// registers raced ahead of the worker, or reported busy
			continue
		}
		require.Equal(t, "state", event.Type)
		state = event
		break
	}
	assert.Equal("halted", state.State)
	assert.Equal(uint64(5), state.Steps)

	require.NoError(t, conn.WriteJSON(debugCommand{Type: "registers"}))
	var regs debugEvent
	require.NoError(t, conn.ReadJSON(&regs))
	require.Equal(t, "registers", regs.Type)
	assert.Equal(uint32(42), regs.Registers[8])
}

func TestDebugSessionReadLineUnwindsOnClose(t *testing.T) {
	s := &debugSession{stdin: make(chan string)}
	close(s.stdin)

	_, err := s.ReadLine()
	require.Error(t, err)
}

func TestDebugSessionStepWithoutProgram(t *testing.T) {
	conn := connectDebug(t)

	require.NoError(t, conn.WriteJSON(debugCommand{Type: "step"}))

	var event debugEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "error", event.Type)
	assert.Contains(t, event.Text, "no program loaded")
}
