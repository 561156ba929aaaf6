package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState is a connection's protocol phase.
type SessionState int

const (
	StateHandshaking SessionState = iota
	StateActive
	StateClosing
)

func (s SessionState) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateActive:
		return "Active"
	case StateClosing:
		return "Closing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for opcode handlers. The connection
// is passed as an opaque interface to avoid an import cycle between packet
// and net.
type HandlerFunc func(conn any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps opcodes to handlers gated by session state.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given states.
func (reg *Registry) Register(opcode byte, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{fn: fn, allowedStates: allowed}
}

// ErrUnknownOpcode is returned by Dispatch for an opcode with no registered
// handler. The caller should close the connection with reason UnknownOpcode.
type ErrUnknownOpcode struct{ Opcode byte }

func (e ErrUnknownOpcode) Error() string { return fmt.Sprintf("packet: unknown opcode 0x%02x", e.Opcode) }

// Dispatch finds the handler for the opcode in data[0], checks it against
// state, and invokes it under panic recovery so one malformed packet can't
// take down the tick loop.
func (reg *Registry) Dispatch(conn any, state SessionState, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("packet: empty payload")
	}
	opcode := data[0]

	entry, ok := reg.handlers[opcode]
	if !ok {
		return ErrUnknownOpcode{Opcode: opcode}
	}
	if !entry.allowedStates[state] {
		reg.log.Warn("opcode not allowed in current state",
			zap.Uint8("opcode", opcode),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("packet: opcode 0x%02x not allowed in state %s", opcode, state)
	}

	return reg.safeCall(entry.fn, conn, NewReader(data), opcode)
}

// safeCall executes a handler with panic recovery.
func (reg *Registry) safeCall(fn HandlerFunc, conn any, r *Reader, opcode byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint8("opcode", opcode),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("packet: handler panic for opcode 0x%02x: %v", opcode, rec)
		}
	}()
	fn(conn, r)
	return nil
}
