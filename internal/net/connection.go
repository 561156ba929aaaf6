package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridkeep/server/internal/net/packet"
	"go.uber.org/zap"
)

// Connection represents a single client socket. Network I/O runs in
// dedicated goroutines; game state is touched only from the tick loop,
// which reads frames off InQueue and writes responses onto OutQueue.
type Connection struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // tick loop reads frames from here
	OutQueue chan []byte // writer goroutine reads from here

	IP          string
	AccountName string
	Tag         byte

	BytesIn  atomic.Int64
	BytesOut atomic.Int64

	outQueuedBytes        atomic.Int64 // sum of payload lengths sitting in OutQueue or being written
	outboundQueueCapBytes int64        // hard cap on outQueuedBytes; 0 disables the check

	maxFramePayload int
	writeTimeout    time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	onDead func(id uint64) // notifies the server this connection is gone

	log *zap.Logger
}

func NewConnection(conn net.Conn, id uint64, inSize, outSize, maxFramePayload int, outboundQueueCapBytes int64, writeTimeout time.Duration, onDead func(id uint64), log *zap.Logger) *Connection {
	c := &Connection{
		ID:                    id,
		conn:                  conn,
		InQueue:               make(chan []byte, inSize),
		OutQueue:              make(chan []byte, outSize),
		IP:                    conn.RemoteAddr().String(),
		maxFramePayload:       maxFramePayload,
		outboundQueueCapBytes: outboundQueueCapBytes,
		writeTimeout:          writeTimeout,
		closeCh:               make(chan struct{}),
		onDead:                onDead,
		log:                   log.With(zap.Uint64("conn", id)),
	}
	c.state.Store(int32(packet.StateHandshaking))
	return c
}

func (c *Connection) State() packet.SessionState {
	return packet.SessionState(c.state.Load())
}

func (c *Connection) SetState(st packet.SessionState) {
	c.state.Store(int32(st))
}

// Start launches the reader and writer goroutines, and arms a timer that
// closes the connection if it is still Handshaking after deadline.
func (c *Connection) Start(handshakeDeadline time.Duration) {
	go c.readLoop()
	go c.writeLoop()
	go func() {
		t := time.NewTimer(handshakeDeadline)
		defer t.Stop()
		select {
		case <-t.C:
			if c.State() == packet.StateHandshaking {
				c.log.Info("closing connection: handshake deadline exceeded")
				c.Close()
			}
		case <-c.closeCh:
		}
	}()
}

// Send queues an already-built payload for sending. Non-blocking: a full
// OutQueue, or one already holding outboundQueueCapBytes worth of payloads,
// means a slow reader on the other end, and the connection is dropped
// rather than let the outbound queue grow without bound.
func (c *Connection) Send(payload []byte) {
	if c.closed.Load() {
		return
	}
	if c.outboundQueueCapBytes > 0 && c.outQueuedBytes.Load()+int64(len(payload)) > c.outboundQueueCapBytes {
		c.log.Warn("closing connection: outbound queue byte cap exceeded",
			zap.Int64("queued_bytes", c.outQueuedBytes.Load()), zap.Int64("cap_bytes", c.outboundQueueCapBytes))
		c.Close()
		return
	}
	select {
	case c.OutQueue <- payload:
		c.outQueuedBytes.Add(int64(len(payload)))
	default:
		c.log.Warn("closing connection: outbound queue full")
		c.Close()
	}
}

// Close shuts the connection down exactly once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.SetState(packet.StateClosing)
		close(c.closeCh)
		c.conn.Close()
		if c.onDead != nil {
			c.onDead(c.ID)
		}
	})
}

func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// HasPendingOutbound reports whether writeLoop still has bytes left to
// flush to the wire. Used during shutdown to wait for the final
// ServerShutdown broadcast to actually reach the client.
func (c *Connection) HasPendingOutbound() bool {
	return len(c.OutQueue) > 0 || c.outQueuedBytes.Load() > 0
}

// readLoop reads frames off the wire and pushes them onto InQueue for the
// tick loop to consume.
func (c *Connection) readLoop() {
	defer c.Close()

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		payload, err := ReadFrame(c.conn, c.maxFramePayload)
		if err != nil {
			if !c.closed.Load() {
				c.log.Debug("read error", zap.Error(err))
			}
			return
		}
		c.BytesIn.Add(int64(len(payload) + 4))

		select {
		case c.InQueue <- payload:
		case <-c.closeCh:
			return
		}
	}
}

// writeLoop drains OutQueue and writes framed payloads to the wire.
func (c *Connection) writeLoop() {
	defer c.Close()

	for {
		select {
		case payload := <-c.OutQueue:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := WriteFrame(c.conn, payload); err != nil {
				if !c.closed.Load() {
					c.log.Debug("write error", zap.Error(err))
				}
				return
			}
			c.outQueuedBytes.Add(-int64(len(payload)))
			c.BytesOut.Add(int64(len(payload) + 4))
		case <-c.closeCh:
			return
		}
	}
}
