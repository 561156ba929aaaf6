package net

import (
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server accepts TCP connections and wraps each in a Connection. New/dead
// connections are communicated to the tick loop via channels rather than
// shared state, since AcceptLoop runs on its own goroutine.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Connection
	deadCh   chan uint64

	inSize                int
	outSize               int
	maxFramePayload       int
	outboundQueueCapBytes int64
	writeTimeout          time.Duration
	handshakeDeadline     time.Duration

	handshakeLimiter *rate.Limiter // nil when rate limiting is disabled

	log     *zap.Logger
	closeCh chan struct{}
}

// handshakeBurst caps how many handshakes the limiter lets through back to
// back before throttling to the configured per-minute rate; a server that
// just started accepting connections shouldn't stall the first few clients.
const handshakeBurst = 10

func NewServer(bindAddr string, inSize, outSize, maxFramePayload int, outboundQueueCapBytes int64, writeTimeout, handshakeDeadline time.Duration, rateLimit RateLimit, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if rateLimit.Enabled && rateLimit.HandshakesPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rateLimit.HandshakesPerMinute)/60.0), handshakeBurst)
	}
	return &Server{
		listener:              ln,
		newConns:              make(chan *Connection, 64),
		deadCh:                make(chan uint64, 64),
		inSize:                inSize,
		outSize:               outSize,
		maxFramePayload:       maxFramePayload,
		outboundQueueCapBytes: outboundQueueCapBytes,
		writeTimeout:          writeTimeout,
		handshakeDeadline:     handshakeDeadline,
		handshakeLimiter:      limiter,
		log:                   log,
		closeCh:               make(chan struct{}),
	}, nil
}

// RateLimit configures handshake admission. It mirrors
// config.RateLimitConfig without importing the config package, to keep net
// free of a dependency on the rest of the application.
type RateLimit struct {
	Enabled             bool
	HandshakesPerMinute int
}

// AcceptLoop runs in its own goroutine, accepting connections and pushing
// each onto the newConns channel for the tick loop to register. Connections
// that arrive faster than the configured handshake rate are closed
// immediately, before a Connection is even constructed for them.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		if s.handshakeLimiter != nil && !s.handshakeLimiter.Allow() {
			s.log.Warn("handshake rate limit exceeded, rejecting connection", zap.String("ip", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		c := NewConnection(conn, id, s.inSize, s.outSize, s.maxFramePayload, s.outboundQueueCapBytes, s.writeTimeout, s.NotifyDead, s.log)
		c.Start(s.handshakeDeadline)

		s.log.Info("connection accepted", zap.Uint64("conn", id), zap.String("ip", c.IP))

		select {
		case s.newConns <- c:
		default:
			s.log.Warn("new-connection queue full, rejecting connection")
			c.Close()
		}
	}
}

// NewConnections returns the channel of newly accepted connections.
func (s *Server) NewConnections() <-chan *Connection {
	return s.newConns
}

// NotifyDead reports a dead connection's id to the tick loop.
func (s *Server) NotifyDead(connID uint64) {
	select {
	case s.deadCh <- connID:
	default:
	}
}

// DeadConnections returns the channel of dead connection ids.
func (s *Server) DeadConnections() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
