package packet

import (
	"encoding/binary"
	"fmt"
)

// HandshakeSize is the fixed length of the handshake envelope, sent as a
// single frame's payload before opcode dispatch begins.
const HandshakeSize = 12

// ProtocolVersion is the only protocol_version this server accepts.
const ProtocolVersion = 1

var handshakeMagic = [4]byte{'G', 'K', 'P', 'K'}

// Handshake is the decoded form of the 12-byte envelope:
// [4B magic "GKPK"][2B protocol_version][1B tag][1B reserved][4B account_token].
type Handshake struct {
	ProtocolVersion uint16
	Tag             byte // 0=normal, 1=bot
	AccountToken    uint32
}

// Bot reports whether the connecting client identified itself as a bot.
func (h Handshake) Bot() bool { return h.Tag == 1 }

// ParseHandshake decodes and validates a handshake envelope. A magic
// mismatch or unsupported protocol_version is a protocol error — the
// caller should close the connection with reason ProtocolError.
func ParseHandshake(payload []byte) (Handshake, error) {
	if len(payload) != HandshakeSize {
		return Handshake{}, fmt.Errorf("packet: handshake payload is %d bytes, want %d", len(payload), HandshakeSize)
	}
	if payload[0] != handshakeMagic[0] || payload[1] != handshakeMagic[1] ||
		payload[2] != handshakeMagic[2] || payload[3] != handshakeMagic[3] {
		return Handshake{}, fmt.Errorf("packet: bad handshake magic")
	}
	version := binary.BigEndian.Uint16(payload[4:6])
	if version != ProtocolVersion {
		return Handshake{}, fmt.Errorf("packet: unsupported protocol version %d", version)
	}
	return Handshake{
		ProtocolVersion: version,
		Tag:             payload[6],
		AccountToken:    binary.BigEndian.Uint32(payload[8:12]),
	}, nil
}

// EncodeHandshake is used only by the bot load-test harness to build an
// outgoing handshake frame's payload.
func EncodeHandshake(tag byte, accountToken uint32) []byte {
	buf := make([]byte, HandshakeSize)
	copy(buf[0:4], handshakeMagic[:])
	binary.BigEndian.PutUint16(buf[4:6], ProtocolVersion)
	buf[6] = tag
	binary.BigEndian.PutUint32(buf[8:12], accountToken)
	return buf
}
