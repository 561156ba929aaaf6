package packet

// Client-to-server opcodes.
const (
	COpMove     byte = 0x01 // {dir:u8, facing:u8}
	COpTurn     byte = 0x02 // {facing:u8}
	COpInteract byte = 0x04 // {}
	COpAttack   byte = 0x40 // {}
)

// Server-to-client opcodes.
const (
	SOpWelcome             byte = 0x10 // {id:u64, x:i16, y:i16, facing:u8}
	SOpPositionCorrection  byte = 0x11 // {x:i16, y:i16, facing:u8}
	SOpFacingCorrection    byte = 0x12 // {facing:u8}
	SOpBatchSpatial        byte = 0x25 // {count:u8, entries:[id:u64, x:i16, y:i16, facing:u8]}
	SOpPlayerLeft          byte = 0x26 // {id:u64}
	SOpHandshakeAccepted   byte = 0xF0 // {}
	SOpServerShutdown      byte = 0xF2 // {reason:u8}
)

// ShutdownReason values for SOpServerShutdown.
const (
	ShutdownReasonMaintenance byte = 0
	ShutdownReasonRestart     byte = 1
)
