package packet

// SpatialEntry is one player's state inside a BatchSpatial packet.
type SpatialEntry struct {
	ID     uint64
	X, Y   int16
	Facing byte
}

// EncodeWelcome builds the Welcome payload sent once, right after the
// handshake is accepted and a spawn point has been chosen.
func EncodeWelcome(id uint64, x, y int16, facing byte) []byte {
	w := NewWriterWithOpcode(SOpWelcome)
	w.WriteU64(id)
	w.WriteI16(x)
	w.WriteI16(y)
	w.WriteC(facing)
	return w.Bytes()
}

// EncodePositionCorrection tells a client its authoritative position after
// a move was rejected.
func EncodePositionCorrection(x, y int16, facing byte) []byte {
	w := NewWriterWithOpcode(SOpPositionCorrection)
	w.WriteI16(x)
	w.WriteI16(y)
	w.WriteC(facing)
	return w.Bytes()
}

// EncodeFacingCorrection tells a client its authoritative facing only.
func EncodeFacingCorrection(facing byte) []byte {
	w := NewWriterWithOpcode(SOpFacingCorrection)
	w.WriteC(facing)
	return w.Bytes()
}

// MaxBatchSpatialEntries bounds a single BatchSpatial packet's entry count;
// count is a single byte on the wire, so 255 is the hard ceiling, but
// callers typically coalesce in smaller batches (config BatchSpatialMaxEntries).
const MaxBatchSpatialEntries = 255

// EncodeBatchSpatial builds a single BatchSpatial payload from up to
// MaxBatchSpatialEntries entries. Callers with more entries than that
// split across multiple packets.
func EncodeBatchSpatial(entries []SpatialEntry) []byte {
	if len(entries) > MaxBatchSpatialEntries {
		entries = entries[:MaxBatchSpatialEntries]
	}
	w := NewWriterWithOpcode(SOpBatchSpatial)
	w.WriteC(byte(len(entries)))
	for _, e := range entries {
		w.WriteU64(e.ID)
		w.WriteI16(e.X)
		w.WriteI16(e.Y)
		w.WriteC(e.Facing)
	}
	return w.Bytes()
}

// EncodePlayerLeft tells a client that id has left its view.
func EncodePlayerLeft(id uint64) []byte {
	w := NewWriterWithOpcode(SOpPlayerLeft)
	w.WriteU64(id)
	return w.Bytes()
}

// EncodeHandshakeAccepted is sent immediately after a valid handshake
// envelope is parsed, before Welcome.
func EncodeHandshakeAccepted() []byte {
	return NewWriterWithOpcode(SOpHandshakeAccepted).Bytes()
}

// EncodeServerShutdown announces an impending shutdown with a reason code.
func EncodeServerShutdown(reason byte) []byte {
	w := NewWriterWithOpcode(SOpServerShutdown)
	w.WriteC(reason)
	return w.Bytes()
}
