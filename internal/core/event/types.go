package event

// Telemetry-only event types. Nothing in the tick/broadcast path depends on
// when these arrive — Bus delivers them only after the next SwapBuffers (in
// the game loop, the PreUpdate phase that follows the Input phase emitting
// them), and that is fine here because the only subscribers are logging.

type PlayerJoined struct {
	PlayerID uint64
	X, Y     int32
}

type PlayerLeftWorld struct {
	PlayerID       uint64
	ObserverCount  int // size of known_by(id) at the moment of removal
}

type PlayerMoved struct {
	PlayerID uint64
	X, Y     int32
	Facing   byte
}
