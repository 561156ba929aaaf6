package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain the action queue
	PhasePreUpdate               // 1: deliver telemetry events emitted during Input
	PhaseUpdate                  // 2: simulate (package game registers no system here; moves apply during Input)
	PhasePostUpdate              // 3: visibility diffing, enter/leave packets
	PhaseOutput                  // 4: close the tick's timing window (writer goroutines flush outbound queues)
	PhasePersist                 // 5: write-behind batch save
	PhaseCleanup                 // 6: end-of-tick cleanup (no work in package game; ids are released on disconnect)
)

// System is the interface every tick-loop phase implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
