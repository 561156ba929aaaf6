// Package game wires the network, world, scripting, and persistence
// collaborators into the fixed-rate tick loop.
package game

import "go.uber.org/zap"

// ActionKind tags the union of things that arrive on the shared action
// queue, as opposed to a per-connection frame (handled directly by the
// input phase via each Connection's own InQueue).
type ActionKind int

const (
	ActionDisconnect ActionKind = iota
	ActionConsoleCommand
)

// Recognized console command lines. Anything else reaching runConsoleCommand
// is logged and ignored.
const (
	CmdStop          = "stop"
	CmdReloadScripts = "reload-scripts"
	CmdStats         = "stats"
	CmdSpawnBots     = "spawn-bots"
	CmdRemoveBots    = "remove-bots"
	CmdExit          = "exit"
)

// Action is a single unit of work crossing from a network-accept or
// console goroutine into the tick loop.
type Action struct {
	Kind       ActionKind
	ConnID     uint64 // ActionDisconnect
	ConsoleCmd string // ActionConsoleCommand
}

// ActionQueue is the bounded multi-producer/single-consumer channel feeding
// the tick loop's Input phase. A full queue signals the server is
// overloaded: Post reports false and the caller drops the work rather than
// block its own goroutine indefinitely.
type ActionQueue struct {
	ch  chan Action
	log *zap.Logger
}

func NewActionQueue(capacity int, log *zap.Logger) *ActionQueue {
	return &ActionQueue{ch: make(chan Action, capacity), log: log}
}

// Post enqueues a onto the queue. Returns false if the queue is full.
func (q *ActionQueue) Post(a Action) bool {
	select {
	case q.ch <- a:
		return true
	default:
		q.log.Warn("action queue overloaded, dropping action", zap.Int("kind", int(a.Kind)))
		return false
	}
}

// DrainUpTo pulls at most n queued actions without blocking, for the Input
// phase to process once per tick.
func (q *ActionQueue) DrainUpTo(n int) []Action {
	out := make([]Action, 0, n)
	for i := 0; i < n; i++ {
		select {
		case a := <-q.ch:
			out = append(out, a)
		default:
			return out
		}
	}
	return out
}

// DrainAll pulls every action currently queued without blocking, regardless
// of count. Used once during shutdown so a disconnect or console command
// queued on the final tick isn't silently dropped.
func (q *ActionQueue) DrainAll() []Action {
	var out []Action
	for {
		select {
		case a := <-q.ch:
			out = append(out, a)
		default:
			return out
		}
	}
}
