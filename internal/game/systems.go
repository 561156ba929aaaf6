package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/core/event"
	"github.com/gridkeep/server/internal/core/system"
	"github.com/gridkeep/server/internal/metrics"
	"github.com/gridkeep/server/internal/net/packet"
	"github.com/gridkeep/server/internal/world"
)

// RegisterSystems wires the tick systems into runner, which executes them in
// phase order: Input, PreUpdate, PostUpdate, Output, Persist, Cleanup. No
// system is registered for the Update phase; moves are applied by the
// opcode handlers during Input.
func (g *Game) RegisterSystems(runner *system.Runner) {
	runner.Register(&inputSystem{g})
	runner.Register(&eventDispatchSystem{g})
	runner.Register(&visibilitySystem{g})
	runner.Register(&outputSystem{g})
	runner.Register(&persistSystem{g})
	runner.Register(&cleanupSystem{g})
}

// inputSystem accepts new connections, processes handshakes, and dispatches
// one tick's worth of queued frames per active connection.
type inputSystem struct{ g *Game }

func (s *inputSystem) Phase() system.Phase { return system.PhaseInput }

func (s *inputSystem) Update(dt time.Duration) {
	g := s.g
	g.tickStart = time.Now()

acceptLoop:
	for {
		select {
		case c := <-g.server.NewConnections():
			g.conns[c.ID] = c
		default:
			break acceptLoop
		}
	}

deadLoop:
	for {
		select {
		case connID := <-g.server.DeadConnections():
			g.actions.Post(Action{Kind: ActionDisconnect, ConnID: connID})
		default:
			break deadLoop
		}
	}

	for connID, c := range g.conns {
		switch c.State() {
		case packet.StateHandshaking:
			select {
			case payload := <-c.InQueue:
				g.processHandshake(c, payload)
			default:
			}
		case packet.StateActive:
		drainFrames:
			for i := 0; i < g.cfg.Network.MaxPacketsPerTick; i++ {
				select {
				case frame := <-c.InQueue:
					if err := g.registry.Dispatch(c, packet.StateActive, frame); err != nil {
						g.log.Debug("dispatch failed, closing connection",
							zap.Uint64("conn", connID), zap.Error(err))
						c.Close()
					}
				default:
					break drainFrames
				}
			}
		case packet.StateClosing:
			// already queued for Cleanup via DeadConnections; nothing to do.
		}
	}

	for _, a := range g.actions.DrainUpTo(256) {
		g.handleAction(a)
	}
}

// eventDispatchSystem delivers the telemetry events emitted since the
// previous dispatch (this tick's Input phase) to subscribers.
type eventDispatchSystem struct{ g *Game }

func (s *eventDispatchSystem) Phase() system.Phase { return system.PhasePreUpdate }

func (s *eventDispatchSystem) Update(dt time.Duration) {
	s.g.bus.SwapBuffers()
	s.g.bus.DispatchAll()
}

// visibilitySystem recomputes every player's known set once per tick and
// sends the resulting enter/leave/position-update packets. Running this for
// every player rather than only the ones that moved is what catches the
// case of a stationary player whose neighbor wandered into range.
type visibilitySystem struct{ g *Game }

func (s *visibilitySystem) Phase() system.Phase { return system.PhasePostUpdate }

func (s *visibilitySystem) Update(dt time.Duration) {
	g := s.g
	moved := g.movedThisTick

	g.World.ForEachPlayer(func(p *world.Player) {
		entered, left := g.World.UpdateVisibility(p.ID)

		for _, id := range left {
			g.sendTo(p.ConnID, packet.EncodePlayerLeft(uint64(id)))
		}

		var entries []packet.SpatialEntry
		for _, id := range entered {
			if mp, ok := g.World.GetPlayer(id); ok {
				entries = append(entries, packet.SpatialEntry{ID: uint64(id), X: int16(mp.X), Y: int16(mp.Y), Facing: byte(mp.Facing)})
			}
		}
		for _, id := range moved {
			if id == p.ID || containsID(entered, id) || !g.World.Knows(p.ID, id) {
				continue
			}
			if mp, ok := g.World.GetPlayer(id); ok {
				entries = append(entries, packet.SpatialEntry{ID: uint64(id), X: int16(mp.X), Y: int16(mp.Y), Facing: byte(mp.Facing)})
			}
		}
		for _, chunk := range chunkSpatialEntries(entries, g.cfg.Network.BatchSpatialMaxEntries) {
			g.sendTo(p.ConnID, packet.EncodeBatchSpatial(chunk))
		}
	})

	g.movedThisTick = g.movedThisTick[:0]

	// Scripting hooks fire only after every observer's broadcast for this
	// tick's moves has been built and queued above, per the hook-ordering
	// contract: game state visible to a script must match what clients are
	// about to see.
	for _, id := range g.pendingMoveHooks {
		if mp, ok := g.World.GetPlayer(id); ok {
			g.scripting.OnPlayerMoved(playerIDString(id), mp.X, mp.Y, byte(mp.Facing))
		}
	}
	g.pendingMoveHooks = g.pendingMoveHooks[:0]
}

// chunkSpatialEntries splits entries into groups of at most maxSize, falling
// back to the wire-format ceiling if maxSize is unconfigured or exceeds it.
// Coalescing many moves into one packet per connection per tick is the
// point of BatchSpatial; splitting keeps a busy tick from overrunning it.
func chunkSpatialEntries(entries []packet.SpatialEntry, maxSize int) [][]packet.SpatialEntry {
	if maxSize <= 0 || maxSize > packet.MaxBatchSpatialEntries {
		maxSize = packet.MaxBatchSpatialEntries
	}
	if len(entries) == 0 {
		return nil
	}
	chunks := make([][]packet.SpatialEntry, 0, (len(entries)+maxSize-1)/maxSize)
	for i := 0; i < len(entries); i += maxSize {
		end := i + maxSize
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[i:end])
	}
	return chunks
}

func containsID(ids []world.PlayerID, id world.PlayerID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// outputSystem has no framing work of its own — writeLoop drains each
// connection's OutQueue independently — but it closes out the tick's
// timing window for the metrics report.
type outputSystem struct{ g *Game }

func (s *outputSystem) Phase() system.Phase { return system.PhaseOutput }

func (s *outputSystem) Update(dt time.Duration) {
	s.g.reportMetrics(time.Since(s.g.tickStart))
}

// persistSystem accumulates dirty players every tick and flushes them in one
// batch every PersistIntervalTicks, bounding write amplification under load.
type persistSystem struct{ g *Game }

func (s *persistSystem) Phase() system.Phase { return system.PhasePersist }

func (s *persistSystem) Update(dt time.Duration) {
	g := s.g
	g.pendingSaves = append(g.pendingSaves, g.World.DrainDirtyPlayers()...)

	g.persistTickCounter++
	if g.persistTickCounter < g.cfg.Database.PersistIntervalTicks {
		return
	}
	g.persistTickCounter = 0
	if len(g.pendingSaves) == 0 {
		return
	}

	ctx, cancel := g.persistCtx()
	g.players.SaveBatch(ctx, g.pendingSaves)
	cancel()
	g.pendingSaves = g.pendingSaves[:0]
}

// cleanupSystem occupies the Cleanup phase and does no work: ids of players
// whose connection is gone are released by disconnectConn during Input.
type cleanupSystem struct{ g *Game }

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(dt time.Duration) {}

// handleAction processes one queued cross-cutting action. Called from the
// Input phase, after per-connection frame dispatch, so a disconnect this
// tick still sees the connection's final frames processed first.
func (g *Game) handleAction(a Action) {
	switch a.Kind {
	case ActionDisconnect:
		g.disconnectConn(a.ConnID)
	case ActionConsoleCommand:
		g.runConsoleCommand(a.ConsoleCmd)
	}
}

func (g *Game) disconnectConn(connID uint64) {
	delete(g.conns, connID)

	p, ok := g.World.GetPlayerByConn(connID)
	if !ok {
		return
	}
	observerCount := 0
	g.World.RemovePlayer(p.ID, func(observer world.PlayerID) {
		observerCount++
		if op, ok := g.World.GetPlayer(observer); ok {
			g.sendTo(op.ConnID, packet.EncodePlayerLeft(uint64(p.ID)))
		}
	})
	event.Emit(g.bus, event.PlayerLeftWorld{PlayerID: uint64(p.ID), ObserverCount: observerCount})
	g.log.Info("player disconnected", zap.String("account", p.AccountName), zap.Int("observers_notified", observerCount))
}

func (g *Game) runConsoleCommand(line string) {
	switch line {
	case CmdStop, CmdExit:
		g.shutdownRequested = true
		g.log.Info("shutdown requested via console")
	case CmdReloadScripts:
		if err := g.scripting.Reload(); err != nil {
			g.log.Error("script reload failed", zap.Error(err))
		} else {
			g.log.Info("scripts reloaded")
		}
	case CmdStats:
		snap := metrics.Read()
		g.log.Info("stats",
			zap.Float64("tick_rate", snap.TickRate),
			zap.Float64("tick_duration_seconds", snap.TickDurationSeconds),
			zap.Int64("connected_players", snap.ConnectedPlayers),
		)
	case CmdSpawnBots, CmdRemoveBots:
		g.log.Warn("bot commands are handled by the load-test harness, not the server console", zap.String("cmd", line))
	default:
		g.log.Warn("unrecognized console command", zap.String("cmd", line))
	}
}
