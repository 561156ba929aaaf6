package game

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/config"
	"github.com/gridkeep/server/internal/core/event"
	"github.com/gridkeep/server/internal/metrics"
	netpkg "github.com/gridkeep/server/internal/net"
	"github.com/gridkeep/server/internal/net/packet"
	"github.com/gridkeep/server/internal/persist"
	"github.com/gridkeep/server/internal/scripting"
	"github.com/gridkeep/server/internal/world"
)

// Game owns every collaborator the tick loop touches and is only ever
// mutated from the tick goroutine, with one exception: Actions and
// Connections arrive from other goroutines strictly through channels.
type Game struct {
	cfg *config.Config
	log *zap.Logger

	World    *world.World
	server   *netpkg.Server
	actions  *ActionQueue
	registry *packet.Registry

	accounts  *persist.AccountRepo
	players   *persist.PlayerRepo
	scripting *scripting.Engine
	bus       *event.Bus

	conns map[uint64]*netpkg.Connection // connID -> connection, tick-thread only

	movedThisTick    []world.PlayerID // players whose position or facing changed this tick
	pendingMoveHooks []world.PlayerID // players awaiting an OnPlayerMoved scripting callback, fired after their move broadcast is built
	pendingSaves     []*world.Player // accumulated dirty players awaiting the next persist flush
	tickStart        time.Time

	tickCount          uint64
	persistTickCounter int
	shutdownRequested  bool

	metricsWindow tickMetricsWindow
}

func New(cfg *config.Config, log *zap.Logger, w *world.World, server *netpkg.Server, actions *ActionQueue, accounts *persist.AccountRepo, players *persist.PlayerRepo, eng *scripting.Engine, bus *event.Bus) *Game {
	g := &Game{
		cfg:       cfg,
		log:       log,
		World:     w,
		server:    server,
		actions:   actions,
		accounts:  accounts,
		players:   players,
		scripting: eng,
		bus:       bus,
		conns:     make(map[uint64]*netpkg.Connection),
	}
	g.registry = packet.NewRegistry(log)
	g.registerHandlers()
	return g
}

// ShutdownRequested reports whether a console "stop" or "exit" command has
// been processed.
func (g *Game) ShutdownRequested() bool { return g.shutdownRequested }

// BroadcastShutdown tells every connected client the server is going down.
func (g *Game) BroadcastShutdown(reason byte) {
	payload := packet.EncodeServerShutdown(reason)
	for _, c := range g.conns {
		c.Send(payload)
	}
}

// WaitForOutboundFlush blocks until every connection's outbound queue has
// drained — meaning writeLoop has actually written the queued bytes to the
// socket, including a broadcast just enqueued by BroadcastShutdown — or
// timeout elapses, whichever comes first.
func (g *Game) WaitForOutboundFlush(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pending := false
		for _, c := range g.conns {
			if !c.IsClosed() && c.HasPendingOutbound() {
				pending = true
				break
			}
		}
		if !pending {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// DrainActions processes every action currently queued without blocking.
// Called once more during shutdown so a disconnect or console command that
// arrived on the final tick isn't silently dropped.
func (g *Game) DrainActions() {
	for _, a := range g.actions.DrainAll() {
		g.handleAction(a)
	}
}

// SaveAll flushes every live player's position, bypassing the dirty-flag
// filter used during normal ticks — every player is written once, whether
// or not they moved since the last persist interval.
func (g *Game) SaveAll(ctx context.Context) {
	var all []*world.Player
	g.World.ForEachPlayer(func(p *world.Player) { all = append(all, p) })
	if len(all) == 0 {
		return
	}
	g.players.SaveBatch(ctx, all)
}

// sendTo sends payload to conn's OutQueue, resolved by connID.
func (g *Game) sendTo(connID uint64, payload []byte) {
	if c, ok := g.conns[connID]; ok {
		c.Send(payload)
	}
}

// findSpawnPoint scans outward from the map center for an open, unoccupied
// tile. A small bounded spiral is enough for a synthetic or small map; a
// real deployment would pre-register spawn points, which is out of scope
// here.
func (g *Game) findSpawnPoint() (x, y int32, ok bool) {
	cx, cy := g.World.TileMap.Width()/2, g.World.TileMap.Height()/2
	for r := int32(0); r < 64; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx > -r && dx < r && dy > -r && dy < r {
					continue // already visited at a smaller radius
				}
				px, py := cx+dx, cy+dy
				if g.World.TileMap.IsBlocked(px, py) {
					continue
				}
				if g.World.IsOccupied(px, py) {
					continue
				}
				return px, py, true
			}
		}
	}
	return 0, 0, false
}

// resumePosition looks up a returning account's last saved position and
// accepts it as a spawn point if it's still on this map and still free —
// a tile another player has since claimed, or a stale position from a map
// that changed shape, falls back to findSpawnPoint instead.
func (g *Game) resumePosition(accountName string) (x, y int32, ok bool) {
	ctx, cancel := g.handshakeCtx()
	mapID, px, py, _, found, err := g.players.LoadPosition(ctx, accountName)
	cancel()
	if err != nil {
		g.log.Warn("load saved position failed, falling back to spawn search", zap.String("account", accountName), zap.Error(err))
		return 0, 0, false
	}
	if !found || mapID != g.World.MapID {
		return 0, 0, false
	}
	if g.World.TileMap.IsBlocked(px, py) || g.World.IsOccupied(px, py) {
		return 0, 0, false
	}
	return px, py, true
}

// handshakeCtx bounds persistence lookups so a slow database can't
// stall the tick loop indefinitely. 2s leaves headroom inside the
// configured handshake deadline.
func (g *Game) handshakeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func playerIDString(id world.PlayerID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// persistCtx bounds a batched save so a stalled database degrades the
// persist phase instead of blocking the tick loop.
func (g *Game) persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

// tickMetricsWindow tracks a rolling average tick duration for reporting.
type tickMetricsWindow struct {
	sum   time.Duration
	count int
}

func (w *tickMetricsWindow) add(d time.Duration) {
	w.sum += d
	w.count++
}

func (w *tickMetricsWindow) avgAndReset() time.Duration {
	if w.count == 0 {
		return 0
	}
	avg := w.sum / time.Duration(w.count)
	w.sum, w.count = 0, 0
	return avg
}

// reportMetrics is called once per tick from OutputSystem's phase.
func (g *Game) reportMetrics(tickDuration time.Duration) {
	g.metricsWindow.add(tickDuration)
	g.tickCount++
	if g.tickCount%20 == 0 { // report roughly once a second at a 50ms tick rate
		metrics.ReportTick(g.cfg.Server.TickRate, g.metricsWindow.avgAndReset(), g.World.PlayerCount())
	}
}
