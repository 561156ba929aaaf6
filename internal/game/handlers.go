package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/core/event"
	netpkg "github.com/gridkeep/server/internal/net"
	"github.com/gridkeep/server/internal/net/packet"
	"github.com/gridkeep/server/internal/world"
)

// registerHandlers wires the closed client->server opcode set into the
// registry, each handler closing over g rather than taking it as a
// parameter — HandlerFunc's signature is fixed by the registry so it can
// be shared across every opcode regardless of what it needs.
func (g *Game) registerHandlers() {
	active := []packet.SessionState{packet.StateActive}

	g.registry.Register(packet.COpMove, active, g.handleMove)
	g.registry.Register(packet.COpTurn, active, g.handleTurn)
	g.registry.Register(packet.COpInteract, active, g.handleInteract)
	g.registry.Register(packet.COpAttack, active, g.handleAttack)
}

func (g *Game) connOf(conn any) *netpkg.Connection {
	c, _ := conn.(*netpkg.Connection)
	return c
}

func (g *Game) handleMove(conn any, r *packet.Reader) {
	c := g.connOf(conn)
	p, ok := g.World.GetPlayerByConn(c.ID)
	if !ok {
		return
	}
	dir := world.Facing(r.ReadC())
	facing := world.Facing(r.ReadC())

	result := g.World.AttemptMovePlayer(p.ID, dir, facing, time.Now(), g.cfg.Server.MoveCooldown)
	if result != world.MoveOK {
		g.sendTo(c.ID, packet.EncodePositionCorrection(int16(p.X), int16(p.Y), byte(p.Facing)))
		return
	}

	g.movedThisTick = append(g.movedThisTick, p.ID)
	// OnPlayerMoved fires later, from visibilitySystem, once this player's
	// move broadcast for the tick is actually built.
	g.pendingMoveHooks = append(g.pendingMoveHooks, p.ID)
	event.Emit(g.bus, event.PlayerMoved{PlayerID: uint64(p.ID), X: p.X, Y: p.Y, Facing: byte(p.Facing)})
}

func (g *Game) handleTurn(conn any, r *packet.Reader) {
	c := g.connOf(conn)
	p, ok := g.World.GetPlayerByConn(c.ID)
	if !ok {
		return
	}
	p.Facing = world.Facing(r.ReadC())
	p.Dirty = true
	g.movedThisTick = append(g.movedThisTick, p.ID)
	g.sendTo(c.ID, packet.EncodeFacingCorrection(byte(p.Facing)))
}

// handleInteract and handleAttack acknowledge the opcode but apply no game
// rule: interaction targets and combat resolution aren't part of this
// system's scope, only the closed opcode set that reserves room for them.
func (g *Game) handleInteract(conn any, r *packet.Reader) {}

func (g *Game) handleAttack(conn any, r *packet.Reader) {}

// processHandshake parses and validates the first frame from a connection
// still in StateHandshaking. On success the connection becomes Active and
// a Player is created; on failure the connection is closed. Protocol errors
// and unknown tokens are logged at info (expected client-side bugs, not
// server faults); lookup, spawn, and add failures are logged at error.
func (g *Game) processHandshake(c *netpkg.Connection, payload []byte) {
	hs, err := packet.ParseHandshake(payload)
	if err != nil {
		g.log.Info("handshake rejected", zap.Uint64("conn", c.ID), zap.Error(err))
		c.Close()
		return
	}

	ctx, cancel := g.handshakeCtx()
	account, err := g.accounts.ResolveToken(ctx, hs.AccountToken)
	cancel()
	if err != nil {
		g.log.Error("handshake account lookup failed", zap.Uint64("conn", c.ID), zap.Error(err))
		c.Close()
		return
	}
	if account == nil {
		g.log.Info("handshake rejected: unknown account token", zap.Uint64("conn", c.ID))
		c.Close()
		return
	}

	x, y, ok := g.resumePosition(account.Name)
	if !ok {
		x, y, ok = g.findSpawnPoint()
	}
	if !ok {
		g.log.Error("no free spawn point available", zap.Uint64("conn", c.ID))
		c.Close()
		return
	}

	p, err := g.World.AddPlayer(c.ID, account.Name, x, y)
	if err != nil {
		g.log.Error("add player failed", zap.Uint64("conn", c.ID), zap.Error(err))
		c.Close()
		return
	}

	c.AccountName = account.Name
	c.Tag = hs.Tag
	c.SetState(packet.StateActive)

	g.sendTo(c.ID, packet.EncodeHandshakeAccepted())
	g.sendTo(c.ID, packet.EncodeWelcome(uint64(p.ID), int16(p.X), int16(p.Y), byte(p.Facing)))

	g.scripting.OnPlayerJoined(playerIDString(p.ID))
	event.Emit(g.bus, event.PlayerJoined{PlayerID: uint64(p.ID), X: p.X, Y: p.Y})
}
