package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/config"
	coresys "github.com/gridkeep/server/internal/core/event"
	"github.com/gridkeep/server/internal/core/system"
	"github.com/gridkeep/server/internal/console"
	"github.com/gridkeep/server/internal/game"
	"github.com/gridkeep/server/internal/logging"
	gonet "github.com/gridkeep/server/internal/net"
	"github.com/gridkeep/server/internal/net/packet"
	"github.com/gridkeep/server/internal/persist"
	"github.com/gridkeep/server/internal/scripting"
	"github.com/gridkeep/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("GRIDKEEP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting", zap.String("name", cfg.Server.Name), zap.Duration("tick_rate", cfg.Server.TickRate))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	log.Info("connected to postgres")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	accountRepo := persist.NewAccountRepo(db)
	playerRepo := persist.NewPlayerRepo(db, log)

	mapID, mapName, tileMap, err := loadMap(log)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	log.Info("map loaded", zap.Int32("map_id", mapID), zap.String("name", mapName),
		zap.Int32("width", tileMap.Width()), zap.Int32("height", tileMap.Height()))

	const cellSize = int32(16)
	gameWorld := world.New(mapID, tileMap, cfg.Server.ViewRange, cellSize, log)

	eng, err := scripting.NewEngine(cfg.Scripting.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting engine: %w", err)
	}
	defer eng.Close()
	log.Info("scripts loaded", zap.String("dir", cfg.Scripting.ScriptsDir))

	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.MaxFramePayload,
		cfg.Network.OutboundQueueCapBytes,
		cfg.Network.WriteTimeout,
		cfg.Network.HandshakeDeadline,
		gonet.RateLimit{Enabled: cfg.RateLimit.Enabled, HandshakesPerMinute: cfg.RateLimit.HandshakesPerMinute},
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	bus := coresys.NewBus()
	coresys.Subscribe(bus, func(ev coresys.PlayerJoined) {
		log.Debug("event: PlayerJoined", zap.Uint64("player", ev.PlayerID), zap.Int32("x", ev.X), zap.Int32("y", ev.Y))
	})
	coresys.Subscribe(bus, func(ev coresys.PlayerLeftWorld) {
		log.Debug("event: PlayerLeftWorld", zap.Uint64("player", ev.PlayerID), zap.Int("observers", ev.ObserverCount))
	})
	coresys.Subscribe(bus, func(ev coresys.PlayerMoved) {
		log.Debug("event: PlayerMoved", zap.Uint64("player", ev.PlayerID))
	})

	actions := game.NewActionQueue(cfg.Network.ActionQueueSize, log)
	g := game.New(cfg, log, gameWorld, netServer, actions, accountRepo, playerRepo, eng, bus)

	runner := system.NewRunner()
	g.RegisterSystems(runner)

	cons := console.New(actions, log)
	go cons.Run(os.Stdin)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	log.Info("listening", zap.String("addr", netServer.Addr().String()))

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
			if g.ShutdownRequested() {
				return shutdown(g, netServer, log, cfg)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(g, netServer, log, cfg)
		}
	}
}

// shutdown announces the impending stop to every connected client, stops
// accepting new connections, waits (bounded by ShutdownJoinTimeout) for the
// announcement to actually reach the wire, drains whatever actions arrived
// on the final tick, and flushes every player's position.
func shutdown(g *game.Game, netServer *gonet.Server, log *zap.Logger, cfg *config.Config) error {
	netServer.Shutdown()
	g.BroadcastShutdown(packet.ShutdownReasonMaintenance)

	g.WaitForOutboundFlush(cfg.Network.ShutdownJoinTimeout)
	g.DrainActions()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Network.ShutdownJoinTimeout)
	defer cancel()
	g.SaveAll(ctx)

	log.Info("stopped")
	return nil
}

// loadMap finds the *.yaml files under data/maps and loads only the first
// one in lexical order — this server simulates a single map per process.
func loadMap(log *zap.Logger) (mapID int32, name string, tm *world.TileMap, err error) {
	matches, err := filepath.Glob("data/maps/*.yaml")
	if err != nil {
		return 0, "", nil, err
	}
	if len(matches) == 0 {
		return 0, "", nil, fmt.Errorf("no map files found under data/maps")
	}
	if len(matches) > 1 {
		log.Warn("multiple map files found, using the first", zap.Strings("files", matches))
	}
	return world.LoadTileMapYAML(matches[0])
}
