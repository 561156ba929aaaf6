package persist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/world"
)

// PlayerRepo batches player position/facing writes. Every call is
// fire-and-forget from the tick thread's Persist phase: errors are logged,
// never returned to a caller that can't do anything about them mid-tick.
type PlayerRepo struct {
	db  *DB
	log *zap.Logger
}

func NewPlayerRepo(db *DB, log *zap.Logger) *PlayerRepo {
	return &PlayerRepo{db: db, log: log}
}

// SavePlayerStats upserts the full position/facing snapshot of one player.
func (r *PlayerRepo) SavePlayerStats(ctx context.Context, p *world.Player) {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO player_stats (account_name, map_id, x, y, facing, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (account_name) DO UPDATE SET
		   map_id = EXCLUDED.map_id, x = EXCLUDED.x, y = EXCLUDED.y,
		   facing = EXCLUDED.facing, updated_at = NOW()`,
		p.AccountName, p.MapID, p.X, p.Y, int16(p.Facing),
	)
	if err != nil {
		r.log.Error("save player stats failed", zap.String("account", p.AccountName), zap.Error(err))
	}
}

// SaveBatch flushes every dirty player's stats in one call. Batching once
// per persist interval, rather than issuing a statement per dirty player
// per tick, bounds write amplification under load.
func (r *PlayerRepo) SaveBatch(ctx context.Context, players []*world.Player) {
	for _, p := range players {
		r.SavePlayerStats(ctx, p)
	}
}

// LoadPosition returns a previously saved spawn point for an account, if any.
func (r *PlayerRepo) LoadPosition(ctx context.Context, accountName string) (mapID, x, y int32, facing byte, found bool, err error) {
	var f int16
	row := r.db.Pool.QueryRow(ctx,
		`SELECT map_id, x, y, facing FROM player_stats WHERE account_name = $1`, accountName)
	scanErr := row.Scan(&mapID, &x, &y, &f)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return 0, 0, 0, 0, false, nil
	}
	if scanErr != nil {
		return 0, 0, 0, 0, false, scanErr
	}
	return mapID, x, y, byte(f), true, nil
}
