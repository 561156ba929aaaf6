// Package console reads operator commands from stdin and posts them onto
// the tick loop's action queue — it never mutates game state directly.
package console

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/gridkeep/server/internal/game"
)

// Console runs on its own goroutine, reading one line at a time.
type Console struct {
	queue *game.ActionQueue
	log   *zap.Logger
}

func New(queue *game.ActionQueue, log *zap.Logger) *Console {
	return &Console{queue: queue, log: log}
}

// Run blocks reading lines from r until EOF or a read error. Each
// non-empty line is posted as an ActionConsoleCommand for the tick loop
// to interpret.
func (c *Console) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !c.queue.Post(game.Action{Kind: game.ActionConsoleCommand, ConsoleCmd: line}) {
			c.log.Warn("console command dropped, action queue overloaded", zap.String("cmd", line))
		}
	}
	if err := scanner.Err(); err != nil {
		c.log.Error("console read error", zap.Error(err))
	}
}
