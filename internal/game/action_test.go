package game

import (
	"testing"

	"go.uber.org/zap"
)

func TestActionQueuePostAndDrain(t *testing.T) {
	q := NewActionQueue(2, zap.NewNop())

	if !q.Post(Action{Kind: ActionDisconnect, ConnID: 1}) {
		t.Fatalf("expected Post to succeed under capacity")
	}
	if !q.Post(Action{Kind: ActionConsoleCommand, ConsoleCmd: CmdStop}) {
		t.Fatalf("expected Post to succeed under capacity")
	}

	got := q.DrainUpTo(10)
	if len(got) != 2 {
		t.Fatalf("drained %d actions, want 2", len(got))
	}
	if got[0].ConnID != 1 || got[1].ConsoleCmd != CmdStop {
		t.Fatalf("drained actions out of order or corrupted: %+v", got)
	}
}

func TestActionQueuePostFullDropsAndReportsFalse(t *testing.T) {
	q := NewActionQueue(1, zap.NewNop())

	if !q.Post(Action{Kind: ActionDisconnect, ConnID: 1}) {
		t.Fatalf("first post should succeed")
	}
	if q.Post(Action{Kind: ActionDisconnect, ConnID: 2}) {
		t.Fatalf("post into a full queue should report false")
	}

	got := q.DrainUpTo(10)
	if len(got) != 1 || got[0].ConnID != 1 {
		t.Fatalf("expected only the first action to be queued, got %+v", got)
	}
}

func TestActionQueueDrainUpToRespectsLimit(t *testing.T) {
	q := NewActionQueue(5, zap.NewNop())
	for i := 0; i < 5; i++ {
		q.Post(Action{Kind: ActionDisconnect, ConnID: uint64(i)})
	}

	first := q.DrainUpTo(2)
	if len(first) != 2 {
		t.Fatalf("drained %d, want 2", len(first))
	}
	rest := q.DrainUpTo(10)
	if len(rest) != 3 {
		t.Fatalf("drained %d remaining, want 3", len(rest))
	}
}

func TestActionQueueDrainAllIgnoresCount(t *testing.T) {
	q := NewActionQueue(300, zap.NewNop())
	for i := 0; i < 257; i++ {
		q.Post(Action{Kind: ActionDisconnect, ConnID: uint64(i)})
	}

	got := q.DrainAll()
	if len(got) != 257 {
		t.Fatalf("drained %d, want 257", len(got))
	}
	if len(q.DrainAll()) != 0 {
		t.Fatalf("expected queue empty after DrainAll")
	}
}
