package metrics

import (
	"testing"
	"time"
)

func TestReportTickUpdatesSnapshot(t *testing.T) {
	ReportTick(50*time.Millisecond, 4*time.Millisecond, 12)

	snap := Read()
	if snap.ConnectedPlayers != 12 {
		t.Fatalf("ConnectedPlayers = %d, want 12", snap.ConnectedPlayers)
	}
	wantRate := float64(time.Second) / float64(50*time.Millisecond)
	if snap.TickRate != wantRate {
		t.Fatalf("TickRate = %f, want %f", snap.TickRate, wantRate)
	}
	if snap.TickDurationSeconds != (4 * time.Millisecond).Seconds() {
		t.Fatalf("TickDurationSeconds = %f, want %f", snap.TickDurationSeconds, (4 * time.Millisecond).Seconds())
	}
}

func TestReportTickOverwritesPreviousSnapshot(t *testing.T) {
	ReportTick(50*time.Millisecond, 1*time.Millisecond, 1)
	ReportTick(50*time.Millisecond, 1*time.Millisecond, 99)

	if snap := Read(); snap.ConnectedPlayers != 99 {
		t.Fatalf("ConnectedPlayers = %d, want 99 (latest report should win)", snap.ConnectedPlayers)
	}
}
