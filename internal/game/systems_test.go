package game

import (
	"testing"

	"github.com/gridkeep/server/internal/net/packet"
)

func makeEntries(n int) []packet.SpatialEntry {
	entries := make([]packet.SpatialEntry, n)
	for i := range entries {
		entries[i] = packet.SpatialEntry{ID: uint64(i)}
	}
	return entries
}

func TestChunkSpatialEntriesSplitsAtConfiguredSize(t *testing.T) {
	chunks := chunkSpatialEntries(makeEntries(450), 200)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 200 || len(chunks[1]) != 200 || len(chunks[2]) != 50 {
		t.Fatalf("chunk sizes = %d,%d,%d, want 200,200,50", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total != 450 {
		t.Fatalf("total entries across chunks = %d, want 450", total)
	}
}

func TestChunkSpatialEntriesUnderThresholdIsOneChunk(t *testing.T) {
	chunks := chunkSpatialEntries(makeEntries(5), 200)
	if len(chunks) != 1 || len(chunks[0]) != 5 {
		t.Fatalf("got %d chunks (first len %d), want 1 chunk of 5", len(chunks), len(chunks[0]))
	}
}

func TestChunkSpatialEntriesEmptyReturnsNoChunks(t *testing.T) {
	if chunks := chunkSpatialEntries(nil, 200); len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
}

func TestChunkSpatialEntriesClampsToWireCeiling(t *testing.T) {
	chunks := chunkSpatialEntries(makeEntries(600), 0)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (ceiling of %d per chunk)", len(chunks), packet.MaxBatchSpatialEntries)
	}
	for i, c := range chunks[:2] {
		if len(c) != packet.MaxBatchSpatialEntries {
			t.Fatalf("chunk %d len = %d, want %d", i, len(c), packet.MaxBatchSpatialEntries)
		}
	}
}
