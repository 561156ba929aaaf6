package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestNewEngineMissingDirIsNotAnError(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error for missing scripts dir: %v", err)
	}
	defer e.Close()
}

func TestEngineInvokesHooks(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hooks.lua", `
moved_count = 0
joined_id = nil

function on_player_moved(id, x, y, facing)
  moved_count = moved_count + 1
end

function on_player_joined(id)
  joined_id = id
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	e.OnPlayerMoved("7", 1, 2, 0)
	e.OnPlayerJoined("7")

	if got := e.vm.GetGlobal("moved_count"); got.String() != "1" {
		t.Fatalf("moved_count = %s, want 1", got.String())
	}
	if got := e.vm.GetGlobal("joined_id"); got.String() != "7" {
		t.Fatalf("joined_id = %s, want 7", got.String())
	}
}

func TestEngineMissingHookIsNoop(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "empty.lua", `-- no hooks defined`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	e.OnPlayerMoved("1", 0, 0, 0) // must not panic
	e.OnPlayerJoined("1")
}

func TestEngineReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hooks.lua", `
function on_player_joined(id)
  marker = "v1"
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	writeScript(t, dir, "hooks.lua", `
function on_player_joined(id)
  marker = "v2"
end
`)
	if err := e.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	e.OnPlayerJoined("1")
	if got := e.vm.GetGlobal("marker"); got.String() != "v2" {
		t.Fatalf("marker = %s, want v2 (reload should pick up new script)", got.String())
	}
}

func TestEngineReloadKeepsOldVMOnError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "hooks.lua", `
function on_player_joined(id)
  marker = "ok"
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	writeScript(t, dir, "broken.lua", `this is not valid lua (((`)
	if err := e.Reload(); err == nil {
		t.Fatalf("expected reload error for invalid lua")
	}

	e.OnPlayerJoined("1")
	if got := e.vm.GetGlobal("marker"); got.String() != "ok" {
		t.Fatalf("marker = %s, want ok (old VM should still be active after failed reload)", got.String())
	}
}
