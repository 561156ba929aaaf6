package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM invoked from the tick thread at two
// points: after a successful move broadcast, and after a connection
// completes its handshake. mu guards Reload, which swaps in a freshly
// loaded VM — calls and reload are safe to interleave, though in practice
// Reload is only ever issued from the console's action, which the tick
// thread processes serially with everything else.
type Engine struct {
	mu         sync.Mutex
	vm         *lua.LState
	scriptsDir string
	log        *zap.Logger
}

// NewEngine loads every .lua file directly under scriptsDir.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{scriptsDir: scriptsDir, log: log}
	vm, err := e.load()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

func (e *Engine) load() (*lua.LState, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	entries, err := os.ReadDir(e.scriptsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return vm, nil
		}
		vm.Close()
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(e.scriptsDir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return vm, nil
}

// Reload re-parses every script under scriptsDir into a fresh VM and swaps
// it in. The old VM keeps serving calls already in flight; on a load
// error the old VM is left in place and the error is returned.
func (e *Engine) Reload() error {
	vm, err := e.load()
	if err != nil {
		return err
	}
	e.mu.Lock()
	old := e.vm
	e.vm = vm
	e.mu.Unlock()
	old.Close()
	return nil
}

// OnPlayerMoved invokes the optional on_player_moved(id, x, y, facing) hook.
// Player ids are passed as decimal strings since gopher-lua's number type
// can't exactly represent the full 64-bit range.
func (e *Engine) OnPlayerMoved(playerID string, x, y int32, facing byte) {
	e.call("on_player_moved", lua.LString(playerID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(facing))
}

// OnPlayerJoined invokes the optional on_player_joined(id) hook.
func (e *Engine) OnPlayerJoined(playerID string) {
	e.call("on_player_joined", lua.LString(playerID))
}

// call invokes a named global if it exists, under the reload lock, with
// panic/error protection. A missing hook is a silent no-op — scripts are
// optional, not every deployment defines both hooks.
func (e *Engine) call(name string, args ...lua.LValue) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook error", zap.String("hook", name), zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
