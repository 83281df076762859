package peripherals

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"stackcpu/pkg/cpu"
)

var ErrLuaClosed = errors.New("lua gpio closed")

// Port handler names a script may define.
const (
	luaWriteA = "write_a"
	luaWriteB = "write_b"
	luaReadA  = "read_a"
	luaReadB  = "read_b"
)

// LuaGPIO forwards the four ports to functions defined by a Lua script.
// Undefined handlers behave like NopGPIO. The first runtime error inside a
// handler is kept and returned by Err; later calls become no-ops.
type LuaGPIO struct {
	mu       sync.Mutex
	L        *lua.LState
	handlers map[string]*lua.LFunction
	err      error
}

// NewLuaGPIO runs script once and binds whichever handlers it defines.
func NewLuaGPIO(script string) (*LuaGPIO, error) {
	L := lua.NewState()
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading gpio script: %w", err)
	}
	g := &LuaGPIO{L: L, handlers: make(map[string]*lua.LFunction)}
	for _, name := range []string{luaWriteA, luaWriteB, luaReadA, luaReadB} {
		if fn, ok := L.GetGlobal(name).(*lua.LFunction); ok {
			g.handlers[name] = fn
		}
	}
	return g, nil
}

// LoadLuaGPIO reads a script from disk.
func LoadLuaGPIO(path string) (*LuaGPIO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := NewLuaGPIO(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Handles reports whether the script defines the named handler.
func (g *LuaGPIO) Handles(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.handlers[name]
	return ok
}

func (g *LuaGPIO) WriteA(v uint8) { g.call(luaWriteA, 0, lua.LNumber(v)) }
func (g *LuaGPIO) WriteB(v uint8) { g.call(luaWriteB, 0, lua.LNumber(v)) }
func (g *LuaGPIO) ReadA() uint8   { return g.call(luaReadA, 1) }
func (g *LuaGPIO) ReadB() uint8   { return g.call(luaReadB, 1) }

// Err returns the first handler failure.
func (g *LuaGPIO) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *LuaGPIO) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.L != nil {
		g.L.Close()
		g.L = nil
		if g.err == nil {
			g.err = ErrLuaClosed
		}
	}
}

func (g *LuaGPIO) call(name string, nret int, args ...lua.LValue) uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()

	fn, ok := g.handlers[name]
	if !ok || g.err != nil || g.L == nil {
		return 0
	}
	if err := g.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		g.err = fmt.Errorf("%s: %w", name, err)
		return 0
	}
	if nret == 0 {
		return 0
	}
	ret := g.L.Get(-1)
	g.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0
	}
	return uint8(int64(n))
}

var _ cpu.GPIO = (*LuaGPIO)(nil)
