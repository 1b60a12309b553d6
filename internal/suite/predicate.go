package suite

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"nescore/internal/cpu"
)

// Machine is the state a predicate can observe
type Machine interface {
	Peek(address uint16) uint8
	CPUState() cpu.State
}

// Eval evaluates a Lua expression against a finished machine. Available
// functions: peek(addr), text(addr), a(), x(), y(), p(), pc(), and
// band(a, b) for bit tests. The result follows Lua truthiness.
func Eval(ctx context.Context, expr string, m Machine) (bool, error) {
	L := lua.NewState()
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}

	state := m.CPUState()
	register := func(v int) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LNumber(v))
			return 1
		}
	}

	L.SetGlobal("peek", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt(1)
		L.Push(lua.LNumber(m.Peek(uint16(addr))))
		return 1
	}))
	L.SetGlobal("text", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		var sb strings.Builder
		for i := 0; i < 256; i++ {
			c := m.Peek(addr + uint16(i))
			if c == 0 {
				break
			}
			sb.WriteByte(c)
		}
		L.Push(lua.LString(sb.String()))
		return 1
	}))
	L.SetGlobal("band", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(L.CheckInt(1) & L.CheckInt(2)))
		return 1
	}))
	L.SetGlobal("a", L.NewFunction(register(int(state.A))))
	L.SetGlobal("x", L.NewFunction(register(int(state.X))))
	L.SetGlobal("y", L.NewFunction(register(int(state.Y))))
	L.SetGlobal("p", L.NewFunction(register(int(state.P))))
	L.SetGlobal("pc", L.NewFunction(register(int(state.PC))))

	if err := L.DoString("return " + expr); err != nil {
		return false, fmt.Errorf("check %q: %w", expr, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}
