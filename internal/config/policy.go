// BYZRA ⸻ internal/config/policy.go
// lua clear policy for watch mode

package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// what a policy script gets to see about one file
type PolicyInput struct {
	Path      string
	MediaType string
	Exif      int
	Iptc      int
	Xmp       int
	Sensitive int
	Tags      map[string]string
}

// decides whether a file gets cleared
type Policy interface {
	ShouldClear(in PolicyInput) (bool, error)
}

// clears whenever a sensitive tag is present
type DefaultPolicy struct{}

func (DefaultPolicy) ShouldClear(in PolicyInput) (bool, error) {
	return in.Sensitive > 0, nil
}

const policyFunc = "should_clear"

// LuaPolicy calls should_clear(file) in a script. One state, guarded by a
// mutex; gopher-lua states are not safe for concurrent use.
type LuaPolicy struct {
	path string
	mu   sync.Mutex
	L    *lua.LState
}

// loads policy
func LoadPolicy(path string) (*LuaPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return NewLuaPolicy(path, string(data))
}

func NewLuaPolicy(name, source string) (*LuaPolicy, error) {
	L := lua.NewState()

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to execute policy Lua: %w", err)
	}

	if fn := L.GetGlobal(policyFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("policy %s must define function %s(file)", name, policyFunc)
	}

	return &LuaPolicy{path: name, L: L}, nil
}

func (p *LuaPolicy) ShouldClear(in PolicyInput) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.L.CallByParam(lua.P{
		Fn:      p.L.GetGlobal(policyFunc),
		NRet:    1,
		Protect: true,
	}, p.fileTable(in)); err != nil {
		return false, fmt.Errorf("policy %s: %w", p.path, err)
	}

	ret := p.L.Get(-1)
	p.L.Pop(1)

	switch v := ret.(type) {
	case lua.LBool:
		return bool(v), nil
	case *lua.LNilType:
		return false, nil
	default:
		return false, fmt.Errorf("policy %s: %s must return a boolean, got %s", p.path, policyFunc, ret.Type())
	}
}

func (p *LuaPolicy) fileTable(in PolicyInput) *lua.LTable {
	t := p.L.NewTable()
	t.RawSetString("path", lua.LString(in.Path))
	t.RawSetString("media_type", lua.LString(in.MediaType))
	t.RawSetString("exif", lua.LNumber(in.Exif))
	t.RawSetString("iptc", lua.LNumber(in.Iptc))
	t.RawSetString("xmp", lua.LNumber(in.Xmp))
	t.RawSetString("sensitive", lua.LNumber(in.Sensitive))

	tags := p.L.NewTable()
	// stable order for pairs() in scripts that print
	names := make([]string, 0, len(in.Tags))
	for k := range in.Tags {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		tags.RawSetString(k, lua.LString(in.Tags[k]))
	}
	t.RawSetString("tags", tags)

	return t
}

func (p *LuaPolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.L.Close()
}
