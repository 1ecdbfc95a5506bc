package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/hollowmoon/etherclash/internal/game/passive"
)

// Hook names recognized in relic scripts. Each is an optional Lua
// global function returning a delta table; absent hooks contribute
// nothing.
const (
	HookCombatStart = "on_combat_start"
	HookTurnStart   = "on_turn_start"
	HookCombo       = "on_combo"
)

// PassiveHooks runs relic/ego Lua scripts and aggregates their deltas.
// It implements passive.Source. One sandboxed LState is created per
// script file; a misbehaving relic therefore cannot poison its
// neighbours.
//
// PassiveHooks is safe for concurrent calls after LoadDir completes;
// the mutex serializes hook dispatch across callers.
type PassiveHooks struct {
	mu        sync.Mutex
	states    map[string]*lua.LState
	instLimit int
	logger    *zap.Logger
}

// NewPassiveHooks creates an empty PassiveHooks.
//
// Precondition: logger must be non-nil.
// Postcondition: returns a non-nil PassiveHooks with no scripts loaded;
// all hooks yield zero deltas until LoadDir succeeds.
func NewPassiveHooks(logger *zap.Logger, instLimit int) *PassiveHooks {
	if logger == nil {
		panic("scripting.NewPassiveHooks: logger must not be nil")
	}
	return &PassiveHooks{
		states:    make(map[string]*lua.LState),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadDir loads every *.lua file in dir, one sandboxed VM per file, in
// lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: every script is registered; returns error on any Lua
// load failure (content errors surface at load time, never mid-battle).
func (p *PassiveHooks) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range files {
		L, cancel := NewSandboxedState(p.instLimit)
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		key := filepath.Base(path)
		if old, ok := p.states[key]; ok {
			old.Close()
		}
		p.states[key] = L
	}
	return nil
}

// Close releases every loaded VM.
func (p *PassiveHooks) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, L := range p.states {
		L.Close()
		delete(p.states, key)
	}
}

// CombatStart aggregates on_combat_start deltas across all relics.
func (p *PassiveHooks) CombatStart(side string) passive.Deltas {
	return p.callAll(HookCombatStart, lua.LString(side))
}

// TurnStart aggregates on_turn_start deltas across all relics.
func (p *PassiveHooks) TurnStart(side string, turn int) passive.Deltas {
	return p.callAll(HookTurnStart, lua.LString(side), lua.LNumber(turn))
}

// ComboBonus aggregates on_combo deltas across all relics.
func (p *PassiveHooks) ComboBonus(side, comboName string) passive.Deltas {
	return p.callAll(HookCombo, lua.LString(side), lua.LString(comboName))
}

// callAll invokes hook in every loaded VM in sorted key order and
// merges the returned delta tables. Lua runtime errors are logged at
// Warn and treated as zero deltas — a broken relic must never halt a
// battle.
func (p *PassiveHooks) callAll(hook string, args ...lua.LValue) passive.Deltas {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.states))
	for k := range p.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total passive.Deltas
	for _, key := range keys {
		L := p.states[key]
		fn := L.GetGlobal(hook)
		if fn == lua.LNil {
			continue
		}
		// Fresh opcode budget per hook execution.
		ctx, _ := newCountingContext(p.effectiveLimit())
		L.SetContext(ctx)
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			p.logger.Warn("scripting: Lua runtime error",
				zap.String("script", key),
				zap.String("hook", hook),
				zap.Error(err),
			)
			continue
		}
		ret := L.Get(-1)
		L.Pop(1)
		total = total.Merge(deltasFromLua(ret))
	}
	return total
}

func (p *PassiveHooks) effectiveLimit() int {
	if p.instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return p.instLimit
}

// deltasFromLua converts a Lua table into passive.Deltas. Non-table
// returns yield the zero value; unknown keys are ignored.
func deltasFromLua(v lua.LValue) passive.Deltas {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return passive.Deltas{}
	}
	var d passive.Deltas
	d.Heal = intField(tbl, "heal")
	d.Block = intField(tbl, "block")
	d.Energy = intField(tbl, "energy")
	d.MaxSpeed = intField(tbl, "max_speed")
	d.Ether = intField(tbl, "ether")
	d.Strength = intField(tbl, "strength")
	if line, ok := tbl.RawGetString("line").(lua.LString); ok {
		d.Lines = append(d.Lines, string(line))
	}
	return d
}

func intField(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}
