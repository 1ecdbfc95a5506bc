package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollowmoon/etherclash/internal/scripting"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestPassiveHooks_TurnStartDeltas(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "healing_charm.lua", `
function on_turn_start(side, turn)
  if side == "player" then
    return { heal = 2, line = "the charm hums softly" }
  end
  return {}
end
`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))

	d := hooks.TurnStart("player", 1)
	assert.Equal(t, 2, d.Heal)
	require.Len(t, d.Lines, 1)
	assert.Contains(t, d.Lines[0], "charm")

	assert.Zero(t, hooks.TurnStart("enemy", 1).Heal)
}

func TestPassiveHooks_AggregatesAcrossScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a_charm.lua", `
function on_combat_start(side)
  return { block = 3 }
end
`)
	writeScript(t, dir, "b_charm.lua", `
function on_combat_start(side)
  return { block = 2, energy = 1 }
end
`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))

	d := hooks.CombatStart("player")
	assert.Equal(t, 5, d.Block, "deltas sum across relic scripts")
	assert.Equal(t, 1, d.Energy)
}

func TestPassiveHooks_MissingHookIsZero(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "silent.lua", `-- no hooks defined`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))

	assert.Zero(t, hooks.ComboBonus("player", "pair"))
}

func TestPassiveHooks_RuntimeErrorIsZeroDelta(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `
function on_turn_start(side, turn)
  error("relic shattered")
end
`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))

	assert.Zero(t, hooks.TurnStart("player", 1), "a broken relic must never halt a battle")
}

func TestPassiveHooks_LoadErrorSurfacesAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "syntax.lua", `function on_turn_start( broken`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	assert.Error(t, hooks.LoadDir(dir))
}

func TestPassiveHooks_SandboxStripsDangerousGlobals(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "sneaky.lua", `
function on_combat_start(side)
  if dofile == nil and require == nil then
    return { ether = 1 }
  end
  return {}
end
`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 0)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))
	assert.Equal(t, 1, hooks.CombatStart("player").Ether, "dofile/require must be stripped")
}

func TestPassiveHooks_InstructionLimitTerminatesRunaway(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "runaway.lua", `
function on_turn_start(side, turn)
  while true do end
end
`)
	hooks := scripting.NewPassiveHooks(zap.NewNop(), 1000)
	defer hooks.Close()
	require.NoError(t, hooks.LoadDir(dir))

	assert.Zero(t, hooks.TurnStart("player", 1), "runaway scripts are cut off by the opcode limit")
}
