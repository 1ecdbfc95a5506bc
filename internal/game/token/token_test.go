package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/token"
)

var defs = map[string]*catalog.TokenDef{
	"strength":  {ID: "strength", Name: "Strength", StrengthBonus: 1},
	"vigilance": {ID: "vigilance", Name: "Vigilance", RetainBlock: true},
	"focus":     {ID: "focus", Name: "Focus", SpeedBonus: 2, MaxStacks: 3, PositionBound: true},
	"growing":   {ID: "growing", Name: "Growing Defense", BlockPerStep: 2, PositionBound: true},
}

func lookup(id string) (*catalog.TokenDef, bool) {
	d, ok := defs[id]
	return d, ok
}

func TestAdd_CreatesAndMerges(t *testing.T) {
	var s token.Store
	s, lines := token.Add(s, defs["strength"], "player", 2, token.ScopeTurn, 1, 0)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Strength x2")
	assert.Equal(t, 2, token.StacksIn(s, token.ScopeTurn, "strength"))

	s, _ = token.Add(s, defs["strength"], "player", 3, token.ScopeTurn, 1, 0)
	assert.Equal(t, 5, token.StacksIn(s, token.ScopeTurn, "strength"))
}

func TestAdd_ScopesAreDisjoint(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "player", 1, token.ScopeUsage, 1, 0)
	s, _ = token.Add(s, defs["strength"], "player", 2, token.ScopeTurn, 1, 0)
	s, _ = token.Add(s, defs["strength"], "player", 3, token.ScopePermanent, 1, 0)

	assert.Equal(t, 1, token.StacksIn(s, token.ScopeUsage, "strength"))
	assert.Equal(t, 2, token.StacksIn(s, token.ScopeTurn, "strength"))
	assert.Equal(t, 3, token.StacksIn(s, token.ScopePermanent, "strength"))
	assert.Equal(t, 6, token.Stacks(s, "strength"))
}

func TestAdd_CapsAtMaxStacks(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["focus"], "player", 2, token.ScopeTurn, 1, 0)
	s, lines := token.Add(s, defs["focus"], "player", 5, token.ScopeTurn, 1, 0)
	assert.Equal(t, 3, token.StacksIn(s, token.ScopeTurn, "focus"), "capped at MaxStacks")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "x1", "only the stacks actually applied are logged")
}

func TestAdd_DoesNotMutateInput(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "player", 1, token.ScopeTurn, 1, 0)
	before := token.StacksIn(s, token.ScopeTurn, "strength")
	_, _ = token.Add(s, defs["strength"], "player", 4, token.ScopeTurn, 1, 0)
	assert.Equal(t, before, token.StacksIn(s, token.ScopeTurn, "strength"),
		"Add must return a new store, not mutate the argument")
}

// TestAdd_Commutative verifies that adding stacks [a, b]
// in either order yields the same total per scope.
func TestAdd_Commutative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(1, 10).Draw(rt, "a")
		b := rapid.IntRange(1, 10).Draw(rt, "b")

		var s1, s2 token.Store
		s1, _ = token.Add(s1, defs["strength"], "p", a, token.ScopeTurn, 1, 0)
		s1, _ = token.Add(s1, defs["strength"], "p", b, token.ScopeTurn, 1, 0)
		s2, _ = token.Add(s2, defs["strength"], "p", b, token.ScopeTurn, 1, 0)
		s2, _ = token.Add(s2, defs["strength"], "p", a, token.ScopeTurn, 1, 0)

		assert.Equal(rt, token.StacksIn(s1, token.ScopeTurn, "strength"),
			token.StacksIn(s2, token.ScopeTurn, "strength"),
			"token add must be commutative per scope")
		assert.Equal(rt, a+b, token.StacksIn(s1, token.ScopeTurn, "strength"))
	})
}

func TestRemove_PartialAndAll(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "player", 5, token.ScopeTurn, 1, 0)

	s, lines := token.Remove(s, lookup, "player", "strength", token.ScopeTurn, 2)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, token.StacksIn(s, token.ScopeTurn, "strength"))

	s, _ = token.Remove(s, lookup, "player", "strength", token.ScopeTurn, token.RemoveAll)
	assert.Equal(t, 0, token.StacksIn(s, token.ScopeTurn, "strength"))
	assert.Empty(t, s.Turn, "zero-stack entries must not persist")
}

func TestRemove_AbsentIsNoOp(t *testing.T) {
	var s token.Store
	out, lines := token.Remove(s, lookup, "player", "strength", token.ScopeTurn, 1)
	assert.Empty(t, lines)
	assert.Equal(t, s, out)
}

func TestConsumeUsage_SingleShot(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "player", 2, token.ScopeUsage, 1, 0)
	s, n, lines := token.ConsumeUsage(s, lookup, "player", "strength")
	assert.Equal(t, 2, n)
	require.Len(t, lines, 1)
	assert.Equal(t, 0, token.StacksIn(s, token.ScopeUsage, "strength"))

	_, n, _ = token.ConsumeUsage(s, lookup, "player", "strength")
	assert.Equal(t, 0, n, "second consume finds nothing")
}

func TestExpireTurn_ClearsOwningTurn(t *testing.T) {
	var s token.Store
	// Granted at select (sp 0) of turn 2: expires at turn 2 resolve exit.
	s, _ = token.Add(s, defs["vigilance"], "player", 1, token.ScopeTurn, 2, 0)
	// Granted mid-resolve of turn 2: survives to the next boundary.
	s, _ = token.Add(s, defs["strength"], "player", 1, token.ScopeTurn, 2, 7)

	s, lines := token.ExpireTurn(s, lookup, "player", 2)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Vigilance expires")
	assert.Equal(t, 0, token.StacksIn(s, token.ScopeTurn, "vigilance"))
	assert.Equal(t, 1, token.StacksIn(s, token.ScopeTurn, "strength"),
		"mid-resolve grant survives the owning turn boundary")

	s, _ = token.ExpireTurn(s, lookup, "player", 3)
	assert.Equal(t, 0, token.StacksIn(s, token.ScopeTurn, "strength"),
		"mid-resolve grant expires at the next boundary")
}

func TestExpireTurn_PermanentUntouched(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "player", 4, token.ScopePermanent, 1, 0)
	s, lines := token.ExpireTurn(s, lookup, "player", 1)
	assert.Empty(t, lines)
	assert.Equal(t, 4, token.StacksIn(s, token.ScopePermanent, "strength"))
}

func TestExpireAtPosition_RemovesStaleBoundStacks(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["focus"], "player", 1, token.ScopeTurn, 1, 9)
	// Cursor behind the granting position: stack is stale.
	s, lines := token.ExpireAtPosition(s, lookup, "player", 4)
	assert.Len(t, lines, 1)
	assert.Equal(t, 0, token.StacksIn(s, token.ScopeTurn, "focus"))
}

func TestExpireAtPosition_KeepsLiveStacks(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["focus"], "player", 1, token.ScopeTurn, 1, 3)
	s, lines := token.ExpireAtPosition(s, lookup, "player", 5)
	assert.Empty(t, lines)
	assert.Equal(t, 1, token.StacksIn(s, token.ScopeTurn, "focus"))
}

func TestFlatten_UnifiedView(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "p", 1, token.ScopeUsage, 1, 0)
	s, _ = token.Add(s, defs["vigilance"], "p", 1, token.ScopeTurn, 1, 0)
	s, _ = token.Add(s, defs["focus"], "p", 2, token.ScopePermanent, 1, 0)

	flat := token.Flatten(s)
	require.Len(t, flat, 3)
	assert.Equal(t, token.ScopeUsage, flat[0].Scope)
	assert.Equal(t, token.ScopeTurn, flat[1].Scope)
	assert.Equal(t, token.ScopePermanent, flat[2].Scope)
}

func TestModifiers(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["strength"], "p", 3, token.ScopeTurn, 1, 0)
	s, _ = token.Add(s, defs["focus"], "p", 2, token.ScopeTurn, 1, 0)
	s, _ = token.Add(s, defs["vigilance"], "p", 1, token.ScopeTurn, 1, 0)

	assert.Equal(t, 3, token.StrengthBonus(s, lookup))
	assert.Equal(t, 4, token.SpeedBonus(s, lookup), "2 stacks x speed bonus 2")
	assert.True(t, token.RetainsBlock(s, lookup))
}

func TestPositionBlock_GrowsWithCursor(t *testing.T) {
	var s token.Store
	s, _ = token.Add(s, defs["growing"], "p", 2, token.ScopeTurn, 1, 3)

	assert.Equal(t, 0, token.PositionBlock(s, lookup, 3), "no growth at the granting position")
	assert.Equal(t, 4, token.PositionBlock(s, lookup, 4), "2 stacks x 2 per step x 1 step")
	assert.Equal(t, 12, token.PositionBlock(s, lookup, 6))
}

func TestParseScope(t *testing.T) {
	for _, valid := range []string{"usage", "turn", "permanent"} {
		_, ok := token.ParseScope(valid)
		assert.True(t, ok, valid)
	}
	_, ok := token.ParseScope("forever")
	assert.False(t, ok)
}
