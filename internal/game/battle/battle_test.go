package battle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowmoon/etherclash/internal/game/battle"
	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/combo"
	"github.com/hollowmoon/etherclash/internal/game/effect"
	"github.com/hollowmoon/etherclash/internal/game/rng"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
	"github.com/hollowmoon/etherclash/internal/game/token"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	cards := []*catalog.CardDef{
		{ID: "strike", Name: "Strike", Kind: catalog.KindAttack, ActionCost: 1, SpeedCost: 2, Damage: 6},
		{ID: "bash", Name: "Bash", Kind: catalog.KindAttack, ActionCost: 2, SpeedCost: 3, Damage: 12},
		{ID: "guard", Name: "Guard", Kind: catalog.KindDefense, ActionCost: 1, SpeedCost: 2, Block: 5},
		{ID: "heavy", Name: "Heavy Swing", Kind: catalog.KindAttack, ActionCost: 3, SpeedCost: 9, Damage: 20},
		{ID: "focus", Name: "Focus", Kind: catalog.KindSupport, ActionCost: 0, SpeedCost: 1,
			Tokens: []catalog.AppliedToken{{Token: "vigor", Stacks: 2, Scope: "usage", Target: "self"}}},
		{ID: "brand", Name: "Brand", Kind: catalog.KindSupport, ActionCost: 0, SpeedCost: 1,
			Tokens: []catalog.AppliedToken{{Token: "ward", Stacks: 1, Scope: "turn", Target: "self"}}},
		{ID: "rend", Name: "Rend", Kind: catalog.KindAttack, ActionCost: 1, SpeedCost: 2, Damage: 3, Special: "breach"},
		{ID: "feint", Name: "Feint", Kind: catalog.KindAttack, ActionCost: 1, SpeedCost: 2, Damage: 2, Special: "fleche"},
		{ID: "siphon", Name: "Siphon", Kind: catalog.KindSupport, ActionCost: 1, SpeedCost: 2, Special: "ether_drain"},
		{ID: "channel", Name: "Channel", Kind: catalog.KindSupport, ActionCost: 3, SpeedCost: 1},
		{ID: "snap", Name: "Snap", Kind: catalog.KindAttack, ActionCost: 1, SpeedCost: 2, Damage: 2},
	}
	for _, c := range cards {
		require.NoError(t, cat.RegisterCard(c))
	}
	require.NoError(t, cat.RegisterToken(&catalog.TokenDef{ID: "vigor", Name: "Vigor", StrengthBonus: 2}))
	require.NoError(t, cat.RegisterToken(&catalog.TokenDef{ID: "ward", Name: "Ward", StrengthBonus: 1}))
	require.NoError(t, cat.RegisterEnemy(&catalog.EnemyDef{
		ID: "dummy", Name: "Dummy", MaxHP: 10, MaxSpeed: 10, CardsPerTurn: 1, Units: 1,
		Deck:  []string{"snap"},
		Modes: []catalog.Mode{{ID: "base", Weight: 1}},
	}))
	require.NoError(t, cat.RegisterEnemy(&catalog.EnemyDef{
		ID: "tank", Name: "Tank", MaxHP: 50, MaxSpeed: 10, CardsPerTurn: 1, Units: 1,
		Deck:  []string{"snap"},
		Modes: []catalog.Mode{{ID: "base", Weight: 1}},
	}))
	return cat
}

func newEngine(t *testing.T, cat *catalog.Catalog) *battle.Engine {
	t.Helper()
	return battle.New(battle.DefaultRules(), cat, effect.NewRegistry(), rng.NewSeqSource(0), nil, nil)
}

func start(t *testing.T, e *battle.Engine, cat *catalog.Catalog, enemyID string, opening []string) *battle.State {
	t.Helper()
	def, ok := cat.Enemy(enemyID)
	require.True(t, ok)
	s, err := e.Start(battle.Setup{
		Enemy:       def,
		PlayerMaxHP: 30,
		Opening:     opening,
		Creations:   map[string][]string{"feint": {"strike"}},
	})
	require.NoError(t, err)
	return s
}

// tagOf finds the first hand instance of the given card ID.
func tagOf(t *testing.T, s *battle.State, id string) string {
	t.Helper()
	for _, c := range s.Hand {
		if c.Def.ID == id {
			return c.Tag
		}
	}
	t.Fatalf("no %s in hand", id)
	return ""
}

// tagsOf collects one tag per requested ID occurrence, in order.
func tagsOf(t *testing.T, s *battle.State, ids ...string) []string {
	t.Helper()
	used := make(map[string]bool)
	var tags []string
	for _, id := range ids {
		found := false
		for _, c := range s.Hand {
			if c.Def.ID == id && !used[c.Tag] {
				tags = append(tags, c.Tag)
				used[c.Tag] = true
				found = true
				break
			}
		}
		require.True(t, found, "no unused %s in hand", id)
	}
	return tags
}

// runResolve confirms and steps until resolve ends or the step budget
// runs out.
func runResolve(t *testing.T, e *battle.Engine) {
	t.Helper()
	require.NoError(t, e.Confirm())
	for i := 0; i < 50; i++ {
		s := e.State()
		if s.Phase != battle.PhaseResolve {
			return
		}
		require.NoError(t, e.Step())
	}
	t.Fatal("resolve did not finish within the step budget")
}

func TestStartEntersSelect(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "dummy", []string{"strike", "guard"})

	assert.Equal(t, battle.PhaseSelect, s.Phase)
	assert.Equal(t, 1, s.Turn)
	assert.Len(t, s.Hand, 2)
	require.NotNil(t, s.Enemy.Plan)
	assert.NotEmpty(t, s.Enemy.Plan.Actions, "enemy must have a plan on turn 1")
	assert.Equal(t, 30, s.Player.HP)
	assert.Equal(t, 10, s.Enemy.Units[0].HP)
}

func TestSubmitRejections(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "dummy", []string{
		"heavy", "heavy", "bash", "bash", "channel", "strike", "strike",
	})

	var rej *battle.Rejection

	// 7 cards over the 5-card cap.
	err := e.Submit(tagsOf(t, s, "heavy", "heavy", "bash", "bash", "channel", "strike", "strike"))
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "카드 매수 초과", rej.Reason)
	assert.Equal(t, battle.PhaseSelect, s.Phase, "rejection must not advance the phase")

	// 9 + 2 speed over the budget of 10.
	err = e.Submit(tagsOf(t, s, "heavy", "strike"))
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "속도 초과", rej.Reason)

	// 2 + 2 + 3 energy over the budget of 6, at speed 3 + 3 + 1 = 7.
	err = e.Submit(tagsOf(t, s, "bash", "bash", "channel"))
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "행동력 초과", rej.Reason)

	assert.Equal(t, battle.PhaseSelect, s.Phase)
	require.NoError(t, e.Submit(tagsOf(t, s, "strike")))
	assert.Equal(t, battle.PhaseRespond, s.Phase)
}

func TestKillEndsInVictory(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "dummy", []string{"bash"})

	require.NoError(t, e.Submit(tagsOf(t, s, "bash")))
	runResolve(t, e)

	assert.Equal(t, battle.PhaseVictory, s.Phase, "12 damage kills the 10 HP enemy")
	assert.Equal(t, battle.OutcomeHP, s.Outcome)
	assert.Equal(t, 0, s.Enemy.Units[0].HP)
	assert.Equal(t, 30, s.Player.HP, "the enemy never got to act")

	err := e.Step()
	assert.Error(t, err, "stepping a finished battle must fail")
}

func TestPairMultiplierAppliedOncePerAction(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"strike", "guard"})

	// Strike and guard share action cost 1 and form a pair.
	require.NoError(t, e.Submit(tagsOf(t, s, "strike", "guard")))
	require.Equal(t, combo.Pair, s.Combo.Name)
	require.Equal(t, 2.0, s.Combo.Multiplier)

	runResolve(t, e)

	// One matched attack at 6 damage doubles to 12, never 24.
	assert.Equal(t, 50-12, s.Enemy.Units[0].HP)
	assert.Equal(t, battle.PhasePost, s.Phase)
}

func TestUsageTokenBoostsThenConsumes(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"focus", "strike"})

	require.NoError(t, e.Submit(tagsOf(t, s, "focus", "strike")))
	runResolve(t, e)

	// Vigor grants +2 strength per stack: 6 + 2*2 = 10.
	assert.Equal(t, 50-10, s.Enemy.Units[0].HP)
	assert.Zero(t, token.Stacks(s.Player.Tokens, "vigor"), "usage stacks spend on the attack")
}

func TestTurnTokensExpireAtResolveExit(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"brand", "strike"})

	require.NoError(t, e.Submit(tagsOf(t, s, "brand")))
	require.NoError(t, e.Confirm())
	require.NoError(t, e.Step())
	assert.Equal(t, 1, token.Stacks(s.Player.Tokens, "ward"), "turn token live mid-resolve")

	for s.Phase == battle.PhaseResolve {
		require.NoError(t, e.Step())
	}
	assert.Zero(t, token.Stacks(s.Player.Tokens, "ward"), "turn tokens clear at resolve exit")
}

func TestBreachSpawnsResolvingGhosts(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"rend"})

	require.NoError(t, e.Submit(tagsOf(t, s, "rend")))
	require.NoError(t, e.Confirm())
	before := len(s.Queue)
	require.NoError(t, e.Step())
	assert.Equal(t, before+2, len(s.Queue), "breach splices two ghost copies")

	for s.Phase == battle.PhaseResolve {
		require.NoError(t, e.Step())
	}
	// 3 damage from the real swing plus 3 from each ghost; the ghosts'
	// own breach invocations are no-ops so the queue never cascades.
	assert.Equal(t, 50-9, s.Enemy.Units[0].HP)
}

func TestFlecheChoicePausesAndResumes(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"feint"})

	require.NoError(t, e.Submit(tagsOf(t, s, "feint")))
	require.NoError(t, e.Confirm())
	require.NoError(t, e.Step())
	require.NotNil(t, s.Awaiting, "fleche must pause for a choice")
	assert.Equal(t, []string{"strike"}, s.Awaiting.Options)

	err := e.Step()
	assert.Error(t, err, "stepping while awaiting must fail")

	require.NoError(t, e.Resume(0))
	assert.Nil(t, s.Awaiting)

	for s.Phase == battle.PhaseResolve {
		require.NoError(t, e.Step())
	}
	// Feint's own 2 damage plus the created strike's 6.
	assert.Equal(t, 50-8, s.Enemy.Units[0].HP)
}

func TestRepositionPlayerOnlyDuringRespond(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"strike"})

	tag := tagOf(t, s, "strike")
	err := e.Reposition(tag, 3)
	assert.Error(t, err, "repositioning outside respond must fail")

	require.NoError(t, e.Submit([]string{tag}))
	require.NoError(t, e.Reposition(tag, 3))
	found := false
	for _, a := range s.Queue {
		if a.Tag() == tag {
			assert.Equal(t, 3, a.SP)
			found = true
		}
	}
	assert.True(t, found)

	var enemyTag string
	for _, a := range s.Queue {
		if a.Owner == timeline.SideEnemy {
			enemyTag = a.Tag()
		}
	}
	require.NotEmpty(t, enemyTag)
	assert.Error(t, e.Reposition(enemyTag, -1), "enemy actions are not the player's to move")
}

func TestEtherDrainVictory(t *testing.T) {
	cat := testCatalog(t)
	require.NoError(t, cat.RegisterEnemy(&catalog.EnemyDef{
		ID: "miser", Name: "Miser", MaxHP: 50, MaxSpeed: 10, CardsPerTurn: 1, Units: 1,
		EtherPts: 20,
		Deck:     []string{"snap"},
		Modes:    []catalog.Mode{{ID: "base", Weight: 1}},
	}))
	e := newEngine(t, cat)
	def, ok := cat.Enemy("miser")
	require.True(t, ok)
	s, err := e.Start(battle.Setup{
		Enemy:       def,
		PlayerMaxHP: 30,
		PlayerEther: 100,
		Opening:     []string{"siphon"},
	})
	require.NoError(t, err)
	require.True(t, s.EtherStakes)

	require.NoError(t, e.Submit(tagsOf(t, s, "siphon")))
	runResolve(t, e)

	assert.Equal(t, battle.PhaseVictory, s.Phase)
	assert.Equal(t, battle.OutcomeEther, s.Outcome, "ether depletion is its own outcome kind")
	assert.Zero(t, s.Enemy.EtherPts)
}

func TestContinueAdvancesTurnAndRedraws(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"strike", "guard"})

	require.NoError(t, e.Submit(tagsOf(t, s, "strike")))
	runResolve(t, e)
	require.Equal(t, battle.PhasePost, s.Phase)
	assert.Len(t, s.Discard, 1, "the played card moves to discard")
	assert.Len(t, s.Hand, 1)

	require.NoError(t, e.Continue())
	assert.Equal(t, 2, s.Turn)
	assert.Equal(t, battle.PhaseSelect, s.Phase)
	assert.Len(t, s.Hand, 2, "the discard reshuffles back into the draw")
	assert.Empty(t, s.Selected)
	assert.Zero(t, s.QIndex)
}

func TestEnemyDamageReachesPlayer(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "tank", []string{"guard"})

	require.NoError(t, e.Submit(tagsOf(t, s, "guard")))
	runResolve(t, e)

	// Guard's 5 block soaks the snap's 2 damage entirely.
	assert.Equal(t, 30, s.Player.HP)
	assert.Zero(t, s.Player.Block, "block resets at resolve exit")
}

func TestSubmitUnknownTagFails(t *testing.T) {
	cat := testCatalog(t)
	e := newEngine(t, cat)
	s := start(t, e, cat, "dummy", []string{"strike"})

	err := e.Submit([]string{"no-such-tag"})
	require.Error(t, err)
	var rej *battle.Rejection
	assert.False(t, errors.As(err, &rej), "an unknown tag is a caller bug, not a rule rejection")
	assert.Equal(t, battle.PhaseSelect, s.Phase)
}
