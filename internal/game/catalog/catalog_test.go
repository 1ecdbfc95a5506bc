package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadCards_ParsesAndRegisters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
- id: strike
  name: Strike
  kind: attack
  action_cost: 1
  speed_cost: 3
  damage: 6
- id: guard
  name: Guard
  kind: defense
  action_cost: 1
  speed_cost: 2
  block: 5
  applied_tokens:
    - token: vigilance
      stacks: 1
      scope: turn
      target: self
`)

	cat := catalog.New()
	require.NoError(t, cat.LoadCards(dir))

	strike, ok := cat.Card("strike")
	require.True(t, ok, "strike must be registered")
	assert.Equal(t, catalog.KindAttack, strike.Kind)
	assert.Equal(t, 6, strike.Damage)

	guard, ok := cat.Card("guard")
	require.True(t, ok)
	require.Len(t, guard.Tokens, 1)
	assert.Equal(t, "vigilance", guard.Tokens[0].Token)
}

func TestLoadCards_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
- id: strike
  name: Strike
  kind: attack
  bogus_field: 1
`)
	err := catalog.New().LoadCards(dir)
	require.Error(t, err, "unknown fields must fail strict decoding")
}

func TestLoadCards_InvalidKindRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
- id: strike
  name: Strike
  kind: sorcery
`)
	err := catalog.New().LoadCards(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestLoadEnemies_SingleDefPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "slime.yaml", `
id: slime
name: Gel Slime
max_hp: 30
max_speed: 10
cards_per_turn: 2
units: 1
ether_pts: 120
deck: [bash, harden]
modes:
  - id: aggressive
    weight: 3
    kinds: [attack]
  - id: defensive
    weight: 1
    kinds: [defense]
    speed_bias: 2
`)
	cat := catalog.New()
	require.NoError(t, cat.LoadEnemies(dir))
	def, ok := cat.Enemy("slime")
	require.True(t, ok)
	assert.Equal(t, 2, def.CardsPerTurn)
	assert.Len(t, def.Modes, 2)
}

func TestEnemyDef_Validate_NeedsSelectableMode(t *testing.T) {
	def := &catalog.EnemyDef{
		ID: "e", Name: "E", MaxHP: 10, MaxSpeed: 10, CardsPerTurn: 1,
		Units: 1, Deck: []string{"bash"},
		Modes: []catalog.Mode{{ID: "idle", Weight: 0}},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive weight")
}

func TestInstantiate_UniqueTags(t *testing.T) {
	def := &catalog.CardDef{ID: "strike", Name: "Strike", Kind: catalog.KindAttack}
	a := catalog.Instantiate(def)
	b := catalog.Instantiate(def)
	assert.NotEmpty(t, a.Tag)
	assert.NotEqual(t, a.Tag, b.Tag, "each instance carries its own hand-identity tag")
	assert.False(t, a.Ghost)

	g := catalog.InstantiateGhost(def)
	assert.True(t, g.Ghost)
}

func TestCardInstance_EnhanceAndTraits(t *testing.T) {
	def := &catalog.CardDef{
		ID: "fleche", Name: "Fleche", Kind: catalog.KindAttack,
		Damage: 4, Hits: 2, Traits: []string{"escape"},
	}
	c := catalog.Instantiate(def)
	c.Enhance = 2
	c.GrownTraits = []string{"cooperation"}

	assert.Equal(t, 6, c.Damage(), "enhancement adds to damage")
	assert.Equal(t, 2, c.Hits())
	assert.True(t, c.HasTrait("escape"))
	assert.True(t, c.HasTrait("cooperation"), "grown traits count")
	assert.False(t, c.HasTrait("outcast"))
}

func TestCardInstance_HitsMinimumOne(t *testing.T) {
	def := &catalog.CardDef{ID: "guard", Name: "Guard", Kind: catalog.KindDefense, Block: 5}
	c := catalog.Instantiate(def)
	assert.Equal(t, 1, c.Hits())
	assert.Equal(t, 5, c.Block())
}
