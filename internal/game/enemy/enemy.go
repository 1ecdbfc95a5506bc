// Package enemy implements the per-turn enemy decision step: a weighted
// behavioural mode pick and a planned action set sized by the enemy's
// ether slots.
package enemy

import (
	"fmt"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/ether"
	"github.com/hollowmoon/etherclash/internal/game/rng"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
)

// favoredWeight is the pick weight of deck cards whose kind matches the
// active mode; other cards keep weight 1.
const favoredWeight = 3

// Plan is one turn's frozen enemy intention. Once built it is reused
// for the rest of the turn; regenerating a plan the player has already
// seen (or manually overridden) would silently change a locked-in
// commitment, which is a correctness bug.
type Plan struct {
	Mode    string            `json:"mode"`
	Actions []timeline.Action `json:"actions"`
	// ManuallyModified plans are reused verbatim across re-renders.
	ManuallyModified bool `json:"manually_modified"`
	// Revealed is how many leading actions an insight consumer may
	// show; the engine itself never filters.
	Revealed int `json:"revealed"`
}

// Build computes the enemy plan for a turn. When prev is non-nil and
// flagged ManuallyModified it is returned unchanged.
//
// Mode selection is weighted by def.Modes and sticky for the turn. The
// action count is the enemy's paid ether slot count bounded by
// CardsPerTurn (minimum 1). Unknown deck card IDs are skipped with a
// warning line. For multi-unit groups each pick expands into one real
// action for unit 0 plus synchronized ghost actions for the remaining
// units.
//
// Precondition: def, cat, and src must be non-nil.
// Postcondition: every action SP is within [0, def.MaxSpeed]; the
// returned plan is non-nil.
func Build(def *catalog.EnemyDef, cat *catalog.Catalog, etherPts, turn int, src rng.Source, prev *Plan) (*Plan, []string) {
	if prev != nil && prev.ManuallyModified {
		return prev, nil
	}

	mode := pickMode(def, src)
	count := ether.CalculateSlots(etherPts)
	if count < 1 {
		count = 1
	}
	if count > def.CardsPerTurn {
		count = def.CardsPerTurn
	}

	var lines []string
	var actions []timeline.Action
	sp := 0
	for i := 0; i < count; i++ {
		cardDef, ok := pickCard(def, cat, mode, src, &lines)
		if !ok {
			continue
		}
		sp += cardDef.SpeedCost + mode.SpeedBias
		if sp < 0 {
			sp = 0
		}
		if sp > def.MaxSpeed {
			sp = def.MaxSpeed
		}
		actions = append(actions, timeline.Action{
			Owner: timeline.SideEnemy,
			Unit:  0,
			Card:  catalog.Instantiate(cardDef),
			SP:    sp,
		})
		// Synchronized ghosts make the whole group act together.
		for unit := 1; unit < def.Units; unit++ {
			actions = append(actions, timeline.Action{
				Owner: timeline.SideEnemy,
				Unit:  unit,
				Card:  catalog.InstantiateGhost(cardDef),
				SP:    sp,
			})
		}
	}

	return &Plan{Mode: mode.ID, Actions: actions}, lines
}

// pickMode runs the weighted mode selection.
func pickMode(def *catalog.EnemyDef, src rng.Source) catalog.Mode {
	weights := make([]int, len(def.Modes))
	for i, m := range def.Modes {
		weights[i] = m.Weight
	}
	idx := rng.WeightedIndex(src, weights)
	if idx < 0 {
		// Validation guarantees a selectable mode; clamp defensively.
		idx = 0
	}
	return def.Modes[idx]
}

// pickCard draws one card ID from the enemy deck, favoring the active
// mode's kinds. Unknown IDs collect a warning line and are excluded
// from the draw.
func pickCard(def *catalog.EnemyDef, cat *catalog.Catalog, mode catalog.Mode, src rng.Source, lines *[]string) (*catalog.CardDef, bool) {
	var defs []*catalog.CardDef
	var weights []int
	seenUnknown := map[string]bool{}
	for _, id := range def.Deck {
		cardDef, ok := cat.Card(id)
		if !ok {
			if !seenUnknown[id] {
				seenUnknown[id] = true
				*lines = append(*lines, fmt.Sprintf("enemy %s: unknown card %q skipped", def.ID, id))
			}
			continue
		}
		w := 1
		for _, k := range mode.Kinds {
			if cardDef.Kind == k {
				w = favoredWeight
				break
			}
		}
		defs = append(defs, cardDef)
		weights = append(weights, w)
	}
	if len(defs) == 0 {
		return nil, false
	}
	idx := rng.WeightedIndex(src, weights)
	if idx < 0 {
		return nil, false
	}
	return defs[idx], true
}
