// Package deck implements the draw pile collaborator: deck
// initialization from a character build and drawing with reshuffle and
// escape-ban diversion.
package deck

import (
	"fmt"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/rng"
)

// EscapeTrait marks cards that can be diverted to the discard pile by an
// escape ban instead of being drawn.
const EscapeTrait = "escape"

// SubSpecialtyTrait marks cards that are placed on top of the deck when
// the discard pile is reshuffled.
const SubSpecialtyTrait = "sub_specialty"

// GrowthState is the per-card growth overlay applied at initialization.
type GrowthState struct {
	Enhance int
	Traits  []string
}

// Build describes a character build for deck initialization.
type Build struct {
	// DeckCards are the card IDs shuffled into the draw pile.
	DeckCards []string
	// MainSpecials are drawn into the opening hand, never shuffled.
	MainSpecials []string
}

// DrawResult is the outcome of one Draw call.
type DrawResult struct {
	Drawn      []*catalog.CardInstance
	Deck       []*catalog.CardInstance
	Discard    []*catalog.CardInstance
	Reshuffled bool
}

// Draw removes up to count cards from the top of deck. When the deck
// runs out and the discard pile is non-empty, the discard is reshuffled
// into a new deck exactly once: sub-specialty cards go on top, the rest
// are shuffled beneath them. Cards carrying the escape trait whose
// definition ID appears in escapeBan are diverted to the discard pile
// instead of being drawn.
//
// Precondition: count >= 0; src must be non-nil.
// Postcondition: len(result.Drawn) <= count; at most one reshuffle
// occurs; every input card appears in exactly one of Drawn, Deck, or
// Discard (conservation).
func Draw(deck, discard []*catalog.CardInstance, count int, escapeBan map[string]bool, src rng.Source) DrawResult {
	curDeck := append([]*catalog.CardInstance(nil), deck...)
	curDiscard := append([]*catalog.CardInstance(nil), discard...)
	var drawn []*catalog.CardInstance
	reshuffled := false

	for len(drawn) < count {
		if len(curDeck) == 0 {
			if reshuffled || len(curDiscard) == 0 {
				break
			}
			curDeck = reshuffle(curDiscard, src)
			curDiscard = nil
			reshuffled = true
			continue
		}
		card := curDeck[0]
		curDeck = curDeck[1:]
		if card.HasTrait(EscapeTrait) && escapeBan[card.Def.ID] {
			curDiscard = append(curDiscard, card)
			continue
		}
		drawn = append(drawn, card)
	}

	return DrawResult{Drawn: drawn, Deck: curDeck, Discard: curDiscard, Reshuffled: reshuffled}
}

// reshuffle builds a fresh deck from the discard pile: sub-specialty
// cards keep their relative order on top, everything else is shuffled
// beneath them.
func reshuffle(discard []*catalog.CardInstance, src rng.Source) []*catalog.CardInstance {
	var subs, rest []*catalog.CardInstance
	for _, c := range discard {
		if c.HasTrait(SubSpecialtyTrait) {
			subs = append(subs, c)
		} else {
			rest = append(rest, c)
		}
	}
	rng.Shuffle(src, rest)
	return append(subs, rest...)
}

// Initialize builds the draw pile and opening specials hand from a
// character build. Vanished card IDs are excluded; growth state applies
// enhancement levels and grown traits per card ID. Unknown card IDs are
// skipped with a warning line rather than failing — bad content must
// never prevent a battle from starting.
//
// Precondition: cat and src must be non-nil.
// Postcondition: returned deck is shuffled; every instance carries a
// unique tag.
func Initialize(cat *catalog.Catalog, build Build, vanished map[string]bool, growth map[string]GrowthState, src rng.Source) (deckOut, opening []*catalog.CardInstance, lines []string) {
	instantiate := func(id string) *catalog.CardInstance {
		def, ok := cat.Card(id)
		if !ok {
			lines = append(lines, fmt.Sprintf("unknown card %q skipped", id))
			return nil
		}
		c := catalog.Instantiate(def)
		if g, ok := growth[id]; ok {
			c.Enhance = g.Enhance
			c.GrownTraits = append(c.GrownTraits, g.Traits...)
		}
		return c
	}

	for _, id := range build.DeckCards {
		if vanished[id] {
			continue
		}
		if c := instantiate(id); c != nil {
			deckOut = append(deckOut, c)
		}
	}
	rng.Shuffle(src, deckOut)

	for _, id := range build.MainSpecials {
		if c := instantiate(id); c != nil {
			opening = append(opening, c)
		}
	}
	return deckOut, opening, lines
}

// FixedOpening instantiates the given card IDs in order, skipping
// unknown entries. It is the legacy fixed-hand fallback used by tests
// and the demo harness when no character build is configured; the
// deck/discard path is the primary one.
//
// Precondition: cat must be non-nil.
func FixedOpening(cat *catalog.Catalog, ids []string) []*catalog.CardInstance {
	var out []*catalog.CardInstance
	for _, id := range ids {
		if def, ok := cat.Card(id); ok {
			out = append(out, catalog.Instantiate(def))
		}
	}
	return out
}
