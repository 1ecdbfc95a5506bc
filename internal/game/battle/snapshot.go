package battle

import (
	"encoding/json"
	"fmt"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/enemy"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
)

// snapshotVersion guards the wire layout; Restore rejects anything else.
const snapshotVersion = 1

// snapCard is the persisted form of a card instance: the definition is
// stored by ID and re-linked against the catalog on restore.
type snapCard struct {
	CardID      string   `json:"card_id"`
	Tag         string   `json:"tag"`
	Ghost       bool     `json:"ghost,omitempty"`
	Enhance     int      `json:"enhance,omitempty"`
	GrownTraits []string `json:"grown_traits,omitempty"`
}

type snapAction struct {
	Owner  timeline.Side `json:"owner"`
	Unit   int           `json:"unit"`
	Card   snapCard      `json:"card"`
	SP     int           `json:"sp"`
	Frozen bool          `json:"frozen,omitempty"`
}

type snapPlan struct {
	Mode             string       `json:"mode"`
	Actions          []snapAction `json:"actions"`
	ManuallyModified bool         `json:"manually_modified"`
	Revealed         int          `json:"revealed"`
}

// snapshot is the full persisted battle. Card-bearing fields are
// carried here rather than on State so every definition pointer
// round-trips as a catalog ID.
type snapshot struct {
	Version  int        `json:"version"`
	State    *State     `json:"state"`
	Hand     []snapCard `json:"hand,omitempty"`
	Deck     []snapCard `json:"deck,omitempty"`
	Discard  []snapCard `json:"discard,omitempty"`
	Selected []snapCard   `json:"selected,omitempty"`
	Queue    []snapAction `json:"queue,omitempty"`
	Plan  *snapPlan    `json:"plan,omitempty"`
}

func toSnapCard(c *catalog.CardInstance) snapCard {
	return snapCard{
		CardID:      c.Def.ID,
		Tag:         c.Tag,
		Ghost:       c.Ghost,
		Enhance:     c.Enhance,
		GrownTraits: c.GrownTraits,
	}
}

func toSnapCards(cards []*catalog.CardInstance) []snapCard {
	if len(cards) == 0 {
		return nil
	}
	out := make([]snapCard, len(cards))
	for i, c := range cards {
		out[i] = toSnapCard(c)
	}
	return out
}

func toSnapActions(acts []timeline.Action) []snapAction {
	if len(acts) == 0 {
		return nil
	}
	out := make([]snapAction, len(acts))
	for i, a := range acts {
		out[i] = snapAction{
			Owner:  a.Owner,
			Unit:   a.Unit,
			Card:   toSnapCard(a.Card),
			SP:     a.SP,
			Frozen: a.Frozen,
		}
	}
	return out
}

// Snapshot serializes s as versioned JSON. The result restores to an
// equivalent state: stepping a restored battle produces the same
// positions and stats as stepping the original.
//
// Precondition: s must not be nil.
func Snapshot(s *State) ([]byte, error) {
	// Plan actions carry instance pointers; strip them from the State
	// copy and carry them in ID form.
	flat := *s
	flat.Enemy.Plan = nil

	snap := snapshot{
		Version:  snapshotVersion,
		State:    &flat,
		Hand:     toSnapCards(s.Hand),
		Deck:     toSnapCards(s.Deck),
		Discard:  toSnapCards(s.Discard),
		Selected: toSnapCards(s.Selected),
		Queue:    toSnapActions(s.Queue),
	}
	if p := s.Enemy.Plan; p != nil {
		snap.Plan = &snapPlan{
			Mode:             p.Mode,
			Actions:          toSnapActions(p.Actions),
			ManuallyModified: p.ManuallyModified,
			Revealed:         p.Revealed,
		}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("battle: snapshot failed: %w", err)
	}
	return data, nil
}

// Restore deserializes a Snapshot, re-linking card definitions against
// cat. Unknown versions and unknown card IDs are errors: a snapshot
// that cannot round-trip faithfully must not produce a playable state.
//
// Precondition: cat must be non-nil.
func Restore(data []byte, cat *catalog.Catalog) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("battle: snapshot decode failed: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("battle: unsupported snapshot version %d", snap.Version)
	}
	if snap.State == nil {
		return nil, fmt.Errorf("battle: snapshot has no state")
	}
	s := snap.State

	fromCard := func(sc snapCard) (*catalog.CardInstance, error) {
		def, ok := cat.Card(sc.CardID)
		if !ok {
			return nil, fmt.Errorf("battle: snapshot references unknown card %q", sc.CardID)
		}
		return &catalog.CardInstance{
			Def:         def,
			Tag:         sc.Tag,
			Ghost:       sc.Ghost,
			Enhance:     sc.Enhance,
			GrownTraits: sc.GrownTraits,
		}, nil
	}
	fromCards := func(scs []snapCard) ([]*catalog.CardInstance, error) {
		if len(scs) == 0 {
			return nil, nil
		}
		out := make([]*catalog.CardInstance, len(scs))
		for i, sc := range scs {
			c, err := fromCard(sc)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	fromActions := func(sas []snapAction) ([]timeline.Action, error) {
		if len(sas) == 0 {
			return nil, nil
		}
		out := make([]timeline.Action, len(sas))
		for i, sa := range sas {
			c, err := fromCard(sa.Card)
			if err != nil {
				return nil, err
			}
			out[i] = timeline.Action{
				Owner:  sa.Owner,
				Unit:   sa.Unit,
				Card:   c,
				SP:     sa.SP,
				Frozen: sa.Frozen,
			}
		}
		return out, nil
	}

	var err error
	if s.Hand, err = fromCards(snap.Hand); err != nil {
		return nil, err
	}
	if s.Deck, err = fromCards(snap.Deck); err != nil {
		return nil, err
	}
	if s.Discard, err = fromCards(snap.Discard); err != nil {
		return nil, err
	}
	if s.Selected, err = fromCards(snap.Selected); err != nil {
		return nil, err
	}
	if s.Queue, err = fromActions(snap.Queue); err != nil {
		return nil, err
	}
	if snap.Plan != nil {
		acts, err := fromActions(snap.Plan.Actions)
		if err != nil {
			return nil, err
		}
		s.Enemy.Plan = &enemy.Plan{
			Mode:             snap.Plan.Mode,
			Actions:          acts,
			ManuallyModified: snap.Plan.ManuallyModified,
			Revealed:         snap.Plan.Revealed,
		}
	}
	return s, nil
}
