package catalog

import (
	"errors"
	"fmt"
)

// Mode is one behavioral stance an enemy can adopt for a turn.
type Mode struct {
	ID string `yaml:"id"`
	// Weight drives the per-turn weighted mode pick.
	Weight int `yaml:"weight"`
	// Kinds are the card kinds this mode favors when planning.
	Kinds []Kind `yaml:"kinds"`
	// SpeedBias shifts planned action positions earlier (<0) or later
	// (>0) on the timeline.
	SpeedBias int `yaml:"speed_bias"`
}

// EnemyDef is the static definition of one enemy encounter entry.
// Units > 1 describes a synchronized group fighting as one side.
//
// Invariant: ID is unique across the loaded catalog; Deck entries refer
// to card IDs resolvable at plan time (unknown entries are skipped with
// a warning, never fatal).
type EnemyDef struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	MaxHP        int    `yaml:"max_hp"`
	MaxSpeed     int    `yaml:"max_speed"`
	CardsPerTurn int    `yaml:"cards_per_turn"`
	Units        int    `yaml:"units"`
	EtherPts     int    `yaml:"ether_pts"`
	Deck         []string `yaml:"deck"`
	Modes        []Mode   `yaml:"modes"`
}

// Validate checks all required fields and cross-field constraints.
//
// Postcondition: nil return guarantees non-empty ID/Name, positive
// MaxHP/MaxSpeed/CardsPerTurn, Units >= 1, a non-empty Deck, and at
// least one Mode with positive weight.
func (d *EnemyDef) Validate() error {
	if d.ID == "" {
		return errors.New("catalog.EnemyDef: ID must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("catalog.EnemyDef %q: Name must not be empty", d.ID)
	}
	if d.MaxHP <= 0 || d.MaxSpeed <= 0 || d.CardsPerTurn <= 0 {
		return fmt.Errorf("catalog.EnemyDef %q: MaxHP, MaxSpeed, and CardsPerTurn must be positive", d.ID)
	}
	if d.Units < 1 {
		return fmt.Errorf("catalog.EnemyDef %q: Units must be >= 1", d.ID)
	}
	if len(d.Deck) == 0 {
		return fmt.Errorf("catalog.EnemyDef %q: Deck must not be empty", d.ID)
	}
	selectable := false
	for _, m := range d.Modes {
		if m.ID == "" {
			return fmt.Errorf("catalog.EnemyDef %q: mode with empty ID", d.ID)
		}
		if m.Weight > 0 {
			selectable = true
		}
		for _, k := range m.Kinds {
			if !k.Valid() {
				return fmt.Errorf("catalog.EnemyDef %q mode %q: invalid kind %q", d.ID, m.ID, k)
			}
		}
	}
	if !selectable {
		return fmt.Errorf("catalog.EnemyDef %q: needs at least one mode with positive weight", d.ID)
	}
	return nil
}
