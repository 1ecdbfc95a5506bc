package catalog

import (
	"errors"
	"fmt"
)

// TokenDef is the static definition of a status-effect token.
//
// Invariant: ID is unique across the loaded catalog.
type TokenDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// MaxStacks caps the stack count; 0 means uncapped.
	MaxStacks int `yaml:"max_stacks"`
	// StrengthBonus is added to outgoing damage per stack.
	StrengthBonus int `yaml:"strength_bonus"`
	// SpeedBonus is added to the owner's max speed per stack.
	SpeedBonus int `yaml:"speed_bonus"`
	// BlockPerStep grants block per stack for every timeline step the
	// cursor advances past the granting action (position-bound tokens
	// such as growing defense).
	BlockPerStep int `yaml:"block_per_step"`
	// RetainBlock keeps the owner's block through turn-end reset
	// (vigilance-class tokens).
	RetainBlock bool `yaml:"retain_block"`
	// PositionBound tokens live relative to the timeline cursor rather
	// than the turn clock.
	PositionBound bool `yaml:"position_bound"`
}

// Validate checks the required fields of a TokenDef.
//
// Postcondition: nil return guarantees non-empty ID and Name and a
// non-negative MaxStacks.
func (d *TokenDef) Validate() error {
	if d.ID == "" {
		return errors.New("catalog.TokenDef: ID must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("catalog.TokenDef %q: Name must not be empty", d.ID)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("catalog.TokenDef %q: MaxStacks must be non-negative", d.ID)
	}
	return nil
}
