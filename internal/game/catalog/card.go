// Package catalog holds the static content definitions of the battle
// engine — cards, status tokens, traits, and enemies — loaded from YAML
// files, plus the per-instance card overlay used at runtime.
//
// Definitions are pure lookup data: no behavior lives here. Behavior is
// attached by the effect registry (specials) and the token engine
// (token semantics).
package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies a card for flush detection and AI mode filters.
type Kind string

const (
	KindAttack  Kind = "attack"
	KindDefense Kind = "defense"
	KindSupport Kind = "support"
	KindSpecial Kind = "special"
)

// Valid reports whether k is one of the four card kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAttack, KindDefense, KindSupport, KindSpecial:
		return true
	}
	return false
}

// AppliedToken describes a token a card grants when it resolves.
type AppliedToken struct {
	Token  string `yaml:"token"`
	Stacks int    `yaml:"stacks"`
	Scope  string `yaml:"scope"`  // "usage" | "turn" | "permanent"
	Target string `yaml:"target"` // "self" | "enemy"
}

// CardDef is the immutable catalog entry for one card.
//
// Invariant: ID is unique across the loaded catalog.
type CardDef struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Kind       Kind           `yaml:"kind"`
	ActionCost int            `yaml:"action_cost"`
	SpeedCost  int            `yaml:"speed_cost"`
	Damage     int            `yaml:"damage"`
	Block      int            `yaml:"block"`
	Hits       int            `yaml:"hits"`
	Traits     []string       `yaml:"traits"`
	Special    string         `yaml:"special"`
	Tokens     []AppliedToken `yaml:"applied_tokens"`
}

// Validate checks the required fields of a CardDef.
//
// Postcondition: nil return guarantees non-empty ID and Name, a valid
// Kind, and non-negative costs and stats.
func (d *CardDef) Validate() error {
	if d.ID == "" {
		return errors.New("catalog.CardDef: ID must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("catalog.CardDef %q: Name must not be empty", d.ID)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("catalog.CardDef %q: invalid kind %q", d.ID, d.Kind)
	}
	if d.ActionCost < 0 || d.SpeedCost < 0 {
		return fmt.Errorf("catalog.CardDef %q: costs must be non-negative", d.ID)
	}
	if d.Damage < 0 || d.Block < 0 || d.Hits < 0 {
		return fmt.Errorf("catalog.CardDef %q: stats must be non-negative", d.ID)
	}
	for _, at := range d.Tokens {
		if at.Token == "" || at.Stacks <= 0 {
			return fmt.Errorf("catalog.CardDef %q: applied token needs id and positive stacks", d.ID)
		}
	}
	return nil
}

// HasTrait reports whether the definition carries the named trait.
func (d *CardDef) HasTrait(trait string) bool {
	for _, t := range d.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// CardInstance is one concrete copy of a card as it moves through deck,
// hand, discard, and timeline. The Tag identifies the copy across all of
// those; two instances of the same CardDef never share a Tag.
type CardInstance struct {
	Def *CardDef
	// Tag is the unique hand-identity of this copy.
	Tag string
	// Ghost marks scheduler-created copies that never count toward
	// combo detection and sort first on timeline ties.
	Ghost bool
	// Enhance is the enhancement level applied by growth effects.
	Enhance int
	// GrownTraits are traits granted to this copy only.
	GrownTraits []string
}

// Instantiate creates a fresh CardInstance of def with a new unique tag.
//
// Precondition: def must not be nil.
func Instantiate(def *CardDef) *CardInstance {
	if def == nil {
		panic("catalog.Instantiate: def must not be nil")
	}
	return &CardInstance{Def: def, Tag: uuid.NewString()}
}

// InstantiateGhost creates a ghost copy of def (scheduler-inserted).
//
// Precondition: def must not be nil.
// Postcondition: returned instance has Ghost == true and a fresh Tag.
func InstantiateGhost(def *CardDef) *CardInstance {
	c := Instantiate(def)
	c.Ghost = true
	return c
}

// Damage returns the instance damage stat including enhancement.
func (c *CardInstance) Damage() int { return c.Def.Damage + c.Enhance }

// Block returns the instance block stat including enhancement.
func (c *CardInstance) Block() int {
	if c.Def.Block == 0 {
		return 0
	}
	return c.Def.Block + c.Enhance
}

// Hits returns the number of hits, minimum 1.
func (c *CardInstance) Hits() int {
	if c.Def.Hits < 1 {
		return 1
	}
	return c.Def.Hits
}

// HasTrait reports whether the instance carries trait, either from its
// definition or from growth.
func (c *CardInstance) HasTrait(trait string) bool {
	if c.Def.HasTrait(trait) {
		return true
	}
	for _, t := range c.GrownTraits {
		if t == trait {
			return true
		}
	}
	return false
}
