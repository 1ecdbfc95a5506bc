// Package effect implements the per-card special dispatch table. Each
// special ID maps to a handler that reads an immutable Context and
// returns a Delta describing the state changes the battle engine should
// apply. Handlers never mutate battle state directly, which keeps the
// resolver a pure function of its inputs and each handler testable in
// isolation.
package effect

import (
	"fmt"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/rng"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
)

// Snapshot is a read-only view of one entity handed to handlers.
type Snapshot struct {
	Name     string
	HP       int
	MaxHP    int
	Block    int
	Strength int
	EtherPts int
}

// QueueRef is a read-only view of one unexecuted timeline action.
type QueueRef struct {
	Tag   string
	Owner timeline.Side
	SP    int
	Ghost bool
}

// Context carries everything a handler may consult. The battle engine
// builds one Context per special invocation; handlers treat it as
// read-only.
type Context struct {
	Card *catalog.CardInstance
	// ActorSide is the side executing the action.
	ActorSide timeline.Side
	Actor     Snapshot
	Target    Snapshot
	// CurrentSP is the timeline position of the resolving action.
	CurrentSP int
	// MaxSP is the acting side's speed budget, for spawn placement.
	MaxSP int
	Turn  int
	// PendingDamage is the damage the action is about to deal before
	// any Delta adjustments.
	PendingDamage int
	// SelectedAttacks counts attack cards submitted this turn;
	// UnusedAttacks counts attack cards left in hand.
	SelectedAttacks int
	UnusedAttacks   int
	// SoloAttack is true when exactly one attack card was submitted.
	SoloAttack bool
	// Upcoming lists unexecuted actions after the current one, in
	// queue order.
	Upcoming []QueueRef
	// CreationOptions are the card IDs a creation effect may offer as
	// a player choice.
	CreationOptions []string
	Src             rng.Source
}

// Move is a repositioning request against an unexecuted action.
type Move struct {
	Tag string
	// Delta shifts SP; ignored when Freeze is set.
	Delta  int
	Freeze bool
}

// Spawn is a request to splice ghost actions into the queue tail.
type Spawn struct {
	CardID string
	SP     int
	Count  int
}

// Choice pauses the scheduler until the player picks one option.
type Choice struct {
	Prompt  string
	Options []string
}

// Delta is the full effect of one special resolution. The zero value is
// a no-op. The battle engine applies deltas; handlers only describe
// them.
type Delta struct {
	Lines []string
	// Damage pipeline adjustments for the current action.
	IgnoreBlock bool
	DamageMult  float64 // 0 means unmodified
	FlatBonus   int
	Repeat      int // extra executions of the current action
	// ExecuteBelowPct kills the target outright when its HP after
	// damage is at or below this percentage of max; 0 disables.
	ExecuteBelowPct int
	// Block interactions.
	StealBlock       bool
	ClearTargetBlock bool
	// Ether interactions.
	EtherGain  int
	EtherDrain int
	// Queue interactions.
	Moves  []Move
	Spawns []Spawn
	// Choice suspends resolution until Resume is called.
	Choice *Choice
}

// Handler resolves one special ID.
type Handler func(ctx *Context) Delta

// Registry maps special IDs to handlers. Unknown IDs resolve to a
// logged no-op, never a failure — data-driven content must not crash an
// in-progress battle.
type Registry struct {
	handlers map[string]Handler
}

// Register adds or replaces the handler for id.
//
// Precondition: id must be non-empty; h must not be nil.
func (r *Registry) Register(id string, h Handler) {
	r.handlers[id] = h
}

// Known reports whether id has a registered handler.
func (r *Registry) Known(id string) bool {
	_, ok := r.handlers[id]
	return ok
}

// Resolve dispatches id. ok is false for unknown IDs; the caller is
// expected to log the warning line and continue.
//
// Precondition: ctx must not be nil.
// Postcondition: handlers are invoked exactly once per call; the
// returned Delta for an unknown id is the zero value.
func (r *Registry) Resolve(id string, ctx *Context) (Delta, bool) {
	h, ok := r.handlers[id]
	if !ok {
		return Delta{}, false
	}
	return h(ctx), true
}

// Validate cross-checks every card special in cat against the registry,
// guarding the content pipeline at load time rather than mid-battle.
//
// Postcondition: nil return guarantees every catalog special has a
// handler.
func (r *Registry) Validate(cat *catalog.Catalog) error {
	for _, def := range cat.Cards() {
		if def.Special == "" {
			continue
		}
		if !r.Known(def.Special) {
			return fmt.Errorf("effect: card %q references unknown special %q", def.ID, def.Special)
		}
	}
	return nil
}
