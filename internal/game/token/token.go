// Package token implements the stacked status-effect engine. Tokens are
// owned by one entity and live in one of three disjoint lifetime scopes:
// usage (consumed by the next qualifying action), turn (cleared at the
// owning turn's resolve exit), and permanent (explicit removal only).
//
// Every operation is pure: it takes a Store value and returns the new
// Store plus human-readable log lines describing the diff. The engine
// produces no other side effects, so callers can test it in isolation
// and merge the lines into the battle log.
package token

import (
	"fmt"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
)

// Scope is a token lifetime class.
type Scope string

const (
	ScopeUsage     Scope = "usage"
	ScopeTurn      Scope = "turn"
	ScopePermanent Scope = "permanent"
)

// RemoveAll is the sentinel amount meaning "remove every stack".
const RemoveAll = 99

// ParseScope converts s into a Scope.
//
// Postcondition: ok is true iff s names one of the three scopes.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case ScopeUsage, ScopeTurn, ScopePermanent:
		return Scope(s), true
	}
	return "", false
}

// Stack is one token entry within a scope.
//
// Invariant: Stacks > 0; a token with zero stacks is absent, never
// stored as zero.
type Stack struct {
	TokenID string `json:"token_id"`
	Stacks  int    `json:"stacks"`
	// AppliedTurn is the turn number the stack was granted on.
	AppliedTurn int `json:"applied_turn"`
	// AppliedSP is the timeline position at grant time; 0 for grants
	// made outside the resolve phase.
	AppliedSP int `json:"applied_sp"`
}

// Store holds one entity's tokens across the three scopes.
// Store is a value type; operations return updated copies.
type Store struct {
	Usage     []Stack `json:"usage,omitempty"`
	Turn      []Stack `json:"turn,omitempty"`
	Permanent []Stack `json:"permanent,omitempty"`
}

// Lookup resolves a token ID to its definition. Unknown IDs are the
// caller's data-integrity concern; the engine never fails on them.
type Lookup func(id string) (*catalog.TokenDef, bool)

// scopeList returns the stack list for scope.
func (s Store) scopeList(scope Scope) []Stack {
	switch scope {
	case ScopeUsage:
		return s.Usage
	case ScopeTurn:
		return s.Turn
	default:
		return s.Permanent
	}
}

// withScope returns a copy of s with the given scope's list replaced.
func (s Store) withScope(scope Scope, list []Stack) Store {
	switch scope {
	case ScopeUsage:
		s.Usage = list
	case ScopeTurn:
		s.Turn = list
	default:
		s.Permanent = list
	}
	return s
}

// cloneList copies a stack list so callers never alias the old store.
func cloneList(list []Stack) []Stack {
	out := make([]Stack, len(list))
	copy(out, list)
	return out
}

// Add merges stacks of def into the owner's scope list, creating the
// entry if absent and capping at def.MaxStacks when set.
//
// Precondition: def must not be nil; stacks > 0.
// Postcondition: StacksIn(result, scope, def.ID) ==
// min(old+stacks, cap); returned lines describe the grant.
func Add(s Store, def *catalog.TokenDef, owner string, stacks int, scope Scope, turn, sp int) (Store, []string) {
	if def == nil || stacks <= 0 {
		return s, nil
	}
	list := cloneList(s.scopeList(scope))
	applied := stacks
	found := false
	for i := range list {
		if list[i].TokenID != def.ID {
			continue
		}
		next := list[i].Stacks + stacks
		if def.MaxStacks > 0 && next > def.MaxStacks {
			applied = def.MaxStacks - list[i].Stacks
			next = def.MaxStacks
		}
		list[i].Stacks = next
		found = true
		break
	}
	if !found {
		if def.MaxStacks > 0 && applied > def.MaxStacks {
			applied = def.MaxStacks
		}
		list = append(list, Stack{TokenID: def.ID, Stacks: applied, AppliedTurn: turn, AppliedSP: sp})
	}
	if applied <= 0 {
		return s, nil
	}
	line := fmt.Sprintf("%s gains %s x%d (%s)", owner, def.Name, applied, scope)
	return s.withScope(scope, list), []string{line}
}

// Remove subtracts amount stacks of id from scope. RemoveAll (or any
// amount >= the current count) deletes the entry.
//
// Postcondition: StacksIn(result, scope, id) == max(0, old-amount);
// entries never persist at zero stacks.
func Remove(s Store, lookup Lookup, owner, id string, scope Scope, amount int) (Store, []string) {
	if amount <= 0 {
		return s, nil
	}
	list := cloneList(s.scopeList(scope))
	for i := range list {
		if list[i].TokenID != id {
			continue
		}
		name := id
		if def, ok := lookup(id); ok {
			name = def.Name
		}
		removed := amount
		if amount >= list[i].Stacks || amount == RemoveAll {
			removed = list[i].Stacks
			list = append(list[:i], list[i+1:]...)
		} else {
			list[i].Stacks -= amount
		}
		line := fmt.Sprintf("%s loses %s x%d (%s)", owner, name, removed, scope)
		return s.withScope(scope, list), []string{line}
	}
	return s, nil
}

// Stacks returns the total stack count of id across all three scopes.
func Stacks(s Store, id string) int {
	total := 0
	for _, scope := range []Scope{ScopeUsage, ScopeTurn, ScopePermanent} {
		total += StacksIn(s, scope, id)
	}
	return total
}

// StacksIn returns the stack count of id within one scope.
//
// Postcondition: returns >= 0.
func StacksIn(s Store, scope Scope, id string) int {
	for _, st := range s.scopeList(scope) {
		if st.TokenID == id {
			return st.Stacks
		}
	}
	return 0
}

// Flat is one entry of the unified view produced by Flatten.
type Flat struct {
	TokenID string
	Stacks  int
	Scope   Scope
}

// Flatten returns the three scope lists as one slice for consumers (UI,
// effect resolver) that need a unified view. Order: usage, turn,
// permanent, each in insertion order.
func Flatten(s Store) []Flat {
	out := make([]Flat, 0, len(s.Usage)+len(s.Turn)+len(s.Permanent))
	for _, scope := range []Scope{ScopeUsage, ScopeTurn, ScopePermanent} {
		for _, st := range s.scopeList(scope) {
			out = append(out, Flat{TokenID: st.TokenID, Stacks: st.Stacks, Scope: scope})
		}
	}
	return out
}

// ConsumeUsage removes every usage-scope stack of id, returning the
// count consumed. The resolver calls this the instant a qualifying
// action resolves; usage tokens are single-shot.
//
// Postcondition: StacksIn(result, ScopeUsage, id) == 0.
func ConsumeUsage(s Store, lookup Lookup, owner, id string) (Store, int, []string) {
	n := StacksIn(s, ScopeUsage, id)
	if n == 0 {
		return s, 0, nil
	}
	out, lines := Remove(s, lookup, owner, id, ScopeUsage, RemoveAll)
	return out, n, lines
}

// ExpireTurn clears turn-scope stacks whose granting turn has fully
// elapsed at the resolve exit of turn. Stacks granted mid-resolve of the
// current turn (AppliedSP > 0 and AppliedTurn == turn) survive until the
// next turn boundary.
//
// Postcondition: surviving turn-scope stacks all have
// AppliedTurn == turn && AppliedSP > 0.
func ExpireTurn(s Store, lookup Lookup, owner string, turn int) (Store, []string) {
	var kept []Stack
	var lines []string
	for _, st := range s.Turn {
		if st.AppliedTurn == turn && st.AppliedSP > 0 {
			kept = append(kept, st)
			continue
		}
		name := st.TokenID
		if def, ok := lookup(st.TokenID); ok {
			name = def.Name
		}
		lines = append(lines, fmt.Sprintf("%s: %s expires", owner, name))
	}
	s.Turn = kept
	return s, lines
}

// ExpireAtPosition removes position-bound stacks whose granting position
// lies beyond the current timeline cursor. This only happens when a
// repositioning effect moved the granting action, or a new resolve reset
// the cursor; the check runs after every scheduler step.
//
// Precondition: sp >= 0.
func ExpireAtPosition(s Store, lookup Lookup, owner string, sp int) (Store, []string) {
	var lines []string
	for _, scope := range []Scope{ScopeUsage, ScopeTurn} {
		var kept []Stack
		for _, st := range s.scopeList(scope) {
			def, ok := lookup(st.TokenID)
			if ok && def.PositionBound && st.AppliedSP > sp {
				lines = append(lines, fmt.Sprintf("%s: %s fades", owner, def.Name))
				continue
			}
			kept = append(kept, st)
		}
		s = s.withScope(scope, kept)
	}
	return s, lines
}
