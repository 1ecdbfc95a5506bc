// Package timeline implements the merged action queue at the heart of
// battle resolution: player and enemy actions keyed by speed position,
// merged into one deterministically ordered queue and stepped by the
// battle engine.
package timeline

import (
	"sort"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
)

// Side identifies the owner of a timeline action.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Action is one scheduled card execution. Multiple actions may share an
// SP; ties are broken ghost-first, then by original relative order.
//
// Invariant: SP >= 0 and SP <= the owning side's max speed, except for
// transient overflow during mid-resolve repositioning (clamped before
// the next step).
type Action struct {
	Owner Side
	// Unit indexes the acting enemy unit for enemy actions; 0 for the
	// player.
	Unit int
	Card *catalog.CardInstance
	SP   int
	// Frozen actions refuse further repositioning.
	Frozen bool
}

// Ghost reports whether the action was scheduler-inserted mid-resolve
// rather than chosen during select.
func (a Action) Ghost() bool { return a.Card != nil && a.Card.Ghost }

// Tag returns the acting card's instance tag, or "" if cardless.
func (a Action) Tag() string {
	if a.Card == nil {
		return ""
	}
	return a.Card.Tag
}

// PlayerActions assigns cumulative SPs to the selected cards: each
// card's SP is the running sum of the speed costs of every card before
// it in chosen order.
//
// Precondition: every card must be non-nil.
// Postcondition: len(result) == len(selected); SPs are non-decreasing.
func PlayerActions(selected []*catalog.CardInstance) []Action {
	actions := make([]Action, 0, len(selected))
	sp := 0
	for _, c := range selected {
		actions = append(actions, Action{Owner: SidePlayer, Card: c, SP: sp})
		sp += c.Def.SpeedCost
	}
	return actions
}

// Build merges player and enemy actions into one ascending-SP queue.
// Tie-break on equal SP: ghost actions sort before non-ghost actions;
// otherwise the original relative order is preserved (stable sort).
//
// Postcondition: result is sorted ascending by SP with the documented
// tie-break; len(result) == len(player) + len(enemy).
func Build(player, enemy []Action) []Action {
	queue := make([]Action, 0, len(player)+len(enemy))
	queue = append(queue, player...)
	queue = append(queue, enemy...)
	sortActions(queue)
	return queue
}

// SpliceTail inserts acts into the unexecuted portion of queue (from
// qIndex onward) and re-sorts only that tail. The executed prefix is
// never reordered.
//
// Precondition: 0 <= qIndex <= len(queue).
// Postcondition: result[:qIndex] is identical to queue[:qIndex]; the
// tail is sorted by SP with the ghost-first tie-break.
func SpliceTail(queue []Action, qIndex int, acts []Action) []Action {
	if qIndex < 0 {
		qIndex = 0
	}
	if qIndex > len(queue) {
		qIndex = len(queue)
	}
	head := append([]Action(nil), queue[:qIndex]...)
	tail := append([]Action(nil), queue[qIndex:]...)
	tail = append(tail, acts...)
	sortActions(tail)
	return append(head, tail...)
}

// Reposition shifts the SP of the action with the given card tag by
// delta, clamping into [0, maxSP]. Frozen actions and actions in the
// executed prefix are untouched. The unexecuted tail is re-sorted.
//
// Postcondition: every unexecuted action's SP remains within [0, maxSP];
// returns true iff an action was moved.
func Reposition(queue []Action, qIndex int, tag string, delta, maxSP int) bool {
	moved := false
	for i := qIndex; i < len(queue); i++ {
		if queue[i].Tag() != tag || queue[i].Frozen {
			continue
		}
		sp := queue[i].SP + delta
		if sp < 0 {
			sp = 0
		}
		if sp > maxSP {
			sp = maxSP
		}
		queue[i].SP = sp
		moved = true
		break
	}
	if moved {
		tail := queue[qIndex:]
		sortActions(tail)
	}
	return moved
}

// Freeze marks the unexecuted action with the given tag as immune to
// further repositioning.
//
// Postcondition: returns true iff an action was frozen.
func Freeze(queue []Action, qIndex int, tag string) bool {
	for i := qIndex; i < len(queue); i++ {
		if queue[i].Tag() == tag {
			queue[i].Frozen = true
			return true
		}
	}
	return false
}

// sortActions sorts in place: ascending SP, ghosts before non-ghosts on
// ties, stable otherwise.
func sortActions(acts []Action) {
	sort.SliceStable(acts, func(i, j int) bool {
		if acts[i].SP != acts[j].SP {
			return acts[i].SP < acts[j].SP
		}
		return acts[i].Ghost() && !acts[j].Ghost()
	})
}
