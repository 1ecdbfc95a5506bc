// Package battle implements the turn state machine that ties the
// scheduler, token engine, combo detector, effect resolver, and enemy
// decision module into one resolvable battle.
//
// Phases advance select → respond → resolve → post and loop back to
// select; victory and defeat are terminal. Every mutation funnels
// through the Engine so the battle log and phase invariants stay
// consistent.
package battle

import (
	"github.com/hollowmoon/etherclash/internal/game/catalog"
	"github.com/hollowmoon/etherclash/internal/game/combo"
	"github.com/hollowmoon/etherclash/internal/game/enemy"
	"github.com/hollowmoon/etherclash/internal/game/timeline"
	"github.com/hollowmoon/etherclash/internal/game/token"
)

// Phase is the battle turn phase.
type Phase string

const (
	PhaseSelect  Phase = "select"
	PhaseRespond Phase = "respond"
	PhaseResolve Phase = "resolve"
	PhasePost    Phase = "post"
	PhaseVictory Phase = "victory"
	PhaseDefeat  Phase = "defeat"
)

// Terminal reports whether p ends the battle.
func (p Phase) Terminal() bool { return p == PhaseVictory || p == PhaseDefeat }

// OutcomeKind distinguishes how a terminal phase was reached. Ether
// depletion gets its own kind so the presentation layer can run its
// longer reveal.
type OutcomeKind string

const (
	OutcomeNone  OutcomeKind = ""
	OutcomeHP    OutcomeKind = "hp"
	OutcomeEther OutcomeKind = "ether"
)

// Submission rejection reasons, user-visible.
const (
	ReasonOverSpeed  = "속도 초과"
	ReasonOverEnergy = "행동력 초과"
	ReasonOverCount  = "카드 매수 초과"
)

// Rejection is a validation failure that leaves the phase unchanged.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return "battle: submission rejected: " + r.Reason }

// Entity is one combatant's mutable battle stats.
//
// Invariant: HP >= 0; Block >= 0.
type Entity struct {
	Name     string      `json:"name"`
	HP       int         `json:"hp"`
	MaxHP    int         `json:"max_hp"`
	Block    int         `json:"block"`
	Strength int         `json:"strength"`
	EtherPts int         `json:"ether_pts"`
	Tokens   token.Store `json:"tokens"`
}

// Alive reports whether the entity can still act.
func (e *Entity) Alive() bool { return e.HP > 0 }

// Damage applies hp loss, clamping at zero.
func (e *Entity) Damage(hp int) {
	e.HP -= hp
	if e.HP < 0 {
		e.HP = 0
	}
}

// Heal restores hp, clamping at MaxHP.
func (e *Entity) Heal(hp int) {
	e.HP += hp
	if e.HP > e.MaxHP {
		e.HP = e.MaxHP
	}
}

// EnemySide is the enemy group state. Ether is tracked side-level: the
// group fights from one pool, and draining it is the alternate win.
type EnemySide struct {
	DefID    string      `json:"def_id"`
	Units    []Entity    `json:"units"`
	EtherPts int         `json:"ether_pts"`
	Plan     *enemy.Plan `json:"plan,omitempty"`
}

// Defeated reports whether every unit is down.
func (s *EnemySide) Defeated() bool {
	for i := range s.Units {
		if s.Units[i].Alive() {
			return false
		}
	}
	return true
}

// FirstAlive returns the index of the first living unit, or -1.
func (s *EnemySide) FirstAlive() int {
	for i := range s.Units {
		if s.Units[i].Alive() {
			return i
		}
	}
	return -1
}

// Awaiting is the suspended-choice marker set when a creation effect
// needs player input mid-resolve. Stepping while set is rejected;
// Resume clears it.
type Awaiting struct {
	Prompt string `json:"prompt"`
	// Options are catalog card IDs the player picks from.
	Options []string `json:"options"`
	// SourceTag is the instance tag of the action that paused.
	SourceTag string `json:"source_tag"`
}

// State is the complete battle position. It is plain data: the Engine
// owns all transitions, and Snapshot/Restore round-trip it as JSON.
type State struct {
	Phase Phase `json:"phase"`
	Turn  int   `json:"turn"`

	Player Entity    `json:"player"`
	Enemy  EnemySide `json:"enemy"`

	// Derived per-turn stats, recomputed on entering select.
	MaxSpeed  int `json:"max_speed"`
	MaxEnergy int `json:"max_energy"`

	Hand     []*catalog.CardInstance `json:"-"`
	Deck     []*catalog.CardInstance `json:"-"`
	Discard  []*catalog.CardInstance `json:"-"`
	Selected []*catalog.CardInstance `json:"-"`

	Queue []timeline.Action `json:"-"`
	// QIndex is the resolve cursor; Queue[:QIndex] is executed history.
	QIndex int `json:"q_index"`
	// LastSP is the timeline position of the latest executed action,
	// used for position-keyed block accrual.
	LastSP int `json:"last_sp"`

	Combo    combo.Result `json:"combo"`
	Awaiting *Awaiting    `json:"awaiting,omitempty"`
	Outcome  OutcomeKind  `json:"outcome"`

	// EscapeBan diverts listed escape-trait cards to discard on draw.
	EscapeBan map[string]bool `json:"escape_ban,omitempty"`
	// Creations maps creation card IDs to the card IDs they offer.
	Creations map[string][]string `json:"creations,omitempty"`
	// EtherStakes is set when both sides staked a positive ether pool,
	// enabling the depletion outcome.
	EtherStakes bool `json:"ether_stakes"`

	Log []string `json:"log"`
}

// logf appends a line to the battle log.
func (s *State) logf(line string) {
	s.Log = append(s.Log, line)
}

// logAll appends every line to the battle log.
func (s *State) logAll(lines []string) {
	s.Log = append(s.Log, lines...)
}

// Rules are the ruleset constants the engine runs under, loaded from
// configuration.
type Rules struct {
	MaxSubmitCards int
	HandSize       int
	BaseMaxSpeed   int
	BaseMaxEnergy  int
	// OverdriveThreshold grants a bonus energy while the player's ether
	// sits at or above it; 0 disables.
	OverdriveThreshold int
	// CardEtherGain is the per-resolved-card ether income, multiplied
	// by the turn's combo multiplier at resolve exit.
	CardEtherGain int
	// EnemyEtherIncome is the flat per-turn enemy ether income.
	EnemyEtherIncome int
}

// DefaultRules returns the base ruleset.
func DefaultRules() Rules {
	return Rules{
		MaxSubmitCards:     5,
		HandSize:           10,
		BaseMaxSpeed:       10,
		BaseMaxEnergy:      6,
		OverdriveThreshold: 300,
		CardEtherGain:      10,
		EnemyEtherIncome:   25,
	}
}
