// Package passive defines the collaborator interface through which
// relic/ego/growth effects feed the battle engine. The engine consumes
// opaque deltas at phase boundaries; it never computes passive effects
// itself.
package passive

// Deltas is one bundle of additive modifiers applied at a phase
// boundary. The zero value is a no-op.
type Deltas struct {
	Heal     int
	Block    int
	Energy   int
	MaxSpeed int
	Ether    int
	Strength int
	// Lines are merged into the battle log.
	Lines []string
}

// Merge sums o into d and returns the result.
//
// Postcondition: numeric fields are added; log lines are concatenated
// in order.
func (d Deltas) Merge(o Deltas) Deltas {
	d.Heal += o.Heal
	d.Block += o.Block
	d.Energy += o.Energy
	d.MaxSpeed += o.MaxSpeed
	d.Ether += o.Ether
	d.Strength += o.Strength
	d.Lines = append(d.Lines, o.Lines...)
	return d
}

// Source supplies passive-effect deltas to the battle engine. The
// engine calls it at documented phase boundaries and treats the results
// as opaque.
type Source interface {
	// CombatStart runs once when the battle is created.
	CombatStart(side string) Deltas
	// TurnStart runs on entering select for each turn.
	TurnStart(side string, turn int) Deltas
	// ComboBonus runs when the named combo is detected for the side.
	ComboBonus(side, comboName string) Deltas
}

// None is the empty Source.
type None struct{}

func (None) CombatStart(string) Deltas        { return Deltas{} }
func (None) TurnStart(string, int) Deltas     { return Deltas{} }
func (None) ComboBonus(string, string) Deltas { return Deltas{} }

// Fixed returns the same configured deltas on every call; used by tests
// and the demo harness.
type Fixed struct {
	OnCombatStart Deltas
	OnTurnStart   Deltas
	OnCombo       Deltas
}

func (f Fixed) CombatStart(string) Deltas        { return f.OnCombatStart }
func (f Fixed) TurnStart(string, int) Deltas     { return f.OnTurnStart }
func (f Fixed) ComboBonus(string, string) Deltas { return f.OnCombo }
