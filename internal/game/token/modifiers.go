package token

// StrengthBonus returns the net outgoing-damage bonus from all stacks
// across every scope.
func StrengthBonus(s Store, lookup Lookup) int {
	total := 0
	for _, f := range Flatten(s) {
		if def, ok := lookup(f.TokenID); ok {
			total += def.StrengthBonus * f.Stacks
		}
	}
	return total
}

// SpeedBonus returns the net max-speed bonus from all stacks across
// every scope.
func SpeedBonus(s Store, lookup Lookup) int {
	total := 0
	for _, f := range Flatten(s) {
		if def, ok := lookup(f.TokenID); ok {
			total += def.SpeedBonus * f.Stacks
		}
	}
	return total
}

// RetainsBlock reports whether any active token grants block retention
// through the turn-end reset (vigilance-class tokens).
func RetainsBlock(s Store, lookup Lookup) bool {
	for _, f := range Flatten(s) {
		if def, ok := lookup(f.TokenID); ok && def.RetainBlock {
			return true
		}
	}
	return false
}

// PositionBlock returns block granted by position-bound tokens as a
// function of how far the timeline cursor has advanced past each
// granting position: stacks * BlockPerStep * (sp - appliedSP).
//
// Precondition: sp >= 0.
// Postcondition: returns >= 0; stacks at positions beyond sp contribute
// nothing.
func PositionBlock(s Store, lookup Lookup, sp int) int {
	total := 0
	for _, scope := range []Scope{ScopeUsage, ScopeTurn, ScopePermanent} {
		for _, st := range s.scopeList(scope) {
			def, ok := lookup(st.TokenID)
			if !ok || !def.PositionBound || def.BlockPerStep == 0 {
				continue
			}
			advance := sp - st.AppliedSP
			if advance <= 0 {
				continue
			}
			total += st.Stacks * def.BlockPerStep * advance
		}
	}
	return total
}
