package timeline

import "math"

// Base returns the pre-multiplier stat line: stat + strength + bonus.
func Base(stat, strength, bonus int) int {
	return stat + strength + bonus
}

// Multiplied applies a combo/effect multiplier with floor rounding.
//
// Precondition: mult >= 0.
// Postcondition: returns floor(base * mult).
func Multiplied(base int, mult float64) int {
	return int(math.Floor(float64(base) * mult))
}

// Final adds the flat bonus after multiplication.
func Final(multiplied, flat int) int {
	return multiplied + flat
}

// Absorb applies block absorption: min(damage, block) is soaked, the
// remainder carries to HP.
//
// Precondition: damage >= 0 and block >= 0.
// Postcondition: hpDamage + soaked == damage; remainingBlock ==
// block - soaked; both results >= 0.
func Absorb(damage, block int) (hpDamage, remainingBlock int) {
	soaked := damage
	if block < soaked {
		soaked = block
	}
	return damage - soaked, block - soaked
}
