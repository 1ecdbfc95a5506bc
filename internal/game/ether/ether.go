// Package ether implements the secondary-resource slot math. Ether
// accrues as raw points; points convert to discrete slots along a
// geometric cost series where each slot costs 10% more than the last.
//
// The package is a pure function family — callers own all stored state.
package ether

import "math"

// BaseSlotCost is the cost of slot 0 in the default ruleset.
const BaseSlotCost = 100

// DefaultGrowth is the per-slot cost multiplier in the default ruleset.
const DefaultGrowth = 1.1

// SlotCost returns the point cost of slot k (0-indexed):
// round(BaseSlotCost * DefaultGrowth^k).
//
// Precondition: k >= 0.
// Postcondition: returns >= BaseSlotCost; the series is non-decreasing.
func SlotCost(k int) int {
	return int(math.Round(BaseSlotCost * math.Pow(DefaultGrowth, float64(k))))
}

// CalculateSlots returns the count of fully-paid slots for points.
//
// Postcondition: returns >= 0; CalculateSlots is monotone in points.
// Fixed points of the default series: 0→0, 100→1, 210→2, 331→3.
func CalculateSlots(points int) int {
	slots := 0
	remaining := points
	for {
		cost := SlotCost(slots)
		if remaining < cost {
			return slots
		}
		remaining -= cost
		slots++
	}
}

// SlotProgress returns the points already paid into the first unfinished
// slot.
//
// Postcondition: 0 <= progress < NextSlotCost(points).
func SlotProgress(points int) int {
	remaining := points
	k := 0
	for {
		cost := SlotCost(k)
		if remaining < cost {
			if remaining < 0 {
				return 0
			}
			return remaining
		}
		remaining -= cost
		k++
	}
}

// NextSlotCost returns the full cost of the first unfinished slot.
//
// Postcondition: returns > 0.
func NextSlotCost(points int) int {
	return SlotCost(CalculateSlots(points))
}

// Overdrive reports whether total accrued points have crossed threshold,
// triggering the burst state.
//
// Precondition: threshold > 0.
func Overdrive(points, threshold int) bool {
	return points >= threshold
}
