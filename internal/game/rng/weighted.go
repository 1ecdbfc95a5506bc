package rng

// WeightedIndex picks an index from weights with probability proportional
// to each weight. Entries with weight <= 0 are never selected.
//
// Precondition: src must be non-nil; weights must contain at least one
// entry > 0.
// Postcondition: returned index i satisfies weights[i] > 0, or -1 when
// no entry is selectable.
func WeightedIndex(src Source, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return -1
}

// Shuffle permutes items in place using the Fisher-Yates algorithm driven
// by src.
//
// Precondition: src must be non-nil.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
