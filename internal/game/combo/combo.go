// Package combo classifies the player's submitted card set as a
// poker-style hand and maps it to a damage/ether multiplier.
//
// Cards are grouped two independent ways: by action-cost equality
// (pair, triple, four, five, two-pair, full house) and by kind
// homogeneity across at least four cards (flush). When several
// classifications match, the highest-priority one wins.
package combo

import (
	"sort"

	"github.com/hollowmoon/etherclash/internal/game/catalog"
)

// Name identifies a combo classification.
type Name string

const (
	HighCard    Name = "high_card"
	Pair        Name = "pair"
	TwoPair     Name = "two_pair"
	Triple      Name = "triple"
	Flush       Name = "flush"
	FullHouse   Name = "full_house"
	FourOfAKind Name = "four_of_a_kind"
	FiveOfAKind Name = "five_of_a_kind"
)

// OutcastTrait excludes a card from combo detection entirely.
const OutcastTrait = "outcast"

// Result describes the detected combo. Matched holds the instance tags
// of the cards that formed the combo so downstream bonus application
// (cooperation trait, relic combo bonuses) can identify membership
// without re-running detection.
type Result struct {
	Name       Name
	Label      string
	Multiplier float64
	// Rank orders combos for tie-breaking; higher beats lower.
	Rank    int
	Matched []string
}

// table fixes label, multiplier, and rank per combo name.
var table = map[Name]struct {
	label string
	mult  float64
	rank  int
}{
	HighCard:    {"하이 카드", 1.0, 0},
	Pair:        {"페어", 2.0, 1},
	TwoPair:     {"투 페어", 2.5, 2},
	Triple:      {"트리플", 3.0, 3},
	Flush:       {"플러시", 3.5, 4},
	FullHouse:   {"풀 하우스", 3.75, 5},
	FourOfAKind: {"포카드", 4.0, 6},
	FiveOfAKind: {"파이브카드", 5.0, 7},
}

// resultFor builds a Result for name with the given matched tags.
func resultFor(name Name, matched []string) Result {
	e := table[name]
	return Result{Name: name, Label: e.label, Multiplier: e.mult, Rank: e.rank, Matched: matched}
}

// Detect classifies cards and returns the highest-priority matching
// combo. Ghost instances and cards carrying the outcast trait never
// count toward detection.
//
// Precondition: cards may be empty (result is a high card with no
// matches).
// Postcondition: Result.Multiplier matches the fixed table; when a set
// satisfies several classifications the higher-ranked one is reported.
func Detect(cards []*catalog.CardInstance) Result {
	eligible := make([]*catalog.CardInstance, 0, len(cards))
	for _, c := range cards {
		if c == nil || c.Ghost || c.HasTrait(OutcastTrait) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return resultFor(HighCard, nil)
	}

	byCost := groupByActionCost(eligible)
	counts := groupSizes(byCost)

	if tags, ok := costGroupTags(byCost, 5); ok {
		return resultFor(FiveOfAKind, tags)
	}
	if tags, ok := costGroupTags(byCost, 4); ok {
		return resultFor(FourOfAKind, tags)
	}
	if tags, ok := fullHouseTags(byCost, counts); ok {
		return resultFor(FullHouse, tags)
	}
	if tags, ok := flushTags(eligible); ok {
		return resultFor(Flush, tags)
	}
	if tags, ok := costGroupTags(byCost, 3); ok {
		return resultFor(Triple, tags)
	}
	if tags, ok := twoPairTags(byCost, counts); ok {
		return resultFor(TwoPair, tags)
	}
	if tags, ok := costGroupTags(byCost, 2); ok {
		return resultFor(Pair, tags)
	}
	return resultFor(HighCard, []string{highCardTag(eligible)})
}

// groupByActionCost buckets cards by action cost.
func groupByActionCost(cards []*catalog.CardInstance) map[int][]*catalog.CardInstance {
	groups := make(map[int][]*catalog.CardInstance)
	for _, c := range cards {
		groups[c.Def.ActionCost] = append(groups[c.Def.ActionCost], c)
	}
	return groups
}

// groupSizes returns the sorted (descending) group sizes.
func groupSizes(groups map[int][]*catalog.CardInstance) []int {
	sizes := make([]int, 0, len(groups))
	for _, g := range groups {
		sizes = append(sizes, len(g))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

// costGroupTags returns the tags of the largest action-cost group with
// at least n members, preferring the higher action cost on size ties.
func costGroupTags(groups map[int][]*catalog.CardInstance, n int) ([]string, bool) {
	bestCost := -1
	for cost, g := range groups {
		if len(g) >= n && cost > bestCost {
			bestCost = cost
		}
	}
	if bestCost < 0 {
		return nil, false
	}
	return tagsOf(groups[bestCost][:n]), true
}

// fullHouseTags matches a triple plus a disjoint pair.
func fullHouseTags(groups map[int][]*catalog.CardInstance, sizes []int) ([]string, bool) {
	if len(sizes) < 2 || sizes[0] < 3 || sizes[1] < 2 {
		return nil, false
	}
	tripleCost, pairCost := -1, -1
	for cost, g := range groups {
		if len(g) >= 3 && cost > tripleCost {
			tripleCost = cost
		}
	}
	for cost, g := range groups {
		if cost != tripleCost && len(g) >= 2 && cost > pairCost {
			pairCost = cost
		}
	}
	if tripleCost < 0 || pairCost < 0 {
		return nil, false
	}
	tags := tagsOf(groups[tripleCost][:3])
	return append(tags, tagsOf(groups[pairCost][:2])...), true
}

// flushTags matches kind homogeneity across at least four cards.
func flushTags(cards []*catalog.CardInstance) ([]string, bool) {
	byKind := make(map[catalog.Kind][]*catalog.CardInstance)
	for _, c := range cards {
		byKind[c.Def.Kind] = append(byKind[c.Def.Kind], c)
	}
	for _, g := range byKind {
		if len(g) >= 4 {
			return tagsOf(g), true
		}
	}
	return nil, false
}

// twoPairTags matches two disjoint pairs.
func twoPairTags(groups map[int][]*catalog.CardInstance, sizes []int) ([]string, bool) {
	if len(sizes) < 2 || sizes[0] < 2 || sizes[1] < 2 {
		return nil, false
	}
	costs := make([]int, 0, len(groups))
	for cost, g := range groups {
		if len(g) >= 2 {
			costs = append(costs, cost)
		}
	}
	if len(costs) < 2 {
		return nil, false
	}
	sort.Sort(sort.Reverse(sort.IntSlice(costs)))
	tags := tagsOf(groups[costs[0]][:2])
	return append(tags, tagsOf(groups[costs[1]][:2])...), true
}

// highCardTag returns the tag of the highest-action-cost card.
func highCardTag(cards []*catalog.CardInstance) string {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Def.ActionCost > best.Def.ActionCost {
			best = c
		}
	}
	return best.Tag
}

func tagsOf(cards []*catalog.CardInstance) []string {
	tags := make([]string, len(cards))
	for i, c := range cards {
		tags[i] = c.Tag
	}
	return tags
}
