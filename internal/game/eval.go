package game

import "sort"

// Category ranking: 8 Straight Flush, 7 Four, 6 Full House, 5 Flush,
// 4 Straight, 3 Trips, 2 Two Pair, 1 Pair, 0 High Card
const (
	catHighCard = iota
	catPair
	catTwoPair
	catTrips
	catStraight
	catFlush
	catFullHouse
	catQuads
	catStraightFlush
)

var categoryNames = map[int]string{
	catHighCard:      "High Card",
	catPair:          "Pair",
	catTwoPair:       "Two Pair",
	catTrips:         "Three of a Kind",
	catStraight:      "Straight",
	catFlush:         "Flush",
	catFullHouse:     "Full House",
	catQuads:         "Four of a Kind",
	catStraightFlush: "Straight Flush",
}

type handRank struct {
	category int
	ranks    []int
}

func (h handRank) betterThan(o handRank) bool {
	if h.category != o.category {
		return h.category > o.category
	}
	for i := 0; i < len(h.ranks) && i < len(o.ranks); i++ {
		if h.ranks[i] != o.ranks[i] {
			return h.ranks[i] > o.ranks[i]
		}
	}
	return false
}

// encode packs category and tiebreak ranks into a single comparable value.
// Ranks are 2..14 so four bits each is enough.
func (h handRank) encode() int {
	v := h.category << 20
	for i := 0; i < 5; i++ {
		r := 0
		if i < len(h.ranks) {
			r = h.ranks[i]
		}
		v |= r << (16 - 4*i)
	}
	return v
}

// bestEncoded is a royal flush; it anchors the score scale at 1.
var bestEncoded = handRank{category: catStraightFlush, ranks: []int{14}}.encode()

// HandValue is the strength of one player's best 5-card hand. Score follows
// the convention that lower is better with 1 the best possible hand.
type HandValue struct {
	Score    int
	Category string
}

// Rank evaluates every legal 5-card combination of the two hole cards plus
// the community cards and returns the strongest.
func RankHand(hole []Card, community []Card) HandValue {
	cards := make([]Card, 0, len(hole)+len(community))
	cards = append(cards, hole...)
	cards = append(cards, community...)
	best := bestOfSeven(cards)
	return HandValue{
		Score:    bestEncoded - best.encode() + 1,
		Category: categoryNames[best.category],
	}
}

// DetermineWinners returns the ids of all hands sharing the minimum score.
// Ties split the pot; folded players must be excluded by the caller.
func DetermineWinners(hands map[string]HandValue) []string {
	minScore := 0
	for _, h := range hands {
		if minScore == 0 || h.Score < minScore {
			minScore = h.Score
		}
	}
	winners := make([]string, 0, 1)
	for id, h := range hands {
		if h.Score == minScore {
			winners = append(winners, id)
		}
	}
	sort.Strings(winners)
	return winners
}

func bestOfSeven(cards []Card) handRank {
	best := handRank{category: -1}
	n := len(cards)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				for d := c + 1; d < n; d++ {
					for e := d + 1; e < n; e++ {
						h := eval5(cards[a], cards[b], cards[c], cards[d], cards[e])
						if h.betterThan(best) {
							best = h
						}
					}
				}
			}
		}
	}
	return best
}

func eval5(c1, c2, c3, c4, c5 Card) handRank {
	cards := []Card{c1, c2, c3, c4, c5}
	counts := map[int]int{}
	suits := map[Suit]int{}
	ranks := make([]int, 0, 5)
	for _, c := range cards {
		r := int(c.Rank)
		counts[r]++
		suits[c.Suit]++
		ranks = append(ranks, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	isFlush := false
	for _, v := range suits {
		if v == 5 {
			isFlush = true
			break
		}
	}
	isStraight, highStraight := straightHigh(ranks)
	if isFlush && isStraight {
		return handRank{category: catStraightFlush, ranks: []int{highStraight}}
	}

	type rc struct {
		rank  int
		count int
	}
	pairs := make([]rc, 0, len(counts))
	for r, c := range counts {
		pairs = append(pairs, rc{rank: r, count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].rank > pairs[j].rank
	})

	if pairs[0].count == 4 {
		kicker := highestExcluding(ranks, pairs[0].rank)
		return handRank{category: catQuads, ranks: []int{pairs[0].rank, kicker}}
	}
	if pairs[0].count == 3 && pairs[1].count == 2 {
		return handRank{category: catFullHouse, ranks: []int{pairs[0].rank, pairs[1].rank}}
	}
	if isFlush {
		return handRank{category: catFlush, ranks: ranks}
	}
	if isStraight {
		return handRank{category: catStraight, ranks: []int{highStraight}}
	}
	if pairs[0].count == 3 {
		kickers := topKickers(ranks, []int{pairs[0].rank}, 2)
		return handRank{category: catTrips, ranks: append([]int{pairs[0].rank}, kickers...)}
	}
	if pairs[0].count == 2 && pairs[1].count == 2 {
		highPair := pairs[0].rank
		lowPair := pairs[1].rank
		kicker := highestExcluding(ranks, highPair, lowPair)
		return handRank{category: catTwoPair, ranks: []int{highPair, lowPair, kicker}}
	}
	if pairs[0].count == 2 {
		kickers := topKickers(ranks, []int{pairs[0].rank}, 3)
		return handRank{category: catPair, ranks: append([]int{pairs[0].rank}, kickers...)}
	}
	return handRank{category: catHighCard, ranks: ranks}
}

func straightHigh(ranks []int) (bool, int) {
	unique := uniqueRanks(ranks)
	sort.Sort(sort.Reverse(sort.IntSlice(unique)))
	if len(unique) < 5 {
		return false, 0
	}
	for i := 0; i <= len(unique)-5; i++ {
		if unique[i]-unique[i+4] == 4 {
			return true, unique[i]
		}
	}
	// Wheel A-5
	if contains(unique, 14) && contains(unique, 5) && contains(unique, 4) && contains(unique, 3) && contains(unique, 2) {
		return true, 5
	}
	return false, 0
}

func uniqueRanks(ranks []int) []int {
	m := map[int]bool{}
	out := make([]int, 0, len(ranks))
	for _, r := range ranks {
		if !m[r] {
			m[r] = true
			out = append(out, r)
		}
	}
	return out
}

func contains(arr []int, v int) bool {
	for _, x := range arr {
		if x == v {
			return true
		}
	}
	return false
}

func highestExcluding(ranks []int, exclude ...int) int {
	for _, r := range ranks {
		ok := true
		for _, e := range exclude {
			if r == e {
				ok = false
			}
		}
		if ok {
			return r
		}
	}
	return 0
}

func topKickers(ranks []int, exclude []int, n int) []int {
	out := []int{}
	for _, r := range ranks {
		skip := false
		for _, e := range exclude {
			if r == e {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}
