package game

import (
	"errors"
	"math/rand"
	"time"
)

type Suit int

type Rank int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	r := map[Rank]string{
		Two: "2", Three: "3", Four: "4", Five: "5", Six: "6", Seven: "7", Eight: "8", Nine: "9", Ten: "T", Jack: "J", Queen: "Q", King: "K", Ace: "A",
	}[c.Rank]
	s := map[Suit]string{Spades: "s", Hearts: "h", Diamonds: "d", Clubs: "c"}[c.Suit]
	return r + s
}

// ErrInsufficientCards is returned when a deal asks for more cards than the
// deck still holds. Cannot happen with 52 cards and at most 9 seats, but the
// dealer checks instead of corrupting a hand.
var ErrInsufficientCards = errors.New("insufficient cards in deck")

// Deck is exclusively owned by one hand; it is never shared across tables.
type Deck struct {
	cards []Card
	rnd   *rand.Rand
}

// NewDeck builds the 52-card universe minus any cards already known to be
// dealt, so that a resumed round never re-deals a hole or community card.
// Order is deterministic until Shuffle is called.
func NewDeck(excluding ...Card) *Deck {
	known := make(map[Card]bool, len(excluding))
	for _, c := range excluding {
		known[c] = true
	}
	cards := make([]Card, 0, 52)
	for s := Spades; s <= Clubs; s++ {
		for r := Two; r <= Ace; r++ {
			c := Card{Rank: r, Suit: s}
			if !known[c] {
				cards = append(cards, c)
			}
		}
	}
	return &Deck{cards: cards, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Shuffle applies one uniform permutation.
func (d *Deck) Shuffle() {
	d.rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

func (d *Deck) deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrInsufficientCards
	}
	out := d.cards[:n:n]
	d.cards = d.cards[n:]
	return out, nil
}

// DealHoleCards removes two cards from the front of the deck for every
// player id, in seating order.
func (d *Deck) DealHoleCards(playerIDs []string) (map[string][]Card, error) {
	hands := make(map[string][]Card, len(playerIDs))
	for _, id := range playerIDs {
		cards, err := d.deal(2)
		if err != nil {
			return nil, err
		}
		hands[id] = cards
	}
	return hands, nil
}

// DealCommunity removes count cards from the deck: 3 for the flop, 1 each
// for turn and river.
func (d *Deck) DealCommunity(count int) ([]Card, error) {
	return d.deal(count)
}
