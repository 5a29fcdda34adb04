package game

// communityKey is the reserved key in a round's card map holding the
// community cards; every other key is a user id with that player's hole
// cards.
const communityKey = "table"

// Round is one betting phase. Only the turn pointer and the bet-tracking
// fields mutate after creation; the card map only ever grows community
// cards on street transitions.
type Round struct {
	ID   string
	Type RoundType
	game *Game

	Cards map[string][]Card

	TurnIndex int

	HighestBet     int64
	HighestBetSeat int
	// HighestBetThisRound distinguishes "someone just raised" from
	// "the table-high was merely matched": the first bidding-closed
	// check after a raise is answered false so every remaining player
	// gets one more action.
	HighestBetThisRound bool
}

func (r *Round) Game() *Game {
	return r.game
}

func (r *Round) Community() []Card {
	return r.Cards[communityKey]
}

func (r *Round) HoleCards(userID string) []Card {
	return r.Cards[userID]
}

// AllCards flattens every dealt card in the round, hole and community.
// Used to rebuild a deck that must exclude already-known cards.
func (r *Round) AllCards() []Card {
	var out []Card
	for _, cards := range r.Cards {
		out = append(out, cards...)
	}
	return out
}

// UserTotalBet sums the user's bets registered in this round.
func (r *Round) UserTotalBet(userID string) int64 {
	var sum int64
	for _, b := range r.game.Bets {
		if b.Round == r.Type && b.UserID == userID {
			sum += b.Amount
		}
	}
	return sum
}

// HighestTotalBet is the maximum committed amount over all players in the
// hand for this round.
func (r *Round) HighestTotalBet() int64 {
	var max int64
	for _, p := range r.game.Players {
		if total := r.UserTotalBet(p.UserID); total > max {
			max = total
		}
	}
	return max
}

// MinBetToCall is what the current player still owes to stay in; zero
// means the player may check.
func (r *Round) MinBetToCall() int64 {
	p := r.CurrentPlayer()
	if p == nil {
		return 0
	}
	return r.HighestBet - r.UserTotalBet(p.UserID)
}

// BiddingClosed reports whether the betting circle is complete: the seat
// that set the table-high bet is reached again by the turn pointer. When
// isMainCheck is set, the first call after a raise consumes the raise flag
// and answers false, granting the remaining players one more circuit.
func (r *Round) BiddingClosed(isMainCheck bool) bool {
	if isMainCheck && r.HighestBetThisRound {
		r.HighestBetThisRound = false
		return false
	}
	return r.TurnIndex == r.HighestBetSeat
}

// AdvanceTurn moves the turn pointer to the next non-folded seat after the
// current one, wrapping to the lowest. Reports whether the circle wrapped.
func (r *Round) AdvanceTurn() (wrapped bool, nextSeat int) {
	current := r.CurrentPlayer()
	seat := r.TurnIndex
	if current != nil {
		seat = current.Seat
	}
	next, wrapped := r.game.NextBySeat(seat)
	if next == nil {
		return false, r.TurnIndex
	}
	r.TurnIndex = next.Seat
	return wrapped, next.Seat
}

// CurrentPlayer resolves the turn pointer to a player. If the pointed
// seat has no resident player (consistency repair after a removal), the
// pointer is re-derived from the lowest non-folded seat.
func (r *Round) CurrentPlayer() *PlayerInGame {
	if p := r.game.PlayerAtSeat(r.TurnIndex); p != nil {
		return p
	}
	active := r.game.ActivePlayers()
	if len(active) == 0 {
		return nil
	}
	r.TurnIndex = active[0].Seat
	return active[0]
}

func nextRoundType(t RoundType) RoundType {
	switch t {
	case RoundPreFlop:
		return RoundFlop
	case RoundFlop:
		return RoundTurn
	case RoundTurn:
		return RoundRiver
	case RoundRiver:
		return RoundEndGame
	}
	return RoundEndGame
}

func communityCardCount(t RoundType) int {
	if t == RoundFlop {
		return 3
	}
	return 1
}
