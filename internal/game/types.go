package game

import "sort"

type RoundType string

const (
	RoundPreFlop RoundType = "PRE_FLOP"
	RoundFlop    RoundType = "FLOP"
	RoundTurn    RoundType = "TURN"
	RoundRiver   RoundType = "RIVER"
	RoundEndGame RoundType = "END_GAME"
)

type TurnAction string

const (
	ActionBet      TurnAction = "BET"
	ActionCall     TurnAction = "CALL"
	ActionRise     TurnAction = "RISE"
	ActionCheck    TurnAction = "CHECK"
	ActionFold     TurnAction = "FOLD"
	ActionAutoFold TurnAction = "AUTO_FOLD"
	ActionAllIn    TurnAction = "ALL_IN"
	ActionLeave    TurnAction = "LEAVE"
)

type Role string

const (
	RoleDealer     Role = "DEALER"
	RoleSmallBlind Role = "SMALL_BLIND"
	RoleBigBlind   Role = "BIG_BLIND"
	RolePlayer     Role = "PLAYER"
)

// PlayerInGame links a seated user to the running hand. Seat index is
// stable for the hand's duration; Folded is set once and never cleared.
type PlayerInGame struct {
	UserID string
	Name   string
	Seat   int
	Folded bool
}

// PlayerTurn is one entry of the append-only action log.
type PlayerTurn struct {
	UserID string
	Round  RoundType
	Action TurnAction
}

// Bet is an append-only money record; per-user sums within a round give
// the committed amount, the sum over the game gives the pot.
type Bet struct {
	UserID string
	Round  RoundType
	Amount int64
}

type UserRole struct {
	UserID string
	Seat   int
	Roles  []Role
}

func (r UserRole) Has(role Role) bool {
	for _, x := range r.Roles {
		if x == role {
			return true
		}
	}
	return false
}

type Winner struct {
	UserID   string `json:"u"`
	Amount   int64  `json:"a"`
	Category string `json:"c"`
}

// Game is one hand of poker from deal to settlement.
type Game struct {
	ID       string
	TableKey string
	Active   bool
	Players  []*PlayerInGame
	Roles    []UserRole
	Turns    []PlayerTurn
	Bets     []Bet
	Winners  []Winner
}

func (g *Game) Pot() int64 {
	var sum int64
	for _, b := range g.Bets {
		sum += b.Amount
	}
	return sum
}

func (g *Game) Player(userID string) *PlayerInGame {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (g *Game) PlayerAtSeat(seat int) *PlayerInGame {
	for _, p := range g.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// ActivePlayers returns the non-folded players ordered by seat.
func (g *Game) ActivePlayers() []*PlayerInGame {
	out := make([]*PlayerInGame, 0, len(g.Players))
	for _, p := range g.Players {
		if !p.Folded {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

// NextBySeat returns the non-folded player with the lowest seat strictly
// greater than seat, wrapping to the lowest non-folded seat. The second
// return reports whether the search wrapped.
func (g *Game) NextBySeat(seat int) (*PlayerInGame, bool) {
	active := g.ActivePlayers()
	if len(active) == 0 {
		return nil, false
	}
	for _, p := range active {
		if p.Seat > seat {
			return p, false
		}
	}
	return active[0], true
}

func (g *Game) RoleOf(userID string) *UserRole {
	for i := range g.Roles {
		if g.Roles[i].UserID == userID {
			return &g.Roles[i]
		}
	}
	return nil
}

func (g *Game) DealerSeat() int {
	for _, r := range g.Roles {
		if r.Has(RoleDealer) {
			return r.Seat
		}
	}
	return -1
}

func (g *Game) LastTurn() *PlayerTurn {
	if len(g.Turns) == 0 {
		return nil
	}
	return &g.Turns[len(g.Turns)-1]
}

func (g *Game) LastTurnOf(userID string) *PlayerTurn {
	for i := len(g.Turns) - 1; i >= 0; i-- {
		if g.Turns[i].UserID == userID {
			return &g.Turns[i]
		}
	}
	return nil
}

// HasAllIn reports whether the user committed their whole balance at some
// point in this hand; all-in players stay in the hand but cannot act.
func (g *Game) HasAllIn(userID string) bool {
	for _, t := range g.Turns {
		if t.UserID == userID && t.Action == ActionAllIn {
			return true
		}
	}
	return false
}
