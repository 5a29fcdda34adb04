package game

import "errors"

// Validation errors are expected and non-fatal: they are reported to the
// offending connection only and never mutate table state.
var (
	ErrNotActivePlayer    = errors.New("not_active_player")
	ErrNotYourTurn        = errors.New("not_your_turn")
	ErrBelowMinimumBet    = errors.New("below_minimum_bet")
	ErrActionNotPermitted = errors.New("action_not_permitted")

	ErrTableNotFound    = errors.New("table_not_found")
	ErrTableFull        = errors.New("table_full")
	ErrNoActiveGame     = errors.New("no_active_game")
	ErrNotEnoughPlayers = errors.New("not_enough_players")
)
