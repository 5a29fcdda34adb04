package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

var ErrInsufficientFunds = errors.New("insufficient funds")

// Transaction reason tags recorded on every ledger entry.
const (
	ReasonBet     = "BET"
	ReasonWinGame = "WIN_GAME"
	ReasonDeposit = "DEPOSIT"
)

type User struct {
	ID       string
	Username string
	Token    string
}

type TableRecord struct {
	Key        string
	Name       string
	MaxPlayers int
	MinBet     int64
	InWait     bool
}

type GameRecord struct {
	ID       string
	TableKey string
}

type WinnerRecord struct {
	UserID   string
	Amount   int64
	Category string
}

type RoundRecord struct {
	ID                  string
	GameID              string
	Type                string
	TurnIndex           int
	HighestBet          int64
	HighestBetSeat      int
	HighestBetThisRound bool
	Cards               []byte
}

type TurnRecord struct {
	GameID  string
	RoundID string
	UserID  string
	Action  string
}

type BetRecord struct {
	GameID  string
	RoundID string
	UserID  string
	Amount  int64
}

type RoleRecord struct {
	GameID string
	UserID string
	Seat   int
	Roles  []string
}

// Store is the persistence boundary for the engine: narrow create/read/
// update/delete methods over the game entities plus the money ledger. Any
// backend satisfying these contracts works; Postgres and an in-memory
// implementation live in this package.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	GetUserByToken(ctx context.Context, token string) (*User, error)
	CreateUser(ctx context.Context, u User, initialBalance int64) error
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error)

	UpsertTable(ctx context.Context, t TableRecord) error
	GetTable(ctx context.Context, key string) (*TableRecord, error)
	ListTables(ctx context.Context) ([]TableRecord, error)
	SetTableWaiting(ctx context.Context, key string, inWait bool) error

	UpsertSeat(ctx context.Context, tableKey, userID string, seat int) error
	DeleteSeat(ctx context.Context, tableKey, userID string) error

	CreateGame(ctx context.Context, g GameRecord) error
	DeactivateGames(ctx context.Context, tableKey string) error
	FinishGame(ctx context.Context, gameID string, winners []WinnerRecord) error
	DeleteGame(ctx context.Context, gameID string) error

	CreateRound(ctx context.Context, r RoundRecord) error
	UpdateRound(ctx context.Context, r RoundRecord) error

	AttachPlayer(ctx context.Context, gameID, userID string, seat int) error
	SetPlayerFolded(ctx context.Context, gameID, userID string) error
	DeletePlayerFromGame(ctx context.Context, gameID, userID string) error

	RecordTurn(ctx context.Context, t TurnRecord) error
	RecordBet(ctx context.Context, b BetRecord) error
	CreateUserRoles(ctx context.Context, roles []RoleRecord) error

	EnsureDefaultTables(ctx context.Context) error
}
