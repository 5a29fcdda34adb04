package store

import (
	"context"
	"sync"
)

// Mem keeps everything in process memory. It backs tests and ephemeral
// runs without a Postgres instance; the contracts match PG exactly.
type Mem struct {
	mu       sync.Mutex
	users    map[string]User // by id
	balances map[string]int64
	txns     []memTxn
	tables   map[string]TableRecord
	seats    map[string]map[string]int // tableKey -> userID -> seat
	games    map[string]*memGame
	rounds   map[string]RoundRecord
	turns    []TurnRecord
	bets     []BetRecord
	roles    []RoleRecord
}

type memTxn struct {
	UserID string
	Amount int64
	Reason string
}

type memGame struct {
	rec     GameRecord
	active  bool
	winners []WinnerRecord
	players map[string]memPlayer
}

type memPlayer struct {
	Seat   int
	Folded bool
}

func NewMem() *Mem {
	return &Mem{
		users:    map[string]User{},
		balances: map[string]int64{},
		tables:   map[string]TableRecord{},
		seats:    map[string]map[string]int{},
		games:    map[string]*memGame{},
		rounds:   map[string]RoundRecord{},
	}
}

func (s *Mem) Ping(context.Context) error { return nil }

func (s *Mem) Close() {}

func (s *Mem) EnsureDefaultTables(ctx context.Context) error {
	for _, t := range DefaultTables() {
		if err := s.UpsertTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Mem) GetUserByToken(_ context.Context, token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Token == token {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Mem) CreateUser(_ context.Context, u User, initialBalance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return nil
	}
	s.users[u.ID] = u
	s.balances[u.ID] = initialBalance
	return nil
}

func (s *Mem) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return bal, nil
}

func (s *Mem) Debit(_ context.Context, userID string, amount int64, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if bal < amount {
		return 0, ErrInsufficientFunds
	}
	s.balances[userID] = bal - amount
	s.txns = append(s.txns, memTxn{UserID: userID, Amount: -amount, Reason: reason})
	return bal - amount, nil
}

func (s *Mem) Credit(_ context.Context, userID string, amount int64, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[userID]
	if !ok {
		return 0, ErrNotFound
	}
	s.balances[userID] = bal + amount
	s.txns = append(s.txns, memTxn{UserID: userID, Amount: amount, Reason: reason})
	return bal + amount, nil
}

func (s *Mem) UpsertTable(_ context.Context, t TableRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Key] = t
	return nil
}

func (s *Mem) GetTable(_ context.Context, key string) (*TableRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *Mem) ListTables(_ context.Context) ([]TableRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TableRecord, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out, nil
}

func (s *Mem) SetTableWaiting(_ context.Context, key string, inWait bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key]
	if !ok {
		return ErrNotFound
	}
	t.InWait = inWait
	s.tables[key] = t
	return nil
}

func (s *Mem) UpsertSeat(_ context.Context, tableKey, userID string, seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seats[tableKey] == nil {
		s.seats[tableKey] = map[string]int{}
	}
	s.seats[tableKey][userID] = seat
	return nil
}

func (s *Mem) DeleteSeat(_ context.Context, tableKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seats[tableKey], userID)
	return nil
}

func (s *Mem) CreateGame(_ context.Context, g GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = &memGame{rec: g, active: true, players: map[string]memPlayer{}}
	return nil
}

func (s *Mem) DeactivateGames(_ context.Context, tableKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.rec.TableKey == tableKey {
			g.active = false
		}
	}
	return nil
}

func (s *Mem) FinishGame(_ context.Context, gameID string, winners []WinnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.active = false
	g.winners = winners
	return nil
}

func (s *Mem) DeleteGame(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	return nil
}

func (s *Mem) CreateRound(_ context.Context, r RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.ID] = r
	return nil
}

func (s *Mem) UpdateRound(_ context.Context, r RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rounds[r.ID]
	if !ok {
		return ErrNotFound
	}
	prev.Type = r.Type
	prev.TurnIndex = r.TurnIndex
	prev.HighestBet = r.HighestBet
	prev.HighestBetSeat = r.HighestBetSeat
	prev.HighestBetThisRound = r.HighestBetThisRound
	s.rounds[r.ID] = prev
	return nil
}

func (s *Mem) AttachPlayer(_ context.Context, gameID, userID string, seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := g.players[userID]; !ok {
		g.players[userID] = memPlayer{Seat: seat}
	}
	return nil
}

func (s *Mem) SetPlayerFolded(_ context.Context, gameID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	p, ok := g.players[userID]
	if !ok {
		return ErrNotFound
	}
	p.Folded = true
	g.players[userID] = p
	return nil
}

func (s *Mem) DeletePlayerFromGame(_ context.Context, gameID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok {
		delete(g.players, userID)
	}
	return nil
}

func (s *Mem) RecordTurn(_ context.Context, t TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	return nil
}

func (s *Mem) RecordBet(_ context.Context, b BetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bets = append(s.bets, b)
	return nil
}

func (s *Mem) CreateUserRoles(_ context.Context, roles []RoleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, roles...)
	return nil
}
