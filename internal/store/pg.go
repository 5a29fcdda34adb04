package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PG persists the game entities in Postgres. The engine treats it as a
// mirror of its in-memory state: reads happen at startup and on user
// lookups, writes follow every state change.
type PG struct {
	DB *sql.DB
}

func NewPG(dsn string) (*PG, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PG{DB: db}, nil
}

func (s *PG) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}

func (s *PG) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

func (s *PG) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			token TEXT UNIQUE NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tables (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			max_players INT NOT NULL,
			min_bet BIGINT NOT NULL,
			in_wait BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS seats (
			table_key TEXT NOT NULL REFERENCES tables(key),
			user_id TEXT NOT NULL REFERENCES users(id),
			seat_index INT NOT NULL,
			PRIMARY KEY (table_key, user_id),
			UNIQUE (table_key, seat_index)
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			table_key TEXT NOT NULL REFERENCES tables(key),
			active BOOLEAN NOT NULL DEFAULT true,
			winners JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			turn_index INT NOT NULL DEFAULT 0,
			highest_bet BIGINT NOT NULL DEFAULT 0,
			highest_bet_seat INT NOT NULL DEFAULT 0,
			highest_bet_this_round BOOLEAN NOT NULL DEFAULT false,
			cards JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS players_in_game (
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id),
			seat_index INT NOT NULL,
			is_fold BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (game_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS player_turns (
			id BIGSERIAL PRIMARY KEY,
			game_id TEXT NOT NULL,
			round_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			id BIGSERIAL PRIMARY KEY,
			game_id TEXT NOT NULL,
			round_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			game_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seat_index INT NOT NULL,
			roles TEXT[] NOT NULL,
			PRIMARY KEY (game_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS bets_game_idx ON bets (game_id)`,
		`CREATE INDEX IF NOT EXISTS player_turns_game_idx ON player_turns (game_id)`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *PG) EnsureDefaultTables(ctx context.Context) error {
	for _, t := range DefaultTables() {
		if err := s.UpsertTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *PG) GetUserByToken(ctx context.Context, token string) (*User, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, username, token FROM users WHERE token = $1`, token)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PG) CreateUser(ctx context.Context, u User, initialBalance int64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, token, balance) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (token) DO NOTHING`,
		u.ID, u.Username, u.Token, initialBalance)
	return err
}

func (s *PG) Balance(ctx context.Context, userID string) (int64, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = $1`, userID)
	var bal int64
	if err := row.Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return bal, nil
}

func (s *PG) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	row := s.DB.QueryRowContext(ctx,
		`UPDATE users SET balance = balance - $2 WHERE id = $1 AND balance >= $2 RETURNING balance`,
		userID, amount)
	var bal int64
	if err := row.Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO user_transactions (user_id, amount, reason) VALUES ($1,$2,$3)`,
		userID, -amount, reason)
	return bal, err
}

func (s *PG) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	row := s.DB.QueryRowContext(ctx,
		`UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance`,
		userID, amount)
	var bal int64
	if err := row.Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO user_transactions (user_id, amount, reason) VALUES ($1,$2,$3)`,
		userID, amount, reason)
	return bal, err
}

func (s *PG) UpsertTable(ctx context.Context, t TableRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO tables (key, name, max_players, min_bet, in_wait) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (key) DO UPDATE SET name = $2, max_players = $3, min_bet = $4`,
		t.Key, t.Name, t.MaxPlayers, t.MinBet, t.InWait)
	return err
}

func (s *PG) GetTable(ctx context.Context, key string) (*TableRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT key, name, max_players, min_bet, in_wait FROM tables WHERE key = $1`, key)
	var t TableRecord
	if err := row.Scan(&t.Key, &t.Name, &t.MaxPlayers, &t.MinBet, &t.InWait); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *PG) ListTables(ctx context.Context) ([]TableRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT key, name, max_players, min_bet, in_wait FROM tables ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TableRecord
	for rows.Next() {
		var t TableRecord
		if err := rows.Scan(&t.Key, &t.Name, &t.MaxPlayers, &t.MinBet, &t.InWait); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PG) SetTableWaiting(ctx context.Context, key string, inWait bool) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE tables SET in_wait = $2 WHERE key = $1`, key, inWait)
	return err
}

func (s *PG) UpsertSeat(ctx context.Context, tableKey, userID string, seat int) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO seats (table_key, user_id, seat_index) VALUES ($1,$2,$3)
		 ON CONFLICT (table_key, user_id) DO UPDATE SET seat_index = $3`,
		tableKey, userID, seat)
	return err
}

func (s *PG) DeleteSeat(ctx context.Context, tableKey, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM seats WHERE table_key = $1 AND user_id = $2`, tableKey, userID)
	return err
}

func (s *PG) CreateGame(ctx context.Context, g GameRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO games (id, table_key) VALUES ($1,$2)`, g.ID, g.TableKey)
	return err
}

func (s *PG) DeactivateGames(ctx context.Context, tableKey string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE games SET active = false WHERE table_key = $1`, tableKey)
	return err
}

func (s *PG) FinishGame(ctx context.Context, gameID string, winners []WinnerRecord) error {
	payload, err := json.Marshal(winners)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE games SET active = false, winners = $2 WHERE id = $1`, gameID, payload)
	return err
}

func (s *PG) DeleteGame(ctx context.Context, gameID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	return err
}

func (s *PG) CreateRound(ctx context.Context, r RoundRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO rounds (id, game_id, type, turn_index, highest_bet, highest_bet_seat, highest_bet_this_round, cards)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.GameID, r.Type, r.TurnIndex, r.HighestBet, r.HighestBetSeat, r.HighestBetThisRound, r.Cards)
	return err
}

func (s *PG) UpdateRound(ctx context.Context, r RoundRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE rounds SET type = $2, turn_index = $3, highest_bet = $4, highest_bet_seat = $5, highest_bet_this_round = $6
		 WHERE id = $1`,
		r.ID, r.Type, r.TurnIndex, r.HighestBet, r.HighestBetSeat, r.HighestBetThisRound)
	return err
}

func (s *PG) AttachPlayer(ctx context.Context, gameID, userID string, seat int) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO players_in_game (game_id, user_id, seat_index) VALUES ($1,$2,$3)
		 ON CONFLICT (game_id, user_id) DO NOTHING`,
		gameID, userID, seat)
	return err
}

func (s *PG) SetPlayerFolded(ctx context.Context, gameID, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE players_in_game SET is_fold = true WHERE game_id = $1 AND user_id = $2`,
		gameID, userID)
	return err
}

func (s *PG) DeletePlayerFromGame(ctx context.Context, gameID, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM players_in_game WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	return err
}

func (s *PG) RecordTurn(ctx context.Context, t TurnRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO player_turns (game_id, round_id, user_id, action) VALUES ($1,$2,$3,$4)`,
		t.GameID, t.RoundID, t.UserID, t.Action)
	return err
}

func (s *PG) RecordBet(ctx context.Context, b BetRecord) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO bets (game_id, round_id, user_id, amount) VALUES ($1,$2,$3,$4)`,
		b.GameID, b.RoundID, b.UserID, b.Amount)
	return err
}

func (s *PG) CreateUserRoles(ctx context.Context, roles []RoleRecord) error {
	for _, r := range roles {
		if _, err := s.DB.ExecContext(ctx,
			`INSERT INTO user_roles (game_id, user_id, seat_index, roles) VALUES ($1,$2,$3,$4)
			 ON CONFLICT (game_id, user_id) DO NOTHING`,
			r.GameID, r.UserID, r.Seat, r.Roles); err != nil {
			return err
		}
	}
	return nil
}
