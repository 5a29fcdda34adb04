package store

import (
	"context"
	"testing"
)

func TestMemDebitCredit(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.CreateUser(ctx, User{ID: "u1", Username: "alice", Token: "tok"}, 100); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	bal, err := s.Debit(ctx, "u1", 40, ReasonBet)
	if err != nil || bal != 60 {
		t.Fatalf("Debit = (%d, %v), want 60", bal, err)
	}
	bal, err = s.Credit(ctx, "u1", 15, ReasonWinGame)
	if err != nil || bal != 75 {
		t.Fatalf("Credit = (%d, %v), want 75", bal, err)
	}
	if _, err := s.Debit(ctx, "u1", 100, ReasonBet); err != ErrInsufficientFunds {
		t.Fatalf("overdraft err = %v, want ErrInsufficientFunds", err)
	}
	if bal, _ := s.Balance(ctx, "u1"); bal != 75 {
		t.Fatalf("balance after failed debit = %d, want 75", bal)
	}
}

func TestMemDebitToZeroAllowed(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.CreateUser(ctx, User{ID: "u1", Username: "a", Token: "t"}, 50); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bal, err := s.Debit(ctx, "u1", 50, ReasonBet)
	if err != nil || bal != 0 {
		t.Fatalf("Debit = (%d, %v), want exactly 0", bal, err)
	}
}

func TestMemGetUserByToken(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.CreateUser(ctx, User{ID: "u1", Username: "alice", Token: "tok-1"}, 100); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := s.GetUserByToken(ctx, "tok-1")
	if err != nil || u.ID != "u1" {
		t.Fatalf("GetUserByToken = (%+v, %v)", u, err)
	}
	if _, err := s.GetUserByToken(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestMemCreateUserIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.CreateUser(ctx, User{ID: "u1", Username: "a", Token: "t"}, 100); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, User{ID: "u1", Username: "a", Token: "t"}, 999); err != nil {
		t.Fatalf("repeat CreateUser: %v", err)
	}
	if bal, _ := s.Balance(ctx, "u1"); bal != 100 {
		t.Fatalf("balance = %d, want original 100", bal)
	}
}

func TestMemDefaultTables(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.EnsureDefaultTables(ctx); err != nil {
		t.Fatalf("EnsureDefaultTables: %v", err)
	}
	tables, err := s.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	rec, err := s.GetTable(ctx, "green-1")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if rec.MinBet != 10 || rec.MaxPlayers != 6 {
		t.Fatalf("green-1 = %+v", rec)
	}
}

func TestMemGameLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	if err := s.CreateGame(ctx, GameRecord{ID: "g1", TableKey: "t1"}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := s.AttachPlayer(ctx, "g1", "u1", 0); err != nil {
		t.Fatalf("AttachPlayer: %v", err)
	}
	if err := s.SetPlayerFolded(ctx, "g1", "u1"); err != nil {
		t.Fatalf("SetPlayerFolded: %v", err)
	}
	if err := s.FinishGame(ctx, "g1", []WinnerRecord{{UserID: "u1", Amount: 10}}); err != nil {
		t.Fatalf("FinishGame: %v", err)
	}
	if err := s.DeleteGame(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
}

func TestMemRoundUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	r := RoundRecord{ID: "r1", GameID: "g1", Type: "PRE_FLOP", TurnIndex: 1}
	if err := s.CreateRound(ctx, r); err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	r.Type = "END_GAME"
	r.TurnIndex = 2
	r.HighestBet = 50
	if err := s.UpdateRound(ctx, r); err != nil {
		t.Fatalf("UpdateRound: %v", err)
	}
	if err := s.UpdateRound(ctx, RoundRecord{ID: "missing"}); err != ErrNotFound {
		t.Fatalf("update missing round err = %v, want ErrNotFound", err)
	}
}

func TestNewIDsAreSortable(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Fatal("ids must be unique")
	}
	if !(a < b) {
		t.Fatalf("ids should be monotonically sortable: %s then %s", a, b)
	}
}
