package game

import (
	"context"
	"testing"
	"time"

	"green-felt/internal/ledger"
	"green-felt/internal/store"
)

func newTestEngine(t *testing.T, maxPlayers int, minBet int64, users ...string) (*Engine, store.Store) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMem()
	for _, u := range users {
		if err := st.CreateUser(ctx, store.User{ID: u, Username: u, Token: "tok-" + u}, 1000); err != nil {
			t.Fatalf("create user %s: %v", u, err)
		}
	}
	rec := store.TableRecord{Key: "t1", Name: "Table One", MaxPlayers: maxPlayers, MinBet: minBet, InWait: true}
	if err := st.UpsertTable(ctx, rec); err != nil {
		t.Fatalf("upsert table: %v", err)
	}
	e := NewEngine(st, ledger.New(st), NewRegistry(), -1)
	return e, st
}

func seatAll(t *testing.T, e *Engine, users ...string) {
	t.Helper()
	for _, u := range users {
		if _, _, err := e.ConnectPlayerToTable(context.Background(), "t1", u, u); err != nil {
			t.Fatalf("seat %s: %v", u, err)
		}
	}
}

func mustBalance(t *testing.T, st store.Store, userID string) int64 {
	t.Helper()
	bal, err := st.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance %s: %v", userID, err)
	}
	return bal
}

func roleOf(t *testing.T, e *Engine, userID string) *UserRole {
	t.Helper()
	tb := e.reg.Get("t1")
	r := tb.game.RoleOf(userID)
	if r == nil {
		t.Fatalf("no role for %s", userID)
	}
	return r
}

func TestHeadsUpHandToShowdown(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t, 6, 10, "a", "b")
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Heads-up merges dealer and big blind on the first seat.
	if r := roleOf(t, e, "a"); !r.Has(RoleDealer) || !r.Has(RoleBigBlind) {
		t.Fatalf("a roles = %v, want DEALER+BIG_BLIND", r.Roles)
	}
	if r := roleOf(t, e, "b"); !r.Has(RoleSmallBlind) {
		t.Fatalf("b roles = %v, want SMALL_BLIND", r.Roles)
	}

	tb := e.reg.Get("t1")
	if pot := tb.game.Pot(); pot != 15 {
		t.Fatalf("pot after blinds = %d, want 15", pot)
	}
	if cur, ok := e.CurrentTurn("t1"); !ok || cur != "b" {
		t.Fatalf("current turn = %q, want b", cur)
	}

	// Small blind completes, big blind checks the option.
	if err := e.Bet(ctx, "t1", "b", 5); err != nil {
		t.Fatalf("b call: %v", err)
	}
	if err := e.Check(ctx, "t1", "a"); err != nil {
		t.Fatalf("a check: %v", err)
	}
	if tb.round.Type != RoundFlop {
		t.Fatalf("round = %s, want FLOP", tb.round.Type)
	}
	if got := len(tb.round.Community()); got != 3 {
		t.Fatalf("flop community = %d cards, want 3", got)
	}

	for _, wantType := range []RoundType{RoundTurn, RoundRiver, RoundEndGame} {
		if err := e.Check(ctx, "t1", "b"); err != nil {
			t.Fatalf("b check before %s: %v", wantType, err)
		}
		if err := e.Check(ctx, "t1", "a"); err != nil {
			t.Fatalf("a check before %s: %v", wantType, err)
		}
		if tb.round.Type != wantType {
			t.Fatalf("round = %s, want %s", tb.round.Type, wantType)
		}
	}

	if tb.game.Active {
		t.Fatal("hand should be settled after the river circle")
	}
	if len(tb.game.Winners) == 0 {
		t.Fatal("no winners recorded")
	}
	share := int64(20) / int64(len(tb.game.Winners))
	for _, w := range tb.game.Winners {
		if w.Amount != share {
			t.Fatalf("winner share = %d, want %d", w.Amount, share)
		}
		if w.Category == "" {
			t.Fatal("showdown winner must carry a hand category")
		}
	}
	total := mustBalance(t, st, "a") + mustBalance(t, st, "b")
	want := int64(2000) - (20 - share*int64(len(tb.game.Winners)))
	if total != want {
		t.Fatalf("total chips = %d, want %d", total, want)
	}
}

func TestBlindsClassifiedThroughBetPath(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	tb := e.reg.Get("t1")
	if len(tb.game.Turns) != 2 {
		t.Fatalf("turns after blinds = %d, want 2", len(tb.game.Turns))
	}
	if tb.game.Turns[0].Action != ActionBet || tb.game.Turns[0].UserID != "b" {
		t.Fatalf("small blind turn = %+v, want BET by b", tb.game.Turns[0])
	}
	if tb.game.Turns[1].Action != ActionRise || tb.game.Turns[1].UserID != "c" {
		t.Fatalf("big blind turn = %+v, want RISE by c", tb.game.Turns[1])
	}
	if tb.game.Bets[0].Amount != 5 || tb.game.Bets[1].Amount != 10 {
		t.Fatalf("blind amounts = %d/%d, want 5/10", tb.game.Bets[0].Amount, tb.game.Bets[1].Amount)
	}
}

func TestFoldToSingleStopsHand(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.Fold(ctx, "t1", "b"); err != nil {
		t.Fatalf("b fold: %v", err)
	}
	if err := e.Fold(ctx, "t1", "c"); err != nil {
		t.Fatalf("c fold: %v", err)
	}

	tb := e.reg.Get("t1")
	if tb.game.Active {
		t.Fatal("hand should stop when one player remains")
	}
	if len(tb.game.Winners) != 1 || tb.game.Winners[0].UserID != "a" {
		t.Fatalf("winners = %+v, want a", tb.game.Winners)
	}
	if tb.game.Winners[0].Amount != 15 || tb.game.Winners[0].Category != "" {
		t.Fatalf("early-stop winner = %+v, want 15 chips and no category", tb.game.Winners[0])
	}
	if got := mustBalance(t, st, "a"); got != 1015 {
		t.Fatalf("a balance = %d, want 1015", got)
	}
}

func TestTurnValidation(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.Bet(ctx, "t1", "a", 10); err != ErrNotYourTurn {
		t.Fatalf("bet out of turn: err = %v, want ErrNotYourTurn", err)
	}
	if err := e.Bet(ctx, "t1", "z", 10); err != ErrNotActivePlayer {
		t.Fatalf("bet by stranger: err = %v, want ErrNotActivePlayer", err)
	}
	if err := e.Bet(ctx, "t1", "b", 3); err != ErrBelowMinimumBet {
		t.Fatalf("undersized bet: err = %v, want ErrBelowMinimumBet", err)
	}
	if err := e.Check(ctx, "t1", "b"); err != ErrActionNotPermitted {
		t.Fatalf("check while owing: err = %v, want ErrActionNotPermitted", err)
	}
	if err := e.Bet(ctx, "nope", "b", 10); err != ErrTableNotFound {
		t.Fatalf("unknown table: err = %v, want ErrTableNotFound", err)
	}
}

func TestRaiseReopensBetting(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b")
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	tb := e.reg.Get("t1")
	if err := e.Bet(ctx, "t1", "b", 20); err != nil {
		t.Fatalf("b raise: %v", err)
	}
	if tb.round.HighestBet != 25 || tb.round.HighestBetSeat != 1 {
		t.Fatalf("raise not registered: highest=%d seat=%d", tb.round.HighestBet, tb.round.HighestBetSeat)
	}
	if err := e.Check(ctx, "t1", "a"); err != ErrActionNotPermitted {
		t.Fatalf("check facing raise: err = %v, want ErrActionNotPermitted", err)
	}
	if err := e.Bet(ctx, "t1", "a", 10); err != ErrBelowMinimumBet {
		t.Fatalf("short call: err = %v, want ErrBelowMinimumBet", err)
	}
	if err := e.Bet(ctx, "t1", "a", 15); err != nil {
		t.Fatalf("a call: %v", err)
	}
	// Matching the table-high closes the circle back at the raiser.
	if tb.round.Type != RoundFlop {
		t.Fatalf("round = %s, want FLOP", tb.round.Type)
	}
	if pot := tb.game.Pot(); pot != 50 {
		t.Fatalf("pot = %d, want 50", pot)
	}
}

func TestDealerRotatesBetweenHands(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("first hand: %v", err)
	}
	if r := roleOf(t, e, "a"); !r.Has(RoleDealer) {
		t.Fatalf("first hand dealer roles = %v, want a as DEALER", r.Roles)
	}

	if err := e.Fold(ctx, "t1", "b"); err != nil {
		t.Fatalf("b fold: %v", err)
	}
	if err := e.Fold(ctx, "t1", "c"); err != nil {
		t.Fatalf("c fold: %v", err)
	}

	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("second hand: %v", err)
	}
	if r := roleOf(t, e, "b"); !r.Has(RoleDealer) {
		t.Fatalf("second hand roles for b = %v, want DEALER", r.Roles)
	}
	if r := roleOf(t, e, "c"); !r.Has(RoleSmallBlind) {
		t.Fatalf("second hand roles for c = %v, want SMALL_BLIND", r.Roles)
	}
	if r := roleOf(t, e, "a"); !r.Has(RoleBigBlind) {
		t.Fatalf("second hand roles for a = %v, want BIG_BLIND", r.Roles)
	}
}

func TestLeaveMidHandLogsFoldThenLeave(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.LeaveGame(ctx, "t1", "b"); err != nil {
		t.Fatalf("b leave: %v", err)
	}

	tb := e.reg.Get("t1")
	n := len(tb.game.Turns)
	if n < 2 {
		t.Fatalf("turn log too short: %d", n)
	}
	if tb.game.Turns[n-2].UserID != "b" || tb.game.Turns[n-2].Action != ActionFold {
		t.Fatalf("second-to-last turn = %+v, want FOLD by b", tb.game.Turns[n-2])
	}
	if tb.game.Turns[n-1].UserID != "b" || tb.game.Turns[n-1].Action != ActionLeave {
		t.Fatalf("last turn = %+v, want LEAVE by b", tb.game.Turns[n-1])
	}
	if tb.game.Player("b") != nil {
		t.Fatal("b should be removed from the hand")
	}
	if !tb.game.Active {
		t.Fatal("hand should continue with two live players")
	}
	if cur, _ := e.CurrentTurn("t1"); cur != "c" {
		t.Fatalf("current turn = %q, want c", cur)
	}
}

func TestLeaveHeadsUpStopsHand(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t, 6, 10, "a", "b")
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.LeaveGame(ctx, "t1", "b"); err != nil {
		t.Fatalf("b leave: %v", err)
	}

	tb := e.reg.Get("t1")
	if tb.game.Active {
		t.Fatal("hand should stop when the opponent leaves")
	}
	if got := mustBalance(t, st, "a"); got != 1005 {
		t.Fatalf("a balance = %d, want 1005 (15 pot minus 10 blind)", got)
	}
	if got := mustBalance(t, st, "b"); got != 995 {
		t.Fatalf("b balance = %d, want 995", got)
	}
}

func TestLastLeaverDeletesOrphanedGame(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b")
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.LeaveGame(ctx, "t1", "b"); err != nil {
		t.Fatalf("b leave: %v", err)
	}
	if err := e.LeaveGame(ctx, "t1", "a"); err != nil {
		t.Fatalf("a leave: %v", err)
	}

	tb := e.reg.Get("t1")
	if tb.game != nil {
		t.Fatal("orphaned game should be deleted once the table empties")
	}
	if len(tb.byUser) != 0 {
		t.Fatalf("seats = %d, want 0", len(tb.byUser))
	}
}

func TestConnectIdempotentAndTableFull(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 2, 10, "a", "b", "c")

	count, _, err := e.ConnectPlayerToTable(ctx, "t1", "a", "a")
	if err != nil || count != 1 {
		t.Fatalf("first join = (%d, %v), want 1 seat", count, err)
	}
	count, _, err = e.ConnectPlayerToTable(ctx, "t1", "a", "a")
	if err != nil || count != 1 {
		t.Fatalf("repeat join = (%d, %v), want still 1 seat", count, err)
	}
	if _, _, err := e.ConnectPlayerToTable(ctx, "t1", "b", "b"); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if _, _, err := e.ConnectPlayerToTable(ctx, "t1", "c", "c"); err != ErrTableFull {
		t.Fatalf("third join err = %v, want ErrTableFull", err)
	}
}

func TestShowdownSplitsPotWhenBoardPlays(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t, 6, 10, "a", "b")
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// Force a river where the board is the best hand for both players.
	tb := e.reg.Get("t1")
	tb.round.Type = RoundRiver
	tb.round.Cards = map[string][]Card{
		communityKey: cardsFrom(t, "As Ks Qs Js Ts"),
		"a":          cardsFrom(t, "2h 3d"),
		"b":          cardsFrom(t, "4c 5h"),
	}
	tb.round.HighestBet = 0
	tb.round.HighestBetSeat = 1
	tb.round.TurnIndex = 1
	tb.round.HighestBetThisRound = true

	if err := e.Check(ctx, "t1", "b"); err != nil {
		t.Fatalf("b check: %v", err)
	}
	if err := e.Check(ctx, "t1", "a"); err != nil {
		t.Fatalf("a check: %v", err)
	}

	if len(tb.game.Winners) != 2 {
		t.Fatalf("winners = %+v, want a split", tb.game.Winners)
	}
	for _, w := range tb.game.Winners {
		if w.Amount != 7 {
			t.Fatalf("split share = %d, want 7 (15/2 floored)", w.Amount)
		}
		if w.Category != "Straight Flush" {
			t.Fatalf("category = %q, want Straight Flush", w.Category)
		}
	}
	if got := mustBalance(t, st, "a"); got != 997 {
		t.Fatalf("a balance = %d, want 997", got)
	}
	if got := mustBalance(t, st, "b"); got != 1002 {
		t.Fatalf("b balance = %d, want 1002", got)
	}
}

func TestAllInLoggedWhenBalanceEmpties(t *testing.T) {
	ctx := context.Background()
	e, st := newTestEngine(t, 6, 10, "a")
	if err := st.CreateUser(ctx, store.User{ID: "b", Username: "b", Token: "tok-b"}, 10); err != nil {
		t.Fatalf("create short stack: %v", err)
	}
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	// b posted the 5 small blind from a 10 stack; calling 5 more empties it.
	if err := e.Bet(ctx, "t1", "b", 5); err != nil {
		t.Fatalf("b call: %v", err)
	}

	tb := e.reg.Get("t1")
	last := tb.game.LastTurnOf("b")
	if last == nil || last.Action != ActionAllIn {
		t.Fatalf("last turn of b = %+v, want ALL_IN", last)
	}
	if got := mustBalance(t, st, "b"); got != 0 {
		t.Fatalf("b balance = %d, want 0", got)
	}
}

func TestAutoFoldMarksPlayerFolded(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b", "c")
	seatAll(t, e, "a", "b", "c")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}

	if err := e.AutoFold(ctx, "t1", "b"); err != nil {
		t.Fatalf("auto fold: %v", err)
	}
	tb := e.reg.Get("t1")
	if !tb.game.Player("b").Folded {
		t.Fatal("b should be folded")
	}
	if last := tb.game.LastTurnOf("b"); last == nil || last.Action != ActionAutoFold {
		t.Fatalf("last turn of b = %+v, want AUTO_FOLD", last)
	}
}

func TestRestartDealsNextHand(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, 6, 10, "a", "b")
	e.RestartDelay = 10 * time.Millisecond
	seatAll(t, e, "a", "b")
	if err := e.StartHand(ctx, "t1"); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	firstID := e.reg.Get("t1").game.ID

	if err := e.Fold(ctx, "t1", "b"); err != nil {
		t.Fatalf("b fold: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.HasActiveGame("t1") {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	tb := e.reg.Get("t1")
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.game == nil || !tb.game.Active || tb.game.ID == firstID {
		t.Fatal("a fresh hand should start after the restart delay")
	}
}
