package ledger

import (
	"context"

	"green-felt/internal/store"
)

// Ledger is the money boundary: one debit per bet, one credit per win,
// each applied atomically by the store.
type Ledger struct {
	Store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) DebitBet(ctx context.Context, userID string, amount int64) (int64, error) {
	return l.Store.Debit(ctx, userID, amount, store.ReasonBet)
}

func (l *Ledger) CreditWin(ctx context.Context, userID string, amount int64) (int64, error) {
	return l.Store.Credit(ctx, userID, amount, store.ReasonWinGame)
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	return l.Store.Balance(ctx, userID)
}
