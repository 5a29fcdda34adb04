package tcp

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"green-felt/internal/game"
	"green-felt/internal/ledger"
	"green-felt/internal/store"
)

// session is one authenticated connection. Outbound frames go through the
// send channel so network writes never run under the broker lock.
type session struct {
	conn     net.Conn
	send     chan []byte
	userID   string
	username string

	mu       sync.Mutex
	tableKey string
	closed   bool
}

func (s *session) table() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableKey
}

func (s *session) setTable(key string) {
	s.mu.Lock()
	s.tableKey = key
	s.mu.Unlock()
}

func (s *session) close() {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if already {
		return
	}
	close(s.send)
	_ = s.conn.Close()
}

// Broker routes authenticated sessions to the engine and fans table
// snapshots back out. One session per user: a second login closes the
// first connection and inherits its seat.
type Broker struct {
	store  store.Store
	ledger *ledger.Ledger
	engine *game.Engine

	// AutoFoldDelay is the grace period before an absent player whose
	// turn it is gets folded by the server.
	AutoFoldDelay time.Duration

	mu      sync.Mutex
	byUser  map[string]*session
	byTable map[string]map[*session]bool
}

func NewBroker(s store.Store, l *ledger.Ledger, e *game.Engine, autoFoldDelay time.Duration) *Broker {
	b := &Broker{
		store:         s,
		ledger:        l,
		engine:        e,
		AutoFoldDelay: autoFoldDelay,
		byUser:        map[string]*session{},
		byTable:       map[string]map[*session]bool{},
	}
	e.SetNotifier(b)
	return b
}

// TableChanged pushes fresh per-viewer snapshots to every session watching
// the table, then re-arms the absent-player fold check.
func (b *Broker) TableChanged(tableKey string) {
	b.broadcast(context.Background(), tableKey)
	b.checkAutoFold(tableKey)
}

// register installs the session as the user's single live connection,
// closing any prior one. The prior connection's seat survives; only the
// transport is replaced.
func (b *Broker) register(s *session) {
	b.mu.Lock()
	prev := b.byUser[s.userID]
	b.byUser[s.userID] = s
	if prev != nil {
		if key := prev.table(); key != "" {
			delete(b.byTable[key], prev)
			b.subscribeLocked(s, key)
			s.setTable(key)
		}
	}
	b.mu.Unlock()

	if prev != nil {
		prev.setTable("")
		prev.close()
		log.Info().Str("user_id", s.userID).Msg("superseded connection closed")
	}
}

func (b *Broker) subscribeLocked(s *session, tableKey string) {
	set := b.byTable[tableKey]
	if set == nil {
		set = map[*session]bool{}
		b.byTable[tableKey] = set
	}
	set[s] = true
}

// disconnect tears the session down. A connection replaced by a newer
// login keeps the user's seat; a genuine disconnect leaves the table.
func (b *Broker) disconnect(ctx context.Context, s *session) {
	b.mu.Lock()
	current := b.byUser[s.userID] == s
	if current {
		delete(b.byUser, s.userID)
	}
	key := s.table()
	if key != "" {
		delete(b.byTable[key], s)
	}
	b.mu.Unlock()
	s.close()

	if !current || key == "" {
		return
	}
	if err := b.engine.LeaveGame(ctx, key, s.userID); err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("table", key).Msg("leave on disconnect failed")
	}
	b.broadcast(ctx, key)
	b.checkAutoFold(key)
}

// handle dispatches one decoded command from an authenticated session.
func (b *Broker) handle(ctx context.Context, s *session, cmd, arg string) {
	var err error
	switch cmd {
	case cmdJoin:
		err = b.join(ctx, s, arg)
	case cmdLeave:
		err = b.leave(ctx, s, arg)
	case cmdBet:
		var amount int64
		amount, err = strconv.ParseInt(arg, 10, 64)
		if err != nil {
			err = game.ErrActionNotPermitted
			break
		}
		err = b.engine.Bet(ctx, s.table(), s.userID, amount)
	case cmdCheck:
		err = b.engine.Check(ctx, s.table(), s.userID)
	case cmdFold:
		err = b.engine.Fold(ctx, s.table(), s.userID)
	case cmdAutoFold:
		err = b.engine.AutoFold(ctx, s.table(), s.userID)
	case cmdStatus:
		b.sendSnapshot(ctx, s, arg)
		return
	default:
		s.write(encodeFrame(errorPayload("unknown_command")))
		return
	}

	if err != nil {
		s.write(encodeFrame(errorPayload(err.Error())))
		return
	}
	if key := s.table(); key != "" {
		b.broadcast(ctx, key)
		b.checkAutoFold(key)
	}
}

// join seats the user, kicks off a hand once a second player arrives, and
// subscribes the connection to the table's pushes. A zero balance cannot
// take a seat.
func (b *Broker) join(ctx context.Context, s *session, tableKey string) error {
	balance, err := b.ledger.Balance(ctx, s.userID)
	if err != nil {
		return err
	}
	if balance <= 0 {
		return store.ErrInsufficientFunds
	}

	count, inGame, err := b.engine.ConnectPlayerToTable(ctx, tableKey, s.userID, s.username)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if prev := s.table(); prev != "" && prev != tableKey {
		delete(b.byTable[prev], s)
	}
	b.subscribeLocked(s, tableKey)
	b.mu.Unlock()
	s.setTable(tableKey)

	if !inGame && count >= 2 && !b.engine.HasActiveGame(tableKey) {
		if err := b.engine.StartHand(ctx, tableKey); err != nil && err != game.ErrNotEnoughPlayers {
			return err
		}
	}
	return nil
}

func (b *Broker) leave(ctx context.Context, s *session, tableKey string) error {
	if tableKey == "" {
		tableKey = s.table()
	}
	if tableKey == "" {
		return nil
	}
	err := b.engine.LeaveGame(ctx, tableKey, s.userID)

	b.mu.Lock()
	delete(b.byTable[tableKey], s)
	b.mu.Unlock()
	if s.table() == tableKey {
		s.setTable("")
	}

	b.broadcast(ctx, tableKey)
	b.checkAutoFold(tableKey)
	return err
}

func (b *Broker) sendSnapshot(ctx context.Context, s *session, tableKey string) {
	if tableKey == "" {
		tableKey = s.table()
	}
	st, err := b.engine.Snapshot(ctx, tableKey, s.userID)
	if err != nil {
		s.write(encodeFrame(errorPayload(err.Error())))
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		log.Error().Err(err).Str("table", tableKey).Msg("marshal snapshot failed")
		return
	}
	s.write(encodeFrame(payload))
}

// broadcast renders a per-viewer snapshot for every watcher. Each viewer
// gets their own frame: hole-card visibility differs per user.
func (b *Broker) broadcast(ctx context.Context, tableKey string) {
	b.mu.Lock()
	watchers := make([]*session, 0, len(b.byTable[tableKey]))
	for s := range b.byTable[tableKey] {
		watchers = append(watchers, s)
	}
	b.mu.Unlock()

	for _, s := range watchers {
		b.sendSnapshot(ctx, s, tableKey)
	}
}

// checkAutoFold folds the player to act when they have no live connection,
// after a grace period. Folding advances the turn, which broadcasts and
// re-arms the check, so a run of absent players folds one by one.
func (b *Broker) checkAutoFold(tableKey string) {
	userID, ok := b.engine.CurrentTurn(tableKey)
	if !ok || b.connected(userID) {
		return
	}
	time.AfterFunc(b.AutoFoldDelay, func() {
		current, ok := b.engine.CurrentTurn(tableKey)
		if !ok || current != userID || b.connected(userID) {
			return
		}
		ctx := context.Background()
		if err := b.engine.AutoFold(ctx, tableKey, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("table", tableKey).Msg("auto fold failed")
			return
		}
		log.Info().Str("user_id", userID).Str("table", tableKey).Msg("auto_fold")
		b.broadcast(ctx, tableKey)
		b.checkAutoFold(tableKey)
	})
}

func (b *Broker) connected(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byUser[userID] != nil
}

func (s *session) write(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- frame:
	default:
		log.Warn().Str("user_id", s.userID).Msg("send buffer full, dropping frame")
	}
}
