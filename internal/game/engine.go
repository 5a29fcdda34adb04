package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"green-felt/internal/ledger"
	"green-felt/internal/store"
)

// Notifier is told when a table's state changed outside a command handler
// (the delayed hand restart); the connection broker implements it to push
// fresh snapshots.
type Notifier interface {
	TableChanged(tableKey string)
}

// Engine owns every hand of poker in the process. Each operation takes the
// target table's lock for its whole read-validate-write sequence; separate
// tables never contend.
type Engine struct {
	store    store.Store
	ledger   *ledger.Ledger
	reg      *Registry
	notifier Notifier

	// RestartDelay is the pause between a settled hand and the automatic
	// next deal, letting clients render the showdown.
	RestartDelay time.Duration
}

func NewEngine(s store.Store, l *ledger.Ledger, reg *Registry, restartDelay time.Duration) *Engine {
	return &Engine{store: s, ledger: l, reg: reg, RestartDelay: restartDelay}
}

func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

func (e *Engine) Registry() *Registry {
	return e.reg
}

// LoadTables bridges the persisted table records into the live registry.
func (e *Engine) LoadTables(ctx context.Context) error {
	recs, err := e.store.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		e.reg.GetOrCreate(rec)
	}
	return nil
}

// ConnectPlayerToTable idempotently seats a user at the table (re-joining
// keeps the seat) and reports the seat count plus whether the user already
// belongs to the running hand. The caller uses that to decide whether to
// deal a new hand.
func (e *Engine) ConnectPlayerToTable(ctx context.Context, tableKey, userID, username string) (int, bool, error) {
	rec, err := e.store.GetTable(ctx, tableKey)
	if err != nil {
		return 0, false, ErrTableNotFound
	}
	t := e.reg.GetOrCreate(*rec)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byUser[userID]; !ok {
		seat := t.firstFreeSeat()
		if seat < 0 {
			return len(t.byUser), false, ErrTableFull
		}
		t.byUser[userID] = &Seated{UserID: userID, Name: username, Seat: seat}
		if err := e.store.UpsertSeat(ctx, tableKey, userID, seat); err != nil {
			delete(t.byUser, userID)
			return len(t.byUser), false, err
		}
	}
	inGame := t.game != nil && t.game.Active && t.game.Player(userID) != nil
	return len(t.byUser), inGame, nil
}

// HasActiveGame reports whether a hand is currently running at the table.
func (e *Engine) HasActiveGame(tableKey string) bool {
	t := e.reg.Get(tableKey)
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.game != nil && t.game.Active
}

// StartGame deactivates any prior hand, snapshots the seated players,
// deals hole cards and creates the pre-flop round with roles assigned.
func (e *Engine) StartGame(ctx context.Context, tableKey string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return e.startGameLocked(ctx, t)
}

// PostBlinds posts the forced small and big blinds through the shared
// bet-registration path and points the turn at the seat after the dealer.
func (e *Engine) PostBlinds(ctx context.Context, tableKey string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return e.postBlindsLocked(ctx, t)
}

// StartHand is StartGame followed by PostBlinds under one lock scope.
func (e *Engine) StartHand(ctx context.Context, tableKey string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := e.startGameLocked(ctx, t); err != nil {
		return err
	}
	return e.postBlindsLocked(ctx, t)
}

func (e *Engine) startGameLocked(ctx context.Context, t *Table) error {
	if len(t.byUser) < 2 {
		return ErrNotEnoughPlayers
	}
	if t.game != nil && t.game.Active {
		t.game.Active = false
	}
	if err := e.store.DeactivateGames(ctx, t.Key); err != nil {
		return err
	}

	g := &Game{ID: store.NewID(), TableKey: t.Key, Active: true}
	ids := make([]string, 0, len(t.byUser))
	for _, s := range t.seatedBySeat() {
		g.Players = append(g.Players, &PlayerInGame{UserID: s.UserID, Name: s.Name, Seat: s.Seat})
		ids = append(ids, s.UserID)
	}

	deck := NewDeck()
	deck.Shuffle()
	hole, err := deck.DealHoleCards(ids)
	if err != nil {
		return err
	}
	cards := map[string][]Card{communityKey: {}}
	for id, h := range hole {
		cards[id] = h
	}

	round := &Round{ID: store.NewID(), Type: RoundPreFlop, game: g, Cards: cards}
	e.assignRoles(t, g, round)

	t.game = g
	t.round = round

	if err := e.store.CreateGame(ctx, store.GameRecord{ID: g.ID, TableKey: t.Key}); err != nil {
		return err
	}
	for _, p := range g.Players {
		if err := e.store.AttachPlayer(ctx, g.ID, p.UserID, p.Seat); err != nil {
			return err
		}
	}
	if err := e.persistRoundCreate(ctx, round); err != nil {
		return err
	}
	roleRecs := make([]store.RoleRecord, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles := make([]string, 0, len(r.Roles))
		for _, x := range r.Roles {
			roles = append(roles, string(x))
		}
		roleRecs = append(roleRecs, store.RoleRecord{GameID: g.ID, UserID: r.UserID, Seat: r.Seat, Roles: roles})
	}
	if err := e.store.CreateUserRoles(ctx, roleRecs); err != nil {
		return err
	}
	if err := e.store.SetTableWaiting(ctx, t.Key, false); err != nil {
		return err
	}

	log.Info().Str("table", t.Key).Str("game_id", g.ID).Int("players", len(g.Players)).Msg("hand_start")
	return nil
}

// assignRoles rotates the dealer to the next seat after the previous
// hand's dealer (lowest seat on a fresh table), small blind next, big
// blind after that. Heads-up collapses DEALER and BIG_BLIND onto one seat.
// The turn starts at the small blind.
func (e *Engine) assignRoles(t *Table, g *Game, round *Round) {
	players := g.ActivePlayers()
	var dealerSeat int
	if t.prevDealerSeat >= 0 {
		next, _ := g.NextBySeat(t.prevDealerSeat)
		dealerSeat = next.Seat
	} else {
		dealerSeat = players[0].Seat
	}
	sbPlayer, _ := g.NextBySeat(dealerSeat)
	sbSeat := sbPlayer.Seat
	bbPlayer, _ := g.NextBySeat(sbSeat)
	bbSeat := bbPlayer.Seat

	round.TurnIndex = sbSeat
	round.HighestBetSeat = sbSeat

	headsUp := len(players) == 2
	for _, p := range players {
		var roles []Role
		switch {
		case p.Seat == dealerSeat && headsUp:
			roles = []Role{RoleDealer, RoleBigBlind}
		case p.Seat == dealerSeat:
			roles = []Role{RoleDealer}
		case p.Seat == sbSeat:
			roles = []Role{RoleSmallBlind}
		case p.Seat == bbSeat:
			roles = []Role{RoleBigBlind}
		default:
			roles = []Role{RolePlayer}
		}
		g.Roles = append(g.Roles, UserRole{UserID: p.UserID, Seat: p.Seat, Roles: roles})
	}
}

func (e *Engine) postBlindsLocked(ctx context.Context, t *Table) error {
	g, r := t.game, t.round
	if g == nil || r == nil {
		return ErrNoActiveGame
	}
	var sb, bb *UserRole
	for i := range g.Roles {
		if g.Roles[i].Has(RoleSmallBlind) {
			sb = &g.Roles[i]
		}
		if g.Roles[i].Has(RoleBigBlind) {
			bb = &g.Roles[i]
		}
	}
	if sb == nil || bb == nil {
		return nil
	}
	if err := e.registerBet(ctx, t, sb.UserID, t.MinBet/2); err != nil {
		return err
	}
	if err := e.registerBet(ctx, t, bb.UserID, t.MinBet); err != nil {
		return err
	}
	next, _ := g.NextBySeat(g.DealerSeat())
	r.TurnIndex = next.Seat
	r.HighestBet = t.MinBet
	return e.persistRoundUpdate(ctx, r)
}

// Bet validates and applies a voluntary bet: it must be the user's turn,
// the amount must cover the call, and all-in players cannot act again.
// The turn is classified BET/CALL/RISE against the previous bet in the
// round; amounts exceeding the table-high reopen the betting circle.
func (e *Engine) Bet(ctx context.Context, tableKey, userID string, amount int64) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.validTurn(userID)
	if err != nil {
		return err
	}
	if amount < t.round.MinBetToCall() {
		return ErrBelowMinimumBet
	}
	if t.game.HasAllIn(userID) {
		return ErrActionNotPermitted
	}

	maxBet := t.round.HighestTotalBet()
	if err := e.registerBet(ctx, t, userID, amount); err != nil {
		return err
	}
	if total := t.round.UserTotalBet(userID); total > maxBet {
		t.round.HighestBet = total
		t.round.HighestBetSeat = p.Seat
		t.round.HighestBetThisRound = true
	}
	t.round.AdvanceTurn()
	if err := e.persistRoundUpdate(ctx, t.round); err != nil {
		return err
	}
	return e.afterTurnLocked(ctx, t)
}

// Check is valid only when the user's round total already matches the
// table-high bet.
func (e *Engine) Check(ctx context.Context, tableKey, userID string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.validTurn(userID)
	if err != nil {
		return err
	}
	if t.game.HasAllIn(userID) {
		return ErrActionNotPermitted
	}
	if t.round.UserTotalBet(userID) != t.round.HighestBet {
		return ErrActionNotPermitted
	}

	e.recordTurn(ctx, t, userID, ActionCheck)
	t.round.AdvanceTurn()
	if err := e.persistRoundUpdate(ctx, t.round); err != nil {
		return err
	}
	return e.afterTurnLocked(ctx, t)
}

// Fold must come from the player whose turn it is; disconnect-driven folds
// run through LeaveGame instead.
func (e *Engine) Fold(ctx context.Context, tableKey, userID string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.validTurn(userID)
	if err != nil {
		return err
	}
	return e.applyFoldLocked(ctx, t, p, ActionFold)
}

// AutoFold is the system-driven fold for an unresponsive player. It is
// invoked precisely because it is that player's turn.
func (e *Engine) AutoFold(ctx context.Context, tableKey, userID string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.validTurn(userID)
	if err != nil {
		return err
	}
	return e.applyFoldLocked(ctx, t, p, ActionAutoFold)
}

func (e *Engine) applyFoldLocked(ctx context.Context, t *Table, p *PlayerInGame, action TurnAction) error {
	e.recordTurn(ctx, t, p.UserID, action)
	p.Folded = true
	if err := e.store.SetPlayerFolded(ctx, t.game.ID, p.UserID); err != nil {
		log.Error().Err(err).Str("table", t.Key).Msg("persist fold failed")
	}
	t.round.AdvanceTurn()
	if err := e.persistRoundUpdate(ctx, t.round); err != nil {
		return err
	}
	if len(t.game.ActivePlayers()) <= 1 {
		e.stopGameLocked(ctx, t)
		return nil
	}
	return e.afterTurnLocked(ctx, t)
}

// afterTurnLocked is the post-action hook: when the betting circle closes,
// the hand advances to the next street or to showdown.
func (e *Engine) afterTurnLocked(ctx context.Context, t *Table) error {
	if !t.round.BiddingClosed(true) {
		return nil
	}
	next := nextRoundType(t.round.Type)
	if next == RoundEndGame {
		return e.showdownLocked(ctx, t)
	}
	return e.nextStreetLocked(ctx, t, next)
}

// nextStreetLocked deals the street's community cards from a deck that
// excludes everything already dealt, carries the card map forward and
// reopens betting at the seat after the dealer.
func (e *Engine) nextStreetLocked(ctx context.Context, t *Table, next RoundType) error {
	deck := NewDeck(t.round.AllCards()...)
	deck.Shuffle()
	community, err := deck.DealCommunity(communityCardCount(next))
	if err != nil {
		// Deck exhaustion is fatal to the hand: abort and redeal rather
		// than corrupt state.
		log.Error().Err(err).Str("table", t.Key).Msg("deck exhausted, aborting hand")
		e.stopGameLocked(ctx, t)
		return err
	}

	cards := make(map[string][]Card, len(t.round.Cards))
	for k, v := range t.round.Cards {
		cards[k] = v
	}
	cards[communityKey] = append(append([]Card{}, cards[communityKey]...), community...)

	nextPlayer, _ := t.game.NextBySeat(t.game.DealerSeat())
	round := &Round{
		ID:                  store.NewID(),
		Type:                next,
		game:                t.game,
		Cards:               cards,
		TurnIndex:           nextPlayer.Seat,
		HighestBet:          0,
		HighestBetSeat:      nextPlayer.Seat,
		HighestBetThisRound: true,
	}
	t.round = round
	return e.persistRoundCreate(ctx, round)
}

// showdownLocked evaluates every non-folded hand, splits the pot evenly
// among the best (integer floor), credits the winners and schedules the
// next hand.
func (e *Engine) showdownLocked(ctx context.Context, t *Table) error {
	g, r := t.game, t.round
	r.Type = RoundEndGame

	community := r.Community()
	hands := map[string]HandValue{}
	for _, p := range g.ActivePlayers() {
		hands[p.UserID] = RankHand(r.HoleCards(p.UserID), community)
	}
	winners := DetermineWinners(hands)
	pot := g.Pot()
	share := pot / int64(len(winners))

	winnerRecs := make([]store.WinnerRecord, 0, len(winners))
	for _, id := range winners {
		if _, err := e.ledger.CreditWin(ctx, id, share); err != nil {
			return err
		}
		g.Winners = append(g.Winners, Winner{UserID: id, Amount: share, Category: hands[id].Category})
		winnerRecs = append(winnerRecs, store.WinnerRecord{UserID: id, Amount: share, Category: hands[id].Category})
	}
	g.Active = false
	t.prevDealerSeat = g.DealerSeat()

	if err := e.store.FinishGame(ctx, g.ID, winnerRecs); err != nil {
		return err
	}
	if err := e.persistRoundUpdate(ctx, r); err != nil {
		return err
	}

	log.Info().Str("table", t.Key).Str("game_id", g.ID).Int64("pot", pot).Strs("winners", winners).Msg("hand_settled")
	e.scheduleRestart(t.Key)
	return nil
}

// stopGameLocked is the early-stop path for fold-to-one and leave-to-one:
// the whole pot goes to the last non-folded player without a showdown.
func (e *Engine) stopGameLocked(ctx context.Context, t *Table) {
	g := t.game
	if g == nil {
		return
	}
	active := g.ActivePlayers()
	var last *PlayerInGame
	if len(active) > 0 {
		last = active[len(active)-1]
	}
	pot := g.Pot()
	if pot > 0 && last != nil {
		if _, err := e.ledger.CreditWin(ctx, last.UserID, pot); err != nil {
			log.Error().Err(err).Str("table", t.Key).Msg("credit early-stop winner failed")
		}
		g.Winners = []Winner{{UserID: last.UserID, Amount: pot, Category: ""}}
	}
	g.Active = false
	if t.round != nil {
		t.round.Type = RoundEndGame
	}
	t.prevDealerSeat = g.DealerSeat()

	var recs []store.WinnerRecord
	for _, w := range g.Winners {
		recs = append(recs, store.WinnerRecord{UserID: w.UserID, Amount: w.Amount, Category: w.Category})
	}
	if err := e.store.FinishGame(ctx, g.ID, recs); err != nil {
		log.Error().Err(err).Str("table", t.Key).Msg("persist early stop failed")
	}

	log.Info().Str("table", t.Key).Str("game_id", g.ID).Int64("pot", pot).Msg("hand_stopped")
	e.scheduleRestart(t.Key)
}

// scheduleRestart arms the delayed redeal. The table lock is not held
// while waiting; the timer callback re-acquires it.
func (e *Engine) scheduleRestart(tableKey string) {
	if e.RestartDelay < 0 {
		return
	}
	time.AfterFunc(e.RestartDelay, func() {
		e.restartTable(tableKey)
	})
}

func (e *Engine) restartTable(tableKey string) {
	ctx := context.Background()
	t := e.reg.Get(tableKey)
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.game != nil && t.game.Active {
		// A hand already started in the meantime.
		t.mu.Unlock()
		return
	}
	var err error
	if len(t.byUser) >= 2 {
		if err = e.startGameLocked(ctx, t); err == nil {
			err = e.postBlindsLocked(ctx, t)
		}
	} else {
		err = e.store.SetTableWaiting(ctx, t.Key, true)
	}
	t.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("table", tableKey).Msg("hand restart failed")
	}
	if e.notifier != nil {
		e.notifier.TableChanged(tableKey)
	}
}

// LeaveGame removes a user from the table. Outside a hand this is a plain
// seat removal; mid-hand the turn pointer is advanced off the leaving
// seat, a FOLD (if needed) and a LEAVE are logged, and the hand stops
// early when only one live player remains.
func (e *Engine) LeaveGame(ctx context.Context, tableKey, userID string) error {
	t := e.reg.Get(tableKey)
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, seated := t.byUser[userID]; !seated {
		return nil
	}

	g := t.game
	inHand := g != nil && g.Active && g.Player(userID) != nil
	if !inHand {
		delete(t.byUser, userID)
		if err := e.store.DeleteSeat(ctx, tableKey, userID); err != nil {
			log.Error().Err(err).Str("table", tableKey).Msg("delete seat failed")
		}
	} else {
		p := g.Player(userID)
		if t.round != nil && t.round.TurnIndex == p.Seat {
			t.round.AdvanceTurn()
		}
		if !p.Folded {
			e.recordTurn(ctx, t, userID, ActionFold)
			p.Folded = true
			if err := e.store.SetPlayerFolded(ctx, g.ID, userID); err != nil {
				log.Error().Err(err).Str("table", tableKey).Msg("persist fold failed")
			}
		}
		e.recordTurn(ctx, t, userID, ActionLeave)

		g.removePlayer(userID)
		delete(t.byUser, userID)
		if err := e.store.DeletePlayerFromGame(ctx, g.ID, userID); err != nil {
			log.Error().Err(err).Str("table", tableKey).Msg("delete player failed")
		}
		if err := e.store.DeleteSeat(ctx, tableKey, userID); err != nil {
			log.Error().Err(err).Str("table", tableKey).Msg("delete seat failed")
		}
		if t.round != nil {
			if err := e.persistRoundUpdate(ctx, t.round); err != nil {
				log.Error().Err(err).Str("table", tableKey).Msg("persist round failed")
			}
		}

		if len(g.ActivePlayers()) == 1 || len(t.byUser) == 1 {
			e.stopGameLocked(ctx, t)
		}
	}

	if len(t.byUser) == 0 && t.game != nil {
		if err := e.store.DeleteGame(ctx, t.game.ID); err != nil {
			log.Error().Err(err).Str("table", tableKey).Msg("delete orphaned game failed")
		}
		t.game = nil
		t.round = nil
	}
	if len(t.byUser) == 1 {
		// A lone remaining seat whose last logged action was LEAVE is an
		// abandoned one; clean it up entirely.
		for id := range t.byUser {
			stillPlaying := t.game != nil && t.game.Active && t.game.Player(id) != nil
			if !stillPlaying && t.lastAction[id] == ActionLeave {
				delete(t.byUser, id)
				if err := e.store.DeleteSeat(ctx, tableKey, id); err != nil {
					log.Error().Err(err).Str("table", tableKey).Msg("delete seat failed")
				}
			}
		}
	}
	return nil
}

// CurrentTurn reports who is to act at the table, if a hand is running.
func (e *Engine) CurrentTurn(tableKey string) (userID string, ok bool) {
	t := e.reg.Get(tableKey)
	if t == nil {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.game == nil || !t.game.Active || t.round == nil || t.round.Type == RoundEndGame {
		return "", false
	}
	p := t.round.CurrentPlayer()
	if p == nil {
		return "", false
	}
	return p.UserID, true
}

// validTurn is the shared side-effect-free precondition: the user must be
// part of the running hand and the turn pointer must sit on their seat.
// Callers must hold t.mu.
func (t *Table) validTurn(userID string) (*PlayerInGame, error) {
	if t.game == nil || !t.game.Active {
		return nil, ErrNotActivePlayer
	}
	p := t.game.Player(userID)
	if p == nil {
		return nil, ErrNotActivePlayer
	}
	if t.round == nil {
		return nil, ErrNoActiveGame
	}
	if t.round.TurnIndex != p.Seat {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// registerBet writes the ledger debit and the PlayerTurn/Bet pair as a
// unit: the debit goes first, and a debit failure leaves no records.
// A debit that empties the balance logs ALL_IN instead of BET/CALL/RISE.
func (e *Engine) registerBet(ctx context.Context, t *Table, userID string, amount int64) error {
	action := betTurnType(t.round, amount)
	newBalance, err := e.ledger.DebitBet(ctx, userID, amount)
	if err != nil {
		return err
	}
	if newBalance == 0 {
		action = ActionAllIn
	}
	t.game.Turns = append(t.game.Turns, PlayerTurn{UserID: userID, Round: t.round.Type, Action: action})
	t.game.Bets = append(t.game.Bets, Bet{UserID: userID, Round: t.round.Type, Amount: amount})
	t.lastAction[userID] = action
	if err := e.store.RecordTurn(ctx, store.TurnRecord{GameID: t.game.ID, RoundID: t.round.ID, UserID: userID, Action: string(action)}); err != nil {
		log.Error().Err(err).Str("table", t.Key).Msg("persist turn failed")
	}
	if err := e.store.RecordBet(ctx, store.BetRecord{GameID: t.game.ID, RoundID: t.round.ID, UserID: userID, Amount: amount}); err != nil {
		log.Error().Err(err).Str("table", t.Key).Msg("persist bet failed")
	}
	return nil
}

func (e *Engine) recordTurn(ctx context.Context, t *Table, userID string, action TurnAction) {
	roundType := RoundPreFlop
	roundID := ""
	if t.round != nil {
		roundType = t.round.Type
		roundID = t.round.ID
	}
	t.game.Turns = append(t.game.Turns, PlayerTurn{UserID: userID, Round: roundType, Action: action})
	t.lastAction[userID] = action
	if err := e.store.RecordTurn(ctx, store.TurnRecord{GameID: t.game.ID, RoundID: roundID, UserID: userID, Action: string(action)}); err != nil {
		log.Error().Err(err).Str("table", t.Key).Msg("persist turn failed")
	}
}

// betTurnType classifies a bet against the immediately preceding bet in
// the round: equal is a CALL, greater a RISE, anything else a BET.
func betTurnType(r *Round, amount int64) TurnAction {
	var last *Bet
	for i := len(r.game.Bets) - 1; i >= 0; i-- {
		if r.game.Bets[i].Round == r.Type {
			last = &r.game.Bets[i]
			break
		}
	}
	if last == nil {
		return ActionBet
	}
	switch {
	case amount == last.Amount:
		return ActionCall
	case amount > last.Amount:
		return ActionRise
	default:
		return ActionBet
	}
}

func (g *Game) removePlayer(userID string) {
	for i, p := range g.Players {
		if p.UserID == userID {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return
		}
	}
}

func (e *Engine) persistRoundCreate(ctx context.Context, r *Round) error {
	rec, err := roundRecord(r)
	if err != nil {
		return err
	}
	return e.store.CreateRound(ctx, rec)
}

func (e *Engine) persistRoundUpdate(ctx context.Context, r *Round) error {
	rec, err := roundRecord(r)
	if err != nil {
		return err
	}
	return e.store.UpdateRound(ctx, rec)
}

func roundRecord(r *Round) (store.RoundRecord, error) {
	cards := make(map[string][]string, len(r.Cards))
	for k, v := range r.Cards {
		out := make([]string, 0, len(v))
		for _, c := range v {
			out = append(out, c.String())
		}
		cards[k] = out
	}
	payload, err := json.Marshal(cards)
	if err != nil {
		return store.RoundRecord{}, err
	}
	return store.RoundRecord{
		ID:                  r.ID,
		GameID:              r.game.ID,
		Type:                string(r.Type),
		TurnIndex:           r.TurnIndex,
		HighestBet:          r.HighestBet,
		HighestBetSeat:      r.HighestBetSeat,
		HighestBetThisRound: r.HighestBetThisRound,
		Cards:               payload,
	}, nil
}
