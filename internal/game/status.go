package game

import "context"

// TableStatus is the per-viewer snapshot pushed over the wire. Field
// names stay compact to keep frames small for thin clients.
type TableStatus struct {
	TableKey   string         `json:"g_tk"`
	MinBet     int64          `json:"g_mb"`
	MaxPlayers int            `json:"g_mp"`
	Round      *RoundStatus   `json:"g_r"`
	Pot        *int64         `json:"g_b"`
	LastTurn   *TurnStatus    `json:"g_lt"`
	Players    []PlayerStatus `json:"g_pl"`
	Winners    []Winner       `json:"g_w"`
}

type RoundStatus struct {
	Community     []string   `json:"rg_c"`
	TurnIndex     int        `json:"rg_ri"`
	Type          RoundType  `json:"rg_rt"`
	LastBet       *BetStatus `json:"rg_lb"`
	MinBetToCall  int64      `json:"rg_mb"`
	BiddingClosed bool       `json:"rg_bc"`
}

type BetStatus struct {
	Amount   int64  `json:"bt_a"`
	UserID   string `json:"bt_ui"`
	Username string `json:"bt_ua"`
}

// TurnStatus pairs the last logged action with who acts next and what
// they may do.
type TurnStatus struct {
	UserID          string           `json:"ut_ui"`
	Username        string           `json:"ut_un"`
	Action          TurnAction       `json:"ut_t"`
	CurrentUserID   string           `json:"ut_cui"`
	CurrentUsername string           `json:"ut_cun"`
	Can             *TurnPossibility `json:"ut_cut"`
}

type TurnPossibility struct {
	Check    int `json:"cc"`
	Bet      int `json:"cb"`
	Fold     int `json:"cf"`
	AutoFold int `json:"caf"`
}

type PlayerStatus struct {
	UserID  string   `json:"u_id"`
	Name    string   `json:"u_n"`
	Balance int64    `json:"u_bl"`
	Hole    []string `json:"u_h"`
	Seat    int      `json:"u_p"`
	Roles   []Role   `json:"u_r"`
	Bets    int64    `json:"u_bt"`
	Active  int      `json:"u_a"`
	Folded  bool     `json:"u_f"`
}

// Snapshot builds the table view for one viewer. Hole cards are shown
// only to their owner while the hand runs; once settled every non-folded
// hand is revealed. Folded hands are never shown.
func (e *Engine) Snapshot(ctx context.Context, tableKey, viewerID string) (*TableStatus, error) {
	t := e.reg.Get(tableKey)
	if t == nil {
		return nil, ErrTableNotFound
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	st := &TableStatus{
		TableKey:   t.Key,
		MinBet:     t.MinBet,
		MaxPlayers: t.MaxPlayers,
		Players:    []PlayerStatus{},
		Winners:    []Winner{},
	}

	g, r := t.game, t.round
	if g == nil {
		for _, s := range t.seatedBySeat() {
			bal, err := e.ledger.Balance(ctx, s.UserID)
			if err != nil {
				return nil, err
			}
			st.Players = append(st.Players, PlayerStatus{
				UserID: s.UserID, Name: s.Name, Balance: bal, Seat: s.Seat, Hole: []string{}, Roles: []Role{},
			})
		}
		return st, nil
	}

	pot := g.Pot()
	st.Pot = &pot
	st.Winners = append(st.Winners, g.Winners...)
	settled := !g.Active

	for _, p := range g.Players {
		bal, err := e.ledger.Balance(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		ps := PlayerStatus{
			UserID:  p.UserID,
			Name:    p.Name,
			Balance: bal,
			Seat:    p.Seat,
			Hole:    []string{},
			Roles:   []Role{},
			Folded:  p.Folded,
		}
		if role := g.RoleOf(p.UserID); role != nil {
			ps.Roles = role.Roles
		}
		for _, b := range g.Bets {
			if b.UserID == p.UserID {
				ps.Bets += b.Amount
			}
		}
		if g.Active {
			ps.Active = 1
		}
		if r != nil && !p.Folded && (p.UserID == viewerID || settled) {
			for _, c := range r.HoleCards(p.UserID) {
				ps.Hole = append(ps.Hole, c.String())
			}
		}
		st.Players = append(st.Players, ps)
	}

	if r != nil {
		rs := &RoundStatus{
			Community:     []string{},
			TurnIndex:     r.TurnIndex,
			Type:          r.Type,
			MinBetToCall:  r.MinBetToCall(),
			BiddingClosed: r.BiddingClosed(false),
		}
		for _, c := range r.Community() {
			rs.Community = append(rs.Community, c.String())
		}
		for i := len(g.Bets) - 1; i >= 0; i-- {
			if g.Bets[i].Round == r.Type {
				b := g.Bets[i]
				name := ""
				if p := g.Player(b.UserID); p != nil {
					name = p.Name
				}
				rs.LastBet = &BetStatus{Amount: b.Amount, UserID: b.UserID, Username: name}
				break
			}
		}
		st.Round = rs
	}

	if last := g.LastTurn(); last != nil {
		ts := &TurnStatus{UserID: last.UserID, Action: last.Action}
		if p := g.Player(last.UserID); p != nil {
			ts.Username = p.Name
		}
		if g.Active && r != nil && r.Type != RoundEndGame {
			if cur := r.CurrentPlayer(); cur != nil {
				ts.CurrentUserID = cur.UserID
				ts.CurrentUsername = cur.Name
				can := &TurnPossibility{Fold: 1}
				if !g.HasAllIn(cur.UserID) {
					can.Bet = 1
					if r.UserTotalBet(cur.UserID) == r.HighestBet {
						can.Check = 1
					}
				}
				ts.Can = can
			}
		}
		st.LastTurn = ts
	}
	return st, nil
}

// SeatedCount is safe to call without holding the table lock.
func (t *Table) SeatedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byUser)
}
