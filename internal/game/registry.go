package game

import (
	"sort"
	"sync"

	"green-felt/internal/store"
)

// Seated is a live seat assignment at a table.
type Seated struct {
	UserID string
	Name   string
	Seat   int
}

// Table is the live per-table state. All mutating operations on the table
// and its game/round happen under mu; different tables proceed fully in
// parallel.
type Table struct {
	Key        string
	Name       string
	MaxPlayers int
	MinBet     int64

	mu     sync.Mutex
	byUser map[string]*Seated

	game  *Game
	round *Round

	// prevDealerSeat drives dealer rotation between hands; -1 until a
	// hand has been dealt at this table.
	prevDealerSeat int

	// lastAction remembers the most recent logged action per user, so an
	// abandoned seat whose last action was LEAVE can be cleaned up.
	lastAction map[string]TurnAction
}

func newTable(rec store.TableRecord) *Table {
	return &Table{
		Key:            rec.Key,
		Name:           rec.Name,
		MaxPlayers:     rec.MaxPlayers,
		MinBet:         rec.MinBet,
		byUser:         map[string]*Seated{},
		prevDealerSeat: -1,
		lastAction:     map[string]TurnAction{},
	}
}

// seatedBySeat returns the current seat assignments ordered by seat index.
// Callers must hold mu.
func (t *Table) seatedBySeat() []*Seated {
	out := make([]*Seated, 0, len(t.byUser))
	for _, s := range t.byUser {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

// firstFreeSeat allocates deterministically: the lowest unoccupied index.
func (t *Table) firstFreeSeat() int {
	taken := make(map[int]bool, len(t.byUser))
	for _, s := range t.byUser {
		taken[s.Seat] = true
	}
	for i := 0; i < t.MaxPlayers; i++ {
		if !taken[i] {
			return i
		}
	}
	return -1
}

// Registry maps table keys to live tables. It is initialized at server
// start from the persisted table records and torn down on shutdown.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: map[string]*Table{}}
}

func (r *Registry) Get(key string) *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[key]
}

// GetOrCreate bridges a persisted table record to its live state.
func (r *Registry) GetOrCreate(rec store.TableRecord) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[rec.Key]; ok {
		return t
	}
	t := newTable(rec)
	r.tables[rec.Key] = t
	return t
}

func (r *Registry) List() []*Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
