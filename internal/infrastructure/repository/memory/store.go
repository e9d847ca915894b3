package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

type claimKey struct {
	playerID int64
	teamID   string
}

type claimRecord struct {
	claim claim.Claim
	seq   int64
}

type data struct {
	players map[int64]player.Player
	claims  map[claimKey]claimRecord
	teams   map[string]team.Team
	nextSeq int64
}

func (d *data) clone() *data {
	out := &data{
		players: make(map[int64]player.Player, len(d.players)),
		claims:  make(map[claimKey]claimRecord, len(d.claims)),
		teams:   make(map[string]team.Team, len(d.teams)),
		nextSeq: d.nextSeq,
	}
	for k, v := range d.players {
		out.players[k] = v
	}
	for k, v := range d.claims {
		out.claims[k] = v
	}
	for k, v := range d.teams {
		out.teams[k] = v
	}

	return out
}

// Store is an in-memory usecase.Store used by tests and by dev wiring
// when no database is configured. InTx runs against a clone and swaps it
// in on success, so a failed transaction leaves no partial writes.
type Store struct {
	mu   sync.RWMutex
	data *data
	inTx bool
}

func NewStore(players []player.Player, claims []claim.Claim, teams []team.Team) *Store {
	d := &data{
		players: make(map[int64]player.Player),
		claims:  make(map[claimKey]claimRecord),
		teams:   make(map[string]team.Team),
	}
	for _, p := range players {
		d.players[p.ID] = p
	}
	for _, c := range claims {
		d.nextSeq++
		d.claims[claimKey{c.PlayerID, c.TeamID}] = claimRecord{claim: c, seq: d.nextSeq}
	}
	for _, t := range teams {
		d.teams[t.Code] = t
	}

	return &Store{data: d}
}

func (s *Store) Players() player.Repository { return &playerRepository{s} }
func (s *Store) Claims() claim.Repository   { return &claimRepository{s} }
func (s *Store) Teams() team.Repository     { return &teamRepository{s} }

func (s *Store) InTx(ctx context.Context, fn func(usecase.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := s.data.clone()
	tx := &Store{data: clone, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = clone

	return nil
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type playerRepository struct{ s *Store }

func (r *playerRepository) List(_ context.Context) ([]player.Player, error) {
	defer r.s.rlock()()

	out := make([]player.Player, 0, len(r.s.data.players))
	for _, p := range r.s.data.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *playerRepository) Get(_ context.Context, id int64) (player.Player, bool, error) {
	defer r.s.rlock()()

	p, ok := r.s.data.players[id]
	return p, ok, nil
}

func (r *playerRepository) MaxID(_ context.Context) (int64, error) {
	defer r.s.rlock()()

	var max int64
	for id := range r.s.data.players {
		if id > max {
			max = id
		}
	}

	return max, nil
}

func (r *playerRepository) Insert(_ context.Context, p player.Player) error {
	defer r.s.lock()()

	r.s.data.players[p.ID] = p
	return nil
}

func (r *playerRepository) Update(_ context.Context, p player.Player) error {
	defer r.s.lock()()

	r.s.data.players[p.ID] = p
	return nil
}

func (r *playerRepository) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()

	delete(r.s.data.players, id)
	return nil
}

type claimRepository struct{ s *Store }

func (r *claimRepository) List(_ context.Context) ([]claim.Claim, error) {
	defer r.s.rlock()()

	return r.s.sortedClaims(func(claim.Claim) bool { return true }), nil
}

func (r *claimRepository) ListByPlayer(_ context.Context, playerID int64) ([]claim.Claim, error) {
	defer r.s.rlock()()

	return r.s.sortedClaims(func(c claim.Claim) bool { return c.PlayerID == playerID }), nil
}

func (r *claimRepository) ListByTeam(_ context.Context, teamID string, limit int) ([]claim.Claim, error) {
	defer r.s.rlock()()

	out := r.s.sortedClaims(func(c claim.Claim) bool { return c.TeamID == teamID })
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *claimRepository) Get(_ context.Context, playerID int64, teamID string) (claim.Claim, bool, error) {
	defer r.s.rlock()()

	rec, ok := r.s.data.claims[claimKey{playerID, teamID}]
	return rec.claim, ok, nil
}

func (r *claimRepository) Insert(_ context.Context, c claim.Claim) error {
	defer r.s.lock()()

	r.s.data.nextSeq++
	r.s.data.claims[claimKey{c.PlayerID, c.TeamID}] = claimRecord{claim: c, seq: r.s.data.nextSeq}
	return nil
}

func (r *claimRepository) Update(_ context.Context, c claim.Claim) error {
	defer r.s.lock()()

	key := claimKey{c.PlayerID, c.TeamID}
	rec, ok := r.s.data.claims[key]
	if !ok {
		return nil
	}
	rec.claim = c
	r.s.data.claims[key] = rec
	return nil
}

func (r *claimRepository) Delete(_ context.Context, playerID int64, teamID string) error {
	defer r.s.lock()()

	delete(r.s.data.claims, claimKey{playerID, teamID})
	return nil
}

func (r *claimRepository) DeleteByPlayer(_ context.Context, playerID int64) error {
	defer r.s.lock()()

	for key := range r.s.data.claims {
		if key.playerID == playerID {
			delete(r.s.data.claims, key)
		}
	}
	return nil
}

func (r *claimRepository) MarkLostExcept(_ context.Context, playerID int64, winnerTeamID string) error {
	defer r.s.lock()()

	for key, rec := range r.s.data.claims {
		if key.playerID != playerID || key.teamID == winnerTeamID || !rec.claim.Open() {
			continue
		}
		rec.claim.Outcome = claim.OutcomeLost
		r.s.data.claims[key] = rec
	}
	return nil
}

func (r *claimRepository) ShiftPreferences(_ context.Context, teamID string, lo, hi, delta int) error {
	defer r.s.lock()()

	for key, rec := range r.s.data.claims {
		c := rec.claim
		if key.teamID != teamID || c.Type != claim.TypeNormal || !c.Open() {
			continue
		}
		if c.OrderPreference < lo || c.OrderPreference > hi {
			continue
		}
		rec.claim.OrderPreference += delta
		r.s.data.claims[key] = rec
	}
	return nil
}

// sortedClaims returns matching claims in insertion order. Callers must
// hold the lock.
func (s *Store) sortedClaims(match func(claim.Claim) bool) []claim.Claim {
	recs := make([]claimRecord, 0, len(s.data.claims))
	for _, rec := range s.data.claims {
		if match(rec.claim) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]claim.Claim, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.claim)
	}

	return out
}

type teamRepository struct{ s *Store }

func (r *teamRepository) List(_ context.Context) ([]team.Team, error) {
	defer r.s.rlock()()

	out := make([]team.Team, 0, len(r.s.data.teams))
	for _, t := range r.s.data.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })

	return out, nil
}

func (r *teamRepository) GetByCode(_ context.Context, code string) (team.Team, bool, error) {
	defer r.s.rlock()()

	t, ok := r.s.data.teams[code]
	return t, ok, nil
}

func (r *teamRepository) MaxPriority(_ context.Context) (int, error) {
	defer r.s.rlock()()

	max := 0
	for _, t := range r.s.data.teams {
		if t.Priority > max {
			max = t.Priority
		}
	}

	return max, nil
}

func (r *teamRepository) UpdatePriority(_ context.Context, code string, priority int) error {
	defer r.s.lock()()

	t, ok := r.s.data.teams[code]
	if !ok {
		return nil
	}
	t.Priority = priority
	r.s.data.teams[code] = t
	return nil
}

func (r *teamRepository) ShiftPriorities(_ context.Context, lo, hi, delta int) error {
	defer r.s.lock()()

	for code, t := range r.s.data.teams {
		if t.Priority > lo && t.Priority <= hi {
			t.Priority += delta
			r.s.data.teams[code] = t
		}
	}
	return nil
}
