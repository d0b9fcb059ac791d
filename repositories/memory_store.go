package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// MemoryStore keeps everything in process memory. Transactions work on a copy of
// the data that replaces the live data only when fn succeeds; transactions are
// serialized.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	now  func() time.Time
}

type memoryData struct {
	tournaments map[int]*models.Tournament
	stages      map[int]*models.TournamentStage
	players     map[int]*models.TournamentPlayer
	matches     map[int]*models.Match
	standings   map[int][]models.Standing
	lastID      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			tournaments: make(map[int]*models.Tournament),
			stages:      make(map[int]*models.TournamentStage),
			players:     make(map[int]*models.TournamentPlayer),
			matches:     make(map[int]*models.Match),
			standings:   make(map[int][]models.Standing),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		tournaments: make(map[int]*models.Tournament, len(d.tournaments)),
		stages:      make(map[int]*models.TournamentStage, len(d.stages)),
		players:     make(map[int]*models.TournamentPlayer, len(d.players)),
		matches:     make(map[int]*models.Match, len(d.matches)),
		standings:   make(map[int][]models.Standing, len(d.standings)),
		lastID:      d.lastID,
	}
	for id, t := range d.tournaments {
		c.tournaments[id] = copyTournament(t)
	}
	for id, s := range d.stages {
		c.stages[id] = copyStage(s)
	}
	for id, p := range d.players {
		c.players[id] = copyPlayer(p)
	}
	for id, m := range d.matches {
		c.matches[id] = m.Clone()
	}
	for id, st := range d.standings {
		c.standings[id] = copyStandings(st)
	}
	return c
}

func (d *memoryData) nextID() int {
	d.lastID++
	return d.lastID
}

type memoryAccess func(fn func(d *memoryData) error) error

func (s *MemoryStore) access(fn func(d *memoryData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *MemoryStore) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{access: s.access, now: s.now}
}

func (s *MemoryStore) Stages() StageRepository {
	return &memoryStageRepository{access: s.access, now: s.now}
}

func (s *MemoryStore) Players() PlayerRepository {
	return &memoryPlayerRepository{access: s.access, now: s.now}
}

func (s *MemoryStore) Matches() MatchRepository {
	return &memoryMatchRepository{access: s.access, now: s.now}
}

func (s *MemoryStore) Standings() StandingRepository {
	return &memoryStandingRepository{access: s.access}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{data: s.data.clone(), now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// memoryTx is the Store handed to WithinTx callbacks. The outer store's mutex is
// held for its whole lifetime.
type memoryTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memoryTx) access(fn func(d *memoryData) error) error {
	return fn(t.data)
}

func (t *memoryTx) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{access: t.access, now: t.now}
}

func (t *memoryTx) Stages() StageRepository {
	return &memoryStageRepository{access: t.access, now: t.now}
}

func (t *memoryTx) Players() PlayerRepository {
	return &memoryPlayerRepository{access: t.access, now: t.now}
}

func (t *memoryTx) Matches() MatchRepository {
	return &memoryMatchRepository{access: t.access, now: t.now}
}

func (t *memoryTx) Standings() StandingRepository {
	return &memoryStandingRepository{access: t.access}
}

func (t *memoryTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func copyTournament(t *models.Tournament) *models.Tournament {
	c := *t
	if t.AdvanceCount != nil {
		c.AdvanceCount = models.IntPtr(*t.AdvanceCount)
	}
	c.Stages, c.Players, c.Matches = nil, nil, nil
	return &c
}

func copyStage(s *models.TournamentStage) *models.TournamentStage {
	c := *s
	if s.AdvanceCount != nil {
		c.AdvanceCount = models.IntPtr(*s.AdvanceCount)
	}
	return &c
}

func copyPlayer(p *models.TournamentPlayer) *models.TournamentPlayer {
	c := *p
	if p.Seed != nil {
		c.Seed = models.IntPtr(*p.Seed)
	}
	return &c
}

type memoryTournamentRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.access(func(d *memoryData) error {
		for _, existing := range d.tournaments {
			if existing.Name == t.Name {
				return ErrTournamentNameConflict
			}
		}
		t.ID = d.nextID()
		t.CreatedAt = r.now()
		d.tournaments[t.ID] = copyTournament(t)
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.access(func(d *memoryData) error {
		t, ok := d.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		out = copyTournament(t)
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	out := make([]*models.Tournament, 0)
	err := r.access(func(d *memoryData) error {
		for _, t := range d.tournaments {
			out = append(out, copyTournament(t))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []*models.Tournament{}, err
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type memoryStageRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryStageRepository) Create(ctx context.Context, s *models.TournamentStage) error {
	return r.access(func(d *memoryData) error {
		if _, ok := d.tournaments[s.TournamentID]; !ok {
			return ErrStageTournamentInvalid
		}
		for _, existing := range d.stages {
			if existing.TournamentID == s.TournamentID && existing.StageNumber == s.StageNumber {
				return ErrStageNumberConflict
			}
		}
		if s.Status == "" {
			s.Status = models.StageNotStarted
		}
		s.ID = d.nextID()
		s.CreatedAt = r.now()
		d.stages[s.ID] = copyStage(s)
		return nil
	})
}

func (r *memoryStageRepository) GetByID(ctx context.Context, id int) (*models.TournamentStage, error) {
	var out *models.TournamentStage
	err := r.access(func(d *memoryData) error {
		s, ok := d.stages[id]
		if !ok {
			return ErrStageNotFound
		}
		out = copyStage(s)
		return nil
	})
	return out, err
}

func (r *memoryStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentStage, error) {
	out := make([]*models.TournamentStage, 0, 2)
	err := r.access(func(d *memoryData) error {
		for _, s := range d.stages {
			if s.TournamentID == tournamentID {
				out = append(out, copyStage(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StageNumber < out[j].StageNumber })
	return out, err
}

func (r *memoryStageRepository) UpdateStatus(ctx context.Context, id int, status models.StageStatus) error {
	return r.access(func(d *memoryData) error {
		s, ok := d.stages[id]
		if !ok {
			return ErrStageNotFound
		}
		s.Status = status
		return nil
	})
}

type memoryPlayerRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryPlayerRepository) Create(ctx context.Context, p *models.TournamentPlayer) error {
	return r.access(func(d *memoryData) error {
		if _, ok := d.tournaments[p.TournamentID]; !ok {
			return ErrPlayerTournamentInvalid
		}
		for _, existing := range d.players {
			if existing.TournamentID != p.TournamentID {
				continue
			}
			if existing.Name == p.Name {
				return ErrPlayerNameConflict
			}
			if p.Seed != nil && existing.Seed != nil && *existing.Seed == *p.Seed {
				return ErrPlayerSeedConflict
			}
		}
		if p.Status == "" {
			p.Status = models.PlayerPending
		}
		p.ID = d.nextID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.now()
		}
		d.players[p.ID] = copyPlayer(p)
		return nil
	})
}

func (r *memoryPlayerRepository) GetByID(ctx context.Context, id int) (*models.TournamentPlayer, error) {
	var out *models.TournamentPlayer
	err := r.access(func(d *memoryData) error {
		p, ok := d.players[id]
		if !ok {
			return ErrPlayerNotFound
		}
		out = copyPlayer(p)
		return nil
	})
	return out, err
}

func (r *memoryPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.PlayerStatus) ([]*models.TournamentPlayer, error) {
	out := make([]*models.TournamentPlayer, 0)
	err := r.access(func(d *memoryData) error {
		for _, p := range d.players {
			if p.TournamentID != tournamentID {
				continue
			}
			if statusFilter != nil && p.Status != *statusFilter {
				continue
			}
			out = append(out, copyPlayer(p))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

type memoryMatchRepository struct {
	access memoryAccess
	now    func() time.Time
}

func (r *memoryMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	return r.access(func(d *memoryData) error {
		for _, m := range matches {
			if _, ok := d.stages[m.StageID]; !ok {
				return ErrMatchStageInvalid
			}
			for _, existing := range d.matches {
				if existing.StageID == m.StageID && existing.BracketUID == m.BracketUID {
					return fmt.Errorf("%w: %s", ErrMatchDuplicate, m.BracketUID)
				}
			}
			if m.Status == "" {
				m.Status = models.MatchNotStarted
			}
			m.ID = d.nextID()
			m.Version = 1
			m.CreatedAt = r.now()
			m.UpdatedAt = m.CreatedAt
			d.matches[m.ID] = m.Clone()
		}
		return nil
	})
}

func (r *memoryMatchRepository) UpdateLinks(ctx context.Context, m *models.Match) error {
	return r.access(func(d *memoryData) error {
		stored, ok := d.matches[m.ID]
		if !ok {
			return ErrMatchNotFound
		}
		c := m.Clone()
		stored.NextWinnerMatchID = c.NextWinnerMatchID
		stored.NextLoserMatchID = c.NextLoserMatchID
		stored.Slot1.SourceMatchID = c.Slot1.SourceMatchID
		stored.Slot2.SourceMatchID = c.Slot2.SourceMatchID
		return nil
	})
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	var out *models.Match
	err := r.access(func(d *memoryData) error {
		m, ok := d.matches[id]
		if !ok {
			return ErrMatchNotFound
		}
		out = m.Clone()
		return nil
	})
	return out, err
}

func (r *memoryMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.StageID == stageID })
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool {
		if m.TournamentID != filter.TournamentID {
			return false
		}
		if filter.StageID != nil && m.StageID != *filter.StageID {
			return false
		}
		if filter.Side != nil && m.BracketSide != *filter.Side {
			return false
		}
		if filter.Round != nil && m.Round != *filter.Round {
			return false
		}
		if filter.TableID != nil && (m.TableID == nil || *m.TableID != *filter.TableID) {
			return false
		}
		if len(filter.Statuses) > 0 {
			for _, s := range filter.Statuses {
				if m.Status == s {
					return true
				}
			}
			return false
		}
		return true
	})
}

func (r *memoryMatchRepository) filter(keep func(m *models.Match) bool) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.access(func(d *memoryData) error {
		for _, m := range d.matches {
			if keep(m) {
				out = append(out, m.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StageID != out[j].StageID {
			return out[i].StageID < out[j].StageID
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *memoryMatchRepository) CountByStage(ctx context.Context, stageID int) (int, error) {
	count := 0
	err := r.access(func(d *memoryData) error {
		for _, m := range d.matches {
			if m.StageID == stageID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memoryMatchRepository) UpdateVersioned(ctx context.Context, m *models.Match) error {
	return r.access(func(d *memoryData) error {
		stored, ok := d.matches[m.ID]
		if !ok {
			return ErrMatchNotFound
		}
		if stored.Version != m.Version {
			return fmt.Errorf("%w: match %d, version %d", ErrMatchVersionConflict, m.ID, m.Version)
		}
		c := m.Clone()
		stored.Slot1.PlayerID = c.Slot1.PlayerID
		stored.Slot2.PlayerID = c.Slot2.PlayerID
		stored.TableID = c.TableID
		stored.Status = c.Status
		stored.Score1 = c.Score1
		stored.Score2 = c.Score2
		stored.WinnerID = c.WinnerID
		stored.Version++
		stored.UpdatedAt = r.now()

		m.Version = stored.Version
		m.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

type memoryStandingRepository struct {
	access memoryAccess
}

func copyStandings(in []models.Standing) []models.Standing {
	out := make([]models.Standing, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Player = nil
		if s.EliminatedInMatchID != nil {
			out[i].EliminatedInMatchID = models.IntPtr(*s.EliminatedInMatchID)
		}
	}
	return out
}

func (r *memoryStandingRepository) ReplaceForStage(ctx context.Context, stageID int, standings []models.Standing) error {
	return r.access(func(d *memoryData) error {
		if _, ok := d.stages[stageID]; !ok {
			return ErrStandingStageInvalid
		}
		stored := copyStandings(standings)
		for i := range stored {
			stored[i].StageID = stageID
		}
		d.standings[stageID] = stored
		return nil
	})
}

func (r *memoryStandingRepository) ListByStage(ctx context.Context, stageID int) ([]models.Standing, error) {
	var out []models.Standing
	err := r.access(func(d *memoryData) error {
		out = copyStandings(d.standings[stageID])
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Place != out[j].Place {
			return out[i].Place < out[j].Place
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, err
}
