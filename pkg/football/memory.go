package football

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Compile-time check to ensure MemoryRepository implements Repository
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-process Repository used by tests, the demo seed
// and anywhere a database is unnecessary
type MemoryRepository struct {
	mu       sync.RWMutex
	teams    map[int64]Team
	matches  []MatchRecord
	players  map[int64]Player
	injuries []Injury
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		teams:   make(map[int64]Team),
		players: make(map[int64]Player),
	}
}

// AddTeam inserts or replaces a team
func (r *MemoryRepository) AddTeam(t Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[t.ID] = t
}

// AddMatch appends a match record
func (r *MemoryRepository) AddMatch(m MatchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
}

// AddPlayer inserts or replaces a player
func (r *MemoryRepository) AddPlayer(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}

// AddInjury appends an injury record
func (r *MemoryRepository) AddInjury(i Injury) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injuries = append(r.injuries, i)
}

func (r *MemoryRepository) GetTeam(ctx context.Context, teamID int64) (*Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryRepository) GetRecentMatches(ctx context.Context, teamID int64, limit int) ([]MatchRecord, error) {
	return r.played(ctx, limit, func(m *MatchRecord) bool {
		return m.Involves(teamID)
	})
}

func (r *MemoryRepository) GetHeadToHead(ctx context.Context, teamA, teamB int64, limit int) ([]MatchRecord, error) {
	return r.played(ctx, limit, func(m *MatchRecord) bool {
		return (m.HomeTeamID == teamA && m.AwayTeamID == teamB) ||
			(m.HomeTeamID == teamB && m.AwayTeamID == teamA)
	})
}

func (r *MemoryRepository) GetActiveInjuries(ctx context.Context, teamID int64) ([]InjuredPlayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []InjuredPlayer
	for _, inj := range r.injuries {
		if !inj.IsActive {
			continue
		}
		p, ok := r.players[inj.PlayerID]
		if !ok || p.TeamID != teamID {
			continue
		}
		out = append(out, InjuredPlayer{Injury: inj, Player: p})
	}
	return out, nil
}

// played filters played matches, newest first, truncated to limit
func (r *MemoryRepository) played(ctx context.Context, limit int, keep func(*MatchRecord) bool) ([]MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []MatchRecord
	for i := range r.matches {
		m := r.matches[i]
		if m.IsPlayed && keep(&m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].MatchDate.After(out[j].MatchDate)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
