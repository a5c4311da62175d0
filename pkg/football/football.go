package football

/**
* Football is the domain vocabulary shared by every part of matchodds:
* teams, matches, players and injuries as read from the backing store,
* and the read-only Repository port the prediction core depends on.
 */

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Repository when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Repository is the narrow read-only query interface the prediction core needs.
// Implementations must treat results as stable for the duration of a single
// prediction call and may cache.
type Repository interface {
	// GetTeam returns the team or an error wrapping ErrNotFound
	GetTeam(ctx context.Context, teamID int64) (*Team, error)
	// GetRecentMatches returns up to limit played matches involving the team, newest first
	GetRecentMatches(ctx context.Context, teamID int64, limit int) ([]MatchRecord, error)
	// GetHeadToHead returns up to limit played matches between exactly the two teams, newest first
	GetHeadToHead(ctx context.Context, teamA, teamB int64, limit int) ([]MatchRecord, error)
	// GetActiveInjuries returns the active injuries of players registered to the team
	GetActiveInjuries(ctx context.Context, teamID int64) ([]InjuredPlayer, error)
}

// Team holds the normalized ratings of a club
type Team struct {
	ID              int64   `json:"id" column:"id" dbtype:"BIGINT NOT NULL" primary:"true"`
	Name            string  `json:"name" column:"name" dbtype:"TEXT NOT NULL" index:"true"`
	AttackStrength  float64 `json:"attackStrength" column:"attack_strength" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 50"`
	DefenseStrength float64 `json:"defenseStrength" column:"defense_strength" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 50"`
	HomeAdvantage   float64 `json:"homeAdvantage" column:"home_advantage" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 0"` // percent bonus to home expected goals
	CurrentForm     float64 `json:"currentForm" column:"current_form" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 50"`
	Country         string  `json:"country" column:"country" dbtype:"TEXT NOT NULL DEFAULT ''"`
}

// TableName implements the store's table naming
func (t *Team) TableName() string {
	return "teams"
}

// MatchRecord is a single fixture. Scores are only meaningful when IsPlayed is true.
// Nil statistics pointers mean the value was not recorded.
type MatchRecord struct {
	ID                int64     `json:"id" column:"id" dbtype:"BIGINT NOT NULL" primary:"true"`
	HomeTeamID        int64     `json:"homeTeamId" column:"home_team_id" dbtype:"BIGINT NOT NULL" index:"true"`
	AwayTeamID        int64     `json:"awayTeamId" column:"away_team_id" dbtype:"BIGINT NOT NULL" index:"true"`
	MatchDate         time.Time `json:"matchDate" column:"match_date" dbtype:"TIMESTAMP NOT NULL" index:"true"`
	IsPlayed          bool      `json:"isPlayed" column:"is_played" dbtype:"BOOLEAN NOT NULL DEFAULT FALSE"`
	HomeGoals         int       `json:"homeGoals" column:"home_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	AwayGoals         int       `json:"awayGoals" column:"away_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	HomeShots         *int      `json:"homeShots,omitempty" column:"home_shots" dbtype:"INTEGER"`
	AwayShots         *int      `json:"awayShots,omitempty" column:"away_shots" dbtype:"INTEGER"`
	HomeShotsOnTarget *int      `json:"homeShotsOnTarget,omitempty" column:"home_shots_on_target" dbtype:"INTEGER"`
	AwayShotsOnTarget *int      `json:"awayShotsOnTarget,omitempty" column:"away_shots_on_target" dbtype:"INTEGER"`
	HomePossession    *float64  `json:"homePossession,omitempty" column:"home_possession" dbtype:"DOUBLE PRECISION"`
	AwayPossession    *float64  `json:"awayPossession,omitempty" column:"away_possession" dbtype:"DOUBLE PRECISION"`
}

// TableName implements the store's table naming
func (m *MatchRecord) TableName() string {
	return "matches"
}

// Involves reports whether the team played in this match
func (m *MatchRecord) Involves(teamID int64) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

// Score returns goals for and against from the given team's viewpoint.
// ok is false when the match has not been played or the team did not take part.
func (m *MatchRecord) Score(teamID int64) (goalsFor, goalsAgainst int, ok bool) {
	if !m.IsPlayed {
		return 0, 0, false
	}
	switch teamID {
	case m.HomeTeamID:
		return m.HomeGoals, m.AwayGoals, true
	case m.AwayTeamID:
		return m.AwayGoals, m.HomeGoals, true
	}
	return 0, 0, false
}

// SideStats returns shots, shots on target and possession for the given team,
// nil where the match did not record them
func (m *MatchRecord) SideStats(teamID int64) (shots, onTarget *int, possession *float64) {
	if teamID == m.HomeTeamID {
		return m.HomeShots, m.HomeShotsOnTarget, m.HomePossession
	}
	return m.AwayShots, m.AwayShotsOnTarget, m.AwayPossession
}

// Player is a squad member; Rating drives the weight of an injury
type Player struct {
	ID     int64   `json:"id" column:"id" dbtype:"BIGINT NOT NULL" primary:"true"`
	TeamID int64   `json:"teamId" column:"team_id" dbtype:"BIGINT NOT NULL" index:"true"`
	Name   string  `json:"name" column:"name" dbtype:"TEXT NOT NULL DEFAULT ''"`
	Rating float64 `json:"rating" column:"rating" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 50"`
}

// TableName implements the store's table naming
func (p *Player) TableName() string {
	return "players"
}

// Injury records a player's unavailability
type Injury struct {
	ID       int64   `json:"id" column:"id" dbtype:"BIGINT NOT NULL" primary:"true"`
	PlayerID int64   `json:"playerId" column:"player_id" dbtype:"BIGINT NOT NULL" index:"true"`
	Severity float64 `json:"severity" column:"severity" dbtype:"DOUBLE PRECISION NOT NULL DEFAULT 50"`
	IsActive bool    `json:"isActive" column:"is_active" dbtype:"BOOLEAN NOT NULL DEFAULT TRUE"`
}

// TableName implements the store's table naming
func (i *Injury) TableName() string {
	return "injuries"
}

// InjuredPlayer pairs an active injury with the player it affects
type InjuredPlayer struct {
	Injury Injury `json:"injury"`
	Player Player `json:"player"`
}

// Result codes a match outcome from one team's viewpoint
type Result int

const (
	Loss Result = -1
	Draw Result = 0
	Win  Result = 1
)

// ResultOf returns the outcome for a team that scored goalsFor and conceded goalsAgainst
func ResultOf(goalsFor, goalsAgainst int) Result {
	switch {
	case goalsFor > goalsAgainst:
		return Win
	case goalsFor < goalsAgainst:
		return Loss
	}
	return Draw
}
