package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/football"
)

// DemoTeams is the club list written by SeedDemo
var DemoTeams = []football.Team{
	{ID: 1, Name: "Northbridge Rovers", AttackStrength: 82, DefenseStrength: 74, HomeAdvantage: 8, CurrentForm: 64, Country: "England"},
	{ID: 2, Name: "Eastvale United", AttackStrength: 71, DefenseStrength: 78, HomeAdvantage: 5, CurrentForm: 55, Country: "England"},
	{ID: 3, Name: "Porto Azul", AttackStrength: 76, DefenseStrength: 69, HomeAdvantage: 10, CurrentForm: 58, Country: "Portugal"},
	{ID: 4, Name: "Real Meseta", AttackStrength: 68, DefenseStrength: 66, HomeAdvantage: 6, CurrentForm: 47, Country: "Spain"},
}

// SeedDemo writes a small deterministic league: the demo teams, a double
// round robin of played matches with statistics, one unplayed fixture,
// squads and a few injuries. Running it twice leaves the same data.
func SeedDemo(ctx context.Context, s *Store) error {
	rng := rand.New(rand.NewSource(20250301))

	for i := range DemoTeams {
		if err := s.SaveTeam(ctx, &DemoTeams[i]); err != nil {
			return err
		}
	}

	kickoff := time.Date(2025, 1, 4, 15, 0, 0, 0, time.UTC)
	var id int64
	for round := 0; round < 2; round++ {
		for _, home := range DemoTeams {
			for _, away := range DemoTeams {
				if home.ID == away.ID {
					continue
				}
				id++
				m := demoMatch(rng, id, home, away, kickoff.AddDate(0, 0, int(id)*3))
				if err := s.SaveMatch(ctx, m); err != nil {
					return err
				}
			}
		}
	}
	id++
	fixture := &football.MatchRecord{ID: id, HomeTeamID: 1, AwayTeamID: 2, MatchDate: kickoff.AddDate(0, 0, int(id)*3)}
	if err := s.SaveMatch(ctx, fixture); err != nil {
		return err
	}

	var playerID int64
	for _, team := range DemoTeams {
		for n := 1; n <= 5; n++ {
			playerID++
			p := &football.Player{
				ID:     playerID,
				TeamID: team.ID,
				Name:   fmt.Sprintf("%s #%d", team.Name, n),
				Rating: float64(60 + rng.Intn(35)),
			}
			if err := s.SavePlayer(ctx, p); err != nil {
				return err
			}
		}
	}

	injuries := []football.Injury{
		{ID: 1, PlayerID: 1, Severity: 70, IsActive: true},
		{ID: 2, PlayerID: 7, Severity: 40, IsActive: true},
		{ID: 3, PlayerID: 8, Severity: 90, IsActive: false},
		{ID: 4, PlayerID: 16, Severity: 55, IsActive: true},
	}
	for i := range injuries {
		if err := s.SaveInjury(ctx, &injuries[i]); err != nil {
			return err
		}
	}

	logger.Info("Seeded demo data", len(DemoTeams), "teams", id, "matches")
	return nil
}

// demoMatch scores a match loosely from the two ratings
func demoMatch(rng *rand.Rand, id int64, home, away football.Team, date time.Time) *football.MatchRecord {
	goals := func(attack, defense float64) int {
		return rng.Intn(2) + int((attack-defense+20)/15)
	}
	hg := goals(home.AttackStrength+home.HomeAdvantage/2, away.DefenseStrength)
	ag := goals(away.AttackStrength, home.DefenseStrength)

	hs := hg*3 + 4 + rng.Intn(8)
	as := ag*3 + 3 + rng.Intn(8)
	hot := hg + rng.Intn(3)
	aot := ag + rng.Intn(3)
	hp := float64(45 + rng.Intn(16))
	ap := 100 - hp

	return &football.MatchRecord{
		ID:                id,
		HomeTeamID:        home.ID,
		AwayTeamID:        away.ID,
		MatchDate:         date,
		IsPlayed:          true,
		HomeGoals:         hg,
		AwayGoals:         ag,
		HomeShots:         &hs,
		AwayShots:         &as,
		HomeShotsOnTarget: &hot,
		AwayShotsOnTarget: &aot,
		HomePossession:    &hp,
		AwayPossession:    &ap,
	}
}
