package predictors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
	"github.com/richard-senior/matchodds/pkg/football"
)

const (
	homeID int64 = 1
	awayID int64 = 2
)

func evenTeam(id int64) football.Team {
	return football.Team{ID: id, Name: "Team", AttackStrength: 75, DefenseStrength: 75, CurrentForm: 50}
}

func seededConfig() *config.Config {
	cfg := config.Default()
	cfg.BayesianSeed = 42
	return cfg
}

// fixture builds the match context for teams 1 and 2 from repo
func fixture(t *testing.T, cfg *config.Config, repo *football.MemoryRepository) *features.MatchContext {
	t.Helper()
	ctx := context.Background()
	home, err := repo.GetTeam(ctx, homeID)
	require.NoError(t, err)
	away, err := repo.GetTeam(ctx, awayID)
	require.NoError(t, err)
	mc, err := features.NewExtractor(repo, cfg).Build(ctx, home, away)
	require.NoError(t, err)
	return mc
}

func repoWith(home, away football.Team) *football.MemoryRepository {
	r := football.NewMemoryRepository()
	r.AddTeam(home)
	r.AddTeam(away)
	return r
}

// addRun records played matches for team against fresh opponents, newest first
func addRun(r *football.MemoryRepository, teamID int64, firstMatchID int64, scores [][2]int) {
	base := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)
	for i, s := range scores {
		r.AddMatch(football.MatchRecord{
			ID:         firstMatchID + int64(i),
			HomeTeamID: teamID,
			AwayTeamID: 100 + firstMatchID + int64(i),
			MatchDate:  base.AddDate(0, 0, -7*i),
			IsPlayed:   true,
			HomeGoals:  s[0],
			AwayGoals:  s[1],
		})
	}
}

func assertInvariants(t *testing.T, p *Prediction) {
	t.Helper()
	assert.InDelta(t, 100.0, p.ProbabilitySum(), 0.2, p.Algorithm)
	assert.GreaterOrEqual(t, p.HomeGoals, MinGoals, p.Algorithm)
	assert.LessOrEqual(t, p.HomeGoals, MaxGoals, p.Algorithm)
	assert.GreaterOrEqual(t, p.AwayGoals, MinGoals, p.Algorithm)
	assert.LessOrEqual(t, p.AwayGoals, MaxGoals, p.Algorithm)
	assert.LessOrEqual(t, p.HomeGoalsFirstHalf, p.HomeGoals, p.Algorithm)
	assert.LessOrEqual(t, p.AwayGoalsFirstHalf, p.AwayGoals, p.Algorithm)
	assert.GreaterOrEqual(t, p.Confidence, MinConfidence, p.Algorithm)
	assert.LessOrEqual(t, p.Confidence, MaxConfidence, p.Algorithm)
}

func TestEvenTeamsStatistical(t *testing.T) {
	cfg := seededConfig()
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))
	s := NewStatistical(cfg)

	raw := s.Estimate(mc)
	assert.InDelta(t, 1.35, raw.HomeGoals, 1e-9)
	assert.Equal(t, raw.HomeGoals, raw.AwayGoals)
	assert.InDelta(t, raw.HomeWinProb, raw.AwayWinProb, 1e-9)
	assert.Less(t, raw.DrawProb, raw.HomeWinProb)
	assert.InDelta(t, 0.6075, raw.HomeGoalsFirstHalf, 1e-9)
	assert.Equal(t, 60.0, raw.Confidence, "close λ costs confidence")

	p, err := s.Predict(mc)
	require.NoError(t, err)
	assertInvariants(t, p)
	assert.InDelta(t, 100.0, p.ProbabilitySum(), 1e-9)
	assert.Equal(t, p.HomeGoals, p.AwayGoals)
	assert.Equal(t, "1-1", p.Details["most_likely_score"])
}

func TestStrongHomeStatistical(t *testing.T) {
	cfg := seededConfig()
	home := football.Team{ID: homeID, AttackStrength: 90, DefenseStrength: 85, CurrentForm: 70, HomeAdvantage: 10}
	away := football.Team{ID: awayID, AttackStrength: 55, DefenseStrength: 50, CurrentForm: 40}
	mc := fixture(t, cfg, repoWith(home, away))

	p, err := NewStatistical(cfg).Predict(mc)
	require.NoError(t, err)
	assertInvariants(t, p)
	assert.GreaterOrEqual(t, p.HomeWinProb, 65.0)
	assert.GreaterOrEqual(t, p.HomeGoals, 2.5)
	assert.LessOrEqual(t, p.AwayGoals, 1.5)
	assert.Equal(t, 95.0, p.Confidence)
}

func TestInjurySwingStatistical(t *testing.T) {
	cfg := seededConfig()
	s := NewStatistical(cfg)
	before := s.Estimate(fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID))))

	repo := repoWith(evenTeam(homeID), evenTeam(awayID))
	repo.AddPlayer(football.Player{ID: 9, TeamID: homeID, Rating: 90})
	repo.AddInjury(football.Injury{ID: 1, PlayerID: 9, Severity: 80, IsActive: true})
	after := s.Estimate(fixture(t, cfg, repo))

	assert.LessOrEqual(t, after.HomeGoals, before.HomeGoals*0.95)
	assert.Less(t, after.HomeWinProb, before.HomeWinProb)
	assert.Equal(t, before.AwayGoals, after.AwayGoals)
}

func TestNoHistoryAllPredictorsValid(t *testing.T) {
	cfg := seededConfig()
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	ps := Enabled(cfg)
	require.Len(t, ps, 4)
	for _, pr := range ps {
		p, err := pr.Predict(mc)
		require.NoError(t, err, pr.Name())
		assert.Equal(t, pr.Name(), p.Algorithm)
		assertInvariants(t, p)
	}
}

func TestSequenceWithoutHistory(t *testing.T) {
	cfg := seededConfig()
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	raw := NewSequence(cfg).Estimate(mc)
	assert.InDelta(t, 1.725, raw.HomeGoals, 1e-9)
	assert.InDelta(t, 1.5, raw.AwayGoals, 1e-9)
	assert.InDelta(t, 46.8, raw.HomeWinProb, 1e-9)
	assert.Equal(t, 30.0, raw.DrawProb)
	assert.Equal(t, 65.0, raw.Confidence, "zero quality gives the floor")
}

func TestSequenceFollowsMomentum(t *testing.T) {
	cfg := seededConfig()
	repo := repoWith(evenTeam(homeID), evenTeam(awayID))
	// home: three recent wins after two defeats, away: the opposite
	addRun(repo, homeID, 10, [][2]int{{2, 0}, {1, 0}, {3, 1}, {0, 1}, {0, 2}})
	addRun(repo, awayID, 20, [][2]int{{0, 2}, {0, 1}, {1, 3}, {1, 0}, {2, 0}})
	mc := fixture(t, cfg, repo)

	raw := NewSequence(cfg).Estimate(mc)
	assert.InDelta(t, 2.0, mc.Home.Metrics.Momentum, 1e-9)
	assert.InDelta(t, -2.0, mc.Away.Metrics.Momentum, 1e-9)
	assert.Equal(t, 70.0, raw.HomeWinProb)
	assert.Equal(t, 18.0, raw.DrawProb)
	assert.InDelta(t, 12.0, raw.AwayWinProb, 1e-9)
	assert.Equal(t, 95.0, raw.Confidence)
}

func TestSpatialDefaults(t *testing.T) {
	cfg := seededConfig()
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	raw := NewSpatial(cfg).Estimate(mc)
	assert.InDelta(t, 3.672, raw.HomeGoals, 1e-9)
	assert.InDelta(t, 3.06, raw.AwayGoals, 1e-9)
	assert.InDelta(t, 3.672*0.47, raw.HomeGoalsFirstHalf, 1e-9)
	assert.Equal(t, 45.0, raw.HomeWinProb)
	assert.InDelta(t, 25.0, raw.DrawProb, 1e-9)
	assert.InDelta(t, 90.0, raw.Confidence, 1e-9)
	assert.Equal(t, false, raw.Details["style_clash"])
}

func TestSpatialStyleClash(t *testing.T) {
	cfg := seededConfig()
	repo := repoWith(evenTeam(homeID), evenTeam(awayID))
	poss := func(v float64) *float64 { return &v }
	for i := 0; i < 5; i++ {
		repo.AddMatch(football.MatchRecord{
			ID: int64(10 + i), HomeTeamID: homeID, AwayTeamID: awayID,
			MatchDate: time.Date(2025, 9, 1+i, 15, 0, 0, 0, time.UTC), IsPlayed: true,
			HomeGoals: 1, AwayGoals: 1, HomePossession: poss(75), AwayPossession: poss(25),
		})
	}
	raw := NewSpatial(cfg).Estimate(fixture(t, cfg, repo))

	assert.Equal(t, true, raw.Details["style_clash"])
	assert.InDelta(t, 1.65, raw.Details["tactical_home"], 1e-9)
	assert.GreaterOrEqual(t, raw.Confidence, 70.0)
}

// home team in form against a side that keeps losing
func TestBayesianEvidenceDominance(t *testing.T) {
	cfg := seededConfig()
	home := football.Team{ID: homeID, AttackStrength: 80, DefenseStrength: 75, HomeAdvantage: 10, CurrentForm: 50}
	away := football.Team{ID: awayID, AttackStrength: 60, DefenseStrength: 65, CurrentForm: 50}
	repo := repoWith(home, away)
	addRun(repo, homeID, 10, [][2]int{{3, 0}, {4, 1}, {2, 0}, {3, 1}, {3, 2}})
	addRun(repo, awayID, 20, [][2]int{{1, 2}, {0, 3}, {1, 4}, {0, 1}, {1, 2}})
	mc := fixture(t, cfg, repo)

	raw := NewBayesian(cfg).Estimate(mc)
	assert.InDelta(t, 58.4, raw.HomeWinProb, 0.5)
	assert.InDelta(t, 86.3, raw.Confidence, 0.5)

	p, err := NewBayesian(cfg).Predict(mc)
	require.NoError(t, err)
	assertInvariants(t, p)
	assert.GreaterOrEqual(t, p.HomeWinProb, 55.0)
	assert.GreaterOrEqual(t, p.Confidence, 80.0)
}

func TestBayesianHeadToHeadDominance(t *testing.T) {
	cfg := seededConfig()
	b := NewBayesian(cfg)
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	baseline := b.Estimate(mc)
	assert.InDelta(t, 45.0, baseline.HomeWinProb, 1e-9)
	assert.InDelta(t, 27.0, baseline.AwayWinProb, 1e-9)

	var meetings []football.MatchRecord
	for i := 0; i < 8; i++ {
		meetings = append(meetings, football.MatchRecord{HomeTeamID: homeID, AwayTeamID: awayID, IsPlayed: true, HomeGoals: 1, AwayGoals: 3})
	}
	meetings = append(meetings,
		football.MatchRecord{HomeTeamID: awayID, AwayTeamID: homeID, IsPlayed: true, HomeGoals: 2, AwayGoals: 2},
		football.MatchRecord{HomeTeamID: awayID, AwayTeamID: homeID, IsPlayed: true, HomeGoals: 1, AwayGoals: 1},
	)
	dominated := *mc
	dominated.H2H = features.SummarizeH2H(homeID, awayID, meetings)
	require.Equal(t, 1.0, dominated.H2H.Dominance)

	raw := b.Estimate(&dominated)
	assert.GreaterOrEqual(t, raw.AwayWinProb-baseline.AwayWinProb, 10.0)
	assert.InDelta(t, 42.0, raw.AwayWinProb, 1e-9)
	assert.InDelta(t, 30.0, raw.HomeWinProb, 1e-9)
	assert.Greater(t, raw.Confidence, baseline.Confidence, "more evidence, more confidence")
}

func TestBayesianHeadToHeadDrawHeavy(t *testing.T) {
	cfg := seededConfig()
	b := NewBayesian(cfg)
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	// one home win and nine draws: the home side won only 10% of meetings
	meetings := []football.MatchRecord{{HomeTeamID: homeID, AwayTeamID: awayID, IsPlayed: true, HomeGoals: 2, AwayGoals: 1}}
	for i := 0; i < 9; i++ {
		meetings = append(meetings, football.MatchRecord{HomeTeamID: homeID, AwayTeamID: awayID, IsPlayed: true, HomeGoals: 1, AwayGoals: 1})
	}
	drawn := *mc
	drawn.H2H = features.SummarizeH2H(homeID, awayID, meetings)
	require.Equal(t, 1, drawn.H2H.HomeWins)
	require.Equal(t, 0, drawn.H2H.AwayWins)
	require.InDelta(t, 0.8, drawn.H2H.Dominance, 1e-9)

	raw := b.Estimate(&drawn)
	assert.InDelta(t, 33.0, raw.HomeWinProb, 1e-9, "boost follows the win ratio, not the raw win count")
	assert.InDelta(t, 28.0, raw.DrawProb, 1e-9)
	assert.InDelta(t, 39.0, raw.AwayWinProb, 1e-9)
}

func TestBayesianTravelFactor(t *testing.T) {
	assert.Equal(t, 0.95, travelFactor("England", "Spain"))
	assert.Equal(t, 1.0, travelFactor("England", "England"))
	assert.Equal(t, 1.0, travelFactor("", "Spain"))
}

func TestStatisticalSymmetry(t *testing.T) {
	cfg := seededConfig()
	a := football.Team{ID: homeID, AttackStrength: 82, DefenseStrength: 70, CurrentForm: 60}
	b := football.Team{ID: awayID, AttackStrength: 64, DefenseStrength: 81, CurrentForm: 45}
	s := NewStatistical(cfg)

	forward := s.Estimate(fixture(t, cfg, repoWith(a, b)))

	a.ID, b.ID = awayID, homeID
	reverse := s.Estimate(fixture(t, cfg, repoWith(b, a)))

	assert.InDelta(t, forward.HomeWinProb, reverse.AwayWinProb, 0.5)
	assert.InDelta(t, forward.AwayWinProb, reverse.HomeWinProb, 0.5)
	assert.InDelta(t, forward.DrawProb, reverse.DrawProb, 0.5)
}

func TestStatisticalAttackMonotonic(t *testing.T) {
	cfg := seededConfig()
	s := NewStatistical(cfg)
	last := -1.0
	for attack := 20.0; attack <= 100; attack += 10 {
		home := evenTeam(homeID)
		home.AttackStrength = attack
		raw := s.Estimate(fixture(t, cfg, repoWith(home, evenTeam(awayID))))
		assert.GreaterOrEqual(t, raw.HomeWinProb, last, "attack %v", attack)
		last = raw.HomeWinProb
	}
}

func TestStatisticalInjuryMonotonic(t *testing.T) {
	cfg := seededConfig()
	s := NewStatistical(cfg)
	repo := repoWith(evenTeam(homeID), evenTeam(awayID))
	last := s.Estimate(fixture(t, cfg, repo)).HomeGoals
	for i := int64(1); i <= 6; i++ {
		repo.AddPlayer(football.Player{ID: i, TeamID: homeID, Rating: 95})
		repo.AddInjury(football.Injury{ID: i, PlayerID: i, Severity: 90, IsActive: true})
		goals := s.Estimate(fixture(t, cfg, repo)).HomeGoals
		assert.LessOrEqual(t, goals, last, "injuries %d", i)
		last = goals
	}
	// capped at 30%
	assert.InDelta(t, 1.35*0.7, last, 1e-9)
}

func TestDeterminism(t *testing.T) {
	cfg := seededConfig()
	repo := repoWith(evenTeam(homeID), evenTeam(awayID))
	addRun(repo, homeID, 10, [][2]int{{2, 1}, {0, 0}, {1, 3}})
	mc := fixture(t, cfg, repo)

	for _, p := range Enabled(cfg) {
		first, err := p.Predict(mc)
		require.NoError(t, err)
		second, err := p.Predict(mc)
		require.NoError(t, err)
		assert.Equal(t, first, second, p.Name())
	}
}

func TestBayesianFirstHalfShare(t *testing.T) {
	cfg := config.Default()
	mc := fixture(t, cfg, repoWith(evenTeam(homeID), evenTeam(awayID)))

	for i := 0; i < 20; i++ {
		raw := NewBayesian(cfg).Estimate(mc)
		share := raw.Details["first_half_share"].(float64)
		assert.GreaterOrEqual(t, share, 0.40)
		assert.LessOrEqual(t, share, 0.50)
		assert.InDelta(t, raw.HomeGoals*share, raw.HomeGoalsFirstHalf, 1e-12)
	}
}

func TestNewUnknownPredictor(t *testing.T) {
	_, err := New("neural", config.Default())
	assert.ErrorIs(t, err, ErrUnknownPredictor)

	cfg := config.Default()
	cfg.EnablePredictors = []string{config.Bayesian, config.Statistical}
	ps := Enabled(cfg)
	require.Len(t, ps, 2)
	assert.Equal(t, config.Statistical, ps[0].Name())
	assert.Equal(t, config.Bayesian, ps[1].Name())
}
