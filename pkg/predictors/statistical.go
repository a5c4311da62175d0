package predictors

import (
	"fmt"
	"math"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
	"github.com/richard-senior/matchodds/pkg/poisson"
)

// Statistical is the classic Poisson model: expected goals from attack and
// defence ratings, adjusted for form, home advantage and injuries, then
// pushed through the score matrix for 1/X/2 and the derived markets
type Statistical struct {
	cfg *config.Config
}

func NewStatistical(cfg *config.Config) *Statistical {
	return &Statistical{cfg: cfg}
}

func (s *Statistical) Name() string {
	return config.Statistical
}

// ExpectedGoals returns the unrounded λ for both sides
func (s *Statistical) ExpectedGoals(mc *features.MatchContext) (lambdaHome, lambdaAway float64) {
	h, a := mc.Home.Team, mc.Away.Team
	half := s.cfg.LeagueAvgGoals / 2

	lambdaHome = (h.AttackStrength / 100) * (100 / math.Max(a.DefenseStrength, 1)) * half * (1 + h.HomeAdvantage/100)
	lambdaAway = (a.AttackStrength / 100) * (100 / math.Max(h.DefenseStrength, 1)) * half

	lambdaHome *= 1 + (h.CurrentForm-50)/100
	lambdaAway *= 1 + (a.CurrentForm-50)/100

	lambdaHome *= 1 - mc.Home.Metrics.CappedInjuryImpact(s.cfg.InjuryCap.Statistical)
	lambdaAway *= 1 - mc.Away.Metrics.CappedInjuryImpact(s.cfg.InjuryCap.Statistical)

	return clamp(lambdaHome, MinGoals, MaxGoals), clamp(lambdaAway, MinGoals, MaxGoals)
}

// Estimate returns the raw prediction before output rounding
func (s *Statistical) Estimate(mc *features.MatchContext) *Prediction {
	lh, la := s.ExpectedGoals(mc)
	m := poisson.NewScoreMatrix(lh, la, poisson.DefaultMaxGoals)
	o := m.Outcome()

	h, a := mc.Home.Team, mc.Away.Team
	confidence := 70.0
	switch diff := math.Abs(lh - la); {
	case diff > 1.5:
		confidence += 15
	case diff < 0.5:
		confidence -= 10
	}
	if math.Abs(h.CurrentForm-a.CurrentForm) > 20 {
		confidence += 10
	}
	if h.HomeAdvantage > 8 {
		confidence += 5
	}

	over15, _ := m.OverUnder(1.5)
	over25, under25 := m.OverUnder(2.5)
	over35, _ := m.OverUnder(3.5)
	likely := m.MostLikelyScore()
	share := s.cfg.FirstHalfShare.Statistical

	return &Prediction{
		Algorithm:          s.Name(),
		HomeGoals:          lh,
		AwayGoals:          la,
		HomeGoalsFirstHalf: lh * share,
		AwayGoalsFirstHalf: la * share,
		HomeWinProb:        o.HomeWin * 100,
		DrawProb:           o.Draw * 100,
		AwayWinProb:        o.AwayWin * 100,
		Confidence:         clamp(confidence, MinConfidence, MaxConfidence),
		Details: map[string]any{
			"lambda_home":          lh,
			"lambda_away":          la,
			"injury_impact_home":   mc.Home.Metrics.CappedInjuryImpact(s.cfg.InjuryCap.Statistical),
			"injury_impact_away":   mc.Away.Metrics.CappedInjuryImpact(s.cfg.InjuryCap.Statistical),
			"over_1_5":             poisson.Percent(over15),
			"over_2_5":             poisson.Percent(over25),
			"under_2_5":            poisson.Percent(under25),
			"over_3_5":             poisson.Percent(over35),
			"both_teams_to_score":  poisson.Percent(m.BothTeamsToScore()),
			"most_likely_score":    fmt.Sprintf("%d-%d", likely.Home, likely.Away),
			"most_likely_score_pc": poisson.Percent(likely.Probability),
			"first_half_share":     share,
		},
	}
}

func (s *Statistical) Predict(mc *features.MatchContext) (*Prediction, error) {
	return Finalize(s.Estimate(mc)), nil
}
