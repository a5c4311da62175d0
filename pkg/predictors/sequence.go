package predictors

import (
	"math"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
)

const sequenceHomeBoost = 1.15

// Sequence reads the recent run of results: recency weighted scoring rate,
// nudged by momentum, with probabilities driven by the rate gap
type Sequence struct {
	cfg *config.Config
}

func NewSequence(cfg *config.Config) *Sequence {
	return &Sequence{cfg: cfg}
}

func (s *Sequence) Name() string {
	return config.Sequence
}

// Estimate returns the raw prediction before output rounding
func (s *Sequence) Estimate(mc *features.MatchContext) *Prediction {
	hm, am := mc.Home.Metrics, mc.Away.Metrics

	lh := hm.WeightedGoalRate * sequenceHomeBoost * (1 + 0.1*hm.Momentum)
	la := am.WeightedGoalRate * (1 + 0.1*am.Momentum)
	lh = clamp(lh, 0.2, 5.0)
	la = clamp(la, 0.2, 5.0)

	momentumGap := hm.Momentum - am.Momentum
	pHome := clamp(45+8*(lh-la)+5*momentumGap, 15, 70)
	pDraw := clamp(30-3*math.Abs(momentumGap), 15, 35)
	pAway := 100 - pHome - pDraw

	avgQuality := (hm.SequenceQuality + am.SequenceQuality) / 2
	confidence := 75 + 20*(avgQuality-0.5) + 5*(math.Abs(hm.Momentum)+math.Abs(am.Momentum))

	share := s.cfg.FirstHalfShare.Sequence
	return &Prediction{
		Algorithm:          s.Name(),
		HomeGoals:          lh,
		AwayGoals:          la,
		HomeGoalsFirstHalf: lh * share,
		AwayGoalsFirstHalf: la * share,
		HomeWinProb:        pHome,
		DrawProb:           pDraw,
		AwayWinProb:        pAway,
		Confidence:         clamp(confidence, 65, MaxConfidence),
		Details: map[string]any{
			"weights":          features.Weights(s.cfg.RecentWeights, s.cfg.SequenceLength),
			"goal_rate_home":   hm.WeightedGoalRate,
			"goal_rate_away":   am.WeightedGoalRate,
			"form_score_home":  hm.FormScore,
			"form_score_away":  am.FormScore,
			"momentum_home":    hm.Momentum,
			"momentum_away":    am.Momentum,
			"sequence_quality": avgQuality,
			"matches_home":     len(mc.Home.Outcomes),
			"matches_away":     len(mc.Away.Outcomes),
			"first_half_share": share,
		},
	}
}

func (s *Sequence) Predict(mc *features.MatchContext) (*Prediction, error) {
	return Finalize(s.Estimate(mc)), nil
}
