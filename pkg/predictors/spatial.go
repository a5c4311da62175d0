package predictors

import (
	"math"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
)

// conv1 weights over the five pattern rows, newest first
var spatialKernel = []float64{0.4, 0.3, 0.2, 0.1, 0.0}

// Spatial treats the recent per-match attack and defense vectors as a
// small grid and reads scoring output, defensive solidity and consistency
// from it, then matches attack against defense with a tactical factor
type Spatial struct {
	cfg *config.Config
}

func NewSpatial(cfg *config.Config) *Spatial {
	return &Spatial{cfg: cfg}
}

func (s *Spatial) Name() string {
	return config.Spatial
}

// spatialProfile is what the grid says about one team
type spatialProfile struct {
	Conv1           float64 `json:"conv1"`
	ShotEfficiency  float64 `json:"shotEfficiency"`
	Possession      float64 `json:"possession"`
	AttackOutput    float64 `json:"attackOutput"`
	DefenseStrength float64 `json:"defenseStrength"`
	PatternStrength float64 `json:"patternStrength"`
}

func profile(v features.TeamView) spatialProfile {
	attack, defense := v.Metrics.AttackPatterns, v.Metrics.DefensePatterns

	var p spatialProfile
	var goalsFor, goalsAgainst []float64
	for i, row := range attack {
		if i < len(spatialKernel) {
			p.Conv1 += spatialKernel[i] * row[0]
		}
		p.ShotEfficiency += row[2] / math.Max(row[1], 1)
		p.Possession += row[3]
		goalsFor = append(goalsFor, row[0])
	}
	if n := float64(len(attack)); n > 0 {
		p.ShotEfficiency /= n
		p.Possession /= n
	}
	for _, row := range defense {
		goalsAgainst = append(goalsAgainst, row[0])
	}

	p.AttackOutput = 0.8 * (0.5*p.Conv1 + 2*p.ShotEfficiency + 2*p.Possession)
	if v.IsHome {
		p.AttackOutput *= 1.2
	}
	p.AttackOutput = clamp(p.AttackOutput, 0.3, 4.5)

	p.DefenseStrength = clamp(1-mean(goalsAgainst)/3, 0, 1)
	p.PatternStrength = 1 - math.Min((stddev(goalsFor)+stddev(goalsAgainst))/2, 0.5)
	return p
}

// Estimate returns the raw prediction before output rounding
func (s *Spatial) Estimate(mc *features.MatchContext) *Prediction {
	home, away := profile(mc.Home), profile(mc.Away)

	homeFactor := math.Min(1.5, home.AttackOutput/(away.DefenseStrength+0.1))
	awayFactor := math.Min(1.5, away.AttackOutput/(home.DefenseStrength+0.1))
	styleClash := math.Abs(home.Possession-away.Possession) > 0.2
	if styleClash {
		homeFactor *= 1.1
		awayFactor *= 1.1
	}

	lh := home.AttackOutput * homeFactor
	la := away.AttackOutput * awayFactor

	ratio := lh / (la + 0.1)
	var pHome float64
	switch {
	case ratio > 1.3:
		pHome = 55 + 15*(ratio-1.3)
	case ratio < 0.77:
		pHome = 35 - 15*(0.77-ratio)
	default:
		pHome = 45
	}
	pHome = clamp(pHome, 20, 65)
	avgPattern := (home.PatternStrength + away.PatternStrength) / 2
	pDraw := clamp(25+10*(1-avgPattern), 15, 35)
	pAway := 100 - pHome - pDraw

	confidence := 80 + 10*avgPattern + 5*math.Abs(homeFactor-awayFactor)

	share := s.cfg.FirstHalfShare.Spatial
	return &Prediction{
		Algorithm:          s.Name(),
		HomeGoals:          lh,
		AwayGoals:          la,
		HomeGoalsFirstHalf: lh * share,
		AwayGoalsFirstHalf: la * share,
		HomeWinProb:        pHome,
		DrawProb:           pDraw,
		AwayWinProb:        pAway,
		Confidence:         clamp(confidence, 70, MaxConfidence),
		Details: map[string]any{
			"home":             home,
			"away":             away,
			"tactical_home":    homeFactor,
			"tactical_away":    awayFactor,
			"style_clash":      styleClash,
			"strength_ratio":   ratio,
			"first_half_share": share,
		},
	}
}

func (s *Spatial) Predict(mc *features.MatchContext) (*Prediction, error) {
	return Finalize(s.Estimate(mc)), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
