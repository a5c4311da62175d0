package predictors

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/richard-senior/matchodds/pkg/features"
)

// Output bounds every finalized prediction satisfies
const (
	MinGoals      = 0.1
	MaxGoals      = 6.0
	MinConfidence = 60.0
	MaxConfidence = 95.0
)

// Predictor is one algorithmic viewpoint on a fixture. Implementations hold
// configuration only and must be safe to call concurrently.
type Predictor interface {
	Name() string
	Predict(mc *features.MatchContext) (*Prediction, error)
}

// Prediction is the uniform output of every algorithm.
// Probabilities are percentages; goals are expected goals.
type Prediction struct {
	Algorithm          string         `json:"algorithm"`
	HomeGoals          float64        `json:"homeGoals"`
	AwayGoals          float64        `json:"awayGoals"`
	HomeGoalsFirstHalf float64        `json:"homeGoalsFirstHalf"`
	AwayGoalsFirstHalf float64        `json:"awayGoalsFirstHalf"`
	HomeWinProb        float64        `json:"homeWinProb"`
	DrawProb           float64        `json:"drawProb"`
	AwayWinProb        float64        `json:"awayWinProb"`
	Confidence         float64        `json:"confidence"`
	Details            map[string]any `json:"details,omitempty"`
}

// ProbabilitySum returns home + draw + away
func (p *Prediction) ProbabilitySum() float64 {
	return p.HomeWinProb + p.DrawProb + p.AwayWinProb
}

// Finalize enforces the output invariants on a raw estimate in place:
// goals within [0.1, 6.0], first half within [0, full], probabilities
// non-negative and summing to exactly 100.0 after rounding to 1 dp,
// and confidence within [60, 95].
func Finalize(p *Prediction) *Prediction {
	p.HomeGoals = clamp(finite(p.HomeGoals, MinGoals), MinGoals, MaxGoals)
	p.AwayGoals = clamp(finite(p.AwayGoals, MinGoals), MinGoals, MaxGoals)
	p.HomeGoalsFirstHalf = clamp(finite(p.HomeGoalsFirstHalf, 0), 0, p.HomeGoals)
	p.AwayGoalsFirstHalf = clamp(finite(p.AwayGoalsFirstHalf, 0), 0, p.AwayGoals)

	p.HomeGoals = round1(p.HomeGoals)
	p.AwayGoals = round1(p.AwayGoals)
	p.HomeGoalsFirstHalf = min(round1(p.HomeGoalsFirstHalf), p.HomeGoals)
	p.AwayGoalsFirstHalf = min(round1(p.AwayGoalsFirstHalf), p.AwayGoals)

	p.HomeWinProb, p.DrawProb, p.AwayWinProb = rebalance(p.HomeWinProb, p.DrawProb, p.AwayWinProb)

	p.Confidence = round1(clamp(finite(p.Confidence, MinConfidence), MinConfidence, MaxConfidence))
	if p.Details == nil {
		p.Details = map[string]any{}
	}
	return p
}

// rebalance clamps negatives to zero, scales to 100 and hands the rounding
// residue to the largest bucket so the three values add up to exactly 100.0
func rebalance(home, draw, away float64) (float64, float64, float64) {
	raw := []float64{
		max(finite(home, 0), 0),
		max(finite(draw, 0), 0),
		max(finite(away, 0), 0),
	}
	sum := raw[0] + raw[1] + raw[2]
	if sum <= 0 {
		return 33.3, 33.4, 33.3
	}

	hundred := decimal.NewFromInt(100)
	rounded := make([]decimal.Decimal, 3)
	total := decimal.Zero
	largest := 0
	for i, v := range raw {
		rounded[i] = decimal.NewFromFloat(v * 100 / sum).Round(1)
		total = total.Add(rounded[i])
		if raw[i] > raw[largest] {
			largest = i
		}
	}
	rounded[largest] = rounded[largest].Add(hundred.Sub(total))

	return rounded[0].InexactFloat64(), rounded[1].InexactFloat64(), rounded[2].InexactFloat64()
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// finite replaces NaN and infinities, which decimal cannot represent
func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
