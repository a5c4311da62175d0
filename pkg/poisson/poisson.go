package poisson

/**
* Poisson score matrix shared by the predictors. Each cell holds the joint
* probability of an exact scoreline assuming independent Poisson goal counts
* for the two sides. The grid is truncated at maxGoals, so market helpers
* normalize against the matrix total rather than assuming it sums to 1.
 */

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultMaxGoals bounds the score grid at 0..7 goals per side
const DefaultMaxGoals = 7

// ScoreMatrix is the outer product of two Poisson distributions
type ScoreMatrix struct {
	LambdaHome float64
	LambdaAway float64
	MaxGoals   int
	Cells      [][]float64 // [homeGoals][awayGoals] -> probability
	total      float64
}

// Outcome holds normalized 1/X/2 probabilities in [0,1]
type Outcome struct {
	HomeWin float64 `json:"homeWin"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"awayWin"`
}

// Score is a single scoreline and its probability
type Score struct {
	Home        int     `json:"home"`
	Away        int     `json:"away"`
	Probability float64 `json:"probability"`
}

// Prob returns P(X = k) for X ~ Poisson(lambda)
func Prob(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	// log space keeps large k stable
	lg, _ := math.Lgamma(float64(k) + 1)
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

// NewScoreMatrix builds the (maxGoals+1)² grid for the two rates.
// A non-positive maxGoals falls back to DefaultMaxGoals.
func NewScoreMatrix(lambdaHome, lambdaAway float64, maxGoals int) *ScoreMatrix {
	if maxGoals <= 0 {
		maxGoals = DefaultMaxGoals
	}

	homeProbs := make([]float64, maxGoals+1)
	awayProbs := make([]float64, maxGoals+1)
	for g := 0; g <= maxGoals; g++ {
		homeProbs[g] = Prob(lambdaHome, g)
		awayProbs[g] = Prob(lambdaAway, g)
	}

	m := &ScoreMatrix{
		LambdaHome: lambdaHome,
		LambdaAway: lambdaAway,
		MaxGoals:   maxGoals,
		Cells:      make([][]float64, maxGoals+1),
	}
	for h := 0; h <= maxGoals; h++ {
		m.Cells[h] = make([]float64, maxGoals+1)
		for a := 0; a <= maxGoals; a++ {
			m.Cells[h][a] = homeProbs[h] * awayProbs[a]
			m.total += m.Cells[h][a]
		}
	}
	return m
}

// Total returns the probability mass captured by the truncated grid
func (m *ScoreMatrix) Total() float64 {
	return m.total
}

// Outcome buckets the grid into home win (lower triangle), draw (diagonal)
// and away win (upper triangle), renormalized to sum to 1
func (m *ScoreMatrix) Outcome() Outcome {
	var o Outcome
	for h := range m.Cells {
		for a, p := range m.Cells[h] {
			switch {
			case h > a:
				o.HomeWin += p
			case h == a:
				o.Draw += p
			default:
				o.AwayWin += p
			}
		}
	}
	if m.total > 0 {
		o.HomeWin /= m.total
		o.Draw /= m.total
		o.AwayWin /= m.total
	}
	return o
}

// OverUnder returns the probability of total goals above and below line.
// Use half-goal lines (1.5, 2.5) to avoid pushes.
func (m *ScoreMatrix) OverUnder(line float64) (over, under float64) {
	for h := range m.Cells {
		for a, p := range m.Cells[h] {
			if float64(h+a) > line {
				over += p
			} else {
				under += p
			}
		}
	}
	return m.normalize(over), m.normalize(under)
}

// BothTeamsToScore returns the probability that both sides score
func (m *ScoreMatrix) BothTeamsToScore() float64 {
	var both float64
	for h := 1; h <= m.MaxGoals; h++ {
		for a := 1; a <= m.MaxGoals; a++ {
			both += m.Cells[h][a]
		}
	}
	return m.normalize(both)
}

// MostLikelyScore returns the single most probable scoreline.
// Ties resolve to the lowest home then away goal count.
func (m *ScoreMatrix) MostLikelyScore() Score {
	best := Score{Probability: -1}
	for h := range m.Cells {
		for a, p := range m.Cells[h] {
			if p > best.Probability {
				best = Score{Home: h, Away: a, Probability: p}
			}
		}
	}
	best.Probability = m.normalize(best.Probability)
	return best
}

func (m *ScoreMatrix) normalize(p float64) float64 {
	if m.total <= 0 {
		return 0
	}
	return p / m.total
}

// Percent converts a probability in [0,1] to a percentage rounded to 1 dp
func Percent(p float64) float64 {
	return decimal.NewFromFloat(p * 100).Round(1).InexactFloat64()
}
