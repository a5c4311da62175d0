package predictors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeClampsGoals(t *testing.T) {
	p := Finalize(&Prediction{
		HomeGoals:          7.34,
		AwayGoals:          0.01,
		HomeGoalsFirstHalf: 9,
		AwayGoalsFirstHalf: -1,
		HomeWinProb:        50,
		DrawProb:           25,
		AwayWinProb:        25,
		Confidence:         99,
	})

	assert.Equal(t, 6.0, p.HomeGoals)
	assert.Equal(t, 0.1, p.AwayGoals)
	assert.Equal(t, 6.0, p.HomeGoalsFirstHalf)
	assert.Equal(t, 0.0, p.AwayGoalsFirstHalf)
	assert.Equal(t, 95.0, p.Confidence)
	assert.NotNil(t, p.Details)
}

func TestFinalizeRoundsGoals(t *testing.T) {
	p := Finalize(&Prediction{HomeGoals: 1.349, AwayGoals: 2.25, HomeGoalsFirstHalf: 1.349 * 0.45, AwayGoalsFirstHalf: 2.25 * 0.47, HomeWinProb: 1, Confidence: 12})

	assert.Equal(t, 1.3, p.HomeGoals)
	assert.Equal(t, 2.3, p.AwayGoals)
	assert.Equal(t, 0.6, p.HomeGoalsFirstHalf)
	assert.Equal(t, 1.1, p.AwayGoalsFirstHalf)
	assert.Equal(t, 60.0, p.Confidence)
}

func TestFinalizeRebalancesProbabilities(t *testing.T) {
	tests := []struct {
		name             string
		home, draw, away float64
		want             [3]float64
	}{
		{"already balanced", 45, 28, 27, [3]float64{45, 28, 27}},
		{"negative bucket is clamped", 80, 35, -15, [3]float64{69.6, 30.4, 0}},
		{"all zero", 0, 0, 0, [3]float64{33.3, 33.4, 33.3}},
		{"thirds hand the residue to the largest", 1, 1, 1.0000001, [3]float64{33.3, 33.3, 33.4}},
		{"scaled up", 10, 5, 5, [3]float64{50, 25, 25}},
		{"not a number", math.NaN(), 50, 50, [3]float64{0, 50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Finalize(&Prediction{HomeGoals: 1, AwayGoals: 1, HomeWinProb: tt.home, DrawProb: tt.draw, AwayWinProb: tt.away, Confidence: 70})
			assert.Equal(t, tt.want, [3]float64{p.HomeWinProb, p.DrawProb, p.AwayWinProb})
			assert.InDelta(t, 100.0, p.ProbabilitySum(), 1e-9)
		})
	}
}
