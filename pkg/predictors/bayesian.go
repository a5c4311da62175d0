package predictors

import (
	"maps"
	"math"
	"math/rand"
	"time"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
)

// Evidence channel weights
const (
	formWeight          = 0.30
	injuryWeight        = 0.20
	h2hWeight           = 0.25
	environmentalWeight = 0.25
	awayTravelFactor    = 0.95
)

var evidenceWeights = map[string]float64{
	"form":          formWeight,
	"injury":        injuryWeight,
	"h2h":           h2hWeight,
	"environmental": environmentalWeight,
}

// Bayesian starts from rating based priors, updates them with form,
// injury, head-to-head and environmental evidence, and reports its
// posterior variance as part of the confidence
type Bayesian struct {
	cfg *config.Config
}

func NewBayesian(cfg *config.Config) *Bayesian {
	return &Bayesian{cfg: cfg}
}

func (b *Bayesian) Name() string {
	return config.Bayesian
}

// posterior is the updated belief about one side's goal rate
type posterior struct {
	Prior    float64 `json:"prior"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	FormAdj  float64 `json:"formAdj"`
	InjAdj   float64 `json:"injuryAdj"`
	EnvAdj   float64 `json:"envAdj"`
}

func update(prior float64, v features.TeamView, envAdj, injuryCap float64) posterior {
	p := posterior{
		Prior:   prior,
		FormAdj: v.Metrics.Form.GoalsForPerMatch/1.5 - 1,
		InjAdj:  -v.Metrics.CappedInjuryImpact(injuryCap),
		EnvAdj:  envAdj,
	}
	p.Mean = clamp(prior*(1+0.3*p.FormAdj+p.InjAdj+0.2*p.EnvAdj), 0.1, 5.0)
	p.Variance = math.Max(0.1, 0.5-0.1*(math.Abs(p.FormAdj)+math.Abs(p.InjAdj)+math.Abs(p.EnvAdj)))
	return p
}

// travelFactor is 0.95 when both countries are known and differ
func travelFactor(home, away string) float64 {
	if home != "" && away != "" && home != away {
		return awayTravelFactor
	}
	return 1.0
}

// rng returns a per-call generator; a zero seed draws from the clock
func (b *Bayesian) rng() *rand.Rand {
	seed := b.cfg.BayesianSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Estimate returns the raw prediction before output rounding
func (b *Bayesian) Estimate(mc *features.MatchContext) *Prediction {
	h, a := mc.Home.Team, mc.Away.Team

	priorHome := 1.5 * (h.AttackStrength / 75) * (75 / math.Max(a.DefenseStrength, 1)) * (1 + h.HomeAdvantage/100)
	priorAway := 1.2 * (a.AttackStrength / 75) * (75 / math.Max(h.DefenseStrength, 1))

	pHome := 37.0
	switch {
	case priorHome > 1.2*priorAway:
		pHome = 45
	case priorAway > 1.2*priorHome:
		pHome = 30
	}
	pDraw := 28.0
	pAway := 100 - pHome - pDraw
	priors := []float64{pHome, pDraw, pAway}

	travel := travelFactor(h.Country, a.Country)
	injuryCap := b.cfg.InjuryCap.Bayesian
	home := update(priorHome, mc.Home, h.HomeAdvantage/100, injuryCap)
	away := update(priorAway, mc.Away, travel-1, injuryCap)

	switch delta := home.Mean - away.Mean; {
	case delta > 0.5:
		pHome += 10 * delta
		pAway -= 5 * delta
	case delta < -0.5:
		pAway += 10 * -delta
		pHome -= 5 * -delta
	}

	h2h := mc.H2H
	if h2h.Dominance > 0.3 {
		boost := 15 * h2h.Dominance
		// dominance measures the home win ratio against an even split
		switch lead := h2h.HomeWinsRatio - 0.5; {
		case lead > 0:
			pHome += boost
			pAway -= boost
		case lead < 0:
			pAway += boost
			pHome -= boost
		}
	}

	pHome, pDraw, pAway = math.Max(pHome, 0), math.Max(pDraw, 0), math.Max(pAway, 0)
	if sum := pHome + pDraw + pAway; sum > 0 {
		pHome, pDraw, pAway = pHome*100/sum, pDraw*100/sum, pAway*100/sum
	}

	quality := formWeight*(mc.Home.Metrics.SequenceQuality+mc.Away.Metrics.SequenceQuality)/2 +
		injuryWeight +
		h2hWeight*math.Min(1, float64(h2h.Matches)/10) +
		environmentalWeight
	avgVariance := (home.Variance + away.Variance) / 2
	confidence := 85 + 10*quality - 15*avgVariance

	jitter := b.cfg.FirstHalfShare.BayesianJitter
	share := b.cfg.FirstHalfShare.Bayesian + (b.rng().Float64()*2-1)*jitter

	return &Prediction{
		Algorithm:          b.Name(),
		HomeGoals:          home.Mean,
		AwayGoals:          away.Mean,
		HomeGoalsFirstHalf: home.Mean * share,
		AwayGoalsFirstHalf: away.Mean * share,
		HomeWinProb:        pHome,
		DrawProb:           pDraw,
		AwayWinProb:        pAway,
		Confidence:         clamp(confidence, 75, MaxConfidence),
		Details: map[string]any{
			"outcome_priors":   priors,
			"home":             home,
			"away":             away,
			"travel_factor":    travel,
			"evidence_quality": quality,
			"evidence_weights": maps.Clone(evidenceWeights),
			"h2h_dominance":    h2h.Dominance,
			"first_half_share": share,
		},
	}
}

func (b *Bayesian) Predict(mc *features.MatchContext) (*Prediction, error) {
	return Finalize(b.Estimate(mc)), nil
}
