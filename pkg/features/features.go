package features

/**
* The feature extractor turns repository records into the immutable
* MatchContext every predictor reads. All I/O for one prediction happens
* here, up front; predictors never touch the repository.
 */

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/football"
)

// Fallbacks used when a team has no usable history
const (
	DefaultGoalRate   = 1.5
	DefaultH2HGoals   = 2.5
	keyPlayerRating   = 80.0
	injuryScale       = 0.1
	baselineStrength  = 75.0
	patternRows       = 5
	defaultShots      = 10.0
	defaultOnTarget   = 4.0
	defaultPossession = 50.0
	fullSequence      = 5.0 // matches needed for full sequence quality
)

// MatchContext is everything the predictors know about one fixture
type MatchContext struct {
	Home TeamView   `json:"home"`
	Away TeamView   `json:"away"`
	H2H  H2HSummary `json:"h2h"`
}

// TeamView is one side of the fixture
type TeamView struct {
	Team     football.Team            `json:"team"`
	IsHome   bool                     `json:"isHome"`
	Recent   []football.MatchRecord   `json:"recent"`
	Outcomes []Outcome                `json:"outcomes"`
	Injuries []football.InjuredPlayer `json:"injuries"`
	Metrics  TeamMetrics              `json:"metrics"`
}

// Outcome is a played match seen from the team's side
type Outcome struct {
	GoalsFor     int             `json:"goalsFor"`
	GoalsAgainst int             `json:"goalsAgainst"`
	IsHome       bool            `json:"isHome"`
	Result       football.Result `json:"result"`
}

// FormEvidence is the plain per-match form summary
type FormEvidence struct {
	GoalsForPerMatch     float64 `json:"goalsForPerMatch"`
	GoalsAgainstPerMatch float64 `json:"goalsAgainstPerMatch"`
	WinRate              float64 `json:"winRate"`
}

// TeamMetrics are the derived signals of a TeamView
type TeamMetrics struct {
	WeightedGoalRate  float64      `json:"weightedGoalRate"`
	FormScore         float64      `json:"formScore"` // [-1, 1]
	Momentum          float64      `json:"momentum"`
	SequenceQuality   float64      `json:"sequenceQuality"` // [0, 1]
	InjuryImpact      float64      `json:"injuryImpact"`    // uncapped
	KeyPlayerInjuries int          `json:"keyPlayerInjuries"`
	InjuryCount       int          `json:"injuryCount"`
	Form              FormEvidence `json:"form"`

	// Five rows each, padded from team strength when history is short.
	// Attack: goals_for, shots, shots_on_target, possession/100
	// Defense: goals_against, 1 - goals_against/4, (100 - possession)/100
	AttackPatterns  [][]float64 `json:"attackPatterns"`
	DefensePatterns [][]float64 `json:"defensePatterns"`
}

// CappedInjuryImpact limits the injury impact to limit
func (m TeamMetrics) CappedInjuryImpact(limit float64) float64 {
	if m.InjuryImpact > limit {
		return limit
	}
	return m.InjuryImpact
}

// H2HSummary describes previous meetings from the requested home team's viewpoint
type H2HSummary struct {
	Matches             int     `json:"matches"`
	HomeWins            int     `json:"homeWins"`
	AwayWins            int     `json:"awayWins"`
	Draws               int     `json:"draws"`
	HomeWinsRatio       float64 `json:"homeWinsRatio"`
	AwayWinsRatio       float64 `json:"awayWinsRatio"`
	HomeAdvantageSignal float64 `json:"homeAdvantageSignal"`
	AvgGoals            float64 `json:"avgGoals"`
	Dominance           float64 `json:"dominance"` // [0, 1]
}

// Extractor builds match contexts from a repository
type Extractor struct {
	repo football.Repository
	cfg  *config.Config
}

func NewExtractor(repo football.Repository, cfg *config.Config) *Extractor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Extractor{repo: repo, cfg: cfg}
}

// Build fetches history, injuries and head-to-head for both teams concurrently
// and derives the metrics. The first repository error cancels the other
// fetches and is returned.
func (e *Extractor) Build(ctx context.Context, home, away *football.Team) (*MatchContext, error) {
	var (
		homeRecent, awayRecent     []football.MatchRecord
		homeInjuries, awayInjuries []football.InjuredPlayer
		h2h                        []football.MatchRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		homeRecent, err = e.repo.GetRecentMatches(gctx, home.ID, e.cfg.SequenceLength)
		return wrap(err, "recent matches", home.ID)
	})
	g.Go(func() (err error) {
		awayRecent, err = e.repo.GetRecentMatches(gctx, away.ID, e.cfg.SequenceLength)
		return wrap(err, "recent matches", away.ID)
	})
	g.Go(func() (err error) {
		homeInjuries, err = e.repo.GetActiveInjuries(gctx, home.ID)
		return wrap(err, "injuries", home.ID)
	})
	g.Go(func() (err error) {
		awayInjuries, err = e.repo.GetActiveInjuries(gctx, away.ID)
		return wrap(err, "injuries", away.ID)
	})
	g.Go(func() (err error) {
		h2h, err = e.repo.GetHeadToHead(gctx, home.ID, away.ID, e.cfg.H2HLimit)
		return wrap(err, "head to head", home.ID)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &MatchContext{
		Home: e.View(*home, true, homeRecent, homeInjuries),
		Away: e.View(*away, false, awayRecent, awayInjuries),
		H2H:  SummarizeH2H(home.ID, away.ID, h2h),
	}, nil
}

func wrap(err error, what string, teamID int64) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("fetch %s for team %d: %w", what, teamID, err)
}

// View derives a TeamView from already fetched records.
// Unplayed matches and matches the team did not take part in are ignored.
func (e *Extractor) View(team football.Team, isHome bool, recent []football.MatchRecord, injuries []football.InjuredPlayer) TeamView {
	v := TeamView{
		Team:     team,
		IsHome:   isHome,
		Injuries: injuries,
	}
	for _, m := range recent {
		if len(v.Recent) >= e.cfg.SequenceLength {
			break
		}
		gf, ga, ok := m.Score(team.ID)
		if !ok {
			continue
		}
		v.Recent = append(v.Recent, m)
		v.Outcomes = append(v.Outcomes, Outcome{
			GoalsFor:     gf,
			GoalsAgainst: ga,
			IsHome:       m.HomeTeamID == team.ID,
			Result:       football.ResultOf(gf, ga),
		})
	}

	weights := Weights(e.cfg.RecentWeights, len(v.Outcomes))
	m := &v.Metrics
	m.WeightedGoalRate = DefaultGoalRate
	if len(v.Outcomes) > 0 {
		m.WeightedGoalRate = 0
		for i, o := range v.Outcomes {
			m.WeightedGoalRate += weights[i] * float64(o.GoalsFor)
			m.FormScore += weights[i] * float64(o.Result)
		}
	}
	m.Momentum = momentum(v.Outcomes)
	m.SequenceQuality = min(1, float64(len(v.Outcomes))/fullSequence)
	m.Form = formEvidence(v.Outcomes)

	for _, ip := range injuries {
		m.InjuryImpact += (ip.Player.Rating / 100) * (ip.Injury.Severity / 100) * injuryScale
		if ip.Player.Rating > keyPlayerRating {
			m.KeyPlayerInjuries++
		}
	}
	m.InjuryCount = len(injuries)

	m.AttackPatterns, m.DefensePatterns = patterns(team, v.Recent)
	return v
}

// Weights truncates the recency weights to n entries and renormalizes them
// to sum to 1. Missing or all-zero weights fall back to a flat average.
func Weights(base []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	var sum float64
	for i := 0; i < n && i < len(base); i++ {
		w[i] = base[i]
		sum += base[i]
	}
	if sum <= 0 {
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// momentum compares the three newest results with the rest of the window
func momentum(outcomes []Outcome) float64 {
	if len(outcomes) < 3 {
		return 0
	}
	return meanResult(outcomes[:3]) - meanResult(outcomes[3:])
}

func meanResult(outcomes []Outcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var sum float64
	for _, o := range outcomes {
		sum += float64(o.Result)
	}
	return sum / float64(len(outcomes))
}

func formEvidence(outcomes []Outcome) FormEvidence {
	if len(outcomes) == 0 {
		return FormEvidence{
			GoalsForPerMatch:     DefaultGoalRate,
			GoalsAgainstPerMatch: DefaultGoalRate,
			WinRate:              1.0 / 3.0,
		}
	}
	var f FormEvidence
	var wins int
	for _, o := range outcomes {
		f.GoalsForPerMatch += float64(o.GoalsFor)
		f.GoalsAgainstPerMatch += float64(o.GoalsAgainst)
		if o.Result == football.Win {
			wins++
		}
	}
	n := float64(len(outcomes))
	f.GoalsForPerMatch /= n
	f.GoalsAgainstPerMatch /= n
	f.WinRate = float64(wins) / n
	return f
}

// patterns builds the per-match attack and defense vectors, newest first,
// padded to five rows from the team's ratings
func patterns(team football.Team, recent []football.MatchRecord) (attack, defense [][]float64) {
	for i := 0; i < len(recent) && len(attack) < patternRows; i++ {
		m := recent[i]
		gf, ga, _ := m.Score(team.ID)
		shots, onTarget, possession := m.SideStats(team.ID)

		poss := defaultPossession
		if possession != nil {
			poss = *possession
		}
		attack = append(attack, []float64{
			float64(gf),
			intOr(shots, defaultShots),
			intOr(onTarget, defaultOnTarget),
			poss / 100,
		})
		defense = append(defense, []float64{
			float64(ga),
			1 - float64(ga)/4,
			(100 - poss) / 100,
		})
	}

	a := team.AttackStrength / baselineStrength
	g := 1.2 * baselineStrength / max(team.DefenseStrength, 1)
	for len(attack) < patternRows {
		attack = append(attack, []float64{1.5 * a, 10 * a, 4 * a, 0.5})
		defense = append(defense, []float64{g, 1 - g/4, 0.5})
	}
	return attack, defense
}

func intOr(v *int, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return float64(*v)
}

// SummarizeH2H aggregates played meetings from homeID's viewpoint regardless of venue
func SummarizeH2H(homeID, awayID int64, meetings []football.MatchRecord) H2HSummary {
	s := H2HSummary{AvgGoals: DefaultH2HGoals}
	var goals int
	for _, m := range meetings {
		gf, ga, ok := m.Score(homeID)
		if !ok || !m.Involves(awayID) {
			continue
		}
		s.Matches++
		goals += gf + ga
		switch football.ResultOf(gf, ga) {
		case football.Win:
			s.HomeWins++
		case football.Loss:
			s.AwayWins++
		default:
			s.Draws++
		}
	}
	if s.Matches == 0 {
		return s
	}

	n := float64(s.Matches)
	s.HomeWinsRatio = float64(s.HomeWins) / n
	s.AwayWinsRatio = float64(s.AwayWins) / n
	s.HomeAdvantageSignal = s.HomeWinsRatio - 1.0/3.0
	s.AvgGoals = float64(goals) / n
	s.Dominance = 2 * math.Abs(s.HomeWinsRatio-0.5)
	return s
}
