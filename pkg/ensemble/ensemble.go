package ensemble

/**
* The ensemble is the single entry point of the prediction core. It looks
* both teams up, builds one MatchContext and runs every enabled predictor
* over it in its own goroutine. A predictor that errors or panics is
* reported in Result.Failures and never affects its siblings.
 */

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/features"
	"github.com/richard-senior/matchodds/pkg/football"
	"github.com/richard-senior/matchodds/pkg/metrics"
	"github.com/richard-senior/matchodds/pkg/predictors"
)

// ErrSameTeam is returned when home and away name the same team
var ErrSameTeam = errors.New("home and away team must differ")

// Result is the outcome of one fixture prediction
type Result struct {
	RequestID   string                            `json:"requestId"`
	GeneratedAt time.Time                         `json:"generatedAt"`
	HomeTeam    football.Team                     `json:"homeTeam"`
	AwayTeam    football.Team                     `json:"awayTeam"`
	Predictions map[string]*predictors.Prediction `json:"predictions"`
	Failures    map[string]*PredictorFailure      `json:"failures,omitempty"`
}

// Ensemble runs the configured predictors against a repository
type Ensemble struct {
	repo       football.Repository
	cfg        *config.Config
	extractor  *features.Extractor
	predictors []predictors.Predictor
	metrics    *metrics.Metrics
}

// Option configures an Ensemble
type Option func(*Ensemble)

// WithMetrics records prediction metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Ensemble) {
		e.metrics = m
	}
}

// WithPredictors replaces the configured predictor set
func WithPredictors(ps ...predictors.Predictor) Option {
	return func(e *Ensemble) {
		e.predictors = ps
	}
}

func New(repo football.Repository, cfg *config.Config, opts ...Option) *Ensemble {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Ensemble{
		repo:       repo,
		cfg:        cfg,
		extractor:  features.NewExtractor(repo, cfg),
		predictors: predictors.Enabled(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Only returns a copy of the ensemble restricted to the named algorithms,
// taken from the predictors this ensemble already runs. Blank names are
// ignored; no names at all keeps the full set.
func (e *Ensemble) Only(names ...string) (*Ensemble, error) {
	byName := make(map[string]predictors.Predictor, len(e.predictors))
	for _, p := range e.predictors {
		byName[p.Name()] = p
	}

	subset := *e
	subset.predictors = nil
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w %q (enabled: %s)", predictors.ErrUnknownPredictor, name, strings.Join(e.Algorithms(), ", "))
		}
		subset.predictors = append(subset.predictors, p)
	}
	if len(subset.predictors) == 0 {
		return e, nil
	}
	return &subset, nil
}

// Algorithms lists the names of the predictors this ensemble runs
func (e *Ensemble) Algorithms() []string {
	names := make([]string, 0, len(e.predictors))
	for _, p := range e.predictors {
		names = append(names, p.Name())
	}
	return names
}

// outcome is what a predictor goroutine reports back
type outcome struct {
	name       string
	prediction *predictors.Prediction
	err        error
}

// PredictFixture predicts the fixture homeID vs awayID with every enabled
// algorithm. An unknown team yields *UnknownTeamError. Cancelling ctx
// aborts pending work and returns the context error.
func (e *Ensemble) PredictFixture(ctx context.Context, homeID, awayID int64) (*Result, error) {
	if homeID == awayID {
		return nil, fmt.Errorf("team %d: %w", homeID, ErrSameTeam)
	}

	start := time.Now()
	home, err := e.lookup(ctx, homeID)
	if err != nil {
		return nil, err
	}
	away, err := e.lookup(ctx, awayID)
	if err != nil {
		return nil, err
	}

	mc, err := e.extractor.Build(ctx, home, away)
	if err != nil {
		return nil, fmt.Errorf("build match context: %w", err)
	}
	e.metrics.ObserveStage(metrics.StageExtract, start)

	start = time.Now()
	results := make(chan outcome, len(e.predictors))
	for _, p := range e.predictors {
		go run(p, mc, results)
	}

	res := &Result{
		RequestID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		HomeTeam:    *home,
		AwayTeam:    *away,
		Predictions: make(map[string]*predictors.Prediction, len(e.predictors)),
		Failures:    make(map[string]*PredictorFailure),
	}
	for range e.predictors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case o := <-results:
			if o.err != nil {
				failure := &PredictorFailure{Name: o.name, Cause: o.err}
				res.Failures[o.name] = failure
				e.metrics.RecordFailure(o.name)
				logger.Warn("Predictor failed", failure)
				continue
			}
			res.Predictions[o.name] = o.prediction
			e.metrics.RecordPrediction(o.name, o.prediction.Confidence)
		}
	}
	// results that raced a cancellation are discarded
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.metrics.ObserveStage(metrics.StagePredict, start)

	logger.Debug("Predicted fixture", home.Name, "vs", away.Name, "ok:", len(res.Predictions), "failed:", len(res.Failures))
	return res, nil
}

func (e *Ensemble) lookup(ctx context.Context, teamID int64) (*football.Team, error) {
	team, err := e.repo.GetTeam(ctx, teamID)
	if err == nil {
		return team, nil
	}
	if errors.Is(err, football.ErrNotFound) {
		e.metrics.RecordUnknownTeam()
		return nil, &UnknownTeamError{TeamID: teamID, Err: err}
	}
	return nil, fmt.Errorf("look up team %d: %w", teamID, err)
}

// run executes one predictor, turning an error or a panic into an outcome error
func run(p predictors.Predictor, mc *features.MatchContext, out chan<- outcome) {
	name := p.Name()
	defer func() {
		if r := recover(); r != nil {
			out <- outcome{name: name, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	prediction, err := p.Predict(mc)
	if err == nil && prediction == nil {
		err = errors.New("no prediction returned")
	}
	out <- outcome{name: name, prediction: prediction, err: err}
}
