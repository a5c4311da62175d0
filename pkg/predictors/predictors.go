package predictors

/**
* Four independent algorithms share one input (features.MatchContext) and
* one output (Prediction). Each exposes Estimate for the raw figures and
* Predict for the finalized record.
 */

import (
	"errors"
	"fmt"

	"github.com/richard-senior/matchodds/pkg/config"
)

// ErrUnknownPredictor is returned for a name no algorithm is registered under
var ErrUnknownPredictor = errors.New("unknown predictor")

// New returns the predictor registered under name
func New(name string, cfg *config.Config) (Predictor, error) {
	switch name {
	case config.Statistical:
		return NewStatistical(cfg), nil
	case config.Sequence:
		return NewSequence(cfg), nil
	case config.Spatial:
		return NewSpatial(cfg), nil
	case config.Bayesian:
		return NewBayesian(cfg), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownPredictor, name)
}

// Enabled builds every predictor the configuration switches on, in stable order
func Enabled(cfg *config.Config) []Predictor {
	var out []Predictor
	for _, name := range config.AllPredictors {
		if !cfg.Enabled(name) {
			continue
		}
		p, _ := New(name, cfg)
		out = append(out, p)
	}
	return out
}
