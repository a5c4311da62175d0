package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/ensemble"
	"github.com/richard-senior/matchodds/pkg/predictors"
	"github.com/richard-senior/matchodds/pkg/protocol"
)

// PredictFixtureName is the registered tool name
const PredictFixtureName = "predict_fixture"

func PredictFixtureTool() protocol.Tool {
	return protocol.Tool{
		Name: PredictFixtureName,
		Description: `
		Predicts a football fixture between two teams held in the match database.
		Returns expected goals, first half goals, win/draw/loss percentages and a
		confidence for each prediction algorithm (statistical, sequence, spatial, bayesian).
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home_team_id": {
					Type:        "integer",
					Description: "Database id of the home team",
				},
				"away_team_id": {
					Type:        "integer",
					Description: "Database id of the away team",
				},
				"algorithms": {
					Type:        "string",
					Description: "Optional comma separated subset of algorithms to run, e.g. 'statistical,bayesian'. Omit to run all enabled algorithms.",
				},
			},
			Required: []string{"home_team_id", "away_team_id"},
		},
	}
}

// NewPredictFixtureHandler returns the tools/call handler for predict_fixture.
// Caller mistakes (unknown team, same team, unknown algorithm) come back as
// an error result the client can read; anything else fails the call.
func NewPredictFixtureHandler(e *ensemble.Ensemble, timeout time.Duration) func(context.Context, map[string]any) (*protocol.ToolResult, error) {
	return func(ctx context.Context, args map[string]any) (*protocol.ToolResult, error) {
		homeID, err := idArg(args, "home_team_id")
		if err != nil {
			return protocol.ErrorResult(err.Error()), nil
		}
		awayID, err := idArg(args, "away_team_id")
		if err != nil {
			return protocol.ErrorResult(err.Error()), nil
		}

		subset := e
		if list, ok := args["algorithms"].(string); ok && list != "" {
			subset, err = e.Only(strings.Split(list, ",")...)
			if err != nil {
				return protocol.ErrorResult(err.Error()), nil
			}
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res, err := subset.PredictFixture(ctx, homeID, awayID)
		var unknown *ensemble.UnknownTeamError
		switch {
		case err == nil:
		case errors.As(err, &unknown), errors.Is(err, ensemble.ErrSameTeam), errors.Is(err, predictors.ErrUnknownPredictor):
			return protocol.ErrorResult(err.Error()), nil
		default:
			logger.Error("predict_fixture failed", homeID, awayID, err)
			return nil, err
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal prediction: %w", err)
		}
		return protocol.TextResult(string(out)), nil
	}
}

// idArg reads a positive team id given as a JSON number or a numeric string
func idArg(args map[string]any, name string) (int64, error) {
	var id int64
	switch v := args[name].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		id = int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		id = n
	case nil:
		return 0, fmt.Errorf("missing %s", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return id, nil
}
