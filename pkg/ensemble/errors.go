package ensemble

import (
	"encoding/json"
	"fmt"
)

// UnknownTeamError reports a team id the repository does not know.
// It unwraps to football.ErrNotFound.
type UnknownTeamError struct {
	TeamID int64
	Err    error
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %d", e.TeamID)
}

func (e *UnknownTeamError) Unwrap() error {
	return e.Err
}

// PredictorFailure isolates the error or panic of one predictor
type PredictorFailure struct {
	Name  string
	Cause error
}

func (f *PredictorFailure) Error() string {
	return fmt.Sprintf("predictor %s: %v", f.Name, f.Cause)
}

func (f *PredictorFailure) Unwrap() error {
	return f.Cause
}

// String implements fmt.Stringer for the logger
func (f *PredictorFailure) String() string {
	return f.Error()
}

func (f *PredictorFailure) MarshalJSON() ([]byte, error) {
	cause := ""
	if f.Cause != nil {
		cause = f.Cause.Error()
	}
	return json.Marshal(struct {
		Name  string `json:"name"`
		Cause string `json:"cause"`
	}{f.Name, cause})
}
