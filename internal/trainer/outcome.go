package trainer

import (
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/parameters"
)

// Status of a training run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusInsufficientData Status = "insufficient_data"
	StatusAnalysisFailed   Status = "analysis_failed"
	StatusUpdateFailed     Status = "update_failed"
	StatusCanceled         Status = "canceled"
)

// Outcome of a training run. Only StatusSuccess changes the parameters.
type Outcome struct {
	Status Status    `json:"status"`
	RunID  string    `json:"run_id"`
	Key    games.Key `json:"key"`

	// MatchCount is the number of matches selected, Parsed the number of valid oracle suggestions
	// and Dropped the number of matches without one.
	MatchCount int `json:"match_count"`
	Parsed     int `json:"parsed"`
	Dropped    int `json:"dropped"`

	// Suggestions parsed, also when the run was canceled or failed.
	Suggestions []*Suggestion `json:"suggestions,omitempty"`

	// UnknownKeys suggested by the oracle, and ignored.
	UnknownKeys []string `json:"unknown_keys,omitempty"`

	OldParams parameters.Params `json:"old_params,omitempty"`
	NewParams parameters.Params `json:"new_params,omitempty"`

	// Version of the new parameters, if the run succeeded.
	Version int    `json:"version,omitempty"`
	Message string `json:"message"`
}

// Succeeded returns whether the parameters were updated.
func (o *Outcome) Succeeded() bool { return o.Status == StatusSuccess }
