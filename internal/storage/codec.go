package storage

import (
	"encoding/json"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
)

// CurrentCodecVersion is the version of the JSON envelope used to serialize parameters and metrics.
// Payloads written with another version fail to decode with ErrVersionMismatch.
const CurrentCodecVersion = 1

// ErrVersionMismatch is returned when decoding a payload written with an unsupported codec version.
var ErrVersionMismatch = errors.New("record version mismatch")

type envelope struct {
	CodecVersion int             `json:"codec_version"`
	Payload      json.RawMessage `json:"payload"`
}

func encode(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{CodecVersion: CurrentCodecVersion, Payload: payload})
}

func decode(data []byte, value any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "failed to decode envelope")
	}
	if env.CodecVersion != CurrentCodecVersion {
		return errors.Wrapf(ErrVersionMismatch, "codec version %d, expected %d", env.CodecVersion, CurrentCodecVersion)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(env.Payload, value)
}

// EncodeParams serializes params into a versioned JSON envelope.
func EncodeParams(params parameters.Params) ([]byte, error) {
	return encode(params)
}

// DecodeParams is the inverse of EncodeParams. The decoded params are normalized.
func DecodeParams(data []byte) (parameters.Params, error) {
	var params parameters.Params
	if err := decode(data, &params); err != nil {
		return nil, err
	}
	return params.Normalize(), nil
}

// EncodeMetrics serializes metrics into a versioned JSON envelope.
func EncodeMetrics(metrics Metrics) ([]byte, error) {
	return encode(metrics)
}

// DecodeMetrics is the inverse of EncodeMetrics.
func DecodeMetrics(data []byte) (Metrics, error) {
	var metrics Metrics
	if err := decode(data, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// matchPayload holds the free-form parts of a MatchRecord, stored together as one blob.
type matchPayload struct {
	MovesSequence   []json.RawMessage `json:"moves_sequence"`
	FinalState      json.RawMessage   `json:"final_board_state,omitempty"`
	CriticalMoments []json.RawMessage `json:"critical_moments,omitempty"`
}

// EncodeMatchPayload serializes the moves, final state and critical moments of a match.
func EncodeMatchPayload(match MatchRecord) ([]byte, error) {
	return encode(matchPayload{
		MovesSequence:   match.MovesSequence,
		FinalState:      match.FinalState,
		CriticalMoments: match.CriticalMoments,
	})
}

// DecodeMatchPayload fills the moves, final state and critical moments of match from data.
func DecodeMatchPayload(data []byte, match *MatchRecord) error {
	var payload matchPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	match.MovesSequence = payload.MovesSequence
	match.FinalState = payload.FinalState
	match.CriticalMoments = payload.CriticalMoments
	return nil
}
