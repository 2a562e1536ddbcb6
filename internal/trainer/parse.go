package trainer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
)

// Suggestion of the oracle for one match.
type Suggestion struct {
	PlayerPatterns       []string          `json:"player_patterns"`
	AIWeaknesses         []string          `json:"ai_weaknesses"`
	SuggestedAdjustments parameters.Params `json:"suggested_adjustments"`
	Reasoning            string            `json:"reasoning"`
}

// rawSuggestion accepts the sloppy types language models sometimes use.
type rawSuggestion struct {
	PlayerPatterns       []any           `json:"player_patterns"`
	AIWeaknesses         []any           `json:"ai_weaknesses"`
	SuggestedAdjustments json.RawMessage `json:"suggested_adjustments"`
	Reasoning            any             `json:"reasoning"`
}

// ErrUnparseable is returned (wrapped) by ParseSuggestion.
var ErrUnparseable = errors.New("unparseable oracle response")

var reFencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// ParseSuggestion extracts the suggestion from the oracle response. It tries, in order:
// the whole response as JSON, a fenced ```json block, and the first balanced {...} object.
//
// The response must hold a "suggested_adjustments" object, possibly empty.
func ParseSuggestion(response string) (*Suggestion, error) {
	text := strings.TrimSpace(response)
	if s, err := decodeSuggestion(text); err == nil {
		return s, nil
	}
	if match := reFencedJSON.FindStringSubmatch(text); match != nil {
		if s, err := decodeSuggestion(match[1]); err == nil {
			return s, nil
		}
	}
	if object, found := firstObject(text); found {
		s, err := decodeSuggestion(object)
		if err == nil {
			return s, nil
		}
		return nil, errors.Wrapf(ErrUnparseable, "%v", err)
	}
	return nil, errors.Wrapf(ErrUnparseable, "no JSON object in %q", abbreviate(text, 80))
}

func decodeSuggestion(text string) (*Suggestion, error) {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}
	if len(raw.SuggestedAdjustments) == 0 {
		return nil, errors.New("missing suggested_adjustments")
	}
	var adjustments parameters.Params
	if err := json.Unmarshal(raw.SuggestedAdjustments, &adjustments); err != nil || adjustments == nil {
		return nil, errors.Errorf("suggested_adjustments is not an object: %s", abbreviate(string(raw.SuggestedAdjustments), 40))
	}
	s := &Suggestion{
		PlayerPatterns:       toStrings(raw.PlayerPatterns),
		AIWeaknesses:         toStrings(raw.AIWeaknesses),
		SuggestedAdjustments: adjustments.Normalize(),
	}
	if raw.Reasoning != nil {
		s.Reasoning = fmt.Sprint(raw.Reasoning)
	}
	return s, nil
}

func toStrings(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	strs := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			strs = append(strs, s)
			continue
		}
		strs = append(strs, fmt.Sprint(v))
	}
	return strs
}

// firstObject returns the first balanced {...} in text, skipping braces inside JSON strings.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for ii := start; ii < len(text); ii++ {
		c := text[ii]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : ii+1], true
			}
		}
	}
	return "", false
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
