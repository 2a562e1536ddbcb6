package trainer

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/pkg/errors"
)

// MaxCriticalMoments included in a prompt.
const MaxCriticalMoments = 10

const answerFormat = `IMPORTANT: answer ONLY with valid JSON, without markdown or extra text:
{
  "player_patterns": ["pattern 1", "pattern 2"],
  "ai_weaknesses": ["weakness 1"],
  "suggested_adjustments": {{.Example}},
  "reasoning": "short explanation of the adjustments"
}`

const parametersList = `{{range .Schema}}{{if .Numeric}}
   - {{.Name}} ({{kind .}}): {{.Description}}{{end}}{{end}}`

var prompts = map[games.ID]string{
	games.Pong: `Analyze this Pong match and extract insights to improve the AI:

RESULT:
- Player won: {{.Match.PlayerWon}}
- Player score: {{.Match.Score}}

MOVES: {{len .Match.MovesSequence}} recorded events

CRITICAL MOMENTS:
{{.CriticalMoments}}

YOUR TASK:
1. Identify the player's patterns (e.g. "always aims at the top corner").
2. Find weaknesses of the current AI (e.g. "arrives late to fast rebounds").
3. Suggest SPECIFIC adjustments of these parameters:` + parametersList + `

` + answerFormat,

	games.TicTacToe: `Analyze this Tic-Tac-Toe match and extract insights to improve the AI:

RESULT:
- Player won: {{.Match.PlayerWon}}
- Total moves: {{.Match.TotalMoves}}
- Final board: {{.FinalBoard}}

YOUR TASK:
1. Identify the player's patterns.
2. Find weaknesses of the AI (e.g. "didn't block a critical corner").
3. Suggest SPECIFIC adjustments of these parameters:` + parametersList + `

` + answerFormat,
}

const genericPrompt = `Analyze this {{.Game}} match:

Result: {{if .Match.PlayerWon}}the player won{{else}}the AI won{{end}}
Score: {{.Match.Score}}
Moves: {{.Match.TotalMoves}}
Duration: {{.Match.DurationSeconds}}s

Suggest adjustments to improve the AI for these parameters:` + parametersList + `

` + answerFormat

var promptTemplates = func() map[games.ID]*template.Template {
	funcs := template.FuncMap{"kind": describeSpec}
	templates := make(map[games.ID]*template.Template)
	for _, game := range games.All() {
		text, found := prompts[game]
		if !found {
			text = genericPrompt
		}
		templates[game] = template.Must(template.New(string(game)).Funcs(funcs).Parse(text))
	}
	return templates
}()

type promptData struct {
	Game            games.ID
	Match           storage.MatchRecord
	Schema          parameters.Schema
	CriticalMoments string
	FinalBoard      string
	Example         string
}

// BuildPrompt returns the prompt asking the oracle to analyze the match. It lists the numeric
// parameters of the schema, and the current values are given as the example answer.
func BuildPrompt(match storage.MatchRecord, schema parameters.Schema, current parameters.Params) (string, error) {
	tmpl, found := promptTemplates[match.GameID]
	if !found {
		return "", errors.Wrapf(games.ErrUnknown, "game %q", match.GameID)
	}
	data := promptData{
		Game:            match.GameID,
		Match:           match,
		Schema:          schema,
		CriticalMoments: "[]",
		FinalBoard:      finalBoard(match.FinalState),
	}
	if len(match.CriticalMoments) > 0 {
		moments := match.CriticalMoments[:min(len(match.CriticalMoments), MaxCriticalMoments)]
		encoded, err := json.MarshalIndent(moments, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, "failed to encode critical moments")
		}
		data.CriticalMoments = string(encoded)
	}
	example := make(map[string]any)
	for _, spec := range schema {
		if value, found := current[spec.Name]; found && spec.Numeric() {
			example[spec.Name] = value
		}
	}
	encoded, err := json.Marshal(example)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode example adjustments")
	}
	data.Example = string(encoded)

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", errors.Wrapf(err, "failed to build %s prompt", match.GameID)
	}
	return sb.String(), nil
}

// describeSpec returns the kind and bounds of a parameter, as shown to the oracle.
func describeSpec(spec parameters.Spec) string {
	switch spec.Kind {
	case parameters.Array:
		return fmt.Sprintf("array of %d numbers in [%g, %g]", spec.Length, spec.Min, spec.Max)
	case parameters.Integer:
		return fmt.Sprintf("integer in [%g, %g]", spec.Min, spec.Max)
	}
	return fmt.Sprintf("number in [%g, %g]", spec.Min, spec.Max)
}

// finalBoard returns the "board" field of the final state if it has one, or else the whole state.
func finalBoard(state json.RawMessage) string {
	if len(state) == 0 {
		return "unknown"
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(state, &object); err == nil {
		if board, found := object["board"]; found {
			return formatBoard(board)
		}
	}
	return formatBoard(state)
}

// formatBoard prints a list of cells compactly, e.g. "XO-|-X-|O--" for a 3x3 board.
func formatBoard(board json.RawMessage) string {
	var cells []*string
	if err := json.Unmarshal(board, &cells); err != nil || len(cells) != 9 {
		var s string
		if err := json.Unmarshal(board, &s); err == nil {
			return s
		}
		return string(board)
	}
	rows := generics.SliceMap([]int{0, 3, 6}, func(start int) string {
		var sb strings.Builder
		for _, cell := range cells[start : start+3] {
			if cell == nil || *cell == "" {
				sb.WriteByte('-')
			} else {
				sb.WriteString(*cell)
			}
		}
		return sb.String()
	})
	return strings.Join(rows, "|")
}
