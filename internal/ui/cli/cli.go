// Package cli prints the reports of the command-line tools: training outcomes, parameter versions
// and history, and the boards of self-played matches.
package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/arcadeai/internal/games"
	"github.com/janpfeifer/arcadeai/internal/generics"
	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/janpfeifer/arcadeai/internal/paramstore"
	"github.com/janpfeifer/arcadeai/internal/recorder"
	"github.com/janpfeifer/arcadeai/internal/state"
	"github.com/janpfeifer/arcadeai/internal/storage"
	"github.com/janpfeifer/arcadeai/internal/trainer"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len([]rune(ansiFilter.ReplaceAllString(s, "")))
}

// UI prints reports to a writer, usually the terminal.
type UI struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	width    int

	title, label, dim, good, bad, warn lipgloss.Style
	first, second                      lipgloss.Style
}

// New returns a UI printing to stdout. Colors are used if color is true and the terminal supports them.
func New(color bool) *UI {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = DefaultWidth
	}
	profile := termenv.Ascii
	if color {
		profile = termenv.EnvColorProfile()
	}
	return newUI(os.Stdout, profile, width)
}

// NewWithWriter returns a UI printing to w without colors.
func NewWithWriter(w io.Writer) *UI {
	return newUI(w, termenv.Ascii, DefaultWidth)
}

func newUI(w io.Writer, profile termenv.Profile, width int) *UI {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &UI{
		out:      w,
		renderer: r,
		width:    width,
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		label:    r.NewStyle().Bold(true),
		dim:      r.NewStyle().Faint(true),
		good:     r.NewStyle().Foreground(lipgloss.Color("10")),
		bad:      r.NewStyle().Foreground(lipgloss.Color("9")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("11")),
		first:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		second:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

func (ui *UI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(ui.out, format, args...)
}

// printCentered prints each line of block centered on the width of the UI.
func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((ui.width-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			ui.printf("\n")
			continue
		}
		ui.printf("%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// table renders rows under headers, with columns aligned.
func (ui *UI) table(headers []string, rows [][]string) string {
	widths := generics.SliceMap(headers, displayWidth)
	for _, row := range rows {
		for ii, cell := range row {
			widths[ii] = max(widths[ii], displayWidth(cell))
		}
	}
	pad := func(s string, width int) string {
		return s + strings.Repeat(" ", width-displayWidth(s))
	}
	var sb strings.Builder
	for ii, header := range headers {
		if ii > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(ui.label.Render(pad(header, widths[ii])))
	}
	sb.WriteByte('\n')
	for _, row := range rows {
		for ii, cell := range row {
			if ii > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(pad(cell, widths[ii]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// statusStyle returns the style used for the status of a training.
func (ui *UI) statusStyle(status trainer.Status) lipgloss.Style {
	switch status {
	case trainer.StatusSuccess:
		return ui.good
	case trainer.StatusInsufficientData, trainer.StatusCanceled:
		return ui.warn
	}
	return ui.bad
}

// PrintOutcome prints the report of a training run, with the changed parameters.
func (ui *UI) PrintOutcome(outcome *trainer.Outcome) {
	ui.printf("\n%s %s: %s\n", ui.title.Render("Training"), outcome.Key,
		ui.statusStyle(outcome.Status).Render(string(outcome.Status)))
	ui.printf("  %s %s\n", ui.dim.Render("run"), outcome.RunID)
	ui.printf("  matches: %d, suggestions: %d, dropped: %d\n", outcome.MatchCount, outcome.Parsed, outcome.Dropped)
	if outcome.Message != "" {
		ui.printf("  %s\n", outcome.Message)
	}
	if len(outcome.UnknownKeys) > 0 {
		ui.printf("  %s %s\n", ui.warn.Render("ignored unknown parameters:"), strings.Join(outcome.UnknownKeys, ", "))
	}
	if outcome.NewParams != nil {
		ui.printf("\n%s", ui.table([]string{"parameter", "old", "new"}, ui.diffRows(outcome.OldParams, outcome.NewParams)))
	}
	if outcome.Succeeded() {
		ui.printf("\n  new version: %s\n", ui.good.Render(fmt.Sprint(outcome.Version)))
	}
}

// diffRows lists the parameters of old and updated, marking the changed ones.
func (ui *UI) diffRows(old, updated parameters.Params) [][]string {
	keys := generics.MakeSet[string]()
	for key := range old {
		keys.Insert(key)
	}
	for key := range updated {
		keys.Insert(key)
	}
	var rows [][]string
	for key := range generics.SortedKeys(keys) {
		oldValue, newValue := "-", "-"
		if v, found := old[key]; found {
			oldValue = parameters.FormatValue(v)
		}
		if v, found := updated[key]; found {
			newValue = parameters.FormatValue(v)
		}
		if oldValue != newValue {
			newValue = ui.good.Render(newValue)
		}
		rows = append(rows, []string{key, oldValue, newValue})
	}
	return rows
}

// PrintVersion prints the active parameters of a key.
func (ui *UI) PrintVersion(v paramstore.Version) {
	updated := "built-in defaults"
	if !v.IsDefault() {
		updated = "updated " + humanize.Time(v.UpdatedAt)
	}
	ui.printf("\n%s %s, version %d (%s)\n", ui.title.Render("Parameters"), v.Key, v.Version, ui.dim.Render(updated))
	rows := generics.SliceMap(slices.Collect(generics.SortedKeys(v.Params)), func(key string) []string {
		return []string{key, parameters.FormatValue(v.Params[key])}
	})
	ui.printf("%s", ui.table([]string{"parameter", "value"}, rows))
}

// PrintAllActive prints one line per materialized key.
func (ui *UI) PrintAllActive(versions []paramstore.Version) {
	ui.printf("\n%s\n", ui.title.Render("Active parameters"))
	if len(versions) == 0 {
		ui.printf("  %s\n", ui.dim.Render("none stored, the built-in defaults are used"))
		return
	}
	rows := generics.SliceMap(versions, func(v paramstore.Version) []string {
		return []string{v.Key.String(), fmt.Sprint(v.Version), humanize.Time(v.UpdatedAt), v.Params.String()}
	})
	ui.printf("%s", ui.table([]string{"key", "version", "updated", "parameters"}, rows))
}

// PrintHistory prints the history entries of key, newest first.
func (ui *UI) PrintHistory(key games.Key, entries []storage.HistoryEntry) {
	ui.printf("\n%s %s\n", ui.title.Render("History"), key)
	if len(entries) == 0 {
		ui.printf("  %s\n", ui.dim.Render("empty"))
		return
	}
	rows := generics.SliceMap(entries, func(e storage.HistoryEntry) []string {
		previous := "-"
		if e.PreviousVersion > 0 {
			previous = fmt.Sprint(e.PreviousVersion)
		}
		return []string{fmt.Sprint(e.Version), previous, string(e.Reason), humanize.Time(e.CreatedAt), e.Params.String()}
	})
	ui.printf("%s", ui.table([]string{"version", "previous", "reason", "created", "parameters"}, rows))
}

// sideSymbol renders the piece of side in the given game.
func (ui *UI) sideSymbol(game games.ID, side state.Side) string {
	symbols := map[state.Side]string{state.First: "X", state.Second: "O"}
	if game == games.ChineseCheckers {
		symbols = map[state.Side]string{state.First: "R", state.Second: "B"}
	}
	switch side {
	case state.First:
		return ui.first.Render(symbols[side])
	case state.Second:
		return ui.second.Render(symbols[side])
	}
	return ui.dim.Render(".")
}

// PrintBoard prints a TicTacToe or Chinese Checkers board, centered. Other states are ignored.
func (ui *UI) PrintBoard(s state.GameState) {
	var (
		cells []state.Side
		size  int
	)
	switch v := s.(type) {
	case *state.TicTacToe:
		cells, size = v.Board, 3
	case *state.Checkers:
		cells, size = v.Board, state.CheckersSize
	default:
		return
	}
	var sb strings.Builder
	for row := range size {
		for col := range size {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(ui.sideSymbol(s.Game(), cells[row*size+col]))
		}
		if row < size-1 {
			sb.WriteByte('\n')
		}
	}
	ui.printf("\n")
	ui.printCentered(sb.String())
}

// PrintWinner prints the result of a match: side None is a draw.
func (ui *UI) PrintWinner(game games.ID, winner state.Side, reason string) {
	ui.printf("\n")
	if winner == state.None {
		ui.printCentered(ui.renderer.NewStyle().
			Background(lipgloss.Color("13")).
			Foreground(lipgloss.Color("0")).
			Padding(1, 2).
			Render(fmt.Sprintf("*** DRAW: %s ***", reason)))
	} else {
		ui.printCentered(fmt.Sprintf("*** %s WINS: %s ***", ui.sideSymbol(game, winner), reason))
	}
	ui.printf("\n")
}

// PrintTable prints rows under the headers, with a title.
func (ui *UI) PrintTable(title string, headers []string, rows [][]string) {
	ui.printf("\n%s\n%s", ui.title.Render(title), ui.table(headers, rows))
}

// PrintStats prints the statistics of the recorded training data.
func (ui *UI) PrintStats(stats *recorder.Stats) {
	ui.printf("\n%s\n", ui.title.Render("Training data"))
	ui.printf("  sessions: %d, matches with training data: %d (%d in the last %d days)\n",
		stats.Sessions, stats.Total, stats.Recent, int(recorder.RecentWindow/(24*time.Hour)))
	ui.printf("  player wins: %d, AI wins: %d, player win rate: %.1f%%\n", stats.PlayerWins, stats.AIWins, 100*stats.WinRate)
	if len(stats.ByGame) == 0 {
		return
	}
	rows := generics.SliceMap(slices.Collect(generics.SortedKeys(stats.ByGame)), func(game games.ID) []string {
		return []string{string(game), fmt.Sprint(stats.ByGame[game])}
	})
	ui.printf("%s", ui.table([]string{"game", "matches"}, rows))
}
