// Package transform derives the state×genre and state×year festival tables
// from the FY2022-23 state totals and the genre percentage splits.
package transform

import (
	"fmt"
	"sort"

	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

// Logical column names shared by the source schemas.
const (
	FieldState         = "state"
	FieldFestivalCount = "festival_count"
	FieldGenre         = "genre"
	FieldPercent       = "percent"
)

// StateTotal is one state's festival count for the baseline year.
type StateTotal struct {
	State string `json:"state"`
	Count int    `json:"festival_count"`
}

// Totals holds the state totals in first-seen order.
type Totals struct {
	States []StateTotal `json:"states"`
}

// Get returns the count for state.
func (t *Totals) Get(state string) (int, bool) {
	for _, s := range t.States {
		if s.State == state {
			return s.Count, true
		}
	}
	return 0, false
}

// Baseline returns the national total.
func (t *Totals) Baseline() int {
	n := 0
	for _, s := range t.States {
		n += s.Count
	}
	return n
}

// Names returns the state names in sorted order.
func (t *Totals) Names() []string {
	out := make([]string, len(t.States))
	for i, s := range t.States {
		out[i] = s.State
	}
	sort.Strings(out)
	return out
}

// TotalsSchema returns the schema for the state totals table.
func TotalsSchema(a spec.Aliases) tabular.Schema {
	return tabular.Schema{Fields: []tabular.Field{
		{Name: FieldState, Aliases: a.State, Kind: tabular.KindText, Required: true},
		{Name: FieldFestivalCount, Aliases: a.FestivalCount, Kind: tabular.KindInteger, Required: true},
	}}
}

// GenreSchema returns the schema for the genre percentage table. The state
// column is optional; its presence selects per-state mode.
func GenreSchema(a spec.Aliases) tabular.Schema {
	return tabular.Schema{Fields: []tabular.Field{
		{Name: FieldState, Aliases: a.State, Kind: tabular.KindText},
		{Name: FieldGenre, Aliases: a.Genre, Kind: tabular.KindText, Required: true},
		{Name: FieldPercent, Aliases: a.Percent, Kind: tabular.KindNumber, Required: true},
	}}
}

// LoadStateTotals reads the state totals file.
func LoadStateTotals(path string, a spec.Aliases) (*Totals, *validation.Report, error) {
	tab, err := tabular.ReadFile(path, TotalsSchema(a))
	if err != nil {
		return nil, nil, err
	}
	totals, report := ParseStateTotals(tab)
	tagPath(report, path)
	return totals, report, nil
}

// ParseStateTotals converts a read table into Totals. Rows for the same
// state are summed; rows without a state or with a negative count are
// dropped and reported.
func ParseStateTotals(tab *tabular.Table) (*Totals, *validation.Report) {
	report := validation.NewReport()
	addCoercions(report, tab.Warnings)

	totals := &Totals{}
	index := map[string]int{}
	for _, rec := range tab.Records {
		state := rec.Text(FieldState)
		count := rec.Int(FieldFestivalCount)
		if state == "" {
			report.AddWarning(validation.Result{
				Level:   validation.LevelInput,
				Message: fmt.Sprintf("line %d: row has no state, skipped", rec.Line),
			})
			continue
		}
		if count < 0 {
			report.AddError(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("line %d: %s has a negative festival count", rec.Line, state),
				Group:       state,
				ActualValue: count,
				Expected:    ">= 0",
			})
			continue
		}
		if i, dup := index[state]; dup {
			report.AddWarning(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("line %d: %s listed more than once, counts summed", rec.Line, state),
				Group:       state,
				ActualValue: count,
			})
			totals.States[i].Count += count
			continue
		}
		index[state] = len(totals.States)
		totals.States = append(totals.States, StateTotal{State: state, Count: count})
	}
	return totals, report
}

// GenreMode says whether percentages are given per state or nationally.
type GenreMode string

const (
	ModeNational GenreMode = "national"
	ModePerState GenreMode = "per_state"
)

// GenreShare is one genre percentage row. State is empty in national mode.
type GenreShare struct {
	State   string  `json:"state,omitempty"`
	Genre   string  `json:"genre"`
	Percent float64 `json:"percent"`
}

// GenreTable holds the genre percentage rows in file order.
type GenreTable struct {
	Mode GenreMode    `json:"mode"`
	Rows []GenreShare `json:"rows"`
}

// LoadGenrePercents reads the genre percentage file.
func LoadGenrePercents(path string, a spec.Aliases) (*GenreTable, *validation.Report, error) {
	tab, err := tabular.ReadFile(path, GenreSchema(a))
	if err != nil {
		return nil, nil, err
	}
	genres, report := ParseGenrePercents(tab)
	tagPath(report, path)
	return genres, report, nil
}

// ParseGenrePercents converts a read table into a GenreTable. Repeated
// genres within one state (or nationally) are summed.
func ParseGenrePercents(tab *tabular.Table) (*GenreTable, *validation.Report) {
	report := validation.NewReport()
	addCoercions(report, tab.Warnings)

	g := &GenreTable{Mode: ModeNational}
	if tab.Has(FieldState) {
		g.Mode = ModePerState
	}

	type key struct{ state, genre string }
	index := map[key]int{}
	for _, rec := range tab.Records {
		row := GenreShare{Genre: rec.Text(FieldGenre), Percent: rec.Float(FieldPercent)}
		if g.Mode == ModePerState {
			row.State = rec.Text(FieldState)
			if row.State == "" {
				report.AddWarning(validation.Result{
					Level:   validation.LevelInput,
					Message: fmt.Sprintf("line %d: row has no state, skipped", rec.Line),
				})
				continue
			}
		}
		if row.Genre == "" {
			report.AddWarning(validation.Result{
				Level:   validation.LevelInput,
				Message: fmt.Sprintf("line %d: row has no genre, skipped", rec.Line),
				Group:   row.State,
			})
			continue
		}

		k := key{row.State, row.Genre}
		if i, dup := index[k]; dup {
			report.AddWarning(validation.Result{
				Level:       validation.LevelInput,
				Message:     fmt.Sprintf("line %d: genre %q repeated, percentages summed", rec.Line, row.Genre),
				Group:       row.State,
				ActualValue: row.Percent,
			})
			g.Rows[i].Percent += row.Percent
			continue
		}
		index[k] = len(g.Rows)
		g.Rows = append(g.Rows, row)
	}
	return g, report
}

func addCoercions(report *validation.Report, warnings []tabular.Warning) {
	for _, w := range warnings {
		report.AddInfo(validation.Result{
			Level:       validation.LevelInput,
			Message:     w.String(),
			ActualValue: w.Value,
		})
	}
}

func tagPath(report *validation.Report, path string) {
	for _, list := range [][]validation.Result{report.Errors, report.Warnings, report.Info} {
		for i := range list {
			if list[i].Path == "" {
				list[i].Path = path
			}
		}
	}
}
