package transform

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/MythicBat/Festival-Footprint/pkg/apportion"
	"github.com/MythicBat/Festival-Footprint/pkg/spec"
	"github.com/MythicBat/Festival-Footprint/pkg/tabular"
	"github.com/MythicBat/Festival-Footprint/pkg/validation"
)

// StateGenreOptions controls the state×genre transform.
type StateGenreOptions struct {
	ZeroTotals spec.ZeroTotalPolicy
}

// StateAllocation is one state's genre apportionment.
type StateAllocation struct {
	State      string               `json:"state"`
	Total      int                  `json:"total"`
	Convention apportion.Convention `json:"convention"`
	Result     *apportion.Result    `json:"result"`
}

// StateGenreRow is one output row.
type StateGenreRow struct {
	State string `json:"state"`
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// StateGenreResult is the state×genre dataset plus the per-state detail.
type StateGenreResult struct {
	Mode   GenreMode         `json:"mode"`
	States []StateAllocation `json:"states"`
	Rows   []StateGenreRow   `json:"rows"`
}

// StateGenre apportions each state's festival total over genres with the
// largest-remainder method. In per-state mode each state's percentages are
// divided by their own sum; in national mode one normalized vector is
// applied to every state in totals. States that cannot be allocated are
// reported and left out; the rest proceed.
func StateGenre(totals *Totals, genres *GenreTable, opts StateGenreOptions) (*StateGenreResult, *validation.Report) {
	report := validation.NewReport()
	res := &StateGenreResult{Mode: genres.Mode, States: []StateAllocation{}, Rows: []StateGenreRow{}}

	groups := groupWeights(totals, genres, report)
	for _, g := range groups {
		total, ok := totals.Get(g.state)
		if !ok {
			report.AddInfo(validation.Result{
				Level:   validation.LevelAllocation,
				Message: fmt.Sprintf("%s has genre percentages but no festival total", g.state),
				Group:   g.state,
			})
		}
		if total == 0 && opts.ZeroTotals != spec.ZeroTotalsEmit {
			report.AddInfo(validation.Result{
				Level:   validation.LevelAllocation,
				Message: fmt.Sprintf("%s has no festivals, skipped", g.state),
				Group:   g.state,
			})
			continue
		}

		r, err := apportion.Allocate(total, g.weights)
		if err != nil {
			report.AddError(validation.Result{
				Level:       validation.LevelAllocation,
				Message:     fmt.Sprintf("%s: %v", g.state, err),
				Group:       g.state,
				ActualValue: total,
			})
			continue
		}

		res.States = append(res.States, StateAllocation{State: g.state, Total: total, Convention: g.conv, Result: r})
		for _, s := range r.Shares {
			res.Rows = append(res.Rows, StateGenreRow{State: g.state, Genre: s.Label, Count: s.Count})
		}
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.State != b.State {
			return a.State < b.State
		}
		return a.Genre < b.Genre
	})
	return res, report
}

type weightGroup struct {
	state   string
	conv    apportion.Convention
	weights []apportion.Weight
}

// groupWeights builds one normalized weight vector per state, sorted by state.
func groupWeights(totals *Totals, genres *GenreTable, report *validation.Report) []weightGroup {
	if genres.Mode == ModeNational {
		return broadcast(totals, genres, report)
	}

	byState := map[string][]apportion.Weight{}
	var states []string
	for _, row := range genres.Rows {
		if _, ok := byState[row.State]; !ok {
			states = append(states, row.State)
		}
		byState[row.State] = append(byState[row.State], apportion.Weight{Label: row.Genre, Value: row.Percent})
	}
	sort.Strings(states)

	groups := make([]weightGroup, 0, len(states))
	for _, st := range states {
		ws, err := apportion.NormalizeBySum(byState[st])
		if err != nil {
			report.AddError(validation.Result{
				Level:   validation.LevelAllocation,
				Message: fmt.Sprintf("%s: genre percentages: %v", st, err),
				Group:   st,
			})
			continue
		}
		groups = append(groups, weightGroup{state: st, conv: apportion.Shares, weights: ws})
	}
	return groups
}

func broadcast(totals *Totals, genres *GenreTable, report *validation.Report) []weightGroup {
	raw := make([]apportion.Weight, len(genres.Rows))
	for i, row := range genres.Rows {
		raw[i] = apportion.Weight{Label: row.Genre, Value: row.Percent}
	}
	ws, conv, err := apportion.Normalize(raw)
	if err != nil {
		report.AddError(validation.Result{
			Level:   validation.LevelAllocation,
			Message: fmt.Sprintf("national genre percentages: %v", err),
		})
		return nil
	}
	if conv == apportion.Shares {
		report.AddWarning(validation.Result{
			Level:   validation.LevelInput,
			Message: "national genre percentages sum to neither 1 nor 100; rescaled by their sum",
			Suggestions: []string{
				"Check the genre file for missing or duplicated rows",
			},
		})
	}

	groups := make([]weightGroup, 0, len(totals.States))
	for _, st := range totals.Names() {
		groups = append(groups, weightGroup{state: st, conv: conv, weights: ws})
	}
	return groups
}

// Dataset returns the rows as the state_genre output table.
func (r *StateGenreResult) Dataset() *tabular.Dataset {
	ds := &tabular.Dataset{
		Name: "state_genre",
		Columns: []tabular.Column{
			{Name: "state", Kind: tabular.KindText},
			{Name: "genre", Kind: tabular.KindText},
			{Name: "count", Kind: tabular.KindInteger},
		},
		Rows: make([][]string, len(r.Rows)),
	}
	for i, row := range r.Rows {
		ds.Rows[i] = []string{row.State, row.Genre, strconv.Itoa(row.Count)}
	}
	return ds
}

// StateNames returns the distinct states present in the output, sorted.
func (r *StateGenreResult) StateNames() []string {
	return distinct(r.Rows, func(row StateGenreRow) string { return row.State })
}

// Genres returns the distinct genres present in the output, sorted.
func (r *StateGenreResult) Genres() []string {
	return distinct(r.Rows, func(row StateGenreRow) string { return row.Genre })
}

func distinct[T any](rows []T, key func(T) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, row := range rows {
		k := key(row)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
